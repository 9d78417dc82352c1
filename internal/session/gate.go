package session

import (
	"go.uber.org/zap"

	"github.com/nhle/clinicdesk/internal/credential"
	"github.com/nhle/clinicdesk/internal/model"
	"github.com/nhle/clinicdesk/internal/route"
)

// TokenReader reads a stored credential by key.
type TokenReader interface {
	Get(key string) (string, error)
}

// UserSource exposes the session state the gate and the poller consult.
type UserSource interface {
	User() *model.User
	Loading() bool
}

// Outcome is what the router should do with a navigation.
type Outcome int

const (
	// Render shows the requested route.
	Render Outcome = iota
	// Redirect sends the visitor to Decision.Target instead.
	Redirect
	// Wait shows a loading placeholder until the profile arrives.
	Wait
)

func (o Outcome) String() string {
	switch o {
	case Render:
		return "render"
	case Redirect:
		return "redirect"
	case Wait:
		return "wait"
	default:
		return "unknown"
	}
}

// Decision is the result of a gate check.
type Decision struct {
	Outcome Outcome

	// Target is the route to show when Outcome is Redirect.
	Target route.ID

	// Replace means the redirect replaces the current history entry.
	Replace bool
}

// Gate decides whether a route may be shown. It never makes a network
// call: the token is read from local storage on every check.
type Gate struct {
	tokens       TokenReader
	users        UserSource
	enforceRoles bool
	landing      route.ID
	log          *zap.Logger
}

// GateOption customizes a Gate.
type GateOption func(*Gate)

// WithRoleEnforcement toggles checking the user's role against the route.
// With enforcement off only the token's presence is checked.
func WithRoleEnforcement(on bool) GateOption {
	return func(g *Gate) { g.enforceRoles = on }
}

// WithGateLogger sets the logger used for denial reasons.
func WithGateLogger(l *zap.Logger) GateOption {
	return func(g *Gate) {
		if l != nil {
			g.log = l
		}
	}
}

// NewGate returns a gate with role enforcement on.
func NewGate(tokens TokenReader, users UserSource, opts ...GateOption) *Gate {
	g := &Gate{
		tokens:       tokens,
		users:        users,
		enforceRoles: true,
		landing:      route.Landing,
		log:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Check decides what to do with a navigation to r.
func (g *Gate) Check(r route.Route) Decision {
	if r.Public {
		return Decision{Outcome: Render}
	}

	if !g.hasToken() {
		g.log.Debug("route denied", zap.String("route", string(r.ID)), zap.String("reason", "no token"))
		return g.redirect()
	}

	if !g.enforceRoles || len(r.Roles) == 0 {
		return Decision{Outcome: Render}
	}

	u := g.users.User()
	if u == nil {
		if g.users.Loading() {
			return Decision{Outcome: Wait}
		}
		g.log.Debug("route denied", zap.String("route", string(r.ID)), zap.String("reason", "no profile"))
		return g.redirect()
	}

	if !u.HasRole(r.Roles...) {
		g.log.Debug("route denied",
			zap.String("route", string(r.ID)),
			zap.String("reason", "role"),
			zap.String("role", u.Role),
		)
		return g.redirect()
	}

	return Decision{Outcome: Render}
}

// hasToken reports whether a non-empty access token is stored. Read
// errors count as absent.
func (g *Gate) hasToken() bool {
	tok, err := g.tokens.Get(credential.AccessKey)
	if err != nil {
		return false
	}
	return tok != ""
}

func (g *Gate) redirect() Decision {
	return Decision{Outcome: Redirect, Target: g.landing, Replace: true}
}
