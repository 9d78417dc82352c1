package session

import (
	"errors"
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"

	"github.com/nhle/clinicdesk/internal/credential"
	"github.com/nhle/clinicdesk/internal/model"
	"github.com/nhle/clinicdesk/internal/route"
)

func tokenStore(token string) *credential.Store {
	var items []keyring.Item
	if token != "" {
		items = append(items, keyring.Item{Key: credential.AccessKey, Data: []byte(token)})
	}
	return credential.NewStore(keyring.NewArrayKeyring(items))
}

func signedIn(role string) *Store {
	s := NewStore()
	s.SetUser(&model.User{ID: 1, Username: "u", Role: role})
	return s
}

func mustRoute(t *testing.T, id route.ID) route.Route {
	t.Helper()
	r, ok := route.Lookup(id)
	if !ok {
		t.Fatalf("route %q not registered", id)
	}
	return r
}

type brokenReader struct{}

func (brokenReader) Get(string) (string, error) { return "", errors.New("keyring locked") }

func TestGate_RedirectsWithoutToken(t *testing.T) {
	tests := []struct {
		name   string
		tokens TokenReader
	}{
		{"missing", tokenStore("")},
		{"empty string", credential.NewStore(keyring.NewArrayKeyring([]keyring.Item{{Key: credential.AccessKey, Data: []byte("")}}))},
		{"read error", brokenReader{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for _, enforce := range []bool{true, false} {
				g := NewGate(tc.tokens, signedIn(model.RoleAdmin), WithRoleEnforcement(enforce))
				d := g.Check(mustRoute(t, route.Admin))

				assert.Equal(t, Redirect, d.Outcome)
				assert.Equal(t, route.Landing, d.Target)
				assert.True(t, d.Replace)
			}
		})
	}
}

func TestGate_RendersWithTokenWhenRolesNotEnforced(t *testing.T) {
	// Token presence alone is enough, even for a user whose role does not
	// match and even before the profile has loaded.
	users := []*Store{NewStore(), signedIn(model.RoleClinician), signedIn("Cashier")}

	for _, u := range users {
		g := NewGate(tokenStore("opaque-token"), u, WithRoleEnforcement(false))
		for _, r := range route.Sections() {
			assert.Equal(t, Render, g.Check(r).Outcome, "route %s", r.ID)
		}
	}
}

func TestGate_AnyNonEmptyTokenRenders(t *testing.T) {
	for _, tok := range []string{"   ", "x", "not-a-jwt"} {
		g := NewGate(tokenStore(tok), signedIn(model.RoleAdmin), WithRoleEnforcement(false))
		d := g.Check(mustRoute(t, route.Admin))

		assert.Equal(t, Render, d.Outcome, "token %q", tok)
	}
}

func TestGate_RoleCaseMustMatch(t *testing.T) {
	g := NewGate(tokenStore("tok"), signedIn("Admin"))

	d := g.Check(mustRoute(t, route.Admin))
	assert.Equal(t, Redirect, d.Outcome)
	assert.Equal(t, route.Landing, d.Target)
}

func TestGate_RoleEnforcement(t *testing.T) {
	g := NewGate(tokenStore("tok"), signedIn(model.RoleClinician))

	assert.Equal(t, Render, g.Check(mustRoute(t, route.Clinician)).Outcome)

	d := g.Check(mustRoute(t, route.Admin))
	assert.Equal(t, Redirect, d.Outcome)
	assert.Equal(t, route.Landing, d.Target)

	assert.Equal(t, Redirect, g.Check(mustRoute(t, route.Notifications)).Outcome)
	assert.Equal(t, Redirect, g.Check(mustRoute(t, route.Pharmacy)).Outcome)
}

func TestGate_AdminOnlyReachesAdminRoutes(t *testing.T) {
	g := NewGate(tokenStore("tok"), signedIn(model.RoleAdmin))

	assert.Equal(t, Render, g.Check(mustRoute(t, route.Admin)).Outcome)
	assert.Equal(t, Render, g.Check(mustRoute(t, route.Notifications)).Outcome)
	assert.Equal(t, Redirect, g.Check(mustRoute(t, route.Lab)).Outcome)
}

func TestGate_WaitsWhileProfileLoads(t *testing.T) {
	s := NewStore()
	s.BeginLoad()
	g := NewGate(tokenStore("tok"), s)

	assert.Equal(t, Wait, g.Check(mustRoute(t, route.Admin)).Outcome)

	s.SetUser(&model.User{Role: model.RoleAdmin})
	assert.Equal(t, Render, g.Check(mustRoute(t, route.Admin)).Outcome)
}

func TestGate_RedirectsWhenProfileFailed(t *testing.T) {
	s := NewStore()
	s.BeginLoad()
	s.Fail()
	g := NewGate(tokenStore("tok"), s)

	assert.Equal(t, Redirect, g.Check(mustRoute(t, route.Admin)).Outcome)
}

func TestGate_PublicAlwaysRenders(t *testing.T) {
	g := NewGate(tokenStore(""), NewStore())
	assert.Equal(t, Render, g.Check(mustRoute(t, route.Landing)).Outcome)
}

func TestGate_ObservesTokenChangesOnNextCheck(t *testing.T) {
	creds := tokenStore("")
	g := NewGate(creds, signedIn(model.RoleLab))
	lab := mustRoute(t, route.Lab)

	assert.Equal(t, Redirect, g.Check(lab).Outcome)

	assert.NoError(t, creds.Set(credential.AccessKey, "fresh"))
	assert.Equal(t, Render, g.Check(lab).Outcome)

	assert.NoError(t, creds.Delete(credential.AccessKey))
	assert.Equal(t, Redirect, g.Check(lab).Outcome)
}
