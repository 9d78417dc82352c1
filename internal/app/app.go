package app

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/clinicdesk/internal/api"
	"github.com/nhle/clinicdesk/internal/keys"
	"github.com/nhle/clinicdesk/internal/model"
	"github.com/nhle/clinicdesk/internal/notify"
	"github.com/nhle/clinicdesk/internal/route"
	"github.com/nhle/clinicdesk/internal/session"
	"github.com/nhle/clinicdesk/internal/store"
	"github.com/nhle/clinicdesk/internal/ui"
	"github.com/nhle/clinicdesk/internal/ui/command"
	helpview "github.com/nhle/clinicdesk/internal/ui/help"
	"github.com/nhle/clinicdesk/internal/ui/landing"
	"github.com/nhle/clinicdesk/internal/ui/notifications"
	"github.com/nhle/clinicdesk/internal/ui/section"
	"github.com/nhle/clinicdesk/internal/ui/toast"
)

// Credentials is the token storage the application reads and writes.
type Credentials interface {
	session.TokenReader
	AccessToken() string
	SaveTokens(access, refresh string) error
	Clear() error
}

// API is the subset of the clinic REST client the UI calls directly.
type API interface {
	Login(ctx context.Context, username, password string) (*api.Tokens, error)
	Profile(ctx context.Context) (*model.User, error)
	MarkNotificationRead(ctx context.Context, id int64) error
}

// Poller is the notification poller lifecycle.
type Poller interface {
	Reconcile(ctx context.Context)
	Stop()
}

// Deps bundles the collaborators the root model needs.
type Deps struct {
	Config      *model.AppConfig
	Credentials Credentials
	Session     *session.Store
	API         API
	Poller      Poller
	Toasts      <-chan notify.Toast
	Store       store.Store
	Logger      *zap.Logger
}

// overlay is a view drawn in place of the current route.
type overlay int

const (
	overlayNone overlay = iota
	overlayHelp
	overlayCommand
)

// Model is the root Bubble Tea model. It owns navigation: every route
// change goes through the session gate.
type Model struct {
	ctx     context.Context
	cfg     *model.AppConfig
	creds   Credentials
	session *session.Store
	gate    *session.Gate
	api     API
	poller  Poller
	toastCh <-chan notify.Toast
	store   store.Store
	log     *zap.Logger

	keys    *keys.KeyMap
	history *route.History
	layout  ui.Layout
	overlay overlay

	// pending is a route waiting for the profile to load.
	pending route.ID

	landing       landing.Model
	section       section.Model
	notifications notifications.Model
	helpView      helpview.Model
	commandView   command.Model
	toasts        toast.Model
	spinner       spinner.Model

	ready bool
}

// New creates the root model and subscribes the poller to session
// changes.
func New(ctx context.Context, d Deps) Model {
	cfg := d.Config
	if cfg == nil {
		cfg = model.DefaultConfig()
	}
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}

	gate := session.NewGate(d.Credentials, d.Session,
		session.WithRoleEnforcement(cfg.Gate.EnforceRoles),
		session.WithGateLogger(log.Named("gate")),
	)

	if d.Poller != nil {
		p := d.Poller
		d.Session.Subscribe(func() { p.Reconcile(ctx) })
	}

	k := keys.DefaultKeyMap()
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	help := helpview.New(k, 80, 24)
	help.SetSections(sectionNames())

	return Model{
		ctx:           ctx,
		cfg:           cfg,
		creds:         d.Credentials,
		session:       d.Session,
		gate:          gate,
		api:           d.API,
		poller:        d.Poller,
		toastCh:       d.Toasts,
		store:         d.Store,
		log:           log,
		keys:          k,
		history:       route.NewHistory(route.Landing),
		layout:        ui.NewLayout(80, 24),
		landing:       landing.New(80, 24),
		section:       section.New(80, 24),
		notifications: notifications.New(d.Store, k, 80, 24),
		helpView:      help,
		commandView:   command.New(80, 24),
		toasts:        toast.New(cfg.ToastTTL(), 0),
		spinner:       sp,
	}
}

// Init starts the sign-in form, listens for toasts, and restores the
// session when a token is already stored.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.landing.Start(),
		m.waitForToast(),
		m.spinner.Tick,
	}
	if m.creds.AccessToken() != "" {
		cmds = append(cmds, m.loadProfile())
	}
	return tea.Batch(cmds...)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.landing.SetSize(w, h)
		m.section.SetSize(w, h)
		m.notifications.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.commandView.SetSize(w, h)
		m.toasts.SetWidth(min(40, w/2))
		// Forward to the landing form so huh can lay itself out.
		var cmd tea.Cmd
		m.landing, cmd = m.landing.Update(msg)
		return m, cmd

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case toastMsg:
		// Toasts still buffered from a signed-out session are dropped.
		if m.session.User() == nil || m.history.Current() == route.Landing {
			return m, m.waitForToast()
		}
		cmd := m.toasts.Push(toast.Item{Key: msg.Key, Title: msg.Title, Body: msg.Body})
		cmds := []tea.Cmd{cmd, m.waitForToast()}
		if m.history.Current() == route.Notifications {
			cmds = append(cmds, m.notifications.Load())
		}
		return m, tea.Batch(cmds...)

	case toast.ExpireMsg:
		m.toasts, _ = m.toasts.Update(msg)
		return m, nil

	case landing.SubmitMsg:
		return m, m.login(msg.Username, msg.Password)

	case landing.CancelMsg:
		return m, m.quit()

	case loginResultMsg:
		if msg.err != nil {
			m.landing.SetError(loginErrorText(msg.err))
			cmd := m.landing.Start()
			return m, cmd
		}
		m.landing.SetError("")
		m.landing.SetNotice("")
		return m, m.loadProfile()

	case profileLoadedMsg:
		return m.handleProfile(msg)

	case lastRouteSavedMsg:
		if msg.err != nil {
			m.log.Warn("saving last route", zap.Error(msg.err))
		}
		return m, nil

	case notifications.LoadedMsg:
		var cmd tea.Cmd
		m.notifications, cmd = m.notifications.Update(msg)
		return m, cmd

	case notifications.MarkReadMsg:
		return m, m.markRead(msg.NotificationID)

	case markedReadMsg:
		if msg.err != nil {
			cmd := m.toasts.Push(toast.Item{Title: "Could not mark as read", Body: msg.err.Error()})
			return m, cmd
		}
		return m, m.notifications.Load()

	case command.CommandMsg:
		m.overlay = overlayNone
		return m.execute(msg)

	case tea.KeyMsg:
		if next, cmd, handled := m.handleKey(msg); handled {
			return next, cmd
		}
	}

	return m.updateActiveView(msg)
}

// handleKey processes global keys. It reports false when the key
// belongs to the active view.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		return m, m.quit(), true
	}

	switch m.overlay {
	case overlayHelp:
		if key.Matches(msg, m.keys.Help, m.keys.Back) {
			m.overlay = overlayNone
		}
		return m, nil, true
	case overlayCommand:
		if msg.String() == "esc" {
			m.overlay = overlayNone
			return m, nil, true
		}
		return m, nil, false
	}

	// The sign-in form owns the keyboard, except esc to leave it.
	if m.history.Current() == route.Landing {
		if msg.String() == "esc" && m.history.Len() > 1 {
			cmd := m.back()
			return m, cmd, true
		}
		return m, nil, false
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, m.quit(), true
	case key.Matches(msg, m.keys.Help):
		m.overlay = overlayHelp
		return m, nil, true
	case key.Matches(msg, m.keys.Command):
		m.overlay = overlayCommand
		cmd := m.commandView.Focus()
		return m, cmd, true
	case key.Matches(msg, m.keys.Back):
		cmd := m.back()
		return m, cmd, true
	case key.Matches(msg, m.keys.Refresh):
		return m, m.refresh(), true
	case key.Matches(msg, m.keys.Notifications):
		cmd := m.navigate(route.Notifications)
		return m, cmd, true
	case key.Matches(msg, m.keys.Home):
		cmd := m.goHome()
		return m, cmd, true
	case key.Matches(msg, m.keys.NextSection):
		cmd := m.nextSection()
		return m, cmd, true
	case key.Matches(msg, m.keys.Dismiss):
		m.toasts.Dismiss()
		return m, nil, true
	case key.Matches(msg, m.keys.Logout):
		cmd := m.logout()
		return m, cmd, true
	}
	return m, nil, false
}

// updateActiveView dispatches the message to the view on screen.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch {
	case m.overlay == overlayCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	case m.overlay == overlayHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case m.history.Current() == route.Landing:
		m.landing, cmd = m.landing.Update(msg)
	case m.history.Current() == route.Notifications:
		m.notifications, cmd = m.notifications.Update(msg)
	default:
		m.section, cmd = m.section.Update(msg)
	}

	return m, cmd
}

// execute runs a command palette command.
func (m Model) execute(c command.CommandMsg) (tea.Model, tea.Cmd) {
	switch c.Verb {
	case command.VerbGo:
		id, ok := route.Parse(c.Arg)
		if !ok {
			cmd := m.toasts.Push(toast.Item{Title: "Unknown section", Body: c.Arg})
			return m, cmd
		}
		cmd := m.navigate(id)
		return m, cmd
	case command.VerbBack:
		cmd := m.back()
		return m, cmd
	case command.VerbLogout:
		cmd := m.logout()
		return m, cmd
	case command.VerbRefresh:
		return m, m.refresh()
	case command.VerbQuit:
		return m, m.quit()
	}
	return m, nil
}

// navigate pushes id after the gate allows it. A redirect replaces the
// attempted entry, so Back never returns to a denied route.
func (m *Model) navigate(id route.ID) tea.Cmd {
	if id == m.history.Current() {
		return nil
	}
	m.history.Push(id)
	return m.show()
}

// back pops one entry and re-checks the gate for the one revealed.
func (m *Model) back() tea.Cmd {
	if _, ok := m.history.Back(); !ok {
		return nil
	}
	return m.show()
}

// show runs the gate for the current history entry and renders it,
// redirects, or waits for the profile.
func (m *Model) show() tea.Cmd {
	id := m.history.Current()
	r, ok := route.Lookup(id)
	if !ok {
		m.history.Replace(route.Landing)
		return nil
	}

	d := m.gate.Check(r)
	switch d.Outcome {
	case session.Wait:
		m.pending = id
		return nil

	case session.Redirect:
		m.pending = ""
		if d.Replace {
			m.history.Replace(d.Target)
		} else {
			m.history.Push(d.Target)
		}
		m.landing.SetNotice("Sign in with an account that can open " + r.Title + ".")
		return m.landing.Start()
	}

	m.pending = ""
	return m.enter(r)
}

// enter renders r, which the gate has already allowed.
func (m *Model) enter(r route.Route) tea.Cmd {
	switch r.ID {
	case route.Landing:
		return m.landing.Start()
	case route.Notifications:
		return tea.Batch(m.notifications.Load(), m.saveLastRoute(r.ID))
	default:
		m.section.SetRoute(r, m.session.User())
		return m.saveLastRoute(r.ID)
	}
}

// goHome navigates to the signed-in user's default section.
func (m *Model) goHome() tea.Cmd {
	u := m.session.User()
	if u == nil {
		return nil
	}
	return m.navigate(route.HomeFor(u.Role))
}

// nextSection cycles through the sections the user may open.
func (m *Model) nextSection() tea.Cmd {
	allowed := m.allowedSections()
	if len(allowed) == 0 {
		return nil
	}
	cur := m.history.Current()
	next := allowed[0]
	for i, id := range allowed {
		if id == cur {
			next = allowed[(i+1)%len(allowed)]
			break
		}
	}
	return m.navigate(next)
}

// allowedSections lists sections the gate would render right now.
func (m Model) allowedSections() []route.ID {
	var out []route.ID
	for _, r := range route.Sections() {
		if m.gate.Check(r).Outcome == session.Render {
			out = append(out, r.ID)
		}
	}
	return out
}

// handleProfile finishes a session restore or sign-in.
func (m Model) handleProfile(msg profileLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if api.IsAuthError(msg.err) {
			if err := m.creds.Clear(); err != nil {
				m.log.Warn("clearing rejected credentials", zap.Error(err))
			}
			m.landing.SetNotice("Your session has expired. Please sign in again.")
		} else {
			m.landing.SetNotice("Could not load your profile. Press ctrl+c to quit or sign in again.")
		}
		m.history.Reset(route.Landing)
		m.pending = ""
		cmd := m.landing.Start()
		return m, cmd
	}

	u := msg.user
	if msg.inPlace {
		// A refresh re-checks the open route against the new profile.
		if m.history.Current() == route.Landing {
			return m, nil
		}
		cmd := m.show()
		return m, cmd
	}
	m.log.Info("signed in", zap.String("user", u.Username), zap.String("role", u.Role))

	target := m.pending
	if target == "" {
		target = msg.lastRoute
	}
	if target == "" || !m.canOpen(target) {
		target = route.HomeFor(u.Role)
	}
	if target == route.Landing {
		m.landing.SetNotice("No section is available for role " + u.Role + ".")
		return m, nil
	}

	m.pending = ""
	m.history.Reset(target)
	cmd := m.show()
	return m, cmd
}

// canOpen reports whether id exists and the gate renders it.
func (m Model) canOpen(id route.ID) bool {
	r, ok := route.Lookup(id)
	return ok && !r.Public && m.gate.Check(r).Outcome == session.Render
}

// logout forgets the tokens and the user and returns to sign-in.
func (m *Model) logout() tea.Cmd {
	if err := m.creds.Clear(); err != nil {
		m.log.Warn("clearing credentials", zap.Error(err))
	}
	m.session.Clear()
	m.toasts.Clear()
	m.pending = ""
	m.history.Reset(route.Landing)
	m.landing.SetError("")
	m.landing.SetNotice("Signed out.")
	m.log.Info("signed out")
	return m.landing.Start()
}

// refresh reloads the profile and the notification log.
func (m Model) refresh() tea.Cmd {
	cmds := []tea.Cmd{}
	if m.creds.AccessToken() != "" {
		cmds = append(cmds, m.loadProfileInPlace())
	}
	if m.history.Current() == route.Notifications {
		cmds = append(cmds, m.notifications.Load())
	}
	return tea.Batch(cmds...)
}

func (m Model) quit() tea.Cmd {
	if m.poller != nil {
		m.poller.Stop()
	}
	return tea.Quit
}

// loginErrorText turns a sign-in failure into a user-facing message.
func loginErrorText(err error) string {
	var msg string
	switch {
	case api.IsAuthError(err):
		msg = "Invalid username or password."
	default:
		msg = "Sign-in failed: " + err.Error()
	}
	return strings.TrimSpace(msg)
}

func sectionNames() []string {
	rs := route.Sections()
	names := make([]string, len(rs))
	for i, r := range rs {
		names[i] = string(r.ID)
	}
	return names
}
