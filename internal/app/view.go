package app

import (
	"fmt"
	"time"

	"github.com/nhle/clinicdesk/internal/route"
	"github.com/nhle/clinicdesk/internal/session"
)

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader(m.headerTitle(), m.sessionStatus(time.Now()))
	content := m.layout.Overlay(m.renderContent(), m.toasts.View())
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the active view.
func (m Model) renderContent() string {
	switch m.overlay {
	case overlayHelp:
		return m.helpView.View()
	case overlayCommand:
		return m.commandView.View()
	}

	if m.pending != "" {
		return m.spinner.View() + " Loading your profile..."
	}

	switch m.history.Current() {
	case route.Landing:
		if m.session.Loading() {
			return m.spinner.View() + " Restoring your session..."
		}
		return m.landing.View()
	case route.Notifications:
		return m.notifications.View()
	default:
		return m.section.View()
	}
}

// headerTitle names the application and the open section.
func (m Model) headerTitle() string {
	title := "ClinicDesk"
	if r, ok := route.Lookup(m.history.Current()); ok {
		title += " · " + r.Title
	}
	return title
}

// sessionStatus describes who is signed in and when the token expires.
func (m Model) sessionStatus(now time.Time) string {
	u := m.session.User()
	if u == nil {
		if m.session.Loading() {
			return "signing in..."
		}
		return "signed out"
	}

	status := fmt.Sprintf("%s (%s)", u.Username, u.Role)
	if exp, ok := session.TokenExpiry(m.creds.AccessToken()); ok {
		status += " · " + expiryText(exp.Sub(now))
	}
	return status
}

// expiryText formats the time left on the access token.
func expiryText(d time.Duration) string {
	switch {
	case d <= 0:
		return "token expired"
	case d < time.Minute:
		return "token expires in <1m"
	case d < time.Hour:
		return fmt.Sprintf("token expires in %dm", int(d.Minutes()))
	default:
		return fmt.Sprintf("token expires in %dh%02dm", int(d.Hours()), int(d.Minutes())%60)
	}
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.overlay {
	case overlayHelp:
		return "? close help | esc back"
	case overlayCommand:
		return "enter execute | esc close"
	}

	switch m.history.Current() {
	case route.Landing:
		if m.history.Len() > 1 {
			return "tab next field | enter submit | esc back | ctrl+c quit"
		}
		return "tab next field | enter submit | ctrl+c quit"
	case route.Notifications:
		return "enter mark read | j/k move | r refresh | esc back | ? help"
	default:
		return "tab next section | n notifications | : command | L log out | ? help | q quit"
	}
}
