// Package section renders the dashboard placeholder for a role section.
package section

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/clinicdesk/internal/model"
	"github.com/nhle/clinicdesk/internal/route"
	"github.com/nhle/clinicdesk/internal/theme"
)

// Model shows which section is open and who is signed in.
type Model struct {
	route  route.Route
	user   *model.User
	width  int
	height int
}

// New creates a section view.
func New(width, height int) Model {
	return Model{width: width, height: height}
}

// SetRoute switches the section being shown.
func (m *Model) SetRoute(r route.Route, u *model.User) {
	m.route = r
	m.user = u
}

// Route returns the section being shown.
func (m Model) Route() route.Route {
	return m.route
}

// Update is a no-op; sections have no interactive content yet.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the section.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	parts := []string{titleStyle.Render(m.route.Title)}

	if m.user != nil {
		who := fmt.Sprintf("Signed in as %s", m.user.DisplayName())
		parts = append(parts, who+" "+theme.RoleStyle(strings.ToLower(m.user.Role)).Render(m.user.Role))
	}

	if len(m.route.Roles) > 0 {
		parts = append(parts, "", theme.HelpStyle.Render("Restricted to: "+strings.Join(m.route.Roles, ", ")))
	}

	parts = append(parts, "", theme.DimmedStyle.Render("Use : then 'go <section>' to switch sections."))

	w := m.width - 4
	if w < 20 {
		w = 20
	}
	return theme.PanelStyle.
		Width(w).
		Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
