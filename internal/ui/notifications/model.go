// Package notifications lists the notifications shown during this and
// earlier sessions.
package notifications

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/clinicdesk/internal/keys"
	"github.com/nhle/clinicdesk/internal/model"
	"github.com/nhle/clinicdesk/internal/store"
	"github.com/nhle/clinicdesk/internal/theme"
)

// historyLimit caps how many log entries are loaded.
const historyLimit = 200

// LoadedMsg is sent when the log has been read from the store.
type LoadedMsg struct {
	Entries []model.NotificationLogEntry
	Err     error
}

// MarkReadMsg asks the application to mark a notification read.
type MarkReadMsg struct {
	NotificationID int64
}

// Model is the notification log view.
type Model struct {
	list   list.Model
	store  store.Store
	keys   *keys.KeyMap
	err    error
	width  int
	height int
}

// New creates a new notification log model.
func New(s store.Store, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, EntryDelegate{}, width, height-2)
	l.Title = "Notifications"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:   l,
		store:  s,
		keys:   k,
		width:  width,
		height: height,
	}
}

// Init returns a command that loads the log.
func (m Model) Init() tea.Cmd {
	return m.Load()
}

// Update handles messages for the log view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		m.err = msg.Err
		items := make([]list.Item, len(msg.Entries))
		for i, e := range msg.Entries {
			items[i] = EntryItem{Entry: e}
		}
		cmd := m.list.SetItems(items)
		return m, cmd

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Select) {
			item, ok := m.list.SelectedItem().(EntryItem)
			if !ok || item.Entry.Read {
				return m, nil
			}
			id := item.Entry.NotificationID
			return m, func() tea.Msg {
				return MarkReadMsg{NotificationID: id}
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// Selected returns the highlighted entry.
func (m Model) Selected() (model.NotificationLogEntry, bool) {
	item, ok := m.list.SelectedItem().(EntryItem)
	if !ok {
		return model.NotificationLogEntry{}, false
	}
	return item.Entry, true
}

// Len returns the number of loaded entries.
func (m Model) Len() int {
	return len(m.list.Items())
}

// View renders the log.
func (m Model) View() string {
	if m.err != nil {
		return theme.ErrorStyle.Render("Could not read notification history: " + m.err.Error())
	}
	if len(m.list.Items()) == 0 {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No notifications yet.")
	}
	return m.list.View()
}

// Load returns a tea.Cmd that reads recent entries from the store.
func (m Model) Load() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		if s == nil {
			return LoadedMsg{}
		}
		entries, err := s.RecentNotifications(context.Background(), historyLimit)
		return LoadedMsg{Entries: entries, Err: err}
	}
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}
