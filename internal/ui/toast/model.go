// Package toast renders a stack of short-lived messages in a corner of
// the screen.
package toast

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/clinicdesk/internal/theme"
)

const (
	// DefaultTTL is how long a toast stays visible.
	DefaultTTL = 5 * time.Second

	// DefaultMax caps the number of visible toasts.
	DefaultMax = 4
)

// Item is a toast to display.
type Item struct {
	// Key deduplicates toasts: a key already on screen is ignored.
	Key   string
	Title string
	Body  string
}

// ExpireMsg removes the toast with the matching sequence number.
type ExpireMsg struct {
	seq int
}

type entry struct {
	Item
	seq int
}

// Model is a bounded stack of toasts, oldest first.
type Model struct {
	items []entry
	ttl   time.Duration
	max   int
	seq   int
	width int
}

// New creates an empty toast stack. Non-positive values use defaults.
func New(ttl time.Duration, limit int) Model {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if limit <= 0 {
		limit = DefaultMax
	}
	return Model{ttl: ttl, max: limit, width: 40}
}

// Push shows item and returns the command that expires it. It returns nil
// when a toast with the same key is already visible.
func (m *Model) Push(item Item) tea.Cmd {
	if item.Key != "" && m.Visible(item.Key) {
		return nil
	}

	m.seq++
	seq := m.seq
	m.items = append(m.items, entry{Item: item, seq: seq})
	if len(m.items) > m.max {
		m.items = m.items[len(m.items)-m.max:]
	}

	return tea.Tick(m.ttl, func(time.Time) tea.Msg {
		return ExpireMsg{seq: seq}
	})
}

// Update handles expiry messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(ExpireMsg); ok {
		m.remove(msg.seq)
	}
	return m, nil
}

// Dismiss removes the oldest toast.
func (m *Model) Dismiss() {
	if len(m.items) > 0 {
		m.items = m.items[1:]
	}
}

// Clear removes every toast.
func (m *Model) Clear() {
	m.items = nil
}

// Visible reports whether a toast with key is on screen.
func (m Model) Visible(key string) bool {
	for _, e := range m.items {
		if e.Key == key {
			return true
		}
	}
	return false
}

// Len returns the number of visible toasts.
func (m Model) Len() int {
	return len(m.items)
}

// Keys returns the keys of visible toasts, oldest first.
func (m Model) Keys() []string {
	keys := make([]string, len(m.items))
	for i, e := range m.items {
		keys[i] = e.Key
	}
	return keys
}

// SetWidth sets the width of each toast box.
func (m *Model) SetWidth(w int) {
	if w > 0 {
		m.width = w
	}
}

// View renders the stack, newest at the bottom. It is empty when no toast
// is visible.
func (m Model) View() string {
	if len(m.items) == 0 {
		return ""
	}
	boxes := make([]string, 0, len(m.items))
	for _, e := range m.items {
		body := theme.ToastTitleStyle.Render(e.Title)
		if e.Body != "" {
			body = lipgloss.JoinVertical(lipgloss.Left, body, e.Body)
		}
		boxes = append(boxes, theme.ToastStyle.Width(m.width).Render(body))
	}
	return lipgloss.JoinVertical(lipgloss.Right, boxes...)
}

func (m *Model) remove(seq int) {
	for i, e := range m.items {
		if e.seq == seq {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return
		}
	}
}
