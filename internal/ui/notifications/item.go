package notifications

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/clinicdesk/internal/model"
	"github.com/nhle/clinicdesk/internal/theme"
)

// EntryItem wraps a log entry so it can be used in a bubbles/list.
type EntryItem struct {
	Entry model.NotificationLogEntry
}

// FilterValue returns the string used for fuzzy filtering.
func (i EntryItem) FilterValue() string { return i.Entry.Message }

// Title returns the notification message for the list.
func (i EntryItem) Title() string { return i.Entry.Message }

// Description returns a short summary line for the list.
func (i EntryItem) Description() string {
	parts := []string{
		i.Entry.Action,
		relativeTime(i.Entry.ShownAt),
	}
	return strings.Join(parts, " | ")
}

// EntryDelegate implements list.ItemDelegate for rendering log entries.
type EntryDelegate struct{}

// Height returns the number of lines each item takes.
func (d EntryDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d EntryDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d EntryDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single log entry line.
func (d EntryDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(EntryItem)
	if !ok {
		return
	}
	e := it.Entry

	prefix := "●"
	if e.Read {
		prefix = "○"
	}

	action := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorYellow).
		Render(actionLabel(e.Action))

	timeStr := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(relativeTime(e.ShownAt))

	line := fmt.Sprintf("%s %s %s  %s", prefix, action, e.Message, timeStr)

	if e.Read {
		line = theme.DimmedStyle.Render(line)
	}

	if index == m.Index() {
		line = selectedStyle.Render(line)
	} else {
		line = itemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

var (
	itemStyle = lipgloss.NewStyle().PaddingLeft(2)

	selectedStyle = lipgloss.NewStyle().
			PaddingLeft(1).
			Bold(true).
			Foreground(theme.ColorBlue).
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(theme.ColorBlue)
)

// actionLabel returns the action in brackets, or a generic label.
func actionLabel(action string) string {
	if action == "" {
		return "[notice]"
	}
	return "[" + strings.ReplaceAll(action, "_", " ") + "]"
}

// relativeTime returns a human-friendly relative time string.
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		mins := int(d.Minutes())
		if mins == 1 {
			return "1m ago"
		}
		return fmt.Sprintf("%dm ago", mins)
	case d < 24*time.Hour:
		hrs := int(d.Hours())
		if hrs == 1 {
			return "1h ago"
		}
		return fmt.Sprintf("%dh ago", hrs)
	default:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1d ago"
		}
		return fmt.Sprintf("%dd ago", days)
	}
}
