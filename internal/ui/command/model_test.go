package command

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		want    CommandMsg
		wantErr bool
	}{
		{input: "go admin", want: CommandMsg{Verb: VerbGo, Arg: "admin"}},
		{input: "  GO   Lab ", want: CommandMsg{Verb: VerbGo, Arg: "lab"}},
		{input: "back", want: CommandMsg{Verb: VerbBack}},
		{input: "logout", want: CommandMsg{Verb: VerbLogout}},
		{input: "refresh", want: CommandMsg{Verb: VerbRefresh}},
		{input: "quit", want: CommandMsg{Verb: VerbQuit}},
		{input: "q", want: CommandMsg{Verb: VerbQuit}},
		{input: "", wantErr: true},
		{input: "go", wantErr: true},
		{input: "go a b", wantErr: true},
		{input: "back now", wantErr: true},
		{input: "teleport", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func typeInto(m Model, s string) Model {
	for _, r := range s {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func TestModel_EnterEmitsCommand(t *testing.T) {
	m := New(80, 24)
	m = typeInto(m, "go lab")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, CommandMsg{Verb: VerbGo, Arg: "lab"}, cmd())
	assert.NoError(t, m.Err())
}

func TestModel_InvalidCommandShowsError(t *testing.T) {
	m := New(80, 24)
	m = typeInto(m, "jump")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Error(t, m.Err())
	assert.Contains(t, m.View(), "unknown command")
}
