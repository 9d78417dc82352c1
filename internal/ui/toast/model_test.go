package toast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPush_ShowsAndSchedulesExpiry(t *testing.T) {
	m := New(time.Second, 0)

	cmd := m.Push(Item{Key: "notif-1", Title: "Patient created", Body: "New patient"})
	require.NotNil(t, cmd)
	assert.Equal(t, 1, m.Len())
	assert.True(t, m.Visible("notif-1"))
	assert.Contains(t, m.View(), "Patient created")
	assert.Contains(t, m.View(), "New patient")
}

func TestPush_DropsVisibleKey(t *testing.T) {
	m := New(time.Second, 0)

	require.NotNil(t, m.Push(Item{Key: "notif-1", Title: "a"}))
	assert.Nil(t, m.Push(Item{Key: "notif-1", Title: "b"}))
	assert.Equal(t, 1, m.Len())
}

func TestPush_EmptyKeyNeverDeduped(t *testing.T) {
	m := New(time.Second, 0)

	m.Push(Item{Title: "error"})
	m.Push(Item{Title: "error"})
	assert.Equal(t, 2, m.Len())
}

func TestPush_CapsStack(t *testing.T) {
	m := New(time.Second, 2)

	m.Push(Item{Key: "a"})
	m.Push(Item{Key: "b"})
	m.Push(Item{Key: "c"})
	assert.Equal(t, []string{"b", "c"}, m.Keys())
}

func TestExpire_RemovesOnlyThatToast(t *testing.T) {
	m := New(time.Second, 0)
	m.Push(Item{Key: "a"})
	m.Push(Item{Key: "b"})

	m, _ = m.Update(ExpireMsg{seq: 1})
	assert.Equal(t, []string{"b"}, m.Keys())

	// Stale expiry for an already-removed toast is a no-op.
	m, _ = m.Update(ExpireMsg{seq: 1})
	assert.Equal(t, []string{"b"}, m.Keys())
}

func TestExpire_KeyCanReappearAfterExpiry(t *testing.T) {
	m := New(time.Second, 0)
	m.Push(Item{Key: "notif-1"})
	m, _ = m.Update(ExpireMsg{seq: 1})

	assert.NotNil(t, m.Push(Item{Key: "notif-1"}))
	assert.True(t, m.Visible("notif-1"))
}

func TestDismissAndClear(t *testing.T) {
	m := New(time.Second, 0)
	m.Push(Item{Key: "a"})
	m.Push(Item{Key: "b"})

	m.Dismiss()
	assert.Equal(t, []string{"b"}, m.Keys())

	m.Clear()
	assert.Equal(t, 0, m.Len())
	assert.Empty(t, m.View())

	m.Dismiss()
	assert.Equal(t, 0, m.Len())
}
