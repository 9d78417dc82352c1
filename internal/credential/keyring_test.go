package credential

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(items ...keyring.Item) *Store {
	return NewStore(keyring.NewArrayKeyring(items))
}

func TestGet_Missing(t *testing.T) {
	s := newTestStore()

	_, err := s.Get(AccessKey)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, s.AccessToken())
}

func TestSetGetDelete(t *testing.T) {
	s := newTestStore()

	require.NoError(t, s.Set(AccessKey, "tok-1"))
	got, err := s.Get(AccessKey)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", got)
	assert.Equal(t, "tok-1", s.AccessToken())

	require.NoError(t, s.Delete(AccessKey))
	_, err = s.Get(AccessKey)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete_MissingIsNoop(t *testing.T) {
	s := newTestStore()
	assert.NoError(t, s.Delete(RefreshKey))
}

func TestSaveTokensAndClear(t *testing.T) {
	s := newTestStore()

	require.NoError(t, s.SaveTokens("acc", "ref"))
	refresh, err := s.Get(RefreshKey)
	require.NoError(t, err)
	assert.Equal(t, "ref", refresh)

	require.NoError(t, s.Clear())
	assert.Empty(t, s.AccessToken())
	_, err = s.Get(RefreshKey)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveTokens_NoRefresh(t *testing.T) {
	s := newTestStore(keyring.Item{Key: RefreshKey, Data: []byte("old")})

	require.NoError(t, s.SaveTokens("acc", ""))
	assert.Equal(t, "acc", s.AccessToken())
	old, err := s.Get(RefreshKey)
	require.NoError(t, err)
	assert.Equal(t, "old", old)
}
