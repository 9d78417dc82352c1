package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/clinicdesk/internal/model"
)

func TestStore_Lifecycle(t *testing.T) {
	s := NewStore()
	assert.Nil(t, s.User())
	assert.False(t, s.Loading())

	var changes int
	s.Subscribe(func() {
		changes++
		// Listeners may read the store without deadlocking.
		_ = s.User()
	})

	s.BeginLoad()
	assert.True(t, s.Loading())

	s.SetUser(&model.User{Username: "amina", Role: model.RoleAdmin})
	assert.False(t, s.Loading())
	require.NotNil(t, s.User())
	assert.Equal(t, "amina", s.User().Username)

	s.Clear()
	assert.Nil(t, s.User())
	assert.Equal(t, 3, changes)
}

func TestStore_UserIsACopy(t *testing.T) {
	s := NewStore()
	u := &model.User{Role: model.RoleLab}
	s.SetUser(u)

	u.Role = model.RoleAdmin
	assert.Equal(t, model.RoleLab, s.User().Role)

	got := s.User()
	got.Role = model.RoleAdmin
	assert.Equal(t, model.RoleLab, s.User().Role)
}

type fakeProfile struct {
	user *model.User
	err  error
	seen func()
}

func (f fakeProfile) Profile(context.Context) (*model.User, error) {
	if f.seen != nil {
		f.seen()
	}
	return f.user, f.err
}

func TestLoad(t *testing.T) {
	s := NewStore()
	var loadingDuringFetch bool
	api := fakeProfile{
		user: &model.User{Username: "kofi", Role: model.RoleClinician},
		seen: func() { loadingDuringFetch = s.Loading() },
	}

	u, err := Load(context.Background(), s, api)
	require.NoError(t, err)
	assert.Equal(t, "kofi", u.Username)
	assert.True(t, loadingDuringFetch)
	assert.False(t, s.Loading())
	assert.Equal(t, model.RoleClinician, s.User().Role)
}

func TestLoad_Failure(t *testing.T) {
	s := NewStore()
	s.SetUser(&model.User{Role: model.RoleAdmin})

	_, err := Load(context.Background(), s, fakeProfile{err: errors.New("boom")})
	assert.Error(t, err)
	assert.Nil(t, s.User())
	assert.False(t, s.Loading())
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": exp.Unix(),
		"sub": "4",
	}).SignedString([]byte("irrelevant"))
	require.NoError(t, err)

	got, ok := TokenExpiry(tok)
	require.True(t, ok)
	assert.True(t, got.Equal(exp))

	_, ok = TokenExpiry("opaque-token")
	assert.False(t, ok)
}
