package app

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/clinicdesk/internal/model"
	"github.com/nhle/clinicdesk/internal/notify"
	"github.com/nhle/clinicdesk/internal/route"
	"github.com/nhle/clinicdesk/internal/session"
)

// requestTimeout bounds UI-initiated API calls.
const requestTimeout = 30 * time.Second

// toastMsg carries a toast from the poller to the UI.
type toastMsg notify.Toast

// loginResultMsg reports the outcome of a sign-in request.
type loginResultMsg struct {
	err error
}

// profileLoadedMsg reports the outcome of a profile fetch, along with the
// last section the user visited.
type profileLoadedMsg struct {
	user      *model.User
	lastRoute route.ID
	inPlace   bool
	err       error
}

// lastRouteSavedMsg reports a failed write of the last visited route.
type lastRouteSavedMsg struct {
	err error
}

// markedReadMsg reports the outcome of marking a notification read.
type markedReadMsg struct {
	id  int64
	err error
}

// waitForToast returns a tea.Cmd that waits for the next toast from the
// poller. The handler re-issues it to keep listening.
func (m Model) waitForToast() tea.Cmd {
	ch := m.toastCh
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		t, ok := <-ch
		if !ok {
			return nil
		}
		return toastMsg(t)
	}
}

// login exchanges credentials for tokens and stores them.
func (m Model) login(username, password string) tea.Cmd {
	ctx := m.ctx
	client := m.api
	creds := m.creds
	log := m.log
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()

		tokens, err := client.Login(ctx, username, password)
		if err != nil {
			log.Info("sign-in failed", zap.String("user", username), zap.Error(err))
			return loginResultMsg{err: err}
		}
		if err := creds.SaveTokens(tokens.Access, tokens.Refresh); err != nil {
			return loginResultMsg{err: fmt.Errorf("storing tokens: %w", err)}
		}
		return loginResultMsg{}
	}
}

// loadProfile fetches the profile into the session and looks up where the
// user was last.
func (m Model) loadProfile() tea.Cmd {
	return m.fetchProfile(false)
}

// loadProfileInPlace refetches the profile without navigating.
func (m Model) loadProfileInPlace() tea.Cmd {
	return m.fetchProfile(true)
}

func (m Model) fetchProfile(inPlace bool) tea.Cmd {
	ctx := m.ctx
	client := m.api
	sess := m.session
	s := m.store
	log := m.log
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()

		u, err := session.Load(ctx, sess, client)
		if err != nil {
			log.Debug("profile load failed", zap.Error(err))
			return profileLoadedMsg{inPlace: inPlace, err: err}
		}

		msg := profileLoadedMsg{user: u, inPlace: inPlace}
		if s != nil && !inPlace {
			last, err := s.LastRoute(ctx, u.Username)
			if err != nil {
				log.Warn("reading last route", zap.Error(err))
			}
			msg.lastRoute = route.ID(last)
		}
		return msg
	}
}

// saveLastRoute remembers id for the signed-in user.
func (m Model) saveLastRoute(id route.ID) tea.Cmd {
	s := m.store
	u := m.session.User()
	if s == nil || u == nil {
		return nil
	}
	ctx := m.ctx
	return func() tea.Msg {
		return lastRouteSavedMsg{err: s.SaveLastRoute(ctx, u.Username, string(id))}
	}
}

// markRead marks a notification read on the server and in the local log.
func (m Model) markRead(id int64) tea.Cmd {
	ctx := m.ctx
	client := m.api
	s := m.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()

		if err := client.MarkNotificationRead(ctx, id); err != nil {
			return markedReadMsg{id: id, err: err}
		}
		if s != nil {
			if err := s.MarkLoggedRead(ctx, id); err != nil {
				return markedReadMsg{id: id, err: err}
			}
		}
		return markedReadMsg{id: id}
	}
}
