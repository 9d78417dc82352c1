package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/clinicdesk/internal/model"
	"github.com/nhle/clinicdesk/internal/session"
)

const waitFor = 2 * time.Second

type reply struct {
	list []model.Notification
	err  error
}

// scriptedAPI answers each call with the next scripted reply; the last
// reply repeats.
type scriptedAPI struct {
	mu      sync.Mutex
	calls   int
	replies []reply
}

func (a *scriptedAPI) ListNotifications(context.Context) ([]model.Notification, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	i := a.calls
	a.calls++
	if len(a.replies) == 0 {
		return nil, nil
	}
	if i >= len(a.replies) {
		i = len(a.replies) - 1
	}
	return a.replies[i].list, a.replies[i].err
}

func (a *scriptedAPI) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

type toastSink struct {
	mu     sync.Mutex
	toasts []Toast
}

func (s *toastSink) Notify(_ context.Context, t Toast) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toasts = append(s.toasts, t)
	return nil
}

func (s *toastSink) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, len(s.toasts))
	for i, t := range s.toasts {
		keys[i] = t.Key
	}
	return keys
}

func unread(id int64) model.Notification {
	return model.Notification{ID: id, Action: "patient_created", Message: "msg"}
}

func read(id int64) model.Notification {
	n := unread(id)
	n.IsRead = true
	return n
}

func userStore(role string, id int64) *session.Store {
	s := session.NewStore()
	s.SetUser(&model.User{ID: id, Username: role, Role: role})
	return s
}

func newTestPoller(t *testing.T, src SessionSource, api Lister, out Notifier, opts ...Option) (*Poller, interface {
	Advance(time.Duration)
}) {
	t.Helper()
	fc := clockwork.NewFakeClock()
	p := New(src, api, out, append([]Option{WithClock(fc)}, opts...)...)
	t.Cleanup(p.Stop)
	return p, fc
}

func TestPoller_InactiveForNonAdmin(t *testing.T) {
	api := &scriptedAPI{replies: []reply{{list: []model.Notification{unread(1)}}}}
	sink := &toastSink{}
	p, fc := newTestPoller(t, userStore("Cashier", 1), api, sink)

	p.Reconcile(context.Background())
	fc.Advance(25 * time.Second)

	assert.False(t, p.Running())
	assert.Zero(t, api.Calls())
	assert.Empty(t, sink.Keys())
}

func TestPoller_RoleMatchIsExact(t *testing.T) {
	for _, role := range []string{"Admin", "ADMIN", " admin"} {
		api := &scriptedAPI{replies: []reply{{list: []model.Notification{unread(1)}}}}
		sink := &toastSink{}
		p, fc := newTestPoller(t, userStore(role, 1), api, sink)

		p.Reconcile(context.Background())
		fc.Advance(25 * time.Second)

		assert.False(t, p.Running(), "role %q", role)
		assert.Zero(t, api.Calls(), "role %q", role)
		assert.Empty(t, sink.Keys(), "role %q", role)
	}
}

func TestPoller_InactiveWhileLoading(t *testing.T) {
	for _, role := range []string{model.RoleAdmin, model.RoleLab} {
		s := userStore(role, 1)
		s.BeginLoad()

		api := &scriptedAPI{}
		p, fc := newTestPoller(t, s, api, &toastSink{})

		p.Reconcile(context.Background())
		fc.Advance(25 * time.Second)

		assert.False(t, p.Running(), "role %s", role)
		assert.Zero(t, api.Calls(), "role %s", role)
	}
}

func TestPoller_InactiveWithoutUser(t *testing.T) {
	api := &scriptedAPI{}
	p, fc := newTestPoller(t, session.NewStore(), api, &toastSink{})

	p.Reconcile(context.Background())
	fc.Advance(25 * time.Second)

	assert.Zero(t, api.Calls())
}

func TestPoller_FetchAndDedupe(t *testing.T) {
	api := &scriptedAPI{replies: []reply{
		{list: []model.Notification{unread(1), read(2)}},
		{list: []model.Notification{unread(1), unread(3)}},
	}}
	sink := &toastSink{}
	p, fc := newTestPoller(t, userStore(model.RoleAdmin, 1), api, sink)

	p.Reconcile(context.Background())
	require.Eventually(t, func() bool { return len(sink.Keys()) == 1 }, waitFor, time.Millisecond)
	assert.Equal(t, []string{"notif-1"}, sink.Keys())
	require.Eventually(t, func() bool { return p.Seen(1) }, waitFor, time.Millisecond)
	assert.False(t, p.Seen(2))

	fc.Advance(12 * time.Second)
	require.Eventually(t, func() bool { return len(sink.Keys()) == 2 }, waitFor, time.Millisecond)

	assert.Equal(t, []string{"notif-1", "notif-3"}, sink.Keys())
	assert.Equal(t, 2, api.Calls())
	require.Eventually(t, func() bool { return p.Seen(3) }, waitFor, time.Millisecond)
}

func TestPoller_ToleratesFetchFailure(t *testing.T) {
	api := &scriptedAPI{replies: []reply{
		{err: errors.New("connection refused")},
		{list: []model.Notification{unread(5)}},
	}}
	sink := &toastSink{}
	p, fc := newTestPoller(t, userStore(model.RoleAdmin, 1), api, sink)

	p.Reconcile(context.Background())
	require.Eventually(t, func() bool { return api.Calls() == 1 }, waitFor, time.Millisecond)
	assert.Empty(t, sink.Keys())
	assert.True(t, p.Running())

	fc.Advance(12 * time.Second)
	require.Eventually(t, func() bool { return len(sink.Keys()) == 1 }, waitFor, time.Millisecond)
	assert.Equal(t, []string{"notif-5"}, sink.Keys())
}

func TestPoller_StopEndsPolling(t *testing.T) {
	api := &scriptedAPI{replies: []reply{{list: nil}}}
	p, fc := newTestPoller(t, userStore(model.RoleAdmin, 1), api, &toastSink{})

	p.Reconcile(context.Background())
	require.Eventually(t, func() bool { return api.Calls() == 1 }, waitFor, time.Millisecond)

	p.Stop()
	assert.False(t, p.Running())

	for i := 0; i < 3; i++ {
		fc.Advance(12 * time.Second)
	}
	assert.Equal(t, 1, api.Calls())

	// Stop is idempotent.
	p.Stop()
}

func TestPoller_RoleChangeEndsPolling(t *testing.T) {
	s := userStore(model.RoleAdmin, 1)
	api := &scriptedAPI{replies: []reply{{list: nil}}}
	p, fc := newTestPoller(t, s, api, &toastSink{})

	p.Reconcile(context.Background())
	require.Eventually(t, func() bool { return api.Calls() == 1 }, waitFor, time.Millisecond)

	s.SetUser(&model.User{ID: 1, Role: model.RoleClinician})
	p.Reconcile(context.Background())
	assert.False(t, p.Running())

	fc.Advance(24 * time.Second)
	assert.Equal(t, 1, api.Calls())
}

func TestPoller_SeenSurvivesRestart(t *testing.T) {
	s := userStore(model.RoleAdmin, 1)
	api := &scriptedAPI{replies: []reply{{list: []model.Notification{unread(1)}}}}
	sink := &toastSink{}
	p, _ := newTestPoller(t, s, api, sink)

	p.Reconcile(context.Background())
	require.Eventually(t, func() bool { return len(sink.Keys()) == 1 }, waitFor, time.Millisecond)

	s.BeginLoad()
	p.Reconcile(context.Background())
	require.False(t, p.Running())

	s.SetUser(&model.User{ID: 1, Role: model.RoleAdmin})
	p.Reconcile(context.Background())

	// Re-entering polling fetches immediately but does not repeat the toast.
	require.Eventually(t, func() bool { return api.Calls() == 2 }, waitFor, time.Millisecond)
	p.Stop()
	assert.Equal(t, []string{"notif-1"}, sink.Keys())
}

func TestPoller_ReconcileWithoutChangeKeepsLoop(t *testing.T) {
	api := &scriptedAPI{}
	p, _ := newTestPoller(t, userStore(model.RoleAdmin, 1), api, &toastSink{})

	p.Reconcile(context.Background())
	require.Eventually(t, func() bool { return api.Calls() == 1 }, waitFor, time.Millisecond)

	p.Reconcile(context.Background())
	assert.Never(t, func() bool { return api.Calls() > 1 }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestPoller_DifferentAdminRestartsLoop(t *testing.T) {
	s := userStore(model.RoleAdmin, 1)
	api := &scriptedAPI{}
	p, _ := newTestPoller(t, s, api, &toastSink{})

	p.Reconcile(context.Background())
	require.Eventually(t, func() bool { return api.Calls() == 1 }, waitFor, time.Millisecond)

	s.SetUser(&model.User{ID: 2, Username: "other", Role: model.RoleAdmin})
	p.Reconcile(context.Background())

	require.Eventually(t, func() bool { return api.Calls() == 2 }, waitFor, time.Millisecond)
	assert.True(t, p.Running())
}

func TestPoller_DuplicateIDsInOneResponse(t *testing.T) {
	api := &scriptedAPI{replies: []reply{{list: []model.Notification{unread(7), unread(7)}}}}
	sink := &toastSink{}
	p, _ := newTestPoller(t, userStore(model.RoleAdmin, 1), api, sink)

	p.Reconcile(context.Background())
	require.Eventually(t, func() bool { return len(sink.Keys()) == 1 }, waitFor, time.Millisecond)
	p.Stop()
	assert.Equal(t, []string{"notif-7"}, sink.Keys())
}

// lateAPI returns its result only after the caller gives up, like a
// response arriving after teardown.
type lateAPI struct {
	started chan struct{}
}

func (a *lateAPI) ListNotifications(ctx context.Context) ([]model.Notification, error) {
	close(a.started)
	<-ctx.Done()
	return []model.Notification{unread(9)}, nil
}

func TestPoller_DiscardsResultAfterTeardown(t *testing.T) {
	api := &lateAPI{started: make(chan struct{})}
	sink := &toastSink{}
	p, _ := newTestPoller(t, userStore(model.RoleAdmin, 1), api, sink)

	p.Reconcile(context.Background())
	<-api.started
	p.Stop()

	assert.Empty(t, sink.Keys())
	assert.False(t, p.Seen(9))
}

type recorderFunc func(context.Context, model.Notification) error

func (f recorderFunc) RecordShown(ctx context.Context, n model.Notification) error { return f(ctx, n) }

func TestPoller_RecordsShownNotifications(t *testing.T) {
	var mu sync.Mutex
	var recorded []int64
	rec := recorderFunc(func(_ context.Context, n model.Notification) error {
		mu.Lock()
		defer mu.Unlock()
		recorded = append(recorded, n.ID)
		return errors.New("disk full") // logged, never fatal
	})

	api := &scriptedAPI{replies: []reply{{list: []model.Notification{unread(1), read(2), unread(3)}}}}
	sink := &toastSink{}
	p, _ := newTestPoller(t, userStore(model.RoleAdmin, 1), api, sink, WithRecorder(rec))

	p.Reconcile(context.Background())
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(recorded) == 2
	}, waitFor, time.Millisecond)

	assert.Equal(t, []string{"notif-1", "notif-3"}, sink.Keys())
	assert.Equal(t, []int64{1, 3}, recorded)
}

func TestPoller_CustomAdminRoleAndInterval(t *testing.T) {
	api := &scriptedAPI{}
	p, fc := newTestPoller(t, userStore("superuser", 1), api, &toastSink{},
		WithAdminRole("superuser"), WithInterval(time.Second))

	p.Reconcile(context.Background())
	require.Eventually(t, func() bool { return api.Calls() == 1 }, waitFor, time.Millisecond)

	fc.Advance(time.Second)
	require.Eventually(t, func() bool { return api.Calls() == 2 }, waitFor, time.Millisecond)
}

func TestToastContent(t *testing.T) {
	assert.Equal(t, "notif-42", ToastKey(42))
	assert.Equal(t, "Patient created", titleFor(model.Notification{Action: "patient_created"}))
	assert.Equal(t, "Notification", titleFor(model.Notification{}))
}
