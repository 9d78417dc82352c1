// Package notify polls the clinic API for unread notifications and
// surfaces each one exactly once per process as a toast.
package notify

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/nhle/clinicdesk/internal/model"
)

const (
	// DefaultInterval is the flat delay between polls.
	DefaultInterval = 12 * time.Second

	// defaultFetchTimeout bounds a single notifications request.
	defaultFetchTimeout = 10 * time.Second
)

// SessionSource exposes the session state that decides eligibility.
type SessionSource interface {
	User() *model.User
	Loading() bool
}

// Lister fetches the full current notification list.
type Lister interface {
	ListNotifications(ctx context.Context) ([]model.Notification, error)
}

// Toast is a transient message for the presentation layer.
type Toast struct {
	// Key identifies the toast; presenters drop a key they are already showing.
	Key          string
	Title        string
	Body         string
	Notification model.Notification
}

// Notifier presents toasts. Notify may block until the toast is accepted;
// it returns an error only when ctx ends first.
type Notifier interface {
	Notify(ctx context.Context, t Toast) error
}

// Recorder keeps a history of shown notifications.
type Recorder interface {
	RecordShown(ctx context.Context, n model.Notification) error
}

// ToastKey returns the presentation key for a notification.
func ToastKey(id int64) string {
	return "notif-" + strconv.FormatInt(id, 10)
}

// Poller runs the polling loop while the signed-in user is an admin.
type Poller struct {
	session      SessionSource
	api          Lister
	out          Notifier
	recorder     Recorder
	clock        clockwork.Clock
	interval     time.Duration
	fetchTimeout time.Duration
	adminRole    string
	log          *zap.Logger

	// seenMu guards seen. It is separate from mu so a tick never waits
	// on the lifecycle lock that Stop holds while draining the loop.
	seenMu sync.Mutex
	seen   map[int64]struct{}

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
	key     stateKey
}

// stateKey captures the session inputs the loop depends on. A change in
// any of them restarts or stops the loop.
type stateKey struct {
	eligible bool
	userID   int64
	username string
}

// Option customizes a Poller.
type Option func(*Poller)

// WithClock replaces the wall clock, e.g. with a fake in tests.
func WithClock(c clockwork.Clock) Option {
	return func(p *Poller) { p.clock = c }
}

// WithInterval sets the delay between polls.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithFetchTimeout bounds each notifications request.
func WithFetchTimeout(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.fetchTimeout = d
		}
	}
}

// WithAdminRole sets the role allowed to receive notifications.
func WithAdminRole(role string) Option {
	return func(p *Poller) {
		if role != "" {
			p.adminRole = role
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Poller) {
		if l != nil {
			p.log = l
		}
	}
}

// WithRecorder stores each shown notification.
func WithRecorder(r Recorder) Option {
	return func(p *Poller) { p.recorder = r }
}

// New creates an idle Poller. Nothing runs until Reconcile finds an
// eligible session.
func New(src SessionSource, api Lister, out Notifier, opts ...Option) *Poller {
	p := &Poller{
		session:      src,
		api:          api,
		out:          out,
		clock:        clockwork.NewRealClock(),
		interval:     DefaultInterval,
		fetchTimeout: defaultFetchTimeout,
		adminRole:    model.RoleAdmin,
		log:          zap.NewNop(),
		seen:         make(map[int64]struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Reconcile re-reads the session and starts, restarts or stops the loop
// to match it. Call it whenever the user or loading state changes. The
// previous loop has fully exited before a new one starts.
func (p *Poller) Reconcile(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := p.currentKey()
	if p.running && key == p.key {
		return
	}

	p.stopLocked()
	p.key = key
	if !key.eligible {
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	ticker := p.clock.NewTicker(p.interval)

	p.cancel = cancel
	p.done = done
	p.running = true

	p.log.Debug("notification polling started", zap.String("user", key.username))
	go p.loop(loopCtx, ticker, done)
}

// Stop halts the loop and waits for it to exit. It is safe to call when
// nothing is running.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()
	p.key = stateKey{}
}

// Running reports whether the polling loop is active.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Seen reports whether a notification has already been shown.
func (p *Poller) Seen(id int64) bool {
	p.seenMu.Lock()
	defer p.seenMu.Unlock()
	_, ok := p.seen[id]
	return ok
}

// currentKey evaluates eligibility. Caller holds p.mu.
func (p *Poller) currentKey() stateKey {
	if p.session.Loading() {
		return stateKey{}
	}
	u := p.session.User()
	if u == nil || u.Role != p.adminRole {
		return stateKey{}
	}
	return stateKey{eligible: true, userID: u.ID, username: u.Username}
}

// stopLocked cancels the running loop and waits for it. Caller holds p.mu,
// which the loop never takes.
func (p *Poller) stopLocked() {
	if !p.running {
		return
	}
	p.cancel()
	<-p.done

	p.cancel = nil
	p.done = nil
	p.running = false
	p.log.Debug("notification polling stopped")
}

// loop performs one tick immediately and then one per ticker fire.
func (p *Poller) loop(ctx context.Context, ticker clockwork.Ticker, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()

	p.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			p.tick(ctx)
		}
	}
}

// tick fetches notifications and toasts the unread ones not yet shown.
// Any fetch failure skips the tick.
func (p *Poller) tick(ctx context.Context) {
	fetchCtx, cancel := context.WithTimeout(ctx, p.fetchTimeout)
	defer cancel()

	list, err := p.api.ListNotifications(fetchCtx)
	if err != nil {
		p.log.Debug("notification fetch failed", zap.Error(err))
		return
	}
	// A result that lands after teardown is dropped.
	if ctx.Err() != nil {
		return
	}

	fresh := p.unseen(list)
	if len(fresh) == 0 {
		return
	}

	shown := make([]int64, 0, len(fresh))
	for _, n := range fresh {
		err := p.out.Notify(ctx, Toast{
			Key:          ToastKey(n.ID),
			Title:        titleFor(n),
			Body:         n.Message,
			Notification: n,
		})
		if err != nil {
			break
		}
		shown = append(shown, n.ID)
	}

	p.markSeen(shown)

	if p.recorder != nil {
		for _, n := range fresh[:len(shown)] {
			if err := p.recorder.RecordShown(ctx, n); err != nil {
				p.log.Warn("recording notification", zap.Int64("id", n.ID), zap.Error(err))
			}
		}
	}
}

// unseen filters list down to unread notifications not shown before.
// Duplicate ids within one response are collapsed.
func (p *Poller) unseen(list []model.Notification) []model.Notification {
	p.seenMu.Lock()
	defer p.seenMu.Unlock()

	var out []model.Notification
	batch := make(map[int64]struct{})
	for _, n := range list {
		if n.IsRead {
			continue
		}
		if _, ok := p.seen[n.ID]; ok {
			continue
		}
		if _, ok := batch[n.ID]; ok {
			continue
		}
		batch[n.ID] = struct{}{}
		out = append(out, n)
	}
	return out
}

// markSeen adds ids to the seen set in one batch.
func (p *Poller) markSeen(ids []int64) {
	p.seenMu.Lock()
	defer p.seenMu.Unlock()
	for _, id := range ids {
		p.seen[id] = struct{}{}
	}
}

// titleFor turns an action such as "patient_created" into "Patient created".
func titleFor(n model.Notification) string {
	action := strings.TrimSpace(strings.ReplaceAll(n.Action, "_", " "))
	if action == "" {
		return "Notification"
	}
	r := []rune(action)
	return string(unicode.ToUpper(r[0])) + string(r[1:])
}
