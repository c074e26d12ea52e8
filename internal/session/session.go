// Package session ties a signed-in user to their journal: it opens the
// user's backend, loads it, follows live changes when the backend can push
// them, and tears everything down on sign-out.
package session

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/chris-regnier/daybook/internal/auth"
	"github.com/chris-regnier/daybook/internal/journal"
	"github.com/chris-regnier/daybook/internal/storage"
)

// Options configures Start.
type Options struct {
	// User is the signed-in user, or nil for a local diary.
	User *auth.User
	// Live subscribes to backend pushes when the backend supports them.
	Live bool
	Log  *zap.SugaredLogger
}

// Session is one user's open journal.
type Session struct {
	Journal *journal.Store
	User    *auth.User

	backend storage.Storage
	log     *zap.SugaredLogger

	sub       *storage.Subscription
	cancel    context.CancelFunc
	following chan struct{}

	closeOnce sync.Once
	closeErr  error
}

// Start opens the backend for opts.User, loads the journal and, if asked,
// follows live snapshots until Close.
func Start(ctx context.Context, open Opener, opts Options) (*Session, error) {
	log := opts.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	backend, err := open(ctx, opts.User)
	if err != nil {
		return nil, err
	}

	s := &Session{
		Journal: journal.New(backend, log),
		User:    opts.User,
		backend: backend,
		log:     log,
	}
	if err := s.Journal.Load(ctx); err != nil {
		s.Journal.Close(context.Background())
		backend.Close()
		return nil, err
	}

	if w, ok := backend.(storage.Watcher); ok && opts.Live {
		followCtx, cancel := context.WithCancel(context.Background())
		sub, err := w.Watch(followCtx)
		if err != nil {
			cancel()
			log.Warnw("live sync unavailable", "error", err)
			return s, nil
		}
		s.sub = sub
		s.cancel = cancel
		s.following = make(chan struct{})
		go func() {
			defer close(s.following)
			if err := s.Journal.Follow(followCtx, sub); err != nil && !errors.Is(err, context.Canceled) {
				log.Warnw("live sync stopped", "error", err)
			}
		}()
	}
	return s, nil
}

// Live reports whether the session is following backend pushes.
func (s *Session) Live() bool {
	return s.sub != nil
}

// Close unsubscribes, flushes pending saves and closes the backend. It is
// safe to call more than once.
func (s *Session) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		if s.sub != nil {
			s.sub.Unsubscribe()
			s.cancel()
			<-s.following
		}
		err := s.Journal.Close(ctx)
		if cerr := s.backend.Close(); err == nil {
			err = cerr
		}
		s.closeErr = err
	})
	return s.closeErr
}

// Manager keeps at most one session open and follows the auth state: it
// starts a session for each signed-in user and closes it on sign-out.
type Manager struct {
	open      Opener
	live      bool
	signedOut bool
	log       *zap.SugaredLogger

	mu      sync.Mutex
	current *Session
	lastErr error
	changed func(*Session)
}

// BindOption configures Bind.
type BindOption func(*Manager)

// WithSignedOutSession keeps a session open while nobody is signed in, for
// backends that do not need an identity.
func WithSignedOutSession() BindOption {
	return func(m *Manager) { m.signedOut = true }
}

// Bind attaches a Manager to client's auth state. onChange, if not nil, is
// called with the new session, or nil after sign-out. The first session is
// started immediately for the current user. The returned func detaches the
// Manager without closing its session.
func Bind(client *auth.Client, open Opener, live bool, log *zap.SugaredLogger, onChange func(*Session), opts ...BindOption) (*Manager, func()) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	m := &Manager{open: open, live: live, log: log, changed: onChange}
	for _, opt := range opts {
		opt(m)
	}
	cancel := client.OnAuthStateChanged(m.switchTo)
	return m, cancel
}

// Current returns the open session, or nil.
func (m *Manager) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Err returns the error from the last attempt to start a session.
func (m *Manager) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// Close closes the open session.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	cur := m.current
	m.current = nil
	m.mu.Unlock()
	if cur == nil {
		return nil
	}
	return cur.Close(ctx)
}

func (m *Manager) switchTo(user *auth.User) {
	m.mu.Lock()
	if m.current != nil {
		if err := m.current.Close(context.Background()); err != nil {
			m.log.Warnw("closing session", "error", err)
		}
		m.current = nil
	}
	m.lastErr = nil
	if user != nil || m.signedOut {
		sess, err := Start(context.Background(), m.open, Options{User: user, Live: m.live, Log: m.log})
		if err != nil {
			uid := ""
			if user != nil {
				uid = user.UID
			}
			m.log.Warnw("starting session", "uid", uid, "error", err)
			m.lastErr = err
		} else {
			m.current = sess
		}
	}
	cur := m.current
	m.mu.Unlock()

	if m.changed != nil {
		m.changed(cur)
	}
}
