package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store hosts live sessions keyed by ID. Every operation on one session runs
// under that session's lock, so a rebuild is never observed half done.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	opts     []Option
	logger   *zap.Logger
	onSize   func(int)
	now      func() time.Time
}

type entry struct {
	mu       sync.Mutex
	session  *Session
	lastUsed time.Time
}

// NewStore creates an empty store; opts apply to every session it creates
func NewStore(logger *zap.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		sessions: make(map[string]*entry),
		opts:     opts,
		logger:   logger,
		onSize:   func(int) {},
		now:      time.Now,
	}
}

// OnSizeChange registers a callback receiving the session count after each change
func (st *Store) OnSizeChange(fn func(int)) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.onSize = fn
}

// Create loads a new session and returns its first view
func (st *Store) Create(note string, logs []string) (*View, error) {
	s, err := New(uuid.New().String(), note, logs, st.opts...)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	st.sessions[s.ID()] = &entry{session: s, lastUsed: st.now()}
	n := len(st.sessions)
	st.onSize(n)
	st.mu.Unlock()

	st.logger.Info("session created",
		zap.String("session_id", s.ID()),
		zap.Int("entries", s.EntryCount()),
		zap.Int("problems", len(s.problems)))

	return s.View(), nil
}

// Do runs fn with exclusive access to the session
func (st *Store) Do(id string, fn func(*Session) error) error {
	st.mu.RLock()
	e, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return ErrSessionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastUsed = st.now()
	return fn(e.session)
}

// Delete drops the session. It reports whether the session existed.
func (st *Store) Delete(id string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, ok := st.sessions[id]; !ok {
		return false
	}
	delete(st.sessions, id)
	st.onSize(len(st.sessions))
	return true
}

// Len returns the number of live sessions
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Sweep drops sessions idle for longer than ttl and returns how many were dropped
func (st *Store) Sweep(ttl time.Duration) int {
	st.mu.Lock()
	defer st.mu.Unlock()

	cutoff := st.now().Add(-ttl)
	removed := 0
	for id, e := range st.sessions {
		e.mu.Lock()
		idle := e.lastUsed.Before(cutoff)
		e.mu.Unlock()
		if idle {
			delete(st.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		st.onSize(len(st.sessions))
	}
	return removed
}

// RunSweeper sweeps idle sessions every interval until ctx is cancelled
func (st *Store) RunSweeper(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := st.Sweep(ttl); n > 0 {
				st.logger.Info("idle sessions swept", zap.Int("removed", n), zap.Duration("ttl", ttl))
			}
		}
	}
}
