// Package sessionmem provides the in-memory session store used in
// development and single-instance deployments. Sessions do not survive a
// restart.
package sessionmem

import (
	"context"
	"errors"
	"sync"
	"time"

	domainauth "github.com/Sundsvallskommun/web-app-student-account-admin/internal/domain/auth"
	"github.com/Sundsvallskommun/web-app-student-account-admin/internal/ports"
)

const defaultSweepInterval = time.Minute

type entry struct {
	sess     domainauth.Session
	deadline time.Time
}

// Store keeps sessions in a map guarded by a RWMutex. Expired entries are
// invisible to Get immediately; a background janitor reclaims their memory.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration

	stopOnce sync.Once
	stop     chan struct{}
}

// New creates a store with the given record TTL and starts the janitor.
// Call Stop when the store is no longer needed.
func New(ttl time.Duration) *Store {
	return NewWithSweepInterval(ttl, defaultSweepInterval)
}

// NewWithSweepInterval creates a store with a custom janitor interval.
func NewWithSweepInterval(ttl, sweepInterval time.Duration) *Store {
	s := &Store{
		entries: make(map[string]entry),
		ttl:     ttl,
		stop:    make(chan struct{}),
	}
	go s.janitor(sweepInterval)
	return s
}

// Stop terminates the janitor goroutine.
func (s *Store) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *Store) Save(_ context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[sess.ID] = entry{sess: sess.Clean(), deadline: time.Now().Add(s.ttl)}
	return nil
}

func (s *Store) Get(_ context.Context, id string) (domainauth.Session, error) {
	if id == "" {
		return domainauth.Session{}, ports.ErrSessionNotFound
	}

	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()

	if !ok || time.Now().After(e.deadline) {
		return domainauth.Session{}, ports.ErrSessionNotFound
	}
	return e.sess, nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	if id == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

func (s *Store) Touch(_ context.Context, id string) error {
	if id == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok || time.Now().After(e.deadline) {
		return nil
	}
	e.deadline = time.Now().Add(s.ttl)
	s.entries[id] = e
	return nil
}

// Len reports the number of records currently held, expired or not.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Store) sweep() {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.entries {
		if now.After(e.deadline) {
			delete(s.entries, id)
		}
	}
}
