package booking

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrSessionNotFound indicates the booking session expired or never existed.
var ErrSessionNotFound = errors.New("booking session not found")

type session struct {
	flow      *Flow
	expiresAt time.Time
}

// Store keeps booking sessions in memory, keyed by opaque id. Sessions are
// touched on every access and purged once the TTL lapses. There is no
// persistence: a booking that outlives its session simply starts over.
type Store struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]*session
}

// NewStore constructs a session store with the given TTL.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Store{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
}

// WithNow overrides the clock, for tests.
func (s *Store) WithNow(now func() time.Time) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	return s
}

// Create opens a new booking flow for the patient and returns its session id.
func (s *Store) Create(patientID int64) (string, *Flow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeExpiredLocked()
	id := uuid.NewString()
	flow := NewFlow(patientID)
	s.sessions[id] = &session{flow: flow, expiresAt: s.now().Add(s.ttl)}
	return id, flow
}

// Get resolves a session by id, extending its TTL.
func (s *Store) Get(id string) (*Flow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if s.now().After(sess.expiresAt) {
		delete(s.sessions, id)
		return nil, ErrSessionNotFound
	}
	sess.expiresAt = s.now().Add(s.ttl)
	return sess.flow, nil
}

// Delete discards a session. Used after a successful submission: the order now
// lives upstream and the cart state is abandoned.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len reports the number of live sessions, counting expired but unpurged ones.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Store) purgeExpiredLocked() {
	now := s.now()
	for id, sess := range s.sessions {
		if now.After(sess.expiresAt) {
			delete(s.sessions, id)
		}
	}
}
