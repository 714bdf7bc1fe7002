package diagnostic

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrSessionNotFound is returned as a value, never panicked, when a session
// id is unknown or already evicted.
var ErrSessionNotFound = errors.New("diagnostic session not found")

// Store persists diagnostic sessions. Writes are whole-state and atomic so a
// cancelled continuation leaves the session at its last complete state.
type Store interface {
	Get(ctx context.Context, sessionID string) (State, error)
	Put(ctx context.Context, sessionID string, state State) error
	Close() error
}

// MemoryStore keeps sessions in-process with TTL eviction. The TTL replaces
// the unbounded grow-forever map this design started from.
type MemoryStore struct {
	ttl  time.Duration
	now  func() time.Time
	mu   sync.RWMutex
	data map[string]memoryEntry
	stop chan struct{}
	once sync.Once
}

type memoryEntry struct {
	state     State
	expiresAt time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	s := &MemoryStore{
		ttl:  ttl,
		now:  func() time.Time { return time.Now().UTC() },
		data: make(map[string]memoryEntry),
		stop: make(chan struct{}),
	}
	go s.janitor()
	return s
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) (State, error) {
	s.mu.RLock()
	entry, ok := s.data[sessionID]
	s.mu.RUnlock()
	if !ok || s.now().After(entry.expiresAt) {
		return State{}, ErrSessionNotFound
	}
	return entry.state, nil
}

func (s *MemoryStore) Put(_ context.Context, sessionID string, state State) error {
	s.mu.Lock()
	s.data[sessionID] = memoryEntry{state: state, expiresAt: s.now().Add(s.ttl)}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Close() error {
	s.once.Do(func() { close(s.stop) })
	return nil
}

func (s *MemoryStore) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			now := s.now()
			s.mu.Lock()
			for id, entry := range s.data {
				if now.After(entry.expiresAt) {
					delete(s.data, id)
				}
			}
			s.mu.Unlock()
		}
	}
}

// keyedMutex serializes Continue calls per session id so concurrent
// continuations of the same conversation are last-write-wins in program
// order, not a data race.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

func (k *keyedMutex) lock(key string) *sync.Mutex {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()
	m.Lock()
	return m
}
