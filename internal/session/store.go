package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("session not found")
	ErrVersionConflict = errors.New("session was modified concurrently")
	// ErrInFlight is returned when the same action is already running for the
	// session.
	ErrInFlight = errors.New("action already in progress")
)

// Store persists session states for the lifetime of a session.
type Store interface {
	Create(ctx context.Context) (State, error)
	Get(ctx context.Context, id string) (State, error)
	// Replace stores next if the stored version still equals next.Version-1.
	Replace(ctx context.Context, next State) error
	Delete(ctx context.Context, id string) error
	// Acquire marks action as in flight for the session. The returned release
	// func must be called once the action finishes.
	Acquire(ctx context.Context, id string, action Action) (release func(), err error)
}

// Update loads a session, applies fn and stores the result. A concurrent write
// between load and store makes it reload and apply fn again, a bounded number
// of times.
func Update(ctx context.Context, store Store, id string, fn func(State) (State, error)) (State, error) {
	const maxAttempts = 5
	for attempt := 0; attempt < maxAttempts; attempt++ {
		cur, err := store.Get(ctx, id)
		if err != nil {
			return State{}, err
		}
		next, err := fn(cur)
		if err != nil {
			return cur, err
		}
		if next.Version == cur.Version {
			return cur, nil
		}
		err = store.Replace(ctx, next)
		if errors.Is(err, ErrVersionConflict) {
			continue
		}
		if err != nil {
			return State{}, err
		}
		return next, nil
	}
	return State{}, fmt.Errorf("update session %s: %w", id, ErrVersionConflict)
}

// MemoryStore keeps sessions in process memory. Sessions not modified for
// longer than the TTL are dropped on access.
type MemoryStore struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]State
	inFlight map[string]bool
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]State),
		inFlight: make(map[string]bool),
	}
}

func (m *MemoryStore) Create(_ context.Context) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := New(uuid.NewString(), m.now())
	m.sessions[st.ID] = st
	return st, nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.sessions[id]
	if !ok {
		return State{}, ErrNotFound
	}
	if m.expired(st) {
		delete(m.sessions, id)
		return State{}, ErrNotFound
	}
	return st, nil
}

func (m *MemoryStore) Replace(_ context.Context, next State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.sessions[next.ID]
	if !ok || m.expired(cur) {
		return ErrNotFound
	}
	if cur.Version != next.Version-1 {
		return ErrVersionConflict
	}
	m.sessions[next.ID] = next
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *MemoryStore) Acquire(_ context.Context, id string, action Action) (func(), error) {
	key := flightKey(id, action)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inFlight[key] {
		return nil, ErrInFlight
	}
	m.inFlight[key] = true

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.inFlight, key)
			m.mu.Unlock()
		})
	}, nil
}

func (m *MemoryStore) expired(st State) bool {
	return m.ttl > 0 && m.now().Sub(st.UpdatedAt) > m.ttl
}

func flightKey(id string, action Action) string {
	return id + "/" + string(action)
}
