package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps sessions in process. Sessions idle longer than the TTL
// are dropped on access.
type MemoryStore struct {
	mu         sync.RWMutex
	sessions   map[uuid.UUID]*Session
	ttl        time.Duration
	maxHistory int
	now        func() time.Time
}

func NewMemoryStore(ttl time.Duration, maxHistory int) *MemoryStore {
	return &MemoryStore{
		sessions:   make(map[uuid.UUID]*Session),
		ttl:        ttl,
		maxHistory: maxHistory,
		now:        time.Now,
	}
}

func (m *MemoryStore) Create(ctx context.Context) (*Session, error) {
	s := newSession(m.now().UTC())
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return cloneSession(s), nil
}

func (m *MemoryStore) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	if ok && !m.expired(s) {
		out := cloneSession(s)
		m.mu.RUnlock()
		return out, nil
	}
	m.mu.RUnlock()

	if ok {
		m.mu.Lock()
		if current, still := m.sessions[id]; still && m.expired(current) {
			delete(m.sessions, id)
		}
		m.mu.Unlock()
	}
	return nil, errNotFound()
}

func (m *MemoryStore) ReplaceSnapshot(ctx context.Context, id uuid.UUID, snapshot Snapshot) (*Session, error) {
	return m.update(id, func(s *Session) {
		s.Snapshot = cloneSnapshot(&snapshot)
	})
}

func (m *MemoryStore) AppendMessages(ctx context.Context, id uuid.UUID, messages ...Message) (*Session, error) {
	return m.update(id, func(s *Session) {
		s.Messages = trimHistory(append(s.Messages, messages...), m.maxHistory)
	})
}

func (m *MemoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return errNotFound()
	}
	delete(m.sessions, id)
	return nil
}

func (m *MemoryStore) update(id uuid.UUID, mutate func(*Session)) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, errNotFound()
	}
	if m.expired(s) {
		delete(m.sessions, id)
		return nil, errNotFound()
	}
	mutate(s)
	s.UpdatedAt = m.now().UTC()
	return cloneSession(s), nil
}

func (m *MemoryStore) expired(s *Session) bool {
	return m.ttl > 0 && m.now().Sub(s.UpdatedAt) > m.ttl
}
