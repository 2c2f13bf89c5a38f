package sessions

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	pkgerrors "github.com/angelmondragon/campaign-intel-backend/pkg/errors"
	"github.com/angelmondragon/campaign-intel-backend/pkg/redis"
	"github.com/google/uuid"
)

// KeyValue is the Redis surface the store needs.
type KeyValue interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	SessionKey(sessionID string) string
}

// RedisStore keeps one JSON blob per session. Every write refreshes the TTL.
// Read-modify-write cycles are serialized within the process only.
type RedisStore struct {
	kv         KeyValue
	ttl        time.Duration
	maxHistory int
	now        func() time.Time
	mu         sync.Mutex
}

func NewRedisStore(kv KeyValue, ttl time.Duration, maxHistory int) (*RedisStore, error) {
	if kv == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "redis client is required")
	}
	return &RedisStore{
		kv:         kv,
		ttl:        ttl,
		maxHistory: maxHistory,
		now:        time.Now,
	}, nil
}

func (r *RedisStore) Create(ctx context.Context) (*Session, error) {
	s := newSession(r.now().UTC())
	if err := r.save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *RedisStore) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	return r.load(ctx, id)
}

func (r *RedisStore) ReplaceSnapshot(ctx context.Context, id uuid.UUID, snapshot Snapshot) (*Session, error) {
	return r.update(ctx, id, func(s *Session) {
		s.Snapshot = cloneSnapshot(&snapshot)
	})
}

func (r *RedisStore) AppendMessages(ctx context.Context, id uuid.UUID, messages ...Message) (*Session, error) {
	return r.update(ctx, id, func(s *Session) {
		s.Messages = trimHistory(append(s.Messages, messages...), r.maxHistory)
	})
}

func (r *RedisStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.load(ctx, id); err != nil {
		return err
	}
	if err := r.kv.Del(ctx, r.kv.SessionKey(id.String())); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete session")
	}
	return nil
}

func (r *RedisStore) update(ctx context.Context, id uuid.UUID, mutate func(*Session)) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.load(ctx, id)
	if err != nil {
		return nil, err
	}
	mutate(s)
	s.UpdatedAt = r.now().UTC()
	if err := r.save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *RedisStore) load(ctx context.Context, id uuid.UUID) (*Session, error) {
	raw, err := r.kv.Get(ctx, r.kv.SessionKey(id.String()))
	if err != nil {
		if redis.IsNil(err) {
			return nil, errNotFound()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session")
	}
	var s Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode session")
	}
	if s.Messages == nil {
		s.Messages = []Message{}
	}
	return &s, nil
}

func (r *RedisStore) save(ctx context.Context, s *Session) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode session")
	}
	if err := r.kv.Set(ctx, r.kv.SessionKey(s.ID.String()), payload, r.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store session")
	}
	return nil
}
