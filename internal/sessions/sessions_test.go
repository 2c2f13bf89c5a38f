package sessions

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/campaign-intel-backend/internal/listings"
	"github.com/angelmondragon/campaign-intel-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/campaign-intel-backend/pkg/errors"
	"github.com/angelmondragon/campaign-intel-backend/pkg/upstream"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeKV struct {
	mu     sync.Mutex
	data   map[string]string
	ttls   map[string]time.Duration
	getErr error
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeKV) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	default:
		f.data[key] = fmt.Sprint(v)
	}
	f.ttls[key] = ttl
	return nil
}

func (f *fakeKV) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return "", f.getErr
	}
	v, ok := f.data[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (f *fakeKV) Del(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeKV) SessionKey(sessionID string) string {
	return "ci:session:" + sessionID
}

func fp(v float64) *float64 { return &v }

func sampleSnapshot() Snapshot {
	return Snapshot{
		Query:     "peanut butter",
		MaxItems:  20,
		FetchedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Listings: []listings.Record{
			{ID: "A", Title: "Crunchy", Brand: "Jif", Price: fp(4.99), SalesProxy: 1000, SearchPosition: 1},
		},
	}
}

func storeSuite(t *testing.T, newStore func() Store) {
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		store := newStore()
		created, err := store.Create(ctx)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, created.ID)
		assert.Nil(t, created.Snapshot)
		assert.Empty(t, created.Messages)

		got, err := store.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
		assert.Nil(t, got.Listings())
	})

	t.Run("replace snapshot wholesale", func(t *testing.T) {
		store := newStore()
		created, err := store.Create(ctx)
		require.NoError(t, err)

		_, err = store.ReplaceSnapshot(ctx, created.ID, sampleSnapshot())
		require.NoError(t, err)

		empty := Snapshot{Query: "almond", Listings: []listings.Record{}, Reason: upstream.ReasonNoResults, Warning: "provider returned no results"}
		updated, err := store.ReplaceSnapshot(ctx, created.ID, empty)
		require.NoError(t, err)
		assert.Empty(t, updated.Listings())
		assert.Equal(t, upstream.ReasonNoResults, updated.Snapshot.Reason)

		got, err := store.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "almond", got.Snapshot.Query)
		assert.Empty(t, got.Listings())
	})

	t.Run("snapshot round trips", func(t *testing.T) {
		store := newStore()
		created, err := store.Create(ctx)
		require.NoError(t, err)
		_, err = store.ReplaceSnapshot(ctx, created.ID, sampleSnapshot())
		require.NoError(t, err)

		got, err := store.Get(ctx, created.ID)
		require.NoError(t, err)
		require.Len(t, got.Listings(), 1)
		rec := got.Listings()[0]
		assert.Equal(t, "A", rec.ID)
		require.NotNil(t, rec.Price)
		assert.Equal(t, 4.99, *rec.Price)
		assert.Nil(t, rec.Rating)
		assert.True(t, sampleSnapshot().FetchedAt.Equal(got.Snapshot.FetchedAt))
	})

	t.Run("append trims history", func(t *testing.T) {
		store := newStore()
		created, err := store.Create(ctx)
		require.NoError(t, err)
		for i := 0; i < 3; i++ {
			_, err = store.AppendMessages(ctx, created.ID,
				Message{Role: enums.MessageRoleUser, Content: fmt.Sprintf("q%d", i)},
				Message{Role: enums.MessageRoleAssistant, Content: fmt.Sprintf("a%d", i)},
			)
			require.NoError(t, err)
		}
		got, err := store.Get(ctx, created.ID)
		require.NoError(t, err)
		require.Len(t, got.Messages, 4)
		assert.Equal(t, "q1", got.Messages[0].Content)
		assert.Equal(t, "a2", got.Messages[3].Content)
		assert.Equal(t, enums.MessageRoleAssistant, got.Messages[3].Role)
	})

	t.Run("unknown and deleted sessions are not found", func(t *testing.T) {
		store := newStore()
		_, err := store.Get(ctx, uuid.New())
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))

		_, err = store.AppendMessages(ctx, uuid.New(), Message{Role: enums.MessageRoleUser, Content: "x"})
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))

		created, err := store.Create(ctx)
		require.NoError(t, err)
		require.NoError(t, store.Delete(ctx, created.ID))
		_, err = store.Get(ctx, created.ID)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
		assert.True(t, pkgerrors.HasCode(store.Delete(ctx, created.ID), pkgerrors.CodeNotFound))
	})
}

func TestMemoryStore(t *testing.T) {
	storeSuite(t, func() Store { return NewMemoryStore(time.Hour, 4) })
}

func TestRedisStore(t *testing.T) {
	storeSuite(t, func() Store {
		store, err := NewRedisStore(newFakeKV(), time.Hour, 4)
		require.NoError(t, err)
		return store
	})
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0, 0)
	created, err := store.Create(ctx)
	require.NoError(t, err)

	snap := sampleSnapshot()
	_, err = store.ReplaceSnapshot(ctx, created.ID, snap)
	require.NoError(t, err)
	snap.Listings[0].Title = "mutated by caller"

	got, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	got.Listings()[0].Title = "mutated by reader"

	again, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Crunchy", again.Listings()[0].Title)
}

func TestMemoryStoreExpires(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Minute, 0)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	created, err := store.Create(ctx)
	require.NoError(t, err)

	now = now.Add(30 * time.Second)
	_, err = store.Get(ctx, created.ID)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = store.Get(ctx, created.ID)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestMemoryStoreConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0, 0)
	created, err := store.Create(ctx)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.AppendMessages(ctx, created.ID, Message{Role: enums.MessageRoleUser, Content: "x"})
		}()
	}
	wg.Wait()

	got, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Len(t, got.Messages, 20)
}

func TestRedisStoreWritesWithTTL(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	store, err := NewRedisStore(kv, 12*time.Hour, 50)
	require.NoError(t, err)

	created, err := store.Create(ctx)
	require.NoError(t, err)
	key := "ci:session:" + created.ID.String()
	assert.Equal(t, 12*time.Hour, kv.ttls[key])
	assert.Contains(t, kv.data[key], `"messages":[]`)
}

func TestRedisStoreDependencyFailure(t *testing.T) {
	kv := newFakeKV()
	kv.getErr = errors.New("connection refused")
	store, err := NewRedisStore(kv, time.Hour, 10)
	require.NoError(t, err)

	_, err = store.Get(context.Background(), uuid.New())
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDependency))
}

func TestNewRedisStoreRequiresClient(t *testing.T) {
	_, err := NewRedisStore(nil, time.Hour, 10)
	require.Error(t, err)
}
