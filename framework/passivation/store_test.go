package passivation

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot(id string) *Snapshot {
	return &Snapshot{
		SessionID:    id,
		Beans:        map[string]json.RawMessage{"cart": json.RawMessage(`{"items":3}`)},
		PassivatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func setupRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStoreFromClient(client, "")
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestStores_RoundTrip(t *testing.T) {
	redisStore, _ := setupRedis(t)
	stores := map[string]Store{
		"memory": NewMemoryStore(),
		"redis":  redisStore,
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := store.Load(ctx, "s1")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, store.Save(ctx, snapshot("s1"), 0))
			got, err := store.Load(ctx, "s1")
			require.NoError(t, err)
			assert.Equal(t, "s1", got.SessionID)
			assert.JSONEq(t, `{"items":3}`, string(got.Beans["cart"]))
			assert.True(t, got.PassivatedAt.Equal(snapshot("s1").PassivatedAt))

			require.NoError(t, store.Delete(ctx, "s1"))
			_, err = store.Load(ctx, "s1")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestMemoryStore_Expiry(t *testing.T) {
	s := NewMemoryStore()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, snapshot("s1"), time.Minute))
	now = now.Add(59 * time.Second)
	_, err := s.Load(ctx, "s1")
	require.NoError(t, err)

	now = now.Add(2 * time.Second)
	_, err = s.Load(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStore_LoadDoesNotAlias(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	snap := snapshot("s1")
	require.NoError(t, s.Save(ctx, snap, 0))
	snap.Beans["cart"] = json.RawMessage(`{"items":99}`)

	got, err := s.Load(ctx, "s1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":3}`, string(got.Beans["cart"]))
}

func TestRedisStore_Expiry(t *testing.T) {
	s, mr := setupRedis(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, snapshot("s1"), time.Minute))
	assert.True(t, mr.Exists(DefaultKeyPrefix+"s1"))

	mr.FastForward(61 * time.Second)
	_, err := s.Load(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_Ping(t *testing.T) {
	s, mr := setupRedis(t)
	require.NoError(t, s.Ping(context.Background()))
	mr.Close()
	assert.Error(t, s.Ping(context.Background()))
}
