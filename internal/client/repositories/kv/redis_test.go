package kv

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRedisBackend_Contract(t *testing.T) {
	runBackendContract(t, func(t *testing.T) Backend {
		_, rdb := newRedis(t)
		return NewRedisBackend(rdb, "test", 0)
	})
}

func TestRedisBackend_UsesPrefixAndTTL(t *testing.T) {
	mr, rdb := newRedis(t)
	b := NewRedisBackend(rdb, "dw", time.Hour)
	ctx := context.Background()

	require.NoError(t, b.PutMany(ctx, map[string][]byte{"accessToken": []byte("T1")}))

	v, err := mr.Get("dw:accessToken")
	require.NoError(t, err)
	require.Equal(t, "T1", v)
	require.Equal(t, time.Hour, mr.TTL("dw:accessToken"))

	mr.FastForward(2 * time.Hour)
	got, err := b.GetMany(ctx, "accessToken")
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestRedisBackend_PutPersistentIgnoresTTL(t *testing.T) {
	mr, rdb := newRedis(t)
	b := NewRedisBackend(rdb, "dw", time.Hour)
	ctx := context.Background()

	var p Persister = b
	require.NoError(t, p.PutPersistent(ctx, map[string][]byte{"sealSalt": []byte("s")}))
	require.Zero(t, mr.TTL("dw:sealSalt"))

	mr.FastForward(2 * time.Hour)
	got, err := b.GetMany(ctx, "sealSalt")
	require.NoError(t, err)
	require.Equal(t, []byte("s"), got["sealSalt"])
}

func TestRedisBackend_DefaultPrefix(t *testing.T) {
	mr, rdb := newRedis(t)
	b := NewRedisBackend(rdb, "", 0)

	require.NoError(t, b.PutMany(context.Background(), map[string][]byte{"user": []byte("{}")}))
	require.True(t, mr.Exists("dreamwell:user"))
}

func TestRedisBackend_ServerDown(t *testing.T) {
	mr, rdb := newRedis(t)
	b := NewRedisBackend(rdb, "dw", 0)
	mr.Close()

	_, err := b.GetMany(context.Background(), "a")
	require.ErrorContains(t, err, "failed to get credentials")
	require.ErrorContains(t, b.PutMany(context.Background(), map[string][]byte{"a": []byte("1")}), "failed to set credentials")
	require.ErrorContains(t, b.DeleteMany(context.Background(), "a"), "failed to delete credentials")
}
