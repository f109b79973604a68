package kv

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// runBackendContract checks the behaviour every Backend must share.
func runBackendContract(t *testing.T, newBackend func(t *testing.T) Backend) {
	t.Run("get on empty store omits keys", func(t *testing.T) {
		b := newBackend(t)
		got, err := b.GetMany(context.Background(), "a", "b")
		require.NoError(t, err)
		require.Empty(t, got)
	})

	t.Run("put then get", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()
		require.NoError(t, b.PutMany(ctx, map[string][]byte{"a": []byte("1"), "b": []byte("2")}))

		got, err := b.GetMany(ctx, "a", "b", "c")
		require.NoError(t, err)
		require.Equal(t, map[string][]byte{"a": []byte("1"), "b": []byte("2")}, got)
	})

	t.Run("put overwrites", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()
		require.NoError(t, b.PutMany(ctx, map[string][]byte{"a": []byte("old")}))
		require.NoError(t, b.PutMany(ctx, map[string][]byte{"a": []byte("new")}))

		got, err := b.GetMany(ctx, "a")
		require.NoError(t, err)
		require.Equal(t, []byte("new"), got["a"])
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()
		require.NoError(t, b.PutMany(ctx, map[string][]byte{"a": []byte("1"), "keep": []byte("k")}))
		require.NoError(t, b.DeleteMany(ctx, "a", "missing"))
		require.NoError(t, b.DeleteMany(ctx, "a"))
		require.NoError(t, b.DeleteMany(ctx))

		got, err := b.GetMany(ctx, "a", "keep")
		require.NoError(t, err)
		require.Equal(t, map[string][]byte{"keep": []byte("k")}, got)
	})

	t.Run("get with no keys", func(t *testing.T) {
		b := newBackend(t)
		got, err := b.GetMany(context.Background())
		require.NoError(t, err)
		require.Empty(t, got)
	})
}
