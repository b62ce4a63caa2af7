package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) *SQLiteBackend {
	t.Helper()
	b, err := NewSQLite(filepath.Join(t.TempDir(), "nested", "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func newTestRedis(t *testing.T) (*RedisBackend, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	b := NewRedis(RedisOptions{Addr: mr.Addr(), Namespace: "test:"})
	t.Cleanup(func() { _ = b.Close() })
	return b, mr
}

func backends(t *testing.T) map[string]Backend {
	redisBackend, _ := newTestRedis(t)
	return map[string]Backend{
		"sqlite": newTestSQLite(t),
		"redis":  redisBackend,
	}
}

func TestBackendGetMissingKey(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := b.Get(context.Background(), "absent")
			assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
		})
	}
}

func TestBackendSetOverwrites(t *testing.T) {
	ctx := context.Background()
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, b.Set(ctx, "k", []byte(`"home"`)))
			require.NoError(t, b.Set(ctx, "k", []byte(`"scan"`)))

			got, err := b.Get(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, `"scan"`, string(got))
		})
	}
}

func TestBackendDeletePrefixScopesToDevice(t *testing.T) {
	ctx := context.Background()
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, b.Set(ctx, DeviceKey("anon_a", KeyCurrentTab), []byte(`"chat"`)))
			require.NoError(t, b.Set(ctx, DeviceKey("anon_a", KeyFavorites), []byte(`[]`)))
			require.NoError(t, b.Set(ctx, DeviceKey("anon_b", KeyCurrentTab), []byte(`"home"`)))

			n, err := b.DeletePrefix(ctx, DevicePrefix("anon_a"))
			require.NoError(t, err)
			assert.Equal(t, int64(2), n)

			_, err = b.Get(ctx, DeviceKey("anon_a", KeyCurrentTab))
			assert.ErrorIs(t, err, ErrNotFound)

			got, err := b.Get(ctx, DeviceKey("anon_b", KeyCurrentTab))
			require.NoError(t, err)
			assert.Equal(t, `"home"`, string(got))

			n, err = b.DeletePrefix(ctx, "")
			require.NoError(t, err)
			assert.Equal(t, int64(1), n)
		})
	}
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	b, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, b.Set(ctx, "k", []byte("v")))
	require.NoError(t, b.Close())

	b, err = NewSQLite(path)
	require.NoError(t, err)
	defer b.Close()

	got, err := b.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))
}

func TestRedisNamespaceIsApplied(t *testing.T) {
	b, mr := newTestRedis(t)
	require.NoError(t, b.Set(context.Background(), "k", []byte("v")))

	got, err := mr.Get("test:k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestRedisUnavailable(t *testing.T) {
	b, mr := newTestRedis(t)
	mr.Close()

	assert.Error(t, b.Ping(context.Background()))
	assert.Error(t, b.Set(context.Background(), "k", []byte("v")))
}

func TestClassifyWriteError(t *testing.T) {
	assert.NoError(t, classifyWriteError("op", nil))

	err := classifyWriteError("op", errors.New("database is locked (5) (SQLITE_BUSY)"))
	assert.ErrorIs(t, err, ErrBusy)

	err = classifyWriteError("op", errors.New("disk I/O error"))
	assert.False(t, errors.Is(err, ErrBusy))
}

func TestEscapeGlob(t *testing.T) {
	assert.Equal(t, `a\*b\?c\[d\]`, escapeGlob("a*b?c[d]"))
}
