package kv

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backends returns a fresh instance of every backend
func backends(t *testing.T) map[string]Store {
	t.Helper()

	b, err := OpenBadgerInMemory()
	require.NoError(t, err)

	s, err := OpenSQLite(filepath.Join(t.TempDir(), "prefs.sqlite"))
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	r := NewRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test")

	stores := map[string]Store{
		"memory": NewMemory(),
		"badger": b,
		"sqlite": s,
		"redis":  r,
	}
	t.Cleanup(func() {
		for _, st := range stores {
			_ = st.Close()
		}
	})
	return stores
}

func TestStore_EmptyGetAll(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			all, err := st.GetAll(context.Background())
			require.NoError(t, err)
			assert.Empty(t, all)
		})
	}
}

func TestStore_PutThenGetAll(t *testing.T) {
	ctx := context.Background()
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, st.Put(ctx, "volume_lvl", []byte("70")))
			require.NoError(t, st.Put(ctx, "key_bluetooth", []byte("true")))

			all, err := st.GetAll(ctx)
			require.NoError(t, err)
			assert.Equal(t, map[string][]byte{
				"volume_lvl":    []byte("70"),
				"key_bluetooth": []byte("true"),
			}, all)
		})
	}
}

func TestStore_OverwriteKeepsLatest(t *testing.T) {
	ctx := context.Background()
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, st.Put(ctx, "key_darkmode", []byte("true")))
			require.NoError(t, st.Put(ctx, "key_darkmode", []byte("false")))

			all, err := st.GetAll(ctx)
			require.NoError(t, err)
			assert.Len(t, all, 1)
			assert.Equal(t, []byte("false"), all["key_darkmode"])
		})
	}
}

func TestBadger_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	b, err := OpenBadger(dir)
	require.NoError(t, err)
	require.NoError(t, b.Put(ctx, "key_vibration", []byte("true")))
	require.NoError(t, b.Close())

	b, err = OpenBadger(dir)
	require.NoError(t, err)
	defer b.Close()

	all, err := b.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("true"), all["key_vibration"])
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "prefs.sqlite")
	ctx := context.Background()

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, "volume_lvl", []byte("12")))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("12"), all["volume_lvl"])
}

func TestMemory_CopiesValues(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	buf := []byte("40")
	require.NoError(t, m.Put(ctx, "volume_lvl", buf))
	buf[0] = '9'

	all, err := m.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("40"), all["volume_lvl"])

	all["volume_lvl"][0] = '1'
	again, err := m.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("40"), again["volume_lvl"])
}

func TestMemory_Closed(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Close())

	_, err := m.GetAll(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, m.Put(context.Background(), "k", nil), ErrClosed)
}

func TestOpen_Factory(t *testing.T) {
	dir := t.TempDir()

	st, err := Open(Options{Backend: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, st)

	st, err = Open(Options{Backend: "sqlite", Dir: dir})
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, st)
	require.NoError(t, st.Close())

	st, err = Open(Options{Dir: dir})
	require.NoError(t, err)
	assert.IsType(t, &Badger{}, st)
	require.NoError(t, st.Close())

	mr := miniredis.RunT(t)
	st, err = Open(Options{Backend: "redis", RedisAddr: mr.Addr()})
	require.NoError(t, err)
	assert.IsType(t, &Redis{}, st)
	require.NoError(t, st.Close())

	_, err = Open(Options{Backend: "badger"})
	assert.ErrorContains(t, err, "data directory")

	_, err = Open(Options{Backend: "etcd"})
	assert.ErrorContains(t, err, "unknown kv backend")
}

func TestRedis_UsesNamespacedHash(t *testing.T) {
	mr := miniredis.RunT(t)
	r := NewRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "frame-1")
	defer r.Close()

	require.NoError(t, r.Put(context.Background(), "key_bluetooth", []byte("true")))
	assert.Equal(t, "true", mr.HGet("frame-1:prefs", "key_bluetooth"))
}

func TestRedis_ChangesSignalsWritesFromOtherClients(t *testing.T) {
	mr := miniredis.RunT(t)
	screen := NewRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "frame-1")
	defer screen.Close()
	cli := NewRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "frame-1")
	defer cli.Close()

	ctx, cancel := context.WithCancel(context.Background())
	changes, err := screen.Changes(ctx)
	require.NoError(t, err)

	require.NoError(t, cli.Put(context.Background(), "volume_lvl", []byte("10")))

	select {
	case <-changes:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a change signal for a write from another client")
	}

	cancel()
	require.Eventually(t, func() bool {
		select {
		case _, open := <-changes:
			return !open
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}
