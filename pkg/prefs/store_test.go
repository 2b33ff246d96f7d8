package prefs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"flow-settings/pkg/kv"
)

// failingKV fails every operation with err
type failingKV struct{ err error }

func (f failingKV) GetAll(context.Context) (map[string][]byte, error) { return nil, f.err }
func (f failingKV) Put(context.Context, string, []byte) error         { return f.err }
func (f failingKV) Close() error                                      { return nil }

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(kv.NewMemory(), nil)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestLoad_EmptyStoreReturnsDefaults(t *testing.T) {
	s := newTestStore(t)

	rec, err := s.Load(context.Background())
	require.NoError(t, err)
	if diff := cmp.Diff(Record{Volume: 50}, rec); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestSave_ThenLoadReflectsOnlyThatKey(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		key   string
		value any
		want  Record
	}{
		{KeyVolume, 80, Record{Volume: 80}},
		{KeyBluetooth, true, Record{Volume: 50, Bluetooth: true}},
		{KeyVibration, true, Record{Volume: 50, Vibration: true}},
		{KeyDarkMode, true, Record{Volume: 50, DarkMode: true}},
	}

	for _, tc := range cases {
		t.Run(tc.key, func(t *testing.T) {
			s := newTestStore(t)
			require.NoError(t, s.Save(ctx, tc.key, tc.value))

			rec, err := s.Load(ctx)
			require.NoError(t, err)
			if diff := cmp.Diff(tc.want, rec); diff != "" {
				t.Errorf("Load() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSave_SameKeyTwiceKeepsLatest(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemory()
	s := NewStore(backend, nil)

	require.NoError(t, s.SaveVolume(ctx, 10))
	require.NoError(t, s.SaveVolume(ctx, 90))

	rec, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 90, rec.Volume)

	all, err := backend.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.Equal(t, []byte("90"), all[KeyVolume])
}

func TestSave_RejectsBadInput(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, s.Save(ctx, "key_wifi", true), ErrUnknownKey)
	assert.ErrorIs(t, s.Save(ctx, KeyVolume, true), ErrInvalidValue)
	assert.ErrorIs(t, s.SaveOption(ctx, KeyVolume, true), ErrInvalidValue)
}

func TestLoad_BackendFailureFallsBackToDefaults(t *testing.T) {
	boom := errors.New("disk gone")
	s := NewStore(failingKV{err: boom}, nil)

	rec, err := s.Load(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, Defaults(), rec)

	assert.ErrorIs(t, s.SaveOption(context.Background(), KeyBluetooth, true), boom)
}

func TestWatch_EmitsCurrentThenChanges(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, s.SaveVolume(context.Background(), 20))

	ch := s.Watch(ctx)
	first := <-ch
	assert.Equal(t, 20, first.Volume)

	require.NoError(t, s.SaveOption(context.Background(), KeyDarkMode, true))

	select {
	case rec := <-ch:
		assert.Equal(t, Record{Volume: 20, DarkMode: true}, rec)
	case <-time.After(time.Second):
		t.Fatal("expected a record after save")
	}

	cancel()
	_, open := <-ch
	for open {
		_, open = <-ch
	}
}

func TestWatch_SlowReceiverSeesLatest(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := s.Watch(ctx)

	for v := 1; v <= 5; v++ {
		require.NoError(t, s.SaveVolume(context.Background(), v))
	}

	rec := <-ch
	assert.Equal(t, 5, rec.Volume)

	select {
	case extra := <-ch:
		t.Fatalf("unexpected extra record %+v", extra)
	default:
	}
}

func TestWatch_SharedRedisSeesOtherProcessSaves(t *testing.T) {
	mr := miniredis.RunT(t)
	open := func() *Store {
		s := NewStore(kv.NewRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "frame-1"), nil)
		t.Cleanup(func() { _ = s.Close() })
		return s
	}
	screen, cli := open(), open()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := screen.Watch(ctx)
	assert.Equal(t, Defaults(), <-ch)

	require.NoError(t, cli.SaveVolume(context.Background(), 10))
	require.NoError(t, cli.SaveOption(context.Background(), KeyBluetooth, true))

	want := Record{Volume: 10, Bluetooth: true}
	deadline := time.After(2 * time.Second)
	for {
		select {
		case rec := <-ch:
			if rec == want {
				return
			}
		case <-deadline:
			t.Fatal("watcher never saw the save made through the other store")
		}
	}
}
