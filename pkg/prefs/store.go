package prefs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"flow-settings/pkg/kv"
	"flow-settings/pkg/metrics"
)

// Store reads and writes preference records on top of a kv.Store and
// notifies watchers after every successful save.
type Store struct {
	kv  kv.Store
	log *zap.Logger

	mu       sync.Mutex
	watchers map[chan Record]struct{}
}

// NewStore wraps backend. A nil logger discards log output.
func NewStore(backend kv.Store, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		kv:       backend,
		log:      log.Named("prefs"),
		watchers: make(map[chan Record]struct{}),
	}
}

// Load reads every key once and returns the record. Missing keys keep their
// defaults. When the backend cannot be read, the defaults are returned along
// with the error so callers can keep running.
func (s *Store) Load(ctx context.Context) (Record, error) {
	rec, err := s.load(ctx)
	metrics.RecordLoad(err)
	return rec, err
}

func (s *Store) load(ctx context.Context) (Record, error) {
	entries, err := s.kv.GetAll(ctx)
	if err != nil {
		return Defaults(), fmt.Errorf("load preferences: %w", err)
	}

	rec, malformed := decodeRecord(entries)
	for _, key := range malformed {
		s.log.Warn("Ignoring malformed stored value, using default",
			zap.String("key", key), zap.ByteString("raw", entries[key]))
	}
	return rec, nil
}

// Save writes a single key. Volume takes an int, the toggles take a bool.
// Concurrent saves to the same key are last-write-wins.
func (s *Store) Save(ctx context.Context, key string, value any) error {
	raw, err := encodeValue(key, value)
	if err != nil {
		return err
	}

	start := time.Now()
	err = s.kv.Put(ctx, key, raw)
	metrics.RecordWrite(key, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}

	s.log.Debug("Preference saved", zap.String("key", key), zap.Any("value", value))
	s.notify(ctx)
	return nil
}

// SaveVolume stores the volume level
func (s *Store) SaveVolume(ctx context.Context, value int) error {
	return s.Save(ctx, KeyVolume, value)
}

// SaveOption stores one of the boolean toggles
func (s *Store) SaveOption(ctx context.Context, key string, value bool) error {
	return s.Save(ctx, key, value)
}

// Watch emits the current record and then the full record after every save
// made through this Store. On backends shared between processes (kv.Notifier)
// saves made by other processes are emitted too. A slow receiver only sees the
// most recent record. The channel is closed once ctx is done.
func (s *Store) Watch(ctx context.Context) <-chan Record {
	ch := make(chan Record, 1)

	// Subscribe before the first load so no remote save falls in between
	var changes <-chan struct{}
	if n, ok := s.kv.(kv.Notifier); ok {
		c, err := n.Changes(ctx)
		if err != nil {
			s.log.Warn("Watching local saves only", zap.Error(err))
		}
		changes = c
	}

	s.mu.Lock()
	rec, err := s.load(ctx)
	if err != nil {
		s.log.Warn("Watch started from defaults", zap.Error(err))
	}
	ch <- rec
	s.watchers[ch] = struct{}{}
	s.mu.Unlock()

	go func() {
		for {
			select {
			case <-ctx.Done():
				s.mu.Lock()
				delete(s.watchers, ch)
				close(ch)
				s.mu.Unlock()
				return
			case _, ok := <-changes:
				if !ok {
					changes = nil
					continue
				}
				s.refresh(ctx, ch)
			}
		}
	}()

	return ch
}

// refresh reloads the record for a single watcher after a remote save
func (s *Store) refresh(ctx context.Context, ch chan Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.watchers[ch]; !ok || ctx.Err() != nil {
		return
	}
	rec, err := s.load(ctx)
	if err != nil {
		s.log.Warn("Skipping remote change", zap.Error(err))
		return
	}
	offer(ch, rec)
}

// notify reloads the record and hands it to every watcher
func (s *Store) notify(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.watchers) == 0 {
		return
	}

	rec, err := s.load(ctx)
	if err != nil {
		s.log.Warn("Skipping watcher notification", zap.Error(err))
		return
	}

	for ch := range s.watchers {
		offer(ch, rec)
	}
}

// offer delivers rec, replacing a pending record the receiver has not read
func offer(ch chan Record, rec Record) {
	select {
	case ch <- rec:
	default:
		select {
		case <-ch:
		default:
		}
		ch <- rec
	}
}

// Close closes the underlying backend
func (s *Store) Close() error {
	return s.kv.Close()
}
