package prefs

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrWriterClosed is returned by Submit after Close
var ErrWriterClosed = errors.New("prefs: writer closed")

// Saver persists a single preference
type Saver interface {
	Save(ctx context.Context, key string, value any) error
}

// Writer runs every submitted save as its own background write. Writes are
// not ordered relative to each other and are never cancelled.
type Writer struct {
	saver Saver
	log   *zap.Logger

	mu       sync.Mutex
	group    *errgroup.Group
	closed   bool
	onResult []func(key string, err error)
}

// NewWriter creates a Writer on top of saver
func NewWriter(saver Saver, log *zap.Logger) *Writer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Writer{
		saver: saver,
		log:   log.Named("writer"),
		group: new(errgroup.Group),
	}
}

// OnResult adds a callback invoked from the write goroutine after each write
// completes. It applies to writes submitted afterwards.
func (w *Writer) OnResult(fn func(key string, err error)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onResult = append(w.onResult, fn)
}

// Submit schedules a fire-and-forget write of value under key
func (w *Writer) Submit(key string, value any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWriterClosed
	}

	callbacks := w.onResult
	w.group.Go(func() error {
		err := w.saver.Save(context.Background(), key, value)
		if err != nil {
			w.log.Warn("Failed to save preference", zap.String("key", key), zap.Any("value", value), zap.Error(err))
		}
		for _, fn := range callbacks {
			fn(key, err)
		}
		return err
	})
	return nil
}

// Flush waits for the writes submitted so far and returns the first error
// among them
func (w *Writer) Flush() error {
	w.mu.Lock()
	pending := w.group
	w.group = new(errgroup.Group)
	w.mu.Unlock()

	return pending.Wait()
}

// Close refuses further writes and waits for the ones in flight
func (w *Writer) Close() error {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()

	return w.Flush()
}
