package items

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/erazemk/predal/internal/model"
)

// Storage is a key/value store holding serialized snapshots.
type Storage interface {
	// Get returns the value stored under key; ok is false when there is none.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set overwrites the value stored under key.
	Set(ctx context.Context, key, value string) error
}

// Writer persists item snapshots in the background. It holds at most one
// pending snapshot: a newer one replaces an unwritten older one. Writes run
// one at a time in submission order, so the stored value always ends up
// matching the last snapshot submitted. Failures are logged and dropped.
type Writer struct {
	storage Storage
	key     string

	mu      sync.Mutex
	pending []model.Item
	queued  bool
	closed  bool

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// NewWriter starts a writer that stores snapshots under key.
func NewWriter(storage Storage, key string) *Writer {
	w := &Writer{
		storage: storage,
		key:     key,
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go w.run()
	return w
}

// Submit schedules snapshot to be written. It never blocks on storage. The
// snapshot must not be modified afterwards.
func (w *Writer) Submit(snapshot []model.Item) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		slog.Warn("snapshot dropped, writer closed", "key", w.key)
		return
	}
	w.pending = snapshot
	w.queued = true
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Close writes any pending snapshot and stops the writer. It returns early
// with ctx's error if ctx is done first.
func (w *Writer) Close(ctx context.Context) error {
	w.once.Do(func() {
		w.mu.Lock()
		w.closed = true
		w.mu.Unlock()
		close(w.stop)
	})

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Writer) run() {
	defer close(w.done)
	for {
		select {
		case <-w.wake:
			w.flush()
		case <-w.stop:
			w.flush()
			return
		}
	}
}

func (w *Writer) flush() {
	w.mu.Lock()
	snapshot, queued := w.pending, w.queued
	w.pending, w.queued = nil, false
	w.mu.Unlock()

	if !queued {
		return
	}

	if snapshot == nil {
		snapshot = []model.Item{}
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		slog.Warn("failed to encode item snapshot", "error", err)
		return
	}

	if err := w.storage.Set(context.Background(), w.key, string(data)); err != nil {
		slog.Warn("failed to persist item snapshot", "key", w.key, "error", err)
	}
}
