package items

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/erazemk/predal/internal/model"
)

// DefaultKey is the storage key holding the serialized item sequence.
const DefaultKey = "@item_data"

// Store owns the item sequence. Every command produces a new sequence that
// is handed to the write-through writer once the store has been hydrated.
type Store struct {
	storage Storage
	key     string
	writer  *Writer

	mu       sync.RWMutex
	items    []model.Item
	hydrated bool

	hydrateOnce sync.Once
}

// Option configures a Store.
type Option func(*Store)

// WithKey sets the storage key. The default is DefaultKey.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithInitial sets the sequence the store holds until hydration replaces it.
// The default is model.Fixture().
func WithInitial(items []model.Item) Option {
	return func(s *Store) {
		s.items = cloneItems(items)
	}
}

// New creates a store backed by storage. It panics if storage is nil.
func New(storage Storage, opts ...Option) *Store {
	if storage == nil {
		panic("items: New called with nil storage")
	}

	s := &Store{
		storage: storage,
		key:     DefaultKey,
		items:   model.Fixture(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.writer = NewWriter(storage, s.key)
	return s
}

// Hydrate loads the stored sequence, once. When nothing is stored, or the
// stored value cannot be read or parsed, the initial sequence is kept.
// Write-through starts after Hydrate returns.
func (s *Store) Hydrate(ctx context.Context) {
	s.hydrateOnce.Do(func() {
		loaded, ok := s.load(ctx)

		s.mu.Lock()
		if ok {
			s.items = Apply(s.items, SetItems{Items: loaded})
		}
		s.hydrated = true
		s.writer.Submit(s.items)
		count := len(s.items)
		s.mu.Unlock()

		slog.Info("item store hydrated", "key", s.key, "from_storage", ok, "items", count)
	})
}

func (s *Store) load(ctx context.Context) ([]model.Item, bool) {
	data, ok, err := s.storage.Get(ctx, s.key)
	if err != nil {
		slog.Warn("failed to read item snapshot", "key", s.key, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var loaded []model.Item
	if err := json.Unmarshal([]byte(data), &loaded); err != nil {
		slog.Warn("failed to parse item snapshot", "key", s.key, "error", err)
		return nil, false
	}
	if loaded == nil {
		loaded = []model.Item{}
	}
	return loaded, true
}

// Dispatch applies cmd and schedules the result to be persisted.
func (s *Store) Dispatch(cmd Command) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dispatchLocked(cmd)
}

// dispatchLocked must be called with s.mu held. Submitting under the lock
// keeps snapshots reaching the writer in command order.
func (s *Store) dispatchLocked(cmd Command) {
	s.items = Apply(s.items, cmd)
	if s.hydrated {
		s.writer.Submit(s.items)
	}
}

// AddNew appends the item returned by build and returns it. build runs under
// the store lock, so an id that taken reports as free is still free when the
// item is appended.
func (s *Store) AddNew(build func(taken func(id string) bool) model.Item) model.Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := build(func(id string) bool { return indexOf(s.items, id) >= 0 })
	s.dispatchLocked(AddItem{Item: item})
	return item.Clone()
}

// Modify runs fn on a copy of the item with the given id and stores the
// result in its place. The read and the write happen under one lock, so
// concurrent modifications never overwrite each other. ok is false when no
// item has the id. If fn returns an error nothing is stored. The id is
// pinned: changes fn makes to it are discarded.
func (s *Store) Modify(id string, fn func(*model.Item) error) (model.Item, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.items, id)
	if i < 0 {
		return model.Item{}, false, nil
	}

	item := s.items[i].Clone()
	if err := fn(&item); err != nil {
		return model.Item{}, true, err
	}
	item.ID = id

	s.dispatchLocked(UpdateItem{Item: item})
	return item.Clone(), true, nil
}

// SetItems replaces the whole sequence.
func (s *Store) SetItems(items []model.Item) { s.Dispatch(SetItems{Items: items}) }

// Add appends item.
func (s *Store) Add(item model.Item) { s.Dispatch(AddItem{Item: item}) }

// Update replaces the item with the same ID, if any.
func (s *Store) Update(item model.Item) { s.Dispatch(UpdateItem{Item: item}) }

// Remove drops the item with the given ID, if any.
func (s *Store) Remove(id string) { s.Dispatch(RemoveItem{ID: id}) }

// View returns a read-only view of the current sequence.
func (s *Store) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	// Sequences are replaced, never modified, so sharing is safe.
	return NewView(s.items)
}

// Close flushes pending writes and stops the writer.
func (s *Store) Close(ctx context.Context) error {
	return s.writer.Close(ctx)
}
