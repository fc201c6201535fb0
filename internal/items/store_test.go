package items

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/erazemk/predal/internal/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// memStorage is an in-memory Storage that records every write.
type memStorage struct {
	mu     sync.Mutex
	values map[string]string
	writes []string
	getErr error
	setErr error
	gate   chan struct{} // when set, Set blocks until it can receive
}

func newMemStorage() *memStorage {
	return &memStorage{values: map[string]string{}}
}

func (m *memStorage) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", false, m.getErr
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memStorage) Set(_ context.Context, key, value string) error {
	if m.gate != nil {
		<-m.gate
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes = append(m.writes, value)
	if m.setErr != nil {
		return m.setErr
	}
	m.values[key] = value
	return nil
}

func (m *memStorage) stored(t *testing.T, key string) []model.Item {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		t.Fatalf("nothing stored under %q", key)
	}
	var items []model.Item
	if err := json.Unmarshal([]byte(v), &items); err != nil {
		t.Fatalf("stored value is not an item list: %v", err)
	}
	return items
}

func closeStore(t *testing.T, s *Store) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestNewPanicsWithoutStorage(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for nil storage")
		}
	}()
	New(nil)
}

func TestHydrateWithoutSnapshotKeepsFixture(t *testing.T) {
	storage := newMemStorage()
	s := New(storage)
	s.Hydrate(context.Background())
	closeStore(t, s)

	if diff := cmp.Diff(model.Fixture(), s.View().All()); diff != "" {
		t.Errorf("expected fixture (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(model.Fixture(), storage.stored(t, DefaultKey)); diff != "" {
		t.Errorf("fixture not persisted (-want +got):\n%s", diff)
	}
}

func TestHydrateFromSnapshot(t *testing.T) {
	storage := newMemStorage()
	stored := sample()
	data, _ := json.Marshal(stored)
	storage.values["custom"] = string(data)

	s := New(storage, WithKey("custom"))
	s.Hydrate(context.Background())
	defer closeStore(t, s)

	if diff := cmp.Diff(stored, s.View().All()); diff != "" {
		t.Errorf("hydrated sequence mismatch (-want +got):\n%s", diff)
	}
}

func TestHydrateFailuresAreSwallowed(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*memStorage)
	}{
		{"read error", func(m *memStorage) { m.getErr = errors.New("disk gone") }},
		{"malformed json", func(m *memStorage) { m.values[DefaultKey] = "{not json" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := newMemStorage()
			tt.setup(storage)

			s := New(storage, WithInitial(sample()))
			s.Hydrate(context.Background())
			closeStore(t, s)

			if diff := cmp.Diff(sample(), s.View().All()); diff != "" {
				t.Errorf("expected initial sequence (-want +got):\n%s", diff)
			}
		})
	}
}

func TestHydrateNullSnapshot(t *testing.T) {
	storage := newMemStorage()
	storage.values[DefaultKey] = "null"

	s := New(storage)
	s.Hydrate(context.Background())
	defer closeStore(t, s)

	if got := s.View().All(); len(got) != 0 {
		t.Errorf("expected empty sequence, got %d items", len(got))
	}
}

func TestHydrateRunsOnce(t *testing.T) {
	storage := newMemStorage()
	s := New(storage, WithInitial(sample()))
	s.Hydrate(context.Background())

	data, _ := json.Marshal([]model.Item{{ID: "other"}})
	storage.mu.Lock()
	storage.values[DefaultKey] = string(data)
	storage.mu.Unlock()

	s.Hydrate(context.Background())
	closeStore(t, s)

	if got := ids(s.View().All()); len(got) != 3 {
		t.Errorf("second Hydrate replaced the sequence: %v", got)
	}
}

func TestNoWriteThroughBeforeHydrate(t *testing.T) {
	storage := newMemStorage()
	s := New(storage, WithInitial(sample()))
	s.Add(model.Item{ID: "4"})
	closeStore(t, s)

	if len(storage.writes) != 0 {
		t.Errorf("expected no writes before hydration, got %d", len(storage.writes))
	}
}

func TestCommandsWriteThrough(t *testing.T) {
	storage := newMemStorage()
	s := New(storage, WithInitial(sample()))
	s.Hydrate(context.Background())

	s.Add(model.Item{ID: "4", Name: "Lamp"})
	s.Update(model.Item{ID: "1", Name: "Apple", Label: "Snacks"})
	s.Remove("2")
	closeStore(t, s)

	want := s.View().All()
	if diff := cmp.Diff([]string{"1", "3", "4"}, ids(want)); diff != "" {
		t.Errorf("in-memory sequence mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, storage.stored(t, DefaultKey)); diff != "" {
		t.Errorf("persisted snapshot differs from memory (-want +got):\n%s", diff)
	}
}

func TestWriteFailureDoesNotAffectStore(t *testing.T) {
	storage := newMemStorage()
	storage.setErr = errors.New("read-only")

	s := New(storage, WithInitial(sample()))
	s.Hydrate(context.Background())
	s.Remove("1")
	closeStore(t, s)

	if diff := cmp.Diff([]string{"2", "3"}, ids(s.View().All())); diff != "" {
		t.Errorf("sequence mismatch (-want +got):\n%s", diff)
	}
}

func TestViewIsStableAcrossCommands(t *testing.T) {
	storage := newMemStorage()
	s := New(storage, WithInitial(sample()))
	defer closeStore(t, s)

	before := s.View()
	s.Remove("1")

	if got := len(before.All()); got != 3 {
		t.Errorf("earlier view changed after Remove: %d items", got)
	}
	if got := len(s.View().All()); got != 2 {
		t.Errorf("expected 2 items after Remove, got %d", got)
	}
}

func TestConcurrentDispatch(t *testing.T) {
	storage := newMemStorage()
	s := New(storage, WithInitial(nil))
	s.Hydrate(context.Background())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			s.Add(model.NewItem(time.UnixMilli(int64(n))))
		}(i)
	}
	wg.Wait()
	closeStore(t, s)

	if got := len(s.View().All()); got != 50 {
		t.Fatalf("expected 50 items, got %d", got)
	}
	if got := len(storage.stored(t, DefaultKey)); got != 50 {
		t.Errorf("expected persisted snapshot of 50 items, got %d", got)
	}
}

func TestAddNewSeesItemsAddedConcurrently(t *testing.T) {
	storage := newMemStorage()
	s := New(storage, WithInitial(nil))
	s.Hydrate(context.Background())

	now := time.UnixMilli(1000)
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.AddNew(func(taken func(string) bool) model.Item {
				at := now
				item := model.NewItem(at)
				for taken(item.ID) {
					at = at.Add(time.Millisecond)
					item = model.NewItem(at)
				}
				return item
			})
		}()
	}
	wg.Wait()
	closeStore(t, s)

	seen := map[string]bool{}
	for _, item := range s.View().All() {
		if seen[item.ID] {
			t.Fatalf("duplicate id %q", item.ID)
		}
		seen[item.ID] = true
	}
	if len(seen) != 100 {
		t.Errorf("expected 100 items, got %d", len(seen))
	}
}

func TestModify(t *testing.T) {
	storage := newMemStorage()
	s := New(storage, WithInitial(sample()))
	s.Hydrate(context.Background())

	item, ok, err := s.Modify("2", func(item *model.Item) error {
		item.Note = "ripe"
		item.ID = "changed"
		return nil
	})
	if !ok || err != nil {
		t.Fatalf("Modify(2) = %v, %v", ok, err)
	}
	if item.ID != "2" || item.Note != "ripe" {
		t.Errorf("unexpected result %+v", item)
	}

	if _, ok, _ := s.Modify("missing", func(*model.Item) error {
		t.Error("fn called for unknown id")
		return nil
	}); ok {
		t.Error("expected ok=false for unknown id")
	}

	failed := errors.New("rejected")
	if _, ok, err := s.Modify("1", func(item *model.Item) error {
		item.Name = "Rotten"
		return failed
	}); !ok || !errors.Is(err, failed) {
		t.Errorf("expected fn error, got ok=%v err=%v", ok, err)
	}
	closeStore(t, s)

	got, _ := s.View().ByID("1")
	if got.Name == "Rotten" {
		t.Error("rejected modification was stored")
	}
	if diff := cmp.Diff([]string{"1", "2", "3"}, ids(s.View().All())); diff != "" {
		t.Errorf("sequence mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(s.View().All(), storage.stored(t, DefaultKey)); diff != "" {
		t.Errorf("persisted snapshot differs from memory (-want +got):\n%s", diff)
	}
}

func TestConcurrentModifyKeepsEveryChange(t *testing.T) {
	storage := newMemStorage()
	s := New(storage, WithInitial([]model.Item{{ID: "1", Amount: 0}}))
	s.Hydrate(context.Background())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Modify("1", func(item *model.Item) error {
				item.Amount++
				return nil
			})
		}()
	}
	wg.Wait()
	closeStore(t, s)

	if item, _ := s.View().ByID("1"); item.Amount != 50 {
		t.Errorf("expected amount 50, got %d", item.Amount)
	}
}
