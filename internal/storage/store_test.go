package storage

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/pixil98/go-testutil"
)

// mockRecord is the record type used to exercise every Storer implementation.
type mockRecord struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

func newBoltTestStore(t *testing.T) Storer[*mockRecord] {
	t.Helper()

	db, err := OpenBolt(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("opening bolt: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	st, err := NewBoltStore[*mockRecord](db, "mock")
	if err != nil {
		t.Fatalf("creating bolt store: %v", err)
	}
	return st
}

var storers = map[string]func(t *testing.T) Storer[*mockRecord]{
	"memory": func(t *testing.T) Storer[*mockRecord] { return NewMemoryStore[*mockRecord]() },
	"bolt":   newBoltTestStore,
}

func TestStorer_GetMissing(t *testing.T) {
	for name, newStore := range storers {
		t.Run(name, func(t *testing.T) {
			st := newStore(t)

			_, err := st.Get(context.Background(), "nope")
			if !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestStorer_CreateAndGet(t *testing.T) {
	for name, newStore := range storers {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			st := newStore(t)

			err := st.Create(ctx, "a", &mockRecord{Name: "First", Value: 1})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			err = st.Create(ctx, "a", &mockRecord{Name: "Second", Value: 2})
			if !errors.Is(err, ErrExists) {
				t.Errorf("expected ErrExists, got %v", err)
			}

			got, err := st.Get(ctx, "a")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			testutil.AssertEqual(t, "name", got.Name, "First")
			testutil.AssertEqual(t, "value", got.Value, 1)
		})
	}
}

func TestStorer_PutOverwrites(t *testing.T) {
	for name, newStore := range storers {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			st := newStore(t)

			if err := st.Put(ctx, "a", &mockRecord{Value: 1}); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if err := st.Put(ctx, "a", &mockRecord{Value: 7}); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			got, err := st.Get(ctx, "a")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			testutil.AssertEqual(t, "value", got.Value, 7)
		})
	}
}

func TestStorer_Update(t *testing.T) {
	tests := map[string]struct {
		key      string
		fn       func(*mockRecord) error
		expErr   error
		expValue int
	}{
		"applies change": {
			key:      "a",
			fn:       func(r *mockRecord) error { r.Value += 5; return nil },
			expValue: 6,
		},
		"failed condition writes nothing": {
			key: "a",
			fn: func(r *mockRecord) error {
				r.Value = 100
				return ErrConditionFailed
			},
			expErr:   ErrConditionFailed,
			expValue: 1,
		},
		"missing key": {
			key:      "b",
			fn:       func(r *mockRecord) error { return nil },
			expErr:   ErrNotFound,
			expValue: 1,
		},
	}

	for storeName, newStore := range storers {
		for name, tt := range tests {
			t.Run(storeName+"/"+name, func(t *testing.T) {
				ctx := context.Background()
				st := newStore(t)
				if err := st.Put(ctx, "a", &mockRecord{Value: 1}); err != nil {
					t.Fatalf("unexpected error: %v", err)
				}

				err := st.Update(ctx, tt.key, tt.fn)
				if !errors.Is(err, tt.expErr) {
					t.Errorf("error = %v, expected %v", err, tt.expErr)
				}

				got, err := st.Get(ctx, "a")
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				testutil.AssertEqual(t, "value", got.Value, tt.expValue)
			})
		}
	}
}

func TestStorer_ConcurrentUpdatesDoNotLoseWrites(t *testing.T) {
	for name, newStore := range storers {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			st := newStore(t)
			if err := st.Put(ctx, "counter", &mockRecord{}); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			var wg sync.WaitGroup
			for i := 0; i < 50; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					err := st.Update(ctx, "counter", func(r *mockRecord) error {
						r.Value++
						return nil
					})
					if err != nil {
						t.Errorf("unexpected error: %v", err)
					}
				}()
			}
			wg.Wait()

			got, err := st.Get(ctx, "counter")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			testutil.AssertEqual(t, "value", got.Value, 50)
		})
	}
}

func TestStorer_DeleteAndScan(t *testing.T) {
	for name, newStore := range storers {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			st := newStore(t)
			for _, r := range []*mockRecord{{Name: "a", Value: 1}, {Name: "b", Value: 2}, {Name: "c", Value: 2}} {
				if err := st.Put(ctx, r.Name, r); err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
			}

			if err := st.Delete(ctx, "c"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if err := st.Delete(ctx, "missing"); err != nil {
				t.Errorf("deleting a missing key: %v", err)
			}

			all, err := st.Scan(ctx, nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			testutil.AssertEqual(t, "all count", len(all), 2)

			twos, err := st.Scan(ctx, func(r *mockRecord) bool { return r.Value == 2 })
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			testutil.AssertEqual(t, "filtered count", len(twos), 1)
			testutil.AssertEqual(t, "filtered name", twos[0].Name, "b")
		})
	}
}

func TestMemoryStore_RecordsAreCopies(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore[*mockRecord]()

	rec := &mockRecord{Value: 1}
	if err := st.Put(ctx, "a", rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rec.Value = 99

	got, err := st.Get(ctx, "a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "value", got.Value, 1)
}
