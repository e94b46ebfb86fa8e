package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/okian/framecount/internal/domain/model"
)

func shot(id, name string, frames int) model.Shot {
	return model.Shot{ID: id, Name: name, Frames: frames}
}

func TestMemoryStore_BasicOperations(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if count := store.Count(ctx); count != 0 {
		t.Errorf("expected count 0, got %d", count)
	}

	if err := store.Insert(ctx, shot("a", "SQ01_SC01_SH01", 48)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Insert(ctx, shot("b", "SQ01_SC01_SH02", 120)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if count := store.Count(ctx); count != 2 {
		t.Errorf("expected count 2, got %d", count)
	}

	got, err := store.Get(ctx, "b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Frames != 120 {
		t.Errorf("expected 120 frames, got %d", got.Frames)
	}

	names := store.Names(ctx)
	if len(names) != 2 || names[0] != "SQ01_SC01_SH01" || names[1] != "SQ01_SC01_SH02" {
		t.Errorf("unexpected names %v", names)
	}
}

func TestMemoryStore_Errors(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if err := store.Insert(ctx, shot("", "x", 1)); !errors.Is(err, ErrEmptyID) {
		t.Errorf("expected ErrEmptyID, got %v", err)
	}
	if err := store.Insert(ctx, shot("a", "x", 1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Insert(ctx, shot("a", "y", 1)); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("expected ErrDuplicateID, got %v", err)
	}
	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound from Get, got %v", err)
	}
	if err := store.Update(ctx, shot("missing", "z", 1)); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound from Update, got %v", err)
	}
	if err := store.Delete(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound from Delete, got %v", err)
	}
}

func TestMemoryStore_OrderIsStable(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(WithCapacity(4))

	for i := range 5 {
		if err := store.Insert(ctx, shot(fmt.Sprintf("id-%d", i), fmt.Sprintf("S%d", i), i+1)); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	// Updating keeps the shot in place.
	if err := store.Update(ctx, shot("id-1", "S1-renamed", 99)); err != nil {
		t.Fatalf("update: %v", err)
	}
	// Deleting closes the gap without reordering.
	if err := store.Delete(ctx, "id-2"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	list := store.List(ctx)
	want := []string{"id-0", "id-1", "id-3", "id-4"}
	if len(list) != len(want) {
		t.Fatalf("expected %d shots, got %d", len(want), len(list))
	}
	for i, id := range want {
		if list[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, list[i].ID)
		}
	}
	if list[1].Name != "S1-renamed" || list[1].Frames != 99 {
		t.Errorf("update not visible: %+v", list[1])
	}
}

func TestMemoryStore_ListReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	_ = store.Insert(ctx, shot("a", "A", 1))

	list := store.List(ctx)
	list[0].Name = "mutated"

	got, _ := store.Get(ctx, "a")
	if got.Name != "A" {
		t.Errorf("store was mutated through List result: %q", got.Name)
	}
}

func TestMemoryStore_ReplaceAll(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	_ = store.Insert(ctx, shot("a", "A", 1))
	_ = store.Insert(ctx, shot("b", "B", 2))

	repriced := []model.Shot{
		{ID: "a", Name: "A", Frames: 1, Price: 10},
		{ID: "b", Name: "B", Frames: 2, Price: 20},
	}
	if err := store.ReplaceAll(ctx, repriced); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	list := store.List(ctx)
	if list[0].Price != 10 || list[1].Price != 20 {
		t.Errorf("prices not replaced: %+v", list)
	}

	// A bad replacement leaves the collection untouched.
	err := store.ReplaceAll(ctx, []model.Shot{shot("x", "X", 1), shot("x", "Y", 1)})
	if !errors.Is(err, ErrDuplicateID) {
		t.Errorf("expected ErrDuplicateID, got %v", err)
	}
	if store.Count(ctx) != 2 {
		t.Errorf("expected collection unchanged, got %d shots", store.Count(ctx))
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	const writers = 8
	const perWriter = 100

	var wg sync.WaitGroup
	for w := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perWriter {
				id := fmt.Sprintf("w%d-%d", w, i)
				if err := store.Insert(ctx, shot(id, id, i)); err != nil {
					t.Errorf("insert %s: %v", id, err)
				}
				_ = store.List(ctx)
			}
		}()
	}
	wg.Wait()

	if count := store.Count(ctx); count != writers*perWriter {
		t.Errorf("expected %d shots, got %d", writers*perWriter, count)
	}
}
