package session

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStoreRoundtrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Minute)

	if _, ok, err := store.Get(ctx, 1); err != nil || ok {
		t.Fatalf("expected empty store, got ok=%v err=%v", ok, err)
	}

	want := Session{
		State:      StateAwaitingSelection,
		StaffNames: map[int64]string{7: "Иван", 9: "Олег"},
	}
	if err := store.Put(ctx, 1, want); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok, err := store.Get(ctx, 1)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if got.State != want.State || got.StaffNames[7] != "Иван" {
		t.Fatalf("got %+v, want %+v", got, want)
	}

	if err := store.Delete(ctx, 1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := store.Get(ctx, 1); ok {
		t.Fatal("session should be gone after Delete")
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Millisecond)
	if err := store.Put(ctx, 2, Session{State: StateAwaitingCode}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, ok, _ := store.Get(ctx, 2); ok {
		t.Fatal("expired session should not be returned")
	}
}
