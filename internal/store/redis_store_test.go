package store

import (
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

// newTestRedisStore starts miniredis and connects a store to it
func newTestRedisStore(t *testing.T, retain int) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	store, err := NewRedisStore(mr.Addr(), "", 0, retain)
	if err != nil {
		t.Fatalf("failed to connect to Redis: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store, mr
}

// TestRedisStore_ConnectionFailure tests connection errors
func TestRedisStore_ConnectionFailure(t *testing.T) {
	_, err := NewRedisStore("invalid:9999", "", 0, 10)

	if err == nil {
		t.Error("expected connection error, got nil")
	}
}

// TestRedisStore_AppendAndRecent tests the round trip through Redis
func TestRedisStore_AppendAndRecent(t *testing.T) {
	store, mr := newTestRedisStore(t, 10)

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	first := sampleRecord("8.8.8.8", "Mountain View", base)
	second := sampleRecord("8.8.8.8", "Ashburn", base.Add(time.Minute))

	if err := store.Append(first); err != nil {
		t.Fatalf("failed to append: %v", err)
	}
	if err := store.Append(second); err != nil {
		t.Fatalf("failed to append: %v", err)
	}

	if !mr.Exists("history:8.8.8.8") {
		t.Fatal("expected key history:8.8.8.8")
	}

	records, err := store.Recent("8.8.8.8", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if !sameRecord(records[0], second) {
		t.Errorf("expected newest record first\nwant %+v\ngot  %+v", second, records[0])
	}
	if !sameRecord(records[1], first) {
		t.Errorf("expected oldest record last\nwant %+v\ngot  %+v", first, records[1])
	}
}

// TestRedisStore_Retain tests that old records are trimmed on write
func TestRedisStore_Retain(t *testing.T) {
	store, mr := newTestRedisStore(t, 3)

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		if err := store.Append(sampleRecord("1.1.1.1", "Sydney", base.Add(time.Duration(i)*time.Second))); err != nil {
			t.Fatalf("failed to append: %v", err)
		}
	}

	items, err := mr.List("history:1.1.1.1")
	if err != nil {
		t.Fatalf("failed to read list: %v", err)
	}
	if len(items) != 3 {
		t.Errorf("expected 3 retained records, got %d", len(items))
	}

	records, _ := store.Recent("1.1.1.1", 2)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if !records[0].LookedUpAt.Equal(base.Add(4 * time.Second)) {
		t.Errorf("expected newest record first, got %s", records[0].LookedUpAt)
	}
}

// TestRedisStore_Recent_Unknown tests a target with no history
func TestRedisStore_Recent_Unknown(t *testing.T) {
	store, _ := newTestRedisStore(t, 10)

	records, err := store.Recent("9.9.9.9", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records, got %d", len(records))
	}
}

// TestRedisStore_Recent_CorruptValue tests decoding errors
func TestRedisStore_Recent_CorruptValue(t *testing.T) {
	store, mr := newTestRedisStore(t, 10)

	mr.Lpush("history:8.8.8.8", "not json")

	if _, err := store.Recent("8.8.8.8", 10); err == nil {
		t.Error("expected decode error, got nil")
	}
}

// TestRedisStore_EmptyTarget tests that self lookups are rejected
func TestRedisStore_EmptyTarget(t *testing.T) {
	store, mr := newTestRedisStore(t, 10)

	if err := store.Append(sampleRecord("", "Berlin", time.Now())); !errors.Is(err, ErrEmptyTarget) {
		t.Errorf("expected ErrEmptyTarget, got %v", err)
	}
	if len(mr.Keys()) != 0 {
		t.Errorf("expected no keys, got %v", mr.Keys())
	}
}

// TestRedisStore_Close tests closing the connection
func TestRedisStore_Close(t *testing.T) {
	mr, _ := miniredis.Run()
	defer mr.Close()

	store, _ := NewRedisStore(mr.Addr(), "", 0, 10)

	if err := store.Close(); err != nil {
		t.Errorf("unexpected error on close: %v", err)
	}
}
