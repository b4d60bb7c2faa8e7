package storage

import (
	"path/filepath"
	"testing"
	"time"

	bolt "go.etcd.io/bbolt"
)

func openTestStore(t *testing.T, opts Options) *boltStore {
	t.Helper()
	raw, err := openBolt(filepath.Join(t.TempDir(), "history.db"), normalizeOptions(opts))
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	store := raw.(*boltStore)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBoltStoreRecordsHistoryInOrder(t *testing.T) {
	store := openTestStore(t, Options{Limit: 3})

	history, err := store.History("https://example.com/a")
	if err != nil || len(history) != 0 {
		t.Fatalf("expected empty history, got %v err=%v", history, err)
	}

	for i, kind := range []string{"success", "protocol_error", "success", "connection_error"} {
		rec := Record{Kind: kind, StatusCode: 200 + i, FetchedAt: time.Unix(int64(1000+i), 0).UTC()}
		if err := store.Record("https://example.com/a", rec); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	history, err = store.History("https://example.com/a")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected history capped at 3, got %d", len(history))
	}
	if history[0].Kind != "protocol_error" || history[2].Kind != "connection_error" {
		t.Fatalf("unexpected order %#v", history)
	}
	if !history[2].FetchedAt.Equal(time.Unix(1003, 0)) {
		t.Fatalf("timestamp not preserved: %v", history[2].FetchedAt)
	}

	other, err := store.History("https://example.com/b")
	if err != nil || len(other) != 0 {
		t.Fatalf("histories leaked across urls: %v err=%v", other, err)
	}
}

func TestBoltStoreExpiresHistory(t *testing.T) {
	store := openTestStore(t, Options{HistoryTTL: time.Minute, CleanupInterval: time.Minute})
	base := time.Now()
	store.now = func() time.Time { return base }

	if err := store.Record("u", Record{Kind: "success"}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	store.now = func() time.Time { return base.Add(2 * time.Minute) }
	history, err := store.History("u")
	if err != nil {
		t.Fatalf("History after expiry: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("expected expired history to be hidden, got %#v", history)
	}

	// A new record after expiry starts a fresh history and triggers cleanup.
	if err := store.Record("u", Record{Kind: "protocol_error"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	history, err = store.History("u")
	if err != nil || len(history) != 1 || history[0].Kind != "protocol_error" {
		t.Fatalf("unexpected history after expiry %#v err=%v", history, err)
	}
}

func TestBoltStoreCleanupRemovesEveryExpiredKey(t *testing.T) {
	store := openTestStore(t, Options{HistoryTTL: time.Minute, CleanupInterval: time.Minute})
	base := time.Now()
	store.now = func() time.Time { return base }

	// Adjacent expired keys are the case a cursor-delete sweep gets wrong.
	for _, url := range []string{"a", "b", "c", "d"} {
		if err := store.Record(url, Record{Kind: "success"}); err != nil {
			t.Fatalf("Record %s: %v", url, err)
		}
	}

	store.now = func() time.Time { return base.Add(2 * time.Minute) }
	if err := store.Record("e", Record{Kind: "success"}); err != nil {
		t.Fatalf("Record e: %v", err)
	}

	var keys []string
	err := store.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(historyBucket)).ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	if err != nil {
		t.Fatalf("scan bucket: %v", err)
	}
	if len(keys) != 1 || keys[0] != "e" {
		t.Fatalf("expected only the live key to remain, got %v", keys)
	}
}

func TestNewStoreSupportsNoop(t *testing.T) {
	store, err := NewStore("none", "", Options{})
	if err != nil {
		t.Fatalf("NewStore none: %v", err)
	}
	if err := store.Record("x", Record{}); err != nil {
		t.Fatalf("noop store Record: %v", err)
	}
}

func TestNewStoreRejectsUnknownType(t *testing.T) {
	if _, err := NewStore("redis", "", Options{}); err == nil {
		t.Fatalf("expected unsupported storage error")
	}
	if _, err := NewStore("bbolt", " ", Options{}); err == nil {
		t.Fatalf("expected missing path error")
	}
}
