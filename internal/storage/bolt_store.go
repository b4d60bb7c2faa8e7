package storage

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/samvad-hq/webrequest/pkg/jsonarray"
)

const (
	historyBucket    = "history"
	expiryValueBytes = 8
)

// boltStore implements a Store backed by BoltDB. Each key is a URL; each
// value is an 8-byte big-endian expiry followed by a jsonarray envelope of
// records, oldest first.
type boltStore struct {
	db              *bolt.DB
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	historyTTL      time.Duration
	cleanupInterval time.Duration
	limit           int
	now             func() time.Time
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string, opts Options) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(historyBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	store := &boltStore{
		db:              db,
		historyTTL:      opts.HistoryTTL,
		cleanupInterval: opts.CleanupInterval,
		limit:           opts.Limit,
		now:             time.Now,
	}
	store.lastCleanup.Store(store.now().Unix())
	return store, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// Record appends rec to the history of url and refreshes its expiry.
func (b *boltStore) Record(url string, rec Record) error {
	if b == nil || b.db == nil {
		return nil
	}

	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return err
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(historyBucket))
		if bucket == nil {
			return fmt.Errorf("history bucket missing")
		}

		key := []byte(url)
		records, err := liveRecords(bucket.Get(key), now)
		if err != nil {
			return err
		}
		records = append(records, rec)
		if len(records) > b.limit {
			records = records[len(records)-b.limit:]
		}

		value, err := encodeValue(now.Add(b.historyTTL), records)
		if err != nil {
			return err
		}
		return bucket.Put(key, value)
	})
}

// History returns the stored records for url, oldest first.
func (b *boltStore) History(url string) ([]Record, error) {
	if b == nil || b.db == nil {
		return nil, nil
	}

	var records []Record
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(historyBucket))
		if bucket == nil {
			return fmt.Errorf("history bucket missing")
		}
		var err error
		records, err = liveRecords(bucket.Get([]byte(url)), b.now())
		return err
	})
	return records, err
}

// liveRecords decodes a stored value, treating missing or expired entries as empty.
func liveRecords(value []byte, now time.Time) ([]Record, error) {
	if value == nil {
		return nil, nil
	}
	expiry, ok := decodeExpiry(value)
	if !ok || !expiry.After(now) {
		return nil, nil
	}
	records, err := jsonarray.Decode[Record](string(value[expiryValueBytes:]))
	if err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return records, nil
}

func encodeValue(expiry time.Time, records []Record) ([]byte, error) {
	payload, err := jsonarray.Encode(records, false)
	if err != nil {
		return nil, fmt.Errorf("encode history: %w", err)
	}
	buf := make([]byte, expiryValueBytes, expiryValueBytes+len(payload))
	binary.BigEndian.PutUint64(buf, uint64(expiry.Unix()))
	return append(buf, payload...), nil
}

// maybeCleanupExpired removes expired histories on a fixed cadence to avoid unbounded growth.
func (b *boltStore) maybeCleanupExpired(now time.Time) error {
	if b == nil || b.db == nil {
		return nil
	}

	last := time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	b.cleanupMu.Lock()
	defer b.cleanupMu.Unlock()

	last = time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(historyBucket))
		if bucket == nil {
			return fmt.Errorf("history bucket missing")
		}

		// Deleting through the cursor mid-iteration skips the following key.
		var expired [][]byte
		err := bucket.ForEach(func(k, v []byte) error {
			if expiry, ok := decodeExpiry(v); !ok || !expiry.After(now) {
				expired = append(expired, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range expired {
			if err := bucket.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err == nil {
		b.lastCleanup.Store(now.Unix())
	}
	return err
}

// decodeExpiry decodes the expiry prefix of a stored value.
func decodeExpiry(value []byte) (time.Time, bool) {
	if len(value) < expiryValueBytes {
		return time.Time{}, false
	}
	unix := int64(binary.BigEndian.Uint64(value[:expiryValueBytes]))
	if unix <= 0 {
		return time.Time{}, false
	}
	return time.Unix(unix, 0), true
}
