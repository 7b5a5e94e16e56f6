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
)

const (
	fingerprintBucket = "page_fingerprints"
	expiryValueBytes  = 8
)

// boltStore implements a Store backed by BoltDB. Each value is an 8 byte
// big-endian expiry followed by the fingerprint.
type boltStore struct {
	db              *bolt.DB
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	fingerprintTTL  time.Duration
	cleanupInterval time.Duration
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
		_, err := tx.CreateBucketIfNotExists([]byte(fingerprintBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	store := &boltStore{
		db:              db,
		fingerprintTTL:  opts.FingerprintTTL,
		cleanupInterval: opts.CleanupInterval,
	}
	store.lastCleanup.Store(time.Now().Unix())
	return store, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// Fingerprint returns the stored fingerprint for key, if present and not expired.
func (b *boltStore) Fingerprint(key string) (string, bool, error) {
	if b == nil || b.db == nil {
		return "", false, nil
	}

	now := time.Now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return "", false, err
	}

	var (
		fingerprint string
		found       bool
	)
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(fingerprintBucket))
		if bucket == nil {
			return fmt.Errorf("fingerprint bucket missing")
		}

		k := []byte(key)
		value := bucket.Get(k)
		if value == nil {
			return nil
		}

		expiry, fp, ok := decodeEntry(value)
		if !ok || !expiry.After(now) {
			return bucket.Delete(k)
		}

		fingerprint, found = fp, true
		return nil
	})
	return fingerprint, found, err
}

// SaveFingerprint records fingerprint for key, resetting its expiry.
func (b *boltStore) SaveFingerprint(key, fingerprint string) error {
	if b == nil || b.db == nil {
		return nil
	}

	now := time.Now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return err
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(fingerprintBucket))
		if bucket == nil {
			return fmt.Errorf("fingerprint bucket missing")
		}
		return bucket.Put([]byte(key), encodeEntry(now.Add(b.fingerprintTTL), fingerprint))
	})
}

// maybeCleanupExpired removes expired fingerprints on a fixed cadence to avoid unbounded growth.
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
		bucket := tx.Bucket([]byte(fingerprintBucket))
		if bucket == nil {
			return fmt.Errorf("fingerprint bucket missing")
		}

		cursor := bucket.Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			expiry, _, ok := decodeEntry(v)
			if !ok || !expiry.After(now) {
				if err := cursor.Delete(); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err == nil {
		b.lastCleanup.Store(now.Unix())
	}
	return err
}

func encodeEntry(expiry time.Time, fingerprint string) []byte {
	buf := make([]byte, expiryValueBytes+len(fingerprint))
	binary.BigEndian.PutUint64(buf, uint64(expiry.Unix()))
	copy(buf[expiryValueBytes:], fingerprint)
	return buf
}

// decodeEntry splits a stored value into its expiry and fingerprint.
func decodeEntry(value []byte) (time.Time, string, bool) {
	if len(value) <= expiryValueBytes {
		return time.Time{}, "", false
	}
	unix := int64(binary.BigEndian.Uint64(value[:expiryValueBytes]))
	if unix <= 0 {
		return time.Time{}, "", false
	}
	return time.Unix(unix, 0), string(value[expiryValueBytes:]), true
}
