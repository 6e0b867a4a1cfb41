package cache

import (
	"encoding/binary"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/workshoplabs/refgate/internal/logger"
)

// Bolt is a persistent KV on bbolt, used by the cache daemon so cached
// reference data survives restarts. Records carry their insertion timestamp;
// freshness is evaluated against the store's TTL at read time, so changing
// the TTL rescopes entries written under the old one.
type Bolt struct {
	db     *bolt.DB
	bucket []byte
	ttl    time.Duration
}

// BoltOptions configures a Bolt store.
type BoltOptions struct {
	// Bucket is the bbolt bucket name. Defaults to "refdata".
	Bucket string
	// TTL is the freshness window. Zero means DefaultTTL; negative
	// disables expiry.
	TTL time.Duration
}

// OpenBolt opens or initializes a Bolt store at path.
func OpenBolt(path string, opts BoltOptions) (*Bolt, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	bucket := []byte("refdata")
	if opts.Bucket != "" {
		bucket = []byte(opts.Bucket)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	ttl := opts.TTL
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &Bolt{db: db, bucket: bucket, ttl: ttl}, nil
}

// Close closes the underlying database.
func (s *Bolt) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Bolt) Get(key string) ([]byte, bool) {
	var out []byte
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(s.bucket).Get([]byte(key))
		if v == nil || len(v) < 8 {
			return nil
		}
		storedAt := time.Unix(0, int64(binary.BigEndian.Uint64(v[:8])))
		if s.ttl >= 0 && time.Since(storedAt) >= s.ttl {
			// Stale entries stay on disk until overwritten.
			return nil
		}
		out = append([]byte(nil), v[8:]...)
		found = true
		return nil
	})
	if err != nil {
		logger.Errorf("cache: bolt get %q: %v", key, err)
		return nil, false
	}
	return out, found
}

func (s *Bolt) Set(key string, value []byte) {
	// Layout: 8 bytes big endian storedAt (unix nanos) || raw value
	buf := make([]byte, 8+len(value))
	binary.BigEndian.PutUint64(buf[:8], uint64(time.Now().UnixNano()))
	copy(buf[8:], value)
	if err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Put([]byte(key), buf)
	}); err != nil {
		logger.Errorf("cache: bolt set %q: %v", key, err)
	}
}

func (s *Bolt) Delete(keys ...string) {
	if err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		for _, k := range keys {
			if err := b.Delete([]byte(k)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		logger.Errorf("cache: bolt delete: %v", err)
	}
}

func (s *Bolt) Clear() {
	if err := s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(s.bucket); err != nil {
			return err
		}
		_, err := tx.CreateBucket(s.bucket)
		return err
	}); err != nil {
		logger.Errorf("cache: bolt clear: %v", err)
	}
}
