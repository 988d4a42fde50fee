package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.etcd.io/bbolt"

	"github.com/SteelMorgan/buildstats-diff/internal/buildstats"
	"github.com/SteelMorgan/buildstats-diff/internal/domain"
)

const (
	bucketName = "collections"
)

// entry is the stored value of one source
type entry struct {
	Fingerprint Fingerprint     `json:"fingerprint"`
	StoredAt    time.Time       `json:"stored_at"`
	Stats       json.RawMessage `json:"stats"`
}

// BoltDBStore implements Store using BoltDB
type BoltDBStore struct {
	db *bbolt.DB
}

// NewBoltDBStore opens (creating if needed) a cache database
func NewBoltDBStore(dbPath string) (*BoltDBStore, error) {
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb (file may be locked by another process): %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	log.Debug().
		Str("db_path", dbPath).
		Msg("BoltDB cache initialized")

	return &BoltDBStore{db: db}, nil
}

// Get returns the cached collection, nil on a miss or a stale entry
func (s *BoltDBStore) Get(ctx context.Context, kind, path string, fp Fingerprint) (domain.BuildStats, error) {
	var e *entry

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}

		val := b.Get([]byte(makeKey(kind, path)))
		if val == nil {
			return nil
		}

		e = &entry{}
		return json.Unmarshal(val, e)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get cached buildstats: %w", err)
	}
	if e == nil {
		return nil, nil
	}
	if e.Fingerprint != fp {
		log.Debug().
			Str("kind", kind).
			Str("path", path).
			Msg("Cached buildstats are stale")
		return nil, nil
	}

	bs, err := buildstats.ParseJSON(e.Stats)
	if err != nil {
		return nil, fmt.Errorf("failed to decode cached buildstats: %w", err)
	}
	return bs, nil
}

// Set stores the collection of a source
func (s *BoltDBStore) Set(ctx context.Context, kind, path string, fp Fingerprint, bs domain.BuildStats) error {
	var stats bytes.Buffer
	if err := buildstats.WriteJSON(&stats, bs); err != nil {
		return err
	}

	val, err := json.Marshal(entry{
		Fingerprint: fp,
		StoredAt:    time.Now().UTC(),
		Stats:       stats.Bytes(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}
		return b.Put([]byte(makeKey(kind, path)), val)
	})
	if err != nil {
		return fmt.Errorf("failed to set cached buildstats: %w", err)
	}

	log.Debug().
		Str("kind", kind).
		Str("path", path).
		Int("packages", len(bs)).
		Msg("Buildstats cached")

	return nil
}

// Close closes the database
func (s *BoltDBStore) Close() error {
	return s.db.Close()
}

// makeKey creates a key from kind and absolute source path
func makeKey(kind, path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return kind + ":" + filepath.ToSlash(strings.TrimRight(path, `/\`))
}
