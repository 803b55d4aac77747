package storage

import (
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const (
	bucketLaunches    = "launches"
	bucketLaunchIndex = "launch_index"
)

// Store wraps a bbolt database holding the local history of launched scans.
type Store struct {
	db *bbolt.DB
}

// NewStore opens a bbolt database at the given path and initializes required buckets
func NewStore(path string) (*Store, error) {
	if err := EnsureParentDir(path); err != nil {
		return nil, err
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening history database %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(bucketLaunches)); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(bucketLaunchIndex)); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the bbolt database
func (s *Store) Close() error {
	return s.db.Close()
}
