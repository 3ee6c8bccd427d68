// Package state persists the device token record between invocations.
package state

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/alexjbarnes/build-cli/internal/models"
	bolt "go.etcd.io/bbolt"
)

const (
	// stateDirPerm is the permission mode for the state directory (~/.build/).
	stateDirPerm = fs.FileMode(0o700)

	// stateFilePerm is the permission mode for the state database and token file.
	stateFilePerm = fs.FileMode(0o600)

	// stateOpenTimeout is the maximum time to wait for the bolt database lock.
	stateOpenTimeout = 5 * time.Second
)

var (
	appBucket = []byte("app")
	tokenKey  = []byte("token")
)

// Store is the load/save/delete contract every backend satisfies. Load
// returns (nil, nil) when no token has been saved.
type Store interface {
	Load() (models.TokenRecord, error)
	Save(rec models.TokenRecord) error
	Delete() error
	Close() error
}

// BoltStore keeps the token record as raw JSON under app/token in a
// bbolt database.
type BoltStore struct {
	db *bolt.DB
}

// OpenBolt opens the state database at path, creating it and its parent
// directory if they do not exist. The app bucket is created on open.
func OpenBolt(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), stateDirPerm); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	db, err := bolt.Open(path, stateFilePerm, &bolt.Options{Timeout: stateOpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(appBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing state db: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Close closes the database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Load returns the stored token record, or nil if none is stored.
func (s *BoltStore) Load() (models.TokenRecord, error) {
	var rec models.TokenRecord

	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(appBucket).Get(tokenKey)
		if v == nil {
			return nil
		}

		return json.Unmarshal(v, &rec)
	})
	if err != nil {
		return nil, fmt.Errorf("reading token: %w", err)
	}

	return rec, nil
}

// Save replaces the stored token record.
func (s *BoltStore) Save(rec models.TokenRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(appBucket).Put(tokenKey, data)
	})
}

// Delete removes the stored token record. Deleting a missing record is a no-op.
func (s *BoltStore) Delete() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(appBucket).Delete(tokenKey)
	})
}
