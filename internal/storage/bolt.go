package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/prasenjit/go-intentions/internal/models"
)

var bucketIntentions = []byte("intentions")

// BoltStorage implements Storage interface using BoltDB
type BoltStorage struct {
	db *bolt.DB
}

// NewBoltStorage opens (or creates) the database at path
func NewBoltStorage(path string) (*BoltStorage, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{
		Timeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketIntentions); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketIntentions, err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStorage{db: db}, nil
}

// CreateIntention creates a new intention
func (s *BoltStorage) CreateIntention(ixn *models.Intention) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketIntentions)
		if b.Get([]byte(ixn.ID)) != nil {
			return fmt.Errorf("%w: %s", ErrAlreadyExists, ixn.ID)
		}
		if err := checkPairBucket(b, ixn); err != nil {
			return err
		}
		return putIntention(b, ixn)
	})
}

// GetIntention retrieves an intention by ID
func (s *BoltStorage) GetIntention(id string) (*models.Intention, error) {
	var ixn *models.Intention

	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketIntentions).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}

		var stored models.Intention
		if err := json.Unmarshal(data, &stored); err != nil {
			return fmt.Errorf("failed to unmarshal intention: %w", err)
		}
		ixn = &stored
		return nil
	})
	if err != nil {
		return nil, err
	}

	return ixn, nil
}

// ListIntentions retrieves all intentions passing the filter
func (s *BoltStorage) ListIntentions(filter *models.IntentionFilter) ([]*models.Intention, error) {
	result := make([]*models.Intention, 0)

	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketIntentions).ForEach(func(k, v []byte) error {
			var ixn models.Intention
			if err := json.Unmarshal(v, &ixn); err != nil {
				return fmt.Errorf("failed to unmarshal intention %s: %w", k, err)
			}
			if filter.Matches(&ixn) {
				result = append(result, &ixn)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sortIntentions(result)
	return result, nil
}

// UpdateIntention replaces a stored intention
func (s *BoltStorage) UpdateIntention(ixn *models.Intention) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketIntentions)
		if b.Get([]byte(ixn.ID)) == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, ixn.ID)
		}
		if err := checkPairBucket(b, ixn); err != nil {
			return err
		}
		return putIntention(b, ixn)
	})
}

// DeleteIntention deletes an intention
func (s *BoltStorage) DeleteIntention(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketIntentions)
		if b.Get([]byte(id)) == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return b.Delete([]byte(id))
	})
}

// Close closes the database
func (s *BoltStorage) Close() error {
	return s.db.Close()
}

func putIntention(b *bolt.Bucket, ixn *models.Intention) error {
	data, err := json.Marshal(ixn)
	if err != nil {
		return fmt.Errorf("failed to marshal intention: %w", err)
	}
	if err := b.Put([]byte(ixn.ID), data); err != nil {
		return fmt.Errorf("failed to store intention: %w", err)
	}
	return nil
}

func checkPairBucket(b *bolt.Bucket, ixn *models.Intention) error {
	return b.ForEach(func(k, v []byte) error {
		if string(k) == ixn.ID {
			return nil
		}
		var other models.Intention
		if err := json.Unmarshal(v, &other); err != nil {
			return fmt.Errorf("failed to unmarshal intention %s: %w", k, err)
		}
		if other.SourceName == ixn.SourceName && other.DestinationName == ixn.DestinationName {
			return fmt.Errorf("%w: %s -> %s", ErrDuplicatePair, ixn.SourceName, ixn.DestinationName)
		}
		return nil
	})
}
