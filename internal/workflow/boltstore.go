package workflow

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketStates = []byte("states")

// BoltStore is a StateStore backed by BoltDB, so drafts pending review and
// approval flags survive a server restart.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (creating if needed) the state database at path.
func NewBoltStore(path string) (*BoltStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{
		Timeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketStates)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create state bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Get(campaignID string) (*State, error) {
	var state *State
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketStates).Get([]byte(campaignID))
		if data == nil {
			return nil
		}
		state = &State{}
		if err := json.Unmarshal(data, state); err != nil {
			return fmt.Errorf("failed to decode state: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

func (s *BoltStore) Put(state *State) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(state)
		if err != nil {
			return fmt.Errorf("failed to encode state: %w", err)
		}
		return tx.Bucket(bucketStates).Put([]byte(state.CampaignID), data)
	})
}

func (s *BoltStore) Delete(campaignID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketStates).Delete([]byte(campaignID))
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
