package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"bridge/internal/types"
)

var (
	bucketSelection = []byte("agent-selection-storage")
	bucketDashState = []byte("dash_state")
	keyState        = []byte("state")
)

type bboltRepository struct {
	db        *bolt.DB
	selection SelectionStore
	dashState DashStateStore
}

func NewBboltRepository(path string) (Repository, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("repository db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, err
	}
	if err := initBboltSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &bboltRepository{
		db:        db,
		selection: &bboltSelectionStore{db: db},
		dashState: &bboltDashStateStore{db: db},
	}, nil
}

func (r *bboltRepository) Selection() SelectionStore {
	return r.selection
}

func (r *bboltRepository) DashState() DashStateStore {
	return r.dashState
}

func (r *bboltRepository) Backend() string {
	return RepositoryBackendBbolt
}

func (r *bboltRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func initBboltSchema(db *bolt.DB) error {
	return db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketSelection); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists(bucketDashState); err != nil {
			return err
		}
		return nil
	})
}

type bboltSelectionStore struct {
	db *bolt.DB
}

func (s *bboltSelectionStore) Load(ctx context.Context) (*types.AgentSelection, error) {
	selection := &types.AgentSelection{}
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSelection)
		if b == nil {
			return nil
		}
		raw := b.Get(keyState)
		if len(raw) == 0 {
			return nil
		}
		return json.Unmarshal(raw, selection)
	})
	if err != nil {
		return nil, err
	}
	return selection, nil
}

func (s *bboltSelectionStore) Save(ctx context.Context, selection *types.AgentSelection) error {
	if selection == nil {
		return errors.New("selection is required")
	}
	raw, err := json.Marshal(selection)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSelection)
		if b == nil {
			return errors.New("selection bucket missing")
		}
		return b.Put(keyState, raw)
	})
}

type bboltDashStateStore struct {
	db *bolt.DB
}

func (s *bboltDashStateStore) Load(ctx context.Context) (*types.DashState, error) {
	state := &types.DashState{}
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketDashState)
		if b == nil {
			return nil
		}
		raw := b.Get(keyState)
		if len(raw) == 0 {
			return nil
		}
		return json.Unmarshal(raw, state)
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

func (s *bboltDashStateStore) Save(ctx context.Context, state *types.DashState) error {
	if state == nil {
		return errors.New("state is required")
	}
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketDashState)
		if b == nil {
			return errors.New("dash state bucket missing")
		}
		return b.Put(keyState, raw)
	})
}
