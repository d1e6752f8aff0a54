package store

import (
	"context"
	"errors"
	"sync"

	"bridge/internal/types"
)

type DashStateStore interface {
	Load(ctx context.Context) (*types.DashState, error)
	Save(ctx context.Context, state *types.DashState) error
}

type FileDashStateStore struct {
	path string
	mu   sync.Mutex
}

func NewFileDashStateStore(path string) *FileDashStateStore {
	return &FileDashStateStore{path: path}
}

func (s *FileDashStateStore) Load(ctx context.Context) (*types.DashState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := &types.DashState{}
	if _, err := readJSON(s.path, state); err != nil {
		return nil, err
	}
	return state, nil
}

func (s *FileDashStateStore) Save(ctx context.Context, state *types.DashState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if state == nil {
		return errors.New("state is required")
	}
	return writeJSONAtomic(s.path, state)
}
