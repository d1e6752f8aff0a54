package store

import (
	"context"
	"errors"
	"sync"

	"bridge/internal/types"
)

type SelectionStore interface {
	Load(ctx context.Context) (*types.AgentSelection, error)
	Save(ctx context.Context, selection *types.AgentSelection) error
}

type FileSelectionStore struct {
	path string
	mu   sync.Mutex
}

func NewFileSelectionStore(path string) *FileSelectionStore {
	return &FileSelectionStore{path: path}
}

func (s *FileSelectionStore) Load(ctx context.Context) (*types.AgentSelection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	selection := &types.AgentSelection{}
	if _, err := readJSON(s.path, selection); err != nil {
		return nil, err
	}
	return selection, nil
}

func (s *FileSelectionStore) Save(ctx context.Context, selection *types.AgentSelection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if selection == nil {
		return errors.New("selection is required")
	}
	return writeJSONAtomic(s.path, selection)
}
