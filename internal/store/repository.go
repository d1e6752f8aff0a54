package store

import (
	"context"
	"errors"
	"strings"
)

const (
	RepositoryBackendFile  = "file"
	RepositoryBackendBbolt = "bbolt"
)

type Repository interface {
	Selection() SelectionStore
	DashState() DashStateStore
	Backend() string
	Close() error
}

type RepositoryPaths struct {
	SelectionPath string
	DashStatePath string
	DBPath        string
}

type fileRepository struct {
	selection SelectionStore
	dashState DashStateStore
}

func NewFileRepository(paths RepositoryPaths) Repository {
	return &fileRepository{
		selection: NewFileSelectionStore(paths.SelectionPath),
		dashState: NewFileDashStateStore(paths.DashStatePath),
	}
}

func (r *fileRepository) Selection() SelectionStore {
	return r.selection
}

func (r *fileRepository) DashState() DashStateStore {
	return r.dashState
}

func (r *fileRepository) Backend() string {
	return RepositoryBackendFile
}

func (r *fileRepository) Close() error {
	return nil
}

func OpenRepository(paths RepositoryPaths, backend string) (Repository, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", RepositoryBackendBbolt:
		if strings.TrimSpace(paths.DBPath) == "" {
			return nil, errors.New("db path is required for bbolt repository")
		}
		return NewBboltRepository(paths.DBPath)
	case RepositoryBackendFile:
		return NewFileRepository(paths), nil
	default:
		return nil, errors.New("unsupported repository backend: " + backend)
	}
}

// SeedRepositoryFromFiles migrates file-backed state into dst when dst
// is empty. This keeps startup backward-compatible for existing users
// while switching the hot path to transactional storage.
func SeedRepositoryFromFiles(ctx context.Context, dst Repository, paths RepositoryPaths) error {
	if dst == nil || dst.Backend() == RepositoryBackendFile {
		return nil
	}
	src := NewFileRepository(paths)
	defer src.Close()

	if err := seedSelection(ctx, dst.Selection(), src.Selection()); err != nil {
		return err
	}
	return seedDashState(ctx, dst.DashState(), src.DashState())
}

func seedSelection(ctx context.Context, dst SelectionStore, src SelectionStore) error {
	if dst == nil || src == nil {
		return nil
	}
	current, err := dst.Load(ctx)
	if err != nil {
		return err
	}
	if current != nil && strings.TrimSpace(current.SelectedAgentID) != "" {
		return nil
	}
	legacy, err := src.Load(ctx)
	if err != nil {
		return err
	}
	if legacy == nil || strings.TrimSpace(legacy.SelectedAgentID) == "" {
		return nil
	}
	return dst.Save(ctx, legacy)
}

func seedDashState(ctx context.Context, dst DashStateStore, src DashStateStore) error {
	if dst == nil || src == nil {
		return nil
	}
	current, err := dst.Load(ctx)
	if err != nil {
		return err
	}
	if current != nil && (current.LastThreadID != "" || current.LastProjectID != "") {
		return nil
	}
	legacy, err := src.Load(ctx)
	if err != nil {
		return err
	}
	if legacy == nil || (legacy.LastThreadID == "" && legacy.LastProjectID == "") {
		return nil
	}
	return dst.Save(ctx, legacy)
}
