package store

import (
	"context"
	"path/filepath"
	"testing"

	"bridge/internal/types"
)

func TestFileSelectionStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "agent-selection-storage.json")
	store := NewFileSelectionStore(path)

	selection, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if selection.SelectedAgentID != "" {
		t.Fatalf("expected empty selection")
	}

	selection.SelectedAgentID = "ag_1"
	if err := store.Save(ctx, selection); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loaded.SelectedAgentID != "ag_1" {
		t.Fatalf("unexpected reload selection: %+v", loaded)
	}
}

func TestFileDashStateStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.json")
	store := NewFileDashStateStore(path)

	state, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if state.LastThreadID != "" {
		t.Fatalf("expected empty state")
	}

	state.LastThreadID = "th_1"
	state.LastProjectID = "pr_1"
	if err := store.Save(ctx, state); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loaded.LastThreadID != "th_1" || loaded.LastProjectID != "pr_1" {
		t.Fatalf("unexpected reload state: %+v", loaded)
	}
}

func TestBboltRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo, err := NewBboltRepository(filepath.Join(t.TempDir(), "bridge.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer repo.Close()

	if repo.Backend() != RepositoryBackendBbolt {
		t.Fatalf("unexpected backend: %s", repo.Backend())
	}

	selection, err := repo.Selection().Load(ctx)
	if err != nil {
		t.Fatalf("load selection: %v", err)
	}
	if selection.SelectedAgentID != "" {
		t.Fatalf("expected empty selection")
	}
	if err := repo.Selection().Save(ctx, &types.AgentSelection{SelectedAgentID: "ag_2"}); err != nil {
		t.Fatalf("save selection: %v", err)
	}
	selection, err = repo.Selection().Load(ctx)
	if err != nil {
		t.Fatalf("reload selection: %v", err)
	}
	if selection.SelectedAgentID != "ag_2" {
		t.Fatalf("unexpected selection: %+v", selection)
	}

	if err := repo.DashState().Save(ctx, &types.DashState{LastThreadID: "th_9"}); err != nil {
		t.Fatalf("save state: %v", err)
	}
	state, err := repo.DashState().Load(ctx)
	if err != nil {
		t.Fatalf("load state: %v", err)
	}
	if state.LastThreadID != "th_9" {
		t.Fatalf("unexpected state: %+v", state)
	}
}

func TestOpenRepositoryBackends(t *testing.T) {
	dir := t.TempDir()
	paths := RepositoryPaths{
		SelectionPath: filepath.Join(dir, "agent-selection-storage.json"),
		DashStatePath: filepath.Join(dir, "state.json"),
		DBPath:        filepath.Join(dir, "bridge.db"),
	}

	fileRepo, err := OpenRepository(paths, "file")
	if err != nil {
		t.Fatalf("open file repo: %v", err)
	}
	if fileRepo.Backend() != RepositoryBackendFile {
		t.Fatalf("unexpected backend: %s", fileRepo.Backend())
	}
	_ = fileRepo.Close()

	boltRepo, err := OpenRepository(paths, "")
	if err != nil {
		t.Fatalf("open default repo: %v", err)
	}
	if boltRepo.Backend() != RepositoryBackendBbolt {
		t.Fatalf("unexpected default backend: %s", boltRepo.Backend())
	}
	_ = boltRepo.Close()

	if _, err := OpenRepository(paths, "redis"); err == nil {
		t.Fatal("expected error for unsupported backend")
	}
}

func TestSeedRepositoryFromFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	paths := RepositoryPaths{
		SelectionPath: filepath.Join(dir, "agent-selection-storage.json"),
		DashStatePath: filepath.Join(dir, "state.json"),
		DBPath:        filepath.Join(dir, "bridge.db"),
	}

	legacy := NewFileRepository(paths)
	if err := legacy.Selection().Save(ctx, &types.AgentSelection{SelectedAgentID: "ag_legacy"}); err != nil {
		t.Fatalf("save legacy selection: %v", err)
	}
	if err := legacy.DashState().Save(ctx, &types.DashState{LastThreadID: "th_legacy"}); err != nil {
		t.Fatalf("save legacy state: %v", err)
	}

	repo, err := NewBboltRepository(paths.DBPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer repo.Close()

	if err := SeedRepositoryFromFiles(ctx, repo, paths); err != nil {
		t.Fatalf("seed: %v", err)
	}
	selection, err := repo.Selection().Load(ctx)
	if err != nil {
		t.Fatalf("load selection: %v", err)
	}
	if selection.SelectedAgentID != "ag_legacy" {
		t.Fatalf("expected seeded selection, got %+v", selection)
	}

	if err := repo.Selection().Save(ctx, &types.AgentSelection{SelectedAgentID: "ag_new"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := SeedRepositoryFromFiles(ctx, repo, paths); err != nil {
		t.Fatalf("reseed: %v", err)
	}
	selection, err = repo.Selection().Load(ctx)
	if err != nil {
		t.Fatalf("reload selection: %v", err)
	}
	if selection.SelectedAgentID != "ag_new" {
		t.Fatalf("seed must not overwrite existing selection, got %+v", selection)
	}
}
