package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"bridge/internal/app"
	bridgeclient "bridge/internal/client"
	"bridge/internal/config"
	"bridge/internal/logging"
	"bridge/internal/runs"
	"bridge/internal/selection"
	"bridge/internal/store"
	"bridge/internal/threadctx"
	"bridge/internal/types"
)

type dashboardOptions struct {
	ThreadID    string
	ProjectID   string
	LocationURL string
}

type dashboardRunner func(opts dashboardOptions) error

// runDashboard wires the full dashboard stack and blocks until the
// user quits. The terminal belongs to the TUI, so logs go to a file
// under the data directory.
func runDashboard(opts dashboardOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := uiLogger(cfg)

	apiClient, err := bridgeclient.New()
	if err != nil {
		return err
	}

	repo, paths, err := openStateRepository()
	if err != nil {
		return err
	}
	defer repo.Close()

	ctx := context.Background()
	if err := store.SeedRepositoryFromFiles(ctx, repo, paths); err != nil {
		logger.Warn("seed state repository", logging.F("error", err))
	}

	threadID := strings.TrimSpace(opts.ThreadID)
	projectID := strings.TrimSpace(opts.ProjectID)
	if threadID == "" {
		if state, err := repo.DashState().Load(ctx); err == nil && state != nil {
			threadID = state.LastThreadID
			if projectID == "" {
				projectID = state.LastProjectID
			}
		}
	}
	if threadID == "" {
		return errors.New("thread id is required; pass --thread or open a thread first")
	}

	var location selection.Location = selection.NoLocation{}
	if strings.TrimSpace(opts.LocationURL) != "" {
		location = selection.NewURLLocation(opts.LocationURL)
	}
	selState, err := selection.NewState(ctx, repo.Selection(), selection.Options{
		Location: location,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	cache := runs.NewCache(apiClient, runs.CacheOptions{
		RunPollInterval:    cfg.RunPollInterval(),
		ActivePollInterval: cfg.ActivePollInterval(),
		Logger:             logger,
	})
	defer cache.Close()

	failures := app.NewFailureFeed()
	gateway := runs.NewGateway(apiClient, cache, runs.GatewayOptions{
		Notifier: failures,
		Logger:   logger,
	})
	loader := threadctx.NewLoader(apiClient, cache, threadctx.Options{Logger: logger})

	if err := app.Run(app.Deps{
		Agents:    apiClient,
		Runs:      cache,
		Commands:  gateway,
		Loader:    loader,
		Selection: selState,
		Failures:  failures,
		Logger:    logger,
		ThreadID:  threadID,
		ProjectID: projectID,
	}); err != nil {
		return err
	}

	if err := repo.DashState().Save(ctx, &types.DashState{
		LastThreadID:  threadID,
		LastProjectID: projectID,
	}); err != nil {
		logger.Warn("persist dashboard state", logging.F("error", err))
	}
	return nil
}

func openStateRepository() (store.Repository, store.RepositoryPaths, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, store.RepositoryPaths{}, err
	}
	dataDir, err := config.DataDir()
	if err != nil {
		return nil, store.RepositoryPaths{}, err
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, store.RepositoryPaths{}, err
	}
	selectionPath, err := config.SelectionPath()
	if err != nil {
		return nil, store.RepositoryPaths{}, err
	}
	dashStatePath, err := config.DashStatePath()
	if err != nil {
		return nil, store.RepositoryPaths{}, err
	}
	dbPath, err := config.DBPath()
	if err != nil {
		return nil, store.RepositoryPaths{}, err
	}
	paths := store.RepositoryPaths{
		SelectionPath: selectionPath,
		DashStatePath: dashStatePath,
		DBPath:        dbPath,
	}
	repo, err := store.OpenRepository(paths, cfg.StoreBackend())
	if err != nil {
		return nil, store.RepositoryPaths{}, err
	}
	return repo, paths, nil
}

func uiLogger(cfg config.Config) logging.Logger {
	dataDir, err := config.DataDir()
	if err != nil {
		return logging.Nop()
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return logging.Nop()
	}
	file, err := os.OpenFile(filepath.Join(dataDir, "ui.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return logging.Nop()
	}
	return logging.New(file, logging.ParseLevel(cfg.LogLevel()))
}
