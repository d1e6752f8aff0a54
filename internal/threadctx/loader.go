// Package threadctx assembles everything a thread view needs behind a
// single loading flag and error surface.
package threadctx

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"bridge/internal/logging"
	"bridge/internal/types"
)

// API is the slice of the RPC boundary the loader reads entities from.
type API interface {
	GetThread(ctx context.Context, threadID string) (*types.Thread, error)
	GetProject(ctx context.Context, projectID string) (*types.Project, error)
}

// RunLister supplies the runs of a thread, normally through the run
// cache so the retry policy lives in one place.
type RunLister interface {
	ThreadRuns(ctx context.Context, threadID string) ([]types.AgentRun, error)
}

// Snapshot is one assembled view of a thread. ProjectName and
// SandboxID stay empty when the project read had no data.
type Snapshot struct {
	Thread      *types.Thread
	Project     *types.Project
	Runs        []types.AgentRun
	ProjectName string
	SandboxID   string
}

type Options struct {
	Logger logging.Logger
}

// Loader composes the thread, project and run-list reads. The loading
// flag starts true and drops on the first completed resolution,
// success or failure; it never rises again for the lifetime of the
// Loader, so a later transient failure shows as an error over the last
// good snapshot instead of a reloading view.
type Loader struct {
	api    API
	runs   RunLister
	logger logging.Logger

	mu        sync.Mutex
	loading   bool
	completed bool
	err       error
	current   Snapshot
	hasData   bool
}

func NewLoader(api API, runs RunLister, opts Options) *Loader {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	return &Loader{api: api, runs: runs, logger: logger, loading: true}
}

// Load resolves the thread view once. An empty thread id fails without
// touching the network; a failed thread read fails with the underlying
// reason attached. Project and run reads are allowed to miss, the
// snapshot just carries less.
func (l *Loader) Load(ctx context.Context, threadID, projectID string) (*Snapshot, error) {
	threadID = strings.TrimSpace(threadID)
	if threadID == "" {
		err := errors.New("thread id is required")
		l.settle(nil, err)
		return nil, err
	}

	thread, err := l.api.GetThread(ctx, threadID)
	if err != nil {
		err = fmt.Errorf("load thread %s: %w", threadID, err)
		l.settle(nil, err)
		return nil, err
	}
	snapshot := Snapshot{Thread: thread}

	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		projectID = strings.TrimSpace(thread.ProjectID)
	}
	if projectID != "" {
		project, err := l.api.GetProject(ctx, projectID)
		if err != nil {
			l.logger.Warn("project read failed",
				logging.F("project_id", projectID), logging.F("error", err))
		} else if project != nil {
			snapshot.Project = project
			snapshot.ProjectName = project.Name
			snapshot.SandboxID = project.SandboxID
		}
	}

	if l.runs != nil {
		runs, err := l.runs.ThreadRuns(ctx, threadID)
		if err != nil {
			l.logger.Warn("thread runs read failed",
				logging.F("thread_id", threadID), logging.F("error", err))
		} else {
			snapshot.Runs = runs
		}
	}

	l.settle(&snapshot, nil)
	return &snapshot, nil
}

func (l *Loader) settle(snapshot *Snapshot, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if snapshot != nil {
		l.current = *snapshot
		l.hasData = true
	}
	l.err = err
	if !l.completed {
		l.completed = true
		l.loading = false
	}
}

// Loading reports whether the first resolution is still outstanding.
func (l *Loader) Loading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loading
}

// Err returns the error of the most recent resolution, nil after a
// successful one.
func (l *Loader) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Current returns the last good snapshot. It keeps serving that
// snapshot when a later resolution fails.
func (l *Loader) Current() (Snapshot, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current, l.hasData
}

// InitialLoadCompleted reports whether any resolution has finished.
func (l *Loader) InitialLoadCompleted() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.completed
}
