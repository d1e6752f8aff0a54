package runs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"bridge/internal/types"
)

type fakeCacheAPI struct {
	threadCalls atomic.Int32
	getCalls    atomic.Int32
	activeCalls atomic.Int32

	listThreadFn func(call int32) ([]types.AgentRun, error)
	getRunFn     func(call int32) (*types.AgentRun, error)
	listActiveFn func(call int32) ([]types.AgentRun, error)
}

func (f *fakeCacheAPI) ListThreadRuns(ctx context.Context, threadID string) ([]types.AgentRun, error) {
	call := f.threadCalls.Add(1)
	if f.listThreadFn == nil {
		return nil, errors.New("unexpected ListThreadRuns call")
	}
	return f.listThreadFn(call)
}

func (f *fakeCacheAPI) GetRun(ctx context.Context, runID string) (*types.AgentRun, error) {
	call := f.getCalls.Add(1)
	if f.getRunFn == nil {
		return nil, errors.New("unexpected GetRun call")
	}
	return f.getRunFn(call)
}

func (f *fakeCacheAPI) ListActiveRuns(ctx context.Context) ([]types.AgentRun, error) {
	call := f.activeCalls.Add(1)
	if f.listActiveFn == nil {
		return nil, errors.New("unexpected ListActiveRuns call")
	}
	return f.listActiveFn(call)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func newTestCache(api CacheAPI) *Cache {
	return NewCache(api, CacheOptions{
		RunPollInterval:    time.Millisecond,
		ActivePollInterval: time.Millisecond,
	})
}

func TestCacheThreadRunsRetriesOnce(t *testing.T) {
	t.Parallel()
	api := &fakeCacheAPI{}
	api.listThreadFn = func(call int32) ([]types.AgentRun, error) {
		if call == 1 {
			return nil, errors.New("transient")
		}
		return []types.AgentRun{{ID: "run-1", ThreadID: "th-1", Status: types.RunStatusRunning}}, nil
	}
	cache := newTestCache(api)
	defer cache.Close()

	runs, err := cache.ThreadRuns(context.Background(), "th-1")
	if err != nil {
		t.Fatalf("ThreadRuns: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != "run-1" {
		t.Fatalf("unexpected runs: %+v", runs)
	}
	if got := api.threadCalls.Load(); got != 2 {
		t.Fatalf("expected one retry (2 calls), got %d", got)
	}
	if _, ok := cache.CachedThreadRuns("th-1"); !ok {
		t.Fatalf("expected snapshot to be cached after a successful read")
	}
}

func TestCacheThreadRunsSurfacesErrorAfterRetry(t *testing.T) {
	t.Parallel()
	api := &fakeCacheAPI{}
	api.listThreadFn = func(int32) ([]types.AgentRun, error) {
		return nil, errors.New("backend down")
	}
	cache := newTestCache(api)
	defer cache.Close()

	if _, err := cache.ThreadRuns(context.Background(), "th-1"); err == nil {
		t.Fatalf("expected error after retry")
	}
	if got := api.threadCalls.Load(); got != 2 {
		t.Fatalf("expected exactly 2 calls, got %d", got)
	}
}

func TestCacheThreadRunsRequiresThreadID(t *testing.T) {
	t.Parallel()
	api := &fakeCacheAPI{}
	cache := newTestCache(api)
	defer cache.Close()

	if _, err := cache.ThreadRuns(context.Background(), "  "); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("expected ErrNotLoaded, got %v", err)
	}
	if got := api.threadCalls.Load(); got != 0 {
		t.Fatalf("expected no network calls, got %d", got)
	}
}

func TestCacheWatchRunStopsOnTerminal(t *testing.T) {
	t.Parallel()
	api := &fakeCacheAPI{}
	var inFlight atomic.Int32
	var overlap atomic.Int32
	api.getRunFn = func(call int32) (*types.AgentRun, error) {
		if inFlight.Add(1) > 1 {
			overlap.Add(1)
		}
		defer inFlight.Add(-1)
		status := types.RunStatusRunning
		if call >= 3 {
			status = types.RunStatusCompleted
		}
		return &types.AgentRun{ID: "run-1", Status: status}, nil
	}
	cache := newTestCache(api)
	defer cache.Close()

	updates, cancel, err := cache.WatchRun("run-1")
	if err != nil {
		t.Fatalf("WatchRun: %v", err)
	}
	defer cancel()

	waitFor(t, "terminal status", func() bool {
		select {
		case u := <-updates:
			return u.Run != nil && u.Run.Status == types.RunStatusCompleted
		default:
			return false
		}
	})

	settled := api.getCalls.Load()
	time.Sleep(30 * time.Millisecond)
	if got := api.getCalls.Load(); got != settled {
		t.Fatalf("reads continued after terminal status: %d -> %d", settled, got)
	}
	if overlap.Load() != 0 {
		t.Fatalf("observed %d overlapping reads for one run", overlap.Load())
	}
}

func TestCacheWatchRunLateWatcherSeesFrozenSnapshot(t *testing.T) {
	t.Parallel()
	api := &fakeCacheAPI{}
	api.getRunFn = func(int32) (*types.AgentRun, error) {
		return &types.AgentRun{ID: "run-1", Status: types.RunStatusFailed}, nil
	}
	cache := newTestCache(api)
	defer cache.Close()

	updates, cancel, err := cache.WatchRun("run-1")
	if err != nil {
		t.Fatalf("WatchRun: %v", err)
	}
	waitFor(t, "failed status", func() bool {
		select {
		case u := <-updates:
			return u.Run != nil && u.Run.Status == types.RunStatusFailed
		default:
			return false
		}
	})
	cancel()
	settled := api.getCalls.Load()

	late, cancelLate, err := cache.WatchRun("run-1")
	if err != nil {
		t.Fatalf("WatchRun (late): %v", err)
	}
	defer cancelLate()
	u := <-late
	if u.Run == nil || u.Run.Status != types.RunStatusFailed {
		t.Fatalf("late watcher did not get frozen snapshot: %+v", u)
	}
	time.Sleep(20 * time.Millisecond)
	if got := api.getCalls.Load(); got != settled {
		t.Fatalf("late watcher restarted polling: %d -> %d", settled, got)
	}
}

func TestCacheUnwatchStopsPolling(t *testing.T) {
	t.Parallel()
	api := &fakeCacheAPI{}
	api.getRunFn = func(int32) (*types.AgentRun, error) {
		return &types.AgentRun{ID: "run-1", Status: types.RunStatusRunning}, nil
	}
	cache := newTestCache(api)
	defer cache.Close()

	updates, cancel, err := cache.WatchRun("run-1")
	if err != nil {
		t.Fatalf("WatchRun: %v", err)
	}
	waitFor(t, "at least two reads", func() bool { return api.getCalls.Load() >= 2 })

	cancel()
	time.Sleep(10 * time.Millisecond)
	settled := api.getCalls.Load()
	time.Sleep(30 * time.Millisecond)
	if got := api.getCalls.Load(); got != settled {
		t.Fatalf("reads continued after unwatch: %d -> %d", settled, got)
	}
	waitFor(t, "channel close", func() bool {
		select {
		case _, ok := <-updates:
			return !ok
		default:
			return false
		}
	})
}

func TestCacheRefreshRunWakesLoop(t *testing.T) {
	t.Parallel()
	api := &fakeCacheAPI{}
	api.getRunFn = func(int32) (*types.AgentRun, error) {
		return &types.AgentRun{ID: "run-1", Status: types.RunStatusRunning}, nil
	}
	cache := NewCache(api, CacheOptions{
		RunPollInterval:    500 * time.Millisecond,
		ActivePollInterval: 500 * time.Millisecond,
	})
	defer cache.Close()

	_, cancel, err := cache.WatchRun("run-1")
	if err != nil {
		t.Fatalf("WatchRun: %v", err)
	}
	defer cancel()
	waitFor(t, "first read", func() bool { return api.getCalls.Load() >= 1 })

	baseline := api.getCalls.Load()
	start := time.Now()
	cache.RefreshRun("run-1")
	waitFor(t, "forced read", func() bool { return api.getCalls.Load() > baseline })
	if elapsed := time.Since(start); elapsed > 200*time.Millisecond {
		t.Fatalf("refresh did not short-circuit the poll interval: took %v", elapsed)
	}
}

func TestCacheRunFreezesTerminalSnapshot(t *testing.T) {
	t.Parallel()
	api := &fakeCacheAPI{}
	api.getRunFn = func(int32) (*types.AgentRun, error) {
		return &types.AgentRun{ID: "run-9", Status: types.RunStatusCancelled}, nil
	}
	cache := newTestCache(api)
	defer cache.Close()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		run, err := cache.Run(ctx, "run-9")
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if run.Status != types.RunStatusCancelled {
			t.Fatalf("unexpected status %q", run.Status)
		}
	}
	if got := api.getCalls.Load(); got != 1 {
		t.Fatalf("terminal snapshot was re-read: %d calls", got)
	}

	cache.RefreshRun("run-9")
	if _, err := cache.Run(ctx, "run-9"); err != nil {
		t.Fatalf("Run after refresh: %v", err)
	}
	if got := api.getCalls.Load(); got != 1 {
		t.Fatalf("refresh unfroze a terminal snapshot: %d calls", got)
	}
}

func TestCacheRunRereadsActiveStatus(t *testing.T) {
	t.Parallel()
	api := &fakeCacheAPI{}
	api.getRunFn = func(int32) (*types.AgentRun, error) {
		return &types.AgentRun{ID: "run-2", Status: types.RunStatusProcessing}, nil
	}
	cache := newTestCache(api)
	defer cache.Close()

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := cache.Run(ctx, "run-2"); err != nil {
			t.Fatalf("Run: %v", err)
		}
	}
	if got := api.getCalls.Load(); got != 2 {
		t.Fatalf("active run served stale: %d calls", got)
	}
}

func TestCacheWatchActiveKeepsFixedCadence(t *testing.T) {
	t.Parallel()
	api := &fakeCacheAPI{}
	var failing atomic.Bool
	api.listActiveFn = func(int32) ([]types.AgentRun, error) {
		if failing.Load() {
			return nil, errors.New("backend down")
		}
		return []types.AgentRun{}, nil
	}
	cache := newTestCache(api)
	defer cache.Close()

	updates, cancel, err := cache.WatchActive()
	if err != nil {
		t.Fatalf("WatchActive: %v", err)
	}
	defer cancel()

	waitFor(t, "steady refresh of empty listing", func() bool { return api.activeCalls.Load() >= 4 })

	failing.Store(true)
	mark := api.activeCalls.Load()
	waitFor(t, "refresh despite errors", func() bool { return api.activeCalls.Load() >= mark+3 })
	waitFor(t, "error surfaced", func() bool {
		select {
		case u := <-updates:
			return u.Err != nil
		default:
			return false
		}
	})
}

func TestCacheInvalidateActiveRunsForcesRefresh(t *testing.T) {
	t.Parallel()
	api := &fakeCacheAPI{}
	api.listActiveFn = func(int32) ([]types.AgentRun, error) {
		return []types.AgentRun{{ID: "run-1", Status: types.RunStatusRunning}}, nil
	}
	cache := NewCache(api, CacheOptions{
		RunPollInterval:    500 * time.Millisecond,
		ActivePollInterval: 500 * time.Millisecond,
	})
	defer cache.Close()

	updates, cancel, err := cache.WatchActive()
	if err != nil {
		t.Fatalf("WatchActive: %v", err)
	}
	defer cancel()
	waitFor(t, "initial listing", func() bool {
		select {
		case u := <-updates:
			return u.Err == nil && len(u.Runs) == 1
		default:
			return false
		}
	})

	baseline := api.activeCalls.Load()
	runs, err := cache.ActiveRuns(context.Background())
	if err != nil {
		t.Fatalf("ActiveRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("unexpected listing: %+v", runs)
	}
	if got := api.activeCalls.Load(); got != baseline {
		t.Fatalf("read bypassed the live snapshot: %d -> %d", baseline, got)
	}

	start := time.Now()
	cache.InvalidateActiveRuns()
	waitFor(t, "forced refresh", func() bool { return api.activeCalls.Load() > baseline })
	if elapsed := time.Since(start); elapsed > 200*time.Millisecond {
		t.Fatalf("invalidation did not short-circuit the interval: took %v", elapsed)
	}
}

func TestCacheInvalidateActiveRunsWithoutWatcherDropsSnapshot(t *testing.T) {
	t.Parallel()
	api := &fakeCacheAPI{}
	api.listActiveFn = func(int32) ([]types.AgentRun, error) {
		return []types.AgentRun{}, nil
	}
	cache := newTestCache(api)
	defer cache.Close()

	ctx := context.Background()
	if _, err := cache.ActiveRuns(ctx); err != nil {
		t.Fatalf("ActiveRuns: %v", err)
	}
	cache.InvalidateActiveRuns()
	if _, err := cache.ActiveRuns(ctx); err != nil {
		t.Fatalf("ActiveRuns after invalidate: %v", err)
	}
	if got := api.activeCalls.Load(); got != 2 {
		t.Fatalf("expected a fresh fetch after invalidation, got %d calls", got)
	}
}

func TestCacheWatchRunRequiresRunID(t *testing.T) {
	t.Parallel()
	cache := newTestCache(&fakeCacheAPI{})
	defer cache.Close()

	if _, _, err := cache.WatchRun(""); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("expected ErrNotLoaded, got %v", err)
	}
}

func TestCacheCloseStopsEverything(t *testing.T) {
	t.Parallel()
	api := &fakeCacheAPI{}
	api.getRunFn = func(int32) (*types.AgentRun, error) {
		return &types.AgentRun{ID: "run-1", Status: types.RunStatusRunning}, nil
	}
	api.listActiveFn = func(int32) ([]types.AgentRun, error) {
		return []types.AgentRun{}, nil
	}
	cache := newTestCache(api)

	runUpdates, _, err := cache.WatchRun("run-1")
	if err != nil {
		t.Fatalf("WatchRun: %v", err)
	}
	activeUpdates, _, err := cache.WatchActive()
	if err != nil {
		t.Fatalf("WatchActive: %v", err)
	}
	waitFor(t, "loops running", func() bool {
		return api.getCalls.Load() >= 1 && api.activeCalls.Load() >= 1
	})

	cache.Close()
	waitFor(t, "run channel close", func() bool {
		select {
		case _, ok := <-runUpdates:
			return !ok
		default:
			return false
		}
	})
	waitFor(t, "active channel close", func() bool {
		select {
		case _, ok := <-activeUpdates:
			return !ok
		default:
			return false
		}
	})
	if _, _, err := cache.WatchRun("run-1"); !errors.Is(err, ErrCacheClosed) {
		t.Fatalf("expected ErrCacheClosed after Close, got %v", err)
	}
}
