package runs

import (
	"context"
	"strings"

	"bridge/internal/client"
	"bridge/internal/logging"
	"bridge/internal/types"
)

// GatewayAPI is the slice of the RPC boundary the gateway writes
// through.
type GatewayAPI interface {
	StartRun(ctx context.Context, threadID string, req client.StartRunRequest) (*types.AgentRun, error)
	StopRun(ctx context.Context, runID string) error
}

// CacheInvalidator is the slice of the cache a successful write pokes.
type CacheInvalidator interface {
	InvalidateActiveRuns()
	InvalidateThreadRuns(threadID string)
	RefreshRun(runID string)
}

type GatewayOptions struct {
	Notifier Notifier
	Logger   logging.Logger
}

// Gateway issues run lifecycle commands. A command is sent at most
// once; failures are classified, handed to the notifier and then
// swallowed, so callers only see the boolean outcome. Stop is passed
// through even when the run already looks finished locally; the server
// owns that decision.
type Gateway struct {
	api      GatewayAPI
	cache    CacheInvalidator
	notifier Notifier
	logger   logging.Logger
}

func NewGateway(api GatewayAPI, cache CacheInvalidator, opts GatewayOptions) *Gateway {
	if api == nil {
		return nil
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = NewLogNotifier(logger)
	}
	return &Gateway{api: api, cache: cache, notifier: notifier, logger: logger}
}

// Start launches a run on a thread. On success the active-run listing
// and the thread's run list are invalidated so the next read sees the
// new run.
func (g *Gateway) Start(ctx context.Context, threadID string, req client.StartRunRequest) (*types.AgentRun, bool) {
	threadID = strings.TrimSpace(threadID)
	if threadID == "" {
		g.notifier.NotifyFailure("start", validationFailure("thread id is required"))
		return nil, false
	}
	run, err := g.api.StartRun(ctx, threadID, req)
	if err != nil {
		g.notifier.NotifyFailure("start", ClassifyError(err))
		return nil, false
	}
	if g.cache != nil {
		g.cache.InvalidateActiveRuns()
		g.cache.InvalidateThreadRuns(threadID)
	}
	g.logger.Info("run started",
		logging.F("run_id", run.ID), logging.F("thread_id", threadID))
	return run, true
}

// Stop requests cancellation of a run. On success the active-run
// listing is invalidated and the run's watch loop is told to re-read
// so the terminal status lands on the next read.
func (g *Gateway) Stop(ctx context.Context, runID string) bool {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		g.notifier.NotifyFailure("stop", validationFailure("run id is required"))
		return false
	}
	if err := g.api.StopRun(ctx, runID); err != nil {
		g.notifier.NotifyFailure("stop", ClassifyError(err))
		return false
	}
	if g.cache != nil {
		g.cache.InvalidateActiveRuns()
		g.cache.RefreshRun(runID)
	}
	g.logger.Info("run stop requested", logging.F("run_id", runID))
	return true
}
