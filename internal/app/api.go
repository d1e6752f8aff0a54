package app

import (
	"context"

	"bridge/internal/client"
	"bridge/internal/runs"
	"bridge/internal/threadctx"
	"bridge/internal/types"
)

// AgentAPI lists the agents available to the caller.
type AgentAPI interface {
	ListAgents(ctx context.Context) ([]types.Agent, error)
}

// RunReader is the slice of the run cache the dashboard reads from.
type RunReader interface {
	ThreadRuns(ctx context.Context, threadID string) ([]types.AgentRun, error)
	WatchRun(runID string) (<-chan runs.RunUpdate, func(), error)
	WatchActive() (<-chan runs.ActiveUpdate, func(), error)
	RefreshRun(runID string)
	InvalidateActiveRuns()
}

// RunWriter issues run lifecycle commands.
type RunWriter interface {
	Start(ctx context.Context, threadID string, req client.StartRunRequest) (*types.AgentRun, bool)
	Stop(ctx context.Context, runID string) bool
}

// ThreadLoader assembles the thread view.
type ThreadLoader interface {
	Load(ctx context.Context, threadID, projectID string) (*threadctx.Snapshot, error)
}

// AgentSelector is the slice of the selection state the dashboard
// uses.
type AgentSelector interface {
	InitializeFromAgents(ctx context.Context, agents []types.Agent, threadAgentID string, onSelect func(agentID string)) (string, error)
	CurrentAgent(agents []types.Agent) (types.Agent, bool)
	UsesDefaultAgent(agents []types.Agent) bool
	SelectedID() string
}
