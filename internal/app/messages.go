package app

import (
	"time"

	"bridge/internal/runs"
	"bridge/internal/threadctx"
	"bridge/internal/types"
)

type tickMsg time.Time

type threadViewMsg struct {
	snapshot *threadctx.Snapshot
	err      error
}

type agentsMsg struct {
	agents []types.Agent
	err    error
}

type selectionMsg struct {
	agentID string
	err     error
}

type runWatchMsg struct {
	runID  string
	ch     <-chan runs.RunUpdate
	cancel func()
	err    error
}

type activeWatchMsg struct {
	ch     <-chan runs.ActiveUpdate
	cancel func()
	err    error
}

type runStartedMsg struct {
	run *types.AgentRun
	ok  bool
}

type runStoppedMsg struct {
	runID string
	ok    bool
}
