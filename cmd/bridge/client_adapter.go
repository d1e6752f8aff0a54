package main

import (
	"context"

	bridgeclient "bridge/internal/client"
	"bridge/internal/types"
)

type clientFactory func() (commandClient, error)

type commandClient interface {
	Health(ctx context.Context) (*bridgeclient.HealthResponse, error)
	GetThread(ctx context.Context, threadID string) (*types.Thread, error)
	GetProject(ctx context.Context, projectID string) (*types.Project, error)
	ListThreadRuns(ctx context.Context, threadID string) ([]types.AgentRun, error)
	ListActiveRuns(ctx context.Context) ([]types.AgentRun, error)
	GetRun(ctx context.Context, runID string) (*types.AgentRun, error)
	StartRun(ctx context.Context, threadID string, req bridgeclient.StartRunRequest) (*types.AgentRun, error)
	StopRun(ctx context.Context, runID string) error
	ListAgents(ctx context.Context) ([]types.Agent, error)
}

func newBridgeClient() (commandClient, error) {
	client, err := bridgeclient.New()
	if err != nil {
		return nil, err
	}
	return client, nil
}
