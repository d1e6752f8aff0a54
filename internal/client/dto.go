package client

import "bridge/internal/types"

type RunsResponse struct {
	Runs []types.AgentRun `json:"runs"`
}

type AgentsResponse struct {
	Agents []types.Agent `json:"agents"`
}

type StartRunRequest struct {
	ModelName string `json:"model_name,omitempty"`
	AgentID   string `json:"agent_id,omitempty"`
}

type HealthResponse struct {
	OK      bool   `json:"ok"`
	Version string `json:"version"`
}
