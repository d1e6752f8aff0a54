package types

// AgentSelection is the persisted slice of agent selection state. Only
// the chosen agent id survives restarts; the initialization latch does
// not.
type AgentSelection struct {
	SelectedAgentID string `json:"selected_agent_id,omitempty"`
}
