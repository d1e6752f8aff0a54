package types

import (
	"strings"
	"time"
)

type Agent struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	ModelName   string    `json:"model_name,omitempty"`
	IsDefault   bool      `json:"is_default"`
	CreatedAt   time.Time `json:"created_at"`
}

// FindAgent returns the agent with the given id, or false when the id
// is empty or absent from agents.
func FindAgent(agents []Agent, id string) (Agent, bool) {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return Agent{}, false
	}
	for _, agent := range agents {
		if agent.ID == trimmed {
			return agent, true
		}
	}
	return Agent{}, false
}

// DefaultAgent returns the first agent flagged as the system default.
func DefaultAgent(agents []Agent) (Agent, bool) {
	for _, agent := range agents {
		if agent.IsDefault {
			return agent, true
		}
	}
	return Agent{}, false
}
