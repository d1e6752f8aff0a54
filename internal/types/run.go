package types

import (
	"strings"
	"time"
)

type RunStatus string

const (
	RunStatusPending    RunStatus = "pending"
	RunStatusRunning    RunStatus = "running"
	RunStatusProcessing RunStatus = "processing"
	RunStatusCompleted  RunStatus = "completed"
	RunStatusFailed     RunStatus = "failed"
	RunStatusCancelled  RunStatus = "cancelled"
)

// IsActive reports whether the run is still being executed. Unknown
// values classify as inactive.
func (s RunStatus) IsActive() bool {
	switch normalizeRunStatus(s) {
	case RunStatusPending, RunStatusRunning, RunStatusProcessing:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the run has reached a status it can never
// leave. Unknown values classify as non-terminal.
func (s RunStatus) IsTerminal() bool {
	switch normalizeRunStatus(s) {
	case RunStatusCompleted, RunStatusFailed, RunStatusCancelled:
		return true
	default:
		return false
	}
}

// CanRetry reports whether a fresh run may be started for the same
// thread after this one.
func (s RunStatus) CanRetry() bool {
	switch normalizeRunStatus(s) {
	case RunStatusFailed, RunStatusCancelled:
		return true
	default:
		return false
	}
}

func normalizeRunStatus(s RunStatus) RunStatus {
	return RunStatus(strings.ToLower(strings.TrimSpace(string(s))))
}

func ParseRunStatus(raw string) (RunStatus, bool) {
	switch normalizeRunStatus(RunStatus(raw)) {
	case RunStatusPending:
		return RunStatusPending, true
	case RunStatusRunning:
		return RunStatusRunning, true
	case RunStatusProcessing:
		return RunStatusProcessing, true
	case RunStatusCompleted:
		return RunStatusCompleted, true
	case RunStatusFailed:
		return RunStatusFailed, true
	case RunStatusCancelled:
		return RunStatusCancelled, true
	default:
		return "", false
	}
}

type AgentRun struct {
	ID          string     `json:"id"`
	ThreadID    string     `json:"thread_id"`
	AgentID     string     `json:"agent_id,omitempty"`
	ModelName   string     `json:"model_name,omitempty"`
	Status      RunStatus  `json:"status"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// ActiveRuns filters runs down to the ones still executing, preserving
// input order.
func ActiveRuns(runs []AgentRun) []AgentRun {
	if len(runs) == 0 {
		return nil
	}
	out := make([]AgentRun, 0, len(runs))
	for _, run := range runs {
		if run.Status.IsActive() {
			out = append(out, run)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
