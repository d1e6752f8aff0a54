package types

// DashState carries small bits of dashboard state that should survive
// restarts, such as the thread the user last looked at.
type DashState struct {
	LastThreadID  string `json:"last_thread_id,omitempty"`
	LastProjectID string `json:"last_project_id,omitempty"`
}
