package selection

import (
	"context"
	"errors"
	"strings"
	"sync"

	"bridge/internal/logging"
	"bridge/internal/store"
	"bridge/internal/types"
)

// State decides which agent is active. It is handed to the consumers
// that need a selection instead of living in a package-level variable,
// and persists the chosen id through whatever SelectionStore it was
// built with. Only the chosen id survives a restart; the initializer
// re-arms on every cold start.
type State struct {
	store    store.SelectionStore
	location Location
	logger   logging.Logger

	mu          sync.Mutex
	selectedID  string
	initialized bool
}

type Options struct {
	// Location supplies the agent_id hint of the current deep link,
	// when there is one.
	Location Location
	Logger   logging.Logger
}

// NewState loads the persisted selection and wraps it in a fresh,
// uninitialized State.
func NewState(ctx context.Context, st store.SelectionStore, opts Options) (*State, error) {
	if st == nil {
		return nil, errors.New("selection store is required")
	}
	location := opts.Location
	if location == nil {
		location = NoLocation{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	persisted, err := st.Load(ctx)
	if err != nil {
		return nil, err
	}
	s := &State{store: st, location: location, logger: logger}
	if persisted != nil {
		s.selectedID = strings.TrimSpace(persisted.SelectedAgentID)
	}
	return s, nil
}

// InitializeFromAgents resolves the active agent once per State
// lifetime. The thread's bound agent wins over the deep-link hint,
// which wins over the persisted choice (kept only if still present in
// agents), then the default-flagged agent, then the first agent. The
// resolved id is written to the store and also announced through
// onSelect when one is supplied. Calls after the first return the
// current selection untouched.
func (s *State) InitializeFromAgents(ctx context.Context, agents []types.Agent, threadAgentID string, onSelect func(agentID string)) (string, error) {
	s.mu.Lock()
	if s.initialized {
		id := s.selectedID
		s.mu.Unlock()
		return id, nil
	}
	resolved := resolve(agents, threadAgentID, s.location.AgentIDHint(), s.selectedID)
	s.initialized = true
	var err error
	if resolved != "" {
		s.selectedID = resolved
		err = s.persistLocked(ctx)
	}
	current := s.selectedID
	s.mu.Unlock()

	if resolved != "" && onSelect != nil {
		onSelect(resolved)
	}
	return current, err
}

// AutoSelect fills in a selection after initialization when none is
// set. It picks the default-flagged agent, falling back to the first
// one, and does nothing when agents is empty or currentID is already
// set. With a callback the caller owns the write; without one the
// selection is stored directly.
func (s *State) AutoSelect(ctx context.Context, agents []types.Agent, currentID string, onSelect func(agentID string)) (string, error) {
	if len(agents) == 0 || strings.TrimSpace(currentID) != "" {
		return "", nil
	}
	picked, ok := types.DefaultAgent(agents)
	if !ok {
		picked = agents[0]
	}
	if onSelect != nil {
		onSelect(picked.ID)
		return picked.ID, nil
	}
	s.mu.Lock()
	s.selectedID = picked.ID
	err := s.persistLocked(ctx)
	s.mu.Unlock()
	return picked.ID, err
}

// ClearSelection drops the choice and re-arms the initializer.
func (s *State) ClearSelection(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedID = ""
	s.initialized = false
	return s.persistLocked(ctx)
}

// CurrentAgent looks the selection up in agents.
func (s *State) CurrentAgent(agents []types.Agent) (types.Agent, bool) {
	return types.FindAgent(agents, s.SelectedID())
}

// UsesDefaultAgent reports whether the effective agent is the system
// default. No choice at all counts as the default.
func (s *State) UsesDefaultAgent(agents []types.Agent) bool {
	id := s.SelectedID()
	if id == "" {
		return true
	}
	agent, ok := types.FindAgent(agents, id)
	return ok && agent.IsDefault
}

func (s *State) SelectedID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedID
}

func (s *State) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

func (s *State) persistLocked(ctx context.Context) error {
	err := s.store.Save(ctx, &types.AgentSelection{SelectedAgentID: s.selectedID})
	if err != nil {
		s.logger.Warn("selection persist failed", logging.F("error", err))
	}
	return err
}

func resolve(agents []types.Agent, threadAgentID, locationHint, persistedID string) string {
	if id := strings.TrimSpace(threadAgentID); id != "" {
		return id
	}
	if id := strings.TrimSpace(locationHint); id != "" {
		return id
	}
	if _, ok := types.FindAgent(agents, persistedID); ok {
		return persistedID
	}
	if agent, ok := types.DefaultAgent(agents); ok {
		return agent.ID
	}
	if len(agents) > 0 {
		return agents[0].ID
	}
	return ""
}
