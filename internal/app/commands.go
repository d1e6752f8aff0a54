package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"bridge/internal/client"
	"bridge/internal/types"
)

func loadThreadViewCmd(loader ThreadLoader, threadID, projectID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 6*time.Second)
		defer cancel()
		snapshot, err := loader.Load(ctx, threadID, projectID)
		return threadViewMsg{snapshot: snapshot, err: err}
	}
}

func fetchAgentsCmd(api AgentAPI) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 4*time.Second)
		defer cancel()
		agents, err := api.ListAgents(ctx)
		return agentsMsg{agents: agents, err: err}
	}
}

func initSelectionCmd(selector AgentSelector, agents []types.Agent, threadAgentID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		agentID, err := selector.InitializeFromAgents(ctx, agents, threadAgentID, nil)
		return selectionMsg{agentID: agentID, err: err}
	}
}

func openRunWatchCmd(reader RunReader, runID string) tea.Cmd {
	return func() tea.Msg {
		ch, cancel, err := reader.WatchRun(runID)
		return runWatchMsg{runID: runID, ch: ch, cancel: cancel, err: err}
	}
}

func openActiveWatchCmd(reader RunReader) tea.Cmd {
	return func() tea.Msg {
		ch, cancel, err := reader.WatchActive()
		return activeWatchMsg{ch: ch, cancel: cancel, err: err}
	}
}

func startRunCmd(writer RunWriter, threadID string, req client.StartRunRequest) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 6*time.Second)
		defer cancel()
		run, ok := writer.Start(ctx, threadID, req)
		return runStartedMsg{run: run, ok: ok}
	}
}

func stopRunCmd(writer RunWriter, runID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 6*time.Second)
		defer cancel()
		ok := writer.Stop(ctx, runID)
		return runStoppedMsg{runID: runID, ok: ok}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
