package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"bridge/internal/selection"
	"bridge/internal/types"
)

type AgentsCommand struct {
	stdout    io.Writer
	stderr    io.Writer
	newClient clientFactory
}

func NewAgentsCommand(stdout, stderr io.Writer, newClient clientFactory) *AgentsCommand {
	return &AgentsCommand{
		stdout:    stdout,
		stderr:    stderr,
		newClient: newClient,
	}
}

func (c *AgentsCommand) Run(args []string) error {
	fs := flag.NewFlagSet("agents", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	selectID := fs.String("select", "", "persist this agent as the selection")
	clear := fs.Bool("clear", false, "clear the persisted selection")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	client, err := c.newClient()
	if err != nil {
		return err
	}
	agents, err := client.ListAgents(ctx)
	if err != nil {
		return err
	}

	repo, _, err := openStateRepository()
	if err != nil {
		return err
	}
	defer repo.Close()

	if *clear {
		state, err := selection.NewState(ctx, repo.Selection(), selection.Options{})
		if err != nil {
			return err
		}
		if err := state.ClearSelection(ctx); err != nil {
			return err
		}
		fmt.Fprintln(c.stdout, "selection cleared")
		return nil
	}

	if *selectID != "" {
		if _, ok := types.FindAgent(agents, *selectID); !ok {
			return fmt.Errorf("unknown agent: %s", *selectID)
		}
		if err := repo.Selection().Save(ctx, &types.AgentSelection{SelectedAgentID: *selectID}); err != nil {
			return err
		}
	}

	selectedID := ""
	if current, err := repo.Selection().Load(ctx); err == nil && current != nil {
		selectedID = current.SelectedAgentID
	}
	printAgents(c.stdout, agents, selectedID)
	return nil
}
