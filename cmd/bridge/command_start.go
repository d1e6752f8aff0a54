package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	bridgeclient "bridge/internal/client"
	"bridge/internal/runs"
)

type StartCommand struct {
	stdout    io.Writer
	stderr    io.Writer
	newClient clientFactory
}

func NewStartCommand(stdout, stderr io.Writer, newClient clientFactory) *StartCommand {
	return &StartCommand{
		stdout:    stdout,
		stderr:    stderr,
		newClient: newClient,
	}
}

func (c *StartCommand) Run(args []string) error {
	fs := flag.NewFlagSet("start", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	threadID := fs.String("thread", "", "thread to run on")
	agentID := fs.String("agent", "", "agent override")
	modelName := fs.String("model", "", "model override")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *threadID == "" {
		return errors.New("thread is required")
	}

	ctx := context.Background()
	client, err := c.newClient()
	if err != nil {
		return err
	}

	// The mutation goes through the gateway: a classified failure is
	// printed once and swallowed, same as in the dashboard.
	gateway := runs.NewGateway(client, nil, runs.GatewayOptions{
		Notifier: stderrNotifier(c.stderr),
	})
	run, ok := gateway.Start(ctx, *threadID, bridgeclient.StartRunRequest{
		ModelName: *modelName,
		AgentID:   *agentID,
	})
	if !ok {
		return nil
	}
	fmt.Fprintln(c.stdout, run.ID)
	return nil
}
