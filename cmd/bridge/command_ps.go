package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"

	"bridge/internal/types"
)

type PSCommand struct {
	stdout    io.Writer
	stderr    io.Writer
	newClient clientFactory
}

func NewPSCommand(stdout, stderr io.Writer, newClient clientFactory) *PSCommand {
	return &PSCommand{
		stdout:    stdout,
		stderr:    stderr,
		newClient: newClient,
	}
}

func (c *PSCommand) Run(args []string) error {
	fs := flag.NewFlagSet("ps", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	threadID := fs.String("thread", "", "list this thread's runs instead of the active set")
	check := fs.Bool("check", false, "verify the api is reachable before listing")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	client, err := c.newClient()
	if err != nil {
		return err
	}
	if *check {
		if _, err := client.Health(ctx); err != nil {
			return fmt.Errorf("api is unreachable: %w", err)
		}
	}

	runs, err := listRuns(ctx, client, *threadID)
	if err != nil {
		return err
	}
	printRuns(c.stdout, runs, time.Now())
	return nil
}

func listRuns(ctx context.Context, client commandClient, threadID string) ([]types.AgentRun, error) {
	if threadID != "" {
		return client.ListThreadRuns(ctx, threadID)
	}
	return client.ListActiveRuns(ctx)
}
