package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"
)

type WatchCommand struct {
	stderr       io.Writer
	newClient    clientFactory
	runDashboard dashboardRunner
}

func NewWatchCommand(stderr io.Writer, newClient clientFactory, runDashboard dashboardRunner) *WatchCommand {
	return &WatchCommand{
		stderr:       stderr,
		newClient:    newClient,
		runDashboard: runDashboard,
	}
}

func (c *WatchCommand) Run(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	threadID := fs.String("thread", "", "thread to open (defaults to the last one)")
	projectID := fs.String("project", "", "project hint when the thread does not carry one")
	locationURL := fs.String("url", "", "deep link whose agent_id hint seeds the agent selection")
	if err := fs.Parse(args); err != nil {
		return err
	}

	// Fail fast on an unreachable API before taking over the
	// terminal.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := c.newClient()
	if err != nil {
		return err
	}
	if _, err := client.Health(ctx); err != nil {
		return fmt.Errorf("api is unreachable: %w", err)
	}

	return c.runDashboard(dashboardOptions{
		ThreadID:    *threadID,
		ProjectID:   *projectID,
		LocationURL: *locationURL,
	})
}
