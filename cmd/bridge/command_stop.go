package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"bridge/internal/runs"
)

type StopCommand struct {
	stdout    io.Writer
	stderr    io.Writer
	newClient clientFactory
}

func NewStopCommand(stdout, stderr io.Writer, newClient clientFactory) *StopCommand {
	return &StopCommand{
		stdout:    stdout,
		stderr:    stderr,
		newClient: newClient,
	}
}

func (c *StopCommand) Run(args []string) error {
	fs := flag.NewFlagSet("stop", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	runID := fs.Arg(0)
	if runID == "" {
		return errors.New("run id is required")
	}

	ctx := context.Background()
	client, err := c.newClient()
	if err != nil {
		return err
	}

	gateway := runs.NewGateway(client, nil, runs.GatewayOptions{
		Notifier: stderrNotifier(c.stderr),
	})
	if !gateway.Stop(ctx, runID) {
		return nil
	}
	fmt.Fprintf(c.stdout, "stop requested: %s\n", runID)
	return nil
}
