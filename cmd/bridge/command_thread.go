package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"bridge/internal/runs"
	"bridge/internal/threadctx"
)

type ThreadCommand struct {
	stdout    io.Writer
	stderr    io.Writer
	newClient clientFactory
}

func NewThreadCommand(stdout, stderr io.Writer, newClient clientFactory) *ThreadCommand {
	return &ThreadCommand{
		stdout:    stdout,
		stderr:    stderr,
		newClient: newClient,
	}
}

func (c *ThreadCommand) Run(args []string) error {
	fs := flag.NewFlagSet("thread", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	projectID := fs.String("project", "", "project hint when the thread does not carry one")
	if err := fs.Parse(args); err != nil {
		return err
	}
	threadID := fs.Arg(0)
	if threadID == "" {
		return errors.New("thread id is required")
	}

	ctx := context.Background()
	client, err := c.newClient()
	if err != nil {
		return err
	}

	// The run list goes through the same cached read path the
	// dashboard uses, including its one retry.
	cache := runs.NewCache(client, runs.CacheOptions{})
	defer cache.Close()

	loader := threadctx.NewLoader(client, cache, threadctx.Options{})
	snapshot, err := loader.Load(ctx, threadID, *projectID)
	if err != nil {
		return err
	}

	printThreadSnapshot(c.stdout, snapshot)
	return nil
}

func printThreadSnapshot(output io.Writer, snapshot *threadctx.Snapshot) {
	if snapshot == nil {
		return
	}
	if snapshot.Thread != nil {
		title := snapshot.Thread.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Fprintf(output, "thread: %s  %s\n", snapshot.Thread.ID, title)
	}
	if snapshot.ProjectName != "" {
		fmt.Fprintf(output, "project: %s", snapshot.ProjectName)
		if snapshot.SandboxID != "" {
			fmt.Fprintf(output, "  sandbox: %s", snapshot.SandboxID)
		}
		fmt.Fprintln(output)
	}
	fmt.Fprintln(output)
	printRuns(output, snapshot.Runs, time.Now())
}
