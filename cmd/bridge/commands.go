package main

import (
	"io"
	"os"
)

type commandRunner interface {
	Run(args []string) error
}

type commandWiring struct {
	stdout       io.Writer
	stderr       io.Writer
	newClient    clientFactory
	runDashboard dashboardRunner
	version      string
}

func defaultCommandWiring(stdout, stderr io.Writer) commandWiring {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return commandWiring{
		stdout:       stdout,
		stderr:       stderr,
		newClient:    newBridgeClient,
		runDashboard: runDashboard,
		version:      buildVersion(),
	}
}

func buildCommands(wiring commandWiring) map[string]commandRunner {
	return map[string]commandRunner{
		"ps":     NewPSCommand(wiring.stdout, wiring.stderr, wiring.newClient),
		"start":  NewStartCommand(wiring.stdout, wiring.stderr, wiring.newClient),
		"stop":   NewStopCommand(wiring.stdout, wiring.stderr, wiring.newClient),
		"agents": NewAgentsCommand(wiring.stdout, wiring.stderr, wiring.newClient),
		"thread": NewThreadCommand(wiring.stdout, wiring.stderr, wiring.newClient),
		"watch":  NewWatchCommand(wiring.stderr, wiring.newClient, wiring.runDashboard),
		"config": NewConfigCommand(wiring.stdout, wiring.stderr),
	}
}
