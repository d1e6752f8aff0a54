package main

import (
	"fmt"
	"os"
)

const usageText = `bridge is a dashboard and CLI for agent runs.

Usage:
  bridge <command> [flags]

Commands:
  ps       list active runs
  start    start a run on a thread
  stop     stop a run
  agents   list agents and the persisted selection
  thread   show a thread with its project and runs
  watch    run the terminal dashboard
  config   print configuration or store the API token
  help     show help

Flags:
  -h, --help      show help
  -v, --version   show version

Examples:
  bridge ps
  bridge ps --thread th_123
  bridge start --thread th_123 --agent coder --model sonnet-large
  bridge stop run_456
  bridge watch --thread th_123
  bridge config --format toml
  bridge config token <value>
`

func printUsage() {
	fmt.Fprint(os.Stderr, usageText)
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		printUsage()
		return
	}

	wiring := defaultCommandWiring(os.Stdout, os.Stderr)
	commands := buildCommands(wiring)

	switch args[0] {
	case "-h", "--help", "help":
		printUsage()
		return
	case "-v", "--version", "version":
		fmt.Fprintln(wiring.stdout, wiring.version)
		return
	}

	runner, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		os.Exit(2)
	}
	exitOnErr(args[0], runner.Run(args[1:]), wiring.stderr)
}
