package main

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"text/tabwriter"
	"time"

	"bridge/internal/runs"
	"bridge/internal/types"
)

const version = "dev"

// stderrNotifier prints classified command failures the way the
// dashboard toasts them. Mutations report here and exit zero.
func stderrNotifier(stderr io.Writer) runs.NotifierFunc {
	return func(op string, failure runs.Failure) {
		fmt.Fprintf(stderr, "%s failed: %s\n", op, failure.Error())
	}
}

func printRuns(output io.Writer, runs []types.AgentRun, now time.Time) {
	writer := tabwriter.NewWriter(output, 0, 8, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tTHREAD\tSTATUS\tAGE\tMODEL")
	for _, run := range runs {
		model := run.ModelName
		if model == "" {
			model = run.AgentID
		}
		if model == "" {
			model = "-"
		}
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\n", run.ID, run.ThreadID, run.Status, formatAge(run.CreatedAt, now), model)
	}
	_ = writer.Flush()
}

func printAgents(output io.Writer, agents []types.Agent, selectedID string) {
	writer := tabwriter.NewWriter(output, 0, 8, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tNAME\tDEFAULT\tSELECTED\tMODEL")
	for _, agent := range agents {
		isDefault := "-"
		if agent.IsDefault {
			isDefault = "yes"
		}
		selected := "-"
		if selectedID != "" && agent.ID == selectedID {
			selected = "*"
		}
		model := agent.ModelName
		if model == "" {
			model = "-"
		}
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\n", agent.ID, agent.Name, isDefault, selected, model)
	}
	_ = writer.Flush()
}

func formatAge(created time.Time, now time.Time) string {
	if created.IsZero() {
		return "-"
	}
	age := now.Sub(created)
	if age < 0 {
		age = 0
	}
	switch {
	case age < time.Minute:
		return fmt.Sprintf("%ds", int(age.Seconds()))
	case age < time.Hour:
		return fmt.Sprintf("%dm", int(age.Minutes()))
	case age < 24*time.Hour:
		return fmt.Sprintf("%dh", int(age.Hours()))
	default:
		return fmt.Sprintf("%dd", int(age.Hours()/24))
	}
}

func exitOnErr(label string, err error, stderr io.Writer) {
	if err == nil {
		return
	}
	fmt.Fprintf(stderr, "%s error: %v\n", label, err)
	os.Exit(1)
}

func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		var revision string
		var modified string
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				revision = setting.Value
			case "vcs.modified":
				modified = setting.Value
			}
		}
		if revision != "" {
			if modified == "true" {
				return revision + "-dirty"
			}
			return revision
		}
	}

	exe, err := os.Executable()
	if err == nil {
		file, err := os.Open(exe)
		if err == nil {
			defer file.Close()
			hasher := sha256.New()
			if _, err := io.Copy(hasher, file); err == nil {
				sum := hasher.Sum(nil)
				return fmt.Sprintf("bin-%x", sum[:6])
			}
		}
	}

	return version
}
