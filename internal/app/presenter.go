package app

import (
	"fmt"
	"strings"
	"time"

	xansi "github.com/charmbracelet/x/ansi"
	runewidth "github.com/mattn/go-runewidth"

	"bridge/internal/threadctx"
	"bridge/internal/types"
)

const (
	runIDColumnWidth    = 10
	statusColumnWidth   = 10
	durationColumnWidth = 8
)

func shortID(id string) string {
	id = strings.TrimSpace(id)
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

// formatDuration renders elapsed time the way the dashboard shows it:
// seconds under a minute, m+s under an hour, h+m beyond.
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
	}
}

// runElapsed measures how long a run has been going, or took. Runs
// that never started fall back to their creation time.
func runElapsed(run types.AgentRun, now time.Time) time.Duration {
	start := run.CreatedAt
	if run.StartedAt != nil {
		start = *run.StartedAt
	}
	if start.IsZero() {
		return 0
	}
	end := now
	if run.CompletedAt != nil {
		end = *run.CompletedAt
	}
	return end.Sub(start)
}

func padColumn(text string, width int) string {
	w := runewidth.StringWidth(text)
	if w >= width {
		return runewidth.Truncate(text, width, "…")
	}
	return text + strings.Repeat(" ", width-w)
}

// formatRunRow renders one run as a fixed-column line. The status cell
// keeps its color even inside the selection highlight.
func formatRunRow(run types.AgentRun, now time.Time, width int, selected bool) string {
	marker := "  "
	if selected {
		marker = "> "
	}
	cells := []string{
		padColumn(shortID(run.ID), runIDColumnWidth),
		runStatusStyle(run.Status).Render(padColumn(string(run.Status), statusColumnWidth)),
		padColumn(formatDuration(runElapsed(run, now)), durationColumnWidth),
	}
	tail := strings.TrimSpace(run.ModelName)
	if tail == "" {
		tail = strings.TrimSpace(run.AgentID)
	}
	line := marker + strings.Join(cells, " ")
	if tail != "" {
		line += " " + tail
	}
	line = truncateToWidth(line, width)
	if selected {
		return selectedStyle.Render(line)
	}
	return line
}

func truncateToWidth(text string, width int) string {
	if width <= 0 {
		return text
	}
	if xansi.StringWidth(text) <= width {
		return text
	}
	if width == 1 {
		return "…"
	}
	return xansi.Cut(text, 0, width-1) + "…"
}

// buildRunReport composes the markdown shown in the detail pane: the
// thread context, the selected run and the agent panel.
func buildRunReport(view *threadctx.Snapshot, agent *types.Agent, run *types.AgentRun, now time.Time) string {
	var b strings.Builder
	if view != nil && view.Thread != nil {
		title := strings.TrimSpace(view.Thread.Title)
		if title == "" {
			title = view.Thread.ID
		}
		fmt.Fprintf(&b, "# %s\n\n", escapeMarkdown(title))
		if view.ProjectName != "" {
			fmt.Fprintf(&b, "Project: **%s**", escapeMarkdown(view.ProjectName))
			if view.SandboxID != "" {
				fmt.Fprintf(&b, " (sandbox `%s`)", view.SandboxID)
			}
			b.WriteString("\n\n")
		}
	}
	if run == nil {
		b.WriteString("No run selected.\n")
	} else {
		fmt.Fprintf(&b, "## Run `%s`\n\n", shortID(run.ID))
		fmt.Fprintf(&b, "- Status: **%s**\n", run.Status)
		if run.ModelName != "" {
			fmt.Fprintf(&b, "- Model: %s\n", escapeMarkdown(run.ModelName))
		}
		if run.AgentID != "" {
			fmt.Fprintf(&b, "- Agent: `%s`\n", run.AgentID)
		}
		if !run.CreatedAt.IsZero() {
			fmt.Fprintf(&b, "- Created: %s\n", run.CreatedAt.Format(time.RFC3339))
		}
		if run.StartedAt != nil {
			fmt.Fprintf(&b, "- Started: %s\n", run.StartedAt.Format(time.RFC3339))
		}
		if run.CompletedAt != nil {
			fmt.Fprintf(&b, "- Completed: %s\n", run.CompletedAt.Format(time.RFC3339))
		}
		fmt.Fprintf(&b, "- Elapsed: %s\n", formatDuration(runElapsed(*run, now)))
		if run.Status.CanRetry() {
			b.WriteString("\nThis run can be retried with a fresh start.\n")
		}
		if msg := strings.TrimSpace(run.Error); msg != "" {
			b.WriteString("\n### Error\n\n")
			b.WriteString("> " + escapeMarkdown(msg) + "\n")
		}
	}
	if agent != nil {
		name := strings.TrimSpace(agent.Name)
		if name == "" {
			name = agent.ID
		}
		fmt.Fprintf(&b, "\n## Agent %s\n\n", escapeMarkdown(name))
		if agent.IsDefault {
			b.WriteString("Platform default.\n\n")
		}
		// The description is the agent's own markdown; it renders
		// as written.
		if desc := strings.TrimSpace(agent.Description); desc != "" {
			b.WriteString(desc + "\n")
		}
	}
	return b.String()
}
