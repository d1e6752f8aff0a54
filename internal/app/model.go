package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"bridge/internal/client"
	"bridge/internal/logging"
	"bridge/internal/threadctx"
	"bridge/internal/types"
)

const (
	tickInterval     = 100 * time.Millisecond
	maxEventsPerTick = 16
	toastDuration    = 3 * time.Second
	minViewportWidth = 20
	minContentHeight = 6
	runListHeight    = 6
)

type paneFocus int

const (
	paneThread paneFocus = iota
	paneActive
)

// Deps carries everything the dashboard consumes. Failures must be the
// same feed the run gateway notifies, so command failures reach the
// toast line.
type Deps struct {
	Agents    AgentAPI
	Runs      RunReader
	Commands  RunWriter
	Loader    ThreadLoader
	Selection AgentSelector
	Failures  *FailureFeed
	Logger    logging.Logger
	ThreadID  string
	ProjectID string
}

type Model struct {
	deps   Deps
	logger logging.Logger

	viewport viewport.Model
	loader   spinner.Model

	width  int
	height int
	focus  paneFocus

	view       *threadctx.Snapshot
	threadRuns []types.AgentRun
	activeRuns []types.AgentRun
	agents     []types.Agent

	agentsLoaded  bool
	viewLoaded    bool
	selectionSent bool
	selectedAgent string

	selected   int
	runFeed    runFeed
	activeFeed activeFeed

	status      string
	reportDirty bool

	toastText  string
	toastLevel toastLevel
	toastUntil time.Time
}

func NewModel(deps Deps) Model {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	if deps.Failures == nil {
		deps.Failures = NewFailureFeed()
	}
	vp := viewport.New(minViewportWidth, minContentHeight)
	vp.SetContent("Loading thread…")
	loader := spinner.New()
	loader.Spinner = spinner.Line
	loader.Style = lipgloss.NewStyle()
	return Model{
		deps:        deps,
		logger:      logger,
		viewport:    vp,
		loader:      loader,
		status:      "loading",
		reportDirty: true,
	}
}

// Run drives the dashboard until the user quits.
func Run(deps Deps) error {
	model := NewModel(deps)
	p := tea.NewProgram(&model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		loadThreadViewCmd(m.deps.Loader, m.deps.ThreadID, m.deps.ProjectID),
		fetchAgentsCmd(m.deps.Agents),
		openActiveWatchCmd(m.deps.Runs),
		m.loader.Tick,
		tickCmd(),
	)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = max(minViewportWidth, msg.Width-2)
		m.viewport.Height = max(3, msg.Height-runListHeight-7)
		m.reportDirty = true
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if m.viewLoaded {
			return m, nil
		}
		var cmd tea.Cmd
		m.loader, cmd = m.loader.Update(msg)
		return m, cmd

	case tickMsg:
		cmd := m.handleTick(time.Time(msg))
		return m, tea.Batch(cmd, tickCmd())

	case threadViewMsg:
		return m, m.handleThreadView(msg)

	case agentsMsg:
		if msg.err != nil {
			m.showErrorToast("agents: " + msg.err.Error())
			return m, nil
		}
		m.agents = msg.agents
		m.agentsLoaded = true
		m.reportDirty = true
		return m, m.maybeInitSelection()

	case selectionMsg:
		if msg.err != nil {
			m.showToast(toastLevelWarning, "agent selection: "+msg.err.Error())
		}
		m.selectedAgent = msg.agentID
		m.reportDirty = true
		if agent, ok := types.FindAgent(m.agents, msg.agentID); ok {
			m.status = "agent: " + agent.Name
		}
		return m, nil

	case runWatchMsg:
		if msg.err != nil {
			m.status = "watch failed: " + msg.err.Error()
			return m, nil
		}
		m.runFeed.Set(msg.runID, msg.ch, msg.cancel)
		return m, nil

	case activeWatchMsg:
		if msg.err != nil {
			m.status = "active watch failed: " + msg.err.Error()
			return m, nil
		}
		m.activeFeed.Set(msg.ch, msg.cancel)
		return m, nil

	case runStartedMsg:
		if !msg.ok || msg.run == nil {
			// Failure detail arrives through the failure feed.
			return m, nil
		}
		m.showInfoToast("run started: " + shortID(msg.run.ID))
		return m, tea.Batch(
			loadThreadViewCmd(m.deps.Loader, m.deps.ThreadID, m.deps.ProjectID),
			openRunWatchCmd(m.deps.Runs, msg.run.ID),
		)

	case runStoppedMsg:
		if !msg.ok {
			return m, nil
		}
		m.showInfoToast("stop requested: " + shortID(msg.runID))
		return m, loadThreadViewCmd(m.deps.Loader, m.deps.ThreadID, m.deps.ProjectID)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.closeFeeds()
		return m, tea.Quit
	case "tab":
		if m.focus == paneThread {
			m.focus = paneActive
		} else {
			m.focus = paneThread
		}
		m.clampSelection()
		m.reportDirty = true
		return m, m.watchSelected()
	case "up", "k":
		m.moveSelection(-1)
		return m, m.watchSelected()
	case "down", "j":
		m.moveSelection(1)
		return m, m.watchSelected()
	case "enter":
		return m, m.watchSelected()
	case "n":
		req := client.StartRunRequest{AgentID: m.deps.Selection.SelectedID()}
		return m, startRunCmd(m.deps.Commands, m.deps.ThreadID, req)
	case "s":
		if run := m.selectedRun(); run != nil {
			return m, stopRunCmd(m.deps.Commands, run.ID)
		}
		return m, nil
	case "r":
		m.deps.Runs.InvalidateActiveRuns()
		if run := m.selectedRun(); run != nil {
			m.deps.Runs.RefreshRun(run.ID)
		}
		m.status = "refreshing"
		return m, loadThreadViewCmd(m.deps.Loader, m.deps.ThreadID, m.deps.ProjectID)
	case "c":
		if run := m.selectedRun(); run != nil {
			if err := copyToClipboard(run.ID); err != nil {
				m.showErrorToast("copy failed: " + err.Error())
			} else {
				m.showInfoToast("copied run id")
			}
		}
		return m, nil
	case "y":
		report := buildRunReport(m.view, m.currentAgent(), m.selectedRun(), time.Now())
		if err := copyToClipboard(report); err != nil {
			m.showErrorToast("copy failed: " + err.Error())
		} else {
			m.showInfoToast("copied run report")
		}
		return m, nil
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
}

func (m *Model) handleTick(now time.Time) tea.Cmd {
	m.consumeRunTick()
	m.consumeActiveTick()
	for _, notice := range m.deps.Failures.drain() {
		m.showErrorToast(notice.op + " failed: " + notice.failure.Error())
	}
	m.expireToast(now)
	return nil
}

func (m *Model) handleThreadView(msg threadViewMsg) tea.Cmd {
	if msg.err != nil {
		m.viewLoaded = true
		m.status = "thread load failed"
		m.showErrorToast(msg.err.Error())
		m.reportDirty = true
		return nil
	}
	m.view = msg.snapshot
	m.viewLoaded = true
	m.threadRuns = msg.snapshot.Runs
	m.clampSelection()
	m.status = "ready"
	m.reportDirty = true

	cmds := []tea.Cmd{m.maybeInitSelection()}
	if newest := newestActiveRun(m.threadRuns); newest != nil && !m.runFeed.Watching(newest.ID) {
		cmds = append(cmds, openRunWatchCmd(m.deps.Runs, newest.ID))
	}
	return tea.Batch(cmds...)
}

func (m *Model) maybeInitSelection() tea.Cmd {
	if m.selectionSent || !m.agentsLoaded || !m.viewLoaded {
		return nil
	}
	m.selectionSent = true
	threadAgentID := ""
	if m.view != nil && m.view.Thread != nil {
		threadAgentID = m.view.Thread.AgentID
	}
	return initSelectionCmd(m.deps.Selection, m.agents, threadAgentID)
}

func (m *Model) consumeRunTick() {
	update, got, closed := m.runFeed.ConsumeTick()
	if closed {
		m.status = "run watch settled"
	}
	if !got {
		return
	}
	if update.Err != nil {
		m.status = "run read failed: " + update.Err.Error()
		return
	}
	if update.Run == nil {
		return
	}
	m.upsertRun(*update.Run)
	if update.Run.Status.IsTerminal() {
		m.showInfoToast("run " + shortID(update.Run.ID) + " " + string(update.Run.Status))
	}
	m.reportDirty = true
}

func (m *Model) consumeActiveTick() {
	update, got, _ := m.activeFeed.ConsumeTick()
	if !got {
		return
	}
	if update.Err != nil {
		m.status = "active runs read failed"
		return
	}
	m.activeRuns = update.Runs
	if m.focus == paneActive {
		m.clampSelection()
		m.reportDirty = true
	}
}

func (m *Model) upsertRun(run types.AgentRun) {
	for i := range m.threadRuns {
		if m.threadRuns[i].ID == run.ID {
			m.threadRuns[i] = run
			return
		}
	}
	if run.ThreadID == m.deps.ThreadID {
		m.threadRuns = append([]types.AgentRun{run}, m.threadRuns...)
		m.clampSelection()
	}
}

func (m *Model) visibleRuns() []types.AgentRun {
	if m.focus == paneActive {
		return m.activeRuns
	}
	return m.threadRuns
}

func (m *Model) selectedRun() *types.AgentRun {
	visible := m.visibleRuns()
	if m.selected < 0 || m.selected >= len(visible) {
		return nil
	}
	run := visible[m.selected]
	return &run
}

func (m *Model) moveSelection(delta int) {
	visible := m.visibleRuns()
	if len(visible) == 0 {
		m.selected = 0
		return
	}
	m.selected += delta
	m.clampSelection()
	m.reportDirty = true
}

func (m *Model) clampSelection() {
	visible := m.visibleRuns()
	if len(visible) == 0 {
		m.selected = 0
		return
	}
	if m.selected < 0 {
		m.selected = 0
	}
	if m.selected >= len(visible) {
		m.selected = len(visible) - 1
	}
}

func (m *Model) watchSelected() tea.Cmd {
	run := m.selectedRun()
	if run == nil || m.runFeed.Watching(run.ID) {
		return nil
	}
	return openRunWatchCmd(m.deps.Runs, run.ID)
}

func (m *Model) closeFeeds() {
	m.runFeed.Reset()
	m.activeFeed.Reset()
}

func newestActiveRun(list []types.AgentRun) *types.AgentRun {
	var newest *types.AgentRun
	for i := range list {
		run := &list[i]
		if !run.Status.IsActive() {
			continue
		}
		if newest == nil || run.CreatedAt.After(newest.CreatedAt) {
			newest = run
		}
	}
	return newest
}

func (m *Model) View() string {
	if m.width <= 0 {
		return "starting…"
	}
	var b strings.Builder
	b.WriteString(m.headerLine() + "\n")
	b.WriteString(m.contextLine() + "\n")
	b.WriteString(dividerStyle.Render(strings.Repeat("─", m.width)) + "\n")
	b.WriteString(m.runListLines())
	b.WriteString(dividerStyle.Render(strings.Repeat("─", m.width)) + "\n")
	m.ensureReport()
	b.WriteString(m.viewport.View() + "\n")
	b.WriteString(m.statusLine())
	if toast := m.toastLine(m.width); toast != "" {
		b.WriteString("\n" + toast)
	}
	return b.String()
}

func (m *Model) headerLine() string {
	title := "bridge"
	if m.view != nil && m.view.Thread != nil {
		t := strings.TrimSpace(m.view.Thread.Title)
		if t == "" {
			t = m.view.Thread.ID
		}
		title += " · " + t
	}
	line := headerStyle.Render(truncateToWidth(title, m.width))
	if agent, ok := m.deps.Selection.CurrentAgent(m.agents); ok {
		badge := agentBadgeStyle.Render("[" + agent.Name + "]")
		gap := m.width - lipgloss.Width(line) - lipgloss.Width(badge)
		if gap > 0 {
			line += strings.Repeat(" ", gap) + badge
		}
	}
	return line
}

func (m *Model) contextLine() string {
	parts := []string{}
	if m.view != nil {
		if m.view.ProjectName != "" {
			parts = append(parts, "project "+m.view.ProjectName)
		}
		if m.view.SandboxID != "" {
			parts = append(parts, "sandbox "+m.view.SandboxID)
		}
	}
	if len(m.activeRuns) > 0 {
		parts = append(parts, formatActiveCount(len(m.activeRuns)))
	}
	if len(parts) == 0 {
		if m.viewLoaded {
			return contextStyle.Render("no context")
		}
		return contextStyle.Render(m.loader.View() + " loading")
	}
	return contextStyle.Render(truncateToWidth(strings.Join(parts, " · "), m.width))
}

func formatActiveCount(n int) string {
	if n == 1 {
		return "1 active run"
	}
	return fmt.Sprintf("%d active runs", n)
}

func (m *Model) runListLines() string {
	title := "Thread runs"
	if m.focus == paneActive {
		title = "Active runs"
	}
	var b strings.Builder
	b.WriteString(paneTitleStyle.Render(title) + helpStyle.Render("  (tab to switch)") + "\n")
	visible := m.visibleRuns()
	if len(visible) == 0 {
		b.WriteString(paneIdleStyle.Render("  no runs") + "\n")
		for i := 1; i < runListHeight-1; i++ {
			b.WriteString("\n")
		}
		return b.String()
	}
	start := 0
	rows := runListHeight - 1
	if m.selected >= rows {
		start = m.selected - rows + 1
	}
	now := time.Now()
	printed := 0
	for i := start; i < len(visible) && printed < rows; i++ {
		b.WriteString(formatRunRow(visible[i], now, m.width, i == m.selected) + "\n")
		printed++
	}
	for ; printed < rows; printed++ {
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) ensureReport() {
	if !m.reportDirty {
		return
	}
	m.reportDirty = false
	report := buildRunReport(m.view, m.currentAgent(), m.selectedRun(), time.Now())
	m.viewport.SetContent(renderMarkdown(report, m.viewport.Width))
}

func (m *Model) currentAgent() *types.Agent {
	agent, ok := m.deps.Selection.CurrentAgent(m.agents)
	if !ok {
		return nil
	}
	return &agent
}

func (m *Model) statusLine() string {
	help := "q quit · ↑/↓ select · enter watch · n start · s stop · r refresh · c copy id · y copy report"
	left := statusStyle.Render(m.status)
	right := helpStyle.Render(help)
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return left
	}
	return left + strings.Repeat(" ", gap) + right
}
