package app

import (
	"github.com/charmbracelet/lipgloss"

	"bridge/internal/types"
)

var (
	headerStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	contextStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("110"))
	helpStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	paneTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	paneIdleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	selectedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("236"))
	dividerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	agentBadgeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("69")).Bold(true)

	pendingStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("179"))
	runningStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("70")).Bold(true)
	processingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	completedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("108"))
	failedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	cancelledStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))

	toastInfoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("29")).Bold(true)
	toastWarningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("136")).Bold(true)
	toastErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("160")).Bold(true)
)

func runStatusStyle(status types.RunStatus) lipgloss.Style {
	switch status {
	case types.RunStatusPending:
		return pendingStyle
	case types.RunStatusRunning:
		return runningStyle
	case types.RunStatusProcessing:
		return processingStyle
	case types.RunStatusCompleted:
		return completedStyle
	case types.RunStatusFailed:
		return failedStyle
	case types.RunStatusCancelled:
		return cancelledStyle
	default:
		return statusStyle
	}
}
