package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/foreman/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

// Predefined lipgloss styles.
var (
	StyleGreen      = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow     = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleYellowBold = lipgloss.NewStyle().Foreground(ColorYellow).Bold(true)
	StyleRed        = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue       = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple     = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim        = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg         = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader     = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold       = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// StepStatusPill returns a colored indicator such as "● In Progress".
func StepStatusPill(status domain.StepStatus) string {
	switch status {
	case domain.StepFinished:
		return StyleGreen.Render("✔ Finished")
	case domain.StepInProgress:
		return StyleYellow.Render("● In Progress")
	case domain.StepPending:
		return StyleBlue.Render("○ Pending")
	default:
		return StyleDim.Render(string(status))
	}
}

// ApprovalPill renders either approval track. An empty value means the
// client track has not been opened yet.
func ApprovalPill(status string) string {
	switch status {
	case "approved":
		return StyleGreen.Render("✔ approved")
	case "rejected":
		return StyleRed.Render("✖ rejected")
	case "request_changes":
		return StyleYellow.Render("↺ changes requested")
	case "pending":
		return StyleYellow.Render("○ pending")
	case "":
		return StyleDim.Render("-- not released")
	default:
		return StyleDim.Render(status)
	}
}

func InvoicePill(status domain.InvoiceStatus) string {
	switch status {
	case domain.InvoicePaid:
		return StyleGreen.Render("✔ paid")
	case domain.InvoicePartialPaid:
		return StyleGreen.Render("◐ partial")
	case domain.InvoiceOverdue:
		return StyleRed.Render("▲ overdue")
	case domain.InvoiceCancelled:
		return StyleDim.Render("✖ cancelled")
	case domain.InvoicePending:
		return StyleYellow.Render("○ pending")
	default:
		return StyleDim.Render(string(status))
	}
}

func ChangeOrderPill(status domain.ChangeOrderStatus) string {
	switch status {
	case domain.ChangeOrderApproved:
		return StyleGreen.Render("✔ approved")
	case domain.ChangeOrderRejected:
		return StyleRed.Render("✖ rejected")
	default:
		return StyleYellow.Render("○ pending")
	}
}

// ProjectPill returns a colored indicator for project status.
func ProjectPill(status domain.ProjectStatus) string {
	if status == domain.ProjectCompleted {
		return StyleDim.Render("✔ Completed")
	}
	return StyleGreen.Render("● Active")
}

// Header renders a section header with the orange header style and an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", lipgloss.Width(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

// Dim renders text in the muted/dim color.
func Dim(text string) string {
	return StyleDim.Render(text)
}

// Bold renders text in bold with the foreground color.
func Bold(text string) string {
	return StyleBold.Render(text)
}
