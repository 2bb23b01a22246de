package claimlist

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/claims-portal/internal/model"
	"github.com/nhle/claims-portal/internal/theme"
	"github.com/nhle/claims-portal/internal/ui"
)

// ClaimItem wraps a model.Claim so it can be used in a bubbles/list.
type ClaimItem struct {
	Claim model.Claim
}

// FilterValue returns the string used for fuzzy filtering.
func (i ClaimItem) FilterValue() string {
	return i.Claim.ClaimID + " " + i.Claim.PatientName() + " " + i.Claim.ProviderName()
}

// Title returns the claim id.
func (i ClaimItem) Title() string { return i.Claim.ClaimID }

// Description returns a short summary line for the list.
func (i ClaimItem) Description() string {
	parts := []string{
		i.Claim.PatientName(),
		i.Claim.ProviderName(),
		ui.Currency(i.Claim.Amount),
		i.Claim.Status.Label(),
	}
	return strings.Join(parts, " | ")
}

// ClaimDelegate implements list.ItemDelegate for rendering claim rows.
type ClaimDelegate struct{}

// Height returns the number of lines each item takes.
func (d ClaimDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ClaimDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ClaimDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single claim row:
// priority, status, id, patient, provider, amount.
func (d ClaimDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ci, ok := item.(ClaimItem)
	if !ok {
		return
	}
	c := ci.Claim

	priBadge := theme.PriorityStyle(c.Priority).Render(fmt.Sprintf("%-4s", ui.PriorityLabel(c.Priority)))
	statusBadge := theme.StatusStyle(c.Status).Render(fmt.Sprintf("%-12s", c.Status.Label()))

	gray := lipgloss.NewStyle().Foreground(theme.ColorGray)
	urgent := ""
	if strings.EqualFold(c.Urgency, "urgent") || strings.EqualFold(c.Urgency, "high") {
		urgent = lipgloss.NewStyle().Foreground(theme.ColorRed).Render(" !")
	}

	line := fmt.Sprintf(
		"%s %s %-22s %-20s %s %s%s",
		priBadge,
		statusBadge,
		c.ClaimID,
		truncate(c.PatientName(), 20),
		gray.Render(truncate(c.ProviderName(), 24)),
		ui.Currency(c.Amount),
		urgent,
	)

	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
