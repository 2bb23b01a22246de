package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/claims-portal/internal/model"
	"github.com/nhle/claims-portal/internal/theme"
)

// RelativeTime returns a human-friendly age of t as seen at now.
func RelativeTime(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return fmt.Sprintf("%dw ago", int(d.Hours()/24/7))
	}
}

// Currency formats a dollar amount with thousands separators: $12,345.67.
func Currency(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	s := strconv.FormatFloat(v, 'f', 2, 64)
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	out := "$" + b.String() + "." + frac
	if neg {
		out = "-" + out
	}
	return out
}

// PriorityLabel returns a short badge for a claim priority.
func PriorityLabel(p model.ClaimPriority) string {
	switch p {
	case model.ClaimPriorityHigh:
		return "HIGH"
	case model.ClaimPriorityMedium:
		return "MED"
	case model.ClaimPriorityLow:
		return "LOW"
	default:
		return "STD"
	}
}

// RenderSummary renders the summary strip shown above the claims list.
// A nil summary renders placeholders.
func RenderSummary(s *model.ClaimsSummary, width int) string {
	label := lipgloss.NewStyle().Foreground(theme.ColorGray)
	value := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)

	card := func(name, v string) string {
		return theme.SummaryCardStyle.Render(label.Render(name) + " " + value.Render(v))
	}

	if s == nil {
		return card("Summary", "—")
	}

	cards := []string{
		card("Total", strconv.Itoa(s.TotalClaims)),
		card("Pending", strconv.Itoa(s.PendingClaims)),
		card("Approved", strconv.Itoa(s.ApprovedClaims)),
		card("Rejected", strconv.Itoa(s.RejectedClaims)),
		card("Amount", Currency(s.TotalAmount)),
		card("Approval", fmt.Sprintf("%.1f%%", s.ApprovalRate)),
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top, cards...)
	if lipgloss.Width(row) > width && width > 0 {
		row = lipgloss.JoinHorizontal(lipgloss.Top, cards[:3]...)
	}
	return row
}
