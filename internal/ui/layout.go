package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/claims-portal/internal/model"
	"github.com/nhle/claims-portal/internal/theme"
)

// Layout manages the dashboard frame dimensions.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StatusBarHeight int
}

// NewLayout creates a Layout with the given terminal dimensions.
// HeaderHeight and StatusBarHeight default to 1.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
	}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the height available for the main content area,
// accounting for the header and status bar.
func (l Layout) ContentHeight() int {
	return l.Height - l.HeaderHeight - l.StatusBarHeight
}

// RenderHeader renders the top bar with a title on the left and sync
// status on the right.
func (l Layout) RenderHeader(title string, syncStatus string) string {
	titleRendered := theme.HeaderStyle.Render(title)
	statusRendered := theme.HeaderStyle.
		Align(lipgloss.Right).
		Render(syncStatus)

	gap := max(l.Width-lipgloss.Width(titleRendered)-lipgloss.Width(statusRendered), 0)
	filler := lipgloss.NewStyle().
		Width(gap).
		Background(theme.HeaderStyle.GetBackground()).
		Render("")

	return lipgloss.JoinHorizontal(lipgloss.Top, titleRendered, filler, statusRendered)
}

// RenderStatusBar renders the bottom status bar with keyboard hints.
func (l Layout) RenderStatusBar(hints string) string {
	rendered := theme.StatusBarStyle.Render(hints)

	gap := max(l.Width-lipgloss.Width(rendered), 0)
	filler := lipgloss.NewStyle().
		Width(gap).
		Background(theme.StatusBarStyle.GetBackground()).
		Render("")

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered, filler)
}

// RenderBanner renders a full-width error line, or "" when msg is empty.
func (l Layout) RenderBanner(msg string) string {
	if msg == "" {
		return ""
	}
	return theme.ErrorBannerStyle.Width(l.Width).Render("✗ " + msg + "  (press r to retry)")
}

// RenderToasts stacks active toasts, newest last, right-aligned.
func (l Layout) RenderToasts(toasts []model.Toast) string {
	if len(toasts) == 0 {
		return ""
	}
	boxWidth := min(48, max(l.Width-2, 10))

	var boxes []string
	for _, t := range toasts {
		var b strings.Builder
		if t.Title != "" {
			b.WriteString(lipgloss.NewStyle().Bold(true).Render(t.Title))
			b.WriteString("\n")
		}
		b.WriteString(t.Message)
		boxes = append(boxes, theme.ToastStyle(t.Type).Width(boxWidth).Render(b.String()))
	}

	stack := lipgloss.JoinVertical(lipgloss.Right, boxes...)
	return lipgloss.PlaceHorizontal(l.Width, lipgloss.Right, stack)
}

// RenderWithFrame composes a full terminal view by vertically joining the
// header, optional banner, content, optional toasts and status bar.
func (l Layout) RenderWithFrame(header, banner, content, toasts, statusBar string) string {
	parts := []string{header}
	if banner != "" {
		parts = append(parts, banner)
	}
	parts = append(parts, content)
	if toasts != "" {
		parts = append(parts, toasts)
	}
	parts = append(parts, statusBar)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
