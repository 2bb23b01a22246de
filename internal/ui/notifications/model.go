package notifications

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/claims-portal/internal/crossref"
	"github.com/nhle/claims-portal/internal/keys"
	"github.com/nhle/claims-portal/internal/model"
	"github.com/nhle/claims-portal/internal/store"
	"github.com/nhle/claims-portal/internal/theme"
	"github.com/nhle/claims-portal/internal/ui"
)

// CloseMsg signals the parent to close the notifications panel.
type CloseMsg struct{}

// ChangedMsg signals that notifications were marked, removed or cleared.
type ChangedMsg struct{}

// OpenClaimMsg asks the parent to show the claim a notification refers to.
type OpenClaimMsg struct {
	ClaimID string
}

type panelMode int

const (
	modeList panelMode = iota
	modeConfirmClear
)

type loadedMsg struct {
	notifications []model.Notification
	err           error
}

type mutatedMsg struct {
	status string
	err    error
}

type confirmBinding struct {
	confirm bool
}

// Model is the notifications panel.
type Model struct {
	mode          panelMode
	store         store.NotificationStore
	keys          *keys.KeyMap
	notifications []model.Notification
	selectedIdx   int
	unreadOnly    bool
	confirmForm   *huh.Form
	cb            *confirmBinding
	statusMsg     string
	now           func() time.Time
	width         int
	height        int
}

// New creates a notifications panel backed by s.
func New(s store.NotificationStore, k *keys.KeyMap, width, height int) Model {
	return Model{
		mode:   modeList,
		store:  s,
		keys:   k,
		cb:     &confirmBinding{},
		now:    time.Now,
		width:  width,
		height: height,
	}
}

// Init loads notifications from the store.
func (m Model) Init() tea.Cmd {
	return m.Load()
}

// Load returns a command that reloads the list with the current filter.
func (m Model) Load() tea.Cmd {
	s, filter := m.store, store.NotificationFilter{UnreadOnly: m.unreadOnly}
	return func() tea.Msg {
		n, err := s.GetNotifications(context.Background(), filter)
		return loadedMsg{notifications: n, err: err}
	}
}

// Notifications returns the loaded entries, newest first.
func (m Model) Notifications() []model.Notification {
	return m.notifications
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}
		m.notifications = msg.notifications
		if m.selectedIdx >= len(m.notifications) {
			m.selectedIdx = max(len(m.notifications)-1, 0)
		}
		return m, nil

	case mutatedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.statusMsg = msg.status
		}
		m.mode = modeList
		return m, tea.Batch(m.Load(), func() tea.Msg { return ChangedMsg{} })

	case tea.KeyMsg:
		if m.mode == modeConfirmClear {
			return m.updateConfirm(msg)
		}
		return m.handleListKey(msg)
	}

	if m.mode == modeConfirmClear {
		return m.updateConfirm(msg)
	}
	return m, nil
}

func (m Model) handleListKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Notifications):
		return m, func() tea.Msg { return CloseMsg{} }

	case key.Matches(msg, m.keys.Down):
		if len(m.notifications) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.notifications)
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if len(m.notifications) > 0 {
			m.selectedIdx = (m.selectedIdx - 1 + len(m.notifications)) % len(m.notifications)
		}
		return m, nil

	case key.Matches(msg, m.keys.Select):
		n, ok := m.selected()
		if !ok {
			return m, nil
		}
		cmds := []tea.Cmd{}
		if !n.Read {
			cmds = append(cmds, m.mutate("", func(ctx context.Context) error {
				return m.store.MarkAsRead(ctx, n.ID)
			}))
		}
		if id := claimRef(n); id != "" {
			cmds = append(cmds, func() tea.Msg { return OpenClaimMsg{ClaimID: id} })
		}
		return m, tea.Batch(cmds...)

	case key.Matches(msg, m.keys.MarkRead):
		n, ok := m.selected()
		if !ok || n.Read {
			return m, nil
		}
		return m, m.mutate("Marked as read", func(ctx context.Context) error {
			return m.store.MarkAsRead(ctx, n.ID)
		})

	case key.Matches(msg, m.keys.MarkAllRead):
		return m, m.mutate("All notifications marked as read", m.store.MarkAllAsRead)

	case key.Matches(msg, m.keys.Remove):
		n, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, m.mutate("Notification removed", func(ctx context.Context) error {
			return m.store.RemoveNotification(ctx, n.ID)
		})

	case key.Matches(msg, m.keys.ClearAll):
		if len(m.notifications) == 0 {
			return m, nil
		}
		m.cb = &confirmBinding{}
		m.confirmForm = huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Clear all notifications?").
					Affirmative("Clear").
					Negative("Cancel").
					Value(&m.cb.confirm),
			),
		).WithWidth(max(min(m.width-4, 60), 20))
		m.mode = modeConfirmClear
		return m, m.confirmForm.Init()

	case key.Matches(msg, m.keys.UnreadOnly):
		m.unreadOnly = !m.unreadOnly
		m.selectedIdx = 0
		return m, m.Load()
	}
	return m, nil
}

func (m Model) updateConfirm(msg tea.Msg) (Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
		m.mode = modeList
		m.confirmForm = nil
		return m, nil
	}

	mdl, cmd := m.confirmForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.confirmForm = f
	}

	switch m.confirmForm.State {
	case huh.StateCompleted:
		m.mode = modeList
		m.confirmForm = nil
		if m.cb.confirm {
			return m, m.mutate("Notifications cleared", m.store.ClearAll)
		}
		return m, nil
	case huh.StateAborted:
		m.mode = modeList
		m.confirmForm = nil
		return m, nil
	}
	return m, cmd
}

func (m Model) mutate(status string, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return mutatedMsg{status: status, err: fn(context.Background())}
	}
}

// claimRef returns the claim a notification is about, falling back to
// the first claim id in its message for entries stored without data.
func claimRef(n model.Notification) string {
	if id := n.ClaimID(); id != "" {
		return id
	}
	if ids := crossref.ExtractClaimIDs(n.Message); len(ids) > 0 {
		return ids[0]
	}
	return ""
}

func (m Model) selected() (model.Notification, bool) {
	if m.selectedIdx < 0 || m.selectedIdx >= len(m.notifications) {
		return model.Notification{}, false
	}
	return m.notifications[m.selectedIdx], true
}

// View renders the panel.
func (m Model) View() string {
	if m.mode == modeConfirmClear && m.confirmForm != nil {
		return lipgloss.NewStyle().Padding(1, 2).Render(m.confirmForm.View())
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1)
	title := "Notifications"
	if m.unreadOnly {
		title += " (unread)"
	}

	lines := []string{titleStyle.Render(title)}
	if len(m.notifications) == 0 {
		lines = append(lines, theme.HelpStyle.Render("No notifications."))
	}

	now := m.now()
	for i, n := range m.notifications {
		lines = append(lines, m.renderItem(n, i == m.selectedIdx, now))
	}

	if m.statusMsg != "" {
		lines = append(lines, "", theme.HelpStyle.Render(m.statusMsg))
	}

	return theme.DetailPanelStyle.
		Width(max(m.width-4, 10)).
		Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m Model) renderItem(n model.Notification, selected bool, now time.Time) string {
	marker := "●"
	if n.Read {
		marker = " "
	}
	head := fmt.Sprintf("%s %s  %s",
		theme.NotificationStyle(n.Type).Render(marker),
		theme.NotificationStyle(n.Type).Render(n.Title),
		theme.HelpStyle.Render(ui.RelativeTime(n.Timestamp, now)),
	)
	body := "  " + strings.TrimSpace(n.Message)
	line := head + "\n" + body
	if n.Read {
		line = theme.DimmedStyle.Render(line)
	}
	if selected {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}

// SetSize updates the panel dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
