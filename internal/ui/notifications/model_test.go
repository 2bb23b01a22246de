package notifications

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/claims-portal/internal/keys"
	"github.com/nhle/claims-portal/internal/model"
	"github.com/nhle/claims-portal/internal/store"
	"github.com/nhle/claims-portal/internal/testutil"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// loaded builds a panel over a store seeded with two notifications, the
// second one newer.
func loaded(t *testing.T) (Model, store.NotificationStore) {
	t.Helper()
	clock := testutil.NewClock(time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC))
	s := testutil.NewTestStore(t, store.WithClock(clock.Now))
	ctx := context.Background()

	_, err := s.AddNotification(ctx, model.NotificationDraft{
		Type: model.NotificationTypeClaim, Title: "New Claim Received",
		Message: "Claim CLM-1 from Ann Lee - $1500", Data: &model.NotificationData{ClaimID: "CLM-1"},
	})
	require.NoError(t, err)
	clock.Advance(time.Minute)
	_, err = s.AddNotification(ctx, model.NotificationDraft{
		Type: model.NotificationTypeWarning, Title: "Claim Denied",
		Message: "Claim CLM-2 status changed to denied", Data: &model.NotificationData{ClaimID: "CLM-2"},
	})
	require.NoError(t, err)

	m := New(s, keys.DefaultKeyMap(), 100, 30)
	m.now = clock.Now
	m = apply(t, m, m.Init())
	return m, s
}

// apply runs cmd and feeds a non-batch result back into m.
func apply(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	require.NotNil(t, cmd)
	m, _ = m.Update(cmd())
	return m
}

func TestLoad_NewestFirst(t *testing.T) {
	m, _ := loaded(t)

	require.Len(t, m.Notifications(), 2)
	assert.Equal(t, "Claim Denied", m.Notifications()[0].Title)
	out := m.View()
	assert.Contains(t, out, "Claim CLM-2 status changed to denied")
	assert.Contains(t, out, "1m ago")
}

func TestMarkReadAndAll(t *testing.T) {
	m, s := loaded(t)
	ctx := context.Background()

	m, cmd := m.Update(runes("m"))
	m = apply(t, m, cmd)
	count, err := s.UnreadCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	m, cmd = m.Update(runes("M"))
	_ = apply(t, m, cmd)
	has, err := s.HasUnread(ctx)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestRemoveSelected(t *testing.T) {
	m, s := loaded(t)

	m, _ = m.Update(runes("j"))
	m, cmd := m.Update(runes("x"))
	_ = apply(t, m, cmd)

	all, err := s.GetNotifications(context.Background(), store.NotificationFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Claim Denied", all[0].Title)
}

func TestSelectOpensClaimAndMarksRead(t *testing.T) {
	m, _ := loaded(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok)

	var opened string
	for _, c := range batch {
		if msg, ok := c().(OpenClaimMsg); ok {
			opened = msg.ClaimID
		}
	}
	assert.Equal(t, "CLM-2", opened)
}

func TestUnreadOnlyToggle(t *testing.T) {
	m, s := loaded(t)
	require.NoError(t, s.MarkAllAsRead(context.Background()))

	m, cmd := m.Update(runes("u"))
	m = apply(t, m, cmd)
	assert.Empty(t, m.Notifications())
	assert.Contains(t, m.View(), "(unread)")
}

func TestClearAllAsksForConfirmation(t *testing.T) {
	m, _ := loaded(t)

	m, _ = m.Update(runes("C"))
	assert.Equal(t, modeConfirmClear, m.mode)
	assert.Contains(t, m.View(), "Clear all notifications?")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, modeList, m.mode)
	assert.Len(t, m.Notifications(), 2)
}

func TestCloseKeys(t *testing.T) {
	m, _ := loaded(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.IsType(t, CloseMsg{}, cmd())
}

func TestClaimRefFallsBackToMessage(t *testing.T) {
	assert.Equal(t, "CLM-1", claimRef(model.Notification{Data: &model.NotificationData{ClaimID: "CLM-1"}}))
	assert.Equal(t, "CLM-5", claimRef(model.Notification{Message: "Claim CLM-5 status changed to approved"}))
	assert.Empty(t, claimRef(model.Notification{Message: "Dashboard data has been refreshed successfully"}))
}
