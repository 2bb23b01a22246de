package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/claims-portal/internal/model"
)

func TestRelativeTime(t *testing.T) {
	now := time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		ago  time.Duration
		want string
	}{
		{10 * time.Second, "just now"},
		{5 * time.Minute, "5m ago"},
		{3 * time.Hour, "3h ago"},
		{2 * 24 * time.Hour, "2d ago"},
		{15 * 24 * time.Hour, "2w ago"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RelativeTime(now.Add(-tt.ago), now))
	}
	assert.Empty(t, RelativeTime(time.Time{}, now))
}

func TestCurrency(t *testing.T) {
	assert.Equal(t, "$0.00", Currency(0))
	assert.Equal(t, "$999.50", Currency(999.5))
	assert.Equal(t, "$1,500.00", Currency(1500))
	assert.Equal(t, "$1,234,567.89", Currency(1234567.89))
	assert.Equal(t, "-$12.00", Currency(-12))
}

func TestRenderSummary(t *testing.T) {
	out := RenderSummary(&model.ClaimsSummary{
		TotalClaims:    12,
		PendingClaims:  4,
		ApprovedClaims: 7,
		ApprovalRate:   58.33,
	}, 200)
	assert.Contains(t, out, "12")
	assert.Contains(t, out, "58.3%")

	assert.Contains(t, RenderSummary(nil, 200), "Summary")
}

func TestLayout_RenderToastsAndBanner(t *testing.T) {
	l := NewLayout(80, 24)
	assert.Empty(t, l.RenderToasts(nil))
	assert.Empty(t, l.RenderBanner(""))

	out := l.RenderToasts([]model.Toast{
		{Type: model.ToastTypeSuccess, Title: "Data Updated", Message: "refreshed"},
	})
	assert.Contains(t, out, "Data Updated")
	assert.Contains(t, out, "refreshed")

	banner := l.RenderBanner("Failed to load dashboard data. Please try again.")
	assert.True(t, strings.Contains(banner, "Failed to load dashboard data"))
	assert.Equal(t, 22, l.ContentHeight())
}
