package sync

import (
	"fmt"
	"strconv"

	"github.com/nhle/claims-portal/internal/model"
)

// DeriveNotifications compares two consecutive claim snapshots and returns
// the notifications the change warrants: one per claim id that is new in
// next, then one per claim id whose status changed. Both groups follow the
// order of next.
func DeriveNotifications(previous, next []model.Claim) []model.NotificationDraft {
	prevByID := make(map[string]model.Claim, len(previous))
	for _, c := range previous {
		prevByID[c.ClaimID] = c
	}

	var drafts []model.NotificationDraft
	for _, c := range next {
		if _, seen := prevByID[c.ClaimID]; !seen {
			drafts = append(drafts, newClaimDraft(c))
		}
	}
	for _, c := range next {
		old, seen := prevByID[c.ClaimID]
		if seen && old.Status != c.Status {
			drafts = append(drafts, statusChangeDraft(c))
		}
	}
	return drafts
}

func newClaimDraft(c model.Claim) model.NotificationDraft {
	return model.NotificationDraft{
		Type:    model.NotificationTypeClaim,
		Title:   "New Claim Received",
		Message: fmt.Sprintf("Claim %s from %s - $%s", c.ClaimID, c.PatientName(), formatAmount(c.Amount)),
		Data:    &model.NotificationData{ClaimID: c.ClaimID},
	}
}

func statusChangeDraft(c model.Claim) model.NotificationDraft {
	typ, title := model.NotificationTypeClaim, "Claim Status Updated"
	switch c.Status {
	case model.ClaimStatusApproved:
		typ, title = model.NotificationTypeApproval, "Claim Approved"
	case model.ClaimStatusDenied:
		typ, title = model.NotificationTypeWarning, "Claim Denied"
	}
	return model.NotificationDraft{
		Type:    typ,
		Title:   title,
		Message: fmt.Sprintf("Claim %s status changed to %s", c.ClaimID, c.Status),
		Data:    &model.NotificationData{ClaimID: c.ClaimID},
	}
}

// formatAmount renders the shortest exact decimal: 1500, 1500.5, 99.99.
func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
