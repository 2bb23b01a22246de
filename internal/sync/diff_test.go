package sync

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/nhle/claims-portal/internal/model"
)

func TestDeriveNotifications_StatusChangeAndNewClaim(t *testing.T) {
	previous := []model.Claim{claim("CLM-1", model.ClaimStatusPending)}
	next := []model.Claim{
		claim("CLM-1", model.ClaimStatusApproved),
		claim("CLM-2", model.ClaimStatusPending),
	}

	got := DeriveNotifications(previous, next)
	want := []model.NotificationDraft{
		{
			Type:    model.NotificationTypeClaim,
			Title:   "New Claim Received",
			Message: "Claim CLM-2 from Patient CLM-2 - $1500",
			Data:    &model.NotificationData{ClaimID: "CLM-2"},
		},
		{
			Type:    model.NotificationTypeApproval,
			Title:   "Claim Approved",
			Message: "Claim CLM-1 status changed to approved",
			Data:    &model.NotificationData{ClaimID: "CLM-1"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DeriveNotifications mismatch (-want +got):\n%s", diff)
	}
}

func TestDeriveNotifications_StatusClassification(t *testing.T) {
	tests := []struct {
		status    model.ClaimStatus
		wantType  model.NotificationType
		wantTitle string
	}{
		{model.ClaimStatusApproved, model.NotificationTypeApproval, "Claim Approved"},
		{model.ClaimStatusDenied, model.NotificationTypeWarning, "Claim Denied"},
		{model.ClaimStatusProcessing, model.NotificationTypeClaim, "Claim Status Updated"},
		{model.ClaimStatusUnderReview, model.NotificationTypeClaim, "Claim Status Updated"},
		{"escalated", model.NotificationTypeClaim, "Claim Status Updated"},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			got := DeriveNotifications(
				[]model.Claim{claim("CLM-9", model.ClaimStatusPending)},
				[]model.Claim{claim("CLM-9", tt.status)},
			)
			if assert.Len(t, got, 1) {
				assert.Equal(t, tt.wantType, got[0].Type)
				assert.Equal(t, tt.wantTitle, got[0].Title)
				assert.Equal(t, "Claim CLM-9 status changed to "+string(tt.status), got[0].Message)
				assert.Equal(t, "CLM-9", got[0].Data.ClaimID)
			}
		})
	}
}

func TestDeriveNotifications_IdenticalSetsProduceNothing(t *testing.T) {
	claims := []model.Claim{
		claim("CLM-1", model.ClaimStatusPending),
		claim("CLM-2", model.ClaimStatusDenied),
	}
	assert.Empty(t, DeriveNotifications(claims, claims))
}

func TestDeriveNotifications_RemovedClaimsAreIgnored(t *testing.T) {
	previous := []model.Claim{
		claim("CLM-1", model.ClaimStatusPending),
		claim("CLM-2", model.ClaimStatusPending),
	}
	next := []model.Claim{claim("CLM-2", model.ClaimStatusPending)}

	assert.Empty(t, DeriveNotifications(previous, next))
}

func TestDeriveNotifications_NewClaimMessage(t *testing.T) {
	noPatient := model.Claim{ClaimID: "CLM-7", Amount: 1234.5, Status: model.ClaimStatusPending}
	emptyName := model.Claim{ClaimID: "CLM-8", Patient: &model.Patient{}, Amount: 99.99}

	got := DeriveNotifications([]model.Claim{claim("CLM-1", model.ClaimStatusPending)},
		[]model.Claim{noPatient, emptyName})

	if assert.Len(t, got, 2) {
		assert.Equal(t, "Claim CLM-7 from Unknown Patient - $1234.5", got[0].Message)
		assert.Equal(t, "Claim CLM-8 from Unknown Patient - $99.99", got[1].Message)
	}
}

func TestDeriveNotifications_OrderFollowsNext(t *testing.T) {
	previous := []model.Claim{
		claim("CLM-A", model.ClaimStatusPending),
		claim("CLM-B", model.ClaimStatusPending),
	}
	next := []model.Claim{
		claim("CLM-B", model.ClaimStatusDenied),
		claim("CLM-Z", model.ClaimStatusPending),
		claim("CLM-A", model.ClaimStatusApproved),
		claim("CLM-Y", model.ClaimStatusPending),
	}

	var ids []string
	for _, d := range DeriveNotifications(previous, next) {
		ids = append(ids, d.Data.ClaimID)
	}
	assert.Equal(t, []string{"CLM-Z", "CLM-Y", "CLM-B", "CLM-A"}, ids)

	again := DeriveNotifications(previous, next)
	assert.Empty(t, cmp.Diff(DeriveNotifications(previous, next), again))
}
