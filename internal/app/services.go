package app

import (
	"context"

	"github.com/nhle/claims-portal/internal/model"
	"github.com/nhle/claims-portal/internal/payor"
	"github.com/nhle/claims-portal/internal/session"
)

// Auth manages the payor session.
type Auth interface {
	// Principal returns the signed-in payor, or nil.
	Principal() *model.Payor
	Login(ctx context.Context, email, password string) (*model.Payor, error)
	Logout(ctx context.Context) error
}

// ClaimsService is the part of the payor API the dashboard writes to or
// queries on demand.
type ClaimsService interface {
	UpdateClaimStatus(ctx context.Context, claimID string, update model.ClaimStatusUpdate) error
	EvaluatePreAuth(ctx context.Context, claim model.Claim, policyNumber string) (*model.PreAuthDecision, error)
	GetInsurancePolicies(ctx context.Context) ([]model.InsurancePolicy, error)
	SearchClaims(ctx context.Context, term string, page, limit int) (*payor.ClaimsPage, error)
}

// SessionAuth adapts a session.Session and the client it authenticates
// against to Auth.
type SessionAuth struct {
	Session *session.Session
	Client  *payor.Client
}

// Principal returns the session's payor.
func (a SessionAuth) Principal() *model.Payor {
	return a.Session.Principal()
}

// Login authenticates and stores the session.
func (a SessionAuth) Login(ctx context.Context, email, password string) (*model.Payor, error) {
	return a.Session.Login(ctx, a.Client, email, password)
}

// Logout clears the stored session.
func (a SessionAuth) Logout(ctx context.Context) error {
	return a.Session.Logout(ctx, a.Client)
}
