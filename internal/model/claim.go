package model

import "strings"

// ClaimStatus is the adjudication state of a claim as reported by the
// payor backend. The set is open: unknown values are carried through as-is.
type ClaimStatus string

const (
	ClaimStatusPending     ClaimStatus = "pending"
	ClaimStatusApproved    ClaimStatus = "approved"
	ClaimStatusDenied      ClaimStatus = "denied"
	ClaimStatusProcessing  ClaimStatus = "processing"
	ClaimStatusUnderReview ClaimStatus = "under_review"
)

// Label returns a human-readable form of the status ("under review").
func (s ClaimStatus) Label() string {
	if s == "" {
		return "unknown"
	}
	return strings.ReplaceAll(string(s), "_", " ")
}

// ClaimPriority is the review priority assigned to a claim.
type ClaimPriority string

const (
	ClaimPriorityHigh   ClaimPriority = "high"
	ClaimPriorityMedium ClaimPriority = "medium"
	ClaimPriorityLow    ClaimPriority = "low"
)

// Patient identifies the member a claim was filed for.
type Patient struct {
	Name        string `json:"name"`
	ID          string `json:"id"`
	InsuranceID string `json:"insurance_id"`
}

// Provider identifies the submitting care provider.
type Provider struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// Claim is one claim snapshot as returned by the claims endpoint.
// Snapshots are immutable; every fetch supersedes the previous set.
type Claim struct {
	// ClaimID is unique within a single fetch (e.g. "CLM-20240101-a1b2c3").
	ClaimID string `json:"claim_id"`

	Patient  *Patient  `json:"patient,omitempty"`
	Provider *Provider `json:"provider,omitempty"`

	// Amount is the billed amount in dollars.
	Amount float64 `json:"amount"`

	Status   ClaimStatus   `json:"status"`
	Priority ClaimPriority `json:"priority"`

	// SubmittedDate is kept as the backend's raw timestamp string.
	SubmittedDate string `json:"submitted_date,omitempty"`
	Urgency       string `json:"urgency,omitempty"`
	PreAuthStatus string `json:"preauth_status,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

// PatientName returns the patient's name, or "Unknown Patient" when the
// backend omitted it.
func (c Claim) PatientName() string {
	if c.Patient == nil || c.Patient.Name == "" {
		return "Unknown Patient"
	}
	return c.Patient.Name
}

// ProviderName returns the provider's name, or "Unknown Provider".
func (c Claim) ProviderName() string {
	if c.Provider == nil || c.Provider.Name == "" {
		return "Unknown Provider"
	}
	return c.Provider.Name
}

// ClaimStatusUpdate is the payload for a reviewer decision on a claim.
type ClaimStatusUpdate struct {
	Status ClaimStatus `json:"status"`
	Notes  string      `json:"notes,omitempty"`

	// ApprovedAmount is sent as a decimal string, only for approvals.
	ApprovedAmount string `json:"approved_amount,omitempty"`
}
