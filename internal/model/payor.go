package model

// Payor is the authenticated insurance-company principal.
type Payor struct {
	PayorID      string            `json:"payor_id"`
	Email        string            `json:"email"`
	Name         string            `json:"name"`
	Organization string            `json:"organization"`
	ContactInfo  map[string]string `json:"contact_info,omitempty"`
}

// PreAuthRequest is a pending or decided pre-authorization request.
type PreAuthRequest struct {
	ID            string `json:"id"`
	MemberName    string `json:"member_name"`
	Procedure     string `json:"procedure"`
	Provider      string `json:"provider"`
	RequestedDate string `json:"requested_date"`
	Status        string `json:"status"`
	Urgency       string `json:"urgency"`
}

// PreAuthDecision is the opaque result of a server-side pre-authorization
// evaluation.
type PreAuthDecision struct {
	Approved bool   `json:"approved"`
	Status   string `json:"status"`
	Message  string `json:"message"`
}

// InsurancePolicy is a policy held by the payor.
type InsurancePolicy struct {
	PolicyNumber string  `json:"policy_number"`
	Name         string  `json:"name"`
	PolicyType   string  `json:"policy_type"`
	Coverage     float64 `json:"coverage_amount"`
	Status       string  `json:"status"`
}
