package payor

import "github.com/nhle/claims-portal/internal/model"

// errorResponse is the backend's error body.
type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

// ClaimsPage is the response from GET /claims/.
type ClaimsPage struct {
	Success bool          `json:"success"`
	Results []model.Claim `json:"results"`
	Page    int           `json:"page"`
	Limit   int           `json:"limit"`
	Total   int           `json:"total"`
	PayorID string        `json:"payor_id"`
}

// analyticsResponse is the response from GET /analytics/.
type analyticsResponse struct {
	Success   bool            `json:"success"`
	Analytics model.Analytics `json:"analytics"`
}

// summaryResponse is the response from GET /claims/summary/.
type summaryResponse struct {
	Success bool                `json:"success"`
	Summary model.ClaimsSummary `json:"summary"`
}

// preAuthPage is the response from GET /pre-auth/.
type preAuthPage struct {
	Success  bool                   `json:"success"`
	Requests []model.PreAuthRequest `json:"preauth_requests"`
	Page     int                    `json:"page"`
	Limit    int                    `json:"limit"`
	Total    int                    `json:"total"`
}

// policiesResponse is the response from GET /policies/.
type policiesResponse struct {
	Success  bool                    `json:"success"`
	Policies []model.InsurancePolicy `json:"policies"`
}

// claimEnvelope wraps a single claim. The backend answers either with
// {"claim": {...}} or with the bare claim object.
type claimEnvelope struct {
	Claim *model.Claim `json:"claim"`
}

// LoginRequest is the body of POST /login/.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the response from POST /login/.
type LoginResponse struct {
	Success       bool              `json:"success"`
	Authenticated bool              `json:"authenticated"`
	Message       string            `json:"message"`
	PayorID       string            `json:"payor_id"`
	Email         string            `json:"email"`
	Name          string            `json:"name"`
	Organization  string            `json:"organization"`
	ContactInfo   map[string]string `json:"contact_info"`
	AccessToken   string            `json:"access_token"`
	RefreshToken  string            `json:"refresh_token"`
}

// Payor returns the profile portion of the login response.
func (r LoginResponse) Payor() model.Payor {
	return model.Payor{
		PayorID:      r.PayorID,
		Email:        r.Email,
		Name:         r.Name,
		Organization: r.Organization,
		ContactInfo:  r.ContactInfo,
	}
}

// preAuthEvaluateRequest is the body of POST /pre-auth/evaluate/.
type preAuthEvaluateRequest struct {
	ClaimData    model.Claim `json:"claim_data"`
	PolicyNumber string      `json:"policy_number"`
}

// HealthStatus is the response from GET /health/.
type HealthStatus struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
}
