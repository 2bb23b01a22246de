package payor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/nhle/claims-portal/internal/model"
)

// ClaimsQuery selects a page of claims. Empty or "all" filters are omitted.
type ClaimsQuery struct {
	Page     int
	Limit    int
	Priority string
	Status   string
	Search   string
}

// encode renders the query string for GET /claims/.
func (q ClaimsQuery) encode() string {
	page := q.Page
	if page < 1 {
		page = 1
	}
	limit := q.Limit
	if limit < 1 {
		limit = 20
	}

	v := url.Values{}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	v.Set("page", strconv.Itoa(page))
	v.Set("limit", strconv.Itoa(limit))
	if q.Priority != "" && q.Priority != "all" {
		v.Set("priority", q.Priority)
	}
	if q.Status != "" && q.Status != "all" {
		v.Set("status", q.Status)
	}
	return v.Encode()
}

// GetClaims retrieves a page of claims for the authenticated payor, in
// the order the backend returns them.
func (c *Client) GetClaims(ctx context.Context, q ClaimsQuery) (*ClaimsPage, error) {
	var page ClaimsPage
	if err := c.get(ctx, "/claims/?"+q.encode(), &page); err != nil {
		return nil, fmt.Errorf("fetching claims: %w", err)
	}
	if page.Results == nil {
		page.Results = []model.Claim{}
	}
	return &page, nil
}

// SearchClaims finds claims matching term.
func (c *Client) SearchClaims(ctx context.Context, term string, page, limit int) (*ClaimsPage, error) {
	return c.GetClaims(ctx, ClaimsQuery{Search: term, Page: page, Limit: limit})
}

// GetClaim retrieves a single claim by its claim id.
func (c *Client) GetClaim(ctx context.Context, claimID string) (*model.Claim, error) {
	var raw json.RawMessage
	if err := c.get(ctx, "/claims/"+url.PathEscape(claimID)+"/", &raw); err != nil {
		return nil, fmt.Errorf("fetching claim %s: %w", claimID, err)
	}

	var env claimEnvelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Claim != nil {
		return env.Claim, nil
	}

	var claim model.Claim
	if err := json.Unmarshal(raw, &claim); err != nil {
		return nil, fmt.Errorf("decoding claim %s: %w", claimID, err)
	}
	return &claim, nil
}

// UpdateClaimStatus records a reviewer decision for a claim.
func (c *Client) UpdateClaimStatus(
	ctx context.Context,
	claimID string,
	update model.ClaimStatusUpdate,
) error {
	path := "/claims/" + url.PathEscape(claimID) + "/status/"
	if err := c.post(ctx, path, update, nil); err != nil {
		return fmt.Errorf("updating claim %s status: %w", claimID, err)
	}
	return nil
}

// GetAnalytics retrieves the latest analytics snapshot.
func (c *Client) GetAnalytics(ctx context.Context) (*model.Analytics, error) {
	var resp analyticsResponse
	if err := c.get(ctx, "/analytics/", &resp); err != nil {
		return nil, fmt.Errorf("fetching analytics: %w", err)
	}
	return &resp.Analytics, nil
}

// GetClaimsSummary retrieves claim counts by status.
func (c *Client) GetClaimsSummary(ctx context.Context) (*model.ClaimsSummary, error) {
	var resp summaryResponse
	if err := c.get(ctx, "/claims/summary/", &resp); err != nil {
		return nil, fmt.Errorf("fetching claims summary: %w", err)
	}
	return &resp.Summary, nil
}

// GetPreAuthRequests retrieves a page of pre-authorization requests.
func (c *Client) GetPreAuthRequests(ctx context.Context, page, limit int) ([]model.PreAuthRequest, error) {
	q := ClaimsQuery{Page: page, Limit: limit}
	var resp preAuthPage
	if err := c.get(ctx, "/pre-auth/?"+q.encode(), &resp); err != nil {
		return nil, fmt.Errorf("fetching pre-auth requests: %w", err)
	}
	return resp.Requests, nil
}

// EvaluatePreAuth asks the backend to evaluate pre-authorization for a
// claim against a policy. The rules are applied server-side.
func (c *Client) EvaluatePreAuth(
	ctx context.Context,
	claim model.Claim,
	policyNumber string,
) (*model.PreAuthDecision, error) {
	body := preAuthEvaluateRequest{ClaimData: claim, PolicyNumber: policyNumber}

	var decision model.PreAuthDecision
	if err := c.post(ctx, "/pre-auth/evaluate/", body, &decision); err != nil {
		return nil, fmt.Errorf("evaluating pre-auth for %s: %w", claim.ClaimID, err)
	}
	return &decision, nil
}

// GetInsurancePolicies lists the payor's insurance policies.
func (c *Client) GetInsurancePolicies(ctx context.Context) ([]model.InsurancePolicy, error) {
	var resp policiesResponse
	if err := c.get(ctx, "/policies/", &resp); err != nil {
		return nil, fmt.Errorf("fetching policies: %w", err)
	}
	return resp.Policies, nil
}

// AuthenticatePayor exchanges credentials for JWT tokens.
func (c *Client) AuthenticatePayor(ctx context.Context, email, password string) (*LoginResponse, error) {
	var resp LoginResponse
	err := c.post(ctx, "/login/", LoginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return nil, fmt.Errorf("authenticating payor %s: %w", email, err)
	}
	if resp.AccessToken == "" {
		return nil, &AuthError{Message: "login response carried no access token"}
	}
	return &resp, nil
}

// Logout notifies the backend that the session ended.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.post(ctx, "/logout/", struct{}{}, nil); err != nil {
		return fmt.Errorf("logging out: %w", err)
	}
	return nil
}

// Health checks backend availability.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var status HealthStatus
	if err := c.get(ctx, "/health/", &status); err != nil {
		return nil, fmt.Errorf("checking health: %w", err)
	}
	return &status, nil
}
