package model

// ClaimsTrendPoint is one month of the claims trend series.
type ClaimsTrendPoint struct {
	Month    string `json:"month"`
	Claims   int    `json:"claims"`
	Approved int    `json:"approved"`
}

// ProcedureCount is a procedure code with its claim count.
type ProcedureCount struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// CostAnalysis summarises paid amounts.
type CostAnalysis struct {
	TotalPaid          float64   `json:"total_paid"`
	AverageClaimAmount float64   `json:"average_claim_amount"`
	MonthlyTrend       []float64 `json:"monthly_trend"`
}

// Analytics is the payor analytics snapshot.
type Analytics struct {
	ClaimsTrend   []ClaimsTrendPoint `json:"claims_trend"`
	TopProcedures []ProcedureCount   `json:"top_procedures"`
	CostAnalysis  CostAnalysis       `json:"cost_analysis"`
}

// ClaimsSummary holds claim counts by status for the payor.
type ClaimsSummary struct {
	TotalClaims    int     `json:"total_claims"`
	PendingClaims  int     `json:"pending_claims"`
	ApprovedClaims int     `json:"approved_claims"`
	RejectedClaims int     `json:"rejected_claims"`
	TotalAmount    float64 `json:"total_amount"`
	ApprovalRate   float64 `json:"approval_rate"`
}
