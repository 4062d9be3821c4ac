package domain

import "time"

// Outcome is the per-message reconciliation verdict.
type Outcome string

const (
	OutcomeReconciled   Outcome = "RECONCILED"
	OutcomeUnreconciled Outcome = "UNRECONCILED"
	OutcomePending      Outcome = "PENDING"
)

// ReconciliationOutcome traces the verdict for exactly one message.
type ReconciliationOutcome struct {
	MessageID     string  `json:"messageId"`
	Outcome       Outcome `json:"outcome"`
	TransactionID string  `json:"transactionId,omitempty"`
	Issue         string  `json:"issue,omitempty"`
}

// ReconciliationResult aggregates one reconciliation pass. Every input
// message lands in exactly one of the three message lists.
type ReconciliationResult struct {
	TotalMessages        int                     `json:"totalMessages"`
	ReconciledCount      int                     `json:"reconciledCount"`
	UnreconciledCount    int                     `json:"unreconciledCount"`
	PendingCount         int                     `json:"pendingCount"`
	ReconciledMessages   []SwiftMessage          `json:"reconciledMessages"`
	UnreconciledMessages []SwiftMessage          `json:"unreconciledMessages"`
	PendingMessages      []SwiftMessage          `json:"pendingMessages"`
	Outcomes             []ReconciliationOutcome `json:"outcomes"`
	Issues               []string                `json:"issues"`
	Summary              string                  `json:"summary"`
}

// ReconciliationRequest scopes a reconciliation run. An empty AccountID
// reconciles every message.
type ReconciliationRequest struct {
	AccountID     string `json:"accountId"`
	StartDate     string `json:"startDate"`
	EndDate       string `json:"endDate"`
	AutoReconcile bool   `json:"autoReconcile"`
}

// ReconciliationRun is a stored reconciliation result.
type ReconciliationRun struct {
	ID                string    `json:"id"`
	AccountID         string    `json:"accountId,omitempty"`
	TotalMessages     int       `json:"totalMessages"`
	ReconciledCount   int       `json:"reconciledCount"`
	UnreconciledCount int       `json:"unreconciledCount"`
	PendingCount      int       `json:"pendingCount"`
	Issues            []string  `json:"issues"`
	Summary           string    `json:"summary"`
	RunAt             time.Time `json:"runAt"`
}
