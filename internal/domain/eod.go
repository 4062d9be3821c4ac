package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EODStatus is the overall end-of-day verdict.
type EODStatus string

const (
	EODReady        EODStatus = "READY"
	EODNotReady     EODStatus = "NOT_READY"
	EODPartialReady EODStatus = "PARTIAL_READY"
	EODBlocked      EODStatus = "BLOCKED"
	EODUnknown      EODStatus = "UNKNOWN"
)

var eodStatusRank = map[EODStatus]int{
	EODReady:        0,
	EODPartialReady: 1,
	EODNotReady:     2,
	EODUnknown:      3,
	EODBlocked:      4,
}

// Rank orders statuses from READY (0) to BLOCKED (4). Stale market data
// outranks an absent signal.
func (s EODStatus) Rank() int {
	if r, ok := eodStatusRank[s]; ok {
		return r
	}
	return eodStatusRank[EODUnknown]
}

// Worse returns the more severe of s and other.
func (s EODStatus) Worse(other EODStatus) EODStatus {
	if other.Rank() > s.Rank() {
		return other
	}
	return s
}

// IssueSeverity is totally ordered: CRITICAL > HIGH > MEDIUM > LOW > INFO.
type IssueSeverity string

const (
	SeverityCritical IssueSeverity = "CRITICAL"
	SeverityHigh     IssueSeverity = "HIGH"
	SeverityMedium   IssueSeverity = "MEDIUM"
	SeverityLow      IssueSeverity = "LOW"
	SeverityInfo     IssueSeverity = "INFO"
)

var severityRank = map[IssueSeverity]int{
	SeverityCritical: 4,
	SeverityHigh:     3,
	SeverityMedium:   2,
	SeverityLow:      1,
	SeverityInfo:     0,
}

var severityWeight = map[IssueSeverity]float64{
	SeverityCritical: 40,
	SeverityHigh:     20,
	SeverityMedium:   10,
	SeverityLow:      5,
	SeverityInfo:     1,
}

// Rank is higher for more severe issues.
func (s IssueSeverity) Rank() int { return severityRank[s] }

// Weight is the readiness score penalty of one issue at this severity.
func (s IssueSeverity) Weight() float64 { return severityWeight[s] }

// AtLeast reports whether s is as severe as other or more.
func (s IssueSeverity) AtLeast(other IssueSeverity) bool { return s.Rank() >= other.Rank() }

type BlockerIssue struct {
	Type        string        `json:"type"`
	Description string        `json:"description"`
	Resolution  string        `json:"resolution"`
	Severity    IssueSeverity `json:"severity"`
}

type WarningIssue struct {
	Type           string        `json:"type"`
	Description    string        `json:"description"`
	Recommendation string        `json:"recommendation"`
	Severity       IssueSeverity `json:"severity"`
}

// SwiftReconciliationStatus is the payment-messaging section of an EOD check.
type SwiftReconciliationStatus struct {
	TotalMessages         int    `json:"totalMessages"`
	ReconciledCount       int    `json:"reconciledCount"`
	UnreconciledCount     int    `json:"unreconciledCount"`
	PendingCount          int    `json:"pendingCount"`
	IsComplete            bool   `json:"isComplete"`
	Summary               string `json:"summary"`
	SwiftServiceAvailable bool   `json:"swiftServiceAvailable"`
}

// EODCheckResult is the immutable outcome of one readiness evaluation.
type EODCheckResult struct {
	Ready               bool                       `json:"ready"`
	OverallStatus       EODStatus                  `json:"overallStatus"`
	Blockers            []BlockerIssue             `json:"blockers"`
	Warnings            []WarningIssue             `json:"warnings"`
	RequiredActions     []string                   `json:"requiredActions"`
	ReadinessPercentage float64                    `json:"readinessPercentage"`
	CheckTime           time.Time                  `json:"checkTime"`
	Summary             string                     `json:"summary"`
	MarketDataStatus    *MarketDataStatus          `json:"marketDataStatus,omitempty"`
	TransactionStatus   *TransactionStatusSummary  `json:"transactionStatus,omitempty"`
	MissingResets       []RateReset                `json:"missingResets"`
	SwiftReconciliation *SwiftReconciliationStatus `json:"swiftReconciliation,omitempty"`
}

type ProposeFixingsRequest struct {
	InstrumentIDs []string   `json:"instrumentIds"`
	FixingDate    *time.Time `json:"fixingDate,omitempty"`
	IndexName     string     `json:"indexName"`
	Source        string     `json:"source"`
	AutoApprove   bool       `json:"autoApprove"`
}

type EODRunRequest struct {
	BusinessDate   *time.Time `json:"businessDate,omitempty"`
	ForceRun       bool       `json:"forceRun"`
	SkipValidation bool       `json:"skipValidation"`
	InitiatedBy    string     `json:"initiatedBy"`
}

// EODRunResult reports whether an EOD run was executed and its step log.
type EODRunResult struct {
	BusinessDate time.Time       `json:"businessDate"`
	Executed     bool            `json:"executed"`
	Log          string          `json:"log"`
	Readiness    *EODCheckResult `json:"readiness,omitempty"`
}

// RateStatus is the fixing state of a floating-rate reset.
type RateStatus string

const (
	RateMissing  RateStatus = "MISSING"
	RateProposed RateStatus = "PROPOSED"
	RateApproved RateStatus = "APPROVED"
	RateRejected RateStatus = "REJECTED"
	RateApplied  RateStatus = "APPLIED"
)

// RateReset is an instrument awaiting (or holding) a rate fixing.
type RateReset struct {
	InstrumentID string              `json:"instrumentId"`
	IndexName    string              `json:"indexName"`
	FixingDate   time.Time           `json:"fixingDate"`
	Notional     decimal.Decimal     `json:"notional"`
	Currency     string              `json:"currency"`
	ProposedRate decimal.NullDecimal `json:"proposedRate"`
	CurrentRate  decimal.NullDecimal `json:"currentRate"`
	Status       RateStatus          `json:"status"`
	Tenor        string              `json:"tenor,omitempty"`
	CreatedAt    time.Time           `json:"createdAt"`
	ApprovedAt   *time.Time          `json:"approvedAt,omitempty"`
	ApprovedBy   string              `json:"approvedBy,omitempty"`
	Source       string              `json:"source,omitempty"`
	Description  string              `json:"description,omitempty"`
}

// HasFixing is true once a rate has been approved or applied.
func (r RateReset) HasFixing() bool {
	return r.Status == RateApproved || r.Status == RateApplied
}
