package domain

import "github.com/shopspring/decimal"

type RedemptionItem struct {
	AccountID          string          `json:"accountId"`
	BeneficiaryName    string          `json:"beneficiaryName"`
	BeneficiaryAccount string          `json:"beneficiaryAccount"`
	Amount             decimal.Decimal `json:"amount"`
	Currency           string          `json:"currency"`
	Reference          string          `json:"reference"`
	Status             string          `json:"status"`
	ErrorMessage       string          `json:"errorMessage,omitempty"`
}

type RedemptionReportResult struct {
	ReportFileName      string           `json:"reportFileName"`
	Checksum            string           `json:"checksum"`
	PreviouslyProcessed bool             `json:"previouslyProcessed"`
	TotalRedemptions    int              `json:"totalRedemptions"`
	ProcessedCount      int              `json:"processedCount"`
	FailedCount         int              `json:"failedCount"`
	TotalAmount         decimal.Decimal  `json:"totalAmount"`
	Currency            string           `json:"currency"`
	Redemptions         []RedemptionItem `json:"redemptions"`
	Errors              []string         `json:"errors"`
	Summary             string           `json:"summary"`
}

type ReportCheck struct {
	ReportName string `json:"reportName"`
	ReportType string `json:"reportType"`
	Exists     bool   `json:"exists"`
	IsValid    bool   `json:"isValid"`
	Status     string `json:"status"`
	Details    string `json:"details"`
}

type EODReportVerificationResult struct {
	ReportDate     string        `json:"reportDate"`
	IsComplete     bool          `json:"isComplete"`
	TotalChecks    int           `json:"totalChecks"`
	PassedChecks   int           `json:"passedChecks"`
	FailedChecks   int           `json:"failedChecks"`
	Checks         []ReportCheck `json:"checks"`
	MissingReports []string      `json:"missingReports"`
	Issues         []string      `json:"issues"`
	Summary        string        `json:"summary"`
}
