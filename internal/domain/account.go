package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type AccountType string

const (
	AccountCash       AccountType = "CASH"
	AccountTrading    AccountType = "TRADING"
	AccountSettlement AccountType = "SETTLEMENT"
	AccountNostro     AccountType = "NOSTRO"
	AccountVostro     AccountType = "VOSTRO"
	AccountCollateral AccountType = "COLLATERAL"
)

type AccountStatus string

const (
	AccountActive   AccountStatus = "ACTIVE"
	AccountInactive AccountStatus = "INACTIVE"
	AccountFrozen   AccountStatus = "FROZEN"
	AccountClosed   AccountStatus = "CLOSED"
)

type Account struct {
	AccountID   string        `json:"accountId"`
	AccountName string        `json:"accountName"`
	Currency    string        `json:"currency"`
	AccountType AccountType   `json:"accountType"`
	Status      AccountStatus `json:"status"`
	Description string        `json:"description,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	LastUpdated time.Time     `json:"lastUpdated"`
}

type AccountBalance struct {
	AccountID        string          `json:"accountId"`
	AvailableBalance decimal.Decimal `json:"availableBalance"`
	CurrentBalance   decimal.Decimal `json:"currentBalance"`
	PendingBalance   decimal.Decimal `json:"pendingBalance"`
	Currency         string          `json:"currency"`
	USDEquivalent    decimal.Decimal `json:"usdEquivalent"`
	AsOf             time.Time       `json:"asOf"`
}
