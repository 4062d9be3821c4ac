package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type SettlementType string

const (
	SettlementIncoming SettlementType = "INCOMING"
	SettlementOutgoing SettlementType = "OUTGOING"
)

// Settlement is the cash leg produced by a SWIFT payment.
type Settlement struct {
	ID                  string          `json:"id"`
	AccountID           string          `json:"accountId"`
	SwiftMessageID      string          `json:"swiftMessageId"`
	Amount              decimal.Decimal `json:"amount"`
	Currency            string          `json:"currency"`
	SettlementType      SettlementType  `json:"settlementType"`
	SettlementDate      time.Time       `json:"settlementDate"`
	CreatedAt           time.Time       `json:"createdAt"`
	Status              string          `json:"status"`
	CounterpartyBIC     string          `json:"counterpartyBIC"`
	CounterpartyAccount string          `json:"counterpartyAccount"`
	Reference           string          `json:"reference"`
}
