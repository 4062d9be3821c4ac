package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus is the booking state of a treasury transaction.
type TransactionStatus string

const (
	TxStatusNew       TransactionStatus = "NEW"
	TxStatusPending   TransactionStatus = "PENDING"
	TxStatusValidated TransactionStatus = "VALIDATED"
	TxStatusSettled   TransactionStatus = "SETTLED"
	TxStatusFailed    TransactionStatus = "FAILED"
	TxStatusCancelled TransactionStatus = "CANCELLED"
	TxStatusRejected  TransactionStatus = "REJECTED"
	TxStatusProposal  TransactionStatus = "PROPOSAL"
)

// Booked reports whether the transaction has been settled on the books.
func (s TransactionStatus) Booked() bool { return s == TxStatusSettled }

// AwaitingBooking covers transactions still moving towards settlement.
func (s TransactionStatus) AwaitingBooking() bool {
	return s == TxStatusNew || s == TxStatusPending || s == TxStatusValidated
}

type TransactionType string

const (
	TxTypeTransfer           TransactionType = "TRANSFER"
	TxTypePayment            TransactionType = "PAYMENT"
	TxTypeFXSettlement       TransactionType = "FX_SETTLEMENT"
	TxTypeCollateralMovement TransactionType = "COLLATERAL_MOVEMENT"
	TxTypeInterestPayment    TransactionType = "INTEREST_PAYMENT"
	TxTypeFeePayment         TransactionType = "FEE_PAYMENT"
)

// Transaction is a treasury-side booked movement. FromAccount is the account
// the reconciliation engine matches payment messages against.
type Transaction struct {
	TransactionID    string            `json:"transactionId"`
	FromAccount      string            `json:"fromAccount"`
	ToAccount        string            `json:"toAccount"`
	Amount           decimal.Decimal   `json:"amount"`
	Currency         string            `json:"currency"`
	Status           TransactionStatus `json:"status"`
	Type             TransactionType   `json:"type,omitempty"`
	Description      string            `json:"description,omitempty"`
	Reference        string            `json:"reference,omitempty"`
	CreatedAt        time.Time         `json:"createdAt"`
	ValueDate        *time.Time        `json:"valueDate,omitempty"`
	SettledAt        *time.Time        `json:"settledAt,omitempty"`
	ReasonCode       string            `json:"reasonCode,omitempty"`
	SettlementMethod string            `json:"settlementMethod,omitempty"`
}

// CreateTransactionRequest is the input for booking a new transaction.
type CreateTransactionRequest struct {
	FromAccount      string          `json:"fromAccount"`
	ToAccount        string          `json:"toAccount"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	Description      string          `json:"description"`
	Reference        string          `json:"reference"`
	SettlementMethod string          `json:"settlementMethod"`
}

// TransactionStatusSummary is the transaction-processing readiness signal.
type TransactionStatusSummary struct {
	Total                int                       `json:"total"`
	Booked               int                       `json:"booked"`
	Pending              int                       `json:"pending"`
	Failed               int                       `json:"failed"`
	StatusCounts         map[TransactionStatus]int `json:"statusCounts"`
	PendingTransactions  []Transaction             `json:"pendingTransactions"`
	FailedTransactions   []Transaction             `json:"failedTransactions"`
	UnreconciledMessages int                       `json:"unreconciledMessages"`
	CompletionPercentage float64                   `json:"completionPercentage"`
	LastUpdated          time.Time                 `json:"lastUpdated"`
}
