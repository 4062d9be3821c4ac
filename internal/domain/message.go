package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MessageStatus is the lifecycle state of a SWIFT message.
type MessageStatus string

const (
	MessageStatusPending      MessageStatus = "PENDING"
	MessageStatusSent         MessageStatus = "SENT"
	MessageStatusConfirmed    MessageStatus = "CONFIRMED"
	MessageStatusFailed       MessageStatus = "FAILED"
	MessageStatusReconciled   MessageStatus = "RECONCILED"
	MessageStatusUnreconciled MessageStatus = "UNRECONCILED"
)

var messageStatusDescriptions = map[MessageStatus]string{
	MessageStatusPending:      "Awaiting transmission",
	MessageStatusSent:         "Transmitted to SWIFT network",
	MessageStatusConfirmed:    "Confirmation received",
	MessageStatusFailed:       "Transmission failed",
	MessageStatusReconciled:   "Matched with TRMS transaction",
	MessageStatusUnreconciled: "Mismatch detected",
}

// Valid reports whether s is one of the known statuses.
func (s MessageStatus) Valid() bool {
	_, ok := messageStatusDescriptions[s]
	return ok
}

// Description returns the human readable meaning of the status.
func (s MessageStatus) Description() string {
	if d, ok := messageStatusDescriptions[s]; ok {
		return d
	}
	return "Unknown status"
}

// InFlight is true while no confirmation has been received yet.
func (s MessageStatus) InFlight() bool {
	return s == MessageStatusPending || s == MessageStatusSent
}

// MessageKind separates payment instructions from confirmations.
type MessageKind string

const (
	KindPayment      MessageKind = "PAYMENT"
	KindConfirmation MessageKind = "CONFIRMATION"
)

// KindOf derives the kind from an MT message type. MT9xx are confirmations
// and statements, everything else is treated as an instruction.
func KindOf(messageType string) MessageKind {
	if len(messageType) >= 3 && messageType[:3] == "MT9" {
		return KindConfirmation
	}
	return KindPayment
}

// SwiftMessage is a payment instruction or confirmation (MT103, MT202, MT910...).
type SwiftMessage struct {
	ID                 string          `json:"id"`
	MessageType        string          `json:"messageType"`
	Kind               MessageKind     `json:"kind"`
	SenderBIC          string          `json:"senderBIC"`
	ReceiverBIC        string          `json:"receiverBIC"`
	Amount             decimal.Decimal `json:"amount"`
	Currency           string          `json:"currency"`
	AccountID          string          `json:"accountId"`
	TransactionID      string          `json:"transactionId,omitempty"`
	Status             MessageStatus   `json:"status"`
	Reference          string          `json:"reference"`
	ValueDate          time.Time       `json:"valueDate"`
	SentTimestamp      *time.Time      `json:"sentTimestamp,omitempty"`
	ConfirmedTimestamp *time.Time      `json:"confirmedTimestamp,omitempty"`
	RawMessageContent  string          `json:"rawMessageContent,omitempty"`
	BeneficiaryName    string          `json:"beneficiaryName,omitempty"`
	BeneficiaryAccount string          `json:"beneficiaryAccount,omitempty"`
	OrderingCustomer   string          `json:"orderingCustomer,omitempty"`
	RemittanceInfo     string          `json:"remittanceInfo,omitempty"`
}

// Confirmation records an inbound confirmation (MT910, MT900) for a message.
type Confirmation struct {
	ID                  string    `json:"id"`
	SwiftMessageID      string    `json:"swiftMessageId"`
	ConfirmationType    string    `json:"confirmationType"`
	SenderBIC           string    `json:"senderBIC"`
	ReceiverBIC         string    `json:"receiverBIC"`
	ConfirmedAt         time.Time `json:"confirmedAt"`
	Status              string    `json:"status"`
	Reference           string    `json:"reference"`
	ConfirmationMessage string    `json:"confirmationMessage"`
}

// SendMessageRequest is the input for sending a new SWIFT message.
type SendMessageRequest struct {
	MessageType        string          `json:"messageType"`
	AccountID          string          `json:"accountId"`
	TransactionID      string          `json:"transactionId"`
	Amount             decimal.Decimal `json:"amount"`
	Currency           string          `json:"currency"`
	ReceiverBIC        string          `json:"receiverBIC"`
	BeneficiaryName    string          `json:"beneficiaryName"`
	BeneficiaryAccount string          `json:"beneficiaryAccount"`
	OrderingCustomer   string          `json:"orderingCustomer"`
	RemittanceInfo     string          `json:"remittanceInfo"`
	Reference          string          `json:"reference"`
}

// MessageStatusResponse answers a status query for one message.
type MessageStatusResponse struct {
	MessageID             string        `json:"messageId"`
	Status                MessageStatus `json:"status"`
	StatusDescription     string        `json:"statusDescription"`
	Details               string        `json:"details"`
	IsReconciled          bool          `json:"isReconciled"`
	ReconciliationDetails string        `json:"reconciliationDetails"`
}
