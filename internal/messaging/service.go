// Package messaging is the SWIFT side of the mock: sending and confirming
// payment messages, reconciling them against treasury transactions, and
// processing redemption and end-of-day report files.
package messaging

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"

	"github.com/trms/treasury-mock/internal/currency"
	"github.com/trms/treasury-mock/internal/domain"
	"github.com/trms/treasury-mock/internal/reconciliation"
	"github.com/trms/treasury-mock/internal/repository"
)

// confirmationDelay is how long after sending the mock network confirms.
const confirmationDelay = 5 * time.Second

var (
	messageTypePattern = regexp.MustCompile(`^MT\d{3}$`)
	bicPattern         = regexp.MustCompile(`^[A-Z0-9]{8}([A-Z0-9]{3})?$`)
)

// Options carries the SWIFT identity and report locations.
type Options struct {
	OurBIC               string
	DefaultReceiverBIC   string
	RedemptionReportsDir string
	EODReportsDir        string
}

type Service struct {
	msgRepo    *repository.MessageRepo
	settRepo   *repository.SettlementRepo
	txnRepo    *repository.TransactionRepo
	reportRepo *repository.ReportRepo
	opts       Options
	now        func() time.Time
}

func NewService(
	msgRepo *repository.MessageRepo,
	settRepo *repository.SettlementRepo,
	txnRepo *repository.TransactionRepo,
	reportRepo *repository.ReportRepo,
	opts Options,
) *Service {
	return &Service{
		msgRepo:    msgRepo,
		settRepo:   settRepo,
		txnRepo:    txnRepo,
		reportRepo: reportRepo,
		opts:       opts,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SendMessage builds, transmits and records a new message. The mock network
// confirms instantly, so the stored message is already CONFIRMED and an
// MT910 confirmation is recorded next to it.
func (s *Service) SendMessage(req domain.SendMessageRequest) (*domain.SwiftMessage, error) {
	if req.ReceiverBIC == "" {
		req.ReceiverBIC = s.opts.DefaultReceiverBIC
	}
	if err := validateSend(req); err != nil {
		return nil, err
	}

	now := s.now()
	ref := req.Reference
	if ref == "" {
		ref = "REF-" + uuid.NewString()[:8]
	}

	msg := domain.SwiftMessage{
		ID:                 "MSG-" + uuid.NewString(),
		MessageType:        req.MessageType,
		Kind:               domain.KindOf(req.MessageType),
		SenderBIC:          s.opts.OurBIC,
		ReceiverBIC:        req.ReceiverBIC,
		Amount:             req.Amount,
		Currency:           req.Currency,
		AccountID:          req.AccountID,
		TransactionID:      req.TransactionID,
		Status:             domain.MessageStatusSent,
		Reference:          ref,
		ValueDate:          dateOnly(now),
		SentTimestamp:      &now,
		BeneficiaryName:    req.BeneficiaryName,
		BeneficiaryAccount: req.BeneficiaryAccount,
		OrderingCustomer:   req.OrderingCustomer,
		RemittanceInfo:     req.RemittanceInfo,
	}
	msg.RawMessageContent = renderMT(&msg)

	confirmedAt := now.Add(confirmationDelay)
	msg.Status = domain.MessageStatusConfirmed
	msg.ConfirmedTimestamp = &confirmedAt

	if err := s.msgRepo.Insert(&msg); err != nil {
		return nil, fmt.Errorf("store message: %w", err)
	}
	if err := s.recordConfirmation(&msg, confirmedAt); err != nil {
		return nil, err
	}

	settlement := domain.Settlement{
		ID:                  "SET-" + uuid.NewString()[:8],
		AccountID:           msg.AccountID,
		SwiftMessageID:      msg.ID,
		Amount:              msg.Amount,
		Currency:            msg.Currency,
		SettlementType:      domain.SettlementOutgoing,
		SettlementDate:      msg.ValueDate,
		CreatedAt:           now,
		Status:              "PENDING",
		CounterpartyBIC:     msg.ReceiverBIC,
		CounterpartyAccount: msg.BeneficiaryAccount,
		Reference:           msg.Reference,
	}
	if _, err := s.settRepo.BulkInsert([]domain.Settlement{settlement}); err != nil {
		return nil, fmt.Errorf("store settlement: %w", err)
	}

	log.Infof("[messaging] sent %s %s for account %s: %s %s", msg.MessageType, msg.ID, msg.AccountID, msg.Amount.StringFixed(2), msg.Currency)
	return &msg, nil
}

// ConfirmMessage records the network confirmation of an in-flight message.
func (s *Service) ConfirmMessage(id string) (*domain.SwiftMessage, error) {
	msg, err := s.msgRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !msg.Status.InFlight() {
		return nil, fmt.Errorf("%w: message %s is %s, only in-flight messages can be confirmed", domain.ErrConflict, id, msg.Status)
	}

	now := s.now()
	if err := s.msgRepo.Confirm(id, now); err != nil {
		return nil, err
	}
	if err := s.recordConfirmation(msg, now); err != nil {
		return nil, err
	}
	msg.Status = domain.MessageStatusConfirmed
	msg.ConfirmedTimestamp = &now

	log.Infof("[messaging] confirmed %s", id)
	return msg, nil
}

func (s *Service) recordConfirmation(msg *domain.SwiftMessage, at time.Time) error {
	conf := domain.Confirmation{
		ID:                  "CONF-" + uuid.NewString()[:8],
		SwiftMessageID:      msg.ID,
		ConfirmationType:    "MT910",
		SenderBIC:           msg.ReceiverBIC,
		ReceiverBIC:         msg.SenderBIC,
		ConfirmedAt:         at,
		Status:              string(domain.MessageStatusConfirmed),
		Reference:           msg.Reference,
		ConfirmationMessage: fmt.Sprintf("Credit confirmed for %s %s", msg.Amount.StringFixed(2), msg.Currency),
	}
	if err := s.msgRepo.InsertConfirmation(&conf); err != nil {
		return fmt.Errorf("store confirmation: %w", err)
	}
	return nil
}

func (s *Service) GetMessage(id string) (*domain.SwiftMessage, error) {
	return s.msgRepo.GetByID(id)
}

func (s *Service) ListMessages() ([]domain.SwiftMessage, error) {
	return s.msgRepo.ListAll()
}

// ListByStatus lists messages in the given status.
func (s *Service) ListByStatus(status string) ([]domain.SwiftMessage, error) {
	st := domain.MessageStatus(strings.ToUpper(status))
	if !st.Valid() {
		return nil, fmt.Errorf("%w: unknown message status %q", domain.ErrInvalidInput, status)
	}
	return s.msgRepo.ListByStatus(st)
}

// Confirmations lists the confirmations received for a message.
func (s *Service) Confirmations(id string) ([]domain.Confirmation, error) {
	if _, err := s.msgRepo.GetByID(id); err != nil {
		return nil, err
	}
	return s.msgRepo.ConfirmationsByMessage(id)
}

func (s *Service) ListByAccount(accountID string) ([]domain.SwiftMessage, error) {
	return s.msgRepo.ListByAccount(accountID)
}

func (s *Service) ListByTransaction(txnID string) ([]domain.SwiftMessage, error) {
	return s.msgRepo.ListByTransaction(txnID)
}

// ListUnreconciled returns mismatched messages and confirmed messages that
// no reconciliation run has matched yet.
func (s *Service) ListUnreconciled() ([]domain.SwiftMessage, error) {
	return s.msgRepo.ListByStatus(domain.MessageStatusUnreconciled, domain.MessageStatusConfirmed)
}

func (s *Service) GetMessageStatus(id string) (*domain.MessageStatusResponse, error) {
	msg, err := s.msgRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	sent := "not sent"
	if msg.SentTimestamp != nil {
		sent = msg.SentTimestamp.Format(time.RFC3339)
	}

	isReconciled := msg.Status == domain.MessageStatusReconciled
	var details string
	switch {
	case isReconciled:
		details = "Matched with transaction: " + msg.TransactionID
	case msg.TransactionID != "":
		details = "Transaction ID exists but not reconciled"
	default:
		details = "No transaction ID linked"
	}

	return &domain.MessageStatusResponse{
		MessageID:             msg.ID,
		Status:                msg.Status,
		StatusDescription:     msg.Status.Description(),
		Details:               fmt.Sprintf("Message Type: %s, Amount: %s %s, Sent: %s", msg.MessageType, msg.Amount.StringFixed(2), msg.Currency, sent),
		IsReconciled:          isReconciled,
		ReconciliationDetails: details,
	}, nil
}

func (s *Service) ListSettlements(accountID string) ([]domain.Settlement, error) {
	return s.settRepo.ListByAccount(accountID)
}

// Reconcile runs the reconciliation engine over the requested messages and
// every treasury transaction. With AutoReconcile the resulting statuses are
// written back. Every run is recorded.
func (s *Service) Reconcile(req domain.ReconciliationRequest) (*domain.ReconciliationResult, error) {
	res, err := s.reconcile(req)
	if err != nil {
		return nil, err
	}

	if req.AutoReconcile {
		updates := make(map[string]domain.MessageStatus)
		for _, m := range res.ReconciledMessages {
			updates[m.ID] = domain.MessageStatusReconciled
		}
		for _, m := range res.UnreconciledMessages {
			updates[m.ID] = domain.MessageStatusUnreconciled
		}
		if err := s.msgRepo.UpdateStatuses(updates); err != nil {
			return nil, fmt.Errorf("persist statuses: %w", err)
		}
	}

	run := domain.ReconciliationRun{
		ID:                "RUN-" + uuid.NewString()[:8],
		AccountID:         req.AccountID,
		TotalMessages:     res.TotalMessages,
		ReconciledCount:   res.ReconciledCount,
		UnreconciledCount: res.UnreconciledCount,
		PendingCount:      res.PendingCount,
		Issues:            res.Issues,
		Summary:           res.Summary,
		RunAt:             s.now(),
	}
	if err := s.reportRepo.InsertRun(&run); err != nil {
		log.Warnf("[reconciliation] could not record run: %v", err)
	}

	log.Infof("[reconciliation] %s", res.Summary)
	return res, nil
}

// PreviewReconciliation runs the engine like Reconcile but writes nothing:
// no statuses are persisted and no run is recorded, whatever AutoReconcile
// says.
func (s *Service) PreviewReconciliation(req domain.ReconciliationRequest) (*domain.ReconciliationResult, error) {
	return s.reconcile(req)
}

func (s *Service) reconcile(req domain.ReconciliationRequest) (*domain.ReconciliationResult, error) {
	msgs, err := s.messagesFor(req)
	if err != nil {
		return nil, err
	}
	txns, err := s.txnRepo.ListAll()
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}

	log.Infof("[reconciliation] reconciling %d messages against %d transactions (account=%q)", len(msgs), len(txns), req.AccountID)
	res, err := reconciliation.Reconcile(msgs, txns)
	if err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}
	return &res, nil
}

// LatestReconciliation returns the most recently recorded run.
func (s *Service) LatestReconciliation() (*domain.ReconciliationRun, error) {
	return s.reportRepo.LatestRun()
}

func (s *Service) messagesFor(req domain.ReconciliationRequest) ([]domain.SwiftMessage, error) {
	from, err := parseDate("startDate", req.StartDate)
	if err != nil {
		return nil, err
	}
	to, err := parseDate("endDate", req.EndDate)
	if err != nil {
		return nil, err
	}

	var msgs []domain.SwiftMessage
	if req.AccountID != "" {
		msgs, err = s.msgRepo.ListByAccount(req.AccountID)
	} else {
		msgs, err = s.msgRepo.ListAll()
	}
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	if from == nil && to == nil {
		return msgs, nil
	}

	filtered := make([]domain.SwiftMessage, 0, len(msgs))
	for _, m := range msgs {
		d := dateOnly(m.ValueDate)
		if from != nil && d.Before(*from) {
			continue
		}
		if to != nil && d.After(*to) {
			continue
		}
		filtered = append(filtered, m)
	}
	return filtered, nil
}

func validateSend(req domain.SendMessageRequest) error {
	var problems []string
	if !messageTypePattern.MatchString(req.MessageType) {
		problems = append(problems, "messageType must look like MT103")
	}
	if strings.TrimSpace(req.AccountID) == "" {
		problems = append(problems, "accountId is required")
	}
	if !req.Amount.IsPositive() {
		problems = append(problems, "amount must be positive")
	}
	if !currency.Supported(req.Currency) {
		problems = append(problems, fmt.Sprintf("unsupported currency %q", req.Currency))
	}
	if !bicPattern.MatchString(req.ReceiverBIC) {
		problems = append(problems, fmt.Sprintf("invalid receiverBIC %q", req.ReceiverBIC))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(problems, "; "))
	}
	return nil
}

func parseDate(field, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be YYYY-MM-DD", domain.ErrInvalidInput, field)
	}
	return &t, nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
