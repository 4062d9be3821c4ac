// Package reconciliation matches SWIFT payment messages against treasury
// transactions. The engine is a pure function of its inputs.
package reconciliation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/trms/treasury-mock/internal/domain"
)

// ErrNilInput is returned when a mandatory collection is absent.
var ErrNilInput = errors.New("reconciliation: nil input collection")

// Reconcile classifies every message as reconciled, unreconciled or pending.
// Each transaction backs at most one message; the first message (in input
// order) to match it wins. Neither slice is modified.
func Reconcile(messages []domain.SwiftMessage, txns []domain.Transaction) (domain.ReconciliationResult, error) {
	if messages == nil || txns == nil {
		return domain.ReconciliationResult{}, ErrNilInput
	}

	res := domain.ReconciliationResult{
		TotalMessages:        len(messages),
		ReconciledMessages:   make([]domain.SwiftMessage, 0),
		UnreconciledMessages: make([]domain.SwiftMessage, 0),
		PendingMessages:      make([]domain.SwiftMessage, 0),
		Outcomes:             make([]domain.ReconciliationOutcome, 0, len(messages)),
		Issues:               make([]string, 0),
	}

	consumed := make([]bool, len(txns))

	// Messages reconciled in an earlier run keep their transaction so it
	// cannot back a second message in this run.
	claimed := make(map[int]string)
	for i, msg := range messages {
		if msg.Status != domain.MessageStatusReconciled || len(missingFields(msg)) > 0 {
			continue
		}
		if idx := candidates(msg, txns, consumed); len(idx) > 0 {
			consumed[idx[0]] = true
			claimed[i] = txns[idx[0]].TransactionID
		}
	}

	for i, msg := range messages {
		out := classify(i, msg, txns, consumed, claimed)
		res.Outcomes = append(res.Outcomes, out)
		if out.Issue != "" {
			res.Issues = append(res.Issues, out.Issue)
		}

		switch out.Outcome {
		case domain.OutcomeReconciled:
			msg.Status = domain.MessageStatusReconciled
			res.ReconciledMessages = append(res.ReconciledMessages, msg)
		case domain.OutcomeUnreconciled:
			msg.Status = domain.MessageStatusUnreconciled
			res.UnreconciledMessages = append(res.UnreconciledMessages, msg)
		default:
			res.PendingMessages = append(res.PendingMessages, msg)
		}
	}

	res.ReconciledCount = len(res.ReconciledMessages)
	res.UnreconciledCount = len(res.UnreconciledMessages)
	res.PendingCount = len(res.PendingMessages)
	res.Summary = fmt.Sprintf("Reconciled: %d, Unreconciled: %d, Pending: %d",
		res.ReconciledCount, res.UnreconciledCount, res.PendingCount)

	return res, nil
}

func classify(i int, msg domain.SwiftMessage, txns []domain.Transaction, consumed []bool, claimed map[int]string) domain.ReconciliationOutcome {
	out := domain.ReconciliationOutcome{MessageID: msg.ID}

	// In-flight messages have no confirmation yet and are never unreconciled.
	if msg.Status.InFlight() {
		out.Outcome = domain.OutcomePending
		return out
	}

	if missing := missingFields(msg); len(missing) > 0 {
		out.Outcome = domain.OutcomeUnreconciled
		out.Issue = fmt.Sprintf("Message %s is missing required field(s): %s",
			msg.ID, strings.Join(missing, ", "))
		return out
	}

	switch msg.Status {
	case domain.MessageStatusReconciled:
		out.Outcome = domain.OutcomeReconciled
		out.TransactionID = claimed[i]
		return out
	case domain.MessageStatusFailed:
		out.Outcome = domain.OutcomeUnreconciled
		out.Issue = fmt.Sprintf("Message %s transmission failed (account %s, %s %s)",
			msg.ID, msg.AccountID, msg.Amount.StringFixed(2), msg.Currency)
		return out
	}

	idx := candidates(msg, txns, consumed)
	switch len(idx) {
	case 0:
		out.Outcome = domain.OutcomeUnreconciled
		out.Issue = fmt.Sprintf("Message %s: no treasury transaction matches %s %s on account %s (ref %q)",
			msg.ID, msg.Amount.StringFixed(2), msg.Currency, msg.AccountID, msg.Reference)
	case 1:
		consumed[idx[0]] = true
		out.Outcome = domain.OutcomeReconciled
		out.TransactionID = txns[idx[0]].TransactionID
	default:
		ids := make([]string, 0, len(idx))
		for _, j := range idx {
			ids = append(ids, txns[j].TransactionID)
		}
		out.Outcome = domain.OutcomeUnreconciled
		out.Issue = fmt.Sprintf("Message %s: ambiguous match, %d transactions fit %s %s on account %s (%s)",
			msg.ID, len(idx), msg.Amount.StringFixed(2), msg.Currency, msg.AccountID, strings.Join(ids, ", "))
	}
	return out
}

// candidates returns the indexes of unconsumed transactions matching msg.
func candidates(msg domain.SwiftMessage, txns []domain.Transaction, consumed []bool) []int {
	var idx []int
	for j, tx := range txns {
		if consumed[j] {
			continue
		}
		if matches(msg, tx) {
			idx = append(idx, j)
		}
	}
	return idx
}

func matches(msg domain.SwiftMessage, tx domain.Transaction) bool {
	if tx.FromAccount != msg.AccountID || tx.Currency != msg.Currency || !tx.Amount.Equal(msg.Amount) {
		return false
	}
	sameRef := msg.Reference != "" && tx.Reference == msg.Reference
	sameID := msg.TransactionID != "" && tx.TransactionID == msg.TransactionID
	return sameRef || sameID
}

func missingFields(msg domain.SwiftMessage) []string {
	var missing []string
	if strings.TrimSpace(msg.AccountID) == "" {
		missing = append(missing, "accountId")
	}
	if !msg.Amount.IsPositive() {
		missing = append(missing, "amount")
	}
	if strings.TrimSpace(msg.Currency) == "" {
		missing = append(missing, "currency")
	}
	return missing
}
