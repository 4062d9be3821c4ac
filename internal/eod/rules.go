package eod

import (
	"fmt"
	"time"

	"github.com/trms/treasury-mock/internal/domain"
)

// maxListedFailures caps the per-transaction blockers; the rest are counted.
const maxListedFailures = 10

// maxMinorGap is the most data points a fresh venue may miss before the gap
// blocks EOD.
const maxMinorGap = 20

// issue is either a blocker or a warning, tagged with the order in which
// the pipeline discovered it.
type issue struct {
	blocker bool
	seq     int
	kind    string
	desc    string
	action  string
	sev     domain.IssueSeverity
}

// verdict is what one rule contributes.
type verdict struct {
	issues    []issue
	candidate domain.EODStatus
}

func (v *verdict) block(kind string, sev domain.IssueSeverity, desc, resolution string) {
	v.issues = append(v.issues, issue{blocker: true, kind: kind, desc: desc, action: resolution, sev: sev})
}

func (v *verdict) warn(kind string, sev domain.IssueSeverity, desc, recommendation string) {
	v.issues = append(v.issues, issue{kind: kind, desc: desc, action: recommendation, sev: sev})
}

// rule is one step of the readiness pipeline.
type rule struct {
	name  string
	apply func(in Input) verdict
}

// pipeline lists the rules in evaluation order. A later rule can only add
// issues or escalate the status.
var pipeline = []rule{
	{name: "signals", apply: signalsRule},
	{name: "market-data", apply: marketDataRule},
	{name: "failed-transactions", apply: failedTransactionsRule},
	{name: "pending-transactions", apply: pendingTransactionsRule},
	{name: "rate-resets", apply: rateResetsRule},
	{name: "swift-reconciliation", apply: swiftReconciliationRule},
}

func signalsRule(in Input) verdict {
	v := verdict{candidate: domain.EODReady}
	if in.MarketData == nil {
		v.block("MARKET_DATA_UNAVAILABLE", domain.SeverityHigh,
			"Market data status was not supplied",
			"Restore the market data status feed and re-run the readiness check")
		v.candidate = domain.EODUnknown
	}
	if in.TransactionStatus == nil {
		v.block("TRANSACTION_STATUS_UNAVAILABLE", domain.SeverityHigh,
			"Transaction status summary was not supplied",
			"Restore the transaction status source and re-run the readiness check")
		v.candidate = domain.EODUnknown
	}
	return v
}

func marketDataRule(in Input) verdict {
	v := verdict{candidate: domain.EODReady}
	if in.MarketData == nil {
		return v
	}
	for _, f := range in.MarketData.Feeds {
		if !f.UpToDate {
			v.block("MARKET_DATA_STALE", domain.SeverityCritical,
				fmt.Sprintf("market data not refreshed for %s", f.Venue),
				fmt.Sprintf("Refresh %s market data from %s or switch to an alternative source", f.Venue, providerOr(f.Provider)))
			v.candidate = domain.EODBlocked
			continue
		}
		if (f.Expected > 0 && f.Received == 0) || f.Missing > maxMinorGap {
			v.block("MARKET_DATA_INCOMPLETE", domain.SeverityHigh,
				fmt.Sprintf("%s is missing %d of %d data points", f.Venue, f.Missing, f.Expected),
				fmt.Sprintf("Contact %s or use alternative sources for %s", providerOr(f.Provider), f.Venue))
			v.candidate = v.candidate.Worse(domain.EODNotReady)
			continue
		}
		if f.Missing > 0 {
			v.warn("MINOR_MARKET_DATA_GAPS", domain.SeverityLow,
				fmt.Sprintf("%s is missing %d of %d data points", f.Venue, f.Missing, f.Expected),
				"Acceptable for EOD processing but monitor for trends")
		}
	}
	return v
}

func failedTransactionsRule(in Input) verdict {
	v := verdict{candidate: domain.EODReady}
	if in.TransactionStatus == nil {
		return v
	}
	ts := in.TransactionStatus

	total := ts.Failed
	if len(ts.FailedTransactions) > total {
		total = len(ts.FailedTransactions)
	}
	if total == 0 {
		return v
	}

	listed := 0
	for _, tx := range ts.FailedTransactions {
		if listed == maxListedFailures {
			break
		}
		v.block("FAILED_TRANSACTION", domain.SeverityHigh,
			fmt.Sprintf("Transaction %s (%s %s) is in FAILED state", tx.TransactionID, tx.Amount.StringFixed(2), tx.Currency),
			fmt.Sprintf("Investigate and reprocess transaction %s", tx.TransactionID))
		listed++
	}
	if rest := total - listed; rest > 0 {
		v.block("FAILED_TRANSACTIONS", domain.SeverityHigh,
			fmt.Sprintf("%d further transactions in FAILED state not listed", rest),
			"Investigate and reprocess the remaining failed transactions")
	}
	v.candidate = domain.EODPartialReady
	return v
}

func pendingTransactionsRule(in Input) verdict {
	v := verdict{candidate: domain.EODReady}
	if in.TransactionStatus == nil || in.TransactionStatus.Pending == 0 {
		return v
	}
	v.warn("PENDING_TRANSACTIONS", domain.SeverityMedium,
		fmt.Sprintf("%d transactions pending booking", in.TransactionStatus.Pending),
		"Monitor settlement progress or investigate delays")
	return v
}

func rateResetsRule(in Input) verdict {
	v := verdict{candidate: domain.EODReady}
	today := dateOf(in.AsOf)
	for _, r := range in.RateResets {
		if r.HasFixing() {
			continue
		}
		due := r.FixingDate.Format(time.DateOnly)
		if !dateOf(r.FixingDate).After(today) {
			v.block("MISSING_RATE_RESET", domain.SeverityHigh,
				fmt.Sprintf("No fixing for %s (%s) due %s", r.InstrumentID, r.IndexName, due),
				fmt.Sprintf("Provide or approve a %s fixing for %s", r.IndexName, r.InstrumentID))
			continue
		}
		v.warn("UPCOMING_RATE_RESET", domain.SeverityLow,
			fmt.Sprintf("upcoming fixing due %s for %s", due, r.InstrumentID),
			"Prepare a rate fixing proposal before the fixing date")
	}
	return v
}

func swiftReconciliationRule(in Input) verdict {
	v := verdict{candidate: domain.EODReady}
	if in.Swift != nil && !in.Swift.SwiftServiceAvailable {
		v.warn("SWIFT_SERVICE_UNAVAILABLE", domain.SeverityHigh,
			"SWIFT service could not be reached",
			"Verify the SWIFT service is running and re-run reconciliation")
		v.candidate = domain.EODPartialReady
	}
	if in.TransactionStatus == nil || in.TransactionStatus.UnreconciledMessages == 0 {
		return v
	}
	v.block("SWIFT_UNRECONCILED", domain.SeverityHigh,
		fmt.Sprintf("%d SWIFT messages not reconciled with TRMS transactions", in.TransactionStatus.UnreconciledMessages),
		"Run SWIFT reconciliation or manually resolve discrepancies")
	return v
}

func providerOr(p string) string {
	if p == "" {
		return "the provider"
	}
	return p
}

// dateOf truncates t to its calendar date.
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
