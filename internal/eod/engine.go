// Package eod evaluates end-of-day readiness from market data, transaction
// and rate-reset signals, and drives the EOD workflow around it.
package eod

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/trms/treasury-mock/internal/domain"
)

// ErrNilInput is returned when the rate-reset collection itself is absent.
var ErrNilInput = errors.New("eod: nil rate reset collection")

// maxPossibleScore is the weighted issue score at which readiness hits zero.
const maxPossibleScore = 100.0

// Input is a point-in-time snapshot of the readiness signals. A nil
// MarketData or TransactionStatus means the signal is absent. Swift is
// optional; when given, an unavailable SWIFT service is reported.
type Input struct {
	MarketData        *domain.MarketDataStatus
	TransactionStatus *domain.TransactionStatusSummary
	RateResets        []domain.RateReset
	Swift             *domain.SwiftReconciliationStatus
	AsOf              time.Time
}

// Evaluate runs the rule pipeline and assembles the readiness verdict.
func Evaluate(in Input) (domain.EODCheckResult, error) {
	if in.RateResets == nil {
		return domain.EODCheckResult{}, ErrNilInput
	}
	if in.AsOf.IsZero() {
		in.AsOf = time.Now()
	}

	var issues []issue
	status := domain.EODReady
	for _, r := range pipeline {
		v := r.apply(in)
		for _, is := range v.issues {
			is.seq = len(issues)
			issues = append(issues, is)
		}
		status = status.Worse(v.candidate)
	}
	status = status.Worse(derive(issues))

	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].sev.Rank() > issues[j].sev.Rank()
	})

	res := domain.EODCheckResult{
		OverallStatus:       status,
		Ready:               status == domain.EODReady,
		Blockers:            make([]domain.BlockerIssue, 0),
		Warnings:            make([]domain.WarningIssue, 0),
		RequiredActions:     requiredActions(issues),
		ReadinessPercentage: score(issues),
		CheckTime:           in.AsOf,
		MarketDataStatus:    in.MarketData,
		TransactionStatus:   in.TransactionStatus,
		SwiftReconciliation: in.Swift,
		MissingResets:       make([]domain.RateReset, 0),
	}
	for _, is := range issues {
		if is.blocker {
			res.Blockers = append(res.Blockers, domain.BlockerIssue{
				Type: is.kind, Description: is.desc, Resolution: is.action, Severity: is.sev,
			})
		} else {
			res.Warnings = append(res.Warnings, domain.WarningIssue{
				Type: is.kind, Description: is.desc, Recommendation: is.action, Severity: is.sev,
			})
		}
	}
	for _, r := range in.RateResets {
		if !r.HasFixing() {
			res.MissingResets = append(res.MissingResets, r)
		}
	}
	res.Summary = summarize(res)

	return res, nil
}

// derive maps the collected issues onto a status.
func derive(issues []issue) domain.EODStatus {
	status := domain.EODReady
	for _, is := range issues {
		switch {
		case is.blocker && is.sev == domain.SeverityCritical:
			status = status.Worse(domain.EODBlocked)
		case is.blocker && is.sev == domain.SeverityHigh:
			status = status.Worse(domain.EODNotReady)
		case is.blocker, is.sev.AtLeast(domain.SeverityMedium):
			status = status.Worse(domain.EODPartialReady)
		}
	}
	return status
}

// score is order independent: it only sums severity weights.
func score(issues []issue) float64 {
	var weighted float64
	for _, is := range issues {
		weighted += is.sev.Weight()
	}
	pct := 100 * (1 - weighted/maxPossibleScore)
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// requiredActions expects issues already sorted by severity and discovery.
func requiredActions(issues []issue) []string {
	actions := make([]string, 0)
	seen := make(map[string]bool)
	for _, is := range issues {
		if !is.blocker && !is.sev.AtLeast(domain.SeverityHigh) {
			continue
		}
		if is.action == "" || seen[is.action] {
			continue
		}
		seen[is.action] = true
		actions = append(actions, is.action)
	}
	return actions
}

func summarize(res domain.EODCheckResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "EOD Status: %s (%.0f%% ready)", res.OverallStatus, res.ReadinessPercentage)
	fmt.Fprintf(&b, "; %d blocker(s), %d warning(s)", len(res.Blockers), len(res.Warnings))

	if md := res.MarketDataStatus; md != nil {
		fmt.Fprintf(&b, "; market data %d/%d received", md.Received, md.Expected)
	} else {
		b.WriteString("; market data unavailable")
	}
	if ts := res.TransactionStatus; ts != nil {
		fmt.Fprintf(&b, "; transactions %.1f%% complete", ts.CompletionPercentage)
	} else {
		b.WriteString("; transaction status unavailable")
	}
	fmt.Fprintf(&b, "; %d rate reset(s) without fixing", len(res.MissingResets))

	switch res.OverallStatus {
	case domain.EODReady:
		b.WriteString(". All systems are ready for EOD processing.")
	case domain.EODUnknown:
		b.WriteString(". Readiness cannot be determined until all signals are available.")
	default:
		b.WriteString(". Review required actions before proceeding with EOD.")
	}
	return b.String()
}
