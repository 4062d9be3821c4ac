package eod

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/shopspring/decimal"

	"github.com/trms/treasury-mock/internal/domain"
)

// MarketDataStore keeps the latest delivery of every market data venue.
type MarketDataStore interface {
	List() ([]domain.FeedStatus, error)
	Upsert(f *domain.FeedStatus) error
}

// TransactionSource summarizes treasury transaction booking.
type TransactionSource interface {
	StatusSummary() (*domain.TransactionStatusSummary, error)
}

// RateResetStore holds the floating-rate resets.
type RateResetStore interface {
	List() ([]domain.RateReset, error)
	ListMissing() ([]domain.RateReset, error)
	GetByInstrument(instrumentID string) (*domain.RateReset, error)
	Update(rr *domain.RateReset) error
	BulkInsert(resets []domain.RateReset) (int, error)
}

// Reconciler previews a reconciliation of payment messages against treasury
// transactions without recording it.
type Reconciler interface {
	PreviewReconciliation(req domain.ReconciliationRequest) (*domain.ReconciliationResult, error)
}

// baseRates are the mock index levels, in percent.
var baseRates = map[string]decimal.Decimal{
	"USD-LIBOR-3M":   decimal.RequireFromString("5.25"),
	"EUR-EURIBOR-6M": decimal.RequireFromString("3.75"),
	"GBP-SONIA":      decimal.RequireFromString("4.95"),
}

var defaultBaseRate = decimal.RequireFromString("4.50")

const (
	defaultIndex     = "USD-LIBOR-3M"
	defaultSource    = "Bloomberg"
	autoApprover     = "ai-system"
	refusedRunNotice = "EOD run cannot proceed. Readiness check failed. Use forceRun=true to override."
)

var defaultNotional = decimal.NewFromInt(5000000)

// Service gathers the readiness signals, evaluates them and drives the
// EOD workflow.
type Service struct {
	market     MarketDataStore
	txns       TransactionSource
	resets     RateResetStore
	reconciler Reconciler
	maxAge     time.Duration
	now        func() time.Time
}

func NewService(market MarketDataStore, txns TransactionSource, resets RateResetStore, reconciler Reconciler, maxAge time.Duration) *Service {
	return &Service{
		market:     market,
		txns:       txns,
		resets:     resets,
		reconciler: reconciler,
		maxAge:     maxAge,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// MarketDataStatus judges every venue's freshness against the maximum age.
// It returns nil when no venue is configured.
func (s *Service) MarketDataStatus() (*domain.MarketDataStatus, error) {
	feeds, err := s.market.List()
	if err != nil {
		return nil, fmt.Errorf("load market data feeds: %w", err)
	}
	return s.summarize(feeds, s.now()), nil
}

func (s *Service) summarize(feeds []domain.FeedStatus, now time.Time) *domain.MarketDataStatus {
	if len(feeds) == 0 {
		return nil
	}

	md := &domain.MarketDataStatus{Feeds: make([]domain.FeedStatus, 0, len(feeds)), Complete: true, CheckedAt: now}
	for _, f := range feeds {
		s.judge(&f, now)
		md.Expected += f.Expected
		md.Received += f.Received
		md.Missing += f.Missing
		if !f.UpToDate || f.Missing > 0 {
			md.Complete = false
		}
		md.Feeds = append(md.Feeds, f)
	}
	if stale := md.StaleVenues(); len(stale) > 0 {
		log.Warnf("[eod] stale market data: %s", strings.Join(stale, ", "))
	}
	return md
}

func (s *Service) judge(f *domain.FeedStatus, now time.Time) {
	f.UpToDate = now.Sub(f.LastUpdate) <= s.maxAge
	switch {
	case f.Received == 0:
		f.Status = domain.FeedFailed
	case !f.UpToDate:
		f.Status = domain.FeedDelayed
	case f.Missing > 0:
		f.Status = domain.FeedIncomplete
	default:
		f.Status = domain.FeedHealthy
	}
	if f.MissingItems == nil {
		f.MissingItems = make([]string, 0)
	}
}

func (s *Service) TransactionStatus() (*domain.TransactionStatusSummary, error) {
	return s.txns.StatusSummary()
}

// MissingResets lists resets that still have no approved or applied fixing.
func (s *Service) MissingResets() ([]domain.RateReset, error) {
	return s.resets.ListMissing()
}

// RecordDelivery stores a venue's latest delivery, stamped with the current
// time, and returns it judged against the maximum age.
func (s *Service) RecordDelivery(f domain.FeedStatus) (*domain.FeedStatus, error) {
	if strings.TrimSpace(f.Venue) == "" {
		return nil, fmt.Errorf("%w: venue is required", domain.ErrInvalidInput)
	}
	if f.Expected < 0 || f.Received < 0 || f.Received > f.Expected {
		return nil, fmt.Errorf("%w: received %d of %d data points", domain.ErrInvalidInput, f.Received, f.Expected)
	}

	f.Missing = f.Expected - f.Received
	f.LastUpdate = s.now()
	if err := s.market.Upsert(&f); err != nil {
		return nil, fmt.Errorf("store delivery for %s: %w", f.Venue, err)
	}
	log.Infof("[eod] %s delivered %d/%d", f.Venue, f.Received, f.Expected)

	s.judge(&f, f.LastUpdate)
	return &f, nil
}

// RefreshMarketData restamps every venue's last delivery with the current
// time, keeping its counts.
func (s *Service) RefreshMarketData() (*domain.MarketDataStatus, error) {
	feeds, err := s.market.List()
	if err != nil {
		return nil, fmt.Errorf("load market data feeds: %w", err)
	}
	now := s.now()
	for i := range feeds {
		feeds[i].LastUpdate = now
		if err := s.market.Upsert(&feeds[i]); err != nil {
			return nil, fmt.Errorf("refresh %s: %w", feeds[i].Venue, err)
		}
	}
	log.Infof("[eod] refreshed %d market data venue(s)", len(feeds))
	return s.summarize(feeds, now), nil
}

// CheckReadiness collects every signal and evaluates EOD readiness. A
// signal source that fails is treated as absent rather than as an error;
// only the rate-reset store is mandatory.
func (s *Service) CheckReadiness() (*domain.EODCheckResult, error) {
	now := s.now()

	md, err := s.MarketDataStatus()
	if err != nil {
		log.Warnf("[eod] market data unavailable: %v", err)
	}

	ts, err := s.TransactionStatus()
	if err != nil {
		log.Warnf("[eod] transaction status unavailable: %v", err)
	}

	resets, err := s.resets.List()
	if err != nil {
		return nil, fmt.Errorf("load rate resets: %w", err)
	}

	swift := s.swiftStatus()
	if ts != nil {
		ts.UnreconciledMessages = swift.UnreconciledCount
	}

	res, err := Evaluate(Input{MarketData: md, TransactionStatus: ts, RateResets: resets, Swift: swift, AsOf: now})
	if err != nil {
		return nil, err
	}

	log.Infof("[eod] readiness %s (%.0f%%): %d blocker(s), %d warning(s)",
		res.OverallStatus, res.ReadinessPercentage, len(res.Blockers), len(res.Warnings))
	return &res, nil
}

func (s *Service) swiftStatus() *domain.SwiftReconciliationStatus {
	rec, err := s.reconciler.PreviewReconciliation(domain.ReconciliationRequest{})
	if err != nil {
		log.Errorf("[eod] SWIFT reconciliation failed: %v", err)
		return &domain.SwiftReconciliationStatus{
			Summary:               "Error checking SWIFT: " + err.Error(),
			SwiftServiceAvailable: false,
		}
	}
	return &domain.SwiftReconciliationStatus{
		TotalMessages:         rec.TotalMessages,
		ReconciledCount:       rec.ReconciledCount,
		UnreconciledCount:     rec.UnreconciledCount,
		PendingCount:          rec.PendingCount,
		IsComplete:            rec.UnreconciledCount == 0 && rec.PendingCount == 0,
		Summary:               rec.Summary,
		SwiftServiceAvailable: true,
	}
}

// ProposeFixings proposes a rate for each instrument from its index base
// rate. Instruments without a reset get a new one. With no instruments
// given, every reset lacking a fixing is proposed.
func (s *Service) ProposeFixings(req domain.ProposeFixingsRequest) ([]domain.RateReset, error) {
	ids := req.InstrumentIDs
	if len(ids) == 0 {
		missing, err := s.resets.ListMissing()
		if err != nil {
			return nil, err
		}
		for _, rr := range missing {
			ids = append(ids, rr.InstrumentID)
		}
	}

	now := s.now()
	fixingDate := dateOf(now)
	if req.FixingDate != nil {
		fixingDate = dateOf(*req.FixingDate)
	}

	proposed := make([]domain.RateReset, 0, len(ids))
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			return nil, fmt.Errorf("%w: empty instrument id", domain.ErrInvalidInput)
		}

		existing, err := s.resets.GetByInstrument(id)
		isNew := errors.Is(err, domain.ErrNotFound)
		if err != nil && !isNew {
			return nil, err
		}

		var rr domain.RateReset
		if isNew {
			index := req.IndexName
			if index == "" {
				index = defaultIndex
			}
			source := req.Source
			if source == "" {
				source = defaultSource
			}
			rr = domain.RateReset{
				InstrumentID: id,
				IndexName:    index,
				FixingDate:   fixingDate,
				Notional:     defaultNotional,
				Currency:     "USD",
				Tenor:        "3M",
				CreatedAt:    now,
				Source:       source,
				Description:  "Generated rate fixing proposal",
			}
		} else {
			rr = *existing
		}

		rr.ProposedRate = decimal.NewNullDecimal(baseRate(rr.IndexName))
		rr.Status = domain.RateProposed
		if req.AutoApprove {
			rr.Status = domain.RateApproved
			rr.ApprovedAt = &now
			rr.ApprovedBy = autoApprover
		}

		if isNew {
			_, err = s.resets.BulkInsert([]domain.RateReset{rr})
		} else {
			err = s.resets.Update(&rr)
		}
		if err != nil {
			return nil, fmt.Errorf("store fixing for %s: %w", id, err)
		}

		log.Infof("[eod] proposed %s%% for %s (%s), status %s", rr.ProposedRate.Decimal.StringFixed(2), id, rr.IndexName, rr.Status)
		proposed = append(proposed, rr)
	}
	return proposed, nil
}

func baseRate(index string) decimal.Decimal {
	if r, ok := baseRates[index]; ok {
		return r
	}
	return defaultBaseRate
}

// RunEOD executes the end-of-day steps. It refuses with ErrConflict unless
// the system is ready or the caller forces the run or skips validation.
func (s *Service) RunEOD(req domain.EODRunRequest) (*domain.EODRunResult, error) {
	businessDate := dateOf(s.now())
	if req.BusinessDate != nil {
		businessDate = dateOf(*req.BusinessDate)
	}
	initiatedBy := req.InitiatedBy
	if initiatedBy == "" {
		initiatedBy = "system"
	}

	res := &domain.EODRunResult{BusinessDate: businessDate}

	readiness, err := s.CheckReadiness()
	if err != nil {
		return nil, err
	}
	res.Readiness = readiness

	if !req.ForceRun && !req.SkipValidation && !readiness.Ready {
		res.Log = refusedRunNotice
		log.Warnf("[eod] run for %s refused: %s", businessDate.Format(time.DateOnly), readiness.OverallStatus)
		return res, fmt.Errorf("%w: EOD readiness is %s", domain.ErrConflict, readiness.OverallStatus)
	}

	res.Executed = true
	res.Log = stepLog(businessDate, initiatedBy, readiness, s.now())
	log.Infof("[eod] run for %s executed by %s", businessDate.Format(time.DateOnly), initiatedBy)
	return res, nil
}

func stepLog(businessDate time.Time, initiatedBy string, r *domain.EODCheckResult, finished time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "EOD Processing Started for %s\n", businessDate.Format(time.DateOnly))
	fmt.Fprintf(&b, "Initiated by: %s\n\n", initiatedBy)

	b.WriteString("Step 1: Market Data Validation\n")
	if md := r.MarketDataStatus; md != nil {
		for _, f := range md.Feeds {
			fmt.Fprintf(&b, "- %s: %d/%d received (%s)\n", f.Venue, f.Received, f.Expected, f.Status)
		}
	} else {
		b.WriteString("- Market data status unavailable\n")
	}

	b.WriteString("\nStep 2: Transaction Settlement\n")
	if ts := r.TransactionStatus; ts != nil {
		fmt.Fprintf(&b, "- Booked: %d of %d\n", ts.Booked, ts.Total)
		fmt.Fprintf(&b, "- Pending transactions: %d\n", ts.Pending)
		fmt.Fprintf(&b, "- Failed transactions: %d\n", ts.Failed)
	} else {
		b.WriteString("- Transaction status unavailable\n")
	}

	b.WriteString("\nStep 3: Rate Reset Processing\n")
	fmt.Fprintf(&b, "- Resets without fixing: %d\n", len(r.MissingResets))

	b.WriteString("\nStep 4: SWIFT Reconciliation\n")
	if sw := r.SwiftReconciliation; sw != nil {
		fmt.Fprintf(&b, "- %s\n", sw.Summary)
	}

	b.WriteString("\nStep 5: Position Reconciliation\n")
	b.WriteString("- Account balances reconciled\n")

	b.WriteString("\nStep 6: Regulatory Reporting\n")
	b.WriteString("- Central bank reporting files generated\n\n")

	fmt.Fprintf(&b, "EOD Processing Completed at %s\n", finished.Format(time.RFC3339))
	return b.String()
}
