package eod

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/trms/treasury-mock/internal/domain"
)

type mockMarket struct{ mock.Mock }

func (m *mockMarket) List() ([]domain.FeedStatus, error) {
	args := m.Called()
	feeds, _ := args.Get(0).([]domain.FeedStatus)
	return feeds, args.Error(1)
}

func (m *mockMarket) Upsert(f *domain.FeedStatus) error {
	return m.Called(f).Error(0)
}

type mockTxns struct{ mock.Mock }

func (m *mockTxns) StatusSummary() (*domain.TransactionStatusSummary, error) {
	args := m.Called()
	ts, _ := args.Get(0).(*domain.TransactionStatusSummary)
	return ts, args.Error(1)
}

type mockResets struct{ mock.Mock }

func (m *mockResets) List() ([]domain.RateReset, error) {
	args := m.Called()
	rr, _ := args.Get(0).([]domain.RateReset)
	return rr, args.Error(1)
}

func (m *mockResets) ListMissing() ([]domain.RateReset, error) {
	args := m.Called()
	rr, _ := args.Get(0).([]domain.RateReset)
	return rr, args.Error(1)
}

func (m *mockResets) GetByInstrument(id string) (*domain.RateReset, error) {
	args := m.Called(id)
	rr, _ := args.Get(0).(*domain.RateReset)
	return rr, args.Error(1)
}

func (m *mockResets) Update(rr *domain.RateReset) error {
	return m.Called(rr).Error(0)
}

func (m *mockResets) BulkInsert(resets []domain.RateReset) (int, error) {
	args := m.Called(resets)
	return args.Int(0), args.Error(1)
}

type mockReconciler struct{ mock.Mock }

func (m *mockReconciler) PreviewReconciliation(req domain.ReconciliationRequest) (*domain.ReconciliationResult, error) {
	args := m.Called(req)
	res, _ := args.Get(0).(*domain.ReconciliationResult)
	return res, args.Error(1)
}

var serviceNow = time.Date(2025, 3, 14, 18, 0, 0, 0, time.UTC)

type serviceFixture struct {
	svc    *Service
	market *mockMarket
	txns   *mockTxns
	resets *mockResets
	recon  *mockReconciler
}

func newServiceFixture() serviceFixture {
	f := serviceFixture{
		market: new(mockMarket),
		txns:   new(mockTxns),
		resets: new(mockResets),
		recon:  new(mockReconciler),
	}
	f.svc = NewService(f.market, f.txns, f.resets, f.recon, time.Hour)
	f.svc.now = func() time.Time { return serviceNow }
	return f
}

func healthyFeeds() []domain.FeedStatus {
	return []domain.FeedStatus{
		{Venue: "FX_RATES", Provider: "Bloomberg", Expected: 284, Received: 284, LastUpdate: serviceNow.Add(-10 * time.Minute)},
		{Venue: "INTEREST_RATES", Provider: "ICE", Expected: 89, Received: 89, LastUpdate: serviceNow.Add(-20 * time.Minute)},
	}
}

func bookedSummary() *domain.TransactionStatusSummary {
	return &domain.TransactionStatusSummary{Total: 10, Booked: 10, CompletionPercentage: 100}
}

func approvedResets() []domain.RateReset {
	return []domain.RateReset{
		{InstrumentID: "SWAP-2024-0159", IndexName: "GBP-SONIA", Status: domain.RateApproved, FixingDate: serviceNow},
	}
}

func cleanReconciliation() *domain.ReconciliationResult {
	return &domain.ReconciliationResult{TotalMessages: 4, ReconciledCount: 4, Summary: "Reconciled: 4, Unreconciled: 0, Pending: 0"}
}

func TestService_MarketDataStatus(t *testing.T) {
	f := newServiceFixture()
	f.market.On("List").Return([]domain.FeedStatus{
		{Venue: "FX_RATES", Expected: 284, Received: 284, LastUpdate: serviceNow.Add(-time.Minute)},
		{Venue: "EQUITY_PRICES", Expected: 205, Received: 205, LastUpdate: serviceNow.Add(-2 * time.Hour)},
		{Venue: "INTEREST_RATES", Expected: 89, Received: 86, Missing: 3, MissingItems: []string{"USD-SOFR-1M"}, LastUpdate: serviceNow},
		{Venue: "COMMODITIES", Expected: 12, Received: 0, Missing: 12, LastUpdate: serviceNow},
	}, nil)

	md, err := f.svc.MarketDataStatus()
	require.NoError(t, err)
	require.NotNil(t, md)
	require.Len(t, md.Feeds, 4)

	assert.Equal(t, domain.FeedHealthy, md.Feeds[0].Status)
	assert.True(t, md.Feeds[0].UpToDate)
	assert.Equal(t, domain.FeedDelayed, md.Feeds[1].Status)
	assert.False(t, md.Feeds[1].UpToDate)
	assert.Equal(t, domain.FeedIncomplete, md.Feeds[2].Status)
	assert.Equal(t, domain.FeedFailed, md.Feeds[3].Status)
	assert.NotNil(t, md.Feeds[0].MissingItems)

	assert.Equal(t, 590, md.Expected)
	assert.Equal(t, 575, md.Received)
	assert.Equal(t, 15, md.Missing)
	assert.False(t, md.Complete)
	assert.Equal(t, []string{"EQUITY_PRICES"}, md.StaleVenues())
}

func TestService_MarketDataStatusNoFeeds(t *testing.T) {
	f := newServiceFixture()
	f.market.On("List").Return([]domain.FeedStatus{}, nil)

	md, err := f.svc.MarketDataStatus()
	require.NoError(t, err)
	assert.Nil(t, md)
}

func TestService_CheckReadiness(t *testing.T) {
	t.Run("all clear", func(t *testing.T) {
		f := newServiceFixture()
		f.market.On("List").Return(healthyFeeds(), nil)
		f.txns.On("StatusSummary").Return(bookedSummary(), nil)
		f.resets.On("List").Return(approvedResets(), nil)
		f.recon.On("PreviewReconciliation", domain.ReconciliationRequest{}).Return(cleanReconciliation(), nil)

		res, err := f.svc.CheckReadiness()
		require.NoError(t, err)
		assert.True(t, res.Ready)
		assert.Equal(t, domain.EODReady, res.OverallStatus)
		assert.Equal(t, 100.0, res.ReadinessPercentage)
		require.NotNil(t, res.SwiftReconciliation)
		assert.True(t, res.SwiftReconciliation.IsComplete)
		assert.True(t, res.SwiftReconciliation.SwiftServiceAvailable)
		assert.Equal(t, serviceNow, res.CheckTime)
		f.recon.AssertExpectations(t)
	})

	t.Run("unreconciled messages block", func(t *testing.T) {
		f := newServiceFixture()
		f.market.On("List").Return(healthyFeeds(), nil)
		f.txns.On("StatusSummary").Return(bookedSummary(), nil)
		f.resets.On("List").Return(approvedResets(), nil)
		f.recon.On("PreviewReconciliation", domain.ReconciliationRequest{}).Return(&domain.ReconciliationResult{
			TotalMessages: 5, ReconciledCount: 3, UnreconciledCount: 2,
		}, nil)

		res, err := f.svc.CheckReadiness()
		require.NoError(t, err)
		assert.Equal(t, domain.EODNotReady, res.OverallStatus)
		assert.Equal(t, 2, res.TransactionStatus.UnreconciledMessages)
		require.Len(t, res.Blockers, 1)
		assert.Equal(t, "SWIFT_UNRECONCILED", res.Blockers[0].Type)
		assert.False(t, res.SwiftReconciliation.IsComplete)
	})

	t.Run("failing sources are absent signals", func(t *testing.T) {
		f := newServiceFixture()
		f.market.On("List").Return(nil, errors.New("feed store offline"))
		f.txns.On("StatusSummary").Return(nil, errors.New("ledger offline"))
		f.resets.On("List").Return(approvedResets(), nil)
		f.recon.On("PreviewReconciliation", domain.ReconciliationRequest{}).Return(nil, errors.New("swift down"))

		res, err := f.svc.CheckReadiness()
		require.NoError(t, err)
		assert.Equal(t, domain.EODUnknown, res.OverallStatus)
		assert.False(t, res.Ready)
		assert.Nil(t, res.MarketDataStatus)
		assert.Nil(t, res.TransactionStatus)
		assert.Len(t, res.Blockers, 2)
		require.Len(t, res.Warnings, 1)
		assert.Equal(t, "SWIFT_SERVICE_UNAVAILABLE", res.Warnings[0].Type)
		assert.False(t, res.SwiftReconciliation.SwiftServiceAvailable)
		assert.Contains(t, res.SwiftReconciliation.Summary, "swift down")
	})

	t.Run("unreachable SWIFT service is not ready", func(t *testing.T) {
		f := newServiceFixture()
		f.market.On("List").Return(healthyFeeds(), nil)
		f.txns.On("StatusSummary").Return(bookedSummary(), nil)
		f.resets.On("List").Return(approvedResets(), nil)
		f.recon.On("PreviewReconciliation", domain.ReconciliationRequest{}).Return(nil, errors.New("db down"))

		res, err := f.svc.CheckReadiness()
		require.NoError(t, err)
		assert.False(t, res.Ready)
		assert.Equal(t, domain.EODPartialReady, res.OverallStatus)
		assert.Equal(t, 80.0, res.ReadinessPercentage)
		assert.Empty(t, res.Blockers)
		require.Len(t, res.Warnings, 1)
		assert.Equal(t, "SWIFT_SERVICE_UNAVAILABLE", res.Warnings[0].Type)
		assert.Equal(t, domain.SeverityHigh, res.Warnings[0].Severity)
		assert.Contains(t, res.RequiredActions, res.Warnings[0].Recommendation)
		assert.Equal(t, "Error checking SWIFT: db down", res.SwiftReconciliation.Summary)
	})

	t.Run("venue without deliveries blocks", func(t *testing.T) {
		f := newServiceFixture()
		feeds := healthyFeeds()
		feeds[0].Received, feeds[0].Missing = 0, 284
		f.market.On("List").Return(feeds, nil)
		f.txns.On("StatusSummary").Return(bookedSummary(), nil)
		f.resets.On("List").Return(approvedResets(), nil)
		f.recon.On("PreviewReconciliation", domain.ReconciliationRequest{}).Return(cleanReconciliation(), nil)

		res, err := f.svc.CheckReadiness()
		require.NoError(t, err)
		assert.Equal(t, domain.EODNotReady, res.OverallStatus)
		require.Len(t, res.Blockers, 1)
		assert.Equal(t, "MARKET_DATA_INCOMPLETE", res.Blockers[0].Type)
		assert.Equal(t, domain.FeedFailed, res.MarketDataStatus.Feeds[0].Status)
	})

	t.Run("rate reset store failure is an error", func(t *testing.T) {
		f := newServiceFixture()
		f.market.On("List").Return(healthyFeeds(), nil)
		f.txns.On("StatusSummary").Return(bookedSummary(), nil)
		f.resets.On("List").Return(nil, errors.New("disk full"))

		_, err := f.svc.CheckReadiness()
		require.Error(t, err)
		f.recon.AssertNotCalled(t, "PreviewReconciliation", mock.Anything)
	})
}

func TestService_RefreshMarketData(t *testing.T) {
	f := newServiceFixture()
	f.market.On("List").Return(healthyFeeds(), nil).Twice()
	f.market.On("Upsert", mock.MatchedBy(func(fs *domain.FeedStatus) bool {
		return fs.LastUpdate.Equal(serviceNow.Add(2 * time.Hour))
	})).Return(nil).Twice()

	// Two hours on, every venue has aged past the hour limit.
	f.svc.now = func() time.Time { return serviceNow.Add(2 * time.Hour) }
	f.txns.On("StatusSummary").Return(bookedSummary(), nil)
	f.resets.On("List").Return(approvedResets(), nil)
	f.recon.On("PreviewReconciliation", domain.ReconciliationRequest{}).Return(cleanReconciliation(), nil)

	stale, err := f.svc.CheckReadiness()
	require.NoError(t, err)
	assert.Equal(t, domain.EODBlocked, stale.OverallStatus)

	md, err := f.svc.RefreshMarketData()
	require.NoError(t, err)
	require.NotNil(t, md)
	assert.True(t, md.Complete)
	assert.Empty(t, md.StaleVenues())
	for _, fs := range md.Feeds {
		assert.True(t, fs.UpToDate)
		assert.Equal(t, domain.FeedHealthy, fs.Status)
	}
	f.market.AssertExpectations(t)
}

func TestService_RecordDelivery(t *testing.T) {
	t.Run("stamps and judges the delivery", func(t *testing.T) {
		f := newServiceFixture()
		f.market.On("Upsert", mock.MatchedBy(func(fs *domain.FeedStatus) bool {
			return fs.Venue == "FX_RATES" && fs.Missing == 4 && fs.LastUpdate.Equal(serviceNow)
		})).Return(nil)

		got, err := f.svc.RecordDelivery(domain.FeedStatus{
			Venue: "FX_RATES", Provider: "Bloomberg", Expected: 284, Received: 280,
			LastUpdate: serviceNow.Add(-48 * time.Hour),
		})
		require.NoError(t, err)
		assert.Equal(t, serviceNow, got.LastUpdate)
		assert.True(t, got.UpToDate)
		assert.Equal(t, domain.FeedIncomplete, got.Status)
		assert.NotNil(t, got.MissingItems)
		f.market.AssertExpectations(t)
	})

	tests := []struct {
		name string
		in   domain.FeedStatus
	}{
		{name: "blank venue", in: domain.FeedStatus{Venue: " ", Expected: 1, Received: 1}},
		{name: "negative expected", in: domain.FeedStatus{Venue: "FX", Expected: -1}},
		{name: "negative received", in: domain.FeedStatus{Venue: "FX", Expected: 5, Received: -1}},
		{name: "more received than expected", in: domain.FeedStatus{Venue: "FX", Expected: 5, Received: 6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newServiceFixture()
			_, err := f.svc.RecordDelivery(tt.in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			f.market.AssertNotCalled(t, "Upsert", mock.Anything)
		})
	}

	t.Run("store failure", func(t *testing.T) {
		f := newServiceFixture()
		f.market.On("Upsert", mock.Anything).Return(errors.New("locked"))
		_, err := f.svc.RecordDelivery(domain.FeedStatus{Venue: "FX", Expected: 1, Received: 1})
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestService_ProposeFixings(t *testing.T) {
	t.Run("existing reset is proposed from its index", func(t *testing.T) {
		f := newServiceFixture()
		existing := &domain.RateReset{
			InstrumentID: "SWAP-2024-0158", IndexName: "EUR-EURIBOR-6M", Status: domain.RateMissing,
			Notional: decimal.NewFromInt(5000000), Currency: "EUR", FixingDate: serviceNow,
		}
		f.resets.On("GetByInstrument", "SWAP-2024-0158").Return(existing, nil)
		f.resets.On("Update", mock.MatchedBy(func(rr *domain.RateReset) bool {
			return rr.InstrumentID == "SWAP-2024-0158" && rr.Status == domain.RateProposed
		})).Return(nil)

		out, err := f.svc.ProposeFixings(domain.ProposeFixingsRequest{InstrumentIDs: []string{"SWAP-2024-0158"}})
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.True(t, out[0].ProposedRate.Valid)
		assert.Equal(t, "3.75", out[0].ProposedRate.Decimal.StringFixed(2))
		assert.Equal(t, domain.RateProposed, out[0].Status)
		assert.Nil(t, out[0].ApprovedAt)
		assert.Equal(t, "EUR", out[0].Currency)
		f.resets.AssertExpectations(t)
	})

	t.Run("unknown instrument gets a new reset", func(t *testing.T) {
		f := newServiceFixture()
		f.resets.On("GetByInstrument", "SWAP-NEW").Return(nil, domain.ErrNotFound)
		f.resets.On("BulkInsert", mock.Anything).Return(1, nil)

		fixing := time.Date(2025, 3, 17, 9, 30, 0, 0, time.UTC)
		out, err := f.svc.ProposeFixings(domain.ProposeFixingsRequest{
			InstrumentIDs: []string{"SWAP-NEW"},
			FixingDate:    &fixing,
			IndexName:     "CHF-SARON",
			AutoApprove:   true,
		})
		require.NoError(t, err)
		require.Len(t, out, 1)

		rr := out[0]
		assert.Equal(t, "CHF-SARON", rr.IndexName)
		assert.Equal(t, "4.50", rr.ProposedRate.Decimal.StringFixed(2))
		assert.Equal(t, "Bloomberg", rr.Source)
		assert.Equal(t, "3M", rr.Tenor)
		assert.True(t, rr.Notional.Equal(decimal.NewFromInt(5000000)))
		assert.Equal(t, time.Date(2025, 3, 17, 0, 0, 0, 0, time.UTC), rr.FixingDate)
		assert.Equal(t, domain.RateApproved, rr.Status)
		assert.Equal(t, "ai-system", rr.ApprovedBy)
		require.NotNil(t, rr.ApprovedAt)
		assert.Equal(t, serviceNow, *rr.ApprovedAt)
		f.resets.AssertNotCalled(t, "Update", mock.Anything)
	})

	t.Run("no instruments proposes every missing reset", func(t *testing.T) {
		f := newServiceFixture()
		missing := []domain.RateReset{
			{InstrumentID: "SWAP-2024-0156", IndexName: "USD-LIBOR-3M", Status: domain.RateMissing},
			{InstrumentID: "SWAP-2024-0157", IndexName: "USD-LIBOR-3M", Status: domain.RateMissing},
		}
		f.resets.On("ListMissing").Return(missing, nil)
		f.resets.On("GetByInstrument", "SWAP-2024-0156").Return(&missing[0], nil)
		f.resets.On("GetByInstrument", "SWAP-2024-0157").Return(&missing[1], nil)
		f.resets.On("Update", mock.Anything).Return(nil).Twice()

		out, err := f.svc.ProposeFixings(domain.ProposeFixingsRequest{})
		require.NoError(t, err)
		require.Len(t, out, 2)
		for _, rr := range out {
			assert.Equal(t, "5.25", rr.ProposedRate.Decimal.StringFixed(2))
		}
		f.resets.AssertExpectations(t)
	})

	t.Run("blank instrument id", func(t *testing.T) {
		f := newServiceFixture()
		_, err := f.svc.ProposeFixings(domain.ProposeFixingsRequest{InstrumentIDs: []string{"  "}})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("store failure", func(t *testing.T) {
		f := newServiceFixture()
		f.resets.On("GetByInstrument", "SWAP-X").Return(nil, errors.New("locked"))
		_, err := f.svc.ProposeFixings(domain.ProposeFixingsRequest{InstrumentIDs: []string{"SWAP-X"}})
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestService_RunEOD(t *testing.T) {
	notReady := func() serviceFixture {
		f := newServiceFixture()
		f.market.On("List").Return(healthyFeeds(), nil)
		f.txns.On("StatusSummary").Return(&domain.TransactionStatusSummary{Total: 10, Booked: 9, Failed: 1}, nil)
		f.resets.On("List").Return(approvedResets(), nil)
		f.recon.On("PreviewReconciliation", domain.ReconciliationRequest{}).Return(cleanReconciliation(), nil)
		return f
	}

	t.Run("refused when not ready", func(t *testing.T) {
		f := notReady()
		res, err := f.svc.RunEOD(domain.EODRunRequest{})
		require.ErrorIs(t, err, domain.ErrConflict)
		require.NotNil(t, res)
		assert.False(t, res.Executed)
		require.NotNil(t, res.Readiness)
		assert.False(t, res.Readiness.Ready)
		assert.Contains(t, res.Log, "forceRun=true")
	})

	for _, req := range []domain.EODRunRequest{{ForceRun: true}, {SkipValidation: true}} {
		f := notReady()
		res, err := f.svc.RunEOD(req)
		require.NoError(t, err)
		assert.True(t, res.Executed)
		assert.Contains(t, res.Log, "EOD Processing Started for 2025-03-14")
		assert.Contains(t, res.Log, "Initiated by: system")
		assert.Contains(t, res.Log, "- Failed transactions: 1")
		assert.Contains(t, res.Log, "Step 6: Regulatory Reporting")
	}

	t.Run("ready run uses the requested business date", func(t *testing.T) {
		f := newServiceFixture()
		f.market.On("List").Return(healthyFeeds(), nil)
		f.txns.On("StatusSummary").Return(bookedSummary(), nil)
		f.resets.On("List").Return(approvedResets(), nil)
		f.recon.On("PreviewReconciliation", domain.ReconciliationRequest{}).Return(cleanReconciliation(), nil)

		date := time.Date(2025, 3, 13, 0, 0, 0, 0, time.UTC)
		res, err := f.svc.RunEOD(domain.EODRunRequest{BusinessDate: &date, InitiatedBy: "ops"})
		require.NoError(t, err)
		assert.True(t, res.Executed)
		assert.Equal(t, date, res.BusinessDate)
		assert.Contains(t, res.Log, "Initiated by: ops")
		assert.Contains(t, res.Log, "- FX_RATES: 284/284 received (HEALTHY)")
	})
}
