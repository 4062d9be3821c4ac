// Package seed loads the canned treasury book the mock serves on a fresh
// database.
package seed

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/shopspring/decimal"

	"github.com/trms/treasury-mock/internal/domain"
	"github.com/trms/treasury-mock/internal/repository"
)

// Repos are the stores the seed writes to.
type Repos struct {
	Accounts     *repository.AccountRepo
	Transactions *repository.TransactionRepo
	Messages     *repository.MessageRepo
	Settlements  *repository.SettlementRepo
	MarketData   *repository.MarketDataRepo
	RateResets   *repository.RateResetRepo
}

// LoadIfEmpty seeds the book unless transactions are already stored.
// It reports whether anything was loaded.
func LoadIfEmpty(r Repos, ourBIC string, now time.Time) (bool, error) {
	count, err := r.Transactions.Count()
	if err != nil {
		return false, fmt.Errorf("count transactions: %w", err)
	}
	if count > 0 {
		log.Infof("[seed] database already has %d transactions, skipping seed", count)
		return false, nil
	}
	return true, Load(r, ourBIC, now)
}

// Load writes accounts, balances, transactions, payment messages,
// settlements, market data feeds and rate resets anchored at now.
func Load(r Repos, ourBIC string, now time.Time) error {
	now = now.UTC()

	accounts := Accounts(now)
	if _, err := r.Accounts.BulkInsert(accounts); err != nil {
		return fmt.Errorf("seed accounts: %w", err)
	}
	if err := r.Accounts.InsertBalances(Balances(now)); err != nil {
		return fmt.Errorf("seed balances: %w", err)
	}

	txns := Transactions(now)
	n, err := r.Transactions.BulkInsert(txns)
	if err != nil {
		return fmt.Errorf("seed transactions: %w", err)
	}

	msgs := Messages(txns, ourBIC, now)
	if _, err := r.Messages.BulkInsert(msgs); err != nil {
		return fmt.Errorf("seed messages: %w", err)
	}
	if _, err := r.Settlements.BulkInsert(Settlements(msgs, now)); err != nil {
		return fmt.Errorf("seed settlements: %w", err)
	}

	for _, f := range Feeds(now) {
		if err := r.MarketData.Upsert(&f); err != nil {
			return fmt.Errorf("seed market data: %w", err)
		}
	}
	if _, err := r.RateResets.BulkInsert(RateResets(now)); err != nil {
		return fmt.Errorf("seed rate resets: %w", err)
	}

	log.Infof("[seed] loaded %d accounts, %d transactions, %d messages", len(accounts), n, len(msgs))
	return nil
}

type accountDef struct {
	id, name, currency, desc string
	kind                     domain.AccountType
	current, available       string
	credits, debits          string
}

var accountDefs = []accountDef{
	{"ACC-001-USD", "JP Morgan Chase USD Cash Account", "USD", "Primary USD operating account", domain.AccountCash, "15750000.00", "15250000.00", "250000.00", "125000.00"},
	{"ACC-002-USD", "Goldman Sachs USD Trading Account", "USD", "USD trading and settlement account", domain.AccountTrading, "8950000.00", "8450000.00", "500000.00", "300000.00"},
	{"ACC-003-USD", "Citibank USD Nostro Account", "USD", "USD correspondent banking account", domain.AccountNostro, "12300000.00", "12100000.00", "150000.00", "75000.00"},
	{"ACC-004-EUR", "Deutsche Bank EUR Cash Account", "EUR", "Primary EUR operating account", domain.AccountCash, "9850000.00", "9350000.00", "400000.00", "200000.00"},
	{"ACC-005-EUR", "BNP Paribas EUR Settlement Account", "EUR", "EUR trade settlement account", domain.AccountSettlement, "6750000.00", "6250000.00", "300000.00", "150000.00"},
	{"ACC-006-GBP", "HSBC GBP Cash Account", "GBP", "Primary GBP operating account", domain.AccountCash, "7250000.00", "6950000.00", "200000.00", "100000.00"},
	{"ACC-007-GBP", "Barclays GBP Collateral Account", "GBP", "GBP collateral management account", domain.AccountCollateral, "4500000.00", "4200000.00", "150000.00", "75000.00"},
	{"ACC-008-JPY", "Sumitomo Mitsui JPY Account", "JPY", "Primary JPY operating account", domain.AccountCash, "1850000000.00", "1800000000.00", "25000000.00", "15000000.00"},
}

func Accounts(now time.Time) []domain.Account {
	out := make([]domain.Account, 0, len(accountDefs))
	for _, d := range accountDefs {
		out = append(out, domain.Account{
			AccountID:   d.id,
			AccountName: d.name,
			Currency:    d.currency,
			AccountType: d.kind,
			Status:      domain.AccountActive,
			Description: d.desc,
			CreatedAt:   now.AddDate(-1, 0, 0),
			LastUpdated: now,
		})
	}
	return out
}

// Balances carries pending as net pending credits.
func Balances(now time.Time) []domain.AccountBalance {
	out := make([]domain.AccountBalance, 0, len(accountDefs))
	for _, d := range accountDefs {
		credits := decimal.RequireFromString(d.credits)
		debits := decimal.RequireFromString(d.debits)
		out = append(out, domain.AccountBalance{
			AccountID:        d.id,
			CurrentBalance:   decimal.RequireFromString(d.current),
			AvailableBalance: decimal.RequireFromString(d.available),
			PendingBalance:   credits.Sub(debits),
			Currency:         d.currency,
			AsOf:             now,
		})
	}
	return out
}

type txnGroup struct {
	from, to, currency, method string
	kind                       domain.TransactionType
	count                      int
	base                       int64
}

var txnGroups = []txnGroup{
	{"ACC-001-USD", "ACC-002-USD", "USD", "FEDWIRE", domain.TxTypePayment, 20, 100000},
	{"ACC-004-EUR", "ACC-005-EUR", "EUR", "TARGET2", domain.TxTypeFXSettlement, 15, 200000},
	{"ACC-006-GBP", "ACC-007-GBP", "GBP", "CHAPS", domain.TxTypeCollateralMovement, 10, 150000},
	{"ACC-003-USD", "ACC-001-USD", "USD", "RTGS", domain.TxTypeTransfer, 5, 500000},
}

// Transactions generates a deterministic day of bookings: mostly settled,
// some pending and a few failed.
func Transactions(now time.Time) []domain.Transaction {
	rng := rand.New(rand.NewSource(42))
	valueDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var out []domain.Transaction
	seq := 1
	for _, g := range txnGroups {
		for i := 0; i < g.count; i++ {
			id := fmt.Sprintf("TXN-%04d", seq)
			createdAt := now.Add(-time.Duration(rng.Intn(8*60)+30) * time.Minute)
			amount := decimal.NewFromInt(g.base + int64(rng.Intn(900))*1000)

			tx := domain.Transaction{
				TransactionID:    id,
				FromAccount:      g.from,
				ToAccount:        g.to,
				Amount:           amount,
				Currency:         g.currency,
				Type:             g.kind,
				Description:      fmt.Sprintf("%s %s", g.kind, id),
				Reference:        fmt.Sprintf("REF-%04d", seq),
				CreatedAt:        createdAt,
				ValueDate:        &valueDate,
				SettlementMethod: g.method,
			}

			// 85% settled, 10% pending, 5% failed.
			roll := rng.Float64()
			switch {
			case roll < 0.85:
				tx.Status = domain.TxStatusSettled
				settled := createdAt.Add(time.Duration(rng.Intn(25)+5) * time.Minute)
				tx.SettledAt = &settled
			case roll < 0.95:
				tx.Status = domain.TxStatusPending
			default:
				tx.Status = domain.TxStatusFailed
				tx.ReasonCode = "AC04"
			}

			out = append(out, tx)
			seq++
		}
	}
	return out
}

// Messages pairs the first booking of each account with an outgoing
// MT103. The first is already reconciled, the second awaits
// reconciliation and one unbooked payment is still in flight.
func Messages(txns []domain.Transaction, ourBIC string, now time.Time) []domain.SwiftMessage {
	sent := now.Add(-2 * time.Hour)
	confirmed := now.Add(-time.Hour)
	valueDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	base := func(id, receiver string) domain.SwiftMessage {
		return domain.SwiftMessage{
			ID:                 id,
			MessageType:        "MT103",
			Kind:               domain.KindPayment,
			SenderBIC:          ourBIC,
			ReceiverBIC:        receiver,
			ValueDate:          valueDate,
			SentTimestamp:      &sent,
			BeneficiaryName:    "Sample Beneficiary",
			BeneficiaryAccount: "12345678",
			OrderingCustomer:   "Sample Customer",
		}
	}

	var out []domain.SwiftMessage
	for i, acct := range []string{"ACC-001-USD", "ACC-004-EUR"} {
		tx, ok := firstFrom(txns, acct)
		if !ok {
			continue
		}
		m := base(fmt.Sprintf("MSG-SEED-%03d", i+1), []string{"TESTGB2LXXX", "TESTDE5FXXX"}[i])
		m.AccountID = acct
		m.TransactionID = tx.TransactionID
		m.Amount = tx.Amount
		m.Currency = tx.Currency
		m.Reference = tx.Reference
		m.Status = domain.MessageStatusConfirmed
		m.ConfirmedTimestamp = &confirmed
		if i == 0 {
			m.Status = domain.MessageStatusReconciled
		}
		out = append(out, m)
	}

	m := base("MSG-SEED-003", "TESTFR21XXX")
	m.AccountID = "ACC-006-GBP"
	m.Amount = decimal.RequireFromString("25000.00")
	m.Currency = "GBP"
	m.Reference = "REF-MSG-SEED-003"
	m.Status = domain.MessageStatusSent
	out = append(out, m)

	return out
}

func firstFrom(txns []domain.Transaction, account string) (domain.Transaction, bool) {
	for _, tx := range txns {
		if tx.FromAccount == account {
			return tx, true
		}
	}
	return domain.Transaction{}, false
}

func Settlements(msgs []domain.SwiftMessage, now time.Time) []domain.Settlement {
	out := make([]domain.Settlement, 0, len(msgs))
	for i, m := range msgs {
		status := "PENDING"
		if m.ConfirmedTimestamp != nil {
			status = "COMPLETED"
		}
		out = append(out, domain.Settlement{
			ID:                  fmt.Sprintf("SET-SEED-%03d", i+1),
			AccountID:           m.AccountID,
			SwiftMessageID:      m.ID,
			Amount:              m.Amount,
			Currency:            m.Currency,
			SettlementType:      domain.SettlementOutgoing,
			SettlementDate:      m.ValueDate,
			CreatedAt:           now,
			Status:              status,
			CounterpartyBIC:     m.ReceiverBIC,
			CounterpartyAccount: m.BeneficiaryAccount,
			Reference:           m.Reference,
		})
	}
	return out
}

func Feeds(now time.Time) []domain.FeedStatus {
	return []domain.FeedStatus{
		{Venue: "FX_RATES", Provider: "Bloomberg", Expected: 284, Received: 284, LastUpdate: now.Add(-5 * time.Minute)},
		{Venue: "EQUITY_PRICES", Provider: "Reuters", Expected: 205, Received: 205, LastUpdate: now.Add(-2 * time.Minute)},
		{Venue: "INTEREST_RATES", Provider: "ICE", Expected: 89, Received: 89, LastUpdate: now.Add(-10 * time.Minute)},
	}
}

// RateResets leaves three of today's fixings missing and one approved.
func RateResets(now time.Time) []domain.RateReset {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	approvedAt := now.Add(-3 * time.Hour)
	return []domain.RateReset{
		{
			InstrumentID: "SWAP-2024-0156", IndexName: "USD-LIBOR-3M", FixingDate: today,
			Notional: decimal.NewFromInt(15000000), Currency: "USD", Status: domain.RateMissing, Tenor: "3M",
			CreatedAt: now.Add(-2 * time.Hour), Source: "Bloomberg",
			Description: "USD LIBOR 3-month fixing for interest rate swap",
		},
		{
			InstrumentID: "SWAP-2024-0157", IndexName: "USD-LIBOR-3M", FixingDate: today,
			Notional: decimal.NewFromInt(8500000), Currency: "USD", Status: domain.RateMissing, Tenor: "3M",
			CreatedAt: now.Add(-2 * time.Hour), Source: "Bloomberg",
			Description: "USD LIBOR 3-month fixing for interest rate swap",
		},
		{
			InstrumentID: "SWAP-2024-0158", IndexName: "EUR-EURIBOR-6M", FixingDate: today,
			Notional: decimal.NewFromInt(12000000), Currency: "EUR", Status: domain.RateMissing, Tenor: "6M",
			CreatedAt: now.Add(-time.Hour), Source: "Reuters",
			Description: "EUR EURIBOR 6-month fixing for interest rate swap",
		},
		{
			InstrumentID: "SWAP-2024-0159", IndexName: "GBP-SONIA", FixingDate: today.AddDate(0, 0, -1),
			Notional: decimal.NewFromInt(8000000), Currency: "GBP",
			CurrentRate:  decimal.NewNullDecimal(decimal.RequireFromString("4.95")),
			ProposedRate: decimal.NewNullDecimal(decimal.RequireFromString("4.98")),
			Status:       domain.RateApproved, Tenor: "1D", CreatedAt: now.Add(-6 * time.Hour),
			ApprovedAt: &approvedAt, ApprovedBy: "treasury-manager", Source: "Bank of England",
			Description: "GBP SONIA overnight fixing",
		},
	}
}
