package treasury

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trms/treasury-mock/internal/domain"
	"github.com/trms/treasury-mock/internal/repository"
)

var now = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := repository.InitDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	accounts := repository.NewAccountRepo(db)
	_, err = accounts.BulkInsert([]domain.Account{
		{AccountID: "ACC-001-USD", AccountName: "USD Cash", Currency: "USD", AccountType: domain.AccountCash, Status: domain.AccountActive, CreatedAt: now, LastUpdated: now},
		{AccountID: "ACC-004-EUR", AccountName: "EUR Cash", Currency: "EUR", AccountType: domain.AccountCash, Status: domain.AccountActive, CreatedAt: now, LastUpdated: now},
	})
	require.NoError(t, err)
	require.NoError(t, accounts.InsertBalances([]domain.AccountBalance{
		{AccountID: "ACC-004-EUR", Currency: "EUR", CurrentBalance: decimal.RequireFromString("9200"), AvailableBalance: decimal.RequireFromString("9000"), PendingBalance: decimal.Zero, AsOf: now},
	}))

	svc := NewService(accounts, repository.NewTransactionRepo(db))
	svc.now = func() time.Time { return now }
	return svc
}

func TestGetBalance_AddsUSDEquivalent(t *testing.T) {
	svc := newTestService(t)

	bal, err := svc.GetBalance("ACC-004-EUR")
	require.NoError(t, err)
	assert.Equal(t, "10000", bal.USDEquivalent.String())

	_, err = svc.GetBalance("ACC-001-USD")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateTransaction(t *testing.T) {
	svc := newTestService(t)

	tx, err := svc.CreateTransaction(domain.CreateTransactionRequest{
		FromAccount: "ACC-001-USD", ToAccount: "ACC-004-EUR",
		Amount: decimal.NewFromInt(5000), Currency: "USD", Reference: "REF-X",
	})
	require.NoError(t, err)
	assert.Regexp(t, `^TXN-[0-9A-F]{8}$`, tx.TransactionID)
	assert.Equal(t, domain.TxStatusNew, tx.Status)

	got, err := svc.GetTransaction(tx.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, "REF-X", got.Reference)

	summary, err := svc.StatusSummary()
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 1, summary.Pending)

	list, total, err := svc.ListTransactions(repository.TransactionFilter{AccountID: "ACC-004-EUR"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, list, 1)
}

func TestCreateTransaction_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		req     domain.CreateTransactionRequest
		wantErr error
	}{
		{"missing accounts", domain.CreateTransactionRequest{Amount: decimal.NewFromInt(1), Currency: "USD"}, domain.ErrInvalidInput},
		{"same account", domain.CreateTransactionRequest{FromAccount: "ACC-001-USD", ToAccount: "ACC-001-USD", Amount: decimal.NewFromInt(1), Currency: "USD"}, domain.ErrInvalidInput},
		{"zero amount", domain.CreateTransactionRequest{FromAccount: "ACC-001-USD", ToAccount: "ACC-004-EUR", Currency: "USD"}, domain.ErrInvalidInput},
		{"bad currency", domain.CreateTransactionRequest{FromAccount: "ACC-001-USD", ToAccount: "ACC-004-EUR", Amount: decimal.NewFromInt(1), Currency: "KES"}, domain.ErrInvalidInput},
		{"unknown account", domain.CreateTransactionRequest{FromAccount: "ACC-001-USD", ToAccount: "ACC-999", Amount: decimal.NewFromInt(1), Currency: "USD"}, domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t)
			_, err := svc.CreateTransaction(tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAccounts(t *testing.T) {
	svc := newTestService(t)

	accounts, err := svc.ListAccounts()
	require.NoError(t, err)
	assert.Len(t, accounts, 2)

	acc, err := svc.GetAccount("ACC-004-EUR")
	require.NoError(t, err)
	assert.Equal(t, "EUR", acc.Currency)

	_, err = svc.GetAccount("ACC-404")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
