// Package treasury exposes the treasury side of the mock: accounts,
// balances and booked transactions.
package treasury

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"

	"github.com/trms/treasury-mock/internal/currency"
	"github.com/trms/treasury-mock/internal/domain"
	"github.com/trms/treasury-mock/internal/repository"
)

type Service struct {
	accounts *repository.AccountRepo
	txns     *repository.TransactionRepo
	now      func() time.Time
}

func NewService(accounts *repository.AccountRepo, txns *repository.TransactionRepo) *Service {
	return &Service{
		accounts: accounts,
		txns:     txns,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) ListAccounts() ([]domain.Account, error) {
	return s.accounts.List()
}

func (s *Service) GetAccount(id string) (*domain.Account, error) {
	return s.accounts.GetByID(id)
}

// GetBalance returns the stored balance with its USD equivalent.
func (s *Service) GetBalance(accountID string) (*domain.AccountBalance, error) {
	bal, err := s.accounts.GetBalance(accountID)
	if err != nil {
		return nil, err
	}
	usd, err := currency.ToUSD(bal.CurrentBalance, bal.Currency)
	if err != nil {
		log.Warnf("[treasury] no USD equivalent for %s: %v", accountID, err)
		return bal, nil
	}
	bal.USDEquivalent = usd
	return bal, nil
}

func (s *Service) ListTransactions(f repository.TransactionFilter) ([]domain.Transaction, int, error) {
	return s.txns.List(f)
}

func (s *Service) GetTransaction(id string) (*domain.Transaction, error) {
	return s.txns.GetByID(id)
}

// CreateTransaction books a new transaction in NEW status.
func (s *Service) CreateTransaction(req domain.CreateTransactionRequest) (*domain.Transaction, error) {
	var problems []string
	if strings.TrimSpace(req.FromAccount) == "" {
		problems = append(problems, "fromAccount is required")
	}
	if strings.TrimSpace(req.ToAccount) == "" {
		problems = append(problems, "toAccount is required")
	}
	if req.FromAccount != "" && req.FromAccount == req.ToAccount {
		problems = append(problems, "fromAccount and toAccount must differ")
	}
	if !req.Amount.IsPositive() {
		problems = append(problems, "amount must be positive")
	}
	if !currency.Supported(req.Currency) {
		problems = append(problems, fmt.Sprintf("unsupported currency %q", req.Currency))
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(problems, "; "))
	}

	for _, id := range []string{req.FromAccount, req.ToAccount} {
		if _, err := s.accounts.GetByID(id); err != nil {
			return nil, fmt.Errorf("account %s: %w", id, err)
		}
	}

	now := s.now()
	valueDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	tx := domain.Transaction{
		TransactionID:    "TXN-" + strings.ToUpper(uuid.NewString()[:8]),
		FromAccount:      req.FromAccount,
		ToAccount:        req.ToAccount,
		Amount:           req.Amount,
		Currency:         req.Currency,
		Status:           domain.TxStatusNew,
		Type:             domain.TxTypeTransfer,
		Description:      req.Description,
		Reference:        req.Reference,
		CreatedAt:        now,
		ValueDate:        &valueDate,
		SettlementMethod: req.SettlementMethod,
	}
	if err := s.txns.Insert(&tx); err != nil {
		return nil, err
	}

	log.Infof("[treasury] booked %s: %s %s from %s to %s", tx.TransactionID, tx.Amount.StringFixed(2), tx.Currency, tx.FromAccount, tx.ToAccount)
	return &tx, nil
}

// StatusSummary reports booking progress across all transactions.
func (s *Service) StatusSummary() (*domain.TransactionStatusSummary, error) {
	return s.txns.StatusSummary()
}
