package repository

import (
	"database/sql"
	"fmt"

	"github.com/trms/treasury-mock/internal/domain"
)

const accountColumns = `account_id, account_name, currency, account_type, status, description,
	created_at, last_updated`

type AccountRepo struct {
	db *sql.DB
}

func NewAccountRepo(db *sql.DB) *AccountRepo {
	return &AccountRepo{db: db}
}

func (r *AccountRepo) BulkInsert(accounts []domain.Account) (int, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO accounts (` + accountColumns + `) VALUES (?,?,?,?,?,?,?,?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for i := range accounts {
		a := &accounts[i]
		res, err := stmt.Exec(
			a.AccountID, a.AccountName, a.Currency, string(a.AccountType), string(a.Status),
			a.Description, formatTime(a.CreatedAt), formatTime(a.LastUpdated),
		)
		if err != nil {
			return inserted, fmt.Errorf("insert account %d: %w", i, err)
		}
		ra, _ := res.RowsAffected()
		inserted += int(ra)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

// InsertBalances replaces the stored balance of each account given.
func (r *AccountRepo) InsertBalances(balances []domain.AccountBalance) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT OR REPLACE INTO account_balances
		(account_id, available_balance, current_balance, pending_balance, currency, as_of)
		VALUES (?,?,?,?,?,?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for i := range balances {
		b := &balances[i]
		if _, err := stmt.Exec(b.AccountID, b.AvailableBalance, b.CurrentBalance,
			b.PendingBalance, b.Currency, formatTime(b.AsOf)); err != nil {
			return fmt.Errorf("insert balance %s: %w", b.AccountID, err)
		}
	}
	return tx.Commit()
}

func (r *AccountRepo) GetByID(id string) (*domain.Account, error) {
	row := r.db.QueryRow("SELECT "+accountColumns+" FROM accounts WHERE account_id = ?", id)
	a, err := scanAccount(row)
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

func (r *AccountRepo) List() ([]domain.Account, error) {
	rows, err := r.db.Query("SELECT " + accountColumns + " FROM accounts ORDER BY account_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := make([]domain.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

func (r *AccountRepo) GetBalance(accountID string) (*domain.AccountBalance, error) {
	var b domain.AccountBalance
	var asOf string
	err := r.db.QueryRow(
		`SELECT account_id, available_balance, current_balance, pending_balance, currency, as_of
		FROM account_balances WHERE account_id = ?`, accountID,
	).Scan(&b.AccountID, &b.AvailableBalance, &b.CurrentBalance, &b.PendingBalance, &b.Currency, &asOf)
	if err != nil {
		return nil, notFound(err)
	}
	b.AsOf = parseTime(asOf)
	return &b, nil
}

func scanAccount(s scanner) (*domain.Account, error) {
	var a domain.Account
	var aType, status, createdAt, lastUpdated string
	if err := s.Scan(&a.AccountID, &a.AccountName, &a.Currency, &aType, &status,
		&a.Description, &createdAt, &lastUpdated); err != nil {
		return nil, err
	}
	a.AccountType = domain.AccountType(aType)
	a.Status = domain.AccountStatus(status)
	a.CreatedAt = parseTime(createdAt)
	a.LastUpdated = parseTime(lastUpdated)
	return &a, nil
}
