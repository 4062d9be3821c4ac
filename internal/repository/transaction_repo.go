package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/trms/treasury-mock/internal/domain"
)

const transactionColumns = `transaction_id, from_account, to_account, amount, currency, status,
	type, description, reference, created_at, value_date, settled_at, reason_code, settlement_method`

const insertTransactionSQL = `INSERT OR IGNORE INTO transactions (` + transactionColumns + `)
	VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`

type TransactionRepo struct {
	db *sql.DB
}

func NewTransactionRepo(db *sql.DB) *TransactionRepo {
	return &TransactionRepo{db: db}
}

func transactionArgs(tx *domain.Transaction) []any {
	return []any{
		tx.TransactionID, tx.FromAccount, tx.ToAccount, tx.Amount, tx.Currency,
		string(tx.Status), string(tx.Type), tx.Description, tx.Reference,
		formatTime(tx.CreatedAt), formatNullableTime(tx.ValueDate),
		formatNullableTime(tx.SettledAt), tx.ReasonCode, tx.SettlementMethod,
	}
}

func (r *TransactionRepo) Insert(tx *domain.Transaction) error {
	if _, err := r.db.Exec(insertTransactionSQL, transactionArgs(tx)...); err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (r *TransactionRepo) BulkInsert(txns []domain.Transaction) (int, error) {
	inserted := 0
	sqlTx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer sqlTx.Rollback()

	stmt, err := sqlTx.Prepare(insertTransactionSQL)
	if err != nil {
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for i := range txns {
		res, err := stmt.Exec(transactionArgs(&txns[i])...)
		if err != nil {
			return inserted, fmt.Errorf("insert row %d: %w", i, err)
		}
		ra, _ := res.RowsAffected()
		inserted += int(ra)
	}

	if err := sqlTx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

func (r *TransactionRepo) Count() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM transactions").Scan(&count)
	return count, err
}

func (r *TransactionRepo) GetByID(id string) (*domain.Transaction, error) {
	row := r.db.QueryRow("SELECT "+transactionColumns+" FROM transactions WHERE transaction_id = ?", id)
	tx, err := scanTransaction(row)
	if err != nil {
		return nil, notFound(err)
	}
	return tx, nil
}

type TransactionFilter struct {
	AccountID string
	Status    string
	Currency  string
	From      *time.Time
	To        *time.Time
	Page      int
	Limit     int
}

func (r *TransactionRepo) List(f TransactionFilter) ([]domain.Transaction, int, error) {
	where, args := buildTransactionWhere(f)

	var total int
	countSQL := "SELECT COUNT(*) FROM transactions" + where
	if err := r.db.QueryRow(countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count: %w", err)
	}

	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	offset := (f.Page - 1) * f.Limit

	querySQL := "SELECT " + transactionColumns + " FROM transactions" + where +
		" ORDER BY created_at DESC, transaction_id LIMIT ? OFFSET ?"
	args = append(args, f.Limit, offset)

	txns, err := r.query(querySQL, args...)
	return txns, total, err
}

// ListAll returns every transaction in creation order, the order the
// reconciliation engine consumes candidates in.
func (r *TransactionRepo) ListAll() ([]domain.Transaction, error) {
	return r.query("SELECT " + transactionColumns + " FROM transactions ORDER BY created_at, transaction_id")
}

// StatusSummary aggregates booking progress. Unreconciled message counts are
// filled in by the caller that owns the reconciliation result.
func (r *TransactionRepo) StatusSummary() (*domain.TransactionStatusSummary, error) {
	txns, err := r.ListAll()
	if err != nil {
		return nil, err
	}

	s := &domain.TransactionStatusSummary{
		Total:               len(txns),
		StatusCounts:        make(map[domain.TransactionStatus]int),
		PendingTransactions: make([]domain.Transaction, 0),
		FailedTransactions:  make([]domain.Transaction, 0),
		LastUpdated:         time.Now().UTC(),
	}
	for _, tx := range txns {
		s.StatusCounts[tx.Status]++
		switch {
		case tx.Status.Booked():
			s.Booked++
		case tx.Status.AwaitingBooking():
			s.Pending++
			s.PendingTransactions = append(s.PendingTransactions, tx)
		case tx.Status == domain.TxStatusFailed:
			s.Failed++
			s.FailedTransactions = append(s.FailedTransactions, tx)
		}
	}
	if s.Total > 0 {
		pct := decimal.NewFromInt(int64(s.Booked)).Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(int64(s.Total))).Round(2)
		s.CompletionPercentage = pct.InexactFloat64()
	}
	return s, nil
}

func (r *TransactionRepo) query(q string, args ...any) ([]domain.Transaction, error) {
	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	txns := make([]domain.Transaction, 0)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		txns = append(txns, *tx)
	}
	return txns, rows.Err()
}

// --- helpers ---

func buildTransactionWhere(f TransactionFilter) (string, []any) {
	var clauses []string
	var args []any

	if f.AccountID != "" {
		clauses = append(clauses, "(from_account = ? OR to_account = ?)")
		args = append(args, f.AccountID, f.AccountID)
	}
	if f.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, f.Status)
	}
	if f.Currency != "" {
		clauses = append(clauses, "currency = ?")
		args = append(args, f.Currency)
	}
	if f.From != nil {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, formatTime(*f.From))
	}
	if f.To != nil {
		clauses = append(clauses, "created_at <= ?")
		args = append(args, formatTime(*f.To))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanTransaction(s scanner) (*domain.Transaction, error) {
	var tx domain.Transaction
	var status, txType, createdAt string
	var valueDate, settledAt sql.NullString

	err := s.Scan(
		&tx.TransactionID, &tx.FromAccount, &tx.ToAccount, &tx.Amount, &tx.Currency,
		&status, &txType, &tx.Description, &tx.Reference, &createdAt,
		&valueDate, &settledAt, &tx.ReasonCode, &tx.SettlementMethod,
	)
	if err != nil {
		return nil, err
	}

	tx.Status = domain.TransactionStatus(status)
	tx.Type = domain.TransactionType(txType)
	tx.CreatedAt = parseTime(createdAt)
	tx.ValueDate = parseNullableTime(valueDate)
	tx.SettledAt = parseNullableTime(settledAt)

	return &tx, nil
}
