package repository

import (
	"database/sql"
	"fmt"

	"github.com/trms/treasury-mock/internal/domain"
)

const settlementColumns = `id, account_id, swift_message_id, amount, currency, settlement_type,
	settlement_date, created_at, status, counterparty_bic, counterparty_account, reference`

type SettlementRepo struct {
	db *sql.DB
}

func NewSettlementRepo(db *sql.DB) *SettlementRepo {
	return &SettlementRepo{db: db}
}

func (r *SettlementRepo) BulkInsert(settlements []domain.Settlement) (int, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT OR IGNORE INTO settlements (` + settlementColumns + `)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
	)
	if err != nil {
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for i := range settlements {
		s := &settlements[i]
		res, err := stmt.Exec(
			s.ID, s.AccountID, s.SwiftMessageID, s.Amount, s.Currency, string(s.SettlementType),
			formatTime(s.SettlementDate), formatTime(s.CreatedAt), s.Status,
			s.CounterpartyBIC, s.CounterpartyAccount, s.Reference,
		)
		if err != nil {
			return inserted, fmt.Errorf("insert settlement %d: %w", i, err)
		}
		ra, _ := res.RowsAffected()
		inserted += int(ra)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

// ListByAccount returns the account's settlements, most recent first.
func (r *SettlementRepo) ListByAccount(accountID string) ([]domain.Settlement, error) {
	rows, err := r.db.Query(
		"SELECT "+settlementColumns+" FROM settlements WHERE account_id = ? ORDER BY settlement_date DESC, id",
		accountID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	settlements := make([]domain.Settlement, 0)
	for rows.Next() {
		var s domain.Settlement
		var sType, settlementDate, createdAt string
		err := rows.Scan(
			&s.ID, &s.AccountID, &s.SwiftMessageID, &s.Amount, &s.Currency, &sType,
			&settlementDate, &createdAt, &s.Status, &s.CounterpartyBIC,
			&s.CounterpartyAccount, &s.Reference,
		)
		if err != nil {
			return nil, err
		}
		s.SettlementType = domain.SettlementType(sType)
		s.SettlementDate = parseTime(settlementDate)
		s.CreatedAt = parseTime(createdAt)
		settlements = append(settlements, s)
	}
	return settlements, rows.Err()
}
