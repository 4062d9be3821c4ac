package repository

import (
	"database/sql"
	"fmt"

	"github.com/trms/treasury-mock/internal/domain"
)

const rateResetColumns = `instrument_id, index_name, fixing_date, notional, currency, proposed_rate,
	current_rate, status, tenor, created_at, approved_at, approved_by, source, description`

type RateResetRepo struct {
	db *sql.DB
}

func NewRateResetRepo(db *sql.DB) *RateResetRepo {
	return &RateResetRepo{db: db}
}

func rateResetArgs(rr *domain.RateReset) []any {
	return []any{
		rr.InstrumentID, rr.IndexName, formatTime(rr.FixingDate), rr.Notional, rr.Currency,
		rr.ProposedRate, rr.CurrentRate, string(rr.Status), rr.Tenor, formatTime(rr.CreatedAt),
		formatNullableTime(rr.ApprovedAt), rr.ApprovedBy, rr.Source, rr.Description,
	}
}

func (r *RateResetRepo) BulkInsert(resets []domain.RateReset) (int, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO rate_resets (` + rateResetColumns + `)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for i := range resets {
		res, err := stmt.Exec(rateResetArgs(&resets[i])...)
		if err != nil {
			return inserted, fmt.Errorf("insert reset %d: %w", i, err)
		}
		ra, _ := res.RowsAffected()
		inserted += int(ra)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

func (r *RateResetRepo) List() ([]domain.RateReset, error) {
	return r.query("SELECT " + rateResetColumns + " FROM rate_resets ORDER BY fixing_date, instrument_id")
}

// ListMissing returns the resets that have no approved or applied fixing.
func (r *RateResetRepo) ListMissing() ([]domain.RateReset, error) {
	return r.query(
		"SELECT "+rateResetColumns+" FROM rate_resets WHERE status NOT IN (?, ?) ORDER BY fixing_date, instrument_id",
		string(domain.RateApproved), string(domain.RateApplied),
	)
}

func (r *RateResetRepo) GetByInstrument(instrumentID string) (*domain.RateReset, error) {
	row := r.db.QueryRow("SELECT "+rateResetColumns+" FROM rate_resets WHERE instrument_id = ?", instrumentID)
	rr, err := scanRateReset(row)
	if err != nil {
		return nil, notFound(err)
	}
	return rr, nil
}

// Update rewrites the fixing state of an existing reset.
func (r *RateResetRepo) Update(rr *domain.RateReset) error {
	res, err := r.db.Exec(
		`UPDATE rate_resets SET index_name = ?, fixing_date = ?, proposed_rate = ?, current_rate = ?,
		status = ?, approved_at = ?, approved_by = ?, source = ?, description = ?
		WHERE instrument_id = ?`,
		rr.IndexName, formatTime(rr.FixingDate), rr.ProposedRate, rr.CurrentRate,
		string(rr.Status), formatNullableTime(rr.ApprovedAt), rr.ApprovedBy, rr.Source,
		rr.Description, rr.InstrumentID,
	)
	if err != nil {
		return fmt.Errorf("update reset %s: %w", rr.InstrumentID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *RateResetRepo) query(q string, args ...any) ([]domain.RateReset, error) {
	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	resets := make([]domain.RateReset, 0)
	for rows.Next() {
		rr, err := scanRateReset(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		resets = append(resets, *rr)
	}
	return resets, rows.Err()
}

func scanRateReset(s scanner) (*domain.RateReset, error) {
	var rr domain.RateReset
	var status, fixingDate, createdAt string
	var approvedAt sql.NullString

	err := s.Scan(
		&rr.InstrumentID, &rr.IndexName, &fixingDate, &rr.Notional, &rr.Currency,
		&rr.ProposedRate, &rr.CurrentRate, &status, &rr.Tenor, &createdAt,
		&approvedAt, &rr.ApprovedBy, &rr.Source, &rr.Description,
	)
	if err != nil {
		return nil, err
	}

	rr.Status = domain.RateStatus(status)
	rr.FixingDate = parseTime(fixingDate)
	rr.CreatedAt = parseTime(createdAt)
	rr.ApprovedAt = parseNullableTime(approvedAt)

	return &rr, nil
}
