package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/trms/treasury-mock/internal/domain"
)

// issueSeparator joins run issues into one column; issue texts never
// contain a newline.
const issueSeparator = "\n"

// ReportRepo tracks processed redemption reports and reconciliation runs.
type ReportRepo struct {
	db *sql.DB
}

func NewReportRepo(db *sql.DB) *ReportRepo {
	return &ReportRepo{db: db}
}

// ReportExistsByHash checks whether a report with the given file hash has
// already been processed (idempotency check).
func (r *ReportRepo) ReportExistsByHash(hash string) (bool, error) {
	var count int
	err := r.db.QueryRow(
		"SELECT COUNT(*) FROM redemption_reports WHERE file_hash = ?", hash,
	).Scan(&count)
	return count > 0, err
}

func (r *ReportRepo) InsertReport(id, fileName, hash string, records int, total decimal.Decimal, at time.Time) error {
	_, err := r.db.Exec(
		`INSERT INTO redemption_reports (id, file_name, file_hash, record_count, total_amount, processed_at)
		VALUES (?,?,?,?,?,?)`,
		id, fileName, hash, records, total, formatTime(at),
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

func (r *ReportRepo) InsertRun(run *domain.ReconciliationRun) error {
	_, err := r.db.Exec(
		`INSERT INTO reconciliation_runs
		(id, account_id, total_messages, reconciled_count, unreconciled_count,
		 pending_count, issues, summary, run_at)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		run.ID, run.AccountID, run.TotalMessages, run.ReconciledCount,
		run.UnreconciledCount, run.PendingCount,
		strings.Join(run.Issues, issueSeparator), run.Summary, formatTime(run.RunAt),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// LatestRun returns the most recent reconciliation run.
func (r *ReportRepo) LatestRun() (*domain.ReconciliationRun, error) {
	var run domain.ReconciliationRun
	var issues, runAt string
	err := r.db.QueryRow(
		`SELECT id, account_id, total_messages, reconciled_count, unreconciled_count,
		 pending_count, issues, summary, run_at
		 FROM reconciliation_runs ORDER BY run_at DESC, rowid DESC LIMIT 1`,
	).Scan(&run.ID, &run.AccountID, &run.TotalMessages, &run.ReconciledCount,
		&run.UnreconciledCount, &run.PendingCount, &issues, &run.Summary, &runAt)
	if err != nil {
		return nil, notFound(err)
	}

	run.RunAt = parseTime(runAt)
	run.Issues = make([]string, 0)
	if issues != "" {
		run.Issues = strings.Split(issues, issueSeparator)
	}
	return &run, nil
}
