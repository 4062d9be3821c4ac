package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/trms/treasury-mock/internal/domain"
)

// ErrNotFound is returned by single-row lookups that match nothing.
var ErrNotFound = domain.ErrNotFound

// InitDB opens (or creates) a SQLite database at the given path and ensures
// all required tables exist. Pass ":memory:" for an in-memory database.
func InitDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Every connection to ":memory:" gets its own empty database.
	if dsn == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return db, nil
}

func createTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			account_id TEXT PRIMARY KEY,
			account_name TEXT NOT NULL,
			currency TEXT NOT NULL,
			account_type TEXT NOT NULL,
			status TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			last_updated DATETIME NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS account_balances (
			account_id TEXT PRIMARY KEY,
			available_balance TEXT NOT NULL,
			current_balance TEXT NOT NULL,
			pending_balance TEXT NOT NULL,
			currency TEXT NOT NULL,
			as_of DATETIME NOT NULL,
			FOREIGN KEY (account_id) REFERENCES accounts(account_id)
		)`,

		`CREATE TABLE IF NOT EXISTS transactions (
			transaction_id TEXT PRIMARY KEY,
			from_account TEXT NOT NULL,
			to_account TEXT NOT NULL,
			amount TEXT NOT NULL,
			currency TEXT NOT NULL,
			status TEXT NOT NULL,
			type TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			reference TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			value_date DATETIME,
			settled_at DATETIME,
			reason_code TEXT NOT NULL DEFAULT '',
			settlement_method TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_status ON transactions(status)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_from_account ON transactions(from_account)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_created_at ON transactions(created_at)`,

		`CREATE TABLE IF NOT EXISTS swift_messages (
			id TEXT PRIMARY KEY,
			message_type TEXT NOT NULL,
			kind TEXT NOT NULL,
			sender_bic TEXT NOT NULL,
			receiver_bic TEXT NOT NULL,
			amount TEXT NOT NULL,
			currency TEXT NOT NULL,
			account_id TEXT NOT NULL,
			transaction_id TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			reference TEXT NOT NULL DEFAULT '',
			value_date DATETIME NOT NULL,
			sent_timestamp DATETIME,
			confirmed_timestamp DATETIME,
			raw_message_content TEXT NOT NULL DEFAULT '',
			beneficiary_name TEXT NOT NULL DEFAULT '',
			beneficiary_account TEXT NOT NULL DEFAULT '',
			ordering_customer TEXT NOT NULL DEFAULT '',
			remittance_info TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_swift_messages_account ON swift_messages(account_id)`,
		`CREATE INDEX IF NOT EXISTS idx_swift_messages_transaction ON swift_messages(transaction_id)`,
		`CREATE INDEX IF NOT EXISTS idx_swift_messages_status ON swift_messages(status)`,

		`CREATE TABLE IF NOT EXISTS confirmations (
			id TEXT PRIMARY KEY,
			swift_message_id TEXT NOT NULL,
			confirmation_type TEXT NOT NULL,
			sender_bic TEXT NOT NULL,
			receiver_bic TEXT NOT NULL,
			confirmed_at DATETIME NOT NULL,
			status TEXT NOT NULL,
			reference TEXT NOT NULL DEFAULT '',
			confirmation_message TEXT NOT NULL DEFAULT '',
			FOREIGN KEY (swift_message_id) REFERENCES swift_messages(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_confirmations_message ON confirmations(swift_message_id)`,

		`CREATE TABLE IF NOT EXISTS settlements (
			id TEXT PRIMARY KEY,
			account_id TEXT NOT NULL,
			swift_message_id TEXT NOT NULL DEFAULT '',
			amount TEXT NOT NULL,
			currency TEXT NOT NULL,
			settlement_type TEXT NOT NULL,
			settlement_date DATETIME NOT NULL,
			created_at DATETIME NOT NULL,
			status TEXT NOT NULL,
			counterparty_bic TEXT NOT NULL DEFAULT '',
			counterparty_account TEXT NOT NULL DEFAULT '',
			reference TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_settlements_account ON settlements(account_id)`,

		`CREATE TABLE IF NOT EXISTS market_data_feeds (
			venue TEXT PRIMARY KEY,
			provider TEXT NOT NULL,
			expected INTEGER NOT NULL,
			received INTEGER NOT NULL,
			missing_items TEXT NOT NULL DEFAULT '',
			last_update DATETIME NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS rate_resets (
			instrument_id TEXT PRIMARY KEY,
			index_name TEXT NOT NULL,
			fixing_date DATETIME NOT NULL,
			notional TEXT NOT NULL,
			currency TEXT NOT NULL,
			proposed_rate TEXT,
			current_rate TEXT,
			status TEXT NOT NULL,
			tenor TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			approved_at DATETIME,
			approved_by TEXT NOT NULL DEFAULT '',
			source TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_rate_resets_status ON rate_resets(status)`,

		`CREATE TABLE IF NOT EXISTS redemption_reports (
			id TEXT PRIMARY KEY,
			file_name TEXT NOT NULL,
			file_hash TEXT UNIQUE NOT NULL,
			record_count INTEGER NOT NULL,
			total_amount TEXT NOT NULL,
			processed_at DATETIME NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS reconciliation_runs (
			id TEXT PRIMARY KEY,
			account_id TEXT NOT NULL DEFAULT '',
			total_messages INTEGER NOT NULL,
			reconciled_count INTEGER NOT NULL,
			unreconciled_count INTEGER NOT NULL,
			pending_count INTEGER NOT NULL,
			issues TEXT NOT NULL DEFAULT '',
			summary TEXT NOT NULL,
			run_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reconciliation_runs_run_at ON reconciliation_runs(run_at)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}

	return nil
}

// --- shared helpers ---

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatNullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func parseNullableTime(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t := parseTime(s.String)
	return &t
}

// notFound maps sql.ErrNoRows onto ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}
