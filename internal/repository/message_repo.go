package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/trms/treasury-mock/internal/domain"
)

const messageColumns = `id, message_type, kind, sender_bic, receiver_bic, amount, currency,
	account_id, transaction_id, status, reference, value_date, sent_timestamp,
	confirmed_timestamp, raw_message_content, beneficiary_name, beneficiary_account,
	ordering_customer, remittance_info`

const insertMessageSQL = `INSERT OR IGNORE INTO swift_messages (` + messageColumns + `)
	VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`

// MessageRepo stores SWIFT messages and their confirmations.
type MessageRepo struct {
	db *sql.DB
}

func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

func messageArgs(m *domain.SwiftMessage) []any {
	return []any{
		m.ID, m.MessageType, string(m.Kind), m.SenderBIC, m.ReceiverBIC, m.Amount,
		m.Currency, m.AccountID, m.TransactionID, string(m.Status), m.Reference,
		formatTime(m.ValueDate), formatNullableTime(m.SentTimestamp),
		formatNullableTime(m.ConfirmedTimestamp), m.RawMessageContent,
		m.BeneficiaryName, m.BeneficiaryAccount, m.OrderingCustomer, m.RemittanceInfo,
	}
}

func (r *MessageRepo) Insert(m *domain.SwiftMessage) error {
	if _, err := r.db.Exec(insertMessageSQL, messageArgs(m)...); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (r *MessageRepo) BulkInsert(msgs []domain.SwiftMessage) (int, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(insertMessageSQL)
	if err != nil {
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for i := range msgs {
		res, err := stmt.Exec(messageArgs(&msgs[i])...)
		if err != nil {
			return inserted, fmt.Errorf("insert message %d: %w", i, err)
		}
		ra, _ := res.RowsAffected()
		inserted += int(ra)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

func (r *MessageRepo) Count() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM swift_messages").Scan(&count)
	return count, err
}

func (r *MessageRepo) GetByID(id string) (*domain.SwiftMessage, error) {
	row := r.db.QueryRow("SELECT "+messageColumns+" FROM swift_messages WHERE id = ?", id)
	m, err := scanMessage(row)
	if err != nil {
		return nil, notFound(err)
	}
	return m, nil
}

// ListAll returns every message ordered by value date, then id.
func (r *MessageRepo) ListAll() ([]domain.SwiftMessage, error) {
	return r.query("SELECT " + messageColumns + " FROM swift_messages ORDER BY value_date, id")
}

func (r *MessageRepo) ListByAccount(accountID string) ([]domain.SwiftMessage, error) {
	return r.query("SELECT "+messageColumns+" FROM swift_messages WHERE account_id = ? ORDER BY value_date, id", accountID)
}

func (r *MessageRepo) ListByTransaction(txnID string) ([]domain.SwiftMessage, error) {
	return r.query("SELECT "+messageColumns+" FROM swift_messages WHERE transaction_id = ? ORDER BY value_date, id", txnID)
}

func (r *MessageRepo) ListByStatus(statuses ...domain.MessageStatus) ([]domain.SwiftMessage, error) {
	if len(statuses) == 0 {
		return make([]domain.SwiftMessage, 0), nil
	}
	q := "SELECT " + messageColumns + " FROM swift_messages WHERE status IN (?" + repeatPlaceholders(len(statuses)-1) + ") ORDER BY value_date, id"
	args := make([]any, len(statuses))
	for i, s := range statuses {
		args[i] = string(s)
	}
	return r.query(q, args...)
}

// UpdateStatuses applies several status changes atomically.
func (r *MessageRepo) UpdateStatuses(statuses map[string]domain.MessageStatus) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare("UPDATE swift_messages SET status = ? WHERE id = ?")
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for id, status := range statuses {
		if _, err := stmt.Exec(string(status), id); err != nil {
			return fmt.Errorf("update %s: %w", id, err)
		}
	}
	return tx.Commit()
}

// Confirm marks a message confirmed at the given time.
func (r *MessageRepo) Confirm(id string, at time.Time) error {
	res, err := r.db.Exec(
		"UPDATE swift_messages SET status = ?, confirmed_timestamp = ? WHERE id = ?",
		string(domain.MessageStatusConfirmed), formatTime(at), id,
	)
	if err != nil {
		return fmt.Errorf("confirm message: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MessageRepo) InsertConfirmation(c *domain.Confirmation) error {
	_, err := r.db.Exec(
		`INSERT INTO confirmations
		(id, swift_message_id, confirmation_type, sender_bic, receiver_bic,
		 confirmed_at, status, reference, confirmation_message)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		c.ID, c.SwiftMessageID, c.ConfirmationType, c.SenderBIC, c.ReceiverBIC,
		formatTime(c.ConfirmedAt), c.Status, c.Reference, c.ConfirmationMessage,
	)
	if err != nil {
		return fmt.Errorf("insert confirmation: %w", err)
	}
	return nil
}

func (r *MessageRepo) ConfirmationsByMessage(messageID string) ([]domain.Confirmation, error) {
	rows, err := r.db.Query(
		`SELECT id, swift_message_id, confirmation_type, sender_bic, receiver_bic,
		 confirmed_at, status, reference, confirmation_message
		 FROM confirmations WHERE swift_message_id = ? ORDER BY confirmed_at`, messageID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	confs := make([]domain.Confirmation, 0)
	for rows.Next() {
		var c domain.Confirmation
		var confirmedAt string
		if err := rows.Scan(&c.ID, &c.SwiftMessageID, &c.ConfirmationType, &c.SenderBIC,
			&c.ReceiverBIC, &confirmedAt, &c.Status, &c.Reference, &c.ConfirmationMessage); err != nil {
			return nil, err
		}
		c.ConfirmedAt = parseTime(confirmedAt)
		confs = append(confs, c)
	}
	return confs, rows.Err()
}

func (r *MessageRepo) query(q string, args ...any) ([]domain.SwiftMessage, error) {
	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	msgs := make([]domain.SwiftMessage, 0)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		msgs = append(msgs, *m)
	}
	return msgs, rows.Err()
}

func repeatPlaceholders(n int) string {
	s := ""
	for i := 0; i < n; i++ {
		s += ",?"
	}
	return s
}

func scanMessage(s scanner) (*domain.SwiftMessage, error) {
	var m domain.SwiftMessage
	var kind, status, valueDate string
	var sentAt, confirmedAt sql.NullString

	err := s.Scan(
		&m.ID, &m.MessageType, &kind, &m.SenderBIC, &m.ReceiverBIC, &m.Amount,
		&m.Currency, &m.AccountID, &m.TransactionID, &status, &m.Reference,
		&valueDate, &sentAt, &confirmedAt, &m.RawMessageContent,
		&m.BeneficiaryName, &m.BeneficiaryAccount, &m.OrderingCustomer, &m.RemittanceInfo,
	)
	if err != nil {
		return nil, err
	}

	m.Kind = domain.MessageKind(kind)
	m.Status = domain.MessageStatus(status)
	m.ValueDate = parseTime(valueDate)
	m.SentTimestamp = parseNullableTime(sentAt)
	m.ConfirmedTimestamp = parseNullableTime(confirmedAt)

	return &m, nil
}
