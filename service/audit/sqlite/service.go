// Package sqlite provides a durable audit store on an embedded SQLite
// database (modernc driver, no cgo). Uniqueness of (agent_name,
// correlation_id) is enforced by the schema so concurrent appends cannot
// produce two records for one request.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/viant/oversight/model/approval"
	"github.com/viant/oversight/service/audit"
	"github.com/viant/oversight/service/dao"

	_ "modernc.org/sqlite" // SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS audit_records (
	agent_name         TEXT NOT NULL,
	correlation_id     TEXT NOT NULL,
	action_description TEXT NOT NULL,
	parameters         TEXT,
	approver_emails    TEXT NOT NULL,
	status             TEXT NOT NULL,
	approver           TEXT,
	requested_at       TEXT NOT NULL,
	decided_at         TEXT NOT NULL,
	PRIMARY KEY (agent_name, correlation_id)
);`

// Service implements audit.Store on SQLite.
type Service struct {
	db *sql.DB
}

var _ audit.Store = (*Service)(nil)

// Append inserts the record; a key collision maps to audit.ErrDuplicate.
func (s *Service) Append(ctx context.Context, record *approval.Record) error {
	if record == nil {
		return dao.ErrNilEntity
	}
	if record.AgentName == "" || record.CorrelationID == "" {
		return dao.ErrInvalidKey
	}
	emails, err := json.Marshal(record.ApproverEmails)
	if err != nil {
		return fmt.Errorf("failed to marshal approver emails: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_records (agent_name, correlation_id, action_description, parameters, approver_emails, status, approver, requested_at, decided_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, record.AgentName, record.CorrelationID, record.ActionDescription, string(record.Parameters), string(emails),
		string(record.Status), record.Approver, record.RequestedAt.Format(time.RFC3339Nano), record.DecidedAt.Format(time.RFC3339Nano))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return audit.ErrDuplicate
		}
		return fmt.Errorf("failed to append audit record: %w", err)
	}
	return nil
}

// Load retrieves one record or audit.ErrNotFound.
func (s *Service) Load(ctx context.Context, agentName, correlationID string) (*approval.Record, error) {
	if agentName == "" || correlationID == "" {
		return nil, dao.ErrInvalidKey
	}
	row := s.db.QueryRowContext(ctx, `
		SELECT agent_name, correlation_id, action_description, parameters, approver_emails, status, approver, requested_at, decided_at
		FROM audit_records WHERE agent_name = ? AND correlation_id = ?
	`, agentName, correlationID)
	record, err := scanRecord(row.Scan)
	if err == sql.ErrNoRows {
		return nil, audit.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load audit record: %w", err)
	}
	return record, nil
}

// List returns all records ordered by decision time.
func (s *Service) List(ctx context.Context) ([]*approval.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT agent_name, correlation_id, action_description, parameters, approver_emails, status, approver, requested_at, decided_at
		FROM audit_records ORDER BY decided_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*approval.Record
	for rows.Next() {
		record, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit records: %w", err)
	}
	return records, nil
}

// Close closes the database connection.
func (s *Service) Close() error {
	return s.db.Close()
}

func scanRecord(scan func(dest ...any) error) (*approval.Record, error) {
	var record approval.Record
	var parameters, emails sql.NullString
	var approver sql.NullString
	var status, requestedAt, decidedAt string
	if err := scan(&record.AgentName, &record.CorrelationID, &record.ActionDescription, &parameters, &emails,
		&status, &approver, &requestedAt, &decidedAt); err != nil {
		return nil, err
	}
	record.Status = approval.Status(status)
	if parameters.Valid && parameters.String != "" {
		record.Parameters = json.RawMessage(parameters.String)
	}
	if emails.Valid && emails.String != "" {
		if err := json.Unmarshal([]byte(emails.String), &record.ApproverEmails); err != nil {
			return nil, err
		}
	}
	if approver.Valid {
		record.Approver = approver.String
	}
	if ts, err := time.Parse(time.RFC3339Nano, requestedAt); err == nil {
		record.RequestedAt = ts
	}
	if ts, err := time.Parse(time.RFC3339Nano, decidedAt); err == nil {
		record.DecidedAt = ts
	}
	return &record, nil
}

// New opens (creating when needed) a SQLite audit store at the given DSN.
// Use ":memory:" for an ephemeral store.
func New(dsn string) (*Service, error) {
	if dsn == "" {
		return nil, fmt.Errorf("dsn cannot be empty")
	}
	if dsn != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("failed to create audit db directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// WAL and a busy timeout keep concurrent appends on distinct keys from
	// tripping over the writer lock.
	if _, err := db.Exec(`
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous = NORMAL;
		PRAGMA busy_timeout = 5000;
	`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set pragmas: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ensure audit schema: %w", err)
	}
	return &Service{db: db}, nil
}
