// Package postgres provides a PostgreSQL audit log on pgx. Rows are only
// ever inserted.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/viant/guaranty/internal/idgen"
	"github.com/viant/guaranty/model/audit"
)

// DefaultTable is the audit table name.
const DefaultTable = "policy_audit_log"

// Log appends audit records to a table.
type Log struct {
	pool  *pgxpool.Pool
	table string
}

// New wraps an existing pool.
func New(pool *pgxpool.Pool, table string) (*Log, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	if table == "" {
		table = DefaultTable
	}
	return &Log{pool: pool, table: table}, nil
}

// Connect opens a pool for dsn.
func Connect(ctx context.Context, dsn, table string) (*Log, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid postgres dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect postgres: %w", err)
	}
	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	return New(pool, table)
}

// Migrate creates the audit table when missing.
func (l *Log) Migrate(ctx context.Context) error {
	ddl := fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            seq          BIGSERIAL PRIMARY KEY,
            id           TEXT NOT NULL UNIQUE,
            policy_id    TEXT NOT NULL,
            actor_id     TEXT,
            action       TEXT NOT NULL,
            performed_by TEXT NOT NULL,
            ts           TIMESTAMPTZ NOT NULL,
            details      JSONB
        );
        CREATE INDEX IF NOT EXISTS %s_policy_idx ON %s (policy_id, seq);
    `, l.table, l.table, l.table)
	_, err := l.pool.Exec(ctx, ddl)
	return err
}

// Append inserts record.
func (l *Log) Append(ctx context.Context, record *audit.Record) error {
	if record == nil {
		return errors.New("audit record is nil")
	}
	if record.ID == "" {
		record.ID = idgen.New()
	}
	var details []byte
	if len(record.Details) > 0 {
		var err error
		if details, err = json.Marshal(record.Details); err != nil {
			return fmt.Errorf("failed to marshal audit details: %w", err)
		}
	}
	query := fmt.Sprintf(`
        INSERT INTO %s (id, policy_id, actor_id, action, performed_by, ts, details)
        VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7)
    `, l.table)
	if _, err := l.pool.Exec(ctx, query,
		record.ID, record.PolicyID, record.ActorID, string(record.Action),
		record.PerformedBy, record.Timestamp, details); err != nil {
		return fmt.Errorf("failed to append audit record: %w", err)
	}
	return nil
}

// List returns the records of policyID in insertion order.
func (l *Log) List(ctx context.Context, policyID string) ([]*audit.Record, error) {
	query := fmt.Sprintf(`
        SELECT id, policy_id, COALESCE(actor_id, ''), action, performed_by, ts, details
        FROM %s WHERE policy_id = $1 ORDER BY seq
    `, l.table)
	rows, err := l.pool.Query(ctx, query, policyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()
	var ret []*audit.Record
	for rows.Next() {
		record := &audit.Record{}
		var action string
		var details []byte
		if err := rows.Scan(&record.ID, &record.PolicyID, &record.ActorID, &action,
			&record.PerformedBy, &record.Timestamp, &details); err != nil {
			return nil, fmt.Errorf("failed to scan audit record: %w", err)
		}
		record.Action = audit.Action(action)
		if len(details) > 0 {
			if err := json.Unmarshal(details, &record.Details); err != nil {
				return nil, fmt.Errorf("failed to unmarshal audit details: %w", err)
			}
		}
		ret = append(ret, record)
	}
	return ret, rows.Err()
}

// Close releases the pool.
func (l *Log) Close() {
	l.pool.Close()
}
