// Package audit is the append-only activity log. Guards never read it.
package audit

import (
	"context"

	"github.com/viant/guaranty/model/audit"
)

// Log appends and lists audit records.
type Log interface {
	Append(ctx context.Context, record *audit.Record) error

	// List returns the records of policyID in append order.
	List(ctx context.Context, policyID string) ([]*audit.Record, error)
}
