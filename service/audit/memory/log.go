// Package memory provides an in-memory audit log.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/viant/guaranty/model/audit"
)

// Log keeps records per policy in append order.
type Log struct {
	mu      sync.RWMutex
	records map[string][]audit.Record
}

// New creates an empty log.
func New() *Log {
	return &Log{records: map[string][]audit.Record{}}
}

// Append stores a copy of record.
func (l *Log) Append(_ context.Context, record *audit.Record) error {
	if record == nil {
		return fmt.Errorf("audit record is nil")
	}
	stored := *record
	if record.Details != nil {
		stored.Details = make(map[string]string, len(record.Details))
		for k, v := range record.Details {
			stored.Details[k] = v
		}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records[record.PolicyID] = append(l.records[record.PolicyID], stored)
	return nil
}

// List returns copies of the policy records.
func (l *Log) List(_ context.Context, policyID string) ([]*audit.Record, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	items := l.records[policyID]
	ret := make([]*audit.Record, 0, len(items))
	for i := range items {
		record := items[i]
		ret = append(ret, &record)
	}
	return ret, nil
}
