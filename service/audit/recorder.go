package audit

import (
	"context"

	"github.com/viant/guaranty/internal/clock"
	"github.com/viant/guaranty/internal/idgen"
	"github.com/viant/guaranty/model/audit"
	"go.uber.org/zap"
)

// Recorder appends audit records after a committed change. Append failures
// are logged and never surface to the caller.
type Recorder struct {
	log    Log
	logger *zap.Logger
}

// NewRecorder creates a recorder; a nil log disables recording.
func NewRecorder(log Log, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{log: log, logger: logger}
}

// Record appends one record.
func (r *Recorder) Record(ctx context.Context, policyID, actorID string, action audit.Action, performedBy string, details map[string]string) {
	if r == nil || r.log == nil {
		return
	}
	record := &audit.Record{
		ID:          idgen.New(),
		PolicyID:    policyID,
		ActorID:     actorID,
		Action:      action,
		PerformedBy: performedBy,
		Timestamp:   clock.Now(),
		Details:     details,
	}
	if err := r.log.Append(ctx, record); err != nil {
		r.logger.Warn("failed to append audit record",
			zap.String("policy_id", policyID),
			zap.String("actor_id", actorID),
			zap.String("action", string(action)),
			zap.Error(err))
	}
}
