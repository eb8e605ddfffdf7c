package notify

import (
	"context"
	"time"

	"github.com/viant/guaranty/internal/clock"
	"github.com/viant/guaranty/internal/idgen"
	"github.com/viant/guaranty/service/messaging"
)

// Outbox queues notifications on a messaging queue.
type Outbox struct {
	queue messaging.Queue[Notification]
}

// NewOutbox creates an outbox over queue.
func NewOutbox(queue messaging.Queue[Notification]) *Outbox {
	return &Outbox{queue: queue}
}

// SendInvitation queues an access link for actorID.
func (o *Outbox) SendInvitation(ctx context.Context, actorID, token string, expiresAt time.Time) error {
	return o.queue.Publish(ctx, &Notification{
		ID:        idgen.New(),
		Kind:      KindInvitation,
		ActorID:   actorID,
		Token:     token,
		ExpiresAt: &expiresAt,
		CreatedAt: clock.Now(),
	})
}

// SendStatusChange queues a policy status notice.
func (o *Outbox) SendStatusChange(ctx context.Context, policyID, status string) error {
	return o.queue.Publish(ctx, &Notification{
		ID:        idgen.New(),
		Kind:      KindStatusChange,
		PolicyID:  policyID,
		Status:    status,
		CreatedAt: clock.Now(),
	})
}

var _ Notifier = (*Outbox)(nil)
