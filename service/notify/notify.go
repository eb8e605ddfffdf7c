// Package notify is the notification collaborator: an outbox that queues
// invitations and status-change notices, and a dispatcher that drains the
// outbox into a delivery Sender. Delivery failures never reach the caller
// of the transition that produced the notification.
package notify

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Kind identifies the notification type.
type Kind string

const (
	KindInvitation   Kind = "INVITATION"
	KindStatusChange Kind = "STATUS_CHANGE"
)

// Notification is one queued outbound message.
type Notification struct {
	ID        string     `json:"id"`
	Kind      Kind       `json:"kind"`
	PolicyID  string     `json:"policyId,omitempty"`
	ActorID   string     `json:"actorId,omitempty"`
	// Token is the raw access token; durable queue vendors persist it until delivery.
	Token     string     `json:"token,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	Status    string     `json:"status,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Notifier accepts notifications fire-and-forget.
type Notifier interface {
	SendInvitation(ctx context.Context, actorID, token string, expiresAt time.Time) error
	SendStatusChange(ctx context.Context, policyID, status string) error
}

// Sender delivers a notification (email, SMS, webhook).
type Sender interface {
	Deliver(ctx context.Context, notification *Notification) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, notification *Notification) error

func (f SenderFunc) Deliver(ctx context.Context, notification *Notification) error {
	return f(ctx, notification)
}

// LogSender delivers notifications to a logger; useful until a real
// channel (email, SMS) is wired.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a logging sender.
func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Deliver(_ context.Context, notification *Notification) error {
	s.logger.Info("notification delivered",
		zap.String("kind", string(notification.Kind)),
		zap.String("policy_id", notification.PolicyID),
		zap.String("actor_id", notification.ActorID),
		zap.String("status", notification.Status))
	return nil
}
