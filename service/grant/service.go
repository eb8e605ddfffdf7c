// Package grant issues and redeems the single-use, time-boxed access links
// actors use for self-service submission. Expiry is a hard stop: a grant
// is never extended, only replaced by a new one.
package grant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/viant/guaranty/fault"
	"github.com/viant/guaranty/internal/clock"
	"github.com/viant/guaranty/internal/idgen"
	"github.com/viant/guaranty/model/grant"
	"github.com/viant/guaranty/service/dao"
	"go.uber.org/zap"
)

// DefaultTTL is used when Issue is called without a ttl.
const DefaultTTL = 7 * 24 * time.Hour

// Service manages access grants.
type Service struct {
	store  Store
	ttl    time.Duration
	logger *zap.Logger
}

// Issued is the outcome of Issue; Token is returned once and never stored.
type Issued struct {
	Token string
	Grant *grant.Grant
}

// Issue creates a new grant for actorID and revokes any prior live grant
// of the same actor.
func (s *Service) Issue(ctx context.Context, actorID, policyID string, ttl time.Duration) (*Issued, error) {
	if ttl <= 0 {
		ttl = s.ttl
	}
	now := clock.Now()
	if err := s.revokeLive(ctx, actorID, now); err != nil {
		return nil, err
	}
	token := idgen.NewToken()
	g := &grant.Grant{
		Digest:    grant.Digest(token),
		ActorID:   actorID,
		PolicyID:  policyID,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
	if err := s.store.Save(ctx, g); err != nil {
		return nil, fmt.Errorf("failed to save grant: %w", err)
	}
	return &Issued{Token: token, Grant: g}, nil
}

// Resend re-issues a grant with a fresh token and ttl. Callers check that
// the actor information is not complete yet.
func (s *Service) Resend(ctx context.Context, actorID, policyID string, ttl time.Duration) (*Issued, error) {
	return s.Issue(ctx, actorID, policyID, ttl)
}

// Redeem resolves token into its grant. It distinguishes unknown tokens
// (GrantNotFound) from expired or superseded ones (GrantExpired); a token
// already used for a complete submission fails with AlreadyLocked.
func (s *Service) Redeem(ctx context.Context, token string) (*grant.Grant, error) {
	if token == "" {
		return nil, fault.ErrGrantNotFound
	}
	g, err := s.store.Load(ctx, grant.Digest(token))
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return nil, fault.ErrGrantNotFound
		}
		return nil, fmt.Errorf("failed to load grant: %w", err)
	}
	switch {
	case g.ConsumedAt != nil:
		return nil, fault.ErrAlreadyLocked
	case g.RevokedAt != nil:
		return nil, fault.ErrGrantExpired.With("access link was replaced by a newer one")
	case g.IsExpiredAt(clock.Now()):
		return nil, fault.ErrGrantExpired
	}
	return g, nil
}

// Consume marks the grant used; subsequent redemptions fail with AlreadyLocked.
func (s *Service) Consume(ctx context.Context, g *grant.Grant) error {
	if g == nil || g.ConsumedAt != nil {
		return nil
	}
	now := clock.Now()
	consumed := g.Clone()
	consumed.ConsumedAt = &now
	if err := s.store.Save(ctx, consumed); err != nil {
		return fmt.Errorf("failed to consume grant: %w", err)
	}
	g.ConsumedAt = consumed.ConsumedAt
	return nil
}

// Revoke invalidates every live grant of actorID.
func (s *Service) Revoke(ctx context.Context, actorID string) error {
	return s.revokeLive(ctx, actorID, clock.Now())
}

func (s *Service) revokeLive(ctx context.Context, actorID string, now time.Time) error {
	grants, err := s.store.List(ctx, dao.NewParameter(dao.ParamActorID, actorID))
	if err != nil {
		return fmt.Errorf("failed to list grants: %w", err)
	}
	for _, g := range grants {
		if !g.IsLive() {
			continue
		}
		revokedAt := now
		g.RevokedAt = &revokedAt
		if err = s.store.Save(ctx, g); err != nil {
			return fmt.Errorf("failed to revoke grant: %w", err)
		}
		s.logger.Debug("grant revoked", zap.String("actor_id", actorID))
	}
	return nil
}

// New creates a grant service.
func New(store Store, options ...Option) *Service {
	ret := &Service{store: store, ttl: DefaultTTL, logger: zap.NewNop()}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}
