package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/viant/guaranty/access"
	"github.com/viant/guaranty/fault"
	"github.com/viant/guaranty/internal/clock"
	"github.com/viant/guaranty/model/actor"
	"github.com/viant/guaranty/model/audit"
	"github.com/viant/guaranty/model/policy"
	"github.com/viant/guaranty/service/dao"
	"github.com/viant/guaranty/service/lock"
	"github.com/viant/guaranty/tracing"
	"go.uber.org/zap"
)

// operation is one orchestrator call: it holds the locks, the loaded state
// and working copies, and the side effects to run once the change committed
// and the locks are released.
type operation struct {
	srv       *Service
	name      string
	principal access.Principal
	span      *tracing.Span
	now       time.Time
	releases  []func()
	loaded    *policy.Policy
	policy    *policy.Policy
	original  map[string]*actor.Record
	actors    map[string]*actor.Record
	dirty     []string
	expiry    []func(ctx context.Context)
	after     []func(ctx context.Context)
	aborted   []func(ctx context.Context)
	committed bool
	started   time.Time
}

func (s *Service) start(ctx context.Context, name string, principal access.Principal) (context.Context, *operation) {
	ctx, span := tracing.StartOperation(ctx, name, string(principal.Role))
	return ctx, &operation{
		srv:       s,
		name:      name,
		principal: principal,
		span:      span,
		now:       clock.Now(),
		started:   time.Now(),
		original:  map[string]*actor.Record{},
		actors:    map[string]*actor.Record{},
	}
}

func (o *operation) authorize(action access.Action) error {
	return o.srv.rules.Authorize(o.principal, action)
}

// lock acquires the policy lock and loads the policy. An active policy past
// its expiry is expired and persisted first.
func (o *operation) lock(ctx context.Context, policyID string) error {
	release, err := o.srv.locker.Acquire(ctx, lock.PolicyKey(policyID))
	if err != nil {
		return err
	}
	o.releases = append(o.releases, release)
	// now is taken under the lock so it never precedes an earlier holder's commit
	o.now = clock.Now()
	loaded, err := o.srv.loadPolicy(ctx, policyID)
	if err != nil {
		return err
	}
	if err = loaded.Validate(); err != nil {
		o.srv.logger.Error("policy invariant violated", zap.String("policy_id", policyID), zap.String("operation", o.name), zap.Error(err))
		return err
	}
	if loaded.IsExpiredAt(o.now) {
		expired := loaded.Clone()
		expired.ExpireAt(o.now)
		expired.UpdatedAt = o.now
		expired.SCN++
		if err = o.srv.policies.Save(ctx, expired); err != nil {
			return fmt.Errorf("failed to save expired policy %s: %w", policyID, err)
		}
		o.expiry = o.srv.expiredHooks(expired)
		loaded = expired
	}
	o.loaded = loaded
	o.policy = loaded.Clone()
	o.span.SetPolicy(policyID, string(loaded.Status))
	return nil
}

// lockActor acquires the actor lock and loads a working copy.
func (o *operation) lockActor(ctx context.Context, actorID string) (*actor.Record, error) {
	if record, ok := o.actors[actorID]; ok {
		return record, nil
	}
	release, err := o.srv.locker.Acquire(ctx, lock.ActorKey(actorID))
	if err != nil {
		return nil, err
	}
	o.releases = append(o.releases, release)
	record, err := o.srv.actors.Load(ctx, actorID)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return nil, fault.ErrNotFound.With("actor %s", actorID)
		}
		return nil, fmt.Errorf("failed to load actor %s: %w", actorID, err)
	}
	if o.policy != nil && record.PolicyID != o.policy.ID {
		return nil, fault.ErrNotFound.With("actor %s in policy %s", actorID, o.policy.ID)
	}
	o.original[actorID] = record
	o.actors[actorID] = record.Clone()
	return o.actors[actorID], nil
}

// lockActors locks every actor of the policy in id order and returns the
// working copies, so that cross-actor guards read a consistent snapshot.
func (o *operation) lockActors(ctx context.Context) ([]*actor.Record, error) {
	listed, err := o.srv.actors.List(ctx, dao.NewParameter(dao.ParamPolicyID, o.policy.ID))
	if err != nil {
		return nil, fmt.Errorf("failed to list actors of %s: %w", o.policy.ID, err)
	}
	ids := make([]string, 0, len(listed))
	for _, record := range listed {
		ids = append(ids, record.ID)
	}
	sort.Strings(ids)
	ret := make([]*actor.Record, 0, len(ids))
	for _, id := range ids {
		record, err := o.lockActor(ctx, id)
		if err != nil {
			return nil, err
		}
		ret = append(ret, record)
	}
	return ret, nil
}

// touch marks a working copy for saving on commit.
func (o *operation) touch(record *actor.Record) {
	for _, id := range o.dirty {
		if id == record.ID {
			return
		}
	}
	if _, ok := o.actors[record.ID]; !ok {
		o.actors[record.ID] = record
	}
	o.dirty = append(o.dirty, record.ID)
}

// commit saves the touched actors, then the policy. When a save fails the
// records already written are restored so that no transition is partially
// applied.
func (o *operation) commit(ctx context.Context) error {
	if o.policy != nil {
		if err := o.policy.Validate(); err != nil {
			o.srv.logger.Error("policy invariant violated", zap.String("policy_id", o.policy.ID), zap.String("operation", o.name), zap.Error(err))
			return err
		}
	}
	var saved []string
	for _, id := range o.dirty {
		record := o.actors[id]
		record.UpdatedAt = o.now
		record.SCN++
		if err := o.srv.actors.Save(ctx, record); err != nil {
			o.rollback(ctx, saved)
			return fmt.Errorf("failed to save actor %s: %w", id, err)
		}
		saved = append(saved, id)
	}
	if o.policy != nil && !reflect.DeepEqual(o.loaded, o.policy) {
		o.policy.UpdatedAt = o.now
		o.policy.SCN++
		if err := o.srv.policies.Save(ctx, o.policy); err != nil {
			o.rollback(ctx, saved)
			return fmt.Errorf("failed to save policy %s: %w", o.policy.ID, err)
		}
		if o.policy.Status != o.loaded.Status {
			o.after = append(o.after, o.srv.statusHooks(o.policy.ID, o.loaded.Status, o.policy.Status, o.name, o.principal.ID)...)
		}
	}
	for _, id := range saved {
		record := o.actors[id].Clone()
		o.after = append(o.after, func(ctx context.Context) {
			o.srv.publishActor(ctx, record, o.name, o.principal.ID)
		})
	}
	o.committed = true
	return nil
}

func (o *operation) rollback(ctx context.Context, saved []string) {
	for _, id := range saved {
		original, ok := o.original[id]
		if !ok {
			if err := o.srv.actors.Delete(ctx, id); err != nil {
				o.srv.logger.Error("failed to roll back actor", zap.String("actor_id", id), zap.Error(err))
			}
			continue
		}
		if err := o.srv.actors.Save(ctx, original); err != nil {
			o.srv.logger.Error("failed to roll back actor", zap.String("actor_id", id), zap.Error(err))
		}
	}
}

// audit queues an audit record for after the commit.
func (o *operation) audit(action audit.Action, actorID string, details map[string]string) {
	policyID := o.policy.ID
	by := o.principal.ID
	o.after = append(o.after, func(ctx context.Context) {
		o.srv.recorder.Record(ctx, policyID, actorID, action, by, details)
	})
}

// then queues a side effect for after the commit.
func (o *operation) then(fn func(ctx context.Context)) {
	o.after = append(o.after, fn)
}

// onAbort registers fn to undo an external write when the operation does
// not commit. It runs while the locks are still held.
func (o *operation) onAbort(fn func(ctx context.Context)) {
	o.aborted = append(o.aborted, fn)
}

// end releases the locks, runs the post-commit side effects and closes the span.
func (o *operation) end(ctx context.Context, err *error) {
	if !o.committed {
		for i := len(o.aborted) - 1; i >= 0; i-- {
			o.aborted[i](ctx)
		}
	}
	for i := len(o.releases) - 1; i >= 0; i-- {
		o.releases[i]()
	}
	o.releases = nil
	for _, fn := range o.expiry {
		fn(ctx)
	}
	if o.committed {
		for _, fn := range o.after {
			fn(ctx)
		}
	}
	if o.policy != nil {
		o.span.SetAttribute("policy.status", string(o.policy.Status))
	}
	o.srv.metrics.Observe(o.name, o.started, *err)
	o.span.End(*err)
}
