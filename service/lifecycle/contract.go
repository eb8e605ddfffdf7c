package lifecycle

import (
	"context"
	"strconv"
	"time"

	"github.com/viant/guaranty/access"
	"github.com/viant/guaranty/fault"
	"github.com/viant/guaranty/model/audit"
	"github.com/viant/guaranty/model/contract"
	"github.com/viant/guaranty/model/policy"
	"github.com/viant/guaranty/service/storage"
	"go.uber.org/zap"
)

// ContractCategory is the storage category of contract files.
const ContractCategory = "contract"

// UploadContract stores a new contract version and makes it current. The
// file is stored before the policy lock is taken; the lock is only held
// to commit the new version.
func (s *Service) UploadContract(ctx context.Context, principal access.Principal, policyID string, file *storage.File) (ret *contract.Version, err error) {
	ctx, op := s.start(ctx, "UploadContract", principal)
	defer op.end(ctx, &err)
	if err = op.authorize(access.ActionUploadContract); err != nil {
		return nil, err
	}
	if s.storage == nil {
		return nil, fault.ErrInvalidInput.With("contract storage is not configured")
	}
	if file == nil {
		return nil, fault.ErrInvalidInput.With("contract file is required")
	}
	current, err := s.Get(ctx, policyID)
	if err != nil {
		return nil, err
	}
	if !current.Status.AcceptsContract() {
		return nil, fault.ErrIllegalTransition.With("cannot upload contract for policy in %s", current.Status)
	}
	documentID, err := s.storage.PutDocument(ctx, policyID, ContractCategory, file)
	if err != nil {
		return nil, err
	}

	if err = op.lock(ctx, policyID); err != nil {
		return nil, err
	}
	p := op.policy
	if !p.Status.AcceptsContract() {
		s.logger.Warn("orphan contract document after rejected upload",
			zap.String("policy_id", policyID),
			zap.String("document_id", documentID),
			zap.String("status", string(p.Status)))
		return nil, fault.ErrIllegalTransition.With("cannot upload contract for policy in %s", p.Status)
	}
	var version *contract.Version
	p.Contracts, version = p.Contracts.Upload(documentID, file.Name, principal.ID, op.now)
	if err = policy.Stamp(&p.Timestamps.ContractUploadedAt, "contractUploadedAt", op.now); err != nil {
		return nil, err
	}
	p.Status = policy.StatusContractPending
	if err = op.commit(ctx); err != nil {
		return nil, err
	}
	op.audit(audit.ActionContractUploaded, "", map[string]string{"version": strconv.Itoa(version.Version), "documentId": documentID})
	return version, nil
}

// MarkContractSigned signs the current contract version and activates the
// policy in one transition; expiresAt is signedAt plus the contract length.
func (s *Service) MarkContractSigned(ctx context.Context, principal access.Principal, policyID string) (ret *policy.Policy, err error) {
	ctx, op := s.start(ctx, "MarkContractSigned", principal)
	defer op.end(ctx, &err)
	if err = op.authorize(access.ActionMarkContractSigned); err != nil {
		return nil, err
	}
	if err = op.lock(ctx, policyID); err != nil {
		return nil, err
	}
	p := op.policy
	switch p.Status {
	case policy.StatusContractPending:
	case policy.StatusApproved:
		return nil, fault.ErrNoCurrentContract
	default:
		if p.Contracts.Signed() != nil {
			return nil, fault.ErrAlreadySigned
		}
		return nil, fault.ErrIllegalTransition.With("cannot sign contract of policy in %s", p.Status)
	}
	version, err := p.Contracts.MarkSigned(principal.ID, op.now)
	if err != nil {
		return nil, err
	}
	p.Status = policy.StatusContractSigned
	if err = p.Activate(*version.SignedAt); err != nil {
		return nil, err
	}
	if err = op.commit(ctx); err != nil {
		return nil, err
	}
	op.audit(audit.ActionContractSigned, "", map[string]string{
		"version":   strconv.Itoa(version.Version),
		"expiresAt": p.Timestamps.ExpiresAt.Format(time.RFC3339),
	})
	return p.Clone(), nil
}
