// Package render is the document-rendering collaborator. Renderers are
// read-only: they may be called in any policy state and never mutate it.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/viant/guaranty/fault"
	"github.com/viant/guaranty/model/actor"
	"github.com/viant/guaranty/model/policy"
	saudit "github.com/viant/guaranty/service/audit"
	"github.com/viant/guaranty/service/dao"
	actordao "github.com/viant/guaranty/service/dao/actor"
	policydao "github.com/viant/guaranty/service/dao/policy"
	"gopkg.in/yaml.v3"
)

// Renderer renders a policy dossier for audit or export.
type Renderer interface {
	RenderPolicy(ctx context.Context, policyID string) ([]byte, error)
}

// Dossier is the exported view of a policy. Access tokens and document
// bytes are never part of it.
type Dossier struct {
	Policy        PolicyView         `yaml:"policy"`
	Actors        []ActorView        `yaml:"actors"`
	Investigation *InvestigationView `yaml:"investigation,omitempty"`
	Contracts     []ContractView     `yaml:"contracts,omitempty"`
	Activity      []ActivityView     `yaml:"activity,omitempty"`
	RenderedAt    time.Time          `yaml:"renderedAt"`
}

type PolicyView struct {
	ID                   string            `yaml:"id"`
	Status               string            `yaml:"status"`
	PropertyAddress      string            `yaml:"propertyAddress,omitempty"`
	MonthlyRent          float64           `yaml:"monthlyRent,omitempty"`
	GuarantorRequirement string            `yaml:"guarantorRequirement"`
	ContractLengthMonths int               `yaml:"contractLengthMonths"`
	Timestamps           policy.Timestamps `yaml:"timestamps"`
	CancellationReason   string            `yaml:"cancellationReason,omitempty"`
}

type ActorView struct {
	ID                  string `yaml:"id"`
	Role                string `yaml:"role"`
	Kind                string `yaml:"kind"`
	Primary             bool   `yaml:"primary,omitempty"`
	Name                string `yaml:"name,omitempty"`
	Email               string `yaml:"email,omitempty"`
	InformationComplete bool   `yaml:"informationComplete"`
	Verification        string `yaml:"verification"`
	RejectionReason     string `yaml:"rejectionReason,omitempty"`
	References          int    `yaml:"references"`
	Documents           int    `yaml:"documents"`
}

type InvestigationView struct {
	State             string  `yaml:"state"`
	Priority          string  `yaml:"priority,omitempty"`
	AssignedTo        string  `yaml:"assignedTo,omitempty"`
	Verdict           string  `yaml:"verdict,omitempty"`
	RiskLevel         string  `yaml:"riskLevel,omitempty"`
	ResponseTimeHours float64 `yaml:"responseTimeHours,omitempty"`
	LandlordDecision  string  `yaml:"landlordDecision,omitempty"`
}

type ContractView struct {
	Version    int        `yaml:"version"`
	Current    bool       `yaml:"current"`
	UploadedBy string     `yaml:"uploadedBy"`
	UploadedAt time.Time  `yaml:"uploadedAt"`
	SignedAt   *time.Time `yaml:"signedAt,omitempty"`
}

type ActivityView struct {
	At          time.Time         `yaml:"at"`
	Action      string            `yaml:"action"`
	ActorID     string            `yaml:"actorId,omitempty"`
	PerformedBy string            `yaml:"performedBy"`
	Details     map[string]string `yaml:"details,omitempty"`
}

// YAML renders dossiers as YAML documents.
type YAML struct {
	policies policydao.Service
	actors   actordao.Service
	log      saudit.Log
	now      func() time.Time
}

// RenderPolicy loads the policy, its actors and activity and encodes them.
func (r *YAML) RenderPolicy(ctx context.Context, policyID string) ([]byte, error) {
	dossier, err := r.Dossier(ctx, policyID)
	if err != nil {
		return nil, err
	}
	buffer := &bytes.Buffer{}
	encoder := yaml.NewEncoder(buffer)
	encoder.SetIndent(2)
	if err = encoder.Encode(dossier); err != nil {
		return nil, fmt.Errorf("failed to encode dossier: %w", err)
	}
	if err = encoder.Close(); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// Dossier builds the exported view of policyID.
func (r *YAML) Dossier(ctx context.Context, policyID string) (*Dossier, error) {
	aPolicy, err := r.policies.Load(ctx, policyID)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return nil, fault.ErrNotFound.With("policy %s", policyID)
		}
		return nil, err
	}
	records, err := r.actors.List(ctx, dao.NewParameter(dao.ParamPolicyID, policyID))
	if err != nil {
		return nil, fmt.Errorf("failed to list actors: %w", err)
	}
	ret := &Dossier{
		Policy: PolicyView{
			ID:                   aPolicy.ID,
			Status:               string(aPolicy.Status),
			PropertyAddress:      aPolicy.PropertyAddress,
			MonthlyRent:          aPolicy.MonthlyRent,
			GuarantorRequirement: string(aPolicy.GuarantorRequirement),
			ContractLengthMonths: aPolicy.ContractLengthMonths,
			Timestamps:           aPolicy.Timestamps,
			CancellationReason:   aPolicy.CancellationReason,
		},
		RenderedAt: r.now(),
	}
	for _, role := range actor.Roles {
		for _, record := range records {
			if record.Role != role {
				continue
			}
			ret.Actors = append(ret.Actors, ActorView{
				ID:                  record.ID,
				Role:                string(record.Role),
				Kind:                string(record.Kind),
				Primary:             record.Primary,
				Name:                record.DisplayName(),
				Email:               record.Email,
				InformationComplete: record.InformationComplete,
				Verification:        string(record.Verification.Status),
				RejectionReason:     record.Verification.RejectionReason,
				References:          len(record.References()),
				Documents:           len(record.Documents),
			})
		}
	}
	if inv := aPolicy.Investigation; inv != nil {
		ret.Investigation = &InvestigationView{
			State:             string(inv.State),
			Priority:          string(inv.Priority),
			AssignedTo:        inv.AssignedTo,
			Verdict:           string(inv.Verdict),
			RiskLevel:         string(inv.RiskLevel),
			ResponseTimeHours: inv.ResponseTimeHours,
			LandlordDecision:  string(inv.LandlordDecision),
		}
	}
	for _, version := range aPolicy.Contracts {
		ret.Contracts = append(ret.Contracts, ContractView{
			Version:    version.Version,
			Current:    version.IsCurrent,
			UploadedBy: version.UploadedBy,
			UploadedAt: version.UploadedAt,
			SignedAt:   version.SignedAt,
		})
	}
	if r.log != nil {
		activity, err := r.log.List(ctx, policyID)
		if err != nil {
			return nil, fmt.Errorf("failed to list activity: %w", err)
		}
		for _, item := range activity {
			ret.Activity = append(ret.Activity, ActivityView{
				At:          item.Timestamp,
				Action:      string(item.Action),
				ActorID:     item.ActorID,
				PerformedBy: item.PerformedBy,
				Details:     item.Details,
			})
		}
	}
	return ret, nil
}

// NewYAML creates a YAML dossier renderer; log may be nil.
func NewYAML(policies policydao.Service, actors actordao.Service, log saudit.Log, now func() time.Time) *YAML {
	if now == nil {
		now = time.Now
	}
	return &YAML{policies: policies, actors: actors, log: log, now: now}
}

var _ Renderer = (*YAML)(nil)
