// Package contract tracks lease contract file versions for a policy.
package contract

import (
	"time"

	"github.com/viant/guaranty/fault"
)

// Version is one uploaded contract file.
type Version struct {
	Version    int        `json:"version"`
	DocumentID string     `json:"documentId"`
	FileName   string     `json:"fileName,omitempty"`
	IsCurrent  bool       `json:"isCurrent"`
	UploadedBy string     `json:"uploadedBy"`
	UploadedAt time.Time  `json:"uploadedAt"`
	SignedBy   string     `json:"signedBy,omitempty"`
	SignedAt   *time.Time `json:"signedAt,omitempty"`
}

// Versions is the ordered version history of a policy contract.
type Versions []*Version

// Upload appends a new current version and demotes the previous one.
func (v Versions) Upload(documentID, fileName, uploadedBy string, at time.Time) (Versions, *Version) {
	next := 1
	for _, candidate := range v {
		candidate.IsCurrent = false
		if candidate.Version >= next {
			next = candidate.Version + 1
		}
	}
	created := &Version{
		Version:    next,
		DocumentID: documentID,
		FileName:   fileName,
		IsCurrent:  true,
		UploadedBy: uploadedBy,
		UploadedAt: at,
	}
	return append(v, created), created
}

// Current returns the current version or nil.
func (v Versions) Current() *Version {
	for _, candidate := range v {
		if candidate.IsCurrent {
			return candidate
		}
	}
	return nil
}

// Signed returns the signed version or nil.
func (v Versions) Signed() *Version {
	for _, candidate := range v {
		if candidate.SignedAt != nil {
			return candidate
		}
	}
	return nil
}

// MarkSigned sets signedAt on the current version only, at most once.
func (v Versions) MarkSigned(by string, at time.Time) (*Version, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	current := v.Current()
	if current == nil {
		return nil, fault.ErrNoCurrentContract
	}
	if v.Signed() != nil {
		return nil, fault.ErrAlreadySigned
	}
	current.SignedBy = by
	current.SignedAt = &at
	return current, nil
}

// Validate detects corrupted history: more than one current version,
// non increasing version numbers or a signature on a demoted version.
func (v Versions) Validate() error {
	currents := 0
	last := 0
	for _, candidate := range v {
		if candidate.IsCurrent {
			currents++
		}
		if candidate.Version <= last {
			return fault.ErrCorruptState.With("contract version %d follows %d", candidate.Version, last)
		}
		last = candidate.Version
		if candidate.SignedAt != nil && !candidate.IsCurrent {
			return fault.ErrCorruptState.With("contract version %d is signed but not current", candidate.Version)
		}
	}
	if currents > 1 {
		return fault.ErrMultipleCurrentContracts.With("%d versions marked current", currents)
	}
	if len(v) > 0 && currents == 0 {
		return fault.ErrCorruptState.With("no current contract version among %d", len(v))
	}
	return nil
}

// Clone returns a deep copy.
func (v Versions) Clone() Versions {
	if v == nil {
		return nil
	}
	ret := make(Versions, len(v))
	for i, candidate := range v {
		c := *candidate
		if candidate.SignedAt != nil {
			at := *candidate.SignedAt
			c.SignedAt = &at
		}
		ret[i] = &c
	}
	return ret
}
