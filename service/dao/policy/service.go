// Package policy provides policy stores: in-memory and afs-backed JSON files.
package policy

import (
	"github.com/viant/guaranty/model/policy"
	"github.com/viant/guaranty/service/dao"
	"github.com/viant/guaranty/service/dao/criteria"
	"github.com/viant/guaranty/service/dao/fs"
	"github.com/viant/guaranty/service/dao/store"
	"go.uber.org/zap"
)

// Service stores policies by id.
type Service = dao.Service[string, policy.Policy]

func key(p *policy.Policy) string { return p.ID }

func fields(p *policy.Policy) criteria.Fields {
	return func(name string) (string, bool) {
		switch name {
		case dao.ParamStatus:
			return string(p.Status), true
		case dao.ParamPolicyID:
			return p.ID, true
		}
		return "", false
	}
}

// NewMemory creates an in-memory policy store.
func NewMemory() Service {
	return store.NewMemoryStore[string, policy.Policy](key,
		store.WithClone[string, policy.Policy]((*policy.Policy).Clone),
		store.WithFields[string, policy.Policy](fields))
}

// NewFS creates a JSON file policy store under baseURL.
func NewFS(baseURL string, logger *zap.Logger) (Service, error) {
	return fs.New[policy.Policy](baseURL, key,
		fs.WithFields[policy.Policy](fields),
		fs.WithLogger[policy.Policy](logger))
}
