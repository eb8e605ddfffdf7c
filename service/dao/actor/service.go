// Package actor provides actor record stores: in-memory and afs-backed JSON files.
package actor

import (
	"github.com/viant/guaranty/model/actor"
	"github.com/viant/guaranty/service/dao"
	"github.com/viant/guaranty/service/dao/criteria"
	"github.com/viant/guaranty/service/dao/fs"
	"github.com/viant/guaranty/service/dao/store"
	"go.uber.org/zap"
)

// Service stores actor records by id; List supports PolicyID and Role filters.
type Service = dao.Service[string, actor.Record]

func key(r *actor.Record) string { return r.ID }

func fields(r *actor.Record) criteria.Fields {
	return func(name string) (string, bool) {
		switch name {
		case dao.ParamPolicyID:
			return r.PolicyID, true
		case dao.ParamRole:
			return string(r.Role), true
		case dao.ParamStatus:
			return string(r.Verification.Status), true
		}
		return "", false
	}
}

// NewMemory creates an in-memory actor store.
func NewMemory() Service {
	return store.NewMemoryStore[string, actor.Record](key,
		store.WithClone[string, actor.Record]((*actor.Record).Clone),
		store.WithFields[string, actor.Record](fields))
}

// NewFS creates a JSON file actor store under baseURL.
func NewFS(baseURL string, logger *zap.Logger) (Service, error) {
	return fs.New[actor.Record](baseURL, key,
		fs.WithFields[actor.Record](fields),
		fs.WithLogger[actor.Record](logger))
}
