// Package memory provides an in-memory grant store.
package memory

import (
	"github.com/viant/guaranty/model/grant"
	"github.com/viant/guaranty/service/dao"
	"github.com/viant/guaranty/service/dao/criteria"
	"github.com/viant/guaranty/service/dao/store"
)

// New creates an in-memory grant store keyed by token digest.
func New() dao.Service[string, grant.Grant] {
	return store.NewMemoryStore[string, grant.Grant](
		func(g *grant.Grant) string { return g.Digest },
		store.WithClone[string, grant.Grant]((*grant.Grant).Clone),
		store.WithFields[string, grant.Grant](func(g *grant.Grant) criteria.Fields {
			return func(name string) (string, bool) {
				switch name {
				case dao.ParamActorID:
					return g.ActorID, true
				case dao.ParamPolicyID:
					return g.PolicyID, true
				}
				return "", false
			}
		}))
}
