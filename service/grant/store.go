package grant

import (
	"github.com/viant/guaranty/model/grant"
	"github.com/viant/guaranty/service/dao"
)

// Store persists grants by token digest; List must support the
// dao.ParamActorID filter.
type Store = dao.Service[string, grant.Grant]
