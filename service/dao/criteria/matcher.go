package criteria

import (
	"github.com/viant/guaranty/service/dao"
)

// Fields exposes the filterable attributes of an entity.
type Fields func(name string) (string, bool)

// Match reports whether every parameter known to fields matches; unknown
// parameter names are ignored.
func Match(fields Fields, parameters []*dao.Parameter) bool {
	if fields == nil {
		return true
	}
	for _, parameter := range parameters {
		if parameter == nil {
			continue
		}
		value, ok := fields(parameter.Name)
		if !ok {
			continue
		}
		switch actual := parameter.Value.(type) {
		case string:
			if value != actual {
				return false
			}
		case []string:
			matched := false
			for _, candidate := range actual {
				if value == candidate {
					matched = true
					break
				}
			}
			if !matched {
				return false
			}
		}
	}
	return true
}
