package criteria

import (
	"github.com/viant/toolgate/service/dao"
)

// FilterByState reports whether state satisfies every state parameter.
// Parameters with other names are ignored.
func FilterByState(state string, parameters []*dao.Parameter) bool {
	for _, parameter := range parameters {
		if parameter == nil || parameter.Name != dao.StateParameter {
			continue
		}
		if !matches(state, parameter.Value) {
			return false
		}
	}
	return true
}

func matches(state string, value interface{}) bool {
	switch actual := value.(type) {
	case string:
		return state == actual
	case []string:
		if len(actual) == 0 {
			return true
		}
		for _, s := range actual {
			if state == s {
				return true
			}
		}
		return false
	}
	return true
}
