package dao

// Well known filter parameter names.
const (
	ParamPolicyID = "PolicyID"
	ParamStatus   = "Status"
	ParamRole     = "Role"
	ParamActorID  = "ActorID"
)

// Parameter is a List filter; Value is a string or []string.
type Parameter struct {
	Name  string
	Value interface{}
}

func NewParameter(name string, values ...string) *Parameter {
	if len(values) == 1 {
		return &Parameter{Name: name, Value: values[0]}
	}
	return &Parameter{Name: name, Value: values}
}
