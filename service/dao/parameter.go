package dao

// StateParameter filters listed entities by state.
const StateParameter = "State"

// Parameter narrows a List call.
type Parameter struct {
	Name  string
	Value interface{}
}

// NewParameter creates a parameter; several values match any of them.
func NewParameter(name string, values ...string) *Parameter {
	if len(values) == 1 {
		return &Parameter{Name: name, Value: values[0]}
	}
	return &Parameter{Name: name, Value: values}
}

// WithState is a shorthand for NewParameter(StateParameter, states...).
func WithState(states ...string) *Parameter {
	return NewParameter(StateParameter, states...)
}
