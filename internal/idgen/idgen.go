package idgen

import "github.com/google/uuid"

// NewFunc returns a new globally unique identifier. Tests may replace it.
var NewFunc = func() string { return uuid.New().String() }

// New returns a new identifier.
func New() string { return NewFunc() }

// WithPrefix returns a new identifier prefixed with kind, e.g. "wf_<uuid>".
func WithPrefix(kind string) string {
	if kind == "" {
		return New()
	}
	return kind + "_" + New()
}
