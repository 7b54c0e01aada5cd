package types

import (
	"context"
	"reflect"

	"github.com/viant/toolgate/model"
)

type Signatures []Signature

func (s Signatures) Lookup(name string) *Signature {
	for i := range s {
		sig := &s[i]
		if sig.Name == name {
			return sig
		}
	}
	return nil
}

// Signature describes a tool method. SecurityLevel is the minimum level a
// caller's tool context must carry to invoke it; empty means safe.
type Signature struct {
	Name          string
	Description   string
	Input         reflect.Type
	Output        reflect.Type
	SecurityLevel model.SecurityLevel
	TouchesPath   bool
}

// Executable is a function that can be executed
type Executable func(ctx context.Context, input, output interface{}) error
