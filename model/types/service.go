// Package types defines the contract tool implementations satisfy so the
// execution tracker registry can resolve and govern their methods.
package types

// Service is a tool exposing named methods.
type Service interface {
	Name() string
	Methods() Signatures
	Method(name string) (Executable, error)
}
