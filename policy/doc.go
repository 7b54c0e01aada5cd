// Package policy holds the static auto-approval policy consulted after
// per-user rules. A policy embedded in a context overrides the configured one
// for the calls made with that context.
package policy
