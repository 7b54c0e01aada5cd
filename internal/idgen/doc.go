// Package idgen wraps the UUID generator so that request, workflow and batch
// session identifiers can be stubbed in tests. Callers treat identifiers as
// opaque strings.
package idgen
