// Package workflow materializes the ordered approval steps of a request and
// watches them for timeout based escalation.
package workflow
