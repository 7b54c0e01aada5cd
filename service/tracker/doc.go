// Package tracker is the single entry point for governed tool calls.
//
// Execute runs an operation under a ToolContext, appends exactly one Record
// to the execution history once the operation completes, and re-returns the
// operation's error. History readers always receive copies.
package tracker
