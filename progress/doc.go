// Package progress keeps aggregated command counters for a batch session.
// A tracker travels in the execution context, so every stage that receives
// the context can update the counters without a global registry.
package progress
