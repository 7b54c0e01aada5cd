// Package batch groups commands under one approval and runs them
// asynchronously, one at a time, in order. A session stops at its first
// failing command; results of commands that completed are kept.
package batch
