// Package diff stages proposed file content changes for review.
//
// A staged FileDiff is pending until accepted, which writes the new content
// through afs, or rejected, which discards it. Accepting snapshots the
// previous content so that Rollback can restore it. Decided diffs stay
// staged until cleared.
package diff
