// Package approval turns approval requests into one authoritative decision.
//
// A request is first matched against the requesting user's auto-approval
// rules, then against the static policy, then against its read-only flag.
// Only when none apply is the request scored, checked for compliance, given a
// workflow and presented to a human. Every path leaves an audit entry, emits
// an event and removes the request from the pending set.
package approval
