// Package compliance validates approval requests against governance rules.
// Validation fails closed: any violation fails the request, and Enforce
// returns the violations as a *ViolationError.
package compliance
