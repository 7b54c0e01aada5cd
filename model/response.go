package model

import "time"

// Response is the terminal outcome of exactly one approval request.
type Response struct {
	RequestID        string        `json:"requestId"`
	Approved         bool          `json:"approved"`
	Approver         string        `json:"approver,omitempty"`
	UserComments     string        `json:"userComments,omitempty"`
	Conditions       []string      `json:"conditions,omitempty"`
	Timestamp        time.Time     `json:"timestamp"`
	ProcessingTimeMs int64         `json:"processingTimeMs"`
	WorkflowID       string        `json:"workflowId,omitempty"`
	EscalationLevel  int           `json:"escalationLevel,omitempty"`
	Interrupted      bool          `json:"interrupted,omitempty"`
	AuditTrail       []AuditRecord `json:"auditTrail,omitempty"`
}

// Escalated reports whether a higher tier should re-evaluate the request.
func (r *Response) Escalated() bool {
	return r != nil && !r.Approved && r.EscalationLevel > 0
}

// AuditRecord is the response-embedded view of an audit entry.
type AuditRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Details   string    `json:"details,omitempty"`
}
