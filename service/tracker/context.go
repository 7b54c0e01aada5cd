package tracker

import (
	"time"

	"github.com/viant/toolgate/internal/clock"
	"github.com/viant/toolgate/model"
)

// ToolContext is the security context of one tool invocation.
type ToolContext struct {
	WorkingDirectory string              `json:"workingDirectory"`
	UserID           string              `json:"userId,omitempty"`
	SessionID        string              `json:"sessionId,omitempty"`
	Timestamp        time.Time           `json:"timestamp"`
	SecurityLevel    model.SecurityLevel `json:"securityLevel"`
}

// NewContext creates a context stamped now; invalid levels become safe.
func NewContext(workingDirectory string, level model.SecurityLevel) ToolContext {
	return ToolContext{
		WorkingDirectory: workingDirectory,
		Timestamp:        clock.Now(),
		SecurityLevel:    model.MaxSecurity(level, model.SecuritySafe),
	}
}

// WithUser returns a copy carrying user and session ids.
func (c ToolContext) WithUser(userID, sessionID string) ToolContext {
	c.UserID = userID
	c.SessionID = sessionID
	return c
}

// Escalate returns a copy whose level is the stricter of the current and requested one.
func (c ToolContext) Escalate(level model.SecurityLevel) ToolContext {
	c.SecurityLevel = model.MaxSecurity(c.SecurityLevel, level)
	return c
}

// SecurityChecks records which checks guarded an invocation.
type SecurityChecks struct {
	PathValidated   bool `json:"pathValidated"`
	UserConfirmed   bool `json:"userConfirmed"`
	CommandAnalyzed bool `json:"commandAnalyzed,omitempty"`
}
