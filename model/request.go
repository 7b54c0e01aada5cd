package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidRequest is returned for malformed approval requests.
var ErrInvalidRequest = errors.New("invalid approval request")

// Urgency expresses how quickly a decision is needed.
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyNormal   Urgency = "normal"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// RequestType distinguishes the caller surface that produced a request.
type RequestType string

const (
	RequestGeneric RequestType = "generic"
	RequestFile    RequestType = "file"
	RequestCommand RequestType = "command"
	RequestPackage RequestType = "package"
	RequestPlan    RequestType = "plan"
)

// SystemRequester identifies requests issued by the engine itself.
const SystemRequester = "system"

// GeneratedJustification prefixes justifications the engine writes for
// destructive commands. They satisfy the critical justification rule and are
// recorded with the submission.
const GeneratedJustification = "generated: "

// RequestContext carries the environment a request runs in.
type RequestContext struct {
	Environment      string   `json:"environment,omitempty" yaml:"environment,omitempty"`
	WorkingDirectory string   `json:"workingDirectory,omitempty" yaml:"workingDirectory,omitempty"`
	AffectedFiles    []string `json:"affectedFiles,omitempty" yaml:"affectedFiles,omitempty"`
	UserID           string   `json:"userId,omitempty" yaml:"userId,omitempty"`
	SessionID        string   `json:"sessionId,omitempty" yaml:"sessionId,omitempty"`
}

// IsProduction reports whether the request targets a production environment.
func (c *RequestContext) IsProduction() bool {
	if c == nil {
		return false
	}
	switch c.Environment {
	case "production", "prod":
		return true
	}
	return false
}

// Request is a unit of work requiring a governance decision before execution.
// The engine attaches RiskAssessment, Workflow and Compliance in place.
type Request struct {
	ID                    string            `json:"id"`
	Title                 string            `json:"title"`
	Description           string            `json:"description"`
	RiskLevel             RiskLevel         `json:"riskLevel"`
	Actions               []Action          `json:"actions"`
	Context               *RequestContext   `json:"context,omitempty"`
	Timeout               time.Duration     `json:"timeout,omitempty"`
	Type                  RequestType       `json:"type,omitempty"`
	RequesterID           string            `json:"requesterId,omitempty"`
	ReadOnly              bool              `json:"readOnly,omitempty"`
	BusinessJustification string            `json:"businessJustification,omitempty"`
	Urgency               Urgency           `json:"urgency,omitempty"`
	RiskAssessment        *RiskAssessment   `json:"riskAssessment,omitempty"`
	Workflow              *Workflow         `json:"workflow,omitempty"`
	Compliance            *ComplianceResult `json:"compliance,omitempty"`
}

// Validate rejects requests that cannot be evaluated.
func (r *Request) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: nil request", ErrInvalidRequest)
	}
	if r.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidRequest)
	}
	if !r.RiskLevel.IsValid() {
		return fmt.Errorf("%w: unknown risk level %q", ErrInvalidRequest, r.RiskLevel)
	}
	for i, action := range r.Actions {
		if action.Type == "" {
			return fmt.Errorf("%w: action %d has no type", ErrInvalidRequest, i)
		}
	}
	return nil
}

// UserID returns the requesting user as carried by the context.
func (r *Request) UserID() string {
	if r.Context != nil && r.Context.UserID != "" {
		return r.Context.UserID
	}
	return r.RequesterID
}

// SessionID returns the session the request belongs to.
func (r *Request) SessionID() string {
	if r.Context == nil {
		return ""
	}
	return r.Context.SessionID
}

// AffectedFiles returns the files touched according to the context.
func (r *Request) AffectedFiles() []string {
	if r.Context == nil {
		return nil
	}
	return r.Context.AffectedFiles
}

// HighestActionRisk returns the most severe action level.
func (r *Request) HighestActionRisk() RiskLevel {
	levels := make([]RiskLevel, 0, len(r.Actions))
	for _, a := range r.Actions {
		levels = append(levels, a.RiskLevel)
	}
	return MaxRisk(levels...)
}

// Clone returns a deep enough copy for safe inspection by readers.
func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}
	ret := *r
	ret.Actions = append([]Action(nil), r.Actions...)
	if r.Context != nil {
		c := *r.Context
		c.AffectedFiles = append([]string(nil), r.Context.AffectedFiles...)
		ret.Context = &c
	}
	return &ret
}
