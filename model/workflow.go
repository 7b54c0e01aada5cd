package model

import "time"

// StepType describes who resolves a workflow step.
type StepType string

const (
	StepApproval   StepType = "approval"
	StepReview     StepType = "review"
	StepCompliance StepType = "compliance"
)

// WorkflowStep is one ordered approval or review stage.
type WorkflowStep struct {
	Order     int           `json:"order"`
	Name      string        `json:"name"`
	Type      StepType      `json:"type"`
	Approvers []string      `json:"approvers"`
	Timeout   time.Duration `json:"timeout"`
	Optional  bool          `json:"optional"`
}

// EscalationTrigger names the condition that fires an escalation rule.
type EscalationTrigger string

const TriggerTimeout EscalationTrigger = "timeout"

// EscalationAction names what an escalation rule does.
type EscalationAction string

const EscalateToNextTier EscalationAction = "escalate_next_tier"

// EscalationRule escalates a step once its trigger fires and Delay elapsed.
type EscalationRule struct {
	Trigger EscalationTrigger `json:"trigger"`
	Action  EscalationAction  `json:"action"`
	Delay   time.Duration     `json:"delay"`
}

// Workflow is the ordered sequence of approval steps for a request.
type Workflow struct {
	ID              string           `json:"id"`
	RequestID       string           `json:"requestId"`
	Steps           []WorkflowStep   `json:"steps"`
	CurrentStep     int              `json:"currentStep"`
	EscalationRules []EscalationRule `json:"escalationRules"`
	Parallel        bool             `json:"parallel"`
	CreatedAt       time.Time        `json:"createdAt"`
}

// Current returns the step awaiting resolution, or nil when exhausted.
func (w *Workflow) Current() *WorkflowStep {
	if w == nil || w.CurrentStep < 0 || w.CurrentStep >= len(w.Steps) {
		return nil
	}
	return &w.Steps[w.CurrentStep]
}

// HasStep reports whether a step with the given name exists.
func (w *Workflow) HasStep(name string) bool {
	if w == nil {
		return false
	}
	for _, s := range w.Steps {
		if s.Name == name {
			return true
		}
	}
	return false
}

// TotalTimeout sums all step timeouts.
func (w *Workflow) TotalTimeout() time.Duration {
	var ret time.Duration
	if w == nil {
		return ret
	}
	for _, s := range w.Steps {
		ret += s.Timeout
	}
	return ret
}

// TimeoutMs returns the step timeout in milliseconds.
func (s *WorkflowStep) TimeoutMs() int64 { return s.Timeout.Milliseconds() }
