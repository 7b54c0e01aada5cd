package workflow

import (
	"time"

	"github.com/viant/toolgate/internal/clock"
	"github.com/viant/toolgate/internal/idgen"
	"github.com/viant/toolgate/model"
)

// Step names.
const (
	StepPrimaryApproval  = "Primary Approval"
	StepManagerReview    = "Manager Review"
	StepComplianceReview = "Compliance Review"
)

// Default step timeouts and escalation delay.
const (
	PrimaryTimeout    = 5 * time.Minute
	ManagerTimeout    = 10 * time.Minute
	ComplianceTimeout = 30 * time.Minute
	EscalationDelay   = 5 * time.Minute
)

const (
	// managerScoreThreshold is the overall score above which a manager review is added.
	managerScoreThreshold = 70
)

// Engine builds workflows.
type Engine struct {
	primaryApprovers    []string
	managerApprovers    []string
	complianceApprovers []string
	primaryTimeout      time.Duration
	managerTimeout      time.Duration
	complianceTimeout   time.Duration
	escalationDelay     time.Duration
}

// Option configures an Engine.
type Option func(e *Engine)

// WithApprovers sets the approver tiers for primary, manager and compliance
// steps; an empty tier keeps the default.
func WithApprovers(primary, manager, compliance []string) Option {
	return func(e *Engine) {
		if len(primary) > 0 {
			e.primaryApprovers = primary
		}
		if len(manager) > 0 {
			e.managerApprovers = manager
		}
		if len(compliance) > 0 {
			e.complianceApprovers = compliance
		}
	}
}

// WithTimeouts overrides step timeouts and the escalation delay; zero keeps the default.
func WithTimeouts(primary, manager, compliance, escalation time.Duration) Option {
	return func(e *Engine) {
		for _, v := range []struct {
			dst *time.Duration
			src time.Duration
		}{{&e.primaryTimeout, primary}, {&e.managerTimeout, manager}, {&e.complianceTimeout, compliance}, {&e.escalationDelay, escalation}} {
			if v.src > 0 {
				*v.dst = v.src
			}
		}
	}
}

// New creates a workflow engine.
func New(opts ...Option) *Engine {
	ret := &Engine{
		primaryApprovers:    []string{"user"},
		managerApprovers:    []string{"manager"},
		complianceApprovers: []string{"compliance-officer"},
		primaryTimeout:      PrimaryTimeout,
		managerTimeout:      ManagerTimeout,
		complianceTimeout:   ComplianceTimeout,
		escalationDelay:     EscalationDelay,
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Create returns the workflow for req. It is deterministic in req's risk level
// and assessment score; an absent assessment scores 0.
func (e *Engine) Create(req *model.Request) *model.Workflow {
	ret := &model.Workflow{
		ID:        idgen.WithPrefix("wf"),
		CreatedAt: clock.Now(),
		EscalationRules: []model.EscalationRule{
			{Trigger: model.TriggerTimeout, Action: model.EscalateToNextTier, Delay: e.escalationDelay},
		},
	}
	if req == nil {
		return ret
	}
	ret.RequestID = req.ID
	ret.Steps = append(ret.Steps, model.WorkflowStep{
		Name:      StepPrimaryApproval,
		Type:      model.StepApproval,
		Approvers: append([]string(nil), e.primaryApprovers...),
		Timeout:   e.primaryTimeout,
	})
	if req.RiskAssessment != nil && req.RiskAssessment.OverallScore > managerScoreThreshold {
		ret.Steps = append(ret.Steps, model.WorkflowStep{
			Name:      StepManagerReview,
			Type:      model.StepReview,
			Approvers: append([]string(nil), e.managerApprovers...),
			Timeout:   e.managerTimeout,
		})
	}
	if req.RiskLevel == model.RiskCritical {
		ret.Steps = append(ret.Steps, model.WorkflowStep{
			Name:      StepComplianceReview,
			Type:      model.StepCompliance,
			Approvers: append([]string(nil), e.complianceApprovers...),
			Timeout:   e.complianceTimeout,
		})
	}
	for i := range ret.Steps {
		ret.Steps[i].Order = i + 1
	}
	return ret
}
