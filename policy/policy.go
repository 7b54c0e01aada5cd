package policy

import (
	"context"
	"strings"

	"github.com/viant/toolgate/model"
)

// Policy modes.
const (
	ModeAsk  = "ask"  // auto-approve only what AutoApprove covers (default)
	ModeAuto = "auto" // auto-approve everything not blocked
	ModeDeny = "deny" // reject everything without prompting
)

// Decision is the outcome of a policy evaluation.
type Decision int

const (
	// Ask means the policy does not decide; a human must.
	Ask Decision = iota
	Approve
	Reject
)

func (d Decision) String() string {
	switch d {
	case Approve:
		return "approve"
	case Reject:
		return "reject"
	}
	return "ask"
}

// AutoApprove lists what is approved without a prompt.
// Critical risk is never auto-approved by tier.
type AutoApprove struct {
	LowRisk    bool               `json:"lowRisk,omitempty" yaml:"lowRisk,omitempty"`
	MediumRisk bool               `json:"mediumRisk,omitempty" yaml:"mediumRisk,omitempty"`
	HighRisk   bool               `json:"highRisk,omitempty" yaml:"highRisk,omitempty"`
	Operations []model.ActionType `json:"operations,omitempty" yaml:"operations,omitempty"`
}

// Policy is the static approval policy.
type Policy struct {
	Mode        string             `json:"mode,omitempty" yaml:"mode,omitempty"`
	AutoApprove AutoApprove        `json:"autoApprove,omitempty" yaml:"autoApprove,omitempty"`
	BlockList   []model.ActionType `json:"blockList,omitempty" yaml:"blockList,omitempty"`
}

// Clone returns a copy that shares no slices with p.
func (p *Policy) Clone() *Policy {
	if p == nil {
		return nil
	}
	ret := *p
	ret.AutoApprove.Operations = append([]model.ActionType(nil), p.AutoApprove.Operations...)
	ret.BlockList = append([]model.ActionType(nil), p.BlockList...)
	return &ret
}

// IsBlocked reports whether the action type is on the block list (case-insensitive).
func (p *Policy) IsBlocked(actionType model.ActionType) bool {
	if p == nil {
		return false
	}
	for _, b := range p.BlockList {
		if strings.EqualFold(string(b), string(actionType)) {
			return true
		}
	}
	return false
}

func (p *Policy) tierApproves(level model.RiskLevel) bool {
	switch level {
	case model.RiskLow:
		return p.AutoApprove.LowRisk
	case model.RiskMedium:
		return p.AutoApprove.MediumRisk
	case model.RiskHigh:
		return p.AutoApprove.HighRisk
	}
	return false
}

func (p *Policy) operationsApprove(actions []model.Action) bool {
	if len(actions) == 0 || len(p.AutoApprove.Operations) == 0 {
		return false
	}
	for _, action := range actions {
		allowed := false
		for _, op := range p.AutoApprove.Operations {
			if strings.EqualFold(string(op), string(action.Type)) {
				allowed = true
				break
			}
		}
		if !allowed {
			return false
		}
	}
	return true
}

// Decide evaluates req. A nil policy always asks.
func (p *Policy) Decide(req *model.Request) Decision {
	if p == nil || req == nil {
		return Ask
	}
	if p.Mode == ModeDeny {
		return Reject
	}
	for _, action := range req.Actions {
		if p.IsBlocked(action.Type) {
			return Ask
		}
	}
	level := model.MaxRisk(req.RiskLevel, req.HighestActionRisk())
	if p.Mode == ModeAuto {
		return Approve
	}
	if level == model.RiskCritical {
		return Ask
	}
	if p.tierApproves(level) || p.operationsApprove(req.Actions) {
		return Approve
	}
	return Ask
}

type ctxKeyT struct{}

var ctxKey ctxKeyT

// WithPolicy embeds p in ctx.
func WithPolicy(ctx context.Context, p *Policy) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey, p)
}

// FromContext returns the embedded policy or nil.
func FromContext(ctx context.Context) *Policy {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxKey).(*Policy); ok {
		return v
	}
	return nil
}

// Resolve returns the context policy when present, else fallback.
func Resolve(ctx context.Context, fallback *Policy) *Policy {
	if p := FromContext(ctx); p != nil {
		return p
	}
	return fallback
}
