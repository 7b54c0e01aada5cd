package compliance

import (
	"github.com/viant/toolgate/model"
)

// Requirement and violation texts produced by the default rules.
const (
	RequirementManagerApproval    = "manager approval"
	RequirementDataProtection     = "data-protection review"
	ViolationMissingJustification = "critical risk request requires a business justification"
)

// Finding is what a rule contributes for a request.
type Finding struct {
	Violations   []string
	Requirements []string
}

// Rule inspects a request. Rules must not mutate it.
type Rule interface {
	Name() string
	Check(req *model.Request) Finding
}

// RuleFunc adapts a function to Rule.
type RuleFunc struct {
	RuleName string
	Fn       func(req *model.Request) Finding
}

func (r RuleFunc) Name() string                     { return r.RuleName }
func (r RuleFunc) Check(req *model.Request) Finding { return r.Fn(req) }

// DefaultRules returns the built-in governance rules.
func DefaultRules() []Rule {
	return []Rule{
		RuleFunc{RuleName: "production-critical", Fn: productionCritical},
		RuleFunc{RuleName: "high-risk-delete", Fn: highRiskDelete},
		RuleFunc{RuleName: "critical-justification", Fn: criticalJustification},
	}
}

func productionCritical(req *model.Request) Finding {
	if req.Context.IsProduction() && req.RiskLevel == model.RiskCritical {
		return Finding{Requirements: []string{RequirementManagerApproval}}
	}
	return Finding{}
}

func highRiskDelete(req *model.Request) Finding {
	for _, action := range req.Actions {
		if action.Type == model.ActionFileDelete && action.RiskLevel == model.RiskHigh {
			return Finding{Requirements: []string{RequirementDataProtection}}
		}
	}
	return Finding{}
}

func criticalJustification(req *model.Request) Finding {
	if req.RiskLevel != model.RiskCritical || req.BusinessJustification != "" {
		return Finding{}
	}
	if req.RequesterID == model.SystemRequester {
		return Finding{}
	}
	return Finding{Violations: []string{ViolationMissingJustification}}
}
