package compliance

import (
	"errors"
	"fmt"
	"strings"

	"github.com/viant/toolgate/model"
)

// ErrViolation is matched by every *ViolationError via errors.Is.
var ErrViolation = errors.New("compliance violation")

// ViolationError aborts an approval attempt.
type ViolationError struct {
	RequestID  string
	Violations []string
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf("compliance violation for request %s: %s", e.RequestID, strings.Join(e.Violations, "; "))
}

// Is makes errors.Is(err, ErrViolation) hold.
func (e *ViolationError) Is(target error) bool { return target == ErrViolation }

// Engine evaluates compliance rules in order.
type Engine struct {
	rules []Rule
}

// New creates an engine; with no rules the defaults apply.
func New(rules ...Rule) *Engine {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Engine{rules: rules}
}

// AddRule appends a rule.
func (e *Engine) AddRule(rule Rule) {
	e.rules = append(e.rules, rule)
}

// Validate runs every rule; Passed holds only when there is no violation.
func (e *Engine) Validate(req *model.Request) *model.ComplianceResult {
	ret := &model.ComplianceResult{Violations: []string{}, Requirements: []string{}}
	if req == nil {
		ret.Violations = append(ret.Violations, "request is missing")
		return ret
	}
	seen := map[string]bool{}
	for _, rule := range e.rules {
		finding := rule.Check(req)
		ret.Violations = append(ret.Violations, finding.Violations...)
		for _, requirement := range finding.Requirements {
			if seen[requirement] {
				continue
			}
			seen[requirement] = true
			ret.Requirements = append(ret.Requirements, requirement)
		}
	}
	ret.Passed = len(ret.Violations) == 0
	return ret
}

// Enforce validates req, attaches the result and returns a *ViolationError on failure.
func (e *Engine) Enforce(req *model.Request) (*model.ComplianceResult, error) {
	result := e.Validate(req)
	if req != nil {
		req.Compliance = result
	}
	if result.Passed {
		return result, nil
	}
	id := ""
	if req != nil {
		id = req.ID
	}
	return result, &ViolationError{RequestID: id, Violations: result.Violations}
}
