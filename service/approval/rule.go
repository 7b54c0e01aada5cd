package approval

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/viant/toolbox"
	"github.com/viant/toolbox/data"
	"github.com/viant/toolgate/model"
)

// Operator compares a request field with a condition value.
type Operator string

const (
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "not_equals"
	OpContains    Operator = "contains"
	OpGreaterThan Operator = "greater_than"
	OpLessThan    Operator = "less_than"
)

// Condition tests one dotted request field, e.g. "context.environment".
type Condition struct {
	Field    string      `json:"field" yaml:"field"`
	Operator Operator    `json:"operator" yaml:"operator"`
	Value    interface{} `json:"value" yaml:"value"`
}

// Rule auto-approves requests matching all of its conditions.
type Rule struct {
	ID         string          `json:"id" yaml:"id"`
	Name       string          `json:"name" yaml:"name"`
	Conditions []Condition     `json:"conditions" yaml:"conditions"`
	MaxRisk    model.RiskLevel `json:"maxRisk,omitempty" yaml:"maxRisk,omitempty"`
	Active     bool            `json:"active" yaml:"active"`
}

// Validate rejects rules that can never be evaluated.
func (r *Rule) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("approval: rule id is required")
	}
	if r.MaxRisk != "" && !r.MaxRisk.IsValid() {
		return fmt.Errorf("approval: rule %v: unknown max risk %q", r.ID, r.MaxRisk)
	}
	for i, c := range r.Conditions {
		if c.Field == "" {
			return fmt.Errorf("approval: rule %v: condition %d has no field", r.ID, i)
		}
		switch c.Operator {
		case OpEquals, OpNotEquals, OpContains, OpGreaterThan, OpLessThan:
		default:
			return fmt.Errorf("approval: rule %v: unsupported operator %q", r.ID, c.Operator)
		}
	}
	return nil
}

// Matches reports whether the rule is active, req is within MaxRisk and every
// condition holds.
func (r *Rule) Matches(req *model.Request) bool {
	if !r.Active || req == nil {
		return false
	}
	if r.MaxRisk != "" {
		level := model.MaxRisk(req.RiskLevel, req.HighestActionRisk())
		if level.Rank() > r.MaxRisk.Rank() {
			return false
		}
	}
	doc := document(req)
	for _, c := range r.Conditions {
		if !c.Holds(doc) {
			return false
		}
	}
	return true
}

// document exposes the request under its JSON field names for dotted lookup.
func document(req *model.Request) data.Map {
	ret := data.Map{}
	encoded, err := json.Marshal(req)
	if err != nil {
		return ret
	}
	_ = json.Unmarshal(encoded, &ret)
	return ret
}

// Holds evaluates the condition against doc. A missing field only satisfies not_equals.
func (c *Condition) Holds(doc data.Map) bool {
	actual, ok := doc.GetValue(c.Field)
	if !ok || actual == nil {
		return c.Operator == OpNotEquals
	}
	switch c.Operator {
	case OpEquals:
		return equal(actual, c.Value)
	case OpNotEquals:
		return !equal(actual, c.Value)
	case OpContains:
		if toolbox.IsSlice(actual) {
			for _, item := range toolbox.AsSlice(actual) {
				if equal(item, c.Value) {
					return true
				}
			}
			return false
		}
		return strings.Contains(toolbox.AsString(actual), toolbox.AsString(c.Value))
	case OpGreaterThan:
		cmp, ok := compare(actual, c.Value)
		return ok && cmp > 0
	case OpLessThan:
		cmp, ok := compare(actual, c.Value)
		return ok && cmp < 0
	}
	return false
}

func equal(actual, expected interface{}) bool {
	if cmp, ok := compare(actual, expected); ok {
		return cmp == 0
	}
	return toolbox.AsString(actual) == toolbox.AsString(expected)
}

// compare orders numbers numerically and risk levels by rank.
func compare(actual, expected interface{}) (int, bool) {
	a, aErr := toolbox.ToFloat(actual)
	e, eErr := toolbox.ToFloat(expected)
	if aErr == nil && eErr == nil {
		switch {
		case a < e:
			return -1, true
		case a > e:
			return 1, true
		}
		return 0, true
	}
	aLevel, aOk := model.ParseRiskLevel(toolbox.AsString(actual))
	eLevel, eOk := model.ParseRiskLevel(toolbox.AsString(expected))
	if aOk && eOk {
		return aLevel.Rank() - eLevel.Rank(), true
	}
	return 0, false
}
