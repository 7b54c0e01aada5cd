package approval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/toolgate/model"
)

func TestCondition_Holds(t *testing.T) {
	req := &model.Request{
		Title:     "update config",
		RiskLevel: model.RiskMedium,
		Actions:   []model.Action{{Type: model.ActionFileModify, RiskLevel: model.RiskLow}},
		Context:   &model.RequestContext{Environment: "staging", AffectedFiles: []string{"app.yaml", "db.yaml"}},
		Timeout:   30,
	}
	doc := document(req)
	testCases := []struct {
		description string
		condition   Condition
		expect      bool
	}{
		{description: "nested equals", condition: Condition{Field: "context.environment", Operator: OpEquals, Value: "staging"}, expect: true},
		{description: "nested equals mismatch", condition: Condition{Field: "context.environment", Operator: OpEquals, Value: "prod"}},
		{description: "not equals", condition: Condition{Field: "context.environment", Operator: OpNotEquals, Value: "prod"}, expect: true},
		{description: "missing field not equals", condition: Condition{Field: "context.sessionId", Operator: OpNotEquals, Value: "x"}, expect: true},
		{description: "missing field equals", condition: Condition{Field: "context.sessionId", Operator: OpEquals, Value: "x"}},
		{description: "string contains", condition: Condition{Field: "title", Operator: OpContains, Value: "config"}, expect: true},
		{description: "slice contains", condition: Condition{Field: "context.affectedFiles", Operator: OpContains, Value: "db.yaml"}, expect: true},
		{description: "slice not contains", condition: Condition{Field: "context.affectedFiles", Operator: OpContains, Value: "x.yaml"}},
		{description: "risk less than", condition: Condition{Field: "riskLevel", Operator: OpLessThan, Value: "high"}, expect: true},
		{description: "risk greater than", condition: Condition{Field: "riskLevel", Operator: OpGreaterThan, Value: "low"}, expect: true},
		{description: "risk not greater", condition: Condition{Field: "riskLevel", Operator: OpGreaterThan, Value: "critical"}},
		{description: "numeric greater", condition: Condition{Field: "timeout", Operator: OpGreaterThan, Value: 10}, expect: true},
		{description: "numeric less", condition: Condition{Field: "timeout", Operator: OpLessThan, Value: "10"}},
		{description: "incomparable", condition: Condition{Field: "title", Operator: OpLessThan, Value: "abc"}},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expect, tc.condition.Holds(doc), tc.description)
	}
}

func TestRule_Matches(t *testing.T) {
	req := &model.Request{
		Title:     "deploy",
		RiskLevel: model.RiskLow,
		Actions:   []model.Action{{Type: model.ActionCommandExecute, RiskLevel: model.RiskHigh}},
		Context:   &model.RequestContext{Environment: "dev"},
	}
	dev := Condition{Field: "context.environment", Operator: OpEquals, Value: "dev"}
	testCases := []struct {
		description string
		rule        Rule
		expect      bool
	}{
		{description: "inactive", rule: Rule{ID: "1", Conditions: []Condition{dev}}},
		{description: "active", rule: Rule{ID: "1", Active: true, Conditions: []Condition{dev}}, expect: true},
		{description: "action risk above max", rule: Rule{ID: "1", Active: true, MaxRisk: model.RiskMedium, Conditions: []Condition{dev}}},
		{description: "within max", rule: Rule{ID: "1", Active: true, MaxRisk: model.RiskHigh, Conditions: []Condition{dev}}, expect: true},
		{description: "one condition fails", rule: Rule{ID: "1", Active: true, Conditions: []Condition{dev, {Field: "title", Operator: OpEquals, Value: "build"}}}},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expect, tc.rule.Matches(req), tc.description)
	}
}
