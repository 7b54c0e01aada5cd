package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaxSecurity(t *testing.T) {
	testCases := []struct {
		name     string
		current  SecurityLevel
		next     SecurityLevel
		expected SecurityLevel
	}{
		{name: "upgrade", current: SecuritySafe, next: SecurityDangerous, expected: SecurityDangerous},
		{name: "no downgrade from dangerous", current: SecurityDangerous, next: SecuritySafe, expected: SecurityDangerous},
		{name: "no downgrade from confirmed", current: SecurityConfirmed, next: SecuritySafe, expected: SecurityConfirmed},
		{name: "unknown current defaults to safe", current: "", next: "", expected: SecuritySafe},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, MaxSecurity(tc.current, tc.next))
		})
	}
}

func TestMaxRisk(t *testing.T) {
	assert.Equal(t, RiskLow, MaxRisk())
	assert.Equal(t, RiskCritical, MaxRisk(RiskLow, RiskCritical, RiskHigh))
	level, ok := ParseRiskLevel(" HIGH ")
	assert.True(t, ok)
	assert.Equal(t, RiskHigh, level)
	_, ok = ParseRiskLevel("extreme")
	assert.False(t, ok)
}

func TestRequest_Validate(t *testing.T) {
	testCases := []struct {
		name    string
		request *Request
		valid   bool
	}{
		{name: "nil", request: nil},
		{name: "missing title", request: &Request{RiskLevel: RiskLow}},
		{name: "bad level", request: &Request{Title: "x", RiskLevel: "extreme"}},
		{name: "untyped action", request: &Request{Title: "x", RiskLevel: RiskLow, Actions: []Action{{}}}},
		{name: "valid", request: &Request{Title: "x", RiskLevel: RiskLow, Actions: []Action{{Type: ActionFileCreate}}}, valid: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.request.Validate()
			if tc.valid {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
}

func TestRequest_Clone(t *testing.T) {
	req := &Request{Title: "x", Actions: []Action{{Type: ActionFileCreate}}, Context: &RequestContext{AffectedFiles: []string{"a"}}}
	clone := req.Clone()
	clone.Actions[0].Type = ActionFileDelete
	clone.Context.AffectedFiles[0] = "b"
	assert.Equal(t, ActionFileCreate, req.Actions[0].Type)
	assert.Equal(t, "a", req.Context.AffectedFiles[0])
}
