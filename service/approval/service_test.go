package approval

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/viant/toolgate/model"
	"github.com/viant/toolgate/policy"
	"github.com/viant/toolgate/service/audit"
	"github.com/viant/toolgate/service/compliance"
	"github.com/viant/toolgate/service/diff"
	"github.com/viant/toolgate/service/event"
	"github.com/viant/toolgate/service/prompt"
	"github.com/viant/toolgate/service/workflow"
)

func TestService_PolicyShortCircuit(t *testing.T) {
	prompter := prompt.NewScripted()
	srv := New(WithPrompter(prompter), WithPolicy(&policy.Policy{Mode: policy.ModeAsk, AutoApprove: policy.AutoApprove{LowRisk: true}}))
	resp, err := srv.RequestApproval(context.Background(), &model.Request{ID: "r1", Title: "format code", RiskLevel: model.RiskLow})
	assert.NoError(t, err)
	assert.True(t, resp.Approved)
	assert.Equal(t, model.SystemRequester, resp.Approver)
	assert.EqualValues(t, 0, resp.ProcessingTimeMs)
	assert.Empty(t, prompter.Calls())
	if assert.Len(t, resp.AuditTrail, 2) {
		assert.Equal(t, audit.ActionSubmitted, resp.AuditTrail[0].Action)
		assert.Equal(t, audit.ActionAutoApproved, resp.AuditTrail[1].Action)
	}
}

func TestService_PolicyReject(t *testing.T) {
	prompter := prompt.NewScripted()
	srv := New(WithPrompter(prompter), WithPolicy(&policy.Policy{Mode: policy.ModeDeny}))
	resp, err := srv.RequestApproval(context.Background(), &model.Request{Title: "anything", RiskLevel: model.RiskLow})
	assert.NoError(t, err)
	assert.False(t, resp.Approved)
	assert.Empty(t, prompter.Calls())

	ctx := policy.WithPolicy(context.Background(), &policy.Policy{Mode: policy.ModeAuto})
	resp, err = srv.RequestApproval(ctx, &model.Request{Title: "anything", RiskLevel: model.RiskHigh})
	assert.NoError(t, err)
	assert.True(t, resp.Approved)
}

func TestService_ReadOnly(t *testing.T) {
	prompter := prompt.NewScripted()
	srv := New(WithPrompter(prompter))
	resp, err := srv.RequestApproval(context.Background(), &model.Request{Title: "analysis", RiskLevel: model.RiskMedium, ReadOnly: true})
	assert.NoError(t, err)
	assert.True(t, resp.Approved)
	assert.Empty(t, prompter.Calls())

	_, err = srv.RequestApproval(context.Background(), &model.Request{Title: "readonly analysis", RiskLevel: model.RiskMedium})
	assert.NoError(t, err)
	assert.Len(t, prompter.Calls(), 1)
}

func TestService_RuleConjunction(t *testing.T) {
	rule := Rule{
		ID:   "dev-low",
		Name: "dev environment below high",
		Conditions: []Condition{
			{Field: "context.environment", Operator: OpEquals, Value: "dev"},
			{Field: "riskLevel", Operator: OpLessThan, Value: "high"},
		},
		Active: true,
	}
	testCases := []struct {
		name        string
		environment string
		level       model.RiskLevel
		expectRule  bool
	}{
		{name: "both hold", environment: "dev", level: model.RiskMedium, expectRule: true},
		{name: "environment differs", environment: "prod", level: model.RiskMedium},
		{name: "risk too high", environment: "dev", level: model.RiskHigh},
		{name: "both fail", environment: "prod", level: model.RiskHigh},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			for _, order := range [][]Condition{rule.Conditions, {rule.Conditions[1], rule.Conditions[0]}} {
				prompter := prompt.NewScripted("reject")
				srv := New(WithPrompter(prompter))
				ordered := rule
				ordered.Conditions = order
				assert.NoError(t, srv.AddRule("alice", ordered))
				req := &model.Request{Title: "change", RiskLevel: tc.level, Context: &model.RequestContext{Environment: tc.environment, UserID: "alice"}}
				resp, err := srv.RequestApproval(context.Background(), req)
				assert.NoError(t, err)
				assert.Equal(t, tc.expectRule, resp.Approved)
				if tc.expectRule {
					assert.Equal(t, "rule:dev-low", resp.Approver)
					assert.Empty(t, prompter.Calls())
				} else {
					assert.Len(t, prompter.Calls(), 1)
				}
			}
		})
	}
}

func TestService_DoubleConfirmation(t *testing.T) {
	testCases := []struct {
		name    string
		answers []string
		expect  bool
	}{
		{name: "confirmed twice", answers: []string{"approve", "yes"}, expect: true},
		{name: "declined reconfirmation", answers: []string{"approve", "no"}, expect: false},
		{name: "default reconfirmation", answers: []string{"approve", ""}, expect: false},
		{name: "rejected first", answers: []string{"reject"}, expect: false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			prompter := prompt.NewScripted(tc.answers...)
			srv := New(WithPrompter(prompter))
			req := &model.Request{Title: "drop table", RiskLevel: model.RiskCritical, BusinessJustification: "cleanup", RequesterID: "bob"}
			resp, err := srv.RequestApproval(context.Background(), req)
			assert.NoError(t, err)
			assert.Equal(t, tc.expect, resp.Approved)
			assert.Len(t, prompter.Calls(), len(tc.answers))
			assert.Equal(t, "reject", prompter.Calls()[0].Default)
			assert.NotEmpty(t, resp.WorkflowID)
			assert.True(t, req.Workflow.HasStep(workflow.StepComplianceReview))
			assert.NotNil(t, req.RiskAssessment)
		})
	}
}

func TestService_DefaultBias(t *testing.T) {
	testCases := []struct {
		level  model.RiskLevel
		expect bool
		def    string
	}{
		{level: model.RiskLow, expect: true, def: "approve"},
		{level: model.RiskMedium, expect: false, def: "reject"},
	}
	for _, tc := range testCases {
		prompter := prompt.NewScripted("")
		srv := New(WithPrompter(prompter))
		resp, err := srv.RequestApproval(context.Background(), &model.Request{Title: "t", RiskLevel: tc.level})
		assert.NoError(t, err)
		assert.Equal(t, tc.expect, resp.Approved)
		assert.Equal(t, tc.def, prompter.Calls()[0].Default)
	}
}

func TestService_Comments(t *testing.T) {
	prompter := prompt.NewScripted("approve", "looks fine")
	srv := New(WithPrompter(prompter))
	actions := make([]model.Action, 4)
	for i := range actions {
		actions[i] = model.Action{Type: model.ActionNetworkRequest, Description: "fetch", RiskLevel: model.RiskLow}
	}
	resp, err := srv.RequestApproval(context.Background(), &model.Request{Title: "fetch docs", RiskLevel: model.RiskLow, Actions: actions})
	assert.NoError(t, err)
	assert.True(t, resp.Approved)
	assert.Equal(t, "looks fine", resp.UserComments)
}

func TestService_Interruption(t *testing.T) {
	srv := New(WithPrompter(prompt.NewScripted()))
	var rejected []*event.Event
	srv.Subscribe(event.RequestRejected, func(e *event.Event) { rejected = append(rejected, e) })
	resp, err := srv.RequestApproval(context.Background(), &model.Request{ID: "int", Title: "t", RiskLevel: model.RiskMedium})
	assert.NoError(t, err)
	assert.False(t, resp.Approved)
	assert.True(t, resp.Interrupted)
	assert.Len(t, rejected, 1)
	pending, _ := srv.Pending(context.Background())
	assert.Empty(t, pending)
	assert.Equal(t, 0, srv.ActiveWorkflows())
	trail := srv.AuditTrail("int")
	assert.Equal(t, audit.ActionInterrupted, trail[len(trail)-1].Action)
}

func TestService_ComplianceViolation(t *testing.T) {
	prompter := prompt.NewScripted("approve", "yes")
	srv := New(WithPrompter(prompter))
	var violations []*event.Event
	srv.Subscribe(event.ComplianceViolation, func(e *event.Event) { violations = append(violations, e) })
	actions := make([]model.Action, 5)
	for i := range actions {
		actions[i] = model.Action{Type: model.ActionFileDelete, Description: "rm", RiskLevel: model.RiskHigh}
	}
	req := &model.Request{ID: "crit", Title: "purge", RiskLevel: model.RiskCritical, Actions: actions, RequesterID: "agent"}

	result := compliance.New().Validate(req)
	assert.False(t, result.Passed)

	resp, err := srv.RequestEnterpriseApproval(context.Background(), req)
	assert.Nil(t, resp)
	assert.True(t, errors.Is(err, compliance.ErrViolation))
	assert.Nil(t, req.Workflow)
	assert.Empty(t, prompter.Calls())
	assert.Len(t, violations, 1)
	assert.Equal(t, 0, srv.ActiveWorkflows())
	pending, _ := srv.Pending(context.Background())
	assert.Empty(t, pending)

	trail := srv.AuditTrail("crit")
	assert.Equal(t, audit.ActionViolation, trail[len(trail)-1].Action)

	req.ID = "crit"
	req.BusinessJustification = "retention policy"
	resp, err = srv.RequestEnterpriseApproval(context.Background(), req)
	assert.NoError(t, err)
	assert.True(t, resp.Approved)
}

func TestService_Enterprise(t *testing.T) {
	testCases := []struct {
		name       string
		answers    []string
		approved   bool
		conditions []string
		comments   string
		escalation int
		action     string
	}{
		{name: "approve", answers: []string{"approve"}, approved: true, action: audit.ActionApproved},
		{name: "reject", answers: []string{"reject"}, action: audit.ActionRejected},
		{name: "conditional", answers: []string{"conditional", "backup first, notify team"}, approved: true, conditions: []string{"backup first", "notify team"}, action: audit.ActionConditional},
		{name: "info", answers: []string{"info", "which tables?"}, comments: "which tables?", action: audit.ActionInfoRequested},
		{name: "escalate", answers: []string{"escalate"}, escalation: 1, action: audit.ActionEscalated},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			srv := New(WithPrompter(prompt.NewScripted(tc.answers...)))
			var escalated []*event.Event
			srv.Subscribe(event.WorkflowEscalated, func(e *event.Event) { escalated = append(escalated, e) })
			req := &model.Request{Title: "migrate", RiskLevel: model.RiskMedium}
			resp, err := srv.RequestEnterpriseApproval(context.Background(), req)
			assert.NoError(t, err)
			assert.Equal(t, tc.approved, resp.Approved)
			assert.EqualValues(t, tc.conditions, resp.Conditions)
			assert.Equal(t, tc.comments, resp.UserComments)
			assert.Equal(t, tc.escalation, resp.EscalationLevel)
			assert.Equal(t, tc.escalation > 0, resp.Escalated())
			assert.Len(t, escalated, tc.escalation)
			assert.Equal(t, "user", req.RequesterID)
			assert.Equal(t, defaultJustification, req.BusinessJustification)
			assert.Equal(t, tc.action, resp.AuditTrail[len(resp.AuditTrail)-1].Action)
		})
	}
}

func TestService_DuplicateRequest(t *testing.T) {
	srv := New(WithPrompter(prompt.NewBlocking()))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan *model.Response)
	go func() {
		resp, _ := srv.RequestApproval(ctx, &model.Request{ID: "dup", Title: "t", RiskLevel: model.RiskMedium})
		done <- resp
	}()
	assert.Eventually(t, func() bool {
		pending, _ := srv.Pending(context.Background())
		return len(pending) == 1
	}, time.Second, 5*time.Millisecond)

	_, err := srv.RequestApproval(context.Background(), &model.Request{ID: "dup", Title: "t", RiskLevel: model.RiskMedium})
	assert.True(t, errors.Is(err, ErrDuplicateRequest))

	cancel()
	resp := <-done
	assert.False(t, resp.Approved)
	assert.True(t, resp.Interrupted)
	pending, _ := srv.Pending(context.Background())
	assert.Empty(t, pending)
}

func TestService_UnattendedReject(t *testing.T) {
	srv := New(
		WithPrompter(prompt.NewBlocking()),
		WithUnattended(UnattendedReject),
		WithWorkflowEngine(workflow.New(workflow.WithTimeouts(20*time.Millisecond, time.Millisecond, time.Millisecond, time.Millisecond))),
	)
	resp, err := srv.RequestApproval(context.Background(), &model.Request{Title: "t", RiskLevel: model.RiskMedium})
	assert.NoError(t, err)
	assert.False(t, resp.Approved)
	assert.True(t, resp.Interrupted)
}

func TestService_UnattendedEscalate(t *testing.T) {
	srv := New(
		WithPrompter(prompt.NewBlocking()),
		WithWorkflowEngine(workflow.New(workflow.WithTimeouts(5*time.Millisecond, time.Millisecond, time.Millisecond, time.Millisecond))),
	)
	escalations := make(chan *event.Event, 4)
	srv.Subscribe(event.WorkflowEscalated, func(e *event.Event) {
		select {
		case escalations <- e:
		default:
		}
	})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan *model.Response)
	go func() {
		resp, _ := srv.RequestApproval(ctx, &model.Request{ID: "slow", Title: "t", RiskLevel: model.RiskMedium})
		done <- resp
	}()
	select {
	case e := <-escalations:
		assert.Equal(t, "slow", e.RequestID)
	case <-time.After(time.Second):
		t.Fatal("expected an escalation")
	}
	pending, _ := srv.Pending(context.Background())
	assert.Len(t, pending, 1)
	cancel()
	resp := <-done
	assert.False(t, resp.Approved)
}

// escalationGate answers reject once the first escalation has been published.
type escalationGate struct {
	once      sync.Once
	escalated chan struct{}
}

func (g *escalationGate) signal(*event.Event) { g.once.Do(func() { close(g.escalated) }) }

func (g *escalationGate) AskChoice(ctx context.Context, question string, options []prompt.Option, defaultValue string) (string, error) {
	select {
	case <-g.escalated:
		return "reject", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (g *escalationGate) AskText(ctx context.Context, prompt string, defaultValue string) (string, error) {
	return defaultValue, nil
}

func TestService_NoEscalationAfterDecision(t *testing.T) {
	gate := &escalationGate{escalated: make(chan struct{})}
	srv := New(
		WithPrompter(gate),
		WithWorkflowEngine(workflow.New(workflow.WithTimeouts(5*time.Millisecond, time.Millisecond, time.Millisecond, time.Millisecond))),
	)
	srv.Subscribe(event.WorkflowEscalated, gate.signal)
	resp, err := srv.RequestApproval(context.Background(), &model.Request{
		ID:                    "late",
		Title:                 "rotate keys",
		RiskLevel:             model.RiskCritical,
		BusinessJustification: "scheduled rotation",
	})
	assert.NoError(t, err)
	assert.False(t, resp.Approved)
	if assert.NotNil(t, resp.AuditTrail) {
		assert.Equal(t, audit.ActionRejected, resp.AuditTrail[len(resp.AuditTrail)-1].Action)
	}

	time.Sleep(20 * time.Millisecond)
	trail := srv.AuditTrail("late")
	if assert.NotEmpty(t, trail) {
		assert.Equal(t, audit.ActionRejected, trail[len(trail)-1].Action)
		assert.Len(t, trail, len(resp.AuditTrail))
	}
}

func TestService_Convenience(t *testing.T) {
	ctx := context.Background()

	srv := New(WithPolicy(&policy.Policy{Mode: policy.ModeAuto}))
	ok, err := srv.QuickApproval(ctx, "rename", "rename a variable", model.RiskLow)
	assert.NoError(t, err)
	assert.True(t, ok)
	ok, err = srv.RequestFileApproval(ctx, "edit", []*diff.FileDiff{
		{FilePath: "/w/a.go", OldContent: "a", NewContent: "b", Stats: diff.Stats{Added: 1, Removed: 1}},
		{FilePath: "/w/b.go", Deletion: true, OldContent: "x", Stats: diff.Stats{Removed: 1}},
	}, model.RiskMedium)
	assert.NoError(t, err)
	assert.True(t, ok)

	prompter := prompt.NewScripted("approve", "yes")
	srv = New(WithPrompter(prompter))
	ok, err = srv.RequestCommandApproval(ctx, "rm", []string{"-rf", "/"}, "/work")
	assert.NoError(t, err)
	assert.True(t, ok)
	calls := prompter.Calls()
	if assert.Len(t, calls, 2) {
		assert.Contains(t, calls[0].Question, "critical")
	}
	entries := srv.AuditLog().Entries()
	if assert.NotEmpty(t, entries) {
		assert.Equal(t, audit.ActionSubmitted, entries[0].Action)
		assert.Contains(t, entries[0].Details, "justification: "+model.GeneratedJustification+"destructive command")
	}

	prompter = prompt.NewScripted("approve", "no")
	srv = New(WithPrompter(prompter))
	ok, err = srv.RequestPackageApproval(ctx, []string{"typescript"}, "npm", true)
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, prompter.Calls()[0].Question, "high")

	srv = New(WithPrompter(prompt.NewScripted("approve", "ship it")))
	decision, err := srv.RequestPlanApproval(ctx, "plan", "refactor", "1. extract\n2. test", PlanOptions{AllowComments: true})
	assert.NoError(t, err)
	assert.Equal(t, &PlanDecision{Approved: true, UserComments: "ship it"}, decision)
}

func TestService_Rules(t *testing.T) {
	srv := New()
	assert.Error(t, srv.AddRule("u", Rule{}))
	assert.Error(t, srv.AddRule("u", Rule{ID: "x", Conditions: []Condition{{Field: "title", Operator: "matches"}}}))
	assert.NoError(t, srv.AddRule("u", Rule{ID: "a", Name: "first", Active: true}))
	assert.NoError(t, srv.AddRule("u", Rule{ID: "b", Active: true}))
	assert.NoError(t, srv.AddRule("u", Rule{ID: "a", Name: "replaced", Active: true}))
	rules := srv.Rules("u")
	if assert.Len(t, rules, 2) {
		assert.Equal(t, "replaced", rules[0].Name)
	}
	assert.True(t, srv.RemoveRule("u", "a"))
	assert.False(t, srv.RemoveRule("u", "a"))
	assert.Len(t, srv.Rules("u"), 1)
}

func TestService_InvalidRequest(t *testing.T) {
	srv := New()
	_, err := srv.RequestApproval(context.Background(), &model.Request{RiskLevel: model.RiskLow})
	assert.True(t, errors.Is(err, model.ErrInvalidRequest))
	_, err = srv.RequestApproval(context.Background(), nil)
	assert.True(t, errors.Is(err, model.ErrInvalidRequest))
}
