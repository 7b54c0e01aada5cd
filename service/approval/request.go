package approval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/viant/toolgate/internal/clock"
	"github.com/viant/toolgate/internal/idgen"
	"github.com/viant/toolgate/model"
	"github.com/viant/toolgate/policy"
	"github.com/viant/toolgate/service/audit"
	"github.com/viant/toolgate/service/compliance"
	"github.com/viant/toolgate/service/event"
	"github.com/viant/toolgate/service/prompt"
	"github.com/viant/toolgate/service/risk"
	"github.com/viant/toolgate/service/workflow"
	"github.com/viant/toolgate/tracing"
)

// Decision paths reported in metrics and logs.
const (
	pathRule        = "rule"
	pathPolicy      = "policy"
	pathReadOnly    = "read_only"
	pathInteractive = "interactive"
	pathEnterprise  = "enterprise"
)

const (
	choiceApprove     = "approve"
	choiceReject      = "reject"
	choiceConditional = "conditional"
	choiceInfo        = "info"
	choiceEscalate    = "escalate"
	choiceYes         = "yes"
	choiceNo          = "no"
)

type decideOptions struct {
	comments   bool
	enterprise bool
}

type outcome struct {
	approved    bool
	approver    string
	action      string
	details     string
	path        string
	immediate   bool
	comments    string
	conditions  []string
	escalation  int
	interrupted bool
	workflowID  string
	topic       event.Topic
}

// RequestApproval resolves req to exactly one response. Compliance violations
// and prompter failures are returned as errors; a human rejecting or
// abandoning the prompt is a normal response with Approved false.
func (s *Service) RequestApproval(ctx context.Context, req *model.Request) (*model.Response, error) {
	return s.submit(ctx, req, decideOptions{comments: req != nil && len(req.Actions) > s.commentsThreshold}, "approval.request")
}

func (s *Service) submit(ctx context.Context, req *model.Request, opts decideOptions, spanName string) (ret *model.Response, err error) {
	if err = req.Validate(); err != nil {
		return nil, err
	}
	if req.ID == "" {
		req.ID = idgen.WithPrefix("req")
	}
	if err = s.register(ctx, req); err != nil {
		return nil, err
	}
	defer s.release(ctx, req)
	ctx, span := tracing.StartSpan(ctx, spanName, "INTERNAL")
	span.WithAttributes(map[string]string{"request.id": req.ID, "risk.level": string(req.RiskLevel)})
	defer func() { tracing.EndSpan(span, err) }()

	started := clock.Now()
	s.record(ctx, req, actor(req), audit.ActionSubmitted, submission(req))
	s.publish(ctx, event.RequestSubmitted, req, req.Clone())
	if !opts.enterprise {
		if resp := s.automatic(ctx, req, started); resp != nil {
			return resp, nil
		}
	}
	return s.decide(ctx, req, started, opts)
}

func (s *Service) automatic(ctx context.Context, req *model.Request, started time.Time) *model.Response {
	if rule := s.matchRule(req); rule != nil {
		return s.conclude(ctx, req, started, outcome{approved: true, approver: "rule:" + rule.ID, action: audit.ActionAutoApproved,
			details: fmt.Sprintf("matched rule %q", rule.Name), path: pathRule, immediate: true})
	}
	switch policy.Resolve(ctx, s.policy).Decide(req) {
	case policy.Approve:
		return s.conclude(ctx, req, started, outcome{approved: true, approver: model.SystemRequester, action: audit.ActionAutoApproved,
			details: "auto-approved by policy", path: pathPolicy, immediate: true})
	case policy.Reject:
		return s.conclude(ctx, req, started, outcome{approver: model.SystemRequester, action: audit.ActionAutoRejected,
			details: "rejected by policy", path: pathPolicy, immediate: true})
	}
	if req.ReadOnly {
		return s.conclude(ctx, req, started, outcome{approved: true, approver: model.SystemRequester, action: audit.ActionAutoApproved,
			details: "read-only request", path: pathReadOnly, immediate: true})
	}
	return nil
}

func (s *Service) decide(ctx context.Context, req *model.Request, started time.Time, opts decideOptions) (*model.Response, error) {
	req.RiskAssessment = s.risk.Assess(req)
	level := model.MaxRisk(req.RiskLevel, req.HighestActionRisk())
	if req.RiskAssessment.HasFlag(risk.FlagCritical) {
		level = model.RiskCritical
	}
	if _, err := s.compliance.Enforce(req); err != nil {
		s.violation(ctx, req, err)
		return nil, err
	}
	wf := s.workflow.Create(req)
	req.Workflow = wf
	if err := s.workflows.Save(ctx, wf); err != nil {
		return nil, err
	}
	defer func() { _ = s.workflows.Delete(context.WithoutCancel(ctx), wf.ID) }()
	promptCtx, stop := s.supervise(ctx, req, wf)
	s.present(req, level)
	var o outcome
	var err error
	if opts.enterprise {
		o, err = s.enterprise(promptCtx, req, level)
	} else {
		o, err = s.interactive(promptCtx, req, level, opts.comments)
	}
	// no escalation may be recorded after the decision
	stop()
	if err != nil {
		if !prompt.IsInterruption(err) {
			return nil, err
		}
		o = outcome{interrupted: true, action: audit.ActionInterrupted, details: "prompt interrupted: " + err.Error()}
	}
	o.workflowID = wf.ID
	if o.approver == "" {
		o.approver = approver(wf)
	}
	if o.path == "" {
		o.path = pathInteractive
		if opts.enterprise {
			o.path = pathEnterprise
		}
	}
	return s.conclude(ctx, req, started, o), nil
}

func (s *Service) interactive(ctx context.Context, req *model.Request, level model.RiskLevel, collectComments bool) (outcome, error) {
	approved, err := s.confirm(ctx, req, level)
	if err != nil {
		return outcome{}, err
	}
	ret := outcome{approved: approved, action: audit.ActionRejected, details: "rejected by user"}
	if approved {
		ret.action, ret.details = audit.ActionApproved, "approved by user"
	}
	if collectComments {
		if ret.comments, err = s.prompter.AskText(ctx, "Comments (optional)", ""); err != nil {
			return outcome{}, err
		}
	}
	return ret, nil
}

// confirm asks approve or reject; medium and above default to reject, high
// and above must be confirmed twice.
func (s *Service) confirm(ctx context.Context, req *model.Request, level model.RiskLevel) (bool, error) {
	options := []prompt.Option{{Value: choiceApprove, Label: "Approve"}, {Value: choiceReject, Label: "Reject"}}
	answer, err := s.prompter.AskChoice(ctx, question(req, level), options, defaultChoice(level))
	if err != nil {
		return false, err
	}
	if answer != choiceApprove {
		return false, nil
	}
	if level.AtLeast(model.RiskHigh) {
		return s.reconfirm(ctx, level)
	}
	return true, nil
}

func (s *Service) reconfirm(ctx context.Context, level model.RiskLevel) (bool, error) {
	options := []prompt.Option{{Value: choiceYes, Label: "Yes"}, {Value: choiceNo, Label: "No"}}
	answer, err := s.prompter.AskChoice(ctx, fmt.Sprintf("This is a %s risk operation. Are you sure you want to proceed?", level), options, choiceNo)
	if err != nil {
		return false, err
	}
	return answer == choiceYes, nil
}

func defaultChoice(level model.RiskLevel) string {
	if level.AtLeast(model.RiskMedium) {
		return choiceReject
	}
	return choiceApprove
}

func question(req *model.Request, level model.RiskLevel) string {
	return fmt.Sprintf("Approve %q (%s risk)?", req.Title, level)
}

// supervise applies the unattended policy while a human is prompted.
func (s *Service) supervise(ctx context.Context, req *model.Request, wf *model.Workflow) (context.Context, func()) {
	if s.unattended == UnattendedReject {
		if total := wf.TotalTimeout(); total > 0 {
			return context.WithTimeout(ctx, total)
		}
		return ctx, func() {}
	}
	watchCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		workflow.Watch(watchCtx, wf, func(e workflow.Escalation) { s.escalated(watchCtx, req, e) })
	}()
	return ctx, func() {
		cancel()
		<-done
	}
}

func (s *Service) escalated(ctx context.Context, req *model.Request, e workflow.Escalation) {
	s.record(ctx, req, model.SystemRequester, audit.ActionEscalated, fmt.Sprintf("step %q timed out, escalation level %d", e.Step, e.Level))
	s.publish(ctx, event.WorkflowEscalated, req, e)
	s.metrics.ObserveEscalation()
	s.logger.Warn().Str("request", req.ID).Str("step", e.Step).Int("level", e.Level).Msg("approval step timed out")
}

func (s *Service) violation(ctx context.Context, req *model.Request, err error) {
	details := err.Error()
	var v *compliance.ViolationError
	if errors.As(err, &v) {
		details = strings.Join(v.Violations, "; ")
	}
	s.record(ctx, req, model.SystemRequester, audit.ActionViolation, details)
	s.publish(ctx, event.ComplianceViolation, req, req.Compliance)
	s.metrics.ObserveViolation()
	s.logger.Warn().Str("request", req.ID).Str("violations", details).Msg("compliance violation")
}

func (s *Service) present(req *model.Request, level model.RiskLevel) {
	presenter, ok := s.prompter.(Presenter)
	if !ok {
		return
	}
	presenter.Print(level, summary(req, level))
}

func summary(req *model.Request, level model.RiskLevel) string {
	b := &strings.Builder{}
	fmt.Fprintf(b, "%s [%s risk]\n", req.Title, level)
	if req.Description != "" {
		fmt.Fprintf(b, "%s\n", req.Description)
	}
	if req.RiskAssessment != nil {
		fmt.Fprintf(b, "risk score: %d/100\n", req.RiskAssessment.OverallScore)
		for _, flag := range req.RiskAssessment.AutomaticFlags {
			fmt.Fprintf(b, "  ! %s: %s\n", flag.Type, flag.Description)
		}
		for _, recommendation := range req.RiskAssessment.Recommendations {
			fmt.Fprintf(b, "  - %s\n", recommendation)
		}
	}
	for i, action := range req.Actions {
		fmt.Fprintf(b, "%d. %s: %s (%s)\n", i+1, action.Type, action.Description, action.RiskLevel)
	}
	if req.Compliance != nil && len(req.Compliance.Requirements) > 0 {
		fmt.Fprintf(b, "requirements: %s\n", strings.Join(req.Compliance.Requirements, ", "))
	}
	return b.String()
}

func (s *Service) conclude(ctx context.Context, req *model.Request, started time.Time, o outcome) *model.Response {
	resp := &model.Response{
		RequestID:       req.ID,
		Approved:        o.approved && !o.interrupted,
		Approver:        o.approver,
		UserComments:    o.comments,
		Conditions:      o.conditions,
		Timestamp:       clock.Now(),
		WorkflowID:      o.workflowID,
		EscalationLevel: o.escalation,
		Interrupted:     o.interrupted,
	}
	elapsed := clock.Since(started)
	if !o.immediate {
		resp.ProcessingTimeMs = clock.SinceMs(started)
	}
	who := o.approver
	if who == "" {
		who = actor(req)
	}
	s.record(ctx, req, who, o.action, o.details)
	resp.AuditTrail = s.trail(req.ID)
	topic := o.topic
	if topic == "" {
		topic = event.RequestRejected
		if resp.Approved {
			topic = event.RequestApproved
		}
	}
	s.publish(ctx, topic, req, resp)
	s.metrics.ObserveDecision(o.path, resp.Approved, elapsed)
	s.logger.Info().Str("request", req.ID).Str("path", o.path).Bool("approved", resp.Approved).
		Str("approver", resp.Approver).Int64("elapsedMs", resp.ProcessingTimeMs).Msg("approval decided")
	return resp
}

func submission(req *model.Request) string {
	if req.BusinessJustification == "" {
		return req.Title
	}
	return req.Title + "; justification: " + req.BusinessJustification
}

func actor(req *model.Request) string {
	if id := req.UserID(); id != "" {
		return id
	}
	return "anonymous"
}

func approver(wf *model.Workflow) string {
	if step := wf.Current(); step != nil && len(step.Approvers) > 0 {
		return step.Approvers[0]
	}
	return "user"
}
