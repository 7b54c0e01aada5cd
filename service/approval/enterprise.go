package approval

import (
	"context"
	"strings"

	"github.com/viant/toolgate/model"
	"github.com/viant/toolgate/service/audit"
	"github.com/viant/toolgate/service/event"
	"github.com/viant/toolgate/service/prompt"
)

const defaultJustification = "routine change"

// RequestEnterpriseApproval runs the full governance flow without automatic
// paths and offers approve, reject, conditional, info and escalate. Escalation
// returns Approved false with EscalationLevel 1; re-submission is up to the caller.
func (s *Service) RequestEnterpriseApproval(ctx context.Context, req *model.Request) (*model.Response, error) {
	if req != nil {
		s.enterpriseDefaults(req)
	}
	return s.submit(ctx, req, decideOptions{enterprise: true}, "approval.enterprise")
}

// enterpriseDefaults fills the requester, urgency and, below critical risk,
// the justification. Critical requests must justify themselves.
func (s *Service) enterpriseDefaults(req *model.Request) {
	if req.RequesterID == "" && req.UserID() == "" {
		req.RequesterID = s.defaultRequester
	}
	if req.Urgency == "" {
		req.Urgency = model.UrgencyNormal
	}
	if req.BusinessJustification == "" && req.RiskLevel != model.RiskCritical {
		req.BusinessJustification = defaultJustification
	}
}

func (s *Service) enterprise(ctx context.Context, req *model.Request, level model.RiskLevel) (outcome, error) {
	options := []prompt.Option{
		{Value: choiceApprove, Label: "Approve"},
		{Value: choiceReject, Label: "Reject"},
		{Value: choiceConditional, Label: "Approve with conditions"},
		{Value: choiceInfo, Label: "Request more information"},
		{Value: choiceEscalate, Label: "Escalate to next tier"},
	}
	answer, err := s.prompter.AskChoice(ctx, question(req, level), options, defaultChoice(level))
	if err != nil {
		return outcome{}, err
	}
	switch answer {
	case choiceApprove, choiceConditional:
		var conditions []string
		if answer == choiceConditional {
			text, err := s.prompter.AskText(ctx, "Conditions (comma separated)", "")
			if err != nil {
				return outcome{}, err
			}
			conditions = splitConditions(text)
		}
		if level.AtLeast(model.RiskHigh) {
			confirmed, err := s.reconfirm(ctx, level)
			if err != nil {
				return outcome{}, err
			}
			if !confirmed {
				return outcome{action: audit.ActionRejected, details: "reconfirmation declined"}, nil
			}
		}
		if answer == choiceConditional {
			return outcome{approved: true, conditions: conditions, action: audit.ActionConditional, details: strings.Join(conditions, "; ")}, nil
		}
		return outcome{approved: true, action: audit.ActionApproved, details: "approved by user"}, nil
	case choiceInfo:
		text, err := s.prompter.AskText(ctx, "What information is needed?", "")
		if err != nil {
			return outcome{}, err
		}
		return outcome{comments: text, action: audit.ActionInfoRequested, details: text}, nil
	case choiceEscalate:
		s.metrics.ObserveEscalation()
		return outcome{escalation: 1, action: audit.ActionEscalated, details: "escalated to next tier", topic: event.WorkflowEscalated}, nil
	default:
		return outcome{action: audit.ActionRejected, details: "rejected by user"}, nil
	}
}

func splitConditions(text string) []string {
	var ret []string
	for _, part := range strings.Split(text, ",") {
		if part = strings.TrimSpace(part); part != "" {
			ret = append(ret, part)
		}
	}
	return ret
}
