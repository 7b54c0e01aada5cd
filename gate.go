package toolgate

import (
	"context"
	"fmt"
	"strings"

	"github.com/viant/toolgate/model"
	"github.com/viant/toolgate/model/types"
	"github.com/viant/toolgate/service/batch"
	"github.com/viant/toolgate/service/diff"
	"github.com/viant/toolgate/service/tracker"
)

// Call runs service.method through the registry. Methods above the safe level
// are approved first; an approval escalates tc to the method's level and is
// recorded as a user confirmation.
func (s *Service) Call(ctx context.Context, tc tracker.ToolContext, service, method string, input, output interface{}) (*tracker.Result[interface{}], error) {
	_, sig, err := s.registry.Lookup(service, method)
	if err != nil {
		return nil, err
	}
	checks := tracker.SecurityChecks{}
	if sig.SecurityLevel.Rank() > model.SecuritySafe.Rank() {
		approved, err := s.approveCall(ctx, tc, service, sig, input)
		if err != nil {
			return nil, err
		}
		if !approved {
			return nil, fmt.Errorf("%w: %s.%s", ErrNotApproved, service, method)
		}
		checks.UserConfirmed = true
		tc = tc.Escalate(sig.SecurityLevel)
	}
	return s.registry.Call(ctx, tc, service, method, input, output, checks)
}

func (s *Service) approveCall(ctx context.Context, tc tracker.ToolContext, service string, sig *types.Signature, input interface{}) (bool, error) {
	if in, ok := input.(tracker.CommandInput); ok {
		return s.approval.RequestCommandApproval(ctx, in.CommandLine(), nil, tc.WorkingDirectory)
	}
	level := model.RiskMedium
	actionType := model.ActionFileModify
	if sig.SecurityLevel == model.SecurityDangerous {
		level = model.RiskHigh
		actionType = model.ActionFileDelete
	}
	req := &model.Request{
		Title:       fmt.Sprintf("Run %s.%s", service, sig.Name),
		Description: sig.Description,
		RiskLevel:   level,
		Context:     &model.RequestContext{WorkingDirectory: tc.WorkingDirectory, UserID: tc.UserID, SessionID: tc.SessionID},
	}
	action := model.Action{Type: actionType, Description: sig.Description, RiskLevel: level}
	if in, ok := input.(tracker.PathInput); ok {
		action.Details = map[string]interface{}{"path": in.TargetPath()}
		req.Context.AffectedFiles = []string{in.TargetPath()}
	}
	req.Actions = []model.Action{action}
	resp, err := s.approval.RequestApproval(ctx, req)
	if err != nil {
		return false, err
	}
	return resp.Approved, nil
}

// ReviewDiffs asks for approval of every pending diff, then accepts them all
// or rejects them all. It returns the number of diffs applied.
func (s *Service) ReviewDiffs(ctx context.Context, title string) (int, error) {
	pending := s.stage.Pending()
	if len(pending) == 0 {
		return 0, nil
	}
	level := model.RiskMedium
	for _, d := range pending {
		if d.Deletion {
			level = model.RiskHigh
			break
		}
	}
	approved, err := s.approval.RequestFileApproval(ctx, title, pending, level)
	if err != nil {
		return 0, err
	}
	if !approved {
		for _, d := range pending {
			if err := s.stage.Reject(d.FilePath); err != nil {
				return 0, err
			}
		}
		return 0, nil
	}
	return s.stage.AcceptAll(ctx)
}

// StagePatch stages a unified multi-file patch for review.
func (s *Service) StagePatch(ctx context.Context, patch string) ([]*diff.FileDiff, error) {
	return s.stage.StagePatch(ctx, patch)
}

// RunBatch approves commands as one request and, once approved, executes them
// in a new batch session. High or critical commands run at the dangerous level.
func (s *Service) RunBatch(ctx context.Context, commands []string, workdir string, options batch.ExecuteOptions) (*batch.Session, batch.Wait, error) {
	if len(commands) == 0 {
		return nil, nil, batch.ErrNoCommands
	}
	req := &model.Request{
		Title:     fmt.Sprintf("Execute %d command(s)", len(commands)),
		RiskLevel: model.RiskMedium,
		Type:      model.RequestCommand,
		Context:   &model.RequestContext{WorkingDirectory: workdir},
	}
	var reasons []string
	for _, command := range commands {
		finding := s.risk.AnalyzeCommand(command)
		level := finding.Level
		if !level.IsValid() {
			level = model.RiskMedium
		}
		req.RiskLevel = model.MaxRisk(req.RiskLevel, level)
		req.Actions = append(req.Actions, model.Action{
			Type:        model.ActionCommandExecute,
			Description: command,
			Details:     map[string]interface{}{"command": command, "cwd": workdir, "destructive": finding.Destructive},
			RiskLevel:   level,
		})
		if finding.Destructive {
			reasons = append(reasons, finding.Reason)
		}
	}
	req.Description = strings.Join(commands, "\n")
	if len(reasons) > 0 {
		req.BusinessJustification = model.GeneratedJustification + "destructive commands: " + strings.Join(reasons, "; ")
	}
	resp, err := s.approval.RequestApproval(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	if !resp.Approved {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotApproved, req.Title)
	}
	level := model.SecurityConfirmed
	if req.RiskLevel.AtLeast(model.RiskHigh) {
		level = model.SecurityDangerous
	}
	session, err := s.batches.Create(ctx, commands, batch.CreateOptions{Workdir: workdir, SecurityLevel: level, Approval: resp})
	if err != nil {
		return nil, nil, err
	}
	wait, err := s.batches.ExecuteAsync(ctx, session.ID, options)
	if err != nil {
		return nil, nil, err
	}
	return session, wait, nil
}
