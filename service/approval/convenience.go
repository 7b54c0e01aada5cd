package approval

import (
	"context"
	"fmt"
	"strings"

	"github.com/viant/toolgate/model"
	"github.com/viant/toolgate/service/diff"
)

// QuickApproval asks for a yes/no decision on a described operation.
func (s *Service) QuickApproval(ctx context.Context, title, description string, level model.RiskLevel) (bool, error) {
	resp, err := s.RequestApproval(ctx, &model.Request{Title: title, Description: description, RiskLevel: level, Type: model.RequestGeneric})
	if err != nil {
		return false, err
	}
	return resp.Approved, nil
}

// RequestFileApproval asks whether staged diffs may be applied.
func (s *Service) RequestFileApproval(ctx context.Context, title string, diffs []*diff.FileDiff, level model.RiskLevel) (bool, error) {
	req := &model.Request{Title: title, RiskLevel: level, Type: model.RequestFile, Context: &model.RequestContext{}}
	added, removed := 0, 0
	for _, d := range diffs {
		if d == nil {
			continue
		}
		actionType := model.ActionFileModify
		switch {
		case d.Deletion:
			actionType = model.ActionFileDelete
		case d.OldContent == "":
			actionType = model.ActionFileCreate
		}
		req.Actions = append(req.Actions, model.Action{
			Type:        actionType,
			Description: fmt.Sprintf("%s (+%d -%d)", d.FilePath, d.Stats.Added, d.Stats.Removed),
			Details:     map[string]interface{}{"path": d.FilePath, "added": d.Stats.Added, "removed": d.Stats.Removed},
			RiskLevel:   level,
		})
		req.Context.AffectedFiles = append(req.Context.AffectedFiles, d.FilePath)
		added += d.Stats.Added
		removed += d.Stats.Removed
	}
	req.Description = fmt.Sprintf("%d file(s), +%d -%d lines", len(req.Actions), added, removed)
	resp, err := s.RequestApproval(ctx, req)
	if err != nil {
		return false, err
	}
	return resp.Approved, nil
}

// RequestCommandApproval asks whether a command may run. Destructive
// patterns raise the risk level; they are never blocked outright.
func (s *Service) RequestCommandApproval(ctx context.Context, command string, args []string, cwd string) (bool, error) {
	line := strings.TrimSpace(strings.Join(append([]string{command}, args...), " "))
	finding := s.risk.AnalyzeCommand(line)
	level := finding.Level
	if !level.IsValid() {
		level = model.RiskMedium
	}
	details := map[string]interface{}{"command": command, "args": args, "cwd": cwd, "destructive": finding.Destructive}
	description := fmt.Sprintf("run %q in %s", line, cwd)
	if finding.Reason != "" {
		details["reason"] = finding.Reason
		description += ": " + finding.Reason
	}
	req := &model.Request{
		Title:       "Execute command: " + line,
		Description: description,
		RiskLevel:   level,
		Type:        model.RequestCommand,
		Context:     &model.RequestContext{WorkingDirectory: cwd},
		Actions:     []model.Action{{Type: model.ActionCommandExecute, Description: line, Details: details, RiskLevel: level}},
	}
	if finding.Destructive {
		req.BusinessJustification = model.GeneratedJustification + "destructive command: " + finding.Reason
	}
	resp, err := s.RequestApproval(ctx, req)
	if err != nil {
		return false, err
	}
	return resp.Approved, nil
}

// RequestPackageApproval asks whether packages may be installed. Global
// installs are high risk.
func (s *Service) RequestPackageApproval(ctx context.Context, packages []string, manager string, global bool) (bool, error) {
	level := model.RiskMedium
	scope := "project"
	if global {
		level = model.RiskHigh
		scope = "global"
	}
	req := &model.Request{
		Title:       fmt.Sprintf("Install %d package(s) with %s", len(packages), manager),
		Description: fmt.Sprintf("%s install of %s", scope, strings.Join(packages, ", ")),
		RiskLevel:   level,
		Type:        model.RequestPackage,
	}
	for _, pkg := range packages {
		req.Actions = append(req.Actions, model.Action{
			Type:        model.ActionPackageInstall,
			Description: pkg,
			Details:     map[string]interface{}{"package": pkg, "manager": manager, "global": global},
			RiskLevel:   level,
		})
	}
	resp, err := s.RequestApproval(ctx, req)
	if err != nil {
		return false, err
	}
	return resp.Approved, nil
}

// PlanOptions tune RequestPlanApproval.
type PlanOptions struct {
	RiskLevel     model.RiskLevel
	AllowComments bool
}

// PlanDecision is the outcome of a plan review.
type PlanDecision struct {
	Approved     bool   `json:"approved"`
	UserComments string `json:"userComments,omitempty"`
}

// RequestPlanApproval asks whether an execution plan may proceed.
func (s *Service) RequestPlanApproval(ctx context.Context, title, description, planDetails string, options PlanOptions) (*PlanDecision, error) {
	level := options.RiskLevel
	if level == "" {
		level = model.RiskLow
	}
	req := &model.Request{Title: title, Description: description, RiskLevel: level, Type: model.RequestPlan}
	if planDetails != "" {
		req.Description = strings.TrimSpace(description + "\n" + planDetails)
	}
	resp, err := s.submit(ctx, req, decideOptions{comments: options.AllowComments}, "approval.plan")
	if err != nil {
		return nil, err
	}
	return &PlanDecision{Approved: resp.Approved, UserComments: resp.UserComments}, nil
}
