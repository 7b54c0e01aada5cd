package workflow

import (
	"context"
	"time"

	"github.com/viant/toolgate/model"
)

// Escalation describes a fired escalation rule.
type Escalation struct {
	WorkflowID string
	RequestID  string
	Step       string
	Level      int
	Rule       model.EscalationRule
}

// Watch fires onEscalate each time the current step's timeout plus the rule
// delay elapses without ctx being done. It never resolves the request; the
// caller cancels ctx once a decision exists. Watch blocks until ctx is done
// or every timeout rule has fired for every step.
func Watch(ctx context.Context, wf *model.Workflow, onEscalate func(Escalation)) {
	if wf == nil || onEscalate == nil || len(wf.Steps) == 0 {
		return
	}
	var rules []model.EscalationRule
	for _, rule := range wf.EscalationRules {
		if rule.Trigger == model.TriggerTimeout {
			rules = append(rules, rule)
		}
	}
	if len(rules) == 0 {
		return
	}
	level := 0
	for i := wf.CurrentStep; i < len(wf.Steps); i++ {
		step := wf.Steps[i]
		for _, rule := range rules {
			timer := time.NewTimer(step.Timeout + rule.Delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
			level++
			onEscalate(Escalation{
				WorkflowID: wf.ID,
				RequestID:  wf.RequestID,
				Step:       step.Name,
				Level:      level,
				Rule:       rule,
			})
		}
	}
}
