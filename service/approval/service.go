package approval

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/viant/toolgate/model"
	"github.com/viant/toolgate/policy"
	"github.com/viant/toolgate/service/audit"
	"github.com/viant/toolgate/service/compliance"
	"github.com/viant/toolgate/service/dao"
	"github.com/viant/toolgate/service/dao/store"
	"github.com/viant/toolgate/service/event"
	"github.com/viant/toolgate/service/monitor"
	"github.com/viant/toolgate/service/prompt"
	"github.com/viant/toolgate/service/risk"
	"github.com/viant/toolgate/service/workflow"
)

// ErrDuplicateRequest is returned when a request id already awaits a decision.
var ErrDuplicateRequest = errors.New("approval: request already pending")

// Unattended selects what happens when nobody answers a prompt.
type Unattended string

const (
	// UnattendedEscalate emits escalation events and keeps waiting.
	UnattendedEscalate Unattended = "escalate"
	// UnattendedReject abandons the prompt after the workflow's total timeout.
	UnattendedReject Unattended = "reject"
)

// DefaultCommentsThreshold is the action count above which comments are collected.
const DefaultCommentsThreshold = 3

// Presenter renders request summaries before a prompt. Prompters that also
// implement it get risk-colored output.
type Presenter interface {
	Print(level model.RiskLevel, message string)
}

// Service is the approval system. Every engine it consumes is injected.
type Service struct {
	risk              *risk.Engine
	compliance        *compliance.Engine
	workflow          *workflow.Engine
	prompter          prompt.Prompter
	audit             *audit.Log
	bus               *event.Bus
	policy            *policy.Policy
	metrics           *monitor.Metrics
	logger            zerolog.Logger
	unattended        Unattended
	commentsThreshold int
	defaultRequester  string

	pending   *store.MemoryStore[string, model.Request]
	workflows *store.MemoryStore[string, model.Workflow]

	rulesMu sync.RWMutex
	rules   map[string][]Rule
}

// Option configures a Service.
type Option func(s *Service)

// WithRiskEngine overrides the risk engine.
func WithRiskEngine(e *risk.Engine) Option { return func(s *Service) { s.risk = e } }

// WithComplianceEngine overrides the compliance engine.
func WithComplianceEngine(e *compliance.Engine) Option {
	return func(s *Service) { s.compliance = e }
}

// WithWorkflowEngine overrides the workflow engine.
func WithWorkflowEngine(e *workflow.Engine) Option { return func(s *Service) { s.workflow = e } }

// WithPrompter sets the presentation layer.
func WithPrompter(p prompt.Prompter) Option { return func(s *Service) { s.prompter = p } }

// WithAuditLog sets the audit log.
func WithAuditLog(l *audit.Log) Option { return func(s *Service) { s.audit = l } }

// WithBus sets the event bus.
func WithBus(b *event.Bus) Option { return func(s *Service) { s.bus = b } }

// WithPolicy sets the static auto-approval policy.
func WithPolicy(p *policy.Policy) Option { return func(s *Service) { s.policy = p } }

// WithMetrics records decisions.
func WithMetrics(m *monitor.Metrics) Option { return func(s *Service) { s.metrics = m } }

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option { return func(s *Service) { s.logger = logger } }

// WithUnattended selects the unattended timeout behaviour.
func WithUnattended(u Unattended) Option {
	return func(s *Service) {
		if u == UnattendedReject || u == UnattendedEscalate {
			s.unattended = u
		}
	}
}

// WithCommentsThreshold collects comments when a request has more actions than n.
func WithCommentsThreshold(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.commentsThreshold = n
		}
	}
}

// WithDefaultRequester names the requester enterprise requests default to.
func WithDefaultRequester(id string) Option {
	return func(s *Service) { s.defaultRequester = id }
}

// New creates an approval service. Without a prompter every interactive
// decision resolves as an interruption.
func New(opts ...Option) *Service {
	ret := &Service{
		risk:              risk.New(),
		compliance:        compliance.New(),
		workflow:          workflow.New(),
		prompter:          prompt.NewScripted(),
		policy:            &policy.Policy{Mode: policy.ModeAsk},
		logger:            zerolog.Nop(),
		unattended:        UnattendedEscalate,
		commentsThreshold: DefaultCommentsThreshold,
		defaultRequester:  "user",
		pending:           store.NewMemoryStore[string, model.Request](func(r *model.Request) string { return r.ID }),
		workflows:         store.NewMemoryStore[string, model.Workflow](func(w *model.Workflow) string { return w.ID }),
		rules:             map[string][]Rule{},
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.audit == nil {
		ret.audit = audit.New(audit.WithLogger(ret.logger))
	}
	if ret.bus == nil {
		ret.bus = event.NewBus(event.WithLogger(ret.logger))
	}
	return ret
}

// AddRule appends rule to userID's rules; an empty userID applies to everyone
// after the user's own rules. A rule with the same id is replaced in place.
func (s *Service) AddRule(userID string, rule Rule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	rule.Conditions = append([]Condition(nil), rule.Conditions...)
	s.rulesMu.Lock()
	defer s.rulesMu.Unlock()
	rules := s.rules[userID]
	for i := range rules {
		if rules[i].ID == rule.ID {
			rules[i] = rule
			return nil
		}
	}
	s.rules[userID] = append(rules, rule)
	return nil
}

// RemoveRule deletes a rule and reports whether it existed.
func (s *Service) RemoveRule(userID, ruleID string) bool {
	s.rulesMu.Lock()
	defer s.rulesMu.Unlock()
	rules := s.rules[userID]
	for i := range rules {
		if rules[i].ID == ruleID {
			s.rules[userID] = append(rules[:i:i], rules[i+1:]...)
			return true
		}
	}
	return false
}

// Rules returns a copy of userID's rules in evaluation order.
func (s *Service) Rules(userID string) []Rule {
	s.rulesMu.RLock()
	defer s.rulesMu.RUnlock()
	return append([]Rule(nil), s.rules[userID]...)
}

func (s *Service) matchRule(req *model.Request) *Rule {
	s.rulesMu.RLock()
	defer s.rulesMu.RUnlock()
	candidates := append([]Rule(nil), s.rules[req.UserID()]...)
	if req.UserID() != "" {
		candidates = append(candidates, s.rules[""]...)
	}
	for i := range candidates {
		if candidates[i].Matches(req) {
			return &candidates[i]
		}
	}
	return nil
}

// Pending returns copies of the requests awaiting a decision.
func (s *Service) Pending(ctx context.Context) ([]*model.Request, error) {
	requests, err := s.pending.List(ctx)
	if err != nil {
		return nil, err
	}
	ret := make([]*model.Request, len(requests))
	for i, req := range requests {
		ret[i] = req.Clone()
	}
	return ret, nil
}

// ActiveWorkflows returns the number of workflows awaiting a human.
func (s *Service) ActiveWorkflows() int { return s.workflows.Len() }

// AuditTrail returns the audit entries recorded for requestID, oldest first.
func (s *Service) AuditTrail(requestID string) []audit.Entry {
	return s.audit.ForRequest(requestID)
}

// AuditLog returns the underlying audit log.
func (s *Service) AuditLog() *audit.Log { return s.audit }

// Subscribe registers handler for topic and returns an unsubscribe func.
func (s *Service) Subscribe(topic event.Topic, handler event.Handler) func() {
	return s.bus.Subscribe(topic, handler)
}

func (s *Service) register(ctx context.Context, req *model.Request) error {
	if err := s.pending.Insert(ctx, req); err != nil {
		if errors.Is(err, dao.ErrExists) {
			return fmt.Errorf("%w: %s", ErrDuplicateRequest, req.ID)
		}
		return err
	}
	s.metrics.PendingDelta(1)
	return nil
}

func (s *Service) release(ctx context.Context, req *model.Request) {
	_ = s.pending.Delete(context.WithoutCancel(ctx), req.ID)
	s.metrics.PendingDelta(-1)
}

func (s *Service) record(ctx context.Context, req *model.Request, actor, action, details string) {
	s.audit.Append(ctx, actor, action, details, req.SessionID(), req.ID)
}

func (s *Service) publish(ctx context.Context, topic event.Topic, req *model.Request, data interface{}) *event.Event {
	e := event.New(topic, req.ID, data)
	e.SessionID = req.SessionID()
	if err := s.bus.Publish(ctx, e); err != nil {
		s.logger.Warn().Err(err).Str("topic", string(topic)).Str("request", req.ID).Msg("failed to publish event")
	}
	return e
}

func (s *Service) trail(requestID string) []model.AuditRecord {
	entries := s.audit.ForRequest(requestID)
	ret := make([]model.AuditRecord, len(entries))
	for i, entry := range entries {
		ret[i] = model.AuditRecord{Timestamp: entry.Timestamp, Actor: entry.Actor, Action: entry.Action, Details: entry.Details}
	}
	return ret
}
