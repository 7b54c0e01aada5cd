package toolgate

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/viant/afs"
	"github.com/viant/afs/url"
	"github.com/viant/toolgate/internal/logging"
	"github.com/viant/toolgate/model"
	"github.com/viant/toolgate/model/types"
	"github.com/viant/toolgate/policy"
	"github.com/viant/toolgate/service/approval"
	"github.com/viant/toolgate/service/audit"
	"github.com/viant/toolgate/service/batch"
	"github.com/viant/toolgate/service/compliance"
	"github.com/viant/toolgate/service/dao/fs"
	"github.com/viant/toolgate/service/diff"
	"github.com/viant/toolgate/service/event"
	"github.com/viant/toolgate/service/messaging"
	"github.com/viant/toolgate/service/messaging/memory"
	"github.com/viant/toolgate/service/monitor"
	"github.com/viant/toolgate/service/prompt"
	"github.com/viant/toolgate/service/risk"
	"github.com/viant/toolgate/service/tool/file"
	"github.com/viant/toolgate/service/tool/shell"
	"github.com/viant/toolgate/service/tracker"
	"github.com/viant/toolgate/service/workflow"
	"github.com/viant/toolgate/tracing"
)

// ErrNotApproved is returned when a gated operation was not approved.
var ErrNotApproved = errors.New("toolgate: operation not approved")

// Service composes the governance engines around one audit log and event bus.
type Service struct {
	config    *Config
	logger    zerolog.Logger
	hasLogger bool
	tracing   bool
	metrics   *monitor.Metrics
	fs        afs.Service
	prompter  prompt.Prompter
	queue     messaging.Queue[event.Event]
	factory   batch.RunnerFactory
	tools     []types.Service

	policy     *policy.Policy
	audit      *audit.Log
	bus        *event.Bus
	risk       *risk.Engine
	compliance *compliance.Engine
	workflow   *workflow.Engine
	approval   *approval.Service
	tracker    *tracker.Tracker
	registry   *tracker.Registry
	stage      *diff.Stage
	batches    *batch.Manager
	shell      *shell.Service
}

// New creates a service. It fails on invalid configuration or when the audit
// sink cannot be opened.
func New(ctx context.Context, options ...Option) (*Service, error) {
	ret := &Service{}
	for _, option := range options {
		option(ret)
	}
	if ret.config == nil {
		ret.config = DefaultConfig()
	}
	if err := ret.config.Validate(); err != nil {
		return nil, err
	}
	if err := ret.init(ctx); err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *Service) init(ctx context.Context) error {
	cfg := s.config
	if !s.hasLogger {
		s.logger = logging.New(cfg.Logging)
	}
	if cfg.Tracing.Enabled && !s.tracing {
		if err := tracing.Init(cfg.Tracing.ServiceName, cfg.Tracing.ServiceVersion, cfg.Tracing.OutputFile); err != nil {
			return fmt.Errorf("failed to init tracing: %w", err)
		}
		s.tracing = true
	}
	if s.metrics == nil {
		s.metrics = monitor.NewMetrics()
	}
	if s.fs == nil {
		s.fs = afs.New()
	}
	if s.prompter == nil {
		s.prompter = prompt.New()
	}
	if s.queue == nil {
		queueConfig := memory.DefaultConfig()
		queueConfig.DropOnFull = true
		s.queue = memory.NewQueue[event.Event](queueConfig)
	}
	if s.factory == nil {
		s.factory = batch.DefaultRunnerFactory
	}

	auditOptions := []audit.Option{audit.WithMaxEntries(cfg.Audit.MaxEntries), audit.WithLogger(s.logger)}
	if cfg.Audit.JSONLURL != "" {
		sink, err := audit.NewJSONLSink(ctx, s.fs, cfg.Audit.JSONLURL, cfg.Audit.RotateBytes)
		if err != nil {
			return err
		}
		auditOptions = append(auditOptions, audit.WithSink(sink))
	}
	s.audit = audit.New(auditOptions...)
	s.bus = event.NewBus(event.WithQueue(s.queue), event.WithLogger(s.logger))
	s.policy = cfg.Policy()
	s.risk = risk.New()
	s.compliance = compliance.New()
	s.workflow = workflow.New(
		workflow.WithTimeouts(cfg.Workflow.PrimaryTimeout, cfg.Workflow.ManagerTimeout, cfg.Workflow.ComplianceTimeout, cfg.Workflow.EscalationDelay),
		workflow.WithApprovers(cfg.Workflow.PrimaryApprovers, cfg.Workflow.ManagerApprovers, cfg.Workflow.ComplianceApprovers),
	)
	s.approval = approval.New(
		approval.WithRiskEngine(s.risk),
		approval.WithComplianceEngine(s.compliance),
		approval.WithWorkflowEngine(s.workflow),
		approval.WithPrompter(s.prompter),
		approval.WithAuditLog(s.audit),
		approval.WithBus(s.bus),
		approval.WithPolicy(s.policy),
		approval.WithMetrics(s.metrics),
		approval.WithLogger(s.logger),
		approval.WithUnattended(approval.Unattended(cfg.Approval.Unattended)),
		approval.WithCommentsThreshold(cfg.Approval.CommentsThreshold),
		approval.WithDefaultRequester(cfg.Approval.Requester),
	)

	trackerOptions := []tracker.Option{
		tracker.WithMaxHistory(cfg.Tracker.MaxHistory),
		tracker.WithAllowedRoots(cfg.Tracker.AllowedRoots...),
		tracker.WithLogger(s.logger),
		tracker.WithMetrics(s.metrics),
	}
	workdir := cfg.Tracker.WorkingDirectory
	if workdir == "" {
		if wd, err := os.Getwd(); err == nil {
			workdir = wd
		}
	}
	if workdir != "" {
		trackerOptions = append(trackerOptions, tracker.WithWorkingDirectory(workdir))
	}
	s.tracker = tracker.New(trackerOptions...)
	baseURL := cfg.Diff.BaseURL
	if baseURL == "" && workdir != "" {
		baseURL = url.Normalize(workdir, "file")
	}
	s.stage = diff.NewStage(
		diff.WithFS(s.fs),
		diff.WithBaseURL(baseURL),
		diff.WithAutoAccept(cfg.Diff.AutoAccept),
		diff.WithContextLines(cfg.Diff.ContextLines),
		diff.WithLogger(s.logger),
		diff.WithMetrics(s.metrics),
	)
	s.registry = tracker.NewRegistry(s.tracker, func(command string) model.RiskLevel {
		return s.risk.AnalyzeCommand(command).Level
	})
	s.shell = shell.New(shell.Factory(s.factory))
	s.registry.Register(s.shell, file.New(s.fs, s.stage))
	s.registry.Register(s.tools...)

	batchOptions := []batch.Option{
		batch.WithRunnerFactory(s.factory),
		batch.WithTracker(s.tracker),
		batch.WithTTL(cfg.Batch.TTL),
		batch.WithLogger(s.logger),
		batch.WithMetrics(s.metrics),
	}
	if cfg.Batch.PersistURL != "" {
		store := fs.New[batch.Session](cfg.Batch.PersistURL, func(session *batch.Session) string { return session.ID },
			fs.WithStateSelector[batch.Session](func(session *batch.Session) string { return string(session.State) }),
			fs.WithFS[batch.Session](s.fs),
			fs.WithLogger[batch.Session](s.logger))
		batchOptions = append(batchOptions, batch.WithStore(store))
	}
	s.batches = batch.New(batchOptions...)
	return nil
}

// Config returns the effective configuration.
func (s *Service) Config() *Config { return s.config }

// Approval returns the approval system.
func (s *Service) Approval() *approval.Service { return s.approval }

// Tracker returns the execution tracker.
func (s *Service) Tracker() *tracker.Tracker { return s.tracker }

// Registry returns the tool registry.
func (s *Service) Registry() *tracker.Registry { return s.registry }

// Diffs returns the diff stage.
func (s *Service) Diffs() *diff.Stage { return s.stage }

// Batches returns the batch session manager.
func (s *Service) Batches() *batch.Manager { return s.batches }

// Audit returns the audit log.
func (s *Service) Audit() *audit.Log { return s.audit }

// Events returns the event bus.
func (s *Service) Events() *event.Bus { return s.bus }

// EventQueue returns the queue every event is teed into.
func (s *Service) EventQueue() messaging.Queue[event.Event] { return s.queue }

// Risk returns the risk engine.
func (s *Service) Risk() *risk.Engine { return s.risk }

// Compliance returns the compliance engine.
func (s *Service) Compliance() *compliance.Engine { return s.compliance }

// Workflow returns the workflow engine.
func (s *Service) Workflow() *workflow.Engine { return s.workflow }

// Metrics returns the metrics set.
func (s *Service) Metrics() *monitor.Metrics { return s.metrics }

// Close releases shell sessions and flushes tracing when this service installed it.
func (s *Service) Close(ctx context.Context) error {
	var errs []error
	if err := s.shell.Close(); err != nil {
		errs = append(errs, err)
	}
	if s.tracing {
		if err := tracing.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
