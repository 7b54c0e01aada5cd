package batch

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/viant/toolgate/internal/clock"
	"github.com/viant/toolgate/internal/idgen"
	"github.com/viant/toolgate/model"
	"github.com/viant/toolgate/progress"
	"github.com/viant/toolgate/service/dao"
	"github.com/viant/toolgate/service/dao/store"
	"github.com/viant/toolgate/service/monitor"
	"github.com/viant/toolgate/service/runner"
	"github.com/viant/toolgate/service/tracker"
)

// DefaultTTL is how long a session is retained after creation.
const DefaultTTL = time.Hour

// RunnerFactory creates the runner a session executes with.
type RunnerFactory func(workdir string) runner.Runner

// DefaultRunnerFactory runs commands in a local gosh shell started in workdir.
func DefaultRunnerFactory(workdir string) runner.Runner {
	return runner.NewShell(runner.WithWorkdir(workdir))
}

// CreateOptions describe a new session.
type CreateOptions struct {
	Workdir       string
	SecurityLevel model.SecurityLevel
	Approval      *model.Response
	TTL           time.Duration
}

// ExecuteOptions carry per-run callbacks, invoked from the execution goroutine.
type ExecuteOptions struct {
	OnProgress func(index int, result *CommandResult, snapshot progress.Snapshot)
	OnError    func(index int, err error)
}

// Wait blocks until the session finishes or ctx is done.
type Wait func(ctx context.Context) (*Session, error)

// Manager owns batch sessions.
type Manager struct {
	mu       sync.Mutex
	store    dao.Service[string, Session]
	factory  RunnerFactory
	tracker  *tracker.Tracker
	ttl      time.Duration
	logger   zerolog.Logger
	metrics  *monitor.Metrics
	progress map[string]*progress.Progress
}

// Option configures a Manager.
type Option func(m *Manager)

// WithStore persists sessions in s.
func WithStore(s dao.Service[string, Session]) Option {
	return func(m *Manager) { m.store = s }
}

// WithRunnerFactory overrides the local gosh runner.
func WithRunnerFactory(factory RunnerFactory) Option {
	return func(m *Manager) { m.factory = factory }
}

// WithTracker records every command in the execution history.
func WithTracker(t *tracker.Tracker) Option {
	return func(m *Manager) { m.tracker = t }
}

// WithTTL sets the default session retention.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithMetrics records command outcomes.
func WithMetrics(metrics *monitor.Metrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

// New creates a manager; sessions are kept in memory unless WithStore is given.
func New(opts ...Option) *Manager {
	ret := &Manager{
		ttl:      DefaultTTL,
		logger:   zerolog.Nop(),
		progress: map[string]*progress.Progress{},
		factory:  DefaultRunnerFactory,
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.store == nil {
		ret.store = store.NewMemoryStore[string, Session](func(s *Session) string { return s.ID }).
			WithStateSelector(func(s *Session) string { return string(s.State) })
	}
	return ret
}

// Create registers a pending session. The enclosing approval must be approved
// at the confirmed or dangerous level.
func (m *Manager) Create(ctx context.Context, commands []string, options CreateOptions) (*Session, error) {
	if len(commands) == 0 {
		return nil, ErrNoCommands
	}
	if options.Approval == nil || !options.Approval.Approved {
		return nil, ErrNotApproved
	}
	if options.SecurityLevel != model.SecurityConfirmed && options.SecurityLevel != model.SecurityDangerous {
		return nil, fmt.Errorf("%w: level %q", ErrNotApproved, options.SecurityLevel)
	}
	ttl := options.TTL
	if ttl <= 0 {
		ttl = m.ttl
	}
	now := clock.Now()
	session := &Session{
		ID:            idgen.WithPrefix("batch"),
		Commands:      append([]string(nil), commands...),
		Workdir:       options.Workdir,
		State:         StatePending,
		SecurityLevel: options.SecurityLevel,
		RequestID:     options.Approval.RequestID,
		Approver:      options.Approval.Approver,
		FailedIndex:   -1,
		CreatedAt:     now,
		ExpiresAt:     now.Add(ttl),
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("batch: failed to save session %s: %w", session.ID, err)
	}
	return session.Clone(), nil
}

// ExecuteAsync starts a pending session and returns immediately.
// Commands run sequentially; the first failure stops the session.
func (m *Manager) ExecuteAsync(ctx context.Context, id string, options ExecuteOptions) (Wait, error) {
	m.mu.Lock()
	session, err := m.load(ctx, id)
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	if session.State != StatePending {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %s is %s", ErrAlreadyExecuted, id, session.State)
	}
	started := clock.Now()
	session.State = StateRunning
	session.StartedAt = &started
	if err = m.store.Save(ctx, session); err != nil {
		m.mu.Unlock()
		return nil, fmt.Errorf("batch: failed to save session %s: %w", id, err)
	}
	tracked := progress.New(id, nil)
	tracked.Update(progress.Delta{Total: len(session.Commands)})
	m.progress[id] = tracked
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		m.run(progress.WithTracker(ctx, tracked), session, options)
	}()
	return func(waitCtx context.Context) (*Session, error) {
		select {
		case <-done:
			return m.Get(waitCtx, id)
		case <-waitCtx.Done():
			return nil, waitCtx.Err()
		}
	}, nil
}

func (m *Manager) run(ctx context.Context, session *Session, options ExecuteOptions) {
	r := m.factory(session.Workdir)
	defer func() {
		if err := r.Close(); err != nil {
			m.logger.Warn().Err(err).Str("session", session.ID).Msg("failed to close runner")
		}
	}()
	tc := tracker.NewContext(session.Workdir, session.SecurityLevel)
	for i, command := range session.Commands {
		if err := ctx.Err(); err != nil {
			m.fail(ctx, session, i, err, options)
			return
		}
		progress.UpdateCtx(ctx, progress.Delta{Running: 1})
		result, err := m.execute(ctx, r, tc, command)
		result.Index = i
		m.mu.Lock()
		session.Results = append(session.Results, result)
		m.mu.Unlock()
		m.metrics.ObserveBatchCommand(err == nil)
		if err != nil {
			progress.UpdateCtx(ctx, progress.Delta{Running: -1, Failed: 1})
			m.logger.Warn().Err(err).Str("session", session.ID).Int("index", i).Msg("batch command failed")
			m.fail(ctx, session, i, err, options)
			return
		}
		progress.UpdateCtx(ctx, progress.Delta{Running: -1, Completed: 1})
		m.persist(ctx, session)
		if options.OnProgress != nil {
			tracked, _ := progress.FromContext(ctx)
			options.OnProgress(i, result, tracked.Snapshot())
		}
		runtime.Gosched()
	}
	m.finish(ctx, session, StateCompleted, "")
}

func (m *Manager) execute(ctx context.Context, r runner.Runner, tc tracker.ToolContext, command string) (*CommandResult, error) {
	op := func(ctx context.Context) (*runner.Result, error) { return r.Run(ctx, command) }
	var result *runner.Result
	var err error
	if m.tracker != nil {
		var tracked *tracker.Result[*runner.Result]
		tracked, err = tracker.Execute(ctx, m.tracker, "batch.command", op, tc, tracker.SecurityChecks{UserConfirmed: true})
		if tracked != nil {
			result = tracked.Data
		}
	} else {
		result, err = op(ctx)
	}
	ret := &CommandResult{Command: command, Success: err == nil, CompletedAt: clock.Now()}
	if result != nil {
		ret.Output = result.Output
		ret.Status = result.Status
		ret.ElapsedMs = result.ElapsedMs
	}
	if err != nil {
		ret.Error = err.Error()
	}
	return ret, err
}

func (m *Manager) fail(ctx context.Context, session *Session, index int, err error, options ExecuteOptions) {
	if skipped := len(session.Commands) - index - 1; skipped > 0 {
		progress.UpdateCtx(ctx, progress.Delta{Skipped: skipped})
	}
	if len(session.Results) <= index {
		progress.UpdateCtx(ctx, progress.Delta{Skipped: 1})
	}
	m.mu.Lock()
	session.FailedIndex = index
	m.mu.Unlock()
	m.finish(ctx, session, StateFailed, err.Error())
	if options.OnError != nil {
		options.OnError(index, err)
	}
}

func (m *Manager) finish(ctx context.Context, session *Session, state State, message string) {
	finished := clock.Now()
	m.mu.Lock()
	session.State = state
	session.Error = message
	session.FinishedAt = &finished
	m.mu.Unlock()
	m.persist(ctx, session)
}

func (m *Manager) persist(ctx context.Context, session *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Save(context.WithoutCancel(ctx), session); err != nil {
		m.logger.Warn().Err(err).Str("session", session.ID).Msg("failed to persist session")
	}
}

func (m *Manager) load(ctx context.Context, id string) (*Session, error) {
	session, err := m.store.Load(ctx, id)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}
	return session, nil
}

// Get returns a copy of the session.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return session.Clone(), nil
}

// Progress returns the counters of a started session.
func (m *Manager) Progress(id string) (progress.Snapshot, bool) {
	m.mu.Lock()
	tracked, ok := m.progress[id]
	m.mu.Unlock()
	if !ok {
		return progress.Snapshot{}, false
	}
	return tracked.Snapshot(), true
}

// List returns copies of sessions in the given states, oldest first.
func (m *Manager) List(ctx context.Context, states ...State) ([]*Session, error) {
	var params []*dao.Parameter
	if len(states) > 0 {
		values := make([]string, len(states))
		for i, state := range states {
			values[i] = string(state)
		}
		params = append(params, dao.WithState(values...))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	sessions, err := m.store.List(ctx, params...)
	if err != nil {
		return nil, err
	}
	ret := make([]*Session, len(sessions))
	for i, session := range sessions {
		ret[i] = session.Clone()
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].CreatedAt.Before(ret[j].CreatedAt) })
	return ret, nil
}

// CleanupExpired removes expired sessions that are not running and reports how many.
func (m *Manager) CleanupExpired(ctx context.Context) (int, error) {
	now := clock.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	sessions, err := m.store.List(ctx)
	if err != nil {
		return 0, err
	}
	removed := 0
	var errs []error
	for _, session := range sessions {
		if session.State == StateRunning || now.Before(session.ExpiresAt) {
			continue
		}
		if err := m.store.Delete(ctx, session.ID); err != nil {
			errs = append(errs, err)
			continue
		}
		delete(m.progress, session.ID)
		removed++
	}
	return removed, errors.Join(errs...)
}
