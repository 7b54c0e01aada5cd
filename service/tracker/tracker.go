package tracker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/viant/toolgate/internal/clock"
	"github.com/viant/toolgate/model"
	"github.com/viant/toolgate/service/monitor"
	"github.com/viant/toolgate/tracing"
)

// DefaultMaxHistory is the history retention used when none is configured.
const DefaultMaxHistory = 1000

// Tracker owns the execution history.
type Tracker struct {
	mu               sync.RWMutex
	history          []Record
	maxHistory       int
	workingDirectory string
	allowedRoots     []string
	logger           zerolog.Logger
	metrics          *monitor.Metrics
}

// Option configures a Tracker.
type Option func(t *Tracker)

// WithMaxHistory caps the history; the oldest records are trimmed first.
func WithMaxHistory(n int) Option {
	return func(t *Tracker) {
		if n > 0 {
			t.maxHistory = n
		}
	}
}

// WithWorkingDirectory sets the directory relative paths resolve against.
func WithWorkingDirectory(dir string) Option {
	return func(t *Tracker) { t.workingDirectory = dir }
}

// WithAllowedRoots restricts validated paths to the given roots.
func WithAllowedRoots(roots ...string) Option {
	return func(t *Tracker) { t.allowedRoots = append([]string(nil), roots...) }
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(t *Tracker) { t.logger = logger }
}

// WithMetrics records executions.
func WithMetrics(m *monitor.Metrics) Option {
	return func(t *Tracker) { t.metrics = m }
}

// New creates a tracker.
func New(opts ...Option) *Tracker {
	ret := &Tracker{maxHistory: DefaultMaxHistory, workingDirectory: "/", logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Execute runs op under tc and records the outcome once op returns.
// On failure the record is appended and op's error is returned unchanged.
// A panicking op is recorded as a failure and the panic is resumed.
func Execute[T any](ctx context.Context, t *Tracker, name string, op func(ctx context.Context) (T, error), tc ToolContext, checks SecurityChecks) (ret *Result[T], err error) {
	if tc.Timestamp.IsZero() {
		tc.Timestamp = clock.Now()
	}
	tc.SecurityLevel = model.MaxSecurity(tc.SecurityLevel, model.SecuritySafe)
	ctx, span := tracing.StartSpan(ctx, "tool."+name, "INTERNAL")
	span.WithAttributes(map[string]string{"tool": name, "security.level": string(tc.SecurityLevel)})
	started := clock.Now()
	var data T
	defer func() {
		if r := recover(); r != nil {
			t.append(name, false, nil, fmt.Errorf("panic: %v", r), tc, started, checks)
			tracing.EndSpan(span, fmt.Errorf("panic: %v", r))
			panic(r)
		}
	}()
	data, err = op(ctx)
	elapsed := t.append(name, err == nil, data, err, tc, started, checks)
	tracing.EndSpan(span, err)
	ret = &Result[T]{
		Success:         err == nil,
		Data:            data,
		Error:           err,
		Context:         tc,
		ExecutionTimeMs: elapsed,
		SecurityChecks:  checks,
	}
	if err != nil {
		t.logger.Debug().Err(err).Str("tool", name).Msg("tool execution failed")
		return ret, err
	}
	return ret, nil
}

func (t *Tracker) append(name string, success bool, data interface{}, err error, tc ToolContext, started time.Time, checks SecurityChecks) int64 {
	elapsed := clock.SinceMs(started)
	record := Record{
		Tool:            name,
		Success:         success,
		Context:         tc,
		ExecutionTimeMs: elapsed,
		SecurityChecks:  checks,
		CompletedAt:     clock.Now(),
	}
	if success {
		record.Data = data
	}
	if err != nil {
		record.Error = err.Error()
	}
	t.mu.Lock()
	t.history = append(t.history, record)
	if overflow := len(t.history) - t.maxHistory; overflow > 0 {
		t.history = append([]Record(nil), t.history[overflow:]...)
	}
	t.mu.Unlock()
	t.metrics.ObserveExecution(name, string(tc.SecurityLevel), success, time.Duration(elapsed)*time.Millisecond)
	return elapsed
}

// History returns a copy of the history, most recent first.
func (t *Tracker) History(filter Filter) []Record {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ret := make([]Record, 0, len(t.history))
	for i := len(t.history) - 1; i >= 0; i-- {
		record := t.history[i]
		if filter.SecurityLevel != "" && record.Context.SecurityLevel != filter.SecurityLevel {
			continue
		}
		if filter.Success != nil && record.Success != *filter.Success {
			continue
		}
		ret = append(ret, record)
		if filter.Limit > 0 && len(ret) == filter.Limit {
			break
		}
	}
	return ret
}

// Stats derives aggregate statistics from the full history.
func (t *Tracker) Stats() Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ret := Stats{ByLevel: map[model.SecurityLevel]int{
		model.SecuritySafe:      0,
		model.SecurityConfirmed: 0,
		model.SecurityDangerous: 0,
	}}
	validated, confirmed := 0, 0
	for _, record := range t.history {
		ret.Total++
		ret.ByLevel[record.Context.SecurityLevel]++
		if !record.Success {
			ret.Failures++
		}
		if record.SecurityChecks.PathValidated {
			validated++
		}
		if record.SecurityChecks.UserConfirmed {
			confirmed++
		}
		if record.SecurityChecks.CommandAnalyzed {
			ret.CommandsAnalyzed++
		}
	}
	if ret.Total > 0 {
		ret.PathValidationRate = float64(validated) / float64(ret.Total)
		ret.UserConfirmationRate = float64(confirmed) / float64(ret.Total)
	}
	return ret
}
