// Package runner executes shell command lines for the batch manager and the
// shell tool.
package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/viant/gosh"
	grunner "github.com/viant/gosh/runner"
	"github.com/viant/gosh/runner/local"
	"github.com/viant/toolgate/internal/clock"
)

// DefaultTimeout bounds a single command when no timeout is configured.
const DefaultTimeout = time.Minute

var (
	// ErrNonZeroStatus is returned when a command exits with a non-zero status.
	ErrNonZeroStatus = errors.New("runner: non-zero exit status")
	// ErrEmptyCommand is returned for blank command lines.
	ErrEmptyCommand = errors.New("runner: empty command")
)

// Result is the outcome of one command.
type Result struct {
	Command   string `json:"command"`
	Output    string `json:"output,omitempty"`
	Status    int    `json:"status"`
	ElapsedMs int64  `json:"elapsedMs"`
}

// Runner runs one command line at a time.
type Runner interface {
	Run(ctx context.Context, command string) (*Result, error)
	Close() error
}

// Func adapts a function to Runner.
type Func func(ctx context.Context, command string) (*Result, error)

// Run calls f.
func (f Func) Run(ctx context.Context, command string) (*Result, error) {
	return f(ctx, command)
}

// Close is a no-op.
func (f Func) Close() error { return nil }

// Shell runs commands in a persistent local shell session.
type Shell struct {
	workdir string
	env     map[string]string
	timeout time.Duration
	mux     sync.Mutex
	service *gosh.Service
}

// Option configures a Shell.
type Option func(s *Shell)

// WithWorkdir sets the directory the session starts in.
func WithWorkdir(dir string) Option {
	return func(s *Shell) { s.workdir = dir }
}

// WithEnv sets environment variables for the session.
func WithEnv(env map[string]string) Option {
	return func(s *Shell) { s.env = env }
}

// WithTimeout bounds each command.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Shell) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// NewShell creates a shell runner; the session starts on first use.
func NewShell(opts ...Option) *Shell {
	ret := &Shell{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func (s *Shell) session(ctx context.Context) (*gosh.Service, error) {
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.service != nil {
		return s.service, nil
	}
	var options []grunner.Option
	if len(s.env) > 0 {
		options = append(options, grunner.WithEnvironment(s.env))
	}
	service, err := gosh.New(ctx, local.New(options...))
	if err != nil {
		return nil, fmt.Errorf("runner: failed to start shell: %w", err)
	}
	if s.workdir != "" {
		if _, _, err := service.Run(ctx, "cd "+quote(s.workdir)); err != nil {
			_ = service.Close()
			return nil, fmt.Errorf("runner: failed to change directory to %s: %w", s.workdir, err)
		}
	}
	s.service = service
	return service, nil
}

// Run executes command and waits for it to finish.
func (s *Shell) Run(ctx context.Context, command string) (*Result, error) {
	if strings.TrimSpace(command) == "" {
		return nil, ErrEmptyCommand
	}
	service, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	started := clock.Now()
	output, status, err := service.Run(ctx, command, grunner.WithTimeout(int(s.timeout.Milliseconds())))
	ret := &Result{Command: command, Output: output, Status: status, ElapsedMs: clock.SinceMs(started)}
	if err != nil {
		return ret, fmt.Errorf("runner: %v failed: %w", command, err)
	}
	if status != 0 {
		return ret, fmt.Errorf("%w: %v exited with %d", ErrNonZeroStatus, command, status)
	}
	return ret, nil
}

// Close terminates the shell session.
func (s *Shell) Close() error {
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.service == nil {
		return nil
	}
	err := s.service.Close()
	s.service = nil
	return err
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}
