// Package shell exposes command execution as a tracked tool.
package shell

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/viant/toolgate/model"
	"github.com/viant/toolgate/model/types"
	"github.com/viant/toolgate/service/runner"
)

// Name is the registry name of the shell tool.
const Name = "shell"

// ErrAborted is returned when a command fails and AbortOnError is set.
var ErrAborted = errors.New("shell: command failed")

// Factory creates a runner for a working directory.
type Factory func(workdir string) runner.Runner

// Service runs commands, keeping one runner per working directory.
type Service struct {
	factory  Factory
	mux      sync.Mutex
	sessions map[string]runner.Runner
}

// New creates a shell tool; without a factory commands run in a local gosh shell.
func New(factory Factory) *Service {
	if factory == nil {
		factory = func(workdir string) runner.Runner {
			return runner.NewShell(runner.WithWorkdir(workdir))
		}
	}
	return &Service{factory: factory, sessions: map[string]runner.Runner{}}
}

// Name returns the service name.
func (s *Service) Name() string { return Name }

// Methods returns the service methods.
func (s *Service) Methods() types.Signatures {
	return []types.Signature{
		{
			Name: "execute",
			Description: `Executes shell commands sequentially in one session.
Each entry in commands is a separate command line; the session keeps its directory between entries.`,
			Input:         reflect.TypeOf(&Input{}),
			Output:        reflect.TypeOf(&Output{}),
			SecurityLevel: model.SecurityConfirmed,
		},
	}
}

// Method returns method by name.
func (s *Service) Method(name string) (types.Executable, error) {
	switch strings.ToLower(name) {
	case "execute":
		return s.execute, nil
	default:
		return nil, types.NewMethodNotFoundError(name)
	}
}

func (s *Service) execute(ctx context.Context, in, out interface{}) error {
	input, ok := in.(*Input)
	if !ok {
		return types.NewInvalidInputError(in)
	}
	output, ok := out.(*Output)
	if !ok {
		return types.NewInvalidOutputError(out)
	}
	return s.Execute(ctx, input, output)
}

// Execute runs input commands in order.
func (s *Service) Execute(ctx context.Context, input *Input, output *Output) error {
	r := s.session(input.Workdir)
	var stdout, stderr strings.Builder
	output.Commands = make([]*Command, 0, len(input.Commands))
	for _, line := range input.Commands {
		command := &Command{Input: line}
		output.Commands = append(output.Commands, command)
		result, err := r.Run(ctx, line)
		if result != nil {
			command.Status = result.Status
		}
		if err == nil {
			command.Output = result.Output
			appendLine(&stdout, result.Output)
			output.Status = command.Status
			continue
		}
		command.Stderr = err.Error()
		if result != nil && result.Output != "" {
			command.Stderr = result.Output
		}
		if command.Status == 0 {
			command.Status = -1
		}
		appendLine(&stderr, command.Stderr)
		output.Status = command.Status
		if !errors.Is(err, runner.ErrNonZeroStatus) || input.abortOnError() {
			output.Stdout = strings.TrimSpace(stdout.String())
			output.Stderr = strings.TrimSpace(stderr.String())
			return fmt.Errorf("%w: %v: %w", ErrAborted, line, err)
		}
	}
	output.Stdout = strings.TrimSpace(stdout.String())
	output.Stderr = strings.TrimSpace(stderr.String())
	return nil
}

func appendLine(b *strings.Builder, text string) {
	if text == "" {
		return
	}
	b.WriteString(text)
	b.WriteString("\n")
}

func (s *Service) session(workdir string) runner.Runner {
	s.mux.Lock()
	defer s.mux.Unlock()
	if r, ok := s.sessions[workdir]; ok {
		return r
	}
	r := s.factory(workdir)
	s.sessions[workdir] = r
	return r
}

// Close releases all sessions.
func (s *Service) Close() error {
	s.mux.Lock()
	defer s.mux.Unlock()
	var errs []error
	for workdir, r := range s.sessions {
		if err := r.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close session %s: %w", workdir, err))
		}
	}
	s.sessions = map[string]runner.Runner{}
	return errors.Join(errs...)
}
