package prompt

import (
	"context"
	"sync"
)

// Call records one prompt invocation.
type Call struct {
	Kind     string
	Question string
	Options  []Option
	Default  string
}

// Scripted answers prompts from a fixed list. An empty answer selects the
// default; an exhausted script interrupts.
type Scripted struct {
	mu      sync.Mutex
	answers []string
	calls   []Call
	block   bool
}

// NewScripted returns a prompter replaying answers in order.
func NewScripted(answers ...string) *Scripted {
	return &Scripted{answers: answers}
}

// NewBlocking returns a prompter that never answers and waits for ctx.
func NewBlocking() *Scripted {
	return &Scripted{block: true}
}

func (s *Scripted) next(ctx context.Context, call Call) (string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, call)
	if s.block {
		s.mu.Unlock()
		<-ctx.Done()
		return "", ctx.Err()
	}
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(s.answers) == 0 {
		return "", ErrInterrupted
	}
	answer := s.answers[0]
	s.answers = s.answers[1:]
	if answer == "" {
		return call.Default, nil
	}
	return answer, nil
}

// AskChoice returns the next scripted answer, matched against options when possible.
func (s *Scripted) AskChoice(ctx context.Context, question string, options []Option, defaultValue string) (string, error) {
	answer, err := s.next(ctx, Call{Kind: "choice", Question: question, Options: options, Default: defaultValue})
	if err != nil {
		return "", err
	}
	if value, ok := Match(answer, options); ok {
		return value, nil
	}
	return answer, nil
}

// AskText returns the next scripted answer.
func (s *Scripted) AskText(ctx context.Context, prompt string, defaultValue string) (string, error) {
	return s.next(ctx, Call{Kind: "text", Question: prompt, Default: defaultValue})
}

// Calls returns the recorded invocations.
func (s *Scripted) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}
