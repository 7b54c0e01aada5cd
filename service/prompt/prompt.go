// Package prompt defines the presentation-layer primitives the approval
// system blocks on, with a stdio implementation and a scripted one for tests.
package prompt

import (
	"context"
	"errors"
	"strings"
)

// ErrInterrupted is returned when the human abandons a prompt.
var ErrInterrupted = errors.New("prompt: interrupted")

// Option is one selectable answer.
type Option struct {
	Value string
	Label string
}

// Prompter resolves questions to values. Implementations block until an
// answer exists or ctx is done.
type Prompter interface {
	AskChoice(ctx context.Context, question string, options []Option, defaultValue string) (string, error)
	AskText(ctx context.Context, prompt string, defaultValue string) (string, error)
}

// IsInterruption reports whether err means the human did not answer.
func IsInterruption(err error) bool {
	return errors.Is(err, ErrInterrupted) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Match resolves answer against options by 1-based index, value or label.
func Match(answer string, options []Option) (string, bool) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", false
	}
	if idx, ok := parseIndex(answer, len(options)); ok {
		return options[idx].Value, true
	}
	for _, o := range options {
		if strings.EqualFold(answer, o.Value) || strings.EqualFold(answer, o.Label) {
			return o.Value, true
		}
	}
	return "", false
}

func parseIndex(s string, n int) (int, bool) {
	if n == 0 || s == "" {
		return 0, false
	}
	var idx int
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		idx = idx*10 + int(r-'0')
	}
	idx--
	if idx < 0 || idx >= n {
		return 0, false
	}
	return idx, true
}
