package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/viant/toolgate/model"
	"golang.org/x/term"
)

const maxAttempts = 3

// Stdio prompts on a line oriented reader/writer pair.
type Stdio struct {
	in     io.Reader
	out    io.Writer
	color  bool
	once   sync.Once
	lines  chan string
	readMu sync.Mutex
}

// New returns a prompter on stdin/stdout with colour when stdout is a terminal.
func New() *Stdio {
	return NewWithIO(os.Stdin, os.Stdout)
}

// NewWithIO lets callers override the streams.
func NewWithIO(in io.Reader, out io.Writer) *Stdio {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	ret := &Stdio{in: in, out: out}
	if f, ok := out.(*os.File); ok {
		ret.color = term.IsTerminal(int(f.Fd()))
	}
	return ret
}

func (s *Stdio) start() {
	s.once.Do(func() {
		s.lines = make(chan string)
		go func() {
			defer close(s.lines)
			scanner := bufio.NewScanner(s.in)
			for scanner.Scan() {
				s.lines <- scanner.Text()
			}
		}()
	})
}

func (s *Stdio) readLine(ctx context.Context) (string, error) {
	s.start()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-s.lines:
		if !ok {
			return "", ErrInterrupted
		}
		return strings.TrimSpace(line), nil
	}
}

// Print writes a message, colouring it by level on terminals.
func (s *Stdio) Print(level model.RiskLevel, message string) {
	fmt.Fprintln(s.out, Colorize(s.color, level, message))
}

// AskChoice lists options and reads a selection; empty input selects defaultValue.
func (s *Stdio) AskChoice(ctx context.Context, question string, options []Option, defaultValue string) (string, error) {
	s.readMu.Lock()
	defer s.readMu.Unlock()
	var prompt strings.Builder
	prompt.WriteString(strings.TrimSpace(question))
	for i, o := range options {
		if i == 0 {
			prompt.WriteString(" (")
		} else {
			prompt.WriteString(", ")
		}
		label := o.Label
		if label == "" {
			label = o.Value
		}
		if o.Value == defaultValue {
			label = "[" + label + "]"
		}
		prompt.WriteString(fmt.Sprintf("%d:%s", i+1, label))
	}
	if len(options) > 0 {
		prompt.WriteString(")")
	}
	prompt.WriteString(": ")
	for attempt := 0; attempt < maxAttempts; attempt++ {
		fmt.Fprint(s.out, prompt.String())
		line, err := s.readLine(ctx)
		if err != nil {
			return "", err
		}
		if line == "" {
			return defaultValue, nil
		}
		if value, ok := Match(line, options); ok {
			return value, nil
		}
		fmt.Fprintf(s.out, "invalid choice %q\n", line)
	}
	return defaultValue, nil
}

// AskText reads a free-form line; empty input yields defaultValue.
func (s *Stdio) AskText(ctx context.Context, prompt string, defaultValue string) (string, error) {
	s.readMu.Lock()
	defer s.readMu.Unlock()
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		prompt = "?"
	}
	fmt.Fprint(s.out, prompt+" ")
	line, err := s.readLine(ctx)
	if err != nil {
		return "", err
	}
	if line == "" {
		return defaultValue, nil
	}
	return line, nil
}

const (
	ansiReset  = "\x1b[0m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiRed    = "\x1b[31m"
	ansiBold   = "\x1b[1m"
)

// Colorize wraps text in the ANSI colour of level when enabled.
func Colorize(enabled bool, level model.RiskLevel, text string) string {
	if !enabled {
		return text
	}
	switch level {
	case model.RiskLow:
		return ansiGreen + text + ansiReset
	case model.RiskMedium:
		return ansiYellow + text + ansiReset
	case model.RiskHigh:
		return ansiRed + text + ansiReset
	case model.RiskCritical:
		return ansiBold + ansiRed + text + ansiReset
	}
	return text
}
