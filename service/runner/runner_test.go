package runner

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFunc(t *testing.T) {
	var seen []string
	r := Func(func(ctx context.Context, command string) (*Result, error) {
		seen = append(seen, command)
		if command == "false" {
			return &Result{Command: command, Status: 1}, ErrNonZeroStatus
		}
		return &Result{Command: command, Output: "ok"}, nil
	})
	result, err := r.Run(context.Background(), "true")
	assert.NoError(t, err)
	assert.Equal(t, "ok", result.Output)
	result, err = r.Run(context.Background(), "false")
	assert.True(t, errors.Is(err, ErrNonZeroStatus))
	assert.Equal(t, 1, result.Status)
	assert.Equal(t, []string{"true", "false"}, seen)
	assert.NoError(t, r.Close())
}

func TestShell_EmptyCommand(t *testing.T) {
	s := NewShell()
	_, err := s.Run(context.Background(), "  ")
	assert.Same(t, ErrEmptyCommand, err)
	assert.NoError(t, s.Close())
}

func TestQuote(t *testing.T) {
	testCases := []struct {
		in     string
		expect string
	}{
		{in: "/tmp", expect: "'/tmp'"},
		{in: "/tmp/it's", expect: `'/tmp/it'"'"'s'`},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expect, quote(tc.in))
	}
}
