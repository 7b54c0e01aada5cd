package prompt

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/viant/toolgate/model"
)

var decision = []Option{{Value: "approve", Label: "Approve"}, {Value: "reject", Label: "Reject"}}

func TestStdio_AskChoice(t *testing.T) {
	testCases := []struct {
		name   string
		input  string
		expect string
	}{
		{name: "index", input: "1\n", expect: "approve"},
		{name: "value", input: "reject\n", expect: "reject"},
		{name: "label case insensitive", input: "APPROVE\n", expect: "approve"},
		{name: "empty uses default", input: "\n", expect: "reject"},
		{name: "retry after invalid", input: "maybe\n2\n", expect: "reject"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			p := NewWithIO(strings.NewReader(tc.input), out)
			actual, err := p.AskChoice(context.Background(), "Proceed?", decision, "reject")
			assert.NoError(t, err)
			assert.Equal(t, tc.expect, actual)
			assert.Contains(t, out.String(), "1:Approve, 2:[Reject]")
		})
	}
}

func TestStdio_AskText(t *testing.T) {
	p := NewWithIO(strings.NewReader("looks good\n\n"), &bytes.Buffer{})
	ctx := context.Background()
	text, err := p.AskText(ctx, "Comments:", "none")
	assert.NoError(t, err)
	assert.Equal(t, "looks good", text)
	text, err = p.AskText(ctx, "Comments:", "none")
	assert.NoError(t, err)
	assert.Equal(t, "none", text)
	_, err = p.AskText(ctx, "Comments:", "none")
	assert.ErrorIs(t, err, ErrInterrupted)
}

func TestStdio_Cancelled(t *testing.T) {
	reader, _ := io.Pipe()
	p := NewWithIO(reader, &bytes.Buffer{})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := p.AskChoice(ctx, "Proceed?", decision, "reject")
	assert.True(t, IsInterruption(err))
}

func TestScripted(t *testing.T) {
	p := NewScripted("1", "", "free text")
	ctx := context.Background()
	v, err := p.AskChoice(ctx, "q1", decision, "reject")
	assert.NoError(t, err)
	assert.Equal(t, "approve", v)
	v, err = p.AskChoice(ctx, "q2", decision, "reject")
	assert.NoError(t, err)
	assert.Equal(t, "reject", v)
	v, err = p.AskText(ctx, "q3", "")
	assert.NoError(t, err)
	assert.Equal(t, "free text", v)
	_, err = p.AskText(ctx, "q4", "")
	assert.ErrorIs(t, err, ErrInterrupted)
	assert.Len(t, p.Calls(), 4)
}

func TestColorize(t *testing.T) {
	assert.Equal(t, "x", Colorize(false, model.RiskCritical, "x"))
	assert.Equal(t, "\x1b[31mx\x1b[0m", Colorize(true, model.RiskHigh, "x"))
}
