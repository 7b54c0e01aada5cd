package shell

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/toolgate/service/runner"
)

func fakeFactory(workdirs *[]string) Factory {
	return func(workdir string) runner.Runner {
		*workdirs = append(*workdirs, workdir)
		return runner.Func(func(ctx context.Context, command string) (*runner.Result, error) {
			if command == "fail" {
				return &runner.Result{Command: command, Output: "boom", Status: 2}, runner.ErrNonZeroStatus
			}
			return &runner.Result{Command: command, Output: "ran " + command}, nil
		})
	}
}

func TestService_Execute(t *testing.T) {
	keepGoing := false
	testCases := []struct {
		name        string
		input       *Input
		expectErr   bool
		expectCount int
		expectOut   string
		expectErrS  string
	}{
		{name: "all succeed", input: &Input{Commands: []string{"a", "b"}}, expectCount: 2, expectOut: "ran a\nran b"},
		{name: "abort on failure", input: &Input{Commands: []string{"a", "fail", "b"}}, expectErr: true, expectCount: 2, expectOut: "ran a", expectErrS: "boom"},
		{name: "continue on failure", input: &Input{Commands: []string{"fail", "b"}, AbortOnError: &keepGoing}, expectCount: 2, expectOut: "ran b", expectErrS: "boom"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var workdirs []string
			srv := New(fakeFactory(&workdirs))
			output := &Output{}
			err := srv.Execute(context.Background(), tc.input, output)
			if tc.expectErr {
				assert.True(t, errors.Is(err, ErrAborted))
			} else {
				assert.NoError(t, err)
			}
			assert.Len(t, output.Commands, tc.expectCount)
			assert.Equal(t, tc.expectOut, output.Stdout)
			assert.Equal(t, tc.expectErrS, output.Stderr)
			assert.NoError(t, srv.Close())
		})
	}
}

func TestService_SessionPerWorkdir(t *testing.T) {
	var workdirs []string
	srv := New(fakeFactory(&workdirs))
	ctx := context.Background()
	for _, dir := range []string{"/a", "/b", "/a"} {
		assert.NoError(t, srv.Execute(ctx, &Input{Workdir: dir, Commands: []string{"x"}}, &Output{}))
	}
	assert.Equal(t, []string{"/a", "/b"}, workdirs)
}

func TestService_Method(t *testing.T) {
	srv := New(nil)
	_, err := srv.Method("execute")
	assert.NoError(t, err)
	_, err = srv.Method("unknown")
	assert.Error(t, err)
	exec, _ := srv.Method("execute")
	assert.Error(t, exec(context.Background(), "bad", &Output{}))
	assert.Equal(t, "a && b", (&Input{Commands: []string{"a", "b"}}).CommandLine())
}
