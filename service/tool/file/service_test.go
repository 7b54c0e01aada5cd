package file

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/afs"
	"github.com/viant/toolgate/service/diff"
)

const baseURL = "mem://localhost/toolgate/file"

func TestService_WriteReadDelete(t *testing.T) {
	ctx := context.Background()
	fs := afs.New()
	stage := diff.NewStage(diff.WithFS(fs))
	srv := New(fs, stage)
	URL := baseURL + "/write/main.go"

	change := &ChangeOutput{}
	assert.NoError(t, srv.Write(ctx, &WriteInput{Path: URL, Content: "package main\n"}, change))
	assert.Equal(t, diff.StatusPending, change.Status)
	assert.Equal(t, 1, change.Stats.Added)
	exists, _ := fs.Exists(ctx, URL)
	assert.False(t, exists)

	assert.NoError(t, stage.Accept(ctx, URL))
	read := &ReadOutput{}
	assert.NoError(t, srv.Read(ctx, &ReadInput{Path: URL}, read))
	assert.Equal(t, "package main\n", read.Content)
	assert.Equal(t, "text/x-go", read.Asset.ContentType)

	list := &ListOutput{}
	assert.NoError(t, srv.List(ctx, &ListInput{Path: baseURL + "/write"}, list))
	if assert.Len(t, list.Assets, 1) {
		assert.Equal(t, "main.go", list.Assets[0].Name)
	}

	change = &ChangeOutput{}
	assert.NoError(t, srv.Delete(ctx, &DeleteInput{Path: URL}, change))
	assert.Equal(t, diff.StatusPending, change.Status)
	assert.NoError(t, stage.Accept(ctx, URL))
	exists, _ = fs.Exists(ctx, URL)
	assert.False(t, exists)
}

func TestService_AutoAccept(t *testing.T) {
	ctx := context.Background()
	fs := afs.New()
	srv := New(fs, diff.NewStage(diff.WithFS(fs), diff.WithAutoAccept(true)))
	URL := baseURL + "/auto/a.txt"
	change := &ChangeOutput{}
	assert.NoError(t, srv.Write(ctx, &WriteInput{Path: URL, Content: "x\n"}, change))
	assert.Equal(t, diff.StatusAccepted, change.Status)
	data, err := fs.DownloadWithURL(ctx, URL)
	assert.NoError(t, err)
	assert.Equal(t, "x\n", string(data))

	assert.NoError(t, srv.Write(ctx, &WriteInput{Path: URL, Content: "x\n"}, &ChangeOutput{}))
}

func TestService_DeleteMissing(t *testing.T) {
	fs := afs.New()
	srv := New(fs, diff.NewStage(diff.WithFS(fs)))
	err := srv.Delete(context.Background(), &DeleteInput{Path: baseURL + "/missing.txt"}, &ChangeOutput{})
	assert.True(t, errors.Is(err, diff.ErrNotFound))
}

func TestContentType(t *testing.T) {
	testCases := []struct {
		name   string
		expect string
	}{
		{name: "a.go", expect: "text/x-go"},
		{name: "README.MD", expect: "text/markdown"},
		{name: "blob", expect: "application/octet-stream"},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expect, ContentType(tc.name))
	}
}
