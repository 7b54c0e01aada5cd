package diff

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/afs"
)

const root = "mem://localhost/toolgate/diff"

func read(t *testing.T, fs afs.Service, URL string) string {
	data, err := fs.DownloadWithURL(context.Background(), URL)
	assert.NoError(t, err)
	return string(data)
}

func TestCompute(t *testing.T) {
	testCases := []struct {
		name    string
		old     string
		new     string
		stats   Stats
		changes []LineChange
	}{
		{
			name:    "append line",
			old:     "a\nb\n",
			new:     "a\nb\nc\n",
			stats:   Stats{Added: 1},
			changes: []LineChange{{Type: LineAdded, NewLine: 3, Content: "c"}},
		},
		{
			name:  "replace line",
			old:   "a\nb\nc\n",
			new:   "a\nB\nc\n",
			stats: Stats{Added: 1, Removed: 1},
			changes: []LineChange{
				{Type: LineRemoved, OldLine: 2, Content: "b"},
				{Type: LineAdded, NewLine: 2, Content: "B"},
			},
		},
		{
			name:    "new file",
			old:     "",
			new:     "x\n",
			stats:   Stats{Added: 1},
			changes: []LineChange{{Type: LineAdded, NewLine: 1, Content: "x"}},
		},
		{
			name:    "delete all",
			old:     "x\ny\n",
			new:     "",
			stats:   Stats{Removed: 2},
			changes: []LineChange{{Type: LineRemoved, OldLine: 1, Content: "x"}, {Type: LineRemoved, OldLine: 2, Content: "y"}},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			changes, stats := Compute(tc.old, tc.new)
			assert.Equal(t, tc.stats, stats)
			assert.EqualValues(t, tc.changes, changes)
		})
	}
}

func TestStage_AcceptReject(t *testing.T) {
	ctx := context.Background()
	fs := afs.New()
	stage := NewStage(WithFS(fs), WithBaseURL(root+"/accept"))

	d, err := stage.Add(ctx, "pkg/nested/main.go", "", "package main\n")
	assert.NoError(t, err)
	assert.Equal(t, StatusPending, d.Status)
	assert.Contains(t, d.Unified, "+package main")
	exists, _ := fs.Exists(ctx, d.FilePath)
	assert.False(t, exists)

	assert.NoError(t, stage.Accept(ctx, "pkg/nested/main.go"))
	first := read(t, fs, d.FilePath)
	assert.NoError(t, stage.Accept(ctx, "pkg/nested/main.go"))
	assert.Equal(t, first, read(t, fs, d.FilePath))
	got, ok := stage.Get("pkg/nested/main.go")
	assert.True(t, ok)
	assert.Equal(t, StatusAccepted, got.Status)

	_, err = stage.Add(ctx, "skip.txt", "a", "b")
	assert.NoError(t, err)
	assert.NoError(t, stage.Reject("skip.txt"))
	assert.True(t, errors.Is(stage.Accept(ctx, "skip.txt"), ErrRejected))

	assert.True(t, errors.Is(stage.Accept(ctx, "missing.txt"), ErrNotFound))
	_, err = stage.Add(ctx, "same.txt", "x", "x")
	assert.True(t, errors.Is(err, ErrNoChange))
	assert.Len(t, stage.List(), 2)
}

func TestStage_AutoAccept(t *testing.T) {
	ctx := context.Background()
	fs := afs.New()
	stage := NewStage(WithFS(fs), WithAutoAccept(true))
	URL := root + "/auto/a/b/c.txt"
	d, err := stage.Add(ctx, URL, "", "hello\n")
	assert.NoError(t, err)
	assert.Equal(t, StatusAccepted, d.Status)
	assert.Equal(t, "hello\n", read(t, fs, URL))
}

func TestStage_AcceptAll(t *testing.T) {
	ctx := context.Background()
	fs := afs.New()
	stage := NewStage(WithFS(fs), WithBaseURL(root+"/all"))
	for _, name := range []string{"1.txt", "2.txt", "3.txt"} {
		_, err := stage.Add(ctx, name, "", name)
		assert.NoError(t, err)
	}
	assert.NoError(t, stage.Reject("2.txt"))
	applied, err := stage.AcceptAll(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 2, applied)
	assert.Empty(t, stage.Pending())
	applied, err = stage.AcceptAll(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 0, applied)

	stage.Clear()
	assert.Empty(t, stage.List())
}

func TestStage_Rollback(t *testing.T) {
	ctx := context.Background()
	fs := afs.New()
	base := root + "/rollback"
	existing := base + "/existing.txt"
	assert.NoError(t, fs.Upload(ctx, existing, 0644, strings.NewReader("original\n")))
	stage := NewStage(WithFS(fs), WithBaseURL(base))

	_, err := stage.Add(ctx, "existing.txt", "original\n", "changed\n")
	assert.NoError(t, err)
	_, err = stage.Add(ctx, "created.txt", "", "new\n")
	assert.NoError(t, err)
	_, err = stage.AcceptAll(ctx)
	assert.NoError(t, err)
	assert.Equal(t, "changed\n", read(t, fs, existing))

	assert.NoError(t, stage.Rollback(ctx, "existing.txt"))
	assert.Equal(t, "original\n", read(t, fs, existing))
	assert.NoError(t, stage.Rollback(ctx, "created.txt"))
	exists, _ := fs.Exists(ctx, base+"/created.txt")
	assert.False(t, exists)

	d, _ := stage.Get("existing.txt")
	assert.Equal(t, StatusRejected, d.Status)
	assert.True(t, d.RolledBack)
	assert.True(t, errors.Is(stage.Rollback(ctx, "existing.txt"), ErrNotAccepted))
}

func TestStage_StagePatch(t *testing.T) {
	ctx := context.Background()
	fs := afs.New()
	base := root + "/patch"
	assert.NoError(t, fs.Upload(ctx, base+"/main.go", 0644, strings.NewReader("package main\n\nfunc main() {\n}\n")))
	assert.NoError(t, fs.Upload(ctx, base+"/old.txt", 0644, strings.NewReader("bye\n")))
	stage := NewStage(WithFS(fs), WithBaseURL(base))

	patch := `--- a/main.go
+++ b/main.go
@@ -1,4 +1,5 @@
 package main
 
 func main() {
+	println("hi")
 }
--- /dev/null
+++ b/added.txt
@@ -0,0 +1 @@
+hello
--- a/old.txt
+++ /dev/null
@@ -1 +0,0 @@
-bye
`
	staged, err := stage.StagePatch(ctx, patch)
	assert.NoError(t, err)
	assert.Len(t, staged, 3)

	applied, err := stage.AcceptAll(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 3, applied)
	assert.Equal(t, "package main\n\nfunc main() {\n\tprintln(\"hi\")\n}\n", read(t, fs, base+"/main.go"))
	assert.Equal(t, "hello\n", read(t, fs, base+"/added.txt"))
	exists, _ := fs.Exists(ctx, base+"/old.txt")
	assert.False(t, exists)

	_, err = stage.StagePatch(ctx, "--- a/main.go\n+++ b/main.go\n@@ -1 +1 @@\n-package other\n+package x\n")
	assert.Error(t, err)
}
