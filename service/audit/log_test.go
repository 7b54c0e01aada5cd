package audit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/afs"
)

func TestLog_AppendTrim(t *testing.T) {
	log := New(WithMaxEntries(3))
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		log.Append(ctx, "system", ActionAutoApproved, fmt.Sprintf("entry %d", i), "s1", fmt.Sprintf("r%d", i))
	}
	entries := log.Entries()
	if assert.Len(t, entries, 3) {
		assert.Equal(t, "entry 2", entries[0].Details)
		assert.Equal(t, "entry 4", entries[2].Details)
	}
	assert.NoError(t, log.Verify())

	entries[0].Details = "changed"
	assert.Equal(t, "entry 2", log.Entries()[0].Details)
	assert.Len(t, log.ForRequest("r4"), 1)
	assert.Len(t, log.Since("s1", 4), 2)
}

func TestVerifyEntries(t *testing.T) {
	log := New()
	ctx := context.Background()
	log.Append(ctx, "alice", ActionApproved, "first", "", "r1")
	log.Append(ctx, "bob", ActionRejected, "second", "", "r2")
	log.Append(ctx, "carol", ActionEscalated, "third", "", "r3")

	testCases := []struct {
		name   string
		mutate func(entries []Entry) []Entry
		valid  bool
	}{
		{name: "untouched", mutate: func(e []Entry) []Entry { return e }, valid: true},
		{name: "edited details", mutate: func(e []Entry) []Entry { e[1].Details = "forged"; return e }},
		{name: "reordered", mutate: func(e []Entry) []Entry { e[0], e[1] = e[1], e[0]; return e }},
		{name: "removed middle", mutate: func(e []Entry) []Entry { return append(e[:1], e[2:]...) }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := VerifyEntries(tc.mutate(log.Entries()))
			if tc.valid {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, ErrTampered))
		})
	}
}

type failingSink struct{ calls int }

func (f *failingSink) Emit(ctx context.Context, entry Entry) error {
	f.calls++
	return errors.New("disk full")
}

func TestLog_SinkFailureIsNonFatal(t *testing.T) {
	sink := &failingSink{}
	log := New(WithSink(sink))
	entry := log.Append(context.Background(), "system", ActionSubmitted, "", "", "r1")
	assert.Equal(t, uint64(1), entry.Seq)
	assert.Equal(t, 1, sink.calls)
	assert.Equal(t, 1, log.Len())
}

func TestJSONLSink(t *testing.T) {
	ctx := context.Background()
	fs := afs.New()
	URL := "mem://localhost/toolgate/audit/trail.jsonl"
	sink, err := NewJSONLSink(ctx, fs, URL, 0)
	assert.NoError(t, err)
	log := New(WithSink(sink))
	log.Append(ctx, "alice", ActionApproved, "ok", "s1", "r1")
	log.Append(ctx, "system", ActionAutoApproved, "low", "s1", "r2")

	entries, err := ReadJSONL(ctx, fs, URL)
	assert.NoError(t, err)
	if assert.Len(t, entries, 2) {
		assert.Equal(t, "r2", entries[1].RequestID)
	}
	assert.NoError(t, VerifyEntries(entries))

	_, err = NewJSONLSink(ctx, fs, " ", 0)
	assert.Error(t, err)
}

type recordingSink struct {
	mu   sync.Mutex
	seqs []uint64
}

func (r *recordingSink) Emit(ctx context.Context, entry Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seqs = append(r.seqs, entry.Seq)
	return nil
}

func TestLog_SinkOrder(t *testing.T) {
	sink := &recordingSink{}
	log := New(WithSink(sink))
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				log.Append(ctx, "system", ActionEscalated, fmt.Sprintf("%d/%d", i, j), "", "r1")
			}
		}(i)
	}
	wg.Wait()
	if assert.Len(t, sink.seqs, 200) {
		for i, seq := range sink.seqs {
			assert.Equal(t, uint64(i+1), seq)
		}
	}
}
