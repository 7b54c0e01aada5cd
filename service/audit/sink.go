package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
	"github.com/viant/toolgate/internal/clock"
)

// DefaultRotateBytes is the segment size at which the JSONL sink rotates.
const DefaultRotateBytes = 4 * 1024 * 1024

// JSONLSink writes one JSON document per line to an afs URL.
// The active segment is rewritten on every emit and rotated to
// <URL>.<timestamp> once it exceeds RotateBytes.
type JSONLSink struct {
	URL         string
	RotateBytes int64

	fs      afs.Service
	mu      sync.Mutex
	segment bytes.Buffer
}

// NewJSONLSink creates a sink writing through fs, or afs.New() when nil.
// Existing content at URL is kept as the segment start.
func NewJSONLSink(ctx context.Context, fs afs.Service, URL string, rotateBytes int64) (*JSONLSink, error) {
	URL = strings.TrimSpace(URL)
	if URL == "" {
		return nil, fmt.Errorf("audit: missing jsonl URL")
	}
	if rotateBytes <= 0 {
		rotateBytes = DefaultRotateBytes
	}
	if fs == nil {
		fs = afs.New()
	}
	ret := &JSONLSink{URL: url.Normalize(URL, file.Scheme), RotateBytes: rotateBytes, fs: fs}
	exists, err := ret.fs.Exists(ctx, ret.URL)
	if err != nil {
		return nil, fmt.Errorf("audit: failed to check %s: %w", ret.URL, err)
	}
	if exists {
		data, err := ret.fs.DownloadWithURL(ctx, ret.URL)
		if err != nil {
			return nil, fmt.Errorf("audit: failed to read %s: %w", ret.URL, err)
		}
		ret.segment.Write(data)
	}
	return ret, nil
}

// Emit appends entry to the active segment.
func (s *JSONLSink) Emit(ctx context.Context, entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if int64(s.segment.Len()+len(data)+1) > s.RotateBytes && s.segment.Len() > 0 {
		if err = s.rotateLocked(ctx); err != nil {
			return err
		}
	}
	s.segment.Write(data)
	s.segment.WriteByte('\n')
	return s.fs.Upload(ctx, s.URL, file.DefaultFileOsMode, bytes.NewReader(s.segment.Bytes()))
}

func (s *JSONLSink) rotateLocked(ctx context.Context) error {
	rotated := s.URL + "." + clock.Now().UTC().Format("20060102T150405.000000000Z")
	if err := s.fs.Upload(ctx, rotated, file.DefaultFileOsMode, bytes.NewReader(s.segment.Bytes())); err != nil {
		return fmt.Errorf("audit: failed to rotate %s: %w", s.URL, err)
	}
	s.segment.Reset()
	return nil
}

// ReadJSONL decodes every entry stored at URL.
func ReadJSONL(ctx context.Context, fs afs.Service, URL string) ([]Entry, error) {
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, err
	}
	var ret []Entry
	for _, line := range bytes.Split(data, []byte("\n")) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var entry Entry
		if err = json.Unmarshal(line, &entry); err != nil {
			return nil, fmt.Errorf("audit: malformed line in %s: %w", URL, err)
		}
		ret = append(ret, entry)
	}
	return ret, nil
}
