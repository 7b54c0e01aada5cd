package diff

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
	"github.com/viant/toolgate/internal/clock"
	"github.com/viant/toolgate/service/monitor"
)

// Stage owns the staged diffs keyed by normalized file URL.
type Stage struct {
	fs           afs.Service
	baseURL      string
	autoAccept   bool
	contextLines int
	logger       zerolog.Logger
	metrics      *monitor.Metrics

	mu    sync.Mutex
	diffs map[string]*FileDiff
}

// Option configures a Stage.
type Option func(s *Stage)

// WithFS overrides the storage service.
func WithFS(fs afs.Service) Option { return func(s *Stage) { s.fs = fs } }

// WithBaseURL resolves relative paths against baseURL.
func WithBaseURL(baseURL string) Option { return func(s *Stage) { s.baseURL = baseURL } }

// WithAutoAccept applies diffs as soon as they are added.
func WithAutoAccept(autoAccept bool) Option { return func(s *Stage) { s.autoAccept = autoAccept } }

// WithContextLines sets unified diff context.
func WithContextLines(n int) Option { return func(s *Stage) { s.contextLines = n } }

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option { return func(s *Stage) { s.logger = logger } }

// WithMetrics records transitions.
func WithMetrics(m *monitor.Metrics) Option { return func(s *Stage) { s.metrics = m } }

// NewStage creates a stage.
func NewStage(opts ...Option) *Stage {
	ret := &Stage{
		fs:           afs.New(),
		contextLines: 3,
		logger:       zerolog.Nop(),
		diffs:        map[string]*FileDiff{},
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Resolve returns the URL the stage reads and writes for path. Relative paths
// resolve against the base URL when set, otherwise the process directory.
func (s *Stage) Resolve(path string) string {
	if s.baseURL != "" && !strings.Contains(path, "://") && !strings.HasPrefix(path, "/") {
		return url.Join(s.baseURL, path)
	}
	return url.Normalize(path, file.Scheme)
}

// AutoAccept reports whether diffs are applied on add.
func (s *Stage) AutoAccept() bool { return s.autoAccept }

// Add stages the change of path from oldContent to newContent, replacing any
// earlier proposal for the same path. With auto-accept the content is written
// immediately.
func (s *Stage) Add(ctx context.Context, path, oldContent, newContent string) (*FileDiff, error) {
	if oldContent == newContent {
		return nil, fmt.Errorf("%w: %s", ErrNoChange, path)
	}
	return s.stage(ctx, path, oldContent, newContent, false)
}

// AddDeletion stages the removal of path.
func (s *Stage) AddDeletion(ctx context.Context, path, oldContent string) (*FileDiff, error) {
	return s.stage(ctx, path, oldContent, "", true)
}

func (s *Stage) stage(ctx context.Context, path, oldContent, newContent string, deletion bool) (*FileDiff, error) {
	URL := s.Resolve(path)
	unified, err := Unified(oldContent, newContent, url.Path(URL), s.contextLines)
	if err != nil {
		return nil, fmt.Errorf("diff: failed to render %s: %w", URL, err)
	}
	changes, stats := Compute(oldContent, newContent)
	d := &FileDiff{
		FilePath:   URL,
		OldContent: oldContent,
		NewContent: newContent,
		Deletion:   deletion,
		Changes:    changes,
		Unified:    unified,
		Stats:      stats,
		Status:     StatusPending,
		CreatedAt:  clock.Now(),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.diffs[URL] = d
	s.metrics.ObserveDiff(string(StatusPending))
	if s.autoAccept {
		if err = s.acceptLocked(ctx, d); err != nil {
			return d.Clone(), err
		}
	}
	return d.Clone(), nil
}

// Accept writes the staged content. Accepting an accepted diff rewrites the
// same bytes and keeps the status.
func (s *Stage) Accept(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.diffs[s.Resolve(path)]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return s.acceptLocked(ctx, d)
}

func (s *Stage) acceptLocked(ctx context.Context, d *FileDiff) error {
	switch d.Status {
	case StatusRejected:
		return fmt.Errorf("%w: %s", ErrRejected, d.FilePath)
	case StatusPending:
		snapshot, err := s.snapshot(ctx, d.FilePath)
		if err != nil {
			return err
		}
		d.backup = snapshot
	}
	if err := s.apply(ctx, d); err != nil {
		return err
	}
	if d.Status != StatusAccepted {
		d.Status = StatusAccepted
		d.DecidedAt = clock.Now()
		s.metrics.ObserveDiff(string(StatusAccepted))
	}
	return nil
}

func (s *Stage) snapshot(ctx context.Context, URL string) (*backup, error) {
	exists, err := s.fs.Exists(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("diff: failed to check %s: %w", URL, err)
	}
	if !exists {
		return &backup{}, nil
	}
	data, err := s.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("diff: failed to back up %s: %w", URL, err)
	}
	return &backup{existed: true, content: data}, nil
}

func (s *Stage) apply(ctx context.Context, d *FileDiff) error {
	if d.Deletion {
		exists, err := s.fs.Exists(ctx, d.FilePath)
		if err != nil || !exists {
			return err
		}
		return s.fs.Delete(ctx, d.FilePath)
	}
	return s.write(ctx, d.FilePath, []byte(d.NewContent))
}

func (s *Stage) write(ctx context.Context, URL string, data []byte) error {
	parent, _ := url.Split(URL, file.Scheme)
	if parent != "" {
		exists, err := s.fs.Exists(ctx, parent)
		if err != nil {
			return fmt.Errorf("diff: failed to check %s: %w", parent, err)
		}
		if !exists {
			if err = s.fs.Create(ctx, parent, file.DefaultDirOsMode, true); err != nil {
				return fmt.Errorf("diff: failed to create %s: %w", parent, err)
			}
		}
	}
	if err := s.fs.Upload(ctx, URL, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("diff: failed to write %s: %w", URL, err)
	}
	return nil
}

// Reject discards a pending diff. Rejecting an accepted diff is refused; use Rollback.
func (s *Stage) Reject(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.diffs[s.Resolve(path)]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	switch d.Status {
	case StatusRejected:
		return nil
	case StatusAccepted:
		return fmt.Errorf("diff: %s already accepted", d.FilePath)
	}
	d.Status = StatusRejected
	d.DecidedAt = clock.Now()
	s.metrics.ObserveDiff(string(StatusRejected))
	return nil
}

// AcceptAll accepts every pending diff in path order and returns how many
// were applied. Failures do not stop the remaining diffs.
func (s *Stage) AcceptAll(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	applied := 0
	var errs []error
	for _, URL := range s.sortedKeysLocked() {
		d := s.diffs[URL]
		if d.Status != StatusPending {
			continue
		}
		if err := s.acceptLocked(ctx, d); err != nil {
			errs = append(errs, err)
			continue
		}
		applied++
	}
	return applied, errors.Join(errs...)
}

// Rollback restores the content path had before its diff was accepted, or
// removes it when the diff created it. The diff becomes rejected.
func (s *Stage) Rollback(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.diffs[s.Resolve(path)]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if d.Status != StatusAccepted || d.backup == nil {
		return fmt.Errorf("%w: %s", ErrNotAccepted, d.FilePath)
	}
	var err error
	if d.backup.existed {
		err = s.write(ctx, d.FilePath, d.backup.content)
	} else if exists, _ := s.fs.Exists(ctx, d.FilePath); exists {
		err = s.fs.Delete(ctx, d.FilePath)
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("path", d.FilePath).Msg("rollback failed")
		return fmt.Errorf("%w: %s: %v", ErrRollback, d.FilePath, err)
	}
	d.Status = StatusRejected
	d.RolledBack = true
	d.DecidedAt = clock.Now()
	d.backup = nil
	s.metrics.ObserveDiff("rolled_back")
	return nil
}

// Get returns a copy of the staged diff for path.
func (s *Stage) Get(path string) (*FileDiff, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.diffs[s.Resolve(path)]
	if !ok {
		return nil, false
	}
	return d.Clone(), true
}

// List returns copies of all staged diffs ordered by path, optionally narrowed to statuses.
func (s *Stage) List(statuses ...Status) []*FileDiff {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ret []*FileDiff
	for _, URL := range s.sortedKeysLocked() {
		d := s.diffs[URL]
		if len(statuses) > 0 && !hasStatus(statuses, d.Status) {
			continue
		}
		ret = append(ret, d.Clone())
	}
	return ret
}

// Pending returns copies of pending diffs.
func (s *Stage) Pending() []*FileDiff { return s.List(StatusPending) }

// Remove drops the diff for path.
func (s *Stage) Remove(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.diffs, s.Resolve(path))
}

// Clear drops every staged diff.
func (s *Stage) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.diffs = map[string]*FileDiff{}
}

func (s *Stage) sortedKeysLocked() []string {
	keys := make([]string, 0, len(s.diffs))
	for k := range s.diffs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func hasStatus(statuses []Status, status Status) bool {
	for _, candidate := range statuses {
		if candidate == status {
			return true
		}
	}
	return false
}
