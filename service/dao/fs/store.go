package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/option"
	"github.com/viant/afs/url"
	"github.com/viant/toolgate/service/dao"
	"github.com/viant/toolgate/service/dao/criteria"
)

// Store persists entities as one JSON document per key under baseURL.
type Store[T any] struct {
	baseURL       string
	fs            afs.Service
	keySelector   func(*T) string
	stateSelector func(*T) string
	logger        zerolog.Logger
	mu            sync.RWMutex
}

// Option configures a Store.
type Option[T any] func(s *Store[T])

// WithStateSelector enables state filtering in List.
func WithStateSelector[T any](fn func(*T) string) Option[T] {
	return func(s *Store[T]) { s.stateSelector = fn }
}

// WithLogger sets the logger used for skipped documents.
func WithLogger[T any](logger zerolog.Logger) Option[T] {
	return func(s *Store[T]) { s.logger = logger }
}

// WithFS overrides the storage service.
func WithFS[T any](fs afs.Service) Option[T] {
	return func(s *Store[T]) { s.fs = fs }
}

// New creates a store rooted at baseURL (any afs URL, e.g. file:// or mem://).
func New[T any](baseURL string, keySelector func(*T) string, opts ...Option[T]) *Store[T] {
	ret := &Store[T]{
		baseURL:     strings.TrimRight(url.Normalize(baseURL, file.Scheme), "/"),
		fs:          afs.New(),
		keySelector: keySelector,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func (s *Store[T]) entityURL(id string) string {
	return url.Join(s.baseURL, id+".json")
}

// Save writes the entity document.
func (s *Store[T]) Save(ctx context.Context, v *T) error {
	if v == nil {
		return dao.ErrNilEntity
	}
	id := s.keySelector(v)
	if id == "" {
		return dao.ErrInvalidID
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("fs store: failed to marshal %s: %w", id, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	URL := s.entityURL(id)
	if err = s.fs.Upload(ctx, URL, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("fs store: failed to save %s: %w", URL, err)
	}
	return nil
}

// Load reads the entity document.
func (s *Store[T]) Load(ctx context.Context, id string) (*T, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	URL := s.entityURL(id)
	exists, err := s.fs.Exists(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("fs store: failed to check %s: %w", URL, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", dao.ErrNotFound, id)
	}
	data, err := s.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("fs store: failed to read %s: %w", URL, err)
	}
	ret := new(T)
	if err = json.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("fs store: failed to unmarshal %s: %w", URL, err)
	}
	return ret, nil
}

// Delete removes the entity document; a missing document is not an error.
func (s *Store[T]) Delete(ctx context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	URL := s.entityURL(id)
	exists, err := s.fs.Exists(ctx, URL)
	if err != nil || !exists {
		return err
	}
	if err = s.fs.Delete(ctx, URL); err != nil {
		return fmt.Errorf("fs store: failed to delete %s: %w", URL, err)
	}
	return nil
}

// List returns every decodable document matching parameters.
func (s *Store[T]) List(ctx context.Context, parameters ...*dao.Parameter) ([]*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ret []*T
	exists, err := s.fs.Exists(ctx, s.baseURL)
	if err != nil || !exists {
		return ret, err
	}
	objects, err := s.fs.List(ctx, s.baseURL, option.NewRecursive(false))
	if err != nil {
		return nil, fmt.Errorf("fs store: failed to list %s: %w", s.baseURL, err)
	}
	for _, object := range objects {
		if object.IsDir() || !strings.HasSuffix(object.Name(), ".json") {
			continue
		}
		data, err := s.fs.Download(ctx, object)
		if err != nil {
			s.logger.Warn().Err(err).Str("url", object.URL()).Msg("skipping unreadable document")
			continue
		}
		v := new(T)
		if err = json.Unmarshal(data, v); err != nil {
			s.logger.Warn().Err(err).Str("url", object.URL()).Msg("skipping malformed document")
			continue
		}
		if s.stateSelector != nil && !criteria.FilterByState(s.stateSelector(v), parameters) {
			continue
		}
		ret = append(ret, v)
	}
	return ret, nil
}

var _ dao.Service[string, struct{}] = (*Store[struct{}])(nil)
