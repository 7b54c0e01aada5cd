// Package file exposes filesystem access as a tracked tool. Mutations are
// staged in a diff stage rather than written directly.
package file

import (
	"context"
	"errors"
	"fmt"
	"path"
	"reflect"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/option"
	"github.com/viant/afs/storage"
	"github.com/viant/afs/url"
	"github.com/viant/toolgate/model"
	"github.com/viant/toolgate/model/types"
	"github.com/viant/toolgate/service/diff"
)

// Name is the registry name of the file tool.
const Name = "file"

// Service reads files and stages writes and deletions.
type Service struct {
	fs    afs.Service
	stage *diff.Stage
}

// New creates a file tool backed by stage; fs defaults to afs.New().
func New(fs afs.Service, stage *diff.Stage) *Service {
	if fs == nil {
		fs = afs.New()
	}
	return &Service{fs: fs, stage: stage}
}

// Name returns the service name.
func (s *Service) Name() string { return Name }

// Methods returns the service methods.
func (s *Service) Methods() types.Signatures {
	return []types.Signature{
		{Name: "read", Description: "Reads a file.", Input: reflect.TypeOf(&ReadInput{}), Output: reflect.TypeOf(&ReadOutput{}), TouchesPath: true},
		{Name: "list", Description: "Lists a directory.", Input: reflect.TypeOf(&ListInput{}), Output: reflect.TypeOf(&ListOutput{}), TouchesPath: true},
		{Name: "write", Description: "Stages new content for a file.", Input: reflect.TypeOf(&WriteInput{}), Output: reflect.TypeOf(&ChangeOutput{}), SecurityLevel: model.SecurityConfirmed, TouchesPath: true},
		{Name: "delete", Description: "Stages removal of a file.", Input: reflect.TypeOf(&DeleteInput{}), Output: reflect.TypeOf(&ChangeOutput{}), SecurityLevel: model.SecurityDangerous, TouchesPath: true},
	}
}

// Method returns method by name.
func (s *Service) Method(name string) (types.Executable, error) {
	switch strings.ToLower(name) {
	case "read":
		return s.read, nil
	case "list":
		return s.list, nil
	case "write":
		return s.write, nil
	case "delete":
		return s.delete, nil
	default:
		return nil, types.NewMethodNotFoundError(name)
	}
}

func (s *Service) read(ctx context.Context, in, out interface{}) error {
	input, ok := in.(*ReadInput)
	if !ok {
		return types.NewInvalidInputError(in)
	}
	output, ok := out.(*ReadOutput)
	if !ok {
		return types.NewInvalidOutputError(out)
	}
	return s.Read(ctx, input, output)
}

func (s *Service) list(ctx context.Context, in, out interface{}) error {
	input, ok := in.(*ListInput)
	if !ok {
		return types.NewInvalidInputError(in)
	}
	output, ok := out.(*ListOutput)
	if !ok {
		return types.NewInvalidOutputError(out)
	}
	return s.List(ctx, input, output)
}

func (s *Service) write(ctx context.Context, in, out interface{}) error {
	input, ok := in.(*WriteInput)
	if !ok {
		return types.NewInvalidInputError(in)
	}
	output, ok := out.(*ChangeOutput)
	if !ok {
		return types.NewInvalidOutputError(out)
	}
	return s.Write(ctx, input, output)
}

func (s *Service) delete(ctx context.Context, in, out interface{}) error {
	input, ok := in.(*DeleteInput)
	if !ok {
		return types.NewInvalidInputError(in)
	}
	output, ok := out.(*ChangeOutput)
	if !ok {
		return types.NewInvalidOutputError(out)
	}
	return s.Delete(ctx, input, output)
}

// Read downloads the file at input.Path.
func (s *Service) Read(ctx context.Context, input *ReadInput, output *ReadOutput) error {
	URL := s.stage.Resolve(input.Path)
	object, err := s.fs.Object(ctx, URL)
	if err != nil {
		return fmt.Errorf("file: failed to stat %s: %w", URL, err)
	}
	if object.IsDir() {
		return fmt.Errorf("file: %s is a directory", URL)
	}
	data, err := s.fs.Download(ctx, object)
	if err != nil {
		return fmt.Errorf("file: failed to read %s: %w", URL, err)
	}
	output.Content = string(data)
	output.Asset = asset(object)
	return nil
}

// List lists the directory at input.Path.
func (s *Service) List(ctx context.Context, input *ListInput, output *ListOutput) error {
	URL := s.stage.Resolve(input.Path)
	var options []storage.Option
	if input.Recursive {
		options = append(options, option.NewRecursive(true))
	}
	objects, err := s.fs.List(ctx, URL, options...)
	if err != nil {
		return fmt.Errorf("file: failed to list %s: %w", URL, err)
	}
	output.Assets = make([]*Asset, 0, len(objects))
	for _, object := range objects {
		if url.Equals(object.URL(), URL) {
			continue
		}
		output.Assets = append(output.Assets, asset(object))
	}
	return nil
}

// Write stages input.Content against the current file content.
func (s *Service) Write(ctx context.Context, input *WriteInput, output *ChangeOutput) error {
	current, err := s.current(ctx, input.Path)
	if err != nil {
		return err
	}
	staged, err := s.stage.Add(ctx, input.Path, current, input.Content)
	if err != nil && !errors.Is(err, diff.ErrNoChange) {
		return err
	}
	if staged == nil {
		output.FilePath = input.Path
		output.Status = diff.StatusAccepted
		return nil
	}
	fill(output, staged)
	return err
}

// Delete stages the removal of input.Path.
func (s *Service) Delete(ctx context.Context, input *DeleteInput, output *ChangeOutput) error {
	URL := s.stage.Resolve(input.Path)
	exists, err := s.fs.Exists(ctx, URL)
	if err != nil {
		return fmt.Errorf("file: failed to check %s: %w", URL, err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", diff.ErrNotFound, URL)
	}
	current, err := s.current(ctx, input.Path)
	if err != nil {
		return err
	}
	staged, err := s.stage.AddDeletion(ctx, input.Path, current)
	if staged != nil {
		fill(output, staged)
	}
	return err
}

func (s *Service) current(ctx context.Context, p string) (string, error) {
	URL := s.stage.Resolve(p)
	exists, err := s.fs.Exists(ctx, URL)
	if err != nil {
		return "", fmt.Errorf("file: failed to check %s: %w", URL, err)
	}
	if !exists {
		return "", nil
	}
	data, err := s.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return "", fmt.Errorf("file: failed to read %s: %w", URL, err)
	}
	return string(data), nil
}

func fill(output *ChangeOutput, staged *diff.FileDiff) {
	output.FilePath = staged.FilePath
	output.Status = staged.Status
	output.Stats = staged.Stats
	output.Unified = staged.Unified
}

func asset(object storage.Object) *Asset {
	return &Asset{
		URL:         object.URL(),
		Name:        path.Base(url.Path(object.URL())),
		IsDir:       object.IsDir(),
		Mode:        object.Mode().String(),
		Size:        object.Size(),
		ModTime:     object.ModTime(),
		ContentType: ContentType(object.Name()),
	}
}
