package diff

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	sgdiff "github.com/sourcegraph/go-diff/diff"
)

const devNull = "/dev/null"

// StagePatch stages every file of a unified multi-file patch. Original
// content is read from storage; additions start empty, deletions stage a
// removal. Nothing is staged when any file fails to apply.
func (s *Stage) StagePatch(ctx context.Context, patchText string) ([]*FileDiff, error) {
	files, err := sgdiff.ParseMultiFileDiff([]byte(patchText))
	if err != nil {
		return nil, fmt.Errorf("diff: failed to parse patch: %w", err)
	}
	type proposal struct {
		path          string
		before, after string
		deletion      bool
	}
	var proposals []proposal
	for _, fd := range files {
		orig := strings.TrimPrefix(fd.OrigName, "a/")
		newer := strings.TrimPrefix(fd.NewName, "b/")
		switch {
		case fd.OrigName == devNull && fd.NewName != devNull:
			var buf bytes.Buffer
			if err = applyHunks(nil, fd.Hunks, &buf); err != nil {
				return nil, fmt.Errorf("diff: %s: %w", newer, err)
			}
			proposals = append(proposals, proposal{path: newer, after: buf.String()})
		case fd.NewName == devNull && fd.OrigName != devNull:
			before, err := s.read(ctx, orig)
			if err != nil {
				return nil, err
			}
			proposals = append(proposals, proposal{path: orig, before: before, deletion: true})
		default:
			if orig != newer {
				return nil, fmt.Errorf("diff: renames are not supported: %s -> %s", orig, newer)
			}
			before, err := s.read(ctx, orig)
			if err != nil {
				return nil, err
			}
			var buf bytes.Buffer
			if err = applyHunks([]byte(before), fd.Hunks, &buf); err != nil {
				return nil, fmt.Errorf("diff: %s: %w", orig, err)
			}
			proposals = append(proposals, proposal{path: orig, before: before, after: buf.String()})
		}
	}
	ret := make([]*FileDiff, 0, len(proposals))
	for _, p := range proposals {
		var staged *FileDiff
		if p.deletion {
			staged, err = s.AddDeletion(ctx, p.path, p.before)
		} else {
			staged, err = s.stage(ctx, p.path, p.before, p.after, false)
		}
		if err != nil {
			return ret, err
		}
		ret = append(ret, staged)
	}
	return ret, nil
}

func (s *Stage) read(ctx context.Context, path string) (string, error) {
	URL := s.Resolve(path)
	exists, err := s.fs.Exists(ctx, URL)
	if err != nil {
		return "", fmt.Errorf("diff: failed to check %s: %w", URL, err)
	}
	if !exists {
		return "", fmt.Errorf("%w: %s does not exist", ErrNotFound, URL)
	}
	data, err := s.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return "", fmt.Errorf("diff: failed to read %s: %w", URL, err)
	}
	return string(data), nil
}

// applyHunks writes oldData patched by hunks to w, verifying every context
// and removed line against the original.
func applyHunks(oldData []byte, hunks []*sgdiff.Hunk, w io.Writer) error {
	oldLines := strings.SplitAfter(string(oldData), "\n")
	if len(oldData) == 0 {
		oldLines = nil
	}
	pos := 0
	same := func(a, b string) bool {
		return a == b || strings.TrimSuffix(a, "\n") == strings.TrimSuffix(b, "\n")
	}
	for _, h := range hunks {
		start := int(h.OrigStartLine) - 1
		for pos < start && pos < len(oldLines) {
			if _, err := io.WriteString(w, oldLines[pos]); err != nil {
				return err
			}
			pos++
		}
		for _, hl := range strings.SplitAfter(string(h.Body), "\n") {
			if hl == "" {
				continue
			}
			tag, line := hl[0], hl[1:]
			switch tag {
			case ' ':
				if pos >= len(oldLines) || !same(oldLines[pos], line) {
					return fmt.Errorf("context mismatch at line %d", pos+1)
				}
				if _, err := io.WriteString(w, oldLines[pos]); err != nil {
					return err
				}
				pos++
			case '-':
				if pos >= len(oldLines) || !same(oldLines[pos], line) {
					return fmt.Errorf("removal mismatch at line %d", pos+1)
				}
				pos++
			case '+':
				if _, err := io.WriteString(w, line); err != nil {
					return err
				}
			case '\\':
			default:
				return fmt.Errorf("unexpected hunk tag %q", tag)
			}
		}
	}
	for pos < len(oldLines) {
		if _, err := io.WriteString(w, oldLines[pos]); err != nil {
			return err
		}
		pos++
	}
	return nil
}
