package tracker

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
)

var (
	ErrEmptyPath      = errors.New("tracker: empty path")
	ErrInvalidPath    = errors.New("tracker: invalid path")
	ErrPathTraversal  = errors.New("tracker: path traversal")
	ErrOutsideRoots   = errors.New("tracker: path outside allowed roots")
	ErrRestrictedPath = errors.New("tracker: restricted system path")
	ErrRemotePath     = errors.New("tracker: non-local URL outside allowed roots")
)

var restrictedPrefixes = []string{"/etc/shadow", "/etc/sudoers", "/proc", "/sys", "/dev", "/boot"}

// PathValidation is the non-failing result of ValidatePath.
type PathValidation struct {
	Valid    bool   `json:"valid"`
	SafePath string `json:"safePath,omitempty"`
	Error    error  `json:"-"`
	Reason   string `json:"error,omitempty"`
}

func invalid(err error) PathValidation {
	return PathValidation{Error: err, Reason: err.Error()}
}

// ValidatePath checks path without touching the filesystem. Relative paths
// resolve against the tracker working directory and file:// URLs are checked
// as local paths. SafePath is the absolute local path, or the URL itself for
// other schemes, which are only valid while no allowed roots are set.
func (t *Tracker) ValidatePath(path string) PathValidation {
	if strings.TrimSpace(path) == "" {
		return invalid(ErrEmptyPath)
	}
	if strings.ContainsRune(path, 0) {
		return invalid(fmt.Errorf("%w: contains NUL", ErrInvalidPath))
	}
	remote := false
	if strings.Contains(path, "://") {
		if url.Scheme(path, file.Scheme) == file.Scheme {
			path = url.Path(path)
		} else {
			remote = true
		}
	}
	for _, segment := range strings.FieldsFunc(filepath.ToSlash(url.Path(path)), func(r rune) bool { return r == '/' }) {
		if segment == ".." {
			return invalid(fmt.Errorf("%w: %s", ErrPathTraversal, path))
		}
	}
	if remote {
		if len(t.allowedRoots) > 0 {
			return invalid(fmt.Errorf("%w: %s", ErrRemotePath, path))
		}
		return PathValidation{Valid: true, SafePath: path}
	}
	resolved := path
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(t.workingDirectory, resolved)
	}
	resolved = filepath.Clean(resolved)
	slashed := filepath.ToSlash(resolved)
	for _, prefix := range restrictedPrefixes {
		if slashed == prefix || strings.HasPrefix(slashed, prefix+"/") {
			return invalid(fmt.Errorf("%w: %s", ErrRestrictedPath, resolved))
		}
	}
	if len(t.allowedRoots) > 0 && !withinAny(resolved, t.allowedRoots) {
		return invalid(fmt.Errorf("%w: %s", ErrOutsideRoots, resolved))
	}
	return PathValidation{Valid: true, SafePath: resolved}
}

func withinAny(path string, roots []string) bool {
	for _, root := range roots {
		root = filepath.Clean(root)
		rel, err := filepath.Rel(root, path)
		if err != nil {
			continue
		}
		if rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))) {
			return true
		}
	}
	return false
}
