package file

import "github.com/viant/toolgate/service/diff"

// ReadInput names the file to read.
type ReadInput struct {
	Path string `json:"path" required:"true"`
}

// TargetPath returns the file path.
func (i *ReadInput) TargetPath() string { return i.Path }

// SetTargetPath replaces the path with the validated one.
func (i *ReadInput) SetTargetPath(path string) { i.Path = path }

// ReadOutput carries the file content.
type ReadOutput struct {
	Content string `json:"content"`
	Asset   *Asset `json:"asset,omitempty"`
}

// ListInput names the directory to list.
type ListInput struct {
	Path      string `json:"path" required:"true"`
	Recursive bool   `json:"recursive,omitempty"`
}

// TargetPath returns the directory path.
func (i *ListInput) TargetPath() string { return i.Path }

// SetTargetPath replaces the path with the validated one.
func (i *ListInput) SetTargetPath(path string) { i.Path = path }

// ListOutput carries the listed assets.
type ListOutput struct {
	Assets []*Asset `json:"assets,omitempty"`
}

// WriteInput proposes new file content.
type WriteInput struct {
	Path    string `json:"path" required:"true"`
	Content string `json:"content"`
}

// TargetPath returns the file path.
func (i *WriteInput) TargetPath() string { return i.Path }

// SetTargetPath replaces the path with the validated one.
func (i *WriteInput) SetTargetPath(path string) { i.Path = path }

// DeleteInput names the file to remove.
type DeleteInput struct {
	Path string `json:"path" required:"true"`
}

// TargetPath returns the file path.
func (i *DeleteInput) TargetPath() string { return i.Path }

// SetTargetPath replaces the path with the validated one.
func (i *DeleteInput) SetTargetPath(path string) { i.Path = path }

// ChangeOutput reports the staged change.
type ChangeOutput struct {
	FilePath string      `json:"filePath"`
	Status   diff.Status `json:"status"`
	Stats    diff.Stats  `json:"stats"`
	Unified  string      `json:"unified,omitempty"`
}
