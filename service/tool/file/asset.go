package file

import (
	"path/filepath"
	"strings"
	"time"
)

// Asset describes a file or directory.
type Asset struct {
	URL         string    `json:"url"`
	Name        string    `json:"name"`
	IsDir       bool      `json:"isDir"`
	Mode        string    `json:"mode,omitempty"`
	Size        int64     `json:"size,omitempty"`
	ModTime     time.Time `json:"modTime,omitempty"`
	ContentType string    `json:"contentType,omitempty"`
}

var contentTypes = map[string]string{
	".go":   "text/x-go",
	".md":   "text/markdown",
	".txt":  "text/plain",
	".json": "application/json",
	".yaml": "application/yaml",
	".yml":  "application/yaml",
	".html": "text/html",
	".js":   "application/javascript",
	".ts":   "application/typescript",
	".xml":  "application/xml",
	".png":  "image/png",
	".zip":  "application/zip",
}

// ContentType guesses the content type from the file extension.
func ContentType(name string) string {
	if ret, ok := contentTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ret
	}
	return "application/octet-stream"
}
