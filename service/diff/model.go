package diff

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned for paths without a staged diff.
	ErrNotFound = errors.New("diff: not found")
	// ErrRejected is returned when accepting a rejected diff.
	ErrRejected = errors.New("diff: already rejected")
	// ErrNoChange is returned when old and new content are identical.
	ErrNoChange = errors.New("diff: no change")
	// ErrNotAccepted is returned when rolling back a diff that was never applied.
	ErrNotAccepted = errors.New("diff: not accepted")
	// ErrRollback wraps restore failures.
	ErrRollback = errors.New("diff: rollback failed")
)

// Status of a staged diff.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// ChangeType is the kind of a changed line.
type ChangeType string

const (
	LineAdded   ChangeType = "add"
	LineRemoved ChangeType = "remove"
)

// LineChange is a single added or removed line. Line numbers are 1-based;
// OldLine is 0 for additions and NewLine is 0 for removals.
type LineChange struct {
	Type    ChangeType `json:"type"`
	OldLine int        `json:"oldLine,omitempty"`
	NewLine int        `json:"newLine,omitempty"`
	Content string     `json:"content"`
}

// Stats counts changed lines.
type Stats struct {
	Added   int `json:"added"`
	Removed int `json:"removed"`
}

// FileDiff is a proposed content change for one file.
type FileDiff struct {
	FilePath   string       `json:"filePath"`
	OldContent string       `json:"oldContent"`
	NewContent string       `json:"newContent"`
	Deletion   bool         `json:"deletion,omitempty"`
	Changes    []LineChange `json:"changes"`
	Unified    string       `json:"unified,omitempty"`
	Stats      Stats        `json:"stats"`
	Status     Status       `json:"status"`
	CreatedAt  time.Time    `json:"createdAt"`
	DecidedAt  time.Time    `json:"decidedAt,omitempty"`
	RolledBack bool         `json:"rolledBack,omitempty"`

	backup *backup
}

type backup struct {
	existed bool
	content []byte
}

// Clone returns a copy safe to hand to readers.
func (d *FileDiff) Clone() *FileDiff {
	if d == nil {
		return nil
	}
	ret := *d
	ret.Changes = append([]LineChange(nil), d.Changes...)
	ret.backup = nil
	return &ret
}
