package batch

import (
	"errors"
	"time"

	"github.com/viant/toolgate/model"
)

var (
	// ErrNotFound is returned for unknown session ids.
	ErrNotFound = errors.New("batch: session not found")
	// ErrNotApproved is returned when a session lacks a qualifying approval.
	ErrNotApproved = errors.New("batch: session requires an approved confirmed or dangerous request")
	// ErrAlreadyExecuted is returned when a session is started twice.
	ErrAlreadyExecuted = errors.New("batch: session already executed")
	// ErrNoCommands is returned for empty command lists.
	ErrNoCommands = errors.New("batch: no commands")
)

// State is a session lifecycle state.
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// CommandResult is the outcome of one session command.
type CommandResult struct {
	Index       int       `json:"index"`
	Command     string    `json:"command"`
	Success     bool      `json:"success"`
	Output      string    `json:"output,omitempty"`
	Status      int       `json:"status"`
	Error       string    `json:"error,omitempty"`
	ElapsedMs   int64     `json:"elapsedMs"`
	CompletedAt time.Time `json:"completedAt"`
}

// Session is a group of commands approved once.
type Session struct {
	ID            string              `json:"id"`
	Commands      []string            `json:"commands"`
	Workdir       string              `json:"workdir,omitempty"`
	State         State               `json:"state"`
	Results       []*CommandResult    `json:"results,omitempty"`
	SecurityLevel model.SecurityLevel `json:"securityLevel"`
	RequestID     string              `json:"requestId,omitempty"`
	Approver      string              `json:"approver,omitempty"`
	FailedIndex   int                 `json:"failedIndex"`
	Error         string              `json:"error,omitempty"`
	CreatedAt     time.Time           `json:"createdAt"`
	StartedAt     *time.Time          `json:"startedAt,omitempty"`
	FinishedAt    *time.Time          `json:"finishedAt,omitempty"`
	ExpiresAt     time.Time           `json:"expiresAt"`
}

// Terminal reports whether the session finished.
func (s *Session) Terminal() bool {
	return s.State == StateCompleted || s.State == StateFailed
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	ret := *s
	ret.Commands = append([]string(nil), s.Commands...)
	ret.Results = make([]*CommandResult, len(s.Results))
	for i, result := range s.Results {
		copied := *result
		ret.Results[i] = &copied
	}
	if s.StartedAt != nil {
		started := *s.StartedAt
		ret.StartedAt = &started
	}
	if s.FinishedAt != nil {
		finished := *s.FinishedAt
		ret.FinishedAt = &finished
	}
	return &ret
}
