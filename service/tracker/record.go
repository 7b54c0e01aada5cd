package tracker

import (
	"time"

	"github.com/viant/toolgate/model"
)

// Record is an immutable execution history entry.
type Record struct {
	Tool            string         `json:"tool"`
	Success         bool           `json:"success"`
	Data            interface{}    `json:"data,omitempty"`
	Error           string         `json:"error,omitempty"`
	Context         ToolContext    `json:"context"`
	ExecutionTimeMs int64          `json:"executionTimeMs"`
	SecurityChecks  SecurityChecks `json:"securityChecks"`
	CompletedAt     time.Time      `json:"completedAt"`
}

// Result is the typed outcome returned to the caller of Execute.
type Result[T any] struct {
	Success         bool
	Data            T
	Error           error
	Context         ToolContext
	ExecutionTimeMs int64
	SecurityChecks  SecurityChecks
}

// Filter narrows History.
type Filter struct {
	SecurityLevel model.SecurityLevel
	Success       *bool
	Limit         int
}

// Stats summarises the full history.
type Stats struct {
	Total                int                         `json:"total"`
	Failures             int                         `json:"failures"`
	ByLevel              map[model.SecurityLevel]int `json:"byLevel"`
	CommandsAnalyzed     int                         `json:"commandsAnalyzed"`
	PathValidationRate   float64                     `json:"pathValidationRate"`
	UserConfirmationRate float64                     `json:"userConfirmationRate"`
}
