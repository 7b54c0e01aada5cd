package event

import (
	"time"

	"github.com/viant/toolgate/internal/clock"
)

// Topic names a governance notification.
type Topic string

const (
	RequestSubmitted    Topic = "request:submitted"
	RequestApproved     Topic = "request:approved"
	RequestRejected     Topic = "request:rejected"
	WorkflowEscalated   Topic = "workflow:escalated"
	ComplianceViolation Topic = "compliance:violation"
)

// Topics lists every topic the approval system emits.
var Topics = []Topic{RequestSubmitted, RequestApproved, RequestRejected, WorkflowEscalated, ComplianceViolation}

// Event is a single notification.
type Event struct {
	Topic     Topic                  `json:"topic"`
	RequestID string                 `json:"requestId,omitempty"`
	SessionID string                 `json:"sessionId,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Data      interface{}            `json:"data,omitempty"`
}

// New creates an event stamped with the current time.
func New(topic Topic, requestID string, data interface{}) *Event {
	return &Event{
		Topic:     topic,
		RequestID: requestID,
		CreatedAt: clock.Now(),
		Metadata:  make(map[string]interface{}),
		Data:      data,
	}
}

// With sets a metadata value and returns the event.
func (e *Event) With(key string, value interface{}) *Event {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}
