package audit

import (
	"encoding/binary"
	"encoding/hex"
	"time"

	"golang.org/x/crypto/blake2b"
)

// Common audit actions.
const (
	ActionSubmitted     = "submitted"
	ActionAutoApproved  = "auto_approved"
	ActionAutoRejected  = "auto_rejected"
	ActionApproved      = "approved"
	ActionRejected      = "rejected"
	ActionConditional   = "conditional_approved"
	ActionInfoRequested = "info_requested"
	ActionEscalated     = "escalated"
	ActionInterrupted   = "interrupted"
	ActionViolation     = "compliance_violation"
)

// Entry is an immutable audit record.
type Entry struct {
	Seq       uint64    `json:"seq"`
	Timestamp time.Time `json:"timestamp"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Details   string    `json:"details,omitempty"`
	SessionID string    `json:"sessionId,omitempty"`
	RequestID string    `json:"requestId,omitempty"`
	PrevHash  string    `json:"prevHash,omitempty"`
	Hash      string    `json:"hash"`
}

func (e *Entry) digest() string {
	h, _ := blake2b.New256(nil)
	var seq [8]byte
	binary.BigEndian.PutUint64(seq[:], e.Seq)
	h.Write(seq[:])
	for _, field := range []string{e.PrevHash, e.Timestamp.UTC().Format(time.RFC3339Nano), e.Actor, e.Action, e.Details, e.SessionID, e.RequestID} {
		var size [4]byte
		binary.BigEndian.PutUint32(size[:], uint32(len(field)))
		h.Write(size[:])
		h.Write([]byte(field))
	}
	return hex.EncodeToString(h.Sum(nil))
}
