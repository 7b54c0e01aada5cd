package audit

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/viant/toolgate/internal/clock"
)

// DefaultMaxEntries is the retention limit used when none is configured.
const DefaultMaxEntries = 1000

// ErrTampered is returned by Verify when the chain does not hold.
var ErrTampered = errors.New("audit: chain verification failed")

// Sink receives every appended entry.
type Sink interface {
	Emit(ctx context.Context, entry Entry) error
}

// Log is the owner of the audit trail. It is safe for concurrent use.
type Log struct {
	emitMu     sync.Mutex
	mu         sync.RWMutex
	entries    []Entry
	maxEntries int
	seq        uint64
	lastHash   string
	sink       Sink
	logger     zerolog.Logger
}

// Option configures a Log.
type Option func(l *Log)

// WithMaxEntries sets the retention limit.
func WithMaxEntries(n int) Option {
	return func(l *Log) {
		if n > 0 {
			l.maxEntries = n
		}
	}
}

// WithSink mirrors entries to sink.
func WithSink(sink Sink) Option {
	return func(l *Log) { l.sink = sink }
}

// WithLogger sets the logger used for sink failures.
func WithLogger(logger zerolog.Logger) Option {
	return func(l *Log) { l.logger = logger }
}

// New creates an audit log.
func New(opts ...Option) *Log {
	ret := &Log{maxEntries: DefaultMaxEntries, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Append records an entry built from the supplied fields and returns it.
// Sink failures are logged and never fail the append. The sink receives
// entries in Seq order.
func (l *Log) Append(ctx context.Context, actor, action, details, sessionID, requestID string) Entry {
	l.emitMu.Lock()
	defer l.emitMu.Unlock()
	l.mu.Lock()
	l.seq++
	entry := Entry{
		Seq:       l.seq,
		Timestamp: clock.Now(),
		Actor:     actor,
		Action:    action,
		Details:   details,
		SessionID: sessionID,
		RequestID: requestID,
		PrevHash:  l.lastHash,
	}
	entry.Hash = entry.digest()
	l.lastHash = entry.Hash
	l.entries = append(l.entries, entry)
	if overflow := len(l.entries) - l.maxEntries; overflow > 0 {
		l.entries = append([]Entry(nil), l.entries[overflow:]...)
	}
	sink := l.sink
	l.mu.Unlock()

	if sink != nil {
		if err := sink.Emit(ctx, entry); err != nil {
			l.logger.Warn().Err(err).Str("action", action).Msg("failed to write audit entry")
		}
	}
	return entry
}

// Entries returns a copy of the retained entries, oldest first.
func (l *Log) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Entry(nil), l.entries...)
}

// ForRequest returns the retained entries for requestID, oldest first.
func (l *Log) ForRequest(requestID string) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var ret []Entry
	for _, e := range l.entries {
		if e.RequestID == requestID {
			ret = append(ret, e)
		}
	}
	return ret
}

// Len returns the number of retained entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Verify recomputes the chain of retained entries.
func (l *Log) Verify() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return VerifyEntries(l.entries)
}

// VerifyEntries checks that each entry hashes to its Hash and links to its predecessor.
// The first entry's PrevHash is trusted since its predecessor may have been trimmed.
func VerifyEntries(entries []Entry) error {
	for i := range entries {
		e := entries[i]
		if e.digest() != e.Hash {
			return fmt.Errorf("%w: entry %d hash mismatch", ErrTampered, e.Seq)
		}
		if i > 0 && e.PrevHash != entries[i-1].Hash {
			return fmt.Errorf("%w: entry %d breaks the chain", ErrTampered, e.Seq)
		}
	}
	return nil
}

// Since returns entries appended at or after the session start, filtered by session when set.
func (l *Log) Since(sessionID string, fromSeq uint64) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var ret []Entry
	for _, e := range l.entries {
		if e.Seq < fromSeq {
			continue
		}
		if sessionID != "" && e.SessionID != sessionID {
			continue
		}
		ret = append(ret, e)
	}
	return ret
}
