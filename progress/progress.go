package progress

import (
	"context"
	"sync"
	"time"

	"github.com/viant/toolgate/internal/clock"
)

// Delta is a signed counter change.
type Delta struct {
	Total     int
	Completed int
	Skipped   int
	Failed    int
	Running   int
}

// Snapshot is a read-only copy of the counters.
type Snapshot struct {
	SessionID string    `json:"sessionId"`
	StartedAt time.Time `json:"startedAt"`
	Total     int       `json:"total"`
	Completed int       `json:"completed"`
	Skipped   int       `json:"skipped"`
	Failed    int       `json:"failed"`
	Running   int       `json:"running"`
}

// Done reports whether every command has finished, failed or been skipped.
func (s Snapshot) Done() bool {
	return s.Total > 0 && s.Running == 0 && s.Completed+s.Failed+s.Skipped >= s.Total
}

// Progress aggregates counters for one session. It is safe for concurrent use.
type Progress struct {
	mu       sync.Mutex
	state    Snapshot
	onChange func(Snapshot)
}

// New creates a tracker for sessionID.
func New(sessionID string, onChange func(Snapshot)) *Progress {
	return &Progress{state: Snapshot{SessionID: sessionID, StartedAt: clock.Now()}, onChange: onChange}
}

// Update applies d and calls the change callback outside the lock.
func (p *Progress) Update(d Delta) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.state.Total += d.Total
	p.state.Completed += d.Completed
	p.state.Skipped += d.Skipped
	p.state.Failed += d.Failed
	p.state.Running += d.Running
	snapshot := p.state
	cb := p.onChange
	p.mu.Unlock()
	if cb != nil {
		cb(snapshot)
	}
}

// Snapshot returns a copy of the counters.
func (p *Progress) Snapshot() Snapshot {
	if p == nil {
		return Snapshot{}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// OnChange replaces the change callback; nil disables it.
func (p *Progress) OnChange(cb func(Snapshot)) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.onChange = cb
	p.mu.Unlock()
}

type trackerKeyT struct{}

var trackerKey trackerKeyT

// WithTracker embeds p in a derived context.
func WithTracker(ctx context.Context, p *Progress) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, trackerKey, p)
}

// FromContext extracts the tracker from ctx.
func FromContext(ctx context.Context) (*Progress, bool) {
	if ctx == nil {
		return nil, false
	}
	p, ok := ctx.Value(trackerKey).(*Progress)
	return p, ok
}

// UpdateCtx applies d to the tracker carried by ctx, if any.
func UpdateCtx(ctx context.Context, d Delta) {
	if p, ok := FromContext(ctx); ok {
		p.Update(d)
	}
}
