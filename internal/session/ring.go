package session

import "studiochat/internal/domain"

// toolLogCapacity bounds the diagnostic tool-event log. The log is telemetry,
// not authoritative state; oldest entries are dropped silently.
const toolLogCapacity = 20

// toolRing is a fixed-capacity FIFO of tool events.
type toolRing struct {
	entries []domain.ToolEvent
}

func (r *toolRing) push(ev domain.ToolEvent) {
	r.entries = append(r.entries, ev)
	if len(r.entries) > toolLogCapacity {
		r.entries = r.entries[len(r.entries)-toolLogCapacity:]
	}
}

func (r *toolRing) snapshot() []domain.ToolEvent {
	out := make([]domain.ToolEvent, len(r.entries))
	copy(out, r.entries)
	return out
}
