// Package metrics provides a lightweight in-process counter set for the
// session engine: turns, dispatched events, tool telemetry, failures.
// Counters are cheap enough to leave always-on; a nil *Recorder is a no-op.
package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"studiochat/internal/domain"
)

type Recorder struct {
	startTime time.Time

	turnsStarted   atomic.Int64
	turnsCompleted atomic.Int64
	turnsFailed    atomic.Int64
	answerFailures atomic.Int64
	historyLoads   atomic.Int64
	staleDropped   atomic.Int64

	mu     sync.Mutex
	events map[domain.EventType]int64
}

func NewRecorder() *Recorder {
	return &Recorder{
		startTime: time.Now(),
		events:    make(map[domain.EventType]int64),
	}
}

func (r *Recorder) TurnStarted() {
	if r == nil {
		return
	}
	r.turnsStarted.Add(1)
}

func (r *Recorder) TurnCompleted() {
	if r == nil {
		return
	}
	r.turnsCompleted.Add(1)
}

func (r *Recorder) TurnFailed() {
	if r == nil {
		return
	}
	r.turnsFailed.Add(1)
}

func (r *Recorder) AnswerFailed() {
	if r == nil {
		return
	}
	r.answerFailures.Add(1)
}

func (r *Recorder) HistoryLoaded() {
	if r == nil {
		return
	}
	r.historyLoads.Add(1)
}

// StaleEventDropped counts events discarded by the post-reset staleness guard.
func (r *Recorder) StaleEventDropped() {
	if r == nil {
		return
	}
	r.staleDropped.Add(1)
}

func (r *Recorder) EventDispatched(t domain.EventType) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.events[t]++
	r.mu.Unlock()
}

// Snapshot is a point-in-time copy of all counters for display.
type Snapshot struct {
	Uptime         time.Duration
	TurnsStarted   int64
	TurnsCompleted int64
	TurnsFailed    int64
	AnswerFailures int64
	HistoryLoads   int64
	StaleDropped   int64
	Events         []EventCount
}

type EventCount struct {
	Type  domain.EventType
	Count int64
}

func (r *Recorder) Snapshot() Snapshot {
	if r == nil {
		return Snapshot{}
	}
	snap := Snapshot{
		Uptime:         time.Since(r.startTime),
		TurnsStarted:   r.turnsStarted.Load(),
		TurnsCompleted: r.turnsCompleted.Load(),
		TurnsFailed:    r.turnsFailed.Load(),
		AnswerFailures: r.answerFailures.Load(),
		HistoryLoads:   r.historyLoads.Load(),
		StaleDropped:   r.staleDropped.Load(),
	}
	r.mu.Lock()
	for t, n := range r.events {
		snap.Events = append(snap.Events, EventCount{Type: t, Count: n})
	}
	r.mu.Unlock()
	sort.Slice(snap.Events, func(i, j int) bool { return snap.Events[i].Type < snap.Events[j].Type })
	return snap
}
