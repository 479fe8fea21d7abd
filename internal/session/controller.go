// Package session implements the client-side engine for one conversational
// studio-agent session: the controller that owns thread identity and the
// message list, the event dispatcher that folds the generation stream into
// state, and the bounded tool telemetry log.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"studiochat/internal/domain"
	"studiochat/internal/metrics"
)

// Controller drives conversational turns for one (studioType, topicID) pair.
// One Controller is constructed per context and passed by reference to
// consumers; there is no ambient registry.
//
// All event application is serialized: SendMessage consumes its stream in a
// single loop and every state write goes through the controller mutex, so two
// events are never applied concurrently even when the transport does parallel
// I/O. A generation counter, bumped by Reset and LoadHistory, lets writes
// from a superseded stream be detected and discarded.
type Controller struct {
	transport domain.Transport
	logger    *slog.Logger
	metrics   *metrics.Recorder

	mu         sync.Mutex
	studioType string
	topicID    string
	st         state
	streaming  bool
	answering  bool
	generation uint64

	obsMu     sync.Mutex
	observers map[int]func()
	nextObs   int
}

// Config holds the controller's dependencies.
type Config struct {
	StudioType string
	TopicID    string
	Transport  domain.Transport
	Logger     *slog.Logger
	Metrics    *metrics.Recorder // optional
}

func New(cfg Config) *Controller {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Controller{
		transport:  cfg.Transport,
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
		studioType: cfg.StudioType,
		topicID:    cfg.TopicID,
		st:         newState(),
		observers:  make(map[int]func()),
	}
}

// Snapshot is a consistent copy of the session for rendering. Slices are
// copied; mutating a snapshot never touches controller state.
type Snapshot struct {
	StudioType         string
	TopicID            string
	ThreadID           string
	Messages           []domain.ChatMessage
	ToolEvents         []domain.ToolEvent
	PendingInteraction *domain.Interaction
	Streaming          bool
	Answering          bool
	Err                string
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := Snapshot{
		StudioType: c.studioType,
		TopicID:    c.topicID,
		ThreadID:   c.st.threadID,
		Messages:   make([]domain.ChatMessage, len(c.st.messages)),
		ToolEvents: c.st.toolLog.snapshot(),
		Streaming:  c.streaming,
		Answering:  c.answering,
		Err:        c.st.lastErr,
	}
	copy(snap.Messages, c.st.messages)
	if c.st.pending != nil {
		it := *c.st.pending
		snap.PendingInteraction = &it
	}
	return snap
}

// Subscribe registers an observer invoked after every state change. The
// returned func removes the observer; calling it twice is harmless.
func (c *Controller) Subscribe(fn func()) (remove func()) {
	c.obsMu.Lock()
	id := c.nextObs
	c.nextObs++
	c.observers[id] = fn
	c.obsMu.Unlock()
	return func() {
		c.obsMu.Lock()
		delete(c.observers, id)
		c.obsMu.Unlock()
	}
}

// notify runs observers outside the state lock so they can call Snapshot.
func (c *Controller) notify() {
	c.obsMu.Lock()
	fns := make([]func(), 0, len(c.observers))
	for _, fn := range c.observers {
		fns = append(fns, fn)
	}
	c.obsMu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// SendOptions carries the non-text parts of an outgoing message.
type SendOptions struct {
	Attachments []domain.Attachment
	Mentions    []domain.Mention
}

// SendMessage runs one full turn: append the user message, open the stream,
// fold every event into state, and return when the stream terminates.
//
// Calls with no topic target, with a turn already streaming, or with neither
// text nor attachments are silent no-ops: they indicate a UI/timing race, not
// a fault. A transport failure surfaces through the session error and the
// returned error; the already-appended user message is kept.
func (c *Controller) SendMessage(ctx context.Context, text string, opts SendOptions) error {
	trimmed := strings.TrimSpace(text)

	c.mu.Lock()
	if c.topicID == "" || c.streaming {
		c.mu.Unlock()
		return nil
	}
	if trimmed == "" && len(opts.Attachments) == 0 {
		c.mu.Unlock()
		return nil
	}

	c.st.lastErr = ""
	c.st.pending = nil
	c.answering = false

	localID := uuid.NewString()
	c.st.messages = append(c.st.messages, domain.ChatMessage{
		ID:          localID,
		LocalID:     localID,
		Role:        domain.RoleUser,
		Content:     trimmed,
		Attachments: opts.Attachments,
		Mentions:    opts.Mentions,
	})
	c.st.draftLocalID = localID
	c.streaming = true
	gen := c.generation
	req := domain.SendRequest{
		StudioType:  c.studioType,
		TopicID:     c.topicID,
		Message:     trimmed,
		ThreadID:    c.st.threadID,
		Attachments: opts.Attachments,
		Mentions:    opts.Mentions,
	}
	c.mu.Unlock()
	c.notify()

	c.metrics.TurnStarted()
	c.logger.Debug("turn started", "studio", req.StudioType, "topic", req.TopicID, "thread", req.ThreadID)

	// The streaming flag must clear on every exit path, including panics in
	// event observers, so the session can never get stuck streaming.
	var sendErr error
	defer func() {
		c.mu.Lock()
		if c.generation == gen {
			c.streaming = false
		}
		c.mu.Unlock()
		c.notify()
		if sendErr != nil {
			c.metrics.TurnFailed()
		} else {
			c.metrics.TurnCompleted()
		}
	}()

	events, err := c.transport.OpenStream(ctx, req)
	if err != nil {
		c.setError(gen, fmt.Sprintf("stream failed: %v", err))
		sendErr = fmt.Errorf("open stream: %w", err)
		return sendErr
	}

	for evt := range events {
		c.apply(gen, evt)
	}
	return nil
}

// apply folds one event into state unless the stream has been superseded.
func (c *Controller) apply(gen uint64, evt domain.StreamEvent) {
	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		c.metrics.StaleEventDropped()
		c.logger.Debug("stale stream event discarded", "type", evt.Type)
		return
	}
	c.st.applyEvent(evt)
	c.mu.Unlock()
	c.metrics.EventDispatched(evt.Type)
	c.notify()
}

func (c *Controller) setError(gen uint64, msg string) {
	c.mu.Lock()
	if c.generation == gen {
		c.st.lastErr = msg
	}
	c.mu.Unlock()
	c.notify()
}

// AnswerInteraction submits a reply to the pending clarification request.
// Without a thread, a pending interaction, or with an answer already in
// flight it is a silent no-op. On failure the interaction is kept so the
// user can retry without losing question context.
func (c *Controller) AnswerInteraction(ctx context.Context, ans domain.Answer) error {
	c.mu.Lock()
	if c.st.threadID == "" || c.st.pending == nil || c.answering {
		c.mu.Unlock()
		return nil
	}
	c.answering = true
	threadID := c.st.threadID
	interactionID := c.st.pending.InteractionID
	gen := c.generation
	c.mu.Unlock()
	c.notify()

	err := c.transport.Answer(ctx, threadID, interactionID, ans)

	c.mu.Lock()
	if c.generation == gen {
		c.answering = false
		if err != nil {
			c.st.lastErr = fmt.Sprintf("answer failed: %v", err)
		} else {
			c.st.pending = nil
		}
	}
	c.mu.Unlock()
	c.notify()

	if err != nil {
		c.metrics.AnswerFailed()
		return fmt.Errorf("answer interaction %s: %w", interactionID, err)
	}
	return nil
}

// DismissInteraction drops the pending interaction unconditionally. Used when
// an expired interaction's content is folded into a normal SendMessage call
// instead of the structured channel.
func (c *Controller) DismissInteraction() {
	c.mu.Lock()
	c.st.pending = nil
	c.answering = false
	c.mu.Unlock()
	c.notify()
}

// Reset tears down all local state synchronously, then best-effort asks the
// server to forget the thread. After Reset the controller is equivalent to a
// freshly constructed one for the same context; events still in flight from
// the old stream are detected by generation and discarded.
func (c *Controller) Reset(ctx context.Context) {
	c.mu.Lock()
	c.generation++
	ref := domain.ThreadRef{
		ThreadID:   c.st.threadID,
		StudioType: c.studioType,
		TopicID:    c.topicID,
	}
	c.st = newState()
	c.streaming = false
	c.answering = false
	c.mu.Unlock()
	c.notify()

	// Advisory cleanup, not a durability guarantee.
	if err := c.transport.CloseThread(ctx, ref); err != nil {
		c.logger.Warn("thread close failed", "thread", ref.ThreadID, "err", err)
	}
}

// LoadHistory discards all local state and repopulates the transcript from
// the server for a (possibly new) topic context. A slower stale call can
// never overwrite the result of a newer one: each state write re-checks the
// generation taken at entry.
func (c *Controller) LoadHistory(ctx context.Context, studioType, topicID string) error {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.studioType = studioType
	c.topicID = topicID
	c.st = newState()
	c.streaming = false
	c.answering = false
	c.mu.Unlock()
	c.notify()

	snap, err := c.transport.FetchHistory(ctx, studioType, topicID)

	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		return nil
	}
	if err != nil {
		c.st.lastErr = fmt.Sprintf("history load failed: %v", err)
		c.mu.Unlock()
		c.notify()
		return fmt.Errorf("fetch history: %w", err)
	}
	c.st.threadID = snap.ThreadID
	c.st.messages = normalizeHistory(snap.Items)
	c.mu.Unlock()
	c.notify()

	c.metrics.HistoryLoaded()
	c.logger.Debug("history loaded", "studio", studioType, "topic", topicID, "messages", len(snap.Items))
	return nil
}
