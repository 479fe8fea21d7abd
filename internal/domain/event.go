package domain

// EventType classifies an event on the generation stream.
type EventType string

const (
	EventThread         EventType = "thread"
	EventTextDelta      EventType = "text_delta"
	EventAskUser        EventType = "ask_user"
	EventAskUserTimeout EventType = "ask_user_timeout"
	EventAskUserResult  EventType = "ask_user_result"
	EventToolStarted    EventType = "tool_started"
	EventToolCompleted  EventType = "tool_completed"
	EventToolFailed     EventType = "tool_failed"
	EventResponseEnd    EventType = "response_end"
	EventError          EventType = "error"
)

// StreamEvent is a single event yielded by the generation stream. Fields
// beyond Type are populated per event type; absent fields stay zero.
type StreamEvent struct {
	Type EventType `json:"type"`

	// thread (MessageID, when present, is the server-confirmed id of the
	// turn's optimistic user message)
	ThreadID  string `json:"thread_id,omitempty"`
	MessageID string `json:"message_id,omitempty"`

	// text_delta
	Delta string `json:"delta,omitempty"`

	// ask_user (Header/Question/Options are the legacy single-question shape,
	// kept for servers that predate multi-question interactions)
	InteractionID string     `json:"interaction_id,omitempty"`
	Header        string     `json:"header,omitempty"`
	Question      string     `json:"question,omitempty"`
	Options       []Option   `json:"options,omitempty"`
	Questions     []Question `json:"questions,omitempty"`

	// tool_started / tool_completed / tool_failed
	ToolName   string `json:"tool_name,omitempty"`
	ToolCallID string `json:"tool_call_id,omitempty"`

	// error
	Message string `json:"message,omitempty"`
}

// ToolEvent is one diagnostic entry in the bounded tool telemetry log.
type ToolEvent struct {
	Type       EventType `json:"type"`
	ToolName   string    `json:"tool_name,omitempty"`
	ToolCallID string    `json:"tool_call_id,omitempty"`
}
