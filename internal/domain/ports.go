package domain

import "context"

// SendRequest opens one generation turn against the studio backend.
type SendRequest struct {
	StudioType  string       `json:"studio_type"`
	TopicID     string       `json:"topic_id"`
	Message     string       `json:"message"`
	ThreadID    string       `json:"thread_id,omitempty"`
	Attachments []Attachment `json:"attachments"`
	Mentions    []Mention    `json:"mentions"`
}

// ThreadRef identifies a thread for advisory cleanup. ThreadID may be empty
// when no thread was ever assigned; the (StudioType, TopicID) pair then
// identifies the context instead.
type ThreadRef struct {
	ThreadID   string `json:"thread_id,omitempty"`
	StudioType string `json:"studio_type,omitempty"`
	TopicID    string `json:"topic_id,omitempty"`
}

// HistoryItem is one persisted transcript entry as stored by the server.
// PayloadJSON is role-shaped and normalized by the session layer.
type HistoryItem struct {
	Role        string `json:"role"`
	PayloadJSON string `json:"payload_json"`
}

// HistorySnapshot is the server's persisted view of one topic's conversation.
type HistorySnapshot struct {
	ThreadID string        `json:"thread_id,omitempty"`
	Items    []HistoryItem `json:"items"`
}

// Transport is the studio backend boundary. OpenStream yields events in
// delivery order and closes the channel when the turn terminates; a fatal
// stream failure is delivered as a final error event before close. The
// remaining calls are single round trips.
type Transport interface {
	OpenStream(ctx context.Context, req SendRequest) (<-chan StreamEvent, error)
	Answer(ctx context.Context, threadID, interactionID string, ans Answer) error
	CloseThread(ctx context.Context, ref ThreadRef) error
	FetchHistory(ctx context.Context, studioType, topicID string) (*HistorySnapshot, error)
}

// SearchService resolves mention tokens against the content index.
type SearchService interface {
	Search(ctx context.Context, query string, limit int) ([]Mention, error)
}

// Uploader stores a local file and returns the attachment reference to send.
// Implemented by an external collaborator; the session engine only consumes
// the resulting references.
type Uploader interface {
	Upload(ctx context.Context, path string) (Attachment, error)
}
