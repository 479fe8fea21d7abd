package domain

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

type AttachmentType string

const (
	AttachmentImage AttachmentType = "image"
	AttachmentVideo AttachmentType = "video"
	AttachmentFile  AttachmentType = "file"
)

// Attachment references an already-uploaded media asset. The session engine
// never mutates attachment content, it only carries the reference.
type Attachment struct {
	Type     AttachmentType `json:"type"`
	URL      string         `json:"url"`
	Name     string         `json:"name,omitempty"`
	MimeType string         `json:"mime_type,omitempty"`
}

// Mention is a resolved reference token extracted from free text before send:
// a workspace file path or a "type:id" content reference.
type Mention struct {
	Path string `json:"path"`
}

// ChatMessage is one entry in a session transcript. Non-assistant messages
// are immutable once appended; the single in-progress assistant message of a
// turn is the only mutable entry and freezes when the turn ends.
//
// LocalID is the client-generated correlation id. It is assigned at creation
// and never changes; ID starts equal to LocalID and is rewritten in place
// when the server confirms its own identifier.
type ChatMessage struct {
	ID          string       `json:"id"`
	LocalID     string       `json:"local_id,omitempty"`
	Role        Role         `json:"role"`
	Content     string       `json:"content"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Mentions    []Mention    `json:"mentions,omitempty"`
}
