package session

import (
	"encoding/json"

	"github.com/google/uuid"

	"studiochat/internal/domain"
)

// Persisted payload shapes. User items carry plain content plus references;
// assistant items carry an ordered block list mixing text and tool use.
type userPayload struct {
	Content     string              `json:"content"`
	Attachments []domain.Attachment `json:"attachments,omitempty"`
	Mentions    []domain.Mention    `json:"mentions,omitempty"`
}

type assistantPayload struct {
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// normalizeHistory rebuilds the transcript from persisted items. Assistant
// items concatenate their text blocks in array order and are dropped entirely
// when that concatenation is empty, so tool-only turns leave no empty bubble.
// Items that fail to parse are skipped rather than failing the whole load.
func normalizeHistory(items []domain.HistoryItem) []domain.ChatMessage {
	var msgs []domain.ChatMessage
	for _, item := range items {
		switch item.Role {
		case "user_input", "user":
			var p userPayload
			if err := json.Unmarshal([]byte(item.PayloadJSON), &p); err != nil {
				continue
			}
			msgs = append(msgs, domain.ChatMessage{
				ID:          uuid.NewString(),
				Role:        domain.RoleUser,
				Content:     p.Content,
				Attachments: p.Attachments,
				Mentions:    p.Mentions,
			})
		case "assistant":
			var p assistantPayload
			if err := json.Unmarshal([]byte(item.PayloadJSON), &p); err != nil {
				continue
			}
			var content string
			for _, b := range p.Content {
				if b.Type == "text" {
					content += b.Text
				}
			}
			if content == "" {
				continue
			}
			msgs = append(msgs, domain.ChatMessage{
				ID:      uuid.NewString(),
				Role:    domain.RoleAssistant,
				Content: content,
			})
		}
	}
	return msgs
}
