package session

import (
	"github.com/google/uuid"

	"studiochat/internal/domain"
)

// state is the event-visible part of a session. applyEvent is the event
// dispatcher: a pure transition function with no I/O, applied strictly in
// stream-delivery order by the owning controller.
type state struct {
	threadID string
	messages []domain.ChatMessage
	toolLog  toolRing
	pending  *domain.Interaction
	lastErr  string

	// openIdx points at the in-progress assistant message, -1 when none.
	// The open message is tracked by pointer, never found by searching the
	// list, so two assistant messages can never be confused.
	openIdx int

	// draftLocalID is the correlation id of the turn's optimistic user
	// message, awaiting the server-confirmed id.
	draftLocalID string
}

func newState() state {
	return state{openIdx: -1}
}

// applyEvent maps one stream event to its state transition. It never fails:
// malformed fields are coerced to safe defaults and unknown event types are
// ignored, so server-side schema drift cannot crash the client.
func (s *state) applyEvent(evt domain.StreamEvent) {
	switch evt.Type {
	case domain.EventThread:
		if s.threadID == "" {
			s.threadID = evt.ThreadID
		}
		if evt.MessageID != "" {
			s.adoptMessageID(evt.MessageID)
		}

	case domain.EventTextDelta:
		if s.openIdx < 0 {
			id := uuid.NewString()
			s.messages = append(s.messages, domain.ChatMessage{
				ID:      id,
				LocalID: id,
				Role:    domain.RoleAssistant,
				Content: evt.Delta,
			})
			s.openIdx = len(s.messages) - 1
		} else {
			s.messages[s.openIdx].Content += evt.Delta
		}

	case domain.EventAskUser:
		s.pending = buildInteraction(evt)

	case domain.EventAskUserTimeout:
		if s.pending != nil {
			s.pending.Expired = true
		}

	case domain.EventAskUserResult:
		s.pending = nil

	case domain.EventResponseEnd:
		s.openIdx = -1

	case domain.EventToolStarted, domain.EventToolCompleted, domain.EventToolFailed:
		s.toolLog.push(domain.ToolEvent{
			Type:       evt.Type,
			ToolName:   evt.ToolName,
			ToolCallID: evt.ToolCallID,
		})

	case domain.EventError:
		msg := evt.Message
		if msg == "" {
			msg = "stream error"
		}
		s.lastErr = msg
	}
}

// adoptMessageID rewrites the optimistic user message's id in place once the
// server confirms its own. The entry is matched by correlation id, never by
// position; indices shift under concurrent edits.
func (s *state) adoptMessageID(serverID string) {
	if s.draftLocalID == "" {
		return
	}
	for i := range s.messages {
		if s.messages[i].LocalID == s.draftLocalID {
			s.messages[i].ID = serverID
			break
		}
	}
	s.draftLocalID = ""
}

// buildInteraction constructs the pending interaction from an ask_user event.
// Servers that predate multi-question interactions send a bare
// header/question/options triple; those are wrapped into a single-question
// list so the rest of the engine sees one shape.
func buildInteraction(evt domain.StreamEvent) *domain.Interaction {
	it := &domain.Interaction{
		InteractionID: evt.InteractionID,
		Header:        evt.Header,
		Question:      evt.Question,
		Options:       evt.Options,
		Questions:     evt.Questions,
	}
	if it.InteractionID == "" {
		it.InteractionID = uuid.NewString()
	}
	if len(it.Questions) == 0 {
		it.Questions = []domain.Question{{
			Header:   evt.Header,
			Question: evt.Question,
			Options:  evt.Options,
		}}
	}
	for qi := range it.Questions {
		q := &it.Questions[qi]
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		for oi := range q.Options {
			if q.Options[oi].ID == "" {
				q.Options[oi].ID = uuid.NewString()
			}
		}
	}
	return it
}
