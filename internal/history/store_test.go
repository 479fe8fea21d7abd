package history

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"studiochat/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "transcripts.db"), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleTranscript() []domain.ChatMessage {
	return []domain.ChatMessage{
		{ID: "m1", Role: domain.RoleUser, Content: "make a flyer", Attachments: []domain.Attachment{
			{Type: domain.AttachmentImage, URL: "https://cdn/x.png", Name: "x.png"},
		}},
		{ID: "m2", Role: domain.RoleAssistant, Content: "Here is a draft."},
	}
}

func TestSaveAndGetTranscript(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.SaveTranscript(ctx, "flyer", "topic-1", "t1", sampleTranscript()); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	threadID, msgs, err := store.GetTranscript(ctx, "flyer", "topic-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if threadID != "t1" {
		t.Fatalf("threadID = %q", threadID)
	}
	if len(msgs) != 2 {
		t.Fatalf("messages = %d, want 2", len(msgs))
	}
	if msgs[0].Role != domain.RoleUser || msgs[0].Content != "make a flyer" {
		t.Fatalf("first message = %+v", msgs[0])
	}
	if len(msgs[0].Attachments) != 1 || msgs[0].Attachments[0].Name != "x.png" {
		t.Fatalf("attachments did not round-trip: %+v", msgs[0].Attachments)
	}
}

func TestSaveTranscript_ReplacesPrevious(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.SaveTranscript(ctx, "flyer", "topic-1", "t1", sampleTranscript()); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	shorter := []domain.ChatMessage{{ID: "m3", Role: domain.RoleUser, Content: "start over"}}
	if err := store.SaveTranscript(ctx, "flyer", "topic-1", "t2", shorter); err != nil {
		t.Fatalf("second save failed: %v", err)
	}

	threadID, msgs, err := store.GetTranscript(ctx, "flyer", "topic-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if threadID != "t2" || len(msgs) != 1 || msgs[0].Content != "start over" {
		t.Fatalf("transcript not replaced: thread=%q msgs=%+v", threadID, msgs)
	}
}

func TestGetTranscript_UnknownTopic(t *testing.T) {
	store := newTestStore(t)
	threadID, msgs, err := store.GetTranscript(context.Background(), "flyer", "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if threadID != "" || msgs != nil {
		t.Fatalf("expected empty result, got %q / %+v", threadID, msgs)
	}
}

func TestListTopics(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.SaveTranscript(ctx, "flyer", "topic-1", "t1", sampleTranscript()); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveTranscript(ctx, "image", "topic-2", "t2", sampleTranscript()[:1]); err != nil {
		t.Fatal(err)
	}

	topics, err := store.ListTopics(ctx, 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(topics) != 2 {
		t.Fatalf("topics = %d, want 2", len(topics))
	}
	for _, ti := range topics {
		if ti.TopicID == "topic-1" && ti.Messages != 2 {
			t.Fatalf("topic-1 message count = %d, want 2", ti.Messages)
		}
	}
}

func TestDeleteTranscript(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.SaveTranscript(ctx, "flyer", "topic-1", "t1", sampleTranscript()); err != nil {
		t.Fatal(err)
	}
	if err := store.DeleteTranscript(ctx, "flyer", "topic-1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	threadID, msgs, err := store.GetTranscript(ctx, "flyer", "topic-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if threadID != "" || len(msgs) != 0 {
		t.Fatal("transcript should be gone")
	}
}
