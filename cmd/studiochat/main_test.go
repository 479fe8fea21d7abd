package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"studiochat/internal/config"
	"studiochat/internal/domain"
	"studiochat/internal/history"
)

// writeTestConfig saves a config pointing the cache at a temp database and
// returns the config path plus the resolved settings.
func writeTestConfig(t *testing.T) (string, *config.Config) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Defaults()
	cfg.Cache.DBPath = filepath.Join(dir, "transcripts.db")
	cfg.Studio.PresetsDir = filepath.Join(dir, "presets")
	path := filepath.Join(dir, "config.json")
	if err := config.Save(path, cfg); err != nil {
		t.Fatalf("save config: %v", err)
	}
	return path, cfg
}

func seedTranscript(t *testing.T, dbPath, studioType, topicID string) {
	t.Helper()
	store, err := history.NewStore(dbPath, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()
	msgs := []domain.ChatMessage{
		{ID: "m1", Role: domain.RoleUser, Content: "make a flyer"},
		{ID: "m2", Role: domain.RoleAssistant, Content: "Here is a draft."},
	}
	if err := store.SaveTranscript(context.Background(), studioType, topicID, "t1", msgs); err != nil {
		t.Fatalf("seed transcript: %v", err)
	}
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestHistoryShow_PrintsCachedTranscript(t *testing.T) {
	cfgPath, cfg := writeTestConfig(t)
	seedTranscript(t, cfg.Cache.DBPath, "flyer", "topic-1")

	out, err := runCommand(t, "--config", cfgPath, "history", "show", "flyer", "topic-1")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}
	if !strings.Contains(out, "thread t1") {
		t.Fatalf("output missing thread line: %q", out)
	}
	if !strings.Contains(out, "user: make a flyer") || !strings.Contains(out, "assistant: Here is a draft.") {
		t.Fatalf("output missing transcript lines: %q", out)
	}
}

func TestHistoryShow_UnknownTopic(t *testing.T) {
	cfgPath, _ := writeTestConfig(t)

	out, err := runCommand(t, "--config", cfgPath, "history", "show", "flyer", "missing")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}
	if !strings.Contains(out, "no cached transcript") {
		t.Fatalf("output = %q", out)
	}
}

func TestHistoryRm_DeletesTranscript(t *testing.T) {
	cfgPath, cfg := writeTestConfig(t)
	seedTranscript(t, cfg.Cache.DBPath, "flyer", "topic-1")

	if _, err := runCommand(t, "--config", cfgPath, "history", "rm", "flyer", "topic-1"); err != nil {
		t.Fatalf("command failed: %v", err)
	}

	store, err := history.NewStore(cfg.Cache.DBPath, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()
	threadID, msgs, err := store.GetTranscript(context.Background(), "flyer", "topic-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if threadID != "" || len(msgs) != 0 {
		t.Fatal("transcript should be gone")
	}
}

func TestChat_RejectsUnsupportedAttachment(t *testing.T) {
	cfgPath, _ := writeTestConfig(t)

	// flyer only accepts images; a pdf must be rejected before any turn opens
	_, err := runCommand(t, "--config", cfgPath, "chat", "-s", "flyer", "-t", "topic-1",
		"--attach", "https://cdn.example.com/brief.pdf")
	if err == nil {
		t.Fatal("expected rejection")
	}
	if !strings.Contains(err.Error(), "does not accept") {
		t.Fatalf("err = %v", err)
	}
}

func TestAttachmentFromRef_TypeInference(t *testing.T) {
	cases := []struct {
		ref  string
		typ  domain.AttachmentType
		name string
	}{
		{"https://cdn.example.com/assets/logo.PNG", domain.AttachmentImage, "logo.PNG"},
		{"https://cdn.example.com/clip.mp4?v=2", domain.AttachmentVideo, "clip.mp4"},
		{"https://cdn.example.com/brief.pdf", domain.AttachmentFile, "brief.pdf"},
	}
	for _, tc := range cases {
		att := attachmentFromRef(tc.ref)
		if att.Type != tc.typ {
			t.Fatalf("%s: type = %q, want %q", tc.ref, att.Type, tc.typ)
		}
		if att.Name != tc.name {
			t.Fatalf("%s: name = %q, want %q", tc.ref, att.Name, tc.name)
		}
		if att.URL != tc.ref {
			t.Fatalf("%s: url = %q", tc.ref, att.URL)
		}
	}
}
