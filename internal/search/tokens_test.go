package search

import (
	"reflect"
	"testing"
)

func TestExtractTokens_PathMentions(t *testing.T) {
	tokens := ExtractTokens("use @assets/logo.png and @brand/colors.yaml here")
	want := []string{"assets/logo.png", "brand/colors.yaml"}
	if !reflect.DeepEqual(tokens, want) {
		t.Fatalf("tokens = %v, want %v", tokens, want)
	}
}

func TestExtractTokens_ContentRefs(t *testing.T) {
	tokens := ExtractTokens("reuse topic:summer-24 and gallery:g_12 please")
	want := []string{"topic:summer-24", "gallery:g_12"}
	if !reflect.DeepEqual(tokens, want) {
		t.Fatalf("tokens = %v, want %v", tokens, want)
	}
}

func TestExtractTokens_Deduplicates(t *testing.T) {
	tokens := ExtractTokens("@logo.png again @logo.png")
	if len(tokens) != 1 {
		t.Fatalf("tokens = %v, want one entry", tokens)
	}
}

func TestExtractTokens_PlainText(t *testing.T) {
	if tokens := ExtractTokens("make it pop"); len(tokens) != 0 {
		t.Fatalf("expected no tokens, got %v", tokens)
	}
}

func TestExtractTokens_UnknownRefTypeIgnored(t *testing.T) {
	if tokens := ExtractTokens("see ticket:123"); len(tokens) != 0 {
		t.Fatalf("unknown reference types must be ignored, got %v", tokens)
	}
}
