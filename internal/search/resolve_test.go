package search

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"studiochat/internal/domain"
)

type fakeSearchService struct {
	results map[string][]domain.Mention
	err     error

	queries []string
	limits  []int
}

func (f *fakeSearchService) Search(ctx context.Context, query string, limit int) ([]domain.Mention, error) {
	f.queries = append(f.queries, query)
	f.limits = append(f.limits, limit)
	if f.err != nil {
		return nil, f.err
	}
	return f.results[query], nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestResolve_PassesConfiguredLimit(t *testing.T) {
	svc := &fakeSearchService{results: map[string][]domain.Mention{
		"assets/logo.png": {{Path: "/files/assets/logo.png"}},
	}}

	mentions := Resolve(context.Background(), svc, "use @assets/logo.png", 5, discardLogger())

	if len(svc.limits) != 1 || svc.limits[0] != 5 {
		t.Fatalf("limits = %v, want [5]", svc.limits)
	}
	if len(mentions) != 1 || mentions[0].Path != "/files/assets/logo.png" {
		t.Fatalf("mentions = %+v", mentions)
	}
}

func TestResolve_KeepsFirstCandidate(t *testing.T) {
	svc := &fakeSearchService{results: map[string][]domain.Mention{
		"topic:summer": {{Path: "/topics/summer"}, {Path: "/topics/summer-archive"}},
	}}

	mentions := Resolve(context.Background(), svc, "see topic:summer", 3, discardLogger())
	if len(mentions) != 1 || mentions[0].Path != "/topics/summer" {
		t.Fatalf("mentions = %+v, want first candidate only", mentions)
	}
}

func TestResolve_DropsFailedTokens(t *testing.T) {
	svc := &fakeSearchService{err: errors.New("index down")}
	mentions := Resolve(context.Background(), svc, "@missing.png", 3, discardLogger())
	if mentions != nil {
		t.Fatalf("mentions = %+v, want none", mentions)
	}
	if len(svc.queries) != 1 {
		t.Fatalf("queries = %v, want one attempt", svc.queries)
	}
}
