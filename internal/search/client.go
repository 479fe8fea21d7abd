// Package search resolves mention tokens against the backend content index.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"studiochat/internal/domain"
)

const searchPath = "/api/search"

// Client implements domain.SearchService over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type searchResponse struct {
	Results []domain.Mention `json:"results"`
}

func (c *Client) Search(ctx context.Context, query string, limit int) ([]domain.Mention, error) {
	if limit <= 0 {
		limit = 10
	}
	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+searchPath+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search: backend returned %s", resp.Status)
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decode search results: %w", err)
	}
	return sr.Results, nil
}

// Resolve extracts mention tokens from free text and resolves each against
// the index, requesting up to limit candidates per token and keeping the
// first match. Unresolvable tokens are dropped with a warning; a missing
// mention should not block the send.
func Resolve(ctx context.Context, svc domain.SearchService, text string, limit int, logger *slog.Logger) []domain.Mention {
	var mentions []domain.Mention
	for _, token := range ExtractTokens(text) {
		results, err := svc.Search(ctx, token, limit)
		if err != nil {
			logger.Warn("mention lookup failed", "token", token, "err", err)
			continue
		}
		if len(results) == 0 {
			logger.Debug("mention not found", "token", token)
			continue
		}
		mentions = append(mentions, results[0])
	}
	return mentions
}
