// Package transport implements domain.Transport against the studio backend:
// a WebSocket stream for generation turns and plain HTTP JSON for the
// answer, close, history, and health calls.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"studiochat/internal/domain"
)

const (
	streamPath  = "/api/studio/stream"
	answerPath  = "/api/studio/interactions/answer"
	closePath   = "/api/studio/threads/close"
	historyPath = "/api/studio/history"
	healthPath  = "/api/health"

	streamBuffer = 64
)

// Client talks to one studio backend.
type Client struct {
	baseURL string
	http    *http.Client
	dialer  *websocket.Dialer
	logger  *slog.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    newHTTPClient(timeout),
		dialer: &websocket.Dialer{
			HandshakeTimeout: 15 * time.Second,
			ReadBufferSize:   4096,
			WriteBufferSize:  4096,
		},
		logger: logger,
	}
}

// OpenStream dials the stream endpoint, sends the turn request as the first
// frame, and yields decoded events until the server closes the connection.
// The returned channel is closed when the turn terminates; an abnormal
// closure is delivered as a final error event first. Cancelling ctx closes
// the connection, which terminates the stream.
func (c *Client) OpenStream(ctx context.Context, req domain.SendRequest) (<-chan domain.StreamEvent, error) {
	conn, _, err := c.dialer.DialContext(ctx, c.streamURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial stream: %w", err)
	}
	if err := conn.WriteJSON(req); err != nil {
		conn.Close()
		return nil, fmt.Errorf("send turn request: %w", err)
	}

	events := make(chan domain.StreamEvent, streamBuffer)
	done := make(chan struct{})

	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	go func() {
		defer close(events)
		defer close(done)
		defer conn.Close()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() == nil && websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					events <- domain.StreamEvent{Type: domain.EventError, Message: fmt.Sprintf("stream closed: %v", err)}
				}
				return
			}
			var evt domain.StreamEvent
			if err := json.Unmarshal(data, &evt); err != nil {
				c.logger.Warn("undecodable stream frame skipped", "err", err)
				continue
			}
			events <- evt
		}
	}()

	return events, nil
}

func (c *Client) streamURL() string {
	u := c.baseURL + streamPath
	switch {
	case strings.HasPrefix(u, "https://"):
		return "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		return "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u
}

type answerRequest struct {
	ThreadID      string        `json:"thread_id"`
	InteractionID string        `json:"interaction_id"`
	Answer        domain.Answer `json:"answer"`
}

func (c *Client) Answer(ctx context.Context, threadID, interactionID string, ans domain.Answer) error {
	return c.postJSON(ctx, answerPath, answerRequest{
		ThreadID:      threadID,
		InteractionID: interactionID,
		Answer:        ans,
	})
}

func (c *Client) CloseThread(ctx context.Context, ref domain.ThreadRef) error {
	return c.postJSON(ctx, closePath, ref)
}

// historyResponse mirrors the server wire shape: thread is null when the
// topic has no conversation yet.
type historyResponse struct {
	Thread *struct {
		ID string `json:"id"`
	} `json:"thread"`
	Messages []domain.HistoryItem `json:"messages"`
}

func (c *Client) FetchHistory(ctx context.Context, studioType, topicID string) (*domain.HistorySnapshot, error) {
	q := url.Values{}
	q.Set("studio_type", studioType)
	q.Set("topic_id", topicID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+historyPath+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch history: backend returned %s", resp.Status)
	}

	var hr historyResponse
	if err := json.NewDecoder(resp.Body).Decode(&hr); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	snap := &domain.HistorySnapshot{Items: hr.Messages}
	if hr.Thread != nil {
		snap.ThreadID = hr.Thread.ID
	}
	return snap, nil
}

// Health pings the backend, for the status command.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+healthPath, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("backend unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("backend unhealthy: %s", resp.Status)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("backend returned %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}
	return nil
}
