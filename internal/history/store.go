// Package history caches session transcripts in a local SQLite database.
// The cache is a diagnostic mirror of server-confirmed turns, browsable
// offline via the history commands. The server copy stays authoritative.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"studiochat/internal/domain"
)

// Store is the local transcript cache.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewStore(dbPath string, logger *slog.Logger) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create cache directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cannot open cache: %w", err)
	}

	// Single connection for SQLite
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &Store{db: db, logger: logger}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache migration failed: %w", err)
	}
	return store, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS topics (
		studio_type TEXT NOT NULL,
		topic_id    TEXT NOT NULL,
		thread_id   TEXT,
		updated_at  DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (studio_type, topic_id)
	);

	CREATE TABLE IF NOT EXISTS transcript (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		studio_type TEXT NOT NULL,
		topic_id    TEXT NOT NULL,
		seq         INTEGER NOT NULL,
		message_id  TEXT,
		role        TEXT NOT NULL,
		content     TEXT,
		attachments TEXT,
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_transcript_topic ON transcript(studio_type, topic_id, seq);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveTranscript replaces a topic's cached transcript with the given
// messages. The whole transcript is rewritten in one transaction; a partial
// mirror is worse than a stale one.
func (s *Store) SaveTranscript(ctx context.Context, studioType, topicID, threadID string, msgs []domain.ChatMessage) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO topics (studio_type, topic_id, thread_id, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(studio_type, topic_id) DO UPDATE SET thread_id=excluded.thread_id, updated_at=excluded.updated_at`,
		studioType, topicID, threadID, now,
	); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM transcript WHERE studio_type = ? AND topic_id = ?`, studioType, topicID,
	); err != nil {
		return err
	}

	for seq, m := range msgs {
		var attachments string
		if len(m.Attachments) > 0 {
			if data, err := json.Marshal(m.Attachments); err == nil {
				attachments = string(data)
			}
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO transcript (studio_type, topic_id, seq, message_id, role, content, attachments, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			studioType, topicID, seq, m.ID, m.Role, m.Content, attachments, now,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetTranscript returns the cached transcript for a topic, oldest first.
func (s *Store) GetTranscript(ctx context.Context, studioType, topicID string) (string, []domain.ChatMessage, error) {
	var threadID sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT thread_id FROM topics WHERE studio_type = ? AND topic_id = ?`,
		studioType, topicID,
	).Scan(&threadID)
	if err == sql.ErrNoRows {
		return "", nil, nil
	}
	if err != nil {
		return "", nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT message_id, role, content, attachments FROM transcript
		 WHERE studio_type = ? AND topic_id = ? ORDER BY seq`, studioType, topicID,
	)
	if err != nil {
		return "", nil, err
	}
	defer rows.Close()

	var msgs []domain.ChatMessage
	for rows.Next() {
		var m domain.ChatMessage
		var msgID, content, attachments sql.NullString
		if err := rows.Scan(&msgID, &m.Role, &content, &attachments); err != nil {
			return "", nil, err
		}
		m.ID = msgID.String
		m.Content = content.String
		if attachments.String != "" {
			if err := json.Unmarshal([]byte(attachments.String), &m.Attachments); err != nil {
				s.logger.Warn("corrupt cached attachments skipped", "topic", topicID, "err", err)
			}
		}
		msgs = append(msgs, m)
	}
	return threadID.String, msgs, rows.Err()
}

// TopicInfo summarizes one cached topic for listing.
type TopicInfo struct {
	StudioType string
	TopicID    string
	ThreadID   string
	Messages   int
	UpdatedAt  time.Time
}

func (s *Store) ListTopics(ctx context.Context, limit int) ([]TopicInfo, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT t.studio_type, t.topic_id, t.thread_id, t.updated_at,
		        (SELECT COUNT(*) FROM transcript tr WHERE tr.studio_type = t.studio_type AND tr.topic_id = t.topic_id)
		 FROM topics t ORDER BY t.updated_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var topics []TopicInfo
	for rows.Next() {
		var ti TopicInfo
		var threadID sql.NullString
		if err := rows.Scan(&ti.StudioType, &ti.TopicID, &threadID, &ti.UpdatedAt, &ti.Messages); err != nil {
			return nil, err
		}
		ti.ThreadID = threadID.String
		topics = append(topics, ti)
	}
	return topics, rows.Err()
}

// DeleteTranscript drops a topic's cached transcript.
func (s *Store) DeleteTranscript(ctx context.Context, studioType, topicID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM transcript WHERE studio_type = ? AND topic_id = ?`, studioType, topicID,
	); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM topics WHERE studio_type = ? AND topic_id = ?`, studioType, topicID,
	)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}
