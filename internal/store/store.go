package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mcolombo/buslens/internal/xdg"
)

//go:embed schema.sql
var schemaSQL string

// TopicPref holds per-topic view preferences that persist across runs: a
// forced encoding (overriding the payload's declared one) and selection
// history used to order the recent-topics list.
type TopicPref struct {
	Topic            string
	EncodingOverride string
	TimesSelected    int64
	LastSelectedAt   time.Time
}

// Store defines the interface for preference persistence.
type Store interface {
	LoadPrefs(ctx context.Context) (map[string]TopicPref, error)
	RecordSelection(ctx context.Context, topic string) error
	SetEncodingOverride(ctx context.Context, topic, encoding string) error
	RecentTopics(ctx context.Context, limit int64) ([]TopicPref, error)
	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewStore opens (creating if needed) the preference database at the
// default or custom path.
func NewStore(customPath string) (*SQLiteStore, error) {
	dbPath := customPath
	if dbPath == "" {
		dataDir, err := xdg.DataDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get data directory: %w", err)
		}
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		dbPath = filepath.Join(dataDir, "buslens.db")
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON; PRAGMA journal_mode = WAL;"); err != nil {
		return nil, errors.Join(fmt.Errorf("failed to set pragmas: %w", err), db.Close())
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		return nil, errors.Join(fmt.Errorf("failed to initialize schema: %w", err), db.Close())
	}

	return &SQLiteStore{db: db}, nil
}

// LoadPrefs returns all persisted topic preferences keyed by topic.
func (s *SQLiteStore) LoadPrefs(ctx context.Context) (map[string]TopicPref, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT topic, encoding_override, times_selected, COALESCE(last_selected_at, 0)
		FROM topic_prefs`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	prefs := make(map[string]TopicPref)
	for rows.Next() {
		var p TopicPref
		var last int64
		if err := rows.Scan(&p.Topic, &p.EncodingOverride, &p.TimesSelected, &last); err != nil {
			return nil, err
		}
		if last != 0 {
			p.LastSelectedAt = time.Unix(0, last)
		}
		prefs[p.Topic] = p
	}
	return prefs, rows.Err()
}

// RecordSelection bumps the selection counter and timestamp for a topic.
func (s *SQLiteStore) RecordSelection(ctx context.Context, topic string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO topic_prefs (topic, times_selected, last_selected_at)
		VALUES (?, 1, ?)
		ON CONFLICT(topic) DO UPDATE SET
			times_selected = times_selected + 1,
			last_selected_at = excluded.last_selected_at`,
		topic, time.Now().UnixNano())
	return err
}

// SetEncodingOverride stores a forced encoding for a topic. An empty
// encoding clears the override (back to the payload's declared encoding).
func (s *SQLiteStore) SetEncodingOverride(ctx context.Context, topic, encoding string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO topic_prefs (topic, encoding_override)
		VALUES (?, ?)
		ON CONFLICT(topic) DO UPDATE SET encoding_override = excluded.encoding_override`,
		topic, encoding)
	return err
}

// RecentTopics returns up to limit topics ordered by most recent selection.
func (s *SQLiteStore) RecentTopics(ctx context.Context, limit int64) ([]TopicPref, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT topic, encoding_override, times_selected, COALESCE(last_selected_at, 0)
		FROM topic_prefs
		WHERE last_selected_at IS NOT NULL
		ORDER BY last_selected_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TopicPref
	for rows.Next() {
		var p TopicPref
		var last int64
		if err := rows.Scan(&p.Topic, &p.EncodingOverride, &p.TimesSelected, &last); err != nil {
			return nil, err
		}
		if last != 0 {
			p.LastSelectedAt = time.Unix(0, last)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
