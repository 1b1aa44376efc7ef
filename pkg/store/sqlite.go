// Package store persists the long-form message ID to short numeric ID
// mapping in SQLite. Short IDs are what protocol consumers reference in
// recall notices and later API calls, so assignment must be stable across
// duplicate deliveries of the same message.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tinyland-inc/obridge/pkg/platform"
)

const schema = `
CREATE TABLE IF NOT EXISTS messages (
	short_id   INTEGER PRIMARY KEY AUTOINCREMENT,
	long_id    TEXT    NOT NULL UNIQUE,
	chat_type  INTEGER NOT NULL,
	peer_uid   TEXT    NOT NULL,
	peer_uin   INTEGER NOT NULL,
	sender_uin INTEGER NOT NULL,
	msg_time   INTEGER NOT NULL
);
`

// Config holds store settings.
type Config struct {
	Path        string
	BusyTimeout time.Duration
}

// SQLite implements platform.MessageStore on a local database file.
type SQLite struct {
	db *sql.DB
}

var _ platform.MessageStore = (*SQLite)(nil)

// Open creates the database file (and parent directory) if needed and
// applies the schema.
func Open(cfg Config) (*SQLite, error) {
	if cfg.Path == "" {
		return nil, errors.New("store path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// AssignShortID indexes the message, returning the short id already on
// file when the long id was indexed before.
func (s *SQLite) AssignShortID(ctx context.Context, msg *platform.RawMessage) (int32, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO messages(long_id, chat_type, peer_uid, peer_uin, sender_uin, msg_time)
		 VALUES(?,?,?,?,?,?)`,
		msg.MsgID, int(msg.ChatType), msg.PeerUID, msg.PeerUin, msg.SenderUin, msg.MsgTime,
	)
	if err != nil {
		return 0, fmt.Errorf("index message: %w", err)
	}

	var shortID int32
	err = s.db.QueryRowContext(ctx,
		`SELECT short_id FROM messages WHERE long_id = ?`, msg.MsgID,
	).Scan(&shortID)
	if err != nil {
		return 0, fmt.Errorf("read short id: %w", err)
	}
	return shortID, nil
}

// LookupByLongID returns (nil, nil) for messages that were never indexed.
func (s *SQLite) LookupByLongID(ctx context.Context, longID string) (*platform.StoredMessage, error) {
	var rec platform.StoredMessage
	var chatType int
	err := s.db.QueryRowContext(ctx,
		`SELECT short_id, long_id, chat_type, peer_uin, sender_uin, msg_time
		 FROM messages WHERE long_id = ?`, longID,
	).Scan(&rec.ShortID, &rec.LongID, &chatType, &rec.PeerUin, &rec.SenderUin, &rec.MsgTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup message: %w", err)
	}
	rec.ChatType = platform.ChatType(chatType)
	return &rec, nil
}
