package data

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/anthropics/telegram-neurocat/internal/biz/domain"
	"github.com/anthropics/telegram-neurocat/internal/biz/repo"

	_ "modernc.org/sqlite"
)

const sqliteTimeLayout = "2006-01-02 15:04:05"

// historyRepo implements the History repository
type historyRepo struct {
	db *sql.DB
}

// NewHistoryRepo creates a new History repository backed by SQLite
func NewHistoryRepo(dbPath string) (repo.HistoryRepo, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &historyRepo{db: db}, nil
}

// createSchema creates the users and history tables
func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER,
			username TEXT,
			first_name TEXT,
			last_name TEXT,
			created TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			chat_id INTEGER,
			message_id INTEGER,
			user_id INTEGER,
			first_name TEXT,
			role TEXT,
			created TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			content TEXT,
			reply_to_user_id INTEGER,
			reaction TEXT,
			is_interesting INTEGER DEFAULT NULL,
			source TEXT DEFAULT 'chat'
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create history table: %w", err)
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_history_chat_created ON history(chat_id, created)
	`)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	return nil
}

// Append inserts a new history record
func (r *historyRepo) Append(ctx context.Context, rec *domain.Record) error {
	created := rec.Created
	if created.IsZero() {
		created = time.Now()
	}

	var replyTo any
	if rec.ReplyToUserID != 0 {
		replyTo = rec.ReplyToUserID
	}

	source := rec.Source
	if source == "" {
		source = domain.SourceChat
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO history (chat_id, message_id, user_id, first_name, role, created, content, reply_to_user_id, source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ChatID,
		rec.MessageID,
		rec.UserID,
		rec.FirstName,
		string(rec.Role),
		created.UTC().Format(sqliteTimeLayout),
		rec.Content,
		replyTo,
		source,
	)
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}
	return nil
}

// Annotate sets the post-hoc interest/reaction fields on an inserted record
func (r *historyRepo) Annotate(ctx context.Context, chatID, messageID int64, interesting bool, reaction string) error {
	val := 0
	if interesting {
		val = 1
	}
	_, err := r.db.ExecContext(ctx, `
		UPDATE history
		SET is_interesting = ?, reaction = ?
		WHERE chat_id = ? AND message_id = ?
	`, val, reaction, chatID, messageID)
	if err != nil {
		return fmt.Errorf("failed to annotate record: %w", err)
	}
	return nil
}

// Recent returns the most recent limit records for a chat, oldest first
func (r *historyRepo) Recent(ctx context.Context, chatID int64, limit int) ([]domain.Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT chat_id, message_id, user_id, first_name, role, created, content,
		       COALESCE(reply_to_user_id, 0), COALESCE(reaction, ''), is_interesting, COALESCE(source, 'chat')
		FROM history
		WHERE chat_id = ?
		ORDER BY created DESC
		LIMIT ?
	`, chatID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var records []domain.Record
	for rows.Next() {
		var rec domain.Record
		var role, created string
		var interesting sql.NullInt64
		if err := rows.Scan(&rec.ChatID, &rec.MessageID, &rec.UserID, &rec.FirstName,
			&role, &created, &rec.Content, &rec.ReplyToUserID, &rec.Reaction,
			&interesting, &rec.Source); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		rec.Role = domain.Role(role)
		if t, err := time.Parse(sqliteTimeLayout, created); err == nil {
			rec.Created = t
		}
		if interesting.Valid {
			v := interesting.Int64 == 1
			rec.Interesting = &v
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history: %w", err)
	}

	// Query returns newest first; prompts read oldest first.
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

// UserRepliesToday counts today's assistant replies directed at a user in a chat
func (r *historyRepo) UserRepliesToday(ctx context.Context, chatID, userID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM history
		WHERE chat_id = ?
		  AND role = 'assistant'
		  AND date(created) = date('now')
		  AND reply_to_user_id = ?
	`, chatID, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count user replies: %w", err)
	}
	return count, nil
}

// BotRepliesToday counts today's assistant replies across all chats
func (r *historyRepo) BotRepliesToday(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM history
		WHERE role = 'assistant'
		  AND date(created) = date('now')
	`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count bot replies: %w", err)
	}
	return count, nil
}

// Close closes the database connection
func (r *historyRepo) Close() error {
	return r.db.Close()
}
