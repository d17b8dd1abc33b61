// Package journal keeps a local SQLite copy of every answer save attempt, so
// a workflow outage does not silently lose respondent input. The webhook
// remains the source of truth; the journal is a resilience buffer.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS answers (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id  TEXT NOT NULL,
	question_id TEXT NOT NULL,
	answer_text TEXT NOT NULL,
	answered_at TEXT NOT NULL,
	delivered   INTEGER NOT NULL DEFAULT 0,
	created_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_answers_delivered ON answers(delivered);
`

// Entry is one journaled answer attempt.
type Entry struct {
	ID         int64
	SessionID  string
	QuestionID string
	AnswerText string
	AnsweredAt time.Time
	Delivered  bool
}

// Journal wraps the single-writer SQLite handle.
type Journal struct {
	db *sql.DB
}

// Open creates or opens the journal database at path and ensures the schema.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", path))
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping journal: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init journal schema: %w", err)
	}

	// SQLite supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &Journal{db: db}, nil
}

// Record stores an answer attempt before it is sent to the webhook and
// returns the row id for a later MarkDelivered.
func (j *Journal) Record(ctx context.Context, e Entry) (int64, error) {
	res, err := j.db.ExecContext(ctx,
		`INSERT INTO answers (session_id, question_id, answer_text, answered_at, delivered, created_at)
		 VALUES (?, ?, ?, ?, 0, ?)`,
		e.SessionID, e.QuestionID, e.AnswerText,
		e.AnsweredAt.UTC().Format(time.RFC3339), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("record answer: %w", err)
	}
	return res.LastInsertId()
}

// MarkDelivered flags a journaled answer as accepted by the webhook.
func (j *Journal) MarkDelivered(ctx context.Context, id int64) error {
	_, err := j.db.ExecContext(ctx, `UPDATE answers SET delivered = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark delivered: %w", err)
	}
	return nil
}

// Undelivered lists answers the webhook never acknowledged, oldest first.
func (j *Journal) Undelivered(ctx context.Context) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, session_id, question_id, answer_text, answered_at
		 FROM answers WHERE delivered = 0 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list undelivered: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var answeredAt string
		if err := rows.Scan(&e.ID, &e.SessionID, &e.QuestionID, &e.AnswerText, &answeredAt); err != nil {
			return nil, fmt.Errorf("scan undelivered: %w", err)
		}
		e.AnsweredAt, _ = time.Parse(time.RFC3339, answeredAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close releases the database handle.
func (j *Journal) Close() error {
	return j.db.Close()
}
