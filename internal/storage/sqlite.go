package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sjawhar/interview-minutes/internal/ledger"
)

// MemoryPath keeps the database inside the process.
const MemoryPath = ":memory:"

const (
	SessionActive    = "active"
	SessionCompleted = "completed"
	SessionReset     = "reset"
)

type Session struct {
	ID        string     `json:"id"`
	Template  string     `json:"template"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	Status    string     `json:"status"`
}

// Document records one compiled minutes artifact.
type Document struct {
	ID           string    `json:"id"`
	SessionID    string    `json:"session_id"`
	Template     string    `json:"template"`
	Path         string    `json:"path"`
	RemoteID     string    `json:"remote_id,omitempty"`
	Consolidated bool      `json:"consolidated"`
	Questions    int       `json:"questions"`
	CreatedAt    time.Time `json:"created_at"`
}

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the archive database. An empty path or MemoryPath keeps
// everything in memory for the life of the process.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if strings.TrimSpace(dbPath) == "" {
		dbPath = MemoryPath
	}

	if dbPath != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// One connection: an in-memory database lives and dies with its connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	store := &SQLiteStore{db: db}
	if err := store.init(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) init() error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("apply pragma %q: %w", p, err)
		}
	}

	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			template TEXT NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT,
			status TEXT NOT NULL
		);
	`); err != nil {
		return fmt.Errorf("create sessions table: %w", err)
	}

	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS transcripts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			template TEXT NOT NULL,
			question_id INTEGER NOT NULL,
			question_text TEXT NOT NULL,
			raw_text TEXT NOT NULL,
			captured_at TEXT NOT NULL,
			FOREIGN KEY(session_id) REFERENCES sessions(id) ON DELETE CASCADE
		);
	`); err != nil {
		return fmt.Errorf("create transcripts table: %w", err)
	}

	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL DEFAULT '',
			template TEXT NOT NULL,
			path TEXT NOT NULL,
			remote_id TEXT NOT NULL DEFAULT '',
			consolidated INTEGER NOT NULL DEFAULT 0,
			questions INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		);
	`); err != nil {
		return fmt.Errorf("create documents table: %w", err)
	}

	if _, err := s.db.Exec("CREATE INDEX IF NOT EXISTS idx_transcripts_session ON transcripts(session_id, question_id)"); err != nil {
		return fmt.Errorf("create transcripts index: %w", err)
	}
	if _, err := s.db.Exec("CREATE INDEX IF NOT EXISTS idx_documents_template ON documents(template, created_at)"); err != nil {
		return fmt.Errorf("create documents index: %w", err)
	}

	return nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

func (s *SQLiteStore) CreateSession(ctx context.Context, id, template string, startedAt time.Time) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("session id is required")
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions(id, template, started_at, status) VALUES(?, ?, ?, ?)`,
		id,
		template,
		startedAt.UTC().Format(time.RFC3339Nano),
		SessionActive,
	)
	if err != nil {
		return fmt.Errorf("create session %s: %w", id, err)
	}
	return nil
}

// EndSession marks a session completed or reset. Ending an already ended
// session keeps its first end time.
func (s *SQLiteStore) EndSession(ctx context.Context, id, status string, endedAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET ended_at = COALESCE(ended_at, ?), status = ? WHERE id = ?`,
		endedAt.UTC().Format(time.RFC3339Nano),
		status,
		id,
	)
	if err != nil {
		return fmt.Errorf("end session %s: %w", id, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("end session rows affected: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *SQLiteStore) GetSession(ctx context.Context, id string) (Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, template, started_at, ended_at, status FROM sessions WHERE id = ?`,
		id,
	)

	var sess Session
	var startedAt string
	var endedAt sql.NullString
	if err := row.Scan(&sess.ID, &sess.Template, &startedAt, &endedAt, &sess.Status); err != nil {
		return Session{}, fmt.Errorf("query session %s: %w", id, err)
	}

	parsedStart, err := time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return Session{}, fmt.Errorf("parse session %s started_at: %w", id, err)
	}
	sess.StartedAt = parsedStart

	if endedAt.Valid {
		parsedEnd, err := time.Parse(time.RFC3339Nano, endedAt.String)
		if err != nil {
			return Session{}, fmt.Errorf("parse session %s ended_at: %w", id, err)
		}
		sess.EndedAt = &parsedEnd
	}

	return sess, nil
}

// SaveTranscript archives the raw text of one answer.
func (s *SQLiteStore) SaveTranscript(ctx context.Context, t ledger.Transcript) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transcripts(session_id, template, question_id, question_text, raw_text, captured_at) VALUES(?, ?, ?, ?, ?, ?)`,
		t.SessionID,
		t.Template,
		t.QuestionID,
		t.QuestionText,
		strings.TrimSpace(t.RawText),
		t.CapturedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save transcript for session %s question %d: %w", t.SessionID, t.QuestionID, err)
	}
	return nil
}

// Transcripts returns every archived transcript of a session in capture order.
// Re-answered questions appear once per answer.
func (s *SQLiteStore) Transcripts(ctx context.Context, sessionID string) ([]ledger.Transcript, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, template, question_id, question_text, raw_text, captured_at
		 FROM transcripts
		 WHERE session_id = ?
		 ORDER BY id ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query transcripts for session %s: %w", sessionID, err)
	}
	defer func() { _ = rows.Close() }()

	transcripts := make([]ledger.Transcript, 0, 16)
	for rows.Next() {
		var t ledger.Transcript
		var capturedAt string
		if err := rows.Scan(&t.SessionID, &t.Template, &t.QuestionID, &t.QuestionText, &t.RawText, &capturedAt); err != nil {
			return nil, fmt.Errorf("scan transcript for session %s: %w", sessionID, err)
		}

		parsed, err := time.Parse(time.RFC3339Nano, capturedAt)
		if err != nil {
			return nil, fmt.Errorf("parse transcript captured_at for session %s: %w", sessionID, err)
		}
		t.CapturedAt = parsed

		transcripts = append(transcripts, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transcript rows for session %s: %w", sessionID, err)
	}

	return transcripts, nil
}

// LatestTranscripts returns the most recent transcript per question id.
func (s *SQLiteStore) LatestTranscripts(ctx context.Context, sessionID string) (map[int]ledger.Transcript, error) {
	all, err := s.Transcripts(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	latest := make(map[int]ledger.Transcript, len(all))
	for _, t := range all {
		latest[t.QuestionID] = t
	}
	return latest, nil
}

func (s *SQLiteStore) RecordDocument(ctx context.Context, d Document) error {
	if strings.TrimSpace(d.ID) == "" {
		return errors.New("document id is required")
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents(id, session_id, template, path, remote_id, consolidated, questions, created_at) VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID,
		d.SessionID,
		d.Template,
		d.Path,
		d.RemoteID,
		d.Consolidated,
		d.Questions,
		d.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record document %s: %w", d.ID, err)
	}
	return nil
}

// Documents lists compiled documents for a template, newest first. An empty
// template lists all documents.
func (s *SQLiteStore) Documents(ctx context.Context, template string) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, template, path, remote_id, consolidated, questions, created_at
		 FROM documents
		 WHERE ? = '' OR template = ?
		 ORDER BY created_at DESC`,
		template,
		template,
	)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	docs := make([]Document, 0, 8)
	for rows.Next() {
		var d Document
		var createdAt string
		if err := rows.Scan(&d.ID, &d.SessionID, &d.Template, &d.Path, &d.RemoteID, &d.Consolidated, &d.Questions, &createdAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}

		parsed, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse document created_at: %w", err)
		}
		d.CreatedAt = parsed

		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate document rows: %w", err)
	}

	return docs, nil
}
