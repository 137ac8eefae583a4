package transcript

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bnema/agent-council/internal/domain"
	"github.com/bnema/agent-council/internal/ports"
	_ "modernc.org/sqlite"
)

var ErrSessionNotFound = errors.New("transcript session not found")

// SQLiteStore archives every session in one database, so repeated runs
// accumulate instead of overwriting each other.
type SQLiteStore struct {
	path string
}

var (
	_ ports.TranscriptWriter = (*SQLiteStore)(nil)
	_ ports.TranscriptReader = (*SQLiteStore)(nil)
)

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id TEXT PRIMARY KEY,
	task TEXT NOT NULL,
	started_at INTEGER NOT NULL,
	finished_at INTEGER NOT NULL,
	total_spend_nano INTEGER NOT NULL,
	max_budget_nano INTEGER NOT NULL,
	elapsed_nanos INTEGER NOT NULL,
	max_duration_nanos INTEGER NOT NULL,
	message_count INTEGER NOT NULL,
	content_count INTEGER NOT NULL,
	input_tokens INTEGER NOT NULL,
	output_tokens INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS outcomes (
	session_id TEXT NOT NULL REFERENCES sessions(session_id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	persona TEXT NOT NULL,
	turns INTEGER NOT NULL,
	input_tokens INTEGER NOT NULL,
	output_tokens INTEGER NOT NULL,
	spend_nano INTEGER NOT NULL,
	reason TEXT NOT NULL,
	error TEXT NOT NULL,
	PRIMARY KEY (session_id, position)
);
CREATE TABLE IF NOT EXISTS entries (
	session_id TEXT NOT NULL REFERENCES sessions(session_id) ON DELETE CASCADE,
	seq INTEGER NOT NULL,
	author TEXT NOT NULL,
	kind TEXT NOT NULL,
	content TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	PRIMARY KEY (session_id, seq)
);
CREATE INDEX IF NOT EXISTS idx_sessions_finished ON sessions(finished_at);
`

func (s *SQLiteStore) open(ctx context.Context) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(s.path), transcriptDirMode); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := s.path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return db, nil
}

// Write stores transcript, replacing any earlier copy of the same session.
func (s *SQLiteStore) Write(ctx context.Context, transcript domain.Transcript) (err error) {
	db, err := s.open(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	summary := transcript.Summary
	if _, err = tx.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = ?`, transcript.SessionID); err != nil {
		return fmt.Errorf("replace session: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (session_id, task, started_at, finished_at, total_spend_nano, max_budget_nano,
			elapsed_nanos, max_duration_nanos, message_count, content_count, input_tokens, output_tokens)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		transcript.SessionID, transcript.Task,
		transcript.StartedAt.UnixNano(), transcript.FinishedAt.UnixNano(),
		int64(summary.TotalSpend), int64(summary.MaxBudget),
		int64(summary.Elapsed), int64(summary.MaxDuration),
		summary.MessageCount, summary.ContentCount,
		summary.Usage.InputTokens, summary.Usage.OutputTokens,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	for i, outcome := range summary.Agents {
		errText := ""
		if outcome.Err != nil {
			errText = outcome.Err.Error()
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO outcomes (session_id, position, persona, turns, input_tokens, output_tokens, spend_nano, reason, error)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			transcript.SessionID, i, string(outcome.Persona), outcome.Turns,
			outcome.Usage.InputTokens, outcome.Usage.OutputTokens, int64(outcome.Spend),
			string(outcome.Reason), errText,
		)
		if err != nil {
			return fmt.Errorf("insert outcome for %s: %w", outcome.Persona, err)
		}
	}

	for _, entry := range transcript.Entries {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO entries (session_id, seq, author, kind, content, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			transcript.SessionID, entry.Seq, string(entry.Author), string(entry.Kind), entry.Content, entry.Timestamp.UnixNano(),
		)
		if err != nil {
			return fmt.Errorf("insert entry %d: %w", entry.Seq, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transcript: %w", err)
	}

	return nil
}

// Read returns the most recently finished session.
func (s *SQLiteStore) Read(ctx context.Context) (domain.Transcript, error) {
	return s.read(ctx, "")
}

func (s *SQLiteStore) ReadSession(ctx context.Context, sessionID string) (domain.Transcript, error) {
	return s.read(ctx, sessionID)
}

// Sessions lists archived session IDs, newest first.
func (s *SQLiteStore) Sessions(ctx context.Context) ([]string, error) {
	db, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()

	rows, err := db.QueryContext(ctx, `SELECT session_id FROM sessions ORDER BY finished_at DESC, session_id`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func (s *SQLiteStore) read(ctx context.Context, sessionID string) (domain.Transcript, error) {
	db, err := s.open(ctx)
	if err != nil {
		return domain.Transcript{}, err
	}
	defer func() { _ = db.Close() }()

	query := `
		SELECT session_id, task, started_at, finished_at, total_spend_nano, max_budget_nano,
			elapsed_nanos, max_duration_nanos, message_count, content_count, input_tokens, output_tokens
		FROM sessions`
	args := []any{}
	if sessionID == "" {
		query += ` ORDER BY finished_at DESC LIMIT 1`
	} else {
		query += ` WHERE session_id = ?`
		args = append(args, sessionID)
	}

	var (
		transcript                     domain.Transcript
		startedAt, finishedAt          int64
		spend, budget, elapsed, maxDur int64
	)
	err = db.QueryRowContext(ctx, query, args...).Scan(
		&transcript.SessionID, &transcript.Task, &startedAt, &finishedAt,
		&spend, &budget, &elapsed, &maxDur,
		&transcript.Summary.MessageCount, &transcript.Summary.ContentCount,
		&transcript.Summary.Usage.InputTokens, &transcript.Summary.Usage.OutputTokens,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Transcript{}, fmt.Errorf("read session %q: %w", sessionID, ErrSessionNotFound)
	}
	if err != nil {
		return domain.Transcript{}, fmt.Errorf("scan session row: %w", err)
	}

	transcript.StartedAt = time.Unix(0, startedAt).UTC()
	transcript.FinishedAt = time.Unix(0, finishedAt).UTC()
	transcript.Summary.TotalSpend = domain.Money(spend)
	transcript.Summary.MaxBudget = domain.Money(budget)
	transcript.Summary.Elapsed = time.Duration(elapsed)
	transcript.Summary.MaxDuration = time.Duration(maxDur)

	if transcript.Summary.Agents, err = readOutcomes(ctx, db, transcript.SessionID); err != nil {
		return domain.Transcript{}, err
	}
	if transcript.Entries, err = readEntries(ctx, db, transcript.SessionID); err != nil {
		return domain.Transcript{}, err
	}

	return transcript, nil
}

func readOutcomes(ctx context.Context, db *sql.DB, sessionID string) ([]domain.AgentOutcome, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT persona, turns, input_tokens, output_tokens, spend_nano, reason, error
		FROM outcomes WHERE session_id = ? ORDER BY position`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	outcomes := make([]domain.AgentOutcome, 0)
	for rows.Next() {
		var (
			outcome        domain.AgentOutcome
			persona        string
			spend          int64
			reason, errMsg string
		)
		if err := rows.Scan(&persona, &outcome.Turns, &outcome.Usage.InputTokens, &outcome.Usage.OutputTokens, &spend, &reason, &errMsg); err != nil {
			return nil, fmt.Errorf("scan outcome row: %w", err)
		}
		outcome.Persona = domain.PersonaID(persona)
		outcome.Spend = domain.Money(spend)
		outcome.Reason = domain.StopReason(reason)
		if errMsg != "" {
			outcome.Err = errors.New(errMsg)
		}
		outcomes = append(outcomes, outcome)
	}

	return outcomes, rows.Err()
}

func readEntries(ctx context.Context, db *sql.DB, sessionID string) ([]domain.Entry, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT seq, author, kind, content, created_at
		FROM entries WHERE session_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := make([]domain.Entry, 0)
	for rows.Next() {
		var (
			entry        domain.Entry
			author, kind string
			createdAt    int64
		)
		if err := rows.Scan(&entry.Seq, &author, &kind, &entry.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scan entry row: %w", err)
		}
		entry.Author = domain.PersonaID(author)
		entry.Kind = domain.EntryKind(kind)
		entry.Timestamp = time.Unix(0, createdAt).UTC()
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}
