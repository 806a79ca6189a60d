package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store manages run history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

const runColumns = `id, started_at, finished_at, day, template, status, script, audio_seconds,
    word_count, card_count, background, output_path, publish_response, error_message`

// StartRun inserts a new run record.
func (s *Store) StartRun(ctx context.Context, run *Run) error {
	if run == nil || run.ID == "" {
		return errors.New("history: run id required")
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	if run.Status == "" {
		run.Status = StatusRunning
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (`+runColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		nullableTime(run.FinishedAt),
		run.Day,
		nullableString(run.Template),
		run.Status,
		nullableString(run.Script),
		run.AudioSeconds,
		run.WordCount,
		run.CardCount,
		nullableString(run.Background),
		nullableString(run.OutputPath),
		nullableString(run.PublishResponse),
		nullableString(run.ErrorMessage),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// UpdateRun persists every mutable field of run.
func (s *Store) UpdateRun(ctx context.Context, run *Run) error {
	if run == nil {
		return errors.New("history: run is nil")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs
         SET finished_at = ?, day = ?, template = ?, status = ?, script = ?, audio_seconds = ?,
             word_count = ?, card_count = ?, background = ?, output_path = ?,
             publish_response = ?, error_message = ?
         WHERE id = ?`,
		nullableTime(run.FinishedAt),
		run.Day,
		nullableString(run.Template),
		run.Status,
		nullableString(run.Script),
		run.AudioSeconds,
		run.WordCount,
		run.CardCount,
		nullableString(run.Background),
		nullableString(run.OutputPath),
		nullableString(run.PublishResponse),
		nullableString(run.ErrorMessage),
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update run %s: not found", run.ID)
	}
	return nil
}

// GetRun fetches a run by id. A missing run returns nil without error.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// MarkInterrupted fails runs left in the running state by a crashed process.
func (s *Store) MarkInterrupted(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, finished_at = ?, error_message = ? WHERE status = ?`,
		StatusFailed,
		now.UTC().Format(time.RFC3339Nano),
		"interrupted before completion",
		StatusRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("mark interrupted runs: %w", err)
	}
	return res.RowsAffected()
}

// Transcript returns cached words JSON for an audio hash and aligner.
func (s *Store) Transcript(ctx context.Context, audioHash, aligner string) (string, bool, error) {
	var words string
	err := s.db.QueryRowContext(ctx,
		`SELECT words_json FROM transcripts WHERE audio_hash = ? AND aligner = ?`,
		audioHash, aligner,
	).Scan(&words)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get transcript: %w", err)
	}
	return words, true, nil
}

// PutTranscript stores or replaces a cached transcript.
func (s *Store) PutTranscript(ctx context.Context, audioHash, aligner, wordsJSON string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transcripts (audio_hash, aligner, words_json, created_at) VALUES (?, ?, ?, ?)
         ON CONFLICT(audio_hash, aligner) DO UPDATE SET words_json = excluded.words_json, created_at = excluded.created_at`,
		audioHash, aligner, wordsJSON, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("put transcript: %w", err)
	}
	return nil
}
