package runs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"tempo/internal/config"
)

// Store manages run history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the run history database and applies
// migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.RunsDatabasePath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Begin inserts a new running record and returns it.
func (s *Store) Begin(ctx context.Context) (*Run, error) {
	run := &Run{
		ID:        uuid.NewString(),
		Status:    StatusRunning,
		StartedAt: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO pipeline_runs (id, status, started_at) VALUES (?, ?, ?)`,
		run.ID,
		run.Status,
		run.StartedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// Update persists the mutable fields of a run.
func (s *Store) Update(ctx context.Context, run *Run) error {
	processedJSON, err := marshalNullable(run.ProcessedPaths)
	if err != nil {
		return fmt.Errorf("marshal processed paths: %w", err)
	}
	extractionJSON, err := marshalNullable(run.Extraction)
	if err != nil {
		return fmt.Errorf("marshal extraction stats: %w", err)
	}
	transformJSON, err := marshalNullable(run.Transform)
	if err != nil {
		return fmt.Errorf("marshal transform stats: %w", err)
	}

	res, err := s.db.ExecContext(
		ctx,
		`UPDATE pipeline_runs SET
            status = ?, finished_at = ?, error_message = ?, raw_file = ?,
            processed_paths_json = ?, extraction_json = ?, transform_json = ?
         WHERE id = ?`,
		run.Status,
		nullableTime(run.FinishedAt),
		nullableString(run.ErrorMessage),
		nullableString(run.RawFile),
		processedJSON,
		extractionJSON,
		transformJSON,
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("run %s not found", run.ID)
	}
	return nil
}

// Get returns one run by ID, or nil when it does not exist.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// Recent returns the newest runs, most recent first.
func (s *Store) Recent(ctx context.Context, limit int) ([]*Run, error) {
	rows, err := s.db.QueryContext(
		ctx,
		selectColumns+` ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var result []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		result = append(result, run)
	}
	return result, rows.Err()
}

// LastSuccessful returns the newest succeeded run, or nil when none
// exists.
func (s *Store) LastSuccessful(ctx context.Context) (*Run, error) {
	row := s.db.QueryRowContext(
		ctx,
		selectColumns+` WHERE status = ? ORDER BY started_at DESC LIMIT 1`,
		StatusSucceeded,
	)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get last successful run: %w", err)
	}
	return run, nil
}

const selectColumns = `SELECT
    id, status, started_at, finished_at, error_message, raw_file,
    processed_paths_json, extraction_json, transform_json
FROM pipeline_runs`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		run            Run
		startedAt      string
		finishedAt     sql.NullString
		errorMessage   sql.NullString
		rawFile        sql.NullString
		processedJSON  sql.NullString
		extractionJSON sql.NullString
		transformJSON  sql.NullString
	)
	if err := row.Scan(
		&run.ID, &run.Status, &startedAt, &finishedAt, &errorMessage,
		&rawFile, &processedJSON, &extractionJSON, &transformJSON,
	); err != nil {
		return nil, err
	}

	started, err := time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	run.StartedAt = started

	if finishedAt.Valid {
		finished, err := time.Parse(time.RFC3339Nano, finishedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse finished_at: %w", err)
		}
		run.FinishedAt = &finished
	}
	run.ErrorMessage = errorMessage.String
	run.RawFile = rawFile.String

	if processedJSON.Valid {
		if err := json.Unmarshal([]byte(processedJSON.String), &run.ProcessedPaths); err != nil {
			return nil, fmt.Errorf("decode processed paths: %w", err)
		}
	}
	if extractionJSON.Valid {
		run.Extraction = &ExtractionStats{}
		if err := json.Unmarshal([]byte(extractionJSON.String), run.Extraction); err != nil {
			return nil, fmt.Errorf("decode extraction stats: %w", err)
		}
	}
	if transformJSON.Valid {
		run.Transform = &TransformStats{}
		if err := json.Unmarshal([]byte(transformJSON.String), run.Transform); err != nil {
			return nil, fmt.Errorf("decode transform stats: %w", err)
		}
	}
	return &run, nil
}

func marshalNullable(value any) (any, error) {
	switch v := value.(type) {
	case []string:
		if len(v) == 0 {
			return nil, nil
		}
	case *ExtractionStats:
		if v == nil {
			return nil, nil
		}
	case *TransformStats:
		if v == nil {
			return nil, nil
		}
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return string(payload), nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.Format(time.RFC3339Nano)
}
