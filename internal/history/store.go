package history

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
)

// ErrNotFound is returned when a run ID is unknown.
var ErrNotFound = errors.New("run not found")

// timestampLayout is fixed width so started_at sorts lexically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

// Store persists conversion runs in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the ledger database and applies migrations.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("history path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
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

	store := &Store{db: db, path: path}
	if err := store.applyMigrations(context.Background()); err != nil {
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

// RecordRun inserts a run with its rung results in one transaction.
func (s *Store) RecordRun(ctx context.Context, run Run) error {
	if strings.TrimSpace(run.ID) == "" {
		return errors.New("run id required")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (
            id, input_path, output_root, base_name, width, height, bit_rate,
            ladder, decision, status, error_class, error_message, master_path,
            started_at, duration_ms
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.InputPath,
		run.OutputRoot,
		run.BaseName,
		run.Width,
		run.Height,
		run.BitRate,
		joinLadder(run.Ladder),
		nullableString(run.Decision),
		string(run.Status),
		nullableString(run.ErrorClass),
		nullableString(run.ErrorMessage),
		nullableString(run.MasterPath),
		run.StartedAt.UTC().Format(timestampLayout),
		run.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for i, rung := range run.Rungs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_rungs (run_id, position, rung, outcome, exit_code, detail, duration_ms, output_bytes)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, i, rung.Rung, rung.Outcome, rung.ExitCode,
			nullableString(rung.Detail), rung.Duration.Milliseconds(), int64(rung.OutputBytes),
		); err != nil {
			return fmt.Errorf("insert rung %s: %w", rung.Rung, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

// likeEscaper neutralises LIKE wildcards in run ID prefixes.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

const runColumns = `id, input_path, output_root, base_name, width, height, bit_rate,
    ladder, decision, status, error_class, error_message, master_path, started_at, duration_ms`

// ListRuns returns the most recent runs first, without rung detail beyond counts.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, "SELECT "+runColumns+" FROM runs ORDER BY started_at DESC, id LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	for i := range runs {
		rungs, err := s.rungs(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Rungs = rungs
	}
	return runs, nil
}

// GetRun fetches a run and its rung results. A unique ID prefix is accepted.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Run{}, ErrNotFound
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+runColumns+` FROM runs WHERE id = ? OR id LIKE ? ESCAPE '\' ORDER BY id = ? DESC LIMIT 2`,
		id, likeEscaper.Replace(id)+"%", id)
	if err != nil {
		return Run{}, fmt.Errorf("get run: %w", err)
	}
	var matches []Run
	for rows.Next() {
		run, scanErr := scanRun(rows)
		if scanErr != nil {
			rows.Close()
			return Run{}, scanErr
		}
		matches = append(matches, run)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return Run{}, fmt.Errorf("iterate runs: %w", err)
	}

	var run Run
	switch {
	case len(matches) == 0:
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	case len(matches) == 1:
		run = matches[0]
	default:
		exact := false
		for _, m := range matches {
			if m.ID == id {
				run, exact = m, true
			}
		}
		if !exact {
			return Run{}, fmt.Errorf("run id prefix %q is ambiguous", id)
		}
	}

	run.Rungs, err = s.rungs(ctx, run.ID)
	if err != nil {
		return Run{}, err
	}
	return run, nil
}

func (s *Store) rungs(ctx context.Context, runID string) ([]RungResult, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT rung, outcome, exit_code, detail, duration_ms, output_bytes FROM run_rungs WHERE run_id = ? ORDER BY position", runID)
	if err != nil {
		return nil, fmt.Errorf("list rungs: %w", err)
	}
	defer rows.Close()

	var out []RungResult
	for rows.Next() {
		var (
			r          RungResult
			detail     sql.NullString
			durationMS int64
			bytes      int64
		)
		if err := rows.Scan(&r.Rung, &r.Outcome, &r.ExitCode, &detail, &durationMS, &bytes); err != nil {
			return nil, fmt.Errorf("scan rung: %w", err)
		}
		r.Detail = detail.String
		r.Duration = time.Duration(durationMS) * time.Millisecond
		if bytes > 0 {
			r.OutputBytes = uint64(bytes)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run                                Run
		ladder, status, started            string
		decision, errClass, errMsg, master sql.NullString
		durationMS                         int64
	)
	if err := row.Scan(
		&run.ID, &run.InputPath, &run.OutputRoot, &run.BaseName,
		&run.Width, &run.Height, &run.BitRate,
		&ladder, &decision, &status, &errClass, &errMsg, &master,
		&started, &durationMS,
	); err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.Ladder = splitLadder(ladder)
	run.Decision = decision.String
	run.Status = Status(status)
	run.ErrorClass = errClass.String
	run.ErrorMessage = errMsg.String
	run.MasterPath = master.String
	run.Duration = time.Duration(durationMS) * time.Millisecond
	if ts, err := time.Parse(timestampLayout, started); err == nil {
		run.StartedAt = ts
	}
	return run, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
