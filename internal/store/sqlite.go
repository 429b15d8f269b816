package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/verte-zerg/cubetui/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// SQLite stores everything in a single SQLite database file.
type SQLite struct {
	db *sql.DB
}

var _ Client = (*SQLite)(nil)

// Open opens or creates the SQLite database and applies migrations.
// Failures wrap ErrUnavailable.
func Open(path string) (*SQLite, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	store := &SQLite{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return store, nil
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

//go:embed migrations/*.sql
var migrationFiles embed.FS

func (s *SQLite) migrate() error {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to prepare migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to prepare migrations: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	// m.Close would also close s.db through the driver.
	return src.Close()
}

const solveColumns = `id, time_ms, penalty, scramble, comment, timestamp, date`

const upsertSolve = `INSERT INTO solves (` + solveColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		time_ms = excluded.time_ms,
		penalty = excluded.penalty,
		scramble = excluded.scramble,
		comment = excluded.comment,
		timestamp = excluded.timestamp,
		date = excluded.date`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func execSolve(ctx context.Context, db execer, query string, solve model.SolveResult) (sql.Result, error) {
	return db.ExecContext(ctx, query,
		solve.ID,
		solve.Time,
		int(solve.Penalty),
		solve.Scramble,
		solve.Comment,
		solve.Timestamp,
		solve.Date,
	)
}

// AddSolve stores a solve.
func (s *SQLite) AddSolve(ctx context.Context, solve model.SolveResult) error {
	if _, err := execSolve(ctx, s.db, upsertSolve, solve); err != nil {
		return fmt.Errorf("failed to add solve: %w", err)
	}
	return nil
}

// AddSolves stores solves in one transaction.
func (s *SQLite) AddSolves(ctx context.Context, solves []model.SolveResult) (err error) {
	if len(solves) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	stmt, err := tx.PrepareContext(ctx, upsertSolve)
	if err != nil {
		return fmt.Errorf("failed to prepare solve insert: %w", err)
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()
	for _, solve := range solves {
		if _, err = stmt.ExecContext(ctx,
			solve.ID,
			solve.Time,
			int(solve.Penalty),
			solve.Scramble,
			solve.Comment,
			solve.Timestamp,
			solve.Date,
		); err != nil {
			return fmt.Errorf("failed to add solve %s: %w", solve.ID, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit solves: %w", err)
	}
	return nil
}

// UpdateSolve overwrites an existing solve.
func (s *SQLite) UpdateSolve(ctx context.Context, solve model.SolveResult) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE solves SET time_ms = ?, penalty = ?, scramble = ?, comment = ?, timestamp = ?, date = ?
		 WHERE id = ?`,
		solve.Time,
		int(solve.Penalty),
		solve.Scramble,
		solve.Comment,
		solve.Timestamp,
		solve.Date,
		solve.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update solve: %w", err)
	}
	return requireAffected(res, "solve "+solve.ID)
}

// DeleteSolve removes a solve.
func (s *SQLite) DeleteSolve(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM solves WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete solve: %w", err)
	}
	return requireAffected(res, "solve "+id)
}

// GetSolve loads one solve.
func (s *SQLite) GetSolve(ctx context.Context, id string) (model.SolveResult, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+solveColumns+` FROM solves WHERE id = ?`, id)
	solve, err := scanSolve(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.SolveResult{}, fmt.Errorf("solve %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.SolveResult{}, fmt.Errorf("failed to get solve: %w", err)
	}
	return solve, nil
}

// ListSolves returns all solves in chronological order.
func (s *SQLite) ListSolves(ctx context.Context) ([]model.SolveResult, error) {
	return s.querySolves(ctx, `SELECT `+solveColumns+` FROM solves ORDER BY timestamp ASC, seq ASC`)
}

// ListSolvesByDate returns solves dated within [from, to].
func (s *SQLite) ListSolvesByDate(ctx context.Context, from, to string) ([]model.SolveResult, error) {
	return s.querySolves(ctx,
		`SELECT `+solveColumns+` FROM solves WHERE date >= ? AND date <= ? ORDER BY timestamp ASC, seq ASC`,
		from, to)
}

// ClearSolves removes all solves.
func (s *SQLite) ClearSolves(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM solves`); err != nil {
		return fmt.Errorf("failed to clear solves: %w", err)
	}
	return nil
}

func (s *SQLite) querySolves(ctx context.Context, query string, args ...any) ([]model.SolveResult, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list solves: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var solves []model.SolveResult
	for rows.Next() {
		solve, err := scanSolve(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan solve: %w", err)
		}
		solves = append(solves, solve)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list solves: %w", err)
	}
	return solves, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSolve(row scanner) (model.SolveResult, error) {
	var solve model.SolveResult
	var penalty int
	if err := row.Scan(&solve.ID, &solve.Time, &penalty, &solve.Scramble, &solve.Comment, &solve.Timestamp, &solve.Date); err != nil {
		return model.SolveResult{}, err
	}
	solve.Penalty = model.Penalty(penalty)
	return solve, nil
}

const progressColumns = `case_id, ease_factor, interval_days, repetitions, next_review, total_attempts,
	full_confidence, light_confidence, failed, last_attempt`

func progressArgs(p model.AlgorithmProgress) []any {
	return []any{
		p.CaseID,
		p.EaseFactor,
		p.Interval,
		p.Repetitions,
		p.NextReviewDate,
		p.TotalAttempts,
		p.FullConfidence,
		p.LightConfidence,
		p.Failed,
		p.LastAttempt,
	}
}

// PutProgress inserts or replaces a progress record.
func (s *SQLite) PutProgress(ctx context.Context, p model.AlgorithmProgress) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO progress (`+progressColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		progressArgs(p)...)
	if err != nil {
		return fmt.Errorf("failed to put progress: %w", err)
	}
	return nil
}

// GetProgress loads the progress of one case.
func (s *SQLite) GetProgress(ctx context.Context, caseID int) (model.AlgorithmProgress, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+progressColumns+` FROM progress WHERE case_id = ?`, caseID)
	p, err := scanProgress(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.AlgorithmProgress{}, fmt.Errorf("progress %d: %w", caseID, ErrNotFound)
	}
	if err != nil {
		return model.AlgorithmProgress{}, fmt.Errorf("failed to get progress: %w", err)
	}
	return p, nil
}

// ListProgress returns every progress record.
func (s *SQLite) ListProgress(ctx context.Context) ([]model.AlgorithmProgress, error) {
	return s.queryProgress(ctx, `SELECT `+progressColumns+` FROM progress ORDER BY case_id ASC`)
}

// ListDueProgress returns the records due on or before today.
func (s *SQLite) ListDueProgress(ctx context.Context, today string) ([]model.AlgorithmProgress, error) {
	return s.queryProgress(ctx,
		`SELECT `+progressColumns+` FROM progress WHERE next_review <= ? ORDER BY case_id ASC`, today)
}

// SeedProgress inserts records that are missing, in one transaction.
func (s *SQLite) SeedProgress(ctx context.Context, records []model.AlgorithmProgress) (inserted int, err error) {
	if len(records) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO progress (`+progressColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare progress insert: %w", err)
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()
	for _, p := range records {
		res, execErr := stmt.ExecContext(ctx, progressArgs(p)...)
		if execErr != nil {
			err = fmt.Errorf("failed to seed progress %d: %w", p.CaseID, execErr)
			return 0, err
		}
		n, affErr := res.RowsAffected()
		if affErr != nil {
			err = fmt.Errorf("failed to seed progress %d: %w", p.CaseID, affErr)
			return 0, err
		}
		inserted += int(n)
	}
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit progress: %w", err)
	}
	return inserted, nil
}

// ClearProgress removes all progress records.
func (s *SQLite) ClearProgress(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM progress`); err != nil {
		return fmt.Errorf("failed to clear progress: %w", err)
	}
	return nil
}

func (s *SQLite) queryProgress(ctx context.Context, query string, args ...any) ([]model.AlgorithmProgress, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.AlgorithmProgress
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan progress: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}
	return result, nil
}

func scanProgress(row scanner) (model.AlgorithmProgress, error) {
	var p model.AlgorithmProgress
	err := row.Scan(
		&p.CaseID,
		&p.EaseFactor,
		&p.Interval,
		&p.Repetitions,
		&p.NextReviewDate,
		&p.TotalAttempts,
		&p.FullConfidence,
		&p.LightConfidence,
		&p.Failed,
		&p.LastAttempt,
	)
	return p, err
}

// MergeSession merges a session into the stored session of the same date.
func (s *SQLite) MergeSession(ctx context.Context, session model.TrainingSession) (model.TrainingSession, error) {
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO training_sessions (date, algorithms_reviewed, mastered_count)
		 VALUES (?, ?, ?)
		 ON CONFLICT(date) DO UPDATE SET
			algorithms_reviewed = training_sessions.algorithms_reviewed + excluded.algorithms_reviewed,
			mastered_count = excluded.mastered_count
		 RETURNING date, algorithms_reviewed, mastered_count`,
		session.Date, session.AlgorithmsReviewed, session.MasteredCount)
	var merged model.TrainingSession
	if err := row.Scan(&merged.Date, &merged.AlgorithmsReviewed, &merged.MasteredCount); err != nil {
		return model.TrainingSession{}, fmt.Errorf("failed to merge session: %w", err)
	}
	return merged, nil
}

// PutSession replaces the session of the same date.
func (s *SQLite) PutSession(ctx context.Context, session model.TrainingSession) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO training_sessions (date, algorithms_reviewed, mastered_count) VALUES (?, ?, ?)`,
		session.Date, session.AlgorithmsReviewed, session.MasteredCount)
	if err != nil {
		return fmt.Errorf("failed to put session: %w", err)
	}
	return nil
}

// ListSessions returns all sessions by date.
func (s *SQLite) ListSessions(ctx context.Context) ([]model.TrainingSession, error) {
	return s.ListSessionsSince(ctx, "")
}

// ListSessionsSince returns sessions dated on or after date.
func (s *SQLite) ListSessionsSince(ctx context.Context, date string) ([]model.TrainingSession, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT date, algorithms_reviewed, mastered_count FROM training_sessions
		 WHERE date >= ? ORDER BY date ASC`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var sessions []model.TrainingSession
	for rows.Next() {
		var session model.TrainingSession
		if err := rows.Scan(&session.Date, &session.AlgorithmsReviewed, &session.MasteredCount); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// ClearSessions removes all sessions.
func (s *SQLite) ClearSessions(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM training_sessions`); err != nil {
		return fmt.Errorf("failed to clear sessions: %w", err)
	}
	return nil
}

const settingsKey = "timer"

// GetSettings loads stored settings.
func (s *SQLite) GetSettings(ctx context.Context) (model.Settings, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, settingsKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Settings{}, fmt.Errorf("settings: %w", ErrNotFound)
	}
	if err != nil {
		return model.Settings{}, fmt.Errorf("failed to get settings: %w", err)
	}
	settings := model.DefaultSettings()
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		return model.Settings{}, fmt.Errorf("failed to decode settings: %w", err)
	}
	return settings, nil
}

// PutSettings stores settings.
func (s *SQLite) PutSettings(ctx context.Context, settings model.Settings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)`, settingsKey, string(raw)); err != nil {
		return fmt.Errorf("failed to put settings: %w", err)
	}
	return nil
}

func requireAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}
