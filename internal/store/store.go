// Package store persists solves, training progress and training sessions.
package store

import (
	"context"
	"errors"

	"github.com/verte-zerg/cubetui/internal/model"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnavailable wraps failures to open the backing database.
	ErrUnavailable = errors.New("storage unavailable")
)

// SolveStore persists timed solves. Lists are ordered by timestamp, then by
// insertion order.
type SolveStore interface {
	// AddSolve inserts a solve, replacing any solve with the same id.
	AddSolve(ctx context.Context, solve model.SolveResult) error
	// AddSolves inserts many solves in one transaction.
	AddSolves(ctx context.Context, solves []model.SolveResult) error
	UpdateSolve(ctx context.Context, solve model.SolveResult) error
	DeleteSolve(ctx context.Context, id string) error
	GetSolve(ctx context.Context, id string) (model.SolveResult, error)
	ListSolves(ctx context.Context) ([]model.SolveResult, error)
	// ListSolvesByDate returns solves whose date lies in [from, to].
	ListSolvesByDate(ctx context.Context, from, to string) ([]model.SolveResult, error)
	ClearSolves(ctx context.Context) error
}

// ProgressStore persists per-case review progress. Lists are ordered by case id.
type ProgressStore interface {
	PutProgress(ctx context.Context, p model.AlgorithmProgress) error
	GetProgress(ctx context.Context, caseID int) (model.AlgorithmProgress, error)
	ListProgress(ctx context.Context) ([]model.AlgorithmProgress, error)
	// ListDueProgress returns records whose next review date is on or before today.
	ListDueProgress(ctx context.Context, today string) ([]model.AlgorithmProgress, error)
	// SeedProgress inserts the records that are not stored yet and reports how
	// many were inserted.
	SeedProgress(ctx context.Context, records []model.AlgorithmProgress) (int, error)
	ClearProgress(ctx context.Context) error
}

// SessionStore persists daily training sessions. Lists are ordered by date.
type SessionStore interface {
	// MergeSession adds reviewed counts to the stored session of the same date
	// and overwrites its mastered count. It returns the stored result.
	MergeSession(ctx context.Context, s model.TrainingSession) (model.TrainingSession, error)
	// PutSession replaces the session of the same date.
	PutSession(ctx context.Context, s model.TrainingSession) error
	ListSessions(ctx context.Context) ([]model.TrainingSession, error)
	ListSessionsSince(ctx context.Context, date string) ([]model.TrainingSession, error)
	ClearSessions(ctx context.Context) error
}

// SettingsStore persists the timer settings captured by backups.
type SettingsStore interface {
	GetSettings(ctx context.Context) (model.Settings, error)
	PutSettings(ctx context.Context, s model.Settings) error
}

// Client bundles every store.
type Client interface {
	SolveStore
	ProgressStore
	SessionStore
	SettingsStore
	Close() error
}

// OpenOrMemory opens the SQLite database at path. When that fails it returns an
// in-memory client together with the open error so callers can warn.
func OpenOrMemory(path string) (Client, error) {
	db, err := Open(path)
	if err != nil {
		return NewMemory(), err
	}
	return db, nil
}

func mergeSession(existing *model.TrainingSession, s model.TrainingSession) model.TrainingSession {
	if existing == nil {
		return s
	}
	return model.TrainingSession{
		Date:               s.Date,
		AlgorithmsReviewed: existing.AlgorithmsReviewed + s.AlgorithmsReviewed,
		MasteredCount:      s.MasteredCount,
	}
}
