package interop

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/verte-zerg/cubetui/internal/model"
	"github.com/verte-zerg/cubetui/internal/store"
	"github.com/verte-zerg/cubetui/internal/timer"
	"github.com/verte-zerg/cubetui/internal/training"
)

// BackupVersion is the only backup format version written and accepted.
const BackupVersion = 1

// Backup is the full timer backup.
type Backup struct {
	Solves     []model.SolveResult `json:"solves"`
	Settings   model.Settings      `json:"settings"`
	ExportedAt string              `json:"exportedAt"`
	Version    int                 `json:"version"`
}

// TrainingBackup holds every progress record and training session.
type TrainingBackup struct {
	Progress   []model.AlgorithmProgress `json:"progress"`
	Sessions   []model.TrainingSession   `json:"sessions"`
	ExportedAt string                    `json:"exportedAt"`
	Version    int                       `json:"version"`
}

// BackupStore is what a full backup reads and writes.
type BackupStore interface {
	store.SolveStore
	store.SettingsStore
}

// TrainingStore is what a training backup reads and writes.
type TrainingStore interface {
	store.ProgressStore
	store.SessionStore
}

// RestoreResult reports what a restore wrote.
type RestoreResult struct {
	Solves   int
	Settings bool
	Progress int
	Sessions int
}

// ExportBackup serialises every solve and the stored settings. Defaults are
// written when no settings were ever stored.
func ExportBackup(ctx context.Context, st BackupStore, now time.Time) ([]byte, error) {
	solves, err := st.ListSolves(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list solves: %w", err)
	}
	settings, err := st.GetSettings(ctx)
	if errors.Is(err, store.ErrNotFound) {
		settings = model.DefaultSettings()
	} else if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	if solves == nil {
		solves = []model.SolveResult{}
	}
	return json.MarshalIndent(Backup{
		Solves:     solves,
		Settings:   settings,
		ExportedAt: exportedAt(now),
		Version:    BackupVersion,
	}, "", "  ")
}

// RestoreBackup upserts the backup's solves by id and stores its settings.
// The whole file is validated before anything is written.
func RestoreBackup(ctx context.Context, st BackupStore, data []byte) (RestoreResult, error) {
	var raw struct {
		Solves   []model.SolveResult `json:"solves"`
		Settings json.RawMessage     `json:"settings"`
		Version  int                 `json:"version"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return RestoreResult{}, fmt.Errorf("%w: %w", ErrMalformedImport, err)
	}
	if raw.Version != BackupVersion {
		return RestoreResult{}, fmt.Errorf("%w: unsupported backup version %d", ErrMalformedImport, raw.Version)
	}

	var settings *model.Settings
	if len(raw.Settings) > 0 && string(raw.Settings) != "null" {
		s := model.DefaultSettings()
		if err := json.Unmarshal(raw.Settings, &s); err != nil {
			return RestoreResult{}, fmt.Errorf("%w: settings: %w", ErrMalformedImport, err)
		}
		if err := s.Validate(); err != nil {
			return RestoreResult{}, err
		}
		settings = &s
	}

	solves := make([]model.SolveResult, 0, len(raw.Solves))
	for i, s := range raw.Solves {
		if s.ID == "" {
			return RestoreResult{}, fmt.Errorf("%w: solve %d has no id", ErrMalformedImport, i)
		}
		if s.Time < 0 {
			return RestoreResult{}, fmt.Errorf("%w: solve %s has a negative time", ErrMalformedImport, s.ID)
		}
		s.Penalty = convertPenalty(int64(s.Penalty))
		s.Date = timer.DateString(s.Timestamp)
		solves = append(solves, s)
	}
	if len(solves) == 0 && settings == nil {
		return RestoreResult{}, fmt.Errorf("%w: backup holds no solves or settings", ErrMalformedImport)
	}

	var res RestoreResult
	if len(solves) > 0 {
		if err := st.AddSolves(ctx, solves); err != nil {
			return res, fmt.Errorf("failed to restore solves: %w", err)
		}
		res.Solves = len(solves)
	}
	if settings != nil {
		if err := st.PutSettings(ctx, *settings); err != nil {
			return res, fmt.Errorf("failed to restore settings: %w", err)
		}
		res.Settings = true
	}
	return res, nil
}

// ExportTraining serialises every progress record and session.
func ExportTraining(ctx context.Context, st TrainingStore, now time.Time) ([]byte, error) {
	progress, err := st.ListProgress(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}
	sessions, err := st.ListSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	if progress == nil {
		progress = []model.AlgorithmProgress{}
	}
	if sessions == nil {
		sessions = []model.TrainingSession{}
	}
	return json.MarshalIndent(TrainingBackup{
		Progress:   progress,
		Sessions:   sessions,
		ExportedAt: exportedAt(now),
		Version:    BackupVersion,
	}, "", "  ")
}

// RestoreTraining puts every record of a training backup, replacing stored
// records with the same case id or date.
func RestoreTraining(ctx context.Context, st TrainingStore, data []byte) (RestoreResult, error) {
	var b TrainingBackup
	if err := json.Unmarshal(data, &b); err != nil {
		return RestoreResult{}, fmt.Errorf("%w: %w", ErrMalformedImport, err)
	}
	if b.Version != BackupVersion {
		return RestoreResult{}, fmt.Errorf("%w: unsupported backup version %d", ErrMalformedImport, b.Version)
	}
	for _, p := range b.Progress {
		if err := training.ValidateProgress(p); err != nil {
			return RestoreResult{}, fmt.Errorf("%w: %w", ErrMalformedImport, err)
		}
	}
	for _, s := range b.Sessions {
		if _, err := time.Parse(timer.DateLayout, s.Date); err != nil {
			return RestoreResult{}, fmt.Errorf("%w: session date %q", ErrMalformedImport, s.Date)
		}
	}

	var res RestoreResult
	for _, p := range b.Progress {
		if err := st.PutProgress(ctx, p); err != nil {
			return res, fmt.Errorf("failed to restore progress: %w", err)
		}
		res.Progress++
	}
	for _, s := range b.Sessions {
		if err := st.PutSession(ctx, s); err != nil {
			return res, fmt.Errorf("failed to restore session: %w", err)
		}
		res.Sessions++
	}
	return res, nil
}

func exportedAt(now time.Time) string {
	return now.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
