package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/verte-zerg/cubetui/internal/model"
)

// Memory keeps everything in process memory. It backs tests and the degraded
// mode used when the database cannot be opened.
type Memory struct {
	mu       sync.Mutex
	seq      int64
	solves   map[string]memSolve
	progress map[int]model.AlgorithmProgress
	sessions map[string]model.TrainingSession
	settings *model.Settings
}

type memSolve struct {
	seq   int64
	solve model.SolveResult
}

var _ Client = (*Memory)(nil)

// NewMemory returns an empty in-memory client.
func NewMemory() *Memory {
	return &Memory{
		solves:   map[string]memSolve{},
		progress: map[int]model.AlgorithmProgress{},
		sessions: map[string]model.TrainingSession{},
	}
}

// Close is a no-op.
func (m *Memory) Close() error {
	return nil
}

// AddSolve stores a solve.
func (m *Memory) AddSolve(_ context.Context, solve model.SolveResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putSolve(solve)
	return nil
}

// AddSolves stores solves.
func (m *Memory) AddSolves(_ context.Context, solves []model.SolveResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, solve := range solves {
		m.putSolve(solve)
	}
	return nil
}

func (m *Memory) putSolve(solve model.SolveResult) {
	if existing, ok := m.solves[solve.ID]; ok {
		m.solves[solve.ID] = memSolve{seq: existing.seq, solve: solve}
		return
	}
	m.seq++
	m.solves[solve.ID] = memSolve{seq: m.seq, solve: solve}
}

// UpdateSolve overwrites an existing solve.
func (m *Memory) UpdateSolve(_ context.Context, solve model.SolveResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.solves[solve.ID]
	if !ok {
		return fmt.Errorf("solve %s: %w", solve.ID, ErrNotFound)
	}
	m.solves[solve.ID] = memSolve{seq: existing.seq, solve: solve}
	return nil
}

// DeleteSolve removes a solve.
func (m *Memory) DeleteSolve(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.solves[id]; !ok {
		return fmt.Errorf("solve %s: %w", id, ErrNotFound)
	}
	delete(m.solves, id)
	return nil
}

// GetSolve loads one solve.
func (m *Memory) GetSolve(_ context.Context, id string) (model.SolveResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.solves[id]
	if !ok {
		return model.SolveResult{}, fmt.Errorf("solve %s: %w", id, ErrNotFound)
	}
	return s.solve, nil
}

// ListSolves returns all solves in chronological order.
func (m *Memory) ListSolves(_ context.Context) ([]model.SolveResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedSolves(func(model.SolveResult) bool { return true }), nil
}

// ListSolvesByDate returns solves dated within [from, to].
func (m *Memory) ListSolvesByDate(_ context.Context, from, to string) ([]model.SolveResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedSolves(func(s model.SolveResult) bool {
		return s.Date >= from && s.Date <= to
	}), nil
}

func (m *Memory) sortedSolves(keep func(model.SolveResult) bool) []model.SolveResult {
	entries := make([]memSolve, 0, len(m.solves))
	for _, e := range m.solves {
		if keep(e.solve) {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].solve.Timestamp != entries[j].solve.Timestamp {
			return entries[i].solve.Timestamp < entries[j].solve.Timestamp
		}
		return entries[i].seq < entries[j].seq
	})
	out := make([]model.SolveResult, len(entries))
	for i, e := range entries {
		out[i] = e.solve
	}
	return out
}

// ClearSolves removes all solves.
func (m *Memory) ClearSolves(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.solves = map[string]memSolve{}
	return nil
}

// PutProgress inserts or replaces a progress record.
func (m *Memory) PutProgress(_ context.Context, p model.AlgorithmProgress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.progress[p.CaseID] = p
	return nil
}

// GetProgress loads the progress of one case.
func (m *Memory) GetProgress(_ context.Context, caseID int) (model.AlgorithmProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.progress[caseID]
	if !ok {
		return model.AlgorithmProgress{}, fmt.Errorf("progress %d: %w", caseID, ErrNotFound)
	}
	return p, nil
}

// ListProgress returns every progress record.
func (m *Memory) ListProgress(_ context.Context) ([]model.AlgorithmProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filterProgress(func(model.AlgorithmProgress) bool { return true }), nil
}

// ListDueProgress returns the records due on or before today.
func (m *Memory) ListDueProgress(_ context.Context, today string) ([]model.AlgorithmProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filterProgress(func(p model.AlgorithmProgress) bool {
		return p.NextReviewDate <= today
	}), nil
}

func (m *Memory) filterProgress(keep func(model.AlgorithmProgress) bool) []model.AlgorithmProgress {
	var out []model.AlgorithmProgress
	for _, p := range m.progress {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CaseID < out[j].CaseID })
	return out
}

// SeedProgress inserts records that are missing.
func (m *Memory) SeedProgress(_ context.Context, records []model.AlgorithmProgress) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inserted := 0
	for _, p := range records {
		if _, ok := m.progress[p.CaseID]; ok {
			continue
		}
		m.progress[p.CaseID] = p
		inserted++
	}
	return inserted, nil
}

// ClearProgress removes all progress records.
func (m *Memory) ClearProgress(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.progress = map[int]model.AlgorithmProgress{}
	return nil
}

// MergeSession merges a session into the stored session of the same date.
func (m *Memory) MergeSession(_ context.Context, s model.TrainingSession) (model.TrainingSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var existing *model.TrainingSession
	if stored, ok := m.sessions[s.Date]; ok {
		existing = &stored
	}
	merged := mergeSession(existing, s)
	m.sessions[s.Date] = merged
	return merged, nil
}

// PutSession replaces the session of the same date.
func (m *Memory) PutSession(_ context.Context, s model.TrainingSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.Date] = s
	return nil
}

// ListSessions returns all sessions by date.
func (m *Memory) ListSessions(ctx context.Context) ([]model.TrainingSession, error) {
	return m.ListSessionsSince(ctx, "")
}

// ListSessionsSince returns sessions dated on or after date.
func (m *Memory) ListSessionsSince(_ context.Context, date string) ([]model.TrainingSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.TrainingSession
	for _, s := range m.sessions {
		if s.Date >= date {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// ClearSessions removes all sessions.
func (m *Memory) ClearSessions(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = map[string]model.TrainingSession{}
	return nil
}

// GetSettings loads stored settings.
func (m *Memory) GetSettings(_ context.Context) (model.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.settings == nil {
		return model.Settings{}, fmt.Errorf("settings: %w", ErrNotFound)
	}
	return *m.settings, nil
}

// PutSettings stores settings.
func (m *Memory) PutSettings(_ context.Context, s model.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = &s
	return nil
}
