package training

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/verte-zerg/cubetui/internal/model"
	"github.com/verte-zerg/cubetui/internal/store"
	"github.com/verte-zerg/cubetui/internal/timer"
)

// ErrNoCurrentCase is returned by Rate when there is nothing to review.
var ErrNoCurrentCase = errors.New("no case selected")

// Store is the storage the trainer needs.
type Store interface {
	store.ProgressStore
	store.SessionStore
}

// Options configures a Trainer.
type Options struct {
	Now    func() time.Time
	Logger *zap.SugaredLogger
}

// Trainer drives a review session. It owns the in-memory progress of every
// case and writes each change through to storage.
type Trainer struct {
	store    Store
	now      func() time.Time
	log      *zap.SugaredLogger
	progress map[int]*model.AlgorithmProgress
	current  int
	hasCard  bool
	reviewed int
}

// NewTrainer creates a trainer over st.
func NewTrainer(st Store, opts Options) *Trainer {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	return &Trainer{
		store:    st,
		now:      opts.Now,
		log:      opts.Logger,
		progress: map[int]*model.AlgorithmProgress{},
	}
}

func (t *Trainer) today() string {
	return timer.Today(t.now())
}

// Load seeds a progress record for every case id not stored yet, loads all
// progress and selects the first card.
func (t *Trainer) Load(ctx context.Context, caseIDs []int) error {
	today := t.today()
	seed := make([]model.AlgorithmProgress, 0, len(caseIDs))
	for _, id := range caseIDs {
		seed = append(seed, NewProgress(id, today))
	}
	inserted, err := t.store.SeedProgress(ctx, seed)
	if err != nil {
		return fmt.Errorf("failed to seed progress: %w", err)
	}
	if inserted > 0 {
		t.log.Infow("seeded training progress", "cases", inserted)
	}
	stored, err := t.store.ListProgress(ctx)
	if err != nil {
		return fmt.Errorf("failed to load progress: %w", err)
	}

	known := make(map[int]bool, len(caseIDs))
	for _, id := range caseIDs {
		known[id] = true
	}
	t.progress = make(map[int]*model.AlgorithmProgress, len(stored))
	for i := range stored {
		// Progress of cases dropped from the catalog stays stored but is not reviewed.
		if len(known) > 0 && !known[stored[i].CaseID] {
			continue
		}
		p := stored[i]
		t.progress[p.CaseID] = &p
	}
	t.selectNext()
	return nil
}

// Current returns the case under review.
func (t *Trainer) Current() (model.AlgorithmProgress, bool) {
	if !t.hasCard {
		return model.AlgorithmProgress{}, false
	}
	p, ok := t.progress[t.current]
	if !ok {
		return model.AlgorithmProgress{}, false
	}
	return *p, true
}

// Rate records a review of the current case and advances to the next one.
// The in-memory state is updated even when persisting fails; the storage
// error is returned alongside the next card.
func (t *Trainer) Rate(ctx context.Context, c Confidence) (model.AlgorithmProgress, bool, error) {
	if !c.IsValid() {
		return model.AlgorithmProgress{}, false, fmt.Errorf("%w: %d", ErrInvalidConfidence, int(c))
	}
	cur, ok := t.Current()
	if !ok {
		return model.AlgorithmProgress{}, false, ErrNoCurrentCase
	}

	updated := Update(cur, c, t.now())
	t.progress[updated.CaseID] = &updated
	t.reviewed++

	var errs []error
	if err := t.store.PutProgress(ctx, updated); err != nil {
		t.log.Warnw("failed to save progress", "case", updated.CaseID, "error", err)
		errs = append(errs, fmt.Errorf("failed to save progress: %w", err))
	}
	session := model.TrainingSession{
		Date:               t.today(),
		AlgorithmsReviewed: 1,
		MasteredCount:      MasteredCount(t.List()),
	}
	if _, err := t.store.MergeSession(ctx, session); err != nil {
		t.log.Warnw("failed to record session", "date", session.Date, "error", err)
		errs = append(errs, fmt.Errorf("failed to record session: %w", err))
	}

	t.selectNext()
	next, ok := t.Current()
	return next, ok, errors.Join(errs...)
}

func (t *Trainer) selectNext() {
	next, ok := SelectNext(t.List(), t.today())
	t.current = next.CaseID
	t.hasCard = ok
}

// List returns all progress ordered by case id.
func (t *Trainer) List() []model.AlgorithmProgress {
	out := make([]model.AlgorithmProgress, 0, len(t.progress))
	for _, p := range t.progress {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CaseID < out[j].CaseID })
	return out
}

// Stats summarizes the loaded progress.
func (t *Trainer) Stats() Stats {
	return CalculateStats(t.List(), t.today())
}

// Reviewed returns how many reviews were made through this trainer.
func (t *Trainer) Reviewed() int {
	return t.reviewed
}

// NextReviewDate returns the earliest scheduled review, "" when nothing is loaded.
func (t *Trainer) NextReviewDate() string {
	return NextReviewDate(t.List())
}

// RecentSessions returns the sessions of the last days days.
func (t *Trainer) RecentSessions(ctx context.Context, days int) ([]model.TrainingSession, error) {
	since := timer.Today(t.now().Add(-time.Duration(days) * 24 * time.Hour))
	sessions, err := t.store.ListSessionsSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}
	return sessions, nil
}
