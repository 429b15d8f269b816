package training

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/verte-zerg/cubetui/internal/model"
	"github.com/verte-zerg/cubetui/internal/timer"
)

// Scheduling constants.
const (
	InitialEaseFactor = 2.5
	MinEaseFactor     = 1.3
	MaxIntervalDays   = 365
	// MasteryThresholdDays is the interval at which a case counts as mastered.
	MasteryThresholdDays = 21
)

// ErrInvalidProgress is returned for progress records no review sequence
// can produce.
var ErrInvalidProgress = errors.New("invalid progress")

// ValidateProgress checks the scheduling fields of p: ease at or above the
// floor, interval within the cap, a zero interval exactly when the streak is
// zero, non-negative counters and a calendar next review date.
func ValidateProgress(p model.AlgorithmProgress) error {
	switch {
	case p.CaseID <= 0:
		return fmt.Errorf("%w: case id %d", ErrInvalidProgress, p.CaseID)
	case p.EaseFactor < MinEaseFactor:
		return fmt.Errorf("%w: case %d ease %.2f below %.1f", ErrInvalidProgress, p.CaseID, p.EaseFactor, MinEaseFactor)
	case p.Interval < 0 || p.Interval > MaxIntervalDays:
		return fmt.Errorf("%w: case %d interval %d outside 0..%d", ErrInvalidProgress, p.CaseID, p.Interval, MaxIntervalDays)
	case p.Repetitions < 0 || (p.Interval == 0) != (p.Repetitions == 0):
		return fmt.Errorf("%w: case %d interval %d with %d repetitions", ErrInvalidProgress, p.CaseID, p.Interval, p.Repetitions)
	case p.TotalAttempts < 0 || p.FullConfidence < 0 || p.LightConfidence < 0 || p.Failed < 0:
		return fmt.Errorf("%w: case %d negative counter", ErrInvalidProgress, p.CaseID)
	}
	if _, err := time.Parse(timer.DateLayout, p.NextReviewDate); err != nil {
		return fmt.Errorf("%w: case %d next review %q", ErrInvalidProgress, p.CaseID, p.NextReviewDate)
	}
	return nil
}

// NewProgress returns the initial progress of a case, due today.
func NewProgress(caseID int, today string) model.AlgorithmProgress {
	return model.AlgorithmProgress{
		CaseID:         caseID,
		EaseFactor:     InitialEaseFactor,
		NextReviewDate: today,
	}
}

// Update applies one review to p and returns the new progress. The input is
// not modified. Invalid confidences only count the attempt.
func Update(p model.AlgorithmProgress, c Confidence, now time.Time) model.AlgorithmProgress {
	now = now.UTC()
	updated := p
	updated.TotalAttempts++
	updated.LastAttempt = now.Format(time.RFC3339Nano)

	switch c {
	case Full:
		updated.FullConfidence++
		switch p.Repetitions {
		case 0:
			updated.Interval = 1
		case 1:
			updated.Interval = 6
		default:
			updated.Interval = roundHalfUp(float64(p.Interval) * p.EaseFactor)
		}
		updated.EaseFactor = p.EaseFactor + 0.1
		updated.Repetitions = p.Repetitions + 1
	case Light:
		updated.LightConfidence++
		if p.Repetitions == 0 {
			updated.Interval = 1
		} else {
			updated.Interval = roundHalfUp(float64(p.Interval) * 1.2)
		}
		// Light still extends the streak.
		updated.Repetitions = p.Repetitions + 1
	case Failed:
		updated.Failed++
		updated.Interval = 0
		updated.Repetitions = 0
		updated.EaseFactor = math.Max(MinEaseFactor, p.EaseFactor-0.2)
	}

	if updated.Interval > MaxIntervalDays {
		updated.Interval = MaxIntervalDays
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	updated.NextReviewDate = today.AddDate(0, 0, updated.Interval).Format(timer.DateLayout)
	return updated
}

// IsDue reports whether p is due on today.
func IsDue(p model.AlgorithmProgress, today string) bool {
	return p.NextReviewDate <= today
}

// IsMastered reports whether p has reached the mastery interval.
func IsMastered(p model.AlgorithmProgress) bool {
	return p.Interval >= MasteryThresholdDays
}

// PriorityScore ranks due cases; SelectNext picks the highest score.
func PriorityScore(p model.AlgorithmProgress, today string) float64 {
	return -float64(daysBetween(p.NextReviewDate, today)) - (3 - p.EaseFactor)
}

// daysBetween returns to minus from in whole days. Unparseable dates count as 0.
func daysBetween(from, to string) int {
	a, err := time.Parse(timer.DateLayout, from)
	if err != nil {
		return 0
	}
	b, err := time.Parse(timer.DateLayout, to)
	if err != nil {
		return 0
	}
	return int(math.Floor(b.Sub(a).Hours() / 24))
}

// SelectNext picks the next case to review: the highest priority due case,
// otherwise the one due soonest. It returns false for an empty list.
func SelectNext(list []model.AlgorithmProgress, today string) (model.AlgorithmProgress, bool) {
	if len(list) == 0 {
		return model.AlgorithmProgress{}, false
	}
	var due []model.AlgorithmProgress
	for _, p := range list {
		if IsDue(p, today) {
			due = append(due, p)
		}
	}
	if len(due) == 0 {
		upcoming := append([]model.AlgorithmProgress(nil), list...)
		sort.Slice(upcoming, func(i, j int) bool {
			if upcoming[i].NextReviewDate != upcoming[j].NextReviewDate {
				return upcoming[i].NextReviewDate < upcoming[j].NextReviewDate
			}
			return upcoming[i].CaseID < upcoming[j].CaseID
		})
		return upcoming[0], true
	}
	sort.Slice(due, func(i, j int) bool {
		si, sj := PriorityScore(due[i], today), PriorityScore(due[j], today)
		if si != sj {
			return si > sj
		}
		return due[i].CaseID < due[j].CaseID
	})
	return due[0], true
}

// Stats summarizes progress across all cases.
type Stats struct {
	Total           int
	Mastered        int
	MasteredPercent float64
	Due             int
	Learning        int
	New             int
	TotalAttempts   int
	SuccessRate     float64
	FullTotal       int
	LightTotal      int
	FailedTotal     int
}

// CalculateStats aggregates list as of today.
func CalculateStats(list []model.AlgorithmProgress, today string) Stats {
	s := Stats{Total: len(list)}
	for _, p := range list {
		mastered := IsMastered(p)
		if mastered {
			s.Mastered++
		}
		if IsDue(p, today) {
			s.Due++
		}
		if p.Repetitions > 0 && !mastered {
			s.Learning++
		}
		if p.Repetitions == 0 {
			s.New++
		}
		s.TotalAttempts += p.TotalAttempts
		s.FullTotal += p.FullConfidence
		s.LightTotal += p.LightConfidence
		s.FailedTotal += p.Failed
	}
	if s.Total > 0 {
		s.MasteredPercent = float64(s.Mastered) / float64(s.Total) * 100
	}
	if s.TotalAttempts > 0 {
		s.SuccessRate = float64(s.FullTotal+s.LightTotal) / float64(s.TotalAttempts) * 100
	}
	return s
}

// MasteredCount counts mastered cases.
func MasteredCount(list []model.AlgorithmProgress) int {
	n := 0
	for _, p := range list {
		if IsMastered(p) {
			n++
		}
	}
	return n
}

// NextReviewDate returns the earliest next review date, or "" for an empty list.
func NextReviewDate(list []model.AlgorithmProgress) string {
	next := ""
	for _, p := range list {
		if next == "" || p.NextReviewDate < next {
			next = p.NextReviewDate
		}
	}
	return next
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
