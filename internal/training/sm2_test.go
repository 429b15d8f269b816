package training

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/verte-zerg/cubetui/internal/model"
)

var testNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestFullConfidenceSequence(t *testing.T) {
	p := NewProgress(7, "2024-03-10")
	wantIntervals := []int{1, 6, 16}
	wantEase := []float64{2.6, 2.7, 2.8}
	for i := range wantIntervals {
		p = Update(p, Full, testNow)
		if p.Interval != wantIntervals[i] {
			t.Fatalf("step %d: expected interval %d, got %d", i, wantIntervals[i], p.Interval)
		}
		if !approx(p.EaseFactor, wantEase[i]) {
			t.Fatalf("step %d: expected ease %.1f, got %f", i, wantEase[i], p.EaseFactor)
		}
		if p.Repetitions != i+1 {
			t.Fatalf("step %d: expected %d repetitions, got %d", i, i+1, p.Repetitions)
		}
	}
	if p.NextReviewDate != "2024-03-26" {
		t.Fatalf("expected next review 2024-03-26, got %s", p.NextReviewDate)
	}
	if p.TotalAttempts != 3 || p.FullConfidence != 3 {
		t.Fatalf("unexpected counters: %+v", p)
	}
	if p.LastAttempt != "2024-03-10T12:00:00Z" {
		t.Fatalf("unexpected last attempt: %s", p.LastAttempt)
	}
}

func TestFailedResets(t *testing.T) {
	p := model.AlgorithmProgress{CaseID: 1, EaseFactor: 2.8, Interval: 16, Repetitions: 3}
	p = Update(p, Failed, testNow)
	if p.Interval != 0 || p.Repetitions != 0 {
		t.Fatalf("expected reset, got %+v", p)
	}
	if !approx(p.EaseFactor, 2.6) {
		t.Fatalf("expected ease 2.6, got %f", p.EaseFactor)
	}
	if p.NextReviewDate != "2024-03-10" {
		t.Fatalf("failed case is due today, got %s", p.NextReviewDate)
	}
	if p.Failed != 1 {
		t.Fatalf("expected failed count 1, got %d", p.Failed)
	}

	low := model.AlgorithmProgress{CaseID: 1, EaseFactor: 1.4}
	low = Update(low, Failed, testNow)
	if !approx(low.EaseFactor, MinEaseFactor) {
		t.Fatalf("ease must not drop below %.1f, got %f", MinEaseFactor, low.EaseFactor)
	}
}

func TestLightConfidence(t *testing.T) {
	p := NewProgress(1, "2024-03-10")
	p = Update(p, Light, testNow)
	if p.Interval != 1 || p.Repetitions != 1 || !approx(p.EaseFactor, InitialEaseFactor) {
		t.Fatalf("unexpected first light review: %+v", p)
	}
	p.Interval = 16
	p = Update(p, Light, testNow)
	if p.Interval != 19 {
		t.Fatalf("expected interval 19, got %d", p.Interval)
	}
	if p.Repetitions != 2 || p.LightConfidence != 2 {
		t.Fatalf("unexpected counters: %+v", p)
	}
}

func TestIntervalCap(t *testing.T) {
	p := model.AlgorithmProgress{CaseID: 1, EaseFactor: 2.5, Interval: 300, Repetitions: 5}
	p = Update(p, Full, testNow)
	if p.Interval != MaxIntervalDays {
		t.Fatalf("expected interval capped at %d, got %d", MaxIntervalDays, p.Interval)
	}
	if p.NextReviewDate != "2025-03-10" {
		t.Fatalf("unexpected next review: %s", p.NextReviewDate)
	}
}

func TestPriorityAndSelection(t *testing.T) {
	overdue := model.AlgorithmProgress{CaseID: 1, EaseFactor: 2.5, NextReviewDate: "2024-03-08"}
	if got := PriorityScore(overdue, "2024-03-10"); !approx(got, -2.5) {
		t.Fatalf("expected priority -2.5, got %f", got)
	}

	list := []model.AlgorithmProgress{
		overdue,
		{CaseID: 3, EaseFactor: 2.5, NextReviewDate: "2024-03-10"},
		{CaseID: 2, EaseFactor: 2.5, NextReviewDate: "2024-03-10"},
		{CaseID: 4, EaseFactor: 2.5, NextReviewDate: "2024-04-01"},
	}
	next, ok := SelectNext(list, "2024-03-10")
	if !ok || next.CaseID != 2 {
		t.Fatalf("expected case 2, got %+v (ok=%v)", next, ok)
	}

	future := []model.AlgorithmProgress{
		{CaseID: 5, EaseFactor: 2.5, NextReviewDate: "2024-05-01"},
		{CaseID: 6, EaseFactor: 2.5, NextReviewDate: "2024-04-01"},
	}
	next, ok = SelectNext(future, "2024-03-10")
	if !ok || next.CaseID != 6 {
		t.Fatalf("expected soonest case 6, got %+v", next)
	}
	if _, ok := SelectNext(nil, "2024-03-10"); ok {
		t.Fatalf("expected no selection for empty list")
	}
}

func TestCalculateStats(t *testing.T) {
	list := []model.AlgorithmProgress{
		{CaseID: 1, Interval: 30, Repetitions: 5, NextReviewDate: "2024-04-01", TotalAttempts: 5, FullConfidence: 5},
		{CaseID: 2, Interval: 6, Repetitions: 2, NextReviewDate: "2024-03-09", TotalAttempts: 4, LightConfidence: 2, Failed: 1, FullConfidence: 1},
		{CaseID: 3, NextReviewDate: "2024-03-10"},
		{CaseID: 4, NextReviewDate: "2024-03-10", TotalAttempts: 1, Failed: 1},
	}
	s := CalculateStats(list, "2024-03-10")
	if s.Total != 4 || s.Mastered != 1 || s.Due != 3 || s.Learning != 1 || s.New != 2 {
		t.Fatalf("unexpected counts: %+v", s)
	}
	if !approx(s.MasteredPercent, 25) {
		t.Fatalf("expected 25%% mastered, got %f", s.MasteredPercent)
	}
	if s.TotalAttempts != 10 || !approx(s.SuccessRate, 80) {
		t.Fatalf("unexpected success rate: %+v", s)
	}
	if got := NextReviewDate(list); got != "2024-03-09" {
		t.Fatalf("unexpected next review date: %s", got)
	}
	if NextReviewDate(nil) != "" {
		t.Fatalf("expected empty next review date")
	}
}

func TestConfidenceText(t *testing.T) {
	for _, c := range []Confidence{Full, Light, Failed} {
		text, err := c.MarshalText()
		if err != nil {
			t.Fatalf("marshal %v: %v", c, err)
		}
		parsed, err := ParseConfidence(string(text))
		if err != nil || parsed != c {
			t.Fatalf("round trip %v: got %v, %v", c, parsed, err)
		}
	}
	if _, err := ParseConfidence("perfect"); !errors.Is(err, ErrInvalidConfidence) {
		t.Fatalf("expected ErrInvalidConfidence, got %v", err)
	}
	if _, err := Confidence(0).MarshalText(); !errors.Is(err, ErrInvalidConfidence) {
		t.Fatalf("expected ErrInvalidConfidence, got %v", err)
	}
	if Confidence(9).String() != "Confidence(9)" {
		t.Fatalf("unexpected invalid string: %s", Confidence(9))
	}
}

func TestWeakestAndMostPracticed(t *testing.T) {
	list := []model.AlgorithmProgress{
		{CaseID: 1, EaseFactor: 2.5, TotalAttempts: 4, FullConfidence: 4},
		{CaseID: 2, EaseFactor: 1.9, TotalAttempts: 4, FullConfidence: 1, Failed: 3},
		{CaseID: 3, EaseFactor: 2.1, TotalAttempts: 8, FullConfidence: 2, Failed: 6},
		{CaseID: 4, EaseFactor: 2.5},
	}
	weak := WeakestCases(list, 2)
	if len(weak) != 2 || weak[0].CaseID != 2 || weak[1].CaseID != 3 {
		t.Fatalf("unexpected weakest cases: %+v", weak)
	}
	if all := WeakestCases(list, 0); len(all) != 3 {
		t.Fatalf("unattempted cases are not ranked, got %d", len(all))
	}
	top := MostPracticed(list, 2)
	if len(top) != 2 || top[0].CaseID != 3 || top[1].CaseID != 1 {
		t.Fatalf("unexpected most practiced: %+v", top)
	}
}

func TestValidateProgress(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	p := NewProgress(7, "2024-03-10")
	if err := ValidateProgress(p); err != nil {
		t.Fatalf("new progress must be valid: %v", err)
	}
	for i, c := range []Confidence{Full, Full, Light, Failed, Failed, Failed, Failed, Full} {
		p = Update(p, c, now)
		if err := ValidateProgress(p); err != nil {
			t.Fatalf("update %d (%s) produced invalid progress %+v: %v", i, c, p, err)
		}
	}

	bad := []model.AlgorithmProgress{
		{CaseID: 0, EaseFactor: 2.5, NextReviewDate: "2024-03-10"},
		{CaseID: 1, EaseFactor: 1.29, NextReviewDate: "2024-03-10"},
		{CaseID: 1, EaseFactor: 2.5, Interval: 366, Repetitions: 4, NextReviewDate: "2024-03-10"},
		{CaseID: 1, EaseFactor: 2.5, Interval: 6, NextReviewDate: "2024-03-10"},
		{CaseID: 1, EaseFactor: 2.5, Repetitions: 2, NextReviewDate: "2024-03-10"},
		{CaseID: 1, EaseFactor: 2.5, Failed: -1, NextReviewDate: "2024-03-10"},
		{CaseID: 1, EaseFactor: 2.5, NextReviewDate: ""},
	}
	for _, p := range bad {
		if err := ValidateProgress(p); !errors.Is(err, ErrInvalidProgress) {
			t.Fatalf("expected ErrInvalidProgress for %+v, got %v", p, err)
		}
	}
}
