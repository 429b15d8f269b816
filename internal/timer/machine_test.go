package timer

import (
	"fmt"
	"testing"
	"time"

	"github.com/verte-zerg/cubetui/internal/model"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Since(start time.Time) time.Duration {
	return c.now.Sub(start)
}

func (c *fakeClock) advance(d time.Duration) {
	c.now = c.now.Add(d)
}

type seqScrambles struct {
	n int
}

func (s *seqScrambles) Generate() string {
	s.n++
	return fmt.Sprintf("R U%d", s.n)
}

func newTestMachine(t *testing.T) (*Machine, *fakeClock, *[]model.SolveResult) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 3, 10, 23, 59, 50, 0, time.UTC)}
	var solves []model.SolveResult
	ids := 0
	m := NewMachine(&seqScrambles{}, Options{
		HoldTime: 500 * time.Millisecond,
		Clock:    clock,
		IDs: func() string {
			ids++
			return fmt.Sprintf("id-%d", ids)
		},
		OnSolve: func(r model.SolveResult) {
			solves = append(solves, r)
		},
	})
	return m, clock, &solves
}

func TestMachineFullSolve(t *testing.T) {
	m, clock, solves := newTestMachine(t)
	if m.Scramble() != "R U1" {
		t.Fatalf("expected seeded scramble, got %q", m.Scramble())
	}

	token, d, ok := m.InputDown()
	if !ok || d != 500*time.Millisecond {
		t.Fatalf("expected hold timer of 500ms, got ok=%v d=%v", ok, d)
	}
	if m.State() != Holding {
		t.Fatalf("expected holding, got %s", m.State())
	}
	clock.advance(d)
	if !m.HoldElapsed(token) {
		t.Fatalf("expected hold to complete")
	}
	if m.State() != Ready {
		t.Fatalf("expected ready, got %s", m.State())
	}

	m.InputUp()
	if m.State() != Running {
		t.Fatalf("expected running, got %s", m.State())
	}
	clock.advance(12345 * time.Millisecond)
	if got := m.Elapsed(); got != 12345 {
		t.Fatalf("expected live elapsed 12345, got %d", got)
	}

	if _, _, ok := m.InputDown(); ok {
		t.Fatalf("stop press must not arm a hold")
	}
	if m.State() != Stopped {
		t.Fatalf("expected stopped, got %s", m.State())
	}
	if len(*solves) != 1 {
		t.Fatalf("expected one solve, got %d", len(*solves))
	}
	got := (*solves)[0]
	if got.Time != 12345 || got.Penalty != model.PenaltyNone || got.Scramble != "R U1" || got.ID != "id-1" {
		t.Fatalf("unexpected solve: %+v", got)
	}
	if got.Date != "2024-03-11" {
		t.Fatalf("expected UTC date of stop instant, got %s", got.Date)
	}
	if m.Scramble() != "R U2" {
		t.Fatalf("expected next scramble, got %q", m.Scramble())
	}

	m.InputUp()
	if m.State() != Idle {
		t.Fatalf("expected idle after release, got %s", m.State())
	}
}

func TestMachineFalseStart(t *testing.T) {
	m, clock, solves := newTestMachine(t)
	token, _, _ := m.InputDown()
	clock.advance(200 * time.Millisecond)
	m.InputUp()
	if m.State() != Idle {
		t.Fatalf("expected idle after false start, got %s", m.State())
	}
	clock.advance(300 * time.Millisecond)
	if m.HoldElapsed(token) {
		t.Fatalf("cancelled hold must not fire")
	}
	if m.State() != Idle {
		t.Fatalf("expected idle, got %s", m.State())
	}
	if len(*solves) != 0 {
		t.Fatalf("false start must not record a solve")
	}
}

func TestMachineStaleTokenAfterRepress(t *testing.T) {
	m, _, _ := newTestMachine(t)
	first, _, _ := m.InputDown()
	m.InputUp()
	second, _, _ := m.InputDown()
	if m.HoldElapsed(first) {
		t.Fatalf("stale token must be ignored")
	}
	if !m.HoldElapsed(second) {
		t.Fatalf("current token must complete hold")
	}
}

func TestMachineResetDiscardsRun(t *testing.T) {
	m, clock, solves := newTestMachine(t)
	token, _, _ := m.InputDown()
	m.HoldElapsed(token)
	m.InputUp()
	gen := m.RunGeneration()
	clock.advance(5 * time.Second)
	m.Reset()
	if m.State() != Idle {
		t.Fatalf("expected idle after reset, got %s", m.State())
	}
	if m.RunGeneration() == gen {
		t.Fatalf("reset must invalidate refresh generation")
	}
	if m.Elapsed() != 0 {
		t.Fatalf("expected zero elapsed after reset")
	}
	if len(*solves) != 0 {
		t.Fatalf("reset must discard the run")
	}
}

func TestMachineResetCancelsHold(t *testing.T) {
	m, _, _ := newTestMachine(t)
	token, _, _ := m.InputDown()
	m.Reset()
	if m.HoldElapsed(token) {
		t.Fatalf("reset must cancel pending hold")
	}
	if m.State() != Idle {
		t.Fatalf("expected idle, got %s", m.State())
	}
}

func TestMachineNewScrambleIgnoredWhileRunning(t *testing.T) {
	m, _, _ := newTestMachine(t)
	token, _, _ := m.InputDown()
	m.HoldElapsed(token)
	m.InputUp()
	before := m.Scramble()
	m.NewScramble()
	if m.Scramble() != before {
		t.Fatalf("scramble changed during run")
	}
}

func TestMachineLastPenalty(t *testing.T) {
	m, _, _ := newTestMachine(t)
	token, _, _ := m.InputDown()
	m.HoldElapsed(token)
	m.InputUp()
	m.InputDown()
	m.SetLastPenalty(model.PenaltyPlusTwo)
	last, ok := m.LastResult()
	if !ok || last.Penalty != model.PenaltyPlusTwo {
		t.Fatalf("expected +2 on last result, got %+v", last)
	}
	m.ClearLastResult()
	if _, ok := m.LastResult(); ok {
		t.Fatalf("expected no last result")
	}
}

func TestMachineInputUpAtBackdatesStart(t *testing.T) {
	m, clock, solves := newTestMachine(t)
	token, d, _ := m.InputDown()
	clock.advance(d)
	m.HoldElapsed(token)

	releasedAt := clock.now
	clock.advance(150 * time.Millisecond)
	m.InputUpAt(releasedAt)
	clock.advance(9850 * time.Millisecond)
	m.InputDown()
	if len(*solves) != 1 || (*solves)[0].Time != 10000 {
		t.Fatalf("expected 10000ms from the release instant, got %+v", *solves)
	}

	m.InputUp()
	m.InputDown()
	m.InputUp()
	token, d, _ = m.InputDown()
	clock.advance(d)
	m.HoldElapsed(token)
	m.InputUpAt(clock.now.Add(time.Second))
	clock.advance(2 * time.Second)
	m.InputDown()
	if len(*solves) != 2 || (*solves)[1].Time != 2000 {
		t.Fatalf("a future release must clamp to now, got %+v", *solves)
	}
}
