package timer

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/cubetui/internal/model"
)

// State is a timer lifecycle state.
type State int

// Timer states.
const (
	Idle State = iota
	Holding
	Ready
	Running
	Stopped
)

var stateNames = [...]string{
	Idle:    "idle",
	Holding: "holding",
	Ready:   "ready",
	Running: "running",
	Stopped: "stopped",
}

// String returns the lowercase state name.
func (s State) String() string {
	if s >= Idle && s <= Stopped {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Clock is the time source. Since must use the monotonic reading of start.
type Clock interface {
	Now() time.Time
	Since(start time.Time) time.Duration
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) Since(start time.Time) time.Duration {
	return time.Since(start)
}

// ScrambleSource produces scrambles for upcoming solves.
type ScrambleSource interface {
	Generate() string
}

// IDGenerator produces unique solve identifiers.
type IDGenerator func() string

// UUIDv7 returns time-sortable solve IDs.
func UUIDv7() IDGenerator {
	return func() string {
		return uuid.Must(uuid.NewV7()).String()
	}
}

// HoldToken identifies one armed hold timer. Tokens from cancelled holds are ignored.
type HoldToken uint64

// Options configures a Machine. Zero fields fall back to defaults.
type Options struct {
	HoldTime time.Duration
	Clock    Clock
	IDs      IDGenerator
	// OnSolve is called synchronously with every completed solve.
	OnSolve func(model.SolveResult)
}

// Machine drives the idle, holding, ready, running, stopped lifecycle.
// It is not safe for concurrent use; the host serializes all calls.
type Machine struct {
	holdTime  time.Duration
	clock     Clock
	ids       IDGenerator
	scrambles ScrambleSource
	onSolve   func(model.SolveResult)

	state      State
	inputDown  bool
	holdToken  HoldToken
	holdArmed  bool
	runGen     uint64
	startedAt  time.Time
	runningFor string
	scramble   string
	lastResult *model.SolveResult
}

// NewMachine builds a Machine and seeds its first scramble.
func NewMachine(scrambles ScrambleSource, opts Options) *Machine {
	m := &Machine{
		holdTime:  opts.HoldTime,
		clock:     opts.Clock,
		ids:       opts.IDs,
		scrambles: scrambles,
		onSolve:   opts.OnSolve,
		state:     Idle,
	}
	if m.holdTime <= 0 {
		m.holdTime = model.DefaultHoldTimeMs * time.Millisecond
	}
	if m.clock == nil {
		m.clock = systemClock{}
	}
	if m.ids == nil {
		m.ids = UUIDv7()
	}
	m.scramble = scrambles.Generate()
	return m
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// Scramble returns the scramble for the next (or current) solve.
func (m *Machine) Scramble() string {
	if m.state == Running {
		return m.runningFor
	}
	return m.scramble
}

// LastResult returns the most recently completed solve, if any.
func (m *Machine) LastResult() (model.SolveResult, bool) {
	if m.lastResult == nil {
		return model.SolveResult{}, false
	}
	return *m.lastResult, true
}

// SetLastPenalty updates the penalty of the last result held by the machine.
func (m *Machine) SetLastPenalty(p model.Penalty) {
	if m.lastResult != nil {
		m.lastResult.Penalty = p
	}
}

// ClearLastResult forgets the last result, e.g. after it was deleted.
func (m *Machine) ClearLastResult() {
	m.lastResult = nil
}

// HoldTime returns the configured hold duration.
func (m *Machine) HoldTime() time.Duration {
	return m.holdTime
}

// RunGeneration identifies the current run for display refresh ticks.
func (m *Machine) RunGeneration() uint64 {
	return m.runGen
}

// Elapsed returns the live elapsed milliseconds while running, or zero.
func (m *Machine) Elapsed() int64 {
	if m.state != Running {
		return 0
	}
	return m.clock.Since(m.startedAt).Milliseconds()
}

// NewScramble replaces the pending scramble. Ignored while a solve is in progress.
func (m *Machine) NewScramble() {
	if m.state == Running || m.state == Ready {
		return
	}
	m.scramble = m.scrambles.Generate()
}

// InputDown handles a press. When a hold timer is armed it returns its token and
// duration; the host must call HoldElapsed with that token once the duration passes.
func (m *Machine) InputDown() (HoldToken, time.Duration, bool) {
	m.inputDown = true
	switch m.state {
	case Running:
		m.stop()
		return 0, 0, false
	case Idle, Stopped:
		m.state = Holding
		m.holdToken++
		m.holdArmed = true
		return m.holdToken, m.holdTime, true
	default:
		return 0, 0, false
	}
}

// HoldElapsed completes a hold. It reports whether the machine became ready.
func (m *Machine) HoldElapsed(token HoldToken) bool {
	if !m.holdArmed || token != m.holdToken {
		return false
	}
	m.holdArmed = false
	if m.state != Holding || !m.inputDown {
		return false
	}
	m.state = Ready
	return true
}

// InputUp handles a release happening now.
func (m *Machine) InputUp() {
	m.InputUpAt(m.clock.Now())
}

// InputUpAt handles a release observed late; a solve started from Ready is
// timed from at. A zero or future at means now.
func (m *Machine) InputUpAt(at time.Time) {
	m.inputDown = false
	m.cancelHold()
	switch m.state {
	case Ready:
		if now := m.clock.Now(); at.IsZero() || at.After(now) {
			at = now
		}
		m.startedAt = at
		m.runningFor = m.scramble
		m.runGen++
		m.state = Running
	case Holding, Stopped:
		// A release while holding is a false start; a release after stopping arms the next solve.
		m.state = Idle
	}
}

// Reset forces idle, cancelling any pending hold and discarding an in-progress run.
func (m *Machine) Reset() {
	m.cancelHold()
	if m.state == Running {
		m.runGen++
	}
	m.inputDown = false
	m.startedAt = time.Time{}
	m.runningFor = ""
	m.lastResult = nil
	m.state = Idle
}

func (m *Machine) cancelHold() {
	if m.holdArmed {
		m.holdArmed = false
		m.holdToken++
	}
}

func (m *Machine) stop() {
	elapsed := m.clock.Since(m.startedAt).Milliseconds()
	if elapsed < 0 {
		elapsed = 0
	}
	now := m.clock.Now()
	ts := now.Unix()
	result := model.SolveResult{
		ID:        m.ids(),
		Time:      elapsed,
		Penalty:   model.PenaltyNone,
		Scramble:  m.runningFor,
		Timestamp: ts,
		Date:      DateString(ts),
	}
	m.lastResult = &result
	m.runGen++
	m.startedAt = time.Time{}
	m.runningFor = ""
	m.scramble = m.scrambles.Generate()
	m.state = Stopped
	if m.onSolve != nil {
		m.onSolve(result)
	}
}
