package tui

import "time"

const (
	// Longest wait for the first auto-repeat. X11 defaults to 660ms.
	defaultInitialGap = 800 * time.Millisecond
	defaultRepeatGap  = 150 * time.Millisecond
)

// pressTracker infers key releases from gaps between auto-repeat events,
// since terminals report presses only.
type pressTracker struct {
	initialGap time.Duration
	repeatGap  time.Duration

	down      bool
	repeats   int
	pressedAt time.Time
	last      time.Time
	seq       uint64
}

func newPressTracker(initialGap, repeatGap time.Duration) pressTracker {
	if initialGap <= 0 {
		initialGap = defaultInitialGap
	}
	if repeatGap <= 0 {
		repeatGap = defaultRepeatGap
	}
	return pressTracker{initialGap: initialGap, repeatGap: repeatGap}
}

// press records a key event and reports whether it starts a new press.
func (p *pressTracker) press(now time.Time) bool {
	p.last = now
	if p.down {
		p.repeats++
		return false
	}
	p.down = true
	p.repeats = 0
	p.pressedAt = now
	p.seq++
	return true
}

func (p *pressTracker) gap() time.Duration {
	if p.repeats == 0 {
		return p.initialGap
	}
	return p.repeatGap
}

// heldFor reports how long the key has been seen down.
func (p *pressTracker) heldFor() time.Duration {
	if !p.down {
		return 0
	}
	return p.last.Sub(p.pressedAt)
}

// released marks the key up once no event arrived for a full gap.
func (p *pressTracker) released(now time.Time) bool {
	if !p.down || now.Sub(p.last) < p.gap() {
		return false
	}
	p.down = false
	return true
}

// wait returns the time left before released can succeed.
func (p *pressTracker) wait(now time.Time) time.Duration {
	d := p.gap() - now.Sub(p.last)
	if d < time.Millisecond {
		return time.Millisecond
	}
	return d
}

// reset forgets the current press; pending checks become stale.
func (p *pressTracker) reset() {
	p.down = false
	p.repeats = 0
	p.seq++
}
