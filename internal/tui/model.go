// Package tui provides the Bubble Tea timer interface.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/verte-zerg/cubetui/internal/cube"
	"github.com/verte-zerg/cubetui/internal/logging"
	"github.com/verte-zerg/cubetui/internal/model"
	statsPkg "github.com/verte-zerg/cubetui/internal/stats"
	"github.com/verte-zerg/cubetui/internal/store"
	"github.com/verte-zerg/cubetui/internal/timer"
)

const (
	frameInterval   = 31 * time.Millisecond
	sparklineLength = 24
)

// Options configures the timer UI.
type Options struct {
	Settings  model.Settings
	Store     store.SolveStore
	Scrambles timer.ScrambleSource
	Clock     timer.Clock
	Logger    *zap.SugaredLogger
	// Warning is shown in the status line at startup.
	Warning string
	// InitialGap and RepeatGap tune release detection; zero uses defaults.
	InitialGap time.Duration
	RepeatGap  time.Duration
}

type holdMsg struct {
	token timer.HoldToken
}

type releaseMsg struct {
	seq uint64
}

type frameMsg struct {
	gen uint64
}

// Model implements the Bubble Tea timer UI.
type Model struct {
	settings model.Settings
	store    store.SolveStore
	clock    timer.Clock
	log      *zap.SugaredLogger
	machine  *timer.Machine
	keys     pressTracker

	// holdToken is the last armed hold. holdDue is set when its timer fired
	// before the key was seen down for the full hold time.
	holdToken timer.HoldToken
	holdDue   bool

	solves []model.SolveResult

	status    string
	statusErr bool

	width  int
	height int
}

var (
	timeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	holdingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true)
	readyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A")).Bold(true)
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
)

// NewModel constructs a timer TUI model and loads stored solves.
func NewModel(opts Options) *Model {
	m := &Model{
		settings: opts.Settings,
		store:    opts.Store,
		clock:    opts.Clock,
		log:      logging.OrNop(opts.Logger),
		keys:     newPressTracker(opts.InitialGap, opts.RepeatGap),
		status:   opts.Warning,
	}
	m.statusErr = opts.Warning != ""
	m.machine = timer.NewMachine(opts.Scrambles, timer.Options{
		HoldTime: time.Duration(m.settings.HoldTimeMs) * time.Millisecond,
		Clock:    opts.Clock,
		OnSolve:  m.saveSolve,
	})
	if m.clock == nil {
		m.clock = systemClock{}
	}
	m.loadSolves()
	return m
}

type systemClock struct{}

func (systemClock) Now() time.Time                      { return time.Now() }
func (systemClock) Since(start time.Time) time.Duration { return time.Since(start) }

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case holdMsg:
		return m, m.handleHold(msg.token)
	case releaseMsg:
		return m, m.handleRelease(msg.seq)
	case frameMsg:
		if m.machine.State() == timer.Running && msg.gen == m.machine.RunGeneration() {
			return m, m.frame()
		}
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	if msg.Type == tea.KeySpace {
		return m, m.handleSpace()
	}
	if msg.Type == tea.KeyEsc {
		// Cancel from any state; a running solve is discarded.
		m.machine.Reset()
		m.keys.reset()
		m.holdDue = false
		m.setStatus("")
		return m, nil
	}
	if m.machine.State() == timer.Running {
		// Any other key stops a running solve.
		m.machine.InputDown()
		m.machine.InputUp()
		m.keys.reset()
		return m, nil
	}
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "n":
		m.machine.NewScramble()
	case "2":
		m.togglePenalty(model.PenaltyPlusTwo)
	case "d":
		m.togglePenalty(model.PenaltyDNF)
	case "x":
		m.deleteLast()
	}
	return m, nil
}

func (m *Model) handleSpace() tea.Cmd {
	now := m.clock.Now()
	if !m.keys.press(now) {
		if m.holdDue && m.keys.heldFor() >= m.machine.HoldTime() {
			m.holdDue = false
			m.machine.HoldElapsed(m.holdToken)
		}
		return nil
	}
	m.holdDue = false
	token, d, armed := m.machine.InputDown()
	cmds := []tea.Cmd{m.releaseCheck(m.keys.gap())}
	if armed {
		m.holdToken = token
		cmds = append(cmds, tea.Tick(d, func(time.Time) tea.Msg {
			return holdMsg{token: token}
		}))
	}
	return tea.Batch(cmds...)
}

func (m *Model) handleHold(token timer.HoldToken) tea.Cmd {
	if m.machine.State() != timer.Holding {
		return nil
	}
	if m.keys.heldFor() >= m.machine.HoldTime() {
		m.machine.HoldElapsed(token)
		return nil
	}
	// Wait for a repeat that proves the key is still down.
	m.holdDue = token == m.holdToken
	return nil
}

func (m *Model) handleRelease(seq uint64) tea.Cmd {
	if seq != m.keys.seq {
		return nil
	}
	now := m.clock.Now()
	if !m.keys.released(now) {
		return m.releaseCheck(m.keys.wait(now))
	}
	m.holdDue = false
	// The key went up somewhere after its last event; that event is the
	// closest observed instant.
	m.machine.InputUpAt(m.keys.last)
	if m.machine.State() == timer.Running {
		return m.frame()
	}
	return nil
}

func (m *Model) releaseCheck(d time.Duration) tea.Cmd {
	seq := m.keys.seq
	return tea.Tick(d, func(time.Time) tea.Msg {
		return releaseMsg{seq: seq}
	})
}

func (m *Model) frame() tea.Cmd {
	gen := m.machine.RunGeneration()
	return tea.Tick(frameInterval, func(time.Time) tea.Msg {
		return frameMsg{gen: gen}
	})
}

func (m *Model) loadSolves() {
	solves, err := m.store.ListSolves(context.Background())
	if err != nil {
		m.log.Warnw("failed to load solves", "error", err)
		m.setError("failed to load solves: %v", err)
		return
	}
	m.solves = solves
}

func (m *Model) saveSolve(r model.SolveResult) {
	m.solves = append(m.solves, r)
	if err := m.store.AddSolve(context.Background(), r); err != nil {
		m.log.Errorw("failed to save solve", "id", r.ID, "ms", r.Time, "error", err)
		m.setError("failed to save solve: %v", err)
		return
	}
	m.log.Debugw("solve saved", "id", r.ID, "ms", r.Time)
	m.setStatus("")
}

func (m *Model) togglePenalty(p model.Penalty) {
	last, ok := m.machine.LastResult()
	if !ok {
		m.setStatus("no solve to change")
		return
	}
	if last.Penalty == p {
		last.Penalty = model.PenaltyNone
	} else {
		last.Penalty = p
	}
	m.machine.SetLastPenalty(last.Penalty)
	m.replaceSolve(last)
	if err := m.store.UpdateSolve(context.Background(), last); err != nil {
		m.log.Errorw("failed to update solve", "id", last.ID, "error", err)
		m.setError("failed to update solve: %v", err)
		return
	}
	m.setStatus(fmt.Sprintf("penalty: %s", last.Penalty))
}

func (m *Model) deleteLast() {
	last, ok := m.machine.LastResult()
	if !ok {
		m.setStatus("no solve to delete")
		return
	}
	m.machine.ClearLastResult()
	for i := range m.solves {
		if m.solves[i].ID == last.ID {
			m.solves = append(m.solves[:i], m.solves[i+1:]...)
			break
		}
	}
	if err := m.store.DeleteSolve(context.Background(), last.ID); err != nil {
		m.log.Errorw("failed to delete solve", "id", last.ID, "error", err)
		m.setError("failed to delete solve: %v", err)
		return
	}
	m.setStatus("solve deleted")
}

func (m *Model) replaceSolve(s model.SolveResult) {
	for i := len(m.solves) - 1; i >= 0; i-- {
		if m.solves[i].ID == s.ID {
			m.solves[i] = s
			return
		}
	}
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *Model) setError(format string, args ...any) {
	m.status = fmt.Sprintf(format, args...)
	m.statusErr = true
}

// View implements tea.Model.
func (m *Model) View() string {
	blocks := []string{}
	scr := m.machine.Scramble()
	if m.settings.ShowScramble {
		blocks = append(blocks, m.renderScramble(scr), "")
	}
	blocks = append(blocks, m.renderTime(), hintStyle.Render(m.renderHint()))
	if m.settings.ShowVisualization && m.machine.State() != timer.Running {
		blocks = append(blocks, "", RenderNet(cube.FromScramble(scr)))
	}
	content := lipgloss.JoinVertical(lipgloss.Center, blocks...)
	if m.width == 0 || m.height == 0 {
		return content + "\n" + m.renderFooter()
	}

	footer := m.renderFooter()
	footerHeight := lipgloss.Height(footer)
	if m.height <= footerHeight+1 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-footerHeight, lipgloss.Center, lipgloss.Center, content)
	footerLines := lipgloss.PlaceHorizontal(m.width, lipgloss.Center, footer)
	return body + "\n" + footerLines
}

func (m *Model) renderScramble(scr string) string {
	width := m.width
	if width > 0 {
		width = int(float64(width) * 0.70)
	}
	return RenderMoves(scr, width)
}

func (m *Model) renderTime() string {
	precision := m.settings.DisplayPrecision
	zero := timer.FormatTime(0, precision)
	switch m.machine.State() {
	case timer.Holding:
		return holdingStyle.Render(zero)
	case timer.Ready:
		return readyStyle.Render(zero)
	case timer.Running:
		if m.settings.HideTimeWhileRunning {
			return timeStyle.Render("solving")
		}
		return timeStyle.Render(timer.FormatTime(m.machine.Elapsed(), precision))
	default:
		if last, ok := m.machine.LastResult(); ok {
			return timeStyle.Render(timer.FormatSolveTime(last.Time, last.Penalty, precision))
		}
		return timeStyle.Render(zero)
	}
}

func (m *Model) renderHint() string {
	switch m.machine.State() {
	case timer.Holding:
		return "keep holding"
	case timer.Ready:
		return "release to start"
	case timer.Running:
		return "press any key to stop"
	default:
		return "hold space to start"
	}
}

func (m *Model) renderFooter() string {
	summary := statsPkg.Summarize(m.solves)
	precision := m.settings.DisplayPrecision
	segments := []string{fmt.Sprintf("Solves %d", summary.Count)}
	if summary.Best != nil {
		segments = append(segments, "Best "+timer.FormatSolveTime(summary.Best.Raw, summary.Best.Penalty, precision))
	}
	if summary.Ao5 != nil {
		segments = append(segments, "Ao5 "+statsPkg.FormatAverage(summary.Ao5, precision))
	}
	if summary.Ao12 != nil {
		segments = append(segments, "Ao12 "+statsPkg.FormatAverage(summary.Ao12, precision))
	}
	if summary.Mean != nil {
		segments = append(segments, "Mean "+timer.FormatTime(*summary.Mean, precision))
	}
	if spark := statsPkg.RecentSparkline(statsPkg.ComputeTimes(m.solves), sparklineLength); spark != "" {
		segments = append(segments, "["+spark+"]")
	}
	lines := []string{footerStyle.Render(strings.Join(segments, "  "))}
	lines = append(lines, footerStyle.Render("space: time  2: +2  d: DNF  x: delete  n: new scramble  esc: reset  q: quit"))
	if m.status != "" {
		style := footerStyle
		if m.statusErr {
			style = errorStyle
		}
		lines = append(lines, style.Render(m.status))
	}
	return strings.Join(lines, "\n")
}
