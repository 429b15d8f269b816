// Package trainui provides the Bubble Tea algorithm trainer interface.
package trainui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"go.uber.org/zap"

	"github.com/verte-zerg/cubetui/internal/catalog"
	"github.com/verte-zerg/cubetui/internal/cube"
	"github.com/verte-zerg/cubetui/internal/logging"
	"github.com/verte-zerg/cubetui/internal/model"
	"github.com/verte-zerg/cubetui/internal/stats"
	"github.com/verte-zerg/cubetui/internal/training"
	"github.com/verte-zerg/cubetui/internal/tui"
)

const (
	historyDays = 30
	historyRows = 7
	rankedCases = 5
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	algStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A")).Bold(true)
	hiddenStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E")).Italic(true)
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	ratingStyles = map[training.Confidence]lipgloss.Style{
		training.Full:   lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A")),
		training.Light:  lipgloss.NewStyle().Foreground(lipgloss.Color("#FAAD14")),
		training.Failed: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")),
	}
)

// Options configures the trainer UI.
type Options struct {
	Trainer *training.Trainer
	Catalog *catalog.AlgSet
	// ShowNet draws the case state under the setup.
	ShowNet bool
	Logger  *zap.SugaredLogger
	Warning string
}

// Model implements the Bubble Tea trainer UI.
type Model struct {
	trainer *training.Trainer
	set     *catalog.AlgSet
	showNet bool
	log     *zap.SugaredLogger

	revealed bool

	showHistory bool
	history     []model.TrainingSession

	status    string
	statusErr bool

	width  int
	height int
}

// NewModel constructs a trainer UI model. The trainer must already be loaded.
func NewModel(opts Options) *Model {
	m := &Model{
		trainer: opts.Trainer,
		set:     opts.Catalog,
		showNet: opts.ShowNet,
		log:     logging.OrNop(opts.Logger),
		status:  opts.Warning,
	}
	m.statusErr = opts.Warning != ""
	return m
}

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
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch msg.String() {
		case "q", "esc":
			return m, tea.Quit
		case "s":
			m.toggleHistory()
		case " ":
			m.revealed = !m.revealed
		case "1":
			m.rate(training.Full)
		case "2":
			m.rate(training.Light)
		case "3":
			m.rate(training.Failed)
		}
	}
	return m, nil
}

func (m *Model) rate(c training.Confidence) {
	cur, ok := m.trainer.Current()
	if !ok {
		m.setStatus("nothing to review")
		return
	}
	_, _, err := m.trainer.Rate(context.Background(), c)
	m.revealed = false
	if err != nil {
		m.log.Errorw("failed to save review", "case", cur.CaseID, "confidence", c, "error", err)
		m.setError("%v", err)
		return
	}
	m.setStatus(fmt.Sprintf("%s: %s", m.caseName(cur.CaseID), ratingStyles[c].Render(c.String())))
}

func (m *Model) toggleHistory() {
	if m.showHistory {
		m.showHistory = false
		return
	}
	sessions, err := m.trainer.RecentSessions(context.Background(), historyDays)
	if err != nil {
		m.log.Errorw("failed to load training history", "error", err)
		m.setError("%v", err)
		return
	}
	m.history = sessions
	m.showHistory = true
}

func (m *Model) caseName(id int) string {
	if c, ok := m.set.Lookup(id); ok {
		return c.Name
	}
	return fmt.Sprintf("Case %d", id)
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
	content := m.renderCard()
	if m.showHistory {
		content = m.renderHistory()
	}
	footer := m.renderFooter()
	if m.width == 0 || m.height == 0 {
		return content + "\n\n" + footer
	}
	footerHeight := lipgloss.Height(footer)
	if m.height <= footerHeight+1 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-footerHeight, lipgloss.Center, lipgloss.Center, content)
	return body + "\n" + lipgloss.PlaceHorizontal(m.width, lipgloss.Center, footer)
}

func (m *Model) renderCard() string {
	p, ok := m.trainer.Current()
	if !ok {
		return titleStyle.Render("Nothing to review.")
	}
	c, found := m.set.Lookup(p.CaseID)
	if !found {
		return titleStyle.Render(fmt.Sprintf("Case %d is not in the catalog.", p.CaseID))
	}

	width := m.width
	if width > 0 {
		width = int(float64(width) * 0.70)
	}
	blocks := []string{
		titleStyle.Render(c.Name) + labelStyle.Render("  "+c.Category),
		"",
		labelStyle.Render("Setup"),
		tui.RenderMoves(c.Setup, width),
	}
	if m.showNet {
		blocks = append(blocks, "", tui.RenderNet(cube.FromScramble(c.Setup)))
	}
	blocks = append(blocks, "", labelStyle.Render("Algorithm"))
	if m.revealed {
		for _, alg := range c.Algs {
			blocks = append(blocks, algStyle.Render(alg))
		}
	} else {
		blocks = append(blocks, hiddenStyle.Render("press space to reveal"))
	}
	blocks = append(blocks, "", labelStyle.Render(progressLine(p)))
	return lipgloss.JoinVertical(lipgloss.Center, blocks...)
}

func progressLine(p model.AlgorithmProgress) string {
	return fmt.Sprintf("reps %d  interval %dd  ease %.2f  next %s  attempts %d",
		p.Repetitions, p.Interval, p.EaseFactor, p.NextReviewDate, p.TotalAttempts)
}

func (m *Model) renderFooter() string {
	s := m.trainer.Stats()
	segments := []string{
		fmt.Sprintf("Cases %d", s.Total),
		fmt.Sprintf("Mastered %d (%.1f%%)", s.Mastered, s.MasteredPercent),
		fmt.Sprintf("Due %d", s.Due),
		fmt.Sprintf("Learning %d", s.Learning),
		fmt.Sprintf("New %d", s.New),
	}
	if s.TotalAttempts > 0 {
		segments = append(segments, fmt.Sprintf("Success %.1f%%", s.SuccessRate))
	}
	segments = append(segments, fmt.Sprintf("Reviewed %d", m.trainer.Reviewed()))
	// With nothing due the current card is an early review.
	if s.Due == 0 {
		if next := m.trainer.NextReviewDate(); next != "" {
			segments = append(segments, "Next review "+next)
		}
	}
	lines := []string{
		footerStyle.Render(strings.Join(segments, "  ")),
		footerStyle.Render("space: reveal  1: full  2: light  3: failed  s: history  q: quit"),
	}
	if m.status != "" {
		style := footerStyle
		if m.statusErr {
			style = errorStyle
		}
		lines = append(lines, style.Render(m.status))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderHistory() string {
	blocks := []string{titleStyle.Render(fmt.Sprintf("Last %d days", historyDays)), ""}
	if len(m.history) == 0 {
		blocks = append(blocks, hiddenStyle.Render("No reviews yet."))
	} else {
		reviewed := make([]float64, 0, len(m.history))
		for _, s := range m.history {
			reviewed = append(reviewed, float64(s.AlgorithmsReviewed))
		}
		blocks = append(blocks,
			labelStyle.Render("Reviewed ")+stats.Sparkline(reviewed),
			"",
			sessionTable(m.history, historyRows),
		)
	}

	list := m.trainer.List()
	if weak := training.WeakestCases(list, rankedCases); len(weak) > 0 {
		blocks = append(blocks, "", labelStyle.Render("Weakest cases"))
		for _, p := range weak {
			blocks = append(blocks, fmt.Sprintf("%s  %.0f%% of %d", m.caseName(p.CaseID), training.SuccessRate(p)*100, p.TotalAttempts))
		}
	}
	if top := training.MostPracticed(list, rankedCases); len(top) > 0 && top[0].TotalAttempts > 0 {
		blocks = append(blocks, "", labelStyle.Render("Most practiced"))
		for _, p := range top {
			if p.TotalAttempts == 0 {
				break
			}
			blocks = append(blocks, fmt.Sprintf("%s  %d attempts", m.caseName(p.CaseID), p.TotalAttempts))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Center, blocks...)
}

// sessionTable lists the newest limit sessions, newest first.
func sessionTable(sessions []model.TrainingSession, limit int) string {
	rows := make([][]string, 0, limit)
	for i := len(sessions) - 1; i >= 0 && len(rows) < limit; i-- {
		s := sessions[i]
		rows = append(rows, []string{s.Date, fmt.Sprintf("%d", s.AlgorithmsReviewed), fmt.Sprintf("%d", s.MasteredCount)})
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(labelStyle).
		Headers("Date", "Reviewed", "Mastered").
		Rows(rows...).
		String()
}
