// Package statsui provides the Bubble Tea stats interface.
package statsui

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"go.uber.org/zap"

	"github.com/verte-zerg/cubetui/internal/logging"
	"github.com/verte-zerg/cubetui/internal/model"
	"github.com/verte-zerg/cubetui/internal/stats"
	"github.com/verte-zerg/cubetui/internal/store"
	"github.com/verte-zerg/cubetui/internal/timer"
)

const (
	tabOverview = iota
	tabTimes
	tabDaily
)

const (
	plotHeight = 10
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
	modalStyle      = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A")).
			Padding(1, 2)
)

var rangeCycle = []stats.Range{stats.RangeAll, stats.RangeWeek, stats.RangeMonth}

// Options configures the stats UI.
type Options struct {
	Store     store.SolveStore
	Config    model.StatsConfig
	Precision int
	Now       func() time.Time
	Logger    *zap.SugaredLogger
}

// Model implements the Bubble Tea stats UI.
type Model struct {
	store     store.SolveStore
	cfg       model.StatsConfig
	precision int
	now       func() time.Time
	log       *zap.SugaredLogger

	report stats.Report
	errMsg string
	status string

	tabs        []string
	activeTab   int
	viewports   []viewport.Model
	timesTable  table.Model
	timesLayout tableLayout
	// rowIDs maps table rows (newest first) to solve ids.
	rowIDs []string

	width  int
	height int

	filterMode   bool
	filterInputs []textinput.Model
	filterIndex  int
	filterError  string

	confirmDelete bool
	deleteID      string
	deleteLabel   string
}

type tableLayout struct {
	width    int
	height   int
	rowCount int
}

// NewModel constructs a stats UI model.
func NewModel(opts Options) *Model {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	m := &Model{
		store:     opts.Store,
		cfg:       opts.Config,
		precision: opts.Precision,
		now:       opts.Now,
		log:       logging.OrNop(opts.Logger),
		tabs:      []string{"Overview", "Times", "Daily"},
	}
	m.initInputs()
	m.timesTable = buildTimesTable(0, 1)
	m.initViewports()
	m.refreshReport()
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
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.confirmDelete {
			return m.updateConfirm(msg)
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		if msg.String() == "q" {
			return m, tea.Quit
		}
		if m.activeTab == tabTimes {
			m.timesTable.Focus()
		} else {
			m.timesTable.Blur()
		}
		switch msg.String() {
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "r":
			m.cfg.Range = string(nextRange(m.cfg.Range))
			m.refreshReport()
			m.updateLayout()
			return m, nil
		case "/":
			return m.startFilter()
		case "g", "home":
			if m.activeTab == tabTimes {
				m.timesTable.GotoTop()
			} else {
				m.viewports[m.activeTab].GotoTop()
			}
			return m, nil
		case "G", "end":
			if m.activeTab == tabTimes {
				m.timesTable.GotoBottom()
			} else {
				m.viewports[m.activeTab].GotoBottom()
			}
			return m, nil
		}
		if m.activeTab == tabTimes {
			switch msg.String() {
			case "2":
				m.togglePenalty(model.PenaltyPlusTwo)
				return m, nil
			case "d":
				m.togglePenalty(model.PenaltyDNF)
				return m, nil
			case "x":
				m.startDelete()
				return m, nil
			}
			var cmd tea.Cmd
			m.timesTable, cmd = m.timesTable.Update(msg)
			return m, cmd
		}
		vp := m.viewports[m.activeTab]
		var cmd tea.Cmd
		vp, cmd = vp.Update(msg)
		m.viewports[m.activeTab] = vp
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if m.confirmDelete {
		return fitLines(m.renderConfirmModal(), m.width, m.height)
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) initViewports() {
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
}

func (m *Model) initInputs() {
	m.filterInputs = []textinput.Model{
		newFilterInput("Range (7d/30d/all): "),
		newFilterInput("Last: "),
	}
	m.setInputsFromConfig()
}

func newFilterInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) setInputsFromConfig() {
	if len(m.filterInputs) == 0 {
		return
	}
	rng, ok := stats.ParseRange(m.cfg.Range)
	if !ok {
		rng = stats.RangeAll
	}
	m.filterInputs[0].SetValue(string(rng))
	if m.cfg.Last > 0 {
		m.filterInputs[1].SetValue(strconv.Itoa(m.cfg.Last))
	} else {
		m.filterInputs[1].SetValue("")
	}
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	if tabsHeight < 1 {
		tabsHeight = 1
	}
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if !m.filterMode && m.statusLine() != "" {
		footerHeight++
	}
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, vpHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = vpHeight
	}
	m.setTimesTableSize(m.width, vpHeight)
	for i := range m.filterInputs {
		promptWidth := lipgloss.Width(m.filterInputs[i].Prompt)
		m.filterInputs[i].Width = max(10, m.width-promptWidth-2)
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	if count == 0 {
		return
	}
	next := m.activeTab + delta
	if next < 0 {
		next = count - 1
	}
	if next >= count {
		next = 0
	}
	m.activeTab = next
	if m.activeTab == tabTimes {
		m.timesTable.Focus()
	} else {
		m.timesTable.Blur()
	}
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	filters := padLines(m.renderFilterSummary(), m.width)
	return tabs + "\n" + filters
}

func (m *Model) renderFilterSummary() string {
	rng := m.report.Range
	if rng == "" {
		rng = stats.RangeAll
	}
	last := "all"
	if m.cfg.Last > 0 {
		last = strconv.Itoa(m.cfg.Last)
	}
	summary := fmt.Sprintf("Settings: range=%s  last=%s  solves=%d", rng, last, len(m.report.Solves))
	summary = truncateLine(summary, m.width)
	return headerStyle.Render(summary)
}

func (m *Model) renderHelp() string {
	help := "Nav: left/right  Scroll: up/down/pgup/pgdn  Range: r  Settings: /  Quit: q"
	if m.activeTab == tabTimes {
		help = "Nav: left/right  Select: up/down  +2: 2  DNF: d  Delete: x  Range: r  Settings: /  Quit: q"
	}
	return headerStyle.Render(truncateLine(help, m.width))
}

func (m *Model) renderFilterHelp() string {
	return headerStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel")
}

func (m *Model) statusLine() string {
	if m.errMsg != "" {
		return m.errMsg
	}
	return m.status
}

func (m *Model) renderFooter() string {
	if m.filterMode {
		return m.renderFilterHelp()
	}
	if m.errMsg != "" {
		return m.renderHelp() + "\n" + errorStyle.Render(m.errMsg)
	}
	if m.status != "" {
		return m.renderHelp() + "\n" + headerStyle.Render(m.status)
	}
	return m.renderHelp()
}

func (m *Model) renderFilterForm() string {
	lines := []string{"Settings (enter to apply, esc to cancel)"}
	for _, input := range m.filterInputs {
		lines = append(lines, input.View())
	}
	if m.filterError != "" {
		lines = append(lines, errorStyle.Render(m.filterError))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderBody(height int) string {
	if m.filterMode {
		return fitLines(m.renderFilterForm(), m.width, height)
	}
	if m.activeTab == tabTimes {
		if len(m.report.Solves) == 0 {
			return fitLines("No solves found.", m.width, height)
		}
		return fitLines(tableMutedStyle.Render(m.timesTable.View()), m.width, height)
	}
	return fitLines(m.viewports[m.activeTab].View(), m.width, height)
}

func (m *Model) refreshReport() {
	report, err := stats.BuildReport(context.Background(), m.store, m.cfg, m.now())
	if err != nil {
		m.log.Warnw("failed to build stats report", "range", m.cfg.Range, "error", err)
		m.errMsg = err.Error()
		for i := range m.viewports {
			m.viewports[i].SetContent("Failed to load stats.")
		}
		return
	}
	m.errMsg = ""
	m.report = report
	width := m.width
	if width <= 0 {
		width = 80
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.applyTimesTable(width, bodyHeight)
	m.renderTabContents()
}

func (m *Model) renderTabContents() {
	if len(m.viewports) == 0 {
		return
	}
	if m.errMsg != "" {
		for i := range m.viewports {
			m.viewports[i].SetContent("Failed to load stats.")
		}
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.viewports[tabOverview].SetContent(renderOverview(m.report, m.precision, width))
	m.viewports[tabDaily].SetContent(renderDaily(m.report.Chart.Daily, m.precision))
}

func renderOverview(r stats.Report, precision, width int) string {
	if len(r.Solves) == 0 {
		return "No solves found."
	}
	summary := renderSummaryCards(r.Summary, precision, width)
	curves := renderCurves(r.Chart, width)
	return strings.TrimRight(summary+"\n\n"+curves, "\n")
}

func renderSummaryCards(s model.SessionSummary, precision, width int) string {
	rows := stats.SummaryRows(s, precision)
	cards := make([]string, 0, len(rows))
	for _, row := range rows {
		cards = append(cards, metricCard(row[0], row[1]))
	}
	if width < 80 {
		return strings.Join(cards, "\n")
	}
	row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[:4]...)
	row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[4:]...)
	return lipgloss.JoinVertical(lipgloss.Left, row1, row2)
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func renderCurves(chart stats.ChartData, width int) string {
	var buf bytes.Buffer
	if err := stats.PlotSeriesWithColor(&buf, "Progress", stats.ChartSeries(chart), stats.PlotWidthFor(width), plotHeight, true); err != nil {
		return fmt.Sprintf("Failed to render curves: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func renderDaily(days []model.DailyAverage, precision int) string {
	if len(days) == 0 {
		return "No solves found."
	}
	var buf bytes.Buffer
	if err := stats.RenderDaily(&buf, days, precision); err != nil {
		return fmt.Sprintf("Failed to render daily table: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func timesColumns() []table.Column {
	return []table.Column{
		{Title: "#", Width: 5},
		{Title: "Time", Width: 10},
		{Title: "Ao5", Width: 10},
		{Title: "Date", Width: 11},
		{Title: "Scramble", Width: 60},
	}
}

func buildTimesTable(width, height int) table.Model {
	t := table.New(
		table.WithColumns(timesColumns()),
		table.WithHeight(max(1, height-1)),
	)
	t.SetWidth(width)
	t.SetStyles(timesTableStyles())
	return t
}

// buildTimesRows returns table rows newest first with the matching solve ids.
func buildTimesRows(solves []model.SolveResult, precision int) ([]table.Row, []string) {
	base := stats.TimesRows(solves, 0, precision)
	rows := make([]table.Row, 0, len(base))
	ids := make([]string, 0, len(base))
	for i, row := range base {
		solve := solves[len(solves)-1-i]
		rows = append(rows, table.Row{row[0], row[1], row[2], row[3], solve.Scramble})
		ids = append(ids, solve.ID)
	}
	return rows, ids
}

func (m *Model) applyTimesTable(width, height int) {
	rows, ids := buildTimesRows(m.report.Solves, m.precision)
	cursor := m.timesTable.Cursor()
	m.timesTable.SetRows(rows)
	m.rowIDs = ids
	if cursor >= len(rows) {
		cursor = len(rows) - 1
	}
	if cursor >= 0 {
		m.timesTable.SetCursor(cursor)
	}
	m.timesLayout.rowCount = len(rows)
	m.timesLayout.width = 0
	m.setTimesTableSize(width, height)
}

func (m *Model) setTimesTableSize(width, height int) {
	viewportHeight := max(1, height-1)
	if m.timesLayout.width == width && m.timesLayout.height == viewportHeight {
		return
	}
	m.timesLayout.width = width
	m.timesLayout.height = viewportHeight
	m.timesTable.SetWidth(width)
	m.timesTable.SetHeight(viewportHeight)
}

func timesTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func (m *Model) selectedSolve() (model.SolveResult, bool) {
	idx := m.timesTable.Cursor()
	if idx < 0 || idx >= len(m.rowIDs) {
		return model.SolveResult{}, false
	}
	id := m.rowIDs[idx]
	for _, s := range m.report.Solves {
		if s.ID == id {
			return s, true
		}
	}
	return model.SolveResult{}, false
}

func (m *Model) togglePenalty(p model.Penalty) {
	solve, ok := m.selectedSolve()
	if !ok {
		m.status = "no solve selected"
		return
	}
	if solve.Penalty == p {
		solve.Penalty = model.PenaltyNone
	} else {
		solve.Penalty = p
	}
	if err := m.store.UpdateSolve(context.Background(), solve); err != nil {
		m.log.Errorw("failed to update solve", "id", solve.ID, "error", err)
		m.errMsg = fmt.Sprintf("failed to update solve: %v", err)
		return
	}
	m.refreshReport()
	m.status = fmt.Sprintf("penalty: %s", solve.Penalty)
}

func (m *Model) startDelete() {
	solve, ok := m.selectedSolve()
	if !ok {
		m.status = "no solve selected"
		return
	}
	m.confirmDelete = true
	m.deleteID = solve.ID
	m.deleteLabel = fmt.Sprintf("%s on %s", timer.FormatSolveTime(solve.Time, solve.Penalty, m.precision), solve.Date)
}

func (m *Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "enter":
		m.confirmDelete = false
		if err := m.store.DeleteSolve(context.Background(), m.deleteID); err != nil {
			m.log.Errorw("failed to delete solve", "id", m.deleteID, "error", err)
			m.errMsg = fmt.Sprintf("failed to delete solve: %v", err)
			return m, nil
		}
		m.refreshReport()
		m.status = "solve deleted"
		m.updateLayout()
	case "n", "esc":
		m.confirmDelete = false
	}
	return m, nil
}

func (m *Model) renderConfirmModal() string {
	body := []string{
		cardValueStyle.Render("Delete solve"),
		m.deleteLabel,
		headerStyle.Render("y/enter to delete / n/esc to cancel"),
	}
	box := modalStyle.Width(modalWidth(m.width)).Render(strings.Join(body, "\n"))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m *Model) startFilter() (tea.Model, tea.Cmd) {
	m.filterMode = true
	m.filterError = ""
	m.setInputsFromConfig()
	return m, m.setFilterIndex(0)
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filterError = ""
		return m, nil
	case tea.KeyEnter:
		if err := m.applyFilter(); err != nil {
			m.filterError = err.Error()
			return m, nil
		}
		m.filterMode = false
		m.filterError = ""
		m.refreshReport()
		m.updateLayout()
		return m, nil
	case tea.KeyTab:
		return m, m.setFilterIndex(m.filterIndex + 1)
	case tea.KeyShiftTab:
		return m, m.setFilterIndex(m.filterIndex - 1)
	}
	var cmd tea.Cmd
	m.filterInputs[m.filterIndex], cmd = m.filterInputs[m.filterIndex].Update(msg)
	return m, cmd
}

// setFilterIndex focuses input idx, wrapping around at both ends.
func (m *Model) setFilterIndex(idx int) tea.Cmd {
	count := len(m.filterInputs)
	if count == 0 {
		return nil
	}
	m.filterIndex = (idx%count + count) % count
	for i := range m.filterInputs {
		m.filterInputs[i].Blur()
	}
	return m.filterInputs[m.filterIndex].Focus()
}

func (m *Model) applyFilter() error {
	rng, ok := stats.ParseRange(m.filterInputs[0].Value())
	if !ok {
		return fmt.Errorf("invalid range (use 7d, 30d or all)")
	}
	lastInput := strings.TrimSpace(m.filterInputs[1].Value())
	last := 0
	if lastInput != "" {
		parsed, err := strconv.Atoi(lastInput)
		if err != nil || parsed < 0 {
			return fmt.Errorf("invalid last value (use 0 or positive integer)")
		}
		last = parsed
	}
	m.cfg = model.StatsConfig{
		Range: string(rng),
		Last:  last,
	}
	return nil
}

func nextRange(current string) stats.Range {
	rng, ok := stats.ParseRange(current)
	if !ok {
		return stats.RangeAll
	}
	for i, r := range rangeCycle {
		if r == rng {
			return rangeCycle[(i+1)%len(rangeCycle)]
		}
	}
	return stats.RangeAll
}

func modalWidth(width int) int {
	return max(40, min(width-4, 80))
}

// padLines right-pads every line of s with spaces to width.
func padLines(s string, width int) string {
	if s == "" {
		return s
	}
	return fitLines(s, width, strings.Count(s, "\n")+1)
}

// fitLines pads or cuts s to exactly height lines of width cells.
func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	out := make([]string, height)
	lines := strings.Split(s, "\n")
	for i := range out {
		line := ""
		if i < len(lines) {
			line = lines[i]
		}
		if gap := width - lipgloss.Width(line); gap > 0 {
			line += strings.Repeat(" ", gap)
		}
		out[i] = line
	}
	return strings.Join(out, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}
