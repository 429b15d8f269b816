package stats

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/cubetui/internal/model"
	"github.com/verte-zerg/cubetui/internal/timer"
)

const emptyCell = "-"

// SummaryRows returns label/value rows for a session summary.
func SummaryRows(s model.SessionSummary, precision int) [][]string {
	return [][]string{
		{"Solves", strconv.Itoa(s.Count)},
		{"Best", formatComputed(s.Best, precision)},
		{"Worst", formatComputed(s.Worst, precision)},
		{"Mean", formatOptional(s.Mean, precision)},
		{"Ao5", FormatAverage(s.Ao5, precision)},
		{"Ao12", FormatAverage(s.Ao12, precision)},
		{"Ao50", FormatAverage(s.Ao50, precision)},
		{"Ao100", FormatAverage(s.Ao100, precision)},
	}
}

// FormatAverage renders an average result, "-" when absent.
func FormatAverage(a *model.AverageResult, precision int) string {
	if a == nil {
		return emptyCell
	}
	if a.IsDNF {
		return "DNF"
	}
	return timer.FormatTime(a.Value, precision)
}

func formatComputed(c *model.ComputedTime, precision int) string {
	if c == nil {
		return emptyCell
	}
	if c.IsDNF() {
		return "DNF"
	}
	return timer.FormatSolveTime(c.Raw, c.Penalty, precision)
}

func formatOptional(ms *int64, precision int) string {
	if ms == nil {
		return emptyCell
	}
	return timer.FormatTime(*ms, precision)
}

// RenderSummary writes the summary table.
func RenderSummary(w io.Writer, s model.SessionSummary, precision int) error {
	for _, line := range formatTable([]string{"Stat", "Time"}, SummaryRows(s, precision), map[int]bool{1: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// DailyRows returns one row per day, newest first.
func DailyRows(days []model.DailyAverage, precision int) [][]string {
	rows := make([][]string, 0, len(days))
	for i := len(days) - 1; i >= 0; i-- {
		d := days[i]
		rows = append(rows, []string{
			d.Date,
			strconv.Itoa(d.Count),
			timer.FormatTime(d.Mean, precision),
			timer.FormatTime(d.Best, precision),
			formatOptional(d.Ao5, precision),
			formatOptional(d.Ao12, precision),
		})
	}
	return rows
}

// RenderDaily writes the per-day table.
func RenderDaily(w io.Writer, days []model.DailyAverage, precision int) error {
	headers := []string{"Date", "Solves", "Mean", "Best", "Best ao5", "Best ao12"}
	rightAlign := map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true}
	for _, line := range formatTable(headers, DailyRows(days, precision), rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// TimesRows returns the most recent solves, newest first, numbered from 1.
func TimesRows(solves []model.SolveResult, limit, precision int) [][]string {
	times := ComputeTimes(solves)
	start := 0
	if limit > 0 && len(solves) > limit {
		start = len(solves) - limit
	}
	rows := make([][]string, 0, len(solves)-start)
	for i := len(solves) - 1; i >= start; i-- {
		ao5 := emptyCell
		if i >= 4 {
			ao5 = FormatAverage(Ao5(times[:i+1]), precision)
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			timer.FormatSolveTime(solves[i].Time, solves[i].Penalty, precision),
			ao5,
			solves[i].Date,
		})
	}
	return rows
}

// RenderTimes writes the most recent solves.
func RenderTimes(w io.Writer, solves []model.SolveResult, limit, precision int) error {
	headers := []string{"#", "Time", "Ao5", "Date"}
	for _, line := range formatTable(headers, TimesRows(solves, limit, precision), map[int]bool{0: true, 1: true, 2: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderReport writes the plain, non-interactive stats output.
func RenderReport(w io.Writer, r Report, precision, width int, forceColor bool) error {
	if _, err := fmt.Fprintf(w, "Range: %s\n\n", r.Range); err != nil {
		return err
	}
	if err := RenderSummary(w, r.Summary, precision); err != nil {
		return err
	}
	if len(r.Solves) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	if err := PlotSeriesWithColor(w, "Progress", ChartSeries(r.Chart), width, 0, forceColor); err != nil {
		return err
	}
	if err := RenderDaily(w, r.Chart.Daily, precision); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	return RenderTimes(w, r.Solves, 12, precision)
}

func formatTable(headers []string, rows [][]string, rightAlignCols map[int]bool) []string {
	colCount := len(headers)
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}
	if colCount == 0 {
		return nil
	}

	widths := make([]int, colCount)
	for i, header := range headers {
		widths[i] = displayWidth(header)
	}
	for _, row := range rows {
		for i := 0; i < colCount; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			if w := displayWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	lines := make([]string, 0, len(rows)+1)
	if len(headers) > 0 {
		lines = append(lines, formatRow(headers, widths, rightAlignCols))
	}
	for _, row := range rows {
		lines = append(lines, formatRow(row, widths, rightAlignCols))
	}
	return lines
}

func formatRow(row []string, widths []int, rightAlignCols map[int]bool) string {
	var b strings.Builder
	for i := 0; i < len(widths); i++ {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(padCell(cell, widths[i], rightAlignCols[i]))
	}
	return strings.TrimRight(b.String(), " ")
}

func padCell(value string, width int, rightAlign bool) string {
	valueWidth := displayWidth(value)
	if valueWidth >= width {
		return value
	}
	padding := width - valueWidth
	if rightAlign {
		return strings.Repeat(" ", padding) + value
	}
	return value + strings.Repeat(" ", padding)
}

func displayWidth(value string) int {
	return runewidth.StringWidth(value)
}
