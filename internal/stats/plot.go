// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/term"
)

// Series is a named sequence of times in seconds.
type Series struct {
	Name   string
	Values []float64
}

type dashPattern struct {
	name   string
	period int
	on     int
}

const (
	defaultPlotHeight   = 10
	minPlotWidth        = 10
	axisLabelWidth      = 7
	axisSeparator       = " │ "
	colorReset          = "\x1b[0m"
	terminalWidthBackup = 80
	brailleBase         = 0x2800
)

var dashPatterns = []dashPattern{
	{name: "solid", period: 1, on: 1},
	{name: "dashed", period: 6, on: 3},
	{name: "dotted", period: 4, on: 1},
}

var seriesColors = []string{
	"\x1b[36m",
	"\x1b[33m",
	"\x1b[35m",
	"\x1b[32m",
}

// Braille dot bits indexed by [row][column] inside a 2x4 cell.
var brailleBits = [4][2]uint8{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// PlotSeries renders a text chart of the series sharing one time axis.
func PlotSeries(w io.Writer, title string, series []Series, width, height int) error {
	return PlotSeriesWithColor(w, title, series, width, height, false)
}

// PlotSeriesWithColor is PlotSeries with ANSI colors forced on when
// forceColor is set. NO_COLOR always wins.
func PlotSeriesWithColor(w io.Writer, title string, series []Series, width, height int, forceColor bool) error {
	series = nonEmptySeries(series)
	if len(series) == 0 {
		return nil
	}
	if height <= 0 {
		height = defaultPlotHeight
	}
	if width <= 0 {
		width = PlotWidthFor(terminalWidth())
	}
	width = max(width, minPlotWidth)

	lo, hi := timeBounds(series)
	c := newBrailleCanvas(width, height, len(series))
	for i, s := range series {
		c.plot(i, fitToWidth(s.Values, width), lo, hi, dashPatterns[i%len(dashPatterns)])
	}

	color := wantColor(w, forceColor)
	var b strings.Builder
	if title != "" {
		b.WriteString(title + "\n")
	}
	for _, s := range series {
		best, worst := valueRange(s.Values)
		fmt.Fprintf(&b, "%s: best %.2fs worst %.2fs\n", s.Name, best, worst)
	}
	labels := axisLabels(lo, hi, height)
	for y := 0; y < height; y++ {
		fmt.Fprintf(&b, "%*s%s", axisLabelWidth, labels[y], axisSeparator)
		for x := 0; x < width; x++ {
			mask, layer := c.cell(x, y)
			ch := string(rune(brailleBase + int(mask)))
			if color && layer >= 0 {
				ch = seriesColors[layer%len(seriesColors)] + ch + colorReset
			}
			b.WriteString(ch)
		}
		b.WriteString("\n")
	}
	b.WriteString(legend(series, color) + "\n\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// ChartSeries converts chart data into plottable series: every solve, the
// rolling ao5 and the daily means.
func ChartSeries(chart ChartData) []Series {
	var solves []float64
	for _, t := range chart.Times {
		if t.IsDNF() {
			continue
		}
		solves = append(solves, t.Effective/1000)
	}
	ao5 := make([]float64, 0, len(chart.Ao5))
	for _, p := range chart.Ao5 {
		ao5 = append(ao5, float64(p.Value)/1000)
	}
	daily := make([]float64, 0, len(chart.Daily))
	for _, d := range chart.Daily {
		daily = append(daily, float64(d.Mean)/1000)
	}
	return []Series{
		{Name: "Single", Values: solves},
		{Name: "Ao5", Values: ao5},
		{Name: "Daily mean", Values: daily},
	}
}

// PlotWidthFor returns the number of plot columns that fit next to the time
// axis within totalWidth.
func PlotWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minPlotWidth
	}
	return max(totalWidth-axisLabelWidth-utf8.RuneCountInString(axisSeparator), minPlotWidth)
}

func nonEmptySeries(series []Series) []Series {
	out := make([]Series, 0, len(series))
	for _, s := range series {
		if len(s.Values) > 0 {
			out = append(out, s)
		}
	}
	return out
}

// timeBounds is the shared vertical range of all series, widened when flat.
func timeBounds(series []Series) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range series {
		a, b := valueRange(s.Values)
		lo = math.Min(lo, a)
		hi = math.Max(hi, b)
	}
	if hi-lo < 1e-9 {
		lo, hi = lo-1, hi+1
	}
	return math.Max(lo, 0), hi
}

func valueRange(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

// axisLabels puts the slowest time on the top row, the fastest on the bottom
// and the midpoint in between when there is room.
func axisLabels(lo, hi float64, height int) []string {
	labels := make([]string, height)
	if height == 0 {
		return labels
	}
	labels[0] = axisTime(hi)
	if height > 1 {
		labels[height-1] = axisTime(lo)
	}
	if height >= 5 {
		labels[(height-1)/2] = axisTime((lo + hi) / 2)
	}
	return labels
}

func axisTime(sec float64) string {
	if sec >= 100 {
		return fmt.Sprintf("%.0fs", sec)
	}
	return fmt.Sprintf("%.1fs", sec)
}

func legend(series []Series, color bool) string {
	parts := make([]string, 0, len(series))
	for i, s := range series {
		label := fmt.Sprintf("%c %s (%s)", rune(brailleBase+0x01), s.Name, dashPatterns[i%len(dashPatterns)].name)
		if color {
			label = seriesColors[i%len(seriesColors)] + label + colorReset
		}
		parts = append(parts, label)
	}
	return "Legend: " + strings.Join(parts, "  ")
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func wantColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// fitToWidth averages values into width buckets when there are more samples
// than columns and interpolates linearly when there are fewer.
func fitToWidth(values []float64, width int) []float64 {
	n := len(values)
	out := make([]float64, width)
	switch {
	case n == 0 || width == 0:
		return nil
	case n == width:
		copy(out, values)
	case n > width:
		for i := range out {
			from := i * n / width
			to := max((i+1)*n/width, from+1)
			var sum float64
			for _, v := range values[from:to] {
				sum += v
			}
			out[i] = sum / float64(to-from)
		}
	case n == 1 || width == 1:
		for i := range out {
			out[i] = values[0]
		}
	default:
		step := float64(n-1) / float64(width-1)
		for i := range out {
			pos := float64(i) * step
			j := min(int(pos), n-2)
			frac := pos - float64(j)
			out[i] = values[j] + (values[j+1]-values[j])*frac
		}
	}
	return out
}

// brailleCanvas holds one dot layer per series; each terminal cell is 2x4
// dots.
type brailleCanvas struct {
	cols, rows int
	layers     [][]uint8
}

func newBrailleCanvas(cols, rows, layers int) *brailleCanvas {
	c := &brailleCanvas{cols: cols, rows: rows, layers: make([][]uint8, layers)}
	for i := range c.layers {
		c.layers[i] = make([]uint8, cols*rows)
	}
	return c
}

func (c *brailleCanvas) dot(layer, x, y int) {
	cx, cy := x/2, y/4
	if x < 0 || y < 0 || cx >= c.cols || cy >= c.rows {
		return
	}
	c.layers[layer][cy*c.cols+cx] |= brailleBits[y%4][x%2]
}

// cell merges all layers at a cell; the returned layer picks the color and is
// -1 for an empty cell.
func (c *brailleCanvas) cell(x, y int) (uint8, int) {
	var mask uint8
	first := -1
	for i, layer := range c.layers {
		if bits := layer[y*c.cols+x]; bits != 0 {
			mask |= bits
			if first < 0 {
				first = i
			}
		}
	}
	return mask, first
}

// plot draws values (one per column) as a connected line, slow times at the
// top.
func (c *brailleCanvas) plot(layer int, values []float64, lo, hi float64, dash dashPattern) {
	dotsHigh := c.rows * 4
	prevX, prevY := -1, -1
	for col, v := range values {
		y := 0
		if dotsHigh > 1 {
			frac := (v - lo) / (hi - lo)
			y = int(math.Round((1 - frac) * float64(dotsHigh-1)))
			y = min(max(y, 0), dotsHigh-1)
		}
		x := col * 2
		if prevX < 0 {
			prevX, prevY = x, y
		}
		c.segment(layer, prevX, prevY, x, y, dash)
		prevX, prevY = x, y
	}
}

// segment walks the longer axis one dot at a time.
func (c *brailleCanvas) segment(layer, x0, y0, x1, y1 int, dash dashPattern) {
	steps := max(abs(x1-x0), abs(y1-y0))
	for i := 0; i <= steps; i++ {
		x, y := x0, y0
		if steps > 0 {
			x = x0 + int(math.Round(float64((x1-x0)*i)/float64(steps)))
			y = y0 + int(math.Round(float64((y1-y0)*i)/float64(steps)))
		}
		if dash.period <= 1 || x%dash.period < dash.on {
			c.dot(layer, x, y)
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
