// Package stats contains statistics calculations and reporting.
package stats

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/verte-zerg/cubetui/internal/model"
	"github.com/verte-zerg/cubetui/internal/timer"
)

const sparkChars = " .:-=+*#%@"

// Range selects how far back chart data reaches.
type Range string

// Chart ranges.
const (
	RangeWeek  Range = "7d"
	RangeMonth Range = "30d"
	RangeAll   Range = "all"
)

// ParseRange validates a range string. Empty input means all.
func ParseRange(s string) (Range, bool) {
	switch Range(strings.ToLower(strings.TrimSpace(s))) {
	case RangeWeek:
		return RangeWeek, true
	case RangeMonth:
		return RangeMonth, true
	case RangeAll, "":
		return RangeAll, true
	default:
		return "", false
	}
}

// Point is one value of a rolling series, keyed by solve index.
type Point struct {
	Index int
	Value int64
}

// ChartData is the data behind the progress chart.
type ChartData struct {
	Times []model.ComputedTime
	Ao5   []Point
	Daily []model.DailyAverage
}

// ToComputedTime derives the effective time of a solve.
func ToComputedTime(s model.SolveResult, precision int) model.ComputedTime {
	effective := float64(s.Time + int64(s.Penalty))
	if s.Penalty == model.PenaltyDNF {
		effective = math.Inf(1)
	}
	return model.ComputedTime{
		ID:        s.ID,
		Raw:       s.Time,
		Penalty:   s.Penalty,
		Effective: effective,
		Formatted: timer.FormatSolveTime(s.Time, s.Penalty, precision),
	}
}

// ComputeTimes maps solves to computed times with 2-decimal formatting.
func ComputeTimes(solves []model.SolveResult) []model.ComputedTime {
	out := make([]model.ComputedTime, len(solves))
	for i, s := range solves {
		out[i] = ToComputedTime(s, model.DefaultDisplayPrecision)
	}
	return out
}

// TrimmedAverage computes the WCA average of the most recent n times.
// It returns nil when fewer than n times are available.
func TrimmedAverage(times []model.ComputedTime, n int) *model.AverageResult {
	if n <= 0 || len(times) < n {
		return nil
	}
	window := append([]model.ComputedTime(nil), times[len(times)-n:]...)
	sorted := append([]model.ComputedTime(nil), window...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Effective < sorted[j].Effective
	})

	dnfs := 0
	for _, t := range sorted {
		if t.IsDNF() {
			dnfs++
		}
	}
	result := &model.AverageResult{
		Times: window,
		Best:  sorted[0],
		Worst: sorted[len(sorted)-1],
	}
	if dnfs > maxDNFs(n) {
		result.Value = -1
		result.IsDNF = true
		return result
	}

	trim := trimCount(n)
	middle := sorted[trim : len(sorted)-trim]
	var sum float64
	for _, t := range middle {
		sum += t.Effective
	}
	result.Value = roundMs(sum / float64(len(middle)))
	return result
}

func maxDNFs(n int) int {
	if n == 5 {
		return 1
	}
	return n / 5
}

func trimCount(n int) int {
	if n == 5 {
		return 1
	}
	if k := n / 10; k > 1 {
		return k
	}
	return 1
}

// Ao5 is the trimmed average of the last 5 times.
func Ao5(times []model.ComputedTime) *model.AverageResult {
	return TrimmedAverage(times, 5)
}

// Ao12 is the trimmed average of the last 12 times.
func Ao12(times []model.ComputedTime) *model.AverageResult {
	return TrimmedAverage(times, 12)
}

// Ao50 is the trimmed average of the last 50 times.
func Ao50(times []model.ComputedTime) *model.AverageResult {
	return TrimmedAverage(times, 50)
}

// Ao100 is the trimmed average of the last 100 times.
func Ao100(times []model.ComputedTime) *model.AverageResult {
	return TrimmedAverage(times, 100)
}

// Mean averages the effective times of all non-DNF solves.
func Mean(times []model.ComputedTime) *int64 {
	var sum float64
	count := 0
	for _, t := range times {
		if t.IsDNF() {
			continue
		}
		sum += t.Effective
		count++
	}
	if count == 0 {
		return nil
	}
	v := roundMs(sum / float64(count))
	return &v
}

// Best returns the fastest non-DNF time.
func Best(times []model.ComputedTime) *model.ComputedTime {
	var best *model.ComputedTime
	for i := range times {
		if times[i].IsDNF() {
			continue
		}
		if best == nil || times[i].Effective < best.Effective {
			best = &times[i]
		}
	}
	if best == nil {
		return nil
	}
	out := *best
	return &out
}

// Worst returns the slowest time. A DNF is always the worst when present.
func Worst(times []model.ComputedTime) *model.ComputedTime {
	if len(times) == 0 {
		return nil
	}
	worst := times[0]
	for _, t := range times[1:] {
		if t.Effective > worst.Effective {
			worst = t
		}
	}
	return &worst
}

// Summarize computes the session snapshot for solves in chronological order.
func Summarize(solves []model.SolveResult) model.SessionSummary {
	times := ComputeTimes(solves)
	return model.SessionSummary{
		Count: len(times),
		Best:  Best(times),
		Worst: Worst(times),
		Mean:  Mean(times),
		Ao5:   Ao5(times),
		Ao12:  Ao12(times),
		Ao50:  Ao50(times),
		Ao100: Ao100(times),
	}
}

// RollingAverage emits, for every index with a full window behind it, the
// trimmed average ending there. DNF averages are skipped.
func RollingAverage(times []model.ComputedTime, n int) []Point {
	var points []Point
	if n <= 0 {
		return points
	}
	for i := n - 1; i < len(times); i++ {
		avg := TrimmedAverage(times[i-n+1:i+1], n)
		if avg != nil && !avg.IsDNF {
			points = append(points, Point{Index: i, Value: avg.Value})
		}
	}
	return points
}

// DailyAverages groups solves by date. Days with only DNFs are omitted.
// Ao5 and Ao12 hold the best average reached at any point of the day.
func DailyAverages(solves []model.SolveResult) []model.DailyAverage {
	byDate := map[string][]model.SolveResult{}
	var dates []string
	for _, s := range solves {
		if _, ok := byDate[s.Date]; !ok {
			dates = append(dates, s.Date)
		}
		byDate[s.Date] = append(byDate[s.Date], s)
	}
	sort.Strings(dates)

	out := make([]model.DailyAverage, 0, len(dates))
	for _, date := range dates {
		daySolves := byDate[date]
		times := ComputeTimes(daySolves)
		mean := Mean(times)
		if mean == nil {
			continue
		}
		best := Best(times)
		out = append(out, model.DailyAverage{
			Date:  date,
			Count: len(daySolves),
			Mean:  *mean,
			Best:  int64(best.Effective),
			Ao5:   bestAverage(times, 5),
			Ao12:  bestAverage(times, 12),
		})
	}
	return out
}

func bestAverage(times []model.ComputedTime, n int) *int64 {
	var best *int64
	for _, p := range RollingAverage(times, n) {
		if best == nil || p.Value < *best {
			v := p.Value
			best = &v
		}
	}
	return best
}

// FilterRange keeps solves whose timestamp falls within the range ending at now.
func FilterRange(solves []model.SolveResult, r Range, now time.Time) []model.SolveResult {
	var cutoff time.Time
	switch r {
	case RangeWeek:
		cutoff = now.Add(-7 * 24 * time.Hour)
	case RangeMonth:
		cutoff = now.Add(-30 * 24 * time.Hour)
	default:
		return solves
	}
	out := make([]model.SolveResult, 0, len(solves))
	for _, s := range solves {
		if !time.Unix(s.Timestamp, 0).Before(cutoff) {
			out = append(out, s)
		}
	}
	return out
}

// BuildChartData filters solves to the range and derives chart series.
func BuildChartData(solves []model.SolveResult, r Range, now time.Time) ChartData {
	filtered := FilterRange(solves, r, now)
	times := ComputeTimes(filtered)
	return ChartData{
		Times: times,
		Ao5:   RollingAverage(times, 5),
		Daily: DailyAverages(filtered),
	}
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RecentSparkline renders the last n valid times; DNFs are left out.
func RecentSparkline(times []model.ComputedTime, n int) string {
	values := make([]float64, 0, n)
	for _, t := range times {
		if t.IsDNF() {
			continue
		}
		values = append(values, t.Effective)
	}
	if n > 0 && len(values) > n {
		values = values[len(values)-n:]
	}
	return Sparkline(values)
}

func roundMs(v float64) int64 {
	return int64(math.Floor(v + 0.5))
}
