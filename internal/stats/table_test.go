package stats

import (
	"bytes"
	"strings"
	"testing"

	"github.com/verte-zerg/cubetui/internal/model"
)

func TestFormatTableAlignsColumns(t *testing.T) {
	headers := []string{"Stat", "Time", "Date"}
	rows := [][]string{
		{"Best", "9.87", "2024-03-10"},
		{"Ao100", "1:02.50", "-"},
	}
	rightAlign := map[int]bool{1: true}

	lines := formatTable(headers, rows, rightAlign)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "Stat      Time  Date" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "Best      9.87  2024-03-10" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	if lines[2] != "Ao100  1:02.50  -" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	s := Summarize(solvesFrom([]int64{10000, 12000, 15000, 11000, 14500}, nil))
	if err := RenderSummary(&buf, s, 2); err != nil {
		t.Fatalf("render summary: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Solves", "12.50", "10.00", "15.00"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	if !strings.Contains(out, "Ao12        -") {
		t.Fatalf("expected empty ao12 cell:\n%s", out)
	}
}

func TestTimesRowsNewestFirst(t *testing.T) {
	solves := solvesFrom([]int64{10000, 12000, 15000, 11000, 14500, 9000}, map[int]model.Penalty{1: model.PenaltyPlusTwo})
	rows := TimesRows(solves, 3, 2)
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0][0] != "6" || rows[0][1] != "9.00" {
		t.Fatalf("unexpected newest row: %v", rows[0])
	}
	if rows[2][0] != "4" || rows[2][2] != "-" {
		t.Fatalf("unexpected oldest row: %v", rows[2])
	}
	if rows[1][2] != "13.17" {
		t.Fatalf("unexpected ao5 cell: %v", rows[1])
	}
}

func TestDailyRowsNewestFirst(t *testing.T) {
	days := []model.DailyAverage{
		{Date: "2024-03-09", Count: 1, Mean: 10000, Best: 10000},
		{Date: "2024-03-10", Count: 2, Mean: 13000, Best: 12000},
	}
	rows := DailyRows(days, 2)
	if rows[0][0] != "2024-03-10" || rows[0][2] != "13.00" || rows[0][4] != "-" {
		t.Fatalf("unexpected first row: %v", rows[0])
	}
}
