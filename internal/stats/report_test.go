package stats

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/cubetui/internal/model"
	"github.com/verte-zerg/cubetui/internal/store"
	"github.com/verte-zerg/cubetui/internal/timer"
)

func TestBuildReport(t *testing.T) {
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "cubetui.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	ctx := context.Background()
	now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
	var solves []model.SolveResult
	for i := 0; i < 8; i++ {
		ts := now.Add(-time.Duration(10-i) * 24 * time.Hour).Unix()
		solves = append(solves, model.SolveResult{
			ID:        string(rune('a' + i)),
			Time:      int64(10000 + i*500),
			Scramble:  "R U R'",
			Timestamp: ts,
			Date:      timer.DateString(ts),
		})
	}
	if err := st.AddSolves(ctx, solves); err != nil {
		t.Fatalf("add solves: %v", err)
	}

	report, err := BuildReport(ctx, st, model.StatsConfig{Range: "7d"}, now)
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	// Solves 3..7 are 7 to 3 days old.
	if len(report.Solves) != 5 || report.Solves[0].ID != "d" {
		t.Fatalf("unexpected solves in range: %d", len(report.Solves))
	}
	if report.Summary.Ao5 == nil || report.Summary.Count != 5 {
		t.Fatalf("unexpected summary: %+v", report.Summary)
	}

	report, err = BuildReport(ctx, st, model.StatsConfig{Range: "all", Last: 3}, now)
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(report.Solves) != 3 || report.Solves[2].ID != "h" {
		t.Fatalf("expected the last 3 solves, got %+v", report.Solves)
	}

	if _, err := BuildReport(ctx, st, model.StatsConfig{Range: "1y"}, now); err == nil {
		t.Fatalf("expected invalid range error")
	}

	var buf bytes.Buffer
	if err := RenderReport(&buf, report, 2, 40, false); err != nil {
		t.Fatalf("render report: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Range: all", "Best", "Progress", "Legend:", "Best ao5"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in report:\n%s", want, out)
		}
	}
}
