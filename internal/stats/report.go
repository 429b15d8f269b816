package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/verte-zerg/cubetui/internal/model"
	"github.com/verte-zerg/cubetui/internal/store"
)

// Report contains precomputed data for stats rendering.
type Report struct {
	Range   Range
	Solves  []model.SolveResult
	Summary model.SessionSummary
	Chart   ChartData
}

// BuildReport loads solves and prepares the summary and chart data for the
// configured range. Last, when positive, keeps only the most recent solves.
func BuildReport(ctx context.Context, st store.SolveStore, cfg model.StatsConfig, now time.Time) (Report, error) {
	rng, ok := ParseRange(cfg.Range)
	if !ok {
		return Report{}, fmt.Errorf("invalid range %q (use 7d, 30d or all)", cfg.Range)
	}
	solves, err := st.ListSolves(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("failed to load solves: %w", err)
	}
	solves = FilterRange(solves, rng, now)
	if cfg.Last > 0 && len(solves) > cfg.Last {
		solves = solves[len(solves)-cfg.Last:]
	}

	return Report{
		Range:   rng,
		Solves:  solves,
		Summary: Summarize(solves),
		Chart:   BuildChartData(solves, RangeAll, now),
	}, nil
}
