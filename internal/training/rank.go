package training

import (
	"sort"

	"github.com/verte-zerg/cubetui/internal/model"
)

// WeakestCases returns up to top attempted cases with the lowest success rate.
// Ties are broken by the lower ease factor, then case id.
func WeakestCases(list []model.AlgorithmProgress, top int) []model.AlgorithmProgress {
	candidates := make([]model.AlgorithmProgress, 0, len(list))
	for _, p := range list {
		if p.TotalAttempts > 0 {
			candidates = append(candidates, p)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		ri := SuccessRate(candidates[i])
		rj := SuccessRate(candidates[j])
		if ri != rj {
			return ri < rj
		}
		if candidates[i].EaseFactor != candidates[j].EaseFactor {
			return candidates[i].EaseFactor < candidates[j].EaseFactor
		}
		return candidates[i].CaseID < candidates[j].CaseID
	})
	if top <= 0 || top > len(candidates) {
		top = len(candidates)
	}
	return candidates[:top]
}

// MostPracticed returns the n cases with the most attempts.
func MostPracticed(list []model.AlgorithmProgress, n int) []model.AlgorithmProgress {
	if n <= 0 || len(list) == 0 {
		return nil
	}
	items := append([]model.AlgorithmProgress(nil), list...)
	sort.Slice(items, func(i, j int) bool {
		if items[i].TotalAttempts == items[j].TotalAttempts {
			return items[i].CaseID < items[j].CaseID
		}
		return items[i].TotalAttempts > items[j].TotalAttempts
	})
	if n > len(items) {
		n = len(items)
	}
	return items[:n]
}

// SuccessRate is the share of full and light reviews, 1 when never attempted.
func SuccessRate(p model.AlgorithmProgress) float64 {
	if p.TotalAttempts == 0 {
		return 1.0
	}
	return float64(p.FullConfidence+p.LightConfidence) / float64(p.TotalAttempts)
}
