// Package model defines shared data structures.
package model

import (
	"errors"
	"fmt"
)

// ErrInvalidSettings is returned when timer settings fail validation.
var ErrInvalidSettings = errors.New("invalid settings")

// Penalty is the time penalty attached to a solve, using csTimer's codes.
type Penalty int

// Penalty codes.
const (
	PenaltyNone    Penalty = 0
	PenaltyPlusTwo Penalty = 2000
	PenaltyDNF     Penalty = -1
)

// PenaltyFromCode maps a csTimer penalty code to a Penalty. Unknown codes are treated as no penalty.
func PenaltyFromCode(code int) Penalty {
	switch Penalty(code) {
	case PenaltyDNF:
		return PenaltyDNF
	case PenaltyPlusTwo:
		return PenaltyPlusTwo
	default:
		return PenaltyNone
	}
}

// String returns a short label for the penalty.
func (p Penalty) String() string {
	switch p {
	case PenaltyNone:
		return "OK"
	case PenaltyPlusTwo:
		return "+2"
	case PenaltyDNF:
		return "DNF"
	default:
		return fmt.Sprintf("Penalty(%d)", int(p))
	}
}

// SolveResult is one timed solve.
type SolveResult struct {
	ID        string  `json:"id"`
	Time      int64   `json:"time"`
	Penalty   Penalty `json:"penalty"`
	Scramble  string  `json:"scramble"`
	Comment   string  `json:"comment,omitempty"`
	Timestamp int64   `json:"timestamp"`
	Date      string  `json:"date"`
}

// ComputedTime is a derived view of a solve with its effective time.
// Effective is +Inf for DNF solves.
type ComputedTime struct {
	ID        string
	Raw       int64
	Penalty   Penalty
	Effective float64
	Formatted string
}

// IsDNF reports whether the time is a DNF.
func (c ComputedTime) IsDNF() bool {
	return c.Penalty == PenaltyDNF
}

// AverageResult is the outcome of a trimmed average over a window of times.
// Value is -1 when the average itself is a DNF.
type AverageResult struct {
	Value int64
	Times []ComputedTime
	Best  ComputedTime
	Worst ComputedTime
	IsDNF bool
}

// DailyAverage summarizes the solves of one calendar day.
type DailyAverage struct {
	Date  string
	Count int
	Mean  int64
	Best  int64
	Ao5   *int64
	Ao12  *int64
}

// SessionSummary is a statistics snapshot over a sequence of solves.
type SessionSummary struct {
	Count int
	Best  *ComputedTime
	Worst *ComputedTime
	Mean  *int64
	Ao5   *AverageResult
	Ao12  *AverageResult
	Ao50  *AverageResult
	Ao100 *AverageResult
}

// AlgorithmProgress is the review scheduling state of one algorithm case.
type AlgorithmProgress struct {
	CaseID          int     `json:"caseId"`
	EaseFactor      float64 `json:"easeFactor"`
	Interval        int     `json:"interval"`
	Repetitions     int     `json:"repetitions"`
	NextReviewDate  string  `json:"nextReviewDate"`
	TotalAttempts   int     `json:"totalAttempts"`
	FullConfidence  int     `json:"fullConfidence"`
	LightConfidence int     `json:"lightConfidence"`
	Failed          int     `json:"failed"`
	LastAttempt     string  `json:"lastAttempt"`
}

// TrainingSession aggregates the reviews of one calendar day.
type TrainingSession struct {
	Date               string `json:"date"`
	AlgorithmsReviewed int    `json:"algorithmsReviewed"`
	MasteredCount      int    `json:"masteredCount"`
}

// StatsConfig defines filters for stats output.
type StatsConfig struct {
	Range string
	Last  int
}

// Visualization modes.
const (
	VisualizationNet2D = "2d-net"
	VisualizationCube  = "3d"
)

// Settings holds timer preferences.
type Settings struct {
	HoldTimeMs           int    `json:"holdTime"`
	DisplayPrecision     int    `json:"displayPrecision"`
	VisualizationMode    string `json:"visualizationMode"`
	ShowVisualization    bool   `json:"showVisualization"`
	ShowScramble         bool   `json:"showScramble"`
	HideTimeWhileRunning bool   `json:"hideTimeWhileRunning"`
}

// Setting bounds and defaults.
const (
	DefaultHoldTimeMs       = 500
	MinHoldTimeMs           = 300
	MaxHoldTimeMs           = 1000
	DefaultDisplayPrecision = 2
)

// DefaultSettings returns the built-in timer settings.
func DefaultSettings() Settings {
	return Settings{
		HoldTimeMs:        DefaultHoldTimeMs,
		DisplayPrecision:  DefaultDisplayPrecision,
		VisualizationMode: VisualizationNet2D,
		ShowVisualization: true,
		ShowScramble:      true,
	}
}

// Validate checks setting ranges.
func (s Settings) Validate() error {
	if s.HoldTimeMs < MinHoldTimeMs || s.HoldTimeMs > MaxHoldTimeMs {
		return fmt.Errorf("%w: hold time must be between %d and %d ms", ErrInvalidSettings, MinHoldTimeMs, MaxHoldTimeMs)
	}
	if s.DisplayPrecision != 2 && s.DisplayPrecision != 3 {
		return fmt.Errorf("%w: display precision must be 2 or 3", ErrInvalidSettings)
	}
	if s.VisualizationMode != VisualizationNet2D && s.VisualizationMode != VisualizationCube {
		return fmt.Errorf("%w: visualization mode must be %q or %q", ErrInvalidSettings, VisualizationNet2D, VisualizationCube)
	}
	return nil
}
