package timer

import (
	"testing"

	"github.com/verte-zerg/cubetui/internal/model"
)

func TestFormatTime(t *testing.T) {
	cases := []struct {
		ms        int64
		precision int
		want      string
	}{
		{12340, 2, "12.34"},
		{83450, 2, "1:23.45"},
		{65000, 2, "1:05.00"},
		{9876, 3, "9.876"},
		{-1, 2, "DNF"},
	}
	for _, tc := range cases {
		if got := FormatTime(tc.ms, tc.precision); got != tc.want {
			t.Fatalf("FormatTime(%d, %d) = %q, want %q", tc.ms, tc.precision, got, tc.want)
		}
	}
}

func TestFormatSolveTime(t *testing.T) {
	if got := FormatSolveTime(10000, model.PenaltyPlusTwo, 2); got != "12.00+" {
		t.Fatalf("expected 12.00+, got %q", got)
	}
	if got := FormatSolveTime(10000, model.PenaltyDNF, 2); got != "DNF" {
		t.Fatalf("expected DNF, got %q", got)
	}
	if got := FormatSolveTime(10000, model.PenaltyNone, 2); got != "10.00" {
		t.Fatalf("expected 10.00, got %q", got)
	}
}

func TestDateString(t *testing.T) {
	if got := DateString(0); got != "1970-01-01" {
		t.Fatalf("unexpected date: %s", got)
	}
	if got := DateString(1710115199); got != "2024-03-10" {
		t.Fatalf("unexpected date: %s", got)
	}
}
