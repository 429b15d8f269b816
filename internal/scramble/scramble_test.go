package scramble

import (
	"math/rand"
	"testing"
)

func TestGenerateAdjacency(t *testing.T) {
	g := NewWithSource(rand.NewSource(7))
	for run := 0; run < 500; run++ {
		moves := Parse(g.Generate())
		if len(moves) != DefaultLength {
			t.Fatalf("expected %d moves, got %d", DefaultLength, len(moves))
		}
		for i, m := range moves {
			if !movePattern.MatchString(m) {
				t.Fatalf("invalid move %q", m)
			}
			if i > 0 && m[0] == moves[i-1][0] {
				t.Fatalf("repeated face at %d: %v", i, moves)
			}
			if i > 1 && Axis(moves[i-2]) == Axis(moves[i-1]) && Axis(moves[i-1]) == Axis(m) {
				t.Fatalf("three same-axis moves at %d: %v", i, moves)
			}
		}
	}
}

func TestGenerateN(t *testing.T) {
	g := NewWithSource(rand.NewSource(1))
	if got := len(Parse(g.GenerateN(25))); got != 25 {
		t.Fatalf("expected 25 moves, got %d", got)
	}
	if g.GenerateN(0) != "" {
		t.Fatalf("expected empty scramble")
	}
	g.WithLength(12)
	if got := len(Parse(g.Generate())); got != 12 {
		t.Fatalf("expected 12 moves, got %d", got)
	}
}

func TestInvert(t *testing.T) {
	got := Invert("R U2 F' D")
	if got != "D' F U2 R'" {
		t.Fatalf("unexpected inverse: %q", got)
	}
	if Invert("") != "" {
		t.Fatalf("expected empty inverse")
	}
}

func TestIsValid(t *testing.T) {
	if !IsValid("R U R' U'") {
		t.Fatalf("expected valid scramble")
	}
	for _, s := range []string{"", "   ", "R x", "Rw U", "R3"} {
		if IsValid(s) {
			t.Fatalf("expected %q to be invalid", s)
		}
	}
}

func TestAllowedAfter(t *testing.T) {
	cases := []struct {
		moves []string
		face  string
		want  bool
	}{
		{nil, "U", true},
		{[]string{"R"}, "R", false},
		{[]string{"R2"}, "L", true},
		{[]string{"R", "L'"}, "R", false},
		{[]string{"U", "D2"}, "R", true},
		{[]string{"F", "R"}, "L", true},
	}
	for _, tc := range cases {
		if got := allowedAfter(tc.moves, tc.face); got != tc.want {
			t.Fatalf("allowedAfter(%v, %q) = %v, want %v", tc.moves, tc.face, got, tc.want)
		}
	}
}
