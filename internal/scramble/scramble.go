// Package scramble builds WCA-style random-move scrambles.
package scramble

import (
	"math/rand"
	"regexp"
	"strings"
	"time"
)

// DefaultLength is the number of moves in a generated scramble.
const DefaultLength = 20

var (
	faces     = []byte{'U', 'D', 'R', 'L', 'F', 'B'}
	modifiers = []string{"", "'", "2"}
	axisOf    = map[byte]int{'U': 0, 'D': 0, 'R': 1, 'L': 1, 'F': 2, 'B': 2}

	movePattern = regexp.MustCompile(`^[UDRLBF][2']?$`)
)

// Generator produces random scrambles.
type Generator struct {
	rnd    *rand.Rand
	length int
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewWithSource(rand.NewSource(time.Now().UnixNano()))
}

// NewWithSource returns a Generator using the given random source.
func NewWithSource(src rand.Source) *Generator {
	return &Generator{rnd: rand.New(src), length: DefaultLength}
}

// WithLength sets the default scramble length used by Generate.
func (g *Generator) WithLength(n int) *Generator {
	if n > 0 {
		g.length = n
	}
	return g
}

// Generate returns a scramble of the generator's default length.
func (g *Generator) Generate() string {
	return g.GenerateN(g.length)
}

// GenerateN returns a scramble of n moves. A move never repeats the previous face,
// and never lands on the axis the previous two moves already share.
func (g *Generator) GenerateN(n int) string {
	moves := make([]string, 0, n)
	available := make([]string, 0, len(faces))
	for len(moves) < n {
		available = available[:0]
		for _, f := range faces {
			if face := string(f); allowedAfter(moves, face) {
				available = append(available, face)
			}
		}
		face := available[g.rnd.Intn(len(available))]
		moves = append(moves, face+modifiers[g.rnd.Intn(len(modifiers))])
	}
	return strings.Join(moves, " ")
}

// allowedAfter reports whether face may follow the moves generated so far.
func allowedAfter(moves []string, face string) bool {
	k := len(moves)
	if k == 0 {
		return true
	}
	prev := moves[k-1]
	if prev[0] == face[0] {
		return false
	}
	if k >= 2 {
		axis := Axis(prev)
		if Axis(moves[k-2]) == axis && Axis(face) == axis {
			return false
		}
	}
	return true
}

// Parse splits a scramble into move tokens.
func Parse(s string) []string {
	return strings.Fields(s)
}

// IsValid reports whether every token is a plain face turn.
func IsValid(s string) bool {
	moves := Parse(s)
	if len(moves) == 0 {
		return false
	}
	for _, m := range moves {
		if !movePattern.MatchString(m) {
			return false
		}
	}
	return true
}

// Invert returns the move sequence that undoes s.
func Invert(s string) string {
	moves := Parse(s)
	out := make([]string, 0, len(moves))
	for i := len(moves) - 1; i >= 0; i-- {
		m := moves[i]
		switch {
		case strings.HasSuffix(m, "'"):
			out = append(out, strings.TrimSuffix(m, "'"))
		case strings.HasSuffix(m, "2"):
			out = append(out, m)
		default:
			out = append(out, m+"'")
		}
	}
	return strings.Join(out, " ")
}

// Axis returns the axis index (0 U/D, 1 R/L, 2 F/B) of a move's face, or -1.
func Axis(move string) int {
	if move == "" {
		return -1
	}
	if a, ok := axisOf[move[0]]; ok {
		return a
	}
	return -1
}
