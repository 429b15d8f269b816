// Package cube simulates the 54 facelets of a 3x3x3 cube.
package cube

import "strings"

// Face indices. Each face owns nine consecutive stickers in State.
const (
	D = iota
	L
	B
	U
	R
	F
)

// FaceNames lists face letters in index order.
const FaceNames = "DLBURF"

// Stickers is the number of facelets on the cube.
const Stickers = 54

// State holds, for each sticker, the index of the face whose colour occupies it.
type State [Stickers]uint8

// Turn is one face turn of 1, 2 or 3 clockwise quarter turns.
type Turn struct {
	Face         int
	QuarterTurns int
}

// faceRotation maps each destination position on a face to its source position
// for one clockwise quarter turn.
var faceRotation = [9]int{6, 3, 0, 7, 4, 1, 8, 5, 2}

// strips lists, per face, the four neighbouring 3-sticker strips cycled by a
// clockwise turn. Strip i receives the stickers of strip i-1.
var strips = [6][4][3]int{
	D: {
		{F*9 + 6, F*9 + 7, F*9 + 8},
		{R*9 + 6, R*9 + 7, R*9 + 8},
		{B*9 + 6, B*9 + 7, B*9 + 8},
		{L*9 + 6, L*9 + 7, L*9 + 8},
	},
	L: {
		{U*9 + 0, U*9 + 3, U*9 + 6},
		{F*9 + 0, F*9 + 3, F*9 + 6},
		{D*9 + 0, D*9 + 3, D*9 + 6},
		{B*9 + 8, B*9 + 5, B*9 + 2},
	},
	B: {
		{U*9 + 0, U*9 + 1, U*9 + 2},
		{L*9 + 6, L*9 + 3, L*9 + 0},
		{D*9 + 8, D*9 + 7, D*9 + 6},
		{R*9 + 2, R*9 + 5, R*9 + 8},
	},
	U: {
		{B*9 + 0, B*9 + 1, B*9 + 2},
		{R*9 + 0, R*9 + 1, R*9 + 2},
		{F*9 + 0, F*9 + 1, F*9 + 2},
		{L*9 + 0, L*9 + 1, L*9 + 2},
	},
	R: {
		{U*9 + 2, U*9 + 5, U*9 + 8},
		{B*9 + 6, B*9 + 3, B*9 + 0},
		{D*9 + 2, D*9 + 5, D*9 + 8},
		{F*9 + 2, F*9 + 5, F*9 + 8},
	},
	F: {
		{U*9 + 6, U*9 + 7, U*9 + 8},
		{R*9 + 0, R*9 + 3, R*9 + 6},
		{D*9 + 2, D*9 + 1, D*9 + 0},
		{L*9 + 8, L*9 + 5, L*9 + 2},
	},
}

// Solved returns the solved state.
func Solved() State {
	var s State
	for face := 0; face < 6; face++ {
		for i := 0; i < 9; i++ {
			s[face*9+i] = uint8(face)
		}
	}
	return s
}

// IsSolved reports whether every face shows a single colour.
func (s State) IsSolved() bool {
	return s == Solved()
}

// ApplyTurn applies quarterTurns clockwise quarter turns of face.
// Out-of-range faces are ignored.
func (s *State) ApplyTurn(face, quarterTurns int) {
	if face < 0 || face >= 6 {
		return
	}
	quarterTurns %= 4
	if quarterTurns < 0 {
		quarterTurns += 4
	}
	for k := 0; k < quarterTurns; k++ {
		s.quarterTurn(face)
	}
}

func (s *State) quarterTurn(face int) {
	base := face * 9
	var tmp [9]uint8
	copy(tmp[:], s[base:base+9])
	for dst, src := range faceRotation {
		s[base+dst] = tmp[src]
	}

	ring := strips[face]
	var last [3]uint8
	for j := 0; j < 3; j++ {
		last[j] = s[ring[3][j]]
	}
	for i := 3; i > 0; i-- {
		for j := 0; j < 3; j++ {
			s[ring[i][j]] = s[ring[i-1][j]]
		}
	}
	for j := 0; j < 3; j++ {
		s[ring[0][j]] = last[j]
	}
}

// ParseTurns converts a move string into turns. Tokens that do not start with a
// face letter are skipped.
func ParseTurns(moves string) []Turn {
	tokens := strings.Fields(moves)
	out := make([]Turn, 0, len(tokens))
	for _, tok := range tokens {
		face := strings.IndexByte(FaceNames, upper(tok[0]))
		if face < 0 {
			continue
		}
		q := 1
		switch {
		case strings.Contains(tok, "'"):
			q = 3
		case strings.Contains(tok, "2"):
			q = 2
		}
		out = append(out, Turn{Face: face, QuarterTurns: q})
	}
	return out
}

// ApplyScramble applies every turn of moves to s.
func (s *State) ApplyScramble(moves string) {
	for _, t := range ParseTurns(moves) {
		s.ApplyTurn(t.Face, t.QuarterTurns)
	}
}

// FromScramble returns the state reached by applying moves to a solved cube.
func FromScramble(moves string) State {
	s := Solved()
	s.ApplyScramble(moves)
	return s
}

// At returns the colour index at row, col of face.
func (s State) At(face, row, col int) uint8 {
	return s[face*9+row*3+col]
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}
