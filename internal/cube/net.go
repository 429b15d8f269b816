package cube

import "strings"

// Net dimensions in stickers.
const (
	NetRows = 9
	NetCols = 12
)

// Empty marks net cells that hold no sticker.
const Empty = -1

// netOrigin is the top-left cell of each face in the unfolded T layout:
// U above F, then L F R B across, D below F.
var netOrigin = [6][2]int{
	D: {6, 3},
	L: {3, 0},
	B: {3, 9},
	U: {0, 3},
	R: {3, 6},
	F: {3, 3},
}

// Net lays the state out as a 2D unfolded cube. Cells outside the faces are Empty.
func Net(s State) [NetRows][NetCols]int {
	var grid [NetRows][NetCols]int
	for r := range grid {
		for c := range grid[r] {
			grid[r][c] = Empty
		}
	}
	for face := 0; face < 6; face++ {
		top, left := netOrigin[face][0], netOrigin[face][1]
		for row := 0; row < 3; row++ {
			for col := 0; col < 3; col++ {
				grid[top+row][left+col] = int(s.At(face, row, col))
			}
		}
	}
	return grid
}

// NetText renders the net with one face letter per sticker.
func NetText(s State) string {
	grid := Net(s)
	lines := make([]string, 0, NetRows)
	for _, row := range grid {
		var b strings.Builder
		for c, v := range row {
			if c > 0 {
				b.WriteByte(' ')
			}
			if v == Empty {
				b.WriteByte(' ')
				continue
			}
			b.WriteByte(FaceNames[v])
		}
		lines = append(lines, strings.TrimRight(b.String(), " "))
	}
	return strings.Join(lines, "\n")
}
