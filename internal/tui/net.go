package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/cubetui/internal/cube"
)

// Sticker colours indexed by face: D L B U R F.
var faceColors = [6]lipgloss.Color{
	cube.D: lipgloss.Color("#FFD500"),
	cube.L: lipgloss.Color("#FF8C00"),
	cube.B: lipgloss.Color("#0051BA"),
	cube.U: lipgloss.Color("#FFFFFF"),
	cube.R: lipgloss.Color("#C41E3A"),
	cube.F: lipgloss.Color("#009E60"),
}

var (
	stickerStyles [6]lipgloss.Style
	moveStyles    [6]lipgloss.Style
)

func init() {
	for face, c := range faceColors {
		stickerStyles[face] = lipgloss.NewStyle().Background(c)
		moveStyles[face] = lipgloss.NewStyle().Foreground(c)
	}
}

const stickerCell = "  "

// RenderNet draws the unfolded cube, two terminal cells per sticker.
func RenderNet(s cube.State) string {
	grid := cube.Net(s)
	lines := make([]string, 0, cube.NetRows)
	for _, row := range grid {
		var b strings.Builder
		for _, v := range row {
			if v == cube.Empty {
				b.WriteString(stickerCell)
				continue
			}
			b.WriteString(stickerStyles[v].Render(stickerCell))
		}
		lines = append(lines, b.String())
	}
	return strings.Join(lines, "\n")
}

func moveStyle(mv string) lipgloss.Style {
	if mv == "" {
		return pendingStyle
	}
	face := strings.IndexByte(cube.FaceNames, mv[0])
	if face < 0 {
		return pendingStyle
	}
	return moveStyles[face]
}
