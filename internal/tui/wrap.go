package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/cubetui/internal/scramble"
)

type styledToken struct {
	s       string
	width   int
	isSpace bool
}

// buildScrambleTokens renders each move in its face colour, separated by
// plain spaces that wrapping may break on.
func buildScrambleTokens(moves []string) []styledToken {
	out := make([]styledToken, 0, 2*len(moves))
	for i, mv := range moves {
		if i > 0 {
			out = append(out, styledToken{s: " ", width: 1, isSpace: true})
		}
		out = append(out, styledToken{
			s:     moveStyle(mv).Render(mv),
			width: runewidth.StringWidth(mv),
		})
	}
	return out
}

// RenderMoves colours a move sequence by face and wraps it to width.
func RenderMoves(moves string, width int) string {
	return wrapStyledTokens(buildScrambleTokens(scramble.Parse(moves)), width)
}

func renderStyledTokens(tokens []styledToken) string {
	var b strings.Builder
	for _, item := range tokens {
		b.WriteString(item.s)
	}
	return b.String()
}

func wrapStyledTokens(tokens []styledToken, width int) string {
	if width <= 0 {
		return renderStyledTokens(tokens)
	}
	var out strings.Builder
	line := make([]styledToken, 0, len(tokens))
	lineWidth := 0
	lastSpaceIdx := -1

	for i := 0; i < len(tokens); {
		item := tokens[i]
		if lineWidth+item.width > width && len(line) > 0 {
			if lastSpaceIdx >= 0 {
				out.WriteString(renderStyledTokens(line[:lastSpaceIdx]))
				out.WriteRune('\n')
				line = append([]styledToken{}, line[lastSpaceIdx+1:]...)
				lineWidth = lineWidthOf(line)
				lastSpaceIdx = lastSpaceIndex(line)
			} else {
				out.WriteString(renderStyledTokens(line))
				out.WriteRune('\n')
				line = line[:0]
				lineWidth = 0
				lastSpaceIdx = -1
			}
			continue
		}
		// A line never starts with a separator.
		if item.isSpace && len(line) == 0 {
			i++
			continue
		}
		line = append(line, item)
		lineWidth += item.width
		if item.isSpace {
			lastSpaceIdx = len(line) - 1
		}
		i++
	}
	out.WriteString(renderStyledTokens(line))
	return out.String()
}

func lineWidthOf(line []styledToken) int {
	total := 0
	for _, item := range line {
		total += item.width
	}
	return total
}

func lastSpaceIndex(line []styledToken) int {
	for i := len(line) - 1; i >= 0; i-- {
		if line[i].isSpace {
			return i
		}
	}
	return -1
}
