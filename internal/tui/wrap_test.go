package tui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestBuildScrambleTokens(t *testing.T) {
	tokens := buildScrambleTokens([]string{"R", "U'", "F2"})
	if len(tokens) != 5 {
		t.Fatalf("expected 5 tokens, got %d", len(tokens))
	}
	if tokens[0].s != moveStyle("R").Render("R") {
		t.Fatalf("expected R in its face colour")
	}
	if !tokens[1].isSpace || tokens[1].s != " " {
		t.Fatalf("expected plain separator, got %+v", tokens[1])
	}
	if tokens[2].width != 2 {
		t.Fatalf("expected width 2 for U', got %d", tokens[2].width)
	}
}

func TestMoveStyleFallsBackForUnknownFace(t *testing.T) {
	if moveStyle("x").Render("x") != pendingStyle.Render("x") {
		t.Fatalf("expected pending style for unknown move")
	}
}

func TestWrapStyledTokensBreaksAtSpaces(t *testing.T) {
	tokens := buildScrambleTokens([]string{"R", "U'", "F2", "D", "L2", "B'"})
	out := wrapStyledTokens(tokens, 8)
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), out)
	}
	for _, line := range lines {
		if w := lipgloss.Width(line); w > 8 {
			t.Fatalf("line wider than 8: %d", w)
		}
		if strings.HasPrefix(line, " ") {
			t.Fatalf("line starts with a separator: %q", line)
		}
	}
}

func TestWrapStyledTokensNoWidth(t *testing.T) {
	tokens := buildScrambleTokens([]string{"R", "U"})
	if got := wrapStyledTokens(tokens, 0); got != renderStyledTokens(tokens) {
		t.Fatalf("expected unwrapped output")
	}
}
