package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/park285/lanchess/internal/render"
	"github.com/park285/lanchess/internal/session"
)

const (
	reset  = "\033[0m"
	red    = "\033[31m"
	yellow = "\033[33m"
	blue   = "\033[34m"
	cyan   = "\033[36m"
	selBG  = "\033[43m"
	chkBG  = "\033[41m"
)

func paint(on bool, code, s string) string {
	if !on {
		return s
	}
	return code + s + reset
}

// RenderBoard prints v as text, three columns per square. Empty squares
// are dots, destinations are * (empty) or (X) (capture).
func RenderBoard(w io.Writer, v render.BoardView, color bool) {
	var b strings.Builder
	for row := 0; row < 8; row++ {
		b.WriteString(paint(color, cyan, v.Cells[row][0].RankLabel))
		b.WriteString(" ")
		for col := 0; col < 8; col++ {
			b.WriteString(cellText(v.Cells[row][col], color))
		}
		b.WriteString("\n")
	}
	b.WriteString("  ")
	for col := 0; col < 8; col++ {
		b.WriteString(" " + paint(color, cyan, v.Cells[7][col].FileLabel) + " ")
	}
	b.WriteString("\n")
	if v.GameOver {
		b.WriteString(paint(color, yellow, v.Banner))
		b.WriteString("\n")
	}
	fmt.Fprint(w, b.String())
}

func cellText(c render.Cell, color bool) string {
	glyph := "."
	if c.Piece != nil {
		glyph = render.Glyph(c.Piece)
		if color {
			code := blue
			if glyph == strings.ToLower(glyph) {
				code = red
			}
			glyph = code + glyph + reset
		}
	}
	left, right := " ", " "
	switch c.Marker {
	case render.MarkerDot:
		glyph = "*"
	case render.MarkerRing:
		left, right = "(", ")"
	}
	text := left + glyph + right
	if color {
		switch c.Highlight {
		case render.HighlightSelection:
			text = selBG + text + reset
		case render.HighlightCheck:
			text = chkBG + text + reset
		}
	}
	return text
}

// Prompt shows room, colour and status, the same facts as the debug line.
func Prompt(f session.Frame, color bool) string {
	var parts []string
	if f.View.RoomID != "" {
		parts = append(parts, f.View.RoomID)
	}
	if f.View.AssignedColor != "" {
		parts = append(parts, f.View.AssignedColor)
	}
	parts = append(parts, string(f.View.Status))
	if f.View.InGame() && !f.View.GameOver.Over && f.View.IsMyTurn() {
		parts = append(parts, "to move")
	}
	p := "lanchess [" + strings.Join(parts, " ") + "]"
	if !f.View.Connected {
		p += " (offline)"
	}
	return paint(color, yellow, p+" > ")
}
