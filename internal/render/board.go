// Package render derives what to draw from the ViewModel and the
// interaction state. Everything here is recomputed on every frame.
package render

import (
	"github.com/park285/lanchess/internal/interaction"
	"github.com/park285/lanchess/internal/msgcat"
	"github.com/park285/lanchess/internal/protocol"
	"github.com/park285/lanchess/internal/viewmodel"
)

// Highlight is the background emphasis of a square.
type Highlight uint8

const (
	HighlightNone Highlight = iota
	HighlightSelection
	HighlightCheck
)

// Marker shows a legal destination.
type Marker uint8

const (
	MarkerNone Marker = iota
	// MarkerDot marks an empty destination.
	MarkerDot
	// MarkerRing marks a capture.
	MarkerRing
)

// Cell is one square in display order.
type Cell struct {
	Coord     protocol.Coordinate
	Piece     *protocol.Piece
	Light     bool
	Highlight Highlight
	Marker    Marker
	// RankLabel is set on the left display column, FileLabel on the bottom row.
	RankLabel string
	FileLabel string
}

// BoardView is the board as the local player sees it.
type BoardView struct {
	Cells    [8][8]Cell
	Flipped  bool
	GameOver bool
	Overlay  string
	// Banner is the full game-over line, Overlay wrapped by overlay.banner.
	Banner string
}

// Flipped reports whether the board is drawn from black's side. Only a
// black assignment flips; unassigned players see white's side.
func Flipped(assignedColor string) bool { return assignedColor == "black" }

// CoordAt maps a display position to its square.
func CoordAt(flipped bool, row, col int) protocol.Coordinate {
	if flipped {
		return protocol.CoordinateAt(7-row, 7-col)
	}
	return protocol.CoordinateAt(row, col)
}

// Board computes the full board view. cat may be nil.
func Board(vm *viewmodel.ViewModel, st interaction.State, cat *msgcat.Catalog) BoardView {
	view := BoardView{Flipped: Flipped(vm.AssignedColor)}
	last, hasLast := vm.LastMove()

	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			coord := CoordAt(view.Flipped, row, col)
			r, f, _ := coord.Index()
			piece := vm.Board[r][f]

			cell := Cell{Coord: coord, Piece: piece, Light: (r+f)%2 == 0}
			switch {
			case piece != nil && piece.Kind == protocol.King && vm.IsCheck && piece.Color == vm.Turn:
				cell.Highlight = HighlightCheck
			case st.HasSelection() && coord == st.Selected:
				cell.Highlight = HighlightSelection
			case hasLast && (coord == last.From || coord == last.To):
				cell.Highlight = HighlightSelection
			}
			if st.Destinations.Has(coord) {
				if piece == nil {
					cell.Marker = MarkerDot
				} else {
					cell.Marker = MarkerRing
				}
			}
			if col == 0 {
				cell.RankLabel = string(coord.Rank())
			}
			if row == 7 {
				cell.FileLabel = string(coord.File())
			}
			view.Cells[row][col] = cell
		}
	}

	if vm.GameOver.Over {
		view.GameOver = true
		view.Overlay = OverlayText(vm.GameOver, cat)
		view.Banner = text(cat, "overlay.banner", "Game Over: "+view.Overlay, map[string]any{"Reason": view.Overlay})
	}
	return view
}

// OverlayText names why the game ended.
func OverlayText(g protocol.GameOver, cat *msgcat.Catalog) string {
	key, fallback := "overlay.game_over", "Game over"
	switch g.Reason {
	case protocol.ReasonCheckmate:
		key, fallback = "overlay.checkmate", "Checkmate"
	case protocol.ReasonDraw:
		key, fallback = "overlay.draw", "Draw"
	case protocol.ReasonStalemate:
		key, fallback = "overlay.stalemate", "Stalemate"
	}
	return text(cat, key, fallback, nil)
}

func text(cat *msgcat.Catalog, key, fallback string, data any) string {
	if cat == nil {
		return fallback
	}
	s, err := cat.Render(key, data)
	if err != nil {
		return fallback
	}
	return s
}

// Glyph is the piece letter, upper case for white.
func Glyph(p *protocol.Piece) string {
	if p == nil {
		return ""
	}
	if p.Color == protocol.White {
		return string(rune(p.Kind[0] - 'a' + 'A'))
	}
	return string(p.Kind)
}

var symbols = map[protocol.Color]map[protocol.PieceKind]string{
	protocol.White: {protocol.King: "♔", protocol.Queen: "♕", protocol.Rook: "♖", protocol.Bishop: "♗", protocol.Knight: "♘", protocol.Pawn: "♙"},
	protocol.Black: {protocol.King: "♚", protocol.Queen: "♛", protocol.Rook: "♜", protocol.Bishop: "♝", protocol.Knight: "♞", protocol.Pawn: "♟"},
}

// Symbol is the Unicode chess glyph for p.
func Symbol(p *protocol.Piece) string {
	if p == nil {
		return ""
	}
	return symbols[p.Color][p.Kind]
}
