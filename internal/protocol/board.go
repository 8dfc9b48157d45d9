package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	nchess "github.com/corentings/chess/v2"
)

// Color is a side as the authority writes it in turn and piece fields.
type Color string

const (
	NoColor Color = ""
	White   Color = "w"
	Black   Color = "b"
)

// ColorOf maps an assigned colour name ("white", "black") to its side.
// Anything else yields NoColor.
func ColorOf(assigned string) Color {
	switch assigned {
	case "white":
		return White
	case "black":
		return Black
	default:
		return NoColor
	}
}

// Name returns the long colour name used by the color event.
func (c Color) Name() string {
	switch c {
	case White:
		return "white"
	case Black:
		return "black"
	default:
		return ""
	}
}

// PieceKind is the lower-case piece letter.
type PieceKind string

const (
	Pawn   PieceKind = "p"
	Knight PieceKind = "n"
	Bishop PieceKind = "b"
	Rook   PieceKind = "r"
	Queen  PieceKind = "q"
	King   PieceKind = "k"
)

// Piece occupies a square.
type Piece struct {
	Kind  PieceKind `json:"type" validate:"oneof=p n b r q k"`
	Color Color     `json:"color" validate:"oneof=w b"`
}

// Board is the canonical grid: Board[0] is rank 8, Board[r][0] is file a.
// A nil entry is an empty square.
type Board [8][8]*Piece

var ErrBoardShape = errors.New("board must be 8x8")

// UnmarshalJSON enforces the 8x8 shape; null rows are rejected.
func (b *Board) UnmarshalJSON(data []byte) error {
	var rows [][]*Piece
	if err := json.Unmarshal(data, &rows); err != nil {
		return err
	}
	if len(rows) != 8 {
		return fmt.Errorf("%w: got %d rows", ErrBoardShape, len(rows))
	}
	var out Board
	for r, row := range rows {
		if len(row) != 8 {
			return fmt.Errorf("%w: row %d has %d squares", ErrBoardShape, r, len(row))
		}
		copy(out[r][:], row)
	}
	*b = out
	return nil
}

// At returns the piece on c, or nil.
func (b *Board) At(c Coordinate) *Piece {
	row, col, ok := c.Index()
	if !ok || b == nil {
		return nil
	}
	return b[row][col]
}

// Clone deep-copies the board so snapshots never share pieces.
func (b Board) Clone() Board {
	var out Board
	for r := range b {
		for f := range b[r] {
			if p := b[r][f]; p != nil {
				cp := *p
				out[r][f] = &cp
			}
		}
	}
	return out
}

// Empty reports whether no square is occupied.
func (b Board) Empty() bool {
	for r := range b {
		for f := range b[r] {
			if b[r][f] != nil {
				return false
			}
		}
	}
	return true
}

// KingOf returns the square of side's king.
func (b *Board) KingOf(side Color) (Coordinate, bool) {
	for r := range b {
		for f := range b[r] {
			if p := b[r][f]; p != nil && p.Kind == King && p.Color == side {
				return CoordinateAt(r, f), true
			}
		}
	}
	return NoCoordinate, false
}

// ToChess converts to the chess library board used for FEN and rendering.
func (b Board) ToChess() *nchess.Board {
	m := make(map[nchess.Square]nchess.Piece)
	for r := range b {
		for f := range b[r] {
			p := b[r][f]
			if p == nil {
				continue
			}
			sq := nchess.NewSquare(nchess.File(f), nchess.Rank(7-r))
			m[sq] = nchess.NewPiece(p.Kind.chessType(), p.Color.chessColor())
		}
	}
	return nchess.NewBoard(m)
}

// FEN returns the piece-placement field, handy for logs.
func (b Board) FEN() string { return b.ToChess().String() }

func (k PieceKind) chessType() nchess.PieceType {
	switch k {
	case King:
		return nchess.King
	case Queen:
		return nchess.Queen
	case Rook:
		return nchess.Rook
	case Bishop:
		return nchess.Bishop
	case Knight:
		return nchess.Knight
	case Pawn:
		return nchess.Pawn
	default:
		return nchess.NoPieceType
	}
}

func (c Color) chessColor() nchess.Color {
	switch c {
	case White:
		return nchess.White
	case Black:
		return nchess.Black
	default:
		return nchess.NoColor
	}
}
