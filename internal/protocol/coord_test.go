package protocol

import "testing"

func TestCoordinateIndexRoundTrip(t *testing.T) {
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			c := CoordinateAt(row, col)
			r, f, ok := c.Index()
			if !ok || r != row || f != col {
				t.Fatalf("%s: got (%d,%d,%v) want (%d,%d)", c, r, f, ok, row, col)
			}
		}
	}
	if CoordinateAt(0, 0) != "a8" || CoordinateAt(7, 7) != "h1" {
		t.Fatalf("corner labels wrong")
	}
	if CoordinateAt(8, 0) != NoCoordinate {
		t.Fatalf("out of range should be empty")
	}
}

func TestParseCoordinate(t *testing.T) {
	if c, err := ParseCoordinate(" E4 "); err != nil || c != "e4" {
		t.Fatalf("got %q %v", c, err)
	}
	for _, bad := range []string{"", "e", "i1", "a0", "a9", "e44"} {
		if _, err := ParseCoordinate(bad); err == nil {
			t.Fatalf("%q should be rejected", bad)
		}
	}
}

func TestBoardCloneIsDeep(t *testing.T) {
	var b Board
	b[6][4] = &Piece{Kind: Pawn, Color: White}
	cp := b.Clone()
	cp[6][4].Color = Black
	if b.At("e2").Color != White {
		t.Fatalf("clone shares pieces")
	}
}

func TestBoardFEN(t *testing.T) {
	var b Board
	b[0][4] = &Piece{Kind: King, Color: Black}
	b[7][4] = &Piece{Kind: King, Color: White}
	if got := b.FEN(); got != "4k3/8/8/8/8/8/8/4K3" {
		t.Fatalf("FEN = %q", got)
	}
	if sq, ok := b.KingOf(Black); !ok || sq != "e8" {
		t.Fatalf("black king at %q", sq)
	}
}
