package render

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/park285/lanchess/internal/interaction"
	"github.com/park285/lanchess/internal/msgcat"
	"github.com/park285/lanchess/internal/protocol"
	"github.com/park285/lanchess/internal/viewmodel"
)

func startVM(color string) *viewmodel.ViewModel {
	vm := viewmodel.Default()
	vm.AssignedColor = color
	vm.Status = viewmodel.StatusReady
	vm.RoomID = "ABCD"
	vm.Turn = protocol.White
	vm.Board[7][4] = &protocol.Piece{Kind: protocol.King, Color: protocol.White}
	vm.Board[0][4] = &protocol.Piece{Kind: protocol.King, Color: protocol.Black}
	vm.Board[6][4] = &protocol.Piece{Kind: protocol.Pawn, Color: protocol.White}
	vm.Board[1][3] = &protocol.Piece{Kind: protocol.Pawn, Color: protocol.Black}
	return &vm
}

func noSelection() interaction.State { return interaction.State{Destinations: protocol.CoordSet{}} }

func TestOrientation(t *testing.T) {
	cases := []struct {
		color       string
		topLeft     protocol.Coordinate
		bottomRight protocol.Coordinate
	}{
		{"white", "a8", "h1"},
		{"black", "h1", "a8"},
		{"", "a8", "h1"},
	}
	for _, tc := range cases {
		view := Board(startVM(tc.color), noSelection(), nil)
		if got := view.Cells[0][0].Coord; got != tc.topLeft {
			t.Fatalf("%q: (0,0) = %s want %s", tc.color, got, tc.topLeft)
		}
		if got := view.Cells[7][7].Coord; got != tc.bottomRight {
			t.Fatalf("%q: (7,7) = %s want %s", tc.color, got, tc.bottomRight)
		}
	}
}

func TestLabelsFollowOrientation(t *testing.T) {
	view := Board(startVM("black"), noSelection(), nil)
	var ranks, files string
	for row := 0; row < 8; row++ {
		ranks += view.Cells[row][0].RankLabel
		if view.Cells[row][1].RankLabel != "" {
			t.Fatalf("rank label outside the left column")
		}
	}
	for col := 0; col < 8; col++ {
		files += view.Cells[7][col].FileLabel
	}
	if ranks != "12345678" || files != "hgfedcba" {
		t.Fatalf("labels ranks=%q files=%q", ranks, files)
	}
}

func cellAt(view BoardView, c protocol.Coordinate) Cell {
	for row := range view.Cells {
		for col := range view.Cells[row] {
			if view.Cells[row][col].Coord == c {
				return view.Cells[row][col]
			}
		}
	}
	return Cell{}
}

func TestHighlights(t *testing.T) {
	vm := startVM("white")
	vm.History = []protocol.MoveRecord{{From: "d8", To: "d7", Kind: protocol.KindMove}}
	st := interaction.State{Selected: "e2", Destinations: protocol.NewCoordSet("e3", "d7")}
	view := Board(vm, st, nil)

	want := map[protocol.Coordinate]struct {
		h Highlight
		m Marker
	}{
		"e2": {HighlightSelection, MarkerNone},
		"d8": {HighlightSelection, MarkerNone},
		"d7": {HighlightSelection, MarkerRing},
		"e3": {HighlightNone, MarkerDot},
		"e1": {HighlightNone, MarkerNone},
		"a4": {HighlightNone, MarkerNone},
	}
	for c, w := range want {
		cell := cellAt(view, c)
		if cell.Highlight != w.h || cell.Marker != w.m {
			t.Fatalf("%s: highlight=%d marker=%d want %d/%d", c, cell.Highlight, cell.Marker, w.h, w.m)
		}
	}
}

func TestCheckBeatsSelection(t *testing.T) {
	vm := startVM("white")
	vm.IsCheck = true
	vm.History = []protocol.MoveRecord{{From: "d2", To: "e1", Kind: protocol.KindCheck}}
	st := interaction.State{Selected: "e1", Destinations: protocol.NewCoordSet("f1")}
	view := Board(vm, st, nil)
	if c := cellAt(view, "e1"); c.Highlight != HighlightCheck {
		t.Fatalf("e1 highlight = %d", c.Highlight)
	}
	if c := cellAt(view, "e8"); c.Highlight != HighlightNone {
		t.Fatalf("king of the side not to move highlighted")
	}
	if c := cellAt(view, "f1"); c.Marker != MarkerDot {
		t.Fatalf("marker lost next to check")
	}
}

func TestEmptySquareSelection(t *testing.T) {
	view := Board(startVM("white"), interaction.State{Selected: "a4", Destinations: protocol.CoordSet{}}, nil)
	if c := cellAt(view, "a4"); c.Highlight != HighlightSelection || c.Marker != MarkerNone {
		t.Fatalf("a4 = %+v", c)
	}
}

func TestOverlay(t *testing.T) {
	cat := msgcat.Default()
	vm := startVM("white")
	if v := Board(vm, noSelection(), cat); v.GameOver || v.Overlay != "" {
		t.Fatalf("overlay on a live game")
	}
	for reason, want := range map[protocol.GameOverReason]string{
		protocol.ReasonCheckmate: "Checkmate",
		protocol.ReasonDraw:      "Draw",
		protocol.ReasonStalemate: "Stalemate",
	} {
		vm.GameOver = protocol.GameOver{Over: true, Reason: reason}
		v := Board(vm, noSelection(), cat)
		if !v.GameOver || v.Overlay != want || v.Banner != "Game Over: "+want {
			t.Fatalf("%s: overlay %q banner %q", reason, v.Overlay, v.Banner)
		}
	}
}

func TestBannerComesFromCatalog(t *testing.T) {
	dir := t.TempDir()
	body := "overlay:\n  banner: \"Partie finie ({{.Reason}})\"\n  draw: \"Nulle\"\n"
	if err := os.WriteFile(filepath.Join(dir, "fr.yaml"), []byte(body), 0o644); err != nil {
		t.Fatalf("write override: %v", err)
	}
	cat, err := msgcat.New(dir)
	if err != nil {
		t.Fatalf("msgcat.New: %v", err)
	}
	vm := startVM("black")
	vm.GameOver = protocol.GameOver{Over: true, Reason: protocol.ReasonDraw}
	if v := Board(vm, noSelection(), cat); v.Banner != "Partie finie (Nulle)" {
		t.Fatalf("banner = %q", v.Banner)
	}
	if v := Board(vm, noSelection(), nil); v.Banner != "Game Over: Draw" {
		t.Fatalf("banner without catalog = %q", v.Banner)
	}
}

func TestPanelByStatus(t *testing.T) {
	cat := msgcat.Default()
	vm := viewmodel.Default()
	p := Panel(&vm, cat)
	if p.Kind != PanelJoin || p.Error != "" || !cmp.Equal(p.Actions, []Action{ActionJoin}) {
		t.Fatalf("lobby panel: %+v", p)
	}

	vm.Status = viewmodel.StatusFail
	vm.RoomID = "ABCD"
	if p := Panel(&vm, cat); p.Kind != PanelJoin || p.Error == "" {
		t.Fatalf("fail panel: %+v", p)
	}

	vm.Status = viewmodel.StatusWaiting
	p = Panel(&vm, cat)
	if p.Kind != PanelControls || p.Message != "Waiting for an opponent to join room ABCD" {
		t.Fatalf("waiting panel: %+v", p)
	}
	if diff := cmp.Diff([]Action{ActionUndo, ActionReset, ActionLeave}, p.Actions); diff != "" {
		t.Fatalf("actions (-want +got):\n%s", diff)
	}

	vm.Status = viewmodel.StatusReady
	if p := Panel(&vm, cat); p.Room != "Room: ABCD" {
		t.Fatalf("ready panel room = %q", p.Room)
	}
}

func TestMoveList(t *testing.T) {
	vm := viewmodel.Default()
	vm.History = []protocol.MoveRecord{
		{From: "e2", To: "e4", Kind: protocol.KindMove},
		{From: "e7", To: "e5", Kind: protocol.KindMove},
		{From: "g1", To: "f3", Kind: protocol.KindMove},
	}
	want := []string{"1. e2-e4  e7-e5", "2. g1-f3"}
	if diff := cmp.Diff(want, MoveList(&vm)); diff != "" {
		t.Fatalf("moves (-want +got):\n%s", diff)
	}
}

func TestSnapshotPNG(t *testing.T) {
	vm := startVM("white")
	st := interaction.State{Selected: "e2", Destinations: protocol.NewCoordSet("e3", "d7")}
	white, err := SnapshotPNG(context.Background(), Board(vm, st, nil), SnapshotOptions{SquareSize: 32, Margin: 16})
	if err != nil {
		t.Fatalf("SnapshotPNG: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(white))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 32*8+32 || b.Dy() != 32*8+32 {
		t.Fatalf("bounds = %v", b)
	}

	vm.AssignedColor = "black"
	black, err := SnapshotPNG(context.Background(), Board(vm, st, nil), SnapshotOptions{SquareSize: 32, Margin: 16})
	if err != nil {
		t.Fatalf("SnapshotPNG black: %v", err)
	}
	if bytes.Equal(white, black) {
		t.Fatalf("orientation did not change the image")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := SnapshotPNG(ctx, Board(vm, st, nil), SnapshotOptions{}); err == nil {
		t.Fatalf("cancelled context should abort")
	}
}

func TestGlyphs(t *testing.T) {
	if g := Glyph(&protocol.Piece{Kind: protocol.Knight, Color: protocol.White}); g != "N" {
		t.Fatalf("glyph = %q", g)
	}
	if s := Symbol(&protocol.Piece{Kind: protocol.Queen, Color: protocol.Black}); s != "♛" {
		t.Fatalf("symbol = %q", s)
	}
	if Glyph(nil) != "" || Symbol(nil) != "" {
		t.Fatalf("empty square should have no glyph")
	}
}
