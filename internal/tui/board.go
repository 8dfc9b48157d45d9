// Package tui is the terminal front end: a tview application with a
// mouse-driven board and a side panel.
package tui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/park285/lanchess/internal/protocol"
	"github.com/park285/lanchess/internal/render"
)

// Each square is three columns wide and one row high; the rank labels take
// two columns on the left and the file labels one row below.
const (
	cellW    = 3
	cellH    = 1
	labelW   = 2
	boardW   = labelW + 8*cellW
	boardH   = 8*cellH + 1
	noSquare = protocol.NoCoordinate
)

// Gestures receives pointer input resolved to squares.
type Gestures interface {
	Click(sq protocol.Coordinate)
	DragStart(sq protocol.Coordinate)
	Drop(sq protocol.Coordinate)
}

var (
	lightBG     = tcell.NewRGBColor(235, 236, 208)
	darkBG      = tcell.NewRGBColor(115, 149, 82)
	selectionBG = tcell.NewRGBColor(246, 222, 92)
	checkBG     = tcell.NewRGBColor(220, 38, 38)
	pieceFG     = tcell.ColorBlack
	markerFG    = tcell.NewRGBColor(60, 60, 60)
	overlayBG   = tcell.NewRGBColor(39, 39, 42)
)

// BoardWidget draws a render.BoardView and turns mouse input into
// gestures. All methods run on the tview goroutine.
type BoardWidget struct {
	*tview.Box
	view     render.BoardView
	hasView  bool
	gestures Gestures

	pressed  protocol.Coordinate
	dragging bool
}

func NewBoardWidget(g Gestures) *BoardWidget {
	b := &BoardWidget{Box: tview.NewBox(), gestures: g}
	b.SetBorder(true)
	return b
}

// SetView replaces the board shown on the next draw.
func (b *BoardWidget) SetView(v render.BoardView) {
	b.view = v
	b.hasView = true
}

func (b *BoardWidget) origin() (int, int) {
	x, y, _, _ := b.GetInnerRect()
	return x + labelW, y
}

// squareAt maps a screen cell to the square drawn there.
func (b *BoardWidget) squareAt(x, y int) protocol.Coordinate {
	if !b.hasView {
		return noSquare
	}
	ox, oy := b.origin()
	if x < ox || y < oy {
		return noSquare
	}
	col, row := (x-ox)/cellW, (y-oy)/cellH
	if col > 7 || row > 7 {
		return noSquare
	}
	return b.view.Cells[row][col].Coord
}

// handleMouse applies one mouse event. A press and release on the same
// square is a click; moving off the pressed square with the button held
// starts a drag, and the release square is the drop target.
func (b *BoardWidget) handleMouse(action tview.MouseAction, x, y int, buttons tcell.ButtonMask) bool {
	sq := b.squareAt(x, y)
	switch action {
	case tview.MouseLeftDown:
		b.pressed, b.dragging = sq, false
		return sq != noSquare
	case tview.MouseMove:
		if b.pressed == noSquare || b.dragging || buttons&tcell.Button1 == 0 {
			return false
		}
		if sq != b.pressed {
			b.dragging = true
			b.gestures.DragStart(b.pressed)
		}
		return true
	case tview.MouseLeftUp:
		pressed, dragging := b.pressed, b.dragging
		b.pressed, b.dragging = noSquare, false
		if pressed == noSquare {
			return false
		}
		switch {
		case dragging && sq != noSquare:
			b.gestures.Drop(sq)
		case !dragging && sq == pressed:
			b.gestures.Click(sq)
		}
		return true
	case tview.MouseLeftClick:
		return sq != noSquare
	}
	return false
}

func (b *BoardWidget) MouseHandler() func(action tview.MouseAction, event *tcell.EventMouse, setFocus func(p tview.Primitive)) (bool, tview.Primitive) {
	return b.WrapMouseHandler(func(action tview.MouseAction, event *tcell.EventMouse, setFocus func(p tview.Primitive)) (bool, tview.Primitive) {
		x, y := event.Position()
		if !b.InRect(x, y) && b.pressed == noSquare {
			return false, nil
		}
		if action == tview.MouseLeftDown {
			setFocus(b)
		}
		consumed := b.handleMouse(action, x, y, event.Buttons())
		if b.pressed != noSquare {
			return true, b
		}
		return consumed, nil
	})
}

func (b *BoardWidget) Draw(screen tcell.Screen) {
	b.Box.DrawForSubclass(screen, b)
	if !b.hasView {
		return
	}
	x, y, w, h := b.GetInnerRect()
	if w < boardW || h < boardH {
		tview.Print(screen, "terminal too small", x, y, w, tview.AlignLeft, tcell.ColorRed)
		return
	}
	ox, oy := b.origin()
	labelStyle := tcell.StyleDefault.Foreground(tcell.ColorGray)

	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			cell := b.view.Cells[row][col]
			drawCell(screen, ox+col*cellW, oy+row*cellH, cell)
			if cell.RankLabel != "" {
				screen.SetContent(x, oy+row*cellH, rune(cell.RankLabel[0]), nil, labelStyle)
			}
			if cell.FileLabel != "" {
				screen.SetContent(ox+col*cellW+cellW/2, oy+8*cellH, rune(cell.FileLabel[0]), nil, labelStyle)
			}
		}
	}
	if b.view.GameOver {
		drawOverlay(screen, ox, oy, b.view.Banner)
	}
}

func drawCell(screen tcell.Screen, x, y int, cell render.Cell) {
	bg := darkBG
	if cell.Light {
		bg = lightBG
	}
	switch cell.Highlight {
	case render.HighlightSelection:
		bg = selectionBG
	case render.HighlightCheck:
		bg = checkBG
	}
	style := tcell.StyleDefault.Background(bg).Foreground(pieceFG)
	marker := style.Foreground(markerFG)

	runes := [cellW]rune{' ', ' ', ' '}
	styles := [cellW]tcell.Style{style, style, style}
	if sym := render.Symbol(cell.Piece); sym != "" {
		runes[1] = []rune(sym)[0]
	}
	switch cell.Marker {
	case render.MarkerDot:
		runes[1], styles[1] = '•', marker
	case render.MarkerRing:
		runes[0], styles[0] = '(', marker
		runes[2], styles[2] = ')', marker
	}
	for i, r := range runes {
		screen.SetContent(x+i, y, r, nil, styles[i])
	}
}

func drawOverlay(screen tcell.Screen, ox, oy int, text string) {
	width := 8 * cellW
	style := tcell.StyleDefault.Background(overlayBG).Foreground(tcell.ColorWhite).Bold(true)
	for _, row := range []int{3, 4} {
		for i := 0; i < width; i++ {
			screen.SetContent(ox+i, oy+row*cellH, ' ', nil, style)
		}
	}
	runes := []rune(text)
	start := ox + (width-len(runes))/2
	if start < ox {
		start = ox
	}
	for i, r := range runes {
		if i >= width {
			break
		}
		screen.SetContent(start+i, oy+3*cellH, r, nil, style)
	}
}
