package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"

	"github.com/srwiley/rasterx"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// SnapshotOptions sizes the exported image.
type SnapshotOptions struct {
	SquareSize int
	Margin     int
}

func (o SnapshotOptions) withDefaults() SnapshotOptions {
	if o.SquareSize <= 0 {
		o.SquareSize = 64
	}
	if o.Margin <= 0 {
		o.Margin = 24
	}
	return o
}

var (
	lightSquare      = color.RGBA{235, 236, 208, 255}
	darkSquare       = color.RGBA{115, 149, 82, 255}
	selectionFill    = color.NRGBA{R: 253, G: 224, B: 71, A: 165}
	checkFill        = color.NRGBA{R: 220, G: 38, B: 38, A: 180}
	markerColor      = color.NRGBA{R: 0, G: 0, B: 0, A: 52}
	frameColor       = color.RGBA{180, 83, 9, 255}
	overlayShade     = color.NRGBA{R: 39, G: 39, B: 42, A: 204}
	overlayTextColor = color.White
)

// SnapshotPNG draws view as a PNG, in the same orientation the player sees.
func SnapshotPNG(ctx context.Context, view BoardView, opts SnapshotOptions) ([]byte, error) {
	opts = opts.withDefaults()
	sq := opts.SquareSize
	boardSize := sq * 8
	origin := image.Point{X: opts.Margin, Y: opts.Margin}
	img := image.NewRGBA(image.Rect(0, 0, boardSize+opts.Margin*2, boardSize+opts.Margin*2))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(frameColor), image.Point{}, imagedraw.Src)

	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			cell := view.Cells[row][col]
			rect := cellRect(row, col, sq, origin)
			base := color.Color(darkSquare)
			if cell.Light {
				base = lightSquare
			}
			imagedraw.Draw(img, rect, image.NewUniform(base), image.Point{}, imagedraw.Src)

			switch cell.Highlight {
			case HighlightCheck:
				imagedraw.Draw(img, rect, image.NewUniform(checkFill), image.Point{}, imagedraw.Over)
			case HighlightSelection:
				imagedraw.Draw(img, rect, image.NewUniform(selectionFill), image.Point{}, imagedraw.Over)
			}

			if cell.Piece != nil {
				pimg, err := renderPieceImage(*cell.Piece, sq)
				if err != nil {
					return nil, err
				}
				imagedraw.Draw(img, rect, pimg, image.Point{}, imagedraw.Over)
			}
			drawMarker(img, rect, cell.Marker)
		}
	}
	drawLabels(img, view, sq, origin, opts.Margin)
	if view.GameOver {
		drawOverlay(img, image.Rect(origin.X, origin.Y, origin.X+boardSize, origin.Y+boardSize), view.Banner)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func cellRect(row, col, size int, origin image.Point) image.Rectangle {
	x := origin.X + col*size
	y := origin.Y + row*size
	return image.Rect(x, y, x+size, y+size)
}

// drawMarker paints a dot on empty destinations and a ring around pieces
// that can be taken.
func drawMarker(img *image.RGBA, rect image.Rectangle, m Marker) {
	if m == MarkerNone {
		return
	}
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	size := float64(rect.Dx())
	cx := float64(rect.Min.X) + size/2
	cy := float64(rect.Min.Y) + size/2
	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())

	switch m {
	case MarkerDot:
		filler := rasterx.NewFiller(w, h, scanner)
		filler.SetColor(markerColor)
		rasterx.AddCircle(cx, cy, size*0.2, filler)
		filler.Draw()
	case MarkerRing:
		stroke := size * 0.07
		dasher := rasterx.NewDasher(w, h, scanner)
		dasher.SetStroke(fixed.Int26_6(stroke*64), 4<<6, nil, nil, nil, rasterx.Round, nil, 0)
		dasher.SetColor(markerColor)
		rasterx.AddCircle(cx, cy, size/2-stroke/2, dasher)
		dasher.Draw()
	}
}

func drawLabels(img *image.RGBA, view BoardView, sq int, origin image.Point, margin int) {
	face := basicfont.Face7x13
	drawer := &font.Drawer{Dst: img, Src: image.NewUniform(color.White), Face: face}
	ascent := face.Metrics().Ascent.Ceil()
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			cell := view.Cells[row][col]
			if cell.RankLabel != "" {
				drawCentered(drawer, cell.RankLabel, origin.X-margin/2, origin.Y+row*sq+sq/2+ascent/2)
			}
			if cell.FileLabel != "" {
				drawCentered(drawer, cell.FileLabel, origin.X+col*sq+sq/2, origin.Y+8*sq+margin/2+ascent/2)
			}
		}
	}
}

func drawOverlay(img *image.RGBA, board image.Rectangle, msg string) {
	imagedraw.Draw(img, board, image.NewUniform(overlayShade), image.Point{}, imagedraw.Over)
	drawer := &font.Drawer{Dst: img, Src: image.NewUniform(overlayTextColor), Face: basicfont.Face7x13}
	cx := (board.Min.X + board.Max.X) / 2
	cy := (board.Min.Y + board.Max.Y) / 2
	drawCentered(drawer, msg, cx, cy+4)
}

func drawCentered(d *font.Drawer, s string, centerX, baseline int) {
	if s == "" {
		return
	}
	width := d.MeasureString(s).Ceil()
	d.Dot = fixed.P(centerX-width/2, baseline)
	d.DrawString(s)
}
