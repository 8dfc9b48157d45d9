package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"github.com/park285/lanchess/internal/protocol"
)

// Piece outlines on a 45x45 canvas. The fill and stroke are substituted per
// colour.
var pieceShapes = map[protocol.PieceKind]string{
	protocol.Pawn: `<circle cx="22.5" cy="13" r="5"/>` +
		`<path d="M17 21 L28 21 L31 34 L14 34 Z"/>` +
		`<rect x="11" y="34" width="23" height="5" rx="1"/>`,
	protocol.Rook: `<path d="M11 9 L15 9 L15 12 L20 12 L20 9 L25 9 L25 12 L30 12 L30 9 L34 9 L34 16 L11 16 Z"/>` +
		`<rect x="14" y="16" width="17" height="17"/>` +
		`<rect x="10" y="33" width="25" height="6" rx="1"/>`,
	protocol.Knight: `<path d="M14 39 L33 39 L32 30 C33 22 31 12 22 9 L20 6 L18 10 L13 16 L11 22 L14 24 L19 20 L21 23 C17 27 14 32 14 39 Z"/>` +
		`<circle cx="17" cy="14" r="1.2"/>`,
	protocol.Bishop: `<circle cx="22.5" cy="8" r="2.5"/>` +
		`<path d="M22.5 10 C16 15 15 22 17 27 L28 27 C30 22 29 15 22.5 10 Z"/>` +
		`<rect x="16" y="27" width="13" height="4"/>` +
		`<path d="M10 39 C14 35 31 35 35 39 Z"/>`,
	protocol.Queen: `<circle cx="8" cy="12" r="2.5"/><circle cx="15" cy="9" r="2.5"/>` +
		`<circle cx="22.5" cy="8" r="2.5"/><circle cx="30" cy="9" r="2.5"/><circle cx="37" cy="12" r="2.5"/>` +
		`<path d="M9 26 L8 14 L14 24 L15 11 L20 24 L22.5 10 L25 24 L30 11 L31 24 L37 14 L36 26 Z"/>` +
		`<path d="M9 26 C9 30 11 31 11 33 L34 33 C34 31 36 30 36 26 Z"/>` +
		`<rect x="10" y="33" width="25" height="6" rx="1"/>`,
	protocol.King: `<path d="M21 4 L24 4 L24 7 L27 7 L27 10 L24 10 L24 14 L21 14 L21 10 L18 10 L18 7 L21 7 Z"/>` +
		`<path d="M22.5 25 C25 18 31 14 35 17 C40 21 36 27 33 30 L12 30 C9 27 5 21 10 17 C14 14 20 18 22.5 25 Z"/>` +
		`<rect x="11" y="30" width="23" height="4"/>` +
		`<rect x="10" y="34" width="25" height="5" rx="1"/>`,
}

// pieceSVG returns a standalone SVG document for p.
func pieceSVG(p protocol.Piece) ([]byte, error) {
	shape, ok := pieceShapes[p.Kind]
	if !ok {
		return nil, fmt.Errorf("no outline for piece %q", p.Kind)
	}
	fill, stroke := "#ffffff", "#000000"
	if p.Color == protocol.Black {
		fill, stroke = "#202020", "#000000"
	}
	var b bytes.Buffer
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="45" height="45" viewBox="0 0 45 45">`)
	fmt.Fprintf(&b, `<g fill="%s" stroke="%s" stroke-width="1.5" stroke-linejoin="round">%s</g></svg>`, fill, stroke, shape)
	return b.Bytes(), nil
}

type pieceCacheKey struct {
	piece protocol.Piece
	size  int
}

var (
	pieceCache   = map[pieceCacheKey]image.Image{}
	pieceCacheMu sync.RWMutex
)

func renderPieceImage(p protocol.Piece, size int) (image.Image, error) {
	key := pieceCacheKey{piece: p, size: size}

	pieceCacheMu.RLock()
	if img, ok := pieceCache[key]; ok {
		pieceCacheMu.RUnlock()
		return img, nil
	}
	pieceCacheMu.RUnlock()

	data, err := pieceSVG(p)
	if err != nil {
		return nil, err
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse piece svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)
	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)

	pieceCacheMu.Lock()
	pieceCache[key] = img
	pieceCacheMu.Unlock()
	return img, nil
}
