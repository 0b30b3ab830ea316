package main

import (
	"fmt"
	"image"
	"log"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/notnil/chess"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// Piece outlines on a 45x45 canvas. %[1]s is the fill, %[2]s the stroke.
var pieceShapes = map[chess.PieceType]string{
	chess.Pawn: `<circle cx="22.5" cy="14" r="5"/>
<path d="M17 20 L28 20 L31 36 L14 36 Z"/>`,
	chess.Knight: `<path d="M14 36 L31 36 L30 20 C29 12 24 8 19 9 L16 13 L11 19 L13 23 L19 20 L15 30 Z"/>`,
	chess.Bishop: `<circle cx="22.5" cy="9" r="2.5"/>
<ellipse cx="22.5" cy="21" rx="7" ry="10"/>
<path d="M12 36 L33 36 L30 31 L15 31 Z"/>`,
	chess.Rook: `<path d="M12 9 L16 9 L16 12 L20 12 L20 9 L25 9 L25 12 L29 12 L29 9 L33 9 L33 16 L30 18 L30 31 L15 31 L15 18 L12 16 Z"/>
<rect x="11" y="31" width="23" height="5"/>`,
	chess.Queen: `<path d="M9 14 L14 30 L31 30 L36 14 L29 24 L27 10 L22.5 23 L18 10 L16 24 Z"/>
<rect x="12" y="30" width="21" height="6"/>
<circle cx="9" cy="12" r="2"/><circle cx="18" cy="8" r="2"/><circle cx="27" cy="8" r="2"/><circle cx="36" cy="12" r="2"/>`,
	chess.King: `<path d="M21 4 L24 4 L24 7 L27 7 L27 10 L24 10 L24 14 L21 14 L21 10 L18 10 L18 7 L21 7 Z"/>
<path d="M10 20 C10 14 20 14 22.5 20 C25 14 35 14 35 20 C35 26 31 28 31 30 L14 30 C14 28 10 26 10 20 Z"/>
<rect x="12" y="30" width="21" height="6"/>`,
}

func pieceSVG(p chess.Piece) string {
	fill, stroke := "#ffffff", "#000000"
	if p.Color() == chess.Black {
		fill, stroke = "#222222", "#dddddd"
	}
	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 45 45" width="45" height="45">`)
	fmt.Fprintf(&b, `<g fill="%s" stroke="%s" stroke-width="1.5" stroke-linejoin="round">`, fill, stroke)
	b.WriteString(pieceShapes[p.Type()])
	b.WriteString(`</g></svg>`)
	return b.String()
}

// SpriteSet holds one rasterized image per piece.
type SpriteSet struct {
	pieces      map[chess.Piece]*ebiten.Image
	size        int
	renderScale float64
}

var allPieces = []chess.Piece{
	chess.WhiteKing, chess.WhiteQueen, chess.WhiteRook, chess.WhiteBishop, chess.WhiteKnight, chess.WhitePawn,
	chess.BlackKing, chess.BlackQueen, chess.BlackRook, chess.BlackBishop, chess.BlackKnight, chess.BlackPawn,
}

// NewSpriteSet rasterizes every piece at size pixels. Pieces are rendered at
// twice the display size and scaled down when drawn.
func NewSpriteSet(size int) *SpriteSet {
	s := &SpriteSet{pieces: make(map[chess.Piece]*ebiten.Image), size: size, renderScale: 2}
	renderSize := int(float64(size) * s.renderScale)

	for _, p := range allPieces {
		icon, err := oksvg.ReadIconStream(strings.NewReader(pieceSVG(p)))
		if err != nil {
			log.Printf("Warning: failed to parse sprite for %s: %v", p, err)
			continue
		}
		icon.SetTarget(0, 0, float64(renderSize), float64(renderSize))

		rgba := image.NewRGBA(image.Rect(0, 0, renderSize, renderSize))
		scanner := rasterx.NewScannerGV(renderSize, renderSize, rgba, rgba.Bounds())
		raster := rasterx.NewDasher(renderSize, renderSize, scanner)
		icon.Draw(raster, 1.0)

		s.pieces[p] = ebiten.NewImageFromImage(rgba)
	}
	return s
}

// DrawAt draws p with its top-left corner at (x, y).
func (s *SpriteSet) DrawAt(screen *ebiten.Image, p chess.Piece, x, y float64) {
	img := s.pieces[p]
	if img == nil {
		return
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(1/s.renderScale, 1/s.renderScale)
	op.GeoM.Translate(x, y)
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(img, op)
}
