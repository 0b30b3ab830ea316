package main

import (
	"bytes"
	"image/color"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

var (
	regularFace *text.GoTextFace
	boldFace    *text.GoTextFace
)

func init() {
	regular, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	if err != nil {
		log.Printf("Warning: failed to load regular font: %v", err)
		return
	}
	regularFace = &text.GoTextFace{Source: regular, Size: 16}

	bold, err := text.NewGoTextFaceSource(bytes.NewReader(gobold.TTF))
	if err != nil {
		log.Printf("Warning: failed to load bold font: %v", err)
		return
	}
	boldFace = &text.GoTextFace{Source: bold, Size: 28}
}

func drawText(screen *ebiten.Image, s string, face *text.GoTextFace, x, y float64, c color.Color) {
	if face == nil {
		return
	}
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(c)
	text.Draw(screen, s, face, op)
}

func drawTextCentered(screen *ebiten.Image, s string, face *text.GoTextFace, cx, cy float64, c color.Color) {
	if face == nil {
		return
	}
	w, h := text.Measure(s, face, 0)
	drawText(screen, s, face, cx-w/2, cy-h/2, c)
}
