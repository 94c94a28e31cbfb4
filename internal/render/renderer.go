// Package render draws a position as a PNG diagram.
package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"

	"github.com/park285/ascn-convert/internal/domain"
	"github.com/park285/ascn-convert/internal/rules"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

type Options struct {
	SquareSize int
	// Highlight marks the from/to squares of a move, usually the last one.
	Highlight *domain.Move
}

const (
	defaultSquareSize = 64
	boardSquares      = 8
)

var (
	lightSquare     = color.RGBA{233, 207, 163, 255}
	darkSquare      = color.RGBA{187, 136, 96, 255}
	highlightFill   = color.NRGBA{R: 255, G: 228, B: 120, A: 140}
	marginColor     = color.RGBA{28, 31, 46, 255}
	coordinateColor = color.NRGBA{R: 204, G: 210, B: 236, A: 255}
	whiteGlyph      = color.RGBA{38, 38, 43, 255}
	blackGlyph      = color.RGBA{246, 243, 234, 255}
)

// RenderPNG draws board with rank 8 at the top.
func RenderPNG(ctx context.Context, eng rules.Engine, board domain.Board, opts Options) ([]byte, error) {
	if board == nil {
		return nil, fmt.Errorf("board is nil")
	}
	size := opts.SquareSize
	if size <= 0 {
		size = defaultSquareSize
	}
	margin := size / 2
	boardSize := size * boardSquares
	origin := image.Point{X: margin, Y: margin}

	img := image.NewRGBA(image.Rect(0, 0, boardSize+margin*2, boardSize+margin*2))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(marginColor), image.Point{}, imagedraw.Src)

	drawSquares(img, size, origin)
	if opts.Highlight != nil {
		drawSquareOverlay(img, opts.Highlight.From, size, origin, highlightFill)
		drawSquareOverlay(img, opts.Highlight.To, size, origin, highlightFill)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if err := drawPieces(img, eng, board, size, origin); err != nil {
		return nil, err
	}
	drawCoordinates(img, size, origin, margin)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func squareRect(sq domain.Square, size int, origin image.Point) image.Rectangle {
	row := 7 - sq.Rank()
	x := origin.X + sq.File()*size
	y := origin.Y + row*size
	return image.Rect(x, y, x+size, y+size)
}

func squareColor(sq domain.Square) color.Color {
	if (sq.File()+sq.Rank())%2 == 0 {
		return darkSquare
	}
	return lightSquare
}

func drawSquares(dst imagedraw.Image, size int, origin image.Point) {
	for sq := domain.A1; sq <= domain.H8; sq++ {
		imagedraw.Draw(dst, squareRect(sq, size, origin), image.NewUniform(squareColor(sq)), image.Point{}, imagedraw.Src)
	}
}

func drawSquareOverlay(img *image.RGBA, sq domain.Square, size int, origin image.Point, clr color.Color) {
	if sq > domain.H8 {
		return
	}
	imagedraw.Draw(img, squareRect(sq, size, origin), image.NewUniform(clr), image.Point{}, imagedraw.Over)
}

func drawPieces(dst *image.RGBA, eng rules.Engine, board domain.Board, size int, origin image.Point) error {
	drawer := &font.Drawer{Dst: dst, Face: basicfont.Face7x13}
	for sq := domain.A1; sq <= domain.H8; sq++ {
		kind, side, ok := eng.PieceAt(board, sq)
		if !ok {
			continue
		}
		disc, err := renderDisc(side, size)
		if err != nil {
			return err
		}
		rect := squareRect(sq, size, origin)
		imagedraw.Draw(dst, rect, disc, image.Point{}, imagedraw.Over)

		drawer.Src = image.NewUniform(whiteGlyph)
		if side == domain.Black {
			drawer.Src = image.NewUniform(blackGlyph)
		}
		center := rect.Min.Add(image.Pt(size/2, size/2))
		drawCenteredText(drawer, kind.Letter(), center.X, center.Y+basicfont.Face7x13.Ascent/2)
	}
	return nil
}

func drawCoordinates(dst *image.RGBA, size int, origin image.Point, margin int) {
	drawer := &font.Drawer{Dst: dst, Face: basicfont.Face7x13, Src: image.NewUniform(coordinateColor)}
	ascent := basicfont.Face7x13.Ascent
	for i := 0; i < boardSquares; i++ {
		file := string(rune('a' + i))
		rank := string(rune('1' + i))
		fileX := origin.X + i*size + size/2
		drawCenteredText(drawer, file, fileX, origin.Y+boardSquares*size+margin/2+ascent/2)
		rankY := origin.Y + (7-i)*size + size/2 + ascent/2
		drawCenteredText(drawer, rank, origin.X-margin/2, rankY)
	}
}

func drawCenteredText(drawer *font.Drawer, text string, centerX, baseline int) {
	width := drawer.MeasureString(text).Ceil()
	drawer.Dot = fixed.P(centerX-width/2, baseline)
	drawer.DrawString(text)
}
