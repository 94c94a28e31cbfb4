package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"sync"

	"github.com/park285/ascn-convert/internal/domain"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

type discKey struct {
	color domain.Color
	size  int
}

var (
	discCache   = map[discKey]image.Image{}
	discCacheMu sync.RWMutex
)

// discSVG is the piece token: a ringed disc in the side's colors.
func discSVG(c domain.Color) string {
	fill, stroke := "#f6f3ea", "#26262b"
	if c == domain.Black {
		fill, stroke = "#26262b", "#d9d6cc"
	}
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 100">`+
		`<circle cx="50" cy="50" r="38" fill="%s" stroke="%s" stroke-width="6"/>`+
		`</svg>`, fill, stroke)
}

func renderDisc(c domain.Color, size int) (image.Image, error) {
	key := discKey{color: c, size: size}

	discCacheMu.RLock()
	if img, ok := discCache[key]; ok {
		discCacheMu.RUnlock()
		return img, nil
	}
	discCacheMu.RUnlock()

	icon, err := oksvg.ReadIconStream(strings.NewReader(discSVG(c)))
	if err != nil {
		return nil, fmt.Errorf("parse piece svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)

	discCacheMu.Lock()
	discCache[key] = img
	discCacheMu.Unlock()
	return img, nil
}
