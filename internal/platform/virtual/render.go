package virtual

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"

	"github.com/mj1618/remote-ui-mcp/internal/model"
)

var (
	backgroundColor = color.RGBA{R: 245, G: 245, B: 245, A: 255}
	outlineColor    = color.RGBA{R: 90, G: 90, B: 90, A: 255}
)

func render(screen model.ScreenInfo, boxes []model.Bounds, quality int) ([]byte, error) {
	w, h := screen.Width, screen.Height
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid screen size %dx%d", w, h)
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: backgroundColor}, image.Point{}, draw.Src)
	for _, b := range boxes {
		outline(img, image.Rect(b.Left, b.Top, b.Right, b.Bottom))
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode capture: %w", err)
	}
	return buf.Bytes(), nil
}

func outline(img *image.RGBA, r image.Rectangle) {
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return
	}
	for x := r.Min.X; x < r.Max.X; x++ {
		img.Set(x, r.Min.Y, outlineColor)
		img.Set(x, r.Max.Y-1, outlineColor)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.Set(r.Min.X, y, outlineColor)
		img.Set(r.Max.X-1, y, outlineColor)
	}
}
