package server

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"strings"

	"github.com/mj1618/remote-ui-mcp/internal/model"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	boxColor     = color.RGBA{R: 255, G: 0, B: 0, A: 100}
	textColor    = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	outlineColor = color.RGBA{R: 0, G: 0, B: 0, A: 200}
)

// annotateCapture decodes a JPEG capture, draws the bounds and id of every
// visible interactive node, and re-encodes it. Node bounds are in screen
// pixels and are scaled to the image size.
func annotateCapture(data []byte, windows []model.WindowSnapshot, screen model.ScreenInfo, quality int) ([]byte, int, error) {
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, fmt.Errorf("decode capture: %w", err)
	}
	rgba := image.NewRGBA(img.Bounds())
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)

	scaleX, scaleY := 1.0, 1.0
	if screen.Width > 0 {
		scaleX = float64(rgba.Bounds().Dx()) / float64(screen.Width)
	}
	if screen.Height > 0 {
		scaleY = float64(rgba.Bounds().Dy()) / float64(screen.Height)
	}

	labelled := 0
	for i := len(windows) - 1; i >= 0; i-- {
		model.Walk(windows[i].Tree, func(n model.NodeSnapshot, _ string) bool {
			if !n.Visible || n.Bounds.Empty() || !interactive(n) {
				return true
			}
			drawNodeBox(rgba, n, scaleX, scaleY)
			labelled++
			return true
		})
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, rgba, &jpeg.Options{Quality: quality}); err != nil {
		return nil, 0, fmt.Errorf("encode capture: %w", err)
	}
	return buf.Bytes(), labelled, nil
}

func interactive(n model.NodeSnapshot) bool {
	return n.Clickable || n.LongClickable || n.Editable || n.Scrollable
}

func drawNodeBox(img *image.RGBA, n model.NodeSnapshot, scaleX, scaleY float64) {
	x1 := int(float64(n.Bounds.Left) * scaleX)
	y1 := int(float64(n.Bounds.Top) * scaleY)
	x2 := int(float64(n.Bounds.Right) * scaleX)
	y2 := int(float64(n.Bounds.Bottom) * scaleY)
	drawRectangle(img, x1, y1, x2, y2, boxColor)
	label := strings.TrimPrefix(n.ID, model.StableIDPrefix)
	drawTextWithOutline(img, label, (x1+x2)/2, (y1+y2)/2, textColor, outlineColor)
}

// drawRectangle draws a rectangle outline clamped to the image.
func drawRectangle(img *image.RGBA, x1, y1, x2, y2 int, c color.Color) {
	r := image.Rect(x1, y1, x2, y2).Intersect(img.Bounds())
	if r.Empty() {
		return
	}
	for x := r.Min.X; x < r.Max.X; x++ {
		img.Set(x, r.Min.Y, c)
		img.Set(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.Set(r.Min.X, y, c)
		img.Set(r.Max.X-1, y, c)
	}
}

// drawTextWithOutline draws text centered on (x, y) with a one-pixel outline.
func drawTextWithOutline(img *image.RGBA, text string, x, y int, textColor, outlineColor color.Color) {
	// basicfont.Face7x13 glyphs are 7 pixels wide and 13 high.
	offsetX := x - len(text)*7/2
	offsetY := y + 13/2

	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			drawString(img, text, offsetX+dx, offsetY+dy, outlineColor)
		}
	}
	drawString(img, text, offsetX, offsetY, textColor)
}

func drawString(img *image.RGBA, text string, x, y int, c color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
