// internal/img/overlay.go
package img

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	canvasWidth  = 640
	canvasHeight = 480
	bandHeight   = 64
)

// Caption is the text drawn over a snapshot: the station name and one line of
// current measurements.
type Caption struct {
	Title    string
	Subtitle string
}

// RenderSnapshot decodes a source photo, fills a fixed canvas with it, draws a
// darkened caption band along the bottom, and returns the result as JPEG.
func RenderSnapshot(src []byte, caption Caption) ([]byte, error) {
	photo, err := imaging.Decode(bytes.NewReader(src), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode source image: %w", err)
	}

	canvas := imaging.Fill(photo, canvasWidth, canvasHeight, imaging.Center, imaging.Lanczos)

	out := image.NewNRGBA(canvas.Bounds())
	draw.Draw(out, out.Bounds(), canvas, image.Point{}, draw.Src)

	band := image.Rect(0, canvasHeight-bandHeight, canvasWidth, canvasHeight)
	draw.Draw(out, band, image.NewUniform(color.NRGBA{0, 0, 0, 160}), image.Point{}, draw.Over)

	drawText(out, caption.Title, 16, canvasHeight-bandHeight+24)
	drawText(out, caption.Subtitle, 16, canvasHeight-bandHeight+46)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

func drawText(dst draw.Image, text string, x, y int) {
	if text == "" {
		return
	}
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.White),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
