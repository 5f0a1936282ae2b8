package img

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func createTestPhoto(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 80, G: 160, B: 220, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestRenderSnapshotProducesCanvasSizedJPEG(t *testing.T) {
	photo := createTestPhoto(t, 800, 300)

	out, err := RenderSnapshot(photo, Caption{Title: "De Bilt", Subtitle: "light rain, 11.3°C"})
	if err != nil {
		t.Fatalf("RenderSnapshot returned error: %v", err)
	}

	decoded, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output is not a decodable jpeg: %v", err)
	}
	b := decoded.Bounds()
	if b.Dx() != canvasWidth || b.Dy() != canvasHeight {
		t.Fatalf("unexpected canvas size: %dx%d", b.Dx(), b.Dy())
	}
}

func TestRenderSnapshotDarkensCaptionBand(t *testing.T) {
	photo := createTestPhoto(t, 640, 480)

	out, err := RenderSnapshot(photo, Caption{Title: "De Bilt"})
	if err != nil {
		t.Fatalf("RenderSnapshot returned error: %v", err)
	}
	decoded, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}

	top := decoded.At(canvasWidth/2, 10)
	band := decoded.At(canvasWidth/2, canvasHeight-10)
	tr, tg, tb, _ := top.RGBA()
	br, bg, bb, _ := band.RGBA()
	if br+bg+bb >= tr+tg+tb {
		t.Fatal("caption band should be darker than the photo above it")
	}
}

func TestRenderSnapshotEmptyCaption(t *testing.T) {
	photo := createTestPhoto(t, 100, 100)
	if _, err := RenderSnapshot(photo, Caption{}); err != nil {
		t.Fatalf("empty caption should render fine: %v", err)
	}
}

func TestRenderSnapshotRejectsGarbage(t *testing.T) {
	if _, err := RenderSnapshot([]byte("definitely not an image"), Caption{Title: "x"}); err == nil {
		t.Fatal("expected error for undecodable input")
	}
}
