package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/erazemk/toir/internal/model"
)

func solid(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func encodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encoding jpeg: %v", err)
	}
	return buf.Bytes()
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding png: %v", err)
	}
	return buf.Bytes()
}

func TestNormalizeJPEG(t *testing.T) {
	photo, err := NormalizePhoto(bytes.NewReader(encodeJPEG(t, solid(120, 80, color.RGBA{200, 0, 0, 255}))))
	if err != nil {
		t.Fatalf("NormalizePhoto: %v", err)
	}
	if photo.MIME != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %s", photo.MIME)
	}
	if photo.Width != 120 || photo.Height != 80 {
		t.Errorf("small photo should keep its size, got %dx%d", photo.Width, photo.Height)
	}
}

func TestNormalizePNGFlattensTransparency(t *testing.T) {
	photo, err := NormalizePhoto(bytes.NewReader(encodePNG(t, solid(10, 10, color.NRGBA{0, 0, 0, 0}))))
	if err != nil {
		t.Fatalf("NormalizePhoto: %v", err)
	}

	img, err := jpeg.Decode(bytes.NewReader(photo.Data))
	if err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	r, g, b, _ := img.At(5, 5).RGBA()
	if r>>8 < 240 || g>>8 < 240 || b>>8 < 240 {
		t.Errorf("transparent pixels should turn white, got %d,%d,%d", r>>8, g>>8, b>>8)
	}
}

func TestNormalizeShrinksLargePhotos(t *testing.T) {
	photo, err := NormalizePhoto(bytes.NewReader(encodeJPEG(t, solid(2560, 1280, color.Gray{128}))))
	if err != nil {
		t.Fatalf("NormalizePhoto: %v", err)
	}
	if photo.Width != MaxEdge || photo.Height != MaxEdge/2 {
		t.Errorf("expected %dx%d, got %dx%d", MaxEdge, MaxEdge/2, photo.Width, photo.Height)
	}

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(photo.Data))
	if err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if cfg.Width != photo.Width || cfg.Height != photo.Height {
		t.Errorf("reported size %dx%d does not match encoded %dx%d", photo.Width, photo.Height, cfg.Width, cfg.Height)
	}
}

func TestNormalizeTallPhoto(t *testing.T) {
	photo, err := NormalizePhoto(bytes.NewReader(encodePNG(t, solid(300, 3000, color.White))))
	if err != nil {
		t.Fatalf("NormalizePhoto: %v", err)
	}
	if photo.Height != MaxEdge || photo.Width != 128 {
		t.Errorf("expected 128x%d, got %dx%d", MaxEdge, photo.Width, photo.Height)
	}
}

func TestNormalizeRejects(t *testing.T) {
	tests := map[string][]byte{
		"text":      []byte("not an image"),
		"gif":       []byte("GIF89a\x01\x00\x01\x00"),
		"truncated": []byte("\xff\xd8\xff\xe0broken"),
		"too large": append([]byte("\xff\xd8\xff"), []byte(strings.Repeat("x", MaxUploadBytes))...),
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NormalizePhoto(bytes.NewReader(data))
			if !errors.Is(err, model.ErrInvalid) {
				t.Errorf("expected invalid input error, got %v", err)
			}
		})
	}
}
