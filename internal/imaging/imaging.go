// Package imaging normalizes equipment photos before they are stored.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"

	"golang.org/x/image/draw"

	"github.com/erazemk/toir/internal/model"
)

const (
	// MaxUploadBytes caps the size of an uploaded photo.
	MaxUploadBytes = 8 << 20
	// MaxEdge is the longest side of a stored photo in pixels.
	MaxEdge = 1280
	// Quality is the JPEG quality of stored photos.
	Quality = 82
)

var accepted = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// Photo is a normalized JPEG photo.
type Photo struct {
	Data   []byte
	MIME   string
	Width  int
	Height int
}

// NormalizePhoto sniffs, decodes and re-encodes an uploaded photo as JPEG,
// shrinking it to fit MaxEdge. Transparent areas become white. Uploads that
// are too large or not JPEG/PNG yield a model.ErrInvalid error.
func NormalizePhoto(r io.Reader) (*Photo, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading photo: %w", err)
	}
	if len(data) > MaxUploadBytes {
		return nil, model.Invalidf("photo exceeds %d MiB", MaxUploadBytes>>20)
	}

	// The client's Content-Type is not trusted.
	if kind := http.DetectContentType(data); !accepted[kind] {
		return nil, model.Invalidf("unsupported photo format %s, use JPEG or PNG", kind)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, model.Invalidf("photo cannot be decoded")
	}

	img := fit(src, MaxEdge)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: Quality}); err != nil {
		return nil, fmt.Errorf("encoding photo: %w", err)
	}

	b := img.Bounds()
	return &Photo{Data: buf.Bytes(), MIME: "image/jpeg", Width: b.Dx(), Height: b.Dy()}, nil
}

// fit draws src onto an opaque white canvas no larger than maxEdge on either
// side, keeping the aspect ratio. Smaller images keep their size.
func fit(src image.Image, maxEdge int) image.Image {
	sb := src.Bounds()
	w, h := sb.Dx(), sb.Dy()
	if w > maxEdge || h > maxEdge {
		if w >= h {
			w, h = maxEdge, max(1, h*maxEdge/w)
		} else {
			w, h = max(1, w*maxEdge/h), maxEdge
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	if w == sb.Dx() && h == sb.Dy() {
		draw.Draw(dst, dst.Bounds(), src, sb.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, sb, draw.Over, nil)
	}
	return dst
}
