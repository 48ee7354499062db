// Package imaging normalizes uploaded photos of found items and claims.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"net/http"

	"golang.org/x/image/draw"
)

const (
	// MaxSide bounds both width and height of a stored image.
	MaxSide = 1024
	// Quality is the JPEG quality of re-encoded images.
	Quality = 85
	// OutputMIME is the content type of every processed image.
	OutputMIME = "image/jpeg"
)

// ErrUnsupported is returned for anything that is not a decodable JPEG or PNG.
var ErrUnsupported = errors.New("unsupported image")

var accepted = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// Image is a processed photo.
type Image struct {
	Data   []byte
	Width  int
	Height int
}

// Normalize sniffs data, rejects formats other than JPEG and PNG, shrinks the
// picture to fit in MaxSide and re-encodes it as JPEG.
func Normalize(data []byte) (*Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrUnsupported)
	}
	if mime := http.DetectContentType(data); !accepted[mime] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, mime)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	img := fit(src, MaxSide)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: Quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	b := img.Bounds()
	return &Image{Data: buf.Bytes(), Width: b.Dx(), Height: b.Dy()}, nil
}

// fit scales img down, keeping its aspect ratio, until its longer side is at most limit.
func fit(img image.Image, limit int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= limit && h <= limit {
		return img
	}

	long := w
	if h > long {
		long = h
	}
	scale := float64(limit) / float64(long)
	nw := int(float64(w) * scale)
	nh := int(float64(h) * scale)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}
