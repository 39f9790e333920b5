// Package imaging normalizes uploaded label photos into model-ready images.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"github.com/tomaz/labelscan/internal/domain"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

var (
	// ErrDecode indicates the input bytes are not a readable raster image.
	ErrDecode = errors.New("image decode failed")

	// ErrEncode indicates the prepared image could not be PNG-encoded.
	ErrEncode = errors.New("image encode failed")
)

// Prepare converts arbitrary uploaded image bytes into a bounded square PNG.
//
// The largest square centered on the image is cropped (side = the shorter
// edge); this assumes the label of interest sits near the center of the
// frame. If the cropped side exceeds maxEdge the square is downscaled to
// exactly maxEdge with Catmull-Rom resampling; the image is never upscaled.
// The result is always PNG so downstream prompt assembly sees one media type.
//
// Prepare is a pure function: no side effects, safe for concurrent use.
func Prepare(data []byte, maxEdge int) (*domain.PreparedImage, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrDecode)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	side := min(width, height)
	if side <= 0 {
		return nil, fmt.Errorf("%w: zero-sized image", ErrDecode)
	}

	crop := image.Rect(0, 0, side, side).Add(image.Pt(
		bounds.Min.X+(width-side)/2,
		bounds.Min.Y+(height-side)/2,
	))

	edge := side
	if maxEdge > 0 && edge > maxEdge {
		edge = maxEdge
	}

	dst := image.NewRGBA(image.Rect(0, 0, edge, edge))
	if edge == side {
		xdraw.Copy(dst, image.Point{}, src, crop, xdraw.Src, nil)
	} else {
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, xdraw.Src, nil)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}

	return &domain.PreparedImage{Data: buf.Bytes(), Edge: edge}, nil
}
