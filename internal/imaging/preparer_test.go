package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x += 10 {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func decodeEdge(t *testing.T, prepared []byte) (int, int, string) {
	t.Helper()
	img, format, err := image.Decode(bytes.NewReader(prepared))
	if err != nil {
		t.Fatalf("prepared image does not decode: %v", err)
	}
	return img.Bounds().Dx(), img.Bounds().Dy(), format
}

func TestPrepare_SquareAndBounded(t *testing.T) {
	tests := []struct {
		name         string
		width        int
		height       int
		maxEdge      int
		expectedEdge int
	}{
		{"landscape below cap", 300, 200, 1024, 200},
		{"portrait below cap", 200, 300, 1024, 200},
		{"square below cap unchanged", 100, 100, 1024, 100},
		{"square at cap unchanged", 256, 256, 256, 256},
		{"large square downscaled", 2048, 2048, 1024, 1024},
		{"wide panorama downscaled", 4000, 1500, 1024, 1024},
		{"tall image downscaled", 1200, 3000, 1024, 1024},
		{"tiny image never upscaled", 8, 6, 1024, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prepared, err := Prepare(encodePNG(t, tt.width, tt.height), tt.maxEdge)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if prepared.Edge != tt.expectedEdge {
				t.Errorf("expected edge %d, got %d", tt.expectedEdge, prepared.Edge)
			}

			w, h, format := decodeEdge(t, prepared.Data)
			if w != h {
				t.Errorf("output is not square: %dx%d", w, h)
			}
			if w != tt.expectedEdge {
				t.Errorf("decoded edge %d does not match reported edge %d", w, tt.expectedEdge)
			}
			if format != "png" {
				t.Errorf("expected png output, got %s", format)
			}
			if w > tt.maxEdge {
				t.Errorf("edge %d exceeds configured maximum %d", w, tt.maxEdge)
			}
			if shorter := min(tt.width, tt.height); w > shorter {
				t.Errorf("edge %d was upsampled beyond source shorter edge %d", w, shorter)
			}
		})
	}
}

func TestPrepare_JPEGInputBecomesPNG(t *testing.T) {
	prepared, err := Prepare(encodeJPEG(t, 640, 480), 1024)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, _, format := decodeEdge(t, prepared.Data)
	if format != "png" {
		t.Errorf("expected canonical png output for jpeg input, got %s", format)
	}
	if prepared.MIMEType() != "image/png" {
		t.Errorf("expected image/png MIME type, got %s", prepared.MIMEType())
	}
}

func TestPrepare_DecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty input", nil},
		{"zero length", []byte{}},
		{"garbage bytes", []byte("this is not an image at all")},
		{"truncated png header", []byte{0x89, 'P', 'N', 'G'}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Prepare(tt.data, 1024)
			if err == nil {
				t.Fatal("expected a decode error")
			}
			if !errors.Is(err, ErrDecode) {
				t.Errorf("expected ErrDecode, got %v", err)
			}
		})
	}
}
