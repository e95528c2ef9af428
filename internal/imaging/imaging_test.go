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

func fill(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func testJPEG(w, h int) []byte {
	var buf bytes.Buffer
	jpeg.Encode(&buf, fill(w, h, color.RGBA{200, 80, 0, 255}), &jpeg.Options{Quality: 90})
	return buf.Bytes()
}

func testPNG(w, h int) []byte {
	var buf bytes.Buffer
	png.Encode(&buf, fill(w, h, color.RGBA{0, 120, 40, 255}))
	return buf.Bytes()
}

func decodedSize(t *testing.T, data []byte) (int, int) {
	t.Helper()
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("stored photo is not a JPEG: %v", err)
	}
	return img.Bounds().Dx(), img.Bounds().Dy()
}

func TestPhotoKeepsSmallImages(t *testing.T) {
	for name, data := range map[string][]byte{"jpeg": testJPEG(64, 48), "png": testPNG(64, 48)} {
		t.Run(name, func(t *testing.T) {
			out, err := Photo(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("Photo: %v", err)
			}
			if w, h := decodedSize(t, out); w != 64 || h != 48 {
				t.Errorf("expected 64x48, got %dx%d", w, h)
			}
		})
	}
}

func TestPhotoDownscales(t *testing.T) {
	out, err := Photo(bytes.NewReader(testPNG(2048, 1024)))
	if err != nil {
		t.Fatalf("Photo: %v", err)
	}
	if w, h := decodedSize(t, out); w != 1024 || h != 512 {
		t.Errorf("expected 1024x512, got %dx%d", w, h)
	}
}

func TestPhotoRejectsOtherFormats(t *testing.T) {
	inputs := map[string][]byte{
		"text":      []byte("not an image"),
		"gif":       []byte("GIF89a\x01\x00\x01\x00"),
		"truncated": testJPEG(32, 32)[:40],
	}
	for name, data := range inputs {
		t.Run(name, func(t *testing.T) {
			if _, err := Photo(bytes.NewReader(data)); !errors.Is(err, ErrUnsupported) {
				t.Errorf("expected ErrUnsupported, got %v", err)
			}
		})
	}
}

func TestPhotoTooLarge(t *testing.T) {
	data := make([]byte, MaxUpload+1)
	if _, err := Photo(bytes.NewReader(data)); !errors.Is(err, ErrTooLarge) {
		t.Errorf("expected ErrTooLarge, got %v", err)
	}
}

func TestFit(t *testing.T) {
	tests := []struct {
		w, h, limit int
		wantW       int
		wantH       int
	}{
		{100, 50, 1024, 100, 50},
		{1024, 1024, 1024, 1024, 1024},
		{2048, 1024, 1024, 1024, 512},
		{1000, 3000, 1024, 341, 1024},
		{5000, 2, 1024, 1024, 1},
	}
	for _, tt := range tests {
		w, h := Fit(tt.w, tt.h, tt.limit)
		if w != tt.wantW || h != tt.wantH {
			t.Errorf("Fit(%d, %d, %d) = %dx%d, want %dx%d", tt.w, tt.h, tt.limit, w, h, tt.wantW, tt.wantH)
		}
	}
}
