package imaging

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func createTestJPEG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{255, 204, 0, 255})
		}
	}
	var buf bytes.Buffer
	jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	return buf.Bytes()
}

func createTestPNG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{0, 0, 255, 255})
		}
	}
	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

func decodeSize(t *testing.T, data []byte) (int, int) {
	t.Helper()
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	return img.Bounds().Dx(), img.Bounds().Dy()
}

func TestProcessCardPhotoPNGBecomesJPEG(t *testing.T) {
	photo, err := ProcessCardPhoto(bytes.NewReader(createTestPNG(100, 140)))
	if err != nil {
		t.Fatalf("ProcessCardPhoto: %v", err)
	}
	if photo.ContentType != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %s", photo.ContentType)
	}
	if len(photo.Data) == 0 {
		t.Error("expected non-empty data")
	}
	if photo.Width != 100 || photo.Height != 140 {
		t.Errorf("small photo should keep its size, got %dx%d", photo.Width, photo.Height)
	}
}

func TestProcessCardPhotoFitsPortraitBox(t *testing.T) {
	photo, err := ProcessCardPhoto(bytes.NewReader(createTestJPEG(1260, 1760)))
	if err != nil {
		t.Fatalf("ProcessCardPhoto: %v", err)
	}

	w, h := decodeSize(t, photo.Data)
	if w > MaxWidth || h > MaxHeight {
		t.Errorf("expected within %dx%d, got %dx%d", MaxWidth, MaxHeight, w, h)
	}
	if h != MaxHeight {
		t.Errorf("portrait photo should be bounded by height, got %dx%d", w, h)
	}
}

func TestProcessCardPhotoFitsLandscape(t *testing.T) {
	photo, err := ProcessCardPhoto(bytes.NewReader(createTestJPEG(2000, 1000)))
	if err != nil {
		t.Fatalf("ProcessCardPhoto: %v", err)
	}
	if photo.Width != MaxWidth {
		t.Errorf("landscape photo should be bounded by width, got %dx%d", photo.Width, photo.Height)
	}
	if photo.Height != 367 {
		t.Errorf("expected aspect ratio kept (height 367), got %d", photo.Height)
	}
}

func TestProcessCardPhotoRejects(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"text", []byte("not an image"), ErrUnsupported},
		{"gif", []byte("GIF89a..."), ErrUnsupported},
		{"tiny", createTestPNG(8, 8), ErrTooSmall},
		{"oversized", append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, MaxUploadBytes)...), ErrTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ProcessCardPhoto(bytes.NewReader(tt.data))
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

// pngHeader returns a grayscale PNG that declares w x h pixels but carries
// no image data.
func pngHeader(w, h uint32) []byte {
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:], w)
	binary.BigEndian.PutUint32(ihdr[4:], h)
	ihdr[8] = 8 // bit depth; color type, compression, filter, interlace stay 0

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	chunk := append([]byte("IHDR"), ihdr...)
	buf.Write(chunk)
	binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func TestProcessCardPhotoRejectsHugeDimensions(t *testing.T) {
	data := pngHeader(16000, 16000)
	if len(data) > MaxUploadBytes {
		t.Fatalf("test upload should be small, got %d bytes", len(data))
	}

	_, err := ProcessCardPhoto(bytes.NewReader(data))
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
}

func TestProcessCardPhotoPixelCapBoundary(t *testing.T) {
	// 8000x5000 is exactly MaxPixels and passes the dimension check, so
	// the header-only upload fails later while decoding.
	_, err := ProcessCardPhoto(bytes.NewReader(pngHeader(8000, 5000)))
	if errors.Is(err, ErrTooLarge) {
		t.Fatalf("image at the pixel cap should not be rejected as too large: %v", err)
	}
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected decode failure for missing pixel data, got %v", err)
	}
}
