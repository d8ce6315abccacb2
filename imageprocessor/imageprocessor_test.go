package imageprocessor

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"sdcard/sampling"
	"sdcard/types"
)

func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return img
}

func writeJPEG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, testImage(w, h), &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, buf.Bytes(), 0600); err != nil {
		t.Fatalf("write jpeg: %v", err)
	}
	return p
}

func writePNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage(w, h)); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, buf.Bytes(), 0600); err != nil {
		t.Fatalf("write png: %v", err)
	}
	return p
}

func TestGoProberReadsHeader(t *testing.T) {
	dir := t.TempDir()
	jpgPath := writeJPEG(t, dir, "photo.jpg", 640, 480)
	pngPath := writePNG(t, dir, "shot.png", 33, 17)

	bounds, format, err := GoProber{}.ProbeFile(jpgPath)
	if err != nil {
		t.Fatalf("ProbeFile jpeg: %v", err)
	}
	if bounds.Width != 640 || bounds.Height != 480 || format != FormatJPEG {
		t.Fatalf("jpeg probe = %v %s", bounds, format)
	}

	bounds, format, err = GoProber{}.ProbeFile(pngPath)
	if err != nil {
		t.Fatalf("ProbeFile png: %v", err)
	}
	if bounds.Width != 33 || bounds.Height != 17 || format != FormatPNG {
		t.Fatalf("png probe = %v %s", bounds, format)
	}

	if _, _, err := (GoProber{}).ProbeBounds(bytes.NewReader([]byte("not an image"))); err == nil {
		t.Fatalf("expected error for garbage input")
	}
}

func TestGoDecoderSubsamples(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage(400, 300)); err != nil {
		t.Fatalf("encode: %v", err)
	}
	data := buf.Bytes()

	cases := []struct {
		factor int
		w, h   int
	}{
		{1, 400, 300},
		{2, 200, 150},
		{4, 100, 75},
		{512, 1, 1},
	}
	dec := NewGoDecoder()
	for _, tc := range cases {
		img, err := dec.Decode(bytes.NewReader(data), tc.factor)
		if err != nil {
			t.Fatalf("Decode factor %d: %v", tc.factor, err)
		}
		if b := img.Bounds(); b.Dx() != tc.w || b.Dy() != tc.h {
			t.Fatalf("factor %d decoded %dx%d, want %dx%d", tc.factor, b.Dx(), b.Dy(), tc.w, tc.h)
		}
	}

	for _, bad := range []int{0, 3, -2} {
		if _, err := dec.Decode(bytes.NewReader(data), bad); !errors.Is(err, ErrInvalidFactor) || !errors.Is(err, sampling.ErrInvalidArgument) {
			t.Fatalf("Decode factor %d error = %v, want ErrInvalidFactor", bad, err)
		}
	}
}

func TestShowImage(t *testing.T) {
	dir := t.TempDir()
	p := writeJPEG(t, dir, "large.jpg", 800, 600)

	got, err := ShowImage(context.Background(), FileSource{Path: p}, GoProber{}, FixedDisplay{Width: 200}, NewGoDecoder())
	if err != nil {
		t.Fatalf("ShowImage: %v", err)
	}
	// halves 400x300 > 200 -> 2; 200x150 stops growth
	if got.Factor != 2 {
		t.Fatalf("factor = %d, want 2", got.Factor)
	}
	if got.Bounds.Width != 800 || got.Bounds.Height != 600 {
		t.Fatalf("bounds = %v", got.Bounds)
	}
	if got.Decoded.Width != 400 || got.Decoded.Height != 300 {
		t.Fatalf("decoded = %v, want 400x300", got.Decoded)
	}
	if got.Target.Width != 200 || got.Target.Height != 200 {
		t.Fatalf("target = %v", got.Target)
	}

	out := filepath.Join(dir, "cache", "preview.jpg")
	if err := WritePreview(got.Image, out, DefaultPreviewQuality); err != nil {
		t.Fatalf("WritePreview: %v", err)
	}
	bounds, format, err := GoProber{}.ProbeFile(out)
	if err != nil || format != FormatJPEG || bounds.Width != 400 {
		t.Fatalf("preview probe = %v %s %v", bounds, format, err)
	}
}

// fixedProber reports the same bounds for any input, after draining it
type fixedProber struct {
	bounds types.ImageBounds
	calls  int
}

func (p *fixedProber) ProbeBounds(r io.Reader) (types.ImageBounds, FormatType, error) {
	p.calls++
	if _, err := io.Copy(io.Discard, r); err != nil {
		return types.ImageBounds{}, FormatUnknown, err
	}
	return p.bounds, FormatJPEG, nil
}

func TestShowImageUsesGivenProber(t *testing.T) {
	dir := t.TempDir()
	p := writeJPEG(t, dir, "tiny.jpg", 16, 12)

	prober := &fixedProber{bounds: types.ImageBounds{Width: 4000, Height: 3000}}
	got, err := ShowImage(context.Background(), FileSource{Path: p}, prober, FixedDisplay{Width: 1000}, NewGoDecoder())
	if err != nil {
		t.Fatalf("ShowImage: %v", err)
	}
	if prober.calls != 1 {
		t.Fatalf("prober called %d times, want 1", prober.calls)
	}
	if got.Bounds.Width != 4000 || got.Bounds.Height != 3000 {
		t.Fatalf("bounds = %v, want 4000x3000", got.Bounds)
	}
	// 2000x1500 > 1000 -> 2; 1000x750 stops growth
	if got.Factor != 2 {
		t.Fatalf("factor = %d, want 2", got.Factor)
	}
	// the decode itself works on the real 16x12 pixels
	if got.Decoded.Width != 8 || got.Decoded.Height != 6 {
		t.Fatalf("decoded = %v, want 8x6", got.Decoded)
	}
}

func TestShowImageErrors(t *testing.T) {
	dir := t.TempDir()
	pngPath := writePNG(t, dir, "fake.jpg", 10, 10)

	if _, err := ShowImage(context.Background(), nil, GoProber{}, FixedDisplay{Width: 100}, NewGoDecoder()); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("nil source error = %v, want ErrNoSelection", err)
	}

	if _, err := ShowImage(context.Background(), FileSource{Path: pngPath}, GoProber{}, FixedDisplay{Width: 100}, NewGoDecoder()); !errors.Is(err, ErrNotJPEG) {
		t.Fatalf("png source error = %v, want ErrNotJPEG", err)
	}

	if _, err := ShowImage(context.Background(), FileSource{Path: filepath.Join(dir, "missing.jpg")}, GoProber{}, FixedDisplay{Width: 100}, NewGoDecoder()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing source error = %v, want ErrNotExist", err)
	}

	jpgPath := writeJPEG(t, dir, "ok.jpg", 10, 10)
	if _, err := ShowImage(context.Background(), FileSource{Path: jpgPath}, GoProber{}, FixedDisplay{Width: 0}, NewGoDecoder()); !errors.Is(err, sampling.ErrInvalidArgument) {
		t.Fatalf("zero display error = %v, want ErrInvalidArgument", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ShowImage(ctx, FileSource{Path: jpgPath}, GoProber{}, FixedDisplay{Width: 100}, NewGoDecoder()); !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled error = %v, want context.Canceled", err)
	}
}

func TestRegistry(t *testing.T) {
	dir := t.TempDir()
	p := writeJPEG(t, dir, "IMG_0001.JPG", 64, 48)

	registry := NewImageLoaderRegistry(false)
	defer registry.Close()

	if !registry.CanLoadFile(p) {
		t.Fatalf("CanLoadFile(%s) = false", p)
	}
	if registry.CanLoadFile(filepath.Join(dir, "notes.txt")) {
		t.Fatalf("CanLoadFile(notes.txt) = true")
	}
	if registry.CanLoadFile(filepath.Join(dir, "raw.cr3")) {
		t.Fatalf("CanLoadFile(raw.cr3) = true without exiftool")
	}

	bounds, format, err := registry.ProbeFile(p)
	if err != nil {
		t.Fatalf("ProbeFile: %v", err)
	}
	if bounds.Width != 64 || bounds.Height != 48 || format != FormatJPEG {
		t.Fatalf("ProbeFile = %v %s", bounds, format)
	}

	if _, _, err := registry.ProbeFile(filepath.Join(dir, "missing.png")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestFormats(t *testing.T) {
	cases := map[string]FormatType{
		"a.JPG":  FormatJPEG,
		"b.jpeg": FormatJPEG,
		"c.webp": FormatWEBP,
		"d.heic": FormatHEIC,
		"e.cr3":  FormatRAW,
		"f.txt":  FormatUnknown,
		"noext":  FormatUnknown,
	}
	for name, want := range cases {
		if got := GetFileFormat(name); got != want {
			t.Fatalf("GetFileFormat(%s) = %s, want %s", name, got, want)
		}
	}
	if !IsJPEG("x.Jpeg") || IsJPEG("x.png") {
		t.Fatalf("IsJPEG mismatch")
	}
	if !hasJPEGSignature([]byte{0xFF, 0xD8, 0xFF, 0xE0}) || hasJPEGSignature([]byte{0x89, 'P', 'N'}) {
		t.Fatalf("hasJPEGSignature mismatch")
	}
}

type failingProber struct{}

func (failingProber) ProbeFile(path string) (types.ImageBounds, FormatType, error) {
	return types.ImageBounds{}, FormatUnknown, errors.New("unsupported")
}

func TestExiftoolProber(t *testing.T) {
	if !checkExiftoolCommandAvailable() {
		t.Skip("exiftool not installed")
	}

	dir := t.TempDir()
	p := writeJPEG(t, dir, "photo.jpg", 120, 80)

	prober := NewExiftoolProber()
	bounds, format, err := prober.ProbeFile(p)
	if err != nil {
		t.Fatalf("ProbeFile: %v", err)
	}
	if bounds.Width != 120 || bounds.Height != 80 || format != FormatJPEG {
		t.Fatalf("exiftool probe = %v %s", bounds, format)
	}
	if _, _, err := prober.ProbeFile(filepath.Join(dir, "missing.jpg")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	if err := prober.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	// closing twice is harmless
	if err := prober.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	// a failing prober falls through to exiftool
	chained := NewImageLoaderRegistry(false)
	defer chained.Close()
	fallback := NewExiftoolProber()
	defer fallback.Close()
	chained.RegisterLoader(".bin", failingProber{})
	chained.RegisterLoader(".bin", fallback)

	binPath := filepath.Join(dir, "photo.bin")
	data, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(binPath, data, 0600); err != nil {
		t.Fatal(err)
	}
	bounds, format, err = chained.ProbeFile(binPath)
	if err != nil {
		t.Fatalf("chained ProbeFile: %v", err)
	}
	if bounds.Width != 120 || bounds.Height != 80 || format != FormatJPEG {
		t.Fatalf("chained probe = %v %s", bounds, format)
	}

	// RAW extensions are only probed through exiftool
	registry := NewImageLoaderRegistry(true)
	defer registry.Close()
	rawPath := filepath.Join(dir, "IMG_0002.cr3")
	if err := os.WriteFile(rawPath, data, 0600); err != nil {
		t.Fatal(err)
	}
	if !registry.CanLoadFile(rawPath) {
		t.Fatalf("CanLoadFile(%s) = false with exiftool", rawPath)
	}
	bounds, _, err = registry.ProbeFile(rawPath)
	if err != nil {
		t.Fatalf("registry ProbeFile: %v", err)
	}
	if bounds.Width != 120 || bounds.Height != 80 {
		t.Fatalf("registry probe = %v", bounds)
	}
}
