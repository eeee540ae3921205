package assets

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
)

// testPNG renders a w x h solid PNG for use as upload bytes.
func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 180, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding test PNG: %v", err)
	}
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

func TestDataURIRoundTrip(t *testing.T) {
	data := []byte{1, 2, 3, 4}
	uri := ToDataURI("image/png", data)

	mime, got, err := ParseDataURI(uri)
	if err != nil {
		t.Fatalf("ParseDataURI: %v", err)
	}
	if mime != "image/png" {
		t.Errorf("mime = %q", mime)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("data mismatch: %v", got)
	}
}

func TestParseDataURIRejectsGarbage(t *testing.T) {
	for _, uri := range []string{
		"http://example.com/a.png",
		"data:image/png",
		"data:image/png;base64,!!!not-base64!!!",
		"data:image/png,rawdata",
	} {
		if _, _, err := ParseDataURI(uri); err == nil {
			t.Errorf("expected error for %q", uri)
		}
	}
}

func TestValidateUpload(t *testing.T) {
	mime, err := ValidateUpload(testPNG(t, 4, 4))
	if err != nil {
		t.Fatalf("ValidateUpload: %v", err)
	}
	if mime != "image/png" {
		t.Errorf("mime = %q", mime)
	}

	if _, err := ValidateUpload([]byte("just text, definitely not an image")); err == nil {
		t.Error("expected error for non-image bytes")
	}
	if _, err := ValidateUpload(nil); err == nil {
		t.Error("expected error for empty upload")
	}
}

func TestCrop(t *testing.T) {
	src := testPNG(t, 100, 80)

	out, err := Crop(src, CropRect{X: 10, Y: 10, Width: 40, Height: 30})
	if err != nil {
		t.Fatalf("Crop: %v", err)
	}
	w, h := decodeSize(t, out)
	if w != 40 || h != 30 {
		t.Errorf("cropped size = %dx%d, want 40x30", w, h)
	}
}

func TestCropClampsToBounds(t *testing.T) {
	src := testPNG(t, 50, 50)

	// Rectangle hangs over the right edge; result is the intersection.
	out, err := Crop(src, CropRect{X: 40, Y: 0, Width: 30, Height: 20})
	if err != nil {
		t.Fatalf("Crop: %v", err)
	}
	w, h := decodeSize(t, out)
	if w != 10 || h != 20 {
		t.Errorf("clamped size = %dx%d, want 10x20", w, h)
	}
}

func TestCropOutsideImageFails(t *testing.T) {
	src := testPNG(t, 50, 50)
	if _, err := Crop(src, CropRect{X: 100, Y: 100, Width: 10, Height: 10}); err == nil {
		t.Error("expected error for fully outside rectangle")
	}
	if _, err := Crop(src, CropRect{X: 0, Y: 0, Width: 0, Height: 10}); err == nil {
		t.Error("expected error for zero width")
	}
}

func TestFitDownscales(t *testing.T) {
	src := testPNG(t, 400, 200)

	out, err := Fit(src, 100)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	w, h := decodeSize(t, out)
	if w != 100 || h != 50 {
		t.Errorf("fitted size = %dx%d, want 100x50", w, h)
	}
}

func TestFitLeavesSmallImagesAlone(t *testing.T) {
	src := testPNG(t, 60, 40)
	out, err := Fit(src, 100)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if !bytes.Equal(out, src) {
		t.Error("image within bounds should be returned unchanged")
	}
}

func TestStoreSaveLoadRemove(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	data := testPNG(t, 8, 8)
	name, err := store.Save(data, "image/png")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasSuffix(name, ".png") {
		t.Errorf("saved name %q should carry .png extension", name)
	}

	got, err := store.Load(name)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Error("loaded bytes differ from saved bytes")
	}

	if err := store.Remove(name); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := store.Load(name); err == nil {
		t.Error("expected error loading removed file")
	}
	// Removing twice is fine.
	if err := store.Remove(name); err != nil {
		t.Errorf("second Remove: %v", err)
	}
}

func TestStoreLoadStripsPathTraversal(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if _, err := store.Load("../../etc/passwd"); err == nil {
		t.Error("expected error for traversal path")
	}
}
