package frame

import (
	"bytes"
	"image"
	"image/jpeg"
	"testing"
)

func TestDecodeMJPEG(t *testing.T) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewGray(image.Rect(0, 0, 16, 8)), nil); err != nil {
		t.Fatal(err)
	}

	d, err := NewDecoder(FormatMJPEG)
	if err != nil {
		t.Fatal(err)
	}
	img, err := d.Decode(buf.Bytes(), 16, 8)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 16 || b.Dy() != 8 {
		t.Errorf("decoded %v, want 16x8", b)
	}

	if _, err := d.Decode(buf.Bytes(), 32, 8); err == nil {
		t.Error("expected a size mismatch error")
	}
	if _, err := d.Decode([]byte{0x00}, 16, 8); err == nil {
		t.Error("expected a decode error")
	}
}
