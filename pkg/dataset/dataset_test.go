package dataset

import (
	"encoding/json"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pion/logging"

	"github.com/pablodawson/proyecto-vision/pkg/frame"
	"github.com/pablodawson/proyecto-vision/pkg/prop"
)

func TestFrameName(t *testing.T) {
	testCases := map[int]string{
		1:      "00001",
		42:     "00042",
		300:    "00300",
		99999:  "99999",
		123456: "123456",
	}
	for i, expected := range testCases {
		if name := FrameName(i); name != expected {
			t.Errorf("FrameName(%d): expected %s, got %s", i, expected, name)
		}
	}
}

func TestStem(t *testing.T) {
	if s := Stem("00001.png"); s != "00001" {
		t.Errorf("Expected 00001, got %s", s)
	}
	if s := Stem("frame.left.jpg"); s != "frame.left" {
		t.Errorf("Expected frame.left, got %s", s)
	}
}

func TestIntrinsicsKeys(t *testing.T) {
	l := New(t.TempDir())
	c := prop.Calibration{FocalLeftX: 1, FocalLeftY: 2, PrincipalLeftX: 3, PrincipalLeftY: 4, Baseline: 0.12}
	if err := l.WriteIntrinsics(c); err != nil {
		t.Fatal(err)
	}

	b, err := os.ReadFile(l.Path(IntrinsicsFn))
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]float64
	if err := json.Unmarshal(b, &doc); err != nil {
		t.Fatal(err)
	}
	expected := map[string]float64{
		"focal_left_x":     1,
		"focal_left_y":     2,
		"principal_left_x": 3,
		"principal_left_y": 4,
		"baseline":         0.12,
	}
	if diff := cmp.Diff(expected, doc); diff != "" {
		t.Errorf("intrinsics mismatch (-want +got):\n%s", diff)
	}

	got, err := l.ReadIntrinsics()
	if err != nil {
		t.Fatal(err)
	}
	if got != c {
		t.Errorf("Expected %v, got %v", c, got)
	}
}

func TestPoses(t *testing.T) {
	l := New(t.TempDir())
	p := frame.Identity()
	p[3] = 1.25
	poses := []frame.Pose{frame.Identity(), p}
	if err := l.WritePoses(poses); err != nil {
		t.Fatal(err)
	}

	var rows [][]float64
	b, err := os.ReadFile(l.Path(PosesFn))
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(b, &rows); err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || len(rows[0]) != 16 || len(rows[1]) != 16 {
		t.Fatalf("Unexpected poses shape: %v", rows)
	}

	got, err := l.ReadPoses()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(poses, got) {
		t.Errorf("Expected %v, got %v", poses, got)
	}
}

func TestEmptyPoses(t *testing.T) {
	l := New(t.TempDir())
	if err := l.WritePoses(nil); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(l.Path(PosesFn))
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "[]" {
		t.Errorf("Expected an empty array, got %s", b)
	}
}

func TestDepthRoundTrip(t *testing.T) {
	d := frame.NewDepthMap(3, 2)
	for i := range d.Data {
		d.Data[i] = float32(i) / 2
	}
	path := filepath.Join(t.TempDir(), "00001.npy")
	if err := WriteDepth(path, d); err != nil {
		t.Fatal(err)
	}
	got, err := ReadDepth(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(d, got) {
		t.Errorf("Expected %v, got %v", d, got)
	}
}

func TestListImages(t *testing.T) {
	l := New(t.TempDir())
	if err := l.MakeCaptureDirs(); err != nil {
		t.Fatal(err)
	}
	dir := l.Path(LeftDir)
	for _, name := range []string{"00002.png", "00001.png", "00010.JPG", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.png"), 0755); err != nil {
		t.Fatal(err)
	}

	warnings := &warnRecorder{LeveledLogger: logger}
	logger = warnings
	defer func() { logger = warnings.LeveledLogger }()

	names, err := ListImages(dir)
	if err != nil {
		t.Fatal(err)
	}
	expected := []string{"00001.png", "00002.png", "00010.JPG"}
	if !reflect.DeepEqual(expected, names) {
		t.Errorf("Expected %v, got %v", expected, names)
	}
	skipped := []string{
		"Skipping " + filepath.Join(dir, "notes.txt") + ", not an image",
		"Skipping " + filepath.Join(dir, "sub.png") + ", not an image",
	}
	if !reflect.DeepEqual(skipped, warnings.lines) {
		t.Errorf("Expected warnings %v, got %v", skipped, warnings.lines)
	}
}

type warnRecorder struct {
	logging.LeveledLogger
	lines []string
}

func (w *warnRecorder) Warnf(format string, args ...interface{}) {
	w.lines = append(w.lines, fmt.Sprintf(format, args...))
}

func TestPNGRoundTrip(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 4, 3))
	img.Pix[5] = 200
	path := filepath.Join(t.TempDir(), "mask.png")
	if err := WritePNG(path, img); err != nil {
		t.Fatal(err)
	}
	got, err := ReadImage(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(img, got) {
		t.Errorf("Expected %v, got %v", img, got)
	}
}
