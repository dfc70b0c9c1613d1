// Package dataset lays out captured stereo sequences on disk.
//
//	<root>/intrinsics.json
//	<root>/poses.json
//	<root>/left/00001.png
//	<root>/right/00001.png
//	<root>/depth/00001.npy
//	<root>/depth_vis/00001.png
//	<root>/crestereo_disp_raw/00001.npy
//	<root>/crestereo_disp_vis/00001.png
package dataset

import (
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg" // datasets may hold JPEG frames
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pablodawson/proyecto-vision/internal/logging"
	"github.com/pablodawson/proyecto-vision/pkg/frame"
	"github.com/pablodawson/proyecto-vision/pkg/npy"
	"github.com/pablodawson/proyecto-vision/pkg/prop"
)

var logger = logging.NewLogger("proyecto-vision/dataset")

const (
	LeftDir      = "left"
	RightDir     = "right"
	DepthDir     = "depth"
	DepthVisDir  = "depth_vis"
	DispVisDir   = "crestereo_disp_vis"
	DispRawDir   = "crestereo_disp_raw"
	IntrinsicsFn = "intrinsics.json"
	PosesFn      = "poses.json"
)

// Layout resolves paths below a dataset root.
type Layout struct {
	Root string
}

func New(root string) Layout {
	return Layout{Root: root}
}

// Path joins elem below the root.
func (l Layout) Path(elem ...string) string {
	return filepath.Join(append([]string{l.Root}, elem...)...)
}

// MakeCaptureDirs creates the directories a capture writes into.
func (l Layout) MakeCaptureDirs() error {
	return l.mkdirs(LeftDir, RightDir, DepthDir, DepthVisDir)
}

// MakeDisparityDirs creates the directories the disparity pipeline
// writes into.
func (l Layout) MakeDisparityDirs() error {
	return l.mkdirs(DispVisDir, DispRawDir)
}

func (l Layout) mkdirs(dirs ...string) error {
	for _, d := range dirs {
		if err := os.MkdirAll(l.Path(d), 0o755); err != nil {
			return err
		}
	}
	return nil
}

// FrameName is the zero padded file stem of frame i.
func FrameName(i int) string {
	return fmt.Sprintf("%05d", i)
}

// Stem strips the extension of an image name.
func Stem(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// WriteIntrinsics stores the calibration as intrinsics.json.
func (l Layout) WriteIntrinsics(c prop.Calibration) error {
	return writeJSON(l.Path(IntrinsicsFn), c)
}

// ReadIntrinsics loads intrinsics.json.
func (l Layout) ReadIntrinsics() (prop.Calibration, error) {
	var c prop.Calibration
	err := readJSON(l.Path(IntrinsicsFn), &c)
	return c, err
}

// WritePoses stores one 16 value row-major matrix per frame in poses.json.
func (l Layout) WritePoses(poses []frame.Pose) error {
	rows := make([][]float64, 0, len(poses))
	for _, p := range poses {
		rows = append(rows, p.Slice())
	}
	return writeJSON(l.Path(PosesFn), rows)
}

// ReadPoses loads poses.json.
func (l Layout) ReadPoses() ([]frame.Pose, error) {
	var rows [][]float64
	if err := readJSON(l.Path(PosesFn), &rows); err != nil {
		return nil, err
	}
	poses := make([]frame.Pose, 0, len(rows))
	for i, r := range rows {
		p, err := frame.PoseFromSlice(r)
		if err != nil {
			return nil, fmt.Errorf("pose %d: %w", i, err)
		}
		poses = append(poses, p)
	}
	return poses, nil
}

func writeJSON(path string, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func readJSON(path string, v interface{}) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// WritePNG encodes img to path.
func WritePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}

// ReadImage decodes a PNG or JPEG file.
func ReadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// WriteDepth stores a depth map as a float32 .npy array of shape
// (height, width).
func WriteDepth(path string, d *frame.DepthMap) error {
	return npy.WriteFile(path, d.Height, d.Width, d.Data)
}

// ReadDepth loads a map written with WriteDepth.
func ReadDepth(path string) (*frame.DepthMap, error) {
	a, err := npy.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &frame.DepthMap{Width: a.Cols, Height: a.Rows, Data: a.Data}, nil
}

var imageExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true}

// ListImages returns the sorted names of the image files in dir.
// Subdirectories and other files are ignored.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			logger.Warnf("Skipping %s, not an image", filepath.Join(dir, e.Name()))
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}
