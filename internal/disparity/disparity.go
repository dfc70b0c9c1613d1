// Package disparity computes dense disparity maps for the stereo pairs of
// a captured dataset, coarse to fine.
package disparity

import (
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"gocv.io/x/gocv"

	"github.com/pablodawson/proyecto-vision/internal/logging"
	"github.com/pablodawson/proyecto-vision/pkg/dataset"
	"github.com/pablodawson/proyecto-vision/pkg/frame"
	"github.com/pablodawson/proyecto-vision/pkg/io/video"
)

var logger = logging.NewLogger("proyecto-vision/disparity")

// ErrNotDivisible rejects evaluation sizes the network cannot run on.
var ErrNotDivisible = errors.New("input width and height should be divisible by 8")

const sizeMultiple = 8

// Options tune the pipeline.
type Options struct {
	// Dataset is the root holding left/ and right/.
	Dataset    string
	ColorOrder ColorOrder
	// EvalWidth and EvalHeight resize the pair before inference, to spare
	// memory on large inputs. Zero keeps the input size.
	EvalWidth, EvalHeight int
}

func DefaultOptions() Options {
	return Options{
		Dataset:    "dataset",
		ColorOrder: BGR,
	}
}

// Result describes one processed pair.
type Result struct {
	Name     string
	Raw      string
	Vis      string
	Min, Max float32
}

// Run processes every image of <dataset>/left in name order. The first
// failure aborts the batch; the results of the pairs done so far are
// returned with it.
func Run(ctx context.Context, m Matcher, opts Options) ([]Result, error) {
	layout := dataset.New(opts.Dataset)
	names, err := dataset.ListImages(layout.Path(dataset.LeftDir))
	if err != nil {
		return nil, err
	}
	if err := layout.MakeDisparityDirs(); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(names))
	for i, name := range names {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		logger.Infof("[%d/%d] %s", i+1, len(names), name)
		r, err := processPair(m, layout, name, opts)
		if err != nil {
			return results, fmt.Errorf("%s: %w", name, err)
		}
		results = append(results, r)
	}
	return results, nil
}

func processPair(m Matcher, layout dataset.Layout, name string, opts Options) (Result, error) {
	left, err := dataset.ReadImage(layout.Path(dataset.LeftDir, name))
	if err != nil {
		return Result{}, err
	}
	right, err := dataset.ReadImage(layout.Path(dataset.RightDir, name))
	if err != nil {
		return Result{}, err
	}

	in := left.Bounds()
	inW, inH := in.Dx(), in.Dy()
	evalW, evalH := inW, inH
	if opts.EvalWidth > 0 && opts.EvalHeight > 0 {
		evalW, evalH = opts.EvalWidth, opts.EvalHeight
	}
	if evalW%sizeMultiple != 0 || evalH%sizeMultiple != 0 {
		return Result{}, fmt.Errorf("%w, got %dx%d", ErrNotDivisible, evalW, evalH)
	}

	scale := video.Merge(video.Scale(evalW, evalH, video.ScalerBiLinear))
	left, err = scale(constant(left)).Read()
	if err != nil {
		return Result{}, err
	}
	right, err = scale(constant(right)).Read()
	if err != nil {
		return Result{}, err
	}

	disp, err := infer(m, left, right, opts.ColorOrder)
	if err != nil {
		return Result{}, err
	}

	disp = disp.Resize(inW, inH)
	disp.Scale(float32(inW) / float32(evalW))

	r := Result{
		Name: name,
		Raw:  layout.Path(dataset.DispRawDir, dataset.Stem(name)+".npy"),
		Vis:  layout.Path(dataset.DispVisDir, name),
	}
	r.Min, r.Max, _ = disp.MinMax()

	if err := writeVis(r.Vis, Normalize(disp)); err != nil {
		return Result{}, err
	}
	if err := dataset.WriteDepth(r.Raw, disp); err != nil {
		return Result{}, err
	}
	return r, nil
}

func constant(img image.Image) video.Reader {
	return video.ReaderFunc(func() (image.Image, error) {
		return img, nil
	})
}

// infer runs the half resolution pass then the full resolution pass
// seeded with its flow, and returns the horizontal disparity.
func infer(m Matcher, left, right image.Image, order ColorOrder) (*frame.DepthMap, error) {
	l := ImageTensor(left, order)
	r := ImageTensor(right, order)

	h, w := int(l.Shape[2]), int(l.Shape[3])
	l2 := DownsampleAlignCorners(l, h/2, w/2)
	r2 := DownsampleAlignCorners(r, h/2, w/2)

	coarse, err := m.Infer(l2, r2, nil)
	if err != nil {
		return nil, fmt.Errorf("coarse pass: %w", err)
	}
	flow, err := m.Infer(l, r, &coarse)
	if err != nil {
		return nil, fmt.Errorf("refine pass: %w", err)
	}
	if flow.Shape[2] != int64(h) || flow.Shape[3] != int64(w) {
		return nil, fmt.Errorf("matcher returned %v for a %dx%d pair", flow.Shape, w, h)
	}
	return Channel(flow, 0)
}

// writeVis colorizes gray and encodes it according to the extension of
// path.
func writeVis(path string, gray *image.Gray) error {
	m, err := colorize(gray)
	if err != nil {
		return err
	}
	defer m.Close()

	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return fmt.Errorf("no image extension in %s", path)
	}
	if !gocv.IMWrite(path, m) {
		return fmt.Errorf("could not write %s", path)
	}
	return nil
}
