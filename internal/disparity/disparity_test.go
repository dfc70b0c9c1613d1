package disparity

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pablodawson/proyecto-vision/pkg/dataset"
	"github.com/pablodawson/proyecto-vision/pkg/frame"
)

// fakeMatcher answers a constant disparity, or the horizontal position
// when ramp is set.
type fakeMatcher struct {
	disparity float32
	ramp      bool
	calls     []call
	err       error
}

type call struct {
	left, right [4]int64
	flowInit    *[4]int64
}

func (f *fakeMatcher) Infer(left, right Tensor, flowInit *Tensor) (Tensor, error) {
	c := call{left: left.Shape, right: right.Shape}
	if flowInit != nil {
		s := flowInit.Shape
		c.flowInit = &s
	}
	f.calls = append(f.calls, c)
	if f.err != nil {
		return Tensor{}, f.err
	}

	h, w := int(left.Shape[2]), int(left.Shape[3])
	out := NewTensor(1, 2, h, w)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := f.disparity
			if f.ramp {
				v = float32(x)
			}
			out.Data[y*w+x] = v
			out.Data[h*w+y*w+x] = -1
		}
	}
	return out, nil
}

func (f *fakeMatcher) Close() error { return nil }

func writePair(t *testing.T, root, name string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 8), G: uint8(y * 8), B: 100, A: 255})
		}
	}
	for _, dir := range []string{dataset.LeftDir, dataset.RightDir} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0755))
		require.NoError(t, dataset.WritePNG(filepath.Join(root, dir, name), img))
	}
}

func TestRun(t *testing.T) {
	root := t.TempDir()
	writePair(t, root, "00002.png", 32, 16)
	writePair(t, root, "00001.png", 32, 16)

	opts := DefaultOptions()
	opts.Dataset = root
	m := &fakeMatcher{ramp: true}

	results, err := Run(context.Background(), m, opts)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "00001.png", results[0].Name)
	assert.Equal(t, "00002.png", results[1].Name)

	require.Len(t, m.calls, 4)
	assert.Equal(t, [4]int64{1, 3, 8, 16}, m.calls[0].left)
	assert.Nil(t, m.calls[0].flowInit)
	assert.Equal(t, [4]int64{1, 3, 16, 32}, m.calls[1].left)
	require.NotNil(t, m.calls[1].flowInit)
	assert.Equal(t, [4]int64{1, 2, 8, 16}, *m.calls[1].flowInit)

	layout := dataset.New(root)
	for _, r := range results {
		raw, err := dataset.ReadDepth(layout.Path(dataset.DispRawDir, dataset.Stem(r.Name)+".npy"))
		require.NoError(t, err)
		assert.Equal(t, 32, raw.Width)
		assert.Equal(t, 16, raw.Height)
		assert.InDelta(t, 5, raw.At(5, 3), 1e-4)

		vis, err := dataset.ReadImage(layout.Path(dataset.DispVisDir, r.Name))
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, 32, 16), vis.Bounds())
	}
}

func TestRunEvalSize(t *testing.T) {
	root := t.TempDir()
	writePair(t, root, "00001.png", 32, 16)

	opts := DefaultOptions()
	opts.Dataset = root
	opts.EvalWidth, opts.EvalHeight = 16, 8
	m := &fakeMatcher{disparity: 3}

	results, err := Run(context.Background(), m, opts)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, [4]int64{1, 3, 8, 16}, m.calls[1].left)

	raw, err := dataset.ReadDepth(results[0].Raw)
	require.NoError(t, err)
	assert.Equal(t, 32, raw.Width)
	// Disparities are rescaled by the input to evaluation width ratio.
	assert.InDelta(t, 6, raw.At(10, 10), 1e-5)
	assert.InDelta(t, 6, results[0].Max, 1e-5)
}

func TestRunNotDivisible(t *testing.T) {
	root := t.TempDir()
	writePair(t, root, "00001.png", 30, 16)

	opts := DefaultOptions()
	opts.Dataset = root
	m := &fakeMatcher{}

	_, err := Run(context.Background(), m, opts)
	assert.True(t, errors.Is(err, ErrNotDivisible), "got %v", err)
	assert.Empty(t, m.calls)
}

func TestRunMissingRight(t *testing.T) {
	root := t.TempDir()
	writePair(t, root, "00001.png", 16, 16)
	writePair(t, root, "00002.png", 16, 16)
	require.NoError(t, os.Remove(filepath.Join(root, dataset.RightDir, "00002.png")))

	opts := DefaultOptions()
	opts.Dataset = root

	results, err := Run(context.Background(), &fakeMatcher{}, opts)
	assert.Error(t, err)
	assert.Len(t, results, 1)
}

func TestRunMatcherFailure(t *testing.T) {
	root := t.TempDir()
	writePair(t, root, "00001.png", 16, 16)

	opts := DefaultOptions()
	opts.Dataset = root
	boom := errors.New("out of memory")

	_, err := Run(context.Background(), &fakeMatcher{err: boom}, opts)
	assert.True(t, errors.Is(err, boom))
}

func TestRunCanceled(t *testing.T) {
	root := t.TempDir()
	writePair(t, root, "00001.png", 16, 16)
	opts := DefaultOptions()
	opts.Dataset = root

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, &fakeMatcher{}, opts)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestImageTensorOrder(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.SetRGBA(0, 0, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	img.SetRGBA(1, 0, color.RGBA{R: 40, G: 50, B: 60, A: 255})

	bgr := ImageTensor(img, BGR)
	assert.Equal(t, [4]int64{1, 3, 1, 2}, bgr.Shape)
	assert.Equal(t, []float32{30, 60, 20, 50, 10, 40}, bgr.Data)

	rgb := ImageTensor(img, RGB)
	assert.Equal(t, []float32{10, 40, 20, 50, 30, 60}, rgb.Data)
}

func TestImageTensorGraySubImage(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 4, 2))
	for i := range gray.Pix {
		gray.Pix[i] = uint8(10 * i)
	}
	sub := gray.SubImage(image.Rect(2, 1, 4, 2))

	tensor := ImageTensor(sub, RGB)
	assert.Equal(t, [4]int64{1, 3, 1, 2}, tensor.Shape)
	assert.Equal(t, []float32{60, 70, 60, 70, 60, 70}, tensor.Data)
}

func TestDownsampleAlignCorners(t *testing.T) {
	src := NewTensor(1, 1, 3, 3)
	for i := range src.Data {
		src.Data[i] = float32(i)
	}

	out := DownsampleAlignCorners(src, 2, 2)
	assert.Equal(t, [4]int64{1, 1, 2, 2}, out.Shape)
	// Corners map onto corners.
	assert.Equal(t, []float32{0, 2, 6, 8}, out.Data)

	up := DownsampleAlignCorners(src, 5, 5)
	assert.InDelta(t, 0.5, up.Data[1], 1e-6)
	assert.InDelta(t, 8, up.Data[24], 1e-6)
}

func TestChannel(t *testing.T) {
	tensor := NewTensor(1, 2, 1, 2)
	copy(tensor.Data, []float32{1, 2, 3, 4})

	c, err := Channel(tensor, 1)
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 4}, c.Data)

	_, err = Channel(tensor, 2)
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	d := frame.NewDepthMap(3, 1)
	copy(d.Data, []float32{-1, 0, 1})
	assert.Equal(t, []uint8{0, 127, 255}, Normalize(d).Pix)

	flat := frame.NewDepthMap(2, 2)
	for i := range flat.Data {
		flat.Data[i] = 7
	}
	assert.Equal(t, []uint8{0, 0, 0, 0}, Normalize(flat).Pix)
}

func TestInferno(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 2, 1))
	gray.Pix[1] = 255

	img, err := Inferno(gray)
	require.NoError(t, err)
	assert.Equal(t, gray.Bounds(), img.Bounds())

	// INFERNO goes from near black to pale yellow.
	r0, g0, b0, _ := img.At(0, 0).RGBA()
	r1, g1, _, _ := img.At(1, 0).RGBA()
	assert.Less(t, r0+g0+b0, uint32(0x3000))
	assert.Greater(t, r1, uint32(0xe000))
	assert.Greater(t, g1, uint32(0xe000))
}

func TestParseColorOrder(t *testing.T) {
	o, err := ParseColorOrder("RGB")
	require.NoError(t, err)
	assert.Equal(t, RGB, o)
	_, err = ParseColorOrder("rgb")
	assert.Error(t, err)
}
