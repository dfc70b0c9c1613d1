package ortmatcher

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pablodawson/proyecto-vision/internal/disparity"
)

func TestNewRequiresModels(t *testing.T) {
	opts := DefaultOptions()
	_, err := New(opts)
	assert.Error(t, err)

	opts.Model = filepath.Join(t.TempDir(), "missing.onnx")
	opts.CoarseModel = opts.Model
	_, err = New(opts)
	assert.Error(t, err)
}

// Runs against real exports when ORTMATCHER_MODEL_DIR holds coarse.onnx
// and refine.onnx.
func TestInfer(t *testing.T) {
	dir := os.Getenv("ORTMATCHER_MODEL_DIR")
	if dir == "" || os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH") == "" {
		t.Skip("ORTMATCHER_MODEL_DIR and ONNXRUNTIME_SHARED_LIBRARY_PATH are required")
	}

	opts := DefaultOptions()
	opts.CoarseModel = filepath.Join(dir, "coarse.onnx")
	opts.Model = filepath.Join(dir, "refine.onnx")
	m, err := New(opts)
	require.NoError(t, err)
	defer m.Close()

	left := disparity.NewTensor(1, 3, 64, 96)
	right := disparity.NewTensor(1, 3, 64, 96)
	l2 := disparity.DownsampleAlignCorners(left, 32, 48)
	r2 := disparity.DownsampleAlignCorners(right, 32, 48)

	coarse, err := m.Infer(l2, r2, nil)
	require.NoError(t, err)
	assert.Equal(t, [4]int64{1, 2, 32, 48}, coarse.Shape)

	flow, err := m.Infer(left, right, &coarse)
	require.NoError(t, err)
	assert.Equal(t, [4]int64{1, 2, 64, 96}, flow.Shape)
}
