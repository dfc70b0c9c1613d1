// Command dataset-stereo computes disparity maps for every stereo pair of
// a captured dataset.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/pablodawson/proyecto-vision/internal/disparity"
	"github.com/pablodawson/proyecto-vision/internal/disparity/ortmatcher"
	"github.com/pablodawson/proyecto-vision/internal/logging"
)

var logger = logging.NewLogger("proyecto-vision/dataset-stereo")

func main() {
	os.Exit(run())
}

func run() int {
	defaults := disparity.DefaultOptions()
	var (
		datasetDir  = flag.String("dataset", defaults.Dataset, "Dataset holding left/ and right/")
		model       = flag.String("model", "", "ONNX refinement model, taking left, right and flow_init")
		coarseModel = flag.String("coarse_model", "", "ONNX coarse model, taking left and right at half resolution")
		ortLib      = flag.String("ort_lib", "", "onnxruntime shared library, defaults to $ONNXRUNTIME_SHARED_LIBRARY_PATH")
		cuda        = flag.Bool("cuda", false, "Run on the CUDA execution provider")
		colorOrder  = flag.String("color_order", string(defaults.ColorOrder), "Channel order the model expects, BGR or RGB")
		evalWidth   = flag.Int("eval_width", 0, "Resize pairs to this width before inference, 0 keeps the input size")
		evalHeight  = flag.Int("eval_height", 0, "Resize pairs to this height before inference, 0 keeps the input size")
	)
	flag.Parse()

	order, err := disparity.ParseColorOrder(*colorOrder)
	if err != nil {
		logger.Error(err.Error())
		return 2
	}

	mopts := ortmatcher.DefaultOptions()
	mopts.Model = *model
	mopts.CoarseModel = *coarseModel
	mopts.SharedLibraryPath = *ortLib
	mopts.CUDA = *cuda
	m, err := ortmatcher.New(mopts)
	if err != nil {
		logger.Errorf("Loading models: %v", err)
		return 1
	}
	defer m.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := defaults
	opts.Dataset = *datasetDir
	opts.ColorOrder = order
	opts.EvalWidth, opts.EvalHeight = *evalWidth, *evalHeight

	results, err := disparity.Run(ctx, m, opts)
	if err != nil {
		logger.Errorf("Stopped after %d pairs: %v", len(results), err)
		return 1
	}
	logger.Infof("Wrote %d disparity maps", len(results))
	return 0
}
