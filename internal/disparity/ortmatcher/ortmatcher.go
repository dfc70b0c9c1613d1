// Package ortmatcher runs stereo matching networks exported to ONNX with
// ONNX Runtime. Two graphs are expected: a coarse one taking the pair at
// half resolution, and a refinement one also taking the coarse flow.
package ortmatcher

import (
	"errors"
	"fmt"
	"os"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/pablodawson/proyecto-vision/internal/disparity"
	"github.com/pablodawson/proyecto-vision/internal/logging"
)

var logger = logging.NewLogger("proyecto-vision/ortmatcher")

// Options configures the sessions.
type Options struct {
	// Path to the onnxruntime shared library (.dll/.so/.dylib). If empty, the
	// environment variable ONNXRUNTIME_SHARED_LIBRARY_PATH will be respected.
	SharedLibraryPath string

	// CoarseModel runs without a flow seed, Model refines it.
	CoarseModel string
	Model       string

	// Tensor names in the graphs.
	LeftName     string
	RightName    string
	FlowInitName string
	OutputName   string

	// CUDA selects the CUDA execution provider, falling back to the CPU
	// when it cannot be set up.
	CUDA     bool
	DeviceID int
}

// DefaultOptions returns the tensor names of the usual exports.
func DefaultOptions() Options {
	return Options{
		LeftName:     "left",
		RightName:    "right",
		FlowInitName: "flow_init",
		OutputName:   "output",
	}
}

type Matcher struct {
	coarse  *ort.DynamicAdvancedSession
	refine  *ort.DynamicAdvancedSession
	ownsEnv bool
}

// New loads both graphs.
func New(opts Options) (*Matcher, error) {
	if opts.Model == "" || opts.CoarseModel == "" {
		return nil, errors.New("ortmatcher: both the coarse and the refinement models are required")
	}
	for _, p := range []string{opts.CoarseModel, opts.Model} {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("ortmatcher: %w", err)
		}
	}

	if opts.SharedLibraryPath != "" {
		ort.SetSharedLibraryPath(opts.SharedLibraryPath)
	} else if p := os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH"); p != "" {
		ort.SetSharedLibraryPath(p)
	}

	m := &Matcher{}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, err
		}
		m.ownsEnv = true
	}

	sessionOptions, err := newSessionOptions(opts)
	if err != nil {
		m.Close()
		return nil, err
	}
	defer sessionOptions.Destroy()

	m.coarse, err = ort.NewDynamicAdvancedSession(opts.CoarseModel,
		[]string{opts.LeftName, opts.RightName},
		[]string{opts.OutputName},
		sessionOptions)
	if err != nil {
		m.Close()
		return nil, fmt.Errorf("ortmatcher: coarse model: %w", err)
	}
	m.refine, err = ort.NewDynamicAdvancedSession(opts.Model,
		[]string{opts.LeftName, opts.RightName, opts.FlowInitName},
		[]string{opts.OutputName},
		sessionOptions)
	if err != nil {
		m.Close()
		return nil, fmt.Errorf("ortmatcher: model: %w", err)
	}
	return m, nil
}

func newSessionOptions(opts Options) (*ort.SessionOptions, error) {
	so, err := ort.NewSessionOptions()
	if err != nil {
		return nil, err
	}
	if !opts.CUDA {
		return so, nil
	}

	cuda, err := ort.NewCUDAProviderOptions()
	if err != nil {
		logger.Warnf("CUDA unavailable, running on CPU: %v", err)
		return so, nil
	}
	defer cuda.Destroy()
	if err := cuda.Update(map[string]string{"device_id": fmt.Sprint(opts.DeviceID)}); err != nil {
		logger.Warnf("CUDA unavailable, running on CPU: %v", err)
		return so, nil
	}
	if err := so.AppendExecutionProviderCUDA(cuda); err != nil {
		logger.Warnf("CUDA unavailable, running on CPU: %v", err)
		return so, nil
	}
	logger.Infof("Running on CUDA device %d", opts.DeviceID)
	return so, nil
}

// Infer runs the coarse graph when flowInit is nil, the refinement graph
// otherwise.
func (m *Matcher) Infer(left, right disparity.Tensor, flowInit *disparity.Tensor) (disparity.Tensor, error) {
	inputs := []disparity.Tensor{left, right}
	session := m.coarse
	if flowInit != nil {
		inputs = append(inputs, *flowInit)
		session = m.refine
	}
	if session == nil {
		return disparity.Tensor{}, errors.New("ortmatcher: matcher is closed")
	}

	values := make([]ort.Value, 0, len(inputs))
	defer func() {
		for _, v := range values {
			v.Destroy()
		}
	}()
	for _, t := range inputs {
		if err := t.Validate(); err != nil {
			return disparity.Tensor{}, err
		}
		v, err := ort.NewTensor(ort.NewShape(t.Shape[:]...), t.Data)
		if err != nil {
			return disparity.Tensor{}, err
		}
		values = append(values, v)
	}

	out := disparity.NewTensor(1, 2, int(left.Shape[2]), int(left.Shape[3]))
	output, err := ort.NewTensor(ort.NewShape(out.Shape[:]...), out.Data)
	if err != nil {
		return disparity.Tensor{}, err
	}
	defer output.Destroy()

	if err := session.Run(values, []ort.Value{output}); err != nil {
		return disparity.Tensor{}, err
	}
	copy(out.Data, output.GetData())
	return out, nil
}

func (m *Matcher) Close() error {
	var errs []error
	if m.coarse != nil {
		errs = append(errs, m.coarse.Destroy())
		m.coarse = nil
	}
	if m.refine != nil {
		errs = append(errs, m.refine.Destroy())
		m.refine = nil
	}
	if m.ownsEnv {
		errs = append(errs, ort.DestroyEnvironment())
		m.ownsEnv = false
	}
	return errors.Join(errs...)
}
