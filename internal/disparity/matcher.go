package disparity

// Matcher estimates the stereo flow between two image tensors. The output
// has two channels, the first one being the horizontal disparity in
// pixels.
type Matcher interface {
	// Infer runs one pass. flowInit seeds the refinement with a coarse
	// flow at half resolution; nil runs the coarse pass.
	Infer(left, right Tensor, flowInit *Tensor) (Tensor, error)
	Close() error
}
