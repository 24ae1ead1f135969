package classifier

import (
	"fmt"
	"os"
	"runtime"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/ayusman/mudra/internal/artifact"
)

// ONNXOptions describes an ONNX model with one [1, InputSize] float input and
// one [1, NumClasses] float output.
type ONNXOptions struct {
	ModelPath   string
	LibraryPath string
	InputName   string
	OutputName  string
	InputSize   int
	NumClasses  int
}

// ONNX runs a classifier through ONNX Runtime. The session binds fixed input
// and output tensors, so Predict calls are serialized.
type ONNX struct {
	mu         sync.Mutex
	session    *ort.AdvancedSession
	input      *ort.Tensor[float32]
	output     *ort.Tensor[float32]
	inputSize  int
	numClasses int
}

var envMu sync.Mutex

// initEnvironment initializes the process-wide ONNX Runtime once.
func initEnvironment(libPath string) error {
	envMu.Lock()
	defer envMu.Unlock()

	if ort.IsInitialized() {
		return nil
	}
	if libPath != "" {
		ort.SetSharedLibraryPath(libPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("initialize onnxruntime: %w", err)
	}
	return nil
}

// NewONNX loads the model and allocates its tensors.
func NewONNX(opts ONNXOptions) (*ONNX, error) {
	if opts.InputSize <= 0 || opts.NumClasses <= 0 {
		return nil, fmt.Errorf("onnx classifier needs positive input size and class count")
	}
	if _, err := os.Stat(opts.ModelPath); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", artifact.ErrInvalidArtifact, opts.ModelPath, err)
	}
	if err := initEnvironment(opts.LibraryPath); err != nil {
		return nil, err
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("error creating session options: %w", err)
	}
	defer options.Destroy()

	options.SetIntraOpNumThreads(runtime.NumCPU())

	input, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(opts.InputSize)))
	if err != nil {
		return nil, fmt.Errorf("error creating input tensor: %w", err)
	}

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(opts.NumClasses)))
	if err != nil {
		input.Destroy()
		return nil, fmt.Errorf("error creating output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		opts.ModelPath,
		[]string{opts.InputName},
		[]string{opts.OutputName},
		[]ort.ArbitraryTensor{input},
		[]ort.ArbitraryTensor{output},
		options,
	)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, fmt.Errorf("%w: %s: %v", artifact.ErrInvalidArtifact, opts.ModelPath, err)
	}

	return &ONNX{
		session:    session,
		input:      input,
		output:     output,
		inputSize:  opts.InputSize,
		numClasses: opts.NumClasses,
	}, nil
}

func (c *ONNX) InputSize() int  { return c.inputSize }
func (c *ONNX) NumClasses() int { return c.numClasses }

// Predict runs the model once. Outputs that are not already a probability
// distribution are treated as logits.
func (c *ONNX) Predict(features []float32) ([]float32, error) {
	if len(features) != c.inputSize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInputSize, len(features), c.inputSize)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return nil, fmt.Errorf("onnx classifier is closed")
	}

	copy(c.input.GetData(), features)
	if err := c.session.Run(); err != nil {
		return nil, fmt.Errorf("onnx inference: %w", err)
	}

	probs := append([]float32(nil), c.output.GetData()...)
	if !isDistribution(probs) {
		Softmax(probs)
	}
	return probs, nil
}

// Close releases the session and tensors. The runtime environment stays
// initialized for the life of the process.
func (c *ONNX) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		c.session.Destroy()
		c.session = nil
	}
	if c.input != nil {
		c.input.Destroy()
		c.input = nil
	}
	if c.output != nil {
		c.output.Destroy()
		c.output = nil
	}
	return nil
}
