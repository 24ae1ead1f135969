// Package classifier maps standardized feature vectors to class probabilities.
package classifier

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"

	"github.com/ayusman/mudra/internal/artifact"
)

// Backend names a classifier implementation.
type Backend string

const (
	// BackendCentroid is the nearest-centroid baseline trained by `mudra train`.
	BackendCentroid Backend = "centroid"
	// BackendONNX runs a model.onnx through ONNX Runtime.
	BackendONNX Backend = "onnx"
)

// ErrInputSize is returned when a feature vector does not match the
// classifier's input length.
var ErrInputSize = errors.New("feature vector has wrong length")

// Classifier turns a standardized feature vector into a probability vector of
// length NumClasses.
type Classifier interface {
	Predict(features []float32) ([]float32, error)
	InputSize() int
	NumClasses() int
	Close() error
}

// Config selects and configures the classifier backend.
type Config struct {
	Backend     Backend `yaml:"backend" env:"BACKEND"`
	LibraryPath string  `yaml:"onnx_library" env:"ONNX_LIBRARY"`
	InputName   string  `yaml:"onnx_input" env:"ONNX_INPUT"`
	OutputName  string  `yaml:"onnx_output" env:"ONNX_OUTPUT"`
}

// DefaultConfig returns the centroid backend with conventional ONNX tensor names.
func DefaultConfig() Config {
	return Config{
		Backend:    BackendCentroid,
		InputName:  "input",
		OutputName: "output",
	}
}

// Load opens the classifier artifact in dir for the configured backend.
// inputSize and numClasses come from the scaler and label map and must match
// the artifact.
func Load(dir string, cfg Config, inputSize, numClasses int) (Classifier, error) {
	switch cfg.Backend {
	case BackendCentroid, "":
		m, err := LoadCentroids(filepath.Join(dir, artifact.CentroidsFile))
		if err != nil {
			return nil, err
		}
		if m.InputSize() != inputSize || m.NumClasses() != numClasses {
			return nil, fmt.Errorf("%w: centroids are %d classes x %d features, want %d x %d",
				artifact.ErrInvalidArtifact, m.NumClasses(), m.InputSize(), numClasses, inputSize)
		}
		return m, nil
	case BackendONNX:
		return NewONNX(ONNXOptions{
			ModelPath:   filepath.Join(dir, artifact.ONNXFile),
			LibraryPath: cfg.LibraryPath,
			InputName:   cfg.InputName,
			OutputName:  cfg.OutputName,
			InputSize:   inputSize,
			NumClasses:  numClasses,
		})
	default:
		return nil, fmt.Errorf("unknown classifier backend %q", cfg.Backend)
	}
}

// Argmax returns the index and value of the largest probability, or -1 for an
// empty vector.
func Argmax(probs []float32) (int, float32) {
	best := -1
	var bestVal float32
	for i, p := range probs {
		if best < 0 || p > bestVal {
			best = i
			bestVal = p
		}
	}
	return best, bestVal
}

// Softmax converts logits into probabilities in place and returns them.
func Softmax(logits []float32) []float32 {
	if len(logits) == 0 {
		return logits
	}
	_, maxVal := Argmax(logits)
	var sum float64
	for i, v := range logits {
		e := math.Exp(float64(v - maxVal))
		logits[i] = float32(e)
		sum += e
	}
	for i := range logits {
		logits[i] = float32(float64(logits[i]) / sum)
	}
	return logits
}

// isDistribution reports whether probs is non-negative and sums to 1.
func isDistribution(probs []float32) bool {
	var sum float64
	for _, p := range probs {
		if p < 0 || math.IsNaN(float64(p)) {
			return false
		}
		sum += float64(p)
	}
	return math.Abs(sum-1) < 1e-3
}
