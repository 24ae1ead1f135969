// Package augment produces synthetic landmark variants for training-time
// data expansion.
package augment

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/ayusman/mudra/internal/landmark"
)

// Default perturbation ranges.
const (
	MaxRotationDeg  = 15.0
	MinScale        = 0.85
	MaxScale        = 1.15
	MaxTranslation  = 0.1
	MirrorProb      = 0.3
	NoiseStdDev     = 0.02
	DefaultVariants = 3
)

var (
	// ErrInvalidInput is returned for landmark vectors that cannot be augmented.
	ErrInvalidInput = errors.New("invalid augmentation input")

	// ErrNonFinite is returned when a generated variant contains NaN or Inf.
	ErrNonFinite = errors.New("augmentation produced non-finite values")
)

// Options controls the perturbation ranges. The zero value is not useful;
// start from DefaultOptions.
type Options struct {
	MaxRotationDeg float64
	MinScale       float64
	MaxScale       float64
	MaxTranslation float64
	MirrorProb     float64
	NoiseStdDev    float64
}

// DefaultOptions returns the ranges used to build training sets.
func DefaultOptions() Options {
	return Options{
		MaxRotationDeg: MaxRotationDeg,
		MinScale:       MinScale,
		MaxScale:       MaxScale,
		MaxTranslation: MaxTranslation,
		MirrorProb:     MirrorProb,
		NoiseStdDev:    NoiseStdDev,
	}
}

// Generator creates augmented variants from a single landmark vector.
// A Generator is not safe for concurrent use because the random source is not.
type Generator struct {
	rng  *rand.Rand
	opts Options
}

// NewGenerator returns a Generator drawing from rng with default options.
func NewGenerator(rng *rand.Rand) *Generator {
	return NewGeneratorWithOptions(rng, DefaultOptions())
}

// NewGeneratorWithOptions returns a Generator with custom ranges.
func NewGeneratorWithOptions(rng *rand.Rand, opts Options) *Generator {
	return &Generator{rng: rng, opts: opts}
}

// NewSeeded returns a Generator whose output is fully determined by seed.
func NewSeeded(seed uint64) *Generator {
	return NewGenerator(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

// Augment returns n+1 variants of the flattened landmark vector: a copy of the
// original followed by n synthetic variants. Each synthetic variant is, in
// order, rotated about the origin, scaled in x,y, translated in x,y, mirrored
// horizontally with probability MirrorProb, and perturbed with Gaussian noise
// on all 63 values.
func (g *Generator) Augment(flat []float32, n int) ([][]float32, error) {
	if len(flat) != landmark.FlatLen {
		return nil, fmt.Errorf("%w: got %d values, want %d", ErrInvalidInput, len(flat), landmark.FlatLen)
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: negative variant count %d", ErrInvalidInput, n)
	}
	for i, v := range flat {
		if !isFinite(v) {
			return nil, fmt.Errorf("%w: value %d is not finite", ErrInvalidInput, i)
		}
	}

	out := make([][]float32, 0, n+1)
	out = append(out, append([]float32(nil), flat...))

	for k := 0; k < n; k++ {
		v := g.variant(flat)
		for i, x := range v {
			if !isFinite(x) {
				return nil, fmt.Errorf("%w: variant %d value %d", ErrNonFinite, k+1, i)
			}
		}
		out = append(out, v)
	}

	return out, nil
}

func (g *Generator) variant(flat []float32) []float32 {
	o := g.opts
	pts := make([]float64, len(flat))
	for i, v := range flat {
		pts[i] = float64(v)
	}

	angle := g.uniform(-o.MaxRotationDeg, o.MaxRotationDeg) * math.Pi / 180
	cosA, sinA := math.Cos(angle), math.Sin(angle)
	for i := 0; i < landmark.NumLandmarks; i++ {
		x, y := pts[i*3], pts[i*3+1]
		pts[i*3] = x*cosA - y*sinA
		pts[i*3+1] = x*sinA + y*cosA
	}

	scale := g.uniform(o.MinScale, o.MaxScale)
	for i := 0; i < landmark.NumLandmarks; i++ {
		pts[i*3] *= scale
		pts[i*3+1] *= scale
	}

	dx := g.uniform(-o.MaxTranslation, o.MaxTranslation)
	dy := g.uniform(-o.MaxTranslation, o.MaxTranslation)
	for i := 0; i < landmark.NumLandmarks; i++ {
		pts[i*3] += dx
		pts[i*3+1] += dy
	}

	if g.rng.Float64() < o.MirrorProb {
		for i := 0; i < landmark.NumLandmarks; i++ {
			pts[i*3] = -pts[i*3]
		}
	}

	out := make([]float32, len(pts))
	for i, v := range pts {
		out[i] = float32(v + g.rng.NormFloat64()*o.NoiseStdDev)
	}
	return out
}

func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

func isFinite(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
