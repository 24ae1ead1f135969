// Package landmark holds the 21-joint hand model shared by detection, feature
// extraction and dataset tooling. It has no camera or OpenCV dependency.
package landmark

import (
	"errors"
	"fmt"
	"math"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21

	// FlatLen is the length of a landmark set flattened as x0,y0,z0,x1,...
	FlatLen = NumLandmarks * 3
)

// Epsilon is added to every normalization denominator.
const Epsilon = 1e-6

// ErrInvalidLandmarks is returned for landmark input that cannot be processed:
// a joint count other than 21 or a non-finite coordinate.
var ErrInvalidLandmarks = errors.New("invalid landmark input")

// Point3D represents a 3D point with x, y, z coordinates.
// X and Y are frame-relative in [0,1]; Z is a relative depth with no fixed unit.
type Point3D struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// FromFlat builds a HandLandmarks from 63 values laid out as x0,y0,z0,x1,...
func FromFlat(flat []float32) (HandLandmarks, error) {
	var h HandLandmarks
	if len(flat) != FlatLen {
		return h, fmt.Errorf("%w: got %d values, want %d", ErrInvalidLandmarks, len(flat), FlatLen)
	}
	for i := 0; i < NumLandmarks; i++ {
		h.Points[i] = Point3D{X: flat[i*3], Y: flat[i*3+1], Z: flat[i*3+2]}
	}
	if err := h.Validate(); err != nil {
		return HandLandmarks{}, err
	}
	return h, nil
}

// FromPoints builds a HandLandmarks from a slice of points. The slice must hold
// exactly NumLandmarks finite points.
func FromPoints(points []Point3D) (HandLandmarks, error) {
	var h HandLandmarks
	if len(points) != NumLandmarks {
		return h, fmt.Errorf("%w: got %d joints, want %d", ErrInvalidLandmarks, len(points), NumLandmarks)
	}
	copy(h.Points[:], points)
	if err := h.Validate(); err != nil {
		return HandLandmarks{}, err
	}
	return h, nil
}

// Validate reports ErrInvalidLandmarks if any coordinate is NaN or infinite.
func (h *HandLandmarks) Validate() error {
	if h == nil {
		return fmt.Errorf("%w: nil hand", ErrInvalidLandmarks)
	}
	for i, p := range h.Points {
		if !finite(p.X) || !finite(p.Y) || !finite(p.Z) {
			return fmt.Errorf("%w: joint %d is not finite", ErrInvalidLandmarks, i)
		}
	}
	return nil
}

// Flatten returns the landmarks as 63 values laid out as x0,y0,z0,x1,...
func (h HandLandmarks) Flatten() []float32 {
	flat := make([]float32, 0, FlatLen)
	for _, p := range h.Points {
		flat = append(flat, p.X, p.Y, p.Z)
	}
	return flat
}

// PlanarScale returns the maximum x,y distance from the wrist to any other
// landmark, plus Epsilon. It is never zero.
func (h *HandLandmarks) PlanarScale() float64 {
	wrist := h.Points[Wrist]
	var maxDist float64
	for i := 1; i < NumLandmarks; i++ {
		dx := float64(h.Points[i].X - wrist.X)
		dy := float64(h.Points[i].Y - wrist.Y)
		if d := math.Sqrt(dx*dx + dy*dy); d > maxDist {
			maxDist = d
		}
	}
	return maxDist + Epsilon
}

// Normalize returns a copy of the hand relative to the wrist and hand size.
// The wrist becomes the origin and x,y are divided by PlanarScale. Z is
// translated but never scaled; classifiers trained on this encoding depend on
// that asymmetry. A nil or non-finite hand returns ErrInvalidLandmarks.
func (h *HandLandmarks) Normalize() (*HandLandmarks, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}

	normalized := &HandLandmarks{
		Handedness: h.Handedness,
		Score:      h.Score,
	}

	wrist := h.Points[Wrist]
	scale := h.PlanarScale()

	for i := 0; i < NumLandmarks; i++ {
		normalized.Points[i] = Point3D{
			X: float32(float64(h.Points[i].X-wrist.X) / scale),
			Y: float32(float64(h.Points[i].Y-wrist.Y) / scale),
			Z: h.Points[i].Z - wrist.Z,
		}
	}

	return normalized, nil
}

func finite(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
