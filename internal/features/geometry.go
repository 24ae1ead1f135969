package features

import (
	"math"

	"github.com/ayusman/mudra/internal/landmark"
)

// point2 is a landmark projected onto the image plane.
type point2 struct {
	x, y float64
}

func (p point2) sub(q point2) point2 {
	return point2{p.x - q.x, p.y - q.y}
}

func (p point2) norm() float64 {
	return math.Sqrt(p.x*p.x + p.y*p.y)
}

func dist(a, b point2) float64 {
	return a.sub(b).norm()
}

// planar drops z, centers on the wrist and divides by the hand's planar scale.
func planar(hand *landmark.HandLandmarks) [landmark.NumLandmarks]point2 {
	var out [landmark.NumLandmarks]point2

	wrist := hand.Points[landmark.Wrist]
	scale := hand.PlanarScale()
	for i, p := range hand.Points {
		out[i] = point2{
			x: float64(p.X-wrist.X) / scale,
			y: float64(p.Y-wrist.Y) / scale,
		}
	}
	return out
}

// jointAngle returns the angle at vertex b formed by a-b-c, divided by pi.
func jointAngle(a, b, c point2) float64 {
	v1 := a.sub(b)
	v2 := c.sub(b)
	cos := (v1.x*v2.x + v1.y*v2.y) / (v1.norm()*v2.norm() + landmark.Epsilon)
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) / math.Pi
}

func concat(parts ...[]float32) []float32 {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]float32, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
