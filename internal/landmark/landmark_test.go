package landmark

import (
	"errors"
	"math"
	"testing"
)

const epsilon = 1e-5

func approx(a, b float32) bool {
	return math.Abs(float64(a-b)) <= epsilon
}

// offsetHand returns a hand with the wrist away from the origin so that
// normalization has real work to do.
func offsetHand() HandLandmarks {
	hand := HandLandmarks{
		Handedness: "Right",
		Score:      0.9,
	}
	hand.Points[Wrist] = Point3D{X: 0.4, Y: 0.7, Z: 0.05}
	for i := 1; i < NumLandmarks; i++ {
		hand.Points[i] = Point3D{
			X: 0.4 + float32(i)*0.01,
			Y: 0.7 - float32(i)*0.02,
			Z: 0.05 + float32(i)*0.003,
		}
	}
	return hand
}

func mustNormalize(t *testing.T, hand *HandLandmarks) *HandLandmarks {
	t.Helper()
	normalized, err := hand.Normalize()
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	return normalized
}

func TestHandLandmarks_Normalize(t *testing.T) {
	t.Run("wrist at origin after normalization", func(t *testing.T) {
		hand := offsetHand()
		normalized := mustNormalize(t, &hand)

		w := normalized.Points[Wrist]
		if w.X != 0 || w.Y != 0 || w.Z != 0 {
			t.Errorf("expected wrist at (0,0,0), got (%f, %f, %f)", w.X, w.Y, w.Z)
		}

		if normalized.Handedness != hand.Handedness {
			t.Errorf("expected handedness %s, got %s", hand.Handedness, normalized.Handedness)
		}
		if normalized.Score != hand.Score {
			t.Errorf("expected score %f, got %f", hand.Score, normalized.Score)
		}
	})

	t.Run("max planar distance is 1.0", func(t *testing.T) {
		hand := offsetHand()
		normalized := mustNormalize(t, &hand)

		var maxDist float64
		for i := 1; i < NumLandmarks; i++ {
			p := normalized.Points[i]
			d := math.Sqrt(float64(p.X*p.X + p.Y*p.Y))
			maxDist = math.Max(maxDist, d)
		}
		if math.Abs(maxDist-1.0) > epsilon {
			t.Errorf("expected max planar distance 1.0, got %f", maxDist)
		}
	})

	t.Run("z is centered but not scaled", func(t *testing.T) {
		hand := offsetHand()
		normalized := mustNormalize(t, &hand)

		for i := 0; i < NumLandmarks; i++ {
			want := hand.Points[i].Z - hand.Points[Wrist].Z
			if !approx(normalized.Points[i].Z, want) {
				t.Errorf("joint %d: expected z %f, got %f", i, want, normalized.Points[i].Z)
			}
		}
	})

	t.Run("idempotent on normalized input", func(t *testing.T) {
		hand := offsetHand()
		once := mustNormalize(t, &hand)
		twice := mustNormalize(t, once)

		for i := 0; i < NumLandmarks; i++ {
			a, b := once.Points[i], twice.Points[i]
			if !approx(a.X, b.X) || !approx(a.Y, b.Y) || !approx(a.Z, b.Z) {
				t.Errorf("joint %d changed: %+v -> %+v", i, a, b)
			}
		}
	})

	t.Run("degenerate hand stays finite", func(t *testing.T) {
		var hand HandLandmarks
		for i := range hand.Points {
			hand.Points[i] = Point3D{X: 0.3, Y: 0.3, Z: 0.1}
		}

		normalized := mustNormalize(t, &hand)
		if err := normalized.Validate(); err != nil {
			t.Errorf("expected finite output, got %v", err)
		}
	})

	t.Run("nil hand is rejected", func(t *testing.T) {
		var hand *HandLandmarks
		if _, err := hand.Normalize(); !errors.Is(err, ErrInvalidLandmarks) {
			t.Errorf("expected ErrInvalidLandmarks, got %v", err)
		}
	})

	t.Run("non-finite hand is rejected", func(t *testing.T) {
		for _, bad := range []float32{float32(math.NaN()), float32(math.Inf(-1))} {
			hand := offsetHand()
			hand.Points[IndexTip].Y = bad

			normalized, err := hand.Normalize()
			if !errors.Is(err, ErrInvalidLandmarks) {
				t.Errorf("%v: expected ErrInvalidLandmarks, got %v", bad, err)
			}
			if normalized != nil {
				t.Errorf("%v: expected no output, got %+v", bad, normalized)
			}
		}
	})
}

func TestFromFlat(t *testing.T) {
	t.Run("round trips with Flatten", func(t *testing.T) {
		hand := OpenPalm()
		flat := hand.Flatten()
		if len(flat) != FlatLen {
			t.Fatalf("expected %d values, got %d", FlatLen, len(flat))
		}

		back, err := FromFlat(flat)
		if err != nil {
			t.Fatalf("FromFlat() error = %v", err)
		}
		if back.Points != hand.Points {
			t.Error("points changed after Flatten/FromFlat")
		}
	})

	t.Run("rejects wrong length", func(t *testing.T) {
		_, err := FromFlat(make([]float32, 60))
		if !errors.Is(err, ErrInvalidLandmarks) {
			t.Errorf("expected ErrInvalidLandmarks, got %v", err)
		}
	})

	t.Run("rejects non-finite values", func(t *testing.T) {
		flat := OpenPalm().Flatten()
		flat[10] = float32(math.NaN())
		_, err := FromFlat(flat)
		if !errors.Is(err, ErrInvalidLandmarks) {
			t.Errorf("expected ErrInvalidLandmarks, got %v", err)
		}

		flat[10] = float32(math.Inf(1))
		_, err = FromFlat(flat)
		if !errors.Is(err, ErrInvalidLandmarks) {
			t.Errorf("expected ErrInvalidLandmarks for Inf, got %v", err)
		}
	})
}

func TestFromPoints(t *testing.T) {
	_, err := FromPoints(make([]Point3D, 20))
	if !errors.Is(err, ErrInvalidLandmarks) {
		t.Errorf("expected ErrInvalidLandmarks for short input, got %v", err)
	}

	hand := ThumbsUp()
	got, err := FromPoints(hand.Points[:])
	if err != nil {
		t.Fatalf("FromPoints() error = %v", err)
	}
	if got.Points != hand.Points {
		t.Error("points differ")
	}
}

func TestPresets(t *testing.T) {
	presets := map[string]HandLandmarks{
		"thumbs up": ThumbsUp(),
		"open palm": OpenPalm(),
		"victory":   Victory(),
	}

	for name, hand := range presets {
		t.Run(name+" is valid", func(t *testing.T) {
			if err := hand.Validate(); err != nil {
				t.Errorf("preset invalid: %v", err)
			}
		})
	}

	t.Run("thumbs up has thumb above MCP", func(t *testing.T) {
		hand := ThumbsUp()
		if hand.Points[ThumbTip].Y >= hand.Points[ThumbMCP].Y {
			t.Error("thumb tip should be above thumb MCP (lower Y value)")
		}
	})

	t.Run("victory has index and middle extended", func(t *testing.T) {
		hand := Victory()
		if hand.Points[IndexMCP].Y-hand.Points[IndexTip].Y < 0.2 {
			t.Error("index finger should be extended")
		}
		if hand.Points[MiddleMCP].Y-hand.Points[MiddleTip].Y < 0.2 {
			t.Error("middle finger should be extended")
		}
		if hand.Points[RingMCP].Y-hand.Points[RingTip].Y > 0.15 {
			t.Error("ring finger should be curled")
		}
	})
}
