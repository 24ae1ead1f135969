package features

import (
	"github.com/ayusman/mudra/internal/landmark"
)

// fingerChains lists each finger from the wrist to its tip: thumb, index,
// middle, ring, pinky.
var fingerChains = [5][5]int{
	{landmark.Wrist, landmark.ThumbCMC, landmark.ThumbMCP, landmark.ThumbIP, landmark.ThumbTip},
	{landmark.Wrist, landmark.IndexMCP, landmark.IndexPIP, landmark.IndexDIP, landmark.IndexTip},
	{landmark.Wrist, landmark.MiddleMCP, landmark.MiddlePIP, landmark.MiddleDIP, landmark.MiddleTip},
	{landmark.Wrist, landmark.RingMCP, landmark.RingPIP, landmark.RingDIP, landmark.RingTip},
	{landmark.Wrist, landmark.PinkyMCP, landmark.PinkyPIP, landmark.PinkyDIP, landmark.PinkyTip},
}

var (
	fingerBases = [5]int{landmark.ThumbCMC, landmark.IndexMCP, landmark.MiddleMCP, landmark.RingMCP, landmark.PinkyMCP}
	fingerTips  = [5]int{landmark.ThumbTip, landmark.IndexTip, landmark.MiddleTip, landmark.RingTip, landmark.PinkyTip}

	// keyPoints is the wrist followed by the five fingertips.
	keyPoints = [6]int{landmark.Wrist, landmark.ThumbTip, landmark.IndexTip, landmark.MiddleTip, landmark.RingTip, landmark.PinkyTip}
)

// Raw returns the 63 normalized coordinates of the hand: wrist-centered, x,y
// divided by the planar scale, z only centered.
func Raw(hand *landmark.HandLandmarks) ([]float32, error) {
	normalized, err := hand.Normalize()
	if err != nil {
		return nil, err
	}
	return normalized.Flatten(), nil
}

// Angular returns 15 joint angles (three per finger, in [0,1]) followed by the
// 10 pairwise fingertip distances. Both are computed in the plane after the
// hand is normalized, so the vector is invariant to rotation and scale.
func Angular(hand *landmark.HandLandmarks) ([]float32, error) {
	if err := hand.Validate(); err != nil {
		return nil, err
	}
	return angular(hand), nil
}

func angular(hand *landmark.HandLandmarks) []float32 {
	pts := planar(hand)
	out := make([]float32, 0, AngularLen)

	for _, chain := range fingerChains {
		for i := 0; i+2 < len(chain); i++ {
			out = append(out, float32(jointAngle(pts[chain[i]], pts[chain[i+1]], pts[chain[i+2]])))
		}
	}

	for i := 0; i < len(fingerTips); i++ {
		for j := i + 1; j < len(fingerTips); j++ {
			out = append(out, float32(dist(pts[fingerTips[i]], pts[fingerTips[j]])))
		}
	}

	return out
}

// Distance returns the 15 pairwise distances between the wrist and fingertips,
// the 5 base-to-tip finger lengths and the 5 normalized fingertip heights.
func Distance(hand *landmark.HandLandmarks) ([]float32, error) {
	if err := hand.Validate(); err != nil {
		return nil, err
	}
	return distance(hand), nil
}

func distance(hand *landmark.HandLandmarks) []float32 {
	pts := planar(hand)
	out := make([]float32, 0, DistanceLen)

	for i := 0; i < len(keyPoints); i++ {
		for j := i + 1; j < len(keyPoints); j++ {
			out = append(out, float32(dist(pts[keyPoints[i]], pts[keyPoints[j]])))
		}
	}

	for f := range fingerTips {
		out = append(out, float32(dist(pts[fingerTips[f]], pts[fingerBases[f]])))
	}

	// Vertical extension of each fingertip
	for _, tip := range fingerTips {
		out = append(out, float32(pts[tip].y))
	}

	return out
}

// Combined returns raw ++ angular ++ distance (113 values).
func Combined(hand *landmark.HandLandmarks) ([]float32, error) {
	r, err := Raw(hand)
	if err != nil {
		return nil, err
	}
	return concat(r, angular(hand), distance(hand)), nil
}
