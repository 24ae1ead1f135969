// Package features turns validated hand landmarks into fixed-length feature
// vectors consumed by sign classifiers.
//
// Four families exist. Raw keeps every coordinate after wrist-centering and
// planar scaling. Angular and Distance each re-normalize the hand in the x,y
// plane on their own and describe finger flexion and spread. Combined is the
// concatenation raw ++ angular ++ distance and is what the live classifier
// consumes.
package features

import (
	"fmt"

	"github.com/ayusman/mudra/internal/landmark"
)

// Vector lengths per family. They never vary with the input.
const (
	RawLen      = landmark.FlatLen
	AngularLen  = 25
	DistanceLen = 25
	CombinedLen = RawLen + AngularLen + DistanceLen
)

// Family names one feature encoding.
type Family string

const (
	FamilyRaw      Family = "raw"
	FamilyAngular  Family = "angles"
	FamilyDistance Family = "distances"
	FamilyCombined Family = "combined"
)

// Families lists every family in export order.
var Families = []Family{FamilyRaw, FamilyAngular, FamilyDistance, FamilyCombined}

// Len returns the vector length of the family, or 0 for an unknown family.
func (f Family) Len() int {
	switch f {
	case FamilyRaw:
		return RawLen
	case FamilyAngular:
		return AngularLen
	case FamilyDistance:
		return DistanceLen
	case FamilyCombined:
		return CombinedLen
	}
	return 0
}

// Valid reports whether f is a known family.
func (f Family) Valid() bool {
	return f.Len() > 0
}

// ParseFamily converts a name to a Family.
func ParseFamily(name string) (Family, error) {
	f := Family(name)
	if !f.Valid() {
		return "", fmt.Errorf("unknown feature family %q", name)
	}
	return f, nil
}

// Extract computes the vector of the given family.
func Extract(f Family, hand *landmark.HandLandmarks) ([]float32, error) {
	switch f {
	case FamilyRaw:
		return Raw(hand)
	case FamilyAngular:
		return Angular(hand)
	case FamilyDistance:
		return Distance(hand)
	case FamilyCombined:
		return Combined(hand)
	}
	return nil, fmt.Errorf("unknown feature family %q", f)
}

// Set holds every family computed from one hand.
type Set struct {
	Raw      []float32 `json:"raw"`
	Angular  []float32 `json:"angles"`
	Distance []float32 `json:"distances"`
	Combined []float32 `json:"combined"`
}

// Get returns the vector of family f.
func (s *Set) Get(f Family) []float32 {
	switch f {
	case FamilyRaw:
		return s.Raw
	case FamilyAngular:
		return s.Angular
	case FamilyDistance:
		return s.Distance
	case FamilyCombined:
		return s.Combined
	}
	return nil
}

// ExtractAll computes all four families, validating the hand once.
func ExtractAll(hand *landmark.HandLandmarks) (*Set, error) {
	r, err := Raw(hand)
	if err != nil {
		return nil, err
	}

	s := &Set{
		Raw:      r,
		Angular:  angular(hand),
		Distance: distance(hand),
	}
	s.Combined = concat(s.Raw, s.Angular, s.Distance)
	return s, nil
}
