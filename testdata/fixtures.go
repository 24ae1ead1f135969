// Package testdata holds recorded landmark sets shared by integration tests.
package testdata

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/ayusman/mudra/internal/landmark"
)

//go:embed landmarks/*.json
var landmarksFS embed.FS

// Signs are the fixture names that hold one clean sample of an ASL letter.
var Signs = []string{"A", "B", "V"}

// LoadHand loads a landmark fixture by name, e.g. "A" or "A_shifted".
func LoadHand(name string) (landmark.HandLandmarks, error) {
	data, err := landmarksFS.ReadFile("landmarks/" + name + ".json")
	if err != nil {
		return landmark.HandLandmarks{}, fmt.Errorf("load landmarks %s: %w", name, err)
	}

	var hand landmark.HandLandmarks
	if err := json.Unmarshal(data, &hand); err != nil {
		return landmark.HandLandmarks{}, fmt.Errorf("decode landmarks %s: %w", name, err)
	}
	if err := hand.Validate(); err != nil {
		return landmark.HandLandmarks{}, fmt.Errorf("landmarks %s: %w", name, err)
	}
	return hand, nil
}

// Names lists every fixture in sorted order.
func Names() ([]string, error) {
	entries, err := fs.ReadDir(landmarksFS, "landmarks")
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

// Samples returns the flat 63-value form of every sign fixture keyed by label.
func Samples() (map[string][]float32, error) {
	out := make(map[string][]float32, len(Signs))
	for _, name := range Signs {
		hand, err := LoadHand(name)
		if err != nil {
			return nil, err
		}
		out[name] = hand.Flatten()
	}
	return out, nil
}
