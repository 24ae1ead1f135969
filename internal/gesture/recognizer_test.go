package gesture

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/ayusman/mudra/internal/artifact"
	"github.com/ayusman/mudra/internal/classifier"
	"github.com/ayusman/mudra/internal/features"
	"github.com/ayusman/mudra/internal/landmark"
)

// testModel builds a centroid model whose classes are the mock presets in
// label order: open_palm, thumbs_up, victory.
func testModel(t *testing.T) *Model {
	t.Helper()

	presets := []landmark.HandLandmarks{
		landmark.OpenPalm(),
		landmark.ThumbsUp(),
		landmark.Victory(),
	}

	means := make([][]float64, len(presets))
	for i := range presets {
		vec, err := features.Combined(&presets[i])
		if err != nil {
			t.Fatalf("Combined() error = %v", err)
		}
		means[i] = make([]float64, len(vec))
		for j, v := range vec {
			means[i][j] = float64(v)
		}
	}

	scaler := &artifact.ScalerParams{
		Mean:  make([]float64, features.CombinedLen),
		Scale: make([]float64, features.CombinedLen),
	}
	for i := range scaler.Scale {
		scaler.Scale[i] = 1
	}

	labels, err := artifact.NewLabelMap([]string{"open_palm", "thumbs_up", "victory"})
	if err != nil {
		t.Fatalf("NewLabelMap() error = %v", err)
	}

	m, err := NewModel(features.FamilyCombined, scaler, &classifier.Centroids{Means: means}, labels)
	if err != nil {
		t.Fatalf("NewModel() error = %v", err)
	}
	return m
}

func TestRecognizer_Recognize(t *testing.T) {
	r := NewRecognizer(testModel(t))
	hand := landmark.ThumbsUp()

	for i := 1; i <= 3; i++ {
		res, err := r.Recognize(&hand)
		if err != nil {
			t.Fatalf("Recognize() error = %v", err)
		}
		if res.Label != "thumbs_up" || res.Index != 1 {
			t.Errorf("frame %d: got %q (%d), want thumbs_up", i, res.Label, res.Index)
		}
		if wantStable := i >= MinAgreement; res.Stable != wantStable {
			t.Errorf("frame %d: Stable = %v, want %v", i, res.Stable, wantStable)
		}
		if res.Confidence <= 0 || res.Confidence > 1 {
			t.Errorf("frame %d: confidence %f outside (0, 1]", i, res.Confidence)
		}
		if res.Band != BandOf(res.Confidence) {
			t.Errorf("frame %d: band %q does not match confidence %f", i, res.Band, res.Confidence)
		}
	}

	r.Reset()
	palm := landmark.OpenPalm()
	res, err := r.Recognize(&palm)
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if res.Label != "open_palm" || res.Stable {
		t.Errorf("after reset: got %+v, want unstable open_palm", res)
	}
}

func TestRecognizer_InvalidHand(t *testing.T) {
	r := NewRecognizer(testModel(t))

	if _, err := r.Recognize(nil); !errors.Is(err, landmark.ErrInvalidLandmarks) {
		t.Errorf("expected ErrInvalidLandmarks, got %v", err)
	}
}

func TestNewModel_Mismatch(t *testing.T) {
	base := testModel(t)

	t.Run("family length", func(t *testing.T) {
		_, err := NewModel(features.FamilyAngular, base.Scaler, base.Classifier, base.Labels)
		if !errors.Is(err, artifact.ErrInvalidArtifact) {
			t.Errorf("expected ErrInvalidArtifact, got %v", err)
		}
	})

	t.Run("class count", func(t *testing.T) {
		labels, _ := artifact.NewLabelMap([]string{"a", "b"})
		_, err := NewModel(features.FamilyCombined, base.Scaler, base.Classifier, labels)
		if !errors.Is(err, artifact.ErrInvalidArtifact) {
			t.Errorf("expected ErrInvalidArtifact, got %v", err)
		}
	})

	t.Run("unknown family", func(t *testing.T) {
		if _, err := NewModel("pixels", base.Scaler, base.Classifier, base.Labels); err == nil {
			t.Error("expected error for unknown family")
		}
	})
}

func TestLoadModel(t *testing.T) {
	m := testModel(t)
	dir := t.TempDir()

	if err := m.Scaler.Save(filepath.Join(dir, artifact.ScalerFile)); err != nil {
		t.Fatalf("save scaler: %v", err)
	}
	if err := m.Labels.Save(filepath.Join(dir, artifact.LabelMapFile)); err != nil {
		t.Fatalf("save labels: %v", err)
	}

	t.Run("missing classifier fails", func(t *testing.T) {
		_, err := LoadModel(dir, features.FamilyCombined, classifier.DefaultConfig())
		if !errors.Is(err, artifact.ErrInvalidArtifact) {
			t.Errorf("expected ErrInvalidArtifact, got %v", err)
		}
	})

	if err := m.Classifier.(*classifier.Centroids).Save(filepath.Join(dir, artifact.CentroidsFile)); err != nil {
		t.Fatalf("save centroids: %v", err)
	}

	loaded, err := LoadModel(dir, features.FamilyCombined, classifier.DefaultConfig())
	if err != nil {
		t.Fatalf("LoadModel() error = %v", err)
	}
	defer loaded.Close()

	hand := landmark.Victory()
	res, err := NewRecognizer(loaded).Recognize(&hand)
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if res.Label != "victory" {
		t.Errorf("got %q, want victory", res.Label)
	}
}

func TestBandOf(t *testing.T) {
	tests := []struct {
		conf float64
		want Band
	}{
		{0.95, BandHigh},
		{0.71, BandHigh},
		{0.7, BandMedium},
		{0.51, BandMedium},
		{0.5, BandLow},
		{0, BandLow},
	}
	for _, tt := range tests {
		if got := BandOf(tt.conf); got != tt.want {
			t.Errorf("BandOf(%f) = %q, want %q", tt.conf, got, tt.want)
		}
	}
}
