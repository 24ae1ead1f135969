package gesture

import (
	"fmt"
	"path/filepath"

	"github.com/ayusman/mudra/internal/artifact"
	"github.com/ayusman/mudra/internal/classifier"
	"github.com/ayusman/mudra/internal/features"
	"github.com/ayusman/mudra/internal/landmark"
)

// Band groups confidences for display.
type Band string

const (
	BandHigh   Band = "high"
	BandMedium Band = "medium"
	BandLow    Band = "low"
)

// BandOf returns the display band of a confidence.
func BandOf(confidence float64) Band {
	switch {
	case confidence > 0.7:
		return BandHigh
	case confidence > 0.5:
		return BandMedium
	default:
		return BandLow
	}
}

// Result is the recognized sign for one frame.
type Result struct {
	Label      string  `json:"label"`
	Index      int     `json:"index"`
	Confidence float64 `json:"confidence"`
	Stable     bool    `json:"stable"`
	Band       Band    `json:"band"`
}

// Model bundles the read-only artifacts shared by every session: the feature
// family, scaler, classifier and label map.
type Model struct {
	Family     features.Family
	Scaler     *artifact.ScalerParams
	Classifier classifier.Classifier
	Labels     *artifact.LabelMap
}

// NewModel checks that the artifacts agree with each other and with the
// feature family.
func NewModel(family features.Family, scaler *artifact.ScalerParams, clf classifier.Classifier, labels *artifact.LabelMap) (*Model, error) {
	if !family.Valid() {
		return nil, fmt.Errorf("unknown feature family %q", family)
	}
	if scaler == nil || clf == nil || labels == nil {
		return nil, fmt.Errorf("%w: model is missing scaler, classifier or label map", artifact.ErrInvalidArtifact)
	}

	n := family.Len()
	if scaler.Len() != n {
		return nil, fmt.Errorf("%w: scaler has %d features, family %s has %d", artifact.ErrInvalidArtifact, scaler.Len(), family, n)
	}
	if clf.InputSize() != n {
		return nil, fmt.Errorf("%w: classifier expects %d features, family %s has %d", artifact.ErrInvalidArtifact, clf.InputSize(), family, n)
	}
	if clf.NumClasses() != labels.Len() {
		return nil, fmt.Errorf("%w: classifier has %d classes, label map has %d", artifact.ErrInvalidArtifact, clf.NumClasses(), labels.Len())
	}

	return &Model{
		Family:     family,
		Scaler:     scaler,
		Classifier: clf,
		Labels:     labels,
	}, nil
}

// LoadModel reads scaler_params.json, label_map.json and the classifier
// artifact from dir. Any missing or inconsistent file fails the load.
func LoadModel(dir string, family features.Family, cfg classifier.Config) (*Model, error) {
	scaler, err := artifact.LoadScaler(filepath.Join(dir, artifact.ScalerFile))
	if err != nil {
		return nil, err
	}
	labels, err := artifact.LoadLabelMap(filepath.Join(dir, artifact.LabelMapFile))
	if err != nil {
		return nil, err
	}
	clf, err := classifier.Load(dir, cfg, scaler.Len(), labels.Len())
	if err != nil {
		return nil, err
	}

	m, err := NewModel(family, scaler, clf, labels)
	if err != nil {
		clf.Close()
		return nil, err
	}
	return m, nil
}

// Close releases the classifier.
func (m *Model) Close() error {
	return m.Classifier.Close()
}

// Recognizer runs the per-frame chain for one session: extract, standardize,
// classify, stabilize and resolve the label.
type Recognizer struct {
	model      *Model
	stabilizer *Stabilizer
}

// NewRecognizer creates a session over a shared model with its own Stabilizer.
func NewRecognizer(m *Model) *Recognizer {
	return &Recognizer{
		model:      m,
		stabilizer: NewStabilizer(),
	}
}

// Recognize classifies one hand and returns the stabilized result.
func (r *Recognizer) Recognize(hand *landmark.HandLandmarks) (Result, error) {
	vec, err := features.Extract(r.model.Family, hand)
	if err != nil {
		return Result{}, err
	}

	scaled, err := r.model.Scaler.Transform(vec)
	if err != nil {
		return Result{}, err
	}

	probs, err := r.model.Classifier.Predict(scaled)
	if err != nil {
		return Result{}, fmt.Errorf("classify: %w", err)
	}

	idx, conf := classifier.Argmax(probs)
	p := r.stabilizer.Observe(idx, float64(conf))

	return Result{
		Label:      r.model.Labels.Label(p.Label),
		Index:      p.Label,
		Confidence: p.Confidence,
		Stable:     r.stabilizer.Stable(),
		Band:       BandOf(p.Confidence),
	}, nil
}

// Reset clears the session's stabilizer, e.g. when the hand leaves the frame.
func (r *Recognizer) Reset() {
	r.stabilizer.Reset()
}
