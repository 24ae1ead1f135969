// Package gesture turns per-frame hand landmarks into stable sign predictions.
package gesture

const (
	// HistorySize is the number of recent predictions a Stabilizer keeps.
	HistorySize = 5
	// MinAgreement is the number of matching predictions needed to override
	// the current frame's prediction.
	MinAgreement = 3
)

// Prediction is one classifier decision: a class index and its confidence.
type Prediction struct {
	Label      int     `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Stabilizer smooths a stream of per-frame predictions with a majority vote
// over the last HistorySize frames. A Stabilizer belongs to a single session
// and is not safe for concurrent use.
type Stabilizer struct {
	history []Prediction
	stable  bool
}

// NewStabilizer returns an empty Stabilizer.
func NewStabilizer() *Stabilizer {
	return &Stabilizer{history: make([]Prediction, 0, HistorySize)}
}

// Observe records a prediction and returns the stabilized one.
//
// Until MinAgreement entries are held the input is returned as-is. After that,
// the label with the highest count in the window wins when it reaches
// MinAgreement, and its confidence is the mean over the window entries with
// that label. Otherwise the input is returned.
func (s *Stabilizer) Observe(label int, confidence float64) Prediction {
	in := Prediction{Label: label, Confidence: confidence}

	if len(s.history) == HistorySize {
		copy(s.history, s.history[1:])
		s.history = s.history[:HistorySize-1]
	}
	s.history = append(s.history, in)

	s.stable = false
	if len(s.history) < MinAgreement {
		return in
	}

	winner, count := s.mostCommon()
	if count < MinAgreement {
		return in
	}

	var sum float64
	for _, p := range s.history {
		if p.Label == winner {
			sum += p.Confidence
		}
	}
	s.stable = true
	return Prediction{Label: winner, Confidence: sum / float64(count)}
}

// mostCommon returns the label with the highest count. Ties go to the label
// seen first in the window.
func (s *Stabilizer) mostCommon() (int, int) {
	labels := make([]int, 0, HistorySize)
	counts := make([]int, 0, HistorySize)

	for _, p := range s.history {
		found := false
		for i, l := range labels {
			if l == p.Label {
				counts[i]++
				found = true
				break
			}
		}
		if !found {
			labels = append(labels, p.Label)
			counts = append(counts, 1)
		}
	}

	best := 0
	for i := 1; i < len(counts); i++ {
		if counts[i] > counts[best] {
			best = i
		}
	}
	return labels[best], counts[best]
}

// Stable reports whether the last Observe returned a majority decision.
func (s *Stabilizer) Stable() bool {
	return s.stable
}

// Len returns the number of predictions in the window.
func (s *Stabilizer) Len() int {
	return len(s.history)
}

// Reset clears the window.
func (s *Stabilizer) Reset() {
	s.history = s.history[:0]
	s.stable = false
}
