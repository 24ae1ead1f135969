package classifier

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/ayusman/mudra/internal/artifact"
)

// Centroids is a nearest-centroid classifier. Each class is represented by
// the mean of its standardized training vectors and scored by 1/(1+d), where d
// is the Euclidean distance to the input. Scores are normalized to sum to 1.
type Centroids struct {
	Means [][]float64 `json:"centroids"`
}

// TrainCentroids averages rows per class. labels[i] is the class index of
// rows[i]; every class in [0, numClasses) needs at least one row.
func TrainCentroids(rows [][]float32, labels []int, numClasses int) (*Centroids, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("no training rows")
	}
	if len(rows) != len(labels) {
		return nil, fmt.Errorf("%d rows but %d labels", len(rows), len(labels))
	}
	if numClasses <= 0 {
		return nil, fmt.Errorf("numClasses must be positive, got %d", numClasses)
	}

	width := len(rows[0])
	means := make([][]float64, numClasses)
	counts := make([]int, numClasses)
	for c := range means {
		means[c] = make([]float64, width)
	}

	for i, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("row %d has %d values, want %d", i, len(row), width)
		}
		c := labels[i]
		if c < 0 || c >= numClasses {
			return nil, fmt.Errorf("row %d has class %d outside [0, %d)", i, c, numClasses)
		}
		for j, v := range row {
			means[c][j] += float64(v)
		}
		counts[c]++
	}

	for c, n := range counts {
		if n == 0 {
			return nil, fmt.Errorf("class %d has no rows", c)
		}
		floats.Scale(1/float64(n), means[c])
	}

	return &Centroids{Means: means}, nil
}

// Validate checks the centroid matrix is non-empty and rectangular.
func (m *Centroids) Validate() error {
	if len(m.Means) == 0 || len(m.Means[0]) == 0 {
		return fmt.Errorf("%w: no centroids", artifact.ErrInvalidArtifact)
	}
	for i, c := range m.Means {
		if len(c) != len(m.Means[0]) {
			return fmt.Errorf("%w: centroid %d has %d values, want %d", artifact.ErrInvalidArtifact, i, len(c), len(m.Means[0]))
		}
		if floats.HasNaN(c) {
			return fmt.Errorf("%w: centroid %d contains NaN", artifact.ErrInvalidArtifact, i)
		}
	}
	return nil
}

func (m *Centroids) InputSize() int {
	if len(m.Means) == 0 {
		return 0
	}
	return len(m.Means[0])
}

func (m *Centroids) NumClasses() int { return len(m.Means) }

// Predict scores every class by 1/(1+d), d the Euclidean distance to its
// centroid, and normalizes the scores to sum to 1.
func (m *Centroids) Predict(features []float32) ([]float32, error) {
	if len(features) != m.InputSize() {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInputSize, len(features), m.InputSize())
	}

	in := make([]float64, len(features))
	for i, v := range features {
		in[i] = float64(v)
	}

	scores := make([]float64, len(m.Means))
	for c, mean := range m.Means {
		scores[c] = 1.0 / (1.0 + floats.Distance(in, mean, 2))
	}
	total := floats.Sum(scores)

	probs := make([]float32, len(scores))
	for c, s := range scores {
		probs[c] = float32(s / total)
	}
	return probs, nil
}

func (m *Centroids) Close() error { return nil }

// LoadCentroids reads and validates a centroids.json artifact.
func LoadCentroids(path string) (*Centroids, error) {
	var m Centroids
	if err := artifact.ReadJSON(path, &m); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &m, nil
}

// Save writes the centroids to path.
func (m *Centroids) Save(path string) error {
	if err := m.Validate(); err != nil {
		return err
	}
	return artifact.WriteJSON(path, m)
}
