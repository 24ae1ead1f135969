package artifact

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// minScale replaces a zero standard deviation so constant columns pass through.
const minScale = 1e-12

// ScalerParams standardizes feature vectors as (v - Mean[i]) / Scale[i].
type ScalerParams struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// Len returns the feature length the scaler was fitted on.
func (s *ScalerParams) Len() int {
	return len(s.Mean)
}

// Validate checks that Mean and Scale are non-empty, of equal length, finite,
// and that no Scale entry is zero.
func (s *ScalerParams) Validate() error {
	if len(s.Mean) == 0 {
		return fmt.Errorf("%w: scaler has no mean values", ErrInvalidArtifact)
	}
	if len(s.Mean) != len(s.Scale) {
		return fmt.Errorf("%w: scaler mean has %d values, scale has %d", ErrInvalidArtifact, len(s.Mean), len(s.Scale))
	}
	for i := range s.Mean {
		if math.IsNaN(s.Mean[i]) || math.IsInf(s.Mean[i], 0) {
			return fmt.Errorf("%w: scaler mean[%d] is not finite", ErrInvalidArtifact, i)
		}
		if s.Scale[i] == 0 || math.IsNaN(s.Scale[i]) || math.IsInf(s.Scale[i], 0) {
			return fmt.Errorf("%w: scaler scale[%d] = %v", ErrInvalidArtifact, i, s.Scale[i])
		}
	}
	return nil
}

// Transform returns the standardized copy of v. The length of v must match.
func (s *ScalerParams) Transform(v []float32) ([]float32, error) {
	if len(v) != len(s.Mean) {
		return nil, fmt.Errorf("scaler expects %d features, got %d", len(s.Mean), len(v))
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32((float64(x) - s.Mean[i]) / s.Scale[i])
	}
	return out, nil
}

// FitScaler computes per-column mean and population standard deviation over
// rows. Columns with zero variance get a scale of 1.
func FitScaler(rows [][]float32) (*ScalerParams, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("fit scaler: no rows")
	}
	width := len(rows[0])
	if width == 0 {
		return nil, fmt.Errorf("fit scaler: empty rows")
	}

	col := make([]float64, len(rows))
	s := &ScalerParams{
		Mean:  make([]float64, width),
		Scale: make([]float64, width),
	}

	for j := 0; j < width; j++ {
		for i, row := range rows {
			if len(row) != width {
				return nil, fmt.Errorf("fit scaler: row %d has %d values, want %d", i, len(row), width)
			}
			col[i] = float64(row[j])
		}
		mean, std := stat.PopMeanStdDev(col, nil)
		if std < minScale || math.IsNaN(std) {
			std = 1
		}
		s.Mean[j] = mean
		s.Scale[j] = std
	}

	return s, nil
}

// LoadScaler reads and validates scaler parameters from path.
func LoadScaler(path string) (*ScalerParams, error) {
	var s ScalerParams
	if err := ReadJSON(path, &s); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &s, nil
}

// Save writes the scaler parameters to path as {"mean": [...], "scale": [...]}.
func (s *ScalerParams) Save(path string) error {
	if err := s.Validate(); err != nil {
		return err
	}
	return WriteJSON(path, s)
}
