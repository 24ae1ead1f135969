package artifact

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestScalerParams_Transform(t *testing.T) {
	s := &ScalerParams{
		Mean:  []float64{1, 2, 3},
		Scale: []float64{2, 0.5, 1},
	}

	got, err := s.Transform([]float32{3, 3, 3})
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}

	want := []float32{1, 2, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: got %f, want %f", i, got[i], want[i])
		}
	}

	if _, err := s.Transform([]float32{1, 2}); err == nil {
		t.Error("expected error for length mismatch")
	}
}

func TestScalerParams_Validate(t *testing.T) {
	tests := []struct {
		name    string
		scaler  ScalerParams
		wantErr bool
	}{
		{"valid", ScalerParams{Mean: []float64{0, 1}, Scale: []float64{1, 2}}, false},
		{"empty", ScalerParams{}, true},
		{"length mismatch", ScalerParams{Mean: []float64{0, 1}, Scale: []float64{1}}, true},
		{"zero scale", ScalerParams{Mean: []float64{0}, Scale: []float64{0}}, true},
		{"nan mean", ScalerParams{Mean: []float64{math.NaN()}, Scale: []float64{1}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.scaler.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidArtifact) {
				t.Errorf("expected ErrInvalidArtifact, got %v", err)
			}
		})
	}
}

func TestFitScaler(t *testing.T) {
	rows := [][]float32{
		{1, 5, 10},
		{3, 5, 20},
	}

	s, err := FitScaler(rows)
	if err != nil {
		t.Fatalf("FitScaler() error = %v", err)
	}

	wantMean := []float64{2, 5, 15}
	wantScale := []float64{1, 1, 5}
	for i := range wantMean {
		if math.Abs(s.Mean[i]-wantMean[i]) > 1e-9 {
			t.Errorf("mean[%d] = %f, want %f", i, s.Mean[i], wantMean[i])
		}
		if math.Abs(s.Scale[i]-wantScale[i]) > 1e-9 {
			t.Errorf("scale[%d] = %f, want %f", i, s.Scale[i], wantScale[i])
		}
	}

	if _, err := FitScaler(nil); err == nil {
		t.Error("expected error for no rows")
	}
	if _, err := FitScaler([][]float32{{1, 2}, {1}}); err == nil {
		t.Error("expected error for ragged rows")
	}
}

func TestScalerFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ScalerFile)

	s := &ScalerParams{Mean: []float64{0.5, -1}, Scale: []float64{2, 3}}
	if err := s.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	var obj map[string][]float64
	if err := json.Unmarshal(raw, &obj); err != nil {
		t.Fatalf("scaler file is not a JSON object of arrays: %v", err)
	}
	if len(obj["mean"]) != 2 || len(obj["scale"]) != 2 {
		t.Errorf("unexpected scaler JSON: %s", raw)
	}

	loaded, err := LoadScaler(path)
	if err != nil {
		t.Fatalf("LoadScaler() error = %v", err)
	}
	if loaded.Len() != 2 || loaded.Scale[1] != 3 {
		t.Errorf("unexpected loaded scaler: %+v", loaded)
	}
}

func TestWriteJSON_FileMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions only")
	}
	path := filepath.Join(t.TempDir(), LabelMapFile)
	if err := WriteJSON(path, map[string]string{"0": "A"}); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if got := info.Mode().Perm(); got != FileMode {
		t.Errorf("file mode = %o, want %o", got, FileMode)
	}
}

func TestLoadScaler_Errors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadScaler(filepath.Join(dir, "nope.json"))
		if !errors.Is(err, ErrInvalidArtifact) {
			t.Errorf("expected ErrInvalidArtifact, got %v", err)
		}
	})

	t.Run("corrupt file", func(t *testing.T) {
		path := filepath.Join(dir, "corrupt.json")
		os.WriteFile(path, []byte(`{"mean": [1, 2`), 0644)
		_, err := LoadScaler(path)
		if !errors.Is(err, ErrInvalidArtifact) {
			t.Errorf("expected ErrInvalidArtifact, got %v", err)
		}
	})

	t.Run("unequal lengths", func(t *testing.T) {
		path := filepath.Join(dir, "unequal.json")
		os.WriteFile(path, []byte(`{"mean": [1, 2], "scale": [1]}`), 0644)
		_, err := LoadScaler(path)
		if !errors.Is(err, ErrInvalidArtifact) {
			t.Errorf("expected ErrInvalidArtifact, got %v", err)
		}
	})
}

func TestLabelMap(t *testing.T) {
	m, err := LabelMapFromSorted([]string{"C", "A", "B"})
	if err != nil {
		t.Fatalf("LabelMapFromSorted() error = %v", err)
	}

	if m.Len() != 3 {
		t.Fatalf("expected 3 labels, got %d", m.Len())
	}
	if m.Label(0) != "A" || m.Label(2) != "C" {
		t.Errorf("unexpected order: %v", m.Labels())
	}
	if idx, ok := m.Index("B"); !ok || idx != 1 {
		t.Errorf("Index(B) = %d, %v", idx, ok)
	}

	t.Run("unknown index resolves to Unknown", func(t *testing.T) {
		for _, idx := range []int{-1, 3, 100} {
			if got := m.Label(idx); got != UnknownLabel {
				t.Errorf("Label(%d) = %q, want %q", idx, got, UnknownLabel)
			}
		}
		var nilMap *LabelMap
		if got := nilMap.Label(0); got != UnknownLabel {
			t.Errorf("nil map Label(0) = %q", got)
		}
	})

	t.Run("rejects duplicates", func(t *testing.T) {
		if _, err := NewLabelMap([]string{"A", "A"}); !errors.Is(err, ErrInvalidArtifact) {
			t.Errorf("expected ErrInvalidArtifact, got %v", err)
		}
	})
}

func TestLabelMapFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, LabelMapFile)

	m, _ := NewLabelMap([]string{"A", "B", "C"})
	if err := m.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	raw, _ := os.ReadFile(path)
	var obj map[string]string
	if err := json.Unmarshal(raw, &obj); err != nil {
		t.Fatalf("label map is not a string object: %v", err)
	}
	if obj["0"] != "A" || obj["2"] != "C" {
		t.Errorf("unexpected label map JSON: %s", raw)
	}

	loaded, err := LoadLabelMap(path)
	if err != nil {
		t.Fatalf("LoadLabelMap() error = %v", err)
	}
	if loaded.Label(1) != "B" {
		t.Errorf("Label(1) = %q, want B", loaded.Label(1))
	}

	t.Run("sparse indices are rejected", func(t *testing.T) {
		bad := filepath.Join(dir, "sparse.json")
		os.WriteFile(bad, []byte(`{"0": "A", "5": "B"}`), 0644)
		if _, err := LoadLabelMap(bad); !errors.Is(err, ErrInvalidArtifact) {
			t.Errorf("expected ErrInvalidArtifact, got %v", err)
		}
	})

	t.Run("empty map is rejected", func(t *testing.T) {
		bad := filepath.Join(dir, "empty.json")
		os.WriteFile(bad, []byte(`{}`), 0644)
		if _, err := LoadLabelMap(bad); !errors.Is(err, ErrInvalidArtifact) {
			t.Errorf("expected ErrInvalidArtifact, got %v", err)
		}
	})
}
