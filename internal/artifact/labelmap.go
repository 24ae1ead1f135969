package artifact

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// UnknownLabel is shown for class indices the label map does not contain.
const UnknownLabel = "Unknown"

// LabelMap is a bijection between dense class indices [0, C) and labels.
// On disk it is a JSON object keyed by the decimal index: {"0": "A", "1": "B"}.
type LabelMap struct {
	labels []string
	index  map[string]int
}

// NewLabelMap builds a map assigning index i to labels[i]. Labels must be
// non-empty and unique.
func NewLabelMap(labels []string) (*LabelMap, error) {
	m := &LabelMap{
		labels: make([]string, len(labels)),
		index:  make(map[string]int, len(labels)),
	}
	for i, l := range labels {
		if l == "" {
			return nil, fmt.Errorf("%w: empty label at index %d", ErrInvalidArtifact, i)
		}
		if prev, ok := m.index[l]; ok {
			return nil, fmt.Errorf("%w: label %q used for indices %d and %d", ErrInvalidArtifact, l, prev, i)
		}
		m.labels[i] = l
		m.index[l] = i
	}
	return m, nil
}

// LabelMapFromSorted assigns indices in sorted label order, the way training
// tooling enumerates class folders.
func LabelMapFromSorted(labels []string) (*LabelMap, error) {
	sorted := append([]string(nil), labels...)
	sort.Strings(sorted)
	return NewLabelMap(sorted)
}

// Len returns the number of classes.
func (m *LabelMap) Len() int {
	return len(m.labels)
}

// Label resolves a class index. Indices outside the map resolve to UnknownLabel.
func (m *LabelMap) Label(idx int) string {
	if m == nil || idx < 0 || idx >= len(m.labels) {
		return UnknownLabel
	}
	return m.labels[idx]
}

// Index returns the class index of label.
func (m *LabelMap) Index(label string) (int, bool) {
	idx, ok := m.index[label]
	return idx, ok
}

// Labels returns the labels in index order.
func (m *LabelMap) Labels() []string {
	return append([]string(nil), m.labels...)
}

// MarshalJSON encodes the map as {"<index>": "<label>"}.
func (m *LabelMap) MarshalJSON() ([]byte, error) {
	obj := make(map[string]string, len(m.labels))
	for i, l := range m.labels {
		obj[strconv.Itoa(i)] = l
	}
	return json.Marshal(obj)
}

// UnmarshalJSON decodes {"<index>": "<label>"}. Indices must be exactly 0..C-1.
func (m *LabelMap) UnmarshalJSON(data []byte) error {
	var obj map[string]string
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}

	labels := make([]string, len(obj))
	seen := make([]bool, len(obj))
	for k, v := range obj {
		idx, err := strconv.Atoi(k)
		if err != nil {
			return fmt.Errorf("%w: label map key %q is not an integer", ErrInvalidArtifact, k)
		}
		if idx < 0 || idx >= len(obj) {
			return fmt.Errorf("%w: label map index %d outside [0, %d)", ErrInvalidArtifact, idx, len(obj))
		}
		if seen[idx] {
			return fmt.Errorf("%w: duplicate label map index %d", ErrInvalidArtifact, idx)
		}
		seen[idx] = true
		labels[idx] = v
	}

	built, err := NewLabelMap(labels)
	if err != nil {
		return err
	}
	*m = *built
	return nil
}

// LoadLabelMap reads a label map from path.
func LoadLabelMap(path string) (*LabelMap, error) {
	var m LabelMap
	if err := ReadJSON(path, &m); err != nil {
		return nil, err
	}
	if m.Len() == 0 {
		return nil, fmt.Errorf("%w: %s: label map is empty", ErrInvalidArtifact, path)
	}
	return &m, nil
}

// Save writes the label map to path.
func (m *LabelMap) Save(path string) error {
	return WriteJSON(path, m)
}
