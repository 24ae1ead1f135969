// Package dataset builds training sets from recorded sign samples: every
// sample is augmented, converted to all feature families and labeled with a
// dense class index.
package dataset

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/ayusman/mudra/internal/artifact"
	"github.com/ayusman/mudra/internal/augment"
	"github.com/ayusman/mudra/internal/features"
	"github.com/ayusman/mudra/internal/landmark"
	"github.com/ayusman/mudra/internal/store"
)

// DefaultAugmentations is the number of synthetic variants generated per sample.
const DefaultAugmentations = augment.DefaultVariants

// LabelsFile holds the class index of every row.
const LabelsFile = "labels.json"

// Class is a labeled group of raw 63-value samples.
type Class struct {
	Label   string
	Samples [][]float32
}

// Dataset holds one row per (sample, variant) for every feature family.
type Dataset struct {
	Features map[features.Family][][]float32
	Labels   []int
	LabelMap *artifact.LabelMap
	// Skipped lists labels that had no samples and got no class index.
	Skipped []string
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.Labels)
}

// Rows returns the rows of one family.
func (d *Dataset) Rows(f features.Family) [][]float32 {
	return d.Features[f]
}

// FeatureFile returns the file name used for a family's rows.
func FeatureFile(f features.Family) string {
	return string(f) + "_features.json"
}

// Builder turns classes into a Dataset.
type Builder struct {
	gen           *augment.Generator
	augmentations int
}

// NewBuilder creates a Builder drawing augmentation randomness from gen.
// A negative count is rejected by Build.
func NewBuilder(gen *augment.Generator, augmentations int) *Builder {
	return &Builder{gen: gen, augmentations: augmentations}
}

// Build assigns class indices in sorted label order and expands every sample
// into 1+augmentations rows.
func (b *Builder) Build(classes []Class) (*Dataset, error) {
	sorted := append([]Class(nil), classes...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Label < sorted[j].Label })

	ds := &Dataset{Features: make(map[features.Family][][]float32, len(features.Families))}

	var labels []string
	for _, c := range sorted {
		if len(c.Samples) == 0 {
			ds.Skipped = append(ds.Skipped, c.Label)
			continue
		}
		labels = append(labels, c.Label)
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("no samples to build a dataset from")
	}

	lm, err := artifact.NewLabelMap(labels)
	if err != nil {
		return nil, err
	}
	ds.LabelMap = lm

	for _, c := range sorted {
		idx, ok := lm.Index(c.Label)
		if !ok {
			continue
		}
		for i, sample := range c.Samples {
			variants, err := b.gen.Augment(sample, b.augmentations)
			if err != nil {
				return nil, fmt.Errorf("%s sample %d: %w", c.Label, i, err)
			}
			for _, v := range variants {
				if err := ds.add(v, idx); err != nil {
					return nil, fmt.Errorf("%s sample %d: %w", c.Label, i, err)
				}
			}
		}
	}

	return ds, nil
}

func (d *Dataset) add(flat []float32, label int) error {
	hand, err := landmark.FromFlat(flat)
	if err != nil {
		return err
	}
	set, err := features.ExtractAll(&hand)
	if err != nil {
		return err
	}
	for _, f := range features.Families {
		d.Features[f] = append(d.Features[f], set.Get(f))
	}
	d.Labels = append(d.Labels, label)
	return nil
}

// FromStore reads every sign and its samples.
func FromStore(st *store.Store) ([]Class, error) {
	signs, err := st.Signs().List()
	if err != nil {
		return nil, fmt.Errorf("list signs: %w", err)
	}

	classes := make([]Class, 0, len(signs))
	for _, s := range signs {
		samples, err := st.Samples().ListBySign(s.ID)
		if err != nil {
			return nil, fmt.Errorf("samples of %s: %w", s.Label, err)
		}
		c := Class{Label: s.Label, Samples: make([][]float32, len(samples))}
		for i, sm := range samples {
			c.Samples[i] = sm.Landmarks
		}
		classes = append(classes, c)
	}
	return classes, nil
}

// Save writes one JSON file per family, labels.json and label_map.json to dir.
func (d *Dataset) Save(dir string) error {
	for _, f := range features.Families {
		if err := artifact.WriteJSON(filepath.Join(dir, FeatureFile(f)), d.Features[f]); err != nil {
			return fmt.Errorf("write %s features: %w", f, err)
		}
	}
	if err := artifact.WriteJSON(filepath.Join(dir, LabelsFile), d.Labels); err != nil {
		return fmt.Errorf("write labels: %w", err)
	}
	return d.LabelMap.Save(filepath.Join(dir, artifact.LabelMapFile))
}

// Load reads the rows of one family with their labels and label map.
func Load(dir string, f features.Family) (*Dataset, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("unknown feature family %q", f)
	}

	var rows [][]float32
	if err := artifact.ReadJSON(filepath.Join(dir, FeatureFile(f)), &rows); err != nil {
		return nil, err
	}
	var labels []int
	if err := artifact.ReadJSON(filepath.Join(dir, LabelsFile), &labels); err != nil {
		return nil, err
	}
	lm, err := artifact.LoadLabelMap(filepath.Join(dir, artifact.LabelMapFile))
	if err != nil {
		return nil, err
	}

	if len(rows) != len(labels) {
		return nil, fmt.Errorf("%w: %d %s rows but %d labels", artifact.ErrInvalidArtifact, len(rows), f, len(labels))
	}
	for i, row := range rows {
		if len(row) != f.Len() {
			return nil, fmt.Errorf("%w: row %d has %d values, %s needs %d", artifact.ErrInvalidArtifact, i, len(row), f, f.Len())
		}
	}

	return &Dataset{
		Features: map[features.Family][][]float32{f: rows},
		Labels:   labels,
		LabelMap: lm,
	}, nil
}
