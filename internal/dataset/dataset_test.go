package dataset

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/ayusman/mudra/internal/artifact"
	"github.com/ayusman/mudra/internal/augment"
	"github.com/ayusman/mudra/internal/classifier"
	"github.com/ayusman/mudra/internal/features"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/landmark"
	"github.com/ayusman/mudra/internal/store"
)

func presetClasses() []Class {
	victory := landmark.Victory()
	thumbs := landmark.ThumbsUp()
	palm := landmark.OpenPalm()

	return []Class{
		{Label: "V", Samples: [][]float32{victory.Flatten()}},
		{Label: "B", Samples: [][]float32{palm.Flatten(), palm.Flatten()}},
		{Label: "A", Samples: [][]float32{thumbs.Flatten()}},
		{Label: "Z"},
	}
}

func TestBuilder_Build(t *testing.T) {
	ds, err := NewBuilder(augment.NewSeeded(42), DefaultAugmentations).Build(presetClasses())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	// 4 samples, each expanded to the original plus the default variants.
	if want := 4 * (1 + augment.DefaultVariants); ds.Len() != want {
		t.Fatalf("expected %d rows, got %d", want, ds.Len())
	}

	for _, f := range features.Families {
		rows := ds.Rows(f)
		if len(rows) != ds.Len() {
			t.Errorf("%s: %d rows, want %d", f, len(rows), ds.Len())
		}
		for i, row := range rows {
			if len(row) != f.Len() {
				t.Fatalf("%s row %d: length %d, want %d", f, i, len(row), f.Len())
			}
		}
	}

	if got := ds.LabelMap.Labels(); len(got) != 3 || got[0] != "A" || got[1] != "B" || got[2] != "V" {
		t.Errorf("label map should be sorted and skip empty classes, got %v", got)
	}
	if len(ds.Skipped) != 1 || ds.Skipped[0] != "Z" {
		t.Errorf("Skipped = %v, want [Z]", ds.Skipped)
	}

	counts := make(map[int]int)
	for _, l := range ds.Labels {
		counts[l]++
	}
	if counts[0] != 4 || counts[1] != 8 || counts[2] != 4 {
		t.Errorf("unexpected per-class row counts %v", counts)
	}
}

func TestBuilder_Errors(t *testing.T) {
	b := NewBuilder(augment.NewSeeded(1), DefaultAugmentations)

	if _, err := b.Build(nil); err == nil {
		t.Error("expected error for no classes")
	}

	bad := []Class{{Label: "A", Samples: [][]float32{make([]float32, 5)}}}
	if _, err := b.Build(bad); !errors.Is(err, augment.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestDataset_SaveLoad(t *testing.T) {
	ds, err := NewBuilder(augment.NewSeeded(7), 1).Build(presetClasses())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	dir := t.TempDir()
	if err := ds.Save(dir); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(dir, features.FamilyCombined)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Len() != ds.Len() {
		t.Errorf("loaded %d rows, want %d", loaded.Len(), ds.Len())
	}
	if loaded.LabelMap.Label(2) != "V" {
		t.Errorf("label 2 = %q, want V", loaded.LabelMap.Label(2))
	}

	want := ds.Rows(features.FamilyCombined)[3]
	got := loaded.Rows(features.FamilyCombined)[3]
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("row 3 value %d: got %f, want %f", i, got[i], want[i])
		}
	}

	if _, err := Load(t.TempDir(), features.FamilyRaw); !errors.Is(err, artifact.ErrInvalidArtifact) {
		t.Errorf("empty dir: expected ErrInvalidArtifact, got %v", err)
	}
	if _, err := Load(dir, "pixels"); err == nil {
		t.Error("expected error for unknown family")
	}
}

func TestTrain_ProducesUsableModel(t *testing.T) {
	ds, err := NewBuilder(augment.NewSeeded(3), 0).Build(presetClasses())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	m, err := Train(ds, features.FamilyCombined)
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	dir := t.TempDir()
	if err := m.Save(dir); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	model, err := gesture.LoadModel(dir, features.FamilyCombined, classifier.DefaultConfig())
	if err != nil {
		t.Fatalf("LoadModel() error = %v", err)
	}
	defer model.Close()

	tests := []struct {
		hand landmark.HandLandmarks
		want string
	}{
		{landmark.ThumbsUp(), "A"},
		{landmark.OpenPalm(), "B"},
		{landmark.Victory(), "V"},
	}
	for _, tt := range tests {
		res, err := gesture.NewRecognizer(model).Recognize(&tt.hand)
		if err != nil {
			t.Fatalf("Recognize() error = %v", err)
		}
		if res.Label != tt.want {
			t.Errorf("got %q, want %q", res.Label, tt.want)
		}
	}
}

func TestFromStore(t *testing.T) {
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer st.Close()

	st.Signs().Create(&store.Sign{ID: "b", Label: "B"})
	st.Signs().Create(&store.Sign{ID: "a", Label: "A"})
	palm := landmark.OpenPalm()
	if err := st.Samples().Add("b", [][]float32{palm.Flatten()}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	classes, err := FromStore(st)
	if err != nil {
		t.Fatalf("FromStore() error = %v", err)
	}
	if len(classes) != 2 {
		t.Fatalf("expected 2 classes, got %d", len(classes))
	}
	if classes[0].Label != "A" || len(classes[0].Samples) != 0 {
		t.Errorf("unexpected first class %+v", classes[0])
	}
	if classes[1].Label != "B" || len(classes[1].Samples) != 1 {
		t.Errorf("unexpected second class %+v", classes[1])
	}
}
