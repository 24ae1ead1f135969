package dataset

import (
	"fmt"
	"path/filepath"

	"github.com/ayusman/mudra/internal/artifact"
	"github.com/ayusman/mudra/internal/classifier"
	"github.com/ayusman/mudra/internal/features"
)

// Model is the artifact set produced by Train.
type Model struct {
	Scaler    *artifact.ScalerParams
	Centroids *classifier.Centroids
	LabelMap  *artifact.LabelMap
}

// Train fits a scaler on the family's rows and a nearest-centroid classifier
// on the standardized rows.
func Train(ds *Dataset, f features.Family) (*Model, error) {
	rows := ds.Rows(f)
	if len(rows) == 0 {
		return nil, fmt.Errorf("dataset has no %s rows", f)
	}

	scaler, err := artifact.FitScaler(rows)
	if err != nil {
		return nil, err
	}

	scaled := make([][]float32, len(rows))
	for i, row := range rows {
		if scaled[i], err = scaler.Transform(row); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}

	centroids, err := classifier.TrainCentroids(scaled, ds.Labels, ds.LabelMap.Len())
	if err != nil {
		return nil, err
	}

	return &Model{Scaler: scaler, Centroids: centroids, LabelMap: ds.LabelMap}, nil
}

// Save writes scaler_params.json, centroids.json and label_map.json to dir.
func (m *Model) Save(dir string) error {
	if err := m.Scaler.Save(filepath.Join(dir, artifact.ScalerFile)); err != nil {
		return err
	}
	if err := m.Centroids.Save(filepath.Join(dir, artifact.CentroidsFile)); err != nil {
		return err
	}
	return m.LabelMap.Save(filepath.Join(dir, artifact.LabelMapFile))
}
