// Package artifact loads and saves the read-only files produced at training
// time and consumed at inference: scaler parameters and the label map.
package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// File names inside a model directory.
const (
	ScalerFile    = "scaler_params.json"
	LabelMapFile  = "label_map.json"
	CentroidsFile = "centroids.json"
	ONNXFile      = "model.onnx"
)

// ErrInvalidArtifact is returned when a persisted artifact is missing,
// unreadable or structurally wrong.
var ErrInvalidArtifact = errors.New("invalid artifact")

// ReadJSON decodes a JSON artifact, wrapping failures in ErrInvalidArtifact.
func ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidArtifact, path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidArtifact, path, err)
	}
	return nil
}

// FileMode is the permission of every written artifact.
const FileMode = 0644

// WriteJSON writes v to path atomically through a temporary file.
func WriteJSON(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(FileMode); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
