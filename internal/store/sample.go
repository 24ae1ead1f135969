package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/mudra/internal/landmark"
)

// ErrInvalidSample is returned for samples that are not a valid landmark set.
var ErrInvalidSample = errors.New("invalid sample")

// Sample is one recorded landmark set for a sign, in flat x0,y0,z0,... form.
type Sample struct {
	ID        int64     `json:"id"`
	SignID    string    `json:"sign_id"`
	Landmarks []float32 `json:"landmarks"`
	CreatedAt time.Time `json:"created_at"`
}

// SampleRepository stores recorded samples.
type SampleRepository struct {
	db *sql.DB
}

// Samples returns the sample repository for this store.
func (s *Store) Samples() *SampleRepository {
	return &SampleRepository{db: s.db}
}

// Add appends samples to a sign in one transaction and refreshes the sign's
// sample count. Every sample must be a valid 63-value landmark vector.
func (r *SampleRepository) Add(signID string, samples [][]float32) error {
	for i, flat := range samples {
		if _, err := landmark.FromFlat(flat); err != nil {
			return fmt.Errorf("%w: sample %d: %v", ErrInvalidSample, i, err)
		}
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM signs WHERE id = ?`, signID).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return ErrNotFound
	}

	stmt, err := tx.Prepare(`INSERT INTO sign_samples (sign_id, landmarks, created_at) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for _, flat := range samples {
		data, err := json.Marshal(flat)
		if err != nil {
			return err
		}
		if _, err := stmt.Exec(signID, string(data), now); err != nil {
			return err
		}
	}

	if err := refreshCount(tx, signID); err != nil {
		return err
	}

	return tx.Commit()
}

// ListBySign returns a sign's samples in recording order.
func (r *SampleRepository) ListBySign(signID string) ([]Sample, error) {
	rows, err := r.db.Query(
		`SELECT id, sign_id, landmarks, created_at
		 FROM sign_samples
		 WHERE sign_id = ?
		 ORDER BY id`,
		signID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []Sample
	for rows.Next() {
		var s Sample
		var data string
		if err := rows.Scan(&s.ID, &s.SignID, &data, &s.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(data), &s.Landmarks); err != nil {
			return nil, fmt.Errorf("sample %d: %w", s.ID, err)
		}
		samples = append(samples, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return samples, nil
}

// DeleteBySign removes all samples of a sign.
func (r *SampleRepository) DeleteBySign(signID string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM sign_samples WHERE sign_id = ?`, signID); err != nil {
		return err
	}
	if err := refreshCount(tx, signID); err != nil {
		return err
	}
	return tx.Commit()
}

func refreshCount(tx *sql.Tx, signID string) error {
	_, err := tx.Exec(
		`UPDATE signs SET samples = (SELECT COUNT(*) FROM sign_samples WHERE sign_id = ?), updated_at = ?
		 WHERE id = ?`,
		signID, time.Now(), signID,
	)
	return err
}
