package store

import (
	"database/sql"
	"errors"
	"time"
)

// Sign is a recognizable class, identified by its label.
type Sign struct {
	ID          string    `json:"id"`
	Label       string    `json:"label"`
	Description string    `json:"description"`
	Samples     int       `json:"samples"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SignRepository provides CRUD operations for signs.
type SignRepository struct {
	db *sql.DB
}

// Signs returns the sign repository for this store.
func (s *Store) Signs() *SignRepository {
	return &SignRepository{db: s.db}
}

const signColumns = `id, label, description, samples, created_at, updated_at`

func scanSign(row interface{ Scan(...any) error }) (*Sign, error) {
	g := &Sign{}
	if err := row.Scan(&g.ID, &g.Label, &g.Description, &g.Samples, &g.CreatedAt, &g.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return g, nil
}

// Create inserts a new sign.
func (r *SignRepository) Create(g *Sign) error {
	now := time.Now()
	g.CreatedAt = now
	g.UpdatedAt = now

	_, err := r.db.Exec(
		`INSERT INTO signs (id, label, description, samples, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		g.ID, g.Label, g.Description, g.Samples, g.CreatedAt, g.UpdatedAt,
	)
	return err
}

// GetByID retrieves a sign by its ID.
func (r *SignRepository) GetByID(id string) (*Sign, error) {
	return scanSign(r.db.QueryRow(`SELECT `+signColumns+` FROM signs WHERE id = ?`, id))
}

// GetByLabel retrieves a sign by its label.
func (r *SignRepository) GetByLabel(label string) (*Sign, error) {
	return scanSign(r.db.QueryRow(`SELECT `+signColumns+` FROM signs WHERE label = ?`, label))
}

// List returns all signs ordered by label, the order class indices are
// assigned in.
func (r *SignRepository) List() ([]*Sign, error) {
	rows, err := r.db.Query(`SELECT ` + signColumns + ` FROM signs ORDER BY label`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var signs []*Sign
	for rows.Next() {
		g, err := scanSign(rows)
		if err != nil {
			return nil, err
		}
		signs = append(signs, g)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return signs, nil
}

// Update changes a sign's label and description.
func (r *SignRepository) Update(g *Sign) error {
	g.UpdatedAt = time.Now()

	result, err := r.db.Exec(
		`UPDATE signs SET label = ?, description = ?, updated_at = ? WHERE id = ?`,
		g.Label, g.Description, g.UpdatedAt, g.ID,
	)
	if err != nil {
		return err
	}
	return affectedOrNotFound(result)
}

// Delete removes a sign together with its samples and bindings.
func (r *SignRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM signs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return affectedOrNotFound(result)
}
