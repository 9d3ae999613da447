package repository

import (
	"database/sql"

	"github.com/tayylorngo/t-testing-sub000/models"
)

type RoomsRepository struct {
	db *sql.DB
}

func NewRoomsRepository(db *sql.DB) *RoomsRepository {
	return &RoomsRepository{db: db}
}

func (r *RoomsRepository) Create(sessionID int, name string, capacity int) (*models.Room, error) {
	var id int
	err := r.db.QueryRow(`
		INSERT INTO rooms (session_id, name, capacity, created_at, modified_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id
	`, sessionID, name, capacity).Scan(&id)
	if err != nil {
		return nil, err
	}
	return r.GetByID(id)
}

func (r *RoomsRepository) GetByID(id int) (*models.Room, error) {
	var rm models.Room
	err := r.db.QueryRow(`
		SELECT id, session_id, name, capacity, created_at, modified_at
		FROM rooms
		WHERE id = $1
	`, id).Scan(&rm.ID, &rm.SessionID, &rm.Name, &rm.Capacity, &rm.CreatedAt, &rm.ModifiedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rm, nil
}

func (r *RoomsRepository) Update(id int, name string, capacity int) (*models.Room, error) {
	res, err := r.db.Exec(`
		UPDATE rooms
		SET name = $1, capacity = $2, modified_at = NOW()
		WHERE id = $3
	`, name, capacity, id)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, models.ErrNotFound
	}
	return r.GetByID(id)
}

// Delete removes the room; sections assigned to it fall back to
// unassigned via ON DELETE SET NULL.
func (r *RoomsRepository) Delete(id int) error {
	res, err := r.db.Exec(`DELETE FROM rooms WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.ErrNotFound
	}
	return nil
}
