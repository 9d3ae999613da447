package repository

import (
	"database/sql"

	"github.com/tayylorngo/t-testing-sub000/models"
)

type SectionsRepository struct {
	db *sql.DB
}

func NewSectionsRepository(db *sql.DB) *SectionsRepository {
	return &SectionsRepository{db: db}
}

func (r *SectionsRepository) Create(sessionID int, name string, roomID *int) (*models.Section, error) {
	var id int
	err := r.db.QueryRow(`
		INSERT INTO sections (session_id, room_id, name, created_at, modified_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id
	`, sessionID, roomID, name).Scan(&id)
	if err != nil {
		return nil, err
	}
	return r.GetByID(id)
}

func (r *SectionsRepository) GetByID(id int) (*models.Section, error) {
	var sec models.Section
	err := r.db.QueryRow(`
		SELECT id, session_id, room_id, name, created_at, modified_at
		FROM sections
		WHERE id = $1
	`, id).Scan(&sec.ID, &sec.SessionID, &sec.RoomID, &sec.Name, &sec.CreatedAt, &sec.ModifiedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sec, nil
}

// Update renames the section and reassigns its room. Passing a nil
// roomID detaches the section from any room.
func (r *SectionsRepository) Update(id int, name string, roomID *int) (*models.Section, error) {
	res, err := r.db.Exec(`
		UPDATE sections
		SET name = $1, room_id = $2, modified_at = NOW()
		WHERE id = $3
	`, name, roomID, id)
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

func (r *SectionsRepository) Delete(id int) error {
	res, err := r.db.Exec(`DELETE FROM sections WHERE id = $1`, id)
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
