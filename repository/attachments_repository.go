package repository

import (
	"database/sql"

	"github.com/tayylorngo/t-testing-sub000/models"
)

type AttachmentsRepository struct {
	db *sql.DB
}

func NewAttachmentsRepository(db *sql.DB) *AttachmentsRepository {
	return &AttachmentsRepository{db: db}
}

func (r *AttachmentsRepository) Create(a *models.Attachment) error {
	return r.db.QueryRow(`
		INSERT INTO attachments (id, session_id, user_id, file_name, mime_type, size, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING created_at
	`, a.ID, a.SessionID, a.UserID, a.FileName, a.MimeType, a.Size).Scan(&a.CreatedAt)
}

// GetByID returns nil without error when the attachment does not exist.
func (r *AttachmentsRepository) GetByID(id string) (*models.Attachment, error) {
	var a models.Attachment
	err := r.db.QueryRow(`
		SELECT id, session_id, user_id, file_name, mime_type, size, created_at
		FROM attachments
		WHERE id = $1
	`, id).Scan(&a.ID, &a.SessionID, &a.UserID, &a.FileName, &a.MimeType, &a.Size, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
