package repository

import (
	"database/sql"

	"github.com/tayylorngo/t-testing-sub000/models"
)

type SessionsRepository struct {
	db *sql.DB
}

func NewSessionsRepository(db *sql.DB) *SessionsRepository {
	return &SessionsRepository{db: db}
}

func (r *SessionsRepository) CreateSession(name string, ownerID int) (*models.Session, error) {
	var id int
	err := r.db.QueryRow(`
		INSERT INTO sessions (name, owner_id, status, version, created_at, modified_at)
		VALUES ($1, $2, $3, 1, NOW(), NOW())
		RETURNING id
	`, name, ownerID, models.SessionStatusPlanned).Scan(&id)
	if err != nil {
		return nil, err
	}
	return r.GetSessionByID(id)
}

// GetSessionByID loads the session with its collaborators, rooms and
// sections. Returns nil without error when the session does not exist.
func (r *SessionsRepository) GetSessionByID(id int) (*models.Session, error) {
	var s models.Session
	err := r.db.QueryRow(`
		SELECT id, name, owner_id, status, version, created_at, modified_at
		FROM sessions
		WHERE id = $1
	`, id).Scan(&s.ID, &s.Name, &s.OwnerID, &s.Status, &s.Version, &s.CreatedAt, &s.ModifiedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if s.Collaborators, err = r.GetCollaborators(id); err != nil {
		return nil, err
	}
	if s.Rooms, err = r.listRooms(id); err != nil {
		return nil, err
	}
	if s.Sections, err = r.listSections(id); err != nil {
		return nil, err
	}
	return &s, nil
}

// GetSessionsForUserPaginated returns sessions the user owns or
// collaborates on, newest first.
func (r *SessionsRepository) GetSessionsForUserPaginated(userID, offset, limit int) ([]models.Session, int, error) {
	var total int
	err := r.db.QueryRow(`
		SELECT COUNT(*)
		FROM sessions s
		WHERE s.owner_id = $1
		   OR EXISTS (
			SELECT 1 FROM session_collaborators sc
			WHERE sc.session_id = s.id AND sc.user_id = $1
		   )
	`, userID).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(`
		SELECT s.id, s.name, s.owner_id, s.status, s.version, s.created_at, s.modified_at
		FROM sessions s
		WHERE s.owner_id = $1
		   OR EXISTS (
			SELECT 1 FROM session_collaborators sc
			WHERE sc.session_id = s.id AND sc.user_id = $1
		   )
		ORDER BY s.created_at DESC, s.id DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []models.Session
	for rows.Next() {
		var s models.Session
		if err := rows.Scan(&s.ID, &s.Name, &s.OwnerID, &s.Status, &s.Version, &s.CreatedAt, &s.ModifiedAt); err != nil {
			return nil, 0, err
		}
		result = append(result, s)
	}
	return result, total, rows.Err()
}

// UpdateSession performs a conditional update guarded by the version
// token. A concurrent writer that bumped the version first wins;
// the loser gets models.ErrVersionConflict and must re-read.
func (r *SessionsRepository) UpdateSession(id, version int, name, status string) (*models.Session, error) {
	res, err := r.db.Exec(`
		UPDATE sessions
		SET name = $1, status = $2, version = version + 1, modified_at = NOW()
		WHERE id = $3 AND version = $4
	`, name, status, id, version)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		existing, err := r.GetSessionByID(id)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, models.ErrNotFound
		}
		return nil, models.ErrVersionConflict
	}
	return r.GetSessionByID(id)
}

func (r *SessionsRepository) DeleteSession(id int) error {
	res, err := r.db.Exec(`DELETE FROM sessions WHERE id = $1`, id)
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

func (r *SessionsRepository) GetCollaborators(sessionID int) ([]models.Collaborator, error) {
	rows, err := r.db.Query(`
		SELECT sc.user_id, u.username, sc.can_edit, sc.can_manage, sc.created_at
		FROM session_collaborators sc
		INNER JOIN users u ON u.id = sc.user_id
		WHERE sc.session_id = $1
		ORDER BY sc.created_at, sc.user_id
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.Collaborator
	for rows.Next() {
		var c models.Collaborator
		if err := rows.Scan(&c.UserID, &c.Username, &c.Permissions.Edit, &c.Permissions.Manage, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.Permissions.View = true
		result = append(result, c)
	}
	return result, rows.Err()
}

func (r *SessionsRepository) AddCollaborator(sessionID, userID int, p models.Permissions) error {
	_, err := r.db.Exec(`
		INSERT INTO session_collaborators (session_id, user_id, can_edit, can_manage, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`, sessionID, userID, p.Edit, p.Manage)
	if uniqueViolation(err, "") {
		return models.ErrAlreadyCollaborator
	}
	return err
}

// UpdateCollaboratorPermissions changes edit/manage for an existing
// collaborator. The view capability has no column; it cannot be revoked.
func (r *SessionsRepository) UpdateCollaboratorPermissions(sessionID, userID int, edit, manage bool) error {
	res, err := r.db.Exec(`
		UPDATE session_collaborators
		SET can_edit = $1, can_manage = $2
		WHERE session_id = $3 AND user_id = $4
	`, edit, manage, sessionID, userID)
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

func (r *SessionsRepository) RemoveCollaborator(sessionID, userID int) error {
	res, err := r.db.Exec(`
		DELETE FROM session_collaborators
		WHERE session_id = $1 AND user_id = $2
	`, sessionID, userID)
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

func (r *SessionsRepository) listRooms(sessionID int) ([]models.Room, error) {
	rows, err := r.db.Query(`
		SELECT id, session_id, name, capacity, created_at, modified_at
		FROM rooms
		WHERE session_id = $1
		ORDER BY id
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.Room
	for rows.Next() {
		var rm models.Room
		if err := rows.Scan(&rm.ID, &rm.SessionID, &rm.Name, &rm.Capacity, &rm.CreatedAt, &rm.ModifiedAt); err != nil {
			return nil, err
		}
		result = append(result, rm)
	}
	return result, rows.Err()
}

func (r *SessionsRepository) listSections(sessionID int) ([]models.Section, error) {
	rows, err := r.db.Query(`
		SELECT id, session_id, room_id, name, created_at, modified_at
		FROM sections
		WHERE session_id = $1
		ORDER BY id
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.Section
	for rows.Next() {
		var sec models.Section
		if err := rows.Scan(&sec.ID, &sec.SessionID, &sec.RoomID, &sec.Name, &sec.CreatedAt, &sec.ModifiedAt); err != nil {
			return nil, err
		}
		result = append(result, sec)
	}
	return result, rows.Err()
}
