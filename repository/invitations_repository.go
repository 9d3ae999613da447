package repository

import (
	"database/sql"

	"github.com/lib/pq"

	"github.com/tayylorngo/t-testing-sub000/models"
)

type InvitationsRepository struct {
	db *sql.DB
}

func NewInvitationsRepository(db *sql.DB) *InvitationsRepository {
	return &InvitationsRepository{db: db}
}

const invitationColumns = `
	i.id, i.session_id, s.name, i.invited_user_id, i.invited_by,
	i.can_edit, i.can_manage, i.status, i.created_at`

func scanInvitation(row interface{ Scan(...interface{}) error }) (*models.Invitation, error) {
	var inv models.Invitation
	err := row.Scan(
		&inv.ID, &inv.SessionID, &inv.SessionName, &inv.InvitedUserID, &inv.InvitedByID,
		&inv.Permissions.Edit, &inv.Permissions.Manage, &inv.Status, &inv.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	inv.Permissions.View = true
	return &inv, nil
}

// Create inserts a pending invitation. The partial unique index on
// (session_id, invited_user_id) WHERE status = 'pending' resolves the
// race between two concurrent creates: exactly one insert wins, the
// other gets ErrDuplicatePendingInvitation.
func (r *InvitationsRepository) Create(sessionID, invitedUserID, invitedBy int, p models.Permissions) (*models.Invitation, error) {
	var id int
	err := r.db.QueryRow(`
		INSERT INTO invitations (session_id, invited_user_id, invited_by, can_edit, can_manage, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id
	`, sessionID, invitedUserID, invitedBy, p.Edit, p.Manage, models.InvitationStatusPending).Scan(&id)
	if uniqueViolation(err, "invitations_one_pending_per_user") {
		return nil, models.ErrDuplicatePendingInvitation
	}
	if err != nil {
		return nil, err
	}
	return r.GetByID(id)
}

// GetByID returns nil without error when the invitation does not exist.
func (r *InvitationsRepository) GetByID(id int) (*models.Invitation, error) {
	inv, err := scanInvitation(r.db.QueryRow(`
		SELECT`+invitationColumns+`
		FROM invitations i
		INNER JOIN sessions s ON s.id = i.session_id
		WHERE i.id = $1
	`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return inv, err
}

// ListForInvitee returns the user's invitations, pending first.
func (r *InvitationsRepository) ListForInvitee(userID int) ([]models.Invitation, error) {
	return r.list(`
		SELECT`+invitationColumns+`
		FROM invitations i
		INNER JOIN sessions s ON s.id = i.session_id
		WHERE i.invited_user_id = $1
		ORDER BY i.status = 'pending' DESC, i.created_at DESC
	`, userID)
}

// ListForSession returns all invitations targeting a session.
func (r *InvitationsRepository) ListForSession(sessionID int) ([]models.Invitation, error) {
	return r.list(`
		SELECT`+invitationColumns+`
		FROM invitations i
		INNER JOIN sessions s ON s.id = i.session_id
		WHERE i.session_id = $1
		ORDER BY i.created_at DESC
	`, sessionID)
}

func (r *InvitationsRepository) list(query string, arg int) ([]models.Invitation, error) {
	rows, err := r.db.Query(query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *inv)
	}
	return result, rows.Err()
}

// Accept transitions a pending invitation to accepted and, in the same
// transaction, appends a collaborator with the snapshot permissions.
// Accepting a non-pending invitation returns ErrInvalidTransition and
// does not add a second collaborator.
func (r *InvitationsRepository) Accept(id int) (*models.Invitation, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var (
		sessionID, invitedUserID int
		canEdit, canManage       bool
	)
	err = tx.QueryRow(`
		UPDATE invitations
		SET status = $1
		WHERE id = $2 AND status = $3
		RETURNING session_id, invited_user_id, can_edit, can_manage
	`, models.InvitationStatusAccepted, id, models.InvitationStatusPending).
		Scan(&sessionID, &invitedUserID, &canEdit, &canManage)
	if err == sql.ErrNoRows {
		return nil, r.transitionError(id)
	}
	if err != nil {
		return nil, err
	}

	// ON CONFLICT keeps the collaborator invariant if the user was added
	// through another path while the invitation was pending.
	_, err = tx.Exec(`
		INSERT INTO session_collaborators (session_id, user_id, can_edit, can_manage, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (session_id, user_id) DO NOTHING
	`, sessionID, invitedUserID, canEdit, canManage)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return r.GetByID(id)
}

// Decline transitions a pending invitation to declined. No side effects.
func (r *InvitationsRepository) Decline(id int) (*models.Invitation, error) {
	res, err := r.db.Exec(`
		UPDATE invitations
		SET status = $1
		WHERE id = $2 AND status = $3
	`, models.InvitationStatusDeclined, id, models.InvitationStatusPending)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, r.transitionError(id)
	}
	return r.GetByID(id)
}

// Cancel deletes a pending invitation.
func (r *InvitationsRepository) Cancel(id int) error {
	return r.conditionalDelete(id, []string{models.InvitationStatusPending})
}

// Clear deletes a resolved (accepted or declined) invitation.
func (r *InvitationsRepository) Clear(id int) error {
	return r.conditionalDelete(id, []string{models.InvitationStatusAccepted, models.InvitationStatusDeclined})
}

func (r *InvitationsRepository) conditionalDelete(id int, statuses []string) error {
	res, err := r.db.Exec(`
		DELETE FROM invitations
		WHERE id = $1 AND status = ANY($2)
	`, id, pq.Array(statuses))
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return r.transitionError(id)
	}
	return nil
}

// transitionError distinguishes "wrong state" from "gone" after a
// guarded mutation matched zero rows.
func (r *InvitationsRepository) transitionError(id int) error {
	inv, err := r.GetByID(id)
	if err != nil {
		return err
	}
	if inv == nil {
		return models.ErrNotFound
	}
	return models.ErrInvalidTransition
}
