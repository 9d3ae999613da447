package repository

import (
	"database/sql"

	"github.com/lib/pq"
)

// Notification is a persisted copy of a user-scoped event, kept so users
// who were offline when the event fired still see it after login.
type Notification struct {
	ID      int
	UserID  int
	Type    string
	Payload []byte
	IsRead  bool
	Sticky  bool
}

type NotificationsRepository struct {
	db *sql.DB
}

func NewNotificationsRepository(db *sql.DB) *NotificationsRepository {
	return &NotificationsRepository{db: db}
}

func (r *NotificationsRepository) Create(userID int, notifType string, payload []byte, sticky bool) error {
	_, err := r.db.Exec(`
		INSERT INTO notifications (user_id, type, payload, sticky, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`, userID, notifType, payload, sticky)
	return err
}

func (r *NotificationsRepository) ListUnread(userID int) ([]Notification, error) {
	rows, err := r.db.Query(`
		SELECT id, user_id, type, payload, is_read, sticky
		FROM notifications
		WHERE user_id = $1 AND is_read = FALSE
		ORDER BY sticky DESC, created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Payload, &n.IsRead, &n.Sticky); err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	return result, rows.Err()
}

func (r *NotificationsRepository) MarkRead(userID int, ids []int) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.db.Exec(`
		UPDATE notifications
		SET is_read = TRUE, read_at = NOW()
		WHERE user_id = $1 AND id = ANY($2)
	`, userID, pq.Array(ids))
	return err
}
