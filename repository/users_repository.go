package repository

import (
	"database/sql"
	"errors"

	"github.com/tayylorngo/t-testing-sub000/models"
)

// ErrUsernameTaken is returned when registration hits the unique index
// on users.username.
var ErrUsernameTaken = errors.New("username already taken")

type UsersRepository struct {
	db *sql.DB
}

func NewUsersRepository(db *sql.DB) *UsersRepository {
	return &UsersRepository{db: db}
}

func (r *UsersRepository) CreateUser(username, passwordHash string) (*models.User, error) {
	var u models.User
	err := r.db.QueryRow(`
		INSERT INTO users (username, password_hash, created_at)
		VALUES ($1, $2, NOW())
		RETURNING id, username, password_hash, created_at
	`, username, passwordHash).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if uniqueViolation(err, "") {
		return nil, ErrUsernameTaken
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByUsername returns nil without error when no such user exists.
func (r *UsersRepository) GetUserByUsername(username string) (*models.User, error) {
	var u models.User
	err := r.db.QueryRow(`
		SELECT id, username, password_hash, created_at
		FROM users
		WHERE username = $1
	`, username).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UsersRepository) GetUserByID(id int) (*models.User, error) {
	var u models.User
	err := r.db.QueryRow(`
		SELECT id, username, password_hash, created_at
		FROM users
		WHERE id = $1
	`, id).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
