package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/campaignly/campaignly/internal/models"
)

// ErrDuplicateUser is returned when the email unique index rejects an insert.
var ErrDuplicateUser = errors.New("email already registered")

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail returns the user with the given email, or nil if none exists.
func (r *UserRepository) FindByEmail(email string) (*models.User, error) {
	u := &models.User{}
	var lastLogin sql.NullTime
	err := r.db.QueryRow(`
		SELECT id, email, password_hash, name, created_at, last_login
		FROM users WHERE email = ?`, email,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.CreatedAt, &lastLogin)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		u.LastLogin = &lastLogin.Time
	}
	return u, nil
}

// Create inserts a new user. The email unique index makes a duplicate insert
// fail with ErrDuplicateUser.
func (r *UserRepository) Create(u *models.User) error {
	u.ID = uuid.New().String()
	u.CreatedAt = time.Now().UTC()

	_, err := r.db.Exec(`
		INSERT INTO users (id, email, password_hash, name, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, u.Name, u.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateUser
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// UpdateLastLogin stamps the last successful login time.
func (r *UserRepository) UpdateLastLogin(id string, at time.Time) error {
	_, err := r.db.Exec("UPDATE users SET last_login = ? WHERE id = ?", at, id)
	return err
}

// List returns all users ordered by creation time. Used by the admin CLI.
func (r *UserRepository) List() ([]models.User, error) {
	rows, err := r.db.Query(`
		SELECT id, email, name, created_at, last_login
		FROM users ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		var lastLogin sql.NullTime
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt, &lastLogin); err != nil {
			return nil, err
		}
		if lastLogin.Valid {
			u.LastLogin = &lastLogin.Time
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdatePassword replaces the stored hash for a user. Used by the admin CLI.
func (r *UserRepository) UpdatePassword(email, passwordHash string) error {
	res, err := r.db.Exec("UPDATE users SET password_hash = ? WHERE email = ?", passwordHash, email)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("user %s not found", email)
	}
	return nil
}

// Delete removes a user by email. Used by the admin CLI.
func (r *UserRepository) Delete(email string) error {
	res, err := r.db.Exec("DELETE FROM users WHERE email = ?", email)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("user %s not found", email)
	}
	return nil
}

// isUniqueViolation reports whether err is a sqlite UNIQUE constraint error.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
