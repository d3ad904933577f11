// Package auth implements registration, login, and token-based session
// checks. Passwords are hashed with salted PBKDF2-SHA256 and sessions are
// stateless signed tokens with a fixed expiry.
package auth

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/campaignly/campaignly/internal/models"
)

var emailPattern = regexp.MustCompile(`^[\w.+-]+@[\w.-]+\.\w+$`)

// ValidEmail reports whether the address has a plausible mailbox shape.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// UserStore is the credential-store surface the auth engine needs.
type UserStore interface {
	FindByEmail(email string) (*models.User, error)
	Create(u *models.User) error
	UpdateLastLogin(id string, at time.Time) error
}

// Session is the result of a successful login.
type Session struct {
	Token  string
	UserID string
	Name   string
}

// Service orchestrates registration and login over the credential store and
// the token service.
type Service struct {
	users  UserStore
	tokens *TokenService
}

func NewService(users UserStore, tokens *TokenService) *Service {
	return &Service{users: users, tokens: tokens}
}

// Register creates a new user. No token is issued; a separate login is
// required. Returns repository.ErrDuplicateUser if the email is taken.
func (s *Service) Register(ctx context.Context, email, password, name string) error {
	if !ValidEmail(email) {
		return fmt.Errorf("%w: invalid email address", ErrInvalidInput)
	}
	if password == "" || name == "" {
		return fmt.Errorf("%w: all fields are required", ErrInvalidInput)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.users.Create(&models.User{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
	})
}

// Login verifies credentials, stamps the last login, and mints a session
// token. Unknown email and wrong password both yield ErrInvalidCredentials,
// and neither updates the last-login time.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.FindByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil || !VerifyPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	if err := s.users.UpdateLastLogin(user.ID, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("failed to update last login: %w", err)
	}

	token, err := s.tokens.Issue(user.ID, user.Email, user.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &Session{Token: token, UserID: user.ID, Name: user.Name}, nil
}

// CheckSession verifies a session token and returns the subject user ID.
// Any verification failure is reported as ErrUnauthenticated; the underlying
// tagged cause stays in the chain for callers that want it.
func (s *Service) CheckSession(token string) (string, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	return claims.Subject, nil
}

// ClaimsFromToken verifies a token and returns the full claims. Used where
// the UI needs the display name without a user lookup.
func (s *Service) ClaimsFromToken(token string) (*Claims, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	return claims, nil
}
