package auth

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Sentinel errors surfaced to the HTTP layer.
var (
	ErrDuplicateEmail     = errors.New("user already exists")
	ErrUnknownEmail       = errors.New("user does not exist")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// UserStore is the persistence surface the service needs.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, u *User) error
}

// Service handles registration, login, and token issuance.
type Service struct {
	users  UserStore
	secret string
	issuer string
	ttl    time.Duration
}

// NewService creates a service. ttl bounds issued tokens.
func NewService(users UserStore, secret, issuer string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Service{users: users, secret: secret, issuer: issuer, ttl: ttl}
}

// Register stores a new user with a bcrypt password hash. The plaintext
// password is never persisted.
func (s *Service) Register(ctx context.Context, name, email, password string) error {
	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrDuplicateEmail
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.users.Create(ctx, &User{Name: name, Email: email, PasswordHash: string(hash)})
}

// Login verifies credentials and issues a time-bounded bearer token.
func (s *Service) Login(ctx context.Context, email, password string) (string, User, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return "", User{}, err
	}
	if u == nil {
		return "", User{}, ErrUnknownEmail
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", User{}, ErrInvalidCredentials
	}
	token, _, err := Issue(u.ID, s.issuer, s.secret, s.ttl)
	if err != nil {
		return "", User{}, err
	}
	return token, *u, nil
}
