package services

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"ledger/internal/core"
)

// ErrInvalidCredentials is returned for both unknown usernames and wrong
// passwords; callers get no hint which one it was.
var ErrInvalidCredentials = errors.New("invalid username or password")

// UserService handles account registration and credential checks. Passwords
// are bcrypt-hashed before they reach the store and never leave it again.
type UserService struct {
	store UserStore
}

func NewUserService(store UserStore) *UserService {
	return &UserService{store: store}
}

// Register creates a new account with a hashed credential.
func (s *UserService) Register(ctx context.Context, username, password string, role core.Role) (core.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return core.User{}, errors.New("username cannot be empty")
	}
	if password == "" {
		return core.User{}, errors.New("password cannot be empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return core.User{}, err
	}

	u := core.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
	}
	if _, err := s.store.Create(ctx, &u); err != nil {
		return core.User{}, err
	}

	u.PasswordHash = ""
	return u, nil
}

// Authenticate verifies username/password and returns the matching user with
// the credential stripped.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*core.User, error) {
	u, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	u.PasswordHash = ""
	return u, nil
}

// List returns all accounts, credentials omitted.
func (s *UserService) List(ctx context.Context) ([]core.User, error) {
	return s.store.List(ctx)
}
