package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"parcela/internal/core"
)

// Authenticator is the credential-check collaborator: it registers users and
// verifies username/password pairs. Password hashes never leave this type.
type Authenticator struct {
	users UserStore
}

func NewAuthenticator(users UserStore) *Authenticator {
	return &Authenticator{users: users}
}

// Register creates a new account with a bcrypt-hashed password.
func (a *Authenticator) Register(ctx context.Context, name, password string) (core.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.User{}, core.ErrEmptyUsername
	}
	if password == "" {
		return core.User{}, core.ErrEmptyPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return core.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := a.users.CreateUser(ctx, name, hash)
	if err != nil {
		return core.User{}, fmt.Errorf("create user %q: %w", name, err)
	}

	slog.InfoContext(ctx, "User registered", "user_id", user.ID, "name", user.Name)
	return user, nil
}

// VerifyCredentials checks a username/password pair and returns the matching
// user. An unknown name and a wrong password both report
// ErrInvalidCredentials, so callers cannot probe for existing accounts.
func (a *Authenticator) VerifyCredentials(ctx context.Context, name, password string) (core.User, error) {
	user, hash, err := a.users.GetUserByName(ctx, strings.TrimSpace(name))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.User{}, ErrInvalidCredentials
		}
		return core.User{}, fmt.Errorf("lookup user %q: %w", name, err)
	}

	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return core.User{}, ErrInvalidCredentials
	}
	return user, nil
}
