package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"depot/internal/server/database"
	"depot/internal/server/session"
)

const basicPrefix = "Basic "

// AuthService is the authentication gate: it registers accounts, mints and
// revokes bearer tokens, and resolves presented tokens to user identities.
type AuthService struct {
	users    UserStore
	sessions TokenStore
	ttl      time.Duration
}

// NewAuthService creates the auth gate. ttl is the fixed session lifetime;
// sessions are never extended by activity.
func NewAuthService(users UserStore, sessions TokenStore, ttl time.Duration) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		ttl:      ttl,
	}
}

// Register creates a new account with a deterministic password digest.
func (s *AuthService) Register(ctx context.Context, email, password string) (*database.User, error) {
	if email == "" {
		return nil, ErrMissingEmail
	}
	if password == "" {
		return nil, ErrMissingPassword
	}

	id, err := newID(idLength)
	if err != nil {
		return nil, err
	}

	user := &database.User{
		ID:           id,
		Email:        email,
		PasswordHash: passwordDigest(email, password),
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	slog.Info("user registered", "user_id", user.ID)
	return user, nil
}

// Connect verifies Basic credentials from an Authorization header value and
// mints a fresh session token for the matching user. A user may hold any
// number of concurrent tokens.
func (s *AuthService) Connect(ctx context.Context, authorization string) (string, error) {
	if !strings.HasPrefix(authorization, basicPrefix) {
		return "", ErrUnauthorized
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(authorization, basicPrefix))
	if err != nil {
		return "", ErrUnauthorized
	}

	email, password, ok := strings.Cut(string(decoded), ":")
	if !ok || email == "" || password == "" {
		return "", ErrUnauthorized
	}

	user, err := s.users.GetUserByCredentials(ctx, email, passwordDigest(email, password))
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return "", ErrUnauthorized
		}
		return "", fmt.Errorf("failed to verify credentials: %w", err)
	}

	token, err := newToken()
	if err != nil {
		return "", err
	}

	if err := s.sessions.Put(ctx, token, user.ID, s.ttl); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}

	slog.Info("session minted", "user_id", user.ID)
	return token, nil
}

// Resolve validates a presented token and returns the user it belongs to.
// Expiry is enforced by the token store; resolving never refreshes it.
func (s *AuthService) Resolve(ctx context.Context, token string) (*database.User, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}

	userID, err := s.sessions.Get(ctx, token)
	if err != nil {
		if errors.Is(err, session.ErrTokenNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to resolve token: %w", err)
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}
	return user, nil
}

// Disconnect revokes a token. Revoking an already-revoked token fails with
// ErrUnauthorized, the same as any other dead token.
func (s *AuthService) Disconnect(ctx context.Context, token string) error {
	user, err := s.Resolve(ctx, token)
	if err != nil {
		return err
	}

	if err := s.sessions.Delete(ctx, token); err != nil {
		if errors.Is(err, session.ErrTokenNotFound) {
			return ErrUnauthorized
		}
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	slog.Info("session revoked", "user_id", user.ID)
	return nil
}
