package service

import (
	"context"
	"time"

	"depot/internal/server/database"
)

// UserStore persists user accounts. Implemented by database.Repository;
// tests substitute in-memory fakes.
type UserStore interface {
	CreateUser(ctx context.Context, user *database.User) error
	GetUserByCredentials(ctx context.Context, email, passwordHash string) (*database.User, error)
	GetUserByID(ctx context.Context, id string) (*database.User, error)
}

// TokenStore is the expiring token -> userID mapping behind the auth gate.
// Implemented by session.Store. Get and Delete report misses with
// session.ErrTokenNotFound.
type TokenStore interface {
	Put(ctx context.Context, token, userID string, ttl time.Duration) error
	Get(ctx context.Context, token string) (string, error)
	Delete(ctx context.Context, token string) error
}

// FileStore persists file metadata records. Implemented by
// database.Repository. Misses are reported with database.ErrFileNotFound.
type FileStore interface {
	CreateFile(ctx context.Context, file *database.File) error
	GetFileByID(ctx context.Context, id string) (*database.File, error)
	GetFileOwned(ctx context.Context, id, userID string) (*database.File, error)
	ListFiles(ctx context.Context, userID string, parentID *string, page int) ([]*database.File, error)
	SetFileVisibility(ctx context.Context, id, userID string, isPublic bool) (*database.File, error)
}
