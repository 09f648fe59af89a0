package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrFileNotFound   = errors.New("file not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

// PageSize is the fixed number of file records returned per listing page.
const PageSize = 20

// Repository provides persistence for users and file records.
type Repository struct {
	db *DB
}

// NewRepository creates a new Repository.
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// CreateUser inserts a new user record. Returns ErrDuplicateEmail when the
// email is already taken.
func (r *Repository) CreateUser(ctx context.Context, user *User) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
	`,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByCredentials finds a user by email and password digest. The digest
// is deterministic, so login is an exact match on both columns.
func (r *Repository) GetUserByCredentials(ctx context.Context, email, passwordHash string) (*User, error) {
	user := &User{}
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, email, password_hash, created_at
		FROM users WHERE email = $1 AND password_hash = $2
	`, email, passwordHash).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetUserByID retrieves a user by its ID.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*User, error) {
	user := &User{}
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, email, password_hash, created_at
		FROM users WHERE id = $1
	`, id).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// CreateFile inserts a new file record.
func (r *Repository) CreateFile(ctx context.Context, file *File) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO files (id, user_id, name, type, is_public, parent_id, local_path, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		file.ID,
		file.UserID,
		file.Name,
		file.Type,
		file.IsPublic,
		file.ParentID,
		file.LocalPath,
		file.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	return nil
}

// GetFileByID retrieves a file record by ID alone, without owner scoping.
// Used by the content read path, which applies its own visibility rules.
func (r *Repository) GetFileByID(ctx context.Context, id string) (*File, error) {
	return r.queryFile(ctx, `
		SELECT id, user_id, name, type, is_public, parent_id, local_path, created_at
		FROM files WHERE id = $1
	`, id)
}

// GetFileOwned retrieves a file record only if it is owned by userID.
// A record owned by someone else is indistinguishable from a missing one.
func (r *Repository) GetFileOwned(ctx context.Context, id, userID string) (*File, error) {
	return r.queryFile(ctx, `
		SELECT id, user_id, name, type, is_public, parent_id, local_path, created_at
		FROM files WHERE id = $1 AND user_id = $2
	`, id, userID)
}

// ListFiles returns one page of records owned by userID under the given
// parent (nil = root), ordered for stable pagination.
func (r *Repository) ListFiles(ctx context.Context, userID string, parentID *string, page int) ([]*File, error) {
	if page < 0 {
		page = 0
	}
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, user_id, name, type, is_public, parent_id, local_path, created_at
		FROM files
		WHERE user_id = $1 AND parent_id IS NOT DISTINCT FROM $2
		ORDER BY created_at, id
		OFFSET $3 LIMIT $4
	`, userID, parentID, page*PageSize, PageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	defer rows.Close()

	files := []*File{}
	for rows.Next() {
		file := &File{}
		if err := rows.Scan(
			&file.ID,
			&file.UserID,
			&file.Name,
			&file.Type,
			&file.IsPublic,
			&file.ParentID,
			&file.LocalPath,
			&file.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan file: %w", err)
		}
		files = append(files, file)
	}
	return files, rows.Err()
}

// SetFileVisibility updates isPublic on a record owned by userID and returns
// the refreshed record. The update filters on both id and user_id so a caller
// can never flip visibility on someone else's record.
func (r *Repository) SetFileVisibility(ctx context.Context, id, userID string, isPublic bool) (*File, error) {
	return r.queryFile(ctx, `
		UPDATE files SET is_public = $3
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, name, type, is_public, parent_id, local_path, created_at
	`, id, userID, isPublic)
}

// CountUsers returns the total number of registered users.
func (r *Repository) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

// CountFiles returns the total number of file records.
func (r *Repository) CountFiles(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM files").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count files: %w", err)
	}
	return n, nil
}

func (r *Repository) queryFile(ctx context.Context, sql string, args ...any) (*File, error) {
	file := &File{}
	err := r.db.Pool.QueryRow(ctx, sql, args...).Scan(
		&file.ID,
		&file.UserID,
		&file.Name,
		&file.Type,
		&file.IsPublic,
		&file.ParentID,
		&file.LocalPath,
		&file.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to query file: %w", err)
	}
	return file, nil
}
