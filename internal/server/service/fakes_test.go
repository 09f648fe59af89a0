package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"time"

	"depot/internal/server/database"
	"depot/internal/server/session"
)

// In-memory store fakes standing in for the Postgres repository, the badger
// session store and the blob store.

type fakeUserStore struct {
	users map[string]*database.User // by ID
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]*database.User{}}
}

func (f *fakeUserStore) CreateUser(_ context.Context, user *database.User) error {
	for _, u := range f.users {
		if u.Email == user.Email {
			return database.ErrDuplicateEmail
		}
	}
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserStore) GetUserByCredentials(_ context.Context, email, passwordHash string) (*database.User, error) {
	for _, u := range f.users {
		if u.Email == email && u.PasswordHash == passwordHash {
			copied := *u
			return &copied, nil
		}
	}
	return nil, database.ErrUserNotFound
}

func (f *fakeUserStore) GetUserByID(_ context.Context, id string) (*database.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, database.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

type fakeTokenStore struct {
	tokens map[string]string
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{tokens: map[string]string{}}
}

func (f *fakeTokenStore) Put(_ context.Context, token, userID string, _ time.Duration) error {
	f.tokens[token] = userID
	return nil
}

func (f *fakeTokenStore) Get(_ context.Context, token string) (string, error) {
	userID, ok := f.tokens[token]
	if !ok {
		return "", session.ErrTokenNotFound
	}
	return userID, nil
}

func (f *fakeTokenStore) Delete(_ context.Context, token string) error {
	if _, ok := f.tokens[token]; !ok {
		return session.ErrTokenNotFound
	}
	delete(f.tokens, token)
	return nil
}

type fakeFileStore struct {
	files      map[string]*database.File
	order      []string // insertion order, for deterministic listings
	failCreate error
}

func newFakeFileStore() *fakeFileStore {
	return &fakeFileStore{files: map[string]*database.File{}}
}

func (f *fakeFileStore) CreateFile(_ context.Context, file *database.File) error {
	if f.failCreate != nil {
		return f.failCreate
	}
	copied := *file
	f.files[file.ID] = &copied
	f.order = append(f.order, file.ID)
	return nil
}

func (f *fakeFileStore) GetFileByID(_ context.Context, id string) (*database.File, error) {
	file, ok := f.files[id]
	if !ok {
		return nil, database.ErrFileNotFound
	}
	copied := *file
	return &copied, nil
}

func (f *fakeFileStore) GetFileOwned(_ context.Context, id, userID string) (*database.File, error) {
	file, ok := f.files[id]
	if !ok || file.UserID != userID {
		return nil, database.ErrFileNotFound
	}
	copied := *file
	return &copied, nil
}

func (f *fakeFileStore) ListFiles(_ context.Context, userID string, parentID *string, page int) ([]*database.File, error) {
	if page < 0 {
		page = 0
	}
	matched := []*database.File{}
	for _, id := range f.order {
		file := f.files[id]
		if file.UserID != userID || !sameParent(file.ParentID, parentID) {
			continue
		}
		copied := *file
		matched = append(matched, &copied)
	}
	start := page * database.PageSize
	if start >= len(matched) {
		return []*database.File{}, nil
	}
	end := start + database.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], nil
}

func (f *fakeFileStore) SetFileVisibility(_ context.Context, id, userID string, isPublic bool) (*database.File, error) {
	file, ok := f.files[id]
	if !ok || file.UserID != userID {
		return nil, database.ErrFileNotFound
	}
	file.IsPublic = isPublic
	copied := *file
	return &copied, nil
}

func sameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

type fakeBlobStore struct {
	blobs    map[string][]byte
	failSave error
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{blobs: map[string][]byte{}}
}

func (f *fakeBlobStore) EnsureReady(context.Context) error { return nil }

func (f *fakeBlobStore) Save(_ context.Context, key string, data io.Reader) (int64, error) {
	if f.failSave != nil {
		return 0, f.failSave
	}
	var buf bytes.Buffer
	n, err := io.Copy(&buf, data)
	if err != nil {
		return 0, err
	}
	f.blobs[key] = buf.Bytes()
	return n, nil
}

func (f *fakeBlobStore) Read(_ context.Context, key string) ([]byte, error) {
	data, ok := f.blobs[key]
	if !ok {
		return nil, errors.New("blob not found")
	}
	return data, nil
}

func (f *fakeBlobStore) Delete(_ context.Context, key string) error {
	delete(f.blobs, key)
	return nil
}
