package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"depot/internal/server/database"
	"depot/internal/server/storage"
)

// CreateFileInput carries a validated upload request. ParentID is nil for
// the root; Data holds decoded content bytes and is ignored for folders.
type CreateFileInput struct {
	Name     string
	Type     string
	ParentID *string
	IsPublic bool
	Data     []byte
}

// FileService contains the business logic for file metadata and content:
// creation with parent-folder constraints, owner-scoped reads and listings,
// visibility toggles, and the public/owner content read rules.
type FileService struct {
	files FileStore
	blobs storage.BlobStore
}

// NewFileService creates a new file service.
func NewFileService(files FileStore, blobs storage.BlobStore) *FileService {
	return &FileService{
		files: files,
		blobs: blobs,
	}
}

// Create validates and persists a new file record. For non-folder types the
// content is written to the blob store under a fresh storage key before the
// record is inserted; the blob is removed again if the insert fails.
//
// Validation order is fixed: name, type, data, then parent.
func (s *FileService) Create(ctx context.Context, userID string, in CreateFileInput) (*database.File, error) {
	if in.Name == "" {
		return nil, ErrMissingName
	}
	if !database.ValidType(in.Type) {
		return nil, ErrInvalidType
	}
	if in.Type != database.TypeFolder && len(in.Data) == 0 {
		return nil, ErrMissingData
	}
	if in.ParentID != nil {
		parent, err := s.files.GetFileByID(ctx, *in.ParentID)
		if err != nil {
			if errors.Is(err, database.ErrFileNotFound) {
				return nil, ErrParentNotFound
			}
			return nil, fmt.Errorf("failed to look up parent: %w", err)
		}
		if parent.Type != database.TypeFolder {
			return nil, ErrParentNotFolder
		}
	}

	id, err := newID(idLength)
	if err != nil {
		return nil, err
	}

	var localPath *string
	if in.Type != database.TypeFolder {
		key, err := newID(idLength)
		if err != nil {
			return nil, err
		}
		if _, err := s.blobs.Save(ctx, key, bytes.NewReader(in.Data)); err != nil {
			return nil, fmt.Errorf("failed to store content: %w", err)
		}
		localPath = &key
	}

	file := &database.File{
		ID:        id,
		UserID:    userID,
		Name:      in.Name,
		Type:      in.Type,
		IsPublic:  in.IsPublic,
		ParentID:  in.ParentID,
		LocalPath: localPath,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.files.CreateFile(ctx, file); err != nil {
		if localPath != nil {
			s.blobs.Delete(ctx, *localPath)
		}
		return nil, fmt.Errorf("failed to create file record: %w", err)
	}

	slog.Info("file created",
		"file_id", file.ID,
		"user_id", userID,
		"type", file.Type,
	)
	return file, nil
}

// Get returns a record owned by userID. A record owned by someone else is
// reported exactly like a missing one, so callers cannot probe for
// existence of other users' files.
func (s *FileService) Get(ctx context.Context, userID, fileID string) (*database.File, error) {
	file, err := s.files.GetFileOwned(ctx, fileID, userID)
	if err != nil {
		if errors.Is(err, database.ErrFileNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get file: %w", err)
	}
	return file, nil
}

// List returns one page of userID's records under the given parent. Pages
// past the end yield an empty slice, never an error.
func (s *FileService) List(ctx context.Context, userID string, parentID *string, page int) ([]*database.File, error) {
	files, err := s.files.ListFiles(ctx, userID, parentID, page)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	return files, nil
}

// SetVisibility updates isPublic on a record owned by userID and returns
// the refreshed record.
func (s *FileService) SetVisibility(ctx context.Context, userID, fileID string, isPublic bool) (*database.File, error) {
	file, err := s.files.SetFileVisibility(ctx, fileID, userID, isPublic)
	if err != nil {
		if errors.Is(err, database.ErrFileNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update visibility: %w", err)
	}
	return file, nil
}

// ReadContent returns the content bytes for a file along with its record.
// requestorID is empty for anonymous requests. A private file is only
// readable by its owner, and a non-owner gets the same ErrNotFound as for a
// missing record. size > 0 selects a stored variant keyed by
// "<localPath>_<size>"; a missing variant reads like a missing file.
func (s *FileService) ReadContent(ctx context.Context, requestorID, fileID string, size int) ([]byte, *database.File, error) {
	file, err := s.files.GetFileByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, database.ErrFileNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to get file: %w", err)
	}

	owner := requestorID != "" && requestorID == file.UserID
	if !file.IsPublic && !owner {
		return nil, nil, ErrNotFound
	}
	if file.Type == database.TypeFolder {
		return nil, nil, ErrFolderHasNoContent
	}
	if file.LocalPath == nil {
		return nil, nil, ErrNotFound
	}

	key := *file.LocalPath
	if size > 0 {
		key = fmt.Sprintf("%s_%d", key, size)
	}

	data, err := s.blobs.Read(ctx, key)
	if err != nil {
		// A storage-layer miss must not reveal more than the metadata did.
		return nil, nil, ErrNotFound
	}
	return data, file, nil
}
