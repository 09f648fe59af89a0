package service

import "errors"

// Sentinel errors for the service layer. The API layer maps these onto
// HTTP statuses and response messages.
var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrMissingEmail    = errors.New("missing email")
	ErrMissingPassword = errors.New("missing password")
	ErrEmailTaken      = errors.New("email already registered")

	ErrMissingName        = errors.New("missing file name")
	ErrInvalidType        = errors.New("missing or invalid file type")
	ErrMissingData        = errors.New("missing file data")
	ErrParentNotFound     = errors.New("parent not found")
	ErrParentNotFolder    = errors.New("parent is not a folder")
	ErrNotFound           = errors.New("not found")
	ErrFolderHasNoContent = errors.New("folder has no content")
)
