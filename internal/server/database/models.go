package database

import "time"

// User represents a registered account. PasswordHash is a deterministic
// digest of the password and is never returned to clients.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// FileType enumerates the kinds of file records.
const (
	TypeFolder = "folder"
	TypeFile   = "file"
	TypeImage  = "image"
)

// File represents a file or folder metadata record. ParentID is nil for
// records at the root. LocalPath is the content store key and is only set
// for non-folder records; it is never exposed to clients.
type File struct {
	ID        string
	UserID    string
	Name      string
	Type      string
	IsPublic  bool
	ParentID  *string
	LocalPath *string
	CreatedAt time.Time
}

// Stats holds collection counts for the stats endpoint.
type Stats struct {
	Users int64
	Files int64
}

// ValidType reports whether t is one of the accepted file types.
func ValidType(t string) bool {
	return t == TypeFolder || t == TypeFile || t == TypeImage
}
