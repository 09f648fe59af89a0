package api

import (
	"encoding/json"
	"fmt"
	"strconv"

	"depot/internal/server/database"
)

// registerRequest is the POST /users body. Fields are declared in the order
// the contract validates them.
type registerRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// createFileRequest is the POST /files body. Data carries base64-encoded
// content and is required for everything but folders.
type createFileRequest struct {
	Name     string   `json:"name" validate:"required"`
	Type     string   `json:"type" validate:"required,oneof=folder file image"`
	Data     string   `json:"data" validate:"required_unless=Type folder"`
	ParentID parentID `json:"parentId"`
	IsPublic bool     `json:"isPublic"`
}

// parentID is a tagged Root-or-Reference value. Clients send the number 0,
// the string "0", an empty string or null for the root, or a record id.
type parentID struct {
	id string
}

func (p *parentID) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		// root
	case float64:
		if v != 0 {
			p.id = strconv.FormatFloat(v, 'f', -1, 64)
		}
	case string:
		if v != "" && v != "0" {
			p.id = v
		}
	default:
		return fmt.Errorf("invalid parentId")
	}
	return nil
}

// Ref returns nil for the root, or a pointer to the referenced record id.
func (p parentID) Ref() *string {
	if p.id == "" {
		return nil
	}
	id := p.id
	return &id
}

// parseParentID interprets a parentId query parameter the same way the JSON
// field is interpreted.
func parseParentID(raw string) *string {
	if raw == "" || raw == "0" {
		return nil
	}
	return &raw
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// fileResponse is the client view of a file record. The storage key never
// leaves the server. ParentID renders as 0 for the root.
type fileResponse struct {
	ID       string `json:"id"`
	UserID   string `json:"userId"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	IsPublic bool   `json:"isPublic"`
	ParentID any    `json:"parentId"`
}

func toUserResponse(u *database.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email}
}

func toFileResponse(f *database.File) fileResponse {
	var parent any = 0
	if f.ParentID != nil {
		parent = *f.ParentID
	}
	return fileResponse{
		ID:       f.ID,
		UserID:   f.UserID,
		Name:     f.Name,
		Type:     f.Type,
		IsPublic: f.IsPublic,
		ParentID: parent,
	}
}

func toFileResponses(files []*database.File) []fileResponse {
	out := make([]fileResponse, 0, len(files))
	for _, f := range files {
		out = append(out, toFileResponse(f))
	}
	return out
}
