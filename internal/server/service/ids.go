package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// idLength is the length of server-assigned record and storage-key IDs.
const idLength = 24

// newID produces a cryptographically secure, URL-safe random identifier.
func newID(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	result := make([]byte, length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", fmt.Errorf("crypto/rand failure: %w", err)
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}

// newToken produces an opaque, unguessable bearer token.
func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("crypto/rand failure: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// passwordDigest derives a deterministic one-way digest of a password. The
// salt is derived from the email so the digest is stable per account, which
// lets login look up the user by {email, digest} in a single query.
func passwordDigest(email, password string) string {
	salt := []byte("depot/v1:" + strings.ToLower(email))
	key := pbkdf2.Key([]byte(password), salt, 4096, 32, sha256.New)
	return hex.EncodeToString(key)
}
