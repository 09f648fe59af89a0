// Package session implements the expiring token store backing authentication.
//
// Tokens map to user IDs in an embedded BadgerDB database. Expiry is enforced
// by the store itself through per-entry TTLs; nothing in the application polls
// for stale sessions, and a token never has its lifetime extended by use.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

// ErrTokenNotFound is returned when a token has no live session entry,
// either because it was never issued, was revoked, or has expired.
var ErrTokenNotFound = errors.New("token not found")

// keyPrefix namespaces session entries within the database.
const keyPrefix = "auth_"

// Store is a token -> userID store with per-entry expiry.
type Store struct {
	db *badger.DB
}

// New opens (or creates) the session database at path.
func New(path string) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}
	return &Store{db: db}, nil
}

// NewInMemory opens a session store with no backing files. Sessions do not
// survive a restart; mainly useful in tests.
func NewInMemory() (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}
	return &Store{db: db}, nil
}

// Put stores a token -> userID mapping that the store evicts after ttl.
func (s *Store) Put(ctx context.Context, token, userID string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(key(token), []byte(userID)).WithTTL(ttl)
		if err := txn.SetEntry(entry); err != nil {
			return fmt.Errorf("failed to store session: %w", err)
		}
		return nil
	})
}

// Get resolves a token to the userID it was minted for. Returns
// ErrTokenNotFound for unknown, revoked, or expired tokens.
func (s *Store) Get(ctx context.Context, token string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var userID string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(token))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			userID = string(val)
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return "", ErrTokenNotFound
		}
		return "", fmt.Errorf("failed to read session: %w", err)
	}
	return userID, nil
}

// Delete revokes a token. Returns ErrTokenNotFound if there is no live entry,
// so revoking the same token twice fails the second time.
func (s *Store) Delete(ctx context.Context, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key(token)); err != nil {
			return err
		}
		return txn.Delete(key(token))
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrTokenNotFound
		}
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Alive reports whether the store is open and usable.
func (s *Store) Alive() bool {
	return s.db != nil && !s.db.IsClosed()
}

// Close shuts down the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func key(token string) []byte {
	return []byte(keyPrefix + token)
}
