// Package repository declares the storage interfaces the service layer
// depends on. Concrete implementations live in subpackages (sqlite);
// tests use in-memory fakes.
package repository

import (
	"context"
	"errors"

	"github.com/medora-app/server/internal/model"
)

// ErrDuplicateEmail is returned by UserRepository.Create when the email is
// already taken. Implementations must detect this via the store's unique
// constraint, not a pre-check read — two concurrent signups with the same
// email must leave exactly one row.
var ErrDuplicateEmail = errors.New("repository: email already registered")

type UserRepository interface {
	// Create inserts a new user and fills in ID and timestamps.
	// Returns ErrDuplicateEmail if the email is already present.
	Create(ctx context.Context, user *model.User) error
	// GetByEmail returns the user with the given email, or apperror.ErrNotFound.
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// GetByID returns the user with the given ID, or apperror.ErrNotFound.
	GetByID(ctx context.Context, id int64) (*model.User, error)
	// Update changes name and email. Returns ErrDuplicateEmail if the new
	// email belongs to another user, apperror.ErrNotFound if the row is gone.
	Update(ctx context.Context, id int64, name, email string) error
	// UpdatePassword replaces the stored password hash.
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	// Delete hard-deletes the user. Sessions and profile rows go with it
	// (ON DELETE CASCADE). Returns apperror.ErrNotFound if no row existed.
	Delete(ctx context.Context, id int64) error
}

type SessionRepository interface {
	// Append records an issued token. Rows are never updated.
	Append(ctx context.Context, session *model.Session) error
	// ListByUserID returns the user's sessions, newest first.
	ListByUserID(ctx context.Context, userID int64) ([]model.Session, error)
}

type ProfileRepository interface {
	// Upsert writes the profile for profile.UserID in a single atomic
	// statement: insert on first write, update in place after. Two
	// concurrent writers for the same user must not produce two rows.
	// Returns apperror.ErrNotFound if the user row no longer exists.
	Upsert(ctx context.Context, profile *model.Profile) error
	// GetByUserID returns the profile row, or apperror.ErrNotFound if the
	// user has never written one.
	GetByUserID(ctx context.Context, userID int64) (*model.Profile, error)
}
