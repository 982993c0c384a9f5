package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/medora-app/server/internal/apperror"
	"github.com/medora-app/server/internal/model"
	"github.com/medora-app/server/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// Create inserts a new user row and fills in ID and timestamps.
//
// There is deliberately no "does this email exist" pre-check: the UNIQUE
// constraint on users.email is the only arbiter, so two concurrent signups
// with the same email race at the constraint and exactly one wins. The
// loser gets repository.ErrDuplicateEmail.
func (db *DB) Create(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (name, email, password, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		user.Name,
		user.Email,
		user.PasswordHash,
		now,
		now,
	)
	if err != nil {
		if isUniqueViolation(err, "users.email") {
			return repository.ErrDuplicateEmail
		}
		return fmt.Errorf("sqlite: inserting user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading inserted user id: %w", err)
	}

	user.ID = id
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

// GetByEmail retrieves a user by email. Emails are compared exactly as
// stored (case-sensitive). Returns apperror.ErrNotFound if absent — the
// service layer decides how much of that to reveal to the client.
func (db *DB) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return db.getUser(ctx, `SELECT id, name, email, password, created_at, updated_at
		 FROM users WHERE email = ?`, email)
}

// GetByID retrieves a user by their numeric ID.
func (db *DB) GetByID(ctx context.Context, id int64) (*model.User, error) {
	u, err := db.getUser(ctx, `SELECT id, name, email, password, created_at, updated_at
		 FROM users WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, err
	}
	return u, nil
}

func (db *DB) getUser(ctx context.Context, query string, arg any) (*model.User, error) {
	var u model.User

	err := db.conn.QueryRowContext(ctx, query, arg).Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &apperror.AppError{Err: apperror.ErrNotFound, Message: "user not found"}
		}
		return nil, fmt.Errorf("sqlite: getting user: %w", err)
	}

	return &u, nil
}

// Update changes the user's name and email.
// The email UNIQUE constraint guards against taking another user's address.
func (db *DB) Update(ctx context.Context, id int64, name, email string) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET name = ?, email = ?, updated_at = ? WHERE id = ?`,
		name, email, time.Now().UTC(), id,
	)
	if err != nil {
		if isUniqueViolation(err, "users.email") {
			return repository.ErrDuplicateEmail
		}
		return fmt.Errorf("sqlite: updating user %d: %w", id, err)
	}

	return requireRow(res, "user", id)
}

// UpdatePassword replaces the stored bcrypt hash.
func (db *DB) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET password = ?, updated_at = ? WHERE id = ?`,
		passwordHash, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating password for user %d: %w", id, err)
	}

	return requireRow(res, "user", id)
}

// Delete hard-deletes the user row. Sessions and the profile row are
// removed by the foreign-key cascade in the same statement.
func (db *DB) Delete(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting user %d: %w", id, err)
	}

	return requireRow(res, "user", id)
}

// requireRow converts "zero rows affected" into a NotFound error, so
// updates and deletes against a vanished user surface as 404 rather than
// silently succeeding.
func requireRow(res sql.Result, resource string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: reading affected rows: %w", err)
	}
	if n == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}
