// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// The primary key is a numeric ID generated by the database. Email is the
// external identifier users log in with — a UNIQUE constraint in the DB
// guarantees no two live accounts share one.
//
// WHY json:"-" ON PasswordHash?
// The hash must never appear in an API response, no matter which handler
// serializes the struct. Tagging it "-" makes encoding/json skip it even if
// a handler forgets to sanitize. SanitizedUser exists for the explicit case.
type User struct {
	ID           int64     `json:"id"        db:"id"`
	Name         string    `json:"name"      db:"name"`
	Email        string    `json:"email"     db:"email"`
	PasswordHash string    `json:"-"         db:"password"` // bcrypt digest, never serialized
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// SanitizedUser is the public view of a User returned from signup and login.
type SanitizedUser struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// Sanitized returns the public view of the user.
func (u *User) Sanitized() SanitizedUser {
	return SanitizedUser{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}
