// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes the database
//
// Services accept primitives and return domain errors — zero knowledge of
// HTTP. The handler translates apperror values into status codes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/medora-app/server/internal/apperror"
	"github.com/medora-app/server/internal/auth"
	"github.com/medora-app/server/internal/model"
	"github.com/medora-app/server/internal/repository"
)

// genericLoginMessage is sent for BOTH unknown-email and wrong-password
// failures. Distinguishing them would let an attacker enumerate which
// emails have accounts.
const genericLoginMessage = "invalid email or password"

// Signup payload rules. The password must be at least 8 characters and
// contain one character from each class.
var (
	emailPattern         = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	passwordUpperPattern = regexp.MustCompile(`[A-Z]`)
	passwordLowerPattern = regexp.MustCompile(`[a-z]`)
	passwordDigitPattern = regexp.MustCompile(`[0-9]`)
	passwordSpecPattern  = regexp.MustCompile(`[!@#$%^&*]`)
)

// AuthService handles registration, login and account lifecycle.
//
// DEPENDENCIES (injected via NewAuthService):
//   - users     repository.UserRepository    → credential store
//   - sessions  repository.SessionRepository → append-only login log
//   - tokens    *auth.TokenService           → JWT issue/verify
//   - passwords *auth.PasswordService        → bcrypt hashing
//   - logger    *slog.Logger                 → structured logging
type AuthService struct {
	users     repository.UserRepository
	sessions  repository.SessionRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		sessions:  sessions,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the user record and the issued JWT so the handler can
// respond in one step.
type AuthResult struct {
	User  model.SanitizedUser
	Token string
}

// Signup registers a new account.
//
// Steps: validate the payload, hash the password, insert the user, issue a
// token. There is no duplicate-email pre-check — the repository's unique
// constraint decides, and a violation comes back as a Conflict.
func (s *AuthService) Signup(ctx context.Context, name, email, password string) (*AuthResult, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if err := validateSignup(name, email, password); err != nil {
		return nil, err
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperror.Conflict("email is already registered")
		}
		s.logger.Error("signup: inserting user failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	token, _, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing token for user %d: %w", user.ID, err)
	}

	s.logger.Info("user registered", slog.Int64("userID", user.ID))

	return &AuthResult{User: user.Sanitized(), Token: token}, nil
}

// Login authenticates an email/password pair.
//
// Both failure modes, unknown email and wrong password, return the same
// Unauthorized error with the same generic message. On success a token is
// issued and a session row appended; the session insert is part of login,
// so a failure there fails the whole request.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperror.ValidationFailed("", "email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized(genericLoginMessage)
		}
		s.logger.Error("login: looking up user failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("service/auth: looking up user: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.Unauthorized(genericLoginMessage)
	}

	token, claims, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing token for user %d: %w", user.ID, err)
	}

	session := &model.Session{
		UserID:  user.ID,
		TokenID: claims.TokenID(),
		Token:   token,
	}
	if err := s.sessions.Append(ctx, session); err != nil {
		s.logger.Error("login: recording session failed",
			slog.Int64("userID", user.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/auth: recording session: %w", err)
	}

	s.logger.Info("user logged in",
		slog.Int64("userID", user.ID),
		slog.String("tokenID", claims.TokenID()),
	)

	return &AuthResult{User: user.Sanitized(), Token: token}, nil
}

// UpdateAccount changes the caller's name and email address.
//
// The new email is subject to the same unique constraint as signup, so a
// collision with another account comes back as a Conflict. The email also
// lives inside the JWT claims, so a fresh token is issued and returned —
// the old one keeps verifying until expiry but carries the stale address.
func (s *AuthService) UpdateAccount(ctx context.Context, userID int64, name, email string) (*AuthResult, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if err := validateAccount(name, email); err != nil {
		return nil, err
	}

	if err := s.users.Update(ctx, userID, name, email); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperror.Conflict("email is already registered")
		}
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	token, _, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing token for user %d: %w", user.ID, err)
	}

	s.logger.Info("account updated", slog.Int64("userID", userID))

	return &AuthResult{User: user.Sanitized(), Token: token}, nil
}

// ChangePassword verifies the current password and stores a hash of the
// new one. A wrong current password is a validation failure (400), not an
// auth failure — the caller already holds a valid token.
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return apperror.ValidationFailed("", "current password and new password are required")
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.passwords.Verify(user.PasswordHash, currentPassword); err != nil {
		return apperror.ValidationFailed("currentPassword", "current password is incorrect")
	}

	hash, err := s.passwords.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("service/auth: hashing new password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}

	s.logger.Info("password changed", slog.Int64("userID", userID))
	return nil
}

// DeleteAccount verifies the password re-confirmation and hard-deletes the
// user row. Sessions and the profile go with it via the cascade. The
// caller's token keeps verifying until expiry, but every store-touching
// request after this returns NotFound.
func (s *AuthService) DeleteAccount(ctx context.Context, userID int64, password string) error {
	if password == "" {
		return apperror.ValidationFailed("password", "password is required")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return apperror.ValidationFailed("password", "password is incorrect")
	}

	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}

	s.logger.Info("account deleted", slog.Int64("userID", userID))
	return nil
}

// Sessions returns the caller's login history, newest first.
func (s *AuthService) Sessions(ctx context.Context, userID int64) ([]model.Session, error) {
	sessions, err := s.sessions.ListByUserID(ctx, userID)
	if err != nil {
		s.logger.Error("listing sessions failed",
			slog.Int64("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/auth: listing sessions: %w", err)
	}
	return sessions, nil
}

// validateSignup applies the signup payload rules. The first failing rule
// wins, and its message is returned to the client as a 400.
func validateSignup(name, email, password string) error {
	if err := validateAccount(name, email); err != nil {
		return err
	}
	return validatePassword(password)
}

// validateAccount applies the name and email rules shared by signup and
// account update.
func validateAccount(name, email string) error {
	if err := validation.Validate(name,
		validation.Required.Error("name is required"),
	); err != nil {
		return apperror.ValidationFailed("name", err.Error())
	}

	if err := validation.Validate(email,
		validation.Required.Error("email is required"),
		validation.Match(emailPattern).Error("invalid email format"),
	); err != nil {
		return apperror.ValidationFailed("email", err.Error())
	}

	return nil
}

// validatePassword enforces the password strength rules: length and one
// character from each of the four classes.
func validatePassword(password string) error {
	err := validation.Validate(password,
		validation.Required.Error("password is required"),
		validation.Length(8, 0).Error("password must be at least 8 characters long"),
		validation.Match(passwordUpperPattern).Error("password must contain at least one uppercase letter"),
		validation.Match(passwordLowerPattern).Error("password must contain at least one lowercase letter"),
		validation.Match(passwordDigitPattern).Error("password must contain at least one number"),
		validation.Match(passwordSpecPattern).Error("password must contain at least one special character (!@#$%^&*)"),
	)
	if err != nil {
		return apperror.ValidationFailed("password", err.Error())
	}
	return nil
}
