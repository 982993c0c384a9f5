// Package handler contains the HTTP layer: request parsing, response
// shaping, and the translation of domain errors into status codes.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/medora-app/server/internal/auth"
	"github.com/medora-app/server/internal/model"
	"github.com/medora-app/server/internal/service"
)

// AuthHandler exposes the account endpoints.
//
//	POST   /api/signup          → register, returns 201 with token + user
//	POST   /api/login           → authenticate, returns token + user
//	POST   /api/logout          → stateless no-op, 200 unconditionally
//	GET    /api/sessions        → caller's login history (auth)
//	PUT    /api/user            → update name/email, returns fresh token (auth)
//	PUT    /api/change-password → verify current, store new hash (auth)
//	DELETE /api/account         → password re-confirmation, hard delete (auth)
type AuthHandler struct {
	authService *service.AuthService
	logger      *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(authService *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateAccountRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type deleteAccountRequest struct {
	Password string `json:"password"`
}

// authResponse is the success body for signup and login.
type authResponse struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Token   string              `json:"token"`
	User    model.SanitizedUser `json:"user"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// HandleSignup registers a new account.
//
// HTTP: POST /api/signup
// The response never includes the password hash — SanitizedUser carries
// only the public fields.
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid request body",
		})
		return
	}

	result, err := h.authService.Signup(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{
		Success: true,
		Message: "user registered successfully",
		Token:   result.Token,
		User:    result.User,
	})
}

// HandleLogin authenticates an email/password pair.
//
// HTTP: POST /api/login
// Unknown email and wrong password produce byte-identical 401 responses;
// the distinction never leaves the server.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid request body",
		})
		return
	}

	result, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		Success: true,
		Message: "login successful",
		Token:   result.Token,
		User:    result.User,
	})
}

// HandleLogout responds 200 unconditionally.
//
// HTTP: POST /api/logout
// Tokens are stateless, so there is nothing to invalidate server-side: the
// client discards its stored token and the JWT dies at its natural expiry.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, messageResponse{
		Success: true,
		Message: "logged out successfully",
	})
}

// HandleSessions returns the caller's login history.
//
// HTTP: GET /api/sessions
// Auth: required. Only the caller's own rows are visible.
func (h *AuthHandler) HandleSessions(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, errMissingClaims(h.logger, r))
		return
	}

	sessions, err := h.authService.Sessions(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"sessions": sessions,
	})
}

// HandleUpdateAccount changes the caller's name and email.
//
// HTTP: PUT /api/user
// Auth: required. 409 when the new email belongs to another account. The
// response carries a fresh token — the email claim inside the old JWT is
// stale the moment the update lands, so the client swaps tokens here the
// same way it does after login.
func (h *AuthHandler) HandleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, errMissingClaims(h.logger, r))
		return
	}

	var req updateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid request body",
		})
		return
	}

	result, err := h.authService.UpdateAccount(r.Context(), claims.UserID, req.Name, req.Email)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		Success: true,
		Message: "account updated successfully",
		Token:   result.Token,
		User:    result.User,
	})
}

// HandleChangePassword verifies the current password and stores the new one.
//
// HTTP: PUT /api/change-password
// Auth: required. 400 when the current password doesn't match, 404 when
// the account vanished under a still-valid token.
func (h *AuthHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, errMissingClaims(h.logger, r))
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid request body",
		})
		return
	}

	if err := h.authService.ChangePassword(r.Context(), claims.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{
		Success: true,
		Message: "password changed successfully",
	})
}

// HandleDeleteAccount hard-deletes the caller's account.
//
// HTTP: DELETE /api/account
// Auth: required, plus password re-confirmation in the body. The cascade
// removes the caller's sessions and profile in the same statement.
func (h *AuthHandler) HandleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, errMissingClaims(h.logger, r))
		return
	}

	var req deleteAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid request body",
		})
		return
	}

	if err := h.authService.DeleteAccount(r.Context(), claims.UserID, req.Password); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{
		Success: true,
		Message: "account deleted successfully",
	})
}
