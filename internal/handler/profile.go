package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/medora-app/server/internal/auth"
	"github.com/medora-app/server/internal/model"
	"github.com/medora-app/server/internal/service"
)

// ProfileHandler exposes the health-profile endpoints. Both sit behind
// RequireAuth; the owning user comes from the token claims, never from the
// request body or URL.
type ProfileHandler struct {
	profileService *service.ProfileService
	logger         *slog.Logger
}

// NewProfileHandler creates a ProfileHandler.
func NewProfileHandler(profileService *service.ProfileService, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		logger:         logger,
	}
}

// profileRequest mirrors the client form fields. UserID and Email are
// ignored on input — identity comes from the claims.
type profileRequest struct {
	FullName          string `json:"fullName"`
	DOB               string `json:"dob"`
	Gender            string `json:"gender"`
	Height            string `json:"height"`
	Weight            string `json:"weight"`
	BloodType         string `json:"bloodType"`
	PrimaryGoal       string `json:"primaryGoal"`
	ActivityLevel     string `json:"activityLevel"`
	MedicalConditions string `json:"medicalConditions"`
	EmergencyName     string `json:"emergencyName"`
	EmergencyPhone    string `json:"emergencyPhone"`
}

// HandleGet returns the caller's profile.
//
// HTTP: GET /api/profile
// A user who has never saved a profile gets 200 with every field empty —
// never a 404. The client renders the empty object as a blank form.
func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, errMissingClaims(h.logger, r))
		return
	}

	profile, err := h.profileService.Get(r.Context(), claims.UserID, claims.Email)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"profile": profile,
	})
}

// HandleUpsert saves the caller's profile.
//
// HTTP: POST /api/profile and PUT /api/profile (the client pages use both;
// they behave identically — insert on first write, update after).
func (h *ProfileHandler) HandleUpsert(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, errMissingClaims(h.logger, r))
		return
	}

	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid request body",
		})
		return
	}

	profile := &model.Profile{
		UserID:            claims.UserID,
		FullName:          req.FullName,
		DOB:               req.DOB,
		Gender:            req.Gender,
		Height:            req.Height,
		Weight:            req.Weight,
		BloodType:         req.BloodType,
		PrimaryGoal:       req.PrimaryGoal,
		ActivityLevel:     req.ActivityLevel,
		MedicalConditions: req.MedicalConditions,
		EmergencyName:     req.EmergencyName,
		EmergencyPhone:    req.EmergencyPhone,
	}

	if err := h.profileService.Upsert(r.Context(), profile); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{
		Success: true,
		Message: "profile updated successfully",
	})
}
