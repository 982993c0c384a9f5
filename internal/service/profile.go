package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/medora-app/server/internal/apperror"
	"github.com/medora-app/server/internal/model"
	"github.com/medora-app/server/internal/repository"
)

// ProfileService handles health-profile reads and writes.
type ProfileService struct {
	profiles repository.ProfileRepository
	logger   *slog.Logger
}

// NewProfileService creates a ProfileService.
func NewProfileService(profiles repository.ProfileRepository, logger *slog.Logger) *ProfileService {
	return &ProfileService{
		profiles: profiles,
		logger:   logger,
	}
}

// Get returns the user's profile.
//
// A user who has never written a profile gets an empty, well-shaped
// Profile back — not a NotFound. The client form expects every field to
// exist so it can render blank inputs. Email always comes from the token
// claims, never from the profiles table.
func (s *ProfileService) Get(ctx context.Context, userID int64, email string) (*model.Profile, error) {
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return &model.Profile{UserID: userID, Email: email}, nil
		}
		s.logger.Error("fetching profile failed",
			slog.Int64("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/profile: fetching profile: %w", err)
	}

	profile.Email = email
	return profile, nil
}

// Upsert writes the user's profile. First write inserts, later writes
// update in place; the repository does it in one atomic statement, so the
// result of writing the same payload twice is the same stored row.
func (s *ProfileService) Upsert(ctx context.Context, profile *model.Profile) error {
	if profile.UserID == 0 {
		return apperror.ValidationFailed("userId", "profile owner is required")
	}

	trimProfile(profile)

	if err := s.profiles.Upsert(ctx, profile); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			// Account deleted while the token was still in flight.
			return err
		}
		s.logger.Error("upserting profile failed",
			slog.Int64("userID", profile.UserID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("service/profile: upserting profile: %w", err)
	}

	s.logger.Info("profile saved", slog.Int64("userID", profile.UserID))
	return nil
}

func trimProfile(p *model.Profile) {
	p.FullName = strings.TrimSpace(p.FullName)
	p.DOB = strings.TrimSpace(p.DOB)
	p.Gender = strings.TrimSpace(p.Gender)
	p.Height = strings.TrimSpace(p.Height)
	p.Weight = strings.TrimSpace(p.Weight)
	p.BloodType = strings.TrimSpace(p.BloodType)
	p.PrimaryGoal = strings.TrimSpace(p.PrimaryGoal)
	p.ActivityLevel = strings.TrimSpace(p.ActivityLevel)
	p.MedicalConditions = strings.TrimSpace(p.MedicalConditions)
	p.EmergencyName = strings.TrimSpace(p.EmergencyName)
	p.EmergencyPhone = strings.TrimSpace(p.EmergencyPhone)
}
