package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/medora-app/server/internal/apperror"
	"github.com/medora-app/server/internal/model"
	"github.com/medora-app/server/internal/repository"
)

// compile-time check that *DB implements repository.ProfileRepository
var _ repository.ProfileRepository = (*DB)(nil)

// Upsert writes the profile for profile.UserID in one statement.
//
// INSERT ... ON CONFLICT(user_id) DO UPDATE is atomic inside SQLite: two
// concurrent writers for the same user both land on the same row, last
// write wins, and the "at most one profile per user" invariant holds
// without any check-then-branch in application code. Writing the same
// payload twice yields a byte-identical row.
//
// A write for a user whose row was deleted fails the foreign key and comes
// back as NotFound.
func (db *DB) Upsert(ctx context.Context, profile *model.Profile) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO profiles (
			user_id, full_name, dob, gender, height, weight, blood_type,
			primary_goal, activity_level, medical_conditions,
			emergency_name, emergency_phone
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
			full_name          = excluded.full_name,
			dob                = excluded.dob,
			gender             = excluded.gender,
			height             = excluded.height,
			weight             = excluded.weight,
			blood_type         = excluded.blood_type,
			primary_goal       = excluded.primary_goal,
			activity_level     = excluded.activity_level,
			medical_conditions = excluded.medical_conditions,
			emergency_name     = excluded.emergency_name,
			emergency_phone    = excluded.emergency_phone`,
		profile.UserID,
		profile.FullName,
		profile.DOB,
		profile.Gender,
		profile.Height,
		profile.Weight,
		profile.BloodType,
		profile.PrimaryGoal,
		profile.ActivityLevel,
		profile.MedicalConditions,
		profile.EmergencyName,
		profile.EmergencyPhone,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.NotFound("user", profile.UserID)
		}
		return fmt.Errorf("sqlite: upserting profile for user %d: %w", profile.UserID, err)
	}

	return nil
}

// GetByUserID returns the stored profile row, or apperror.ErrNotFound if
// the user has never written one. The service layer translates the missing
// row into an empty default — the NotFound never reaches the client.
func (db *DB) GetByUserID(ctx context.Context, userID int64) (*model.Profile, error) {
	var p model.Profile

	err := db.conn.QueryRowContext(ctx,
		`SELECT user_id, full_name, dob, gender, height, weight, blood_type,
			primary_goal, activity_level, medical_conditions,
			emergency_name, emergency_phone, created_at
		 FROM profiles WHERE user_id = ?`,
		userID,
	).Scan(
		&p.UserID,
		&p.FullName,
		&p.DOB,
		&p.Gender,
		&p.Height,
		&p.Weight,
		&p.BloodType,
		&p.PrimaryGoal,
		&p.ActivityLevel,
		&p.MedicalConditions,
		&p.EmergencyName,
		&p.EmergencyPhone,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("profile", userID)
		}
		return nil, fmt.Errorf("sqlite: getting profile for user %d: %w", userID, err)
	}

	return &p, nil
}
