package model

import "time"

// Profile is the one-to-one health/fitness extension of a User.
//
// At most one row exists per user (UNIQUE constraint on user_id). It is
// created lazily on the first profile write; until then GET /api/profile
// returns the zero value of this struct, which serializes as a well-shaped
// object with empty fields — clients never see a 404.
//
// Height and Weight are strings on the wire because the profile form submits
// free text ("175", "175.5", sometimes with a unit). The server stores what
// the client sent; interpreting units is a client concern.
type Profile struct {
	UserID            int64     `json:"-"                 db:"user_id"`
	FullName          string    `json:"fullName"          db:"full_name"`
	DOB               string    `json:"dob"               db:"dob"`
	Gender            string    `json:"gender"            db:"gender"`
	Email             string    `json:"email"`            // from the token claims, not stored
	Height            string    `json:"height"            db:"height"`
	Weight            string    `json:"weight"            db:"weight"`
	BloodType         string    `json:"bloodType"         db:"blood_type"`
	PrimaryGoal       string    `json:"primaryGoal"       db:"primary_goal"`
	ActivityLevel     string    `json:"activityLevel"     db:"activity_level"`
	MedicalConditions string    `json:"medicalConditions" db:"medical_conditions"`
	EmergencyName     string    `json:"emergencyName"     db:"emergency_name"`
	EmergencyPhone    string    `json:"emergencyPhone"    db:"emergency_phone"`
	CreatedAt         time.Time `json:"-"                 db:"created_at"`
}
