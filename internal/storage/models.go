package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Profile is one row of the profiles table. CurrentSkills and CareerInterests
// are stored as JSON arrays in text columns.
type Profile struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	FullName          string    `json:"full_name"`
	Age               *int      `json:"age"`
	Education         string    `json:"education"`
	Timeline          string    `json:"timeline"`
	CurrentSkills     []string  `json:"current_skills"`
	CareerInterests   []string  `json:"career_interests"`
	ProfileCompletion int       `json:"profile_completion"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Skill is one row of the skills table; SkillName is unique per user.
type Skill struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	SkillName    string    `json:"skill_name"`
	MasteryLevel int       `json:"mastery_level"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ProgressLog is one append-only row of the progress_logs table.
type ProgressLog struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	SkillName      string    `json:"skill_name"`
	ProgressAmount int       `json:"progress_amount"`
	Notes          *string   `json:"notes"`
	CreatedAt      time.Time `json:"created_at"`
}
