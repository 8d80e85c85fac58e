package models

import "time"

// DefaultMaxPeriodsPerDay is the daily load ceiling applied when a teacher
// record does not carry one. Exceeding it raises a warning, never an error.
const DefaultMaxPeriodsPerDay = 6

// Teacher represents an instructor record scoped to one institution.
type Teacher struct {
	ID               string    `db:"id" json:"id"`
	InstitutionID    string    `db:"institution_id" json:"institution_id"`
	FullName         string    `db:"full_name" json:"full_name"`
	Email            string    `db:"email" json:"email"`
	MaxPeriodsPerDay int       `db:"max_periods_per_day" json:"max_periods_per_day"`
	Active           bool      `db:"active" json:"active"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// TeacherFilter captures filtering options for listing teachers.
type TeacherFilter struct {
	InstitutionID string
	Search        string
	Active        *bool
	Page          int
	PageSize      int
	SortBy        string
	SortOrder     string
}
