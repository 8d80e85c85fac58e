package models

import "time"

// Subject represents an academic subject scoped to one institution.
// PeriodsPerWeek is a progress target rendered by the UI; the engine never
// enforces it.
type Subject struct {
	ID             string    `db:"id" json:"id"`
	InstitutionID  string    `db:"institution_id" json:"institution_id"`
	Code           string    `db:"code" json:"code"`
	Name           string    `db:"name" json:"name"`
	PeriodsPerWeek int       `db:"periods_per_week" json:"periods_per_week"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// SubjectFilter captures supported filters for listing subjects.
type SubjectFilter struct {
	InstitutionID string
	Search        string
	Page          int
	PageSize      int
	SortBy        string
	SortOrder     string
}
