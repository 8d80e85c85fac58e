package models

import "time"

// ClassType mirrors the institution flavour a class is rendered with. It is
// presentational only and never influences conflict semantics.
type ClassType string

const (
	ClassTypeSchool  ClassType = "SCHOOL"
	ClassTypeCollege ClassType = "COLLEGE"
)

// Class represents an academic class or section within one institution.
type Class struct {
	ID            string    `db:"id" json:"id"`
	InstitutionID string    `db:"institution_id" json:"institution_id"`
	Name          string    `db:"name" json:"name"`
	Type          ClassType `db:"type" json:"type"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// ClassFilter defines filter criteria for listing classes.
type ClassFilter struct {
	InstitutionID string
	Search        string
	Page          int
	PageSize      int
	SortBy        string
	SortOrder     string
}
