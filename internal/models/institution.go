package models

import (
	"time"

	"github.com/lib/pq"
)

// InstitutionType distinguishes the two presentation flavours an institution
// can be configured with. It carries no scheduling semantics.
type InstitutionType string

const (
	InstitutionTypeSchool  InstitutionType = "SCHOOL"
	InstitutionTypeCollege InstitutionType = "COLLEGE"
)

// DefaultWorkingDays is applied when an institution has not customised its
// working week.
var DefaultWorkingDays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// Institution is the tenancy boundary. Every other entity is scoped to
// exactly one institution.
type Institution struct {
	ID          string          `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	Type        InstitutionType `db:"type" json:"type"`
	WorkingDays pq.StringArray  `db:"working_days" json:"working_days"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// EffectiveWorkingDays returns the configured working days, falling back to
// the default week when unset.
func (i Institution) EffectiveWorkingDays() []string {
	if len(i.WorkingDays) > 0 {
		return i.WorkingDays
	}
	return DefaultWorkingDays
}

// HasWorkingDay reports whether day is part of the institution's working week.
func (i Institution) HasWorkingDay(day string) bool {
	for _, d := range i.EffectiveWorkingDays() {
		if d == day {
			return true
		}
	}
	return false
}
