package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// PeriodAssignment places one teacher and subject into a single period slot.
// It has no identity of its own; it is owned by the timetable containing it.
type PeriodAssignment struct {
	Period    int    `json:"period"`
	SubjectID string `json:"subject_id"`
	TeacherID string `json:"teacher_id"`
}

// PeriodMap holds a week of assignments keyed by full day name
// (e.g. "Monday"). Break slots are never represented.
type PeriodMap map[string][]PeriodAssignment

// Value implements driver.Valuer storing the map as JSONB.
func (m PeriodMap) Value() (driver.Value, error) {
	if m == nil {
		m = PeriodMap{}
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner reading the JSONB column.
func (m *PeriodMap) Scan(src interface{}) error {
	if src == nil {
		*m = PeriodMap{}
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported period map source type %T", src)
	}
	if len(raw) == 0 {
		*m = PeriodMap{}
		return nil
	}
	return json.Unmarshal(raw, m)
}

// AssignmentCount returns the total number of assignments in the map.
func (m PeriodMap) AssignmentCount() int {
	total := 0
	for _, assignments := range m {
		total += len(assignments)
	}
	return total
}

// Timetable is the per-class weekly schedule for one academic year. For a
// given (institution, class, year) at most one draft and at most one
// published record exist.
type Timetable struct {
	ID            string    `db:"id" json:"id,omitempty"`
	InstitutionID string    `db:"institution_id" json:"institution_id"`
	ClassID       string    `db:"class_id" json:"class_id"`
	AcademicYear  string    `db:"academic_year" json:"academic_year"`
	IsPublished   bool      `db:"is_published" json:"is_published"`
	Periods       PeriodMap `db:"periods" json:"periods"`
	IsEmpty       bool      `db:"-" json:"is_empty,omitempty"`
	// SupersededAt marks a formerly published record replaced by a newer
	// publish. Superseded rows are retained for history and excluded from
	// every engine query.
	SupersededAt *time.Time `db:"superseded_at" json:"-"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at,omitempty"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at,omitempty"`
}

// FindAssignment returns the assignment occupying (day, period), if any.
func (t Timetable) FindAssignment(day string, period int) *PeriodAssignment {
	for i := range t.Periods[day] {
		if t.Periods[day][i].Period == period {
			return &t.Periods[day][i]
		}
	}
	return nil
}

// Conflict and warning discriminators emitted by the detector.
const (
	ConflictTypeTeacherDoubleBooking = "teacher_double_booking"
	WarningTypeTeacherMaxPeriods     = "teacher_max_periods"
)

// TimetableConflict is a hard double-booking of a teacher across classes.
type TimetableConflict struct {
	Type      string `json:"type"`
	Day       string `json:"day"`
	Period    int    `json:"period"`
	TeacherID string `json:"teacher_id"`
	ClassID   string `json:"class_id"`
	ClassName string `json:"class_name"`
	Message   string `json:"message"`
}

// TimetableWarning is a soft advisory signal that never blocks saving.
type TimetableWarning struct {
	Type      string `json:"type"`
	Day       string `json:"day"`
	TeacherID string `json:"teacher_id"`
	Periods   int    `json:"periods"`
	Max       int    `json:"max"`
	Message   string `json:"message"`
}

// ConflictReport bundles the detector output for one inspected timetable.
type ConflictReport struct {
	Conflicts []TimetableConflict `json:"conflicts"`
	Warnings  []TimetableWarning  `json:"warnings"`
}

// SlotDetail identifies the occupied slot blocking a placement, for
// user-facing messaging.
type SlotDetail struct {
	ClassID   string `json:"class_id"`
	Day       string `json:"day"`
	Period    int    `json:"period"`
	TeacherID string `json:"teacher_id"`
	SubjectID string `json:"subject_id"`
}
