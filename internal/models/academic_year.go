package models

import (
	"fmt"
	"time"
)

// CurrentAcademicYear derives the academic year key from wall-clock time,
// e.g. "2026-2027". Timetables default to this key unless the caller
// overrides it explicitly.
func CurrentAcademicYear(now time.Time) string {
	year := now.Year()
	return fmt.Sprintf("%d-%d", year, year+1)
}
