package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Rishi9822/timetable-organizer-api/internal/models"
)

func slot(period int, subjectID, teacherID string) models.PeriodAssignment {
	return models.PeriodAssignment{Period: period, SubjectID: subjectID, TeacherID: teacherID}
}

func TestDetectConflictsTeacherDoubleBooking(t *testing.T) {
	inspected := models.Timetable{
		ClassID:      "class-a",
		AcademicYear: "2026-2027",
		Periods: models.PeriodMap{
			"Monday": {slot(1, "math", "teacher-x")},
		},
	}
	other := models.Timetable{
		ClassID:      "class-b",
		AcademicYear: "2026-2027",
		IsPublished:  true,
		Periods: models.PeriodMap{
			"Monday": {slot(1, "physics", "teacher-x")},
		},
	}

	report := DetectConflicts(inspected, []models.Timetable{inspected, other}, nil, map[string]string{"class-b": "Grade 10B"}, 0)

	require.Len(t, report.Conflicts, 1)
	conflict := report.Conflicts[0]
	assert.Equal(t, models.ConflictTypeTeacherDoubleBooking, conflict.Type)
	assert.Equal(t, "Monday", conflict.Day)
	assert.Equal(t, 1, conflict.Period)
	assert.Equal(t, "teacher-x", conflict.TeacherID)
	assert.Equal(t, "class-b", conflict.ClassID)
	assert.Equal(t, "Grade 10B", conflict.ClassName)
	assert.Empty(t, report.Warnings)
}

func TestDetectConflictsIgnoresOwnPublishedCopy(t *testing.T) {
	draft := models.Timetable{
		ClassID: "class-a",
		Periods: models.PeriodMap{
			"Monday": {slot(1, "math", "teacher-x")},
		},
	}
	publishedCopy := draft
	publishedCopy.IsPublished = true

	report := DetectConflicts(draft, []models.Timetable{draft, publishedCopy}, nil, nil, 0)

	assert.Empty(t, report.Conflicts)
	assert.Empty(t, report.Warnings)
}

func TestDetectConflictsDifferentPeriodsNoConflict(t *testing.T) {
	inspected := models.Timetable{
		ClassID: "class-a",
		Periods: models.PeriodMap{
			"Monday": {slot(1, "math", "teacher-x")},
		},
	}
	other := models.Timetable{
		ClassID: "class-b",
		Periods: models.PeriodMap{
			"Monday":  {slot(2, "physics", "teacher-x")},
			"Tuesday": {slot(1, "physics", "teacher-x")},
		},
	}

	report := DetectConflicts(inspected, []models.Timetable{inspected, other}, nil, nil, 0)

	assert.Empty(t, report.Conflicts)
}

func TestDetectConflictsMaxPeriodsWarning(t *testing.T) {
	teachers := map[string]models.Teacher{
		"teacher-x": {ID: "teacher-x", MaxPeriodsPerDay: 4},
	}
	inspected := models.Timetable{
		ClassID: "class-a",
		Periods: models.PeriodMap{
			"Monday": {
				slot(1, "math", "teacher-x"),
				slot(2, "math", "teacher-x"),
				slot(3, "math", "teacher-x"),
				slot(4, "math", "teacher-x"),
				slot(5, "math", "teacher-x"),
			},
		},
	}

	report := DetectConflicts(inspected, []models.Timetable{inspected}, teachers, nil, 0)

	assert.Empty(t, report.Conflicts)
	require.Len(t, report.Warnings, 1)
	warning := report.Warnings[0]
	assert.Equal(t, models.WarningTypeTeacherMaxPeriods, warning.Type)
	assert.Equal(t, "Monday", warning.Day)
	assert.Equal(t, "teacher-x", warning.TeacherID)
	assert.Equal(t, 5, warning.Periods)
	assert.Equal(t, 4, warning.Max)
}

func TestDetectConflictsUnknownTeacherUsesDefaultCeiling(t *testing.T) {
	assignments := make([]models.PeriodAssignment, 0, models.DefaultMaxPeriodsPerDay)
	for p := 1; p <= models.DefaultMaxPeriodsPerDay; p++ {
		assignments = append(assignments, slot(p, "math", "teacher-y"))
	}
	inspected := models.Timetable{
		ClassID: "class-a",
		Periods: models.PeriodMap{"Monday": assignments},
	}

	report := DetectConflicts(inspected, []models.Timetable{inspected}, nil, nil, 0)
	assert.Empty(t, report.Warnings)

	inspected.Periods["Monday"] = append(inspected.Periods["Monday"], slot(models.DefaultMaxPeriodsPerDay+1, "math", "teacher-y"))
	report = DetectConflicts(inspected, []models.Timetable{inspected}, nil, nil, 0)
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, models.DefaultMaxPeriodsPerDay+1, report.Warnings[0].Periods)
	assert.Equal(t, models.DefaultMaxPeriodsPerDay, report.Warnings[0].Max)
}

func TestDetectConflictsConfiguredDefaultCeiling(t *testing.T) {
	inspected := models.Timetable{
		ClassID: "class-a",
		Periods: models.PeriodMap{
			"Monday": {
				slot(1, "math", "teacher-y"),
				slot(2, "math", "teacher-y"),
				slot(3, "math", "teacher-y"),
				slot(4, "math", "teacher-y"),
			},
		},
	}

	// Four periods are fine under the built-in ceiling but breach a
	// configured ceiling of three.
	report := DetectConflicts(inspected, []models.Timetable{inspected}, nil, nil, 0)
	assert.Empty(t, report.Warnings)

	report = DetectConflicts(inspected, []models.Timetable{inspected}, nil, nil, 3)
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, 4, report.Warnings[0].Periods)
	assert.Equal(t, 3, report.Warnings[0].Max)

	// A teacher with an explicit ceiling is unaffected by the configured
	// fallback.
	teachers := map[string]models.Teacher{
		"teacher-y": {ID: "teacher-y", MaxPeriodsPerDay: 5},
	}
	report = DetectConflicts(inspected, []models.Timetable{inspected}, teachers, nil, 3)
	assert.Empty(t, report.Warnings)
}

func TestDetectConflictsDeterministicOrdering(t *testing.T) {
	inspected := models.Timetable{
		ClassID: "class-a",
		Periods: models.PeriodMap{
			"Wednesday": {slot(1, "math", "teacher-x")},
			"Monday":    {slot(1, "math", "teacher-x")},
		},
	}
	other := models.Timetable{
		ClassID: "class-b",
		Periods: models.PeriodMap{
			"Wednesday": {slot(1, "bio", "teacher-x")},
			"Monday":    {slot(1, "bio", "teacher-x")},
		},
	}

	report := DetectConflicts(inspected, []models.Timetable{other}, nil, nil, 0)

	require.Len(t, report.Conflicts, 2)
	assert.Equal(t, "Monday", report.Conflicts[0].Day)
	assert.Equal(t, "Wednesday", report.Conflicts[1].Day)
}

type fakeTimetableSource struct {
	loaded *models.Timetable
	all    []models.Timetable
}

func (f *fakeTimetableSource) Load(_ context.Context, _, _ string, _ *models.JWTClaims) (*models.Timetable, error) {
	return f.loaded, nil
}

func (f *fakeTimetableSource) ListAll(_ context.Context, _ string, _ *models.JWTClaims) ([]models.Timetable, error) {
	return f.all, nil
}

type fakeTeacherLister struct {
	teachers []models.Teacher
}

func (f *fakeTeacherLister) ListByInstitution(_ context.Context, _ string) ([]models.Teacher, error) {
	return f.teachers, nil
}

type fakeClassLister struct {
	classes []models.Class
}

func (f *fakeClassLister) FindByID(_ context.Context, id string) (*models.Class, error) {
	for i := range f.classes {
		if f.classes[i].ID == id {
			return &f.classes[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeClassLister) ListByInstitution(_ context.Context, _ string) ([]models.Class, error) {
	return f.classes, nil
}

func TestConflictServiceCheckClass(t *testing.T) {
	claims := &models.JWTClaims{UserID: "user-1", InstitutionID: "inst-1", Role: models.RoleScheduler}
	inspected := &models.Timetable{
		ClassID:      "class-a",
		AcademicYear: "2026-2027",
		Periods:      models.PeriodMap{"Monday": {slot(1, "math", "teacher-x")}},
	}
	source := &fakeTimetableSource{
		loaded: inspected,
		all: []models.Timetable{
			*inspected,
			{ClassID: "class-b", Periods: models.PeriodMap{"Monday": {slot(1, "bio", "teacher-x")}}},
		},
	}
	teachers := &fakeTeacherLister{teachers: []models.Teacher{{ID: "teacher-x", FullName: "Ada"}}}
	classes := &fakeClassLister{classes: []models.Class{
		{ID: "class-a", InstitutionID: "inst-1", Name: "Grade 10A"},
		{ID: "class-b", InstitutionID: "inst-1", Name: "Grade 10B"},
	}}

	svc := NewConflictService(source, teachers, classes, nil, 0, zap.NewNop())
	report, err := svc.CheckClass(context.Background(), "class-a", "2026-2027", claims)

	require.NoError(t, err)
	require.Len(t, report.Conflicts, 1)
	assert.Equal(t, "Grade 10B", report.Conflicts[0].ClassName)
	assert.Empty(t, report.Warnings)
}
