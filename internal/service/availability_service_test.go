package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Rishi9822/timetable-organizer-api/internal/models"
	appErrors "github.com/Rishi9822/timetable-organizer-api/pkg/errors"
)

func TestSnapshotExplainConflict(t *testing.T) {
	snapshot := NewSnapshot([]models.Timetable{
		{
			ClassID: "class-b",
			Periods: models.PeriodMap{"Monday": {slot(3, "physics", "teacher-x")}},
		},
	})

	detail := snapshot.ExplainConflict("teacher-x", "Monday", 3, "")
	require.NotNil(t, detail)
	assert.Equal(t, "class-b", detail.ClassID)
	assert.Equal(t, "Monday", detail.Day)
	assert.Equal(t, 3, detail.Period)
	assert.Equal(t, "physics", detail.SubjectID)

	assert.Nil(t, snapshot.ExplainConflict("teacher-x", "Monday", 4, ""))
	assert.Nil(t, snapshot.ExplainConflict("teacher-y", "Monday", 3, ""))
	assert.Nil(t, snapshot.ExplainConflict("teacher-x", "Tuesday", 3, ""))
}

func TestSnapshotExcludesOwnClass(t *testing.T) {
	snapshot := NewSnapshot([]models.Timetable{
		{
			ClassID: "class-a",
			Periods: models.PeriodMap{"Monday": {slot(1, "math", "teacher-x")}},
		},
	})

	assert.False(t, snapshot.IsAvailable("teacher-x", "Monday", 1, ""))
	assert.True(t, snapshot.IsAvailable("teacher-x", "Monday", 1, "class-a"))
}

// The oracle and the detector must agree: a free answer for a slot implies the
// detector reports no conflict for a timetable placing that same assignment.
func TestOracleDetectorConsistency(t *testing.T) {
	all := []models.Timetable{
		{
			ClassID: "class-b",
			Periods: models.PeriodMap{
				"Monday":  {slot(1, "physics", "teacher-x"), slot(2, "physics", "teacher-y")},
				"Tuesday": {slot(1, "chem", "teacher-x")},
			},
		},
	}
	snapshot := NewSnapshot(all)

	cases := []struct {
		day     string
		period  int
		teacher string
	}{
		{"Monday", 1, "teacher-x"},
		{"Monday", 1, "teacher-y"},
		{"Monday", 2, "teacher-x"},
		{"Tuesday", 1, "teacher-x"},
		{"Tuesday", 2, "teacher-y"},
	}

	for _, tc := range cases {
		candidate := models.Timetable{
			ClassID: "class-a",
			Periods: models.PeriodMap{tc.day: {slot(tc.period, "math", tc.teacher)}},
		}
		report := DetectConflicts(candidate, all, nil, nil, 0)
		available := snapshot.IsAvailable(tc.teacher, tc.day, tc.period, "class-a")
		assert.Equal(t, available, len(report.Conflicts) == 0,
			"oracle and detector disagree for %s period %d teacher %s", tc.day, tc.period, tc.teacher)
	}
}

func TestAvailabilityServiceCheck(t *testing.T) {
	claims := &models.JWTClaims{UserID: "user-1", InstitutionID: "inst-1", Role: models.RoleScheduler}
	source := &fakeTimetableSource{
		all: []models.Timetable{
			{ClassID: "class-b", Periods: models.PeriodMap{"Monday": {slot(2, "bio", "teacher-x")}}},
		},
	}
	svc := NewAvailabilityService(source, nil, zap.NewNop())

	result, err := svc.Check(context.Background(), "2026-2027", "teacher-x", "Monday", 2, "", claims)
	require.NoError(t, err)
	assert.False(t, result.Available)
	require.NotNil(t, result.Conflict)
	assert.Equal(t, "class-b", result.Conflict.ClassID)

	result, err = svc.Check(context.Background(), "2026-2027", "teacher-x", "Monday", 3, "", claims)
	require.NoError(t, err)
	assert.True(t, result.Available)
	assert.Nil(t, result.Conflict)
}

func TestAvailabilityServiceCheckValidation(t *testing.T) {
	claims := &models.JWTClaims{InstitutionID: "inst-1"}
	svc := NewAvailabilityService(&fakeTimetableSource{}, nil, zap.NewNop())

	_, err := svc.Check(context.Background(), "", "", "Monday", 1, "", claims)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Check(context.Background(), "", "teacher-x", "Monday", 0, "", claims)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
