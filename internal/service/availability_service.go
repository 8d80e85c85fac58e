package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/Rishi9822/timetable-organizer-api/internal/models"
	appErrors "github.com/Rishi9822/timetable-organizer-api/pkg/errors"
)

// Snapshot is an explicit, externally-owned view of every live timetable of
// one institution/year. It is built from ListAll output and discarded when
// any timetable is saved or published; it is never mutated in place.
type Snapshot struct {
	timetables []models.Timetable
}

// NewSnapshot wraps a ListAll result for point queries.
func NewSnapshot(timetables []models.Timetable) Snapshot {
	return Snapshot{timetables: timetables}
}

// ExplainConflict returns the occupied slot blocking a placement of the
// teacher at (day, period), or nil when the teacher is free. The timetable of
// excludingClassID is skipped so replacing a teacher's own slot never
// self-conflicts.
func (s Snapshot) ExplainConflict(teacherID, day string, period int, excludingClassID string) *models.SlotDetail {
	for _, timetable := range s.timetables {
		if timetable.ClassID == excludingClassID {
			continue
		}
		occupied := timetable.FindAssignment(day, period)
		if occupied == nil || occupied.TeacherID != teacherID {
			continue
		}
		return &models.SlotDetail{
			ClassID:   timetable.ClassID,
			Day:       day,
			Period:    period,
			TeacherID: occupied.TeacherID,
			SubjectID: occupied.SubjectID,
		}
	}
	return nil
}

// IsAvailable answers the interactive "can I place this teacher here?" query.
func (s Snapshot) IsAvailable(teacherID, day string, period int, excludingClassID string) bool {
	return s.ExplainConflict(teacherID, day, period, excludingClassID) == nil
}

// AvailabilityService serves oracle point queries over cached snapshots. It
// stays consistent with the conflict detector by construction: both scan the
// same ListAll dataset with the same slot-match rule.
type AvailabilityService struct {
	timetables conflictTimetableSource
	metrics    *MetricsService
	logger     *zap.Logger
}

// NewAvailabilityService instantiates AvailabilityService.
func NewAvailabilityService(timetables conflictTimetableSource, metrics *MetricsService, logger *zap.Logger) *AvailabilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{timetables: timetables, metrics: metrics, logger: logger}
}

// AvailabilityResult reports an oracle answer with conflict detail when the
// placement is blocked.
type AvailabilityResult struct {
	Available bool               `json:"available"`
	Conflict  *models.SlotDetail `json:"conflict,omitempty"`
}

// Check builds a snapshot for the institution/year and answers the point
// query synchronously.
func (s *AvailabilityService) Check(ctx context.Context, academicYear, teacherID, day string, period int, excludingClassID string, claims *models.JWTClaims) (*AvailabilityResult, error) {
	if teacherID == "" || day == "" || period <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacherId, day and a positive period are required")
	}

	timetables, err := s.timetables.ListAll(ctx, academicYear, claims)
	if err != nil {
		return nil, err
	}

	snapshot := NewSnapshot(timetables)
	detail := snapshot.ExplainConflict(teacherID, day, period, excludingClassID)
	available := detail == nil
	if s.metrics != nil {
		s.metrics.RecordOracleQuery(available)
	}
	return &AvailabilityResult{Available: available, Conflict: detail}, nil
}
