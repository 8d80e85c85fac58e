package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/Rishi9822/timetable-organizer-api/internal/models"
	appErrors "github.com/Rishi9822/timetable-organizer-api/pkg/errors"
)

// weekdayRank fixes the reporting order for detector output. Unknown day
// names sort after the known week, alphabetically.
var weekdayRank = map[string]int{
	"Monday":    0,
	"Tuesday":   1,
	"Wednesday": 2,
	"Thursday":  3,
	"Friday":    4,
	"Saturday":  5,
	"Sunday":    6,
}

func sortedDays(periods models.PeriodMap) []string {
	days := make([]string, 0, len(periods))
	for day := range periods {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool {
		ri, iok := weekdayRank[days[i]]
		rj, jok := weekdayRank[days[j]]
		if iok && jok {
			return ri < rj
		}
		if iok != jok {
			return iok
		}
		return days[i] < days[j]
	})
	return days
}

// DetectConflicts inspects one timetable against the full institution set for
// an academic year. It is pure and total over well-formed input: conflicts
// and warnings are normal output, never errors.
//
// Hard conflicts are teacher double-bookings against any other class's draft
// or published timetable (a teacher placed in a draft anywhere is busy).
// Conflicts are reported per occurrence, not de-duplicated across pairs.
// Soft warnings flag days where a teacher's assignment count exceeds their
// daily ceiling. Teachers without an explicit ceiling fall back to
// defaultMaxPeriods; a non-positive value means the built-in default.
func DetectConflicts(inspected models.Timetable, all []models.Timetable, teachers map[string]models.Teacher, classNames map[string]string, defaultMaxPeriods int) models.ConflictReport {
	if defaultMaxPeriods <= 0 {
		defaultMaxPeriods = models.DefaultMaxPeriodsPerDay
	}
	report := models.ConflictReport{
		Conflicts: []models.TimetableConflict{},
		Warnings:  []models.TimetableWarning{},
	}

	for _, day := range sortedDays(inspected.Periods) {
		for _, assignment := range inspected.Periods[day] {
			for _, other := range all {
				// Self-comparison covers both copies of the inspected
				// class, draft and published alike.
				if other.ClassID == inspected.ClassID {
					continue
				}
				occupied := other.FindAssignment(day, assignment.Period)
				if occupied == nil || occupied.TeacherID != assignment.TeacherID {
					continue
				}
				className := classNames[other.ClassID]
				if className == "" {
					className = other.ClassID
				}
				report.Conflicts = append(report.Conflicts, models.TimetableConflict{
					Type:      models.ConflictTypeTeacherDoubleBooking,
					Day:       day,
					Period:    assignment.Period,
					TeacherID: assignment.TeacherID,
					ClassID:   other.ClassID,
					ClassName: className,
					Message:   fmt.Sprintf("teacher already scheduled in %s at %s period %d", className, day, assignment.Period),
				})
			}
		}
	}

	for _, day := range sortedDays(inspected.Periods) {
		counts := make(map[string]int)
		for _, assignment := range inspected.Periods[day] {
			counts[assignment.TeacherID]++
		}

		teacherIDs := make([]string, 0, len(counts))
		for teacherID := range counts {
			teacherIDs = append(teacherIDs, teacherID)
		}
		sort.Strings(teacherIDs)

		for _, teacherID := range teacherIDs {
			max := defaultMaxPeriods
			if teacher, ok := teachers[teacherID]; ok && teacher.MaxPeriodsPerDay > 0 {
				max = teacher.MaxPeriodsPerDay
			}
			if counts[teacherID] <= max {
				continue
			}
			report.Warnings = append(report.Warnings, models.TimetableWarning{
				Type:      models.WarningTypeTeacherMaxPeriods,
				Day:       day,
				TeacherID: teacherID,
				Periods:   counts[teacherID],
				Max:       max,
				Message:   fmt.Sprintf("teacher has %d periods on %s, above the daily limit of %d", counts[teacherID], day, max),
			})
		}
	}

	return report
}

type conflictTimetableSource interface {
	Load(ctx context.Context, classID, academicYear string, claims *models.JWTClaims) (*models.Timetable, error)
	ListAll(ctx context.Context, academicYear string, claims *models.JWTClaims) ([]models.Timetable, error)
}

// ConflictService runs the detector over a class's current timetable against
// the rest of the institution.
type ConflictService struct {
	timetables        conflictTimetableSource
	teachers          timetableTeacherRepository
	classes           timetableClassRepository
	metrics           *MetricsService
	defaultMaxPeriods int
	logger            *zap.Logger
}

// NewConflictService instantiates ConflictService. defaultMaxPeriods is the
// daily ceiling applied to teachers without one of their own; non-positive
// values fall back to the built-in default.
func NewConflictService(timetables conflictTimetableSource, teachers timetableTeacherRepository, classes timetableClassRepository, metrics *MetricsService, defaultMaxPeriods int, logger *zap.Logger) *ConflictService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConflictService{
		timetables:        timetables,
		teachers:          teachers,
		classes:           classes,
		metrics:           metrics,
		defaultMaxPeriods: defaultMaxPeriods,
		logger:            logger,
	}
}

// CheckClass scans the class's draft (or published fallback) against every
// other timetable of the institution/year and returns the exhaustive report.
func (s *ConflictService) CheckClass(ctx context.Context, classID, academicYear string, claims *models.JWTClaims) (*models.ConflictReport, error) {
	inspected, err := s.timetables.Load(ctx, classID, academicYear, claims)
	if err != nil {
		return nil, err
	}

	all, err := s.timetables.ListAll(ctx, inspected.AcademicYear, claims)
	if err != nil {
		return nil, err
	}

	teacherList, err := s.teachers.ListByInstitution(ctx, claims.InstitutionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teachers")
	}
	teachers := make(map[string]models.Teacher, len(teacherList))
	for _, t := range teacherList {
		teachers[t.ID] = t
	}

	classList, err := s.classes.ListByInstitution(ctx, claims.InstitutionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classes")
	}
	classNames := make(map[string]string, len(classList))
	for _, c := range classList {
		classNames[c.ID] = c.Name
	}

	start := time.Now()
	report := DetectConflicts(*inspected, all, teachers, classNames, s.defaultMaxPeriods)
	if s.metrics != nil {
		s.metrics.ObserveConflictScan(time.Since(start), len(report.Conflicts), len(report.Warnings))
	}

	if len(report.Conflicts) > 0 {
		s.logger.Info("timetable conflicts detected",
			zap.String("class_id", classID),
			zap.Int("conflicts", len(report.Conflicts)),
			zap.Int("warnings", len(report.Warnings)),
		)
	}
	return &report, nil
}
