package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Rishi9822/timetable-organizer-api/internal/models"
	appErrors "github.com/Rishi9822/timetable-organizer-api/pkg/errors"
	"github.com/Rishi9822/timetable-organizer-api/pkg/export"
)

type timetableRepository interface {
	FindDraft(ctx context.Context, classID, academicYear string) (*models.Timetable, error)
	FindPublished(ctx context.Context, classID, academicYear string) (*models.Timetable, error)
	ListByInstitutionYear(ctx context.Context, institutionID, academicYear string) ([]models.Timetable, error)
	UpsertDraft(ctx context.Context, timetable *models.Timetable) error
	Publish(ctx context.Context, classID, academicYear string) (*models.Timetable, error)
	DeleteByClass(ctx context.Context, classID string) error
}

type timetableClassRepository interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
	ListByInstitution(ctx context.Context, institutionID string) ([]models.Class, error)
}

type timetableInstitutionRepository interface {
	FindByID(ctx context.Context, id string) (*models.Institution, error)
}

type timetableSubjectRepository interface {
	ListByInstitution(ctx context.Context, institutionID string) ([]models.Subject, error)
}

type timetableTeacherRepository interface {
	ListByInstitution(ctx context.Context, institutionID string) ([]models.Teacher, error)
}

// SaveTimetableRequest carries the complete desired draft state. The periods
// map replaces the stored draft wholesale; callers never send partial merges.
type SaveTimetableRequest struct {
	AcademicYear string           `json:"academic_year"`
	Periods      models.PeriodMap `json:"periods" validate:"required"`
}

// TimetableService owns per-class timetable state and the draft/publish
// lifecycle. It is the single source of truth for what is scheduled.
type TimetableService struct {
	repo         timetableRepository
	classes      timetableClassRepository
	institutions timetableInstitutionRepository
	subjects     timetableSubjectRepository
	teachers     timetableTeacherRepository
	cache        *CacheService
	exporter     *export.PDFExporter
	validator    *validator.Validate
	logger       *zap.Logger
	now          func() time.Time
}

// NewTimetableService instantiates TimetableService.
func NewTimetableService(
	repo timetableRepository,
	classes timetableClassRepository,
	institutions timetableInstitutionRepository,
	subjects timetableSubjectRepository,
	teachers timetableTeacherRepository,
	cache *CacheService,
	validate *validator.Validate,
	logger *zap.Logger,
) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableService{
		repo:         repo,
		classes:      classes,
		institutions: institutions,
		subjects:     subjects,
		teachers:     teachers,
		cache:        cache,
		exporter:     export.NewPDFExporter(),
		validator:    validate,
		logger:       logger,
		now:          time.Now,
	}
}

func snapshotCacheKey(institutionID, academicYear string) string {
	return fmt.Sprintf("timetables:%s:%s", institutionID, academicYear)
}

// resolveClass loads a class and enforces the institution boundary. A class
// outside the caller's institution is indistinguishable from a missing one.
func (s *TimetableService) resolveClass(ctx context.Context, classID string, claims *models.JWTClaims) (*models.Class, error) {
	if claims == nil || claims.InstitutionID == "" {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "missing institution scope")
	}
	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if class.InstitutionID != claims.InstitutionID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}
	return class, nil
}

func (s *TimetableService) defaultYear(academicYear string) string {
	if academicYear != "" {
		return academicYear
	}
	return models.CurrentAcademicYear(s.now())
}

// Load returns the draft if one exists, else the published snapshot, else a
// synthesized empty timetable that is never persisted until the first save.
func (s *TimetableService) Load(ctx context.Context, classID, academicYear string, claims *models.JWTClaims) (*models.Timetable, error) {
	class, err := s.resolveClass(ctx, classID, claims)
	if err != nil {
		return nil, err
	}
	year := s.defaultYear(academicYear)

	draft, err := s.repo.FindDraft(ctx, classID, year)
	if err == nil {
		return draft, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load draft timetable")
	}

	published, err := s.repo.FindPublished(ctx, classID, year)
	if err == nil {
		return published, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load published timetable")
	}

	return &models.Timetable{
		InstitutionID: class.InstitutionID,
		ClassID:       classID,
		AcademicYear:  year,
		IsPublished:   false,
		Periods:       models.PeriodMap{},
		IsEmpty:       true,
	}, nil
}

// Save validates the payload and upserts the draft, replacing its entire
// periods map atomically. A save after publish creates a fresh draft; the
// published snapshot is never mutated.
func (s *TimetableService) Save(ctx context.Context, classID string, req SaveTimetableRequest, claims *models.JWTClaims) (*models.Timetable, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable payload")
	}

	class, err := s.resolveClass(ctx, classID, claims)
	if err != nil {
		return nil, err
	}
	year := s.defaultYear(req.AcademicYear)

	institution, err := s.institutions.FindByID(ctx, class.InstitutionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load institution")
	}

	teacherIDs, subjectIDs, err := s.registryIDs(ctx, class.InstitutionID)
	if err != nil {
		return nil, err
	}
	if err := validatePeriods(req.Periods, institution, teacherIDs, subjectIDs); err != nil {
		return nil, err
	}

	timetable := &models.Timetable{
		InstitutionID: class.InstitutionID,
		ClassID:       classID,
		AcademicYear:  year,
		Periods:       normalizePeriods(req.Periods),
	}
	if err := s.repo.UpsertDraft(ctx, timetable); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save draft timetable")
	}

	s.invalidateSnapshot(ctx, class.InstitutionID, year)
	s.logger.Info("timetable draft saved",
		zap.String("class_id", classID),
		zap.String("academic_year", year),
		zap.Int("assignments", timetable.Periods.AssignmentCount()),
	)
	return timetable, nil
}

// Publish promotes the draft to the published snapshot, superseding any prior
// published record. Without a draft it fails with NotFound; callers must not
// assume publish is always safe to call.
func (s *TimetableService) Publish(ctx context.Context, classID, academicYear string, claims *models.JWTClaims) (*models.Timetable, error) {
	class, err := s.resolveClass(ctx, classID, claims)
	if err != nil {
		return nil, err
	}
	year := s.defaultYear(academicYear)

	published, err := s.repo.Publish(ctx, classID, year)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no draft timetable to publish")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to publish timetable")
	}

	s.invalidateSnapshot(ctx, class.InstitutionID, year)
	s.logger.Info("timetable published",
		zap.String("class_id", classID),
		zap.String("academic_year", year),
	)
	return published, nil
}

// ListAll returns every live timetable (drafts and published) of the caller's
// institution for one academic year. Results are served through the snapshot
// cache, which is invalidated on every save and publish.
func (s *TimetableService) ListAll(ctx context.Context, academicYear string, claims *models.JWTClaims) ([]models.Timetable, error) {
	if claims == nil || claims.InstitutionID == "" {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "missing institution scope")
	}
	year := s.defaultYear(academicYear)
	key := snapshotCacheKey(claims.InstitutionID, year)

	var cached []models.Timetable
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	timetables, err := s.repo.ListByInstitutionYear(ctx, claims.InstitutionID, year)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetables")
	}

	if err := s.cache.Set(ctx, key, timetables, 0); err != nil {
		s.logger.Warn("snapshot cache set failed", zap.Error(err))
	}
	return timetables, nil
}

// RemoveTeacherAssignments rewrites every draft of the institution/year with
// assignments for the given teacher filtered out. The teacher registry calls
// this before deleting a teacher; published history stays untouched.
func (s *TimetableService) RemoveTeacherAssignments(ctx context.Context, teacherID, academicYear string, claims *models.JWTClaims) error {
	if claims == nil || claims.InstitutionID == "" {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "missing institution scope")
	}
	year := s.defaultYear(academicYear)

	timetables, err := s.repo.ListByInstitutionYear(ctx, claims.InstitutionID, year)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetables")
	}

	touched := 0
	for i := range timetables {
		t := timetables[i]
		if t.IsPublished {
			continue
		}
		filtered, removed := filterTeacher(t.Periods, teacherID)
		if removed == 0 {
			continue
		}
		t.Periods = filtered
		if err := s.repo.UpsertDraft(ctx, &t); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to rewrite draft timetable")
		}
		touched++
	}

	if touched > 0 {
		s.invalidateSnapshot(ctx, claims.InstitutionID, year)
		s.logger.Info("teacher assignments removed",
			zap.String("teacher_id", teacherID),
			zap.String("academic_year", year),
			zap.Int("drafts_rewritten", touched),
		)
	}
	return nil
}

// DeleteClassTimetables drops every timetable row of a class, history
// included, and clears the institution snapshot so deleted classes stop
// surfacing through ListAll. The class registry calls this while deleting
// the class itself.
func (s *TimetableService) DeleteClassTimetables(ctx context.Context, classID string, claims *models.JWTClaims) error {
	if claims == nil || claims.InstitutionID == "" {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "missing institution scope")
	}

	if err := s.repo.DeleteByClass(ctx, classID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete class timetables")
	}

	// Rows for any academic year may have been removed.
	s.invalidateSnapshot(ctx, claims.InstitutionID, "*")
	s.logger.Info("class timetables deleted", zap.String("class_id", classID))
	return nil
}

// ExportPDF renders the class timetable (draft preferred) as a weekly grid.
func (s *TimetableService) ExportPDF(ctx context.Context, classID, academicYear string, claims *models.JWTClaims) ([]byte, string, error) {
	class, err := s.resolveClass(ctx, classID, claims)
	if err != nil {
		return nil, "", err
	}

	timetable, err := s.Load(ctx, classID, academicYear, claims)
	if err != nil {
		return nil, "", err
	}

	institution, err := s.institutions.FindByID(ctx, class.InstitutionID)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load institution")
	}

	subjects, err := s.subjects.ListByInstitution(ctx, class.InstitutionID)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
	}
	teachers, err := s.teachers.ListByInstitution(ctx, class.InstitutionID)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teachers")
	}

	subjectNames := make(map[string]string, len(subjects))
	for _, sub := range subjects {
		subjectNames[sub.ID] = sub.Name
	}
	teacherNames := make(map[string]string, len(teachers))
	for _, t := range teachers {
		teacherNames[t.ID] = t.FullName
	}

	maxPeriod := 0
	cells := make(map[string]map[int]string, len(timetable.Periods))
	for day, assignments := range timetable.Periods {
		row := make(map[int]string, len(assignments))
		for _, a := range assignments {
			if a.Period > maxPeriod {
				maxPeriod = a.Period
			}
			label := subjectNames[a.SubjectID]
			if label == "" {
				label = a.SubjectID
			}
			if name := teacherNames[a.TeacherID]; name != "" {
				label = fmt.Sprintf("%s (%s)", label, name)
			}
			row[a.Period] = label
		}
		cells[day] = row
	}
	if maxPeriod == 0 {
		maxPeriod = models.DefaultMaxPeriodsPerDay
	}

	grid := export.TimetableGrid{
		Title:   fmt.Sprintf("%s - %s", class.Name, timetable.AcademicYear),
		Days:    institution.EffectiveWorkingDays(),
		Periods: maxPeriod,
		Cells:   cells,
	}
	payload, err := s.exporter.Render(grid)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable pdf")
	}

	filename := fmt.Sprintf("timetable-%s-%s.pdf", strings.ReplaceAll(strings.ToLower(class.Name), " ", "-"), timetable.AcademicYear)
	return payload, filename, nil
}

func (s *TimetableService) invalidateSnapshot(ctx context.Context, institutionID, academicYear string) {
	if err := s.cache.Invalidate(ctx, snapshotCacheKey(institutionID, academicYear)); err != nil {
		s.logger.Warn("snapshot cache invalidate failed",
			zap.String("institution_id", institutionID),
			zap.Error(err),
		)
	}
}

// registryIDs collects the IDs of every teacher and subject registered to the
// institution so saves can reject references to records that do not exist.
func (s *TimetableService) registryIDs(ctx context.Context, institutionID string) (map[string]struct{}, map[string]struct{}, error) {
	teachers, err := s.teachers.ListByInstitution(ctx, institutionID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teachers")
	}
	subjects, err := s.subjects.ListByInstitution(ctx, institutionID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
	}

	teacherIDs := make(map[string]struct{}, len(teachers))
	for _, t := range teachers {
		teacherIDs[t.ID] = struct{}{}
	}
	subjectIDs := make(map[string]struct{}, len(subjects))
	for _, sub := range subjects {
		subjectIDs[sub.ID] = struct{}{}
	}
	return teacherIDs, subjectIDs, nil
}

// validatePeriods rejects malformed day/period structures and references to
// unregistered teachers or subjects before any write.
func validatePeriods(periods models.PeriodMap, institution *models.Institution, teacherIDs, subjectIDs map[string]struct{}) error {
	for day, assignments := range periods {
		if !institution.HasWorkingDay(day) {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%q is not a working day for this institution", day))
		}
		seen := make(map[int]bool, len(assignments))
		for _, a := range assignments {
			if a.Period <= 0 {
				return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid period number %d on %s", a.Period, day))
			}
			if a.TeacherID == "" || a.SubjectID == "" {
				return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("assignment on %s period %d is missing teacher or subject", day, a.Period))
			}
			if _, ok := teacherIDs[a.TeacherID]; !ok {
				return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown teacher %q on %s period %d", a.TeacherID, day, a.Period))
			}
			if _, ok := subjectIDs[a.SubjectID]; !ok {
				return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown subject %q on %s period %d", a.SubjectID, day, a.Period))
			}
			if seen[a.Period] {
				return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate assignment for %s period %d", day, a.Period))
			}
			seen[a.Period] = true
		}
	}
	return nil
}

// normalizePeriods drops empty day lists and orders assignments by period so
// stored drafts compare deterministically.
func normalizePeriods(periods models.PeriodMap) models.PeriodMap {
	normalized := make(models.PeriodMap, len(periods))
	for day, assignments := range periods {
		if len(assignments) == 0 {
			continue
		}
		ordered := make([]models.PeriodAssignment, len(assignments))
		copy(ordered, assignments)
		sort.Slice(ordered, func(i, j int) bool { return ordered[i].Period < ordered[j].Period })
		normalized[day] = ordered
	}
	return normalized
}

// filterTeacher removes every assignment of one teacher, reporting how many
// were dropped.
func filterTeacher(periods models.PeriodMap, teacherID string) (models.PeriodMap, int) {
	filtered := make(models.PeriodMap, len(periods))
	removed := 0
	for day, assignments := range periods {
		kept := make([]models.PeriodAssignment, 0, len(assignments))
		for _, a := range assignments {
			if a.TeacherID == teacherID {
				removed++
				continue
			}
			kept = append(kept, a)
		}
		if len(kept) > 0 {
			filtered[day] = kept
		}
	}
	return filtered, removed
}
