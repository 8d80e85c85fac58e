package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Rishi9822/timetable-organizer-api/internal/models"
	appErrors "github.com/Rishi9822/timetable-organizer-api/pkg/errors"
)

type teacherRepository interface {
	List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error)
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	Create(ctx context.Context, teacher *models.Teacher) error
	Update(ctx context.Context, teacher *models.Teacher) error
	Delete(ctx context.Context, id string) error
}

type teacherTimetableRewriter interface {
	RemoveTeacherAssignments(ctx context.Context, teacherID, academicYear string, claims *models.JWTClaims) error
}

// CreateTeacherRequest describes payload for creating a teacher.
type CreateTeacherRequest struct {
	FullName         string `json:"full_name" validate:"required"`
	Email            string `json:"email" validate:"required,email"`
	MaxPeriodsPerDay int    `json:"max_periods_per_day" validate:"omitempty,min=1"`
}

// UpdateTeacherRequest updates an existing teacher.
type UpdateTeacherRequest struct {
	FullName         string `json:"full_name" validate:"required"`
	Email            string `json:"email" validate:"required,email"`
	MaxPeriodsPerDay int    `json:"max_periods_per_day" validate:"omitempty,min=1"`
	Active           *bool  `json:"active"`
}

// TeacherService coordinates the teacher registry.
type TeacherService struct {
	repo       teacherRepository
	timetables teacherTimetableRewriter
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewTeacherService instantiates TeacherService.
func NewTeacherService(repo teacherRepository, timetables teacherTimetableRewriter, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, timetables: timetables, validator: validate, logger: logger}
}

func (s *TeacherService) scoped(ctx context.Context, id string, claims *models.JWTClaims) (*models.Teacher, error) {
	teacher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if claims == nil || teacher.InstitutionID != claims.InstitutionID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
	}
	return teacher, nil
}

// List returns teachers of the caller's institution with pagination metadata.
func (s *TeacherService) List(ctx context.Context, filter models.TeacherFilter, claims *models.JWTClaims) ([]models.Teacher, *models.Pagination, error) {
	filter.InstitutionID = claims.InstitutionID
	teachers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return teachers, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one teacher within the caller's institution.
func (s *TeacherService) Get(ctx context.Context, id string, claims *models.JWTClaims) (*models.Teacher, error) {
	return s.scoped(ctx, id, claims)
}

// Create inserts a new teacher into the caller's institution.
func (s *TeacherService) Create(ctx context.Context, req CreateTeacherRequest, claims *models.JWTClaims) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}

	maxPeriods := req.MaxPeriodsPerDay
	if maxPeriods <= 0 {
		maxPeriods = models.DefaultMaxPeriodsPerDay
	}
	teacher := models.Teacher{
		InstitutionID:    claims.InstitutionID,
		FullName:         req.FullName,
		Email:            req.Email,
		MaxPeriodsPerDay: maxPeriods,
		Active:           true,
	}
	if err := s.repo.Create(ctx, &teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher")
	}
	return &teacher, nil
}

// Update modifies an existing teacher.
func (s *TeacherService) Update(ctx context.Context, id string, req UpdateTeacherRequest, claims *models.JWTClaims) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}

	teacher, err := s.scoped(ctx, id, claims)
	if err != nil {
		return nil, err
	}

	teacher.FullName = req.FullName
	teacher.Email = req.Email
	if req.MaxPeriodsPerDay > 0 {
		teacher.MaxPeriodsPerDay = req.MaxPeriodsPerDay
	}
	if req.Active != nil {
		teacher.Active = *req.Active
	}
	if err := s.repo.Update(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update teacher")
	}
	return teacher, nil
}

// Delete removes a teacher after filtering their assignments out of every
// draft timetable for the current academic year. Published history keeps the
// teacher's past assignments.
func (s *TeacherService) Delete(ctx context.Context, id, academicYear string, claims *models.JWTClaims) error {
	teacher, err := s.scoped(ctx, id, claims)
	if err != nil {
		return err
	}

	if err := s.timetables.RemoveTeacherAssignments(ctx, teacher.ID, academicYear, claims); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, teacher.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete teacher")
	}

	s.logger.Info("teacher deleted", zap.String("teacher_id", teacher.ID))
	return nil
}
