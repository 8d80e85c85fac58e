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

type subjectRepository interface {
	List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error)
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	Create(ctx context.Context, subject *models.Subject) error
	Update(ctx context.Context, subject *models.Subject) error
	Delete(ctx context.Context, id string) error
}

// CreateSubjectRequest describes payload for creating a subject.
type CreateSubjectRequest struct {
	Code           string `json:"code" validate:"required"`
	Name           string `json:"name" validate:"required"`
	PeriodsPerWeek int    `json:"periods_per_week" validate:"omitempty,min=1"`
}

// UpdateSubjectRequest updates an existing subject.
type UpdateSubjectRequest struct {
	Code           string `json:"code" validate:"required"`
	Name           string `json:"name" validate:"required"`
	PeriodsPerWeek int    `json:"periods_per_week" validate:"omitempty,min=1"`
}

// SubjectService coordinates the subject registry.
type SubjectService struct {
	repo      subjectRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubjectService instantiates SubjectService.
func NewSubjectService(repo subjectRepository, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{repo: repo, validator: validate, logger: logger}
}

func (s *SubjectService) scoped(ctx context.Context, id string, claims *models.JWTClaims) (*models.Subject, error) {
	subject, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	if claims == nil || subject.InstitutionID != claims.InstitutionID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
	}
	return subject, nil
}

// List returns subjects of the caller's institution with pagination metadata.
func (s *SubjectService) List(ctx context.Context, filter models.SubjectFilter, claims *models.JWTClaims) ([]models.Subject, *models.Pagination, error) {
	filter.InstitutionID = claims.InstitutionID
	subjects, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return subjects, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one subject within the caller's institution.
func (s *SubjectService) Get(ctx context.Context, id string, claims *models.JWTClaims) (*models.Subject, error) {
	return s.scoped(ctx, id, claims)
}

// Create inserts a new subject into the caller's institution.
func (s *SubjectService) Create(ctx context.Context, req CreateSubjectRequest, claims *models.JWTClaims) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}

	subject := models.Subject{
		InstitutionID:  claims.InstitutionID,
		Code:           req.Code,
		Name:           req.Name,
		PeriodsPerWeek: req.PeriodsPerWeek,
	}
	if err := s.repo.Create(ctx, &subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subject")
	}
	return &subject, nil
}

// Update modifies an existing subject.
func (s *SubjectService) Update(ctx context.Context, id string, req UpdateSubjectRequest, claims *models.JWTClaims) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}

	subject, err := s.scoped(ctx, id, claims)
	if err != nil {
		return nil, err
	}

	subject.Code = req.Code
	subject.Name = req.Name
	if req.PeriodsPerWeek > 0 {
		subject.PeriodsPerWeek = req.PeriodsPerWeek
	}
	if err := s.repo.Update(ctx, subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update subject")
	}
	return subject, nil
}

// Delete removes a subject record.
func (s *SubjectService) Delete(ctx context.Context, id string, claims *models.JWTClaims) error {
	subject, err := s.scoped(ctx, id, claims)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, subject.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete subject")
	}
	return nil
}
