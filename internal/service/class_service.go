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

type classRepository interface {
	List(ctx context.Context, filter models.ClassFilter) ([]models.Class, int, error)
	FindByID(ctx context.Context, id string) (*models.Class, error)
	Create(ctx context.Context, class *models.Class) error
	Update(ctx context.Context, class *models.Class) error
	Delete(ctx context.Context, id string) error
}

type classTimetableCascade interface {
	DeleteClassTimetables(ctx context.Context, classID string, claims *models.JWTClaims) error
}

// CreateClassRequest describes payload for creating a class.
type CreateClassRequest struct {
	Name string `json:"name" validate:"required"`
	Type string `json:"type" validate:"omitempty,oneof=SCHOOL COLLEGE"`
}

// UpdateClassRequest updates an existing class.
type UpdateClassRequest struct {
	Name string `json:"name" validate:"required"`
	Type string `json:"type" validate:"omitempty,oneof=SCHOOL COLLEGE"`
}

// ClassService coordinates the class registry.
type ClassService struct {
	repo       classRepository
	timetables classTimetableCascade
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewClassService instantiates ClassService.
func NewClassService(repo classRepository, timetables classTimetableCascade, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{repo: repo, timetables: timetables, validator: validate, logger: logger}
}

func (s *ClassService) scoped(ctx context.Context, id string, claims *models.JWTClaims) (*models.Class, error) {
	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if claims == nil || class.InstitutionID != claims.InstitutionID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}
	return class, nil
}

// List returns classes of the caller's institution with pagination metadata.
func (s *ClassService) List(ctx context.Context, filter models.ClassFilter, claims *models.JWTClaims) ([]models.Class, *models.Pagination, error) {
	filter.InstitutionID = claims.InstitutionID
	classes, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return classes, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one class within the caller's institution.
func (s *ClassService) Get(ctx context.Context, id string, claims *models.JWTClaims) (*models.Class, error) {
	return s.scoped(ctx, id, claims)
}

// Create inserts a new class into the caller's institution.
func (s *ClassService) Create(ctx context.Context, req CreateClassRequest, claims *models.JWTClaims) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}

	classType := models.ClassType(req.Type)
	if classType == "" {
		classType = models.ClassTypeSchool
	}
	class := models.Class{
		InstitutionID: claims.InstitutionID,
		Name:          req.Name,
		Type:          classType,
	}
	if err := s.repo.Create(ctx, &class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
	}
	return &class, nil
}

// Update modifies an existing class.
func (s *ClassService) Update(ctx context.Context, id string, req UpdateClassRequest, claims *models.JWTClaims) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}

	class, err := s.scoped(ctx, id, claims)
	if err != nil {
		return nil, err
	}

	class.Name = req.Name
	if req.Type != "" {
		class.Type = models.ClassType(req.Type)
	}
	if err := s.repo.Update(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class")
	}
	return class, nil
}

// Delete removes a class and cascades to its timetables.
func (s *ClassService) Delete(ctx context.Context, id string, claims *models.JWTClaims) error {
	class, err := s.scoped(ctx, id, claims)
	if err != nil {
		return err
	}

	// The timetable store owns the cascade so the snapshot cache is
	// invalidated together with the rows.
	if err := s.timetables.DeleteClassTimetables(ctx, class.ID, claims); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, class.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete class")
	}

	s.logger.Info("class deleted", zap.String("class_id", class.ID))
	return nil
}
