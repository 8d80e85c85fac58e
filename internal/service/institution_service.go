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

type institutionRepository interface {
	FindByID(ctx context.Context, id string) (*models.Institution, error)
	UpdateWorkingDays(ctx context.Context, id string, workingDays []string) error
}

// UpdateWorkingDaysRequest replaces the institution's working week.
type UpdateWorkingDaysRequest struct {
	WorkingDays []string `json:"working_days" validate:"required,min=1,dive,oneof=Monday Tuesday Wednesday Thursday Friday Saturday Sunday"`
}

// InstitutionService exposes tenancy-level configuration. Working days gate
// which weekdays a timetable may assign.
type InstitutionService struct {
	repo       institutionRepository
	timetables *TimetableService
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewInstitutionService instantiates InstitutionService.
func NewInstitutionService(repo institutionRepository, timetables *TimetableService, validate *validator.Validate, logger *zap.Logger) *InstitutionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstitutionService{repo: repo, timetables: timetables, validator: validate, logger: logger}
}

// Get returns the caller's institution.
func (s *InstitutionService) Get(ctx context.Context, claims *models.JWTClaims) (*models.Institution, error) {
	if claims == nil || claims.InstitutionID == "" {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "missing institution scope")
	}
	institution, err := s.repo.FindByID(ctx, claims.InstitutionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "institution not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load institution")
	}
	return institution, nil
}

// UpdateWorkingDays replaces the working week. Existing timetable slots on
// removed days remain stored but surface as validation failures on the next
// save, so the snapshot cache is invalidated to keep readers current.
func (s *InstitutionService) UpdateWorkingDays(ctx context.Context, req UpdateWorkingDaysRequest, claims *models.JWTClaims) (*models.Institution, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid working days payload")
	}
	institution, err := s.Get(ctx, claims)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateWorkingDays(ctx, institution.ID, req.WorkingDays); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update working days")
	}
	institution.WorkingDays = req.WorkingDays

	if s.timetables != nil {
		s.timetables.invalidateSnapshot(ctx, institution.ID, "*")
	}

	s.logger.Info("institution working days updated",
		zap.String("institution_id", institution.ID),
		zap.Strings("working_days", req.WorkingDays))
	return institution, nil
}
