package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Rishi9822/timetable-organizer-api/internal/models"
)

// InstitutionRepository manages persistence for institutions.
type InstitutionRepository struct {
	db *sqlx.DB
}

// NewInstitutionRepository constructs a new institution repository.
func NewInstitutionRepository(db *sqlx.DB) *InstitutionRepository {
	return &InstitutionRepository{db: db}
}

// FindByID returns an institution record by ID.
func (r *InstitutionRepository) FindByID(ctx context.Context, id string) (*models.Institution, error) {
	const query = `SELECT id, name, type, working_days, created_at, updated_at FROM institutions WHERE id = $1`
	var institution models.Institution
	if err := r.db.GetContext(ctx, &institution, query, id); err != nil {
		return nil, err
	}
	return &institution, nil
}

// Create stores a new institution record. Onboarding is handled elsewhere;
// this exists for seeding and tests.
func (r *InstitutionRepository) Create(ctx context.Context, institution *models.Institution) error {
	if institution.ID == "" {
		institution.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	institution.CreatedAt = now
	institution.UpdatedAt = now

	const query = `INSERT INTO institutions (id, name, type, working_days, created_at, updated_at) VALUES (:id, :name, :type, :working_days, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, institution); err != nil {
		return fmt.Errorf("create institution: %w", err)
	}
	return nil
}

// UpdateWorkingDays replaces the configured working week.
func (r *InstitutionRepository) UpdateWorkingDays(ctx context.Context, id string, workingDays []string) error {
	const query = `UPDATE institutions SET working_days = $1, updated_at = $2 WHERE id = $3`
	if _, err := r.db.ExecContext(ctx, query, pq.StringArray(workingDays), time.Now().UTC(), id); err != nil {
		return fmt.Errorf("update institution working days: %w", err)
	}
	return nil
}
