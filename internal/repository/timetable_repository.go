package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Rishi9822/timetable-organizer-api/internal/models"
)

const timetableColumns = "id, institution_id, class_id, academic_year, is_published, periods, superseded_at, created_at, updated_at"

// TimetableRepository persists per-class timetables. Each row is either the
// single draft, the single published snapshot, or a superseded historical
// record for its (class, academic year) tuple.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository constructs a new timetable repository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

// FindDraft loads the draft for a class/year, if one exists.
func (r *TimetableRepository) FindDraft(ctx context.Context, classID, academicYear string) (*models.Timetable, error) {
	query := fmt.Sprintf(`SELECT %s FROM timetables WHERE class_id = $1 AND academic_year = $2 AND NOT is_published AND superseded_at IS NULL`, timetableColumns)
	var timetable models.Timetable
	if err := r.db.GetContext(ctx, &timetable, query, classID, academicYear); err != nil {
		return nil, err
	}
	return &timetable, nil
}

// FindPublished loads the published snapshot for a class/year, if one exists.
func (r *TimetableRepository) FindPublished(ctx context.Context, classID, academicYear string) (*models.Timetable, error) {
	query := fmt.Sprintf(`SELECT %s FROM timetables WHERE class_id = $1 AND academic_year = $2 AND is_published AND superseded_at IS NULL`, timetableColumns)
	var timetable models.Timetable
	if err := r.db.GetContext(ctx, &timetable, query, classID, academicYear); err != nil {
		return nil, err
	}
	return &timetable, nil
}

// ListByInstitutionYear returns every live timetable (drafts and published,
// superseded excluded) for an institution within one academic year. This is
// the dataset the conflict detector and availability oracle consume.
func (r *TimetableRepository) ListByInstitutionYear(ctx context.Context, institutionID, academicYear string) ([]models.Timetable, error) {
	query := fmt.Sprintf(`SELECT %s FROM timetables WHERE institution_id = $1 AND academic_year = $2 AND superseded_at IS NULL ORDER BY class_id ASC, is_published ASC`, timetableColumns)
	var timetables []models.Timetable
	if err := r.db.SelectContext(ctx, &timetables, query, institutionID, academicYear); err != nil {
		return nil, fmt.Errorf("list timetables: %w", err)
	}
	return timetables, nil
}

// UpsertDraft inserts or fully replaces the draft for a class/year. The
// periods map is swapped atomically; no partial merge happens. On the update
// path the stored row keeps its identity, so id and created_at are read back
// rather than trusted from the candidate values.
func (r *TimetableRepository) UpsertDraft(ctx context.Context, timetable *models.Timetable) error {
	if timetable.ID == "" {
		timetable.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if timetable.CreatedAt.IsZero() {
		timetable.CreatedAt = now
	}
	timetable.UpdatedAt = now
	timetable.IsPublished = false

	const query = `
INSERT INTO timetables (id, institution_id, class_id, academic_year, is_published, periods, created_at, updated_at)
VALUES (:id, :institution_id, :class_id, :academic_year, :is_published, :periods, :created_at, :updated_at)
ON CONFLICT (class_id, academic_year) WHERE NOT is_published AND superseded_at IS NULL DO UPDATE
SET periods = EXCLUDED.periods,
    updated_at = EXCLUDED.updated_at
RETURNING id, created_at`
	rows, err := r.db.NamedQueryContext(ctx, query, timetable)
	if err != nil {
		return fmt.Errorf("upsert draft timetable: %w", err)
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&timetable.ID, &timetable.CreatedAt); err != nil {
			return fmt.Errorf("scan upserted draft timetable: %w", err)
		}
	}
	return rows.Err()
}

// Publish promotes the draft for a class/year to the published snapshot
// inside one transaction. Any prior published record is superseded first.
// Returns sql.ErrNoRows when no draft exists.
func (r *TimetableRepository) Publish(ctx context.Context, classID, academicYear string) (*models.Timetable, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin publish timetable: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var draftID string
	const draftQuery = `SELECT id FROM timetables WHERE class_id = $1 AND academic_year = $2 AND NOT is_published AND superseded_at IS NULL FOR UPDATE`
	if err = tx.GetContext(ctx, &draftID, draftQuery, classID, academicYear); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	const supersedeQuery = `UPDATE timetables SET is_published = FALSE, superseded_at = $1, updated_at = $1 WHERE class_id = $2 AND academic_year = $3 AND is_published AND superseded_at IS NULL`
	if _, err = tx.ExecContext(ctx, supersedeQuery, now, classID, academicYear); err != nil {
		return nil, fmt.Errorf("supersede published timetable: %w", err)
	}

	const promoteQuery = `UPDATE timetables SET is_published = TRUE, updated_at = $1 WHERE id = $2`
	if _, err = tx.ExecContext(ctx, promoteQuery, now, draftID); err != nil {
		return nil, fmt.Errorf("promote draft timetable: %w", err)
	}

	published := models.Timetable{}
	selectQuery := fmt.Sprintf(`SELECT %s FROM timetables WHERE id = $1`, timetableColumns)
	if err = tx.GetContext(ctx, &published, selectQuery, draftID); err != nil {
		return nil, fmt.Errorf("load published timetable: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit publish timetable: %w", err)
	}
	return &published, nil
}

// DeleteByClass removes every timetable row for a class. Used by the class
// registry cascade only.
func (r *TimetableRepository) DeleteByClass(ctx context.Context, classID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM timetables WHERE class_id = $1`, classID); err != nil {
		return fmt.Errorf("delete timetables by class: %w", err)
	}
	return nil
}
