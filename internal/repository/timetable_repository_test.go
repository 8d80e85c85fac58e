package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/Rishi9822/timetable-organizer-api/internal/models"
)

func newTimetableRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func timetableRows(t *testing.T, id string, isPublished bool, periods models.PeriodMap) *sqlmock.Rows {
	t.Helper()
	payload, err := json.Marshal(periods)
	require.NoError(t, err)
	return sqlmock.NewRows([]string{"id", "institution_id", "class_id", "academic_year", "is_published", "periods", "superseded_at", "created_at", "updated_at"}).
		AddRow(id, "inst-1", "class-a", "2026-2027", isPublished, payload, nil, time.Now(), time.Now())
}

func TestTimetableRepositoryFindDraft(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()

	repo := NewTimetableRepository(db)
	periods := models.PeriodMap{"Monday": {{Period: 1, SubjectID: "math", TeacherID: "teacher-x"}}}
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, institution_id, class_id, academic_year, is_published, periods, superseded_at, created_at, updated_at FROM timetables WHERE class_id = $1 AND academic_year = $2 AND NOT is_published AND superseded_at IS NULL")).
		WithArgs("class-a", "2026-2027").
		WillReturnRows(timetableRows(t, "tt-1", false, periods))

	draft, err := repo.FindDraft(context.Background(), "class-a", "2026-2027")
	require.NoError(t, err)
	require.Equal(t, "tt-1", draft.ID)
	require.False(t, draft.IsPublished)
	require.Equal(t, periods, draft.Periods)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryFindDraftNoRows(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()

	repo := NewTimetableRepository(db)
	mock.ExpectQuery("SELECT id, institution_id").
		WithArgs("class-a", "2026-2027").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindDraft(context.Background(), "class-a", "2026-2027")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryUpsertDraft(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()

	repo := NewTimetableRepository(db)
	created := time.Now().UTC().Add(-time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO timetables")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("tt-new", created))

	timetable := &models.Timetable{
		InstitutionID: "inst-1",
		ClassID:       "class-a",
		AcademicYear:  "2026-2027",
		Periods:       models.PeriodMap{"Monday": {{Period: 1, SubjectID: "math", TeacherID: "teacher-x"}}},
	}
	require.NoError(t, repo.UpsertDraft(context.Background(), timetable))
	require.Equal(t, "tt-new", timetable.ID)
	require.False(t, timetable.IsPublished)
	require.False(t, timetable.UpdatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryUpsertDraftKeepsExistingIdentity(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()

	repo := NewTimetableRepository(db)
	created := time.Date(2026, time.September, 1, 8, 0, 0, 0, time.UTC)

	// The conflict-update path returns the stored row's id and created_at,
	// not the freshly generated candidate values.
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO timetables")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("tt-existing", created))

	timetable := &models.Timetable{
		InstitutionID: "inst-1",
		ClassID:       "class-a",
		AcademicYear:  "2026-2027",
		Periods:       models.PeriodMap{"Monday": {{Period: 2, SubjectID: "math", TeacherID: "teacher-x"}}},
	}
	require.NoError(t, repo.UpsertDraft(context.Background(), timetable))
	require.Equal(t, "tt-existing", timetable.ID)
	require.Equal(t, created, timetable.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryPublish(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()

	repo := NewTimetableRepository(db)
	periods := models.PeriodMap{"Monday": {{Period: 1, SubjectID: "math", TeacherID: "teacher-x"}}}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM timetables WHERE class_id = $1 AND academic_year = $2 AND NOT is_published AND superseded_at IS NULL FOR UPDATE")).
		WithArgs("class-a", "2026-2027").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("tt-draft"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE timetables SET is_published = FALSE, superseded_at = $1")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE timetables SET is_published = TRUE, updated_at = $1 WHERE id = $2")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, institution_id, class_id, academic_year, is_published, periods, superseded_at, created_at, updated_at FROM timetables WHERE id = $1")).
		WithArgs("tt-draft").
		WillReturnRows(timetableRows(t, "tt-draft", true, periods))
	mock.ExpectCommit()

	published, err := repo.Publish(context.Background(), "class-a", "2026-2027")
	require.NoError(t, err)
	require.True(t, published.IsPublished)
	require.Equal(t, "tt-draft", published.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryPublishWithoutDraftRollsBack(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()

	repo := NewTimetableRepository(db)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM timetables")).
		WithArgs("class-a", "2026-2027").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.Publish(context.Background(), "class-a", "2026-2027")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryListByInstitutionYear(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()

	repo := NewTimetableRepository(db)
	periods := models.PeriodMap{"Monday": {{Period: 1, SubjectID: "math", TeacherID: "teacher-x"}}}
	mock.ExpectQuery(regexp.QuoteMeta("FROM timetables WHERE institution_id = $1 AND academic_year = $2 AND superseded_at IS NULL")).
		WithArgs("inst-1", "2026-2027").
		WillReturnRows(timetableRows(t, "tt-1", false, periods))

	timetables, err := repo.ListByInstitutionYear(context.Background(), "inst-1", "2026-2027")
	require.NoError(t, err)
	require.Len(t, timetables, 1)
	require.Equal(t, periods, timetables[0].Periods)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryDeleteByClass(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()

	repo := NewTimetableRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM timetables WHERE class_id = $1")).
		WithArgs("class-a").
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, repo.DeleteByClass(context.Background(), "class-a"))
	require.NoError(t, mock.ExpectationsWereMet())
}
