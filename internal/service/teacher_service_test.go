package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Rishi9822/timetable-organizer-api/internal/models"
	appErrors "github.com/Rishi9822/timetable-organizer-api/pkg/errors"
)

type fakeTeacherRepo struct {
	teachers map[string]models.Teacher
	deleted  []string
}

func (f *fakeTeacherRepo) List(_ context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error) {
	var out []models.Teacher
	for _, t := range f.teachers {
		if t.InstitutionID == filter.InstitutionID {
			out = append(out, t)
		}
	}
	return out, len(out), nil
}

func (f *fakeTeacherRepo) FindByID(_ context.Context, id string) (*models.Teacher, error) {
	if t, ok := f.teachers[id]; ok {
		return &t, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeTeacherRepo) Create(_ context.Context, teacher *models.Teacher) error {
	if teacher.ID == "" {
		teacher.ID = "teacher-new"
	}
	f.teachers[teacher.ID] = *teacher
	return nil
}

func (f *fakeTeacherRepo) Update(_ context.Context, teacher *models.Teacher) error {
	f.teachers[teacher.ID] = *teacher
	return nil
}

func (f *fakeTeacherRepo) Delete(_ context.Context, id string) error {
	delete(f.teachers, id)
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeRewriter struct {
	calls []string
}

func (f *fakeRewriter) RemoveTeacherAssignments(_ context.Context, teacherID, _ string, _ *models.JWTClaims) error {
	f.calls = append(f.calls, teacherID)
	return nil
}

func TestTeacherCreateDefaultsCeiling(t *testing.T) {
	repo := &fakeTeacherRepo{teachers: make(map[string]models.Teacher)}
	svc := NewTeacherService(repo, &fakeRewriter{}, nil, zap.NewNop())

	teacher, err := svc.Create(context.Background(), CreateTeacherRequest{
		FullName: "Ada Lovelace",
		Email:    "ada@springfield.edu",
	}, schedulerClaims())
	require.NoError(t, err)
	assert.Equal(t, models.DefaultMaxPeriodsPerDay, teacher.MaxPeriodsPerDay)
	assert.True(t, teacher.Active)
	assert.Equal(t, "inst-1", teacher.InstitutionID)
}

func TestTeacherDeleteRewritesDraftsFirst(t *testing.T) {
	repo := &fakeTeacherRepo{teachers: map[string]models.Teacher{
		"teacher-x": {ID: "teacher-x", InstitutionID: "inst-1", FullName: "Ada"},
	}}
	rewriter := &fakeRewriter{}
	svc := NewTeacherService(repo, rewriter, nil, zap.NewNop())

	require.NoError(t, svc.Delete(context.Background(), "teacher-x", "2026-2027", schedulerClaims()))
	assert.Equal(t, []string{"teacher-x"}, rewriter.calls)
	assert.Equal(t, []string{"teacher-x"}, repo.deleted)
}

func TestTeacherForeignTenantLooksMissing(t *testing.T) {
	repo := &fakeTeacherRepo{teachers: map[string]models.Teacher{
		"teacher-z": {ID: "teacher-z", InstitutionID: "inst-2"},
	}}
	rewriter := &fakeRewriter{}
	svc := NewTeacherService(repo, rewriter, nil, zap.NewNop())

	_, err := svc.Get(context.Background(), "teacher-z", schedulerClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	err = svc.Delete(context.Background(), "teacher-z", "", schedulerClaims())
	require.Error(t, err)
	assert.Empty(t, rewriter.calls)
}
