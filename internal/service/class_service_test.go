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

type fakeClassRegistry struct {
	classes map[string]models.Class
	deleted []string
}

func (f *fakeClassRegistry) List(_ context.Context, _ models.ClassFilter) ([]models.Class, int, error) {
	out := make([]models.Class, 0, len(f.classes))
	for _, c := range f.classes {
		out = append(out, c)
	}
	return out, len(out), nil
}

func (f *fakeClassRegistry) FindByID(_ context.Context, id string) (*models.Class, error) {
	if c, ok := f.classes[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeClassRegistry) Create(_ context.Context, class *models.Class) error {
	f.classes[class.ID] = *class
	return nil
}

func (f *fakeClassRegistry) Update(_ context.Context, class *models.Class) error {
	f.classes[class.ID] = *class
	return nil
}

func (f *fakeClassRegistry) Delete(_ context.Context, id string) error {
	delete(f.classes, id)
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeClassCascade struct {
	calls []string
}

func (f *fakeClassCascade) DeleteClassTimetables(_ context.Context, classID string, _ *models.JWTClaims) error {
	f.calls = append(f.calls, classID)
	return nil
}

func newTestClassService() (*ClassService, *fakeClassRegistry, *fakeClassCascade) {
	repo := &fakeClassRegistry{classes: map[string]models.Class{
		"class-a": {ID: "class-a", InstitutionID: "inst-1", Name: "Grade 10A"},
		"class-z": {ID: "class-z", InstitutionID: "inst-2", Name: "Other Tenant"},
	}}
	cascade := &fakeClassCascade{}
	return NewClassService(repo, cascade, nil, zap.NewNop()), repo, cascade
}

func TestClassDeleteCascadesTimetablesFirst(t *testing.T) {
	svc, repo, cascade := newTestClassService()

	require.NoError(t, svc.Delete(context.Background(), "class-a", schedulerClaims()))

	// Timetable rows and the snapshot go before the class record itself.
	assert.Equal(t, []string{"class-a"}, cascade.calls)
	assert.Equal(t, []string{"class-a"}, repo.deleted)
}

func TestClassDeleteForeignTenantLooksMissing(t *testing.T) {
	svc, repo, cascade := newTestClassService()

	err := svc.Delete(context.Background(), "class-z", schedulerClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Empty(t, cascade.calls)
	assert.Empty(t, repo.deleted)
}
