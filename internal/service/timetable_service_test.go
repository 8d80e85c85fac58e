package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Rishi9822/timetable-organizer-api/internal/models"
	appErrors "github.com/Rishi9822/timetable-organizer-api/pkg/errors"
)

type fakeTimetableRepo struct {
	drafts      map[string]models.Timetable
	published   map[string]models.Timetable
	superseded  []models.Timetable
	listCalls   int
	upsertCalls int
}

func newFakeTimetableRepo() *fakeTimetableRepo {
	return &fakeTimetableRepo{
		drafts:    make(map[string]models.Timetable),
		published: make(map[string]models.Timetable),
	}
}

func ttKey(classID, year string) string { return classID + "|" + year }

func (f *fakeTimetableRepo) FindDraft(_ context.Context, classID, year string) (*models.Timetable, error) {
	if t, ok := f.drafts[ttKey(classID, year)]; ok {
		return &t, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeTimetableRepo) FindPublished(_ context.Context, classID, year string) (*models.Timetable, error) {
	if t, ok := f.published[ttKey(classID, year)]; ok {
		return &t, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeTimetableRepo) ListByInstitutionYear(_ context.Context, institutionID, year string) ([]models.Timetable, error) {
	f.listCalls++
	var out []models.Timetable
	for _, t := range f.drafts {
		if t.InstitutionID == institutionID && t.AcademicYear == year {
			out = append(out, t)
		}
	}
	for _, t := range f.published {
		if t.InstitutionID == institutionID && t.AcademicYear == year {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTimetableRepo) UpsertDraft(_ context.Context, timetable *models.Timetable) error {
	f.upsertCalls++
	if timetable.ID == "" {
		timetable.ID = fmt.Sprintf("tt-%d", f.upsertCalls)
	}
	f.drafts[ttKey(timetable.ClassID, timetable.AcademicYear)] = *timetable
	return nil
}

func (f *fakeTimetableRepo) Publish(_ context.Context, classID, year string) (*models.Timetable, error) {
	key := ttKey(classID, year)
	draft, ok := f.drafts[key]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if old, ok := f.published[key]; ok {
		now := time.Now().UTC()
		old.SupersededAt = &now
		f.superseded = append(f.superseded, old)
	}
	delete(f.drafts, key)
	draft.IsPublished = true
	f.published[key] = draft
	return &draft, nil
}

func (f *fakeTimetableRepo) DeleteByClass(_ context.Context, classID string) error {
	for key, t := range f.drafts {
		if t.ClassID == classID {
			delete(f.drafts, key)
		}
	}
	for key, t := range f.published {
		if t.ClassID == classID {
			delete(f.published, key)
		}
	}
	return nil
}

type fakeInstitutionRepo struct {
	institution models.Institution
}

func (f *fakeInstitutionRepo) FindByID(_ context.Context, _ string) (*models.Institution, error) {
	inst := f.institution
	return &inst, nil
}

type fakeSubjectLister struct {
	subjects []models.Subject
}

func (f *fakeSubjectLister) ListByInstitution(_ context.Context, _ string) ([]models.Subject, error) {
	return f.subjects, nil
}

type stubCacheRepo struct {
	store       map[string][]byte
	deleteCalls int
}

func (s *stubCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	payload, ok := s.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (s *stubCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	if s.store == nil {
		s.store = make(map[string][]byte)
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.store[key] = payload
	return nil
}

func (s *stubCacheRepo) DeleteByPattern(_ context.Context, _ string) error {
	s.deleteCalls++
	s.store = nil
	return nil
}

func newTestTimetableService(repo *fakeTimetableRepo, cacheRepo *stubCacheRepo) *TimetableService {
	classes := &fakeClassLister{classes: []models.Class{
		{ID: "class-a", InstitutionID: "inst-1", Name: "Grade 10A"},
		{ID: "class-b", InstitutionID: "inst-1", Name: "Grade 10B"},
		{ID: "class-z", InstitutionID: "inst-2", Name: "Other Tenant"},
	}}
	institutions := &fakeInstitutionRepo{institution: models.Institution{
		ID:          "inst-1",
		Name:        "Springfield High",
		Type:        models.InstitutionTypeSchool,
		WorkingDays: []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"},
	}}
	subjects := &fakeSubjectLister{subjects: []models.Subject{
		{ID: "math", Name: "Mathematics"},
		{ID: "bio", Name: "Biology"},
	}}
	teachers := &fakeTeacherLister{teachers: []models.Teacher{
		{ID: "teacher-x", FullName: "Ada"},
		{ID: "teacher-y", FullName: "Grace"},
	}}
	cacheSvc := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), cacheRepo != nil)

	svc := NewTimetableService(repo, classes, institutions, subjects, teachers, cacheSvc, nil, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2026, time.September, 1, 8, 0, 0, 0, time.UTC) }
	return svc
}

func schedulerClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "user-1", InstitutionID: "inst-1", Role: models.RoleScheduler}
}

func TestTimetableLoadEmptyNeverPersisted(t *testing.T) {
	repo := newFakeTimetableRepo()
	svc := newTestTimetableService(repo, nil)

	timetable, err := svc.Load(context.Background(), "class-a", "", schedulerClaims())
	require.NoError(t, err)
	assert.True(t, timetable.IsEmpty)
	assert.False(t, timetable.IsPublished)
	assert.Equal(t, "2026-2027", timetable.AcademicYear)
	assert.Empty(t, timetable.Periods)
	assert.Zero(t, repo.upsertCalls)
}

func TestTimetableLoadUnknownClass(t *testing.T) {
	svc := newTestTimetableService(newFakeTimetableRepo(), nil)

	_, err := svc.Load(context.Background(), "missing", "", schedulerClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTimetableLoadForeignClassLooksMissing(t *testing.T) {
	svc := newTestTimetableService(newFakeTimetableRepo(), nil)

	_, err := svc.Load(context.Background(), "class-z", "", schedulerClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTimetableSaveValidation(t *testing.T) {
	svc := newTestTimetableService(newFakeTimetableRepo(), nil)
	claims := schedulerClaims()

	cases := map[string]models.PeriodMap{
		"non working day": {
			"Sunday": {slot(1, "math", "teacher-x")},
		},
		"non positive period": {
			"Monday": {slot(0, "math", "teacher-x")},
		},
		"missing teacher": {
			"Monday": {{Period: 1, SubjectID: "math"}},
		},
		"duplicate slot": {
			"Monday": {slot(1, "math", "teacher-x"), slot(1, "bio", "teacher-y")},
		},
		"unregistered teacher": {
			"Monday": {slot(1, "math", "teacher-ghost")},
		},
		"unregistered subject": {
			"Monday": {slot(1, "alchemy", "teacher-x")},
		},
	}

	for name, periods := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Save(context.Background(), "class-a", SaveTimetableRequest{Periods: periods}, claims)
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
		})
	}
}

func TestTimetableSaveThenLoadReturnsDraft(t *testing.T) {
	repo := newFakeTimetableRepo()
	svc := newTestTimetableService(repo, nil)
	claims := schedulerClaims()

	saved, err := svc.Save(context.Background(), "class-a", SaveTimetableRequest{
		Periods: models.PeriodMap{
			"Monday": {slot(2, "math", "teacher-x"), slot(1, "math", "teacher-x")},
		},
	}, claims)
	require.NoError(t, err)
	assert.False(t, saved.IsPublished)

	// Assignments come back ordered by period regardless of input order.
	require.Len(t, saved.Periods["Monday"], 2)
	assert.Equal(t, 1, saved.Periods["Monday"][0].Period)
	assert.Equal(t, 2, saved.Periods["Monday"][1].Period)

	loaded, err := svc.Load(context.Background(), "class-a", "", claims)
	require.NoError(t, err)
	assert.False(t, loaded.IsEmpty)
	assert.Equal(t, saved.Periods, loaded.Periods)
}

func TestTimetableSaveReplacesWholeDraft(t *testing.T) {
	repo := newFakeTimetableRepo()
	svc := newTestTimetableService(repo, nil)
	claims := schedulerClaims()

	_, err := svc.Save(context.Background(), "class-a", SaveTimetableRequest{
		Periods: models.PeriodMap{
			"Monday":  {slot(1, "math", "teacher-x")},
			"Tuesday": {slot(1, "math", "teacher-x")},
		},
	}, claims)
	require.NoError(t, err)

	saved, err := svc.Save(context.Background(), "class-a", SaveTimetableRequest{
		Periods: models.PeriodMap{"Monday": {slot(3, "math", "teacher-x")}},
	}, claims)
	require.NoError(t, err)

	assert.Len(t, saved.Periods, 1)
	assert.Nil(t, saved.Periods["Tuesday"])
}

func TestTimetablePublishWithoutDraft(t *testing.T) {
	svc := newTestTimetableService(newFakeTimetableRepo(), nil)

	_, err := svc.Publish(context.Background(), "class-a", "", schedulerClaims())
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Equal(t, "no draft timetable to publish", appErr.Message)
}

func TestTimetablePublishLifecycle(t *testing.T) {
	repo := newFakeTimetableRepo()
	svc := newTestTimetableService(repo, nil)
	claims := schedulerClaims()

	_, err := svc.Save(context.Background(), "class-a", SaveTimetableRequest{
		Periods: models.PeriodMap{"Monday": {slot(1, "math", "teacher-x")}},
	}, claims)
	require.NoError(t, err)

	published, err := svc.Publish(context.Background(), "class-a", "", claims)
	require.NoError(t, err)
	assert.True(t, published.IsPublished)

	// With the draft consumed, loads fall through to the published record.
	loaded, err := svc.Load(context.Background(), "class-a", "", claims)
	require.NoError(t, err)
	assert.True(t, loaded.IsPublished)

	// A save after publish opens a fresh draft without touching history.
	draft, err := svc.Save(context.Background(), "class-a", SaveTimetableRequest{
		Periods: models.PeriodMap{"Monday": {slot(2, "math", "teacher-x")}},
	}, claims)
	require.NoError(t, err)
	assert.False(t, draft.IsPublished)

	loaded, err = svc.Load(context.Background(), "class-a", "", claims)
	require.NoError(t, err)
	assert.False(t, loaded.IsPublished)
	assert.Equal(t, 2, loaded.Periods["Monday"][0].Period)

	// Republishing supersedes the previous published record.
	_, err = svc.Publish(context.Background(), "class-a", "", claims)
	require.NoError(t, err)
	require.Len(t, repo.superseded, 1)
	assert.NotNil(t, repo.superseded[0].SupersededAt)
}

func TestTimetableListAllUsesSnapshotCache(t *testing.T) {
	repo := newFakeTimetableRepo()
	cacheRepo := &stubCacheRepo{}
	svc := newTestTimetableService(repo, cacheRepo)
	claims := schedulerClaims()

	_, err := svc.Save(context.Background(), "class-a", SaveTimetableRequest{
		Periods: models.PeriodMap{"Monday": {slot(1, "math", "teacher-x")}},
	}, claims)
	require.NoError(t, err)

	first, err := svc.ListAll(context.Background(), "", claims)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, 1, repo.listCalls)

	second, err := svc.ListAll(context.Background(), "", claims)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, 1, repo.listCalls, "second read must hit the cache")

	// Saving invalidates the snapshot so the next read goes back to the store.
	_, err = svc.Save(context.Background(), "class-b", SaveTimetableRequest{
		Periods: models.PeriodMap{"Monday": {slot(1, "math", "teacher-x")}},
	}, claims)
	require.NoError(t, err)

	third, err := svc.ListAll(context.Background(), "", claims)
	require.NoError(t, err)
	require.Len(t, third, 2)
	assert.Equal(t, 2, repo.listCalls)
}

func TestTimetableDeleteClassInvalidatesSnapshot(t *testing.T) {
	repo := newFakeTimetableRepo()
	cacheRepo := &stubCacheRepo{}
	svc := newTestTimetableService(repo, cacheRepo)
	claims := schedulerClaims()

	_, err := svc.Save(context.Background(), "class-a", SaveTimetableRequest{
		Periods: models.PeriodMap{"Monday": {slot(1, "math", "teacher-x")}},
	}, claims)
	require.NoError(t, err)
	_, err = svc.Save(context.Background(), "class-b", SaveTimetableRequest{
		Periods: models.PeriodMap{"Monday": {slot(2, "bio", "teacher-x")}},
	}, claims)
	require.NoError(t, err)

	// Prime the snapshot cache.
	primed, err := svc.ListAll(context.Background(), "", claims)
	require.NoError(t, err)
	require.Len(t, primed, 2)
	listCallsBefore := repo.listCalls

	require.NoError(t, svc.DeleteClassTimetables(context.Background(), "class-b", claims))

	// The next read must bypass the stale snapshot and drop the deleted
	// class's rows.
	after, err := svc.ListAll(context.Background(), "", claims)
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, "class-a", after[0].ClassID)
	assert.Equal(t, listCallsBefore+1, repo.listCalls)

	// The oracle no longer reports the teacher busy in the deleted class.
	snapshot := NewSnapshot(after)
	assert.True(t, snapshot.IsAvailable("teacher-x", "Monday", 2, "class-a"))
}

func TestTimetableDeleteClassMissingClaims(t *testing.T) {
	svc := newTestTimetableService(newFakeTimetableRepo(), nil)

	err := svc.DeleteClassTimetables(context.Background(), "class-a", nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestTimetableRemoveTeacherAssignments(t *testing.T) {
	repo := newFakeTimetableRepo()
	svc := newTestTimetableService(repo, nil)
	claims := schedulerClaims()

	_, err := svc.Save(context.Background(), "class-a", SaveTimetableRequest{
		Periods: models.PeriodMap{
			"Monday": {slot(1, "math", "teacher-x"), slot(2, "math", "teacher-y")},
		},
	}, claims)
	require.NoError(t, err)
	_, err = svc.Publish(context.Background(), "class-a", "", claims)
	require.NoError(t, err)

	_, err = svc.Save(context.Background(), "class-b", SaveTimetableRequest{
		Periods: models.PeriodMap{"Monday": {slot(1, "bio", "teacher-y")}},
	}, claims)
	require.NoError(t, err)

	require.NoError(t, svc.RemoveTeacherAssignments(context.Background(), "teacher-y", "", claims))

	// Draft rewritten without the deleted teacher.
	draft, err := svc.Load(context.Background(), "class-b", "", claims)
	require.NoError(t, err)
	assert.Zero(t, draft.Periods.AssignmentCount())

	// Published history keeps the teacher.
	publishedA := repo.published[ttKey("class-a", "2026-2027")]
	assert.Equal(t, 2, publishedA.Periods.AssignmentCount())
}

func TestTimetableSaveMissingClaims(t *testing.T) {
	svc := newTestTimetableService(newFakeTimetableRepo(), nil)

	_, err := svc.Save(context.Background(), "class-a", SaveTimetableRequest{
		Periods: models.PeriodMap{"Monday": {slot(1, "math", "teacher-x")}},
	}, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestTimetableExportPDF(t *testing.T) {
	repo := newFakeTimetableRepo()
	svc := newTestTimetableService(repo, nil)
	claims := schedulerClaims()

	_, err := svc.Save(context.Background(), "class-a", SaveTimetableRequest{
		Periods: models.PeriodMap{"Monday": {slot(1, "math", "teacher-x")}},
	}, claims)
	require.NoError(t, err)

	payload, filename, err := svc.ExportPDF(context.Background(), "class-a", "", claims)
	require.NoError(t, err)
	assert.NotEmpty(t, payload)
	assert.Equal(t, "timetable-grade-10a-2026-2027.pdf", filename)
	assert.Equal(t, "%PDF", string(payload[:4]))
}
