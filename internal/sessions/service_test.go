package sessions

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/courses"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/platform/httpx"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/shared"
)

type memRepo struct {
	mu       sync.Mutex
	nextID   int64
	sessions map[int64]Session
}

func newMemRepo() *memRepo {
	return &memRepo{nextID: 1, sessions: make(map[int64]Session)}
}

func (m *memRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, m)
}

func (m *memRepo) Get(_ context.Context, id int64) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &s, nil
}

func (m *memRepo) List(_ context.Context, filter ListFilter) ([]Session, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Session
	for _, s := range m.sessions {
		if filter.CourseID != nil && s.CourseID != *filter.CourseID {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	total := len(out)
	if filter.Offset > len(out) {
		return []Session{}, total, nil
	}
	out = out[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, total, nil
}

func (m *memRepo) Count(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions), nil
}

func (m *memRepo) Create(_ context.Context, session Session) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session.ID = m.nextID
	m.nextID++
	m.sessions[session.ID] = session
	return session.ID, nil
}

func (m *memRepo) Update(_ context.Context, session Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[session.ID]; !ok {
		return ErrSessionNotFound
	}
	m.sessions[session.ID] = session
	return nil
}

func (m *memRepo) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

type catalogStub map[int64]courses.Course

func (c catalogStub) Get(_ context.Context, id int64) (*courses.Course, error) {
	course, ok := c[id]
	if !ok {
		return nil, courses.ErrCourseNotFound
	}
	return &course, nil
}

func newTestService() (*Service, *memRepo) {
	repo := newMemRepo()
	svc := NewService(repo, catalogStub{1: {ID: 1, Name: "Go Basics"}, 2: {ID: 2, Name: "SQL"}}, nil)
	svc.now = func() time.Time { return time.Date(2026, 3, 10, 22, 30, 0, 0, time.UTC) }
	return svc, repo
}

func TestCreateSession(t *testing.T) {
	svc, _ := newTestService()
	session, err := svc.Create(context.Background(), SessionRequest{CourseID: 1, StartDate: "2026-03-10", EndDate: "2026-03-20"})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), session.StartDate)
	assert.Equal(t, time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC), session.EndDate)
}

func TestCreateSessionDateRules(t *testing.T) {
	svc, _ := newTestService()
	cases := []struct {
		name  string
		req   SessionRequest
		field string
	}{
		{"past start", SessionRequest{CourseID: 1, StartDate: "2026-03-09", EndDate: "2026-03-20"}, "start_date"},
		{"end equals start", SessionRequest{CourseID: 1, StartDate: "2026-03-12", EndDate: "2026-03-12"}, "end_date"},
		{"end before start", SessionRequest{CourseID: 1, StartDate: "2026-03-12", EndDate: "2026-03-11"}, "end_date"},
		{"bad format", SessionRequest{CourseID: 1, StartDate: "12/03/2026", EndDate: "2026-03-20"}, "start_date"},
		{"missing end", SessionRequest{CourseID: 1, StartDate: "2026-03-12"}, "end_date"},
		{"missing course", SessionRequest{StartDate: "2026-03-12", EndDate: "2026-03-20"}, "course_id"},
		{"unknown course", SessionRequest{CourseID: 9, StartDate: "2026-03-12", EndDate: "2026-03-20"}, "course_id"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.req)
			var verr *httpx.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tc.field)
		})
	}
}

func TestUpdateSessionReappliesStartRule(t *testing.T) {
	svc, repo := newTestService()
	repo.sessions[1] = Session{ID: 1, CourseID: 1, StartDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), EndDate: time.Date(2026, 3, 30, 0, 0, 0, 0, time.UTC)}
	repo.nextID = 2

	_, err := svc.Update(context.Background(), 1, SessionRequest{CourseID: 1, StartDate: "2026-03-01", EndDate: "2026-04-01"})
	var verr *httpx.ValidationError
	require.ErrorAs(t, err, &verr)

	updated, err := svc.Update(context.Background(), 1, SessionRequest{CourseID: 2, StartDate: "2026-03-11", EndDate: "2026-04-01"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.CourseID)
}

func TestUpdateMissingSession(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Update(context.Background(), 7, SessionRequest{CourseID: 1, StartDate: "2026-03-11", EndDate: "2026-04-01"})
	assert.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestListSessionsByCourse(t *testing.T) {
	svc, _ := newTestService()
	for _, req := range []SessionRequest{
		{CourseID: 1, StartDate: "2026-03-11", EndDate: "2026-03-20"},
		{CourseID: 1, StartDate: "2026-04-11", EndDate: "2026-04-20"},
		{CourseID: 2, StartDate: "2026-05-11", EndDate: "2026-05-20"},
	} {
		_, err := svc.Create(context.Background(), req)
		require.NoError(t, err)
	}

	course := int64(1)
	resp, err := svc.List(context.Background(), ListRequest{CourseID: &course, Page: shared.PageRequest{Page: 1, PerPage: 20}})
	require.NoError(t, err)
	require.Len(t, resp.Sessions, 2)
	assert.Equal(t, time.April, resp.Sessions[0].StartDate.Month())
	assert.Equal(t, 2, resp.Pagination.Total)

	count, err := svc.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestDeleteSession(t *testing.T) {
	svc, _ := newTestService()
	session, err := svc.Create(context.Background(), SessionRequest{CourseID: 1, StartDate: "2026-03-11", EndDate: "2026-03-20"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(context.Background(), session.ID))
	assert.ErrorIs(t, svc.Delete(context.Background(), session.ID), ErrSessionNotFound)
}
