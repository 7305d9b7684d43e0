package audit

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/platform/httpx"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/shared"
)

type stubRepo struct {
	entries []Entry
	err     error
	last    Filters
}

func (s *stubRepo) List(_ context.Context, filter Filters) ([]Entry, int, error) {
	s.last = filter
	if s.err != nil {
		return nil, 0, s.err
	}
	end := filter.Offset + filter.Limit
	if end > len(s.entries) {
		end = len(s.entries)
	}
	if filter.Offset >= len(s.entries) {
		return []Entry{}, len(s.entries), nil
	}
	return s.entries[filter.Offset:end], len(s.entries), nil
}

var fixedNow = time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

func newTestService(repo Repository) *Service {
	svc := NewService(repo)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func sampleEntries(n int) []Entry {
	actor := int64(1)
	entries := make([]Entry, n)
	for i := range entries {
		entries[i] = Entry{
			ID:         int64(n - i),
			ActorID:    &actor,
			ActorName:  "Root",
			Action:     shared.AuditUserRegistered,
			Entity:     "user",
			EntityID:   "42",
			Meta:       map[string]any{"request_id": "req-1"},
			OccurredAt: fixedNow.Add(-time.Duration(i) * time.Hour),
		}
	}
	return entries
}

func TestTimelineDefaultsWindow(t *testing.T) {
	repo := &stubRepo{entries: sampleEntries(3)}
	svc := newTestService(repo)

	resp, err := svc.Timeline(context.Background(), TimelineRequest{Page: shared.PageRequest{Page: 1, PerPage: 2}})
	require.NoError(t, err)

	assert.Len(t, resp.Entries, 2)
	assert.Equal(t, 3, resp.Pagination.Total)
	assert.Equal(t, 2, resp.Pagination.TotalPages)
	assert.Equal(t, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), repo.last.To)
	assert.Equal(t, time.Date(2026, 2, 8, 0, 0, 0, 0, time.UTC), repo.last.From)
	assert.Equal(t, 2, repo.last.Limit)
	assert.Equal(t, 0, repo.last.Offset)
}

func TestTimelinePassesFilters(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(repo)
	actor := int64(7)

	_, err := svc.Timeline(context.Background(), TimelineRequest{
		From:     "2026-01-01",
		To:       "2026-01-31",
		ActorID:  &actor,
		Action:   " user.deleted ",
		Entity:   "user",
		EntityID: "9",
		Page:     shared.PageRequest{Page: 3, PerPage: 10},
	})
	require.NoError(t, err)

	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), repo.last.From)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), repo.last.To)
	assert.Equal(t, &actor, repo.last.ActorID)
	assert.Equal(t, "user.deleted", repo.last.Action)
	assert.Equal(t, "user", repo.last.Entity)
	assert.Equal(t, "9", repo.last.EntityID)
	assert.Equal(t, 20, repo.last.Offset)
}

func TestTimelineRejectsBadWindow(t *testing.T) {
	cases := []struct {
		name  string
		req   TimelineRequest
		field string
	}{
		{"malformed to", TimelineRequest{To: "10/03/2026"}, "to"},
		{"malformed from", TimelineRequest{From: "yesterday"}, "from"},
		{"from after to", TimelineRequest{From: "2026-03-05", To: "2026-03-01"}, "from"},
		{"window too wide", TimelineRequest{From: "2024-01-01", To: "2026-01-01"}, "from"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &stubRepo{}
			_, err := newTestService(repo).Timeline(context.Background(), tc.req)
			var verr *httpx.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tc.field)
		})
	}
}

func TestTimelineWrapsRepositoryFailure(t *testing.T) {
	boom := errors.New("connection reset")
	_, err := newTestService(&stubRepo{err: boom}).Timeline(context.Background(), TimelineRequest{})
	require.ErrorIs(t, err, boom)
	assert.False(t, httpx.IsClientError(err))
}

func TestExportIgnoresPaging(t *testing.T) {
	repo := &stubRepo{entries: sampleEntries(5)}
	entries, err := newTestService(repo).Export(context.Background(), TimelineRequest{Page: shared.PageRequest{Page: 4, PerPage: 1}})
	require.NoError(t, err)
	assert.Len(t, entries, 5)
	assert.Equal(t, exportLimit, repo.last.Limit)
	assert.Equal(t, 0, repo.last.Offset)
}

func TestWriteCSV(t *testing.T) {
	entries := sampleEntries(1)
	entries = append(entries, Entry{ID: 9, Action: "user.registered", Entity: "user", EntityID: "3", OccurredAt: fixedNow})

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, entries))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, csvHeader, records[0])
	assert.Equal(t, []string{"1", "2026-03-10T15:00:00Z", "1", "Root", "user.registered", "user", "42", "req-1"}, records[1])
	assert.Equal(t, "", records[2][2])
	assert.Equal(t, "", records[2][7])
}

func TestWriteCSVNeutralisesFormulas(t *testing.T) {
	actor := int64(5)
	entries := []Entry{
		{ID: 1, ActorID: &actor, ActorName: "=HYPERLINK(\"http://evil\")", Action: "user.updated", Entity: "user", EntityID: "+1", OccurredAt: fixedNow},
		{ID: 2, ActorID: &actor, ActorName: "@SUM(A1)", Action: "user.updated", Entity: "user", EntityID: "-3", OccurredAt: fixedNow},
		{ID: 3, ActorID: &actor, ActorName: "Mona - Lead", Action: "user.updated", Entity: "user", EntityID: "7", OccurredAt: fixedNow},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, entries))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)

	assert.Equal(t, "'=HYPERLINK(\"http://evil\")", records[1][3])
	assert.Equal(t, "'+1", records[1][6])
	assert.Equal(t, "'@SUM(A1)", records[2][3])
	assert.Equal(t, "'-3", records[2][6])
	assert.Equal(t, "Mona - Lead", records[3][3])
	assert.Equal(t, "7", records[3][6])
}

func TestWhereClauseNumbersArguments(t *testing.T) {
	actor := int64(4)
	where, args, next := whereClause(Filters{ActorID: &actor, Entity: "user"})
	assert.Equal(t, " WHERE a.occurred_at >= $1 AND a.occurred_at < $2 AND a.actor_id = $3 AND a.entity = $4", where)
	assert.Len(t, args, 4)
	assert.Equal(t, 5, next)
}
