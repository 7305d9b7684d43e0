package audit

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/platform/httpx"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/shared"
)

// Service serves the audit timeline.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService builds a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Timeline returns one page of entries matching req.
func (s *Service) Timeline(ctx context.Context, req TimelineRequest) (TimelineResponse, error) {
	filter, err := s.filters(req)
	if err != nil {
		return TimelineResponse{}, err
	}
	filter.Limit = req.Page.PerPage
	filter.Offset = req.Page.Offset()

	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return TimelineResponse{}, fmt.Errorf("audit timeline: %w", err)
	}
	return TimelineResponse{Entries: entries, Pagination: shared.NewPagination(req.Page.Page, req.Page.PerPage, total)}, nil
}

// Export returns every entry matching req, newest first, capped at
// exportLimit rows. Paging in req is ignored.
func (s *Service) Export(ctx context.Context, req TimelineRequest) ([]Entry, error) {
	filter, err := s.filters(req)
	if err != nil {
		return nil, err
	}
	filter.Limit = exportLimit
	entries, _, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("audit export: %w", err)
	}
	return entries, nil
}

// filters resolves the date window. To defaults to today and From to thirty
// days before To. Both are whole UTC days and To is included.
func (s *Service) filters(req TimelineRequest) (Filters, error) {
	to := s.now().UTC().Truncate(24 * time.Hour)
	if v := strings.TrimSpace(req.To); v != "" {
		parsed, err := time.Parse(DateLayout, v)
		if err != nil {
			return Filters{}, httpx.NewValidationError("to", "must be a date (YYYY-MM-DD)")
		}
		to = parsed
	}
	from := to.Add(-defaultRange)
	if v := strings.TrimSpace(req.From); v != "" {
		parsed, err := time.Parse(DateLayout, v)
		if err != nil {
			return Filters{}, httpx.NewValidationError("from", "must be a date (YYYY-MM-DD)")
		}
		from = parsed
	}
	if from.After(to) {
		return Filters{}, httpx.NewValidationError("from", "must not be after to")
	}
	if to.Sub(from) > maxRange {
		return Filters{}, httpx.NewValidationError("from", "range must not exceed 366 days")
	}
	return Filters{
		From:     from,
		To:       to.Add(24 * time.Hour),
		ActorID:  req.ActorID,
		Action:   strings.TrimSpace(req.Action),
		Entity:   strings.TrimSpace(req.Entity),
		EntityID: strings.TrimSpace(req.EntityID),
	}, nil
}

var csvHeader = []string{"id", "occurred_at", "actor_id", "actor_name", "action", "entity", "entity_id", "request_id"}

// WriteCSV renders entries as CSV with a header row.
func WriteCSV(w io.Writer, entries []Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, e := range entries {
		actor := ""
		if e.ActorID != nil {
			actor = strconv.FormatInt(*e.ActorID, 10)
		}
		requestID, _ := e.Meta["request_id"].(string)
		record := []string{
			strconv.FormatInt(e.ID, 10),
			e.OccurredAt.UTC().Format(time.RFC3339),
			actor,
			csvCell(e.ActorName),
			csvCell(e.Action),
			csvCell(e.Entity),
			csvCell(e.EntityID),
			csvCell(requestID),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// csvCell neutralises values a spreadsheet would evaluate as a formula.
func csvCell(v string) string {
	if v == "" {
		return v
	}
	switch v[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + v
	}
	return v
}
