// Package dashboard aggregates headline figures for the signed-in user.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/authz"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/users"
)

const requestTimeout = 2 * time.Second

// Counter reports the size of a collection.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// AccountDirectory counts the accounts an actor may see and resolves the
// actor's own profile.
type AccountDirectory interface {
	Count(ctx context.Context, actor authz.Account) (int, error)
	Lookup(ctx context.Context, id int64) (*users.User, error)
}

// Summary is the dashboard payload.
type Summary struct {
	Name     string `json:"name"`
	Role     string `json:"role"`
	Courses  int    `json:"courses"`
	Sessions int    `json:"sessions"`
	Users    int    `json:"users"`
	Grades   int    `json:"grades"`
}

// Service collects dashboard figures.
type Service struct {
	courses  Counter
	sessions Counter
	grades   Counter
	accounts AccountDirectory
}

// NewService builds a Service.
func NewService(courses, sessions, grades Counter, accounts AccountDirectory) *Service {
	return &Service{courses: courses, sessions: sessions, grades: grades, accounts: accounts}
}

// Summary loads all figures concurrently. The user total only covers roles
// visible to actor.
func (s *Service) Summary(ctx context.Context, actor authz.Account) (Summary, error) {
	id, err := users.ParseID(actor.ID)
	if err != nil {
		return Summary{}, fmt.Errorf("dashboard: actor id: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	summary := Summary{Role: actor.Role.String()}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		user, err := s.accounts.Lookup(ctx, id)
		if err != nil {
			return fmt.Errorf("profile: %w", err)
		}
		summary.Name = user.Name
		return nil
	})
	g.Go(func() (err error) {
		summary.Courses, err = s.courses.Count(ctx)
		return wrap("courses", err)
	})
	g.Go(func() (err error) {
		summary.Sessions, err = s.sessions.Count(ctx)
		return wrap("sessions", err)
	})
	g.Go(func() (err error) {
		summary.Grades, err = s.grades.Count(ctx)
		return wrap("grades", err)
	})
	g.Go(func() (err error) {
		summary.Users, err = s.accounts.Count(ctx, actor)
		return wrap("users", err)
	})
	if err := g.Wait(); err != nil {
		return Summary{}, fmt.Errorf("dashboard: %w", err)
	}
	return summary, nil
}

func wrap(what string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("count %s: %w", what, err)
}
