package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/authz"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/platform/httpx"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/shared"
)

// Notifier is told about newly created accounts.
type Notifier interface {
	WelcomeUser(ctx context.Context, user User) error
}

// Service handles account business rules.
type Service struct {
	repo     Repository
	audit    shared.AuditRecorder
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
	hashCost int
}

// NewService builds a Service. audit and notifier may be nil.
func NewService(repo Repository, audit shared.AuditRecorder, notifier Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		audit:    audit,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
		hashCost: bcrypt.DefaultCost,
	}
}

// Resolve implements authz.UserStore.
func (s *Service) Resolve(ctx context.Context, id string) (authz.Account, error) {
	userID, err := ParseID(id)
	if err != nil {
		return authz.Account{}, authz.ErrAccountNotFound
	}
	user, err := s.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return authz.Account{}, authz.ErrAccountNotFound
		}
		return authz.Account{}, fmt.Errorf("resolve account: %w", err)
	}
	return user.Account(), nil
}

// List returns the accounts visible to actor that match req. Accounts outside
// VisibleRoles never appear, whatever the filters say.
func (s *Service) List(ctx context.Context, actor authz.Account, req ListRequest) (ListResponse, error) {
	visible := authz.VisibleRoles(actor)
	roles := visible.Slice()
	if req.Role != nil {
		if !visible.Contains(*req.Role) {
			return ListResponse{Users: []User{}, Pagination: shared.NewPagination(req.Page.Page, req.Page.PerPage, 0)}, nil
		}
		roles = []authz.Role{*req.Role}
	}
	if len(roles) == 0 {
		return ListResponse{Users: []User{}, Pagination: shared.NewPagination(req.Page.Page, req.Page.PerPage, 0)}, nil
	}

	users, total, err := s.repo.List(ctx, ListFilter{
		Search: strings.TrimSpace(req.Search),
		Roles:  roles,
		Active: req.Active,
		Limit:  req.Page.PerPage,
		Offset: req.Page.Offset(),
	})
	if err != nil {
		return ListResponse{}, fmt.Errorf("list users: %w", err)
	}
	return ListResponse{Users: users, Pagination: shared.NewPagination(req.Page.Page, req.Page.PerPage, total)}, nil
}

// Options lists active accounts of role for pickers.
func (s *Service) Options(ctx context.Context, actor authz.Account, role authz.Role) ([]User, error) {
	if !authz.VisibleRoles(actor).Contains(role) {
		return []User{}, nil
	}
	active := true
	users, _, err := s.repo.List(ctx, ListFilter{Roles: []authz.Role{role}, Active: &active, Limit: 1000})
	if err != nil {
		return nil, fmt.Errorf("list %s options: %w", role, err)
	}
	return users, nil
}

// Count returns the number of accounts visible to actor.
func (s *Service) Count(ctx context.Context, actor authz.Account) (int, error) {
	return s.repo.Count(ctx, authz.VisibleRoles(actor).Slice())
}

// Get returns an account. Accounts the actor may not see are reported as not
// found.
func (s *Service) Get(ctx context.Context, actor authz.Account, id int64) (*User, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authz.VisibleRoles(actor).Contains(user.Role) {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// Lookup returns an account without visibility filtering, for callers acting
// on their own account or on references such as course instructors.
func (s *Service) Lookup(ctx context.Context, id int64) (*User, error) {
	return s.repo.Get(ctx, id)
}

// Register creates an account on behalf of a staff member.
func (s *Service) Register(ctx context.Context, actor authz.Account, req RegisterRequest) (*User, error) {
	req.Email = NormalizeEmail(req.Email)
	if err := httpx.Validate(req); err != nil {
		return nil, err
	}
	if !authz.CanAssignRole(actor, *req.Role) {
		return nil, ErrRoleDenied
	}
	return s.create(ctx, actorID(actor), req.Name, req.Email, req.Password, *req.Role)
}

// SelfRegister creates a trainee account from the public sign-up form. The
// role is fixed and role assignment rules do not apply.
func (s *Service) SelfRegister(ctx context.Context, req SelfRegisterRequest) (*User, error) {
	req.Email = NormalizeEmail(req.Email)
	if err := httpx.Validate(req); err != nil {
		return nil, err
	}
	return s.create(ctx, 0, req.Name, req.Email, req.Password, authz.RoleTrainee)
}

// EnsureBootstrapAdmin creates a SuperAdmin when none exists. It reports
// whether an account was created.
func (s *Service) EnsureBootstrapAdmin(ctx context.Context, name, email, password string) (bool, error) {
	if email == "" || password == "" {
		return false, nil
	}
	count, err := s.repo.Count(ctx, []authz.Role{authz.RoleSuperAdmin})
	if err != nil {
		return false, fmt.Errorf("count superadmins: %w", err)
	}
	if count > 0 {
		return false, nil
	}
	if _, err := s.create(ctx, 0, name, email, password, authz.RoleSuperAdmin); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return false, fmt.Errorf("bootstrap admin email %s belongs to a non-superadmin account: %w", email, err)
		}
		return false, err
	}
	return true, nil
}

func (s *Service) create(ctx context.Context, actor int64, name, email, password string, role authz.Role) (*User, error) {
	email = NormalizeEmail(email)
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	created, err := s.repo.Create(ctx, User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.record(ctx, actor, shared.AuditUserRegistered, created.ID, map[string]any{"role": role.String()})
	if s.notifier != nil {
		if err := s.notifier.WelcomeUser(ctx, *created); err != nil {
			s.logger.Warn("enqueue welcome email", slog.Int64("user_id", created.ID), slog.Any("error", err))
		}
	}
	return created, nil
}

// Update edits name, email and role. Changing the role also requires the
// actor to be allowed to assign the new role.
func (s *Service) Update(ctx context.Context, actor authz.Account, id int64, req UpdateRequest) (*User, error) {
	if req.Email != nil {
		email := NormalizeEmail(*req.Email)
		req.Email = &email
	}
	if err := httpx.Validate(req); err != nil {
		return nil, err
	}
	var updated *User
	roleChanged := false
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		target, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if !authz.VisibleRoles(actor).Contains(target.Role) {
			return ErrUserNotFound
		}
		if !authz.CanManage(actor, target.Account(), authz.ActionEdit) {
			return ErrManageDenied
		}
		if req.Role != nil && *req.Role != target.Role {
			if !authz.CanAssignRole(actor, *req.Role) {
				return ErrRoleDenied
			}
			target.Role = *req.Role
			roleChanged = true
		}
		if req.Name != nil {
			target.Name = strings.TrimSpace(*req.Name)
		}
		if req.Email != nil {
			email := NormalizeEmail(*req.Email)
			if email != NormalizeEmail(target.Email) {
				existing, err := repo.GetByEmail(ctx, email)
				if err == nil && existing.ID != target.ID {
					return ErrEmailTaken
				}
				if err != nil && !errors.Is(err, ErrUserNotFound) {
					return err
				}
			}
			target.Email = email
		}
		target.UpdatedAt = s.now().UTC()
		if err := repo.Update(ctx, *target); err != nil {
			return err
		}
		updated = target
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update user %d: %w", id, err)
	}

	s.record(ctx, actorID(actor), shared.AuditUserUpdated, id, nil)
	if roleChanged {
		s.record(ctx, actorID(actor), shared.AuditUserRoleAssigned, id, map[string]any{"role": updated.Role.String()})
	}
	return updated, nil
}

// ToggleStatus flips the active flag of an account. Nobody may toggle their
// own account.
func (s *Service) ToggleStatus(ctx context.Context, actor authz.Account, id int64) (*User, error) {
	var toggled *User
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		target, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if !authz.VisibleRoles(actor).Contains(target.Role) {
			return ErrUserNotFound
		}
		if !authz.CanManage(actor, target.Account(), authz.ActionToggleStatus) {
			return ErrManageDenied
		}
		target.IsActive = !target.IsActive
		target.UpdatedAt = s.now().UTC()
		if err := repo.SetActive(ctx, target.ID, target.IsActive, target.UpdatedAt); err != nil {
			return err
		}
		toggled = target
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("toggle user %d: %w", id, err)
	}
	s.record(ctx, actorID(actor), shared.AuditUserStatus, id, map[string]any{"is_active": toggled.IsActive})
	return toggled, nil
}

// Delete removes an account.
func (s *Service) Delete(ctx context.Context, actor authz.Account, id int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		target, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if !authz.VisibleRoles(actor).Contains(target.Role) {
			return ErrUserNotFound
		}
		if !authz.CanManage(actor, target.Account(), authz.ActionDelete) {
			return ErrManageDenied
		}
		return repo.Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	s.record(ctx, actorID(actor), shared.AuditUserDeleted, id, nil)
	return nil
}

func (s *Service) record(ctx context.Context, actor int64, action string, userID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor,
		Action:   action,
		Entity:   "user",
		EntityID: FormatID(userID),
		Meta:     meta,
		At:       s.now().UTC(),
	})
	if err != nil {
		s.logger.Warn("audit log", slog.String("action", action), slog.Any("error", err))
	}
}

func actorID(actor authz.Account) int64 {
	id, err := ParseID(actor.ID)
	if err != nil {
		return 0
	}
	return id
}
