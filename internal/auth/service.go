package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/platform/httpx"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/users"
)

// Service wraps authentication business rules.
type Service struct {
	repo     Repository
	lockout  *Lockout
	logger   *slog.Logger
	now      func() time.Time
	hashCost int

	dummyOnce sync.Once
	dummyHash []byte
}

// NewService constructs a new Service. lockout may be nil.
func NewService(repo Repository, lockout *Lockout, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, lockout: lockout, logger: logger, now: time.Now, hashCost: bcrypt.DefaultCost}
}

// Authenticate validates email/password credentials. Unknown emails and bad
// passwords are indistinguishable to the caller and both count towards the
// lockout.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	email = users.NormalizeEmail(email)
	locked, err := s.lockout.Locked(ctx, email)
	if err != nil {
		return nil, err
	}
	if locked {
		return nil, ErrAccountLocked
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, errUserNotFound) {
		return nil, fmt.Errorf("find user: %w", err)
	}
	var hash []byte
	if user != nil {
		hash = []byte(user.PasswordHash)
	} else {
		hash = s.decoyHash()
	}
	if bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil || user == nil {
		count, ferr := s.lockout.Fail(ctx, email)
		if ferr != nil {
			s.logger.Warn("record failed login", slog.Any("error", ferr))
		} else if s.lockout != nil && count >= s.lockout.maxFailed {
			s.logger.Warn("login locked", slog.String("email", email), slog.Int("failures", count))
		}
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}
	if err := s.lockout.Reset(ctx, email); err != nil {
		s.logger.Warn("reset login failures", slog.Any("error", err))
	}
	return user, nil
}

// decoyHash is compared against for unknown emails so a miss costs the same
// bcrypt work as a wrong password.
func (s *Service) decoyHash() []byte {
	s.dummyOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte("trainhub-decoy-password"), s.hashCost)
		if err != nil {
			s.logger.Error("generate decoy hash", slog.Any("error", err))
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

// CurrentUser loads the signed-in account.
func (s *Service) CurrentUser(ctx context.Context, id int64) (*User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, errUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	return user, err
}

// ChangePassword replaces the password of the signed-in account after
// verifying the current one.
func (s *Service) ChangePassword(ctx context.Context, userID int64, req ChangePasswordRequest) error {
	if err := httpx.Validate(req); err != nil {
		return err
	}
	user, err := s.CurrentUser(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)) != nil {
		return httpx.NewValidationError("current_password", "is incorrect")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.hashCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.repo.UpdatePassword(ctx, userID, string(hash), s.now().UTC())
}

// RegisterSession persists the session metadata in postgres.
func (s *Service) RegisterSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	return s.repo.CreateSession(ctx, id, userID, expiresAt, ip, ua)
}

// RemoveSession deletes a session record from postgres.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	return s.repo.DeleteSession(ctx, id)
}

// PurgeExpiredSessions deletes login sessions past their expiry.
func (s *Service) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpiredSessions(ctx, s.now())
}
