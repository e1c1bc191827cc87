package service

import (
    "context"
    "errors"
    "fmt"
    "strings"
    "time"

    "github.com/iliyamo/badminton-scheduler/internal/model"
    "github.com/iliyamo/badminton-scheduler/internal/repository"
)

// AccountService manages profiles, approval and administrator rights.
type AccountService struct {
    users UserStore
    now   func() time.Time
}

func NewAccountService(users UserStore) *AccountService {
    return &AccountService{users: users, now: time.Now}
}

// GetProfile returns the caller's own account.
func (s *AccountService) GetProfile(ctx context.Context, caller model.Caller) (model.User, error) {
    if !caller.Authenticated() {
        return model.User{}, unauthorized()
    }
    u, err := s.users.GetByID(ctx, caller.ID)
    if err != nil {
        return model.User{}, userErr(err)
    }
    return u, nil
}

// CompleteProfile stores the caller's names and marks the profile complete.
func (s *AccountService) CompleteProfile(ctx context.Context, caller model.Caller, firstName, lastName string) (model.User, error) {
    if !caller.Authenticated() {
        return model.User{}, unauthorized()
    }
    firstName, lastName = strings.TrimSpace(firstName), strings.TrimSpace(lastName)
    if firstName == "" || lastName == "" {
        return model.User{}, invalid("first and last name are required")
    }
    if len(firstName) > 100 || len(lastName) > 100 {
        return model.User{}, invalid("names must be at most 100 characters")
    }
    u, err := s.users.CompleteProfile(ctx, caller.ID, firstName, lastName, s.now().UTC())
    if err != nil {
        return model.User{}, userErr(err)
    }
    return u, nil
}

// ListAll returns every account, oldest first.  Administrators only.
func (s *AccountService) ListAll(ctx context.Context, caller model.Caller) ([]model.User, error) {
    if err := requireAdmin(caller); err != nil {
        return nil, err
    }
    users, err := s.users.ListAll(ctx)
    if err != nil {
        return nil, fmt.Errorf("list users: %w", err)
    }
    return users, nil
}

// Approve lets the account use sessions and registrations.
func (s *AccountService) Approve(ctx context.Context, caller model.Caller, userID string) (model.User, error) {
    return s.setApproved(ctx, caller, userID, true)
}

// Revoke withdraws approval.
func (s *AccountService) Revoke(ctx context.Context, caller model.Caller, userID string) (model.User, error) {
    return s.setApproved(ctx, caller, userID, false)
}

func (s *AccountService) setApproved(ctx context.Context, caller model.Caller, userID string, approved bool) (model.User, error) {
    if err := requireAdmin(caller); err != nil {
        return model.User{}, err
    }
    if userID == caller.ID {
        return model.User{}, invalid("cannot change your own approval")
    }
    u, err := s.users.SetApproved(ctx, userID, approved, s.now().UTC())
    if err != nil {
        return model.User{}, userErr(err)
    }
    return u, nil
}

// SetAdmin grants or withdraws administrator rights.
func (s *AccountService) SetAdmin(ctx context.Context, caller model.Caller, userID string, isAdmin bool) (model.User, error) {
    if err := requireAdmin(caller); err != nil {
        return model.User{}, err
    }
    if userID == caller.ID {
        return model.User{}, invalid("cannot change your own administrator rights")
    }
    u, err := s.users.SetAdmin(ctx, userID, isAdmin, s.now().UTC())
    if err != nil {
        return model.User{}, userErr(err)
    }
    return u, nil
}

func userErr(err error) error {
    if errors.Is(err, repository.ErrUserNotFound) {
        return notFound("user")
    }
    return err
}
