package service

import (
    "context"
    "time"

    "github.com/iliyamo/badminton-scheduler/internal/model"
    "github.com/iliyamo/badminton-scheduler/internal/queue"
    "github.com/iliyamo/badminton-scheduler/internal/repository"
)

// SessionStore is the persistence the session registry needs.
// *repository.SessionRepo implements it.
type SessionStore interface {
    Create(ctx context.Context, s *model.Session) error
    GetByID(ctx context.Context, id string) (model.Session, error)
    List(ctx context.Context, f repository.SessionFilter) ([]model.Session, error)
    ListDates(ctx context.Context, from, to time.Time) ([]time.Time, error)
    Update(ctx context.Context, id string, p model.SessionPatch, now time.Time) (model.Session, error)
    Delete(ctx context.Context, id string) error
}

// RegistrationStore is the persistence the registration ledger needs.
// *repository.RegistrationRepo implements it.
type RegistrationStore interface {
    Create(ctx context.Context, reg *model.Registration) error
    GetByID(ctx context.Context, id string) (model.Registration, error)
    GetBySessionAndUser(ctx context.Context, sessionID, userID string) (model.Registration, error)
    Delete(ctx context.Context, id string) error
    DeleteBySessionAndUser(ctx context.Context, sessionID, userID string) error
    ListParticipants(ctx context.Context, sessionID string) ([]model.Participant, error)
    Count(ctx context.Context, sessionID string) (int, error)
    ListByUser(ctx context.Context, userID string) ([]model.UserRegistration, error)
    MarkPaid(ctx context.Context, sessionID, userID string, check repository.PaidCheck) (model.Registration, error)
}

// UserStore is the persistence account administration needs.
// *repository.UserRepo implements it.
type UserStore interface {
    GetByID(ctx context.Context, id string) (model.User, error)
    ListAll(ctx context.Context) ([]model.User, error)
    CompleteProfile(ctx context.Context, id, firstName, lastName string, now time.Time) (model.User, error)
    SetApproved(ctx context.Context, id string, approved bool, now time.Time) (model.User, error)
    SetAdmin(ctx context.Context, id string, admin bool, now time.Time) (model.User, error)
}

// EventPublisher receives registration events.  queue.Publisher and
// queue.Noop implement it.
type EventPublisher interface {
    Publish(ctx context.Context, event queue.RegistrationEvent) error
}

var (
    _ SessionStore      = (*repository.SessionRepo)(nil)
    _ RegistrationStore = (*repository.RegistrationRepo)(nil)
    _ UserStore         = (*repository.UserRepo)(nil)
    _ EventPublisher    = (*queue.Publisher)(nil)
    _ EventPublisher    = queue.Noop{}
)
