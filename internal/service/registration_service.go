package service

import (
    "context"
    "errors"
    "fmt"
    "time"

    "github.com/google/uuid"

    "github.com/iliyamo/badminton-scheduler/internal/model"
    "github.com/iliyamo/badminton-scheduler/internal/queue"
    "github.com/iliyamo/badminton-scheduler/internal/repository"
)

// RegistrationService owns the list of users registered against each
// session.  Main list and queue placement is derived from registration
// order on every read and never stored.
type RegistrationService struct {
    sessions      SessionStore
    registrations RegistrationStore
    events        EventPublisher
    now           func() time.Time
}

// NewRegistrationService returns a RegistrationService.  A nil events
// publisher discards events.
func NewRegistrationService(sessions SessionStore, registrations RegistrationStore, events EventPublisher) *RegistrationService {
    if events == nil {
        events = queue.Noop{}
    }
    return &RegistrationService{sessions: sessions, registrations: registrations, events: events, now: time.Now}
}

// GetParticipants returns the session's registrations with the registrant
// profiles, in registration order.  An unknown session yields an empty list.
func (s *RegistrationService) GetParticipants(ctx context.Context, caller model.Caller, sessionID string) ([]model.Participant, error) {
    if err := requireMember(caller); err != nil {
        return nil, err
    }
    out, err := s.registrations.ListParticipants(ctx, sessionID)
    if err != nil {
        return nil, fmt.Errorf("list participants: %w", err)
    }
    return out, nil
}

// GetRoster returns the session with its participants split into main list
// and queue.
func (s *RegistrationService) GetRoster(ctx context.Context, caller model.Caller, sessionID string) (Roster, error) {
    if err := requireMember(caller); err != nil {
        return Roster{}, err
    }
    sess, err := s.sessions.GetByID(ctx, sessionID)
    if err != nil {
        return Roster{}, sessionErr(err)
    }
    participants, err := s.registrations.ListParticipants(ctx, sessionID)
    if err != nil {
        return Roster{}, fmt.Errorf("list participants: %w", err)
    }
    main, waiting := SplitRoster(participants, sess.Places)
    return Roster{Session: sess, MainList: main, Queue: waiting}, nil
}

// Register adds the caller to the session.  There is no capacity check:
// registrations past the session's places are queued.
func (s *RegistrationService) Register(ctx context.Context, caller model.Caller, sessionID string) (model.Registration, error) {
    if err := requireMember(caller); err != nil {
        return model.Registration{}, err
    }
    sess, err := s.sessions.GetByID(ctx, sessionID)
    if err != nil {
        return model.Registration{}, sessionErr(err)
    }
    _, err = s.registrations.GetBySessionAndUser(ctx, sessionID, caller.ID)
    switch {
    case err == nil:
        return model.Registration{}, alreadyRegistered()
    case !errors.Is(err, repository.ErrRegistrationNotFound):
        return model.Registration{}, fmt.Errorf("check registration: %w", err)
    }

    reg := model.Registration{
        ID:           uuid.NewString(),
        SessionID:    sessionID,
        UserID:       caller.ID,
        HasPaid:      false,
        RegisteredAt: s.now().UTC(),
    }
    if err := s.registrations.Create(ctx, &reg); err != nil {
        switch {
        case errors.Is(err, repository.ErrAlreadyRegistered):
            return model.Registration{}, alreadyRegistered()
        case errors.Is(err, repository.ErrSessionNotFound):
            return model.Registration{}, notFound("session")
        }
        return model.Registration{}, fmt.Errorf("create registration: %w", err)
    }

    s.publish(ctx, queue.EventRegistered, sess, reg, caller.ID, s.placedInMainList(ctx, sess, reg.ID))
    return reg, nil
}

// placedInMainList reports where the registration sits in the session's
// order right now.  It is for events only; readers derive placement again.
// A failed read reports the registration as queued.
func (s *RegistrationService) placedInMainList(ctx context.Context, sess model.Session, registrationID string) bool {
    participants, err := s.registrations.ListParticipants(ctx, sess.ID)
    if err != nil {
        return false
    }
    for i, p := range participants {
        if p.ID == registrationID {
            return InMainList(i, sess.Places)
        }
    }
    return false
}

// Unregister removes the caller's registration for the session.
func (s *RegistrationService) Unregister(ctx context.Context, caller model.Caller, sessionID string) error {
    if err := requireMember(caller); err != nil {
        return err
    }
    reg, err := s.registrations.GetBySessionAndUser(ctx, sessionID, caller.ID)
    if err != nil {
        return registrationErr(err)
    }
    if err := s.registrations.DeleteBySessionAndUser(ctx, sessionID, caller.ID); err != nil {
        return registrationErr(err)
    }
    if sess, err := s.sessions.GetByID(ctx, sessionID); err == nil {
        s.publish(ctx, queue.EventUnregistered, sess, reg, caller.ID, false)
    }
    return nil
}

// MarkAsPaid flags the caller's registration as paid.  Only registrations
// in the main list may be marked; marking twice is harmless.  The
// placement check and the write happen in one store transaction.
func (s *RegistrationService) MarkAsPaid(ctx context.Context, caller model.Caller, sessionID string) (model.Registration, error) {
    if err := requireMember(caller); err != nil {
        return model.Registration{}, err
    }
    var sess model.Session
    reg, err := s.registrations.MarkPaid(ctx, sessionID, caller.ID,
        func(session model.Session, _ []model.Registration, index int) error {
            sess = session
            if !InMainList(index, session.Places) {
                return forbidden("only participants in the main list can mark the session as paid")
            }
            return nil
        })
    if err != nil {
        var svcErr *Error
        if errors.As(err, &svcErr) {
            return model.Registration{}, err
        }
        switch {
        case errors.Is(err, repository.ErrSessionNotFound):
            return model.Registration{}, notFound("session")
        case errors.Is(err, repository.ErrRegistrationNotFound):
            return model.Registration{}, notFound("registration")
        }
        return model.Registration{}, fmt.Errorf("mark paid: %w", err)
    }
    s.publish(ctx, queue.EventPaid, sess, reg, caller.ID, true)
    return reg, nil
}

// RemoveParticipant deletes any registration by id.  Administrators only.
func (s *RegistrationService) RemoveParticipant(ctx context.Context, caller model.Caller, registrationID string) error {
    if err := requireAdmin(caller); err != nil {
        return err
    }
    reg, err := s.registrations.GetByID(ctx, registrationID)
    if err != nil {
        return registrationErr(err)
    }
    if err := s.registrations.Delete(ctx, registrationID); err != nil {
        return registrationErr(err)
    }
    if sess, err := s.sessions.GetByID(ctx, reg.SessionID); err == nil {
        s.publish(ctx, queue.EventRemoved, sess, reg, caller.ID, false)
    }
    return nil
}

// GetRegistrationCount returns how many users registered for the session,
// main list and queue together.
func (s *RegistrationService) GetRegistrationCount(ctx context.Context, caller model.Caller, sessionID string) (int, error) {
    if err := requireMember(caller); err != nil {
        return 0, err
    }
    n, err := s.registrations.Count(ctx, sessionID)
    if err != nil {
        return 0, fmt.Errorf("count registrations: %w", err)
    }
    return n, nil
}

// ListMyRegistrations returns the caller's registrations with their
// sessions, soonest first.
func (s *RegistrationService) ListMyRegistrations(ctx context.Context, caller model.Caller) ([]model.UserRegistration, error) {
    if err := requireMember(caller); err != nil {
        return nil, err
    }
    out, err := s.registrations.ListByUser(ctx, caller.ID)
    if err != nil {
        return nil, fmt.Errorf("list registrations: %w", err)
    }
    return out, nil
}

func (s *RegistrationService) publish(ctx context.Context, typ string, sess model.Session, reg model.Registration, actorID string, inMain bool) {
    publish(ctx, s.events, queue.RegistrationEvent{
        Type:           typ,
        SessionID:      sess.ID,
        SessionDate:    sess.Date.Format(time.DateOnly),
        SessionTime:    sess.Time,
        RegistrationID: reg.ID,
        UserID:         reg.UserID,
        ActorID:        actorID,
        InMainList:     inMain,
        OccurredAt:     s.now().UTC().Format(time.RFC3339),
    })
}

func alreadyRegistered() error { return conflict("already registered for this session") }

func registrationErr(err error) error {
    if errors.Is(err, repository.ErrRegistrationNotFound) {
        return notFound("registration")
    }
    return err
}
