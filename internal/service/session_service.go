package service

import (
    "context"
    "errors"
    "fmt"
    "log"
    "time"

    "github.com/google/uuid"

    "github.com/iliyamo/badminton-scheduler/internal/model"
    "github.com/iliyamo/badminton-scheduler/internal/queue"
    "github.com/iliyamo/badminton-scheduler/internal/repository"
)

// SessionFields is the input for creating a session.  Cost is a decimal
// euro amount such as "12.50".  An empty PaymentLink means no link.
type SessionFields struct {
    Date            time.Time
    Time            string
    DurationMinutes int
    Cost            string
    PaymentLink     string
    Places          int
}

// SessionChanges is the input for a partial update.  Nil fields are left
// as they are; an empty PaymentLink clears the link.
type SessionChanges struct {
    Date            *time.Time
    Time            *string
    DurationMinutes *int
    Cost            *string
    PaymentLink     *string
    Places          *int
}

// SessionService owns session records.  Reads require a member; writes
// require an administrator.
type SessionService struct {
    sessions SessionStore
    events   EventPublisher
    loc      *time.Location
    now      func() time.Time
}

// NewSessionService returns a SessionService.  loc decides which calendar
// day counts as today.  A nil events publisher discards events.
func NewSessionService(sessions SessionStore, events EventPublisher, loc *time.Location) *SessionService {
    if events == nil {
        events = queue.Noop{}
    }
    if loc == nil {
        loc = time.UTC
    }
    return &SessionService{sessions: sessions, events: events, loc: loc, now: time.Now}
}

// today returns the current calendar day in the service location.
func (s *SessionService) today() time.Time {
    return civilDay(s.now().In(s.loc))
}

// List returns upcoming sessions (today onwards, ascending) or past
// sessions (up to and including today, descending).  A non-nil anchor
// further restricts the result to that calendar day.
func (s *SessionService) List(ctx context.Context, caller model.Caller, scope model.SessionScope, anchor *time.Time) ([]model.Session, error) {
    if err := requireMember(caller); err != nil {
        return nil, err
    }
    today := s.today()
    var f repository.SessionFilter
    switch scope {
    case model.ScopeUpcoming:
        f.From = &today
    case model.ScopePast:
        f.To = &today
        f.Descending = true
    default:
        return nil, invalid("unknown scope %q", scope)
    }
    if anchor != nil {
        day := civilDay(*anchor)
        if f.From == nil || day.After(*f.From) {
            f.From = &day
        }
        if f.To == nil || day.Before(*f.To) {
            f.To = &day
        }
    }
    out, err := s.sessions.List(ctx, f)
    if err != nil {
        return nil, fmt.Errorf("list sessions: %w", err)
    }
    return out, nil
}

// GetByID returns one session.
func (s *SessionService) GetByID(ctx context.Context, caller model.Caller, id string) (model.Session, error) {
    if err := requireMember(caller); err != nil {
        return model.Session{}, err
    }
    sess, err := s.sessions.GetByID(ctx, id)
    if err != nil {
        return model.Session{}, sessionErr(err)
    }
    return sess, nil
}

// Create validates the fields and stores a new session created by caller.
func (s *SessionService) Create(ctx context.Context, caller model.Caller, in SessionFields) (model.Session, error) {
    if err := requireAdmin(caller); err != nil {
        return model.Session{}, err
    }
    if in.Date.IsZero() {
        return model.Session{}, invalid("date is required")
    }
    if err := validateTime(in.Time); err != nil {
        return model.Session{}, err
    }
    if in.DurationMinutes <= 0 {
        return model.Session{}, invalid("duration must be a positive number of minutes")
    }
    if in.Places <= 0 {
        return model.Session{}, invalid("places must be at least 1")
    }
    cents, err := ParseEuros(in.Cost)
    if err != nil {
        return model.Session{}, err
    }
    link, err := normalizeLink(in.PaymentLink)
    if err != nil {
        return model.Session{}, err
    }

    now := s.now().UTC()
    sess := model.Session{
        ID:              uuid.NewString(),
        Date:            civilDay(in.Date),
        Time:            in.Time,
        DurationMinutes: in.DurationMinutes,
        CostCents:       cents,
        Places:          in.Places,
        CreatedByID:     caller.ID,
        CreatedAt:       now,
        UpdatedAt:       now,
    }
    if link != "" {
        sess.PaymentLink = &link
    }
    if err := s.sessions.Create(ctx, &sess); err != nil {
        return model.Session{}, fmt.Errorf("create session: %w", err)
    }
    return sess, nil
}

// Update validates and applies the supplied fields.
func (s *SessionService) Update(ctx context.Context, caller model.Caller, id string, in SessionChanges) (model.Session, error) {
    if err := requireAdmin(caller); err != nil {
        return model.Session{}, err
    }
    var p model.SessionPatch
    if in.Date != nil {
        if in.Date.IsZero() {
            return model.Session{}, invalid("date is required")
        }
        d := civilDay(*in.Date)
        p.Date = &d
    }
    if in.Time != nil {
        if err := validateTime(*in.Time); err != nil {
            return model.Session{}, err
        }
        p.Time = in.Time
    }
    if in.DurationMinutes != nil {
        if *in.DurationMinutes <= 0 {
            return model.Session{}, invalid("duration must be a positive number of minutes")
        }
        p.DurationMinutes = in.DurationMinutes
    }
    if in.Places != nil {
        if *in.Places <= 0 {
            return model.Session{}, invalid("places must be at least 1")
        }
        p.Places = in.Places
    }
    if in.Cost != nil {
        cents, err := ParseEuros(*in.Cost)
        if err != nil {
            return model.Session{}, err
        }
        p.CostCents = &cents
    }
    if in.PaymentLink != nil {
        link, err := normalizeLink(*in.PaymentLink)
        if err != nil {
            return model.Session{}, err
        }
        p.PaymentLink = &link
    }

    if p.Empty() {
        // Nothing to write; updated_at stays as it was.
        return s.GetByID(ctx, caller, id)
    }
    sess, err := s.sessions.Update(ctx, id, p, s.now().UTC())
    if err != nil {
        return model.Session{}, sessionErr(err)
    }
    return sess, nil
}

// Delete removes the session.  Its registrations are removed by the
// store's cascade.
func (s *SessionService) Delete(ctx context.Context, caller model.Caller, id string) error {
    if err := requireAdmin(caller); err != nil {
        return err
    }
    sess, err := s.sessions.GetByID(ctx, id)
    if err != nil {
        return sessionErr(err)
    }
    if err := s.sessions.Delete(ctx, id); err != nil {
        return sessionErr(err)
    }
    publish(ctx, s.events, queue.RegistrationEvent{
        Type:        queue.EventSessionDeleted,
        SessionID:   sess.ID,
        SessionDate: sess.Date.Format(time.DateOnly),
        SessionTime: sess.Time,
        ActorID:     caller.ID,
        OccurredAt:  s.now().UTC().Format(time.RFC3339),
    })
    return nil
}

// GetSessionDates returns the date of every session in the given month
// (1-12), one entry per session, ascending.
func (s *SessionService) GetSessionDates(ctx context.Context, caller model.Caller, month, year int) ([]time.Time, error) {
    if err := requireMember(caller); err != nil {
        return nil, err
    }
    if month < 1 || month > 12 {
        return nil, invalid("month must be between 1 and 12")
    }
    if year < 1 || year > 9999 {
        return nil, invalid("year is out of range")
    }
    from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
    dates, err := s.sessions.ListDates(ctx, from, from.AddDate(0, 1, 0))
    if err != nil {
        return nil, fmt.Errorf("list session dates: %w", err)
    }
    return dates, nil
}

func sessionErr(err error) error {
    if errors.Is(err, repository.ErrSessionNotFound) {
        return notFound("session")
    }
    return err
}

// publish sends an event without letting broker trouble fail the request.
func publish(ctx context.Context, events EventPublisher, ev queue.RegistrationEvent) {
    ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
    defer cancel()
    if err := events.Publish(ctx, ev); err != nil {
        log.Printf("events: publish %s for session %s failed: %v", ev.Type, ev.SessionID, err)
    }
}
