package service

import (
    "context"
    "database/sql"
    "errors"
    "sync"
    "testing"
    "time"

    "github.com/google/uuid"
    "golang.org/x/crypto/bcrypt"

    "github.com/iliyamo/badminton-scheduler/internal/database"
    "github.com/iliyamo/badminton-scheduler/internal/model"
    "github.com/iliyamo/badminton-scheduler/internal/queue"
    "github.com/iliyamo/badminton-scheduler/internal/repository"
)

// recorder is an EventPublisher that keeps events in memory.
type recorder struct {
    mu     sync.Mutex
    events []queue.RegistrationEvent
}

func (r *recorder) Publish(_ context.Context, ev queue.RegistrationEvent) error {
    r.mu.Lock()
    defer r.mu.Unlock()
    r.events = append(r.events, ev)
    return nil
}

func (r *recorder) types() []string {
    r.mu.Lock()
    defer r.mu.Unlock()
    out := make([]string, len(r.events))
    for i, ev := range r.events {
        out[i] = ev.Type
    }
    return out
}

// clock hands out strictly increasing instants so registrations never tie.
type clock struct {
    mu  sync.Mutex
    now time.Time
}

func (c *clock) Now() time.Time {
    c.mu.Lock()
    defer c.mu.Unlock()
    c.now = c.now.Add(time.Second)
    return c.now
}

type fixture struct {
    db            *sql.DB
    users         *repository.UserRepo
    sessions      *SessionService
    registrations *RegistrationService
    accounts      *AccountService
    events        *recorder
    admin         model.Caller
}

// newFixture wires the services over an in-memory database.  The clock
// starts at 2026-03-10 12:00 UTC.
func newFixture(t *testing.T) *fixture {
    t.Helper()
    db, err := database.OpenSQLite(database.MemoryPath)
    if err != nil {
        t.Fatalf("open sqlite: %v", err)
    }
    t.Cleanup(func() { _ = db.Close() })
    if err := database.Migrate(context.Background(), db, "sqlite"); err != nil {
        t.Fatalf("migrate: %v", err)
    }

    clk := &clock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
    events := &recorder{}
    sessionRepo := repository.NewSessionRepo(db)
    f := &fixture{
        db:            db,
        users:         repository.NewUserRepo(db),
        sessions:      NewSessionService(sessionRepo, events, time.UTC),
        registrations: NewRegistrationService(sessionRepo, repository.NewRegistrationRepo(db), events),
        events:        events,
    }
    f.accounts = NewAccountService(f.users)
    f.sessions.now = clk.Now
    f.registrations.now = clk.Now
    f.accounts.now = clk.Now
    f.admin = f.user(t, "admin@example.com", true, true)
    return f
}

func (f *fixture) user(t *testing.T, email string, approved, admin bool) model.Caller {
    t.Helper()
    now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
    u := model.User{ID: uuid.NewString(), Email: email, IsApproved: approved, IsAdmin: admin, CreatedAt: now, UpdatedAt: now}
    if err := f.users.Create(context.Background(), &u, "password123", bcrypt.MinCost); err != nil {
        t.Fatalf("create user: %v", err)
    }
    return u.Caller()
}

func (f *fixture) session(t *testing.T, date time.Time, places int) model.Session {
    t.Helper()
    s, err := f.sessions.Create(context.Background(), f.admin, SessionFields{
        Date:            date,
        Time:            "19:30",
        DurationMinutes: 120,
        Cost:            "8.50",
        Places:          places,
    })
    if err != nil {
        t.Fatalf("create session: %v", err)
    }
    return s
}

func date(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func wantKind(t *testing.T, err, kind error) {
    t.Helper()
    if !errors.Is(err, kind) {
        t.Fatalf("err = %v, want kind %v", err, kind)
    }
}

func TestQueueScenario(t *testing.T) {
    f := newFixture(t)
    ctx := context.Background()
    s := f.session(t, date(2026, 3, 12), 2)
    u1 := f.user(t, "u1@example.com", true, false)
    u2 := f.user(t, "u2@example.com", true, false)
    u3 := f.user(t, "u3@example.com", true, false)

    for _, u := range []model.Caller{u1, u2, u3} {
        if _, err := f.registrations.Register(ctx, u, s.ID); err != nil {
            t.Fatalf("register %s: %v", u.ID, err)
        }
    }

    roster, err := f.registrations.GetRoster(ctx, u1, s.ID)
    if err != nil {
        t.Fatalf("roster: %v", err)
    }
    if len(roster.MainList) != 2 || len(roster.Queue) != 1 {
        t.Fatalf("roster = %d main / %d queue", len(roster.MainList), len(roster.Queue))
    }
    if roster.Queue[0].UserID != u3.ID || roster.Queue[0].QueueRank != 1 {
        t.Fatalf("queue head = %+v", roster.Queue[0])
    }

    _, err = f.registrations.MarkAsPaid(ctx, u3, s.ID)
    wantKind(t, err, ErrForbidden)

    if err := f.registrations.Unregister(ctx, u1, s.ID); err != nil {
        t.Fatalf("unregister: %v", err)
    }
    ps, err := f.registrations.GetParticipants(ctx, u2, s.ID)
    if err != nil {
        t.Fatalf("participants: %v", err)
    }
    if len(ps) != 2 || ps[0].UserID != u2.ID || ps[1].UserID != u3.ID {
        t.Fatalf("participants after unregister = %+v", ps)
    }

    reg, err := f.registrations.MarkAsPaid(ctx, u3, s.ID)
    if err != nil {
        t.Fatalf("mark paid after promotion: %v", err)
    }
    if !reg.HasPaid {
        t.Fatal("expected HasPaid")
    }
    // Marking twice is harmless.
    if _, err := f.registrations.MarkAsPaid(ctx, u3, s.ID); err != nil {
        t.Fatalf("mark paid again: %v", err)
    }

    n, err := f.registrations.GetRegistrationCount(ctx, u2, s.ID)
    if err != nil || n != 2 {
        t.Fatalf("count = %d, %v", n, err)
    }

    got := f.events.types()
    want := []string{queue.EventRegistered, queue.EventRegistered, queue.EventRegistered, queue.EventUnregistered, queue.EventPaid, queue.EventPaid}
    if len(got) != len(want) {
        t.Fatalf("events = %v, want %v", got, want)
    }
    for i := range want {
        if got[i] != want[i] {
            t.Fatalf("events = %v, want %v", got, want)
        }
    }
    if f.events.events[2].InMainList {
        t.Fatal("third registration should be reported as queued")
    }
}

func TestRemovingPaidParticipantPromotesQueue(t *testing.T) {
    f := newFixture(t)
    ctx := context.Background()
    s := f.session(t, date(2026, 3, 12), 2)
    u1 := f.user(t, "u1@example.com", true, false)
    u2 := f.user(t, "u2@example.com", true, false)
    u3 := f.user(t, "u3@example.com", true, false)

    var first model.Registration
    for i, u := range []model.Caller{u1, u2, u3} {
        reg, err := f.registrations.Register(ctx, u, s.ID)
        if err != nil {
            t.Fatalf("register %s: %v", u.ID, err)
        }
        if i == 0 {
            first = reg
        }
    }
    if _, err := f.registrations.MarkAsPaid(ctx, u1, s.ID); err != nil {
        t.Fatalf("mark paid: %v", err)
    }
    _, err := f.registrations.MarkAsPaid(ctx, u3, s.ID)
    wantKind(t, err, ErrForbidden)

    wantKind(t, f.registrations.RemoveParticipant(ctx, u2, first.ID), ErrForbidden)
    if err := f.registrations.RemoveParticipant(ctx, f.admin, first.ID); err != nil {
        t.Fatalf("remove participant: %v", err)
    }
    wantKind(t, f.registrations.RemoveParticipant(ctx, f.admin, first.ID), ErrNotFound)

    roster, err := f.registrations.GetRoster(ctx, u2, s.ID)
    if err != nil {
        t.Fatalf("roster: %v", err)
    }
    if len(roster.MainList) != 2 || len(roster.Queue) != 0 {
        t.Fatalf("roster = %d main / %d queue", len(roster.MainList), len(roster.Queue))
    }
    if roster.MainList[0].UserID != u2.ID || roster.MainList[1].UserID != u3.ID {
        t.Fatalf("main list = %+v", roster.MainList)
    }

    reg, err := f.registrations.MarkAsPaid(ctx, u3, s.ID)
    if err != nil || !reg.HasPaid {
        t.Fatalf("mark paid after promotion = %+v, %v", reg, err)
    }
    if types := f.events.types(); types[len(types)-2] != queue.EventRemoved {
        t.Fatalf("events = %v", types)
    }
}

func TestRegisteredEventPlacementFollowsOrder(t *testing.T) {
    f := newFixture(t)
    ctx := context.Background()
    s := f.session(t, date(2026, 3, 12), 2)
    u1 := f.user(t, "u1@example.com", true, false)
    u2 := f.user(t, "u2@example.com", true, false)
    u3 := f.user(t, "u3@example.com", true, false)

    if _, err := f.registrations.Register(ctx, u1, s.ID); err != nil {
        t.Fatalf("register u1: %v", err)
    }
    // A registration stamped later than the next one, as when two inserts
    // race: it is counted but sorts after u3.
    late := model.Registration{
        ID:           uuid.NewString(),
        SessionID:    s.ID,
        UserID:       u2.ID,
        RegisteredAt: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
    }
    if err := repository.NewRegistrationRepo(f.db).Create(ctx, &late); err != nil {
        t.Fatalf("seed late registration: %v", err)
    }
    reg, err := f.registrations.Register(ctx, u3, s.ID)
    if err != nil {
        t.Fatalf("register u3: %v", err)
    }

    last := f.events.events[len(f.events.events)-1]
    if last.Type != queue.EventRegistered || last.RegistrationID != reg.ID {
        t.Fatalf("last event = %+v", last)
    }
    if !last.InMainList {
        t.Fatal("u3 is second in order and should be reported in the main list")
    }
}

func TestRegisterErrors(t *testing.T) {
    f := newFixture(t)
    ctx := context.Background()
    s := f.session(t, date(2026, 3, 12), 2)
    u := f.user(t, "u@example.com", true, false)

    if _, err := f.registrations.Register(ctx, u, s.ID); err != nil {
        t.Fatalf("register: %v", err)
    }
    _, err := f.registrations.Register(ctx, u, s.ID)
    wantKind(t, err, ErrConflict)

    _, err = f.registrations.Register(ctx, u, "missing")
    wantKind(t, err, ErrNotFound)

    wantKind(t, f.registrations.Unregister(ctx, f.admin, s.ID), ErrNotFound)

    _, err = f.registrations.MarkAsPaid(ctx, u, "missing")
    wantKind(t, err, ErrNotFound)
    _, err = f.registrations.MarkAsPaid(ctx, f.admin, s.ID)
    wantKind(t, err, ErrNotFound)

    _, err = f.registrations.GetRoster(ctx, u, "missing")
    wantKind(t, err, ErrNotFound)

    ps, err := f.registrations.GetParticipants(ctx, u, "missing")
    if err != nil || len(ps) != 0 {
        t.Fatalf("participants for unknown session = %v, %v", ps, err)
    }
}

func TestAuthorizationTiers(t *testing.T) {
    f := newFixture(t)
    ctx := context.Background()
    s := f.session(t, date(2026, 3, 12), 2)
    pending := f.user(t, "pending@example.com", false, false)
    member := f.user(t, "member@example.com", true, false)

    _, err := f.sessions.List(ctx, model.Caller{}, model.ScopeUpcoming, nil)
    wantKind(t, err, ErrUnauthorized)
    _, err = f.sessions.List(ctx, pending, model.ScopeUpcoming, nil)
    wantKind(t, err, ErrForbidden)
    _, err = f.registrations.Register(ctx, pending, s.ID)
    wantKind(t, err, ErrForbidden)

    _, err = f.sessions.Create(ctx, member, SessionFields{Date: date(2026, 3, 20), Time: "10:00", DurationMinutes: 60, Cost: "5", Places: 4})
    wantKind(t, err, ErrForbidden)
    wantKind(t, f.sessions.Delete(ctx, member, s.ID), ErrForbidden)

    reg, err := f.registrations.Register(ctx, member, s.ID)
    if err != nil {
        t.Fatalf("register: %v", err)
    }
    wantKind(t, f.registrations.RemoveParticipant(ctx, member, reg.ID), ErrForbidden)
    if err := f.registrations.RemoveParticipant(ctx, f.admin, reg.ID); err != nil {
        t.Fatalf("remove: %v", err)
    }
    wantKind(t, f.registrations.RemoveParticipant(ctx, f.admin, reg.ID), ErrNotFound)

    // Admins count as members without approval.
    unapprovedAdmin := f.user(t, "boss@example.com", false, true)
    if _, err := f.sessions.List(ctx, unapprovedAdmin, model.ScopeUpcoming, nil); err != nil {
        t.Fatalf("admin list: %v", err)
    }
}

func TestListScopes(t *testing.T) {
    f := newFixture(t)
    ctx := context.Background()
    yesterday := f.session(t, date(2026, 3, 9), 2)
    today := f.session(t, date(2026, 3, 10), 2)
    tomorrow := f.session(t, date(2026, 3, 11), 2)
    later := f.session(t, date(2026, 4, 2), 2)

    ids := func(ss []model.Session) []string {
        out := make([]string, len(ss))
        for i, s := range ss {
            out[i] = s.ID
        }
        return out
    }
    equal := func(got, want []string) bool {
        if len(got) != len(want) {
            return false
        }
        for i := range got {
            if got[i] != want[i] {
                return false
            }
        }
        return true
    }

    up, err := f.sessions.List(ctx, f.admin, model.ScopeUpcoming, nil)
    if err != nil {
        t.Fatalf("upcoming: %v", err)
    }
    if want := []string{today.ID, tomorrow.ID, later.ID}; !equal(ids(up), want) {
        t.Fatalf("upcoming = %v, want %v", ids(up), want)
    }

    past, err := f.sessions.List(ctx, f.admin, model.ScopePast, nil)
    if err != nil {
        t.Fatalf("past: %v", err)
    }
    if want := []string{today.ID, yesterday.ID}; !equal(ids(past), want) {
        t.Fatalf("past = %v, want %v", ids(past), want)
    }

    anchor := time.Date(2026, 3, 11, 15, 0, 0, 0, time.UTC)
    day, err := f.sessions.List(ctx, f.admin, model.ScopeUpcoming, &anchor)
    if err != nil {
        t.Fatalf("anchored: %v", err)
    }
    if want := []string{tomorrow.ID}; !equal(ids(day), want) {
        t.Fatalf("anchored = %v, want %v", ids(day), want)
    }
    anchoredPast, err := f.sessions.List(ctx, f.admin, model.ScopePast, &anchor)
    if err != nil || len(anchoredPast) != 0 {
        t.Fatalf("past anchored to tomorrow = %v, %v", ids(anchoredPast), err)
    }

    _, err = f.sessions.List(ctx, f.admin, model.SessionScope("someday"), nil)
    wantKind(t, err, ErrValidation)
}

func TestTodayUsesLocation(t *testing.T) {
    f := newFixture(t)
    // 12:00 UTC on 2026-03-10 is already 2026-03-11 in Kiritimati (UTC+14).
    loc := time.FixedZone("UTC+14", 14*60*60)
    f.sessions.loc = loc
    f.sessions.now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }
    if got, want := f.sessions.today(), date(2026, 3, 11); !got.Equal(want) {
        t.Fatalf("today = %v, want %v", got, want)
    }
}

func TestSessionDates(t *testing.T) {
    f := newFixture(t)
    ctx := context.Background()
    f.session(t, date(2026, 2, 28), 2)
    f.session(t, date(2026, 3, 1), 2)
    f.session(t, date(2026, 3, 1), 2)
    f.session(t, date(2026, 3, 31), 2)
    f.session(t, date(2026, 4, 1), 2)

    dates, err := f.sessions.GetSessionDates(ctx, f.admin, 3, 2026)
    if err != nil {
        t.Fatalf("dates: %v", err)
    }
    if len(dates) != 3 {
        t.Fatalf("dates = %v, want three entries", dates)
    }
    if !dates[0].Equal(date(2026, 3, 1)) || !dates[2].Equal(date(2026, 3, 31)) {
        t.Fatalf("dates = %v", dates)
    }

    _, err = f.sessions.GetSessionDates(ctx, f.admin, 13, 2026)
    wantKind(t, err, ErrValidation)
    _, err = f.sessions.GetSessionDates(ctx, f.admin, 0, 2026)
    wantKind(t, err, ErrValidation)
}

func TestCreateValidation(t *testing.T) {
    f := newFixture(t)
    ctx := context.Background()
    good := SessionFields{Date: date(2026, 3, 20), Time: "18:00", DurationMinutes: 60, Cost: "10", Places: 8}

    tests := []struct {
        name   string
        mutate func(*SessionFields)
    }{
        {"missing date", func(in *SessionFields) { in.Date = time.Time{} }},
        {"bad time", func(in *SessionFields) { in.Time = "6pm" }},
        {"zero duration", func(in *SessionFields) { in.DurationMinutes = 0 }},
        {"zero places", func(in *SessionFields) { in.Places = 0 }},
        {"negative cost", func(in *SessionFields) { in.Cost = "-3" }},
        {"bad link", func(in *SessionFields) { in.PaymentLink = "pay-me" }},
    }
    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            in := good
            tt.mutate(&in)
            _, err := f.sessions.Create(ctx, f.admin, in)
            wantKind(t, err, ErrValidation)
        })
    }

    in := good
    in.PaymentLink = "  "
    s, err := f.sessions.Create(ctx, f.admin, in)
    if err != nil {
        t.Fatalf("create: %v", err)
    }
    if s.PaymentLink != nil {
        t.Fatalf("blank link stored as %q", *s.PaymentLink)
    }
    if s.CreatedByID != f.admin.ID || s.CostCents != 1000 {
        t.Fatalf("session = %+v", s)
    }
}

func TestUpdateAndDelete(t *testing.T) {
    f := newFixture(t)
    ctx := context.Background()
    s := f.session(t, date(2026, 3, 12), 2)
    member := f.user(t, "m@example.com", true, false)
    if _, err := f.registrations.Register(ctx, member, s.ID); err != nil {
        t.Fatalf("register: %v", err)
    }

    link := "https://pay.example.com"
    places := 10
    updated, err := f.sessions.Update(ctx, f.admin, s.ID, SessionChanges{PaymentLink: &link, Places: &places})
    if err != nil {
        t.Fatalf("update: %v", err)
    }
    if updated.Places != 10 || updated.PaymentLink == nil || updated.Time != s.Time {
        t.Fatalf("updated = %+v", updated)
    }

    unchanged, err := f.sessions.Update(ctx, f.admin, s.ID, SessionChanges{})
    if err != nil {
        t.Fatalf("empty update: %v", err)
    }
    if !unchanged.UpdatedAt.Equal(updated.UpdatedAt) || unchanged.Places != 10 {
        t.Fatalf("empty update changed the row: %+v", unchanged)
    }
    _, err = f.sessions.Update(ctx, f.admin, "missing", SessionChanges{})
    wantKind(t, err, ErrNotFound)

    empty := ""
    cleared, err := f.sessions.Update(ctx, f.admin, s.ID, SessionChanges{PaymentLink: &empty})
    if err != nil || cleared.PaymentLink != nil {
        t.Fatalf("cleared = %+v, %v", cleared, err)
    }

    zero := 0
    _, err = f.sessions.Update(ctx, f.admin, s.ID, SessionChanges{Places: &zero})
    wantKind(t, err, ErrValidation)
    _, err = f.sessions.Update(ctx, f.admin, "missing", SessionChanges{Places: &places})
    wantKind(t, err, ErrNotFound)

    if err := f.sessions.Delete(ctx, f.admin, s.ID); err != nil {
        t.Fatalf("delete: %v", err)
    }
    _, err = f.sessions.GetByID(ctx, f.admin, s.ID)
    wantKind(t, err, ErrNotFound)
    mine, err := f.registrations.ListMyRegistrations(ctx, member)
    if err != nil || len(mine) != 0 {
        t.Fatalf("registrations after delete = %v, %v", mine, err)
    }
    wantKind(t, f.sessions.Delete(ctx, f.admin, s.ID), ErrNotFound)

    types := f.events.types()
    if last := types[len(types)-1]; last != queue.EventSessionDeleted {
        t.Fatalf("last event = %s", last)
    }
}

func TestAccountAdministration(t *testing.T) {
    f := newFixture(t)
    ctx := context.Background()
    pending := f.user(t, "pending@example.com", false, false)

    u, err := f.accounts.Approve(ctx, f.admin, pending.ID)
    if err != nil || !u.IsApproved {
        t.Fatalf("approve = %+v, %v", u, err)
    }
    // Flags are read fresh; the stale caller value is not reused.
    if !u.Caller().Member() {
        t.Fatal("approved user should be a member")
    }
    u, err = f.accounts.Revoke(ctx, f.admin, pending.ID)
    if err != nil || u.IsApproved {
        t.Fatalf("revoke = %+v, %v", u, err)
    }
    u, err = f.accounts.SetAdmin(ctx, f.admin, pending.ID, true)
    if err != nil || !u.IsAdmin {
        t.Fatalf("set admin = %+v, %v", u, err)
    }

    _, err = f.accounts.Approve(ctx, f.admin, f.admin.ID)
    wantKind(t, err, ErrValidation)
    _, err = f.accounts.SetAdmin(ctx, f.admin, f.admin.ID, false)
    wantKind(t, err, ErrValidation)
    _, err = f.accounts.Approve(ctx, f.admin, "missing")
    wantKind(t, err, ErrNotFound)
    _, err = f.accounts.ListAll(ctx, pending)
    wantKind(t, err, ErrForbidden)

    all, err := f.accounts.ListAll(ctx, f.admin)
    if err != nil || len(all) != 2 {
        t.Fatalf("list all = %d, %v", len(all), err)
    }
}

func TestProfile(t *testing.T) {
    f := newFixture(t)
    ctx := context.Background()
    pending := f.user(t, "pending@example.com", false, false)

    // Profile operations only need a signed-in caller.
    u, err := f.accounts.CompleteProfile(ctx, pending, " Ada ", "Lovelace")
    if err != nil {
        t.Fatalf("complete: %v", err)
    }
    if !u.ProfileCompleted || *u.FirstName != "Ada" {
        t.Fatalf("profile = %+v", u)
    }
    _, err = f.accounts.CompleteProfile(ctx, pending, "", "Lovelace")
    wantKind(t, err, ErrValidation)

    got, err := f.accounts.GetProfile(ctx, pending)
    if err != nil || got.ID != pending.ID {
        t.Fatalf("get profile = %+v, %v", got, err)
    }
    _, err = f.accounts.GetProfile(ctx, model.Caller{})
    wantKind(t, err, ErrUnauthorized)
}
