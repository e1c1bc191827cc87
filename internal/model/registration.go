package model

import "time"

// Registration records a user's claim on a session.  There is at most
// one registration per (session, user); the store enforces it.  The
// registered_at timestamp is the only ordering key: the first Places
// registrations form the main list and the rest are queued.
//
// Fields:
//  ID           – primary key identifier (UUID).
//  SessionID    – session the user registered for.
//  UserID       – registered user.
//  HasPaid      – whether the user marked the session as paid.
//  RegisteredAt – when the registration was created.
type Registration struct {
    ID           string    // session_registrations.id
    SessionID    string    // session_registrations.session_id
    UserID       string    // session_registrations.user_id
    HasPaid      bool      // session_registrations.has_paid
    RegisteredAt time.Time // session_registrations.registered_at
}

// ParticipantProfile is the minimal user information shown next to a
// registration.
type ParticipantProfile struct {
    ID        string
    FirstName *string
    LastName  *string
    Email     string
    Image     *string
}

// Participant joins a registration with the registrant's profile.
type Participant struct {
    Registration
    User ParticipantProfile
}

// UserRegistration pairs one of the caller's registrations with its
// session, for the member dashboard.
type UserRegistration struct {
    Registration
    Session Session
}
