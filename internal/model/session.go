package model

import "time"

// Session represents one scheduled badminton event.  Sessions are
// created and edited by administrators; members register against
// them.  This struct corresponds to a row in the `sessions` table.
//
// Fields:
//  ID              – primary key identifier (UUID).
//  Date            – calendar day of the session, held as midnight UTC.
//  Time            – start time of day in HH:MM form.
//  DurationMinutes – length of the session, always positive.
//  CostCents       – price per participant in euro cents.
//  PaymentLink     – optional external URL where participants pay.
//  Places          – capacity of the main list, at least one.
//  CreatedByID     – administrator who created the session.
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – timestamp of last update.
type Session struct {
    ID              string    // sessions.id
    Date            time.Time // sessions.session_date
    Time            string    // sessions.start_time
    DurationMinutes int       // sessions.duration_minutes
    CostCents       int64     // sessions.cost_cents
    PaymentLink     *string   // sessions.payment_link (nullable)
    Places          int       // sessions.places
    CreatedByID     string    // sessions.created_by_id
    CreatedAt       time.Time // sessions.created_at
    UpdatedAt       time.Time // sessions.updated_at
}

// SessionPatch carries the fields supplied to a partial update.  A nil
// pointer leaves the column untouched.  PaymentLink pointing at an empty
// string clears the stored link.
type SessionPatch struct {
    Date            *time.Time
    Time            *string
    DurationMinutes *int
    CostCents       *int64
    PaymentLink     *string
    Places          *int
}

// Empty reports whether the patch changes nothing.
func (p SessionPatch) Empty() bool {
    return p.Date == nil && p.Time == nil && p.DurationMinutes == nil &&
        p.CostCents == nil && p.PaymentLink == nil && p.Places == nil
}

// SessionScope selects which side of today a listing returns.
type SessionScope string

const (
    ScopeUpcoming SessionScope = "upcoming"
    ScopePast     SessionScope = "past"
)
