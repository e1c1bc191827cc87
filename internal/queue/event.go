// Package queue defines message payloads exchanged over the message broker.
package queue

// Event types carried in RegistrationEvent.Type.
const (
    EventRegistered     = "registration.created"
    EventUnregistered   = "registration.cancelled"
    EventPaid           = "registration.paid"
    EventRemoved        = "registration.removed"
    EventSessionDeleted = "session.deleted"
)

// RegistrationQueueName is the durable queue registration events go to.
const RegistrationQueueName = "registration.events"

// RegistrationEvent is published after a registration changes.  It carries
// enough information for downstream consumers to log or notify without
// querying the primary database.  RegistrationID and UserID are empty for
// session.deleted events.
type RegistrationEvent struct {
    Type           string `json:"type"`
    SessionID      string `json:"session_id"`
    SessionDate    string `json:"session_date"` // YYYY-MM-DD
    SessionTime    string `json:"session_time"` // HH:MM
    RegistrationID string `json:"registration_id,omitempty"`
    UserID         string `json:"user_id,omitempty"`
    ActorID        string `json:"actor_id"`
    InMainList     bool   `json:"in_main_list"`
    OccurredAt     string `json:"occurred_at"` // RFC3339, UTC
}
