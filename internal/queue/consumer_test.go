package queue

import (
    "os"
    "path/filepath"
    "strings"
    "testing"
)

func TestFormatAuditLine(t *testing.T) {
    ev := RegistrationEvent{
        Type:           EventRegistered,
        SessionID:      "s1",
        SessionDate:    "2026-03-04",
        SessionTime:    "19:30",
        RegistrationID: "r1",
        UserID:         "u1",
        ActorID:        "u1",
        InMainList:     true,
        OccurredAt:     "2026-03-01T10:00:00Z",
    }
    got := FormatAuditLine(ev)
    want := "[2026-03-01T10:00:00Z] registration.created | session_id=s1 | date=2026-03-04 19:30 | actor_id=u1 | registration_id=r1 | user_id=u1 | main_list=true\n"
    if got != want {
        t.Fatalf("line = %q, want %q", got, want)
    }

    deleted := FormatAuditLine(RegistrationEvent{Type: EventSessionDeleted, SessionID: "s1", ActorID: "a1"})
    if strings.Contains(deleted, "registration_id") {
        t.Fatalf("session event should not carry registration fields: %q", deleted)
    }
}

func TestHandleMessageAppends(t *testing.T) {
    path := filepath.Join(t.TempDir(), "nested", "audit.log")
    c := &AuditConsumer{LogPath: path}

    body := []byte(`{"type":"registration.paid","session_id":"s1","registration_id":"r1","user_id":"u1","actor_id":"u1","occurred_at":"x"}`)
    for i := 0; i < 2; i++ {
        if err := c.HandleMessage(body); err != nil {
            t.Fatalf("handle: %v", err)
        }
    }
    data, err := os.ReadFile(path)
    if err != nil {
        t.Fatalf("read log: %v", err)
    }
    if n := strings.Count(string(data), "registration.paid"); n != 2 {
        t.Fatalf("lines = %d, want 2", n)
    }
}

func TestHandleMessageRejectsBadPayload(t *testing.T) {
    c := &AuditConsumer{LogPath: filepath.Join(t.TempDir(), "audit.log")}
    for _, body := range []string{`not json`, `{"type":""}`} {
        if err := c.HandleMessage([]byte(body)); err == nil {
            t.Fatalf("expected error for %q", body)
        }
    }
}
