package repository

import (
	"context"      // context for controlling query lifetime
	"database/sql" // sql provides DB abstraction
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/badminton-scheduler/internal/model"
)

// sessionColumns lists the columns scanned by scanSession, in order.
const sessionColumns = `id, session_date, start_time, duration_minutes, cost_cents, payment_link, places, created_by_id, created_at, updated_at`

// SessionFilter narrows a session listing.  From and To are inclusive
// calendar days; nil leaves that side open.
type SessionFilter struct {
	From       *time.Time
	To         *time.Time
	Descending bool
}

// SessionRepo manages persistence for sessions.
type SessionRepo struct {
	db *sql.DB
}

// NewSessionRepo constructs a SessionRepo with the given DB handle.
func NewSessionRepo(db *sql.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// Create inserts a new session.  The caller assigns ID and timestamps.
func (r *SessionRepo) Create(ctx context.Context, s *model.Session) error {
	const q = `INSERT INTO sessions (` + sessionColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q,
		s.ID, s.Date, s.Time, s.DurationMinutes, s.CostCents, s.PaymentLink, s.Places, s.CreatedByID, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// GetByID retrieves a session by its ID.  It returns ErrSessionNotFound if
// there is no matching row.
func (r *SessionRepo) GetByID(ctx context.Context, id string) (model.Session, error) {
	return getSession(ctx, r.db, id)
}

func getSession(ctx context.Context, db querier, id string) (model.Session, error) {
	const q = `SELECT ` + sessionColumns + ` FROM sessions WHERE id = ?`
	s, err := scanSession(db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Session{}, ErrSessionNotFound
		}
		return model.Session{}, fmt.Errorf("get session: %w", err)
	}
	return s, nil
}

// List returns sessions matching the filter ordered by date, then start
// time, then id.  When no sessions match it returns an empty slice.
func (r *SessionRepo) List(ctx context.Context, f SessionFilter) ([]model.Session, error) {
	var (
		where []string
		args  []any
	)
	if f.From != nil {
		where = append(where, "session_date >= ?")
		args = append(args, *f.From)
	}
	if f.To != nil {
		where = append(where, "session_date <= ?")
		args = append(args, *f.To)
	}
	q := `SELECT ` + sessionColumns + ` FROM sessions`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	if f.Descending {
		q += " ORDER BY session_date DESC, start_time DESC, id DESC"
	} else {
		q += " ORDER BY session_date ASC, start_time ASC, id ASC"
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	out := make([]model.Session, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListDates returns the date of every session with from <= date < to,
// one entry per session, ascending.
func (r *SessionRepo) ListDates(ctx context.Context, from, to time.Time) ([]time.Time, error) {
	const q = `SELECT session_date FROM sessions WHERE session_date >= ? AND session_date < ? ORDER BY session_date ASC`
	rows, err := r.db.QueryContext(ctx, q, from, to)
	if err != nil {
		return nil, fmt.Errorf("list session dates: %w", err)
	}
	defer rows.Close()

	out := make([]time.Time, 0)
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan session date: %w", err)
		}
		out = append(out, d.UTC())
	}
	return out, rows.Err()
}

// Update applies the supplied fields of patch and bumps updated_at.  An
// empty payment link is stored as NULL.  It returns the fresh row, or
// ErrSessionNotFound when the id does not exist.
func (r *SessionRepo) Update(ctx context.Context, id string, p model.SessionPatch, now time.Time) (model.Session, error) {
	if _, err := r.GetByID(ctx, id); err != nil {
		return model.Session{}, err
	}

	sets := []string{"updated_at = ?"}
	args := []any{now}
	if p.Date != nil {
		sets = append(sets, "session_date = ?")
		args = append(args, *p.Date)
	}
	if p.Time != nil {
		sets = append(sets, "start_time = ?")
		args = append(args, *p.Time)
	}
	if p.DurationMinutes != nil {
		sets = append(sets, "duration_minutes = ?")
		args = append(args, *p.DurationMinutes)
	}
	if p.CostCents != nil {
		sets = append(sets, "cost_cents = ?")
		args = append(args, *p.CostCents)
	}
	if p.PaymentLink != nil {
		sets = append(sets, "payment_link = ?")
		if *p.PaymentLink == "" {
			args = append(args, nil)
		} else {
			args = append(args, *p.PaymentLink)
		}
	}
	if p.Places != nil {
		sets = append(sets, "places = ?")
		args = append(args, *p.Places)
	}
	args = append(args, id)

	q := "UPDATE sessions SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		return model.Session{}, fmt.Errorf("update session: %w", err)
	}
	return r.GetByID(ctx, id)
}

// Delete removes a session.  Its registrations go with it through the
// ON DELETE CASCADE foreign key.  It returns ErrSessionNotFound when no
// row was deleted.
func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func scanSession(row rowScanner) (model.Session, error) {
	var (
		s    model.Session
		link sql.NullString
	)
	if err := row.Scan(&s.ID, &s.Date, &s.Time, &s.DurationMinutes, &s.CostCents, &link, &s.Places, &s.CreatedByID, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return model.Session{}, err
	}
	s.PaymentLink = nullableString(link)
	s.Date = s.Date.UTC()
	s.CreatedAt = s.CreatedAt.UTC()
	s.UpdatedAt = s.UpdatedAt.UTC()
	return s, nil
}
