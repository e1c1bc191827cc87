package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/badminton-scheduler/internal/model"
)

// registrationOrder is the single ordering used wherever main-list and
// queue positions are derived.  Equal timestamps fall back to the id so
// every read sees the same order.
const registrationOrder = `ORDER BY r.registered_at ASC, r.id ASC`

// RegistrationRepo provides CRUD operations for session registrations.
// All timestamp fields are assumed to be stored in UTC.
type RegistrationRepo struct {
	db *sql.DB
}

// NewRegistrationRepo returns a new RegistrationRepo bound to the given database.
func NewRegistrationRepo(db *sql.DB) *RegistrationRepo { return &RegistrationRepo{db: db} }

// Create inserts a registration.  A second registration for the same
// (session, user) is rejected by the unique key and reported as
// ErrAlreadyRegistered; a missing session is reported as ErrSessionNotFound.
func (r *RegistrationRepo) Create(ctx context.Context, reg *model.Registration) error {
	const q = `INSERT INTO session_registrations (id, session_id, user_id, has_paid, registered_at) VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, reg.ID, reg.SessionID, reg.UserID, reg.HasPaid, reg.RegisteredAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyRegistered
		}
		if isForeignKeyViolation(err) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("insert registration: %w", err)
	}
	return nil
}

// GetByID fetches a registration by id.
func (r *RegistrationRepo) GetByID(ctx context.Context, id string) (model.Registration, error) {
	const q = `SELECT id, session_id, user_id, has_paid, registered_at FROM session_registrations WHERE id = ?`
	return r.getOne(ctx, q, id)
}

// GetBySessionAndUser fetches the user's registration for a session.
func (r *RegistrationRepo) GetBySessionAndUser(ctx context.Context, sessionID, userID string) (model.Registration, error) {
	const q = `SELECT id, session_id, user_id, has_paid, registered_at FROM session_registrations WHERE session_id = ? AND user_id = ?`
	return r.getOne(ctx, q, sessionID, userID)
}

func (r *RegistrationRepo) getOne(ctx context.Context, q string, args ...any) (model.Registration, error) {
	reg, err := scanRegistration(r.db.QueryRowContext(ctx, q, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Registration{}, ErrRegistrationNotFound
		}
		return model.Registration{}, fmt.Errorf("get registration: %w", err)
	}
	return reg, nil
}

// Delete removes a registration by id, whoever owns it.
func (r *RegistrationRepo) Delete(ctx context.Context, id string) error {
	return r.deleteWhere(ctx, `DELETE FROM session_registrations WHERE id = ?`, id)
}

// DeleteBySessionAndUser removes the user's registration for a session.
func (r *RegistrationRepo) DeleteBySessionAndUser(ctx context.Context, sessionID, userID string) error {
	return r.deleteWhere(ctx, `DELETE FROM session_registrations WHERE session_id = ? AND user_id = ?`, sessionID, userID)
}

func (r *RegistrationRepo) deleteWhere(ctx context.Context, q string, args ...any) error {
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	if n == 0 {
		return ErrRegistrationNotFound
	}
	return nil
}

// ListParticipants returns every registration of the session joined with
// the registrant's profile, in registration order.
func (r *RegistrationRepo) ListParticipants(ctx context.Context, sessionID string) ([]model.Participant, error) {
	const q = `SELECT r.id, r.session_id, r.user_id, r.has_paid, r.registered_at,
                      u.id, u.first_name, u.last_name, u.email, u.image
               FROM session_registrations r
               JOIN users u ON u.id = r.user_id
               WHERE r.session_id = ? ` + registrationOrder
	rows, err := r.db.QueryContext(ctx, q, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	out := make([]model.Participant, 0)
	for rows.Next() {
		var (
			p                  model.Participant
			first, last, image sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.SessionID, &p.UserID, &p.HasPaid, &p.RegisteredAt,
			&p.User.ID, &first, &last, &p.User.Email, &image); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		p.RegisteredAt = p.RegisteredAt.UTC()
		p.User.FirstName = nullableString(first)
		p.User.LastName = nullableString(last)
		p.User.Image = nullableString(image)
		out = append(out, p)
	}
	return out, rows.Err()
}

// Count returns how many registrations a session has.
func (r *RegistrationRepo) Count(ctx context.Context, sessionID string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM session_registrations WHERE session_id = ?`, sessionID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}
	return n, nil
}

// ListByUser returns the user's registrations with their sessions,
// soonest session first.
func (r *RegistrationRepo) ListByUser(ctx context.Context, userID string) ([]model.UserRegistration, error) {
	const q = `SELECT r.id, r.session_id, r.user_id, r.has_paid, r.registered_at,
                      s.id, s.session_date, s.start_time, s.duration_minutes, s.cost_cents, s.payment_link, s.places, s.created_by_id, s.created_at, s.updated_at
               FROM session_registrations r
               JOIN sessions s ON s.id = r.session_id
               WHERE r.user_id = ?
               ORDER BY s.session_date ASC, s.start_time ASC, s.id ASC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list user registrations: %w", err)
	}
	defer rows.Close()

	out := make([]model.UserRegistration, 0)
	for rows.Next() {
		var (
			ur   model.UserRegistration
			link sql.NullString
		)
		s := &ur.Session
		if err := rows.Scan(&ur.ID, &ur.SessionID, &ur.UserID, &ur.HasPaid, &ur.RegisteredAt,
			&s.ID, &s.Date, &s.Time, &s.DurationMinutes, &s.CostCents, &link, &s.Places, &s.CreatedByID, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan user registration: %w", err)
		}
		ur.RegisteredAt = ur.RegisteredAt.UTC()
		s.PaymentLink = nullableString(link)
		s.Date = s.Date.UTC()
		s.CreatedAt = s.CreatedAt.UTC()
		s.UpdatedAt = s.UpdatedAt.UTC()
		out = append(out, ur)
	}
	return out, rows.Err()
}

// markPaidTx makes the session and registration reads in MarkPaid take
// shared locks on InnoDB, so a concurrent change to places or to the
// registration order waits for the write or aborts it.
var markPaidTx = &sql.TxOptions{Isolation: sql.LevelSerializable}

// PaidCheck decides, from the session and its registrations in order,
// whether the registration at index may be marked paid.
type PaidCheck func(session model.Session, ordered []model.Registration, index int) error

// MarkPaid sets has_paid on the user's registration for a session.  The
// session, the ordered registrations and the update are read and written
// in one serializable transaction; check runs in between and can veto the
// write by returning an error, which is passed through unchanged.
func (r *RegistrationRepo) MarkPaid(ctx context.Context, sessionID, userID string, check PaidCheck) (model.Registration, error) {
	tx, err := r.db.BeginTx(ctx, markPaidTx)
	if err != nil {
		return model.Registration{}, fmt.Errorf("begin mark paid: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	session, err := getSession(ctx, tx, sessionID)
	if err != nil {
		return model.Registration{}, err
	}

	const q = `SELECT r.id, r.session_id, r.user_id, r.has_paid, r.registered_at
               FROM session_registrations r
               WHERE r.session_id = ? ` + registrationOrder
	rows, err := tx.QueryContext(ctx, q, sessionID)
	if err != nil {
		return model.Registration{}, fmt.Errorf("list registrations: %w", err)
	}
	ordered := make([]model.Registration, 0)
	index := -1
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			rows.Close()
			return model.Registration{}, fmt.Errorf("scan registration: %w", err)
		}
		if reg.UserID == userID {
			index = len(ordered)
		}
		ordered = append(ordered, reg)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return model.Registration{}, fmt.Errorf("list registrations: %w", err)
	}
	if index < 0 {
		return model.Registration{}, ErrRegistrationNotFound
	}
	if check != nil {
		if err := check(session, ordered, index); err != nil {
			return model.Registration{}, err
		}
	}

	reg := ordered[index]
	if _, err := tx.ExecContext(ctx, `UPDATE session_registrations SET has_paid = ? WHERE id = ?`, true, reg.ID); err != nil {
		return model.Registration{}, fmt.Errorf("mark paid: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return model.Registration{}, fmt.Errorf("commit mark paid: %w", err)
	}
	reg.HasPaid = true
	return reg, nil
}

func scanRegistration(row rowScanner) (model.Registration, error) {
	var reg model.Registration
	if err := row.Scan(&reg.ID, &reg.SessionID, &reg.UserID, &reg.HasPaid, &reg.RegisteredAt); err != nil {
		return model.Registration{}, err
	}
	reg.RegisteredAt = reg.RegisteredAt.UTC()
	return reg, nil
}
