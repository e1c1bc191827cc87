package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/badminton-scheduler/internal/model"
	"github.com/iliyamo/badminton-scheduler/internal/utils"
)

const userColumns = `id, email, password_hash, first_name, last_name, image, is_admin, is_approved, profile_completed, created_at, updated_at`

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create hashes the password and inserts the user.  ID, flags, names and
// timestamps come from u; the stored hash is written back into it.
func (r *UserRepo) Create(ctx context.Context, u *model.User, password string, cost int) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO users ("+userColumns+") VALUES (?,?,?,?,?,?,?,?,?,?,?)",
		u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Image,
		u.IsAdmin, u.IsApproved, u.ProfileCompleted, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
}

func (r *UserRepo) getOne(ctx context.Context, q string, arg any) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx, q, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// ListAll returns every user, oldest account first.
func (r *UserRepo) ListAll(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY created_at ASC, id ASC")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	out := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// CompleteProfile stores first and last name and marks the profile complete.
func (r *UserRepo) CompleteProfile(ctx context.Context, id, firstName, lastName string, now time.Time) (model.User, error) {
	return r.update(ctx, id,
		"UPDATE users SET first_name=?, last_name=?, profile_completed=?, updated_at=? WHERE id=?",
		firstName, lastName, true, now, id)
}

// SetApproved grants or withdraws approval.
func (r *UserRepo) SetApproved(ctx context.Context, id string, approved bool, now time.Time) (model.User, error) {
	return r.update(ctx, id, "UPDATE users SET is_approved=?, updated_at=? WHERE id=?", approved, now, id)
}

// SetAdmin grants or withdraws administrator rights.
func (r *UserRepo) SetAdmin(ctx context.Context, id string, admin bool, now time.Time) (model.User, error) {
	return r.update(ctx, id, "UPDATE users SET is_admin=?, updated_at=? WHERE id=?", admin, now, id)
}

// update runs q against the user and returns the fresh row, or
// ErrUserNotFound when the user does not exist.
func (r *UserRepo) update(ctx context.Context, id, q string, args ...any) (model.User, error) {
	if _, err := r.GetByID(ctx, id); err != nil {
		return model.User{}, err
	}
	if _, err := r.DB.ExecContext(ctx, q, args...); err != nil {
		return model.User{}, fmt.Errorf("update user: %w", err)
	}
	return r.GetByID(ctx, id)
}

func scanUser(row rowScanner) (model.User, error) {
	var (
		u                  model.User
		first, last, image sql.NullString
	)
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &first, &last, &image,
		&u.IsAdmin, &u.IsApproved, &u.ProfileCompleted, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return model.User{}, err
	}
	u.FirstName = nullableString(first)
	u.LastName = nullableString(last)
	u.Image = nullableString(image)
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return u, nil
}
