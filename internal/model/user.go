package model

import "time"

// User represents an application account as stored in the `users`
// table.  PasswordHash never leaves the repository and service layers;
// handlers define their own response types.
//
// Fields:
//  ID               – primary key identifier (UUID).
//  Email            – unique, lower-cased email address.
//  PasswordHash     – bcrypt hashed password.
//  FirstName        – given name, set when the profile is completed.
//  LastName         – family name, set when the profile is completed.
//  Image            – optional avatar URL.
//  IsAdmin          – whether the account can manage sessions and users.
//  IsApproved       – whether an administrator approved the account.
//  ProfileCompleted – whether first and last name were provided.
//  CreatedAt        – timestamp of creation.
//  UpdatedAt        – timestamp of last update.
type User struct {
    ID               string    // users.id
    Email            string    // users.email
    PasswordHash     string    // users.password_hash
    FirstName        *string   // users.first_name (nullable)
    LastName         *string   // users.last_name (nullable)
    Image            *string   // users.image (nullable)
    IsAdmin          bool      // users.is_admin
    IsApproved       bool      // users.is_approved
    ProfileCompleted bool      // users.profile_completed
    CreatedAt        time.Time // users.created_at
    UpdatedAt        time.Time // users.updated_at
}

// Caller returns the authorization view of the account.
func (u User) Caller() Caller {
    return Caller{ID: u.ID, IsAdmin: u.IsAdmin, IsApproved: u.IsApproved}
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to a user and contains metadata for expiry
// and revocation.  The plain token is not stored; only its
// SHA-256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    UserID    string     // refresh_tokens.user_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}
