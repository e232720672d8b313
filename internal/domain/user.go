package domain

import (
	"context"
	"time"
)

// User roles.
const (
	RoleOrganizer = "organizer"
	RoleAttendee  = "attendee"
)

// User represents a registered account.
// swagger:model User
type User struct {
	ID              string    `json:"id"`
	Username        string    `json:"username"`
	Email           string    `json:"email"`
	PasswordHash    string    `json:"-"`
	Salt            string    `json:"-"`
	Role            string    `json:"role"`
	PayoutReference *string   `json:"payout_reference,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NewUser returns a new User with the given fields. ID is typically set by the repository on create.
func NewUser(username, email, role string, createdAt, updatedAt time.Time) *User {
	return &User{
		Username:  username,
		Email:     email,
		Role:      role,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

// ValidRole reports whether role is one of the supported account roles.
func ValidRole(role string) bool {
	return role == RoleOrganizer || role == RoleAttendee
}

// Identity is the caller resolved from a bearer credential.
type Identity struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// PasswordHasher handles salt generation, hashing, and verification.
type PasswordHasher interface {
	GenerateSalt() (string, error)
	Hash(salt, password string) (hash string, err error)
	Compare(hash, salt, password string) error
}

// TokenIssuer issues tokens (e.g. JWT) for an authenticated user.
type TokenIssuer interface {
	Issue(userID, email, role string, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns the caller identity.
type TokenVerifier interface {
	Verify(token string) (*Identity, error)
}

// UserRepository defines the interface for user storage
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	UpdatePayoutReference(ctx context.Context, userID, reference string) error
	UpdateProfile(ctx context.Context, user *User) error
}

// AuthResult is returned by signup and login.
type AuthResult struct {
	Token string `json:"token"`
	Role  string `json:"role"`
	User  *User  `json:"user"`
}

// UserService defines signup, login and profile operations.
type UserService interface {
	SignUp(ctx context.Context, username, email, password, role string) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	GetByID(ctx context.Context, id string) (*User, error)
	UpdatePayoutReference(ctx context.Context, userID, reference string) (*User, error)
	UpdateProfile(ctx context.Context, userID, username, email string) (*User, error)
}
