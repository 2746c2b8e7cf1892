package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// User validation errors
var (
	ErrEmptyUserID       = errors.New("user ID cannot be empty")
	ErrEmptyEmail        = errors.New("email cannot be empty")
	ErrInvalidEmail      = errors.New("invalid email format")
	ErrPasswordTooShort  = errors.New("password must be at least 12 characters long")
	ErrPasswordTooLong   = errors.New("password must be at most 72 characters long")
	ErrEmptyPassword     = errors.New("password cannot be empty")
	ErrUserTenantIDEmpty = errors.New("user tenant ID cannot be empty")
)

// User is an administrative account on the UI surface. Tasks record user
// identity as the requesting actor; agents never authenticate as users.
type User struct {
	ID             uuid.UUID `json:"id"`
	TenantID       uuid.UUID `json:"tenant_id"`
	Email          string    `json:"email"`
	DisplayName    string    `json:"display_name"`
	Password       string    `json:"-"` // Plaintext, held only between creation and hashing
	HashedPassword string    `json:"-"` // Never expose the hash in JSON
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewUser creates a user with the given identity and plaintext password.
// The caller is responsible for hashing the password before storage.
func NewUser(tenantID uuid.UUID, email, displayName, password string) (*User, error) {
	user := &User{
		ID:          uuid.New(),
		TenantID:    tenantID,
		Email:       strings.ToLower(strings.TrimSpace(email)),
		DisplayName: strings.TrimSpace(displayName),
		Password:    password,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Validate checks if the User has valid data.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return ErrEmptyUserID
	}
	if u.TenantID == uuid.Nil {
		return ErrUserTenantIDEmpty
	}
	if u.Email == "" {
		return ErrEmptyEmail
	}
	if !strings.Contains(u.Email, "@") || strings.HasPrefix(u.Email, "@") || strings.HasSuffix(u.Email, "@") {
		return ErrInvalidEmail
	}

	if u.Password != "" {
		if len(u.Password) < 12 {
			return ErrPasswordTooShort
		}
		// bcrypt truncates beyond 72 bytes
		if len(u.Password) > 72 {
			return ErrPasswordTooLong
		}
	} else if u.HashedPassword == "" {
		return ErrEmptyPassword
	}

	return nil
}

// Actor builds the requesting actor recorded on tasks created by this user.
func (u *User) Actor() Actor {
	name := u.DisplayName
	if name == "" {
		name = u.Email
	}
	return Actor{Kind: ActorKindUser, ID: u.ID, Name: name}
}
