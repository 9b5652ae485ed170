package user

import (
	"net/http"
	"time"

	"github.com/parkview-commons/rental-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound           = apperror.New(http.StatusNotFound, "user not found")
	ErrEmailAlreadyUsed   = apperror.New(http.StatusConflict, "email already used")
	ErrInvalidCredentials = apperror.New(http.StatusUnauthorized, "invalid email or password")
	ErrInactiveUser       = apperror.New(http.StatusForbidden, "user is inactive")
	ErrInvalidRole        = apperror.New(http.StatusBadRequest, "invalid role")
)

// Role describes what an actor is allowed to do with bookings.
// Regular residents request bookings; the rental team and admins
// approve, fulfill, and block out inventory.
type Role string

const (
	RoleUser   Role = "user"
	RoleRental Role = "rental"
	RoleAdmin  Role = "admin"
)

// TeamCapable reports whether the role carries rental-team privileges.
// Every authorization gate in the booking engine goes through this single
// predicate, so the state machine's role checks cannot drift apart.
func (r Role) TeamCapable() bool {
	return r == RoleRental || r == RoleAdmin
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleRental, RoleAdmin:
		return true
	}
	return false
}

// User represents a resident or rental-team member.
type User struct {
	ID           string // UUID
	Email        string
	PasswordHash string
	DisplayName  *string
	Role         Role
	IsActive     bool
	CreatedAt    time.Time
	LastLoginAt  *time.Time
}

// Filter defines filter options for listing users.
type Filter struct {
	Email    string
	Role     string
	IsActive *bool // Pointer to distinguish between false and nil (not set)

	Page     int
	PageSize int
}
