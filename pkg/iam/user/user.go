package user

import (
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/Abraxas-365/contractorconnect/pkg/errx"
	"github.com/Abraxas-365/contractorconnect/pkg/kernel"
)

// Status is the account lifecycle state.
type Status string

const (
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusSuspended Status = "suspended"
	StatusPending   Status = "pending"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusSuspended, StatusPending:
		return true
	}
	return false
}

// User is a society, contractor or admin account.
type User struct {
	ID           kernel.UserID `db:"id" json:"id"`
	PhoneNumber  string        `db:"phone_number" json:"phone_number"`
	Email        *string       `db:"email" json:"email,omitempty"`
	Role         kernel.Role   `db:"role" json:"role"`
	Status       Status        `db:"status" json:"status"`
	Name         string        `db:"name" json:"name"`
	ProfileImage *string       `db:"profile_image" json:"profile_image,omitempty"`
	Description  *string       `db:"description" json:"description,omitempty"`
	Address      *string       `db:"address" json:"address,omitempty"`
	City         *string       `db:"city" json:"city,omitempty"`
	State        *string       `db:"state" json:"state,omitempty"`
	Pincode      *string       `db:"pincode" json:"pincode,omitempty"`
	IsVerified   bool          `db:"is_verified" json:"is_verified"`
	IsActive     bool          `db:"is_active" json:"is_active"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at" json:"updated_at"`
	LastLoginAt  *time.Time    `db:"last_login_at" json:"last_login_at,omitempty"`
}

// CanLogin reports whether the account may receive tokens.
func (u *User) CanLogin() bool {
	return u.IsActive && u.Status != StatusSuspended && u.Status != StatusInactive
}

// MarkVerified completes registration.
func (u *User) MarkVerified(at time.Time) {
	u.IsVerified = true
	if u.Status == StatusPending {
		u.Status = StatusActive
	}
	u.UpdatedAt = at
}

// Deactivate soft-deletes the account.
func (u *User) Deactivate(at time.Time) {
	u.IsActive = false
	u.Status = StatusInactive
	u.UpdatedAt = at
}

// Actor returns the user as an acting party.
func (u *User) Actor() kernel.Actor {
	return kernel.Actor{UserID: u.ID, Role: u.Role}
}

// ============================================================================
// Validation
// ============================================================================

var (
	phonePattern   = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
	emailPattern   = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	pincodePattern = regexp.MustCompile(`^[0-9]{6}$`)
)

// NormalizePhone strips spaces and dashes.
func NormalizePhone(phone string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(phone))
}

func ValidatePhone(phone string) error {
	if !phonePattern.MatchString(phone) {
		return ErrValidation("phone number must have 10 to 15 digits").WithDetail("field", "phone_number")
	}
	return nil
}

func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return ErrValidation("invalid email address").WithDetail("field", "email")
	}
	return nil
}

func ValidateName(name string) error {
	if n := len(strings.TrimSpace(name)); n < 2 || n > 100 {
		return ErrValidation("name must be between 2 and 100 characters").WithDetail("field", "name")
	}
	return nil
}

func ValidatePincode(pincode string) error {
	if !pincodePattern.MatchString(pincode) {
		return ErrValidation("pincode must be 6 digits").WithDetail("field", "pincode")
	}
	return nil
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("USER")

var (
	CodeNotFound      = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "User not found")
	CodeAlreadyExists = ErrRegistry.Register("ALREADY_EXISTS", errx.TypeConflict, http.StatusConflict, "User already exists")
	CodeValidation    = ErrRegistry.Register("VALIDATION", errx.TypeValidation, http.StatusBadRequest, "Invalid user data")
	CodeInactive      = ErrRegistry.Register("INACTIVE", errx.TypeForbidden, http.StatusForbidden, "Account is inactive")
)

func ErrNotFound() *errx.Error      { return ErrRegistry.New(CodeNotFound) }
func ErrAlreadyExists() *errx.Error { return ErrRegistry.New(CodeAlreadyExists) }
func ErrInactive() *errx.Error      { return ErrRegistry.New(CodeInactive) }

func ErrValidation(msg string) *errx.Error {
	return ErrRegistry.NewWithMessage(CodeValidation, msg)
}
