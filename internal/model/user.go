package model

import (
	"time"

	"github.com/google/uuid"
)

// UserType is the role of an account.
type UserType string

const (
	UserTypeAdmin UserType = "Admin"
	UserTypeUser  UserType = "User"
)

// User is an account with its address data.
type User struct {
	ID                uuid.UUID  `json:"id" db:"id"`
	Email             string     `json:"email" db:"email"`
	FirstName         string     `json:"firstName" db:"first_name"`
	LastName          string     `json:"lastName" db:"last_name"`
	Document          string     `json:"document" db:"document"`
	PhoneNumber       string     `json:"phoneNumber" db:"phone_number"`
	Address           string     `json:"address" db:"address"`
	Photo             string     `json:"photo,omitempty" db:"photo"`
	UserType          UserType   `json:"userType" db:"user_type"`
	CityID            int        `json:"cityId" db:"city_id"`
	City              *City      `json:"city,omitempty"`
	EmailConfirmed    bool       `json:"emailConfirmed" db:"email_confirmed"`
	CreatedAt         time.Time  `json:"createdAt" db:"created_at"`
	PasswordHash      string     `json:"-" db:"password_hash"`
	SecurityStamp     uuid.UUID  `json:"-" db:"security_stamp"`
	AccessFailedCount int        `json:"-" db:"access_failed_count"`
	LockoutEnd        *time.Time `json:"-" db:"lockout_end"`
}

// FullName returns "first last".
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// IsAdmin reports whether the user has the Admin role.
func (u *User) IsAdmin() bool {
	return u.UserType == UserTypeAdmin
}

// LockedOut reports whether the account is locked at the given instant.
func (u *User) LockedOut(now time.Time) bool {
	return u.LockoutEnd != nil && u.LockoutEnd.After(now)
}

// UserRequest is the registration payload.
type UserRequest struct {
	Email           string `json:"email" validate:"required,email,max=256"`
	Password        string `json:"password" validate:"required,min=6"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
	FirstName       string `json:"firstName" validate:"required,max=50,singleline"`
	LastName        string `json:"lastName" validate:"required,max=50,singleline"`
	Document        string `json:"document" validate:"required,max=20"`
	PhoneNumber     string `json:"phoneNumber" validate:"required,max=20"`
	Address         string `json:"address" validate:"required,max=200"`
	CityID          int    `json:"cityId" validate:"required,gt=0"`
	Photo           string `json:"photo,omitempty"`
}

// UserUpdateRequest is the profile update payload. Photo is a base64 payload;
// an empty value keeps the current photo.
type UserUpdateRequest struct {
	FirstName   string `json:"firstName" validate:"required,max=50,singleline"`
	LastName    string `json:"lastName" validate:"required,max=50,singleline"`
	Document    string `json:"document" validate:"required,max=20"`
	PhoneNumber string `json:"phoneNumber" validate:"required,max=20"`
	Address     string `json:"address" validate:"required,max=200"`
	CityID      int    `json:"cityId" validate:"required,gt=0"`
	Photo       string `json:"photo,omitempty"`
}

// LoginRequest holds the login credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// Token is the login response.
type Token struct {
	Token      string    `json:"token"`
	Expiration time.Time `json:"expiration"`
}

// EmailRequest carries a single email (confirmation resend, password recovery).
type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest completes a password recovery.
type ResetPasswordRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Token           string `json:"token" validate:"required"`
	Password        string `json:"newPassword" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

// ChangePasswordRequest changes the password of the signed-in user.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required,min=6"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
	Confirm         string `json:"confirm" validate:"required,eqfield=NewPassword"`
}
