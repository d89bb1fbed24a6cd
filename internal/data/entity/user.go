package entity

import (
	"crypto/subtle"
	"errors"
	"strings"
	"time"
)

type UserRole string

const (
	RoleAdmin  UserRole = "admin"
	RoleClient UserRole = "client"
	RoleWorker UserRole = "worker"
)

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleClient, RoleWorker:
		return true
	}
	return false
}

// PasswordHasher is the one-way hash used for stored passwords.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Compare(hash, plain string) bool
}

var ErrEmptyPassword = errors.New("password must not be empty")

type User struct {
	Base
	Email        string     `db:"email"`
	PasswordHash string     `db:"password"`
	Role         UserRole   `db:"role"`
	FirstName    string     `db:"first_name"`
	LastName     string     `db:"last_name"`
	PhoneNumber  *string    `db:"phone_number"`
	Approved     bool       `db:"approved"`
	OTP          *string    `db:"otp"`
	OTPExpiry    *time.Time `db:"otp_expiry"`
	ResetTokenID *string    `db:"reset_token_id"`
}

// NormalizeEmail trims and lower-cases an address. Every lookup and write goes through it.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SetPassword is the only way a password reaches PasswordHash.
func (u *User) SetPassword(h PasswordHasher, plain string) error {
	if plain == "" {
		return ErrEmptyPassword
	}
	hash, err := h.Hash(plain)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(h PasswordHasher, plain string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return h.Compare(u.PasswordHash, plain)
}

// SetOTP stores a code together with its expiry.
func (u *User) SetOTP(code string, expiresAt time.Time) {
	u.OTP = &code
	u.OTPExpiry = &expiresAt
}

// ClearOTP drops the code and its expiry together.
func (u *User) ClearOTP() {
	u.OTP = nil
	u.OTPExpiry = nil
}

// OTPMatches compares code against the stored one in constant time.
func (u *User) OTPMatches(code string) bool {
	if u.OTP == nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(*u.OTP), []byte(code)) == 1
}

// OTPExpired treats a missing expiry as expired.
func (u *User) OTPExpired(now time.Time) bool {
	if u.OTPExpiry == nil {
		return true
	}
	return u.OTPExpiry.Before(now)
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
