package model

import "errors"

// Role separates admins (approve, reject, adjust, override stock checks)
// from regular site staff.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

// User is one registered Telegram account.
type User struct {
	ID         string
	TelegramID int64
	Name       string
	Role       Role
	IsActive   bool
}

// IsAdmin reports whether the user may resolve approvals.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

var (
	// ErrUserNotFound is returned for unregistered Telegram accounts
	ErrUserNotFound = errors.New("user not found")
)
