// AngelaMos | 2026
// entity.go

package user

import (
	"time"
)

// User is an account row joined with its role code.
type User struct {
	ID           int64      `db:"id"`
	FirstName    string     `db:"firstname"`
	LastName     string     `db:"lastname"`
	Email        string     `db:"email"`
	PasswordHash string     `db:"password_hash"`
	RoleCode     string     `db:"role_code"`
	LastLoginAt  *time.Time `db:"last_login_at"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

// RoleCount is the number of accounts holding one role.
type RoleCount struct {
	RoleCode string `db:"role_code"`
	Count    int    `db:"count"`
}
