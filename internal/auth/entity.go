// AngelaMos | 2026
// entity.go

package auth

import (
	"time"
	"unicode/utf8"
)

// Identity is the read-only view of a user account this package consumes.
type Identity struct {
	ID           int64
	Email        string
	PasswordHash string
	RoleCode     string
	FirstName    string
	LastName     string
}

// RefreshToken is the persisted record of an opaque refresh token. Only the
// SHA-256 hex digest of the token is ever stored.
type RefreshToken struct {
	ID          int64      `db:"id"`
	TokenHash   string     `db:"token_hash"`
	OwnerID     int64      `db:"user_id"`
	ExpiresAt   time.Time  `db:"expires_at"`
	RevokedAt   *time.Time `db:"revoked_at"`
	CreatedByIP string     `db:"created_by_ip"`
	UserAgent   string     `db:"user_agent"`
	LastUsedAt  *time.Time `db:"last_used_at"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

func (t *RefreshToken) IsRevoked() bool {
	return t.RevokedAt != nil
}

// IsExpired reports whether expiresAt <= now.
func (t *RefreshToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

func (t *RefreshToken) IsLive(now time.Time) bool {
	return !t.IsRevoked() && !t.IsExpired(now)
}

// Revoke sets revokedAt once. An already revoked record keeps its original
// instant.
func (t *RefreshToken) Revoke(now time.Time) {
	if t.RevokedAt != nil {
		return
	}
	t.RevokedAt = &now
}

func (t *RefreshToken) Touch(now time.Time) {
	t.LastUsedAt = &now
}

// ClientMeta is provenance recorded on a refresh token at creation.
type ClientMeta struct {
	IPAddress string
	UserAgent string
}

const (
	maxIPLength        = 45
	maxUserAgentLength = 255
)

func (m ClientMeta) normalized() ClientMeta {
	return ClientMeta{
		IPAddress: truncate(m.IPAddress, maxIPLength),
		UserAgent: truncate(m.UserAgent, maxUserAgentLength),
	}
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
