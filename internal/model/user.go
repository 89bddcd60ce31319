package model

import "time"

// Role names granted by the league server.
const (
	RoleUser         = "ROLE_USER"
	RoleCommissioner = "ROLE_COMMISSIONER"
)

// User is the authenticated identity returned by the auth endpoints.
type User struct {
	// ID is the server-side identifier for this account.
	ID int64 `json:"id"`

	// Username is the login name.
	Username string `json:"username"`

	// Email is the account's contact address.
	Email string `json:"email"`

	// Roles lists the privilege roles granted to this account.
	Roles []string `json:"roles"`
}

// HasRole reports whether the user holds the given role.
func (u User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsCommissioner reports whether the user may approve or reject
// achievement requests.
func (u User) IsCommissioner() bool {
	return u.HasRole(RoleCommissioner)
}

// Session is the persisted login state for the dashboard.
type Session struct {
	// Token is the opaque bearer token issued by the server.
	Token string `json:"-"`

	// User is the authenticated identity.
	User User `json:"user"`

	// IssuedAt is when the token was issued.
	IssuedAt time.Time `json:"issued_at"`

	// ExpiresAt is when the token stops being valid. Zero means the
	// server did not report an expiry.
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session's token has passed its expiry.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}
