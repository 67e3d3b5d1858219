package core

import (
	"strings"
	"time"
)

type (
	// Profile is the user metadata editable from the profile page.
	Profile struct {
		Name      string `json:"name"`
		AvatarURL string `json:"avatar_url"`
	}

	User struct {
		ID           string    `json:"id"`
		Email        string    `json:"email"`
		PasswordHash string    `json:"-"`
		Provider     string    `json:"provider"` // "password" or an OAuth provider name
		Profile      Profile   `json:"profile"`
		CreatedAt    time.Time `json:"created_at"`
	}
)

// DisplayName falls back to the local part of the email when no name is set.
func (u User) DisplayName() string {
	if n := strings.TrimSpace(u.Profile.Name); n != "" {
		return n
	}
	if at := strings.IndexByte(u.Email, '@'); at > 0 {
		return u.Email[:at]
	}
	return u.Email
}

// NormalizeEmail is the key users are looked up by.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
