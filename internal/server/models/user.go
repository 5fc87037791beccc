package models

import "time"

type User struct {
	ID           string    `json:"id"`
	UserName     string    `json:"username"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserPreferences holds per-user display settings. Empty fields are unset.
type UserPreferences struct {
	UserID       string    `json:"user_id"`
	FontSize     string    `json:"font_size"`
	ContrastMode string    `json:"contrast_mode"`
	UpdatedAt    time.Time `json:"updated_at"`
}
