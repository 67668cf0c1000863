package profile

import (
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("profile not found")
	ErrAlreadyExists = errors.New("profile already exists")
)

type Profile struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	FullName     string    `json:"full_name"`
	AvatarURL    string    `json:"avatar_url"`
	Bio          string    `json:"bio"`
	IsVerified   bool      `json:"is_verified"`
	IsLocalGuide bool      `json:"is_local_guide"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewProfile is the data a profile is provisioned with on first sign-in.
type NewProfile struct {
	Username  string `json:"username"`
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url"`
}

// Update carries the fields a user may edit; nil leaves a field unchanged.
type Update struct {
	Username  *string `json:"username,omitempty"`
	FullName  *string `json:"full_name,omitempty"`
	Bio       *string `json:"bio,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

func (u Update) Empty() bool {
	return u.Username == nil && u.FullName == nil && u.Bio == nil && u.AvatarURL == nil
}

// Apply returns p with u's fields applied.
func (u Update) Apply(p Profile) Profile {
	if u.Username != nil {
		p.Username = *u.Username
	}
	if u.FullName != nil {
		p.FullName = *u.FullName
	}
	if u.Bio != nil {
		p.Bio = *u.Bio
	}
	if u.AvatarURL != nil {
		p.AvatarURL = *u.AvatarURL
	}
	return p
}
