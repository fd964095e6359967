package models

import (
	"time"

	"github.com/google/uuid"
)

// Role represents user role in the platform.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// UserSettings controls what parts of a profile other users can see.
type UserSettings struct {
	Visible    bool `json:"visible"`
	ShowAvatar bool `json:"show_avatar"`
	ShowOrgs   bool `json:"show_orgs"`
	ShowEmail  bool `json:"show_email"`
}

// DefaultUserSettings are applied on registration/first login.
func DefaultUserSettings() UserSettings {
	return UserSettings{Visible: true, ShowAvatar: true, ShowOrgs: true, ShowEmail: false}
}

// User represents a platform user.
type User struct {
	ID         uuid.UUID    `json:"id"`
	ProviderID string       `json:"provider_id"`
	Email      string       `json:"email"`
	Password   string       `json:"-"`
	Name       string       `json:"name"`
	AvatarURL  string       `json:"avatar_url,omitempty"`
	Role       Role         `json:"role"`
	Settings   UserSettings `json:"settings"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// UserPublic is User filtered through its visibility settings for API responses.
type UserPublic struct {
	ID            uuid.UUID   `json:"id"`
	Name          string      `json:"name"`
	Email         string      `json:"email,omitempty"`
	AvatarURL     string      `json:"avatar_url,omitempty"`
	Organizations []uuid.UUID `json:"organizations,omitempty"`
}

// ToPublic converts User to UserPublic, honoring the user's visibility
// settings. The orgs argument is included only when the user opted in.
func (u *User) ToPublic(orgs []uuid.UUID) UserPublic {
	p := UserPublic{ID: u.ID, Name: u.Name}
	if u.Settings.ShowEmail {
		p.Email = u.Email
	}
	if u.Settings.ShowAvatar {
		p.AvatarURL = u.AvatarURL
	}
	if u.Settings.ShowOrgs {
		p.Organizations = orgs
	}
	return p
}
