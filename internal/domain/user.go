package domain

import "time"

// User is the single persisted entity. SessionToken holds the one currently
// valid bearer token for the account; a nil value means no active session.
type User struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Email             string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash      string    `gorm:"size:255;not null" json:"-"`
	AvatarURL         string    `gorm:"size:512" json:"avatar_url"`
	Subscription      string    `gorm:"size:32;not null;default:starter" json:"subscription"`
	SessionToken      *string   `gorm:"size:1024" json:"-"`
	VerificationToken string    `gorm:"size:64;index" json:"-"`
	Verified          bool      `gorm:"not null;default:false" json:"verified"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// UserSummary is the subset of user fields safe to return to clients.
type UserSummary struct {
	Email        string `json:"email"`
	Subscription string `json:"subscription"`
	AvatarURL    string `json:"avatar_url,omitempty"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{
		Email:        u.Email,
		Subscription: u.Subscription,
		AvatarURL:    u.AvatarURL,
	}
}
