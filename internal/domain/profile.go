package domain

import (
	"context"
	"time"
)

// Profile holds the user's public display settings.
type Profile struct {
	UserID    int64     `json:"userId"`
	Username  *string   `json:"username"`
	AvatarURL *string   `json:"avatarUrl"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ProfilePatch updates a profile. Nil fields are left untouched.
type ProfilePatch struct {
	Username  *string `json:"username,omitempty"`
	AvatarURL *string `json:"avatarUrl,omitempty"`
}

// ProfileRepository is the port for profile persistence. GetProfile returns
// nil when the user has no profile row yet.
type ProfileRepository interface {
	GetProfile(ctx context.Context, userID int64) (*Profile, error)
	UpsertProfile(ctx context.Context, userID int64, patch ProfilePatch) (*Profile, error)
}
