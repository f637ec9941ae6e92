package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"fittrack/internal/domain"
)

// GetProfile returns the user's profile, or nil if none was saved.
func (d *DB) GetProfile(ctx context.Context, userID int64) (*domain.Profile, error) {
	var p domain.Profile
	err := d.sql.QueryRowContext(ctx,
		"SELECT user_id, username, avatar_url, created_at, updated_at FROM profiles WHERE user_id = $1;",
		userID,
	).Scan(&p.UserID, &p.Username, &p.AvatarURL, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpsertProfile creates or updates the user's profile. An empty avatar URL
// clears the stored one.
func (d *DB) UpsertProfile(ctx context.Context, userID int64, patch domain.ProfilePatch) (*domain.Profile, error) {
	setAvatar := patch.AvatarURL != nil
	var avatar *string
	if setAvatar && *patch.AvatarURL != "" {
		avatar = patch.AvatarURL
	}

	var p domain.Profile
	err := d.sql.QueryRowContext(ctx,
		`INSERT INTO profiles(user_id, username, avatar_url, created_at, updated_at) VALUES($1, $2, $3, $4, $4)
		ON CONFLICT (user_id) DO UPDATE SET
			username = COALESCE($2, profiles.username),
			avatar_url = CASE WHEN $5 THEN $3 ELSE profiles.avatar_url END,
			updated_at = $4
		RETURNING user_id, username, avatar_url, created_at, updated_at;`,
		userID, patch.Username, avatar, time.Now().UTC(), setAvatar,
	).Scan(&p.UserID, &p.Username, &p.AvatarURL, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
