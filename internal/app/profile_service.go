package app

import (
	"context"
	"net/url"
	"strings"

	"fittrack/internal/domain"
)

// ProfileService encapsulates profile use cases.
type ProfileService struct {
	repo domain.ProfileRepository
}

// NewProfileService creates a ProfileService backed by the given repository.
func NewProfileService(repo domain.ProfileRepository) *ProfileService {
	return &ProfileService{repo: repo}
}

// Get returns the user's profile, or an empty one if none was saved yet.
func (s *ProfileService) Get(ctx context.Context, userID int64) (*domain.Profile, error) {
	p, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, &domain.TransportError{Op: "get profile", Err: err}
	}
	if p == nil {
		return &domain.Profile{UserID: userID}, nil
	}
	return p, nil
}

// Update validates and stores a profile patch.
func (s *ProfileService) Update(ctx context.Context, userID int64, patch domain.ProfilePatch) (*domain.Profile, error) {
	if patch.Username == nil && patch.AvatarURL == nil {
		return nil, &domain.ValidationError{Field: "profile", Reason: "no fields to update"}
	}
	if patch.Username != nil {
		name := strings.TrimSpace(*patch.Username)
		if name == "" || len(name) > 64 {
			return nil, &domain.ValidationError{Field: "username", Reason: "must be 1-64 characters"}
		}
		patch.Username = &name
	}
	if patch.AvatarURL != nil && *patch.AvatarURL != "" {
		u, err := url.Parse(*patch.AvatarURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, &domain.ValidationError{Field: "avatarUrl", Reason: "must be an absolute http(s) URL"}
		}
	}

	p, err := s.repo.UpsertProfile(ctx, userID, patch)
	if err != nil {
		return nil, &domain.TransportError{Op: "update profile", Err: err}
	}
	return p, nil
}
