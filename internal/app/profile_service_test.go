package app

import (
	"context"
	"errors"
	"testing"

	"fittrack/internal/domain"
)

type mockProfileRepo struct {
	getFn    func(ctx context.Context, userID int64) (*domain.Profile, error)
	upsertFn func(ctx context.Context, userID int64, patch domain.ProfilePatch) (*domain.Profile, error)
}

func (m *mockProfileRepo) GetProfile(ctx context.Context, userID int64) (*domain.Profile, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockProfileRepo) UpsertProfile(ctx context.Context, userID int64, patch domain.ProfilePatch) (*domain.Profile, error) {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, userID, patch)
	}
	return &domain.Profile{UserID: userID, Username: patch.Username, AvatarURL: patch.AvatarURL}, nil
}

func strp(s string) *string { return &s }

func TestProfileService_GetEmpty(t *testing.T) {
	p, err := NewProfileService(&mockProfileRepo{}).Get(context.Background(), 4)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if p.UserID != 4 || p.Username != nil {
		t.Errorf("expected empty profile for user 4, got %+v", p)
	}
}

func TestProfileService_GetError(t *testing.T) {
	repo := &mockProfileRepo{
		getFn: func(ctx context.Context, userID int64) (*domain.Profile, error) {
			return nil, errors.New("db down")
		},
	}
	_, err := NewProfileService(repo).Get(context.Background(), 1)
	var terr *domain.TransportError
	if !errors.As(err, &terr) {
		t.Errorf("expected TransportError, got %v", err)
	}
}

func TestProfileService_Update(t *testing.T) {
	svc := NewProfileService(&mockProfileRepo{})
	ctx := context.Background()

	p, err := svc.Update(ctx, 1, domain.ProfilePatch{Username: strp("  Sam  ")})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if *p.Username != "Sam" {
		t.Errorf("expected trimmed username, got %q", *p.Username)
	}

	if _, err := svc.Update(ctx, 1, domain.ProfilePatch{AvatarURL: strp("")}); err != nil {
		t.Errorf("clearing the avatar should be allowed, got %v", err)
	}

	tests := []struct {
		name  string
		patch domain.ProfilePatch
		field string
	}{
		{"empty patch", domain.ProfilePatch{}, "profile"},
		{"blank username", domain.ProfilePatch{Username: strp("   ")}, "username"},
		{"relative avatar", domain.ProfilePatch{AvatarURL: strp("/img/me.png")}, "avatarUrl"},
		{"ftp avatar", domain.ProfilePatch{AvatarURL: strp("ftp://example.com/me.png")}, "avatarUrl"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Update(ctx, 1, tc.patch)
			var verr *domain.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tc.field {
				t.Errorf("field = %q, want %q", verr.Field, tc.field)
			}
		})
	}
}
