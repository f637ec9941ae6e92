package app

import (
	"context"

	"fittrack/internal/domain"
)

type contextKey string

const userContextKey contextKey = "user"

// WithUser returns a context carrying the signed-in user.
func WithUser(ctx context.Context, u *domain.User) context.Context {
	return context.WithValue(ctx, userContextKey, u)
}

// UserFromContext returns the user stored by WithUser, or nil.
func UserFromContext(ctx context.Context) *domain.User {
	u, _ := ctx.Value(userContextKey).(*domain.User)
	return u
}

// ContextAuth is the AuthProvider backed by the request context.
type ContextAuth struct{}

// CurrentUser implements domain.AuthProvider.
func (ContextAuth) CurrentUser(ctx context.Context) *domain.User {
	return UserFromContext(ctx)
}
