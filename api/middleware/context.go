package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/bizledger-backend/internal/access"
)

type contextKey string

const (
	ctxSession    contextKey = "session"
	ctxMembership contextKey = "membership"
)

// SessionFromContext returns the authenticated session, or nil for anonymous requests.
func SessionFromContext(ctx context.Context) *access.Session {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxSession).(*access.Session); ok {
		return v
	}
	return nil
}

func UserIDFromContext(ctx context.Context) uuid.UUID {
	if s := SessionFromContext(ctx); s != nil {
		return s.UserID
	}
	return uuid.Nil
}

// MembershipFromContext returns the membership the access gate authorized.
func MembershipFromContext(ctx context.Context) (access.Membership, bool) {
	if ctx == nil {
		return access.Membership{}, false
	}
	m, ok := ctx.Value(ctxMembership).(access.Membership)
	return m, ok
}

func WithSession(ctx context.Context, session *access.Session) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSession, session)
}

func WithMembership(ctx context.Context, m access.Membership) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxMembership, m)
}
