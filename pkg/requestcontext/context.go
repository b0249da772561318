// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Middleware sets the authenticated member identity, request id, and request
// time; services consume them without importing net/http. Tests inject fixed
// values directly:
//
//	ctx = requestcontext.WithMemberID(ctx, member)
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"

	id "commune/pkg/domain"
)

type (
	memberIDKey    struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Exported context keys for tests that need context.WithValue directly.
var (
	ContextKeyMemberID    = memberIDKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// MemberID retrieves the authenticated member identity from the context.
// Returns the zero value (nil UUID) if not set.
func MemberID(ctx context.Context) id.MemberID {
	if member, ok := ctx.Value(ContextKeyMemberID).(id.MemberID); ok {
		return member
	}
	return id.MemberID{}
}

// WithMemberID injects a member identity into the context.
func WithMemberID(ctx context.Context, member id.MemberID) context.Context {
	return context.WithValue(ctx, ContextKeyMemberID, member)
}

// RequestID retrieves the request correlation id from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request correlation id into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now retrieves the request-scoped time from context. Every comparison inside
// one operation (proposal expiry, createdAt stamps) observes the same instant.
// Falls back to time.Now() for non-HTTP contexts like workers and tests that
// did not inject a time.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context. Tests use this to drive
// proposal expiry without sleeping.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
