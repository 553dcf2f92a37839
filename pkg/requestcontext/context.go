// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Values are set once per request by the host adapter (HTTP middleware,
// CLI runner) and consumed by services. Keeping this package free of
// net/http lets the stream logger run under any event source.
//
// Usage in services (read values):
//
//	userID := requestcontext.UserID(ctx)
//	ip := requestcontext.ClientIP(ctx)
//
// Usage in middleware (set values):
//
//	ctx = requestcontext.WithUserID(ctx, userID)
//	ctx = requestcontext.WithClientIP(ctx, ip)
package requestcontext

import (
	"context"

	id "streamlog/pkg/domain"
)

// Context key types (unexported for encapsulation).
type (
	userIDKey    struct{}
	userInfoKey  struct{}
	clientIPKey  struct{}
	userAgentKey struct{}
	agentKey     struct{}
	requestIDKey struct{}
	siteIDKey    struct{}
	blogIDKey    struct{}
)

// UserInfo describes the acting user as resolved by the host adapter.
// The stream logger copies these fields into record author metadata.
type UserInfo struct {
	ID          id.UserID
	Login       string
	Email       string
	DisplayName string
	Roles       []string
	RoleLabel   string
}

// FirstRole returns the user's primary role, or empty when none.
func (u UserInfo) FirstRole() string {
	if len(u.Roles) == 0 {
		return ""
	}
	return u.Roles[0]
}

// UserID retrieves the acting user id from the context. Zero means
// unauthenticated.
func UserID(ctx context.Context) id.UserID {
	if userID, ok := ctx.Value(userIDKey{}).(id.UserID); ok {
		return userID
	}
	return 0
}

// WithUserID injects a user id into the context.
func WithUserID(ctx context.Context, userID id.UserID) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// User retrieves the resolved acting user, if the host adapter set one.
func User(ctx context.Context) (UserInfo, bool) {
	u, ok := ctx.Value(userInfoKey{}).(UserInfo)
	return u, ok
}

// WithUser injects the resolved acting user into the context.
func WithUser(ctx context.Context, user UserInfo) context.Context {
	ctx = context.WithValue(ctx, userInfoKey{}, user)
	return WithUserID(ctx, user.ID)
}

// ClientIP retrieves the validated client IP address, or empty.
func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(clientIPKey{}).(string); ok {
		return ip
	}
	return ""
}

// WithClientIP injects a client IP into the context.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// UserAgent retrieves the raw User-Agent string.
func UserAgent(ctx context.Context) string {
	if ua, ok := ctx.Value(userAgentKey{}).(string); ok {
		return ua
	}
	return ""
}

// WithUserAgent injects a User-Agent string into a context.
func WithUserAgent(ctx context.Context, ua string) context.Context {
	return context.WithValue(ctx, userAgentKey{}, ua)
}

// RequestID retrieves the correlation id for the current request.
func RequestID(ctx context.Context) string {
	if rid, ok := ctx.Value(requestIDKey{}).(string); ok {
		return rid
	}
	return ""
}

// WithRequestID injects a correlation id into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// SiteID retrieves the multi-site site id, defaulting to 1.
func SiteID(ctx context.Context) int64 {
	if siteID, ok := ctx.Value(siteIDKey{}).(int64); ok {
		return siteID
	}
	return 1
}

// WithSiteID injects a site id into the context.
func WithSiteID(ctx context.Context, siteID int64) context.Context {
	return context.WithValue(ctx, siteIDKey{}, siteID)
}

// BlogID retrieves the multi-site blog id, defaulting to 1.
func BlogID(ctx context.Context) int64 {
	if blogID, ok := ctx.Value(blogIDKey{}).(int64); ok {
		return blogID
	}
	return 1
}

// WithBlogID injects a blog id into the context.
func WithBlogID(ctx context.Context, blogID int64) context.Context {
	return context.WithValue(ctx, blogIDKey{}, blogID)
}
