package context

import (
	"context"
	"strings"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	actorIDKey
	actorRoleKey
	ipAddressKey
	userAgentKey
)

const ActorSystem = "system"

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return withString(ctx, requestIDKey, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	return stringFrom(ctx, requestIDKey)
}

// WithActor records the authenticated user performing the request.
func WithActor(ctx context.Context, userID, role string) context.Context {
	ctx = withString(ctx, actorIDKey, userID)
	return withString(ctx, actorRoleKey, role)
}

// ActorFromContext returns the acting user id and role, or the system actor.
func ActorFromContext(ctx context.Context) (string, string) {
	id := stringFrom(ctx, actorIDKey)
	if id == "" {
		return ActorSystem, ""
	}
	return id, stringFrom(ctx, actorRoleKey)
}

func WithIPAddress(ctx context.Context, ip string) context.Context {
	return withString(ctx, ipAddressKey, ip)
}

func IPAddressFromContext(ctx context.Context) string {
	return stringFrom(ctx, ipAddressKey)
}

func WithUserAgent(ctx context.Context, ua string) context.Context {
	return withString(ctx, userAgentKey, ua)
}

func UserAgentFromContext(ctx context.Context) string {
	return stringFrom(ctx, userAgentKey)
}

func withString(ctx context.Context, key ctxKey, value string) context.Context {
	value = strings.TrimSpace(value)
	if ctx == nil {
		ctx = context.Background()
	}
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func stringFrom(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(key).(string)
	return value
}
