package ctxkeys

import (
	"context"
	"time"

	"github.com/templui/goalkeeper/internal/config"
	"github.com/templui/goalkeeper/internal/model"
)

// contextKey is a type for context keys to avoid collisions
type contextKey string

const (
	UserKey     contextKey = "user"
	SignedInKey contextKey = "signed_in_at"
	ConfigKey   contextKey = "config"
	RequestKey  contextKey = "request_id"
)

func User(ctx context.Context) *model.User {
	user, _ := ctx.Value(UserKey).(*model.User)
	return user
}

func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

// SignedInAt is when the current session token was issued.
func SignedInAt(ctx context.Context) time.Time {
	at, _ := ctx.Value(SignedInKey).(time.Time)
	return at
}

func WithSignedInAt(ctx context.Context, at time.Time) context.Context {
	return context.WithValue(ctx, SignedInKey, at)
}

func Config(ctx context.Context) *config.Config {
	cfg, _ := ctx.Value(ConfigKey).(*config.Config)
	return cfg
}

func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, ConfigKey, cfg)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestKey).(string)
	return id
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestKey, id)
}
