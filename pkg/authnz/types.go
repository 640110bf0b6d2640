package authnz

import (
	"context"
	"fmt"

	"github.com/uswitch/graphbulk/pkg/middleware"
)

type contextKey string

const UserContextKey = contextKey("authnz-user")

type Authenticator interface {
	middleware.Middleware
}

// UserFromContext returns the user an Authenticator verified for the request.
func UserFromContext(ctx context.Context) (string, bool) {
	switch user := ctx.Value(UserContextKey).(type) {
	case string:
		return user, user != ""
	case nil:
		return "", false
	default:
		return fmt.Sprint(user), true
	}
}

func WithUser(ctx context.Context, user string) context.Context {
	return context.WithValue(ctx, UserContextKey, user)
}
