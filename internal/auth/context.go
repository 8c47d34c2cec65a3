package auth

import (
	"context"

	"github.com/example/cartdash/internal/session"
)

type contextKey string

const contextKeyIdentity contextKey = "identity"

func WithIdentity(ctx context.Context, id *session.Identity) context.Context {
	return context.WithValue(ctx, contextKeyIdentity, id)
}

func IdentityFromContext(ctx context.Context) (*session.Identity, bool) {
	id, ok := ctx.Value(contextKeyIdentity).(*session.Identity)
	return id, ok && id.Authenticated()
}
