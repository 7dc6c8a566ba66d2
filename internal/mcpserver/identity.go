package mcpserver

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielolaszy/atlas/internal/auth"
)

// BearerIdentity names HTTP callers who send a token but no identity header.
const BearerIdentity = "bearer"

type identityKey struct{}

// WithIdentity returns a context naming the caller on whose behalf tools run.
func WithIdentity(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFrom returns the caller identity stored in ctx, or "".
func IdentityFrom(ctx context.Context) string {
	identity, _ := ctx.Value(identityKey{}).(string)
	return identity
}

// StaticIdentity binds every request to one identity. Used for stdio, where
// the process itself is the caller.
func StaticIdentity(identity string) func(context.Context) context.Context {
	return func(ctx context.Context) context.Context {
		return WithIdentity(ctx, identity)
	}
}

// bearerToken returns the token of an "Authorization: Bearer" header, or "".
func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// RequestCredentials binds an HTTP request to the Atlassian token it carries.
// The identity header only labels the caller. A request without a bearer
// token gets no identity, so every tool call on it is refused.
func RequestCredentials(header string) func(context.Context, *http.Request) context.Context {
	return func(ctx context.Context, r *http.Request) context.Context {
		token := bearerToken(r)
		if token == "" {
			return ctx
		}

		identity := strings.TrimSpace(r.Header.Get(header))
		if identity == "" {
			identity = BearerIdentity
		}
		return WithIdentity(auth.WithToken(ctx, token), identity)
	}
}

// RequireBearer rejects requests that carry no bearer token.
func RequireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if bearerToken(r) == "" {
			w.Header().Set("WWW-Authenticate", `Bearer realm="atlas"`)
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
