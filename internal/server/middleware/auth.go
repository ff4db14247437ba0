package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/brandkit/brandkit/internal/model"
	"github.com/brandkit/brandkit/internal/service"
)

type contextKeyAuth string

// AuthIdentityKey is the context key for the authenticated identity.
const AuthIdentityKey contextKeyAuth = "auth_identity"

// Authenticate returns an HTTP middleware that validates the request's
// bearer credential: a brand-scoped API key or a session token, both via
// the Authorization header. On success the identity is attached to the
// request context; on failure a taxonomy error envelope is returned.
func Authenticate(auth *service.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)

			identity, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				writeAuthError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), AuthIdentityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSession returns an HTTP middleware that restricts a route to
// session identities (logged-in owners). Brand-scoped keys cannot manage
// keys or brands. Must run after Authenticate.
func RequireSession() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := GetIdentity(r.Context())
			if identity == nil || identity.Permissions != nil {
				writeAuthError(w, model.ErrInsufficientPermissions.WithMessage(
					"this endpoint requires an owner session, not an API key"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetIdentity extracts the authenticated identity from the context.
// Returns nil if no identity is present.
func GetIdentity(ctx context.Context) *service.Identity {
	if id, ok := ctx.Value(AuthIdentityKey).(*service.Identity); ok {
		return id
	}
	return nil
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	// X-API-Key is accepted as a convenience for tooling that cannot set
	// an Authorization header.
	return r.Header.Get("X-API-Key")
}

func writeAuthError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		apiErr = model.ErrInternal
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.HTTPStatus())
	json.NewEncoder(w).Encode(model.NewErrorResponse(apiErr))
}
