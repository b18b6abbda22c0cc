package httpx

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/classrecord/pkg/cryptox"
	"github.com/aussiebroadwan/classrecord/pkg/jwtx"
	"github.com/aussiebroadwan/classrecord/pkg/slogx"
)

// Header names carrying the application credentials.
const (
	HeaderAPIKey    = "API_KEY"
	HeaderSecretKey = "SECRET_KEY"
)

// RequireAPIKeys rejects requests whose API_KEY/SECRET_KEY headers do not
// match with 401.
func RequireAPIKeys(apiKey, secretKey string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			okKey := cryptox.Equal(r.Header.Get(HeaderAPIKey), apiKey)
			okSecret := cryptox.Equal(r.Header.Get(HeaderSecretKey), secretKey)
			if !okKey || !okSecret {
				slogx.FromContext(r.Context()).Warn("api key mismatch")
				WriteMessage(w, http.StatusUnauthorized, "Invalid API credentials")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Authn verifies the bearer token and stores its claims in the request
// context. Missing, invalid and expired tokens all answer 403, the status
// clients treat as "refresh and retry".
func Authn(v jwtx.Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			authz := r.Header.Get("Authorization")
			if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
				WriteMessage(w, http.StatusForbidden, "Missing bearer token")
				return
			}
			raw := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))

			claims, err := v.Verify(raw)
			switch {
			case errors.Is(err, jwtx.ErrExpired):
				WriteMessage(w, http.StatusForbidden, "Token expired")
				return
			case err != nil:
				log.Warn("jwt verify failed", "err", err)
				WriteMessage(w, http.StatusForbidden, "Invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(contextWithClaims(ctx, claims)))
		})
	}
}
