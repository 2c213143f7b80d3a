package middleware

import (
	"context"
	"net/http"

	"fleetconsole/backend/services/telemetry-service/internal/auth"
)

// KeyValidator checks device API keys.
type KeyValidator interface {
	Validate(ctx context.Context, apiKey string) (auth.Principal, bool)
}

// APIKey rejects requests without a valid X-API-Key header.
func APIKey(validator KeyValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey := r.Header.Get("X-API-Key")
			if apiKey == "" {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"missing X-API-Key header"}`))
				return
			}

			principal, ok := validator.Validate(r.Context(), apiKey)
			if !ok {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"invalid API key"}`))
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
		})
	}
}
