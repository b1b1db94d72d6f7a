// pkg/middleware/auth.go
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/kshehadeh/atlassian-addon-helper/internal/auth"
	"github.com/kshehadeh/atlassian-addon-helper/internal/metrics"
)

type ctxClaimsKey struct{}

// WebhookAuth requires a valid per-tenant signed token on every request it
// wraps. The token is taken from the Authorization header ("JWT <tok>" or
// "Bearer <tok>") or, failing that, the jwt query parameter — the host
// products use both. Verified claims are placed in the request context.
func WebhookAuth(v *auth.Verifier, log *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := tokenFromRequest(r)
			if raw == "" {
				metrics.AuthRejectionsTotal.WithLabelValues("missing token").Inc()
				unauthorized(w, "missing token")
				return
			}
			claims, err := v.Verify(r.Context(), raw, r)
			if err != nil {
				if auth.IsAuthFailure(err) {
					metrics.AuthRejectionsTotal.WithLabelValues(err.Error()).Inc()
					log.Infow("webhook auth rejected", "path", r.URL.Path, "reason", err.Error())
					unauthorized(w, err.Error())
					return
				}
				// Store failure: a dead backend must not read as 401.
				log.Errorw("webhook auth store failure", "path", r.URL.Path, "err", err)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadGateway)
				_ = json.NewEncoder(w).Encode(map[string]any{"code": 502, "msg": "tenant store unavailable"})
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	authz := strings.TrimSpace(r.Header.Get("Authorization"))
	lower := strings.ToLower(authz)
	switch {
	case strings.HasPrefix(lower, "jwt "):
		return strings.TrimSpace(authz[4:])
	case strings.HasPrefix(lower, "bearer "):
		return strings.TrimSpace(authz[7:])
	}
	return r.URL.Query().Get("jwt")
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{"code": 401, "msg": msg})
}

func WithClaims(ctx context.Context, c auth.Claims) context.Context {
	return context.WithValue(ctx, ctxClaimsKey{}, c)
}

// ClaimsFrom returns the verified claims for the request, if any. The zero
// Claims means the request never passed WebhookAuth.
func ClaimsFrom(ctx context.Context) auth.Claims {
	if v := ctx.Value(ctxClaimsKey{}); v != nil {
		if c, ok := v.(auth.Claims); ok {
			return c
		}
	}
	return auth.Claims{}
}
