// internal/auth/verifier.go
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"go.uber.org/zap"

	"github.com/kshehadeh/atlassian-addon-helper/pkg/tenants"
)

// Claims is the verified identity attached to one inbound request.
// Request-scoped only; never persisted.
type Claims struct {
	TenantKey   string
	UserKey     string // sub or context user account id, when present
	HostBaseURL string
	RawToken    string
}

// Verifier checks inbound signed tokens against the per-tenant shared
// secret held by the tenant store.
type Verifier struct {
	store    tenants.Store
	skew     time.Duration
	skipQSH  bool
	log      *zap.SugaredLogger
	warnOnce sync.Once
}

type Option func(*Verifier)

// WithClockSkew sets the acceptable skew applied to exp/nbf checks.
func WithClockSkew(d time.Duration) Option {
	return func(v *Verifier) { v.skew = d }
}

// WithoutQSHVerification disables the canonical-request hash check.
// Context tokens issued by some host surfaces carry a fixed qsh, so hosts
// may need this; it is a reduced-security mode and is logged as such.
func WithoutQSHVerification() Option {
	return func(v *Verifier) { v.skipQSH = true }
}

func NewVerifier(store tenants.Store, log *zap.SugaredLogger, opts ...Option) *Verifier {
	v := &Verifier{store: store, log: log, skew: 60 * time.Second}
	for _, o := range opts {
		o(v)
	}
	return v
}

// hmacAlgs is the only signature family a shared-secret scheme supports.
// Anything else in the header is treated as a forgery attempt.
var hmacAlgs = map[jwa.SignatureAlgorithm]struct{}{
	jwa.HS256: {},
	jwa.HS384: {},
	jwa.HS512: {},
}

// Verify validates rawToken against the request it arrived on and returns
// the verified claims, or a typed rejection. A missing tenant record fails
// closed; a dead store surfaces as a tenants.StorageError, not as an
// authentication failure.
func (v *Verifier) Verify(ctx context.Context, rawToken string, r *http.Request) (Claims, error) {
	if rawToken == "" {
		return Claims{}, ErrMalformedToken
	}

	// Step 1: unverified parse, just far enough to learn who claims to
	// be calling. Nothing from this token is trusted yet.
	unverified, err := jwt.ParseInsecure([]byte(rawToken))
	if err != nil {
		return Claims{}, ErrMalformedToken
	}
	tenantKey := unverified.Issuer()
	if tenantKey == "" {
		return Claims{}, ErrMalformedToken
	}

	// Step 2: shared secret lookup. Absent record -> fail closed.
	secret, err := v.store.SharedSecret(ctx, tenantKey)
	if err != nil {
		if errors.Is(err, tenants.ErrNotFound) {
			return Claims{}, ErrUnknownTenant
		}
		return Claims{}, err
	}

	// Step 3: re-verify the signature with the declared algorithm,
	// restricted to the HMAC family.
	msg, err := jws.Parse([]byte(rawToken))
	if err != nil || len(msg.Signatures()) == 0 {
		return Claims{}, ErrMalformedToken
	}
	alg := msg.Signatures()[0].ProtectedHeaders().Algorithm()
	if _, ok := hmacAlgs[alg]; !ok {
		return Claims{}, ErrInvalidSignature
	}
	tok, err := jwt.Parse([]byte(rawToken), jwt.WithKey(alg, []byte(secret)), jwt.WithValidate(false))
	if err != nil {
		return Claims{}, ErrInvalidSignature
	}

	// Step 4: canonical request hash, unless the host disabled it.
	if v.skipQSH {
		v.warnOnce.Do(func() {
			v.log.Warnw("qsh verification disabled — inbound requests are not bound to their URL")
		})
	} else {
		claimed, _ := tok.Get("qsh")
		claimedStr, _ := claimed.(string)
		expected := ComputeQSH(r)
		if subtle.ConstantTimeCompare([]byte(claimedStr), []byte(expected)) != 1 {
			return Claims{}, ErrQSHMismatch
		}
	}

	// Step 5: expiry with bounded skew.
	if err := jwt.Validate(tok, jwt.WithAcceptableSkew(v.skew)); err != nil {
		if errors.Is(err, jwt.ErrTokenExpired()) {
			return Claims{}, ErrExpiredToken
		}
		return Claims{}, ErrInvalidSignature
	}

	claims := Claims{TenantKey: tenantKey, UserKey: userKey(tok), RawToken: rawToken}
	if base, err := v.store.GetField(ctx, tenantKey, tenants.FieldBaseURL); err == nil {
		claims.HostBaseURL = base
	}
	return claims, nil
}

func userKey(tok jwt.Token) string {
	if sub := tok.Subject(); sub != "" {
		return sub
	}
	// Newer host products carry the user inside the context claim.
	if c, ok := tok.Get("context"); ok {
		if m, ok := c.(map[string]any); ok {
			if u, ok := m["user"].(map[string]any); ok {
				if id, ok := u["accountId"].(string); ok {
					return id
				}
			}
		}
	}
	return ""
}
