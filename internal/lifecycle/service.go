// internal/lifecycle/service.go
package lifecycle

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/kshehadeh/atlassian-addon-helper/pkg/tenants"
)

// ErrMalformedPayload marks a notification missing its required fields.
// The store is never touched when this is returned.
var ErrMalformedPayload = errors.New("malformed lifecycle payload")

// Service applies install/uninstall notifications to the tenant store.
// Two states per tenant: a record exists or it does not. Reinstall simply
// overwrites, so a rotated shared secret always wins.
type Service struct {
	store tenants.Store
	log   *zap.SugaredLogger
}

func NewService(store tenants.Store, log *zap.SugaredLogger) *Service {
	return &Service{store: store, log: log}
}

// Install validates and persists an install notification. The payload is
// stored verbatim beyond the required fields; the host product owns its
// schema.
func (s *Service) Install(ctx context.Context, payload map[string]any) error {
	key := stringField(payload, "clientKey", "tenantKey")
	secret := stringField(payload, "sharedSecret")
	if key == "" || secret == "" {
		return ErrMalformedPayload
	}
	rec := tenants.Record{
		Key:          key,
		SharedSecret: secret,
		BaseURL:      stringField(payload, "baseUrl"),
		Raw:          payload,
	}
	if err := s.store.Put(ctx, rec); err != nil {
		return err
	}
	s.log.Infow("tenant installed", "tenant", key, "baseUrl", rec.BaseURL)
	return nil
}

// Uninstall removes the tenant record. Deleting an unknown key succeeds:
// the host product retries uninstall notifications and must get a clean
// answer every time.
func (s *Service) Uninstall(ctx context.Context, payload map[string]any) error {
	key := stringField(payload, "clientKey", "tenantKey")
	if key == "" {
		return ErrMalformedPayload
	}
	if err := s.store.Delete(ctx, key); err != nil {
		return err
	}
	s.log.Infow("tenant uninstalled", "tenant", key)
	return nil
}

func stringField(payload map[string]any, names ...string) string {
	for _, n := range names {
		if v, ok := payload[n]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}
