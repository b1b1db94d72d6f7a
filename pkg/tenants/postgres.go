// pkg/tenants/postgres.go
package tenants

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// pgStore implements Store backed by PostgreSQL. One jsonb row per tenant,
// namespaced by add-on key so several add-ons can share the table.
type pgStore struct {
	dbPool    *pgxpool.Pool
	namespace string
	log       *zap.SugaredLogger
}

// NewPostgresStore constructs a PostgreSQL-backed tenant store.
func NewPostgresStore(dbPool *pgxpool.Pool, namespace string, log *zap.SugaredLogger) Store {
	return &pgStore{dbPool: dbPool, namespace: namespace, log: log}
}

// EnsureSchema creates the tenants table if it does not already exist.
// Safe to call repeatedly (idempotent).
func EnsureSchema(ctx context.Context, dbPool *pgxpool.Pool) error {
	_, err := dbPool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS addon_tenants (
  addon_key text NOT NULL,
  tenant_key text NOT NULL,
  shared_secret text NOT NULL,
  base_url text,
  raw jsonb DEFAULT '{}'::jsonb,
  updated_at timestamptz NOT NULL DEFAULT NOW(),
  PRIMARY KEY (addon_key, tenant_key)
);
`)
	return err
}

func (s *pgStore) Put(ctx context.Context, rec Record) error {
	raw, err := json.Marshal(rec.Raw)
	if err != nil {
		return &StorageError{Op: "put", Err: err}
	}
	_, err = s.dbPool.Exec(ctx, `
INSERT INTO addon_tenants(addon_key, tenant_key, shared_secret, base_url, raw, updated_at)
VALUES ($1,$2,$3,$4,$5,NOW())
ON CONFLICT (addon_key, tenant_key)
DO UPDATE SET shared_secret=EXCLUDED.shared_secret, base_url=EXCLUDED.base_url, raw=EXCLUDED.raw, updated_at=NOW()`,
		s.namespace, rec.Key, rec.SharedSecret, rec.BaseURL, raw)
	if err != nil {
		return &StorageError{Op: "put", Err: err}
	}
	return nil
}

func (s *pgStore) Get(ctx context.Context, tenantKey string) (Record, error) {
	var rec Record
	var raw []byte
	err := s.dbPool.QueryRow(ctx,
		`SELECT tenant_key, shared_secret, COALESCE(base_url,''), raw FROM addon_tenants WHERE addon_key=$1 AND tenant_key=$2`,
		s.namespace, tenantKey).Scan(&rec.Key, &rec.SharedSecret, &rec.BaseURL, &raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, &StorageError{Op: "get", Err: err}
	}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &rec.Raw)
	}
	return rec, nil
}

func (s *pgStore) Delete(ctx context.Context, tenantKey string) error {
	_, err := s.dbPool.Exec(ctx,
		`DELETE FROM addon_tenants WHERE addon_key=$1 AND tenant_key=$2`, s.namespace, tenantKey)
	if err != nil {
		return &StorageError{Op: "delete", Err: err}
	}
	return nil
}

func (s *pgStore) GetField(ctx context.Context, tenantKey, field string) (string, error) {
	rec, err := s.Get(ctx, tenantKey)
	if err != nil {
		return "", err
	}
	return fieldFromRecord(rec, field)
}

func (s *pgStore) SharedSecret(ctx context.Context, tenantKey string) (string, error) {
	var secret string
	err := s.dbPool.QueryRow(ctx,
		`SELECT shared_secret FROM addon_tenants WHERE addon_key=$1 AND tenant_key=$2`,
		s.namespace, tenantKey).Scan(&secret)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", &StorageError{Op: "sharedSecret", Err: err}
	}
	return secret, nil
}
