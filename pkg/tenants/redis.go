// pkg/tenants/redis.go
package tenants

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type redisStore struct {
	rdb       *redis.Client
	namespace string // add-on key; several add-ons may share one redis
	log       *zap.SugaredLogger
}

// NewRedisStore persists one JSON record per tenant key under
// "<namespace>:tenant:<key>". Records have no TTL; uninstall deletes them.
func NewRedisStore(rdb *redis.Client, namespace string, log *zap.SugaredLogger) Store {
	return &redisStore{rdb: rdb, namespace: namespace, log: log}
}

type persistedRecord struct {
	Key          string         `json:"key"`
	SharedSecret string         `json:"sharedSecret"`
	BaseURL      string         `json:"baseUrl,omitempty"`
	Raw          map[string]any `json:"raw,omitempty"`
}

func (s *redisStore) key(tenantKey string) string {
	return s.namespace + ":tenant:" + tenantKey
}

func (s *redisStore) Put(ctx context.Context, rec Record) error {
	b, err := json.Marshal(persistedRecord{Key: rec.Key, SharedSecret: rec.SharedSecret, BaseURL: rec.BaseURL, Raw: rec.Raw})
	if err != nil {
		return &StorageError{Op: "put", Err: err}
	}
	if err := s.rdb.Set(ctx, s.key(rec.Key), b, 0).Err(); err != nil {
		return &StorageError{Op: "put", Err: err}
	}
	return nil
}

func (s *redisStore) Get(ctx context.Context, tenantKey string) (Record, error) {
	b, err := s.rdb.Get(ctx, s.key(tenantKey)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, &StorageError{Op: "get", Err: err}
	}
	var p persistedRecord
	if err := json.Unmarshal(b, &p); err != nil {
		return Record{}, &StorageError{Op: "get", Err: err}
	}
	return Record{Key: p.Key, SharedSecret: p.SharedSecret, BaseURL: p.BaseURL, Raw: p.Raw}, nil
}

func (s *redisStore) Delete(ctx context.Context, tenantKey string) error {
	// DEL of an absent key is a no-op, which is exactly the contract.
	if err := s.rdb.Del(ctx, s.key(tenantKey)).Err(); err != nil {
		return &StorageError{Op: "delete", Err: err}
	}
	return nil
}

func (s *redisStore) GetField(ctx context.Context, tenantKey, field string) (string, error) {
	rec, err := s.Get(ctx, tenantKey)
	if err != nil {
		return "", err
	}
	return fieldFromRecord(rec, field)
}

func (s *redisStore) SharedSecret(ctx context.Context, tenantKey string) (string, error) {
	return s.GetField(ctx, tenantKey, FieldSharedSecret)
}
