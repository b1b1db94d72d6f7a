package tenants

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get and friends when no record exists for a
// tenant key. It is never returned for backend failures.
var ErrNotFound = errors.New("tenant not found")

// StorageError wraps a backend failure (connection refused, timeout, …).
// Callers distinguish it from ErrNotFound so a dead backend is reported as a
// server fault rather than an authentication failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("tenant store %s: %v", e.Op, e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }

// Store is the durable mapping from tenant key to installation record.
// Implementations must treat Put as a wholesale overwrite and Delete as
// idempotent; the backend provides last-write-wins for concurrent writers.
type Store interface {
	Put(ctx context.Context, rec Record) error
	Get(ctx context.Context, tenantKey string) (Record, error)
	Delete(ctx context.Context, tenantKey string) error
	// GetField projects a single string field without handing the whole
	// record to callers that only need one value.
	GetField(ctx context.Context, tenantKey, field string) (string, error)
	// SharedSecret is the projection the token verifier depends on.
	SharedSecret(ctx context.Context, tenantKey string) (string, error)
}

func fieldFromRecord(rec Record, field string) (string, error) {
	switch field {
	case FieldSharedSecret:
		return rec.SharedSecret, nil
	case FieldBaseURL:
		return rec.BaseURL, nil
	}
	if rec.Raw != nil {
		if v, ok := rec.Raw[field]; ok {
			if s, ok := v.(string); ok {
				return s, nil
			}
			return fmt.Sprintf("%v", v), nil
		}
	}
	return "", fmt.Errorf("unknown tenant field %q", field)
}
