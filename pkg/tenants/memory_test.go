package tenants

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore() Store {
	return NewMemoryStore(zap.NewNop().Sugar())
}

func TestMemoryStore_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()

	rec := Record{
		Key:          "T1",
		SharedSecret: "S1",
		BaseURL:      "https://acme.example.net",
		Raw:          map[string]any{"clientKey": "T1", "productType": "jira"},
	}
	require.NoError(t, store.Put(ctx, rec))

	got, err := store.Get(ctx, "T1")
	require.NoError(t, err)
	assert.Equal(t, "S1", got.SharedSecret)
	assert.Equal(t, "https://acme.example.net", got.BaseURL)
	assert.Equal(t, "jira", got.Raw["productType"])

	require.NoError(t, store.Delete(ctx, "T1"))
	_, err = store.Get(ctx, "T1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_GetMissing(t *testing.T) {
	store := newTestStore()
	_, err := store.Get(context.Background(), "never-installed")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_DeleteIsIdempotent(t *testing.T) {
	store := newTestStore()
	assert.NoError(t, store.Delete(context.Background(), "never-installed"))
	assert.NoError(t, store.Delete(context.Background(), "never-installed"))
}

func TestMemoryStore_PutOverwritesWholesale(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()

	require.NoError(t, store.Put(ctx, Record{Key: "T1", SharedSecret: "old", BaseURL: "https://a", Raw: map[string]any{"extra": "x"}}))
	require.NoError(t, store.Put(ctx, Record{Key: "T1", SharedSecret: "new"}))

	got, err := store.Get(ctx, "T1")
	require.NoError(t, err)
	assert.Equal(t, "new", got.SharedSecret)
	assert.Empty(t, got.BaseURL)
	assert.Nil(t, got.Raw)
}

func TestMemoryStore_FieldProjections(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()
	require.NoError(t, store.Put(ctx, Record{Key: "T1", SharedSecret: "S1", BaseURL: "https://a", Raw: map[string]any{"serverVersion": "100"}}))

	secret, err := store.SharedSecret(ctx, "T1")
	require.NoError(t, err)
	assert.Equal(t, "S1", secret)

	base, err := store.GetField(ctx, "T1", FieldBaseURL)
	require.NoError(t, err)
	assert.Equal(t, "https://a", base)

	ver, err := store.GetField(ctx, "T1", "serverVersion")
	require.NoError(t, err)
	assert.Equal(t, "100", ver)

	_, err = store.GetField(ctx, "T1", "nope")
	assert.Error(t, err)

	_, err = store.SharedSecret(ctx, "T2")
	assert.ErrorIs(t, err, ErrNotFound)
}
