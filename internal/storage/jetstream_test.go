package storage_test

import (
	"context"
	"os"
	"testing"
	"time"

	"marketplace-catalog/internal/storage"
	"marketplace-catalog/internal/testutil"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Requires a JetStream-enabled NATS server; NATS_URL overrides the default address.
func TestJetStreamStore_RoundTrip(t *testing.T) {
	url := os.Getenv("NATS_URL")
	if url == "" {
		url = nats.DefaultURL
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := storage.NewJetStreamStore(ctx, url, "test-images-"+uuid.NewString()[:8], "/uploads")
	if err != nil {
		t.Skipf("NATS JetStream not available at %s: %v", url, err)
	}
	defer store.Close()

	info, err := store.Put(ctx, "products/p1/front.png", testutil.PNG, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "products/p1/front.png", info.Key)
	assert.Equal(t, "/uploads/products/p1/front.png", store.URL(info.Key))

	data, got, err := store.Get(ctx, info.Key)
	require.NoError(t, err)
	assert.Equal(t, testutil.PNG, data)
	assert.Equal(t, "image/png", got.ContentType)

	_, err = store.Put(ctx, "products/p2/back.png", testutil.PNG, "image/png")
	require.NoError(t, err)

	objects, err := store.List(ctx, "products/p1/")
	require.NoError(t, err)
	require.Len(t, objects, 1)

	require.NoError(t, store.Delete(ctx, info.Key))
	_, _, err = store.Get(ctx, info.Key)
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)
}
