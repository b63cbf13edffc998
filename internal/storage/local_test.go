package storage_test

import (
	"context"
	"testing"

	"marketplace-catalog/internal/storage"
	"marketplace-catalog/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewLocalStore(t.TempDir(), "")
	require.NoError(t, err)

	info, err := store.Put(ctx, "products/p1/front.png", testutil.PNG, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "products/p1/front.png", info.Key)
	assert.Equal(t, uint64(len(testutil.PNG)), info.Size)
	assert.Equal(t, "/products/p1/front.png", store.URL(info.Key))

	data, got, err := store.Get(ctx, info.Key)
	require.NoError(t, err)
	assert.Equal(t, testutil.PNG, data)
	assert.Equal(t, "image/png", got.ContentType)

	require.NoError(t, store.Delete(ctx, info.Key))
	_, _, err = store.Get(ctx, info.Key)
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)

	assert.NoError(t, store.Delete(ctx, info.Key), "deleting a missing object is not an error")
}

func TestLocalStore_ListByPrefix(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewLocalStore(t.TempDir(), "https://cdn.example.com/")
	require.NoError(t, err)

	for _, key := range []string{
		"products/p1/a.png",
		"products/p1/variants/v1/b.png",
		"products/p2/c.png",
	} {
		_, err := store.Put(ctx, key, testutil.PNG, "image/png")
		require.NoError(t, err)
	}

	objects, err := store.List(ctx, "products/p1/")
	require.NoError(t, err)
	keys := make([]string, 0, len(objects))
	for _, o := range objects {
		keys = append(keys, o.Key)
	}
	assert.ElementsMatch(t, []string{"products/p1/a.png", "products/p1/variants/v1/b.png"}, keys)

	empty, err := store.List(ctx, "products/p9/")
	require.NoError(t, err)
	assert.Empty(t, empty)

	assert.Equal(t, "https://cdn.example.com/products/p2/c.png", store.URL("products/p2/c.png"))
}

func TestLocalStore_RejectsEscapingKeys(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewLocalStore(t.TempDir(), "")
	require.NoError(t, err)

	for _, key := range []string{"", "/etc/passwd", "../outside.png", "products/../../outside.png", `products\evil.png`} {
		_, err := store.Put(ctx, key, testutil.PNG, "image/png")
		assert.ErrorIs(t, err, storage.ErrInvalidKey, key)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"front.png":           "front.png",
		"my photo.png":        "my_photo.png",
		"../../etc/passwd":    "passwd",
		`C:\Users\me\pic.jpg`: "pic.jpg",
		"":                    "unnamed",
		"..":                  "unnamed",
		"tab\there.png":       "tabhere.png",
	}
	for in, want := range tests {
		assert.Equal(t, want, storage.SanitizeFilename(in), in)
	}
}
