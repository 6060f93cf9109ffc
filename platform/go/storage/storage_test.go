package storage

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestCardImageKey(t *testing.T) {
	cardID := uuid.New()

	key, err := CardImageKey(cardID, "front", "front.png")
	require.NoError(t, err)
	require.Equal(t, "cards/"+cardID.String()+"/front/front.png", key)

	key, err = CardImageKey(cardID, "Back", "scan.jpg")
	require.NoError(t, err)
	require.Equal(t, "cards/"+cardID.String()+"/back/scan.jpg", key)

	_, err = CardImageKey(cardID, "side", "file.png")
	require.Error(t, err)

	_, err = CardImageKey(cardID, "front", "../escape.png")
	require.Error(t, err)

	_, err = CardImageKey(cardID, "front", "nested/file.png")
	require.Error(t, err)
}

func TestResolveObjectLocation(t *testing.T) {
	cardID := uuid.New()
	key := "cards/" + cardID.String() + "/front/file.png"

	loc, err := ResolveObjectLocation("dev/", "cardledger-dev-assets", key)
	require.NoError(t, err)
	require.Equal(t, "cardledger-dev-assets", loc.Bucket)
	require.Equal(t, "dev/"+key, loc.FullPath)
}

func TestResolveObjectLocation_trimsSlashAndValidates(t *testing.T) {
	loc, err := ResolveObjectLocation("dev", "bucket", "/cards/user.png") // no trailing slash
	require.NoError(t, err)
	require.Equal(t, "dev/cards/user.png", loc.FullPath)

	_, err = ResolveObjectLocation("dev/", "", "file")
	require.Error(t, err)

	_, err = ResolveObjectLocation("dev/", "bucket", " ")
	require.Error(t, err)

	_, err = ResolveObjectLocation("", "bucket", "file")
	require.Error(t, err)
}

func TestLocalImageStoreRoundTrip(t *testing.T) {
	store, err := NewLocalImageStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	key := "cards/" + uuid.NewString() + "/front/front.png"

	stored, err := store.Put(ctx, key, "image/png", bytes.NewReader([]byte("png-bytes")))
	require.NoError(t, err)
	require.Equal(t, key, stored)

	rc, err := store.Open(ctx, key)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	require.Equal(t, "png-bytes", string(data))

	require.NoError(t, store.Delete(ctx, key))

	_, err = store.Open(ctx, key)
	require.Error(t, err)

	_, err = store.Put(ctx, "../outside.png", "", bytes.NewReader(nil))
	require.Error(t, err)
}
