package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	sqlassets "github.com/cardledger/cardledger/database"
)

func TestCardAndCollectionStores(t *testing.T) {
	t.Parallel()

	if testing.Short() {
		t.Skip("skipping store integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("cardledger"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(wait.ForListeningPort("5432/tcp").WithStartupTimeout(2*time.Minute)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = pgContainer.Terminate(context.Background())
	})

	connString, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := NewPool(ctx, PoolConfig{ConnString: connString})
	require.NoError(t, err)
	t.Cleanup(func() { ClosePool(pool) })

	_, err = pool.Exec(ctx, sqlassets.CardsSQL)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, sqlassets.CollectionEntriesSQL)
	require.NoError(t, err)

	cardStore, err := NewCardStore(ctx, pool)
	require.NoError(t, err)

	teamAbbr := "ari"
	created, err := cardStore.CreateCard(ctx, CreateCardParams{
		CardID:     uuid.New(),
		SetName:    "2024 Series One",
		CardNumber: "c90a-ari",
		PlayerName: "Austin Riley",
		PlayerSlug: "austin-riley",
		Slug:       "c90a-ari-austin-riley",
		TeamAbbr:   &teamAbbr,
		Attributes: []byte(`{"rookie":false}`),
	})
	require.NoError(t, err)
	require.Equal(t, "C90A-ARI", created.CardNumber, "card number is stored uppercase")
	require.Equal(t, "austin-riley", created.PlayerSlug)

	t.Run("get by slug", func(t *testing.T) {
		card, err := cardStore.GetCardBySlug(ctx, "c90a-ari-austin-riley")
		require.NoError(t, err)
		require.Equal(t, created.CardID, card.CardID)

		_, err = cardStore.GetCardBySlug(ctx, "no-such-card")
		require.ErrorIs(t, err, ErrCardNotFound)
	})

	t.Run("find by number with player filter", func(t *testing.T) {
		cards, err := cardStore.FindByNumber(ctx, "c90a-ari", "austin-riley")
		require.NoError(t, err)
		require.Len(t, cards, 1)

		cards, err = cardStore.FindByNumber(ctx, "c90a-ari", "")
		require.NoError(t, err)
		require.Len(t, cards, 1)

		cards, err = cardStore.FindByNumber(ctx, "c90a-ari", "someone-else")
		require.NoError(t, err)
		require.Empty(t, cards)
	})

	t.Run("find by number prefix", func(t *testing.T) {
		cards, err := cardStore.FindByNumberPrefix(ctx, "c90a")
		require.NoError(t, err)
		require.Len(t, cards, 1)
		require.Equal(t, created.CardID, cards[0].CardID)
	})

	t.Run("duplicate slug in set conflicts", func(t *testing.T) {
		_, err := cardStore.CreateCard(ctx, CreateCardParams{
			CardID:     uuid.New(),
			SetName:    "2024 Series One",
			CardNumber: "C90A-ARI",
			PlayerName: "Austin Riley",
			PlayerSlug: "austin-riley",
			Slug:       "c90a-ari-austin-riley",
		})
		require.ErrorIs(t, err, ErrCardConflict)
	})

	t.Run("update card", func(t *testing.T) {
		newName := "Austin Riley"
		imagePath := "cards/" + created.CardID.String() + "/front.png"
		updated, err := cardStore.UpdateCard(ctx, created.CardID, UpdateCardParams{
			PlayerName: &newName,
			Attributes: []byte(`{"rookie":false,"position":"3B"}`),
			ImagePath:  &imagePath,
		})
		require.NoError(t, err)
		require.NotNil(t, updated.ImagePath)
		require.Equal(t, imagePath, *updated.ImagePath)
		require.JSONEq(t, `{"rookie":false,"position":"3B"}`, string(updated.Attributes))
	})

	collectionStore, err := NewCollectionStore(ctx, pool)
	require.NoError(t, err)

	entry, err := collectionStore.CreateEntry(ctx, CreateEntryParams{
		EntryID:   uuid.New(),
		UserID:    "user-a",
		CardID:    created.CardID,
		Quantity:  2,
		Condition: "near-mint",
	})
	require.NoError(t, err)

	t.Run("entries are scoped by user", func(t *testing.T) {
		entries, err := collectionStore.ListEntries(ctx, "user-a", 0, 0)
		require.NoError(t, err)
		require.Len(t, entries, 1)

		entries, err = collectionStore.ListEntries(ctx, "user-b", 0, 0)
		require.NoError(t, err)
		require.Empty(t, entries)

		_, err = collectionStore.GetEntry(ctx, "user-b", entry.EntryID)
		require.ErrorIs(t, err, ErrEntryNotFound)
	})

	t.Run("duplicate card and condition conflicts", func(t *testing.T) {
		_, err := collectionStore.CreateEntry(ctx, CreateEntryParams{
			EntryID:   uuid.New(),
			UserID:    "user-a",
			CardID:    created.CardID,
			Quantity:  1,
			Condition: "near-mint",
		})
		require.ErrorIs(t, err, ErrEntryConflict)
	})

	t.Run("update entry", func(t *testing.T) {
		quantity := 3
		grade := "PSA 9"
		updated, err := collectionStore.UpdateEntry(ctx, "user-a", entry.EntryID, UpdateEntryParams{
			Quantity: &quantity,
			Grade:    &grade,
		})
		require.NoError(t, err)
		require.Equal(t, 3, updated.Quantity)
		require.NotNil(t, updated.Grade)
		require.Equal(t, "PSA 9", *updated.Grade)
	})

	t.Run("soft deleted card disappears from lookups", func(t *testing.T) {
		err := cardStore.SoftDeleteCard(ctx, created.CardID, time.Now().UTC())
		require.NoError(t, err)

		_, err = cardStore.GetCard(ctx, created.CardID)
		require.ErrorIs(t, err, ErrCardNotFound)

		cards, err := cardStore.FindByNumber(ctx, "C90A-ARI", "")
		require.NoError(t, err)
		require.Empty(t, cards)

		err = cardStore.SoftDeleteCard(ctx, created.CardID, time.Now().UTC())
		require.ErrorIs(t, err, ErrCardNotFound)
	})

	t.Run("delete entry", func(t *testing.T) {
		err := collectionStore.DeleteEntry(ctx, "user-a", entry.EntryID)
		require.NoError(t, err)

		err = collectionStore.DeleteEntry(ctx, "user-a", entry.EntryID)
		require.ErrorIs(t, err, ErrEntryNotFound)
	})
}
