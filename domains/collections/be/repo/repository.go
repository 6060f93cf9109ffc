package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/cardledger/cardledger/platform/go/persistence"
)

// Repository exposes persistence operations required by the collections service.
// Every operation is scoped to the owning user.
type Repository interface {
	List(ctx context.Context, userID string, limit, offset int) ([]persistence.CollectionEntry, error)
	Create(ctx context.Context, params persistence.CreateEntryParams) (persistence.CollectionEntry, error)
	Get(ctx context.Context, userID string, entryID uuid.UUID) (persistence.CollectionEntry, error)
	Update(ctx context.Context, userID string, entryID uuid.UUID, params persistence.UpdateEntryParams) (persistence.CollectionEntry, error)
	Delete(ctx context.Context, userID string, entryID uuid.UUID) error
}

type postgresRepository struct {
	store *persistence.CollectionStore
}

// NewPostgresRepository builds a Repository backed by the shared persistence layer.
func NewPostgresRepository(store *persistence.CollectionStore) Repository {
	if store == nil {
		panic("collection store is required")
	}
	return &postgresRepository{store: store}
}

func (r *postgresRepository) List(ctx context.Context, userID string, limit, offset int) ([]persistence.CollectionEntry, error) {
	return r.store.ListEntries(ctx, userID, limit, offset)
}

func (r *postgresRepository) Create(ctx context.Context, params persistence.CreateEntryParams) (persistence.CollectionEntry, error) {
	return r.store.CreateEntry(ctx, params)
}

func (r *postgresRepository) Get(ctx context.Context, userID string, entryID uuid.UUID) (persistence.CollectionEntry, error) {
	return r.store.GetEntry(ctx, userID, entryID)
}

func (r *postgresRepository) Update(ctx context.Context, userID string, entryID uuid.UUID, params persistence.UpdateEntryParams) (persistence.CollectionEntry, error) {
	return r.store.UpdateEntry(ctx, userID, entryID, params)
}

func (r *postgresRepository) Delete(ctx context.Context, userID string, entryID uuid.UUID) error {
	return r.store.DeleteEntry(ctx, userID, entryID)
}
