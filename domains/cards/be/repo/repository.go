package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cardledger/cardledger/platform/go/persistence"
)

// Repository exposes persistence operations required by the cards service.
type Repository interface {
	List(ctx context.Context, params persistence.ListCardsParams) ([]persistence.Card, error)
	Create(ctx context.Context, params persistence.CreateCardParams) (persistence.Card, error)
	Get(ctx context.Context, id uuid.UUID) (persistence.Card, error)
	GetBySlug(ctx context.Context, slug string) (persistence.Card, error)
	FindByNumber(ctx context.Context, cardNumber, playerSlug string) ([]persistence.Card, error)
	FindByNumberPrefix(ctx context.Context, prefix string) ([]persistence.Card, error)
	Update(ctx context.Context, id uuid.UUID, params persistence.UpdateCardParams) (persistence.Card, error)
	SoftDelete(ctx context.Context, id uuid.UUID, deletedAt time.Time) error
}

type postgresRepository struct {
	store *persistence.CardStore
}

// NewPostgresRepository builds a Repository backed by the shared persistence layer.
func NewPostgresRepository(store *persistence.CardStore) Repository {
	if store == nil {
		panic("card store is required")
	}
	return &postgresRepository{store: store}
}

func (r *postgresRepository) List(ctx context.Context, params persistence.ListCardsParams) ([]persistence.Card, error) {
	return r.store.ListCards(ctx, params)
}

func (r *postgresRepository) Create(ctx context.Context, params persistence.CreateCardParams) (persistence.Card, error) {
	return r.store.CreateCard(ctx, params)
}

func (r *postgresRepository) Get(ctx context.Context, id uuid.UUID) (persistence.Card, error) {
	return r.store.GetCard(ctx, id)
}

func (r *postgresRepository) GetBySlug(ctx context.Context, slug string) (persistence.Card, error) {
	return r.store.GetCardBySlug(ctx, slug)
}

func (r *postgresRepository) FindByNumber(ctx context.Context, cardNumber, playerSlug string) ([]persistence.Card, error) {
	return r.store.FindByNumber(ctx, cardNumber, playerSlug)
}

func (r *postgresRepository) FindByNumberPrefix(ctx context.Context, prefix string) ([]persistence.Card, error) {
	return r.store.FindByNumberPrefix(ctx, prefix)
}

func (r *postgresRepository) Update(ctx context.Context, id uuid.UUID, params persistence.UpdateCardParams) (persistence.Card, error) {
	return r.store.UpdateCard(ctx, id, params)
}

func (r *postgresRepository) SoftDelete(ctx context.Context, id uuid.UUID, deletedAt time.Time) error {
	return r.store.SoftDeleteCard(ctx, id, deletedAt)
}
