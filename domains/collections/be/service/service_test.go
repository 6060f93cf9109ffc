package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/cardledger/cardledger/platform/go/persistence"
	"github.com/cardledger/cardledger/platform/go/requesttrace"
)

type mockRepository struct {
	listFn   func(ctx context.Context, userID string, limit, offset int) ([]persistence.CollectionEntry, error)
	createFn func(ctx context.Context, params persistence.CreateEntryParams) (persistence.CollectionEntry, error)
	getFn    func(ctx context.Context, userID string, entryID uuid.UUID) (persistence.CollectionEntry, error)
	updateFn func(ctx context.Context, userID string, entryID uuid.UUID, params persistence.UpdateEntryParams) (persistence.CollectionEntry, error)
	deleteFn func(ctx context.Context, userID string, entryID uuid.UUID) error
}

func (m *mockRepository) List(ctx context.Context, userID string, limit, offset int) ([]persistence.CollectionEntry, error) {
	if m.listFn == nil {
		panic("listFn not configured")
	}
	return m.listFn(ctx, userID, limit, offset)
}

func (m *mockRepository) Create(ctx context.Context, params persistence.CreateEntryParams) (persistence.CollectionEntry, error) {
	if m.createFn == nil {
		panic("createFn not configured")
	}
	return m.createFn(ctx, params)
}

func (m *mockRepository) Get(ctx context.Context, userID string, entryID uuid.UUID) (persistence.CollectionEntry, error) {
	if m.getFn == nil {
		panic("getFn not configured")
	}
	return m.getFn(ctx, userID, entryID)
}

func (m *mockRepository) Update(ctx context.Context, userID string, entryID uuid.UUID, params persistence.UpdateEntryParams) (persistence.CollectionEntry, error) {
	if m.updateFn == nil {
		panic("updateFn not configured")
	}
	return m.updateFn(ctx, userID, entryID, params)
}

func (m *mockRepository) Delete(ctx context.Context, userID string, entryID uuid.UUID) error {
	if m.deleteFn == nil {
		panic("deleteFn not configured")
	}
	return m.deleteFn(ctx, userID, entryID)
}

func userAudit(userID string) requesttrace.AuditInfo {
	return requesttrace.AuditInfo{
		ActorKind: requesttrace.ActorKindUser,
		UserID:    &userID,
		RequestID: "test",
	}
}

func TestServiceCreateSuccess(t *testing.T) {
	t.Parallel()

	cardID := uuid.New()
	now := time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC)

	repo := &mockRepository{}
	repo.createFn = func(ctx context.Context, params persistence.CreateEntryParams) (persistence.CollectionEntry, error) {
		require.Equal(t, "user-a", params.UserID)
		require.Equal(t, cardID, params.CardID)
		require.Equal(t, 1, params.Quantity, "quantity defaults to 1")
		require.Equal(t, "near-mint", params.Condition)
		require.NotEqual(t, uuid.Nil, params.EntryID)

		return persistence.CollectionEntry{
			EntryID:   params.EntryID,
			UserID:    params.UserID,
			CardID:    params.CardID,
			Quantity:  params.Quantity,
			Condition: params.Condition,
			CreatedAt: now,
			UpdatedAt: now,
		}, nil
	}

	svc := New(repo)

	entry, err := svc.Create(context.Background(), userAudit("user-a"), CreateInput{
		CardID:    cardID,
		Condition: " Near-Mint ",
	})
	require.NoError(t, err)
	require.Equal(t, "near-mint", entry.Condition)
	require.Equal(t, 1, entry.Quantity)
}

func TestServiceCreateValidationError(t *testing.T) {
	t.Parallel()

	svc := New(&mockRepository{})

	_, err := svc.Create(context.Background(), userAudit("user-a"), CreateInput{
		Quantity:  -2,
		Condition: "pristine",
	})
	require.Error(t, err)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Contains(t, validationErr.Fields, "cardId")
	require.Contains(t, validationErr.Fields, "quantity")
	require.Contains(t, validationErr.Fields, "condition")
}

func TestServiceRequiresUser(t *testing.T) {
	t.Parallel()

	svc := New(&mockRepository{})

	_, err := svc.Create(context.Background(), requesttrace.Anonymous("test"), CreateInput{
		CardID:    uuid.New(),
		Condition: "mint",
	})
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.List(context.Background(), requesttrace.System("test"), 0, 0)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestServiceCreateConflict(t *testing.T) {
	t.Parallel()

	repo := &mockRepository{}
	repo.createFn = func(ctx context.Context, params persistence.CreateEntryParams) (persistence.CollectionEntry, error) {
		return persistence.CollectionEntry{}, persistence.ErrEntryConflict
	}

	svc := New(repo)

	_, err := svc.Create(context.Background(), userAudit("user-a"), CreateInput{
		CardID:    uuid.New(),
		Condition: "mint",
	})
	require.ErrorIs(t, err, ErrConflict)
}

func TestServiceUpdateValidation(t *testing.T) {
	t.Parallel()

	svc := New(&mockRepository{})

	_, err := svc.Update(context.Background(), userAudit("user-a"), uuid.New(), UpdateInput{})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Contains(t, validationErr.Fields, "body")

	badQuantity := 0
	_, err = svc.Update(context.Background(), userAudit("user-a"), uuid.New(), UpdateInput{
		Quantity: &badQuantity,
	})
	require.ErrorAs(t, err, &validationErr)
	require.Contains(t, validationErr.Fields, "quantity")
}

func TestServiceUpdateNotFound(t *testing.T) {
	t.Parallel()

	repo := &mockRepository{}
	repo.updateFn = func(ctx context.Context, userID string, entryID uuid.UUID, params persistence.UpdateEntryParams) (persistence.CollectionEntry, error) {
		return persistence.CollectionEntry{}, persistence.ErrEntryNotFound
	}

	svc := New(repo)

	quantity := 2
	_, err := svc.Update(context.Background(), userAudit("user-a"), uuid.New(), UpdateInput{
		Quantity: &quantity,
	})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestServiceListScopesToUser(t *testing.T) {
	t.Parallel()

	repo := &mockRepository{}
	repo.listFn = func(ctx context.Context, userID string, limit, offset int) ([]persistence.CollectionEntry, error) {
		require.Equal(t, "user-a", userID)
		return []persistence.CollectionEntry{{EntryID: uuid.New(), UserID: userID}}, nil
	}

	svc := New(repo)

	entries, err := svc.List(context.Background(), userAudit("user-a"), 0, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestServiceDelete(t *testing.T) {
	t.Parallel()

	repo := &mockRepository{}
	repo.deleteFn = func(ctx context.Context, userID string, entryID uuid.UUID) error {
		return persistence.ErrEntryNotFound
	}

	svc := New(repo)

	err := svc.Delete(context.Background(), userAudit("user-a"), uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}
