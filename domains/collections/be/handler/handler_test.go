package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cardledger/cardledger/domains/collections/be/service"
	"github.com/cardledger/cardledger/platform/go/requesttrace"
)

type mockService struct {
	listFn   func(ctx context.Context, audit requesttrace.AuditInfo, limit, offset int) ([]service.Entry, error)
	createFn func(ctx context.Context, audit requesttrace.AuditInfo, input service.CreateInput) (service.Entry, error)
	getFn    func(ctx context.Context, audit requesttrace.AuditInfo, entryID uuid.UUID) (service.Entry, error)
	updateFn func(ctx context.Context, audit requesttrace.AuditInfo, entryID uuid.UUID, input service.UpdateInput) (service.Entry, error)
	deleteFn func(ctx context.Context, audit requesttrace.AuditInfo, entryID uuid.UUID) error
}

func (m *mockService) List(ctx context.Context, audit requesttrace.AuditInfo, limit, offset int) ([]service.Entry, error) {
	if m.listFn == nil {
		panic("listFn not configured")
	}
	return m.listFn(ctx, audit, limit, offset)
}

func (m *mockService) Create(ctx context.Context, audit requesttrace.AuditInfo, input service.CreateInput) (service.Entry, error) {
	if m.createFn == nil {
		panic("createFn not configured")
	}
	return m.createFn(ctx, audit, input)
}

func (m *mockService) Get(ctx context.Context, audit requesttrace.AuditInfo, entryID uuid.UUID) (service.Entry, error) {
	if m.getFn == nil {
		panic("getFn not configured")
	}
	return m.getFn(ctx, audit, entryID)
}

func (m *mockService) Update(ctx context.Context, audit requesttrace.AuditInfo, entryID uuid.UUID, input service.UpdateInput) (service.Entry, error) {
	if m.updateFn == nil {
		panic("updateFn not configured")
	}
	return m.updateFn(ctx, audit, entryID, input)
}

func (m *mockService) Delete(ctx context.Context, audit requesttrace.AuditInfo, entryID uuid.UUID) error {
	if m.deleteFn == nil {
		panic("deleteFn not configured")
	}
	return m.deleteFn(ctx, audit, entryID)
}

func newTestRouter(svc service.Service, userID string) chi.Router {
	r := chi.NewRouter()
	if userID != "" {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				ctx := requesttrace.IntoContext(req.Context(), requesttrace.AuditInfo{
					ActorKind: requesttrace.ActorKindUser,
					UserID:    &userID,
					RequestID: "test",
				})
				next.ServeHTTP(w, req.WithContext(ctx))
			})
		})
	}
	r.Mount("/api/v1/collection", New(svc, zap.NewNop()).Routes())
	return r
}

func TestHandlerCreateEntry(t *testing.T) {
	t.Parallel()

	entryID := uuid.New()
	cardID := uuid.New()
	now := time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC)

	svc := &mockService{}
	svc.createFn = func(ctx context.Context, audit requesttrace.AuditInfo, input service.CreateInput) (service.Entry, error) {
		require.NotNil(t, audit.UserID)
		require.Equal(t, "user-a", *audit.UserID)
		require.Equal(t, cardID, input.CardID)
		require.Equal(t, "near-mint", input.Condition)

		return service.Entry{
			ID:        entryID,
			UserID:    *audit.UserID,
			CardID:    input.CardID,
			Quantity:  2,
			Condition: input.Condition,
			CreatedAt: now,
			UpdatedAt: now,
		}, nil
	}

	router := newTestRouter(svc, "user-a")

	body := `{"cardId":"` + cardID.String() + `","quantity":2,"condition":"near-mint"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/collection", strings.NewReader(body))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusCreated, resp.Code)
	require.Equal(t, "/api/v1/collection/"+entryID.String(), resp.Header().Get("Location"))

	var payload apiEntry
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &payload))
	require.Equal(t, entryID, payload.EntryId)
	require.Equal(t, 2, payload.Quantity)
}

func TestHandlerCreateEntryUnauthorized(t *testing.T) {
	t.Parallel()

	svc := &mockService{}
	svc.createFn = func(ctx context.Context, audit requesttrace.AuditInfo, input service.CreateInput) (service.Entry, error) {
		return service.Entry{}, service.ErrUnauthorized
	}

	router := newTestRouter(svc, "")

	body := `{"cardId":"` + uuid.NewString() + `","condition":"mint"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/collection", strings.NewReader(body))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusUnauthorized, resp.Code)
	require.Equal(t, "application/problem+json", resp.Header().Get("Content-Type"))
}

func TestHandlerListEntries(t *testing.T) {
	t.Parallel()

	svc := &mockService{}
	svc.listFn = func(ctx context.Context, audit requesttrace.AuditInfo, limit, offset int) ([]service.Entry, error) {
		require.Equal(t, 10, limit)
		require.Equal(t, 20, offset)
		return []service.Entry{{ID: uuid.New(), CardID: uuid.New(), Quantity: 1, Condition: "mint"}}, nil
	}

	router := newTestRouter(svc, "user-a")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/collection?limit=10&offset=20", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)

	var payload apiEntryList
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &payload))
	require.Len(t, payload.Items, 1)
}

func TestHandlerGetEntryNotFound(t *testing.T) {
	t.Parallel()

	svc := &mockService{}
	svc.getFn = func(ctx context.Context, audit requesttrace.AuditInfo, entryID uuid.UUID) (service.Entry, error) {
		return service.Entry{}, service.ErrNotFound
	}

	router := newTestRouter(svc, "user-a")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/collection/"+uuid.NewString(), nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusNotFound, resp.Code)
}

func TestHandlerUpdateEntryInvalidID(t *testing.T) {
	t.Parallel()

	router := newTestRouter(&mockService{}, "user-a")

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/collection/not-a-uuid", strings.NewReader(`{}`))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestHandlerDeleteEntry(t *testing.T) {
	t.Parallel()

	svc := &mockService{}
	svc.deleteFn = func(ctx context.Context, audit requesttrace.AuditInfo, entryID uuid.UUID) error {
		return nil
	}

	router := newTestRouter(svc, "user-a")

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/collection/"+uuid.NewString(), nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusNoContent, resp.Code)
}
