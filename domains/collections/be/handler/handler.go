package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cardledger/cardledger/domains/collections/be/service"
	platformlogging "github.com/cardledger/cardledger/platform/go/logging"
	"github.com/cardledger/cardledger/platform/go/problemdetails"
	"github.com/cardledger/cardledger/platform/go/requesttrace"
)

const (
	problemTypeValidation   = "https://cardledger.app/problems/validation-error"
	problemTypeNotFound     = "https://cardledger.app/problems/not-found"
	problemTypeConflict     = "https://cardledger.app/problems/conflict"
	problemTypeUnauthorized = "https://cardledger.app/problems/unauthorized"
	problemTypeInternal     = "https://cardledger.app/problems/internal-error"
	collectionBasePath      = "/api/v1/collection"
)

type operation string

const (
	listOperation   operation = "listCollectionEntries"
	createOperation operation = "createCollectionEntry"
	getOperation    operation = "getCollectionEntry"
	updateOperation operation = "updateCollectionEntry"
	deleteOperation operation = "deleteCollectionEntry"
)

// Handler wires the collections service to the HTTP contract.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("collections service is required")
	}
	if logger == nil {
		panic("logger is required")
	}

	return &Handler{svc: svc, logger: logger}
}

// Routes mounts all collection endpoints on a fresh router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListEntries)
	r.Post("/", h.CreateEntry)
	r.Get("/{entryId}", h.GetEntry)
	r.Patch("/{entryId}", h.UpdateEntry)
	r.Delete("/{entryId}", h.DeleteEntry)

	return r
}

type apiEntry struct {
	EntryId    uuid.UUID  `json:"entryId"`
	CardId     uuid.UUID  `json:"cardId"`
	Quantity   int        `json:"quantity"`
	Condition  string     `json:"condition"`
	Grade      *string    `json:"grade,omitempty"`
	Notes      *string    `json:"notes,omitempty"`
	AcquiredAt *time.Time `json:"acquiredAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

type apiEntryList struct {
	Items []apiEntry `json:"items"`
}

type createEntryRequest struct {
	CardId     uuid.UUID  `json:"cardId"`
	Quantity   int        `json:"quantity"`
	Condition  string     `json:"condition"`
	Grade      *string    `json:"grade"`
	Notes      *string    `json:"notes"`
	AcquiredAt *time.Time `json:"acquiredAt"`
}

type updateEntryRequest struct {
	Quantity   *int       `json:"quantity"`
	Condition  *string    `json:"condition"`
	Grade      *string    `json:"grade"`
	Notes      *string    `json:"notes"`
	AcquiredAt *time.Time `json:"acquiredAt"`
}

func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	audit := h.audit(r.Context())

	entries, err := h.svc.List(r.Context(), audit, queryInt(r, "limit"), queryInt(r, "offset"))
	if err != nil {
		h.writeProblem(w, r, err, listOperation)
		return
	}

	items := make([]apiEntry, 0, len(entries))
	for _, entry := range entries {
		items = append(items, toAPIEntry(entry))
	}

	h.writeJSON(w, r, http.StatusOK, apiEntryList{Items: items})
}

func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	audit := h.audit(r.Context())

	var body createEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeBodyProblem(w, "request body must be valid JSON")
		return
	}

	entry, err := h.svc.Create(r.Context(), audit, service.CreateInput{
		CardID:     body.CardId,
		Quantity:   body.Quantity,
		Condition:  body.Condition,
		Grade:      body.Grade,
		Notes:      body.Notes,
		AcquiredAt: body.AcquiredAt,
	})
	if err != nil {
		h.writeProblem(w, r, err, createOperation)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("%s/%s", collectionBasePath, entry.ID))
	h.writeJSON(w, r, http.StatusCreated, toAPIEntry(entry))
}

func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	audit := h.audit(r.Context())

	id, ok := h.entryID(w, r)
	if !ok {
		return
	}

	entry, err := h.svc.Get(r.Context(), audit, id)
	if err != nil {
		h.writeProblem(w, r, err, getOperation)
		return
	}

	h.writeJSON(w, r, http.StatusOK, toAPIEntry(entry))
}

func (h *Handler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	audit := h.audit(r.Context())

	id, ok := h.entryID(w, r)
	if !ok {
		return
	}

	var body updateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeBodyProblem(w, "request body must be valid JSON")
		return
	}

	entry, err := h.svc.Update(r.Context(), audit, id, service.UpdateInput{
		Quantity:   body.Quantity,
		Condition:  body.Condition,
		Grade:      body.Grade,
		Notes:      body.Notes,
		AcquiredAt: body.AcquiredAt,
	})
	if err != nil {
		h.writeProblem(w, r, err, updateOperation)
		return
	}

	h.writeJSON(w, r, http.StatusOK, toAPIEntry(entry))
}

func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	audit := h.audit(r.Context())

	id, ok := h.entryID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), audit, id); err != nil {
		h.writeProblem(w, r, err, deleteOperation)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) audit(ctx context.Context) requesttrace.AuditInfo {
	return requesttrace.FromContextOrAnonymous(ctx)
}

func (h *Handler) entryID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "entryId"))
	if err != nil {
		problem := h.buildProblem("Validation failed", "entryId must be a valid UUID", problemTypeValidation, http.StatusBadRequest, nil)
		problemdetails.Write(w, problem)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.loggerFrom(r.Context()).Error("encode response", zap.Error(err))
	}
}

func (h *Handler) writeBodyProblem(w http.ResponseWriter, detail string) {
	problem := h.buildProblem("Invalid request body", detail, problemTypeValidation, http.StatusBadRequest, nil)
	problemdetails.Write(w, problem)
}

func (h *Handler) writeProblem(w http.ResponseWriter, r *http.Request, err error, op operation) {
	status, problem := h.problemForError(r.Context(), err, op)
	problem.Status = status
	problemdetails.Write(w, problem)
}

func (h *Handler) problemForError(ctx context.Context, err error, op operation) (int, problemdetails.ProblemDetails) {
	status, title, detail, problemType, fieldErrors := h.classifyError(err)

	logger := h.loggerFrom(ctx)
	fields := []zap.Field{
		zap.String("operation", string(op)),
		zap.Int("status", status),
	}

	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("collections operation failed", append(fields, zap.Error(err))...)
	case status == http.StatusNotFound:
		logger.Info("collections resource not found", append(fields, zap.Error(err))...)
	default:
		logger.Warn("collections request rejected", append(fields, zap.Error(err))...)
	}

	return status, h.buildProblem(title, detail, problemType, status, fieldErrors)
}

func (h *Handler) classifyError(err error) (status int, title, detail, problemType string, fieldErrors service.FieldErrors) {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest,
			"Validation failed",
			"one or more fields are invalid",
			problemTypeValidation,
			validationErr.Fields
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized,
			"Unauthorized",
			"authentication is required",
			problemTypeUnauthorized,
			nil
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound,
			"Resource not found",
			"collection entry not found",
			problemTypeNotFound,
			nil
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict,
			"Conflict",
			"collection entry already exists",
			problemTypeConflict,
			nil
	default:
		return http.StatusInternalServerError,
			"Internal server error",
			"an unexpected error occurred",
			problemTypeInternal,
			nil
	}
}

func (h *Handler) buildProblem(title, detail, problemType string, status int, fieldErrors service.FieldErrors) problemdetails.ProblemDetails {
	problem := problemdetails.ProblemDetails{
		Title:  title,
		Status: status,
	}

	if detail != "" {
		problem.Detail = &detail
	}
	if problemType != "" {
		problem.Type = &problemType
	}

	if len(fieldErrors) > 0 {
		copied := make(map[string][]string, len(fieldErrors))
		for field, messages := range fieldErrors {
			copied[field] = append([]string(nil), messages...)
		}
		problem.Errors = &copied
	}

	return problem
}

func (h *Handler) loggerFrom(ctx context.Context) *zap.Logger {
	if logger, ok := platformlogging.FromContext(ctx); ok {
		return logger
	}
	return h.logger
}

func toAPIEntry(entry service.Entry) apiEntry {
	return apiEntry{
		EntryId:    entry.ID,
		CardId:     entry.CardID,
		Quantity:   entry.Quantity,
		Condition:  entry.Condition,
		Grade:      entry.Grade,
		Notes:      entry.Notes,
		AcquiredAt: entry.AcquiredAt,
		CreatedAt:  entry.CreatedAt,
		UpdatedAt:  entry.UpdatedAt,
	}
}

func queryInt(r *http.Request, key string) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
