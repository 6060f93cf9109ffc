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

	"github.com/cardledger/cardledger/domains/cards/be/service"
	platformlogging "github.com/cardledger/cardledger/platform/go/logging"
	"github.com/cardledger/cardledger/platform/go/problemdetails"
	"github.com/cardledger/cardledger/platform/go/requesttrace"
)

const (
	problemTypeValidation = "https://cardledger.app/problems/validation-error"
	problemTypeNotFound   = "https://cardledger.app/problems/not-found"
	problemTypeConflict   = "https://cardledger.app/problems/conflict"
	problemTypeInternal   = "https://cardledger.app/problems/internal-error"
	cardsBasePath         = "/api/v1/cards"

	maxImageBytes = 10 << 20
)

type operation string

const (
	listOperation      operation = "listCards"
	createOperation    operation = "createCard"
	getOperation       operation = "getCard"
	resolveOperation   operation = "resolveCardSlug"
	decomposeOperation operation = "decomposeSlug"
	updateOperation    operation = "updateCard"
	deleteOperation    operation = "deleteCard"
	uploadOperation    operation = "uploadCardImage"
)

// Handler wires the cards service to the HTTP contract.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("cards service is required")
	}
	if logger == nil {
		panic("logger is required")
	}

	return &Handler{svc: svc, logger: logger}
}

// Routes mounts all cards endpoints on a fresh router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListCards)
	r.Post("/", h.CreateCard)
	r.Get("/resolve/{slug}", h.ResolveSlug)
	r.Get("/decompose/{slug}", h.DecomposeSlug)
	r.Get("/{cardId}", h.GetCard)
	r.Patch("/{cardId}", h.UpdateCard)
	r.Delete("/{cardId}", h.DeleteCard)
	r.Post("/{cardId}/images/{side}", h.UploadCardImage)

	return r
}

type apiCard struct {
	CardId     uuid.UUID       `json:"cardId"`
	SetName    string          `json:"setName"`
	CardNumber string          `json:"cardNumber"`
	PlayerName string          `json:"playerName,omitempty"`
	PlayerSlug string          `json:"playerSlug,omitempty"`
	Slug       string          `json:"slug"`
	TeamAbbr   *string         `json:"teamAbbr,omitempty"`
	Attributes json.RawMessage `json:"attributes,omitempty"`
	ImagePath  *string         `json:"imagePath,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
	DeletedAt  *time.Time      `json:"deletedAt,omitempty"`
}

type apiCardList struct {
	Items []apiCard `json:"items"`
}

type apiDecomposition struct {
	CardNumber string `json:"cardNumber"`
	PlayerSlug string `json:"playerSlug"`
}

type apiResolution struct {
	Decomposition apiDecomposition `json:"decomposition"`
	Match         string           `json:"match"`
	Candidates    []apiCard        `json:"candidates"`
}

type createCardRequest struct {
	SetName    string          `json:"setName"`
	CardNumber string          `json:"cardNumber"`
	PlayerName string          `json:"playerName"`
	TeamAbbr   *string         `json:"teamAbbr"`
	Attributes json.RawMessage `json:"attributes"`
}

type updateCardRequest struct {
	SetName    *string         `json:"setName"`
	PlayerName *string         `json:"playerName"`
	Attributes json.RawMessage `json:"attributes"`
}

func (h *Handler) ListCards(w http.ResponseWriter, r *http.Request) {
	audit := h.audit(r.Context())

	filter := service.ListFilter{}
	if v := r.URL.Query().Get("setName"); v != "" {
		filter.SetName = &v
	}
	if v := r.URL.Query().Get("playerSlug"); v != "" {
		filter.PlayerSlug = &v
	}
	filter.Limit = queryInt(r, "limit")
	filter.Offset = queryInt(r, "offset")

	cards, err := h.svc.List(r.Context(), audit, filter)
	if err != nil {
		h.writeProblem(w, r, err, listOperation)
		return
	}

	items := make([]apiCard, 0, len(cards))
	for _, card := range cards {
		items = append(items, toAPICard(card))
	}

	h.writeJSON(w, r, http.StatusOK, apiCardList{Items: items})
}

func (h *Handler) CreateCard(w http.ResponseWriter, r *http.Request) {
	audit := h.audit(r.Context())

	var body createCardRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeBodyProblem(w, "request body must be valid JSON")
		return
	}

	card, err := h.svc.Create(r.Context(), audit, service.CreateInput{
		SetName:    body.SetName,
		CardNumber: body.CardNumber,
		PlayerName: body.PlayerName,
		TeamAbbr:   body.TeamAbbr,
		Attributes: body.Attributes,
	})
	if err != nil {
		h.writeProblem(w, r, err, createOperation)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("%s/%s", cardsBasePath, card.ID))
	h.writeJSON(w, r, http.StatusCreated, toAPICard(card))
}

func (h *Handler) GetCard(w http.ResponseWriter, r *http.Request) {
	audit := h.audit(r.Context())

	id, ok := h.cardID(w, r)
	if !ok {
		return
	}

	card, err := h.svc.Get(r.Context(), audit, id)
	if err != nil {
		h.writeProblem(w, r, err, getOperation)
		return
	}

	h.writeJSON(w, r, http.StatusOK, toAPICard(card))
}

func (h *Handler) ResolveSlug(w http.ResponseWriter, r *http.Request) {
	audit := h.audit(r.Context())

	resolution, err := h.svc.Resolve(r.Context(), audit, chi.URLParam(r, "slug"))
	if err != nil {
		h.writeProblem(w, r, err, resolveOperation)
		return
	}

	candidates := make([]apiCard, 0, len(resolution.Candidates))
	for _, card := range resolution.Candidates {
		candidates = append(candidates, toAPICard(card))
	}

	h.writeJSON(w, r, http.StatusOK, apiResolution{
		Decomposition: apiDecomposition{
			CardNumber: resolution.Decomposition.CardNumber,
			PlayerSlug: resolution.Decomposition.PlayerSlug,
		},
		Match:      string(resolution.Match),
		Candidates: candidates,
	})
}

func (h *Handler) DecomposeSlug(w http.ResponseWriter, r *http.Request) {
	d := h.svc.Decompose(chi.URLParam(r, "slug"))

	h.writeJSON(w, r, http.StatusOK, apiDecomposition{
		CardNumber: d.CardNumber,
		PlayerSlug: d.PlayerSlug,
	})
}

func (h *Handler) UpdateCard(w http.ResponseWriter, r *http.Request) {
	audit := h.audit(r.Context())

	id, ok := h.cardID(w, r)
	if !ok {
		return
	}

	var body updateCardRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeBodyProblem(w, "request body must be valid JSON")
		return
	}

	card, err := h.svc.Update(r.Context(), audit, id, service.UpdateInput{
		SetName:    body.SetName,
		PlayerName: body.PlayerName,
		Attributes: body.Attributes,
	})
	if err != nil {
		h.writeProblem(w, r, err, updateOperation)
		return
	}

	h.writeJSON(w, r, http.StatusOK, toAPICard(card))
}

func (h *Handler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	audit := h.audit(r.Context())

	id, ok := h.cardID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), audit, id); err != nil {
		h.writeProblem(w, r, err, deleteOperation)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) UploadCardImage(w http.ResponseWriter, r *http.Request) {
	audit := h.audit(r.Context())

	id, ok := h.cardID(w, r)
	if !ok {
		return
	}

	filename := r.URL.Query().Get("filename")
	if filename == "" {
		problem := h.buildProblem("Validation failed", "filename query parameter is required", problemTypeValidation, http.StatusBadRequest, nil)
		problemdetails.Write(w, problem)
		return
	}

	body := http.MaxBytesReader(w, r.Body, maxImageBytes)
	defer body.Close()

	card, err := h.svc.UploadImage(r.Context(), audit, id,
		chi.URLParam(r, "side"), filename, r.Header.Get("Content-Type"), body)
	if err != nil {
		h.writeProblem(w, r, err, uploadOperation)
		return
	}

	h.writeJSON(w, r, http.StatusOK, toAPICard(card))
}

func (h *Handler) audit(ctx context.Context) requesttrace.AuditInfo {
	return requesttrace.FromContextOrAnonymous(ctx)
}

func (h *Handler) cardID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "cardId"))
	if err != nil {
		problem := h.buildProblem("Validation failed", "cardId must be a valid UUID", problemTypeValidation, http.StatusBadRequest, nil)
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
		logger.Error("cards operation failed", append(fields, zap.Error(err))...)
	case status == http.StatusNotFound:
		logger.Info("cards resource not found", append(fields, zap.Error(err))...)
	default:
		logger.Warn("cards request rejected", append(fields, zap.Error(err))...)
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
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound,
			"Resource not found",
			"card not found",
			problemTypeNotFound,
			nil
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict,
			"Conflict",
			"card already exists",
			problemTypeConflict,
			nil
	case errors.Is(err, service.ErrImagesNotSupported):
		return http.StatusNotImplemented,
			"Not implemented",
			"image storage is not configured",
			problemTypeInternal,
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

func toAPICard(card service.Card) apiCard {
	return apiCard{
		CardId:     card.ID,
		SetName:    card.SetName,
		CardNumber: card.CardNumber,
		PlayerName: card.PlayerName,
		PlayerSlug: card.PlayerSlug,
		Slug:       card.Slug,
		TeamAbbr:   card.TeamAbbr,
		Attributes: json.RawMessage(card.Attributes),
		ImagePath:  card.ImagePath,
		CreatedAt:  card.CreatedAt,
		UpdatedAt:  card.UpdatedAt,
		DeletedAt:  card.DeletedAt,
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
