package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	gosimpleslug "github.com/gosimple/slug"

	domainrepo "github.com/cardledger/cardledger/domains/cards/be/repo"
	"github.com/cardledger/cardledger/platform/go/persistence"
	"github.com/cardledger/cardledger/platform/go/requesttrace"
	"github.com/cardledger/cardledger/platform/go/slugparse"
	"github.com/cardledger/cardledger/platform/go/storage"
)

// FieldErrors maps request fields to validation issues.
type FieldErrors map[string][]string

// ValidationError captures input validation problems surfaced by the service.
type ValidationError struct {
	Fields FieldErrors
}

func (v *ValidationError) Error() string {
	return "validation error"
}

// Domain-level error sentinel values.
var (
	ErrNotFound           = errors.New("card not found")
	ErrConflict           = errors.New("card conflict")
	ErrImagesNotSupported = errors.New("image storage is not configured")
)

// Card represents a catalog card managed by the domain service.
type Card struct {
	ID         uuid.UUID
	SetName    string
	CardNumber string
	PlayerName string
	PlayerSlug string
	Slug       string
	TeamAbbr   *string
	Attributes []byte
	ImagePath  *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	DeletedAt  *time.Time
}

// CreateInput defines the payload required to create a card.
// PlayerName may be empty for player-less cards such as checklists.
type CreateInput struct {
	SetName    string
	CardNumber string
	PlayerName string
	TeamAbbr   *string
	Attributes []byte
}

// UpdateInput defines the fields that can be modified for an existing card.
type UpdateInput struct {
	SetName    *string
	PlayerName *string
	Attributes []byte
}

// MatchKind says how a slug resolution found its candidates.
type MatchKind string

const (
	MatchExact      MatchKind = "exact"
	MatchDecomposed MatchKind = "decomposed"
	MatchPrefix     MatchKind = "prefix"
)

// Resolution is the outcome of resolving a raw card slug against the catalog.
// Candidates is never empty; Match tells which lookup layer produced them.
type Resolution struct {
	Decomposition slugparse.Decomposition
	Match         MatchKind
	Candidates    []Card
}

// ListFilter narrows List results.
type ListFilter struct {
	SetName    *string
	PlayerSlug *string
	Limit      int
	Offset     int
}

// Service exposes the cards domain operations.
type Service interface {
	List(ctx context.Context, audit requesttrace.AuditInfo, filter ListFilter) ([]Card, error)
	Create(ctx context.Context, audit requesttrace.AuditInfo, input CreateInput) (Card, error)
	Get(ctx context.Context, audit requesttrace.AuditInfo, id uuid.UUID) (Card, error)
	Resolve(ctx context.Context, audit requesttrace.AuditInfo, rawSlug string) (Resolution, error)
	Decompose(rawSlug string) slugparse.Decomposition
	Update(ctx context.Context, audit requesttrace.AuditInfo, id uuid.UUID, input UpdateInput) (Card, error)
	Delete(ctx context.Context, audit requesttrace.AuditInfo, id uuid.UUID) error
	UploadImage(ctx context.Context, audit requesttrace.AuditInfo, id uuid.UUID, side, filename, contentType string, r io.Reader) (Card, error)
}

type service struct {
	repo   domainrepo.Repository
	engine *slugparse.Engine
	attrs  *persistence.AttributeValidator
	images storage.ImageStore
	now    func() time.Time
}

// New builds a cards Service backed by the provided repository and slug engine.
// images may be nil when the deployment has no blob storage; uploads then fail
// with ErrImagesNotSupported.
func New(repo domainrepo.Repository, engine *slugparse.Engine, attrs *persistence.AttributeValidator, images storage.ImageStore) Service {
	if repo == nil {
		panic("cards repository is required")
	}
	if engine == nil {
		panic("slug engine is required")
	}
	if attrs == nil {
		panic("attribute validator is required")
	}

	return &service{
		repo:   repo,
		engine: engine,
		attrs:  attrs,
		images: images,
		now:    time.Now,
	}
}

func (s *service) List(ctx context.Context, audit requesttrace.AuditInfo, filter ListFilter) ([]Card, error) { //nolint:revive
	records, err := s.repo.List(ctx, persistence.ListCardsParams{
		SetName:    filter.SetName,
		PlayerSlug: filter.PlayerSlug,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	})
	if err != nil {
		return nil, err
	}

	return mapCards(records), nil
}

func (s *service) Create(ctx context.Context, audit requesttrace.AuditInfo, input CreateInput) (Card, error) { //nolint:revive
	normalized, validationErr := s.validateCreateInput(input)
	if validationErr != nil {
		return Card{}, validationErr
	}

	params := persistence.CreateCardParams{
		CardID:     uuid.New(),
		SetName:    normalized.setName,
		CardNumber: normalized.cardNumber,
		PlayerName: normalized.playerName,
		PlayerSlug: normalized.playerSlug,
		Slug:       normalized.slug,
		TeamAbbr:   normalized.teamAbbr,
		Attributes: input.Attributes,
	}

	record, err := s.repo.Create(ctx, params)
	if err != nil {
		if errors.Is(err, persistence.ErrCardConflict) {
			return Card{}, ErrConflict
		}
		return Card{}, err
	}

	return mapCard(record), nil
}

func (s *service) Get(ctx context.Context, audit requesttrace.AuditInfo, id uuid.UUID) (Card, error) { //nolint:revive
	record, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, persistence.ErrCardNotFound) {
			return Card{}, ErrNotFound
		}
		return Card{}, err
	}

	return mapCard(record), nil
}

// Resolve finds catalog cards for a raw slug in three layers: exact canonical slug,
// then number/player split from the decomposition engine, then card-number prefix.
func (s *service) Resolve(ctx context.Context, audit requesttrace.AuditInfo, rawSlug string) (Resolution, error) { //nolint:revive
	cleaned := strings.ToLower(strings.TrimSpace(rawSlug))
	if cleaned == "" {
		return Resolution{}, &ValidationError{Fields: FieldErrors{"slug": []string{"slug is required"}}}
	}

	decomposition := s.engine.Decompose(cleaned)

	if record, err := s.repo.GetBySlug(ctx, cleaned); err == nil {
		return Resolution{
			Decomposition: decomposition,
			Match:         MatchExact,
			Candidates:    []Card{mapCard(record)},
		}, nil
	} else if !errors.Is(err, persistence.ErrCardNotFound) {
		return Resolution{}, err
	}

	records, err := s.repo.FindByNumber(ctx, decomposition.CardNumber, decomposition.PlayerSlug)
	if err != nil {
		return Resolution{}, err
	}
	if len(records) > 0 {
		return Resolution{
			Decomposition: decomposition,
			Match:         MatchDecomposed,
			Candidates:    mapCards(records),
		}, nil
	}

	records, err = s.repo.FindByNumberPrefix(ctx, decomposition.CardNumber)
	if err != nil {
		return Resolution{}, err
	}
	if len(records) > 0 {
		return Resolution{
			Decomposition: decomposition,
			Match:         MatchPrefix,
			Candidates:    mapCards(records),
		}, nil
	}

	return Resolution{}, ErrNotFound
}

func (s *service) Decompose(rawSlug string) slugparse.Decomposition {
	return s.engine.Decompose(strings.ToLower(strings.TrimSpace(rawSlug)))
}

func (s *service) Update(ctx context.Context, audit requesttrace.AuditInfo, id uuid.UUID, input UpdateInput) (Card, error) { //nolint:revive
	if id == uuid.Nil {
		return Card{}, ErrNotFound
	}

	normalized, validationErr := s.validateUpdateInput(input)
	if validationErr != nil {
		return Card{}, validationErr
	}

	params := persistence.UpdateCardParams{
		SetName:    normalized.setName,
		PlayerName: normalized.playerName,
		Attributes: input.Attributes,
	}

	record, err := s.repo.Update(ctx, id, params)
	if err != nil {
		switch {
		case errors.Is(err, persistence.ErrCardNotFound):
			return Card{}, ErrNotFound
		case errors.Is(err, persistence.ErrCardConflict):
			return Card{}, ErrConflict
		default:
			return Card{}, err
		}
	}

	return mapCard(record), nil
}

func (s *service) Delete(ctx context.Context, audit requesttrace.AuditInfo, id uuid.UUID) error { //nolint:revive
	if id == uuid.Nil {
		return ErrNotFound
	}

	if err := s.repo.SoftDelete(ctx, id, s.now().UTC()); err != nil {
		if errors.Is(err, persistence.ErrCardNotFound) {
			return ErrNotFound
		}
		return err
	}

	return nil
}

func (s *service) UploadImage(ctx context.Context, audit requesttrace.AuditInfo, id uuid.UUID, side, filename, contentType string, r io.Reader) (Card, error) { //nolint:revive
	if s.images == nil {
		return Card{}, ErrImagesNotSupported
	}
	if id == uuid.Nil {
		return Card{}, ErrNotFound
	}

	if _, err := s.repo.Get(ctx, id); err != nil {
		if errors.Is(err, persistence.ErrCardNotFound) {
			return Card{}, ErrNotFound
		}
		return Card{}, err
	}

	key, err := storage.CardImageKey(id, side, filename)
	if err != nil {
		return Card{}, &ValidationError{Fields: FieldErrors{"image": []string{err.Error()}}}
	}

	storedPath, err := s.images.Put(ctx, key, contentType, r)
	if err != nil {
		return Card{}, err
	}

	record, err := s.repo.Update(ctx, id, persistence.UpdateCardParams{ImagePath: &storedPath})
	if err != nil {
		if errors.Is(err, persistence.ErrCardNotFound) {
			return Card{}, ErrNotFound
		}
		return Card{}, err
	}

	return mapCard(record), nil
}

type normalizedCreateInput struct {
	setName    string
	cardNumber string
	playerName string
	playerSlug string
	slug       string
	teamAbbr   *string
}

type normalizedUpdateInput struct {
	setName    *string
	playerName *string
}

func (s *service) validateCreateInput(input CreateInput) (normalizedCreateInput, error) {
	errs := FieldErrors{}

	setName := strings.TrimSpace(input.SetName)
	if setName == "" {
		errs.add("setName", "setName is required")
	}

	cardNumber := strings.ToUpper(strings.TrimSpace(input.CardNumber))
	if cardNumber == "" {
		errs.add("cardNumber", "cardNumber is required")
	} else if _, err := persistence.NormalizeSlug(strings.ToLower(cardNumber)); err != nil {
		errs.add("cardNumber", "cardNumber must contain only letters, digits and hyphens")
	}

	playerName := strings.TrimSpace(input.PlayerName)
	playerSlug := ""
	if playerName != "" {
		playerSlug = gosimpleslug.Make(playerName)
	}

	var teamAbbr *string
	if input.TeamAbbr != nil {
		trimmed := strings.ToLower(strings.TrimSpace(*input.TeamAbbr))
		if trimmed != "" {
			teamAbbr = &trimmed
		}
	}

	if err := s.attrs.Validate(input.Attributes); err != nil {
		errs.add("attributes", err.Error())
	}

	if len(errs) > 0 {
		return normalizedCreateInput{}, &ValidationError{Fields: errs}
	}

	canonical := strings.ToLower(cardNumber)
	if playerSlug != "" {
		canonical = canonical + "-" + playerSlug
	}

	return normalizedCreateInput{
		setName:    setName,
		cardNumber: cardNumber,
		playerName: playerName,
		playerSlug: playerSlug,
		slug:       canonical,
		teamAbbr:   teamAbbr,
	}, nil
}

func (s *service) validateUpdateInput(input UpdateInput) (normalizedUpdateInput, error) {
	errs := FieldErrors{}
	var normalized normalizedUpdateInput

	if input.SetName != nil {
		trimmed := strings.TrimSpace(*input.SetName)
		if trimmed == "" {
			errs.add("setName", "setName is required")
		} else {
			normalized.setName = &trimmed
		}
	}

	if input.PlayerName != nil {
		trimmed := strings.TrimSpace(*input.PlayerName)
		normalized.playerName = &trimmed
	}

	if input.Attributes != nil {
		if err := s.attrs.Validate(input.Attributes); err != nil {
			errs.add("attributes", err.Error())
		}
	}

	if input.SetName == nil && input.PlayerName == nil && input.Attributes == nil {
		errs.add("body", "at least one field must be provided")
	}

	if len(errs) > 0 {
		return normalizedUpdateInput{}, &ValidationError{Fields: errs}
	}

	return normalized, nil
}

func mapCard(record persistence.Card) Card {
	return Card{
		ID:         record.CardID,
		SetName:    record.SetName,
		CardNumber: record.CardNumber,
		PlayerName: record.PlayerName,
		PlayerSlug: record.PlayerSlug,
		Slug:       record.Slug,
		TeamAbbr:   record.TeamAbbr,
		Attributes: record.Attributes,
		ImagePath:  record.ImagePath,
		CreatedAt:  record.CreatedAt,
		UpdatedAt:  record.UpdatedAt,
		DeletedAt:  record.DeletedAt,
	}
}

func mapCards(records []persistence.Card) []Card {
	cards := make([]Card, 0, len(records))
	for _, record := range records {
		cards = append(cards, mapCard(record))
	}
	return cards
}

func (f FieldErrors) add(field, message string) {
	if _, ok := f[field]; !ok {
		f[field] = []string{message}
		return
	}
	f[field] = append(f[field], message)
}
