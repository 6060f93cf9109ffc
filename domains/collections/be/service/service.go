package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	domainrepo "github.com/cardledger/cardledger/domains/collections/be/repo"
	"github.com/cardledger/cardledger/platform/go/persistence"
	"github.com/cardledger/cardledger/platform/go/requesttrace"
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
	ErrNotFound     = errors.New("collection entry not found")
	ErrConflict     = errors.New("collection entry conflict")
	ErrUnauthorized = errors.New("authenticated user required")
)

// Conditions accepted for a collection entry, roughly the standard grading ladder.
var allowedConditions = map[string]struct{}{
	"gem-mint":  {},
	"mint":      {},
	"near-mint": {},
	"excellent": {},
	"good":      {},
	"fair":      {},
	"poor":      {},
}

// Entry represents a card tracked in a user's collection.
type Entry struct {
	ID         uuid.UUID
	UserID     string
	CardID     uuid.UUID
	Quantity   int
	Condition  string
	Grade      *string
	Notes      *string
	AcquiredAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CreateInput defines the payload required to track a card.
type CreateInput struct {
	CardID     uuid.UUID
	Quantity   int
	Condition  string
	Grade      *string
	Notes      *string
	AcquiredAt *time.Time
}

// UpdateInput defines the fields that can be modified on an existing entry.
type UpdateInput struct {
	Quantity   *int
	Condition  *string
	Grade      *string
	Notes      *string
	AcquiredAt *time.Time
}

// Service exposes the collections domain operations. All operations act on the
// collection of the authenticated user carried in the audit info.
type Service interface {
	List(ctx context.Context, audit requesttrace.AuditInfo, limit, offset int) ([]Entry, error)
	Create(ctx context.Context, audit requesttrace.AuditInfo, input CreateInput) (Entry, error)
	Get(ctx context.Context, audit requesttrace.AuditInfo, entryID uuid.UUID) (Entry, error)
	Update(ctx context.Context, audit requesttrace.AuditInfo, entryID uuid.UUID, input UpdateInput) (Entry, error)
	Delete(ctx context.Context, audit requesttrace.AuditInfo, entryID uuid.UUID) error
}

type service struct {
	repo domainrepo.Repository
	now  func() time.Time
}

// New builds a collections Service backed by the provided repository.
func New(repo domainrepo.Repository) Service {
	if repo == nil {
		panic("collections repository is required")
	}

	return &service{
		repo: repo,
		now:  time.Now,
	}
}

func (s *service) List(ctx context.Context, audit requesttrace.AuditInfo, limit, offset int) ([]Entry, error) {
	userID, err := requireUser(audit)
	if err != nil {
		return nil, err
	}

	records, err := s.repo.List(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(records))
	for _, record := range records {
		entries = append(entries, mapEntry(record))
	}

	return entries, nil
}

func (s *service) Create(ctx context.Context, audit requesttrace.AuditInfo, input CreateInput) (Entry, error) {
	userID, err := requireUser(audit)
	if err != nil {
		return Entry{}, err
	}

	normalized, validationErr := validateCreateInput(input)
	if validationErr != nil {
		return Entry{}, validationErr
	}

	params := persistence.CreateEntryParams{
		EntryID:    uuid.New(),
		UserID:     userID,
		CardID:     input.CardID,
		Quantity:   normalized.quantity,
		Condition:  normalized.condition,
		Grade:      input.Grade,
		Notes:      input.Notes,
		AcquiredAt: input.AcquiredAt,
	}

	record, err := s.repo.Create(ctx, params)
	if err != nil {
		if errors.Is(err, persistence.ErrEntryConflict) {
			return Entry{}, ErrConflict
		}
		return Entry{}, err
	}

	return mapEntry(record), nil
}

func (s *service) Get(ctx context.Context, audit requesttrace.AuditInfo, entryID uuid.UUID) (Entry, error) {
	userID, err := requireUser(audit)
	if err != nil {
		return Entry{}, err
	}

	record, err := s.repo.Get(ctx, userID, entryID)
	if err != nil {
		if errors.Is(err, persistence.ErrEntryNotFound) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, err
	}

	return mapEntry(record), nil
}

func (s *service) Update(ctx context.Context, audit requesttrace.AuditInfo, entryID uuid.UUID, input UpdateInput) (Entry, error) {
	userID, err := requireUser(audit)
	if err != nil {
		return Entry{}, err
	}

	if entryID == uuid.Nil {
		return Entry{}, ErrNotFound
	}

	normalized, validationErr := validateUpdateInput(input)
	if validationErr != nil {
		return Entry{}, validationErr
	}

	params := persistence.UpdateEntryParams{
		Quantity:   normalized.quantity,
		Condition:  normalized.condition,
		Grade:      input.Grade,
		Notes:      input.Notes,
		AcquiredAt: input.AcquiredAt,
	}

	record, err := s.repo.Update(ctx, userID, entryID, params)
	if err != nil {
		switch {
		case errors.Is(err, persistence.ErrEntryNotFound):
			return Entry{}, ErrNotFound
		case errors.Is(err, persistence.ErrEntryConflict):
			return Entry{}, ErrConflict
		default:
			return Entry{}, err
		}
	}

	return mapEntry(record), nil
}

func (s *service) Delete(ctx context.Context, audit requesttrace.AuditInfo, entryID uuid.UUID) error {
	userID, err := requireUser(audit)
	if err != nil {
		return err
	}

	if entryID == uuid.Nil {
		return ErrNotFound
	}

	if err := s.repo.Delete(ctx, userID, entryID); err != nil {
		if errors.Is(err, persistence.ErrEntryNotFound) {
			return ErrNotFound
		}
		return err
	}

	return nil
}

func requireUser(audit requesttrace.AuditInfo) (string, error) {
	if audit.ActorKind != requesttrace.ActorKindUser || audit.UserID == nil || *audit.UserID == "" {
		return "", ErrUnauthorized
	}
	return *audit.UserID, nil
}

type normalizedCreateInput struct {
	quantity  int
	condition string
}

type normalizedUpdateInput struct {
	quantity  *int
	condition *string
}

func validateCreateInput(input CreateInput) (normalizedCreateInput, error) {
	errs := FieldErrors{}

	if input.CardID == uuid.Nil {
		errs.add("cardId", "cardId is required")
	}

	quantity := input.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 1 {
		errs.add("quantity", "quantity must be at least 1")
	}

	condition, err := normalizeCondition(input.Condition)
	if err != nil {
		errs.add("condition", err.Error())
	}

	if len(errs) > 0 {
		return normalizedCreateInput{}, &ValidationError{Fields: errs}
	}

	return normalizedCreateInput{quantity: quantity, condition: condition}, nil
}

func validateUpdateInput(input UpdateInput) (normalizedUpdateInput, error) {
	errs := FieldErrors{}
	var normalized normalizedUpdateInput

	if input.Quantity != nil {
		if *input.Quantity < 1 {
			errs.add("quantity", "quantity must be at least 1")
		} else {
			normalized.quantity = input.Quantity
		}
	}

	if input.Condition != nil {
		condition, err := normalizeCondition(*input.Condition)
		if err != nil {
			errs.add("condition", err.Error())
		} else {
			normalized.condition = &condition
		}
	}

	if input.Quantity == nil && input.Condition == nil && input.Grade == nil &&
		input.Notes == nil && input.AcquiredAt == nil {
		errs.add("body", "at least one field must be provided")
	}

	if len(errs) > 0 {
		return normalizedUpdateInput{}, &ValidationError{Fields: errs}
	}

	return normalized, nil
}

func normalizeCondition(condition string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(condition))
	if normalized == "" {
		return "", errors.New("condition is required")
	}
	if _, ok := allowedConditions[normalized]; !ok {
		return "", errors.New("condition must be one of: gem-mint, mint, near-mint, excellent, good, fair, poor")
	}
	return normalized, nil
}

func mapEntry(record persistence.CollectionEntry) Entry {
	return Entry{
		ID:         record.EntryID,
		UserID:     record.UserID,
		CardID:     record.CardID,
		Quantity:   record.Quantity,
		Condition:  record.Condition,
		Grade:      record.Grade,
		Notes:      record.Notes,
		AcquiredAt: record.AcquiredAt,
		CreatedAt:  record.CreatedAt,
		UpdatedAt:  record.UpdatedAt,
	}
}

func (f FieldErrors) add(field, message string) {
	if _, ok := f[field]; !ok {
		f[field] = []string{message}
		return
	}
	f[field] = append(f[field], message)
}
