package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const CollectionEntryTable = "collection_entries"

// CollectionEntry records one card a user owns: how many copies, in what condition,
// and any grading info.
type CollectionEntry struct {
	EntryID    uuid.UUID  `db:"entry_id" json:"entryId"`
	UserID     string     `db:"user_id" json:"userId"`
	CardID     uuid.UUID  `db:"card_id" json:"cardId"`
	Quantity   int        `db:"quantity" json:"quantity"`
	Condition  string     `db:"condition" json:"condition"`
	Grade      *string    `db:"grade" json:"grade,omitempty"`
	Notes      *string    `db:"notes" json:"notes,omitempty"`
	AcquiredAt *time.Time `db:"acquired_at" json:"acquiredAt,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updatedAt"`
}

var (
	// ErrEntryNotFound indicates the entry does not exist or belongs to another user.
	ErrEntryNotFound = errors.New("collection entry not found")
	// ErrEntryConflict indicates the user already tracks this card with the same condition.
	ErrEntryConflict = errors.New("collection entry conflict")
)

// CollectionStore persists per-user collection entries. Every query is scoped by
// user_id; entries are never visible across users.
type CollectionStore struct {
	pool *pgxpool.Pool
}

func NewCollectionStore(ctx context.Context, pool *pgxpool.Pool) (*CollectionStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}

	return &CollectionStore{pool: pool}, nil
}

type CreateEntryParams struct {
	EntryID    uuid.UUID
	UserID     string
	CardID     uuid.UUID
	Quantity   int
	Condition  string
	Grade      *string
	Notes      *string
	AcquiredAt *time.Time
}

func (s *CollectionStore) CreateEntry(ctx context.Context, params CreateEntryParams) (CollectionEntry, error) {
	if params.EntryID == uuid.Nil {
		return CollectionEntry{}, errors.New("entry id is required")
	}
	if strings.TrimSpace(params.UserID) == "" {
		return CollectionEntry{}, errors.New("user id is required")
	}
	if params.CardID == uuid.Nil {
		return CollectionEntry{}, errors.New("card id is required")
	}
	if params.Quantity < 1 {
		return CollectionEntry{}, errors.New("quantity must be at least 1")
	}

	if _, err := s.pool.Exec(ctx, `
		INSERT INTO collection_entries (
			entry_id, user_id, card_id, quantity, condition, grade, notes,
			acquired_at, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW()
		)
	`, params.EntryID, params.UserID, params.CardID, params.Quantity,
		params.Condition, params.Grade, params.Notes, params.AcquiredAt); err != nil {
		if isUniqueViolation(err) {
			return CollectionEntry{}, ErrEntryConflict
		}
		return CollectionEntry{}, fmt.Errorf("insert collection entry: %w", err)
	}

	return s.GetEntry(ctx, params.UserID, params.EntryID)
}

func (s *CollectionStore) GetEntry(ctx context.Context, userID string, entryID uuid.UUID) (CollectionEntry, error) {
	row := s.pool.QueryRow(ctx, entrySelect+`
		WHERE entry_id = $1 AND user_id = $2
	`, entryID, userID)

	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CollectionEntry{}, ErrEntryNotFound
		}
		return CollectionEntry{}, err
	}

	return entry, nil
}

func (s *CollectionStore) ListEntries(ctx context.Context, userID string, limit, offset int) ([]CollectionEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx, entrySelect+`
		WHERE user_id = $1
		ORDER BY created_at ASC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list collection entries: %w", err)
	}
	defer rows.Close()

	var entries []CollectionEntry
	for rows.Next() {
		entry, scanErr := scanEntry(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate collection entries: %w", err)
	}

	return entries, nil
}

type UpdateEntryParams struct {
	Quantity   *int
	Condition  *string
	Grade      *string
	Notes      *string
	AcquiredAt *time.Time
}

func (s *CollectionStore) UpdateEntry(ctx context.Context, userID string, entryID uuid.UUID, params UpdateEntryParams) (CollectionEntry, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return CollectionEntry{}, fmt.Errorf("begin update entry tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	row := tx.QueryRow(ctx, entrySelect+`
		WHERE entry_id = $1 AND user_id = $2
		FOR UPDATE
	`, entryID, userID)

	current, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CollectionEntry{}, ErrEntryNotFound
		}
		return CollectionEntry{}, fmt.Errorf("load collection entry: %w", err)
	}

	quantity := current.Quantity
	if params.Quantity != nil {
		if *params.Quantity < 1 {
			return CollectionEntry{}, errors.New("quantity must be at least 1")
		}
		quantity = *params.Quantity
	}

	condition := current.Condition
	if params.Condition != nil {
		condition = *params.Condition
	}

	grade := current.Grade
	if params.Grade != nil {
		grade = params.Grade
	}

	notes := current.Notes
	if params.Notes != nil {
		notes = params.Notes
	}

	acquiredAt := current.AcquiredAt
	if params.AcquiredAt != nil {
		acquiredAt = params.AcquiredAt
	}

	if _, err = tx.Exec(ctx, `
		UPDATE collection_entries
		SET quantity = $3,
		    condition = $4,
		    grade = $5,
		    notes = $6,
		    acquired_at = $7,
		    updated_at = NOW()
		WHERE entry_id = $1 AND user_id = $2
	`, entryID, userID, quantity, condition, grade, notes, acquiredAt); err != nil {
		return CollectionEntry{}, fmt.Errorf("update collection entry: %w", err)
	}

	row = tx.QueryRow(ctx, entrySelect+`
		WHERE entry_id = $1 AND user_id = $2
	`, entryID, userID)

	entry, err := scanEntry(row)
	if err != nil {
		return CollectionEntry{}, fmt.Errorf("fetch updated collection entry: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return CollectionEntry{}, fmt.Errorf("commit update entry tx: %w", err)
	}

	return entry, nil
}

func (s *CollectionStore) DeleteEntry(ctx context.Context, userID string, entryID uuid.UUID) error {
	result, err := s.pool.Exec(ctx, `
		DELETE FROM collection_entries
		WHERE entry_id = $1 AND user_id = $2
	`, entryID, userID)
	if err != nil {
		return fmt.Errorf("delete collection entry: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrEntryNotFound
	}

	return nil
}

const entrySelect = `
	SELECT entry_id, user_id, card_id, quantity, condition, grade, notes,
	       acquired_at, created_at, updated_at
	FROM collection_entries`

func scanEntry(scanner rowScanner) (CollectionEntry, error) {
	var (
		entryID    uuid.UUID
		userID     string
		cardID     uuid.UUID
		quantity   int
		condition  string
		grade      pgtype.Text
		notes      pgtype.Text
		acquiredAt pgtype.Timestamptz
		createdAt  time.Time
		updatedAt  time.Time
	)

	if err := scanner.Scan(&entryID, &userID, &cardID, &quantity, &condition,
		&grade, &notes, &acquiredAt, &createdAt, &updatedAt); err != nil {
		return CollectionEntry{}, err
	}

	entry := CollectionEntry{
		EntryID:   entryID,
		UserID:    userID,
		CardID:    cardID,
		Quantity:  quantity,
		Condition: condition,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}

	if grade.Valid {
		v := grade.String
		entry.Grade = &v
	}
	if notes.Valid {
		v := notes.String
		entry.Notes = &v
	}
	if acquiredAt.Valid {
		ts := acquiredAt.Time
		entry.AcquiredAt = &ts
	}

	return entry, nil
}
