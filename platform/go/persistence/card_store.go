package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const CardTable = "cards"

// Card is the catalog record for a single card in a set. CardNumber is stored in its
// uppercase canonical form and PlayerSlug lowercase, matching what the slug engine
// produces, so lookups never need case folding at query time.
type Card struct {
	CardID     uuid.UUID  `db:"card_id" json:"cardId"`
	SetName    string     `db:"set_name" json:"setName"`
	CardNumber string     `db:"card_number" json:"cardNumber"`
	PlayerName string     `db:"player_name" json:"playerName"`
	PlayerSlug string     `db:"player_slug" json:"playerSlug"`
	Slug       string     `db:"slug" json:"slug"`
	TeamAbbr   *string    `db:"team_abbr" json:"teamAbbr,omitempty"`
	Attributes []byte     `db:"attributes" json:"attributes,omitempty"`
	ImagePath  *string    `db:"image_path" json:"imagePath,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updatedAt"`
	DeletedAt  *time.Time `db:"deleted_at" json:"deletedAt,omitempty"`
}

var (
	// ErrCardNotFound indicates the requested card does not exist or is soft-deleted.
	ErrCardNotFound = errors.New("card not found")
	// ErrCardConflict indicates a uniqueness violation (slug already exists).
	ErrCardConflict = errors.New("card conflict")
)

// CardStore persists catalog cards on the shared pgx pool.
type CardStore struct {
	pool *pgxpool.Pool
}

func NewCardStore(ctx context.Context, pool *pgxpool.Pool) (*CardStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}

	return &CardStore{pool: pool}, nil
}

type CreateCardParams struct {
	CardID     uuid.UUID
	SetName    string
	CardNumber string
	PlayerName string
	PlayerSlug string
	Slug       string
	TeamAbbr   *string
	Attributes []byte
}

func (s *CardStore) CreateCard(ctx context.Context, params CreateCardParams) (Card, error) {
	if params.CardID == uuid.Nil {
		return Card{}, errors.New("card id is required")
	}
	if strings.TrimSpace(params.SetName) == "" {
		return Card{}, errors.New("set name is required")
	}
	if strings.TrimSpace(params.CardNumber) == "" {
		return Card{}, errors.New("card number is required")
	}

	slug, err := NormalizeSlug(params.Slug)
	if err != nil {
		return Card{}, err
	}

	if _, err = s.pool.Exec(ctx, `
		INSERT INTO cards (
			card_id, set_name, card_number, player_name, player_slug, slug,
			team_abbr, attributes, image_path, created_at, updated_at, deleted_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, NULL, NOW(), NOW(), NULL
		)
	`, params.CardID, params.SetName, strings.ToUpper(params.CardNumber),
		params.PlayerName, strings.ToLower(params.PlayerSlug), slug,
		params.TeamAbbr, params.Attributes); err != nil {
		if isUniqueViolation(err) {
			return Card{}, ErrCardConflict
		}
		return Card{}, fmt.Errorf("insert card: %w", err)
	}

	return s.GetCard(ctx, params.CardID)
}

func (s *CardStore) GetCard(ctx context.Context, cardID uuid.UUID) (Card, error) {
	row := s.pool.QueryRow(ctx, cardSelect+`
		WHERE card_id = $1 AND deleted_at IS NULL
	`, cardID)

	card, err := scanCard(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Card{}, ErrCardNotFound
		}
		return Card{}, err
	}

	return card, nil
}

// GetCardBySlug fetches a card by its exact canonical slug.
func (s *CardStore) GetCardBySlug(ctx context.Context, slug string) (Card, error) {
	row := s.pool.QueryRow(ctx, cardSelect+`
		WHERE slug = $1 AND deleted_at IS NULL
	`, strings.ToLower(slug))

	card, err := scanCard(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Card{}, ErrCardNotFound
		}
		return Card{}, err
	}

	return card, nil
}

// FindByNumber returns active cards whose card number matches exactly, optionally
// narrowed by player slug when several cards share a number (multi-player sets).
func (s *CardStore) FindByNumber(ctx context.Context, cardNumber, playerSlug string) ([]Card, error) {
	rows, err := s.pool.Query(ctx, cardSelect+`
		WHERE card_number = $1
		  AND ($2 = '' OR player_slug = $2)
		  AND deleted_at IS NULL
		ORDER BY set_name ASC, player_slug ASC
	`, strings.ToUpper(cardNumber), strings.ToLower(playerSlug))
	if err != nil {
		return nil, fmt.Errorf("find cards by number: %w", err)
	}
	defer rows.Close()

	return collectCards(rows)
}

// FindByNumberPrefix matches cards whose number begins with the given prefix followed
// by a hyphen. Used as a second-chance lookup when the decomposition guessed a shorter
// number than what is stored.
func (s *CardStore) FindByNumberPrefix(ctx context.Context, prefix string) ([]Card, error) {
	rows, err := s.pool.Query(ctx, cardSelect+`
		WHERE card_number LIKE $1 || '-%'
		  AND deleted_at IS NULL
		ORDER BY set_name ASC, card_number ASC
	`, strings.ToUpper(prefix))
	if err != nil {
		return nil, fmt.Errorf("find cards by number prefix: %w", err)
	}
	defer rows.Close()

	return collectCards(rows)
}

type ListCardsParams struct {
	SetName    *string
	PlayerSlug *string
	Limit      int
	Offset     int
}

func (s *CardStore) ListCards(ctx context.Context, params ListCardsParams) ([]Card, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx, cardSelect+`
		WHERE ($1::text IS NULL OR set_name = $1)
		  AND ($2::text IS NULL OR player_slug = $2)
		  AND deleted_at IS NULL
		ORDER BY set_name ASC, card_number ASC
		LIMIT $3 OFFSET $4
	`, params.SetName, params.PlayerSlug, limit, params.Offset)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	return collectCards(rows)
}

type UpdateCardParams struct {
	SetName    *string
	PlayerName *string
	Attributes []byte
	ImagePath  *string
}

func (s *CardStore) UpdateCard(ctx context.Context, cardID uuid.UUID, params UpdateCardParams) (Card, error) {
	if cardID == uuid.Nil {
		return Card{}, errors.New("card id is required")
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Card{}, fmt.Errorf("begin update card tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	row := tx.QueryRow(ctx, cardSelect+`
		WHERE card_id = $1 AND deleted_at IS NULL
		FOR UPDATE
	`, cardID)

	current, err := scanCard(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Card{}, ErrCardNotFound
		}
		return Card{}, fmt.Errorf("load card: %w", err)
	}

	setName := current.SetName
	if params.SetName != nil {
		trimmed := strings.TrimSpace(*params.SetName)
		if trimmed == "" {
			return Card{}, errors.New("set name is required")
		}
		setName = trimmed
	}

	playerName := current.PlayerName
	if params.PlayerName != nil {
		playerName = strings.TrimSpace(*params.PlayerName)
	}

	attributes := current.Attributes
	if params.Attributes != nil {
		attributes = params.Attributes
	}

	imagePath := current.ImagePath
	if params.ImagePath != nil {
		imagePath = params.ImagePath
	}

	if _, err = tx.Exec(ctx, `
		UPDATE cards
		SET set_name = $2,
		    player_name = $3,
		    attributes = $4,
		    image_path = $5,
		    updated_at = NOW()
		WHERE card_id = $1
	`, cardID, setName, playerName, attributes, imagePath); err != nil {
		return Card{}, fmt.Errorf("update card: %w", err)
	}

	row = tx.QueryRow(ctx, cardSelect+`
		WHERE card_id = $1
	`, cardID)

	card, err := scanCard(row)
	if err != nil {
		return Card{}, fmt.Errorf("fetch updated card: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return Card{}, fmt.Errorf("commit update card tx: %w", err)
	}

	return card, nil
}

func (s *CardStore) SoftDeleteCard(ctx context.Context, cardID uuid.UUID, deletedAt time.Time) error {
	if deletedAt.IsZero() {
		deletedAt = time.Now().UTC()
	}

	result, err := s.pool.Exec(ctx, `
		UPDATE cards
		SET deleted_at = $2,
		    updated_at = NOW()
		WHERE card_id = $1 AND deleted_at IS NULL
	`, cardID, deletedAt)
	if err != nil {
		return fmt.Errorf("soft delete card: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrCardNotFound
	}

	return nil
}

const cardSelect = `
	SELECT card_id, set_name, card_number, player_name, player_slug, slug,
	       team_abbr, attributes, image_path, created_at, updated_at, deleted_at
	FROM cards`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(scanner rowScanner) (Card, error) {
	var (
		cardID     uuid.UUID
		setName    string
		cardNumber string
		playerName string
		playerSlug string
		slug       string
		teamAbbr   pgtype.Text
		attributes []byte
		imagePath  pgtype.Text
		createdAt  time.Time
		updatedAt  time.Time
		deletedAt  pgtype.Timestamptz
	)

	if err := scanner.Scan(&cardID, &setName, &cardNumber, &playerName, &playerSlug,
		&slug, &teamAbbr, &attributes, &imagePath, &createdAt, &updatedAt, &deletedAt); err != nil {
		return Card{}, err
	}

	card := Card{
		CardID:     cardID,
		SetName:    setName,
		CardNumber: cardNumber,
		PlayerName: playerName,
		PlayerSlug: playerSlug,
		Slug:       slug,
		Attributes: attributes,
		CreatedAt:  createdAt,
		UpdatedAt:  updatedAt,
	}

	if teamAbbr.Valid {
		v := teamAbbr.String
		card.TeamAbbr = &v
	}
	if imagePath.Valid {
		v := imagePath.String
		card.ImagePath = &v
	}
	if deletedAt.Valid {
		ts := deletedAt.Time
		card.DeletedAt = &ts
	}

	return card, nil
}

func collectCards(rows pgx.Rows) ([]Card, error) {
	var cards []Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cards: %w", err)
	}

	return cards, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
