package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"medidrop/internal/catalog/models"
	"medidrop/pkg/domain"
	"medidrop/pkg/platform/sentinel"
)

// Postgres persists listings in PostgreSQL.
//
// Schema:
//
//	CREATE TABLE product_listings (
//	    id                 UUID PRIMARY KEY,
//	    seller_id          UUID NOT NULL,
//	    name               TEXT NOT NULL,
//	    description        TEXT NOT NULL DEFAULT '',
//	    product_class      TEXT NOT NULL,
//	    cold_chain_capable BOOLEAN NOT NULL,
//	    price_minor        BIGINT NOT NULL DEFAULT 0,
//	    currency           TEXT NOT NULL DEFAULT '',
//	    tags               TEXT[] NOT NULL DEFAULT '{}',
//	    state              TEXT NOT NULL,
//	    pause_reason       TEXT NOT NULL DEFAULT '',
//	    created_at         TIMESTAMPTZ NOT NULL,
//	    updated_at         TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX product_listings_seller_idx ON product_listings (seller_id);
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const listingColumns = `
	id, seller_id, name, description, product_class, cold_chain_capable,
	price_minor, currency, tags, state, pause_reason, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, listing *models.ProductListing) error {
	const query = `
		INSERT INTO product_listings (` + listingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	tags := make([]string, len(listing.Tags))
	copy(tags, listing.Tags)
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(listing.ID), uuid.UUID(listing.SellerID), listing.Name,
		listing.Description, listing.Class.String(), listing.ColdChainCapable,
		listing.PriceMinor, listing.Currency, pq.Array(tags),
		string(listing.State), listing.PauseReason, listing.CreatedAt,
		listing.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert listing: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id domain.ListingID) (*models.ProductListing, error) {
	const query = `SELECT ` + listingColumns + ` FROM product_listings WHERE id = $1`
	listing, err := scanListing(s.db.QueryRowContext(ctx, query, uuid.UUID(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find listing: %w", err)
	}
	return listing, nil
}

func (s *Postgres) ListBySeller(ctx context.Context, sellerID domain.SellerID) ([]*models.ProductListing, error) {
	const query = `SELECT ` + listingColumns + ` FROM product_listings WHERE seller_id = $1 ORDER BY created_at`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(sellerID))
	if err != nil {
		return nil, fmt.Errorf("list listings by seller: %w", err)
	}
	defer rows.Close()

	var out []*models.ProductListing
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		out = append(out, listing)
	}
	return out, rows.Err()
}

// Execute loads the listing FOR UPDATE inside a transaction, runs validate
// then mutate, and writes the result back.
func (s *Postgres) Execute(ctx context.Context, id domain.ListingID,
	validate func(*models.ProductListing) error,
	mutate func(*models.ProductListing)) (*models.ProductListing, error) {

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin listing tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const query = `SELECT ` + listingColumns + ` FROM product_listings WHERE id = $1 FOR UPDATE`
	listing, err := scanListing(tx.QueryRowContext(ctx, query, uuid.UUID(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("lock listing: %w", err)
	}

	if err := validate(listing); err != nil {
		return nil, err
	}
	mutate(listing)

	const update = `
		UPDATE product_listings SET
			state = $2, pause_reason = $3, cold_chain_capable = $4,
			updated_at = $5
		WHERE id = $1
	`
	_, err = tx.ExecContext(ctx, update,
		uuid.UUID(listing.ID), string(listing.State), listing.PauseReason,
		listing.ColdChainCapable, listing.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update listing: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit listing tx: %w", err)
	}
	return listing, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanListing(row rowScanner) (*models.ProductListing, error) {
	var (
		listing  models.ProductListing
		id       uuid.UUID
		sellerID uuid.UUID
		class    string
		state    string
		tags     pq.StringArray
	)
	if err := row.Scan(
		&id, &sellerID, &listing.Name, &listing.Description, &class,
		&listing.ColdChainCapable, &listing.PriceMinor, &listing.Currency,
		&tags, &state, &listing.PauseReason, &listing.CreatedAt,
		&listing.UpdatedAt,
	); err != nil {
		return nil, err
	}
	listing.Tags = []string(tags)
	listing.ID = domain.ListingID(id)
	listing.SellerID = domain.SellerID(sellerID)
	listing.Class = domain.ProductClass(class)
	listing.State = models.ListingState(state)
	return &listing, nil
}
