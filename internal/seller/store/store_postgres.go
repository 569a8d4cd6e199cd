package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"medidrop/internal/docstore"
	"medidrop/internal/seller/models"
	"medidrop/pkg/domain"
	"medidrop/pkg/platform/sentinel"
)

// Postgres persists sellers in PostgreSQL.
//
// Schema:
//
//	CREATE TABLE sellers (
//	    id                  UUID PRIMARY KEY,
//	    display_name        TEXT NOT NULL,
//	    country_code        TEXT NOT NULL,
//	    state               TEXT NOT NULL,
//	    license_number      TEXT NOT NULL DEFAULT '',
//	    license_expiry      TIMESTAMPTZ,
//	    tax_number          TEXT NOT NULL DEFAULT '',
//	    license_doc_ref     TEXT NOT NULL DEFAULT '',
//	    pharmacist_id_refs  TEXT[] NOT NULL DEFAULT '{}',
//	    last_registry_check TIMESTAMPTZ,
//	    created_at          TIMESTAMPTZ NOT NULL,
//	    updated_at          TIMESTAMPTZ NOT NULL
//	);
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const sellerColumns = `
	id, display_name, country_code, state, license_number, license_expiry,
	tax_number, license_doc_ref, pharmacist_id_refs, last_registry_check,
	created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, seller *models.Seller) error {
	const query = `
		INSERT INTO sellers (` + sellerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := s.db.ExecContext(ctx, query, sellerArgs(seller)...)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert seller: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id domain.SellerID) (*models.Seller, error) {
	const query = `SELECT ` + sellerColumns + ` FROM sellers WHERE id = $1`
	row := s.db.QueryRowContext(ctx, query, uuid.UUID(id))
	seller, err := scanSeller(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find seller: %w", err)
	}
	return seller, nil
}

func (s *Postgres) ListByState(ctx context.Context, state models.VerificationState) ([]*models.Seller, error) {
	const query = `SELECT ` + sellerColumns + ` FROM sellers WHERE state = $1 ORDER BY created_at`
	rows, err := s.db.QueryContext(ctx, query, string(state))
	if err != nil {
		return nil, fmt.Errorf("list sellers by state: %w", err)
	}
	defer rows.Close()

	var out []*models.Seller
	for rows.Next() {
		seller, err := scanSeller(rows)
		if err != nil {
			return nil, fmt.Errorf("scan seller: %w", err)
		}
		out = append(out, seller)
	}
	return out, rows.Err()
}

// Execute loads the seller FOR UPDATE inside a transaction, runs validate
// then mutate, and writes the result back. The row lock spans the whole
// validate-then-mutate pair.
func (s *Postgres) Execute(ctx context.Context, id domain.SellerID,
	validate func(*models.Seller) error,
	mutate func(*models.Seller)) (*models.Seller, error) {

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin seller tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const query = `SELECT ` + sellerColumns + ` FROM sellers WHERE id = $1 FOR UPDATE`
	row := tx.QueryRowContext(ctx, query, uuid.UUID(id))
	seller, err := scanSeller(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("lock seller: %w", err)
	}

	if err := validate(seller); err != nil {
		return nil, err
	}
	mutate(seller)

	const update = `
		UPDATE sellers SET
			display_name = $2, country_code = $3, state = $4,
			license_number = $5, license_expiry = $6, tax_number = $7,
			license_doc_ref = $8, pharmacist_id_refs = $9,
			last_registry_check = $10, updated_at = $11
		WHERE id = $1
	`
	args := sellerArgs(seller)
	// sellerArgs orders created_at before updated_at; the update skips created_at.
	_, err = tx.ExecContext(ctx, update,
		args[0], args[1], args[2], args[3], args[4], args[5],
		args[6], args[7], args[8], args[9], args[11])
	if err != nil {
		return nil, fmt.Errorf("update seller: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit seller tx: %w", err)
	}
	return seller, nil
}

func sellerArgs(seller *models.Seller) []any {
	refs := make([]string, len(seller.PharmacistIDRefs))
	for i, r := range seller.PharmacistIDRefs {
		refs[i] = r.String()
	}
	return []any{
		uuid.UUID(seller.ID),
		seller.DisplayName,
		seller.CountryCode.String(),
		string(seller.State),
		seller.LicenseNumber,
		seller.LicenseExpiry,
		seller.TaxNumber,
		seller.LicenseDocRef.String(),
		pq.Array(refs),
		seller.LastRegistryCheck,
		seller.CreatedAt,
		seller.UpdatedAt,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSeller(row rowScanner) (*models.Seller, error) {
	var (
		seller      models.Seller
		id          uuid.UUID
		countryCode string
		state       string
		licenseDoc  string
		refs        pq.StringArray
	)
	if err := row.Scan(
		&id, &seller.DisplayName, &countryCode, &state,
		&seller.LicenseNumber, &seller.LicenseExpiry, &seller.TaxNumber,
		&licenseDoc, &refs, &seller.LastRegistryCheck,
		&seller.CreatedAt, &seller.UpdatedAt,
	); err != nil {
		return nil, err
	}
	seller.ID = domain.SellerID(id)
	seller.CountryCode = domain.CountryCode(countryCode)
	seller.State = models.VerificationState(state)
	seller.LicenseDocRef = docstore.Ref(licenseDoc)
	seller.PharmacistIDRefs = make([]docstore.Ref, len(refs))
	for i, r := range refs {
		seller.PharmacistIDRefs[i] = docstore.Ref(r)
	}
	return &seller, nil
}
