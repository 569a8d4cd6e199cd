package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"medidrop/internal/docstore"
	"medidrop/internal/prescription/models"
	"medidrop/pkg/domain"
	"medidrop/pkg/platform/sentinel"
)

// Postgres persists prescriptions in PostgreSQL.
//
// Schema:
//
//	CREATE TABLE prescriptions (
//	    id             UUID PRIMARY KEY,
//	    listing_id     UUID NOT NULL,
//	    buyer_id       TEXT NOT NULL,
//	    buyer_country  TEXT NOT NULL,
//	    patient_name   TEXT NOT NULL,
//	    physician_name TEXT NOT NULL,
//	    doc_ref        TEXT NOT NULL,
//	    notes          TEXT NOT NULL DEFAULT '',
//	    state          TEXT NOT NULL,
//	    reviewer_id    TEXT NOT NULL DEFAULT '',
//	    review_note    TEXT NOT NULL DEFAULT '',
//	    reviewed_at    TIMESTAMPTZ,
//	    created_at     TIMESTAMPTZ NOT NULL,
//	    updated_at     TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX prescriptions_buyer_idx ON prescriptions (buyer_id);
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const prescriptionColumns = `
	id, listing_id, buyer_id, buyer_country, patient_name, physician_name,
	doc_ref, notes, state, reviewer_id, review_note, reviewed_at,
	created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, p *models.Prescription) error {
	const query = `
		INSERT INTO prescriptions (` + prescriptionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(p.ID), uuid.UUID(p.ListingID), p.BuyerID,
		p.BuyerCountry.String(), p.PatientName, p.PhysicianName,
		p.DocRef.String(), p.Notes, string(p.State),
		p.ReviewerID, p.ReviewNote, p.ReviewedAt, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert prescription: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id domain.PrescriptionID) (*models.Prescription, error) {
	const query = `SELECT ` + prescriptionColumns + ` FROM prescriptions WHERE id = $1`
	p, err := scanPrescription(s.db.QueryRowContext(ctx, query, uuid.UUID(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find prescription: %w", err)
	}
	return p, nil
}

func (s *Postgres) ListByBuyer(ctx context.Context, buyerID string) ([]*models.Prescription, error) {
	const query = `SELECT ` + prescriptionColumns + ` FROM prescriptions WHERE buyer_id = $1 ORDER BY created_at`
	return s.list(ctx, query, buyerID)
}

func (s *Postgres) ListByState(ctx context.Context, state models.State) ([]*models.Prescription, error) {
	const query = `SELECT ` + prescriptionColumns + ` FROM prescriptions WHERE state = $1 ORDER BY created_at`
	return s.list(ctx, query, string(state))
}

func (s *Postgres) list(ctx context.Context, query string, arg any) ([]*models.Prescription, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list prescriptions: %w", err)
	}
	defer rows.Close()

	var out []*models.Prescription
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan prescription: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Execute loads the prescription FOR UPDATE inside a transaction, runs
// validate then mutate, and writes the result back.
func (s *Postgres) Execute(ctx context.Context, id domain.PrescriptionID,
	validate func(*models.Prescription) error,
	mutate func(*models.Prescription)) (*models.Prescription, error) {

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin prescription tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const query = `SELECT ` + prescriptionColumns + ` FROM prescriptions WHERE id = $1 FOR UPDATE`
	p, err := scanPrescription(tx.QueryRowContext(ctx, query, uuid.UUID(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("lock prescription: %w", err)
	}

	if err := validate(p); err != nil {
		return nil, err
	}
	mutate(p)

	const update = `
		UPDATE prescriptions SET
			state = $2, reviewer_id = $3, review_note = $4, reviewed_at = $5,
			updated_at = $6
		WHERE id = $1
	`
	_, err = tx.ExecContext(ctx, update,
		uuid.UUID(p.ID), string(p.State), p.ReviewerID, p.ReviewNote,
		p.ReviewedAt, p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update prescription: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit prescription tx: %w", err)
	}
	return p, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPrescription(row rowScanner) (*models.Prescription, error) {
	var (
		p         models.Prescription
		id        uuid.UUID
		listingID uuid.UUID
		country   string
		docRef    string
		state     string
	)
	if err := row.Scan(
		&id, &listingID, &p.BuyerID, &country, &p.PatientName, &p.PhysicianName,
		&docRef, &p.Notes, &state,
		&p.ReviewerID, &p.ReviewNote, &p.ReviewedAt, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.ID = domain.PrescriptionID(id)
	p.ListingID = domain.ListingID(listingID)
	p.BuyerCountry = domain.CountryCode(country)
	p.DocRef = docstore.Ref(docRef)
	p.State = models.State(state)
	return &p, nil
}
