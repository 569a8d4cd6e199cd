// Package domain holds the shared identifier and jurisdiction types used
// across the trust core. Keeping them here avoids import cycles between
// the seller, catalog and prescription features.
package domain

import "github.com/google/uuid"

// SellerID identifies a seller aggregate.
type SellerID uuid.UUID

func NewSellerID() SellerID { return SellerID(uuid.New()) }

func (id SellerID) String() string { return uuid.UUID(id).String() }

func (id SellerID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// ParseSellerID parses a seller ID from its string form.
func ParseSellerID(s string) (SellerID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return SellerID{}, err
	}
	return SellerID(u), nil
}

// ListingID identifies a product listing.
type ListingID uuid.UUID

func NewListingID() ListingID { return ListingID(uuid.New()) }

func (id ListingID) String() string { return uuid.UUID(id).String() }

func (id ListingID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// ParseListingID parses a listing ID from its string form.
func ParseListingID(s string) (ListingID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ListingID{}, err
	}
	return ListingID(u), nil
}

// PrescriptionID identifies a prescription request.
type PrescriptionID uuid.UUID

func NewPrescriptionID() PrescriptionID { return PrescriptionID(uuid.New()) }

func (id PrescriptionID) String() string { return uuid.UUID(id).String() }

func (id PrescriptionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// ParsePrescriptionID parses a prescription ID from its string form.
func ParsePrescriptionID(s string) (PrescriptionID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return PrescriptionID{}, err
	}
	return PrescriptionID(u), nil
}
