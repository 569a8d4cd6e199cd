package handler

import (
	"strings"

	"medidrop/internal/docstore"
	"medidrop/internal/prescription/models"
	"medidrop/pkg/domain"
	dErrors "medidrop/pkg/domain-errors"
)

// CreatePrescriptionRequest is the HTTP request body for POST /prescriptions.
type CreatePrescriptionRequest struct {
	ListingID     string `json:"listing_id"`
	BuyerCountry  string `json:"buyer_country"`
	PatientName   string `json:"patient_name"`
	PhysicianName string `json:"physician_name"`
	DocRef        string `json:"doc_ref"`
	Notes         string `json:"notes"`

	parsedListingID    domain.ListingID
	parsedBuyerCountry domain.CountryCode
}

// Validate validates and parses the request.
func (r *CreatePrescriptionRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	listingID, err := domain.ParseListingID(strings.TrimSpace(r.ListingID))
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "listing_id must be a UUID")
	}
	r.parsedListingID = listingID

	country := domain.NormalizeCountry(r.BuyerCountry)
	if !country.Valid() {
		return dErrors.New(dErrors.CodeValidation, "buyer_country must be a two-letter code")
	}
	r.parsedBuyerCountry = country

	r.PatientName = strings.TrimSpace(r.PatientName)
	if r.PatientName == "" {
		return dErrors.New(dErrors.CodeValidation, "patient_name is required")
	}
	r.PhysicianName = strings.TrimSpace(r.PhysicianName)
	if r.PhysicianName == "" {
		return dErrors.New(dErrors.CodeValidation, "physician_name is required")
	}
	if strings.TrimSpace(r.DocRef) == "" {
		return dErrors.New(dErrors.CodeValidation, "doc_ref is required")
	}
	if len(r.Notes) > 1000 {
		return dErrors.New(dErrors.CodeValidation, "notes must be at most 1000 characters")
	}
	return nil
}

// Draft converts the request to the workflow draft. BuyerID is left for
// the service to fill from the request context.
func (r *CreatePrescriptionRequest) Draft() models.Draft {
	return models.Draft{
		ListingID:     r.parsedListingID,
		BuyerCountry:  r.parsedBuyerCountry,
		PatientName:   r.PatientName,
		PhysicianName: r.PhysicianName,
		DocRef:        docstore.Ref(r.DocRef),
		Notes:         r.Notes,
	}
}

// ReviewPrescriptionRequest is the HTTP request body for
// POST /admin/prescriptions/{prescriptionID}/review.
type ReviewPrescriptionRequest struct {
	Outcome string `json:"outcome"`
	Note    string `json:"note"`
}

// Validate validates the request.
func (r *ReviewPrescriptionRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Outcome = strings.ToLower(strings.TrimSpace(r.Outcome))
	if r.Outcome != "accept" && r.Outcome != "reject" {
		return dErrors.New(dErrors.CodeValidation, `outcome must be "accept" or "reject"`)
	}
	return nil
}

// Accept reports whether the review resolves to accepted.
func (r *ReviewPrescriptionRequest) Accept() bool { return r.Outcome == "accept" }
