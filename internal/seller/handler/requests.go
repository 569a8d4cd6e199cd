package handler

import (
	"strings"
	"time"

	"medidrop/internal/docstore"
	"medidrop/internal/seller/models"
	"medidrop/pkg/domain"
	dErrors "medidrop/pkg/domain-errors"
)

// CreateSellerRequest is the HTTP request body for POST /sellers.
type CreateSellerRequest struct {
	DisplayName string `json:"display_name"`
	CountryCode string `json:"country_code"`

	parsedCountry domain.CountryCode
}

// Validate validates and parses the request.
func (r *CreateSellerRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.DisplayName = strings.TrimSpace(r.DisplayName)
	if r.DisplayName == "" {
		return dErrors.New(dErrors.CodeValidation, "display_name is required")
	}
	if len(r.DisplayName) > 200 {
		return dErrors.New(dErrors.CodeValidation, "display_name must be at most 200 characters")
	}
	country := domain.NormalizeCountry(r.CountryCode)
	if !country.Valid() {
		return dErrors.New(dErrors.CodeValidation, "country_code must be a two-letter code")
	}
	r.parsedCountry = country
	return nil
}

// ParsedCountry returns the validated country code.
func (r *CreateSellerRequest) ParsedCountry() domain.CountryCode { return r.parsedCountry }

// SubmitVerificationRequest is the HTTP request body for
// POST /sellers/{sellerID}/verification.
type SubmitVerificationRequest struct {
	LicenseNumber    string   `json:"license_number"`
	LicenseExpiry    string   `json:"license_expiry"`
	TaxNumber        string   `json:"tax_number"`
	LicenseDocRef    string   `json:"license_doc_ref"`
	PharmacistIDRefs []string `json:"pharmacist_id_refs"`

	parsedExpiry time.Time
}

// Validate validates and parses the request.
func (r *SubmitVerificationRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.LicenseNumber = strings.TrimSpace(r.LicenseNumber)
	if r.LicenseNumber == "" {
		return dErrors.New(dErrors.CodeValidation, "license_number is required")
	}
	if r.LicenseDocRef == "" {
		return dErrors.New(dErrors.CodeValidation, "license_doc_ref is required")
	}
	expiry, err := time.Parse(time.RFC3339, r.LicenseExpiry)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "license_expiry must be an RFC 3339 timestamp")
	}
	r.parsedExpiry = expiry
	return nil
}

// Submission converts the request to the domain submission.
func (r *SubmitVerificationRequest) Submission() models.Submission {
	refs := make([]docstore.Ref, len(r.PharmacistIDRefs))
	for i, ref := range r.PharmacistIDRefs {
		refs[i] = docstore.Ref(ref)
	}
	return models.Submission{
		LicenseNumber:    r.LicenseNumber,
		LicenseExpiry:    r.parsedExpiry,
		TaxNumber:        strings.TrimSpace(r.TaxNumber),
		LicenseDocRef:    docstore.Ref(r.LicenseDocRef),
		PharmacistIDRefs: refs,
	}
}

// ResolveReviewRequest is the HTTP request body for
// POST /admin/sellers/{sellerID}/verification/resolve.
type ResolveReviewRequest struct {
	Decision string `json:"decision"`
	Reason   string `json:"reason"`
}

// Validate validates the request.
func (r *ResolveReviewRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Decision = strings.ToLower(strings.TrimSpace(r.Decision))
	if r.Decision != "approve" && r.Decision != "reject" {
		return dErrors.New(dErrors.CodeValidation, `decision must be "approve" or "reject"`)
	}
	return nil
}

// Approve reports whether the review resolves to approved.
func (r *ResolveReviewRequest) Approve() bool { return r.Decision == "approve" }
