package handler

import (
	"strings"

	"medidrop/internal/catalog/models"
	"medidrop/pkg/domain"
	dErrors "medidrop/pkg/domain-errors"
)

// CreateListingRequest is the HTTP request body for POST /listings.
type CreateListingRequest struct {
	SellerID         string   `json:"seller_id"`
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	ProductClass     string   `json:"product_class"`
	ColdChainCapable bool     `json:"cold_chain_capable"`
	PriceMinor       int64    `json:"price_minor"`
	Currency         string   `json:"currency"`
	Tags             []string `json:"tags"`

	parsedSellerID domain.SellerID
	parsedClass    domain.ProductClass
}

// Validate validates and parses the request.
func (r *CreateListingRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	sellerID, err := domain.ParseSellerID(strings.TrimSpace(r.SellerID))
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "seller_id must be a UUID")
	}
	r.parsedSellerID = sellerID

	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if len(r.Name) > 200 {
		return dErrors.New(dErrors.CodeValidation, "name must be at most 200 characters")
	}

	class := domain.NormalizeProductClass(r.ProductClass)
	if class == "" {
		return dErrors.New(dErrors.CodeValidation, "product_class is required")
	}
	r.parsedClass = class

	r.Description = strings.TrimSpace(r.Description)
	if len(r.Description) > 2000 {
		return dErrors.New(dErrors.CodeValidation, "description must be at most 2000 characters")
	}

	if r.PriceMinor < 0 {
		return dErrors.New(dErrors.CodeValidation, "price_minor cannot be negative")
	}
	r.Currency = strings.ToUpper(strings.TrimSpace(r.Currency))
	if r.Currency != "" && len(r.Currency) != 3 {
		return dErrors.New(dErrors.CodeValidation, "currency must be a three-letter code")
	}
	if r.PriceMinor > 0 && r.Currency == "" {
		return dErrors.New(dErrors.CodeValidation, "currency is required when price_minor is set")
	}

	tags := r.Tags[:0]
	for _, tag := range r.Tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if len(tag) > 40 {
			return dErrors.New(dErrors.CodeValidation, "tags must be at most 40 characters each")
		}
		tags = append(tags, tag)
	}
	if len(tags) > 10 {
		return dErrors.New(dErrors.CodeValidation, "at most 10 tags are allowed")
	}
	r.Tags = tags
	return nil
}

// ParsedSellerID returns the validated seller ID.
func (r *CreateListingRequest) ParsedSellerID() domain.SellerID { return r.parsedSellerID }

// Details converts the validated request into listing card data.
func (r *CreateListingRequest) Details() models.ListingDetails {
	return models.ListingDetails{
		Name:             r.Name,
		Description:      r.Description,
		Class:            r.parsedClass,
		ColdChainCapable: r.ColdChainCapable,
		PriceMinor:       r.PriceMinor,
		Currency:         r.Currency,
		Tags:             r.Tags,
	}
}

// EvaluateRequest is the HTTP request body for POST /catalog/evaluate.
type EvaluateRequest struct {
	ListingID    string `json:"listing_id"`
	BuyerCountry string `json:"buyer_country"`

	parsedListingID    domain.ListingID
	parsedBuyerCountry domain.CountryCode
}

// Validate validates and parses the request.
func (r *EvaluateRequest) Validate() error {
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
	return nil
}

// ParsedListingID returns the validated listing ID.
func (r *EvaluateRequest) ParsedListingID() domain.ListingID { return r.parsedListingID }

// ParsedBuyerCountry returns the validated buyer country.
func (r *EvaluateRequest) ParsedBuyerCountry() domain.CountryCode { return r.parsedBuyerCountry }

// FlagListingRequest is the HTTP request body for
// POST /admin/listings/{listingID}/flag.
type FlagListingRequest struct {
	Reason string `json:"reason"`
}

// Validate validates the request.
func (r *FlagListingRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Reason = strings.TrimSpace(r.Reason)
	if len(r.Reason) > 500 {
		return dErrors.New(dErrors.CodeValidation, "reason must be at most 500 characters")
	}
	return nil
}
