package handler

import (
	"time"

	"medidrop/internal/catalog/models"
	"medidrop/internal/catalog/service"
)

// ListingResponse is the HTTP representation of a listing.
type ListingResponse struct {
	ID               string    `json:"id"`
	SellerID         string    `json:"seller_id"`
	Name             string    `json:"name"`
	Description      string    `json:"description,omitempty"`
	ProductClass     string    `json:"product_class"`
	ColdChainCapable bool      `json:"cold_chain_capable"`
	PriceMinor       int64     `json:"price_minor"`
	Currency         string    `json:"currency,omitempty"`
	Tags             []string  `json:"tags,omitempty"`
	State            string    `json:"state"`
	PauseReason      string    `json:"pause_reason,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// DecisionResponse is the HTTP representation of a gate decision.
type DecisionResponse struct {
	ListingID    string    `json:"listing_id"`
	SellerID     string    `json:"seller_id"`
	BuyerCountry string    `json:"buyer_country"`
	Status       string    `json:"status"`
	Reason       string    `json:"reason,omitempty"`
	Requirement  string    `json:"requirement,omitempty"`
	EvaluatedAt  time.Time `json:"evaluated_at"`
}

// FromListing converts a listing aggregate to its HTTP representation.
func FromListing(l *models.ProductListing) *ListingResponse {
	return &ListingResponse{
		ID:               l.ID.String(),
		SellerID:         l.SellerID.String(),
		Name:             l.Name,
		Description:      l.Description,
		ProductClass:     l.Class.String(),
		ColdChainCapable: l.ColdChainCapable,
		PriceMinor:       l.PriceMinor,
		Currency:         l.Currency,
		Tags:             l.Tags,
		State:            string(l.State),
		PauseReason:      l.PauseReason,
		CreatedAt:        l.CreatedAt,
		UpdatedAt:        l.UpdatedAt,
	}
}

// FromDecision converts a gate decision to its HTTP representation.
func FromDecision(d *service.Decision) *DecisionResponse {
	return &DecisionResponse{
		ListingID:    d.ListingID.String(),
		SellerID:     d.SellerID.String(),
		BuyerCountry: d.BuyerCountry.String(),
		Status:       string(d.Status),
		Reason:       d.Reason,
		Requirement:  d.Requirement,
		EvaluatedAt:  d.EvaluatedAt,
	}
}
