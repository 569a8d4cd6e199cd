// Package models holds the product listing aggregate and its state machine.
package models

import (
	"time"

	"medidrop/pkg/domain"
	dErrors "medidrop/pkg/domain-errors"
)

// ListingState is the sale availability state of a listing.
type ListingState string

const (
	// StateActive listings are visible and evaluated by the gate.
	StateActive ListingState = "active"
	// StateAutoPaused listings were paused because their seller lost
	// Verified. They resume automatically when the seller regains it.
	StateAutoPaused ListingState = "auto_paused"
	// StateManualReview listings were flagged by a compliance audit and
	// only an explicit admin unblock reactivates them.
	StateManualReview ListingState = "manual_review"
)

// CanTransitionTo encodes the legal listing transitions.
func (s ListingState) CanTransitionTo(next ListingState) bool {
	switch s {
	case StateActive:
		return next == StateAutoPaused || next == StateManualReview
	case StateAutoPaused:
		return next == StateActive || next == StateManualReview
	case StateManualReview:
		return next == StateActive
	default:
		return false
	}
}

// ProductListing is one medicine offered by one seller.
//
// Invariants:
//   - State only changes along CanTransitionTo edges
//   - A listing in ManualReview never auto-resumes; only Unblock moves it
type ProductListing struct {
	ID          domain.ListingID
	SellerID    domain.SellerID
	Name        string
	Description string
	Class       domain.ProductClass
	// ColdChainCapable records whether the seller ships this listing with
	// certified cold-chain logistics.
	ColdChainCapable bool
	// PriceMinor is the unit price in the smallest denomination of
	// Currency. The gate never consults it; it is marketplace card data.
	PriceMinor int64
	Currency   string
	Tags       []string
	State      ListingState
	// PauseReason explains the current non-Active state.
	PauseReason string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ListingDetails carries the seller-supplied card data for a new listing.
type ListingDetails struct {
	Name             string
	Description      string
	Class            domain.ProductClass
	ColdChainCapable bool
	PriceMinor       int64
	Currency         string
	Tags             []string
}

// NewListing creates an active listing for a seller.
func NewListing(id domain.ListingID, sellerID domain.SellerID, d ListingDetails, now time.Time) (*ProductListing, error) {
	if d.Name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "listing name cannot be empty")
	}
	if d.Class == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "listing product class cannot be empty")
	}
	if sellerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "listing must belong to a seller")
	}
	if d.PriceMinor < 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "listing price cannot be negative")
	}
	if d.PriceMinor > 0 && d.Currency == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "a priced listing needs a currency")
	}
	return &ProductListing{
		ID:               id,
		SellerID:         sellerID,
		Name:             d.Name,
		Description:      d.Description,
		Class:            d.Class,
		ColdChainCapable: d.ColdChainCapable,
		PriceMinor:       d.PriceMinor,
		Currency:         d.Currency,
		Tags:             d.Tags,
		State:            StateActive,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// Sellable reports whether the gate may offer this listing at all.
func (l *ProductListing) Sellable() bool { return l.State == StateActive }

// CanAutoPause checks whether the listing may be auto-paused.
func (l *ProductListing) CanAutoPause() error {
	if !l.State.CanTransitionTo(StateAutoPaused) {
		return dErrors.Newf(dErrors.CodeInvalidTransition, "cannot auto-pause a listing in state %s", l.State)
	}
	return nil
}

// ApplyAutoPause pauses the listing because the seller lost Verified.
func (l *ProductListing) ApplyAutoPause(reason string, now time.Time) {
	l.State = StateAutoPaused
	l.PauseReason = reason
	l.UpdatedAt = now
}

// CanResume checks whether the listing may resume automatically. Flagged
// listings cannot.
func (l *ProductListing) CanResume() error {
	if l.State != StateAutoPaused {
		return dErrors.Newf(dErrors.CodeInvalidTransition, "cannot auto-resume a listing in state %s", l.State)
	}
	return nil
}

// ApplyResume reactivates an auto-paused listing.
func (l *ProductListing) ApplyResume(now time.Time) {
	l.State = StateActive
	l.PauseReason = ""
	l.UpdatedAt = now
}

// CanFlag checks whether the listing may be flagged for manual review.
func (l *ProductListing) CanFlag() error {
	if !l.State.CanTransitionTo(StateManualReview) {
		return dErrors.Newf(dErrors.CodeInvalidTransition, "cannot flag a listing in state %s", l.State)
	}
	return nil
}

// ApplyFlag moves the listing into manual review.
func (l *ProductListing) ApplyFlag(reason string, now time.Time) {
	l.State = StateManualReview
	l.PauseReason = reason
	l.UpdatedAt = now
}

// CanUnblock checks whether an admin may reactivate a flagged listing.
func (l *ProductListing) CanUnblock() error {
	if l.State != StateManualReview {
		return dErrors.Newf(dErrors.CodeInvalidTransition, "cannot unblock a listing in state %s", l.State)
	}
	return nil
}

// ApplyUnblock reactivates a flagged listing after review.
func (l *ProductListing) ApplyUnblock(now time.Time) {
	l.State = StateActive
	l.PauseReason = ""
	l.UpdatedAt = now
}
