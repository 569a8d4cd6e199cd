// Package models holds the prescription request aggregate and its state
// machine.
package models

import (
	"time"

	"medidrop/internal/docstore"
	"medidrop/pkg/domain"
	dErrors "medidrop/pkg/domain-errors"
)

// State is the prescription workflow state.
type State string

const (
	// StateRequested prescriptions await a pharmacist picking them up.
	StateRequested State = "requested"
	// StateUnderReview prescriptions are being checked by a pharmacist.
	StateUnderReview State = "under_review"
	// StateAccepted and StateRejected are terminal review outcomes.
	StateAccepted State = "accepted"
	StateRejected State = "rejected"
	// StateCancelled is the buyer withdrawing before review starts.
	StateCancelled State = "cancelled"
)

// CanTransitionTo encodes the legal workflow transitions.
func (s State) CanTransitionTo(next State) bool {
	switch s {
	case StateRequested:
		return next == StateUnderReview || next == StateCancelled
	case StateUnderReview:
		return next == StateAccepted || next == StateRejected
	default:
		return false
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateAccepted || s == StateRejected || s == StateCancelled
}

// Prescription is one buyer's prescription submitted against an Rx-gated
// listing.
//
// Invariants:
//   - State only changes along CanTransitionTo edges
//   - Only the buyer who opened the request may cancel it, and only
//     before a pharmacist starts reviewing
type Prescription struct {
	ID            domain.PrescriptionID
	ListingID     domain.ListingID
	BuyerID       string
	BuyerCountry  domain.CountryCode
	PatientName   string
	PhysicianName string
	DocRef        docstore.Ref
	Notes         string
	State         State

	ReviewerID string
	ReviewNote string
	ReviewedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Draft is the buyer's input for opening a prescription request.
type Draft struct {
	ListingID     domain.ListingID
	BuyerID       string
	BuyerCountry  domain.CountryCode
	PatientName   string
	PhysicianName string
	DocRef        docstore.Ref
	Notes         string
}

// NewPrescription opens a prescription request in Requested.
func NewPrescription(id domain.PrescriptionID, d Draft, now time.Time) (*Prescription, error) {
	if d.BuyerID == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "prescription must have a buyer")
	}
	if d.PatientName == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "patient name is required")
	}
	if d.PhysicianName == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "physician name is required")
	}
	if d.DocRef == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "prescription document is required")
	}
	return &Prescription{
		ID:            id,
		ListingID:     d.ListingID,
		BuyerID:       d.BuyerID,
		BuyerCountry:  d.BuyerCountry,
		PatientName:   d.PatientName,
		PhysicianName: d.PhysicianName,
		DocRef:        d.DocRef,
		Notes:         d.Notes,
		State:         StateRequested,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// CanStartReview checks whether a pharmacist may pick up the request.
func (p *Prescription) CanStartReview() error {
	if !p.State.CanTransitionTo(StateUnderReview) {
		return dErrors.Newf(dErrors.CodeInvalidTransition, "cannot start review from state %s", p.State)
	}
	return nil
}

// ApplyStartReview moves the request under review.
func (p *Prescription) ApplyStartReview(reviewerID string, now time.Time) {
	p.State = StateUnderReview
	p.ReviewerID = reviewerID
	p.UpdatedAt = now
}

// CanReview checks whether the review may be resolved.
func (p *Prescription) CanReview() error {
	if p.State != StateUnderReview {
		return dErrors.Newf(dErrors.CodeInvalidTransition, "cannot resolve a review from state %s", p.State)
	}
	return nil
}

// ApplyReview resolves the review. Call CanReview first.
func (p *Prescription) ApplyReview(accept bool, note string, now time.Time) {
	if accept {
		p.State = StateAccepted
	} else {
		p.State = StateRejected
	}
	p.ReviewNote = note
	t := now
	p.ReviewedAt = &t
	p.UpdatedAt = now
}

// CanCancel checks whether buyerID may withdraw the request.
func (p *Prescription) CanCancel(buyerID string) error {
	if p.BuyerID != buyerID {
		return dErrors.New(dErrors.CodeForbidden, "only the requesting buyer may cancel")
	}
	if !p.State.CanTransitionTo(StateCancelled) {
		return dErrors.Newf(dErrors.CodeInvalidTransition, "cannot cancel from state %s", p.State)
	}
	return nil
}

// ApplyCancel withdraws the request. Call CanCancel first.
func (p *Prescription) ApplyCancel(now time.Time) {
	p.State = StateCancelled
	p.UpdatedAt = now
}
