package models

import (
	"time"

	"medidrop/internal/docstore"
	"medidrop/pkg/domain"
	dErrors "medidrop/pkg/domain-errors"
)

// VerificationState is the seller lifecycle state.
type VerificationState string

const (
	StateUnverified    VerificationState = "unverified"
	StatePendingReview VerificationState = "pending_review"
	StateVerified      VerificationState = "verified"
	StateSuspended     VerificationState = "suspended"
)

// CanTransitionTo encodes the legal verification transitions. There is no
// terminal state: a seller may always resubmit.
func (s VerificationState) CanTransitionTo(next VerificationState) bool {
	switch s {
	case StateUnverified:
		return next == StatePendingReview
	case StatePendingReview:
		return next == StateVerified || next == StateUnverified
	case StateVerified:
		return next == StateSuspended || next == StatePendingReview
	case StateSuspended:
		return next == StatePendingReview
	default:
		return false
	}
}

// Seller is the aggregate root for a marketplace seller (a pharmacy or
// distributor).
//
// Invariants:
//   - State only changes along CanTransitionTo edges
//   - State == Verified implies LicenseExpiry is set and in the future at
//     the time of the transition; the daily sweep restores the invariant
//     when the expiry passes
//   - Every state change is paired with exactly one audit entry, emitted
//     by the service layer
type Seller struct {
	ID          domain.SellerID
	DisplayName string
	CountryCode domain.CountryCode
	State       VerificationState

	LicenseNumber     string
	LicenseExpiry     *time.Time
	TaxNumber         string
	LicenseDocRef     docstore.Ref
	PharmacistIDRefs  []docstore.Ref
	LastRegistryCheck *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewSeller creates an unverified seller.
func NewSeller(id domain.SellerID, displayName string, country domain.CountryCode, now time.Time) (*Seller, error) {
	if displayName == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "seller display name cannot be empty")
	}
	if !country.Valid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "seller country code must be a two-letter jurisdiction")
	}
	return &Seller{
		ID:          id,
		DisplayName: displayName,
		CountryCode: country,
		State:       StateUnverified,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// IsVerified reports whether listings of this seller may currently be sold.
func (s *Seller) IsVerified() bool { return s.State == StateVerified }

// LicenseExpired reports whether the license expiry has passed.
func (s *Seller) LicenseExpired(now time.Time) bool {
	return s.LicenseExpiry != nil && !s.LicenseExpiry.After(now)
}

// LicenseExpiresWithin reports whether the license expires inside the
// warning window (and has not already expired).
func (s *Seller) LicenseExpiresWithin(now time.Time, window time.Duration) bool {
	if s.LicenseExpiry == nil || s.LicenseExpired(now) {
		return false
	}
	return s.LicenseExpiry.Sub(now) <= window
}

// Submission carries the data a seller provides when submitting for
// verification.
type Submission struct {
	LicenseNumber    string
	LicenseExpiry    time.Time
	TaxNumber        string
	LicenseDocRef    docstore.Ref
	PharmacistIDRefs []docstore.Ref
}

// CanSubmit checks whether a verification submission is allowed. A second
// submission while one is open fails with already_pending; submitting from
// Verified is an invalid transition.
func (s *Seller) CanSubmit(sub Submission) error {
	if s.State == StatePendingReview {
		return dErrors.New(dErrors.CodeAlreadyPending, "a verification review is already open for this seller")
	}
	if !s.State.CanTransitionTo(StatePendingReview) {
		return dErrors.Newf(dErrors.CodeInvalidTransition, "cannot submit for verification from state %s", s.State)
	}
	if sub.LicenseNumber == "" {
		return dErrors.New(dErrors.CodeValidation, "license number is required")
	}
	if sub.LicenseExpiry.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "license expiry is required")
	}
	if sub.LicenseDocRef == "" {
		return dErrors.New(dErrors.CodeValidation, "license document is required")
	}
	return nil
}

// ApplySubmission records the submission and moves the seller to
// PendingReview. Call CanSubmit first.
func (s *Seller) ApplySubmission(sub Submission, now time.Time) {
	expiry := sub.LicenseExpiry
	s.LicenseNumber = sub.LicenseNumber
	s.LicenseExpiry = &expiry
	s.TaxNumber = sub.TaxNumber
	s.LicenseDocRef = sub.LicenseDocRef
	s.PharmacistIDRefs = append([]docstore.Ref(nil), sub.PharmacistIDRefs...)
	s.State = StatePendingReview
	s.UpdatedAt = now
}

// CanApprove checks whether an open review may resolve to Verified. A
// license already expired at approval time fails with
// expired_license_on_approval and leaves the review open.
func (s *Seller) CanApprove(now time.Time) error {
	if s.State != StatePendingReview {
		return dErrors.Newf(dErrors.CodeInvalidTransition, "cannot resolve a review from state %s", s.State)
	}
	if s.LicenseExpiry == nil || !s.LicenseExpiry.After(now) {
		return dErrors.New(dErrors.CodeExpiredLicense, "license expiry must be strictly in the future to approve")
	}
	return nil
}

// ApplyApproval moves the seller to Verified. Call CanApprove first.
func (s *Seller) ApplyApproval(now time.Time) {
	s.State = StateVerified
	s.UpdatedAt = now
}

// CanReject checks whether an open review may resolve to Unverified.
func (s *Seller) CanReject() error {
	if s.State != StatePendingReview {
		return dErrors.Newf(dErrors.CodeInvalidTransition, "cannot resolve a review from state %s", s.State)
	}
	return nil
}

// ApplyRejection moves the seller back to Unverified. Call CanReject first.
func (s *Seller) ApplyRejection(now time.Time) {
	s.State = StateUnverified
	s.UpdatedAt = now
}

// CanSuspend checks whether the seller may be suspended (license expiry or
// audit failure). Only Verified sellers suspend; anything else is a no-op
// for the sweep and an invalid transition for explicit calls.
func (s *Seller) CanSuspend() error {
	if !s.State.CanTransitionTo(StateSuspended) {
		return dErrors.Newf(dErrors.CodeInvalidTransition, "cannot suspend from state %s", s.State)
	}
	return nil
}

// ApplySuspension moves the seller to Suspended. Call CanSuspend first.
func (s *Seller) ApplySuspension(now time.Time) {
	s.State = StateSuspended
	s.UpdatedAt = now
}

// CanForceReview checks whether the seller can be forced back into
// PendingReview (registry country mismatch).
func (s *Seller) CanForceReview() error {
	if s.State != StateVerified {
		return dErrors.Newf(dErrors.CodeInvalidTransition, "cannot force review from state %s", s.State)
	}
	return nil
}

// ApplyForcedReview moves a Verified seller back to PendingReview. Call
// CanForceReview first.
func (s *Seller) ApplyForcedReview(now time.Time) {
	s.State = StatePendingReview
	s.UpdatedAt = now
}

// RecordRegistryCheck stamps the last successful registry consultation.
func (s *Seller) RecordRegistryCheck(now time.Time) {
	t := now
	s.LastRegistryCheck = &t
	s.UpdatedAt = now
}
