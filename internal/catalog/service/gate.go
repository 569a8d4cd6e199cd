package service

import (
	"context"
	"time"

	"medidrop/internal/catalog/metrics"
	"medidrop/internal/catalog/models"
	"medidrop/pkg/domain"
	dErrors "medidrop/pkg/domain-errors"
	"medidrop/pkg/platform/audit"
	"medidrop/pkg/requestcontext"
)

// DecisionStatus is the gate's answer for one listing and buyer country.
type DecisionStatus string

const (
	StatusPurchasable DecisionStatus = "purchasable"
	StatusRxRequired  DecisionStatus = "rx_required"
	StatusBlocked     DecisionStatus = "blocked"
)

// Decision is the outcome of a gate evaluation. Reason carries the block
// code when Status is blocked, empty otherwise.
type Decision struct {
	ListingID    domain.ListingID
	SellerID     domain.SellerID
	BuyerCountry domain.CountryCode
	Status       DecisionStatus
	Reason       string
	// Requirement echoes the matched rule for non-blocked decisions.
	Requirement string
	EvaluatedAt time.Time
}

// Evaluate answers whether a buyer in buyerCountry may purchase the
// listing right now.
//
// The rule lookup keys off the seller's jurisdiction, because that is
// where the license was issued; the buyer country is recorded on the
// decision for the trail. Evaluation is repeatable: the listing pause and
// resume side effects converge, so evaluating twice in the same state
// yields the same decision and at most one transition.
func (s *Service) Evaluate(ctx context.Context, listingID domain.ListingID, buyerCountry domain.CountryCode) (*Decision, error) {
	now := requestcontext.Now(ctx)
	started := time.Now()
	defer func() { metrics.EvaluationDuration.Observe(time.Since(started).Seconds()) }()

	listing, err := s.GetListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	seller, err := s.sellers.GetSeller(ctx, listing.SellerID)
	if err != nil {
		return nil, err
	}

	decision := &Decision{
		ListingID:    listing.ID,
		SellerID:     seller.ID,
		BuyerCountry: buyerCountry,
		EvaluatedAt:  now,
	}

	if !seller.IsVerified() {
		s.autoPause(ctx, listing, "seller not verified", now)
		return s.blocked(ctx, decision, dErrors.CodeSellerUnverified), nil
	}

	// The seller is verified again; an auto-paused listing comes back
	// before the rules run. Flagged listings stay down.
	if listing.State == models.StateAutoPaused {
		listing = s.autoResume(ctx, listing, now)
	}
	if !listing.Sellable() {
		return s.blocked(ctx, decision, "listing_"+string(listing.State)), nil
	}

	requirement, err := s.rules.RequirementFor(seller.CountryCode, listing.Class)
	if err != nil {
		return s.blocked(ctx, decision, dErrors.CodeUnknownJurisdiction), nil
	}
	decision.Requirement = string(requirement)

	if requirement.RequiresColdChain() && !listing.ColdChainCapable {
		return s.blocked(ctx, decision, dErrors.CodeColdChainMismatch), nil
	}

	if requirement.RequiresPrescription() {
		decision.Status = StatusRxRequired
	} else {
		decision.Status = StatusPurchasable
	}
	metrics.EvaluationsTotal.WithLabelValues(string(decision.Status)).Inc()
	return decision, nil
}

// SyncSeller pauses every active listing of a seller who lost Verified and
// resumes every auto-paused one when it comes back. Implements the seller
// engine's ListingSyncer.
func (s *Service) SyncSeller(ctx context.Context, sellerID domain.SellerID, verified bool) error {
	now := requestcontext.Now(ctx)

	listings, err := s.listings.ListBySeller(ctx, sellerID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list seller listings for sync")
	}

	for _, listing := range listings {
		if verified && listing.State == models.StateAutoPaused {
			s.autoResume(ctx, listing, now)
		}
		if !verified && listing.State == models.StateActive {
			s.autoPause(ctx, listing, "seller not verified", now)
		}
	}
	return nil
}

// QuarantineSeller flags every listing of a seller into manual review after
// a registry contradiction. Unlike an auto-pause, re-verifying the seller
// does not bring these back; each listing needs an explicit Unblock.
// Implements the seller engine's ListingSyncer.
func (s *Service) QuarantineSeller(ctx context.Context, sellerID domain.SellerID, reason string) error {
	now := requestcontext.Now(ctx)

	listings, err := s.listings.ListBySeller(ctx, sellerID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list seller listings for quarantine")
	}

	for _, listing := range listings {
		if listing.State == models.StateManualReview {
			continue
		}
		updated, err := s.listings.Execute(ctx, listing.ID,
			func(l *models.ProductListing) error { return l.CanFlag() },
			func(l *models.ProductListing) { l.ApplyFlag(reason, now) },
		)
		if err != nil {
			if dErrors.CodeOf(err) != dErrors.CodeInvalidTransition {
				s.logger.Error("listing quarantine failed", "listing_id", listing.ID, "error", err)
			}
			continue
		}

		s.auditAppend(ctx, audit.Entry{
			SubjectType: audit.SubjectListing,
			SubjectID:   updated.ID.String(),
			Kind:        audit.KindListingFlagged,
			Timestamp:   now,
			ActorID:     "system",
			Reason:      reason,
		})
		s.logger.Warn("listing quarantined", "listing_id", updated.ID, "seller_id", sellerID, "reason", reason)
	}
	return nil
}

// autoPause moves an active listing to AutoPaused. Races with another
// pause are benign: losing the transition means someone else already made
// it.
func (s *Service) autoPause(ctx context.Context, listing *models.ProductListing, reason string, now time.Time) {
	if listing.State != models.StateActive {
		return
	}
	updated, err := s.listings.Execute(ctx, listing.ID,
		func(l *models.ProductListing) error { return l.CanAutoPause() },
		func(l *models.ProductListing) { l.ApplyAutoPause(reason, now) },
	)
	if err != nil {
		if dErrors.CodeOf(err) != dErrors.CodeInvalidTransition {
			s.logger.Error("listing auto-pause failed", "listing_id", listing.ID, "error", err)
		}
		return
	}
	*listing = *updated

	metrics.AutoPausesTotal.Inc()
	s.auditAppend(ctx, audit.Entry{
		SubjectType: audit.SubjectListing,
		SubjectID:   listing.ID.String(),
		Kind:        audit.KindListingAutoPaused,
		Timestamp:   now,
		ActorID:     "system",
		Reason:      reason,
	})
	s.logger.Info("listing auto-paused", "listing_id", listing.ID, "reason", reason)
}

func (s *Service) autoResume(ctx context.Context, listing *models.ProductListing, now time.Time) *models.ProductListing {
	updated, err := s.listings.Execute(ctx, listing.ID,
		func(l *models.ProductListing) error { return l.CanResume() },
		func(l *models.ProductListing) { l.ApplyResume(now) },
	)
	if err != nil {
		if dErrors.CodeOf(err) != dErrors.CodeInvalidTransition {
			s.logger.Error("listing auto-resume failed", "listing_id", listing.ID, "error", err)
		}
		return listing
	}

	metrics.AutoResumesTotal.Inc()
	s.auditAppend(ctx, audit.Entry{
		SubjectType: audit.SubjectListing,
		SubjectID:   updated.ID.String(),
		Kind:        audit.KindListingResumed,
		Timestamp:   now,
		ActorID:     "system",
		Reason:      "seller verified",
	})
	s.logger.Info("listing auto-resumed", "listing_id", updated.ID)
	return updated
}

// blocked finalizes a blocked decision and records the denied purchase on
// the listing's trail.
func (s *Service) blocked(ctx context.Context, decision *Decision, reason string) *Decision {
	decision.Status = StatusBlocked
	decision.Reason = reason
	metrics.EvaluationsTotal.WithLabelValues(string(StatusBlocked)).Inc()
	metrics.BlockedTotal.WithLabelValues(reason).Inc()

	entry := audit.Entry{
		SubjectType: audit.SubjectListing,
		SubjectID:   decision.ListingID.String(),
		Kind:        audit.KindPurchaseBlocked,
		Timestamp:   decision.EvaluatedAt,
		ActorID:     requestcontext.ActorID(ctx),
		Decision:    string(StatusBlocked),
		Reason:      reason,
		Detail:      decision.BuyerCountry.String(),
		RequestID:   requestcontext.RequestID(ctx),
	}
	if s.denials != nil {
		select {
		case s.denials <- entry:
			return decision
		default:
		}
	}
	s.auditAppend(ctx, entry)
	return decision
}
