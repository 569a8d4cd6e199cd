// Package service implements the catalog: listing lifecycle, the seller
// sync that pauses and resumes listings as verification changes, and the
// purchasability gate.
package service

import (
	"context"
	"errors"
	"log/slog"

	"medidrop/internal/catalog/models"
	"medidrop/internal/catalog/store"
	"medidrop/internal/rules"
	sellermodels "medidrop/internal/seller/models"
	"medidrop/pkg/domain"
	dErrors "medidrop/pkg/domain-errors"
	"medidrop/pkg/platform/audit"
	"medidrop/pkg/platform/sentinel"
	"medidrop/pkg/requestcontext"
)

// SellerSource is the read-side view of sellers the catalog needs.
// Implemented by the seller engine.
type SellerSource interface {
	GetSeller(ctx context.Context, id domain.SellerID) (*sellermodels.Seller, error)
}

// Service drives the listing lifecycle and the gate.
type Service struct {
	listings store.Store
	sellers  SellerSource
	rules    *rules.Table
	auditLog *audit.Log
	// denials feeds blocked-purchase entries to the audit worker so gate
	// latency does not pay for the audit write. A full inbox falls back to
	// a synchronous append; entries are never dropped.
	denials chan<- audit.Entry
	logger  *slog.Logger
}

func New(listings store.Store, sellers SellerSource, table *rules.Table, auditLog *audit.Log, denials chan<- audit.Entry, logger *slog.Logger) *Service {
	return &Service{
		listings: listings,
		sellers:  sellers,
		rules:    table,
		auditLog: auditLog,
		denials:  denials,
		logger:   logger,
	}
}

// CreateListing adds an active listing for an existing seller.
func (s *Service) CreateListing(ctx context.Context, sellerID domain.SellerID, details models.ListingDetails) (*models.ProductListing, error) {
	now := requestcontext.Now(ctx)

	if _, err := s.sellers.GetSeller(ctx, sellerID); err != nil {
		return nil, err
	}

	listing, err := models.NewListing(domain.NewListingID(), sellerID, details, now)
	if err != nil {
		return nil, err
	}
	if err := s.listings.Create(ctx, listing); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create listing")
	}

	s.auditAppend(ctx, audit.Entry{
		SubjectType: audit.SubjectListing,
		SubjectID:   listing.ID.String(),
		Kind:        audit.KindListingCreated,
		Timestamp:   now,
		Detail:      listing.Class.String(),
	})
	s.logger.Info("listing created", "listing_id", listing.ID, "seller_id", sellerID, "class", listing.Class)
	return listing, nil
}

// GetListing loads a listing by ID.
func (s *Service) GetListing(ctx context.Context, id domain.ListingID) (*models.ProductListing, error) {
	listing, err := s.listings.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "listing not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load listing")
	}
	return listing, nil
}

// ListBySeller returns all listings of one seller.
func (s *Service) ListBySeller(ctx context.Context, sellerID domain.SellerID) ([]*models.ProductListing, error) {
	listings, err := s.listings.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list listings")
	}
	return listings, nil
}

// FlagForReview moves a listing into manual review after a compliance
// audit. Only an explicit Unblock reactivates it.
func (s *Service) FlagForReview(ctx context.Context, id domain.ListingID, reason string) (*models.ProductListing, error) {
	now := requestcontext.Now(ctx)
	if reason == "" {
		reason = "compliance audit"
	}

	listing, err := s.listings.Execute(ctx, id,
		func(l *models.ProductListing) error { return l.CanFlag() },
		func(l *models.ProductListing) { l.ApplyFlag(reason, now) },
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "listing not found")
		}
		if dErrors.CodeOf(err) != "" {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to flag listing")
	}

	s.auditAppend(ctx, audit.Entry{
		SubjectType: audit.SubjectListing,
		SubjectID:   listing.ID.String(),
		Kind:        audit.KindListingFlagged,
		Timestamp:   now,
		Reason:      reason,
	})
	s.logger.Info("listing flagged for review", "listing_id", listing.ID, "reason", reason)
	return listing, nil
}

// Unblock reactivates a flagged listing after review.
func (s *Service) Unblock(ctx context.Context, id domain.ListingID) (*models.ProductListing, error) {
	now := requestcontext.Now(ctx)

	listing, err := s.listings.Execute(ctx, id,
		func(l *models.ProductListing) error { return l.CanUnblock() },
		func(l *models.ProductListing) { l.ApplyUnblock(now) },
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "listing not found")
		}
		if dErrors.CodeOf(err) != "" {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to unblock listing")
	}

	s.auditAppend(ctx, audit.Entry{
		SubjectType: audit.SubjectListing,
		SubjectID:   listing.ID.String(),
		Kind:        audit.KindListingUnblocked,
		Timestamp:   now,
	})
	s.logger.Info("listing unblocked", "listing_id", listing.ID)
	return listing, nil
}

func (s *Service) auditAppend(ctx context.Context, entry audit.Entry) {
	if entry.ActorID == "" {
		entry.ActorID = requestcontext.ActorID(ctx)
	}
	if entry.RequestID == "" {
		entry.RequestID = requestcontext.RequestID(ctx)
	}
	if err := s.auditLog.Append(ctx, entry); err != nil {
		s.logger.Error("audit append failed", "kind", entry.Kind, "subject_id", entry.SubjectID, "error", err)
	}
}
