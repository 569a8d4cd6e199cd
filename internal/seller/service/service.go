// Package service implements the seller verification engine: submission,
// review resolution, the daily license expiry sweep and registry-assisted
// checks. Every state change lands exactly one compliance audit entry;
// denied operations land a security entry without mutating state.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"medidrop/internal/docstore"
	"medidrop/internal/registry"
	"medidrop/internal/seller/metrics"
	"medidrop/internal/seller/models"
	"medidrop/internal/seller/store"
	"medidrop/pkg/domain"
	dErrors "medidrop/pkg/domain-errors"
	"medidrop/pkg/platform/audit"
	"medidrop/pkg/platform/sentinel"
	"medidrop/pkg/requestcontext"
)

// ExpiryWarningWindow is how far ahead of a license expiry the sweep starts
// emitting pending-expiry warnings.
const ExpiryWarningWindow = 30 * 24 * time.Hour

// ListingSyncer propagates seller verification changes into the catalog:
// losing Verified auto-pauses the seller's active listings, regaining it
// resumes the ones that were auto-paused. QuarantineSeller is the harder
// variant for registry contradictions: the listings land in manual review
// and only an explicit unblock reactivates them. Implemented by the
// catalog service; the indirection keeps the dependency one-way.
type ListingSyncer interface {
	SyncSeller(ctx context.Context, sellerID domain.SellerID, verified bool) error
	QuarantineSeller(ctx context.Context, sellerID domain.SellerID, reason string) error
}

// Engine drives the seller verification lifecycle.
type Engine struct {
	store    store.Store
	auditLog *audit.Log
	docs     docstore.Store
	checker  registry.Checker
	syncer   ListingSyncer
	logger   *slog.Logger

	sweepMu sync.Mutex
}

func NewEngine(st store.Store, auditLog *audit.Log, docs docstore.Store, checker registry.Checker, logger *slog.Logger) *Engine {
	return &Engine{
		store:    st,
		auditLog: auditLog,
		docs:     docs,
		checker:  checker,
		logger:   logger,
	}
}

// SetListingSyncer wires the catalog-side syncer. Must be called before the
// engine serves traffic; it exists only to break the construction cycle
// between the seller and catalog services.
func (e *Engine) SetListingSyncer(s ListingSyncer) { e.syncer = s }

// CreateSeller registers a new, unverified seller.
func (e *Engine) CreateSeller(ctx context.Context, displayName string, country domain.CountryCode) (*models.Seller, error) {
	now := requestcontext.Now(ctx)
	seller, err := models.NewSeller(domain.NewSellerID(), displayName, country, now)
	if err != nil {
		return nil, err
	}
	if err := e.store.Create(ctx, seller); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create seller")
	}
	e.logger.Info("seller created", "seller_id", seller.ID, "country", seller.CountryCode)
	return seller, nil
}

// GetSeller loads a seller by ID.
func (e *Engine) GetSeller(ctx context.Context, id domain.SellerID) (*models.Seller, error) {
	seller, err := e.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "seller not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load seller")
	}
	return seller, nil
}

// SubmitForVerification accepts a seller's license submission and opens a
// review. The referenced documents must already exist in the document
// store; a second submission while a review is open is denied and audited.
func (e *Engine) SubmitForVerification(ctx context.Context, id domain.SellerID, sub models.Submission) (*models.Seller, error) {
	now := requestcontext.Now(ctx)

	if err := e.requireDocuments(ctx, sub); err != nil {
		return nil, err
	}

	seller, err := e.store.Execute(ctx, id,
		func(s *models.Seller) error { return s.CanSubmit(sub) },
		func(s *models.Seller) { s.ApplySubmission(sub, now) },
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "seller not found")
		}
		if code := dErrors.CodeOf(err); code != "" {
			e.auditDenied(ctx, id, audit.KindOperationDenied, "submit_for_verification", code)
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to submit for verification")
	}

	metrics.SubmissionsTotal.Inc()
	e.auditAppend(ctx, audit.Entry{
		SubjectType: audit.SubjectSeller,
		SubjectID:   seller.ID.String(),
		Kind:        audit.KindSubmittedForReview,
		Timestamp:   now,
		Reason:      "license submission",
	})
	e.logger.Info("verification submitted", "seller_id", seller.ID)
	return seller, nil
}

// ResolveReview closes an open review as approved or rejected. Approval
// with an already-expired license is denied without consuming the review.
func (e *Engine) ResolveReview(ctx context.Context, id domain.SellerID, approve bool, reason string) (*models.Seller, error) {
	now := requestcontext.Now(ctx)

	seller, err := e.store.Execute(ctx, id,
		func(s *models.Seller) error {
			if approve {
				return s.CanApprove(now)
			}
			return s.CanReject()
		},
		func(s *models.Seller) {
			if approve {
				s.ApplyApproval(now)
			} else {
				s.ApplyRejection(now)
			}
		},
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "seller not found")
		}
		if code := dErrors.CodeOf(err); code != "" {
			e.auditDenied(ctx, id, audit.KindOperationDenied, "resolve_review", code)
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve review")
	}

	decision := "rejected"
	if approve {
		decision = "approved"
	}
	metrics.ReviewsResolvedTotal.WithLabelValues(decision).Inc()
	e.auditAppend(ctx, audit.Entry{
		SubjectType: audit.SubjectSeller,
		SubjectID:   seller.ID.String(),
		Kind:        audit.KindReviewResolved,
		Timestamp:   now,
		Decision:    decision,
		Reason:      reason,
	})
	e.syncListings(ctx, seller.ID, seller.IsVerified())
	e.logger.Info("review resolved", "seller_id", seller.ID, "decision", decision)
	return seller, nil
}

func (e *Engine) requireDocuments(ctx context.Context, sub models.Submission) error {
	refs := make([]docstore.Ref, 0, len(sub.PharmacistIDRefs)+1)
	if sub.LicenseDocRef != "" {
		refs = append(refs, sub.LicenseDocRef)
	}
	refs = append(refs, sub.PharmacistIDRefs...)
	for _, ref := range refs {
		ok, err := e.docs.Exists(ctx, ref)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "document store unavailable")
		}
		if !ok {
			return dErrors.Newf(dErrors.CodeValidation, "document %s does not exist", ref)
		}
	}
	return nil
}

// syncListings pushes the seller's verification status into the catalog.
// Sync failures are logged, not surfaced: the gate re-derives the seller
// state on every evaluation, so a missed sync cannot let a sale through.
func (e *Engine) syncListings(ctx context.Context, id domain.SellerID, verified bool) {
	if e.syncer == nil {
		return
	}
	if err := e.syncer.SyncSeller(ctx, id, verified); err != nil {
		e.logger.Error("listing sync failed", "seller_id", id, "error", err)
	}
}

// quarantineListings sends the seller's listings into manual review. Same
// fire-and-forget contract as syncListings.
func (e *Engine) quarantineListings(ctx context.Context, id domain.SellerID, reason string) {
	if e.syncer == nil {
		return
	}
	if err := e.syncer.QuarantineSeller(ctx, id, reason); err != nil {
		e.logger.Error("listing quarantine failed", "seller_id", id, "error", err)
	}
}

func (e *Engine) auditAppend(ctx context.Context, entry audit.Entry) {
	if entry.ActorID == "" {
		entry.ActorID = requestcontext.ActorID(ctx)
	}
	if entry.RequestID == "" {
		entry.RequestID = requestcontext.RequestID(ctx)
	}
	if err := e.auditLog.Append(ctx, entry); err != nil {
		e.logger.Error("audit append failed", "kind", entry.Kind, "subject_id", entry.SubjectID, "error", err)
	}
}

func (e *Engine) auditDenied(ctx context.Context, id domain.SellerID, kind audit.EventKind, operation, code string) {
	e.auditAppend(ctx, audit.Entry{
		SubjectType: audit.SubjectSeller,
		SubjectID:   id.String(),
		Kind:        kind,
		Timestamp:   requestcontext.Now(ctx),
		Decision:    "denied",
		Reason:      code,
		Detail:      operation,
	})
}
