// Package service implements the prescription workflow for Rx-gated
// listings: buyers open requests, pharmacists review them, buyers may
// withdraw before review starts.
package service

import (
	"context"
	"errors"
	"log/slog"

	catalog "medidrop/internal/catalog/service"
	"medidrop/internal/docstore"
	"medidrop/internal/prescription/metrics"
	"medidrop/internal/prescription/models"
	"medidrop/internal/prescription/store"
	"medidrop/pkg/domain"
	dErrors "medidrop/pkg/domain-errors"
	"medidrop/pkg/platform/audit"
	"medidrop/pkg/platform/sentinel"
	"medidrop/pkg/requestcontext"
)

// Gate is the catalog evaluation the workflow consults before accepting a
// request. Implemented by the catalog service.
type Gate interface {
	Evaluate(ctx context.Context, listingID domain.ListingID, buyerCountry domain.CountryCode) (*catalog.Decision, error)
}

// Service drives the prescription workflow.
type Service struct {
	store    store.Store
	gate     Gate
	docs     docstore.Store
	auditLog *audit.Log
	logger   *slog.Logger
}

func New(st store.Store, gate Gate, docs docstore.Store, auditLog *audit.Log, logger *slog.Logger) *Service {
	return &Service{
		store:    st,
		gate:     gate,
		docs:     docs,
		auditLog: auditLog,
		logger:   logger,
	}
}

// Create opens a prescription request. The listing must currently gate on
// a prescription for the buyer: a purchasable listing needs none, and a
// blocked one cannot take requests at all.
func (s *Service) Create(ctx context.Context, draft models.Draft) (*models.Prescription, error) {
	now := requestcontext.Now(ctx)
	draft.BuyerID = requestcontext.ActorID(ctx)
	if draft.BuyerID == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}

	decision, err := s.gate.Evaluate(ctx, draft.ListingID, draft.BuyerCountry)
	if err != nil {
		return nil, err
	}
	switch decision.Status {
	case catalog.StatusRxRequired:
	case catalog.StatusPurchasable:
		s.auditDenied(ctx, audit.SubjectListing, draft.ListingID.String(), "create_prescription", dErrors.CodeNotRxGated)
		return nil, dErrors.New(dErrors.CodeNotRxGated, "listing does not require a prescription")
	default:
		s.auditDenied(ctx, audit.SubjectListing, draft.ListingID.String(), "create_prescription", dErrors.CodeForbidden)
		return nil, dErrors.Newf(dErrors.CodeForbidden, "listing is not available for purchase: %s", decision.Reason)
	}

	ok, err := s.docs.Exists(ctx, draft.DocRef)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "document store unavailable")
	}
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeValidation, "document %s does not exist", draft.DocRef)
	}

	p, err := models.NewPrescription(domain.NewPrescriptionID(), draft, now)
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, p); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create prescription")
	}

	metrics.RequestsTotal.Inc()
	s.auditAppend(ctx, audit.Entry{
		SubjectType: audit.SubjectListing,
		SubjectID:   p.ListingID.String(),
		Kind:        audit.KindPrescriptionRequested,
		Timestamp:   now,
		Detail:      p.ID.String(),
	})
	s.logger.Info("prescription requested", "prescription_id", p.ID, "listing_id", p.ListingID, "buyer_id", p.BuyerID)
	return p, nil
}

// Get loads a prescription by ID.
func (s *Service) Get(ctx context.Context, id domain.PrescriptionID) (*models.Prescription, error) {
	p, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "prescription not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load prescription")
	}
	return p, nil
}

// ListByBuyer returns all requests a buyer has opened.
func (s *Service) ListByBuyer(ctx context.Context, buyerID string) ([]*models.Prescription, error) {
	out, err := s.store.ListByBuyer(ctx, buyerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list prescriptions")
	}
	return out, nil
}

// Review resolves a request. A request still in Requested is picked up and
// resolved in one step; the pickup and the resolution share the lock, so a
// concurrent cancel loses cleanly.
func (s *Service) Review(ctx context.Context, id domain.PrescriptionID, accept bool, note string) (*models.Prescription, error) {
	now := requestcontext.Now(ctx)
	reviewerID := requestcontext.ActorID(ctx)

	p, err := s.store.Execute(ctx, id,
		func(p *models.Prescription) error {
			if p.State == models.StateRequested {
				return p.CanStartReview()
			}
			return p.CanReview()
		},
		func(p *models.Prescription) {
			if p.State == models.StateRequested {
				p.ApplyStartReview(reviewerID, now)
			}
			p.ApplyReview(accept, note, now)
		},
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "prescription not found")
		}
		if code := dErrors.CodeOf(err); code != "" {
			s.auditDenied(ctx, audit.SubjectPrescription, id.String(), "review_prescription", code)
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to review prescription")
	}

	outcome := "rejected"
	if accept {
		outcome = "accepted"
	}
	metrics.ReviewsTotal.WithLabelValues(outcome).Inc()
	s.auditAppend(ctx, audit.Entry{
		SubjectType: audit.SubjectListing,
		SubjectID:   p.ListingID.String(),
		Kind:        audit.KindPrescriptionReviewed,
		Timestamp:   now,
		Decision:    outcome,
		Reason:      note,
		Detail:      p.ID.String(),
	})
	s.logger.Info("prescription reviewed", "prescription_id", p.ID, "outcome", outcome)
	return p, nil
}

// Cancel withdraws a request. Only the requesting buyer may cancel, and
// only while the request is still in Requested.
func (s *Service) Cancel(ctx context.Context, id domain.PrescriptionID) (*models.Prescription, error) {
	now := requestcontext.Now(ctx)
	buyerID := requestcontext.ActorID(ctx)

	p, err := s.store.Execute(ctx, id,
		func(p *models.Prescription) error { return p.CanCancel(buyerID) },
		func(p *models.Prescription) { p.ApplyCancel(now) },
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "prescription not found")
		}
		if code := dErrors.CodeOf(err); code != "" {
			s.auditDenied(ctx, audit.SubjectPrescription, id.String(), "cancel_prescription", code)
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to cancel prescription")
	}

	metrics.CancellationsTotal.Inc()
	s.auditAppend(ctx, audit.Entry{
		SubjectType: audit.SubjectListing,
		SubjectID:   p.ListingID.String(),
		Kind:        audit.KindPrescriptionCancelled,
		Timestamp:   now,
		Detail:      p.ID.String(),
	})
	s.logger.Info("prescription cancelled", "prescription_id", p.ID)
	return p, nil
}

func (s *Service) auditDenied(ctx context.Context, subjectType audit.SubjectType, subjectID, operation, code string) {
	s.auditAppend(ctx, audit.Entry{
		SubjectType: subjectType,
		SubjectID:   subjectID,
		Kind:        audit.KindOperationDenied,
		Timestamp:   requestcontext.Now(ctx),
		Decision:    "denied",
		Reason:      code,
		Detail:      operation,
	})
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
