package service

import (
	"context"
	"errors"
	"time"

	"medidrop/internal/registry"
	"medidrop/internal/seller/metrics"
	"medidrop/internal/seller/models"
	"medidrop/pkg/domain"
	dErrors "medidrop/pkg/domain-errors"
	"medidrop/pkg/platform/audit"
	"medidrop/pkg/platform/sentinel"
	"medidrop/pkg/requestcontext"
)

// RegistryCheckOutcome is the result of one registry consultation.
type RegistryCheckOutcome string

const (
	OutcomeApproved     RegistryCheckOutcome = "approved"
	OutcomeRejected     RegistryCheckOutcome = "rejected"
	OutcomeMismatch     RegistryCheckOutcome = "country_mismatch"
	OutcomeManualReview RegistryCheckOutcome = "manual_review"
)

// RunRegistryCheck consults the national registry for a seller and acts on
// the answer:
//
//   - valid license, matching country: an open review resolves to approved
//   - valid license, different country: a Verified seller is forced back
//     into PendingReview; an open review stays open for a human
//   - invalid license: an open review resolves to rejected
//   - timeout or license unknown to the registry: nothing changes, the
//     trail records the inconclusive consultation
func (e *Engine) RunRegistryCheck(ctx context.Context, id domain.SellerID) (RegistryCheckOutcome, error) {
	if e.checker == nil {
		return "", dErrors.New(dErrors.CodeConflict, "no registry checker configured")
	}
	now := requestcontext.Now(ctx)

	seller, err := e.GetSeller(ctx, id)
	if err != nil {
		return "", err
	}
	if seller.State != models.StatePendingReview && seller.State != models.StateVerified {
		return "", dErrors.Newf(dErrors.CodeInvalidTransition, "cannot run a registry check from state %s", seller.State)
	}
	if seller.LicenseNumber == "" {
		return "", dErrors.New(dErrors.CodeValidation, "seller has no license number on file")
	}

	result, err := e.checker.Check(ctx, seller.CountryCode, seller.LicenseNumber)
	if err != nil {
		return e.registryInconclusive(ctx, seller, now, err)
	}

	e.stampRegistryCheck(ctx, id, now)
	e.auditAppend(ctx, audit.Entry{
		SubjectType: audit.SubjectSeller,
		SubjectID:   id.String(),
		Kind:        audit.KindRegistryChecked,
		Timestamp:   now,
		Detail:      result.Source,
		Reason:      registryReason(result),
	})

	switch {
	case result.Valid && result.ConfirmedCountry == seller.CountryCode:
		metrics.RegistryChecksTotal.WithLabelValues("valid").Inc()
		if seller.State == models.StateVerified {
			return OutcomeApproved, nil
		}
		if _, err := e.ResolveReview(ctx, id, true, "registry confirmed license"); err != nil {
			return "", err
		}
		return OutcomeApproved, nil

	case result.Valid:
		metrics.RegistryChecksTotal.WithLabelValues("country_mismatch").Inc()
		return e.registryMismatch(ctx, seller, result, now)

	default:
		metrics.RegistryChecksTotal.WithLabelValues("invalid").Inc()
		if seller.State == models.StateVerified {
			// Registry no longer vouches for a verified seller; send the
			// seller back through review rather than rejecting outright.
			return e.registryMismatch(ctx, seller, result, now)
		}
		if _, err := e.ResolveReview(ctx, id, false, "registry reported license invalid"); err != nil {
			return "", err
		}
		return OutcomeRejected, nil
	}
}

// registryMismatch demotes a Verified seller back to PendingReview after a
// registry answer that contradicts the seller's record. For a seller whose
// review is already open, only the audit entry is added.
func (e *Engine) registryMismatch(ctx context.Context, seller *models.Seller, result registry.Result, now time.Time) (RegistryCheckOutcome, error) {
	reason := "registry country does not match seller country"
	if !result.Valid {
		reason = "registry no longer reports the license as valid"
	}

	if seller.State == models.StateVerified {
		_, err := e.store.Execute(ctx, seller.ID,
			func(s *models.Seller) error { return s.CanForceReview() },
			func(s *models.Seller) { s.ApplyForcedReview(now) },
		)
		if err != nil && dErrors.CodeOf(err) != dErrors.CodeInvalidTransition {
			return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to force seller review")
		}
	}

	// A registry contradiction is not a plain verification lapse: the
	// listings go into manual review and stay there across a later
	// re-approval, until each one is explicitly unblocked.
	e.quarantineListings(ctx, seller.ID, reason)

	e.auditAppend(ctx, audit.Entry{
		SubjectType: audit.SubjectSeller,
		SubjectID:   seller.ID.String(),
		Kind:        audit.KindCountryMismatch,
		Timestamp:   now,
		Decision:    string(OutcomeMismatch),
		Reason:      reason,
		Detail:      result.ConfirmedCountry.String(),
	})
	e.logger.Warn("registry mismatch, seller sent to review",
		"seller_id", seller.ID, "declared", seller.CountryCode, "confirmed", result.ConfirmedCountry)
	return OutcomeMismatch, nil
}

// registryInconclusive covers timeouts and licenses the registry does not
// know. The seller's state does not change; the consultation is recorded
// so reviewers see why no automatic decision happened.
func (e *Engine) registryInconclusive(ctx context.Context, seller *models.Seller, now time.Time, cause error) (RegistryCheckOutcome, error) {
	reason := "registry unreachable"
	switch {
	case errors.Is(cause, context.DeadlineExceeded):
		metrics.RegistryChecksTotal.WithLabelValues("timeout").Inc()
		reason = "registry check timed out"
	case errors.Is(cause, sentinel.ErrNotFound):
		metrics.RegistryChecksTotal.WithLabelValues("unknown").Inc()
		reason = "license not found in registry"
	default:
		metrics.RegistryChecksTotal.WithLabelValues("error").Inc()
	}

	e.auditAppend(ctx, audit.Entry{
		SubjectType: audit.SubjectSeller,
		SubjectID:   seller.ID.String(),
		Kind:        audit.KindRegistryChecked,
		Timestamp:   now,
		Decision:    string(OutcomeManualReview),
		Reason:      reason,
	})
	e.logger.Warn("registry check inconclusive", "seller_id", seller.ID, "reason", reason, "error", cause)
	return OutcomeManualReview, nil
}

func (e *Engine) stampRegistryCheck(ctx context.Context, id domain.SellerID, now time.Time) {
	_, err := e.store.Execute(ctx, id,
		func(*models.Seller) error { return nil },
		func(s *models.Seller) { s.RecordRegistryCheck(now) },
	)
	if err != nil {
		e.logger.Error("failed to stamp registry check", "seller_id", id, "error", err)
	}
}

func registryReason(result registry.Result) string {
	if result.Valid {
		return "registry reports license valid for " + result.ConfirmedCountry.String()
	}
	return "registry reports license invalid"
}
