package service

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"medidrop/internal/seller/metrics"
	"medidrop/internal/seller/models"
	"medidrop/pkg/domain"
	dErrors "medidrop/pkg/domain-errors"
	"medidrop/pkg/platform/audit"
)

// SweepReport summarizes one expiry sweep run.
type SweepReport struct {
	Checked   int `json:"checked"`
	Suspended int `json:"suspended"`
	Warned    int `json:"warned"`
}

// RunDailyExpiryCheck walks every Verified seller as of now, suspends the
// ones whose license has expired and emits a pending-expiry warning for
// licenses inside the warning window. Re-running with the same now is
// idempotent: suspensions are guarded by the state machine and warnings
// are deduplicated against the audit trail. Only one sweep runs at a time.
func (e *Engine) RunDailyExpiryCheck(ctx context.Context, now time.Time) (*SweepReport, error) {
	if !e.sweepMu.TryLock() {
		return nil, dErrors.New(dErrors.CodeConflict, "an expiry sweep is already running")
	}
	defer e.sweepMu.Unlock()

	started := time.Now()
	defer func() { metrics.ExpirySweepDuration.Observe(time.Since(started).Seconds()) }()

	sellers, err := e.store.ListByState(ctx, models.StateVerified)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list verified sellers")
	}

	report := &SweepReport{Checked: len(sellers)}
	var suspended, warned int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	results := make([]struct{ suspended, warned bool }, len(sellers))
	for i, seller := range sellers {
		g.Go(func() error {
			s, w, err := e.sweepSeller(gctx, seller.ID, now)
			if err != nil {
				return err
			}
			results[i].suspended = s
			results[i].warned = w
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, r := range results {
		if r.suspended {
			suspended++
		}
		if r.warned {
			warned++
		}
	}

	report.Suspended = int(suspended)
	report.Warned = int(warned)
	e.logger.Info("expiry sweep finished",
		"checked", report.Checked, "suspended", report.Suspended, "warned", report.Warned)
	return report, nil
}

func (e *Engine) sweepSeller(ctx context.Context, id domain.SellerID, now time.Time) (suspended, warned bool, err error) {
	seller, err := e.store.Execute(ctx, id,
		func(s *models.Seller) error {
			if !s.LicenseExpired(now) {
				return errSweepSkip
			}
			return s.CanSuspend()
		},
		func(s *models.Seller) { s.ApplySuspension(now) },
	)
	if err != nil {
		// A seller that moved out of Verified between the listing and the
		// lock is someone else's transition; skip it.
		if errors.Is(err, errSweepSkip) || dErrors.CodeOf(err) == dErrors.CodeInvalidTransition {
			return false, e.warnIfExpiring(ctx, id, now), nil
		}
		return false, false, dErrors.Wrap(err, dErrors.CodeInternal, "expiry sweep failed on seller")
	}

	metrics.SuspensionsTotal.Inc()
	e.auditAppend(ctx, audit.Entry{
		SubjectType: audit.SubjectSeller,
		SubjectID:   seller.ID.String(),
		Kind:        audit.KindLicenseExpired,
		Timestamp:   now,
		ActorID:     "system",
		Decision:    "suspended",
		Reason:      "license expired",
	})
	e.syncListings(ctx, seller.ID, false)
	e.logger.Info("seller suspended by expiry sweep", "seller_id", seller.ID)
	return true, false, nil
}

var errSweepSkip = errors.New("sweep: seller not expired")

// warnIfExpiring emits one pending-expiry warning per seller per sweep
// time. Warnings are stamped with the sweep's now, so a re-run with the
// same now finds the existing entry and emits nothing.
func (e *Engine) warnIfExpiring(ctx context.Context, id domain.SellerID, now time.Time) bool {
	seller, err := e.store.FindByID(ctx, id)
	if err != nil {
		e.logger.Error("expiry warning check failed", "seller_id", id, "error", err)
		return false
	}
	if !seller.IsVerified() || !seller.LicenseExpiresWithin(now, ExpiryWarningWindow) {
		return false
	}

	trail, err := e.auditLog.ListBySubject(ctx, audit.SubjectSeller, id.String())
	if err != nil {
		e.logger.Error("expiry warning dedupe failed", "seller_id", id, "error", err)
		return false
	}
	for _, entry := range trail {
		if entry.Kind == audit.KindPendingExpiry && entry.Timestamp.Equal(now) {
			return false
		}
	}

	metrics.ExpiryWarningsTotal.Inc()
	e.auditAppend(ctx, audit.Entry{
		SubjectType: audit.SubjectSeller,
		SubjectID:   id.String(),
		Kind:        audit.KindPendingExpiry,
		Timestamp:   now,
		ActorID:     "system",
		Reason:      "license expires within 30 days",
		Detail:      seller.LicenseExpiry.UTC().Format(time.RFC3339),
	})
	return true
}
