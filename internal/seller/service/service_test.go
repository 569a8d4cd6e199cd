package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"medidrop/internal/docstore"
	"medidrop/internal/registry"
	"medidrop/internal/seller/models"
	"medidrop/internal/seller/store"
	"medidrop/pkg/domain"
	dErrors "medidrop/pkg/domain-errors"
	"medidrop/pkg/platform/audit"
	auditmemory "medidrop/pkg/platform/audit/store/memory"
	"medidrop/pkg/testutil"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type syncCall struct {
	sellerID domain.SellerID
	verified bool
}

type quarantineCall struct {
	sellerID domain.SellerID
	reason   string
}

// syncRecorder captures listing sync notifications for assertions.
type syncRecorder struct {
	mu          sync.Mutex
	calls       []syncCall
	quarantines []quarantineCall
}

func (r *syncRecorder) SyncSeller(_ context.Context, sellerID domain.SellerID, verified bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, syncCall{sellerID, verified})
	return nil
}

func (r *syncRecorder) QuarantineSeller(_ context.Context, sellerID domain.SellerID, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.quarantines = append(r.quarantines, quarantineCall{sellerID, reason})
	return nil
}

func (r *syncRecorder) last() (syncCall, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) == 0 {
		return syncCall{}, false
	}
	return r.calls[len(r.calls)-1], true
}

func (r *syncRecorder) lastQuarantine() (quarantineCall, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.quarantines) == 0 {
		return quarantineCall{}, false
	}
	return r.quarantines[len(r.quarantines)-1], true
}

type EngineSuite struct {
	suite.Suite
	store      *store.InMemory
	auditStore *auditmemory.InMemoryStore
	docs       *docstore.InMemory
	checker    *registry.StaticChecker
	syncer     *syncRecorder
	engine     *Engine

	now    time.Time
	ctx    context.Context
	docRef docstore.Ref
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.store = store.NewInMemory()
	s.auditStore = auditmemory.NewInMemoryStore()
	s.docs = docstore.NewInMemory()
	s.checker = registry.NewStaticChecker()
	s.syncer = &syncRecorder{}

	s.engine = NewEngine(s.store, audit.NewLog(s.auditStore), s.docs, s.checker, testLogger())
	s.engine.SetListingSyncer(s.syncer)

	s.now = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	s.ctx = testutil.Context("reviewer-1", s.now)

	ref, err := s.docs.Put(context.Background(), []byte("license pdf"))
	s.Require().NoError(err)
	s.docRef = ref
}

func (s *EngineSuite) submission(expiry time.Time) models.Submission {
	return models.Submission{
		LicenseNumber: "EG-PH-10021",
		LicenseExpiry: expiry,
		LicenseDocRef: s.docRef,
	}
}

func (s *EngineSuite) createSeller() *models.Seller {
	seller, err := s.engine.CreateSeller(s.ctx, "PharmaPlus Cairo", "EG")
	s.Require().NoError(err)
	return seller
}

func (s *EngineSuite) pendingSeller(expiry time.Time) *models.Seller {
	seller := s.createSeller()
	updated, err := s.engine.SubmitForVerification(s.ctx, seller.ID, s.submission(expiry))
	s.Require().NoError(err)
	return updated
}

func (s *EngineSuite) verifiedSeller(expiry time.Time) *models.Seller {
	seller := s.pendingSeller(expiry)
	updated, err := s.engine.ResolveReview(s.ctx, seller.ID, true, "checked")
	s.Require().NoError(err)
	return updated
}

func (s *EngineSuite) TestSubmitForVerification() {
	s.Run("submission opens a review and lands on the trail", func() {
		seller := s.createSeller()
		updated, err := s.engine.SubmitForVerification(s.ctx, seller.ID, s.submission(s.now.AddDate(1, 0, 0)))
		s.Require().NoError(err)
		s.Equal(models.StatePendingReview, updated.State)
		s.Equal(1, s.auditStore.CountByKind(audit.KindSubmittedForReview))
	})

	s.Run("unknown document rejects before any state change", func() {
		seller := s.createSeller()
		sub := s.submission(s.now.AddDate(1, 0, 0))
		sub.LicenseDocRef = "no-such-doc"
		_, err := s.engine.SubmitForVerification(s.ctx, seller.ID, sub)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		found, err := s.engine.GetSeller(s.ctx, seller.ID)
		s.Require().NoError(err)
		s.Equal(models.StateUnverified, found.State)
	})

	s.Run("second submission is denied and audited", func() {
		seller := s.pendingSeller(s.now.AddDate(1, 0, 0))
		before := s.auditStore.CountByKind(audit.KindOperationDenied)

		_, err := s.engine.SubmitForVerification(s.ctx, seller.ID, s.submission(s.now.AddDate(1, 0, 0)))
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyPending))
		s.Equal(before+1, s.auditStore.CountByKind(audit.KindOperationDenied))
	})

	s.Run("missing seller is not found", func() {
		_, err := s.engine.SubmitForVerification(s.ctx, domain.NewSellerID(), s.submission(s.now.AddDate(1, 0, 0)))
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *EngineSuite) TestResolveReview() {
	s.Run("approval verifies and syncs listings", func() {
		seller := s.pendingSeller(s.now.AddDate(1, 0, 0))
		updated, err := s.engine.ResolveReview(s.ctx, seller.ID, true, "documents in order")
		s.Require().NoError(err)
		s.True(updated.IsVerified())

		call, ok := s.syncer.last()
		s.Require().True(ok)
		s.Equal(seller.ID, call.sellerID)
		s.True(call.verified)

		trail, err := s.engine.auditLog.ListBySubject(s.ctx, audit.SubjectSeller, seller.ID.String())
		s.Require().NoError(err)
		last := trail[len(trail)-1]
		s.Equal(audit.KindReviewResolved, last.Kind)
		s.Equal("approved", last.Decision)
		s.Equal("reviewer-1", last.ActorID)
	})

	s.Run("rejection returns the seller to unverified", func() {
		seller := s.pendingSeller(s.now.AddDate(1, 0, 0))
		updated, err := s.engine.ResolveReview(s.ctx, seller.ID, false, "illegible license scan")
		s.Require().NoError(err)
		s.Equal(models.StateUnverified, updated.State)

		call, ok := s.syncer.last()
		s.Require().True(ok)
		s.False(call.verified)
	})

	s.Run("approving an expired license is denied, review stays open", func() {
		seller := s.pendingSeller(s.now.Add(-time.Hour))
		before := s.auditStore.CountByKind(audit.KindOperationDenied)

		_, err := s.engine.ResolveReview(s.ctx, seller.ID, true, "")
		s.True(dErrors.HasCode(err, dErrors.CodeExpiredLicense))
		s.Equal(before+1, s.auditStore.CountByKind(audit.KindOperationDenied))

		found, err := s.engine.GetSeller(s.ctx, seller.ID)
		s.Require().NoError(err)
		s.Equal(models.StatePendingReview, found.State)
	})

	s.Run("rejecting an expired license still works", func() {
		seller := s.pendingSeller(s.now.Add(-time.Hour))
		updated, err := s.engine.ResolveReview(s.ctx, seller.ID, false, "license expired")
		s.Require().NoError(err)
		s.Equal(models.StateUnverified, updated.State)
	})

	s.Run("resolving without an open review conflicts", func() {
		seller := s.verifiedSeller(s.now.AddDate(1, 0, 0))
		_, err := s.engine.ResolveReview(s.ctx, seller.ID, true, "")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})
}
