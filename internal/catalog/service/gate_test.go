package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"medidrop/internal/catalog/models"
	"medidrop/internal/catalog/store"
	"medidrop/internal/docstore"
	"medidrop/internal/registry"
	"medidrop/internal/rules"
	sellermodels "medidrop/internal/seller/models"
	sellerservice "medidrop/internal/seller/service"
	sellerstore "medidrop/internal/seller/store"
	"medidrop/pkg/domain"
	dErrors "medidrop/pkg/domain-errors"
	"medidrop/pkg/platform/audit"
	auditmemory "medidrop/pkg/platform/audit/store/memory"
	"medidrop/pkg/testutil"
)

type GateSuite struct {
	suite.Suite
	sellers    *sellerstore.InMemory
	listings   *store.InMemory
	auditStore *auditmemory.InMemoryStore
	docs       *docstore.InMemory
	checker    *registry.StaticChecker
	engine     *sellerservice.Engine
	service    *Service

	now    time.Time
	ctx    context.Context
	docRef docstore.Ref
}

func TestGateSuite(t *testing.T) {
	suite.Run(t, new(GateSuite))
}

func (s *GateSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.sellers = sellerstore.NewInMemory()
	s.listings = store.NewInMemory()
	s.auditStore = auditmemory.NewInMemoryStore()
	s.docs = docstore.NewInMemory()
	auditLog := audit.NewLog(s.auditStore)

	s.checker = registry.NewStaticChecker()
	s.engine = sellerservice.NewEngine(s.sellers, auditLog, s.docs, s.checker, logger)
	s.service = New(s.listings, s.engine, rules.MustSeedTable(), auditLog, nil, logger)
	s.engine.SetListingSyncer(s.service)

	s.now = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	s.ctx = testutil.Context("buyer-1", s.now)

	ref, err := s.docs.Put(context.Background(), []byte("license pdf"))
	s.Require().NoError(err)
	s.docRef = ref
}

func (s *GateSuite) seller(country string, expiry time.Time) *sellermodels.Seller {
	seller, err := s.engine.CreateSeller(s.ctx, "Test Pharmacy", domain.CountryCode(country))
	s.Require().NoError(err)
	_, err = s.engine.SubmitForVerification(s.ctx, seller.ID, sellermodels.Submission{
		LicenseNumber: "LIC-1",
		LicenseExpiry: expiry,
		LicenseDocRef: s.docRef,
	})
	s.Require().NoError(err)
	verified, err := s.engine.ResolveReview(s.ctx, seller.ID, true, "")
	s.Require().NoError(err)
	return verified
}

func (s *GateSuite) listing(sellerID domain.SellerID, class string, coldChain bool) *models.ProductListing {
	listing, err := s.service.CreateListing(s.ctx, sellerID, models.ListingDetails{
		Name:             "Test Product",
		Class:            domain.ProductClass(class),
		ColdChainCapable: coldChain,
		PriceMinor:       4500,
		Currency:         "EGP",
	})
	s.Require().NoError(err)
	return listing
}

func (s *GateSuite) TestEvaluate() {
	s.Run("verified seller, otc product is purchasable", func() {
		seller := s.seller("EG", s.now.AddDate(1, 0, 0))
		listing := s.listing(seller.ID, "otc", false)

		d, err := s.service.Evaluate(s.ctx, listing.ID, "SA")
		s.Require().NoError(err)
		s.Equal(StatusPurchasable, d.Status)
		s.Equal("otc", d.Requirement)
		s.Equal(domain.CountryCode("SA"), d.BuyerCountry)
	})

	s.Run("antibiotic requires a prescription", func() {
		seller := s.seller("EG", s.now.AddDate(1, 0, 0))
		listing := s.listing(seller.ID, "antibiotic", false)

		d, err := s.service.Evaluate(s.ctx, listing.ID, "AE")
		s.Require().NoError(err)
		s.Equal(StatusRxRequired, d.Status)
	})

	s.Run("insulin with cold-chain capable listing requires prescription", func() {
		seller := s.seller("AE", s.now.AddDate(1, 0, 0))
		listing := s.listing(seller.ID, "insulin", true)

		d, err := s.service.Evaluate(s.ctx, listing.ID, "EG")
		s.Require().NoError(err)
		s.Equal(StatusRxRequired, d.Status)
		s.Equal("rx_cold_chain", d.Requirement)
	})

	s.Run("insulin without cold-chain capability blocks", func() {
		seller := s.seller("AE", s.now.AddDate(1, 0, 0))
		listing := s.listing(seller.ID, "insulin", false)

		d, err := s.service.Evaluate(s.ctx, listing.ID, "EG")
		s.Require().NoError(err)
		s.Equal(StatusBlocked, d.Status)
		s.Equal(dErrors.CodeColdChainMismatch, d.Reason)
	})

	s.Run("unknown jurisdiction blocks, never falls back to otc", func() {
		seller := s.seller("EG", s.now.AddDate(1, 0, 0))
		listing := s.listing(seller.ID, "narcotic", false)

		d, err := s.service.Evaluate(s.ctx, listing.ID, "EG")
		s.Require().NoError(err)
		s.Equal(StatusBlocked, d.Status)
		s.Equal(dErrors.CodeUnknownJurisdiction, d.Reason)
	})

	s.Run("missing listing is not found", func() {
		_, err := s.service.Evaluate(s.ctx, domain.NewListingID(), "EG")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("rule lookup keys off the seller country, not the buyer", func() {
		// SA has no supplement rule; EG does. The EG seller sells to SA.
		seller := s.seller("EG", s.now.AddDate(1, 0, 0))
		listing := s.listing(seller.ID, "supplement", false)

		d, err := s.service.Evaluate(s.ctx, listing.ID, "SA")
		s.Require().NoError(err)
		s.Equal(StatusPurchasable, d.Status)
	})
}

func (s *GateSuite) TestEvaluateUnverifiedSeller() {
	seller, err := s.engine.CreateSeller(s.ctx, "New Pharmacy", "EG")
	s.Require().NoError(err)
	listing := s.listing(seller.ID, "otc", false)

	d, err := s.service.Evaluate(s.ctx, listing.ID, "EG")
	s.Require().NoError(err)
	s.Equal(StatusBlocked, d.Status)
	s.Equal(dErrors.CodeSellerUnverified, d.Reason)

	found, err := s.service.GetListing(s.ctx, listing.ID)
	s.Require().NoError(err)
	s.Equal(models.StateAutoPaused, found.State)

	s.Equal(1, s.auditStore.CountByKind(audit.KindListingAutoPaused))
	s.Equal(1, s.auditStore.CountByKind(audit.KindPurchaseBlocked))
}

func (s *GateSuite) TestEvaluateIsRepeatable() {
	seller, err := s.engine.CreateSeller(s.ctx, "New Pharmacy", "EG")
	s.Require().NoError(err)
	listing := s.listing(seller.ID, "otc", false)

	first, err := s.service.Evaluate(s.ctx, listing.ID, "EG")
	s.Require().NoError(err)
	second, err := s.service.Evaluate(s.ctx, listing.ID, "EG")
	s.Require().NoError(err)

	s.Equal(first.Status, second.Status)
	s.Equal(first.Reason, second.Reason)
	// The pause transition happened exactly once.
	s.Equal(1, s.auditStore.CountByKind(audit.KindListingAutoPaused))
	// Every blocked attempt lands on the trail.
	s.Equal(2, s.auditStore.CountByKind(audit.KindPurchaseBlocked))
}

func (s *GateSuite) TestAutoResumeAfterReverification() {
	seller := s.seller("EG", s.now.AddDate(1, 0, 0))
	listing := s.listing(seller.ID, "otc", false)

	// Suspension through the sweep pauses the listing.
	_, err := s.sellers.Execute(s.ctx, seller.ID,
		func(sl *sellermodels.Seller) error { return sl.CanSuspend() },
		func(sl *sellermodels.Seller) { sl.ApplySuspension(s.now) },
	)
	s.Require().NoError(err)
	s.Require().NoError(s.service.SyncSeller(s.ctx, seller.ID, false))

	d, err := s.service.Evaluate(s.ctx, listing.ID, "EG")
	s.Require().NoError(err)
	s.Equal(StatusBlocked, d.Status)
	s.Equal(dErrors.CodeSellerUnverified, d.Reason)

	// Re-verification resumes on the next evaluation.
	_, err = s.engine.SubmitForVerification(s.ctx, seller.ID, sellermodels.Submission{
		LicenseNumber: "LIC-1",
		LicenseExpiry: s.now.AddDate(1, 0, 0),
		LicenseDocRef: s.docRef,
	})
	s.Require().NoError(err)
	_, err = s.engine.ResolveReview(s.ctx, seller.ID, true, "")
	s.Require().NoError(err)

	d, err = s.service.Evaluate(s.ctx, listing.ID, "EG")
	s.Require().NoError(err)
	s.Equal(StatusPurchasable, d.Status)

	found, err := s.service.GetListing(s.ctx, listing.ID)
	s.Require().NoError(err)
	s.Equal(models.StateActive, found.State)
}

func (s *GateSuite) TestRegistryMismatchQuarantinesListings() {
	seller := s.seller("EG", s.now.AddDate(1, 0, 0))
	listing := s.listing(seller.ID, "otc", false)

	// The registry vouches for the license, but in another country.
	s.checker.Add(registry.Record{LicenseNumber: "LIC-1", Country: "SA", Valid: true})
	outcome, err := s.engine.RunRegistryCheck(s.ctx, seller.ID)
	s.Require().NoError(err)
	s.Equal(sellerservice.OutcomeMismatch, outcome)

	found, err := s.service.GetListing(s.ctx, listing.ID)
	s.Require().NoError(err)
	s.Equal(models.StateManualReview, found.State)

	// Re-approving the seller does not reactivate a quarantined listing.
	_, err = s.engine.ResolveReview(s.ctx, seller.ID, true, "documents re-checked")
	s.Require().NoError(err)

	d, err := s.service.Evaluate(s.ctx, listing.ID, "EG")
	s.Require().NoError(err)
	s.Equal(StatusBlocked, d.Status)
	s.Equal("listing_manual_review", d.Reason)

	// Only an explicit unblock does.
	_, err = s.service.Unblock(s.ctx, listing.ID)
	s.Require().NoError(err)

	d, err = s.service.Evaluate(s.ctx, listing.ID, "EG")
	s.Require().NoError(err)
	s.Equal(StatusPurchasable, d.Status)
}

func (s *GateSuite) TestFlaggedListingStaysDown() {
	seller := s.seller("EG", s.now.AddDate(1, 0, 0))
	listing := s.listing(seller.ID, "otc", false)

	_, err := s.service.FlagForReview(s.ctx, listing.ID, "random compliance audit")
	s.Require().NoError(err)

	d, err := s.service.Evaluate(s.ctx, listing.ID, "EG")
	s.Require().NoError(err)
	s.Equal(StatusBlocked, d.Status)
	s.Equal("listing_manual_review", d.Reason)

	// A verified seller does not auto-resume a flagged listing.
	s.Require().NoError(s.service.SyncSeller(s.ctx, seller.ID, true))
	found, err := s.service.GetListing(s.ctx, listing.ID)
	s.Require().NoError(err)
	s.Equal(models.StateManualReview, found.State)

	// Only an explicit unblock does.
	_, err = s.service.Unblock(s.ctx, listing.ID)
	s.Require().NoError(err)

	d, err = s.service.Evaluate(s.ctx, listing.ID, "EG")
	s.Require().NoError(err)
	s.Equal(StatusPurchasable, d.Status)
}

func (s *GateSuite) TestUnblockRequiresFlaggedListing() {
	seller := s.seller("EG", s.now.AddDate(1, 0, 0))
	listing := s.listing(seller.ID, "otc", false)

	_, err := s.service.Unblock(s.ctx, listing.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
}

func (s *GateSuite) TestSyncSellerPausesAllActiveListings() {
	seller := s.seller("EG", s.now.AddDate(1, 0, 0))
	first := s.listing(seller.ID, "otc", false)
	second := s.listing(seller.ID, "antibiotic", false)

	s.Require().NoError(s.service.SyncSeller(s.ctx, seller.ID, false))

	for _, id := range []domain.ListingID{first.ID, second.ID} {
		found, err := s.service.GetListing(s.ctx, id)
		s.Require().NoError(err)
		s.Equal(models.StateAutoPaused, found.State)
	}
	s.Equal(2, s.auditStore.CountByKind(audit.KindListingAutoPaused))
}
