package handler_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"medidrop/internal/catalog/handler"
	catalog "medidrop/internal/catalog/service"
	catalogstore "medidrop/internal/catalog/store"
	"medidrop/internal/docstore"
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

type HandlerSuite struct {
	suite.Suite
	router *chi.Mux
	engine *sellerservice.Engine
	now    time.Time

	verifiedSeller domain.SellerID
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	docs := docstore.NewInMemory()
	auditLog := audit.NewLog(auditmemory.NewInMemoryStore())
	s.engine = sellerservice.NewEngine(sellerstore.NewInMemory(), auditLog, docs, nil, logger)
	svc := catalog.New(catalogstore.NewInMemory(), s.engine, rules.MustSeedTable(), auditLog, nil, logger)
	s.engine.SetListingSyncer(svc)

	h := handler.New(svc, logger)
	s.router = chi.NewRouter()
	h.Register(s.router)
	h.RegisterAdmin(s.router)

	s.now = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	ref, err := docs.Put(context.Background(), []byte("license pdf"))
	s.Require().NoError(err)

	ctx := testutil.Context("admin-1", s.now)
	seller, err := s.engine.CreateSeller(ctx, "PharmaPlus Cairo", "EG")
	s.Require().NoError(err)
	_, err = s.engine.SubmitForVerification(ctx, seller.ID, sellermodels.Submission{
		LicenseNumber: "EG-PH-10021",
		LicenseExpiry: s.now.AddDate(1, 0, 0),
		LicenseDocRef: ref,
	})
	s.Require().NoError(err)
	_, err = s.engine.ResolveReview(ctx, seller.ID, true, "")
	s.Require().NoError(err)
	s.verifiedSeller = seller.ID
}

func (s *HandlerSuite) do(req *http.Request) *httptest.ResponseRecorder {
	req = testutil.WithActor(req, "buyer-1")
	req = testutil.WithTime(req, s.now)
	return testutil.DoRequest(s.router, req)
}

func (s *HandlerSuite) createListing(class string, coldChain bool) *handler.ListingResponse {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/listings", map[string]any{
		"seller_id":          s.verifiedSeller.String(),
		"name":               "Test Product",
		"description":        "A test product",
		"product_class":      class,
		"cold_chain_capable": coldChain,
		"price_minor":        4500,
		"currency":           "egp",
		"tags":               []string{"demo"},
	})
	rr := s.do(req)
	require.Equal(s.T(), http.StatusCreated, rr.Code, rr.Body.String())
	return testutil.UnmarshalResponse[handler.ListingResponse](s.T(), rr)
}

func (s *HandlerSuite) evaluate(listingID, buyerCountry string) *httptest.ResponseRecorder {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/catalog/evaluate", map[string]string{
		"listing_id":    listingID,
		"buyer_country": buyerCountry,
	})
	return s.do(req)
}

func (s *HandlerSuite) TestCreateListing() {
	s.Run("creates and normalizes the class", func() {
		listing := s.createListing("OTC", false)
		s.Equal("otc", listing.ProductClass)
		s.Equal("active", listing.State)
		s.Equal(int64(4500), listing.PriceMinor)
		s.Equal("EGP", listing.Currency)
		s.Equal([]string{"demo"}, listing.Tags)
	})

	s.Run("rejects a priced listing without a currency", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/listings", map[string]any{
			"seller_id":     s.verifiedSeller.String(),
			"name":          "Test Product",
			"product_class": "otc",
			"price_minor":   4500,
		})
		rr := s.do(req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnprocessableEntity, dErrors.CodeValidation)
	})

	s.Run("rejects an unknown seller", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/listings", map[string]any{
			"seller_id":     domain.NewSellerID().String(),
			"name":          "Test Product",
			"product_class": "otc",
		})
		rr := s.do(req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, dErrors.CodeNotFound)
	})

	s.Run("rejects a missing product class", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/listings", map[string]any{
			"seller_id": s.verifiedSeller.String(),
			"name":      "Test Product",
		})
		rr := s.do(req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnprocessableEntity, dErrors.CodeValidation)
	})
}

func (s *HandlerSuite) TestEvaluate() {
	s.Run("purchasable otc", func() {
		listing := s.createListing("otc", false)
		rr := s.evaluate(listing.ID, "sa")
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[handler.DecisionResponse](s.T(), rr)
		s.Equal("purchasable", resp.Status)
		s.Equal("SA", resp.BuyerCountry)
	})

	s.Run("rx-gated antibiotic", func() {
		listing := s.createListing("antibiotic", false)
		rr := s.evaluate(listing.ID, "AE")
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[handler.DecisionResponse](s.T(), rr)
		s.Equal("rx_required", resp.Status)
	})

	s.Run("blocked decision still returns 200", func() {
		listing := s.createListing("insulin", false)
		rr := s.evaluate(listing.ID, "EG")
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[handler.DecisionResponse](s.T(), rr)
		s.Equal("blocked", resp.Status)
		s.Equal(dErrors.CodeColdChainMismatch, resp.Reason)
	})

	s.Run("unknown listing is an error, not a decision", func() {
		rr := s.evaluate(domain.NewListingID().String(), "EG")
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, dErrors.CodeNotFound)
	})

	s.Run("rejects a malformed buyer country", func() {
		listing := s.createListing("otc", false)
		rr := s.evaluate(listing.ID, "Egypt")
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnprocessableEntity, dErrors.CodeValidation)
	})
}

func (s *HandlerSuite) TestFlagAndUnblock() {
	listing := s.createListing("otc", false)

	flagReq := testutil.NewJSONRequest(s.T(), http.MethodPost,
		"/admin/listings/"+listing.ID+"/flag", map[string]string{"reason": "spot check"})
	rr := s.do(flagReq)
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	flagged := testutil.UnmarshalResponse[handler.ListingResponse](s.T(), rr)
	s.Equal("manual_review", flagged.State)
	s.Equal("spot check", flagged.PauseReason)

	rr = s.evaluate(listing.ID, "EG")
	resp := testutil.UnmarshalResponse[handler.DecisionResponse](s.T(), rr)
	s.Equal("blocked", resp.Status)

	rr = s.do(testutil.NewRequest(s.T(), http.MethodPost, "/admin/listings/"+listing.ID+"/unblock"))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	resumed := testutil.UnmarshalResponse[handler.ListingResponse](s.T(), rr)
	s.Equal("active", resumed.State)

	rr = s.evaluate(listing.ID, "EG")
	resp = testutil.UnmarshalResponse[handler.DecisionResponse](s.T(), rr)
	s.Equal("purchasable", resp.Status)
}
