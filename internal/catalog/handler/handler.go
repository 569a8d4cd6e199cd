package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"medidrop/internal/catalog/models"
	"medidrop/internal/catalog/service"
	"medidrop/pkg/domain"
	dErrors "medidrop/pkg/domain-errors"
	"medidrop/pkg/platform/httputil"
	"medidrop/pkg/requestcontext"
)

// Service defines the catalog operations the handler needs.
type Service interface {
	CreateListing(ctx context.Context, sellerID domain.SellerID, details models.ListingDetails) (*models.ProductListing, error)
	GetListing(ctx context.Context, id domain.ListingID) (*models.ProductListing, error)
	ListBySeller(ctx context.Context, sellerID domain.SellerID) ([]*models.ProductListing, error)
	Evaluate(ctx context.Context, listingID domain.ListingID, buyerCountry domain.CountryCode) (*service.Decision, error)
	FlagForReview(ctx context.Context, id domain.ListingID, reason string) (*models.ProductListing, error)
	Unblock(ctx context.Context, id domain.ListingID) (*models.ProductListing, error)
}

// Handler wires catalog endpoints to the catalog service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a catalog handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the public catalog endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/listings", h.HandleCreateListing)
	r.Get("/listings/{listingID}", h.HandleGetListing)
	r.Get("/sellers/{sellerID}/listings", h.HandleListBySeller)
	r.Post("/catalog/evaluate", h.HandleEvaluate)
}

// RegisterAdmin mounts the admin listing endpoints on the router.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/admin/listings/{listingID}/flag", h.HandleFlag)
	r.Post("/admin/listings/{listingID}/unblock", h.HandleUnblock)
}

// HandleCreateListing handles POST /listings requests.
func (h *Handler) HandleCreateListing(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateListingRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	listing, err := h.service.CreateListing(ctx, req.ParsedSellerID(), req.Details())
	if err != nil {
		h.logger.WarnContext(ctx, "listing creation failed", "request_id", requestID, "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromListing(listing))
}

// HandleGetListing handles GET /listings/{listingID} requests.
func (h *Handler) HandleGetListing(w http.ResponseWriter, r *http.Request) {
	id, err := listingIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	listing, err := h.service.GetListing(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromListing(listing))
}

// HandleListBySeller handles GET /sellers/{sellerID}/listings requests.
func (h *Handler) HandleListBySeller(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "sellerID")
	sellerID, err := domain.ParseSellerID(raw)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "seller id must be a UUID"))
		return
	}

	listings, err := h.service.ListBySeller(r.Context(), sellerID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out := make([]*ListingResponse, len(listings))
	for i, l := range listings {
		out[i] = FromListing(l)
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"listings": out})
}

// HandleEvaluate handles POST /catalog/evaluate requests. Blocked
// decisions return 200 with a blocked status; only infrastructure and
// lookup failures are errors.
func (h *Handler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[EvaluateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	decision, err := h.service.Evaluate(ctx, req.ParsedListingID(), req.ParsedBuyerCountry())
	if err != nil {
		h.logger.WarnContext(ctx, "gate evaluation failed",
			"request_id", requestID, "listing_id", req.ListingID, "error", err)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "gate evaluated",
		"request_id", requestID,
		"listing_id", req.ListingID,
		"buyer_country", req.BuyerCountry,
		"status", decision.Status,
		"reason", decision.Reason,
	)
	httputil.WriteJSON(w, http.StatusOK, FromDecision(decision))
}

// HandleFlag handles POST /admin/listings/{listingID}/flag requests.
func (h *Handler) HandleFlag(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, err := listingIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[FlagListingRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	listing, err := h.service.FlagForReview(ctx, id, req.Reason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromListing(listing))
}

// HandleUnblock handles POST /admin/listings/{listingID}/unblock requests.
func (h *Handler) HandleUnblock(w http.ResponseWriter, r *http.Request) {
	id, err := listingIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	listing, err := h.service.Unblock(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromListing(listing))
}

func listingIDParam(r *http.Request) (domain.ListingID, error) {
	raw := chi.URLParam(r, "listingID")
	id, err := domain.ParseListingID(raw)
	if err != nil {
		return domain.ListingID{}, dErrors.New(dErrors.CodeBadRequest, "listing id must be a UUID")
	}
	return id, nil
}
