package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"medidrop/internal/seller/models"
	"medidrop/internal/seller/service"
	"medidrop/pkg/domain"
	dErrors "medidrop/pkg/domain-errors"
	"medidrop/pkg/platform/httputil"
	"medidrop/pkg/requestcontext"
)

// Service defines the seller operations the handler needs.
type Service interface {
	CreateSeller(ctx context.Context, displayName string, country domain.CountryCode) (*models.Seller, error)
	GetSeller(ctx context.Context, id domain.SellerID) (*models.Seller, error)
	SubmitForVerification(ctx context.Context, id domain.SellerID, sub models.Submission) (*models.Seller, error)
	ResolveReview(ctx context.Context, id domain.SellerID, approve bool, reason string) (*models.Seller, error)
	RunDailyExpiryCheck(ctx context.Context, now time.Time) (*service.SweepReport, error)
	RunRegistryCheck(ctx context.Context, id domain.SellerID) (service.RegistryCheckOutcome, error)
}

// Handler wires seller verification endpoints to the engine.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a seller handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the seller-facing endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/sellers", h.HandleCreateSeller)
	r.Get("/sellers/{sellerID}", h.HandleGetSeller)
	r.Post("/sellers/{sellerID}/verification", h.HandleSubmitVerification)
}

// RegisterAdmin mounts the admin review endpoints on the router.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/admin/sellers/{sellerID}/verification/resolve", h.HandleResolveReview)
	r.Post("/admin/sellers/{sellerID}/registry-check", h.HandleRegistryCheck)
	r.Post("/admin/compliance/expiry-sweep", h.HandleExpirySweep)
}

// HandleCreateSeller handles POST /sellers requests.
func (h *Handler) HandleCreateSeller(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateSellerRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	seller, err := h.service.CreateSeller(ctx, req.DisplayName, req.ParsedCountry())
	if err != nil {
		h.logger.ErrorContext(ctx, "seller creation failed", "request_id", requestID, "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromSeller(seller))
}

// HandleGetSeller handles GET /sellers/{sellerID} requests.
func (h *Handler) HandleGetSeller(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := sellerIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	seller, err := h.service.GetSeller(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromSeller(seller))
}

// HandleSubmitVerification handles POST /sellers/{sellerID}/verification.
func (h *Handler) HandleSubmitVerification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, err := sellerIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[SubmitVerificationRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	seller, err := h.service.SubmitForVerification(ctx, id, req.Submission())
	if err != nil {
		h.logger.WarnContext(ctx, "verification submission failed",
			"request_id", requestID, "seller_id", id, "error", err)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "verification submitted",
		"request_id", requestID, "seller_id", id)
	httputil.WriteJSON(w, http.StatusAccepted, FromSeller(seller))
}

// HandleResolveReview handles POST /admin/sellers/{sellerID}/verification/resolve.
func (h *Handler) HandleResolveReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, err := sellerIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[ResolveReviewRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	seller, err := h.service.ResolveReview(ctx, id, req.Approve(), req.Reason)
	if err != nil {
		h.logger.WarnContext(ctx, "review resolution failed",
			"request_id", requestID, "seller_id", id, "decision", req.Decision, "error", err)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "review resolved",
		"request_id", requestID, "seller_id", id, "decision", req.Decision)
	httputil.WriteJSON(w, http.StatusOK, FromSeller(seller))
}

// HandleRegistryCheck handles POST /admin/sellers/{sellerID}/registry-check.
func (h *Handler) HandleRegistryCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, err := sellerIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	outcome, err := h.service.RunRegistryCheck(ctx, id)
	if err != nil {
		h.logger.WarnContext(ctx, "registry check failed",
			"request_id", requestID, "seller_id", id, "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, RegistryCheckResponse{Outcome: string(outcome)})
}

// HandleExpirySweep handles POST /admin/compliance/expiry-sweep. The sweep
// runs against the request-scoped time, so tests and backfills can pin it.
func (h *Handler) HandleExpirySweep(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	report, err := h.service.RunDailyExpiryCheck(ctx, requestcontext.Now(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "expiry sweep failed", "request_id", requestID, "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

func sellerIDParam(r *http.Request) (domain.SellerID, error) {
	raw := chi.URLParam(r, "sellerID")
	id, err := domain.ParseSellerID(raw)
	if err != nil {
		return domain.SellerID{}, dErrors.New(dErrors.CodeBadRequest, "seller id must be a UUID")
	}
	return id, nil
}
