package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"medidrop/internal/prescription/models"
	"medidrop/pkg/domain"
	dErrors "medidrop/pkg/domain-errors"
	"medidrop/pkg/platform/httputil"
	"medidrop/pkg/requestcontext"
)

// Service defines the prescription operations the handler needs.
type Service interface {
	Create(ctx context.Context, draft models.Draft) (*models.Prescription, error)
	Get(ctx context.Context, id domain.PrescriptionID) (*models.Prescription, error)
	ListByBuyer(ctx context.Context, buyerID string) ([]*models.Prescription, error)
	Review(ctx context.Context, id domain.PrescriptionID, accept bool, note string) (*models.Prescription, error)
	Cancel(ctx context.Context, id domain.PrescriptionID) (*models.Prescription, error)
}

// Handler wires prescription endpoints to the workflow service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a prescription handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the buyer-facing endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/prescriptions", h.HandleCreate)
	r.Get("/prescriptions", h.HandleListMine)
	r.Get("/prescriptions/{prescriptionID}", h.HandleGet)
	r.Post("/prescriptions/{prescriptionID}/cancel", h.HandleCancel)
}

// RegisterAdmin mounts the pharmacist review endpoint on the router.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/admin/prescriptions/{prescriptionID}/review", h.HandleReview)
}

// HandleCreate handles POST /prescriptions requests.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreatePrescriptionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	p, err := h.service.Create(ctx, req.Draft())
	if err != nil {
		h.logger.WarnContext(ctx, "prescription creation failed",
			"request_id", requestID, "listing_id", req.ListingID, "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromPrescription(p))
}

// HandleGet handles GET /prescriptions/{prescriptionID} requests. Buyers
// only see their own requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := prescriptionIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	p, err := h.service.Get(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if p.BuyerID != requestcontext.ActorID(ctx) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "prescription not found"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromPrescription(p))
}

// HandleListMine handles GET /prescriptions requests.
func (h *Handler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	buyerID := requestcontext.ActorID(ctx)
	if buyerID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	prescriptions, err := h.service.ListByBuyer(ctx, buyerID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out := make([]*PrescriptionResponse, len(prescriptions))
	for i, p := range prescriptions {
		out[i] = FromPrescription(p)
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"prescriptions": out})
}

// HandleCancel handles POST /prescriptions/{prescriptionID}/cancel.
func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, err := prescriptionIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	p, err := h.service.Cancel(ctx, id)
	if err != nil {
		h.logger.WarnContext(ctx, "prescription cancel failed",
			"request_id", requestID, "prescription_id", id, "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromPrescription(p))
}

// HandleReview handles POST /admin/prescriptions/{prescriptionID}/review.
func (h *Handler) HandleReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, err := prescriptionIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[ReviewPrescriptionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	p, err := h.service.Review(ctx, id, req.Accept(), req.Note)
	if err != nil {
		h.logger.WarnContext(ctx, "prescription review failed",
			"request_id", requestID, "prescription_id", id, "error", err)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "prescription reviewed",
		"request_id", requestID, "prescription_id", id, "outcome", req.Outcome)
	httputil.WriteJSON(w, http.StatusOK, FromPrescription(p))
}

func prescriptionIDParam(r *http.Request) (domain.PrescriptionID, error) {
	raw := chi.URLParam(r, "prescriptionID")
	id, err := domain.ParsePrescriptionID(raw)
	if err != nil {
		return domain.PrescriptionID{}, dErrors.New(dErrors.CodeBadRequest, "prescription id must be a UUID")
	}
	return id, nil
}
