package quotes

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/salesdesk-io/salesdesk/internal/platform/httpx"
	"github.com/salesdesk-io/salesdesk/internal/pricing"
)

// PDFEnqueuer submits background render jobs for registered quotations.
type PDFEnqueuer interface {
	EnqueueQuotePDF(ctx context.Context, quotationID int64) error
}

// Handler manages quotation endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
	pdf      PDFEnqueuer
}

// NewHandler builds a Handler instance. pdf may be nil when no worker is
// deployed; the render endpoint then responds 503.
func NewHandler(logger *slog.Logger, service *Service, pdf PDFEnqueuer) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
		pdf:      pdf,
	}
}

// MountRoutes registers quotation routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/quotations", h.list)
	r.Post("/quotations", h.register)
	r.Get("/quotations/next-number", h.peekNumber)
	r.Get("/quotations/{id}", h.get)
	r.Put("/quotations/{id}", h.update)
	r.Post("/quotations/{id}/reject", h.reject)
	r.Post("/quotations/{id}/pdf", h.renderPDF)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	req := ListQuotationsRequest{Limit: 50}

	q := r.URL.Query()
	if v := q.Get("client"); v != "" {
		req.ClientName = &v
	}
	if v := q.Get("tax_id"); v != "" {
		req.TaxID = &v
	}
	if v := q.Get("status"); v != "" {
		status := Status(v)
		req.Status = &status
	}
	if t := parseDate(q.Get("date_from")); t != nil {
		req.DateFrom = t
	}
	if t := parseDate(q.Get("date_to")); t != nil {
		req.DateTo = t
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 && v <= 1000 {
		req.Limit = v
	}
	if v, err := strconv.Atoi(q.Get("offset")); err == nil && v >= 0 {
		req.Offset = v
	}

	summaries, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list quotations", slog.Any("error", err))
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"quotations": summaries,
		"total":      total,
	})
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req RegisterQuotationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	quotation, err := h.service.Register(r.Context(), req)
	if err != nil {
		h.logger.Error("register quotation", slog.Any("error", err))
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, quotation)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "quotation id must be an integer")
		return
	}

	quotation, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, quotation)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "quotation id must be an integer")
		return
	}

	var req UpdateQuotationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	quotation, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		h.logger.Error("update quotation", slog.Int64("id", id), slog.Any("error", err))
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, quotation)
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "quotation id must be an integer")
		return
	}

	quotation, err := h.service.Reject(r.Context(), id)
	if err != nil {
		h.logger.Error("reject quotation", slog.Int64("id", id), slog.Any("error", err))
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, quotation)
}

func (h *Handler) peekNumber(w http.ResponseWriter, r *http.Request) {
	value, err := h.service.PeekCorrelative(r.Context())
	if err != nil {
		h.logger.Error("peek correlative", slog.Any("error", err))
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int64{"last_issued": value, "next": value + 1})
}

func (h *Handler) renderPDF(w http.ResponseWriter, r *http.Request) {
	if h.pdf == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "PDF Rendering Unavailable", "no background worker configured")
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "quotation id must be an integer")
		return
	}

	// Verify the quotation exists before enqueueing.
	if _, err := h.service.Get(r.Context(), id); err != nil {
		h.respondErr(w, err)
		return
	}

	if err := h.pdf.EnqueueQuotePDF(r.Context(), id); err != nil {
		h.logger.Error("enqueue quote pdf", slog.Int64("id", id), slog.Any("error", err))
		httpx.Problem(w, http.StatusServiceUnavailable, "PDF Rendering Unavailable", "could not enqueue render job")
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]any{"quotation_id": id, "status": "queued"})
}

// respondErr translates domain errors into problem responses.
func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	var rangeErr pricing.ErrDiscountOutOfRange
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrStaleRevision):
		httpx.Problem(w, http.StatusConflict, "Stale Revision", err.Error())
	case errors.Is(err, ErrImmutable):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Immutable Document", err.Error())
	case errors.Is(err, ErrInvalidStatus):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Invalid Status Transition", err.Error())
	case errors.Is(err, ErrDataIntegrity):
		httpx.Problem(w, http.StatusInternalServerError, "Data Integrity Error", err.Error())
	case errors.Is(err, ErrUnknownCurrency),
		errors.Is(err, ErrEmptyLines),
		errors.Is(err, ErrNetPriceNotEditable),
		errors.As(err, &rangeErr):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		httpx.RespondError(w, err)
	}
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}
