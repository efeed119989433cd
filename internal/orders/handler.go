package orders

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/salesdesk-io/salesdesk/internal/platform/httpx"
	"github.com/salesdesk-io/salesdesk/internal/quotes"
	"github.com/salesdesk-io/salesdesk/internal/shared"
)

const idempotencyModule = "sales_orders"

// Handler manages order endpoints.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	validate    *validator.Validate
	idempotency *shared.IdempotencyStore
}

// NewHandler builds an order handler.
func NewHandler(logger *slog.Logger, service *Service, idempotency *shared.IdempotencyStore) *Handler {
	return &Handler{
		logger:      logger,
		service:     service,
		validate:    validator.New(),
		idempotency: idempotency,
	}
}

// MountRoutes registers order routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/orders", h.generate)
	r.Get("/orders/{id}", h.get)
}

func (h *Handler) generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	key := r.Header.Get("Idempotency-Key")
	if key == "" {
		key = uuid.NewString()
	}
	if err := h.idempotency.CheckAndInsert(r.Context(), key, idempotencyModule); err != nil {
		if errors.Is(err, shared.ErrIdempotencyConflict) {
			httpx.Problem(w, http.StatusConflict, "Duplicate Request", "this order was already submitted")
			return
		}
		h.logger.Error("idempotency check", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	order, err := h.service.Generate(r.Context(), req)
	if err != nil {
		// Free the key so the caller can retry after fixing the problem.
		if derr := h.idempotency.Delete(r.Context(), key); derr != nil {
			h.logger.Warn("idempotency rollback", slog.Any("error", derr))
		}
		h.logger.Error("generate order", slog.Int64("quotation_id", req.QuotationID), slog.Any("error", err))
		h.respondErr(w, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, order)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "order id must be an integer")
		return
	}

	order, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, quotes.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, quotes.ErrInvalidStatus):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Invalid Status Transition", err.Error())
	case errors.Is(err, quotes.ErrDataIntegrity):
		httpx.Problem(w, http.StatusInternalServerError, "Data Integrity Error", err.Error())
	default:
		httpx.RespondError(w, err)
	}
}
