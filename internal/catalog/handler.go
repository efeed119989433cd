package catalog

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/salesdesk-io/salesdesk/internal/platform/httpx"
)

// Handler manages catalog endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds a catalog handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers catalog routes. Search gets a tighter rate limit
// since it fires on keystrokes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(httprate.Limit(120, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP))).
		Get("/products", h.search)
	r.Post("/price-candidates", h.priceCandidates)
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	limit := 20
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}

	products, err := h.service.Search(r.Context(), host, query, limit)
	if err != nil {
		h.logger.Error("product search", slog.String("q", query), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"products": products})
}

type priceCandidatesRequest struct {
	Codes []string `json:"codes" validate:"required,min=1,max=50,dive,required"`
}

func (h *Handler) priceCandidates(w http.ResponseWriter, r *http.Request) {
	var req priceCandidatesRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	candidates, err := h.service.PriceCandidates(r.Context(), req.Codes)
	if err != nil {
		h.logger.Error("price candidates", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"candidates": candidates})
}
