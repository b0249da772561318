package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"commune/internal/market/models"
	"commune/pkg/platform/httputil"
	"commune/pkg/requestcontext"
)

// Service defines the market operations the handler exposes.
type Service interface {
	Initialize(ctx context.Context) (*models.Market, error)
	Get(ctx context.Context) (*models.Market, error)
}

// Handler exposes the market endpoints.
type Handler struct {
	market Service
	logger *slog.Logger
}

func New(market Service, logger *slog.Logger) *Handler {
	return &Handler{market: market, logger: logger}
}

// Register mounts the market routes. The router is expected to already carry
// the auth middleware.
func (h *Handler) Register(r chi.Router) {
	r.Post("/market/initialize", h.handleInitialize)
	r.Get("/market", h.handleGet)
}

func (h *Handler) handleInitialize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	market, err := h.market.Initialize(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "market initialization rejected",
			"error", err.Error(),
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, market)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	market, err := h.market.Get(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, market)
}
