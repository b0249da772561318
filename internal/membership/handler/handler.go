package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"commune/internal/membership/models"
	id "commune/pkg/domain"
	"commune/pkg/platform/httputil"
	"commune/pkg/requestcontext"
)

// Service defines the membership operations the handler exposes.
type Service interface {
	Join(ctx context.Context, member id.MemberID) (*models.Membership, error)
	Get(ctx context.Context, member id.MemberID) (*models.Membership, error)
}

// Handler exposes the commune enrollment endpoints.
type Handler struct {
	memberships Service
	logger      *slog.Logger
}

func New(memberships Service, logger *slog.Logger) *Handler {
	return &Handler{memberships: memberships, logger: logger}
}

// Register mounts the membership routes. The caller identity comes from the
// auth middleware, never from the request body.
func (h *Handler) Register(r chi.Router) {
	r.Post("/commune/join", h.handleJoin)
	r.Get("/commune/membership", h.handleGet)
}

func (h *Handler) handleJoin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	member := requestcontext.MemberID(ctx)

	membership, err := h.memberships.Join(ctx, member)
	if err != nil {
		h.logger.WarnContext(ctx, "join rejected",
			"error", err.Error(),
			"member", member.String(),
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, membership)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	membership, err := h.memberships.Get(ctx, requestcontext.MemberID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, membership)
}
