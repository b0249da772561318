package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"commune/internal/catalog/models"
	"commune/internal/catalog/service"
	id "commune/pkg/domain"
	dErrors "commune/pkg/domain-errors"
	"commune/pkg/platform/httputil"
	"commune/pkg/requestcontext"
)

// Service defines the catalog operations the handler exposes.
type Service interface {
	ListItem(ctx context.Context, seller id.MemberID, in service.ListItemInput) (*models.Item, error)
	Purchase(ctx context.Context, buyer id.MemberID, itemID id.ItemID, recipient id.MemberID) (*models.Item, error)
	Get(ctx context.Context, itemID id.ItemID) (*models.Item, error)
}

// Handler exposes the item endpoints.
type Handler struct {
	catalog Service
	logger  *slog.Logger
}

func New(catalog Service, logger *slog.Logger) *Handler {
	return &Handler{catalog: catalog, logger: logger}
}

// Register mounts the catalog routes. The router is expected to already carry
// the auth middleware.
func (h *Handler) Register(r chi.Router) {
	r.Post("/items", h.handleList)
	r.Get("/items/{itemID}", h.handleGet)
	r.Post("/items/{itemID}/purchase", h.handlePurchase)
}

type listItemRequest struct {
	ID          uint64 `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	// Price is in whole currency units; the response carries the stored
	// tax-inclusive subunit amount.
	Price uint64 `json:"price"`
}

type purchaseRequest struct {
	Recipient string `json:"recipient"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	seller := requestcontext.MemberID(ctx)

	var req listItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	item, err := h.catalog.ListItem(ctx, seller, service.ListItemInput{
		ClaimedID:   req.ID,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "listing rejected",
			"error", err.Error(),
			"seller", seller.String(),
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, item)
}

func (h *Handler) handlePurchase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	buyer := requestcontext.MemberID(ctx)

	itemID, err := id.ParseItemID(chi.URLParam(r, "itemID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	recipient, err := id.ParseMemberID(req.Recipient)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	item, err := h.catalog.Purchase(ctx, buyer, itemID, recipient)
	if err != nil {
		h.logger.WarnContext(ctx, "purchase rejected",
			"error", err.Error(),
			"buyer", buyer.String(),
			"item", itemID.String(),
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, item)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	itemID, err := id.ParseItemID(chi.URLParam(r, "itemID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	item, err := h.catalog.Get(r.Context(), itemID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, item)
}
