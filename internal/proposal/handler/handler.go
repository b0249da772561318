package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"commune/internal/proposal/models"
	"commune/internal/proposal/service"
	id "commune/pkg/domain"
	dErrors "commune/pkg/domain-errors"
	"commune/pkg/platform/httputil"
	"commune/pkg/requestcontext"
)

// Service defines the proposal operations the handler exposes.
type Service interface {
	Propose(ctx context.Context, owner id.MemberID, in service.ProposeInput) (*models.Proposal, error)
	Vote(ctx context.Context, voter id.MemberID, proposalID id.ProposalID, choice bool) (*models.Proposal, error)
	Approve(ctx context.Context, caller id.MemberID, proposalID id.ProposalID, recipient id.MemberID) (*models.Proposal, error)
	Get(ctx context.Context, proposalID id.ProposalID) (*models.Proposal, error)
}

// Handler exposes the governance endpoints.
type Handler struct {
	proposals Service
	logger    *slog.Logger
}

func New(proposals Service, logger *slog.Logger) *Handler {
	return &Handler{proposals: proposals, logger: logger}
}

// Register mounts the proposal routes. The router is expected to already
// carry the auth middleware.
func (h *Handler) Register(r chi.Router) {
	r.Post("/proposals", h.handlePropose)
	r.Get("/proposals/{proposalID}", h.handleGet)
	r.Post("/proposals/{proposalID}/votes", h.handleVote)
	r.Post("/proposals/{proposalID}/approve", h.handleApprove)
}

type proposeRequest struct {
	ID          uint64    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Amount      uint64    `json:"amount"`
	Quorum      uint64    `json:"quorum"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type voteRequest struct {
	Choice bool `json:"choice"`
}

type approveRequest struct {
	Recipient string `json:"recipient"`
}

func (h *Handler) handlePropose(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := requestcontext.MemberID(ctx)

	var req proposeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	proposal, err := h.proposals.Propose(ctx, owner, service.ProposeInput{
		ClaimedID:   req.ID,
		Title:       req.Title,
		Description: req.Description,
		Amount:      req.Amount,
		Quorum:      req.Quorum,
		ExpiresAt:   req.ExpiresAt,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "proposal rejected",
			"error", err.Error(),
			"owner", owner.String(),
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, proposal)
}

func (h *Handler) handleVote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	voter := requestcontext.MemberID(ctx)

	proposalID, err := id.ParseProposalID(chi.URLParam(r, "proposalID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	proposal, err := h.proposals.Vote(ctx, voter, proposalID, req.Choice)
	if err != nil {
		h.logger.WarnContext(ctx, "vote rejected",
			"error", err.Error(),
			"voter", voter.String(),
			"proposal", proposalID.String(),
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, proposal)
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.MemberID(ctx)

	proposalID, err := id.ParseProposalID(chi.URLParam(r, "proposalID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req approveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	recipient, err := id.ParseMemberID(req.Recipient)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	proposal, err := h.proposals.Approve(ctx, caller, proposalID, recipient)
	if err != nil {
		h.logger.WarnContext(ctx, "approval rejected",
			"error", err.Error(),
			"caller", caller.String(),
			"proposal", proposalID.String(),
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, proposal)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	proposalID, err := id.ParseProposalID(chi.URLParam(r, "proposalID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	proposal, err := h.proposals.Get(r.Context(), proposalID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, proposal)
}
