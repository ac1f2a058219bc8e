package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/CindyCUI423/Recam-sub000/internal/service"
	"github.com/CindyCUI423/Recam-sub000/pkg/httputil"
	"github.com/CindyCUI423/Recam-sub000/pkg/pagination"
	"github.com/CindyCUI423/Recam-sub000/pkg/validator"
)

// ListingCaseHandler handles HTTP requests for listing case endpoints.
type ListingCaseHandler struct {
	service *service.ListingCaseService
	logger  *slog.Logger
}

// NewListingCaseHandler creates a new listing case HTTP handler.
func NewListingCaseHandler(svc *service.ListingCaseService, logger *slog.Logger) *ListingCaseHandler {
	return &ListingCaseHandler{
		service: svc,
		logger:  logger,
	}
}

// CreateListingCase handles POST /api/v1/listings.
func (h *ListingCaseHandler) CreateListingCase(w http.ResponseWriter, r *http.Request) {
	var req ListingCaseRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	lc, err := h.service.Create(r.Context(), principalFrom(r), req.attrs())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: lc})
}

// ListListingCases handles GET /api/v1/listings.
func (h *ListingCaseHandler) ListListingCases(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)

	cases, total, err := h.service.List(r.Context(), principalFrom(r), params.Offset(), params.PageSize)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, pagination.NewResult(cases, total, params))
}

// GetListingCase handles GET /api/v1/listings/{id}.
func (h *ListingCaseHandler) GetListingCase(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	lc, err := h.service.Get(r.Context(), principalFrom(r), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: lc})
}

// UpdateListingCase handles PUT /api/v1/listings/{id}.
func (h *ListingCaseHandler) UpdateListingCase(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req ListingCaseRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	lc, err := h.service.Update(r.Context(), principalFrom(r), id, req.update())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: lc})
}

// ChangeStatus handles PATCH /api/v1/listings/{id}/status.
func (h *ListingCaseHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req ChangeStatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	change, err := h.service.ChangeStatus(r.Context(), principalFrom(r), id, *req.Status)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: change})
}

// DeleteListingCase handles DELETE /api/v1/listings/{id}.
func (h *ListingCaseHandler) DeleteListingCase(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), principalFrom(r), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]any{"id": id, "status": "deleted"}})
}

// AssignAgent handles POST /api/v1/listings/{id}/agents.
func (h *ListingCaseHandler) AssignAgent(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req AssignAgentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.service.AssignAgent(r.Context(), principalFrom(r), id, req.AgentID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: map[string]any{"listing_case_id": id, "agent_id": req.AgentID}})
}

// UnassignAgent handles DELETE /api/v1/listings/{id}/agents/{agentId}.
func (h *ListingCaseHandler) UnassignAgent(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	agentID, ok := httputil.ParseUUID(w, chi.URLParam(r, "agentId"))
	if !ok {
		return
	}

	if err := h.service.UnassignAgent(r.Context(), principalFrom(r), id, agentID.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]any{"listing_case_id": id, "agent_id": agentID.String(), "status": "unassigned"}})
}

// AddContact handles POST /api/v1/listings/{id}/contacts.
func (h *ListingCaseHandler) AddContact(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req ContactRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	contact, err := h.service.AddContact(r.Context(), principalFrom(r), id, req.contact())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: contact})
}

// ListContacts handles GET /api/v1/listings/{id}/contacts.
func (h *ListingCaseHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	contacts, err := h.service.ListContacts(r.Context(), principalFrom(r), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: contacts})
}

// decodeAndValidate reads a JSON body into dst and runs the validator. On
// failure it writes the 400 response and returns false.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	// Limit request body to 1MB.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	if err := validator.DecodeAndValidate(r, dst); err != nil {
		httputil.WriteValidationError(w, err)
		return false
	}
	return true
}
