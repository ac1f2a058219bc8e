package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/CindyCUI423/Recam-sub000/internal/service"
	"github.com/CindyCUI423/Recam-sub000/pkg/httputil"
)

// MediaAssetHandler handles HTTP requests for media asset endpoints.
type MediaAssetHandler struct {
	service *service.MediaAssetService
	logger  *slog.Logger
}

// NewMediaAssetHandler creates a new media asset HTTP handler.
func NewMediaAssetHandler(svc *service.MediaAssetService, logger *slog.Logger) *MediaAssetHandler {
	return &MediaAssetHandler{
		service: svc,
		logger:  logger,
	}
}

// CreateMedia handles POST /api/v1/listings/{id}/media.
func (h *MediaAssetHandler) CreateMedia(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req CreateMediaRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	assets, err := h.service.Create(r.Context(), principalFrom(r), service.CreateMediaInput{
		ListingCaseID: id,
		MediaType:     *req.MediaType,
		URLs:          req.MediaURLs,
		IsHero:        req.IsHero,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: assets})
}

// ListMedia handles GET /api/v1/listings/{id}/media.
func (h *MediaAssetHandler) ListMedia(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	assets, err := h.service.ListByListingCase(r.Context(), principalFrom(r), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: assets})
}

// SetSelection handles PUT /api/v1/listings/{id}/media/selection.
func (h *MediaAssetHandler) SetSelection(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req SelectMediaRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.service.SetSelection(r.Context(), principalFrom(r), id, req.SelectIDs, req.UnselectIDs); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]any{
		"listing_case_id": id,
		"selected":        len(req.SelectIDs),
		"unselected":      len(req.UnselectIDs),
	}})
}

// SetHero handles PUT /api/v1/media/{id}/hero.
func (h *MediaAssetHandler) SetHero(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	asset, err := h.service.SetHero(r.Context(), principalFrom(r), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: asset})
}

// DeleteMedia handles DELETE /api/v1/media/{id}.
func (h *MediaAssetHandler) DeleteMedia(w http.ResponseWriter, r *http.Request) {
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
