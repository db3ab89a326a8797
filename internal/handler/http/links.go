package http

import (
	"AffLink-Backend/internal/domain"
	"AffLink-Backend/internal/repository"
	"AffLink-Backend/internal/service"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// LinksHandler обработчик партнерских ссылок
type LinksHandler struct {
	links *service.AffiliateLinkService
	log   *zap.Logger
}

// NewLinksHandler создает новый обработчик ссылок
func NewLinksHandler(links *service.AffiliateLinkService, log *zap.Logger) *LinksHandler {
	return &LinksHandler{
		links: links,
		log:   log,
	}
}

// HandleCollection обрабатывает /api/links
func (h *LinksHandler) HandleCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.create(w, r)
	case http.MethodGet:
		h.list(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleItem обрабатывает /api/links/{id}
func (h *LinksHandler) HandleItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.linkID(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodPut, http.MethodPatch:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// create генерирует новую партнерскую ссылку
//
//	@Summary		Generate affiliate link
//	@Description	Generates a link via the configured strategy with automatic fallback
//	@Tags			Links
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		domain.GenerateRequest	true	"Link generation request"
//	@Success		201		{object}	domain.AffiliateLink	"Generated link"
//	@Failure		400		{object}	map[string]string	"Invalid request data"
//	@Failure		502		{object}	map[string]string	"All generation methods failed"
//	@Router			/api/links [post]
func (h *LinksHandler) create(w http.ResponseWriter, r *http.Request) {
	var req domain.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.log)
		return
	}

	link, err := h.links.CreateLink(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrMerchantNotFound):
			writeError(w, http.StatusNotFound, "merchant not found", h.log)
		case errors.Is(err, service.ErrAllMethodsFailed):
			writeError(w, http.StatusBadGateway, err.Error(), h.log)
		case errors.Is(err, service.ErrInvalidToken), errors.Is(err, service.ErrPermissionDenied):
			writeError(w, http.StatusBadGateway, err.Error(), h.log)
		default:
			writeError(w, http.StatusBadRequest, err.Error(), h.log)
		}
		return
	}

	writeJSON(w, http.StatusCreated, link, h.log)
}

// list возвращает ссылки по review_id или user_id
//
//	@Summary		List affiliate links
//	@Tags			Links
//	@Produce		json
//	@Security		BearerAuth
//	@Param			review_id	query		int	false	"Filter by review"
//	@Param			user_id		query		int	false	"Filter by user"
//	@Success		200			{object}	map[string]interface{}	"Link list"
//	@Router			/api/links [get]
func (h *LinksHandler) list(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if raw := query.Get("review_id"); raw != "" {
		reviewID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid review_id", h.log)
			return
		}
		links, err := h.links.ListByReview(r.Context(), reviewID)
		if err != nil {
			h.log.Error("failed to list links by review", zap.Int64("review_id", reviewID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to list links", h.log)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"links": links}, h.log)
		return
	}

	if raw := query.Get("user_id"); raw != "" {
		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid user_id", h.log)
			return
		}
		links, err := h.links.ListByUser(r.Context(), userID)
		if err != nil {
			h.log.Error("failed to list links by user", zap.Int64("user_id", userID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to list links", h.log)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"links": links}, h.log)
		return
	}

	writeError(w, http.StatusBadRequest, "review_id or user_id query parameter is required", h.log)
}

func (h *LinksHandler) update(w http.ResponseWriter, r *http.Request, id int64) {
	var input service.UpdateLinkInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.log)
		return
	}

	link, err := h.links.UpdateLink(r.Context(), id, &input)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			writeError(w, http.StatusNotFound, "link not found", h.log)
			return
		}
		writeError(w, http.StatusBadRequest, err.Error(), h.log)
		return
	}

	writeJSON(w, http.StatusOK, link, h.log)
}

func (h *LinksHandler) delete(w http.ResponseWriter, r *http.Request, id int64) {
	if err := h.links.DeleteLink(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			writeError(w, http.StatusNotFound, "link not found", h.log)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete link", h.log)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ReorderRequest структура запроса изменения порядка ссылок
type ReorderRequest struct {
	ReviewID   int64   `json:"review_id"`
	OrderedIDs []int64 `json:"ordered_ids"`
}

// Reorder атомарно переставляет ссылки обзора
//
//	@Summary		Reorder review links
//	@Description	Rewrites display order for the review's links in one transaction
//	@Tags			Links
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		ReorderRequest	true	"Ordered link IDs"
//	@Success		200		{object}	map[string]string	"Reordered"
//	@Failure		400		{object}	map[string]string	"Invalid order list"
//	@Router			/api/links/reorder [post]
func (h *LinksHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ReorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.log)
		return
	}

	if err := h.links.ReorderLinks(r.Context(), req.ReviewID, req.OrderedIDs); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), h.log)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "reordered"}, h.log)
}

// Stats возвращает агрегированную статистику ссылок
//
//	@Summary		Link statistics
//	@Tags			Links
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	domain.LinkStats	"Aggregated counts"
//	@Router			/api/links/stats [get]
func (h *LinksHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats, err := h.links.Stats(r.Context())
	if err != nil {
		h.log.Error("failed to compute link stats", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to compute stats", h.log)
		return
	}

	writeJSON(w, http.StatusOK, stats, h.log)
}

// linkID извлекает ID ссылки из пути
func (h *LinksHandler) linkID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := strings.TrimPrefix(r.URL.Path, "/api/links/")
	raw = strings.TrimSuffix(raw, "/")

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid link id", h.log)
		return 0, false
	}
	return id, true
}
