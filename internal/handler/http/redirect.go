package http

import (
	"AffLink-Backend/internal/repository"
	"AffLink-Backend/internal/service"
	"AffLink-Backend/pkg/useragent"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// RedirectHandler обработчик редиректов с учетом кликов
type RedirectHandler struct {
	links *service.AffiliateLinkService
	log   *zap.Logger
}

// NewRedirectHandler создает новый обработчик редиректов
func NewRedirectHandler(links *service.AffiliateLinkService, log *zap.Logger) *RedirectHandler {
	return &RedirectHandler{
		links: links,
		log:   log,
	}
}

// HandleRedirect записывает клик и перенаправляет на партнерскую ссылку
//
//	@Summary		Redirect with click tracking
//	@Description	Records the outbound click and issues a 302 to the affiliate URL
//	@Tags			Redirect
//	@Param			id	path	int	true	"Link ID"
//	@Success		302	"Redirect to affiliate URL"
//	@Failure		404	{object}	map[string]string	"Link not found"
//	@Router			/r/{id} [get]
func (h *RedirectHandler) HandleRedirect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	raw := strings.TrimPrefix(r.URL.Path, "/r/")
	raw = strings.TrimSuffix(raw, "/")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid link id", h.log)
		return
	}

	userAgent := r.UserAgent()
	deviceType := useragent.DeviceType(userAgent)

	link, err := h.links.TrackClick(r.Context(), id, extractIPAddress(r), userAgent, r.Referer(), deviceType)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			writeError(w, http.StatusNotFound, "link not found", h.log)
			return
		}
		h.log.Error("failed to track click", zap.Int64("link_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to resolve link", h.log)
		return
	}

	http.Redirect(w, r, link.AffiliateURL, http.StatusFound)
}

// extractIPAddress извлекает реальный IP клиента с учетом прокси
func extractIPAddress(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}

	host := r.RemoteAddr
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		host = host[:idx]
	}
	return strings.Trim(host, "[]")
}
