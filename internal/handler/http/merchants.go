package http

import (
	"AffLink-Backend/internal/repository"
	"AffLink-Backend/internal/service"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// MerchantsHandler обработчик CRUD мерчантов
type MerchantsHandler struct {
	merchants *service.MerchantService
	log       *zap.Logger
}

// NewMerchantsHandler создает новый обработчик мерчантов
func NewMerchantsHandler(merchants *service.MerchantService, log *zap.Logger) *MerchantsHandler {
	return &MerchantsHandler{
		merchants: merchants,
		log:       log,
	}
}

// HandleCollection обрабатывает /api/merchants
func (h *MerchantsHandler) HandleCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleItem обрабатывает /api/merchants/{id}
func (h *MerchantsHandler) HandleItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.merchantID(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut, http.MethodPatch:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// list возвращает список мерчантов
//
//	@Summary		List merchants
//	@Tags			Merchants
//	@Produce		json
//	@Security		BearerAuth
//	@Param			active	query		bool	false	"Only active merchants"
//	@Success		200		{object}	map[string]interface{}	"Merchant list"
//	@Router			/api/merchants [get]
func (h *MerchantsHandler) list(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"

	merchants, err := h.merchants.List(r.Context(), activeOnly)
	if err != nil {
		h.log.Error("failed to list merchants", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list merchants", h.log)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"merchants": merchants}, h.log)
}

// create создает нового мерчанта
//
//	@Summary		Create merchant
//	@Tags			Merchants
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		service.CreateMerchantInput	true	"Merchant data"
//	@Success		201		{object}	domain.Merchant	"Merchant created"
//	@Failure		409		{object}	map[string]string	"Domain already exists"
//	@Router			/api/merchants [post]
func (h *MerchantsHandler) create(w http.ResponseWriter, r *http.Request) {
	var input service.CreateMerchantInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.log)
		return
	}

	merchant, err := h.merchants.Create(r.Context(), &input)
	if err != nil {
		if errors.Is(err, repository.ErrDomainExists) {
			writeError(w, http.StatusConflict, err.Error(), h.log)
			return
		}
		writeError(w, http.StatusBadRequest, err.Error(), h.log)
		return
	}

	writeJSON(w, http.StatusCreated, merchant, h.log)
}

func (h *MerchantsHandler) get(w http.ResponseWriter, r *http.Request, id int64) {
	merchant, err := h.merchants.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrMerchantNotFound) {
			writeError(w, http.StatusNotFound, "merchant not found", h.log)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get merchant", h.log)
		return
	}

	writeJSON(w, http.StatusOK, merchant, h.log)
}

func (h *MerchantsHandler) update(w http.ResponseWriter, r *http.Request, id int64) {
	var input service.UpdateMerchantInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.log)
		return
	}

	merchant, err := h.merchants.Update(r.Context(), id, &input)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrMerchantNotFound):
			writeError(w, http.StatusNotFound, "merchant not found", h.log)
		case errors.Is(err, repository.ErrDomainExists):
			writeError(w, http.StatusConflict, err.Error(), h.log)
		default:
			writeError(w, http.StatusBadRequest, err.Error(), h.log)
		}
		return
	}

	writeJSON(w, http.StatusOK, merchant, h.log)
}

// delete удаляет мерчанта; отказ с числом зависимых ссылок приходит из сервиса
//
//	@Summary		Delete merchant
//	@Description	Refused while affiliate links reference the merchant; deactivate instead
//	@Tags			Merchants
//	@Security		BearerAuth
//	@Param			id	path	int	true	"Merchant ID"
//	@Success		204	"Merchant deleted"
//	@Failure		409	{object}	map[string]string	"Links still reference the merchant"
//	@Router			/api/merchants/{id} [delete]
func (h *MerchantsHandler) delete(w http.ResponseWriter, r *http.Request, id int64) {
	if err := h.merchants.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrMerchantNotFound) {
			writeError(w, http.StatusNotFound, "merchant not found", h.log)
			return
		}
		writeError(w, http.StatusConflict, err.Error(), h.log)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// merchantID извлекает ID мерчанта из пути
func (h *MerchantsHandler) merchantID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := strings.TrimPrefix(r.URL.Path, "/api/merchants/")
	raw = strings.TrimSuffix(raw, "/")

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid merchant id", h.log)
		return 0, false
	}
	return id, true
}
