package proxy

import (
	"context"
	"net/http"

	"github.com/frahmantamala/gatepass/internal/transport"
)

type ServiceAPI interface {
	Create(ctx context.Context, actorID int64, actorRole string, dto CreateSettingDTO) (*Setting, error)
	List(ctx context.Context, actorID int64, actorRole string) ([]*Setting, error)
	Deactivate(ctx context.Context, id, actorID int64, actorRole string) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{BaseHandler: baseHandler, Service: service}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := h.RequireUser(w, r)
	if !ok {
		return
	}
	var dto CreateSettingDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	setting, err := h.Service.Create(r.Context(), userID, role, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, setting)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := h.RequireUser(w, r)
	if !ok {
		return
	}
	settings, err := h.Service.List(r.Context(), userID, role)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"proxy_settings": settings})
}

func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := h.RequireUser(w, r)
	if !ok {
		return
	}
	id, ok := h.PathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Service.Deactivate(r.Context(), id, userID, role); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
