package notification

import (
	"context"
	"net/http"

	"github.com/frahmantamala/gatepass/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context, userID int64, unreadOnly bool, limit, offset int) ([]*Notification, error)
	MarkRead(ctx context.Context, id, userID int64) error
	Delete(ctx context.Context, id, userID int64) error
	Subscribe(ctx context.Context, userID int64, dto SubscribeDTO) (*PushSubscription, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{BaseHandler: baseHandler, Service: service}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := h.RequireUser(w, r)
	if !ok {
		return
	}
	limit, offset := h.Pagination(r)
	unread := r.URL.Query().Get("unread") == "true"

	items, err := h.Service.List(r.Context(), userID, unread, limit, offset)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": items,
		"limit":         limit,
		"offset":        offset,
	})
}

func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := h.RequireUser(w, r)
	if !ok {
		return
	}
	id, ok := h.PathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Service.MarkRead(r.Context(), id, userID); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := h.RequireUser(w, r)
	if !ok {
		return
	}
	id, ok := h.PathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Service.Delete(r.Context(), id, userID); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := h.RequireUser(w, r)
	if !ok {
		return
	}
	var dto SubscribeDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}
	sub, err := h.Service.Subscribe(r.Context(), userID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, sub)
}
