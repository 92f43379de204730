package calendar

import (
	"context"
	"net/http"

	"github.com/frahmantamala/gatepass/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context, from, to string) ([]*Event, error)
	Create(ctx context.Context, actorID int64, actorRole string, dto CreateEventDTO) (*Event, error)
	Delete(ctx context.Context, actorRole string, id int64) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{BaseHandler: baseHandler, Service: service}
}

// List handles GET /calendar-events?from=&to=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := h.RequireUser(w, r); !ok {
		return
	}
	q := r.URL.Query()
	events, err := h.Service.List(r.Context(), q.Get("from"), q.Get("to"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"events": events})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := h.RequireUser(w, r)
	if !ok {
		return
	}
	var dto CreateEventDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	ev, err := h.Service.Create(r.Context(), userID, role, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, ev)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	_, role, ok := h.RequireUser(w, r)
	if !ok {
		return
	}
	id, ok := h.PathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.Service.Delete(r.Context(), role, id); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
