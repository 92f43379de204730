package setting

import (
	"context"
	"net/http"

	"github.com/frahmantamala/gatepass/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	List(ctx context.Context) ([]*Setting, error)
	Update(ctx context.Context, actorRole, key string, dto UpdateDTO) (*Setting, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{BaseHandler: baseHandler, Service: service}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.List(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"settings": items})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	_, role, ok := h.RequireUser(w, r)
	if !ok {
		return
	}
	var dto UpdateDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	st, err := h.Service.Update(r.Context(), role, chi.URLParam(r, "key"), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, st)
}
