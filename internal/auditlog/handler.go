package auditlog

import (
	"context"
	"net/http"

	"github.com/frahmantamala/gatepass/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context, requestID, viewerID int64, viewerRole string) ([]*Entry, error)
	Purge(ctx context.Context, actorID int64, actorRole, before string) (int64, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{BaseHandler: baseHandler, Service: service}
}

// List handles GET /requests/{id}/logs
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := h.RequireUser(w, r)
	if !ok {
		return
	}
	id, ok := h.PathID(w, r, "id")
	if !ok {
		return
	}

	entries, err := h.Service.List(r.Context(), id, userID, role)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"logs": entries})
}

// Purge handles DELETE /logs?before=YYYY-MM-DD
func (h *Handler) Purge(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := h.RequireUser(w, r)
	if !ok {
		return
	}

	n, err := h.Service.Purge(r.Context(), userID, role, r.URL.Query().Get("before"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}
