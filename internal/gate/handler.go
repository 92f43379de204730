package gate

import (
	"context"
	"net/http"

	"github.com/frahmantamala/gatepass/internal/transport"
)

type ServiceAPI interface {
	Scan(ctx context.Context, gatekeeperID int64, dto ScanDTO) (*ScanResult, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{BaseHandler: baseHandler, Service: service}
}

// Scan handles POST /gate/scan.
func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := h.RequireUser(w, r)
	if !ok {
		return
	}
	var dto ScanDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	res, err := h.Service.Scan(r.Context(), userID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, res)
}
