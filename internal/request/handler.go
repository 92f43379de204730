package request

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/gatepass/internal"
	"github.com/frahmantamala/gatepass/internal/transport"
	"github.com/frahmantamala/gatepass/internal/workflow"
	"github.com/frahmantamala/gatepass/pkg/logger"
)

type ServiceAPI interface {
	Create(ctx context.Context, userID int64, dto CreateRequestDTO) (*Request, error)
	Get(ctx context.Context, id, viewerID int64) (*Request, error)
	List(ctx context.Context, viewerID int64, status workflow.Status, limit, offset int) ([]*Request, error)
	Approve(ctx context.Context, id, actorID int64) (*Request, error)
	Reject(ctx context.Context, id, actorID int64, dto RejectDTO) (*Request, error)
	Cancel(ctx context.Context, id, actorID int64) (*Request, error)
	Attach(ctx context.Context, id, actorID int64, file io.Reader) (*Request, error)
	Dashboard(ctx context.Context, viewerID int64) (*Dashboard, error)
}

type Handler struct {
	*transport.BaseHandler
	Service  ServiceAPI
	MaxBytes int64
}

func NewHandler(service ServiceAPI, maxUploadBytes int64) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = 5 << 20
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
		MaxBytes:    maxUploadBytes,
	}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := h.RequireUser(w, r)
	if !ok {
		return
	}

	var dto CreateRequestDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	req, err := h.Service.Create(r.Context(), userID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, req)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := h.RequireUser(w, r)
	if !ok {
		return
	}
	id, ok := h.PathID(w, r, "id")
	if !ok {
		return
	}

	req, err := h.Service.Get(r.Context(), id, userID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, req)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := h.RequireUser(w, r)
	if !ok {
		return
	}
	limit, offset := h.Pagination(r)
	status := workflow.Status(r.URL.Query().Get("status"))

	reqs, err := h.Service.List(r.Context(), userID, status, limit, offset)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"requests": reqs,
		"limit":    limit,
		"offset":   offset,
	})
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := h.RequireUser(w, r)
	if !ok {
		return
	}
	id, ok := h.PathID(w, r, "id")
	if !ok {
		return
	}
	h.approve(w, r, id, userID)
}

// ApproveByBody handles POST /approvals. The actor always comes from the token;
// a body actor that disagrees with it is refused.
func (h *Handler) ApproveByBody(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := h.RequireUser(w, r)
	if !ok {
		return
	}

	var dto ApprovalDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}
	if err := dto.Validate(); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	if (dto.ActorID != 0 && dto.ActorID != userID) || (dto.ActorRole != "" && dto.ActorRole != role) {
		h.Logger.Warn("approval actor mismatch", "user_id", userID, "body_actor_id", dto.ActorID, "body_actor_role", dto.ActorRole)
		h.HandleServiceError(w, internal.ErrForbiddenTransition.Withf("actor does not match the authenticated user"))
		return
	}
	h.approve(w, r, dto.RequestID, userID)
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request, id, userID int64) {
	req, err := h.Service.Approve(r.Context(), id, userID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, req)
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := h.RequireUser(w, r)
	if !ok {
		return
	}
	id, ok := h.PathID(w, r, "id")
	if !ok {
		return
	}

	var dto RejectDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	req, err := h.Service.Reject(r.Context(), id, userID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, req)
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := h.RequireUser(w, r)
	if !ok {
		return
	}
	id, ok := h.PathID(w, r, "id")
	if !ok {
		return
	}

	req, err := h.Service.Cancel(r.Context(), id, userID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, req)
}

func (h *Handler) Attach(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := h.RequireUser(w, r)
	if !ok {
		return
	}
	id, ok := h.PathID(w, r, "id")
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.MaxBytes+1024)
	if err := r.ParseMultipartForm(h.MaxBytes); err != nil {
		h.HandleServiceError(w, internal.NewValidationError("attachment too large or malformed", internal.ErrCodeFileTooLarge))
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	req, err := h.Service.Attach(r.Context(), id, userID, file)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, req)
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := h.RequireUser(w, r)
	if !ok {
		return
	}

	d, err := h.Service.Dashboard(r.Context(), userID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, d)
}
