package request_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"

	"github.com/frahmantamala/gatepass/internal"
	"github.com/frahmantamala/gatepass/internal/request"
	"github.com/frahmantamala/gatepass/internal/workflow"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type stubService struct {
	approveErr  error
	approvedID  int64
	approvedBy  int64
	createdWith request.CreateRequestDTO
}

func (s *stubService) Create(ctx context.Context, userID int64, dto request.CreateRequestDTO) (*request.Request, error) {
	s.createdWith = dto
	return &request.Request{ID: 1, UserID: userID, Status: workflow.StatusPending}, nil
}

func (s *stubService) Get(ctx context.Context, id, viewerID int64) (*request.Request, error) {
	return nil, internal.ErrRequestNotFound
}

func (s *stubService) List(ctx context.Context, viewerID int64, status workflow.Status, limit, offset int) ([]*request.Request, error) {
	return []*request.Request{}, nil
}

func (s *stubService) Approve(ctx context.Context, id, actorID int64) (*request.Request, error) {
	s.approvedID, s.approvedBy = id, actorID
	if s.approveErr != nil {
		return nil, s.approveErr
	}
	return &request.Request{ID: id, Status: workflow.StatusApprovedHOD}, nil
}

func (s *stubService) Reject(ctx context.Context, id, actorID int64, dto request.RejectDTO) (*request.Request, error) {
	return nil, internal.ErrInvalidTransition
}

func (s *stubService) Cancel(ctx context.Context, id, actorID int64) (*request.Request, error) {
	return &request.Request{ID: id, Status: workflow.StatusCancelled}, nil
}

func (s *stubService) Attach(ctx context.Context, id, actorID int64, file io.Reader) (*request.Request, error) {
	return nil, nil
}

func (s *stubService) Dashboard(ctx context.Context, viewerID int64) (*request.Dashboard, error) {
	return &request.Dashboard{Role: workflow.RoleStudent}, nil
}

var _ = Describe("Request Handler", func() {
	var (
		svc    *stubService
		router chi.Router
	)

	authed := func(r *http.Request, id int64, role string) *http.Request {
		ctx := internal.ContextWithRole(internal.ContextWithUserID(r.Context(), id), role)
		return r.WithContext(ctx)
	}

	errorCode := func(body *bytes.Buffer) string {
		var resp struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		Expect(json.NewDecoder(body).Decode(&resp)).To(Succeed())
		return resp.Error.Code
	}

	BeforeEach(func() {
		svc = &stubService{}
		h := request.NewHandler(svc, 1<<20)
		router = chi.NewRouter()
		router.Post("/requests", h.Create)
		router.Get("/requests/{id}", h.Get)
		router.Patch("/requests/{id}/approve", h.Approve)
		router.Patch("/requests/{id}/reject", h.Reject)
		router.Post("/approvals", h.ApproveByBody)
	})

	It("requires authentication", func() {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/requests", bytes.NewBufferString("{}")))
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})

	It("creates a request for the authenticated user", func() {
		body := `{"type":"leave","reason":"home","from_date":"2024-03-01","to_date":"2024-03-02"}`
		w := httptest.NewRecorder()
		router.ServeHTTP(w, authed(httptest.NewRequest(http.MethodPost, "/requests", bytes.NewBufferString(body)), 5, "student"))

		Expect(w.Code).To(Equal(http.StatusCreated))
		Expect(svc.createdWith.Type).To(Equal("leave"))
	})

	It("takes the approver from the token", func() {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, authed(httptest.NewRequest(http.MethodPatch, "/requests/9/approve", nil), 10, "hod"))

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(svc.approvedID).To(Equal(int64(9)))
		Expect(svc.approvedBy).To(Equal(int64(10)))
	})

	It("maps service errors to their status codes", func() {
		svc.approveErr = internal.ErrDelegationExpired
		w := httptest.NewRecorder()
		router.ServeHTTP(w, authed(httptest.NewRequest(http.MethodPatch, "/requests/9/approve", nil), 10, "staff"))

		Expect(w.Code).To(Equal(http.StatusForbidden))
		Expect(errorCode(w.Body)).To(Equal("DELEGATION_EXPIRED"))
	})

	It("maps invalid transitions to 422", func() {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, authed(httptest.NewRequest(http.MethodPatch, "/requests/9/reject", bytes.NewBufferString(`{"reason":"x"}`)), 10, "hod"))
		Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))
	})

	It("rejects malformed ids", func() {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, authed(httptest.NewRequest(http.MethodGet, "/requests/abc", nil), 10, "hod"))
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	Describe("POST /approvals", func() {
		It("approves the request named in the body", func() {
			body := `{"request_id":4,"actor_role":"hod","actor_id":10}`
			w := httptest.NewRecorder()
			router.ServeHTTP(w, authed(httptest.NewRequest(http.MethodPost, "/approvals", bytes.NewBufferString(body)), 10, "hod"))

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(svc.approvedID).To(Equal(int64(4)))
		})

		It("refuses a body actor that differs from the token", func() {
			body := `{"request_id":4,"actor_role":"hod","actor_id":99}`
			w := httptest.NewRecorder()
			router.ServeHTTP(w, authed(httptest.NewRequest(http.MethodPost, "/approvals", bytes.NewBufferString(body)), 10, "hod"))

			Expect(w.Code).To(Equal(http.StatusForbidden))
			Expect(errorCode(w.Body)).To(Equal("FORBIDDEN_TRANSITION"))
			Expect(svc.approvedID).To(BeZero())
		})

		It("validates the body", func() {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, authed(httptest.NewRequest(http.MethodPost, "/approvals", bytes.NewBufferString(`{}`)), 10, "hod"))
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})
})
