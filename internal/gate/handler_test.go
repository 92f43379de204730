package gate_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/frahmantamala/gatepass/internal"
	"github.com/frahmantamala/gatepass/internal/gate"
	"github.com/frahmantamala/gatepass/internal/request"
	"github.com/frahmantamala/gatepass/internal/transport"
	"github.com/frahmantamala/gatepass/internal/workflow"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type stubScanner struct {
	err     error
	scanned gate.ScanDTO
	by      int64
}

func (s *stubScanner) Scan(ctx context.Context, gatekeeperID int64, dto gate.ScanDTO) (*gate.ScanResult, error) {
	s.scanned, s.by = dto, gatekeeperID
	if s.err != nil {
		return nil, s.err
	}
	return &gate.ScanResult{
		Request: &request.Request{ID: 4, Status: workflow.StatusActive},
		Action:  workflow.ActionGateExit,
	}, nil
}

var _ = Describe("Gate Handler", func() {
	var (
		stub    *stubScanner
		handler *gate.Handler
	)

	post := func(body string, userID int64) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/gate/scan", bytes.NewBufferString(body))
		if userID != 0 {
			req = req.WithContext(internal.ContextWithUserID(req.Context(), userID))
		}
		rec := httptest.NewRecorder()
		handler.Scan(rec, req)
		return rec
	}

	BeforeEach(func() {
		stub = &stubScanner{}
		handler = gate.NewHandler(transport.NewBaseHandler(nil), stub)
	})

	It("returns the scanned request", func() {
		rec := post(`{"register_number":"REG001"}`, 12)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(stub.scanned.RegisterNumber).To(Equal("REG001"))
		Expect(stub.by).To(Equal(int64(12)))

		var body map[string]interface{}
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		Expect(body["action"]).To(Equal("gate_exit"))
	})

	It("maps no eligible pass to 404", func() {
		stub.err = internal.ErrNoEligiblePass
		rec := post(`{"register_number":"REG001"}`, 12)
		Expect(rec.Code).To(Equal(http.StatusNotFound))
		Expect(rec.Body.String()).To(ContainSubstring("NO_ELIGIBLE_PASS"))
	})

	It("requires an authenticated user", func() {
		rec := post(`{"register_number":"REG001"}`, 0)
		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
	})

	It("rejects malformed bodies", func() {
		rec := post(`{`, 12)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})
})
