package request_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/gatepass/internal"
	userDatamodel "github.com/frahmantamala/gatepass/internal/core/datamodel/user"
	"github.com/frahmantamala/gatepass/internal/core/events"
	"github.com/frahmantamala/gatepass/internal/request"
	"github.com/frahmantamala/gatepass/internal/workflow"
)

type mockRequestRepository struct {
	requests         map[int64]*request.Request
	nextID           int64
	createError      error
	attachError      error
	beforeTransition func(id int64)
	lastFilter       request.Filter
	counts           map[workflow.Status]int64
}

func newMockRequestRepository() *mockRequestRepository {
	return &mockRequestRepository{requests: map[int64]*request.Request{}, nextID: 1}
}

func (m *mockRequestRepository) CreateIfNoActive(ctx context.Context, r *request.Request) error {
	if m.createError != nil {
		return m.createError
	}
	for _, existing := range m.requests {
		if existing.UserID == r.UserID && !existing.Status.IsTerminal() {
			return internal.ErrActiveRequestExists
		}
	}
	r.ID = m.nextID
	m.nextID++
	r.CreatedAt = time.Now()
	r.UpdatedAt = r.CreatedAt
	cp := *r
	m.requests[r.ID] = &cp
	return nil
}

func (m *mockRequestRepository) GetByID(ctx context.Context, id int64) (*request.Request, error) {
	r, ok := m.requests[id]
	if !ok {
		return nil, internal.ErrRequestNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *mockRequestRepository) Transition(ctx context.Context, id int64, from, to workflow.Status, c request.Changes) (*request.Request, error) {
	if m.beforeTransition != nil {
		m.beforeTransition(id)
	}
	r, ok := m.requests[id]
	if !ok {
		return nil, internal.ErrRequestNotFound
	}
	if r.Status != from {
		return nil, internal.ErrStaleStatus
	}
	r.Status = to
	if c.ForwardedTo != nil {
		r.ForwardedTo = c.ForwardedTo
	}
	if c.HODApprovedBy != nil {
		r.HODApprovedBy = c.HODApprovedBy
	}
	if c.WardenApprovedBy != nil {
		r.WardenApprovedBy = c.WardenApprovedBy
	}
	if c.RejectedBy != nil {
		r.RejectedBy = c.RejectedBy
		r.RejectReason = c.RejectReason
	}
	if c.ExitAt != nil {
		r.ExitAt = c.ExitAt
	}
	if c.ReturnAt != nil {
		r.ReturnAt = c.ReturnAt
	}
	cp := *r
	return &cp, nil
}

func (m *mockRequestRepository) SetAttachment(ctx context.Context, id int64, path string) error {
	if m.attachError != nil {
		return m.attachError
	}
	r, ok := m.requests[id]
	if !ok {
		return internal.ErrRequestNotFound
	}
	r.AttachmentPath = &path
	return nil
}

func (m *mockRequestRepository) List(ctx context.Context, f request.Filter) ([]*request.Request, error) {
	m.lastFilter = f
	return []*request.Request{}, nil
}

func (m *mockRequestRepository) CountByStatus(ctx context.Context, f request.Filter) (map[workflow.Status]int64, error) {
	m.lastFilter = f
	return m.counts, nil
}

func (m *mockRequestRepository) LatestOpen(ctx context.Context, userID int64) (*request.Request, error) {
	for _, r := range m.requests {
		if r.UserID == userID && !r.Status.IsTerminal() {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

type mockUsers struct {
	users map[int64]*userDatamodel.User
}

func (m *mockUsers) FindByID(ctx context.Context, id int64) (*userDatamodel.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, internal.ErrUserNotFound
	}
	return u, nil
}

type mockDelegations struct {
	hodByProxy map[int64]int64
	expired    map[int64]bool
	depts      []int64
}

func (m *mockDelegations) ResolveHOD(ctx context.Context, proxyUserID int64, departmentID *int64, at time.Time) (int64, error) {
	if m.expired[proxyUserID] {
		return 0, internal.ErrDelegationExpired
	}
	if hod, ok := m.hodByProxy[proxyUserID]; ok {
		return hod, nil
	}
	return 0, internal.ErrForbiddenTransition
}

func (m *mockDelegations) ActingDepartments(ctx context.Context, proxyUserID int64, at time.Time) ([]int64, error) {
	return m.depts, nil
}

type mockPublisher struct {
	mu     sync.Mutex
	events []*events.RequestTransitionedEvent
}

func (m *mockPublisher) Publish(ctx context.Context, e events.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e.(*events.RequestTransitionedEvent))
	return nil
}

func (m *mockPublisher) last() *events.RequestTransitionedEvent {
	return m.events[len(m.events)-1]
}

type mockStore struct {
	saved     string
	pruned    []string
	discarded []string
}

func (m *mockStore) Save(ctx context.Context, role, identifier string, requestID int64, r io.Reader) (string, error) {
	m.saved = "uploads/" + role + "/" + identifier
	return m.saved, nil
}

func (m *mockStore) Prune(path string) { m.pruned = append(m.pruned, path) }

func (m *mockStore) Discard(path string) { m.discarded = append(m.discarded, path) }

func ptr[T any](v T) *T { return &v }

const (
	hostelStudentID = int64(1)
	dayStudentID    = int64(2)
	hodID           = int64(10)
	otherHODID      = int64(11)
	wardenID        = int64(20)
	gatekeeperID    = int64(30)
	proxyID         = int64(40)
	lapsedProxyID   = int64(41)
)

func seedUsers() *mockUsers {
	dept := int64(7)
	other := int64(8)
	return &mockUsers{users: map[int64]*userDatamodel.User{
		hostelStudentID: {ID: hostelStudentID, Role: "student", DepartmentID: &dept, StudentType: ptr("hostel"), RegisterNumber: ptr("REG001"), Status: "active"},
		dayStudentID:    {ID: dayStudentID, Role: "student", DepartmentID: &dept, StudentType: ptr("day_scholar"), RegisterNumber: ptr("REG002"), Status: "active"},
		hodID:           {ID: hodID, Role: "hod", DepartmentID: &dept, Status: "active"},
		otherHODID:      {ID: otherHODID, Role: "hod", DepartmentID: &other, Status: "active"},
		wardenID:        {ID: wardenID, Role: "warden", Status: "active"},
		gatekeeperID:    {ID: gatekeeperID, Role: "gatekeeper", Status: "active"},
		proxyID:         {ID: proxyID, Role: "staff", DepartmentID: &dept, Status: "active"},
		lapsedProxyID:   {ID: lapsedProxyID, Role: "staff", DepartmentID: &dept, Status: "active"},
	}}
}

var _ = Describe("RequestService", func() {
	var (
		svc         *request.Service
		repo        *mockRequestRepository
		users       *mockUsers
		publisher   *mockPublisher
		store       *mockStore
		delegations *mockDelegations
		ctx         context.Context
	)

	validDTO := func() request.CreateRequestDTO {
		return request.CreateRequestDTO{Type: "leave", Reason: "family visit", FromDate: "2024-03-01", ToDate: "2024-03-03"}
	}

	BeforeEach(func() {
		ctx = context.Background()
		repo = newMockRequestRepository()
		users = seedUsers()
		publisher = &mockPublisher{}
		store = &mockStore{}
		delegations = &mockDelegations{
			hodByProxy: map[int64]int64{proxyID: hodID},
			expired:    map[int64]bool{lapsedProxyID: true},
		}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		svc = request.NewService(repo, users, delegations, publisher, store, logger)
	})

	gatekeeper := func() *request.Person {
		return request.PersonFromDataModel(users.users[gatekeeperID])
	}

	advance := func(id int64) (*request.Request, error) {
		req, err := repo.GetByID(ctx, id)
		Expect(err).NotTo(HaveOccurred())
		owner := request.PersonFromDataModel(users.users[req.UserID])
		return svc.Advance(ctx, req, owner, gatekeeperID, gatekeeper().Role)
	}

	Describe("Create", func() {
		It("creates a pending request and publishes it", func() {
			req, err := svc.Create(ctx, hostelStudentID, validDTO())
			Expect(err).NotTo(HaveOccurred())
			Expect(req.ID).To(BeNumerically(">", 0))
			Expect(req.Status).To(Equal(workflow.StatusPending))
			Expect(req.Category).To(Equal(workflow.CategoryNormal))

			Expect(publisher.events).To(HaveLen(1))
			Expect(publisher.last().Action).To(Equal(string(workflow.ActionCreate)))
			Expect(publisher.last().StudentType).To(Equal("hostel"))
		})

		It("refuses a second open request", func() {
			_, err := svc.Create(ctx, hostelStudentID, validDTO())
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.Create(ctx, hostelStudentID, validDTO())
			Expect(errors.Is(err, internal.ErrActiveRequestExists)).To(BeTrue())
		})

		It("allows a new request once the previous one is terminal", func() {
			first, err := svc.Create(ctx, hostelStudentID, validDTO())
			Expect(err).NotTo(HaveOccurred())
			_, err = svc.Cancel(ctx, first.ID, hostelStudentID)
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.Create(ctx, hostelStudentID, validDTO())
			Expect(err).NotTo(HaveOccurred())
		})

		It("only lets students raise requests", func() {
			_, err := svc.Create(ctx, wardenID, validDTO())
			Expect(internal.IsForbidden(err)).To(BeTrue())
		})

		It("validates the date range", func() {
			dto := validDTO()
			dto.ToDate = "2024-02-01"
			_, err := svc.Create(ctx, hostelStudentID, dto)
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
			Expect(repo.requests).To(BeEmpty())
		})
	})

	Describe("full approval chain", func() {
		It("walks a hostel leave through hod, warden and both gate scans", func() {
			req, err := svc.Create(ctx, hostelStudentID, validDTO())
			Expect(err).NotTo(HaveOccurred())

			req, err = svc.Approve(ctx, req.ID, hodID)
			Expect(err).NotTo(HaveOccurred())
			Expect(req.Status).To(Equal(workflow.StatusApprovedHOD))
			Expect(*req.HODApprovedBy).To(Equal(hodID))
			Expect(req.ForwardedTo).To(BeNil())

			req, err = svc.Approve(ctx, req.ID, wardenID)
			Expect(err).NotTo(HaveOccurred())
			Expect(req.Status).To(Equal(workflow.StatusApprovedWarden))
			Expect(*req.WardenApprovedBy).To(Equal(wardenID))

			req, err = advance(req.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(req.Status).To(Equal(workflow.StatusActive))
			Expect(req.ExitAt).NotTo(BeNil())

			req, err = advance(req.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(req.Status).To(Equal(workflow.StatusCompleted))
			Expect(req.ReturnAt).NotTo(BeNil())

			actions := []string{}
			for _, e := range publisher.events {
				actions = append(actions, e.Action)
			}
			Expect(actions).To(Equal([]string{"create", "hod_approve", "warden_approve", "gate_exit", "gate_return"}))
		})

		It("skips the warden for day scholars", func() {
			req, err := svc.Create(ctx, dayStudentID, validDTO())
			Expect(err).NotTo(HaveOccurred())
			req, err = svc.Approve(ctx, req.ID, hodID)
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.Approve(ctx, req.ID, wardenID)
			Expect(errors.Is(err, internal.ErrForbiddenTransition)).To(BeTrue())

			req, err = advance(req.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(req.Status).To(Equal(workflow.StatusActive))
		})
	})

	Describe("Approve", func() {
		var id int64

		BeforeEach(func() {
			req, err := svc.Create(ctx, hostelStudentID, validDTO())
			Expect(err).NotTo(HaveOccurred())
			id = req.ID
		})

		It("forbids the wrong role without changing status", func() {
			_, err := svc.Approve(ctx, id, wardenID)
			Expect(internal.IsForbidden(err)).To(BeTrue())
			Expect(repo.requests[id].Status).To(Equal(workflow.StatusPending))
		})

		It("forbids an hod of another department", func() {
			_, err := svc.Approve(ctx, id, otherHODID)
			Expect(internal.IsForbidden(err)).To(BeTrue())
			Expect(repo.requests[id].Status).To(Equal(workflow.StatusPending))
		})

		It("treats an active proxy like the hod and records the forwarding", func() {
			req, err := svc.Approve(ctx, id, proxyID)
			Expect(err).NotTo(HaveOccurred())
			Expect(req.Status).To(Equal(workflow.StatusApprovedHOD))
			Expect(*req.HODApprovedBy).To(Equal(hodID))
			Expect(*req.ForwardedTo).To(Equal(proxyID))
		})

		It("reports a lapsed delegation", func() {
			_, err := svc.Approve(ctx, id, lapsedProxyID)
			Expect(errors.Is(err, internal.ErrDelegationExpired)).To(BeTrue())
			Expect(internal.IsForbidden(err)).To(BeTrue())
			Expect(repo.requests[id].Status).To(Equal(workflow.StatusPending))
		})

		It("keeps gate steps behind the scanner", func() {
			_, err := svc.Approve(ctx, id, hodID)
			Expect(err).NotTo(HaveOccurred())
			_, err = svc.Approve(ctx, id, wardenID)
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.Approve(ctx, id, gatekeeperID)
			Expect(internal.IsForbidden(err)).To(BeTrue())
			Expect(repo.requests[id].Status).To(Equal(workflow.StatusApprovedWarden))
		})

		It("surfaces a stale status when another writer wins", func() {
			repo.beforeTransition = func(rid int64) {
				repo.requests[rid].Status = workflow.StatusCancelled
			}
			_, err := svc.Approve(ctx, id, hodID)
			Expect(errors.Is(err, internal.ErrStaleStatus)).To(BeTrue())
			Expect(publisher.events).To(HaveLen(1))
		})

		It("returns not found for unknown requests", func() {
			_, err := svc.Approve(ctx, 999, hodID)
			Expect(errors.Is(err, internal.ErrRequestNotFound)).To(BeTrue())
		})
	})

	Describe("Reject", func() {
		var id int64

		BeforeEach(func() {
			req, err := svc.Create(ctx, hostelStudentID, validDTO())
			Expect(err).NotTo(HaveOccurred())
			id = req.ID
		})

		It("rejects with a reason", func() {
			req, err := svc.Reject(ctx, id, hodID, request.RejectDTO{Reason: "exams"})
			Expect(err).NotTo(HaveOccurred())
			Expect(req.Status).To(Equal(workflow.StatusRejected))
			Expect(*req.RejectedBy).To(Equal(hodID))
			Expect(*req.RejectReason).To(Equal("exams"))
		})

		It("requires a reason", func() {
			_, err := svc.Reject(ctx, id, hodID, request.RejectDTO{})
			Expect(err).To(HaveOccurred())
			Expect(repo.requests[id].Status).To(Equal(workflow.StatusPending))
		})

		It("lets the warden reject at the warden step only", func() {
			_, err := svc.Reject(ctx, id, wardenID, request.RejectDTO{Reason: "no"})
			Expect(internal.IsForbidden(err)).To(BeTrue())

			_, err = svc.Approve(ctx, id, hodID)
			Expect(err).NotTo(HaveOccurred())
			req, err := svc.Reject(ctx, id, wardenID, request.RejectDTO{Reason: "no"})
			Expect(err).NotTo(HaveOccurred())
			Expect(req.Status).To(Equal(workflow.StatusRejected))
		})
	})

	Describe("Cancel", func() {
		It("only lets the owner cancel", func() {
			req, err := svc.Create(ctx, hostelStudentID, validDTO())
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.Cancel(ctx, req.ID, dayStudentID)
			Expect(errors.Is(err, internal.ErrUnauthorizedAccess)).To(BeTrue())

			req, err = svc.Cancel(ctx, req.ID, hostelStudentID)
			Expect(err).NotTo(HaveOccurred())
			Expect(req.Status).To(Equal(workflow.StatusCancelled))
		})

		It("refuses once the student is out", func() {
			req, err := svc.Create(ctx, dayStudentID, validDTO())
			Expect(err).NotTo(HaveOccurred())
			_, err = svc.Approve(ctx, req.ID, hodID)
			Expect(err).NotTo(HaveOccurred())
			_, err = advance(req.ID)
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.Cancel(ctx, req.ID, dayStudentID)
			Expect(errors.Is(err, internal.ErrInvalidTransition)).To(BeTrue())
		})
	})

	Describe("Get", func() {
		It("hides other students' requests but shows them to staff roles", func() {
			req, err := svc.Create(ctx, hostelStudentID, validDTO())
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.Get(ctx, req.ID, dayStudentID)
			Expect(errors.Is(err, internal.ErrUnauthorizedAccess)).To(BeTrue())

			got, err := svc.Get(ctx, req.ID, wardenID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal(req.ID))
		})
	})

	Describe("List", func() {
		It("scopes students to their own requests", func() {
			_, err := svc.List(ctx, hostelStudentID, "", 20, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(*repo.lastFilter.OwnerID).To(Equal(hostelStudentID))
		})

		It("gives the hod the pending queue of the department", func() {
			_, err := svc.List(ctx, hodID, "", 20, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(repo.lastFilter.DepartmentIDs).To(ConsistOf(int64(7)))
			Expect(repo.lastFilter.Statuses).To(ConsistOf(workflow.StatusPending))
		})

		It("gives the warden non-emergency hostel requests after hod approval", func() {
			_, err := svc.List(ctx, wardenID, "", 20, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(repo.lastFilter.StudentType).To(Equal(workflow.Hostel))
			Expect(*repo.lastFilter.Emergency).To(BeFalse())
			Expect(repo.lastFilter.Statuses).To(ConsistOf(workflow.StatusApprovedHOD))
		})

		It("adds the borrowed pending queue for a warden acting as proxy", func() {
			delegations.depts = []int64{8}
			_, err := svc.List(ctx, wardenID, "", 20, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(repo.lastFilter.Limit).To(Equal(20))
			Expect(repo.lastFilter.Any).To(HaveLen(2))
			Expect(repo.lastFilter.Any[0].StudentType).To(Equal(workflow.Hostel))
			Expect(repo.lastFilter.Any[0].Statuses).To(ConsistOf(workflow.StatusApprovedHOD))
			Expect(repo.lastFilter.Any[1].DepartmentIDs).To(ConsistOf(int64(8)))
			Expect(repo.lastFilter.Any[1].Statuses).To(ConsistOf(workflow.StatusPending))
		})

		It("scopes an explicit pending listing to the proxied departments", func() {
			delegations.depts = []int64{8}
			_, err := svc.List(ctx, wardenID, workflow.StatusPending, 20, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(repo.lastFilter.Any).To(BeEmpty())
			Expect(repo.lastFilter.StudentType).To(BeEmpty())
			Expect(repo.lastFilter.DepartmentIDs).To(ConsistOf(int64(8)))
			Expect(repo.lastFilter.Statuses).To(ConsistOf(workflow.StatusPending))
		})

		It("gives a staff proxy the pending queue of the absent hod", func() {
			delegations.depts = []int64{7}
			_, err := svc.List(ctx, proxyID, "", 20, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(repo.lastFilter.DepartmentIDs).To(ConsistOf(int64(7)))
			Expect(repo.lastFilter.Statuses).To(ConsistOf(workflow.StatusPending))
			Expect(repo.lastFilter.Any).To(BeEmpty())
		})

		It("leaves staff without a delegation unfiltered", func() {
			_, err := svc.List(ctx, proxyID, "", 20, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(repo.lastFilter.DepartmentIDs).To(BeEmpty())
			Expect(repo.lastFilter.Statuses).To(BeEmpty())
		})

		It("rejects unknown statuses", func() {
			_, err := svc.List(ctx, wardenID, "flying", 20, 0)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Dashboard", func() {
		It("summarises gate traffic for gatekeepers", func() {
			repo.counts = map[workflow.Status]int64{workflow.StatusActive: 3}
			d, err := svc.Dashboard(ctx, gatekeeperID)
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Role).To(Equal(workflow.RoleGatekeeper))
			Expect(d.CurrentlyOut).To(Equal(int64(3)))
		})

		It("counts the borrowed queue for a warden acting as proxy", func() {
			delegations.depts = []int64{8}
			repo.counts = map[workflow.Status]int64{workflow.StatusPending: 2, workflow.StatusApprovedHOD: 1}
			d, err := svc.Dashboard(ctx, wardenID)
			Expect(err).NotTo(HaveOccurred())
			Expect(d.PendingApprovals).To(Equal(int64(3)))
			Expect(repo.lastFilter.Any).To(HaveLen(2))
		})

		It("counts pending approvals for a staff proxy", func() {
			delegations.depts = []int64{7}
			repo.counts = map[workflow.Status]int64{workflow.StatusPending: 4}
			d, err := svc.Dashboard(ctx, proxyID)
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Role).To(Equal(workflow.RoleStaff))
			Expect(d.PendingApprovals).To(Equal(int64(4)))
			Expect(repo.lastFilter.DepartmentIDs).To(ConsistOf(int64(7)))
			Expect(repo.lastFilter.Statuses).To(ConsistOf(workflow.StatusPending))
		})

		It("shows a student their open request", func() {
			_, err := svc.Create(ctx, hostelStudentID, validDTO())
			Expect(err).NotTo(HaveOccurred())
			d, err := svc.Dashboard(ctx, hostelStudentID)
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Current).NotTo(BeNil())
		})
	})

	Describe("Attach", func() {
		It("stores the file under the owner's role and identifier", func() {
			req, err := svc.Create(ctx, hostelStudentID, validDTO())
			Expect(err).NotTo(HaveOccurred())

			got, err := svc.Attach(ctx, req.ID, hostelStudentID, strings.NewReader("%PDF-1.4"))
			Expect(err).NotTo(HaveOccurred())
			Expect(*got.AttachmentPath).To(Equal("uploads/student/REG001"))
			Expect(store.pruned).To(ConsistOf("uploads/student/REG001"))
			Expect(store.discarded).To(BeEmpty())
		})

		It("discards the new file when its path cannot be recorded", func() {
			req, err := svc.Create(ctx, hostelStudentID, validDTO())
			Expect(err).NotTo(HaveOccurred())
			repo.attachError = internal.StorageError(errors.New("db down"))

			_, err = svc.Attach(ctx, req.ID, hostelStudentID, strings.NewReader("%PDF-1.4"))
			Expect(err).To(HaveOccurred())
			Expect(store.pruned).To(BeEmpty())
			Expect(store.discarded).To(ConsistOf("uploads/student/REG001"))

			got, err := repo.GetByID(ctx, req.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.AttachmentPath).To(BeNil())
		})

		It("does not discard a file the request already points at", func() {
			req, err := svc.Create(ctx, hostelStudentID, validDTO())
			Expect(err).NotTo(HaveOccurred())
			_, err = svc.Attach(ctx, req.ID, hostelStudentID, strings.NewReader("%PDF-1.4"))
			Expect(err).NotTo(HaveOccurred())
			repo.attachError = internal.StorageError(errors.New("db down"))

			_, err = svc.Attach(ctx, req.ID, hostelStudentID, strings.NewReader("%PDF-1.4"))
			Expect(err).To(HaveOccurred())
			Expect(store.discarded).To(BeEmpty())
		})

		It("refuses other users", func() {
			req, err := svc.Create(ctx, hostelStudentID, validDTO())
			Expect(err).NotTo(HaveOccurred())
			_, err = svc.Attach(ctx, req.ID, hodID, strings.NewReader("x"))
			Expect(errors.Is(err, internal.ErrUnauthorizedAccess)).To(BeTrue())
		})
	})
})
