package request

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/frahmantamala/gatepass/internal"
	userDatamodel "github.com/frahmantamala/gatepass/internal/core/datamodel/user"
	"github.com/frahmantamala/gatepass/internal/core/events"
	"github.com/frahmantamala/gatepass/internal/workflow"
)

// Repository interface defines the data access methods for requests
type Repository interface {
	CreateIfNoActive(ctx context.Context, r *Request) error
	GetByID(ctx context.Context, id int64) (*Request, error)
	// Transition moves id from one status to another only if it still holds from.
	Transition(ctx context.Context, id int64, from, to workflow.Status, changes Changes) (*Request, error)
	SetAttachment(ctx context.Context, id int64, path string) error
	List(ctx context.Context, filter Filter) ([]*Request, error)
	CountByStatus(ctx context.Context, filter Filter) (map[workflow.Status]int64, error)
	LatestOpen(ctx context.Context, userID int64) (*Request, error)
}

type UserFinder interface {
	FindByID(ctx context.Context, id int64) (*userDatamodel.User, error)
}

// DelegationResolver answers whether a user currently holds an HOD's authority.
type DelegationResolver interface {
	// ResolveHOD returns the delegating HOD of departmentID for proxyUserID at the given time.
	ResolveHOD(ctx context.Context, proxyUserID int64, departmentID *int64, at time.Time) (int64, error)
	ActingDepartments(ctx context.Context, proxyUserID int64, at time.Time) ([]int64, error)
}

type Publisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type AttachmentStore interface {
	Save(ctx context.Context, role, identifier string, requestID int64, r io.Reader) (string, error)
	// Prune drops superseded files once path is recorded.
	Prune(path string)
	Discard(path string)
}

type Service struct {
	repo        Repository
	users       UserFinder
	delegations DelegationResolver
	publisher   Publisher
	attachments AttachmentStore
	logger      *slog.Logger
	now         func() time.Time
}

func NewService(repo Repository, users UserFinder, delegations DelegationResolver, publisher Publisher, attachments AttachmentStore, logger *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		users:       users,
		delegations: delegations,
		publisher:   publisher,
		attachments: attachments,
		logger:      logger,
		now:         time.Now,
	}
}

// SetClock overrides the time source used for delegation windows and gate timestamps.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Service) person(ctx context.Context, id int64) (*Person, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return PersonFromDataModel(u), nil
}

// Create raises a new pending request. A student may hold only one open request.
func (s *Service) Create(ctx context.Context, userID int64, dto CreateRequestDTO) (*Request, error) {
	from, to, err := dto.Validate()
	if err != nil {
		return nil, err
	}

	owner, err := s.person(ctx, userID)
	if err != nil {
		return nil, err
	}
	if owner.Role != workflow.RoleStudent {
		return nil, internal.ErrForbiddenTransition.Withf("only students can raise requests")
	}
	if !owner.Active {
		return nil, internal.ErrUserInactive
	}

	req := &Request{
		UserID:   userID,
		Type:     dto.Type,
		Category: dto.Category,
		Reason:   dto.Reason,
		FromDate: from,
		ToDate:   to,
		Status:   workflow.StatusPending,
	}
	if err := s.repo.CreateIfNoActive(ctx, req); err != nil {
		s.logger.Warn("failed to create request", "error", err, "user_id", userID)
		return nil, err
	}

	s.logger.Info("request created",
		"request_id", req.ID,
		"user_id", userID,
		"type", req.Type,
		"emergency", req.Emergency())

	s.publish(ctx, req, owner, userID, workflow.ActionCreate, "", workflow.StatusPending)
	return req, nil
}

// Get returns a request visible to the viewer: the owner or any non-student role.
func (s *Service) Get(ctx context.Context, id, viewerID int64) (*Request, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.UserID == viewerID {
		return req, nil
	}
	viewer, err := s.person(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	if viewer.Role == workflow.RoleStudent {
		s.logger.Warn("unauthorized access to request", "request_id", id, "viewer_id", viewerID)
		return nil, internal.ErrUnauthorizedAccess
	}
	return req, nil
}

// List returns the viewer's own requests for students and an approval queue
// for approvers. An explicit status overrides the default queue.
func (s *Service) List(ctx context.Context, viewerID int64, status workflow.Status, limit, offset int) ([]*Request, error) {
	viewer, err := s.person(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	if status != "" && !status.Valid() {
		return nil, internal.NewValidationFieldError("status", "unknown status "+string(status), internal.ErrCodeValidationFailed)
	}

	f, err := s.queueFilter(ctx, viewer, status)
	if err != nil {
		return nil, err
	}
	f.Limit, f.Offset = limit, offset
	return s.repo.List(ctx, f)
}

func (s *Service) queueFilter(ctx context.Context, viewer *Person, status workflow.Status) (Filter, error) {
	var f Filter
	if status != "" {
		f.Statuses = []workflow.Status{status}
	}

	switch viewer.Role {
	case workflow.RoleStudent:
		f.OwnerID = &viewer.ID
		return f, nil
	case workflow.RoleHOD:
		depts, err := s.departmentsFor(ctx, viewer)
		if err != nil {
			return f, err
		}
		f.DepartmentIDs = depts
		if status == "" {
			f.Statuses = []workflow.Status{workflow.StatusPending}
		}
		return f, nil
	}

	delegated, err := s.delegatedQueue(ctx, viewer)
	if err != nil {
		return f, err
	}
	if delegated != nil && status == workflow.StatusPending {
		return *delegated, nil
	}

	own := true
	switch viewer.Role {
	case workflow.RoleWarden:
		f.StudentType = workflow.Hostel
		if status == "" {
			no := false
			f.Emergency = &no
			f.Statuses = []workflow.Status{workflow.StatusApprovedHOD}
		}
	case workflow.RoleGatekeeper:
		if status == "" {
			f.GateReady = true
		}
	default:
		own = false
	}

	if delegated == nil || status != "" {
		return f, nil
	}
	if !own {
		// staff acting for an HOD default to the borrowed queue
		return *delegated, nil
	}
	return Filter{Any: []Filter{f, *delegated}}, nil
}

// delegatedQueue is the pending queue of the departments a non-HOD viewer
// currently proxies for, or nil when there are none.
func (s *Service) delegatedQueue(ctx context.Context, viewer *Person) (*Filter, error) {
	if s.delegations == nil {
		return nil, nil
	}
	depts, err := s.delegations.ActingDepartments(ctx, viewer.ID, s.now())
	if err != nil {
		return nil, err
	}
	if len(depts) == 0 {
		return nil, nil
	}
	return &Filter{DepartmentIDs: depts, Statuses: []workflow.Status{workflow.StatusPending}}, nil
}

// departmentsFor is the viewer's own department plus those they currently proxy for.
func (s *Service) departmentsFor(ctx context.Context, viewer *Person) ([]int64, error) {
	var depts []int64
	if viewer.DepartmentID != nil {
		depts = append(depts, *viewer.DepartmentID)
	}
	if s.delegations != nil {
		extra, err := s.delegations.ActingDepartments(ctx, viewer.ID, s.now())
		if err != nil {
			return nil, err
		}
		depts = append(depts, extra...)
	}
	if len(depts) == 0 {
		// a department-less HOD sees nothing rather than everything
		depts = []int64{-1}
	}
	return depts, nil
}

func (s *Service) load(ctx context.Context, id, actorID int64) (*Request, *Person, *Person, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, nil, err
	}
	owner, err := s.person(ctx, req.UserID)
	if err != nil {
		return nil, nil, nil, err
	}
	actor, err := s.person(ctx, actorID)
	if err != nil {
		return nil, nil, nil, err
	}
	if !actor.Active {
		return nil, nil, nil, internal.ErrUserInactive
	}
	return req, owner, actor, nil
}

// hodAuthority decides whether actor may act as the HOD of owner's department.
// It returns the HOD the action is attributed to and whether a proxy acted.
func (s *Service) hodAuthority(ctx context.Context, owner, actor *Person) (int64, bool, error) {
	if actor.Role == workflow.RoleHOD && actor.InDepartment(owner.DepartmentID) {
		return actor.ID, false, nil
	}
	if s.delegations == nil {
		return 0, false, internal.ErrForbiddenTransition.Withf("%s cannot approve for this department", actor.Role)
	}
	hodID, err := s.delegations.ResolveHOD(ctx, actor.ID, owner.DepartmentID, s.now())
	if err != nil {
		return 0, false, err
	}
	return hodID, true, nil
}

// Approve moves a request one approval step forward on behalf of actorID.
// Gate steps are only reachable through a scan.
func (s *Service) Approve(ctx context.Context, id, actorID int64) (*Request, error) {
	req, owner, actor, err := s.load(ctx, id, actorID)
	if err != nil {
		return nil, err
	}

	role := actor.Role
	var changes Changes
	if workflow.NextRole(req.Status, req.Emergency(), owner.StudentType) == workflow.RoleHOD {
		hodID, proxied, err := s.hodAuthority(ctx, owner, actor)
		if err != nil {
			s.logger.Warn("approve denied", "request_id", id, "actor_id", actorID, "error", err)
			return nil, err
		}
		role = workflow.RoleHOD
		changes.HODApprovedBy = &hodID
		if proxied {
			changes.ForwardedTo = &actor.ID
		}
	}

	rule, err := workflow.Decide(workflow.Input{
		Status:      req.Status,
		Emergency:   req.Emergency(),
		StudentType: owner.StudentType,
		ActorRole:   role,
	})
	if err != nil {
		s.logger.Warn("approve denied", "request_id", id, "actor_id", actorID, "role", role, "status", req.Status, "error", err)
		return nil, err
	}
	if rule.Role == workflow.RoleGatekeeper {
		return nil, internal.ErrForbiddenTransition.Withf("gate transitions require a scan")
	}
	if rule.Action == workflow.ActionWardenApprove {
		changes.WardenApprovedBy = &actor.ID
	}

	return s.apply(ctx, req, owner, actor.ID, rule.Next, rule.Action, changes)
}

// Advance performs the gate step for a request already matched by a scan.
func (s *Service) Advance(ctx context.Context, req *Request, owner *Person, actorID int64, actorRole workflow.Role) (*Request, error) {
	rule, err := workflow.Decide(workflow.Input{
		Status:      req.Status,
		Emergency:   req.Emergency(),
		StudentType: owner.StudentType,
		ActorRole:   actorRole,
	})
	if err != nil {
		return nil, err
	}

	now := s.now()
	var changes Changes
	switch rule.Action {
	case workflow.ActionGateExit:
		changes.ExitAt = &now
	case workflow.ActionGateReturn:
		changes.ReturnAt = &now
	}
	return s.apply(ctx, req, owner, actorID, rule.Next, rule.Action, changes)
}

// Reject ends a request at the current approval step.
func (s *Service) Reject(ctx context.Context, id, actorID int64, dto RejectDTO) (*Request, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	req, owner, actor, err := s.load(ctx, id, actorID)
	if err != nil {
		return nil, err
	}

	role := actor.Role
	if workflow.NextRole(req.Status, req.Emergency(), owner.StudentType) == workflow.RoleHOD {
		if _, _, err := s.hodAuthority(ctx, owner, actor); err != nil {
			return nil, err
		}
		role = workflow.RoleHOD
	}

	next, err := workflow.Reject(workflow.Input{
		Status:      req.Status,
		Emergency:   req.Emergency(),
		StudentType: owner.StudentType,
		ActorRole:   role,
	})
	if err != nil {
		s.logger.Warn("reject denied", "request_id", id, "actor_id", actorID, "status", req.Status, "error", err)
		return nil, err
	}

	reason := dto.Reason
	return s.apply(ctx, req, owner, actor.ID, next, workflow.ActionReject, Changes{RejectedBy: &actor.ID, RejectReason: &reason})
}

// Cancel lets the owner withdraw a request that has not left the gate.
func (s *Service) Cancel(ctx context.Context, id, actorID int64) (*Request, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.UserID != actorID {
		return nil, internal.ErrUnauthorizedAccess
	}
	next, err := workflow.Cancel(req.Status)
	if err != nil {
		return nil, err
	}
	owner, err := s.person(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, req, owner, actorID, next, workflow.ActionCancel, Changes{})
}

func (s *Service) apply(ctx context.Context, req *Request, owner *Person, actorID int64, next workflow.Status, action workflow.Action, changes Changes) (*Request, error) {
	from := req.Status
	updated, err := s.repo.Transition(ctx, req.ID, from, next, changes)
	if err != nil {
		s.logger.Warn("transition failed",
			"request_id", req.ID,
			"from", from,
			"to", next,
			"error", err)
		return nil, err
	}

	s.logger.Info("request transitioned",
		"request_id", req.ID,
		"actor_id", actorID,
		"action", action,
		"from", from,
		"to", next)

	s.publish(ctx, updated, owner, actorID, action, from, next)
	return updated, nil
}

// publish runs after commit; a failing bus never undoes the transition.
func (s *Service) publish(ctx context.Context, req *Request, owner *Person, actorID int64, action workflow.Action, from, to workflow.Status) {
	if s.publisher == nil {
		return
	}
	evt := events.NewRequestTransitionedEvent(req.ID, req.UserID, actorID, string(action), string(from), string(to)).
		WithRouting(req.Emergency(), string(owner.StudentType), owner.DepartmentID)
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Error("failed to publish transition", "request_id", req.ID, "error", err)
	}
}

// Resend republishes the current status of a request so its notifications go out again.
func (s *Service) Resend(ctx context.Context, id int64) error {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	owner, err := s.person(ctx, req.UserID)
	if err != nil {
		return err
	}
	if s.publisher == nil {
		return fmt.Errorf("no publisher configured")
	}
	evt := events.NewRequestTransitionedEvent(req.ID, req.UserID, 0, ActionResend, string(req.Status), string(req.Status)).
		WithRouting(req.Emergency(), string(owner.StudentType), owner.DepartmentID)
	return s.publisher.Publish(ctx, evt)
}

// ActionResend marks republished transitions; the audit log ignores it.
const ActionResend = "resend"

// Attach stores an attachment for the owner's request and records its path.
func (s *Service) Attach(ctx context.Context, id, actorID int64, file io.Reader) (*Request, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.UserID != actorID {
		return nil, internal.ErrUnauthorizedAccess
	}
	if s.attachments == nil {
		return nil, internal.NewInternalError("attachment storage is not configured", nil)
	}
	owner, err := s.person(ctx, actorID)
	if err != nil {
		return nil, err
	}

	path, err := s.attachments.Save(ctx, string(owner.Role), owner.Identifier(), req.ID, file)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetAttachment(ctx, req.ID, path); err != nil {
		// a same-type upload overwrote the recorded file in place, keep it
		if req.AttachmentPath == nil || *req.AttachmentPath != path {
			s.attachments.Discard(path)
		}
		return nil, err
	}
	s.attachments.Prune(path)
	req.AttachmentPath = &path
	s.logger.Info("attachment stored", "request_id", req.ID, "path", path)
	return req, nil
}

// Dashboard builds the role-specific summary for the viewer.
func (s *Service) Dashboard(ctx context.Context, viewerID int64) (*Dashboard, error) {
	viewer, err := s.person(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	d := &Dashboard{Role: viewer.Role}

	switch viewer.Role {
	case workflow.RoleStudent:
		if d.Counts, err = s.repo.CountByStatus(ctx, Filter{OwnerID: &viewer.ID}); err != nil {
			return nil, err
		}
		if d.Current, err = s.repo.LatestOpen(ctx, viewer.ID); err != nil {
			return nil, err
		}
	case workflow.RoleHOD, workflow.RoleWarden:
		f, err := s.queueFilter(ctx, viewer, "")
		if err != nil {
			return nil, err
		}
		if d.PendingApprovals, err = s.count(ctx, f); err != nil {
			return nil, err
		}
	case workflow.RoleGatekeeper:
		if d.GateReady, err = s.count(ctx, Filter{GateReady: true}); err != nil {
			return nil, err
		}
		if d.CurrentlyOut, err = s.count(ctx, Filter{Statuses: []workflow.Status{workflow.StatusActive}}); err != nil {
			return nil, err
		}
	default:
		if d.Counts, err = s.repo.CountByStatus(ctx, Filter{}); err != nil {
			return nil, err
		}
		d.CurrentlyOut = d.Counts[workflow.StatusActive]
	}

	// the warden queue filter already folds in any delegated departments
	if viewer.Role != workflow.RoleStudent && viewer.Role != workflow.RoleHOD && viewer.Role != workflow.RoleWarden {
		delegated, err := s.delegatedQueue(ctx, viewer)
		if err != nil {
			return nil, err
		}
		if delegated != nil {
			if d.PendingApprovals, err = s.count(ctx, *delegated); err != nil {
				return nil, err
			}
		}
	}
	return d, nil
}

func (s *Service) count(ctx context.Context, f Filter) (int64, error) {
	counts, err := s.repo.CountByStatus(ctx, f)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, n := range counts {
		total += n
	}
	return total, nil
}
