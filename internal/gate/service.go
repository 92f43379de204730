package gate

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/frahmantamala/gatepass/internal"
	userDatamodel "github.com/frahmantamala/gatepass/internal/core/datamodel/user"
	"github.com/frahmantamala/gatepass/internal/request"
	"github.com/frahmantamala/gatepass/internal/workflow"
)

// Matcher picks the one request a scan of registerNumber acts on.
type Matcher interface {
	Match(ctx context.Context, registerNumber string) (int64, error)
}

type UserFinder interface {
	FindByID(ctx context.Context, id int64) (*userDatamodel.User, error)
	FindByRegisterNumber(ctx context.Context, registerNumber string) (*userDatamodel.User, error)
}

type RequestLoader interface {
	GetByID(ctx context.Context, id int64) (*request.Request, error)
}

// Advancer performs the gate transition; request.Service satisfies it.
type Advancer interface {
	Advance(ctx context.Context, req *request.Request, owner *request.Person, actorID int64, actorRole workflow.Role) (*request.Request, error)
}

type ScanRecorder interface {
	ObserveScan(outcome string)
}

type Service struct {
	matcher  Matcher
	users    UserFinder
	requests RequestLoader
	advancer Advancer
	recorder ScanRecorder
	logger   *slog.Logger
}

func NewService(matcher Matcher, users UserFinder, requests RequestLoader, advancer Advancer, logger *slog.Logger) *Service {
	return &Service{
		matcher:  matcher,
		users:    users,
		requests: requests,
		advancer: advancer,
		logger:   logger,
	}
}

func (s *Service) SetRecorder(r ScanRecorder) {
	s.recorder = r
}

// Scan resolves the scanned register number to a single request and moves it
// through the gate: exit for approved requests, return for active ones.
func (s *Service) Scan(ctx context.Context, gatekeeperID int64, dto ScanDTO) (*ScanResult, error) {
	dto.RegisterNumber = strings.TrimSpace(dto.RegisterNumber)
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	res, err := s.scan(ctx, gatekeeperID, dto.RegisterNumber)
	s.observe(res, err)
	if err != nil {
		s.logger.Warn("gate scan refused",
			"gatekeeper_id", gatekeeperID,
			"register_number", dto.RegisterNumber,
			"error", err)
		return nil, err
	}

	s.logger.Info("gate scan",
		"gatekeeper_id", gatekeeperID,
		"request_id", res.Request.ID,
		"action", res.Action,
		"status", res.Request.Status)
	return res, nil
}

func (s *Service) scan(ctx context.Context, gatekeeperID int64, registerNumber string) (*ScanResult, error) {
	actor, err := s.users.FindByID(ctx, gatekeeperID)
	if err != nil {
		return nil, err
	}
	if workflow.Role(actor.Role) != workflow.RoleGatekeeper {
		return nil, internal.ErrForbiddenTransition.Withf("only gatekeepers can scan passes")
	}
	if actor.Status != "active" {
		return nil, internal.ErrUserInactive
	}

	student, err := s.users.FindByRegisterNumber(ctx, registerNumber)
	if err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			return nil, internal.ErrNoEligiblePass
		}
		return nil, err
	}
	owner := request.PersonFromDataModel(student)
	if !owner.Active {
		return nil, internal.ErrForbiddenTransition.Withf("student account is inactive")
	}

	id, err := s.matcher.Match(ctx, registerNumber)
	if err != nil {
		return nil, err
	}
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updated, err := s.advancer.Advance(ctx, req, owner, gatekeeperID, workflow.RoleGatekeeper)
	if err != nil {
		return nil, err
	}

	action := workflow.ActionGateExit
	if updated.Status == workflow.StatusCompleted {
		action = workflow.ActionGateReturn
	}
	return &ScanResult{
		Request: updated,
		Action:  action,
		Student: ScannedStudent{
			ID:             owner.ID,
			Name:           owner.Name,
			RegisterNumber: owner.RegisterNumber,
			StudentType:    owner.StudentType,
		},
	}, nil
}

func (s *Service) observe(res *ScanResult, err error) {
	if s.recorder == nil {
		return
	}
	switch {
	case err == nil:
		s.recorder.ObserveScan(string(res.Action))
	case errors.Is(err, internal.ErrNoEligiblePass):
		s.recorder.ObserveScan("no_eligible_pass")
	case internal.IsForbidden(err):
		s.recorder.ObserveScan("forbidden")
	default:
		s.recorder.ObserveScan("error")
	}
}
