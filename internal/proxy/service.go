package proxy

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/gatepass/internal"
	"github.com/frahmantamala/gatepass/internal/core/common/validation"
	userDatamodel "github.com/frahmantamala/gatepass/internal/core/datamodel/user"
	"github.com/frahmantamala/gatepass/internal/workflow"
)

var ErrProxyNotFound = internal.NewNotFoundError("proxy setting not found", internal.ErrCodeProxyNotFound)

type Repository interface {
	Create(ctx context.Context, s *Setting) error
	GetByID(ctx context.Context, id int64) (*Setting, error)
	ListFor(ctx context.Context, userID *int64) ([]*Setting, error)
	Deactivate(ctx context.Context, id int64) error
	// ForProxyInDepartment returns delegations to proxyUserID from HODs of departmentID.
	ForProxyInDepartment(ctx context.Context, proxyUserID, departmentID int64) ([]*Setting, error)
	ActiveDepartmentsForProxy(ctx context.Context, proxyUserID int64, today time.Time) ([]int64, error)
	ActiveProxiesOf(ctx context.Context, hodIDs []int64, today time.Time) ([]int64, error)
	DeactivateLapsed(ctx context.Context, today time.Time) (int64, error)
}

type UserFinder interface {
	FindByID(ctx context.Context, id int64) (*userDatamodel.User, error)
}

type Service struct {
	repo   Repository
	users  UserFinder
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo Repository, users UserFinder, logger *slog.Logger) *Service {
	return &Service{repo: repo, users: users, logger: logger, now: time.Now}
}

func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Create registers a delegation. HODs delegate their own authority, admins any HOD's.
func (s *Service) Create(ctx context.Context, actorID int64, actorRole string, dto CreateSettingDTO) (*Setting, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	start, end, err := validation.DateRange("start_date", dto.StartDate, "end_date", dto.EndDate)
	if err != nil {
		return nil, err
	}

	hodID := actorID
	switch workflow.Role(actorRole) {
	case workflow.RoleHOD:
		if dto.HODID != 0 && dto.HODID != actorID {
			return nil, internal.ErrUnauthorizedAccess
		}
	case workflow.RoleAdmin:
		if dto.HODID == 0 {
			return nil, validation.Field("hod_id", "hod_id is required", internal.ErrCodeValidationFailed)
		}
		hodID = dto.HODID
	default:
		return nil, internal.ErrUnauthorizedAccess
	}

	if dto.ProxyUserID == hodID {
		return nil, validation.Field("proxy_user_id", "an HOD cannot delegate to themselves", internal.ErrCodeValidationFailed)
	}

	hod, err := s.users.FindByID(ctx, hodID)
	if err != nil {
		return nil, err
	}
	if hod.Role != string(workflow.RoleHOD) {
		return nil, validation.Field("hod_id", "user is not an HOD", internal.ErrCodeValidationFailed)
	}
	target, err := s.users.FindByID(ctx, dto.ProxyUserID)
	if err != nil {
		return nil, err
	}
	if target.Status != "active" || target.Role == string(workflow.RoleStudent) {
		return nil, validation.Field("proxy_user_id", "proxy must be an active staff member", internal.ErrCodeValidationFailed)
	}

	setting := &Setting{
		HODID:       hodID,
		ProxyUserID: dto.ProxyUserID,
		IsActive:    true,
		StartDate:   start,
		EndDate:     end,
	}
	if err := s.repo.Create(ctx, setting); err != nil {
		return nil, err
	}

	s.logger.Info("proxy delegation created",
		"proxy_setting_id", setting.ID,
		"hod_id", hodID,
		"proxy_user_id", dto.ProxyUserID,
		"start_date", dto.StartDate,
		"end_date", dto.EndDate)
	return setting, nil
}

// List returns every delegation for admins and the caller's own otherwise.
func (s *Service) List(ctx context.Context, actorID int64, actorRole string) ([]*Setting, error) {
	if workflow.Role(actorRole) == workflow.RoleAdmin {
		return s.repo.ListFor(ctx, nil)
	}
	return s.repo.ListFor(ctx, &actorID)
}

func (s *Service) Deactivate(ctx context.Context, id, actorID int64, actorRole string) error {
	setting, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if workflow.Role(actorRole) != workflow.RoleAdmin && setting.HODID != actorID {
		return internal.ErrUnauthorizedAccess
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return err
	}
	s.logger.Info("proxy delegation deactivated", "proxy_setting_id", id, "actor_id", actorID)
	return nil
}

// ResolveHOD finds the HOD of departmentID whose authority proxyUserID holds at the given time.
// A delegation that existed but has run out reports DelegationExpired.
func (s *Service) ResolveHOD(ctx context.Context, proxyUserID int64, departmentID *int64, at time.Time) (int64, error) {
	if departmentID == nil {
		return 0, internal.ErrForbiddenTransition.Withf("student has no department")
	}
	settings, err := s.repo.ForProxyInDepartment(ctx, proxyUserID, *departmentID)
	if err != nil {
		return 0, err
	}

	lapsed := false
	for _, st := range settings {
		if st.ActiveOn(at) {
			return st.HODID, nil
		}
		if st.LapsedOn(at) {
			lapsed = true
		}
	}
	if lapsed {
		s.logger.Warn("proxy delegation expired", "proxy_user_id", proxyUserID, "department_id", *departmentID)
		return 0, internal.ErrDelegationExpired
	}
	return 0, internal.ErrForbiddenTransition.Withf("user holds no delegation for this department")
}

func (s *Service) ActingDepartments(ctx context.Context, proxyUserID int64, at time.Time) ([]int64, error) {
	return s.repo.ActiveDepartmentsForProxy(ctx, proxyUserID, Day(at))
}

// ActiveProxiesOf lists the users currently acting for any of the given HODs.
func (s *Service) ActiveProxiesOf(ctx context.Context, hodIDs []int64, at time.Time) ([]int64, error) {
	if len(hodIDs) == 0 {
		return nil, nil
	}
	return s.repo.ActiveProxiesOf(ctx, hodIDs, Day(at))
}

// ReapExpired deactivates delegations whose end date has passed.
func (s *Service) ReapExpired(ctx context.Context) (int64, error) {
	n, err := s.repo.DeactivateLapsed(ctx, Day(s.now()))
	if err != nil {
		s.logger.Error("proxy reaper failed", "error", err)
		return 0, err
	}
	if n > 0 {
		s.logger.Info("proxy delegations expired", "count", n)
	}
	return n, nil
}
