package user

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/gatepass/internal"
	userDatamodel "github.com/frahmantamala/gatepass/internal/core/datamodel/user"
	"github.com/frahmantamala/gatepass/internal/workflow"
	"golang.org/x/crypto/bcrypt"
)

type Repository interface {
	Create(ctx context.Context, u *userDatamodel.User) error
	FindByID(ctx context.Context, id int64) (*userDatamodel.User, error)
	FindByEmail(ctx context.Context, email string) (*userDatamodel.User, error)
	FindByRegisterNumber(ctx context.Context, registerNumber string) (*userDatamodel.User, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
	UpdateTrustScore(ctx context.Context, id int64, score int) error
}

// TrustBounds supplies the allowed trust score range.
type TrustBounds interface {
	TrustScoreBounds(ctx context.Context) (min, max int)
}

type Service struct {
	repo       Repository
	bounds     TrustBounds
	bcryptCost int
	logger     *slog.Logger
}

func NewService(repo Repository, bounds TrustBounds, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:       repo,
		bounds:     bounds,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromDataModel(row), nil
}

func (s *Service) Create(ctx context.Context, dto CreateUserDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), s.bcryptCost)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	u := &User{
		Name:           dto.Name,
		Email:          dto.Email,
		PasswordHash:   string(hash),
		Phone:          dto.Phone,
		Role:           workflow.Role(dto.Role),
		DepartmentID:   dto.DepartmentID,
		StudentType:    workflow.StudentType(dto.StudentType),
		RegisterNumber: dto.RegisterNumber,
		TrustScore:     100,
		Status:         StatusActive,
	}
	if s.bounds != nil {
		u.TrustScore = clamp(ctx, s.bounds, u.TrustScore)
	}

	row := ToDataModel(u)
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.Warn("failed to create user", "email", dto.Email, "error", err)
		return nil, err
	}

	s.logger.Info("user created", "user_id", row.ID, "role", row.Role)
	return FromDataModel(row), nil
}

func (s *Service) SetStatus(ctx context.Context, id int64, dto UpdateStatusDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, id, dto.Status); err != nil {
		return nil, err
	}
	s.logger.Info("user status changed", "user_id", id, "status", dto.Status)
	return s.GetByID(ctx, id)
}

// SetTrustScore stores the score clamped into [trust_score_min, trust_score_max].
func (s *Service) SetTrustScore(ctx context.Context, id int64, dto TrustScoreDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	score := *dto.TrustScore
	if s.bounds != nil {
		score = clamp(ctx, s.bounds, score)
	}
	if err := s.repo.UpdateTrustScore(ctx, id, score); err != nil {
		return nil, err
	}
	if score != *dto.TrustScore {
		s.logger.Info("trust score clamped", "user_id", id, "requested", *dto.TrustScore, "stored", score)
	}
	return s.GetByID(ctx, id)
}

func clamp(ctx context.Context, bounds TrustBounds, score int) int {
	lo, hi := bounds.TrustScoreBounds(ctx)
	if score < lo {
		return lo
	}
	if score > hi {
		return hi
	}
	return score
}
