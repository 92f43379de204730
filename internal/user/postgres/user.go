package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/gatepass/internal"
	userDatamodel "github.com/frahmantamala/gatepass/internal/core/datamodel/user"
	"gorm.io/gorm"
)

var ErrEmailTaken = internal.NewConflictError("email or register number already registered", internal.ErrCodeUserExists)

// UserRepository implements user.Repository and the user lookups other packages need.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *userDatamodel.User) error {
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrEmailTaken
		}
		return internal.StorageError(err)
	}
	return nil
}

func (r *UserRepository) first(ctx context.Context, query string, arg interface{}) (*userDatamodel.User, error) {
	var u userDatamodel.User
	if err := r.db.WithContext(ctx).Where(query, arg).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, internal.StorageError(err)
	}
	return &u, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*userDatamodel.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*userDatamodel.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *UserRepository) FindByRegisterNumber(ctx context.Context, registerNumber string) (*userDatamodel.User, error) {
	return r.first(ctx, "register_number = ?", registerNumber)
}

func (r *UserRepository) update(ctx context.Context, id int64, column string, value interface{}) error {
	res := r.db.WithContext(ctx).Model(&userDatamodel.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			column:       value,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return internal.StorageError(res.Error)
	}
	if res.RowsAffected == 0 {
		return internal.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	return r.update(ctx, id, "status", status)
}

func (r *UserRepository) UpdateTrustScore(ctx context.Context, id int64, score int) error {
	return r.update(ctx, id, "trust_score", score)
}

// ActiveIDsByRole lists active users holding role, limited to departmentID when given.
func (r *UserRepository) ActiveIDsByRole(ctx context.Context, role string, departmentID *int64) ([]int64, error) {
	q := r.db.WithContext(ctx).Model(&userDatamodel.User{}).
		Where("role = ? AND status = ?", role, "active")
	if departmentID != nil {
		q = q.Where("department_id = ?", *departmentID)
	}
	var ids []int64
	if err := q.Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, internal.StorageError(err)
	}
	return ids, nil
}
