package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/gatepass/internal"
	proxyDatamodel "github.com/frahmantamala/gatepass/internal/core/datamodel/proxy"
	userDatamodel "github.com/frahmantamala/gatepass/internal/core/datamodel/user"
	"github.com/frahmantamala/gatepass/internal/proxy"
	"gorm.io/gorm"
)

type ProxyRepository struct {
	db *gorm.DB
}

func NewProxyRepository(db *gorm.DB) *ProxyRepository {
	return &ProxyRepository{db: db}
}

// Create stores the delegation and flags the proxy user in one transaction.
func (r *ProxyRepository) Create(ctx context.Context, s *proxy.Setting) error {
	row := proxy.ToDataModel(s)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(row).Error; err != nil {
			return err
		}
		return tx.Model(&userDatamodel.User{}).
			Where("id = ?", s.ProxyUserID).
			Update("is_proxy_active", true).Error
	})
	if err != nil {
		return internal.StorageError(err)
	}
	*s = *proxy.FromDataModel(row)
	return nil
}

func (r *ProxyRepository) GetByID(ctx context.Context, id int64) (*proxy.Setting, error) {
	var row proxyDatamodel.ProxySetting
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, proxy.ErrProxyNotFound
		}
		return nil, internal.StorageError(err)
	}
	return proxy.FromDataModel(&row), nil
}

// ListFor returns delegations given or held by userID, or all of them when userID is nil.
func (r *ProxyRepository) ListFor(ctx context.Context, userID *int64) ([]*proxy.Setting, error) {
	var rows []*proxyDatamodel.ProxySetting
	q := r.db.WithContext(ctx).Order("start_date DESC").Order("id DESC")
	if userID != nil {
		q = q.Where("hod_id = ? OR proxy_user_id = ?", *userID, *userID)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, internal.StorageError(err)
	}
	return fromRows(rows), nil
}

func (r *ProxyRepository) Deactivate(ctx context.Context, id int64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row proxyDatamodel.ProxySetting
		if err := tx.Where("id = ?", id).First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return proxy.ErrProxyNotFound
			}
			return err
		}
		if err := tx.Model(&proxyDatamodel.ProxySetting{}).
			Where("id = ?", id).
			Update("is_active", false).Error; err != nil {
			return err
		}
		return clearProxyFlags(tx, []int64{row.ProxyUserID})
	})
	return internal.StorageError(err)
}

func (r *ProxyRepository) ForProxyInDepartment(ctx context.Context, proxyUserID, departmentID int64) ([]*proxy.Setting, error) {
	var rows []*proxyDatamodel.ProxySetting
	err := r.db.WithContext(ctx).
		Select("proxy_settings.*").
		Joins("JOIN users ON users.id = proxy_settings.hod_id").
		Where("proxy_settings.proxy_user_id = ? AND users.department_id = ?", proxyUserID, departmentID).
		Order("proxy_settings.end_date DESC").
		Find(&rows).Error
	if err != nil {
		return nil, internal.StorageError(err)
	}
	return fromRows(rows), nil
}

func (r *ProxyRepository) ActiveDepartmentsForProxy(ctx context.Context, proxyUserID int64, today time.Time) ([]int64, error) {
	var depts []int64
	err := r.db.WithContext(ctx).
		Model(&proxyDatamodel.ProxySetting{}).
		Distinct("users.department_id").
		Joins("JOIN users ON users.id = proxy_settings.hod_id").
		Where("proxy_settings.proxy_user_id = ? AND proxy_settings.is_active = ?", proxyUserID, true).
		Where("proxy_settings.start_date <= ? AND proxy_settings.end_date >= ?", today, today).
		Where("users.department_id IS NOT NULL").
		Pluck("users.department_id", &depts).Error
	if err != nil {
		return nil, internal.StorageError(err)
	}
	return depts, nil
}

func (r *ProxyRepository) ActiveProxiesOf(ctx context.Context, hodIDs []int64, today time.Time) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&proxyDatamodel.ProxySetting{}).
		Distinct("proxy_user_id").
		Where("hod_id IN ? AND is_active = ?", hodIDs, true).
		Where("start_date <= ? AND end_date >= ?", today, today).
		Pluck("proxy_user_id", &ids).Error
	if err != nil {
		return nil, internal.StorageError(err)
	}
	return ids, nil
}

// DeactivateLapsed switches off delegations that ended before today and
// clears the proxy flag of users left without an active delegation.
func (r *ProxyRepository) DeactivateLapsed(ctx context.Context, today time.Time) (int64, error) {
	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var proxies []int64
		if err := tx.Model(&proxyDatamodel.ProxySetting{}).
			Where("is_active = ? AND end_date < ?", true, today).
			Distinct("proxy_user_id").
			Pluck("proxy_user_id", &proxies).Error; err != nil {
			return err
		}
		if len(proxies) == 0 {
			return nil
		}

		res := tx.Model(&proxyDatamodel.ProxySetting{}).
			Where("is_active = ? AND end_date < ?", true, today).
			Update("is_active", false)
		if res.Error != nil {
			return res.Error
		}
		affected = res.RowsAffected
		return clearProxyFlags(tx, proxies)
	})
	if err != nil {
		return 0, internal.StorageError(err)
	}
	return affected, nil
}

func clearProxyFlags(tx *gorm.DB, userIDs []int64) error {
	return tx.Model(&userDatamodel.User{}).
		Where("id IN ?", userIDs).
		Where("NOT EXISTS (SELECT 1 FROM proxy_settings ps WHERE ps.proxy_user_id = users.id AND ps.is_active = ?)", true).
		Update("is_proxy_active", false).Error
}

func fromRows(rows []*proxyDatamodel.ProxySetting) []*proxy.Setting {
	out := make([]*proxy.Setting, len(rows))
	for i, row := range rows {
		out[i] = proxy.FromDataModel(row)
	}
	return out
}
