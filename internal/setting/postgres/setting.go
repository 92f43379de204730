package postgres

import (
	"context"
	"time"

	"github.com/frahmantamala/gatepass/internal"
	settingDatamodel "github.com/frahmantamala/gatepass/internal/core/datamodel/setting"
	"github.com/frahmantamala/gatepass/internal/setting"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingRepository struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

func (r *SettingRepository) List(ctx context.Context) ([]*setting.Setting, error) {
	var rows []*settingDatamodel.Setting
	if err := r.db.WithContext(ctx).Order(clause.OrderByColumn{Column: clause.Column{Name: "key"}}).Find(&rows).Error; err != nil {
		return nil, internal.StorageError(err)
	}
	out := make([]*setting.Setting, len(rows))
	for i, row := range rows {
		out[i] = setting.FromDataModel(row)
	}
	return out, nil
}

func (r *SettingRepository) Upsert(ctx context.Context, key, value string) (*setting.Setting, error) {
	row := &settingDatamodel.Setting{Key: key, Value: value, UpdatedAt: time.Now()}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(row).Error
	if err != nil {
		return nil, internal.StorageError(err)
	}
	return setting.FromDataModel(row), nil
}
