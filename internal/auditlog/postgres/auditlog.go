package postgres

import (
	"context"
	"time"

	"github.com/frahmantamala/gatepass/internal"
	"github.com/frahmantamala/gatepass/internal/auditlog"
	auditlogDatamodel "github.com/frahmantamala/gatepass/internal/core/datamodel/auditlog"
	"gorm.io/gorm"
)

type LogRepository struct {
	db *gorm.DB
}

func NewLogRepository(db *gorm.DB) *LogRepository {
	return &LogRepository{db: db}
}

func (r *LogRepository) Append(ctx context.Context, e *auditlog.Entry) error {
	row := auditlog.ToDataModel(e)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return internal.StorageError(err)
	}
	e.ID = row.ID
	return nil
}

func (r *LogRepository) ListByRequest(ctx context.Context, requestID int64) ([]*auditlog.Entry, error) {
	var rows []*auditlogDatamodel.Log
	if err := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("timestamp ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, internal.StorageError(err)
	}
	out := make([]*auditlog.Entry, len(rows))
	for i, row := range rows {
		out[i] = auditlog.FromDataModel(row)
	}
	return out, nil
}

func (r *LogRepository) PurgeBefore(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("timestamp < ?", before).Delete(&auditlogDatamodel.Log{})
	if res.Error != nil {
		return 0, internal.StorageError(res.Error)
	}
	return res.RowsAffected, nil
}
