package postgres

import (
	"context"
	"time"

	"github.com/frahmantamala/gatepass/internal"
	"github.com/frahmantamala/gatepass/internal/calendar"
	calendarDatamodel "github.com/frahmantamala/gatepass/internal/core/datamodel/calendar"
	"gorm.io/gorm"
)

type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Create(ctx context.Context, e *calendarDatamodel.Event) error {
	return internal.StorageError(r.db.WithContext(ctx).Create(e).Error)
}

func (r *EventRepository) ListBetween(ctx context.Context, from, to time.Time) ([]*calendarDatamodel.Event, error) {
	var rows []*calendarDatamodel.Event
	err := r.db.WithContext(ctx).
		Where("event_date >= ? AND event_date <= ?", from, to).
		Order("event_date ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, internal.StorageError(err)
	}
	return rows, nil
}

func (r *EventRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&calendarDatamodel.Event{}, id)
	if res.Error != nil {
		return internal.StorageError(res.Error)
	}
	if res.RowsAffected == 0 {
		return calendar.ErrEventNotFound
	}
	return nil
}
