package postgres

import (
	"context"

	"github.com/frahmantamala/gatepass/internal"
	notificationDatamodel "github.com/frahmantamala/gatepass/internal/core/datamodel/notification"
	userDatamodel "github.com/frahmantamala/gatepass/internal/core/datamodel/user"
	"github.com/frahmantamala/gatepass/internal/notification"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) CreateBatch(ctx context.Context, items []*notification.Notification) error {
	if len(items) == 0 {
		return nil
	}
	rows := make([]*notificationDatamodel.Notification, len(items))
	for i, n := range items {
		rows[i] = notification.ToDataModel(n)
	}
	if err := r.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return internal.StorageError(err)
	}
	for i, row := range rows {
		*items[i] = *notification.FromDataModel(row)
	}
	return nil
}

func (r *NotificationRepository) ListForUser(ctx context.Context, userID int64, unreadOnly bool, limit, offset int) ([]*notification.Notification, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}

	var rows []*notificationDatamodel.Notification
	if err := q.Order("created_at DESC").Order("id DESC").Find(&rows).Error; err != nil {
		return nil, internal.StorageError(err)
	}
	return notification.FromDataModelSlice(rows), nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID int64) error {
	res := r.db.WithContext(ctx).Model(&notificationDatamodel.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if res.Error != nil {
		return internal.StorageError(res.Error)
	}
	if res.RowsAffected == 0 {
		return notification.ErrNotificationNotFound
	}
	return nil
}

func (r *NotificationRepository) Delete(ctx context.Context, id, userID int64) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&notificationDatamodel.Notification{})
	if res.Error != nil {
		return internal.StorageError(res.Error)
	}
	if res.RowsAffected == 0 {
		return notification.ErrNotificationNotFound
	}
	return nil
}

// SaveSubscription upserts on endpoint so a re-subscribing browser moves to its new owner and keys.
func (r *NotificationRepository) SaveSubscription(ctx context.Context, s *notification.PushSubscription) error {
	row := &userDatamodel.PushSubscription{
		UserID:   s.UserID,
		Endpoint: s.Endpoint,
		P256dh:   s.P256dh,
		Auth:     s.Auth,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "p256dh", "auth"}),
	}).Create(row).Error
	if err != nil {
		return internal.StorageError(err)
	}

	var saved userDatamodel.PushSubscription
	if err := r.db.WithContext(ctx).Where("endpoint = ?", s.Endpoint).First(&saved).Error; err != nil {
		return internal.StorageError(err)
	}
	*s = *notification.SubscriptionFromDataModel(&saved)
	return nil
}

func (r *NotificationRepository) SubscriptionsFor(ctx context.Context, userID int64) ([]*notification.PushSubscription, error) {
	var rows []*userDatamodel.PushSubscription
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&rows).Error; err != nil {
		return nil, internal.StorageError(err)
	}
	out := make([]*notification.PushSubscription, len(rows))
	for i, row := range rows {
		out[i] = notification.SubscriptionFromDataModel(row)
	}
	return out, nil
}
