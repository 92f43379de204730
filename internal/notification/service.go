package notification

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/gatepass/internal"
)

var ErrNotificationNotFound = internal.NewNotFoundError("notification not found", internal.ErrCodeNotificationNotFound)

type Repository interface {
	CreateBatch(ctx context.Context, items []*Notification) error
	ListForUser(ctx context.Context, userID int64, unreadOnly bool, limit, offset int) ([]*Notification, error)
	MarkRead(ctx context.Context, id, userID int64) error
	Delete(ctx context.Context, id, userID int64) error
	SaveSubscription(ctx context.Context, s *PushSubscription) error
	SubscriptionsFor(ctx context.Context, userID int64) ([]*PushSubscription, error)
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) List(ctx context.Context, userID int64, unreadOnly bool, limit, offset int) ([]*Notification, error) {
	return s.repo.ListForUser(ctx, userID, unreadOnly, limit, offset)
}

// MarkRead and Delete only touch the caller's own rows; anything else reads as not found.
func (s *Service) MarkRead(ctx context.Context, id, userID int64) error {
	return s.repo.MarkRead(ctx, id, userID)
}

func (s *Service) Delete(ctx context.Context, id, userID int64) error {
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		return err
	}
	s.logger.Debug("notification deleted", "notification_id", id, "user_id", userID)
	return nil
}

func (s *Service) Subscribe(ctx context.Context, userID int64, dto SubscribeDTO) (*PushSubscription, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	sub := &PushSubscription{
		UserID:   userID,
		Endpoint: dto.Endpoint,
		P256dh:   dto.Keys.P256dh,
		Auth:     dto.Keys.Auth,
	}
	if err := s.repo.SaveSubscription(ctx, sub); err != nil {
		return nil, err
	}
	s.logger.Info("push subscription saved", "user_id", userID, "subscription_id", sub.ID)
	return sub, nil
}
