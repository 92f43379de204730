package notification

import (
	"time"

	notificationDatamodel "github.com/frahmantamala/gatepass/internal/core/datamodel/notification"
	userDatamodel "github.com/frahmantamala/gatepass/internal/core/datamodel/user"
	"github.com/frahmantamala/gatepass/internal/messaging"
)

type Notification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	RequestID *int64    `json:"request_id,omitempty"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

type PushSubscription struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Endpoint  string    `json:"endpoint"`
	P256dh    string    `json:"-"`
	Auth      string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

func (p *PushSubscription) Target() *messaging.Subscription {
	return &messaging.Subscription{
		Endpoint: p.Endpoint,
		Keys:     messaging.Keys{P256dh: p.P256dh, Auth: p.Auth},
	}
}

func ToDataModel(n *Notification) *notificationDatamodel.Notification {
	return &notificationDatamodel.Notification{
		ID:        n.ID,
		UserID:    n.UserID,
		Title:     n.Title,
		Message:   n.Message,
		RequestID: n.RequestID,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}

func FromDataModel(n *notificationDatamodel.Notification) *Notification {
	return &Notification{
		ID:        n.ID,
		UserID:    n.UserID,
		Title:     n.Title,
		Message:   n.Message,
		RequestID: n.RequestID,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}

func FromDataModelSlice(rows []*notificationDatamodel.Notification) []*Notification {
	out := make([]*Notification, len(rows))
	for i, row := range rows {
		out[i] = FromDataModel(row)
	}
	return out
}

func SubscriptionFromDataModel(s *userDatamodel.PushSubscription) *PushSubscription {
	return &PushSubscription{
		ID:        s.ID,
		UserID:    s.UserID,
		Endpoint:  s.Endpoint,
		P256dh:    s.P256dh,
		Auth:      s.Auth,
		CreatedAt: s.CreatedAt,
	}
}
