package notification

import "github.com/frahmantamala/gatepass/internal/core/common/validation"

// SubscribeDTO mirrors the browser PushSubscription JSON.
type SubscribeDTO struct {
	Endpoint string `json:"endpoint" validate:"required,url,max=2048"`
	Keys     struct {
		P256dh string `json:"p256dh" validate:"required"`
		Auth   string `json:"auth" validate:"required"`
	} `json:"keys"`
}

func (d SubscribeDTO) Validate() error {
	return validation.Struct(d)
}
