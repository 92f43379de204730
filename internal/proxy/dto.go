package proxy

import "github.com/frahmantamala/gatepass/internal/core/common/validation"

// CreateSettingDTO creates a delegation. HODID is taken from the caller unless an admin sets it.
type CreateSettingDTO struct {
	HODID       int64  `json:"hod_id,omitempty"`
	ProxyUserID int64  `json:"proxy_user_id" validate:"required,min=1"`
	StartDate   string `json:"start_date" validate:"required,date"`
	EndDate     string `json:"end_date" validate:"required,date"`
}

func (d CreateSettingDTO) Validate() error {
	return validation.Struct(d)
}
