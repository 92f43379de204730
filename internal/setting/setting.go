package setting

import (
	"time"

	settingDatamodel "github.com/frahmantamala/gatepass/internal/core/datamodel/setting"
)

const (
	KeySessionTimeout  = "session_timeout"
	KeyTrustScoreMin   = "trust_score_min"
	KeyTrustScoreMax   = "trust_score_max"
	KeyMaintenanceMode = "maintenance_mode"
)

const (
	DefaultTrustScoreMin = 0
	DefaultTrustScoreMax = 100
)

type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

func FromDataModel(s *settingDatamodel.Setting) *Setting {
	return &Setting{Key: s.Key, Value: s.Value, UpdatedAt: s.UpdatedAt}
}

type UpdateDTO struct {
	Value string `json:"value" validate:"required,max=255"`
}
