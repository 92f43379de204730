package proxy

import "time"

type ProxySetting struct {
	ID          int64     `gorm:"primaryKey"`
	HODID       int64     `gorm:"column:hod_id;not null;index"`
	ProxyUserID int64     `gorm:"column:proxy_user_id;not null;index"`
	IsActive    bool      `gorm:"column:is_active;default:true"`
	StartDate   time.Time `gorm:"column:start_date;not null"`
	EndDate     time.Time `gorm:"column:end_date;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (ProxySetting) TableName() string {
	return "proxy_settings"
}
