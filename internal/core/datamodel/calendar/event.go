package calendar

import "time"

type Event struct {
	ID          int64     `gorm:"primaryKey"`
	Title       string    `gorm:"column:title;not null"`
	Description string    `gorm:"column:description"`
	EventDate   time.Time `gorm:"column:event_date;not null;index"`
	IsHoliday   bool      `gorm:"column:is_holiday;default:false"`
	CreatedBy   int64     `gorm:"column:created_by;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Event) TableName() string {
	return "calendar_events"
}
