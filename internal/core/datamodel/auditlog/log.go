package auditlog

import "time"

// Log rows are append-only.
type Log struct {
	ID         int64     `gorm:"primaryKey"`
	RequestID  int64     `gorm:"column:request_id;not null;index"`
	ActorID    int64     `gorm:"column:actor_id;not null"`
	Action     string    `gorm:"column:action;not null"`
	FromStatus string    `gorm:"column:from_status"`
	ToStatus   string    `gorm:"column:to_status;not null"`
	Timestamp  time.Time `gorm:"column:timestamp;not null;index"`
}

func (Log) TableName() string {
	return "logs"
}
