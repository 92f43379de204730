package request

import "time"

type Request struct {
	ID               int64      `gorm:"primaryKey"`
	UserID           int64      `gorm:"column:user_id;not null;index"`
	Type             string     `gorm:"column:type;not null"`
	Category         string     `gorm:"column:category;not null;default:normal"`
	Reason           string     `gorm:"column:reason;not null"`
	FromDate         time.Time  `gorm:"column:from_date;not null"`
	ToDate           time.Time  `gorm:"column:to_date;not null"`
	Status           string     `gorm:"column:status;not null;index;default:pending"`
	ForwardedTo      *int64     `gorm:"column:forwarded_to"`
	HODApprovedBy    *int64     `gorm:"column:hod_approved_by"`
	WardenApprovedBy *int64     `gorm:"column:warden_approved_by"`
	RejectedBy       *int64     `gorm:"column:rejected_by"`
	RejectReason     *string    `gorm:"column:reject_reason"`
	AttachmentPath   *string    `gorm:"column:attachment_path"`
	ExitAt           *time.Time `gorm:"column:exit_at"`
	ReturnAt         *time.Time `gorm:"column:return_at"`
	CreatedAt        time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Request) TableName() string {
	return "requests"
}
