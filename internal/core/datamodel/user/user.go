package user

import "time"

type User struct {
	ID             int64     `gorm:"primaryKey"`
	Name           string    `gorm:"column:name;not null"`
	Email          string    `gorm:"column:email;uniqueIndex;not null"`
	PasswordHash   string    `gorm:"column:password_hash;not null"`
	Phone          string    `gorm:"column:phone"`
	Role           string    `gorm:"column:role;not null;index"`
	DepartmentID   *int64    `gorm:"column:department_id;index"`
	StudentType    *string   `gorm:"column:student_type"`
	RegisterNumber *string   `gorm:"column:register_number;uniqueIndex"`
	TrustScore     int       `gorm:"column:trust_score;default:100"`
	Status         string    `gorm:"column:status;not null;default:active"`
	IsProxyActive  bool      `gorm:"column:is_proxy_active;default:false"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}

type PushSubscription struct {
	ID        int64     `gorm:"primaryKey"`
	UserID    int64     `gorm:"column:user_id;not null;index"`
	Endpoint  string    `gorm:"column:endpoint;not null;uniqueIndex"`
	P256dh    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"column:auth;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (PushSubscription) TableName() string {
	return "push_subscriptions"
}
