package user

import (
	"time"

	userDatamodel "github.com/frahmantamala/gatepass/internal/core/datamodel/user"
	"github.com/frahmantamala/gatepass/internal/workflow"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

type User struct {
	ID             int64                `json:"id"`
	Name           string               `json:"name"`
	Email          string               `json:"email"`
	PasswordHash   string               `json:"-"`
	Phone          string               `json:"phone,omitempty"`
	Role           workflow.Role        `json:"role"`
	DepartmentID   *int64               `json:"department_id,omitempty"`
	StudentType    workflow.StudentType `json:"student_type,omitempty"`
	RegisterNumber string               `json:"register_number,omitempty"`
	TrustScore     int                  `json:"trust_score"`
	Status         string               `json:"status"`
	IsProxyActive  bool                 `json:"is_proxy_active"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

func (u *User) IsStudent() bool {
	return u.Role == workflow.RoleStudent
}

func ToDataModel(u *User) *userDatamodel.User {
	row := &userDatamodel.User{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		PasswordHash:  u.PasswordHash,
		Phone:         u.Phone,
		Role:          string(u.Role),
		DepartmentID:  u.DepartmentID,
		TrustScore:    u.TrustScore,
		Status:        u.Status,
		IsProxyActive: u.IsProxyActive,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
	if u.StudentType != "" {
		st := string(u.StudentType)
		row.StudentType = &st
	}
	if u.RegisterNumber != "" {
		reg := u.RegisterNumber
		row.RegisterNumber = &reg
	}
	return row
}

func FromDataModel(u *userDatamodel.User) *User {
	out := &User{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		PasswordHash:  u.PasswordHash,
		Phone:         u.Phone,
		Role:          workflow.Role(u.Role),
		DepartmentID:  u.DepartmentID,
		TrustScore:    u.TrustScore,
		Status:        u.Status,
		IsProxyActive: u.IsProxyActive,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
	if u.StudentType != nil {
		out.StudentType = workflow.StudentType(*u.StudentType)
	}
	if u.RegisterNumber != nil {
		out.RegisterNumber = *u.RegisterNumber
	}
	return out
}
