package user

import (
	"strings"

	"github.com/frahmantamala/gatepass/internal"
	"github.com/frahmantamala/gatepass/internal/core/common/validation"
	"github.com/frahmantamala/gatepass/internal/workflow"
)

// CreateUserDTO is the admin payload for registering an account.
type CreateUserDTO struct {
	Name           string `json:"name" validate:"required,max=255"`
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required,min=8"`
	Phone          string `json:"phone" validate:"omitempty,max=32"`
	Role           string `json:"role" validate:"required,oneof=student staff hod warden gatekeeper admin principal"`
	DepartmentID   *int64 `json:"department_id,omitempty"`
	StudentType    string `json:"student_type,omitempty" validate:"omitempty,oneof=day_scholar hostel"`
	RegisterNumber string `json:"register_number,omitempty" validate:"omitempty,max=64"`
}

func (d *CreateUserDTO) Validate() error {
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
	d.RegisterNumber = strings.TrimSpace(d.RegisterNumber)
	if err := validation.Struct(d); err != nil {
		return err
	}

	if workflow.Role(d.Role) == workflow.RoleStudent {
		if d.StudentType == "" {
			return validation.Field("student_type", "student_type is required for students", internal.ErrCodeValidationFailed)
		}
		if d.RegisterNumber == "" {
			return validation.Field("register_number", "register_number is required for students", internal.ErrCodeValidationFailed)
		}
		return nil
	}
	if d.StudentType != "" || d.RegisterNumber != "" {
		return validation.Field("student_type", "only students carry a student type or register number", internal.ErrCodeValidationFailed)
	}
	return nil
}

type UpdateStatusDTO struct {
	Status string `json:"status" validate:"required,oneof=active inactive"`
}

func (d UpdateStatusDTO) Validate() error {
	return validation.Struct(d)
}

// TrustScoreDTO sets an absolute score; the service clamps it to the configured bounds.
type TrustScoreDTO struct {
	TrustScore *int `json:"trust_score" validate:"required"`
}

func (d TrustScoreDTO) Validate() error {
	return validation.Struct(d)
}
