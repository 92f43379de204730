package request

import (
	"strconv"
	"time"

	requestDatamodel "github.com/frahmantamala/gatepass/internal/core/datamodel/request"
	userDatamodel "github.com/frahmantamala/gatepass/internal/core/datamodel/user"
	"github.com/frahmantamala/gatepass/internal/workflow"
)

type Request struct {
	ID               int64           `json:"id"`
	UserID           int64           `json:"user_id"`
	Type             string          `json:"type"`
	Category         string          `json:"category"`
	Reason           string          `json:"reason"`
	FromDate         time.Time       `json:"from_date"`
	ToDate           time.Time       `json:"to_date"`
	Status           workflow.Status `json:"status"`
	ForwardedTo      *int64          `json:"forwarded_to,omitempty"`
	HODApprovedBy    *int64          `json:"hod_approved_by,omitempty"`
	WardenApprovedBy *int64          `json:"warden_approved_by,omitempty"`
	RejectedBy       *int64          `json:"rejected_by,omitempty"`
	RejectReason     *string         `json:"reject_reason,omitempty"`
	AttachmentPath   *string         `json:"attachment_path,omitempty"`
	ExitAt           *time.Time      `json:"exit_at,omitempty"`
	ReturnAt         *time.Time      `json:"return_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (r *Request) Emergency() bool {
	return workflow.IsEmergency(r.Type, r.Category)
}

// Changes are the columns a transition writes besides status.
type Changes struct {
	ForwardedTo      *int64
	HODApprovedBy    *int64
	WardenApprovedBy *int64
	RejectedBy       *int64
	RejectReason     *string
	ExitAt           *time.Time
	ReturnAt         *time.Time
}

// Person is a user as the approval workflow sees them.
type Person struct {
	ID             int64
	Name           string
	Phone          string
	Role           workflow.Role
	DepartmentID   *int64
	StudentType    workflow.StudentType
	RegisterNumber string
	Active         bool
}

// Identifier is the register number for students and the user id otherwise.
func (p *Person) Identifier() string {
	if p.RegisterNumber != "" {
		return p.RegisterNumber
	}
	return strconv.FormatInt(p.ID, 10)
}

func (p *Person) InDepartment(departmentID *int64) bool {
	return p.DepartmentID != nil && departmentID != nil && *p.DepartmentID == *departmentID
}

func PersonFromDataModel(u *userDatamodel.User) *Person {
	p := &Person{
		ID:           u.ID,
		Name:         u.Name,
		Phone:        u.Phone,
		Role:         workflow.Role(u.Role),
		DepartmentID: u.DepartmentID,
		Active:       u.Status == "active",
	}
	if u.StudentType != nil {
		p.StudentType = workflow.StudentType(*u.StudentType)
	}
	if u.RegisterNumber != nil {
		p.RegisterNumber = *u.RegisterNumber
	}
	return p
}

func ToDataModel(r *Request) *requestDatamodel.Request {
	return &requestDatamodel.Request{
		ID:               r.ID,
		UserID:           r.UserID,
		Type:             r.Type,
		Category:         r.Category,
		Reason:           r.Reason,
		FromDate:         r.FromDate,
		ToDate:           r.ToDate,
		Status:           string(r.Status),
		ForwardedTo:      r.ForwardedTo,
		HODApprovedBy:    r.HODApprovedBy,
		WardenApprovedBy: r.WardenApprovedBy,
		RejectedBy:       r.RejectedBy,
		RejectReason:     r.RejectReason,
		AttachmentPath:   r.AttachmentPath,
		ExitAt:           r.ExitAt,
		ReturnAt:         r.ReturnAt,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

func FromDataModel(r *requestDatamodel.Request) *Request {
	return &Request{
		ID:               r.ID,
		UserID:           r.UserID,
		Type:             r.Type,
		Category:         r.Category,
		Reason:           r.Reason,
		FromDate:         r.FromDate,
		ToDate:           r.ToDate,
		Status:           workflow.Status(r.Status),
		ForwardedTo:      r.ForwardedTo,
		HODApprovedBy:    r.HODApprovedBy,
		WardenApprovedBy: r.WardenApprovedBy,
		RejectedBy:       r.RejectedBy,
		RejectReason:     r.RejectReason,
		AttachmentPath:   r.AttachmentPath,
		ExitAt:           r.ExitAt,
		ReturnAt:         r.ReturnAt,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

func FromDataModelSlice(rows []*requestDatamodel.Request) []*Request {
	result := make([]*Request, len(rows))
	for i, r := range rows {
		result[i] = FromDataModel(r)
	}
	return result
}
