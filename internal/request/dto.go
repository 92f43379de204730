package request

import (
	"time"

	"github.com/frahmantamala/gatepass/internal/core/common/validation"
	"github.com/frahmantamala/gatepass/internal/workflow"
)

// CreateRequestDTO is the payload for raising a new request.
type CreateRequestDTO struct {
	Type     string `json:"type" validate:"required,oneof=leave outing emergency"`
	Category string `json:"category" validate:"omitempty,oneof=normal emergency"`
	Reason   string `json:"reason" validate:"required,max=1000"`
	FromDate string `json:"from_date" validate:"required,date"`
	ToDate   string `json:"to_date" validate:"required,date"`
}

func (d *CreateRequestDTO) Validate() (time.Time, time.Time, error) {
	if d.Category == "" {
		d.Category = workflow.CategoryNormal
	}
	if err := validation.Struct(d); err != nil {
		return time.Time{}, time.Time{}, err
	}
	return validation.DateRange("from_date", d.FromDate, "to_date", d.ToDate)
}

// ApprovalDTO is the body of POST /approvals. Actor fields are optional and,
// when present, must match the authenticated user.
type ApprovalDTO struct {
	RequestID int64  `json:"request_id" validate:"required,min=1"`
	ActorRole string `json:"actor_role,omitempty"`
	ActorID   int64  `json:"actor_id,omitempty"`
}

func (d ApprovalDTO) Validate() error {
	return validation.Struct(d)
}

type RejectDTO struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

func (d RejectDTO) Validate() error {
	return validation.Struct(d)
}

// Filter narrows request listings. Zero values mean no restriction.
type Filter struct {
	OwnerID       *int64
	DepartmentIDs []int64
	StudentType   workflow.StudentType
	Statuses      []workflow.Status
	Emergency     *bool
	GateReady     bool
	// Any matches rows satisfying at least one alternative, ANDed with the fields above.
	Any           []Filter
	Limit         int
	Offset        int
}

type Dashboard struct {
	Role             workflow.Role             `json:"role"`
	Counts           map[workflow.Status]int64 `json:"counts,omitempty"`
	Current          *Request                  `json:"current,omitempty"`
	PendingApprovals int64                     `json:"pending_approvals"`
	GateReady        int64                     `json:"gate_ready"`
	CurrentlyOut     int64                     `json:"currently_out"`
}
