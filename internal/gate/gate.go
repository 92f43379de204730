package gate

import (
	"github.com/frahmantamala/gatepass/internal/core/common/validation"
	"github.com/frahmantamala/gatepass/internal/request"
	"github.com/frahmantamala/gatepass/internal/workflow"
)

type ScanDTO struct {
	RegisterNumber string `json:"register_number" validate:"required,max=64"`
}

func (d *ScanDTO) Validate() error {
	return validation.Struct(d)
}

// ScanResult is the request a scan acted on and the step it took.
type ScanResult struct {
	Request *request.Request `json:"request"`
	Action  workflow.Action  `json:"action"`
	Student ScannedStudent   `json:"student"`
}

type ScannedStudent struct {
	ID             int64                `json:"id"`
	Name           string               `json:"name"`
	RegisterNumber string               `json:"register_number"`
	StudentType    workflow.StudentType `json:"student_type"`
}
