package events

import (
	"time"

	"github.com/google/uuid"
)

const EventTypeRequestTransitioned = "request.transitioned"

// RequestTransitionedEvent is published once a status change has been committed.
type RequestTransitionedEvent struct {
	BaseEvent
	RequestID    int64  `json:"request_id"`
	OwnerID      int64  `json:"owner_id"`
	ActorID      int64  `json:"actor_id"`
	Action       string `json:"action"`
	FromStatus   string `json:"from_status"`
	ToStatus     string `json:"to_status"`
	Emergency    bool   `json:"emergency"`
	StudentType  string `json:"student_type"`
	DepartmentID *int64 `json:"department_id,omitempty"`
}

func NewRequestTransitionedEvent(requestID, ownerID, actorID int64, action, from, to string) *RequestTransitionedEvent {
	return &RequestTransitionedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeRequestTransitioned,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"request_id":  requestID,
				"owner_id":    ownerID,
				"actor_id":    actorID,
				"action":      action,
				"from_status": from,
				"to_status":   to,
			},
		},
		RequestID:  requestID,
		OwnerID:    ownerID,
		ActorID:    actorID,
		Action:     action,
		FromStatus: from,
		ToStatus:   to,
	}
}

// WithRouting attaches what the notification fan-out needs to find the next approvers.
func (e *RequestTransitionedEvent) WithRouting(emergency bool, studentType string, departmentID *int64) *RequestTransitionedEvent {
	e.Emergency = emergency
	e.StudentType = studentType
	e.DepartmentID = departmentID
	e.Data["emergency"] = emergency
	e.Data["student_type"] = studentType
	return e
}
