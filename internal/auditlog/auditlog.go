package auditlog

import (
	"time"

	auditlogDatamodel "github.com/frahmantamala/gatepass/internal/core/datamodel/auditlog"
)

type Entry struct {
	ID         int64     `json:"id"`
	RequestID  int64     `json:"request_id"`
	ActorID    int64     `json:"actor_id"`
	Action     string    `json:"action"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	Timestamp  time.Time `json:"timestamp"`
}

func ToDataModel(e *Entry) *auditlogDatamodel.Log {
	return &auditlogDatamodel.Log{
		ID:         e.ID,
		RequestID:  e.RequestID,
		ActorID:    e.ActorID,
		Action:     e.Action,
		FromStatus: e.FromStatus,
		ToStatus:   e.ToStatus,
		Timestamp:  e.Timestamp,
	}
}

func FromDataModel(l *auditlogDatamodel.Log) *Entry {
	return &Entry{
		ID:         l.ID,
		RequestID:  l.RequestID,
		ActorID:    l.ActorID,
		Action:     l.Action,
		FromStatus: l.FromStatus,
		ToStatus:   l.ToStatus,
		Timestamp:  l.Timestamp,
	}
}
