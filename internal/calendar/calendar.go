package calendar

import (
	"time"

	calendarDatamodel "github.com/frahmantamala/gatepass/internal/core/datamodel/calendar"
	"github.com/frahmantamala/gatepass/internal/core/common/validation"
)

type Event struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	EventDate   string    `json:"event_date"`
	IsHoliday   bool      `json:"is_holiday"`
	CreatedBy   int64     `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

func FromDataModel(e *calendarDatamodel.Event) *Event {
	return &Event{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		EventDate:   e.EventDate.Format(validation.DateLayout),
		IsHoliday:   e.IsHoliday,
		CreatedBy:   e.CreatedBy,
		CreatedAt:   e.CreatedAt,
	}
}

type CreateEventDTO struct {
	Title       string `json:"title" validate:"required,max=120"`
	Description string `json:"description" validate:"max=1000"`
	EventDate   string `json:"event_date" validate:"required,date"`
	IsHoliday   bool   `json:"is_holiday"`
}
