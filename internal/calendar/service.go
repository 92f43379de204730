package calendar

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/gatepass/internal"
	calendarDatamodel "github.com/frahmantamala/gatepass/internal/core/datamodel/calendar"
	"github.com/frahmantamala/gatepass/internal/core/common/validation"
	"github.com/frahmantamala/gatepass/internal/workflow"
)

var ErrEventNotFound = internal.NewNotFoundError("calendar event not found", internal.ErrCodeEventNotFound)

const (
	defaultWindow = 30 * 24 * time.Hour
	maxWindow     = 366 * 24 * time.Hour
)

type Repository interface {
	Create(ctx context.Context, e *calendarDatamodel.Event) error
	ListBetween(ctx context.Context, from, to time.Time) ([]*calendarDatamodel.Event, error)
	Delete(ctx context.Context, id int64) error
}

type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

func canManage(role string) bool {
	r := workflow.Role(role)
	return r == workflow.RoleAdmin || r == workflow.RolePrincipal
}

// List returns events in [from, to]. Missing bounds default to today and 30 days on.
func (s *Service) List(ctx context.Context, from, to string) ([]*Event, error) {
	today := s.now().UTC().Truncate(24 * time.Hour)
	start, end := today, today.Add(defaultWindow)

	var err error
	switch {
	case from != "" && to != "":
		start, end, err = validation.DateRange("from", from, "to", to)
	case from != "":
		start, err = validation.ParseDate("from", from)
		end = start.Add(defaultWindow)
	case to != "":
		end, err = validation.ParseDate("to", to)
		start = end.Add(-defaultWindow)
	}
	if err != nil {
		return nil, err
	}
	if end.Sub(start) > maxWindow {
		return nil, validation.Field("to", "date range must not exceed one year", internal.ErrCodeInvalidDate)
	}

	rows, err := s.repo.ListBetween(ctx, start, end)
	if err != nil {
		return nil, err
	}
	out := make([]*Event, len(rows))
	for i, row := range rows {
		out[i] = FromDataModel(row)
	}
	return out, nil
}

func (s *Service) Create(ctx context.Context, actorID int64, actorRole string, dto CreateEventDTO) (*Event, error) {
	if !canManage(actorRole) {
		return nil, internal.ErrUnauthorizedAccess
	}
	if err := validation.Struct(dto); err != nil {
		return nil, err
	}
	date, err := validation.ParseDate("event_date", dto.EventDate)
	if err != nil {
		return nil, err
	}

	row := &calendarDatamodel.Event{
		Title:       dto.Title,
		Description: dto.Description,
		EventDate:   date,
		IsHoliday:   dto.IsHoliday,
		CreatedBy:   actorID,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, err
	}
	s.logger.Info("calendar event created", "event_id", row.ID, "date", dto.EventDate, "by", actorID)
	return FromDataModel(row), nil
}

func (s *Service) Delete(ctx context.Context, actorRole string, id int64) error {
	if !canManage(actorRole) {
		return internal.ErrUnauthorizedAccess
	}
	return s.repo.Delete(ctx, id)
}
