package auditlog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/gatepass/internal"
	"github.com/frahmantamala/gatepass/internal/core/common/validation"
	"github.com/frahmantamala/gatepass/internal/core/events"
	"github.com/frahmantamala/gatepass/internal/request"
	"github.com/frahmantamala/gatepass/internal/workflow"
)

type Repository interface {
	Append(ctx context.Context, e *Entry) error
	ListByRequest(ctx context.Context, requestID int64) ([]*Entry, error)
	PurgeBefore(ctx context.Context, before time.Time) (int64, error)
}

type RequestLoader interface {
	GetByID(ctx context.Context, id int64) (*request.Request, error)
}

type Service struct {
	repo     Repository
	requests RequestLoader
	logger   *slog.Logger
}

func NewService(repo Repository, requests RequestLoader, logger *slog.Logger) *Service {
	return &Service{repo: repo, requests: requests, logger: logger}
}

// HandleRequestTransitioned appends one row per committed transition.
// Republished notifications are not transitions and are skipped.
func (s *Service) HandleRequestTransitioned(ctx context.Context, event events.Event) error {
	evt, ok := event.(*events.RequestTransitionedEvent)
	if !ok {
		s.logger.Error("invalid event type for audit log", "event_type", event.EventType())
		return fmt.Errorf("expected RequestTransitionedEvent, got %T", event)
	}
	if evt.Action == request.ActionResend {
		return nil
	}

	entry := &Entry{
		RequestID:  evt.RequestID,
		ActorID:    evt.ActorID,
		Action:     evt.Action,
		FromStatus: evt.FromStatus,
		ToStatus:   evt.ToStatus,
		Timestamp:  evt.OccurredAt(),
	}
	if err := s.repo.Append(ctx, entry); err != nil {
		s.logger.Error("failed to append audit log", "request_id", evt.RequestID, "action", evt.Action, "error", err)
		return err
	}
	return nil
}

func (s *Service) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.Subscribe(events.EventTypeRequestTransitioned, s.HandleRequestTransitioned)
	s.logger.Info("audit log event handlers registered",
		"handlers", []string{events.EventTypeRequestTransitioned})
}

// List returns the history of a request to its owner or any non-student.
func (s *Service) List(ctx context.Context, requestID, viewerID int64, viewerRole string) ([]*Entry, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.UserID != viewerID && workflow.Role(viewerRole) == workflow.RoleStudent {
		return nil, internal.ErrUnauthorizedAccess
	}
	return s.repo.ListByRequest(ctx, requestID)
}

// Purge deletes rows older than before (YYYY-MM-DD). Admin only.
func (s *Service) Purge(ctx context.Context, actorID int64, actorRole, before string) (int64, error) {
	if workflow.Role(actorRole) != workflow.RoleAdmin {
		return 0, internal.ErrUnauthorizedAccess
	}
	cutoff, err := validation.ParseDate("before", before)
	if err != nil {
		return 0, err
	}

	n, err := s.repo.PurgeBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	s.logger.Warn("audit log purged", "actor_id", actorID, "before", before, "deleted", n)
	return n, nil
}
