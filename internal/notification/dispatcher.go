package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	userDatamodel "github.com/frahmantamala/gatepass/internal/core/datamodel/user"
	"github.com/frahmantamala/gatepass/internal/core/events"
	"github.com/frahmantamala/gatepass/internal/messaging"
	"github.com/frahmantamala/gatepass/internal/workflow"
)

type UserFinder interface {
	FindByID(ctx context.Context, id int64) (*userDatamodel.User, error)
}

type ApproverDirectory interface {
	ActiveIDsByRole(ctx context.Context, role string, departmentID *int64) ([]int64, error)
}

type ProxyLookup interface {
	ActiveProxiesOf(ctx context.Context, hodIDs []int64, at time.Time) ([]int64, error)
}

type Enqueuer interface {
	Enqueue(msg messaging.Message) bool
}

// Dispatcher turns committed transitions into inbox rows and channel deliveries.
type Dispatcher struct {
	repo      Repository
	users     UserFinder
	approvers ApproverDirectory
	proxies   ProxyLookup
	queue     Enqueuer
	logger    *slog.Logger
	now       func() time.Time
}

func NewDispatcher(repo Repository, users UserFinder, approvers ApproverDirectory, proxies ProxyLookup, queue Enqueuer, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		repo:      repo,
		users:     users,
		approvers: approvers,
		proxies:   proxies,
		queue:     queue,
		logger:    logger,
		now:       time.Now,
	}
}

func (d *Dispatcher) HandleRequestTransitioned(ctx context.Context, event events.Event) error {
	evt, ok := event.(*events.RequestTransitionedEvent)
	if !ok {
		d.logger.Error("invalid event type for notification dispatcher", "event_type", event.EventType())
		return fmt.Errorf("expected RequestTransitionedEvent, got %T", event)
	}

	to := workflow.Status(evt.ToStatus)
	ownerTitle, ownerMsg := ownerText(evt.RequestID, to)

	requestID := evt.RequestID
	items := []*Notification{{UserID: evt.OwnerID, Title: ownerTitle, Message: ownerMsg, RequestID: &requestID}}

	next, err := d.nextApprovers(ctx, evt)
	if err != nil {
		// the owner still hears about it
		d.logger.Warn("failed to resolve next approvers", "request_id", evt.RequestID, "error", err)
	}
	for _, id := range next {
		if id == evt.OwnerID || id == evt.ActorID {
			continue
		}
		items = append(items, &Notification{
			UserID:    id,
			Title:     "Approval needed",
			Message:   fmt.Sprintf("Request #%d is waiting for your approval.", evt.RequestID),
			RequestID: &requestID,
		})
	}

	if err := d.repo.CreateBatch(ctx, items); err != nil {
		d.logger.Error("failed to persist notifications", "request_id", evt.RequestID, "error", err)
		return err
	}

	d.fanOut(ctx, evt, ownerTitle, ownerMsg)
	d.logger.Info("notifications dispatched",
		"request_id", evt.RequestID,
		"to_status", evt.ToStatus,
		"recipients", len(items))
	return nil
}

// nextApprovers lists who must act on the request in its new status.
// Gatekeepers act on scans and are never notified.
func (d *Dispatcher) nextApprovers(ctx context.Context, evt *events.RequestTransitionedEvent) ([]int64, error) {
	role := workflow.NextRole(workflow.Status(evt.ToStatus), evt.Emergency, workflow.StudentType(evt.StudentType))
	switch role {
	case workflow.RoleHOD:
		if evt.DepartmentID == nil {
			return nil, nil
		}
		hods, err := d.approvers.ActiveIDsByRole(ctx, string(workflow.RoleHOD), evt.DepartmentID)
		if err != nil || len(hods) == 0 {
			return hods, err
		}
		if d.proxies == nil {
			return hods, nil
		}
		proxies, err := d.proxies.ActiveProxiesOf(ctx, hods, d.now())
		if err != nil {
			return hods, err
		}
		return dedupe(append(hods, proxies...)), nil
	case workflow.RoleWarden:
		return d.approvers.ActiveIDsByRole(ctx, string(workflow.RoleWarden), nil)
	}
	return nil, nil
}

func (d *Dispatcher) fanOut(ctx context.Context, evt *events.RequestTransitionedEvent, title, body string) {
	if d.queue == nil {
		return
	}
	owner, err := d.users.FindByID(ctx, evt.OwnerID)
	if err != nil {
		d.logger.Warn("delivery skipped, owner lookup failed", "request_id", evt.RequestID, "error", err)
		return
	}

	url := fmt.Sprintf("/requests/%d", evt.RequestID)
	if owner.Phone != "" {
		for _, ch := range []messaging.Channel{messaging.ChannelSMS, messaging.ChannelWhatsApp} {
			d.queue.Enqueue(messaging.Message{Channel: ch, RequestID: evt.RequestID, To: owner.Phone, Title: title, Body: body, URL: url})
		}
	}

	subs, err := d.repo.SubscriptionsFor(ctx, owner.ID)
	if err != nil {
		d.logger.Warn("push skipped, subscription lookup failed", "user_id", owner.ID, "error", err)
		return
	}
	for _, sub := range subs {
		d.queue.Enqueue(messaging.Message{Channel: messaging.ChannelPush, RequestID: evt.RequestID, Title: title, Body: body, URL: url, Subscription: sub.Target()})
	}
}

func (d *Dispatcher) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.Subscribe(events.EventTypeRequestTransitioned, d.HandleRequestTransitioned)
	d.logger.Info("notification event handlers registered",
		"handlers", []string{events.EventTypeRequestTransitioned})
}

func ownerText(requestID int64, to workflow.Status) (string, string) {
	var title string
	switch to {
	case workflow.StatusPending:
		title = "Request submitted"
	case workflow.StatusApprovedHOD:
		title = "Approved by HOD"
	case workflow.StatusApprovedWarden:
		title = "Approved by warden"
	case workflow.StatusActive:
		title = "Exit recorded"
	case workflow.StatusCompleted:
		title = "Return recorded"
	case workflow.StatusRejected:
		title = "Request rejected"
	case workflow.StatusCancelled:
		title = "Request cancelled"
	default:
		title = "Request updated"
	}
	return title, messaging.Template(requestID, string(to))
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
