package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/stagepay/pos-core/internal/events"
)

const (
	auditQueueSize      = 256
	auditPublishTimeout = 10 * time.Second
)

// EventPublisher forwards events to an external sink.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// AuditService records auth events. Logging happens inline; forwarding to
// the publisher is queued and done by Run so a slow broker never holds up
// the request that produced the event.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	publisher  EventPublisher
	queue      chan events.Event
}

// NewAuditService creates the service. publisher may be nil.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger, publisher EventPublisher) *AuditService {
	return newAuditService(dispatcher, logger, publisher, auditQueueSize)
}

func newAuditService(dispatcher events.Dispatcher, logger *zap.Logger, publisher EventPublisher, queueSize int) *AuditService {
	a := &AuditService{
		dispatcher: dispatcher,
		logger:     logger,
		publisher:  publisher,
	}
	if publisher != nil {
		a.queue = make(chan events.Event, queueSize)
	}
	return a
}

// RegisterHandlers subscribes to every auth event.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.SubscribeAll(a.handle)
}

func (a *AuditService) handle(_ context.Context, event events.Event) error {
	a.logger.Info("auth event",
		zap.String("event_id", event.ID),
		zap.String("type", string(event.Type)),
		zap.String("actor_type", string(event.Actor.Type)),
		zap.Int64("actor_id", event.Actor.ID),
		zap.Any("payload", event.Payload))

	if a.queue == nil {
		return nil
	}
	select {
	case a.queue <- event:
	default:
		a.logger.Warn("audit queue full, event not forwarded",
			zap.String("event_id", event.ID),
			zap.String("type", string(event.Type)))
	}
	return nil
}

// Run forwards queued events until ctx is cancelled, then flushes what is
// already queued.
func (a *AuditService) Run(ctx context.Context) {
	if a.queue == nil {
		return
	}
	for {
		select {
		case event := <-a.queue:
			a.forward(ctx, event)
		case <-ctx.Done():
			a.flush()
			return
		}
	}
}

func (a *AuditService) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), auditPublishTimeout)
	defer cancel()
	for {
		select {
		case event := <-a.queue:
			a.forward(ctx, event)
		default:
			return
		}
	}
}

func (a *AuditService) forward(ctx context.Context, event events.Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditPublishTimeout)
	defer cancel()
	if err := a.publisher.Publish(ctx, event); err != nil {
		a.logger.Warn("forward auth event failed",
			zap.String("event_id", event.ID),
			zap.String("type", string(event.Type)),
			zap.Error(err))
	}
}
