package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/stagepay/pos-core/internal/domain"
	"github.com/stagepay/pos-core/internal/events"
)

type fakePublisher struct {
	published []events.Event
	err       error
}

func (p *fakePublisher) Publish(_ context.Context, event events.Event) error {
	p.published = append(p.published, event)
	return p.err
}

func cancelledContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}

func TestAuditServiceForwardsEvents(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	publisher := &fakePublisher{}
	audit := NewAuditService(dispatcher, zap.NewNop(), publisher)
	audit.RegisterHandlers()

	for _, eventType := range events.AllEventTypes {
		event := events.NewEvent(eventType, events.Actor{Type: domain.SubjectTypeUser, ID: 1}, nil)
		if err := dispatcher.Publish(context.Background(), event); err != nil {
			t.Fatalf("Publish(%s) error: %v", eventType, err)
		}
	}
	if len(publisher.published) != 0 {
		t.Fatalf("events forwarded on the publishing goroutine")
	}

	audit.Run(cancelledContext())
	if len(publisher.published) != len(events.AllEventTypes) {
		t.Fatalf("forwarded %d events, want %d", len(publisher.published), len(events.AllEventTypes))
	}
	for i, eventType := range events.AllEventTypes {
		if publisher.published[i].Type != eventType {
			t.Fatalf("event %d = %s, want %s", i, publisher.published[i].Type, eventType)
		}
	}
}

func TestAuditServicePublisherFailure(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	dispatcher := events.NewInMemoryDispatcher()
	publisher := &fakePublisher{err: errors.New("broker down")}
	audit := NewAuditService(dispatcher, zap.New(core), publisher)
	audit.RegisterHandlers()

	event := events.NewEvent(events.EventUserLoggedIn, events.Actor{Type: domain.SubjectTypeUser, ID: 1}, nil)
	if err := dispatcher.Publish(context.Background(), event); err != nil {
		t.Fatalf("Publish() error = %v, broker failures must not reach the caller", err)
	}

	audit.Run(cancelledContext())
	if len(publisher.published) != 1 {
		t.Fatalf("publish attempts = %d, want 1", len(publisher.published))
	}
	if logs.FilterMessage("forward auth event failed").Len() != 1 {
		t.Fatalf("expected a warning for the failed forward, got %v", logs.All())
	}
}

func TestAuditServiceDropsWhenQueueFull(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	dispatcher := events.NewInMemoryDispatcher()
	publisher := &fakePublisher{}
	audit := newAuditService(dispatcher, zap.New(core), publisher, 1)
	audit.RegisterHandlers()

	actor := events.Actor{Type: domain.SubjectTypeCustomer, ID: 12}
	first := events.NewEvent(events.EventCustomerLoggedIn, actor, nil)
	second := events.NewEvent(events.EventCustomerLoggedOut, actor, nil)
	for _, event := range []events.Event{first, second} {
		if err := dispatcher.Publish(context.Background(), event); err != nil {
			t.Fatalf("Publish() error: %v", err)
		}
	}
	if logs.FilterMessage("audit queue full, event not forwarded").Len() != 1 {
		t.Fatalf("expected one drop warning, got %v", logs.All())
	}

	audit.Run(cancelledContext())
	if len(publisher.published) != 1 || publisher.published[0].ID != first.ID {
		t.Fatalf("forwarded %+v, want only the first event", publisher.published)
	}
}

func TestAuditServiceWithoutPublisher(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	audit := NewAuditService(dispatcher, zap.NewNop(), nil)
	audit.RegisterHandlers()

	event := events.NewEvent(events.EventCustomerLoggedOut, events.Actor{Type: domain.SubjectTypeCustomer, ID: 12}, nil)
	if err := dispatcher.Publish(context.Background(), event); err != nil {
		t.Fatalf("Publish() error: %v", err)
	}
	audit.Run(context.Background())
}
