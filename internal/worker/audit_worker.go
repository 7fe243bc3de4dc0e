package worker

import (
	"context"

	"github.com/stagepay/pos-core/internal/service"
)

// StartAuditWorker subscribes the audit trail to auth events and forwards
// them in the background until ctx is cancelled. The returned channel is
// closed once queued events have been flushed.
func StartAuditWorker(ctx context.Context, audit *service.AuditService) <-chan struct{} {
	done := make(chan struct{})
	if audit == nil {
		close(done)
		return done
	}
	audit.RegisterHandlers()
	go func() {
		defer close(done)
		audit.Run(ctx)
	}()
	return done
}
