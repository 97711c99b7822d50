package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"portfolio_api/internal/domain/model"
	"portfolio_api/internal/domain/repository"
	"portfolio_api/internal/platform/queue"
)

const (
	defaultPollTimeout = 5 * time.Second
	defaultRetryDelay  = 5 * time.Second
	storeTimeout       = 5 * time.Second
)

// EventSource yields queued audit events. Pop returns (nil, nil) when no
// event arrived within timeout.
type EventSource interface {
	Pop(ctx context.Context, timeout time.Duration) (*model.AuditEvent, error)
}

// AuditWorker drains the audit queue into admin_audit_events.
type AuditWorker struct {
	source      EventSource
	auditRepo   repository.AuditRepository
	log         *slog.Logger
	pollTimeout time.Duration
	retryDelay  time.Duration
}

func NewAuditWorker(source EventSource, auditRepo repository.AuditRepository, log *slog.Logger) *AuditWorker {
	if log == nil {
		log = slog.Default()
	}
	return &AuditWorker{
		source:      source,
		auditRepo:   auditRepo,
		log:         log.With("component", "audit_worker"),
		pollTimeout: defaultPollTimeout,
		retryDelay:  defaultRetryDelay,
	}
}

// Start blocks until ctx is cancelled.
func (w *AuditWorker) Start(ctx context.Context) {
	w.log.Info("audit worker started")
	for {
		select {
		case <-ctx.Done():
			w.log.Info("audit worker stopping")
			return
		default:
		}

		event, err := w.source.Pop(ctx, w.pollTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			if errors.Is(err, queue.ErrMalformedEvent) {
				w.log.Warn("dropping malformed audit event", "error", err)
				continue
			}
			w.log.Error("failed to pop audit event", "error", err)
			w.sleep(ctx, w.retryDelay)
			continue
		}
		if event == nil {
			continue
		}
		w.store(ctx, event)
	}
}

func (w *AuditWorker) store(ctx context.Context, event *model.AuditEvent) {
	// the event is already off the queue, so finish writing it even while
	// shutting down
	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
	defer cancel()
	if err := w.auditRepo.Create(storeCtx, event); err != nil {
		w.log.Error("failed to persist audit event", "event_id", event.ID, "action", event.Action, "error", err)
		return
	}
	w.log.Debug("audit event persisted", "event_id", event.ID, "action", event.Action)
}

func (w *AuditWorker) sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
