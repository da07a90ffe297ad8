package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kinderbasar/backend/internal/mailer"
	"github.com/kinderbasar/backend/internal/models"
	"github.com/kinderbasar/backend/pkg/redis"
)

const dispatchLock = "outbox:dispatch"

// OutboxStore is the part of the outbox repository the dispatcher needs.
type OutboxStore interface {
	ListUnsent(ctx context.Context, limit int) ([]*models.OutboxEmail, error)
	MarkSent(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, sendErr string) error
}

// Dispatcher sends queued outbox mail on a fixed interval. With a locker, only the
// instance holding the lease sends in a given cycle.
type Dispatcher struct {
	store    OutboxStore
	sender   mailer.Sender
	locker   *redis.Locker
	interval time.Duration
	batch    int
	logger   *zap.Logger
}

// NewDispatcher creates an outbox dispatcher. locker may be nil.
func NewDispatcher(store OutboxStore, sender mailer.Sender, locker *redis.Locker, interval time.Duration, batch int, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if batch <= 0 {
		batch = 50
	}
	return &Dispatcher{store: store, sender: sender, locker: locker, interval: interval, batch: batch, logger: logger}
}

// Run dispatches once immediately and then every interval until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	for {
		if _, err := d.DispatchOnce(ctx); err != nil && ctx.Err() == nil {
			d.logger.Warn("outbox dispatch cycle failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			d.logger.Info("outbox dispatcher stopping")
			return
		case <-ticker.C:
		}
	}
}

// DispatchOnce sends one batch and returns the number of messages sent. Failed
// messages stay unsent for the next cycle. The lease is refreshed before every
// message and the batch stops as soon as it is lost.
func (d *Dispatcher) DispatchOnce(ctx context.Context) (int, error) {
	var lease *redis.Lease
	leaseTTL := 2 * d.interval
	if d.locker != nil {
		var err error
		lease, err = d.locker.Acquire(ctx, dispatchLock, leaseTTL)
		if err != nil {
			return 0, err
		}
		if lease == nil {
			d.logger.Debug("outbox lease held elsewhere")
			return 0, nil
		}
		defer func() {
			if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
				d.logger.Warn("release outbox lease failed", zap.Error(err))
			}
		}()
	}

	msgs, err := d.store.ListUnsent(ctx, d.batch)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, m := range msgs {
		if ctx.Err() != nil {
			break
		}
		if lease != nil {
			held, err := lease.Extend(ctx, leaseTTL)
			if err != nil || !held {
				d.logger.Warn("outbox lease lost, stopping batch",
					zap.Int("sent", sent), zap.Int("batch", len(msgs)), zap.Error(err))
				break
			}
		}
		if err := d.sender.Send(ctx, m); err != nil {
			d.logger.Error("send mail failed",
				zap.String("email_id", m.ID.String()),
				zap.String("email_type", m.EmailType),
				zap.Int("attempts", m.Attempts+1),
				zap.Error(err))
			if mErr := d.store.MarkFailed(ctx, m.ID, err.Error()); mErr != nil {
				d.logger.Error("mark mail failed", zap.String("email_id", m.ID.String()), zap.Error(mErr))
			}
			continue
		}
		if err := d.store.MarkSent(ctx, m.ID); err != nil {
			d.logger.Error("mark mail sent failed", zap.String("email_id", m.ID.String()), zap.Error(err))
			continue
		}
		sent++
	}
	if sent > 0 {
		d.logger.Info("outbox dispatched", zap.Int("sent", sent), zap.Int("batch", len(msgs)))
	}
	return sent, nil
}
