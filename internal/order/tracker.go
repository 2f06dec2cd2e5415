package order

import (
	"context"
	"time"

	"fooddelivery-client/internal/envelope"
	"fooddelivery-client/internal/fooddelivery"
	"fooddelivery-client/internal/logger"

	"go.uber.org/zap"
)

// DefaultPollInterval is used when Watch gets a non-positive interval.
const DefaultPollInterval = 10 * time.Second

// Update is one observed status change. Err is set on the final update
// when tracking stops because the order cannot be read.
type Update struct {
	Order    *fooddelivery.Order
	Status   Status
	Previous Status
	Err      error
}

// Tracker polls orders until they reach a terminal status.
type Tracker struct {
	client Client
}

func NewTracker(client Client) *Tracker {
	return &Tracker{client: client}
}

// Watch polls orderID every interval and sends an update whenever its
// status changes, starting with the status found by the first poll. The
// channel is closed when the order is delivered or cancelled, when it can
// no longer be read, or when ctx ends. Transient failures are retried on
// the next tick.
func (t *Tracker) Watch(ctx context.Context, orderID string, interval time.Duration) <-chan Update {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	out := make(chan Update, 1)

	go func() {
		defer close(out)

		log := logger.FromCtx(ctx).With(zap.String("order_id", orderID))
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		var last Status
		for {
			res := t.client.GetFoodOrderByID(ctx, orderID)
			switch {
			case res.Success && res.Data != nil:
				current := ParseStatus(res.Data.Status)
				if current != last {
					if last != "" && !CanTransition(last, current) {
						log.Warn("unexpected order status change",
							zap.String("from", string(last)),
							zap.String("to", string(current)),
						)
					}
					if !send(ctx, out, Update{Order: res.Data, Status: current, Previous: last}) {
						return
					}
					last = current
				}
				if current.IsTerminal() {
					return
				}
			case permanent(res.Code):
				log.Warn("order tracking stopped", zap.String("code", string(res.Code)), zap.String("message", res.Message))
				send(ctx, out, Update{Previous: last, Status: last, Err: res.Err()})
				return
			default:
				log.Debug("order poll failed", zap.String("code", string(res.Code)), zap.String("message", res.Message))
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	return out
}

func send(ctx context.Context, out chan<- Update, u Update) bool {
	select {
	case out <- u:
		return true
	case <-ctx.Done():
		return false
	}
}

func permanent(code envelope.Code) bool {
	switch code {
	case envelope.CodeNotFound, envelope.CodeValidation, envelope.CodeUnauthorized:
		return true
	}
	return false
}
