package main

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/example/momo-gateway/internal/orders"
	"github.com/example/momo-gateway/internal/payments"
	"github.com/example/momo-gateway/internal/queue"
)

// poller checks each newly created order once, delay after it was created.
type poller struct {
	svc   *payments.Service
	store orders.Store
	delay time.Duration
	now   func() time.Time
}

func (p *poller) handle(ctx context.Context, ev queue.Event) error {
	if ev.Type != queue.EventPaymentCreated || ev.PayURL == "" {
		return nil
	}

	// the façade may run with its own memory store; make sure the order exists here too
	if _, err := p.store.Get(ctx, ev.OrderID); errors.Is(err, orders.ErrOrderNotFound) {
		if err := p.store.Save(ctx, orders.Order{
			OrderID:    ev.OrderID,
			RequestID:  ev.OrderID,
			Session:    ev.Session,
			Amount:     ev.Amount,
			PayURL:     ev.PayURL,
			ResultCode: ev.ResultCode,
			Message:    ev.Message,
			CreatedAt:  ev.At,
		}); err != nil {
			return err
		}
	}

	if wait := ev.At.Add(p.delay).Sub(p.now()); wait > 0 {
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}

	res, err := p.svc.Check(ctx, ev.Session, ev.OrderID)
	if err != nil {
		return err
	}
	log.Printf("[status-worker] %s resultCode=%d message=%q", ev.OrderID, res.ResultCode, res.Message)
	return nil
}
